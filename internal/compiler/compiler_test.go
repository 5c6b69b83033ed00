package compiler

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs/puppetlang/facts"
	"github.com/puppetlabs/puppetlang/internal/values"
)

func TestCompileSimpleManifest(t *testing.T) {
	s := NewSession(nil, nil)
	res := s.CompileFile("site.pp", []byte(`
file { '/etc/motd':
  ensure  => present,
  content => 'hello',
}
`))
	qt.Assert(t, qt.IsNil(res.Err()))
	qt.Assert(t, qt.IsNotNil(res.Catalog))
	r, ok := res.Catalog.Lookup("file", "/etc/motd")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals[values.Value](r.Attrs["ensure"].Value, values.Str("present")))
}

func TestCompileParseErrorCollected(t *testing.T) {
	s := NewSession(nil, nil)
	res := s.CompileFile("broken.pp", []byte(`file { :`))
	qt.Assert(t, qt.IsNotNil(res.Err()))
	qt.Assert(t, qt.IsNil(res.Catalog))
}

func TestCompileMultipleFilesShareCatalog(t *testing.T) {
	s := NewSession(nil, nil)
	res := s.Compile([]Source{
		{Path: "classes.pp", Text: []byte(`class base { file { '/etc/base': ensure => present } }`)},
		{Path: "site.pp", Text: []byte(`include base`)},
	})
	qt.Assert(t, qt.IsNil(res.Err()))
	qt.Assert(t, qt.IsNotNil(res.Catalog))
	_, ok := res.Catalog.Lookup("file", "/etc/base")
	qt.Assert(t, qt.IsTrue(ok))
}

func TestCompileWithFactSource(t *testing.T) {
	p := facts.New()
	p.SetFact("hostname", values.Str("web01"))
	s := NewSession(p, nil)
	res := s.CompileFile("site.pp", []byte(`
notify { $hostname: }
`))
	qt.Assert(t, qt.IsNil(res.Err()))
	_, ok := res.Catalog.Lookup("notify", "web01")
	qt.Assert(t, qt.IsTrue(ok))
}

func TestCompileRequireCycleDetected(t *testing.T) {
	s := NewSession(nil, nil)
	res := s.CompileFile("cycle.pp", []byte(`
notify { 'a': require => Notify['b'] }
notify { 'b': require => Notify['a'] }
`))
	qt.Assert(t, qt.IsNotNil(res.Err()))
	qt.Assert(t, qt.IsNil(res.Catalog))
}

func TestCompileEPPRendersPlainText(t *testing.T) {
	s := NewSession(nil, nil)
	res := s.CompileFile("motd.epp", []byte(`welcome to the machine`))
	qt.Assert(t, qt.IsNil(res.Err()))
	qt.Assert(t, qt.Equals[values.Value](res.Value, values.Str("welcome to the machine")))
}

func TestCompileEPPRendersEmbeddedExpression(t *testing.T) {
	p := facts.New()
	p.SetFact("hostname", values.Str("web01"))
	s := NewSession(p, nil)
	res := s.CompileFile("motd.epp", []byte(`host: <%= $hostname %>.`))
	qt.Assert(t, qt.IsNil(res.Err()))
	qt.Assert(t, qt.Equals[values.Value](res.Value, values.Str("host: web01.")))
}

func TestCompileEPPCodeBlockRunsWithoutEmittingText(t *testing.T) {
	s := NewSession(nil, nil)
	res := s.CompileFile("motd.epp", []byte(`before<% notify { 'x': } %>after`))
	qt.Assert(t, qt.IsNil(res.Err()))
	qt.Assert(t, qt.Equals[values.Value](res.Value, values.Str("beforeafter")))
	_, ok := res.Catalog.Lookup("notify", "x")
	qt.Assert(t, qt.IsTrue(ok))
}
