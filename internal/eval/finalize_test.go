package eval

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs/puppetlang/catalog"
	"github.com/puppetlabs/puppetlang/internal/registry"
	"github.com/puppetlabs/puppetlang/internal/runtime"
	"github.com/puppetlabs/puppetlang/internal/validate"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/parser"
)

// compileManifest runs the same parse/validate/scan/evaluate/finalize
// pipeline internal/compiler wires up, without depending on that package,
// so finalize.go's behavior can be asserted directly against the catalog
// it produces.
func compileManifest(t *testing.T, src string) *catalog.Catalog {
	t.Helper()
	f, perrs := parser.ParseFile("test.pp", []byte(src))
	qt.Assert(t, qt.HasLen(perrs, 0))
	qt.Assert(t, qt.HasLen(validate.File(f), 0))

	reg := registry.New()
	qt.Assert(t, qt.HasLen(registry.Scan(reg, f), 0))

	cat := catalog.New()
	root := runtime.NewRootScope(nil)
	ctx := runtime.NewContext(root)
	e := New(reg, cat, ctx, nil)

	_, err := e.EvalStatements(f.Statements)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(e.Finalize(), 0))
	return cat
}

func TestFinalizeAppliesOverride(t *testing.T) {
	cat := compileManifest(t, `
file { '/etc/motd': ensure => present }
File['/etc/motd'] { content => 'overridden' }
`)
	r, ok := cat.Lookup("file", "/etc/motd")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals[values.Value](r.Attrs["content"].Value, values.Str("overridden")))
}

func TestFinalizeRunsCollector(t *testing.T) {
	cat := compileManifest(t, `
file { '/etc/a': ensure => present, tag => 'keep' }
file { '/etc/b': ensure => absent }
File <| tag == 'keep' |> { ensure => 'present' }
`)
	r, ok := cat.Lookup("file", "/etc/a")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals[values.Value](r.Attrs["ensure"].Value, values.Str("present")))
}

func TestFinalizeQueuesRelationshipBeforeTarget(t *testing.T) {
	cat := compileManifest(t, `
notify { 'a': }
notify { 'b': }
Notify['a'] -> Notify['b']
`)
	a, ok := cat.Lookup("notify", "a")
	qt.Assert(t, qt.IsTrue(ok))
	b, ok := cat.Lookup("notify", "b")
	qt.Assert(t, qt.IsTrue(ok))

	found := false
	for _, e := range cat.Edges() {
		if e.From == a && e.To == b && e.Relation == catalog.Before {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

func TestFinalizeDeclaresDefinedType(t *testing.T) {
	cat := compileManifest(t, `
define thing($msg) {
  notify { $msg: }
}
thing { 'x': msg => 'hello' }
`)
	_, ok := cat.Lookup("notify", "hello")
	qt.Assert(t, qt.IsTrue(ok))
}

// evalManifest runs the same pipeline as compileManifest but returns the
// evaluator and its errors instead of asserting there are none, for tests
// that exercise a rejected override or collector fault.
func evalManifest(t *testing.T, src string) (*Evaluator, *catalog.Catalog, []error) {
	t.Helper()
	f, perrs := parser.ParseFile("test.pp", []byte(src))
	qt.Assert(t, qt.HasLen(perrs, 0))
	qt.Assert(t, qt.HasLen(validate.File(f), 0))

	reg := registry.New()
	qt.Assert(t, qt.HasLen(registry.Scan(reg, f), 0))

	cat := catalog.New()
	root := runtime.NewRootScope(nil)
	ctx := runtime.NewContext(root)
	e := New(reg, cat, ctx, nil)

	_, err := e.EvalStatements(f.Statements)
	qt.Assert(t, qt.IsNil(err))
	errs := e.Finalize()
	out := make([]error, len(errs))
	for i, fe := range errs {
		out[i] = fe
	}
	return e, cat, out
}

func TestFinalizeRejectsImmediateOverrideWithoutInheritance(t *testing.T) {
	_, _, errs := evalManifest(t, `
class a { file { '/etc/x': ensure => present } }
class b { File['/etc/x'] { ensure => absent } }
include a
include b
`)
	qt.Assert(t, qt.Not(qt.HasLen(errs, 0)))
}

func TestFinalizeRejectsDeferredOverrideWithoutInheritance(t *testing.T) {
	_, cat, errs := evalManifest(t, `
class b { File['/etc/x'] { ensure => absent } }
class a { file { '/etc/x': ensure => present } }
include b
include a
`)
	qt.Assert(t, qt.Not(qt.HasLen(errs, 0)))
	r, ok := cat.Lookup("file", "/etc/x")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals[values.Value](r.Attrs["ensure"].Value, values.Str("present")))
}

func TestFinalizeAllowsOverrideFromContainingScope(t *testing.T) {
	cat := compileManifest(t, `
class a {
  file { '/etc/y': ensure => present }
  File['/etc/y'] { ensure => absent }
}
include a
`)
	r, ok := cat.Lookup("file", "/etc/y")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals[values.Value](r.Attrs["ensure"].Value, values.Str("absent")))
}
