package facts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs/puppetlang/internal/values"
)

func TestLoadFactsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.yaml")
	doc := "os:\n  family: RedHat\n  release:\n    major: '8'\nmemorysize_mb: 2048\nis_virtual: true\ntags:\n  - web\n  - prod\n"
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte(doc), 0o644)))

	p := New()
	qt.Assert(t, qt.IsNil(p.LoadFactsFile(path)))

	f := p.Facts()
	qt.Assert(t, qt.Equals[values.Value](f["memorysize_mb"], values.Int(2048)))
	qt.Assert(t, qt.Equals[values.Value](f["is_virtual"], values.Bool(true)))

	osHash, ok := f["os"].(*values.Hash)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(osHash.Pairs, 2))

	tags, ok := f["tags"].(*values.Array)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(tags.Elements, 2))
	qt.Assert(t, qt.Equals[values.Value](tags.Elements[0], values.Str("web")))
}

func TestLoadFactsFileMissing(t *testing.T) {
	p := New()
	err := p.LoadFactsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestSetFactOverridesLoaded(t *testing.T) {
	p := New()
	qt.Assert(t, qt.IsNil(p.LoadFactsYAML([]byte("hostname: alpha\n"))))
	p.SetFact("hostname", values.Str("beta"))
	qt.Assert(t, qt.Equals[values.Value](p.Facts()["hostname"], values.Str("beta")))
}

func TestTrustedSeparateFromFacts(t *testing.T) {
	p := New()
	qt.Assert(t, qt.IsNil(p.LoadFactsYAML([]byte("hostname: alpha\n"))))
	qt.Assert(t, qt.IsNil(p.LoadTrustedFile(writeTemp(t, "certname: alpha.example.com\n"))))
	qt.Assert(t, qt.Equals[values.Value](p.Trusted()["certname"], values.Str("alpha.example.com")))
	_, ok := p.Facts()["certname"]
	qt.Assert(t, qt.IsFalse(ok))
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trusted.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
