package parser

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs/puppetlang/syntax/ast"
)

func TestParseFileLeavesIsEPPUnset(t *testing.T) {
	f, errs := ParseFile("test.pp", []byte(`1 + 1`))
	qt.Assert(t, qt.HasLen(errs, 0))
	qt.Assert(t, qt.IsFalse(f.IsEPP))
}

func TestParseEPPSetsIsEPP(t *testing.T) {
	f, errs := ParseEPP("test.epp", []byte(`plain text`))
	qt.Assert(t, qt.HasLen(errs, 0))
	qt.Assert(t, qt.IsTrue(f.IsEPP))
	qt.Assert(t, qt.HasLen(f.Statements, 1))
	txt, ok := f.Statements[0].(*ast.EPPText)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(txt.Text, "plain text"))
}

func TestParseEPPCodeBlockProducesAssignment(t *testing.T) {
	f, errs := ParseEPP("test.epp", []byte(`before<% $x = 1 %>after`))
	qt.Assert(t, qt.HasLen(errs, 0))
	qt.Assert(t, qt.HasLen(f.Statements, 3))

	before, ok := f.Statements[0].(*ast.EPPText)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(before.Text, "before"))

	assign, ok := f.Statements[1].(*ast.Assignment)
	qt.Assert(t, qt.IsTrue(ok))
	v, ok := assign.Target.(*ast.Variable)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v.Name, "x"))

	after, ok := f.Statements[2].(*ast.EPPText)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(after.Text, "after"))
}

func TestParseEPPRenderProducesEPPRender(t *testing.T) {
	f, errs := ParseEPP("test.epp", []byte(`hi <%= $name %>!`))
	qt.Assert(t, qt.HasLen(errs, 0))
	qt.Assert(t, qt.HasLen(f.Statements, 3))

	render, ok := f.Statements[1].(*ast.EPPRender)
	qt.Assert(t, qt.IsTrue(ok))
	v, ok := render.Expr.(*ast.Variable)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v.Name, "name"))
}
