package scanner

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

type scanned struct {
	tok token.Token
	lit string
}

func scanAll(src string, mode Mode) []scanned {
	var errs errors.List
	s := &Scanner{}
	s.Init(token.NewFile("test", len(src)), []byte(src), NewErrorHandler(&errs), mode)
	var out []scanned
	for {
		_, tok, lit := s.Scan()
		out = append(out, scanned{tok, lit})
		if tok == token.EOF {
			return out
		}
	}
}

func TestScanCodeIgnoresEPPMarkersWithoutMode(t *testing.T) {
	toks := scanAll("1 % 2", 0)
	qt.Assert(t, qt.Equals(toks[0].tok, token.INT))
	qt.Assert(t, qt.Equals(toks[1].tok, token.PCT))
	qt.Assert(t, qt.Equals(toks[2].tok, token.INT))
}

func TestScanEPPPlainTextOnly(t *testing.T) {
	toks := scanAll("hello world", ScanEPP)
	qt.Assert(t, qt.Equals(toks[0].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[0].lit, "hello world"))
	qt.Assert(t, qt.Equals(toks[1].tok, token.EOF))
}

func TestScanEPPCodeBlockIsTransparent(t *testing.T) {
	toks := scanAll("before<% $x = 1 %>after", ScanEPP)
	qt.Assert(t, qt.Equals(toks[0].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[0].lit, "before"))
	qt.Assert(t, qt.Equals(toks[1].tok, token.VARIABLE))
	qt.Assert(t, qt.Equals(toks[1].lit, "$x"))
	qt.Assert(t, qt.Equals(toks[2].tok, token.ASSIGN))
	qt.Assert(t, qt.Equals(toks[3].tok, token.INT))
	qt.Assert(t, qt.Equals(toks[3].lit, "1"))
	qt.Assert(t, qt.Equals(toks[4].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[4].lit, "after"))
	qt.Assert(t, qt.Equals(toks[5].tok, token.EOF))
}

func TestScanEPPRenderBlock(t *testing.T) {
	toks := scanAll("hi <%= $name %>!", ScanEPP)
	qt.Assert(t, qt.Equals(toks[0].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[0].lit, "hi "))
	qt.Assert(t, qt.Equals(toks[1].tok, token.INTERPOLATION_START))
	qt.Assert(t, qt.Equals(toks[2].tok, token.VARIABLE))
	qt.Assert(t, qt.Equals(toks[2].lit, "$name"))
	qt.Assert(t, qt.Equals(toks[3].tok, token.INTERPOLATION_END))
	qt.Assert(t, qt.Equals(toks[4].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[4].lit, "!"))
}

func TestScanBracedInterpolationCloses(t *testing.T) {
	toks := scanAll(`"a${$x}b"`, 0)
	qt.Assert(t, qt.Equals(toks[0].tok, token.STRING_START))
	qt.Assert(t, qt.Equals(toks[1].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[1].lit, "a"))
	qt.Assert(t, qt.Equals(toks[2].tok, token.INTERPOLATION_START))
	qt.Assert(t, qt.Equals(toks[3].tok, token.VARIABLE))
	qt.Assert(t, qt.Equals(toks[3].lit, "$x"))
	qt.Assert(t, qt.Equals(toks[4].tok, token.INTERPOLATION_END))
	qt.Assert(t, qt.Equals(toks[5].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[5].lit, "b"))
	qt.Assert(t, qt.Equals(toks[6].tok, token.STRING_END))
}

func TestScanBracedInterpolationWithNestedBracesCloses(t *testing.T) {
	toks := scanAll(`"${ { } }"`, 0)
	qt.Assert(t, qt.Equals(toks[0].tok, token.STRING_START))
	qt.Assert(t, qt.Equals(toks[1].tok, token.INTERPOLATION_START))
	qt.Assert(t, qt.Equals(toks[2].tok, token.LBRACE))
	qt.Assert(t, qt.Equals(toks[3].tok, token.RBRACE))
	qt.Assert(t, qt.Equals(toks[4].tok, token.INTERPOLATION_END))
	qt.Assert(t, qt.Equals(toks[5].tok, token.STRING_END))
}

func TestScanEPPModuloInsideCodeBlockIsNotMistakenForClose(t *testing.T) {
	toks := scanAll("<% $x = 5 % 2 %>done", ScanEPP)
	qt.Assert(t, qt.Equals(toks[0].tok, token.VARIABLE))
	qt.Assert(t, qt.Equals(toks[1].tok, token.ASSIGN))
	qt.Assert(t, qt.Equals(toks[2].tok, token.INT))
	qt.Assert(t, qt.Equals(toks[3].tok, token.PCT))
	qt.Assert(t, qt.Equals(toks[4].tok, token.INT))
	qt.Assert(t, qt.Equals(toks[5].tok, token.STRING_TEXT))
	qt.Assert(t, qt.Equals(toks[5].lit, "done"))
}
