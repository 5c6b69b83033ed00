// Package parser implements a recursive-descent parser over the token
// stream produced by the scanner (spec §4.2), building the AST defined in
// package ast. Binary operators are collected into a flat
// (op, operand) sequence for the evaluator's precedence-climbing walk
// rather than nested by the parser (spec §3, §4.5).
package parser

import (
	"fmt"

	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/literal"
	"github.com/puppetlabs/puppetlang/syntax/scanner"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// ParseError is raised for syntactic failures; it carries the offending
// token's range (spec §4.2 "A parse_exception carries a token range").
type ParseError struct {
	Pos token.Position
	End token.Position
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

type parser struct {
	file    *token.File
	sc      scanner.Scanner
	errs    errors.List

	pos  token.Position
	tok  token.Token
	lit  string

	// small lookahead buffer; most productions need only 1 token but a few
	// (e.g. disambiguating `Type { ... }` resource vs collector) need 2.
	buffered bool
	bpos     token.Position
	btok     token.Token
	blit     string
}

// ParseFile parses the named source into a *ast.File.
func ParseFile(name string, src []byte) (*ast.File, errors.List) {
	return parse(name, src, false)
}

// ParseEPP parses src as an EPP template (spec §4.2 "EPP file parse").
// Text outside `<% %>` becomes implicit `$epp::output.append(...)` sequence
// represented directly as an ast.File with IsEPP set; the evaluator streams
// output via the context's output-stream stack (spec §4.6).
func ParseEPP(name string, src []byte) (*ast.File, errors.List) {
	return parse(name, src, true)
}

func parse(name string, src []byte, epp bool) (*ast.File, errors.List) {
	p := &parser{file: token.NewFile(name, len(src))}
	var mode scanner.Mode
	if epp {
		mode |= scanner.ScanEPP
	}
	p.sc.Init(p.file, src, scanner.NewErrorHandler(&p.errs), mode)
	p.next()

	f := &ast.File{Path: name, Source: string(src), IsEPP: epp}
	start := p.pos
	f.Statements = p.parseStatements(token.EOF)
	f.Base = ast.NewBase(start, p.pos)
	return f, p.errs
}

// ParseInterpolation parses the body of a `${...}` interpolation, stopping
// at the first unmatched `}` (spec §4.2 "interpolate-parse").
func ParseInterpolation(name string, src []byte, offset int) (ast.Expr, errors.List) {
	p := &parser{file: token.NewFile(name, len(src))}
	p.sc.Init(p.file, src, scanner.NewErrorHandler(&p.errs), 0)
	p.next()
	e := p.parseExpr()
	return e, p.errs
}

func (p *parser) next() {
	if p.buffered {
		p.pos, p.tok, p.lit = p.bpos, p.btok, p.blit
		p.buffered = false
		return
	}
	p.pos, p.tok, p.lit = p.sc.Scan()
}

func (p *parser) peek() (token.Token, string) {
	if !p.buffered {
		p.bpos, p.btok, p.blit = p.sc.Scan()
		p.buffered = true
	}
	return p.btok, p.blit
}

func (p *parser) errorf(pos token.Position, format string, args ...interface{}) {
	p.errs = append(p.errs, errors.Newf(pos, format, args...))
}

func (p *parser) expect(tok token.Token) token.Position {
	pos := p.pos
	if p.tok != tok {
		p.errorf(p.pos, "expected %s, found %s", tok, p.tok)
	} else {
		p.next()
	}
	return pos
}

func (p *parser) at(tok token.Token) bool { return p.tok == tok }

// ---------------------------------------------------------------------
// Statements

func (p *parser) parseStatements(end token.Token) []ast.Stmt {
	var stmts []ast.Stmt
	for p.tok != end && p.tok != token.EOF {
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		}
		for p.tok == token.SEMI {
			p.next()
		}
	}
	return stmts
}

func (p *parser) parseStatement() ast.Stmt {
	switch p.tok {
	case token.CLASS:
		return p.parseClassDecl()
	case token.DEFINE:
		return p.parseDefinedTypeDecl()
	case token.NODE:
		return p.parseNodeDecl()
	case token.FUNCTION:
		return p.parseFunctionDecl()
	case token.TYPE:
		return p.parseTypeAliasDecl()
	case token.APPLICATION:
		return p.parseApplicationDecl()
	case token.SITE:
		return p.parseSiteDecl()
	case token.PRODUCES:
		return p.parseProducesDecl()
	case token.CONSUMES:
		return p.parseConsumesDecl()
	case token.IF:
		return p.parseIf()
	case token.UNLESS:
		return p.parseUnless()
	case token.CASE:
		return p.parseCase()
	case token.STRING_TEXT:
		return p.parseEPPText()
	case token.INTERPOLATION_START:
		return p.parseEPPRender()
	case token.IDENT:
		if next, _ := p.peek(); next == token.LBRACE {
			// lowercase resource declaration: `file { 'title': ... }`
			name := &ast.Name{Base: ast.NewBase(p.pos, p.pos), Value: p.lit}
			p.next()
			return p.parseResourceOrOverrideBody(name)
		}
		return p.parseExprStatement()
	default:
		return p.parseExprStatement()
	}
}

// parseEPPText consumes one literal EPP text run (spec §4.1 "EPP
// templates toggle the lexer between text and code"), produced by the
// scanner as a bare STRING_TEXT token outside any STRING_START/STRING_END
// wrapper.
func (p *parser) parseEPPText() ast.Stmt {
	start := p.pos
	text := p.lit
	p.next()
	return &ast.EPPText{Base: ast.NewBase(start, p.pos), Text: text}
}

// parseEPPRender consumes an embedded `<%= expr %>` block, mirroring how
// parseString handles `${expr}` interpolation.
func (p *parser) parseEPPRender() ast.Stmt {
	start := p.pos
	p.next() // INTERPOLATION_START ("<%=")
	e := p.parseExpr()
	end := p.pos
	p.expect(token.INTERPOLATION_END)
	return &ast.EPPRender{Base: ast.NewBase(start, end), Expr: e}
}

func (p *parser) parseExprStatement() ast.Stmt {
	e := p.parseExpr()
	if p.tok == token.ASSIGN {
		p.next()
		val := p.parseExpr()
		return &ast.Assignment{Base: ast.NewBase(e.Pos(), val.End()), Target: e, Value: val}
	}
	return e
}

// ---------------------------------------------------------------------
// Parameter lists — shared by class/define/function/lambda (spec §4.2,
// §4.3 "Required parameters cannot follow optional ones", captures-rest
// last-only).

func (p *parser) parseParamList(open, closeTok token.Token) []ast.Param {
	if open != token.ILLEGAL {
		p.expect(open)
	}
	var params []ast.Param
	for p.tok != closeTok && p.tok != token.EOF {
		params = append(params, p.parseParam())
		if p.tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	p.expect(closeTok)
	return params
}

func (p *parser) parseParam() ast.Param {
	start := p.pos
	var typ ast.Expr
	if p.tok == token.TYPE_NAME {
		typ = p.parseTypeExpr()
	}
	captures := false
	if p.tok == token.STAR {
		captures = true
		p.next()
	}
	namePos := p.pos
	name := p.lit
	p.expect(token.VARIABLE)
	var def ast.Expr
	if p.tok == token.ASSIGN {
		p.next()
		def = p.parseExpr()
	}
	end := p.pos
	if def != nil {
		end = def.End()
	}
	return ast.Param{
		Base:     ast.NewBase(start, end),
		Type:     typ,
		Name:     trimVarName(name, namePos),
		Default:  def,
		Captures: captures,
	}
}

func trimVarName(lit string, pos token.Position) string {
	if len(lit) > 0 && lit[0] == '$' {
		return lit[1:]
	}
	return lit
}

// ---------------------------------------------------------------------
// Declarations

func (p *parser) parseClassDecl() ast.Stmt {
	start := p.pos
	p.next() // 'class'
	name := p.parseQualifiedName()
	var params []ast.Param
	if p.tok == token.LPAREN {
		params = p.parseParamList(token.LPAREN, token.RPAREN)
	}
	parent := ""
	if p.tok == token.INHERITS {
		p.next()
		parent = p.parseQualifiedName()
	}
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.ClassDecl{Base: ast.NewBase(start, end), Name: name, Params: params, Parent: parent, Body: body}
}

func (p *parser) parseDefinedTypeDecl() ast.Stmt {
	start := p.pos
	p.next() // 'define'
	name := p.parseQualifiedName()
	var params []ast.Param
	if p.tok == token.LPAREN {
		params = p.parseParamList(token.LPAREN, token.RPAREN)
	}
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.DefinedTypeDecl{Base: ast.NewBase(start, end), Name: name, Params: params, Body: body}
}

func (p *parser) parseNodeDecl() ast.Stmt {
	start := p.pos
	p.next() // 'node'
	var hosts []ast.Expr
	isDefault := false
	for {
		if p.tok == token.DEFAULT {
			isDefault = true
			p.next()
		} else {
			hosts = append(hosts, p.parseHostMatch())
		}
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.NodeDecl{Base: ast.NewBase(start, end), Hosts: hosts, Default: isDefault, Body: body}
}

// parseHostMatch accepts a quoted string, a bare dotted hostname, or a
// regex, per spec §4.3 "Host-name tokens in node statements".
func (p *parser) parseHostMatch() ast.Expr {
	if p.tok == token.REGEX {
		pos := p.pos
		pat := p.lit
		p.next()
		return &ast.Regex{Base: ast.NewBase(pos, p.pos), Pattern: pat}
	}
	return p.parseUnaryExpr()
}

func (p *parser) parseFunctionDecl() ast.Stmt {
	start := p.pos
	p.next() // 'function'
	name := p.parseQualifiedName()
	params := p.parseParamList(token.LPAREN, token.RPAREN)
	var ret ast.Expr
	if p.tok == token.RSHIFT {
		p.next()
		ret = p.parseTypeExpr()
	}
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.FunctionDecl{Base: ast.NewBase(start, end), Name: name, Params: params, ReturnType: ret, Body: body}
}

func (p *parser) parseTypeAliasDecl() ast.Stmt {
	start := p.pos
	p.next() // 'type'
	name := p.parseQualifiedName()
	p.expect(token.ASSIGN)
	typ := p.parseTypeExpr()
	return &ast.TypeAliasDecl{Base: ast.NewBase(start, typ.End()), Name: name, Type: typ}
}

// Application/site/produces/consumes reserve their syntax; spec §9 marks
// their evaluation unimplemented, so the parser only needs to recognize
// and skip their bodies without interpreting them.
func (p *parser) parseApplicationDecl() ast.Stmt {
	start := p.pos
	p.next()
	name := p.parseQualifiedName()
	var params []ast.Param
	if p.tok == token.LPAREN {
		params = p.parseParamList(token.LPAREN, token.RPAREN)
	}
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.ApplicationDecl{Base: ast.NewBase(start, end), Name: name, Params: params, Body: body}
}

func (p *parser) parseSiteDecl() ast.Stmt {
	start := p.pos
	p.next()
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.SiteDecl{Base: ast.NewBase(start, end), Body: body}
}

func (p *parser) parseProducesDecl() ast.Stmt {
	start := p.pos
	p.next()
	typ := p.parseTypeExpr()
	params := p.parseParamList(token.LPAREN, token.RPAREN)
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.ProducesDecl{Base: ast.NewBase(start, end), Type: typ, Params: params, Body: body}
}

func (p *parser) parseConsumesDecl() ast.Stmt {
	start := p.pos
	p.next()
	typ := p.parseTypeExpr()
	params := p.parseParamList(token.LPAREN, token.RPAREN)
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.ConsumesDecl{Base: ast.NewBase(start, end), Type: typ, Params: params, Body: body}
}

func (p *parser) parseQualifiedName() string {
	name := p.lit
	if p.tok != token.IDENT && p.tok != token.TYPE_NAME {
		p.errorf(p.pos, "expected name, found %s", p.tok)
	}
	p.next()
	return name
}

// ---------------------------------------------------------------------
// Control flow

func (p *parser) parseIf() ast.Expr {
	start := p.pos
	p.next() // 'if'
	cond := p.parseExpr()
	p.expect(token.LBRACE)
	then := p.parseStatements(token.RBRACE)
	p.expect(token.RBRACE)

	var elsifs []ast.ElsifClause
	var elseBody []ast.Stmt
	for p.tok == token.ELSIF {
		p.next()
		c := p.parseExpr()
		p.expect(token.LBRACE)
		b := p.parseStatements(token.RBRACE)
		p.expect(token.RBRACE)
		elsifs = append(elsifs, ast.ElsifClause{Cond: c, Body: b})
	}
	end := p.pos
	if p.tok == token.ELSE {
		p.next()
		p.expect(token.LBRACE)
		elseBody = p.parseStatements(token.RBRACE)
		end = p.pos
		p.expect(token.RBRACE)
	}
	return &ast.IfExpr{Base: ast.NewBase(start, end), Cond: cond, Then: then, Elsifs: elsifs, Else: elseBody}
}

func (p *parser) parseUnless() ast.Expr {
	start := p.pos
	p.next() // 'unless'
	cond := p.parseExpr()
	p.expect(token.LBRACE)
	then := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	var elseBody []ast.Stmt
	if p.tok == token.ELSE {
		p.next()
		p.expect(token.LBRACE)
		elseBody = p.parseStatements(token.RBRACE)
		end = p.pos
		p.expect(token.RBRACE)
	}
	return &ast.UnlessExpr{Base: ast.NewBase(start, end), Cond: cond, Then: then, Else: elseBody}
}

func (p *parser) parseCase() ast.Expr {
	start := p.pos
	p.next() // 'case'
	subject := p.parseExpr()
	p.expect(token.LBRACE)
	var opts []ast.CaseOption
	for p.tok != token.RBRACE && p.tok != token.EOF {
		opts = append(opts, p.parseCaseOption())
	}
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.CaseExpr{Base: ast.NewBase(start, end), Subject: subject, Options: opts}
}

func (p *parser) parseCaseOption() ast.CaseOption {
	var opt ast.CaseOption
	if p.tok == token.DEFAULT {
		opt.IsDefault = true
		p.next()
	} else {
		if p.tok == token.STAR {
			opt.Splat = true
			p.next()
		}
		opt.Values = append(opt.Values, p.parseExpr())
		for p.tok == token.COMMA {
			p.next()
			opt.Values = append(opt.Values, p.parseExpr())
		}
	}
	p.expect(token.COLON)
	p.expect(token.LBRACE)
	opt.Body = p.parseStatements(token.RBRACE)
	p.expect(token.RBRACE)
	return opt
}

// ---------------------------------------------------------------------
// Expressions: a primary followed by a flat (op, operand) sequence for
// precedence-climbing evaluation (spec §3, §4.5).

func (p *parser) parseExpr() ast.Expr {
	left := p.parseUnaryExpr()
	var terms []ast.BinaryTerm
	for p.tok.Precedence() > 0 {
		op := p.tok
		p.next()
		right := p.parseUnaryExpr()
		terms = append(terms, ast.BinaryTerm{Op: op, Right: right})
	}
	if len(terms) == 0 {
		return left
	}
	return &ast.BinaryExpr{Base: ast.NewBase(left.Pos(), terms[len(terms)-1].Right.End()), Left: left, Terms: terms}
}

func (p *parser) parseUnaryExpr() ast.Expr {
	start := p.pos
	switch p.tok {
	case token.NOT:
		p.next()
		operand := p.parseUnaryExpr()
		return &ast.UnaryExpr{Base: ast.NewBase(start, operand.End()), Op: ast.UnaryNot, Operand: operand}
	case token.MINUS:
		p.next()
		operand := p.parseUnaryExpr()
		return &ast.UnaryExpr{Base: ast.NewBase(start, operand.End()), Op: ast.UnaryMinus, Operand: operand}
	}
	return p.parsePostfixExpr()
}

func (p *parser) parsePostfixExpr() ast.Expr {
	prim := p.parsePrimaryExpr()
	var chain []ast.PostfixOp
	for {
		switch p.tok {
		case token.LBRACK:
			p.next()
			var idx []ast.Expr
			for p.tok != token.RBRACK && p.tok != token.EOF {
				idx = append(idx, p.parseExpr())
				if p.tok == token.COMMA {
					p.next()
				}
			}
			p.expect(token.RBRACK)
			chain = append(chain, ast.PostfixOp{Kind: ast.PostfixAccess, Index: idx})
		case token.DOT:
			p.next()
			name := p.lit
			if p.tok != token.IDENT && p.tok != token.TYPE_NAME {
				p.errorf(p.pos, "expected method name, found %s", p.tok)
			}
			p.next()
			var args []ast.Expr
			if p.tok == token.LPAREN {
				p.next()
				for p.tok != token.RPAREN && p.tok != token.EOF {
					args = append(args, p.parseExpr())
					if p.tok == token.COMMA {
						p.next()
					}
				}
				p.expect(token.RPAREN)
			}
			var block *ast.Lambda
			if p.tok == token.PIPE {
				block = p.parseLambda()
			}
			chain = append(chain, ast.PostfixOp{Kind: ast.PostfixMethodCall, Method: name, Args: args, Block: block})
		case token.QMARK:
			p.next()
			p.expect(token.LBRACE)
			var cases []ast.SelectorCase
			for p.tok != token.RBRACE && p.tok != token.EOF {
				var val ast.Expr
				if p.tok == token.DEFAULT {
					p.next()
				} else {
					val = p.parseExpr()
				}
				p.expect(token.FARROW)
				res := p.parseExpr()
				cases = append(cases, ast.SelectorCase{Value: val, Result: res})
				if p.tok == token.COMMA {
					p.next()
				}
			}
			p.expect(token.RBRACE)
			chain = append(chain, ast.PostfixOp{Kind: ast.PostfixSelector, Cases: cases})
		default:
			if len(chain) == 0 {
				return prim
			}
			return &ast.Postfix{Base: ast.NewBase(prim.Pos(), p.pos), Primary: prim, Chain: chain}
		}
	}
}

func (p *parser) parseLambda() *ast.Lambda {
	start := p.pos
	params := p.parseParamList(token.PIPE, token.PIPE)
	p.expect(token.LBRACE)
	body := p.parseStatements(token.RBRACE)
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.Lambda{Base: ast.NewBase(start, end), Params: params, Body: body}
}

// ---------------------------------------------------------------------
// Primary expressions

func (p *parser) parsePrimaryExpr() ast.Expr {
	start := p.pos
	switch p.tok {
	case token.UNDEF:
		p.next()
		return &ast.Undef{Base: ast.NewBase(start, p.pos)}
	case token.DEFAULT:
		p.next()
		return &ast.DefaultLit{Base: ast.NewBase(start, p.pos)}
	case token.TRUE, token.FALSE:
		v := p.tok == token.TRUE
		p.next()
		return &ast.BoolLit{Base: ast.NewBase(start, p.pos), Value: v}
	case token.INT:
		return p.parseIntLit()
	case token.FLOAT:
		return p.parseFloatLit()
	case token.VARIABLE:
		name := p.lit[1:]
		p.next()
		return &ast.Variable{Base: ast.NewBase(start, p.pos), Name: name}
	case token.REGEX:
		pat := p.lit
		p.next()
		return &ast.Regex{Base: ast.NewBase(start, p.pos), Pattern: pat}
	case token.STRING_START:
		return p.parseString()
	case token.LPAREN:
		p.next()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	case token.LBRACK:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseHashLit()
	case token.IF:
		return p.parseIf()
	case token.UNLESS:
		return p.parseUnless()
	case token.CASE:
		return p.parseCase()
	case token.LLCOLLECT, token.LLLCOLLECT:
		return p.parseCollectorFor(nil)
	case token.TYPE_NAME:
		return p.parseTypeRefOrResource()
	case token.IDENT:
		return p.parseIdentExpr()
	default:
		if isStatementCallToken(p.tok) {
			return p.parseStatementCall()
		}
		p.errorf(start, "unexpected token %s", p.tok)
		p.next()
		return &ast.Undef{Base: ast.NewBase(start, p.pos)}
	}
}

func isStatementCallToken(t token.Token) bool {
	switch t {
	case token.REQUIRE_CALL, token.REALIZE_CALL, token.INCLUDE_CALL, token.CONTAIN_CALL,
		token.TAG_CALL, token.DEBUG_CALL, token.INFO_CALL, token.NOTICE_CALL,
		token.WARNING_CALL, token.ERR_CALL, token.FAIL_CALL, token.IMPORT_CALL:
		return true
	}
	return false
}

// parseStatementCall parses one of the fixed bareword statement-call
// functions (spec §4.1), which may be invoked with or without parens and
// without requiring a trailing semicolon.
func (p *parser) parseStatementCall() ast.Expr {
	start := p.pos
	name := p.lit
	p.next()
	var args []ast.Expr
	if p.tok == token.LPAREN {
		p.next()
		for p.tok != token.RPAREN && p.tok != token.EOF {
			args = append(args, p.parseExpr())
			if p.tok == token.COMMA {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	} else {
		for canStartExpr(p.tok) {
			args = append(args, p.parseExpr())
			if p.tok == token.COMMA {
				p.next()
				continue
			}
			break
		}
	}
	return &ast.FunctionCall{Base: ast.NewBase(start, p.pos), Name: name, Args: args}
}

func canStartExpr(t token.Token) bool {
	switch t {
	case token.SEMI, token.RBRACE, token.RPAREN, token.RBRACK, token.EOF, token.COMMA,
		token.COLON, token.ASSIGN:
		return false
	}
	return true
}

func (p *parser) parseIdentExpr() ast.Expr {
	start := p.pos
	name := p.lit
	p.next()
	if p.tok == token.LPAREN {
		p.next()
		var args []ast.Expr
		for p.tok != token.RPAREN && p.tok != token.EOF {
			args = append(args, p.parseExpr())
			if p.tok == token.COMMA {
				p.next()
			}
		}
		p.expect(token.RPAREN)
		var block *ast.Lambda
		if p.tok == token.PIPE {
			block = p.parseLambda()
		}
		return &ast.FunctionCall{Base: ast.NewBase(start, p.pos), Name: name, Args: args, Block: block}
	}
	return &ast.Name{Base: ast.NewBase(start, p.pos), Value: name}
}

func (p *parser) parseIntLit() ast.Expr {
	start := p.pos
	lit := p.lit
	p.next()
	v, err := parseIntLiteral(lit)
	if err != nil {
		p.errorf(start, "%s", err)
	}
	return &ast.IntLit{Base: ast.NewBase(start, p.pos), Value: v}
}

func (p *parser) parseFloatLit() ast.Expr {
	start := p.pos
	lit := p.lit
	p.next()
	v, err := parseFloatLiteral(lit)
	if err != nil {
		p.errorf(start, "%s", err)
	}
	return &ast.FloatLit{Base: ast.NewBase(start, p.pos), Value: v}
}

// parseString consumes the decomposed string-token sequence (STRING_START,
// then interleaved STRING_TEXT and INTERPOLATION_START...INTERPOLATION_END,
// then STRING_END) and assembles an ast.String (spec §3, §4.7 interpolation).
func (p *parser) parseString() ast.Expr {
	start := p.pos
	p.next() // STRING_START
	var parts []ast.StringPart
	for {
		switch p.tok {
		case token.STRING_TEXT:
			parts = append(parts, ast.StringPart{Text: p.lit})
			p.next()
		case token.INTERPOLATION_START:
			p.next()
			e := p.parseExpr()
			parts = append(parts, ast.StringPart{Expr: e})
			p.expect(token.INTERPOLATION_END)
		case token.STRING_END:
			if p.lit != "" {
				parts = append(parts, ast.StringPart{Text: p.lit})
			}
			end := p.pos
			p.next()
			return &ast.String{Base: ast.NewBase(start, end), Parts: parts, Interpolated: true}
		default:
			p.errorf(p.pos, "unterminated string")
			return &ast.String{Base: ast.NewBase(start, p.pos), Parts: parts}
		}
	}
}

func (p *parser) parseArrayLit() ast.Expr {
	start := p.pos
	p.next() // '['
	var elems []ast.Expr
	for p.tok != token.RBRACK && p.tok != token.EOF {
		elems = append(elems, p.parseExpr())
		if p.tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	end := p.pos
	p.expect(token.RBRACK)
	return &ast.ArrayLit{Base: ast.NewBase(start, end), Elements: elems}
}

func (p *parser) parseHashLit() ast.Expr {
	start := p.pos
	p.next() // '{'
	var entries []ast.HashEntry
	for p.tok != token.RBRACE && p.tok != token.EOF {
		key := p.parseExpr()
		p.expect(token.FARROW)
		val := p.parseExpr()
		entries = append(entries, ast.HashEntry{Key: key, Value: val})
		if p.tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.HashLit{Base: ast.NewBase(start, end), Entries: entries}
}

// parseTypeRefOrResource disambiguates a leading TYPE_NAME, which may
// begin a type expression, a resource declaration (`File { 'x': ... }`), a
// resource override (`File['x'] { ... }`), or a collector
// (`File <| ... |>`). Lowercase declarations (`file { ... }`) are
// recognized by parseStatement.
func (p *parser) parseTypeRefOrResource() ast.Expr {
	typ := p.parseTypeExpr()
	switch p.tok {
	case token.LBRACE:
		if te, ok := typ.(*ast.TypeExpr); ok && len(te.Params) > 0 {
			p.next() // '{'
			attrs := p.parseAttributeList()
			end := p.pos
			p.expect(token.RBRACE)
			return &ast.ResourceOverride{Base: ast.NewBase(typ.Pos(), end), Reference: typ, Attributes: attrs}
		}
		return p.parseResourceOrOverrideBody(typ)
	case token.LLCOLLECT, token.LLLCOLLECT:
		return p.parseCollectorFor(typ)
	}
	return typ
}

// parseResourceOrOverrideBody parses the `{ body, body, ... }` suffix of a
// resource declaration (spec §4.7 "Resource-declaration evaluation");
// titles evaluating to `default` become ResourceDefaults attributes per
// that section's step 1.
func (p *parser) parseResourceOrOverrideBody(typ ast.Expr) ast.Expr {
	start := typ.Pos()
	p.next() // '{'
	var bodies []ast.ResourceBody
	for p.tok != token.RBRACE && p.tok != token.EOF {
		title := p.parseExpr()
		p.expect(token.COLON)
		attrs := p.parseAttributeList()
		bodies = append(bodies, ast.ResourceBody{Title: title, Attributes: attrs})
		if p.tok == token.SEMI {
			p.next()
		} else {
			break
		}
	}
	end := p.pos
	p.expect(token.RBRACE)
	return &ast.Resource{Base: ast.NewBase(start, end), Type: typ, Bodies: bodies}
}

func (p *parser) parseAttributeList() []ast.Attribute {
	var attrs []ast.Attribute
	for p.tok != token.RBRACE && p.tok != token.SEMI && p.tok != token.EOF {
		attrs = append(attrs, p.parseAttribute())
		if p.tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	return attrs
}

func (p *parser) parseAttribute() ast.Attribute {
	start := p.pos
	if p.tok == token.STAR {
		p.next()
		p.expect(token.FARROW)
		val := p.parseExpr()
		return ast.Attribute{Base: ast.NewBase(start, val.End()), Splat: true, Op: ast.OpAssign, Value: val}
	}
	var name ast.Expr
	if p.tok == token.STRING_START {
		name = p.parseString()
	} else {
		namePos := p.pos
		n := p.lit
		p.next()
		name = &ast.BareWord{Base: ast.NewBase(namePos, p.pos), Value: n}
	}
	op := ast.OpAssign
	switch p.tok {
	case token.FARROW:
		op = ast.OpAssign
	case token.PARROW:
		op = ast.OpAppend
	default:
		p.errorf(p.pos, "expected => or +>, found %s", p.tok)
	}
	p.next()
	val := p.parseExpr()
	return ast.Attribute{Base: ast.NewBase(start, val.End()), Name: name, Op: op, Value: val}
}

// parseCollectorFor parses `<| query |>` or `<<| query |>>` (spec §4.2,
// §4.7 "Collectors"). A nil typ is filled in by the caller's surrounding
// context when used outside a leading type name (rare; defaults to no type
// restriction).
func (p *parser) parseCollectorFor(typ ast.Expr) ast.Expr {
	start := p.pos
	if typ != nil {
		start = typ.Pos()
	}
	exported := p.tok == token.LLLCOLLECT
	closeTok := token.RLCOLLECT
	if exported {
		closeTok = token.RLLCOLLECT
	}
	p.next()
	var query ast.Expr
	if p.tok != closeTok {
		query = p.parseExpr()
	}
	end := p.pos
	p.expect(closeTok)
	return &ast.CollectorQuery{Base: ast.NewBase(start, end), Type: typ, Exported: exported, Query: query}
}

// parseTypeExpr parses a type reference: `Foo`, `Foo::Bar`, or
// `Foo[params...]` (spec §3 "Type", §4.5 type textual specifications).
func (p *parser) parseTypeExpr() ast.Expr {
	start := p.pos
	name := p.lit
	p.expect(token.TYPE_NAME)
	var params []ast.Expr
	if p.tok == token.LBRACK {
		p.next()
		for p.tok != token.RBRACK && p.tok != token.EOF {
			params = append(params, p.parseTypeParam())
			if p.tok == token.COMMA {
				p.next()
			} else {
				break
			}
		}
		p.expect(token.RBRACK)
	}
	return &ast.TypeExpr{Base: ast.NewBase(start, p.pos), Name: name, Params: params}
}

// parseTypeParam parses one parameter inside `Type[...]`, which may itself
// be a type, an integer bound, or a hash literal (for Struct).
func (p *parser) parseTypeParam() ast.Expr {
	if p.tok == token.TYPE_NAME {
		return p.parseTypeExpr()
	}
	return p.parseExpr()
}

func parseIntLiteral(lit string) (int64, error) {
	return literal.ParseInt(lit)
}

func parseFloatLiteral(lit string) (float64, error) {
	return literal.ParseFloat(lit)
}

var _ = fmt.Sprintf
