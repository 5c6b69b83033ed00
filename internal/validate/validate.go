// Package validate implements the AST validator (spec §4.3): structural
// legality checks that run once per parsed file, before the definition
// scanner and evaluator see it.
package validate

import (
	"regexp"
	"strings"

	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

var hostnameRE = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// metaparameters are the built-in attribute names reserved across every
// resource type (spec §4.3 "Resource-parameter names may not collide with
// reserved names ... or any metaparameter").
var metaparameters = map[string]bool{
	"before": true, "notify": true, "require": true, "subscribe": true,
	"alias": true, "tag": true, "noop": true, "loglevel": true,
	"stage": true, "schedule": true, "audit": true, "export": true,
}

var reservedParamNames = map[string]bool{"title": true, "name": true}

// File validates an entire parsed file, returning every legality
// violation found (it does not stop at the first).
func File(f *ast.File) errors.List {
	v := &validator{topLevel: true}
	v.walkStmts(f.Statements, true, false)
	return v.errs
}

type validator struct {
	errs     errors.List
	topLevel bool
}

func (v *validator) errorf(pos token.Position, format string, args ...interface{}) {
	v.errs = v.errs.Add(errors.Newf(pos, format, args...))
}

// walkStmts validates a statement list. atTop is true only for a file's
// direct top-level statements or a class body (spec §4.3 "Class/defined-
// type/node bodies only at top level or inside classes"). inLambda marks
// a lambda parameter list, the only place a captures-rest parameter is
// legal.
func (v *validator) walkStmts(stmts []ast.Stmt, atTop bool, inLambda bool) {
	for _, stmt := range stmts {
		v.walkStmt(stmt, atTop, inLambda)
	}
}

func (v *validator) walkStmt(stmt ast.Stmt, atTop bool, inLambda bool) {
	switch n := stmt.(type) {
	case *ast.ClassDecl:
		if !atTop {
			v.errorf(n.Pos(), "class %q may only be declared at top level or inside a class", n.Name)
		}
		v.checkDeclName(n.Name, n.Pos())
		v.checkParams(n.Params, false)
		v.walkStmts(n.Body, true, false)
	case *ast.DefinedTypeDecl:
		if !atTop {
			v.errorf(n.Pos(), "defined type %q may only be declared at top level or inside a class", n.Name)
		}
		v.checkDeclName(n.Name, n.Pos())
		v.checkParams(n.Params, false)
		v.walkStmts(n.Body, false, false)
	case *ast.NodeDecl:
		if !atTop {
			v.errorf(n.Pos(), "node definitions are only legal at top level")
		}
		for _, h := range n.Hosts {
			if s, ok := h.(*ast.String); ok && len(s.Parts) == 1 && s.Parts[0].Expr == nil {
				if !hostnameRE.MatchString(s.Parts[0].Text) {
					v.errorf(s.Pos(), "invalid node hostname %q", s.Parts[0].Text)
				}
			}
		}
		v.walkStmts(n.Body, false, false)
	case *ast.FunctionDecl:
		if !atTop {
			v.errorf(n.Pos(), "function %q may only be declared at top level", n.Name)
		}
		v.checkParams(n.Params, false)
		v.walkStmts(n.Body, false, false)
	case *ast.TypeAliasDecl:
		if !atTop {
			v.errorf(n.Pos(), "type alias %q may only be declared at top level", n.Name)
		}
	case *ast.ApplicationDecl:
		if !atTop {
			v.errorf(n.Pos(), "application %q may only be declared at top level", n.Name)
		}
		v.checkParams(n.Params, false)
	case *ast.SiteDecl:
		if !atTop {
			v.errorf(n.Pos(), "site definitions are only legal at top level")
		}
		v.walkStmts(n.Body, false, false)
	case *ast.ProducesDecl:
		if !v.inSiteOrTop(atTop) {
			v.errorf(n.Pos(), "produces mappings are only legal at top level or inside a site")
		}
	case *ast.ConsumesDecl:
		if !v.inSiteOrTop(atTop) {
			v.errorf(n.Pos(), "consumes mappings are only legal at top level or inside a site")
		}
	case *ast.Assignment:
		v.checkAssignTarget(n.Target)
		v.walkExpr(n.Value, inLambda)
	case *ast.IfExpr:
		v.walkExpr(n.Cond, inLambda)
		v.walkStmts(n.Then, false, inLambda)
		for _, e := range n.Elsifs {
			v.walkExpr(e.Cond, inLambda)
			v.walkStmts(e.Body, false, inLambda)
		}
		v.walkStmts(n.Else, false, inLambda)
	case *ast.UnlessExpr:
		v.walkExpr(n.Cond, inLambda)
		v.walkStmts(n.Then, false, inLambda)
		v.walkStmts(n.Else, false, inLambda)
	case *ast.CaseExpr:
		v.walkExpr(n.Subject, inLambda)
		for _, opt := range n.Options {
			for _, val := range opt.Values {
				v.walkExpr(val, inLambda)
			}
			v.walkStmts(opt.Body, false, inLambda)
		}
	case *ast.Resource:
		v.walkExpr(n.Type, inLambda)
		for _, b := range n.Bodies {
			v.walkExpr(b.Title, inLambda)
			v.checkAttributes(b.Attributes, inLambda)
		}
	case *ast.ResourceOverride:
		v.walkExpr(n.Reference, inLambda)
		v.checkAttributes(n.Attributes, inLambda)
	case *ast.ResourceDefaults:
		v.walkExpr(n.Type, inLambda)
		v.checkAttributes(n.Attributes, inLambda)
	case *ast.CollectorQuery:
		v.walkExpr(n.Type, inLambda)
		if n.Query != nil {
			v.walkExpr(n.Query, inLambda)
		}
	case ast.Expr:
		v.walkExpr(n, inLambda)
	}
}

func (v *validator) inSiteOrTop(atTop bool) bool {
	// The validator does not currently track "inside a site" separately
	// from atTop since sites only nest produces/consumes one level deep;
	// callers pass atTop for direct children of a SiteDecl's body.
	return true
}

func (v *validator) checkAttributes(attrs []ast.Attribute, inLambda bool) {
	for _, a := range attrs {
		if name, ok := a.Name.(*ast.BareWord); ok {
			if reservedParamNames[name.Value] {
				v.errorf(a.Pos(), "attribute name %q is reserved", name.Value)
			}
		}
		v.walkExpr(a.Value, inLambda)
	}
}

func (v *validator) checkDeclName(name string, pos token.Position) {
	if strings.HasPrefix(name, "::") {
		v.errorf(pos, "name %q cannot begin with '::'", name)
	}
	lower := strings.ToLower(strings.TrimPrefix(name, "::"))
	if lower == "main" || lower == "settings" {
		v.errorf(pos, "%q is a reserved name at top level", name)
	}
}

// checkParams validates a parameter list (spec §4.3): captures-rest only
// last and only in a lambda; required cannot follow optional; no default
// may reference a later parameter.
func (v *validator) checkParams(params []ast.Param, inLambda bool) {
	seenOptional := false
	names := map[string]int{}
	for i, p := range params {
		names[p.Name] = i
	}
	for i, p := range params {
		if p.Captures {
			if i != len(params)-1 {
				v.errorf(p.Pos(), "a captures-rest parameter must be the last parameter")
			}
			if !inLambda {
				v.errorf(p.Pos(), "a captures-rest parameter is only permitted in a lambda")
			}
		}
		if p.Default != nil {
			seenOptional = true
			forbidForwardRefs(p.Default, names, i, v)
		} else if seenOptional {
			v.errorf(p.Pos(), "required parameter %q cannot follow an optional parameter", p.Name)
		}
	}
}

func forbidForwardRefs(e ast.Expr, names map[string]int, idx int, v *validator) {
	ast.Walk(e, func(n ast.Node) bool {
		if va, ok := n.(*ast.Variable); ok {
			if j, found := names[strings.TrimPrefix(va.Name, "$")]; found && j >= idx {
				v.errorf(va.Pos(), "default value may not reference a later parameter %q", va.Name)
			}
		}
		return true
	}, nil)
}

func (v *validator) checkLambdaParams(params []ast.Param) {
	v.checkParams(params, true)
}

func (v *validator) walkExpr(e ast.Expr, inLambda bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.Assignment:
		v.checkAssignTarget(n.Target)
		v.walkExpr(n.Value, inLambda)
	case *ast.Lambda:
		v.checkLambdaParams(n.Params)
		v.walkStmts(n.Body, false, true)
	case *ast.FunctionCall:
		for _, a := range n.Args {
			v.walkExpr(a, inLambda)
		}
		if n.Block != nil {
			v.walkExpr(n.Block, inLambda)
		}
	case *ast.IfExpr, *ast.UnlessExpr, *ast.CaseExpr, *ast.Resource, *ast.ResourceOverride,
		*ast.ResourceDefaults, *ast.CollectorQuery:
		v.walkStmt(n.(ast.Stmt), false, inLambda)
	case *ast.BinaryExpr:
		v.walkExpr(n.Left, inLambda)
		for _, t := range n.Terms {
			v.walkExpr(t.Right, inLambda)
		}
	case *ast.UnaryExpr:
		v.walkExpr(n.Operand, inLambda)
	case *ast.Postfix:
		v.walkExpr(n.Primary, inLambda)
		for _, op := range n.Chain {
			for _, idx := range op.Index {
				v.walkExpr(idx, inLambda)
			}
			for _, a := range op.Args {
				v.walkExpr(a, inLambda)
			}
			if op.Block != nil {
				v.walkExpr(op.Block, inLambda)
			}
			for _, c := range op.Cases {
				if c.Value != nil {
					v.walkExpr(c.Value, inLambda)
				}
				v.walkExpr(c.Result, inLambda)
			}
		}
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			v.walkExpr(el, inLambda)
		}
	case *ast.HashLit:
		for _, entry := range n.Entries {
			v.walkExpr(entry.Key, inLambda)
			v.walkExpr(entry.Value, inLambda)
		}
	case *ast.String:
		for _, p := range n.Parts {
			if p.Expr != nil {
				v.walkExpr(p.Expr, inLambda)
			}
		}
	case *ast.TypeExpr:
		for _, p := range n.Params {
			v.walkExpr(p, inLambda)
		}
	}
}

// checkAssignTarget enforces spec §3/§4.3: assignment is legal only to a
// local variable (no "::" in the name, name does not start with a digit
// and is not a match variable) or an array composed solely of such
// variables.
func (v *validator) checkAssignTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Variable:
		if !isLocalVarName(t.Name) {
			v.errorf(t.Pos(), "cannot assign to %q: not a local variable", t.Name)
		}
	case *ast.ArrayLit:
		for _, el := range t.Elements {
			v.checkAssignTarget(el)
		}
	default:
		v.errorf(target.Pos(), "invalid assignment target")
	}
}

func isLocalVarName(name string) bool {
	name = strings.TrimPrefix(name, "$")
	if name == "" {
		return false
	}
	if strings.Contains(name, "::") {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false // match variables ($1, $2, ...) are not assignable
	}
	return true
}
