// Package eval implements the expression evaluator (spec §4.7
// "Evaluator"): a tree walk over the AST that produces values, mutates
// the catalog, and threads scope/match-scope/context state from package
// runtime.
package eval

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/puppetlabs/puppetlang/catalog"
	"github.com/puppetlabs/puppetlang/internal/registry"
	"github.com/puppetlabs/puppetlang/internal/runtime"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/logging"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/parser"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// MaxFinalizationIterations is the hard cap on finalization passes (spec
// §4.7 "Exceeding the iteration cap (e.g. 1000) signals infinite
// recursion").
const MaxFinalizationIterations = 1000

// Evaluator walks the AST against a runtime.Context, mutating a
// catalog.Catalog and consulting a registry.Registry for class/defined-
// type/node/alias definitions (spec §4.7).
type Evaluator struct {
	Reg     *registry.Registry
	Cat     *catalog.Catalog
	Ctx     *runtime.Context
	Log     logging.Sink
	Funcs   *Dispatcher
	ErrCount int

	errs       errors.List
	containers []*catalog.Resource

	// resourceScopes records the scope active when each resource was
	// declared, used by the override "parent-scope check" (spec §4.7
	// "Resource-override evaluation").
	resourceScopes map[*catalog.Resource]*runtime.Scope
}

// New creates an Evaluator over the given registry, catalog, and context.
func New(reg *registry.Registry, cat *catalog.Catalog, ctx *runtime.Context, log logging.Sink) *Evaluator {
	e := &Evaluator{Reg: reg, Cat: cat, Ctx: ctx, Log: log, resourceScopes: map[*catalog.Resource]*runtime.Scope{}}
	e.Funcs = NewDispatcher(e)
	return e
}

// EvalFile evaluates every top-level statement of f in order (spec §4.7
// "The top-level evaluation loop evaluates each statement in order"),
// then runs Finalize. It returns the last statement's value (or Undef for
// an empty file) and the accumulated fault list. Use EvalStatements
// instead when evaluating several files against one shared Evaluator
// before finalizing once at the end.
func (e *Evaluator) EvalFile(f *ast.File) (values.Value, errors.List) {
	v, err := e.EvalStatements(f.Statements)
	if err == nil {
		if fErrs := e.Finalize(); len(fErrs) > 0 {
			e.errs = append(e.errs, fErrs...)
		}
	}
	return v, e.errs
}

// EvalStatements evaluates stmts in order without running Finalize,
// recording any fault on the accumulated error list and returning it
// alongside the last statement's value.
func (e *Evaluator) EvalStatements(stmts []ast.Stmt) (values.Value, error) {
	v, err := e.evalBlock(stmts)
	if err != nil {
		e.report(err)
		return nil, err
	}
	return v, nil
}

// Errors returns every fault accumulated so far across EvalFile/
// EvalStatements/Finalize calls on this Evaluator.
func (e *Evaluator) Errors() errors.List { return e.errs }

func (e *Evaluator) report(err error) {
	if ee, ok := err.(errors.Error); ok {
		e.errs = e.errs.Add(ee)
	} else {
		e.errs = e.errs.Add(errors.Newf(token.NoPos, "%s", err))
	}
	e.ErrCount++
}

// evalBlock evaluates a statement list, returning the last statement's
// value (spec §4.7 "only the last statement in a block may be
// unproductive": earlier statements are evaluated strictly for effect).
func (e *Evaluator) evalBlock(stmts []ast.Stmt) (values.Value, error) {
	var last values.Value = values.Undef{}
	for _, stmt := range stmts {
		v, err := e.evalStmt(stmt)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (e *Evaluator) evalStmt(stmt ast.Stmt) (values.Value, error) {
	switch n := stmt.(type) {
	case *ast.ClassDecl, *ast.DefinedTypeDecl, *ast.NodeDecl, *ast.FunctionDecl, *ast.TypeAliasDecl:
		// Pre-registered by the scanner; declarations are not themselves
		// evaluated at their point of occurrence.
		return values.Undef{}, nil
	case *ast.ApplicationDecl, *ast.SiteDecl, *ast.ProducesDecl, *ast.ConsumesDecl:
		return nil, e.posErrorf(stmt.Pos(), "application/site/produces/consumes are not yet implemented")
	case *ast.EPPText:
		e.Ctx.WriteStream(n.Text)
		return values.Undef{}, nil
	case *ast.EPPRender:
		v, err := e.evalExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		e.Ctx.WriteStream(values.ToString(v))
		return values.Undef{}, nil
	case ast.Expr:
		return e.evalExpr(n)
	default:
		return nil, e.posErrorf(stmt.Pos(), "cannot evaluate statement of type %T", stmt)
	}
}

func (e *Evaluator) posErrorf(pos token.Position, format string, args ...interface{}) error {
	return errors.WithBacktrace(errors.Newf(pos, format, args...), e.backtrace(pos)...)
}

// backtrace builds the evaluation backtrace (spec §7 "frame = scope-name
// + current AST context") from the current scope chain, outermost first.
func (e *Evaluator) backtrace(pos token.Position) []errors.Frame {
	var frames []errors.Frame
	var names []string
	for s := e.Ctx.Scope(); s != nil; s = s.Parent() {
		if s.Name() != "" {
			names = append(names, s.Name())
		}
	}
	for i := len(names) - 1; i >= 0; i-- {
		frames = append(frames, errors.Frame{Scope: names[i], Pos: pos})
	}
	return frames
}

// evalExpr is the main dispatch over expression node variants (spec §4.7).
func (e *Evaluator) evalExpr(expr ast.Expr) (values.Value, error) {
	switch n := expr.(type) {
	case *ast.Undef:
		return values.Undef{}, nil
	case *ast.DefaultLit:
		return values.Default{}, nil
	case *ast.BoolLit:
		return values.Bool(n.Value), nil
	case *ast.IntLit:
		return values.Int(n.Value), nil
	case *ast.FloatLit:
		return values.Float(n.Value), nil
	case *ast.Regex:
		r, err := values.NewRegex(n.Pattern)
		if err != nil {
			return nil, e.posErrorf(n.Pos(), "%s", err)
		}
		return r, nil
	case *ast.String:
		return e.evalString(n)
	case *ast.Variable:
		return e.evalVariable(n)
	case *ast.Name:
		return values.Str(n.Value), nil
	case *ast.BareWord:
		return values.Str(n.Value), nil
	case *ast.TypeExpr:
		return e.evalTypeExpr(n)
	case *ast.ArrayLit:
		return e.evalArrayLit(n)
	case *ast.HashLit:
		return e.evalHashLit(n)
	case *ast.IfExpr:
		return e.evalIf(n)
	case *ast.UnlessExpr:
		return e.evalUnless(n)
	case *ast.CaseExpr:
		return e.evalCase(n)
	case *ast.FunctionCall:
		return e.evalFunctionCall(n)
	case *ast.Lambda:
		return nil, e.posErrorf(n.Pos(), "a lambda is not a value outside of a function call")
	case *ast.Assignment:
		return e.evalAssignment(n)
	case *ast.UnaryExpr:
		return e.evalUnary(n)
	case *ast.BinaryExpr:
		return e.evalBinaryExpr(n)
	case *ast.Postfix:
		return e.evalPostfix(n)
	case *ast.Resource:
		return e.evalResource(n)
	case *ast.ResourceOverride:
		return e.evalResourceOverride(n)
	case *ast.ResourceDefaults:
		return nil, e.posErrorf(n.Pos(), "resource-defaults expressions are not yet implemented")
	case *ast.CollectorQuery:
		return e.evalCollectorLiteral(n)
	default:
		return nil, e.posErrorf(expr.Pos(), "cannot evaluate expression of type %T", expr)
	}
}

func (e *Evaluator) evalString(n *ast.String) (values.Value, error) {
	if !n.Interpolated {
		var b strings.Builder
		for _, p := range n.Parts {
			b.WriteString(p.Text)
		}
		return values.Str(b.String()), nil
	}
	var b strings.Builder
	for _, p := range n.Parts {
		if p.Expr == nil {
			b.WriteString(p.Text)
			continue
		}
		v, err := e.evalExpr(p.Expr)
		if err != nil {
			return nil, err
		}
		b.WriteString(values.ToString(v))
	}
	out := b.String()
	if !utf8.ValidString(out) {
		return nil, e.posErrorf(n.Pos(), "interpolation produced invalid UTF-8")
	}
	return values.Str(out), nil
}

// evalVariable implements spec §4.6 variable lookup: $name (current
// scope climbing parents), $::name (top scope), $ns::name (scope named
// ns), $<digit> (match scope).
func (e *Evaluator) evalVariable(n *ast.Variable) (values.Value, error) {
	if num, ok := runtime.ParseMatchVar(n.Name); ok {
		if g, found := e.Ctx.MatchScope().Lookup(num); found {
			return values.Str(g), nil
		}
		return values.Undef{}, nil
	}
	if strings.HasPrefix(n.Name, "::") {
		name := strings.TrimPrefix(n.Name, "::")
		if v, ok := e.Ctx.Scope().Root().Lookup(name); ok {
			return v, nil
		}
		e.warnUnknownVar(n)
		return values.Undef{}, nil
	}
	if idx := strings.LastIndex(n.Name, "::"); idx >= 0 {
		ns, leaf := n.Name[:idx], n.Name[idx+2:]
		if scope, ok := e.Ctx.Scopes().Lookup(registry.NormalizeName(ns)); ok {
			if v, ok := scope.Lookup(leaf); ok {
				return v, nil
			}
			e.warnUnknownVar(n)
			return values.Undef{}, nil
		}
		e.warnUndeclaredClass(n, ns)
		return values.Undef{}, nil
	}
	if v, ok := e.Ctx.Scope().Lookup(n.Name); ok {
		return v, nil
	}
	return values.Undef{}, nil
}

func (e *Evaluator) warnUnknownVar(n *ast.Variable) {
	if e.Log != nil {
		e.Log.Log(logging.Warning, n.Pos(), fmt.Sprintf("unknown variable $%s", n.Name))
	}
}

func (e *Evaluator) warnUndeclaredClass(n *ast.Variable, class string) {
	if e.Log != nil {
		e.Log.Log(logging.Warning, n.Pos(), fmt.Sprintf("undeclared class %q referenced by $%s", class, n.Name))
	}
}

func (e *Evaluator) evalArrayLit(n *ast.ArrayLit) (values.Value, error) {
	out := make([]values.Value, 0, len(n.Elements))
	for _, el := range n.Elements {
		v, err := e.evalExpr(el)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return &values.Array{Elements: out}, nil
}

func (e *Evaluator) evalHashLit(n *ast.HashLit) (values.Value, error) {
	out := make([]values.HashPair, 0, len(n.Entries))
	for _, entry := range n.Entries {
		k, err := e.evalExpr(entry.Key)
		if err != nil {
			return nil, err
		}
		v, err := e.evalExpr(entry.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, values.HashPair{Key: k, Value: v})
	}
	return &values.Hash{Pairs: out}, nil
}

func (e *Evaluator) evalIf(n *ast.IfExpr) (values.Value, error) {
	cond, err := e.evalExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	if values.IsTruthy(cond) {
		return e.evalScopedBlock(n.Then)
	}
	for _, el := range n.Elsifs {
		c, err := e.evalExpr(el.Cond)
		if err != nil {
			return nil, err
		}
		if values.IsTruthy(c) {
			return e.evalScopedBlock(el.Body)
		}
	}
	if len(n.Else) == 0 {
		return values.Undef{}, nil
	}
	return e.evalScopedBlock(n.Else)
}

func (e *Evaluator) evalUnless(n *ast.UnlessExpr) (values.Value, error) {
	cond, err := e.evalExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	if !values.IsTruthy(cond) {
		return e.evalScopedBlock(n.Then)
	}
	if len(n.Else) == 0 {
		return values.Undef{}, nil
	}
	return e.evalScopedBlock(n.Else)
}

// evalScopedBlock evaluates stmts in a fresh local scope (spec §3 "Match
// scope": "creating a local scope also pushes a match scope"), guaranteed
// to unwind via the RAII-style holder (spec §5).
func (e *Evaluator) evalScopedBlock(stmts []ast.Stmt) (values.Value, error) {
	h := e.Ctx.PushScope(runtime.NewChild(e.Ctx.Scope()))
	defer h.Close()
	return e.evalBlock(stmts)
}

func (e *Evaluator) evalCase(n *ast.CaseExpr) (values.Value, error) {
	subject, err := e.evalExpr(n.Subject)
	if err != nil {
		return nil, err
	}
	var defaultOpt *ast.CaseOption
	for i := range n.Options {
		opt := &n.Options[i]
		if opt.IsDefault {
			defaultOpt = opt
			continue
		}
		matched, err := e.matchCaseOption(subject, opt)
		if err != nil {
			return nil, err
		}
		if matched {
			return e.evalScopedBlock(opt.Body)
		}
	}
	if defaultOpt != nil {
		return e.evalScopedBlock(defaultOpt.Body)
	}
	return values.Undef{}, nil
}

func (e *Evaluator) matchCaseOption(subject values.Value, opt *ast.CaseOption) (bool, error) {
	for _, valExpr := range opt.Values {
		if opt.Splat {
			v, err := e.evalExpr(valExpr)
			if err != nil {
				return false, err
			}
			if arr, ok := values.Deref(v).(*values.Array); ok {
				for _, el := range arr.Elements {
					if ok, err := e.isMatch(subject, el); err != nil || ok {
						return ok, err
					}
				}
				continue
			}
			if ok, err := e.isMatch(subject, v); err != nil || ok {
				return ok, err
			}
			continue
		}
		v, err := e.evalExpr(valExpr)
		if err != nil {
			return false, err
		}
		if ok, err := e.isMatch(subject, v); err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// isMatch implements case/selector option matching: regex match or
// equality (spec §4.7 "options are matched via is_match (regex or
// equality)").
func (e *Evaluator) isMatch(subject, option values.Value) (bool, error) {
	if re, ok := values.Deref(option).(*values.Regex); ok {
		s, ok := values.Deref(subject).(values.Str)
		if !ok {
			return false, nil
		}
		groups := re.Regexp().FindStringSubmatch(string(s))
		if groups == nil {
			return false, nil
		}
		e.Ctx.MatchScope().SetGroups(groups[1:])
		return true, nil
	}
	if ty, ok := values.Deref(option).(*values.TypeValue); ok {
		return ty.Type.IsInstance(subject), nil
	}
	return values.Equal(subject, option), nil
}

func (e *Evaluator) evalUnary(n *ast.UnaryExpr) (values.Value, error) {
	v, err := e.evalExpr(n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.UnaryNot:
		return values.Bool(!values.IsTruthy(v)), nil
	case ast.UnaryMinus:
		switch t := values.Deref(v).(type) {
		case values.Int:
			if int64(t) == math.MinInt64 {
				return nil, e.posErrorf(n.Pos(), "integer negation overflow")
			}
			return -t, nil
		case values.Float:
			return -t, nil
		default:
			return nil, e.posErrorf(n.Pos(), "cannot negate a %s", v.Kind())
		}
	}
	return nil, e.posErrorf(n.Pos(), "unknown unary operator")
}

func (e *Evaluator) evalAssignment(n *ast.Assignment) (values.Value, error) {
	v, err := e.evalExpr(n.Value)
	if err != nil {
		return nil, err
	}
	if err := e.assign(n.Target, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Evaluator) assign(target ast.Expr, v values.Value) error {
	switch t := target.(type) {
	case *ast.Variable:
		e.Ctx.Scope().Set(t.Name, v)
		return nil
	case *ast.ArrayLit:
		arr, ok := values.Deref(v).(*values.Array)
		if !ok || len(arr.Elements) != len(t.Elements) {
			return e.posErrorf(t.Pos(), "array assignment target arity mismatch")
		}
		for i, el := range t.Elements {
			if err := e.assign(el, arr.Elements[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return e.posErrorf(target.Pos(), "invalid assignment target")
	}
}

// evalTypeExpr evaluates a `Name[params...]` type reference into a
// TypeValue (spec §4.5), consulting the registry for a matching type
// alias first.
func (e *Evaluator) evalTypeExpr(n *ast.TypeExpr) (values.Value, error) {
	if alias, ok := e.Reg.Alias(n.Name); ok && len(n.Params) == 0 {
		return e.evalExpr(alias.Expr)
	}
	params := make([]values.Value, 0, len(n.Params))
	for _, p := range n.Params {
		v, err := e.evalExpr(p)
		if err != nil {
			return nil, err
		}
		params = append(params, v)
	}
	ty, err := values.BuildType(n.Name, params)
	if err != nil {
		// `Name['title', ...]` naming no known type is a resource
		// reference, represented as "Name['title']" strings.
		var refs []values.Value
		for _, p := range params {
			s, ok := values.Deref(p).(values.Str)
			if !ok {
				return nil, e.posErrorf(n.Pos(), "%s", err)
			}
			refs = append(refs, values.Str(n.Name+"['"+string(s)+"']"))
		}
		switch len(refs) {
		case 0:
			return nil, e.posErrorf(n.Pos(), "%s", err)
		case 1:
			return refs[0], nil
		}
		return &values.Array{Elements: refs}, nil
	}
	return &values.TypeValue{Type: ty}, nil
}

// ParseInterpString re-enters the parser for a `${...}` interpolation
// body discovered outside of normal string lexing; spec §4.2
// "interpolate-parse". EPP `<%= %>` blocks do not go through it: the
// parser turns them into ast.EPPRender nodes.
func (e *Evaluator) ParseInterpString(path string, src []byte, offset int) (ast.Expr, error) {
	expr, errs := parser.ParseInterpolation(path, src, offset)
	if len(errs) > 0 {
		return nil, errs
	}
	return expr, nil
}
