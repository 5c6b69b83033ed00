package eval

import (
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// evalPostfix evaluates a primary expression followed by a left-to-right
// chain of access/method-call/selector operations (spec §3 "postfix with
// chained selector/access/method_call", §4.5).
func (e *Evaluator) evalPostfix(n *ast.Postfix) (values.Value, error) {
	v, err := e.evalExpr(n.Primary)
	if err != nil {
		return nil, err
	}
	for _, op := range n.Chain {
		switch op.Kind {
		case ast.PostfixAccess:
			v, err = e.evalAccess(v, op.Index, n.Pos())
		case ast.PostfixMethodCall:
			v, err = e.evalMethodCall(v, op, n.Pos())
		case ast.PostfixSelector:
			v, err = e.evalSelector(v, op.Cases)
		}
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// evalAccess implements `value[i]` / `value[i, n]` / `hash[k1, k2, ...]`
// (spec §4.5 "Access operator").
func (e *Evaluator) evalAccess(v values.Value, indexExprs []ast.Expr, pos token.Position) (values.Value, error) {
	idx := make([]values.Value, len(indexExprs))
	for i, ie := range indexExprs {
		iv, err := e.evalExpr(ie)
		if err != nil {
			return nil, err
		}
		idx[i] = iv
	}
	switch t := values.Deref(v).(type) {
	case *values.Hash:
		if len(idx) == 0 {
			return nil, e.posErrorf(pos, "hash access requires at least one key")
		}
		return values.HashAccess(t, idx), nil
	case *values.Array:
		start, count, hasCount, err := asAccessArgs(idx)
		if err != nil {
			return nil, e.posErrorf(pos, "%s", err)
		}
		return values.ArrayAccess(t, start, count, hasCount), nil
	case values.Str:
		start, count, hasCount, err := asAccessArgs(idx)
		if err != nil {
			return nil, e.posErrorf(pos, "%s", err)
		}
		return values.StringAccess(string(t), start, count, hasCount), nil
	case *values.TypeValue:
		params := idx
		ty, err := values.BuildType(t.Type.Name(), params)
		if err != nil {
			return nil, e.posErrorf(pos, "%s", err)
		}
		return &values.TypeValue{Type: ty}, nil
	default:
		return nil, e.posErrorf(pos, "cannot index a %s value", v.Kind())
	}
}

func asAccessArgs(idx []values.Value) (start, count int, hasCount bool, err error) {
	if len(idx) == 0 {
		return 0, 0, false, nil
	}
	s, ok := values.Deref(idx[0]).(values.Int)
	if !ok {
		return 0, 0, false, errNotInt
	}
	start = int(s)
	if len(idx) == 1 {
		return start, 0, false, nil
	}
	c, ok := values.Deref(idx[1]).(values.Int)
	if !ok {
		return 0, 0, false, errNotInt
	}
	return start, int(c), true, nil
}

var errNotInt = fmtError("index and count must be Integer values")

type fmtError string

func (e fmtError) Error() string { return string(e) }

// evalMethodCall implements `$receiver.name(args) |block|` as sugar for
// `name($receiver, args) |block|` (spec §4.5 "method call postfix
// desugars into the equivalent function call with the receiver prepended
// as the first argument").
func (e *Evaluator) evalMethodCall(receiver values.Value, op ast.PostfixOp, pos token.Position) (values.Value, error) {
	args := make([]values.Value, 0, len(op.Args)+1)
	args = append(args, receiver)
	for _, a := range op.Args {
		v, err := e.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return e.Funcs.Call(op.Method, args, op.Block, pos)
}

// evalSelector implements the `value ? { case => result, ... }` postfix
// selector (spec §3 "selector"), matching the way case statements do
// (regex or equality, default falls through).
func (e *Evaluator) evalSelector(subject values.Value, cases []ast.SelectorCase) (values.Value, error) {
	var defaultResult ast.Expr
	for _, c := range cases {
		if c.Value == nil {
			defaultResult = c.Result
			continue
		}
		cv, err := e.evalExpr(c.Value)
		if err != nil {
			return nil, err
		}
		matched, err := e.isMatch(subject, cv)
		if err != nil {
			return nil, err
		}
		if matched {
			return e.evalExpr(c.Result)
		}
	}
	if defaultResult != nil {
		return e.evalExpr(defaultResult)
	}
	return values.Undef{}, nil
}
