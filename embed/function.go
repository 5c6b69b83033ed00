package embed

import (
	"github.com/puppetlabs/puppetlang/internal/eval"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// CallContext is passed to a HostCallback for one invocation, exposing
// the caller's block (for yield) and call-site position (spec §4.9
// "yield-to-block inside a function callback").
type CallContext struct {
	ev    *eval.Evaluator
	block *ast.Lambda
	pos   token.Position
}

// BlockPassed reports whether the Puppet call site passed a lambda this
// callback can Yield to.
func (c *CallContext) BlockPassed() bool { return c.block != nil }

// CallerFile and CallerLine report the call site's source position, for
// host functions that want to attribute diagnostics to caller code.
func (c *CallContext) CallerFile() string { return c.pos.Filename }
func (c *CallContext) CallerLine() int    { return c.pos.Line }

// Yield invokes the block passed at the call site with args, returning
// its result. It fails if no block was passed.
func (c *CallContext) Yield(args ...*Value) (*Value, error) {
	if c.block == nil {
		return nil, errNoBlock
	}
	plain := make([]values.Value, len(args))
	for i, a := range args {
		plain[i] = a.v
	}
	v, err := c.ev.CallBlock(c.block, plain)
	if err != nil {
		return nil, err
	}
	return wrap(v), nil
}

var errNoBlock = &exceptionError{"yield called but no block was passed to the function"}

type exceptionError struct{ msg string }

func (e *exceptionError) Error() string { return e.msg }

// HostCallback is a function defined by the embedder and installed into
// the dispatch table via Session.DefineFunction (spec §4.9
// "define_function").
type HostCallback func(ctx *CallContext, args []*Value) (*Value, error)

// asBuiltin adapts a HostCallback to the internal dispatcher's BuiltinFunc
// signature, marshaling values across the handle boundary.
func asBuiltin(cb HostCallback) eval.BuiltinFunc {
	return func(ev *eval.Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
		ctx := &CallContext{ev: ev, block: block, pos: pos}
		wrapped := make([]*Value, len(args))
		for i, a := range args {
			wrapped[i] = wrap(a)
		}
		result, err := cb(ctx, wrapped)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return values.Undef{}, nil
		}
		return result.v, nil
	}
}
