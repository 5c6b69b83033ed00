package eval

import (
	"math"
	"strings"

	"github.com/puppetlabs/puppetlang/internal/runtime"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// binNode is an internal, purely structural expression tree built from a
// BinaryExpr's flat (op, operand) sequence by precedence climbing (spec
// §4.5 "Precedence climbing", §4.7). Building the tree first, then
// evaluating it, keeps short-circuit and match-scope side effects in
// strict left-to-right evaluation order without re-deriving precedence
// at evaluation time.
type binNode struct {
	leaf ast.Expr // set on leaves
	op   token.Token
	left, right *binNode
}

// evalBinaryExpr implements spec §4.7's precedence-climbing evaluation of
// a flattened BinaryExpr.
func (e *Evaluator) evalBinaryExpr(n *ast.BinaryExpr) (values.Value, error) {
	pos := 0
	tree := climb(n.Terms, &pos, 0, &binNode{leaf: n.Left})
	return e.evalTree(tree)
}

func climb(terms []ast.BinaryTerm, pos *int, minPrec int, left *binNode) *binNode {
	for *pos < len(terms) && terms[*pos].Op.Precedence() >= minPrec {
		op := terms[*pos].Op
		prec := op.Precedence()
		right := &binNode{leaf: terms[*pos].Right}
		*pos++
		for *pos < len(terms) && terms[*pos].Op.Precedence() > prec {
			right = climb(terms, pos, prec+1, right)
		}
		left = &binNode{op: op, left: left, right: right}
	}
	return left
}

func (e *Evaluator) evalTree(t *binNode) (values.Value, error) {
	if t.left == nil && t.right == nil {
		return e.evalExpr(t.leaf)
	}
	switch t.op {
	case token.AND:
		lv, err := e.evalTree(t.left)
		if err != nil {
			return nil, err
		}
		if !values.IsTruthy(lv) {
			return values.Bool(false), nil
		}
		rv, err := e.evalTree(t.right)
		if err != nil {
			return nil, err
		}
		return values.Bool(values.IsTruthy(rv)), nil
	case token.OR:
		lv, err := e.evalTree(t.left)
		if err != nil {
			return nil, err
		}
		if values.IsTruthy(lv) {
			return values.Bool(true), nil
		}
		rv, err := e.evalTree(t.right)
		if err != nil {
			return nil, err
		}
		return values.Bool(values.IsTruthy(rv)), nil
	}

	lv, err := e.evalTree(t.left)
	if err != nil {
		return nil, err
	}
	rv, err := e.evalTree(t.right)
	if err != nil {
		return nil, err
	}

	switch t.op {
	case token.EQ:
		return values.Bool(values.Equal(lv, rv)), nil
	case token.NE:
		return values.Bool(!values.Equal(lv, rv)), nil
	case token.LT, token.LE, token.GT, token.GE:
		return e.compare(t.op, lv, rv)
	case token.PLUS:
		return e.add(lv, rv)
	case token.MINUS:
		return e.sub(lv, rv)
	case token.STAR:
		return e.mul(lv, rv)
	case token.SLASH:
		return e.div(lv, rv)
	case token.PCT:
		return e.mod(lv, rv)
	case token.LSHIFT:
		return e.push(lv, rv)
	case token.RSHIFT:
		return e.shiftRight(lv, rv)
	case token.MATCH:
		return e.match(lv, rv, false)
	case token.NOMATCH:
		return e.match(lv, rv, true)
	case token.IN:
		return values.Bool(e.inOp(lv, rv)), nil
	case token.IN_EDGE:
		e.queueRelationship(lv, rv, "before", t.pos())
		return rv, nil
	case token.IN_EDGE_SUB:
		e.queueRelationship(lv, rv, "notify", t.pos())
		return rv, nil
	case token.OUT_EDGE, token.LARROW:
		// LARROW is never produced by the scanner; OUT_EDGE is the only
		// token actually spelled "<-". Both mean the same relationship.
		e.queueRelationship(rv, lv, "require", t.pos())
		return rv, nil
	case token.OUT_EDGE_SUB:
		e.queueRelationship(rv, lv, "subscribe", t.pos())
		return rv, nil
	default:
		return nil, e.posErrorf(t.left.pos(), "unsupported binary operator %s", t.op)
	}
}

func (t *binNode) pos() token.Position {
	if t.leaf != nil {
		return t.leaf.Pos()
	}
	return t.left.pos()
}

func numeric(v values.Value) (f float64, isFloat bool, ok bool) {
	switch n := values.Deref(v).(type) {
	case values.Int:
		return float64(n), false, true
	case values.Float:
		return float64(n), true, true
	}
	return 0, false, false
}

func (e *Evaluator) compare(op token.Token, l, r values.Value) (values.Value, error) {
	l, r = values.Deref(l), values.Deref(r)
	if ls, ok := l.(values.Str); ok {
		rs, ok := r.(values.Str)
		if !ok {
			return nil, e.typeErrorf(l, r, "compare")
		}
		c := strings.Compare(string(ls), string(rs))
		return values.Bool(applyCompare(op, c)), nil
	}
	lf, _, lok := numeric(l)
	rf, _, rok := numeric(r)
	if !lok || !rok {
		return nil, e.typeErrorf(l, r, "compare")
	}
	c := 0
	switch {
	case lf < rf:
		c = -1
	case lf > rf:
		c = 1
	}
	return values.Bool(applyCompare(op, c)), nil
}

func applyCompare(op token.Token, c int) bool {
	switch op {
	case token.LT:
		return c < 0
	case token.LE:
		return c <= 0
	case token.GT:
		return c > 0
	case token.GE:
		return c >= 0
	}
	return false
}

func (e *Evaluator) typeErrorf(l, r values.Value, op string) error {
	return e.posErrorf(token.NoPos, "cannot %s a %s and a %s", op, l.Kind(), r.Kind())
}

func (e *Evaluator) add(l, r values.Value) (values.Value, error) {
	ld, rd := values.Deref(l), values.Deref(r)
	if la, ok := ld.(*values.Array); ok {
		if ra, ok := rd.(*values.Array); ok {
			out := append(append([]values.Value{}, la.Elements...), ra.Elements...)
			return &values.Array{Elements: out}, nil
		}
		return &values.Array{Elements: append(append([]values.Value{}, la.Elements...), rd)}, nil
	}
	if lh, ok := ld.(*values.Hash); ok {
		if rh, ok := rd.(*values.Hash); ok {
			return mergeHash(lh, rh), nil
		}
		return nil, e.typeErrorf(ld, rd, "add")
	}
	return e.arith(ld, rd, "add", func(a, b int64) (int64, bool) {
		s := a + b
		return s, (a >= 0) != (b >= 0) || (s >= 0) == (a >= 0)
	}, func(a, b float64) float64 { return a + b })
}

func mergeHash(a, b *values.Hash) *values.Hash {
	out := append([]values.HashPair{}, a.Pairs...)
	for _, p := range b.Pairs {
		replaced := false
		for i, e := range out {
			if values.Equal(e.Key, p.Key) {
				out[i].Value = p.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return &values.Hash{Pairs: out}
}

func (e *Evaluator) sub(l, r values.Value) (values.Value, error) {
	ld, rd := values.Deref(l), values.Deref(r)
	if la, ok := ld.(*values.Array); ok {
		remove := func(v values.Value) bool {
			if ra, ok := rd.(*values.Array); ok {
				for _, x := range ra.Elements {
					if values.Equal(v, x) {
						return true
					}
				}
				return false
			}
			return values.Equal(v, rd)
		}
		var out []values.Value
		for _, v := range la.Elements {
			if !remove(v) {
				out = append(out, v)
			}
		}
		return &values.Array{Elements: out}, nil
	}
	return e.arith(ld, rd, "subtract", func(a, b int64) (int64, bool) {
		s := a - b
		return s, (a >= 0) == (b >= 0) || (s >= 0) == (a >= 0)
	}, func(a, b float64) float64 { return a - b })
}

func (e *Evaluator) mul(l, r values.Value) (values.Value, error) {
	return e.arith(values.Deref(l), values.Deref(r), "multiply", func(a, b int64) (int64, bool) {
		if a == 0 || b == 0 {
			return 0, true
		}
		p := a * b
		return p, p/b == a
	}, func(a, b float64) float64 { return a * b })
}

func (e *Evaluator) div(l, r values.Value) (values.Value, error) {
	ld, rd := values.Deref(l), values.Deref(r)
	li, liok := ld.(values.Int)
	ri, riok := rd.(values.Int)
	if liok && riok {
		if ri == 0 {
			return nil, e.posErrorf(token.NoPos, "division by zero")
		}
		return li / ri, nil
	}
	lf, _, lok := numeric(ld)
	rf, _, rok := numeric(rd)
	if !lok || !rok {
		return nil, e.typeErrorf(ld, rd, "divide")
	}
	if rf == 0 {
		return nil, e.posErrorf(token.NoPos, "division by zero")
	}
	res := lf / rf
	if math.IsInf(res, 0) || math.IsNaN(res) {
		return nil, e.posErrorf(token.NoPos, "floating point overflow")
	}
	return values.Float(res), nil
}

func (e *Evaluator) mod(l, r values.Value) (values.Value, error) {
	li, liok := values.Deref(l).(values.Int)
	ri, riok := values.Deref(r).(values.Int)
	if !liok || !riok {
		return nil, e.typeErrorf(values.Deref(l), values.Deref(r), "compute the remainder of")
	}
	if ri == 0 {
		return nil, e.posErrorf(token.NoPos, "division by zero")
	}
	return li % ri, nil
}

func (e *Evaluator) arith(l, r values.Value, verb string, intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) float64) (values.Value, error) {
	li, liok := l.(values.Int)
	ri, riok := r.(values.Int)
	if liok && riok {
		sum, ok := intOp(int64(li), int64(ri))
		if !ok {
			return nil, e.posErrorf(token.NoPos, "integer overflow in %s", verb)
		}
		return values.Int(sum), nil
	}
	lf, _, lok := numeric(l)
	rf, _, rok := numeric(r)
	if !lok || !rok {
		return nil, e.typeErrorf(l, r, verb)
	}
	res := floatOp(lf, rf)
	if math.IsInf(res, 0) || math.IsNaN(res) {
		return nil, e.posErrorf(token.NoPos, "floating point overflow in %s", verb)
	}
	return values.Float(res), nil
}

// push implements `array << value` (Puppet's array push operator), or
// integer left-shift when both sides are Integer.
func (e *Evaluator) push(l, r values.Value) (values.Value, error) {
	ld := values.Deref(l)
	if la, ok := ld.(*values.Array); ok {
		return &values.Array{Elements: append(append([]values.Value{}, la.Elements...), r)}, nil
	}
	li, liok := ld.(values.Int)
	ri, riok := values.Deref(r).(values.Int)
	if liok && riok {
		return values.Int(int64(li) << uint64(ri)), nil
	}
	return nil, e.typeErrorf(ld, values.Deref(r), "shift")
}

func (e *Evaluator) shiftRight(l, r values.Value) (values.Value, error) {
	li, liok := values.Deref(l).(values.Int)
	ri, riok := values.Deref(r).(values.Int)
	if !liok || !riok {
		return nil, e.typeErrorf(values.Deref(l), values.Deref(r), "shift")
	}
	return values.Int(int64(li) >> uint64(ri)), nil
}

// match implements `=~`/`!~`: the right-hand operand is either a Regexp
// value or a type; a successful regex match publishes its capture groups
// to the current match scope (spec §3 "Match scope").
func (e *Evaluator) match(l, r values.Value, negate bool) (values.Value, error) {
	ld, rd := values.Deref(l), values.Deref(r)
	var matched bool
	switch rt := rd.(type) {
	case *values.Regex:
		s, ok := ld.(values.Str)
		if !ok {
			matched = false
			break
		}
		groups := rt.Regexp().FindStringSubmatch(string(s))
		matched = groups != nil
		if matched && !negate {
			e.Ctx.MatchScope().SetGroups(groups[1:])
		}
	case *values.TypeValue:
		matched = rt.Type.IsInstance(ld)
	default:
		return nil, e.typeErrorf(ld, rd, "match")
	}
	if negate {
		matched = !matched
	}
	return values.Bool(matched), nil
}

// inOp implements the `in` operator: array membership, hash key
// membership, or substring containment.
func (e *Evaluator) inOp(needle, haystack values.Value) bool {
	hd := values.Deref(haystack)
	switch h := hd.(type) {
	case *values.Array:
		for _, v := range h.Elements {
			if values.Equal(needle, v) {
				return true
			}
		}
		return false
	case *values.Hash:
		for _, p := range h.Pairs {
			if values.Equal(needle, p.Key) {
				return true
			}
		}
		return false
	case values.Str:
		n, ok := values.Deref(needle).(values.Str)
		if !ok {
			return false
		}
		return strings.Contains(string(h), string(n))
	}
	return false
}

// queueRelationship records a `->`/`~>`/`<-`/`<~` edge for the
// finalization loop (spec §4.7 "evaluate queued relationships", §4.8
// "before/notify are inverted at edge-add time"). source depends on
// nothing; target depends on source, in the uniform "target depends on
// source" direction the catalog graph maintains.
func (e *Evaluator) queueRelationship(source, target values.Value, kind string, pos token.Position) {
	e.Ctx.QueueRelationship(&runtime.Relationship{Source: source, Target: target, Kind: kind, Pos: pos})
}
