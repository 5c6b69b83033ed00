package eval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/puppetlabs/puppetlang/catalog"
	"github.com/puppetlabs/puppetlang/internal/registry"
	"github.com/puppetlabs/puppetlang/internal/runtime"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/logging"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// BuiltinFunc is the signature every built-in function and method
// implementation shares (spec §4.7 "function dispatcher").
type BuiltinFunc func(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error)

// Dispatcher resolves a call name to a built-in or a user-defined
// function (spec §4.3 "function declaration", §4.5 "method call postfix
// desugars into the equivalent function call").
type Dispatcher struct {
	e        *Evaluator
	builtins map[string]BuiltinFunc
}

// NewDispatcher builds a Dispatcher with every built-in registered.
func NewDispatcher(e *Evaluator) *Dispatcher {
	d := &Dispatcher{e: e, builtins: map[string]BuiltinFunc{}}
	d.registerLogging()
	d.registerCatalog()
	d.registerUtility()
	d.registerCollections()
	d.registerStrings()
	return d
}

// RegisterHost installs a host-defined function (spec §4.9
// "define_function") into the dispatch table, taking priority over any
// built-in or Puppet-defined function of the same name.
func (d *Dispatcher) RegisterHost(name string, fn BuiltinFunc) {
	d.builtins[name] = fn
}

// Call dispatches name against the built-in table, falling back to a
// user-defined function from the registry.
func (d *Dispatcher) Call(name string, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if fn, ok := d.builtins[name]; ok {
		return fn(d.e, args, block, pos)
	}
	if def, ok := d.e.Reg.Function(name); ok {
		return d.e.callUserFunction(def, args, pos)
	}
	return nil, d.e.posErrorf(pos, "unknown function %q", name)
}

// evalFunctionCall evaluates a direct `name(args) |block|` call (spec
// §4.7).
func (e *Evaluator) evalFunctionCall(n *ast.FunctionCall) (values.Value, error) {
	args := make([]values.Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := e.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return e.Funcs.Call(n.Name, args, n.Block, n.Pos())
}

// callUserFunction evaluates a `function name(...) { ... }` body (spec
// §4.3): bound against a fresh scope rooted at the top scope, not the
// caller's lexical scope, matching Puppet's function-scoping rule.
func (e *Evaluator) callUserFunction(def *registry.FunctionDef, args []values.Value, pos token.Position) (values.Value, error) {
	scope := runtime.NewChild(e.Ctx.Scope().Root())
	if err := e.bindPositional(scope, def.Params, args, pos); err != nil {
		return nil, err
	}
	h := e.Ctx.PushScope(scope)
	defer h.Close()
	return e.evalBlock(def.Body)
}

// bindPositional binds args to params in call order, supporting a
// trailing `*$rest` capture parameter and per-parameter default
// expressions (spec §4.3 "Parameter binding").
func (e *Evaluator) bindPositional(scope *runtime.Scope, params []ast.Param, args []values.Value, pos token.Position) error {
	i := 0
	for _, p := range params {
		if p.Captures {
			rest := append([]values.Value{}, args[i:]...)
			scope.Set(p.Name, &values.Array{Elements: rest})
			i = len(args)
			continue
		}
		if i < len(args) {
			scope.Set(p.Name, args[i])
			i++
			continue
		}
		if p.Default != nil {
			dv, err := e.evalExprInScope(scope, p.Default)
			if err != nil {
				return err
			}
			scope.Set(p.Name, dv)
			continue
		}
		return e.posErrorf(pos, "missing required argument %q", p.Name)
	}
	return nil
}

// CallBlock evaluates the lambda passed to the function call currently
// being dispatched, exposed for the embedding API's yield (spec §4.9
// "yield-to-block inside a function callback"). It is identical to the
// unexported callBlock used by the collection built-ins.
func (e *Evaluator) CallBlock(block *ast.Lambda, args []values.Value) (values.Value, error) {
	return e.callBlock(block, args)
}

// callBlock evaluates a literal lambda passed to a built-in, closing over
// the calling scope (spec §3: a block is a closure, unlike a declared
// function).
func (e *Evaluator) callBlock(block *ast.Lambda, args []values.Value) (values.Value, error) {
	if block == nil {
		return nil, fmt.Errorf("this function requires a block")
	}
	scope := runtime.NewChild(e.Ctx.Scope())
	for i, p := range block.Params {
		if i < len(args) {
			scope.Set(p.Name, args[i])
		} else if p.Default != nil {
			dv, err := e.evalExprInScope(scope, p.Default)
			if err != nil {
				return nil, err
			}
			scope.Set(p.Name, dv)
		}
	}
	h := e.Ctx.PushScope(scope)
	defer h.Close()
	return e.evalBlock(block.Body)
}

func flattenAllStrings(args []values.Value) []string {
	var out []string
	for _, a := range args {
		for _, v := range flattenRefs(a) {
			if s, ok := values.Deref(v).(values.Str); ok {
				out = append(out, string(s))
			}
		}
	}
	return out
}

func flattenAllValues(args []values.Value) []values.Value {
	var out []values.Value
	for _, a := range args {
		out = append(out, flattenRefs(a)...)
	}
	return out
}

// ---------------------------------------------------------------------
// Logging statement-calls (spec §6 "Log entry").

func (d *Dispatcher) registerLogging() {
	d.builtins["debug"] = logFunc(logging.Debug)
	d.builtins["info"] = logFunc(logging.Info)
	d.builtins["notice"] = logFunc(logging.Notice)
	d.builtins["warning"] = logFunc(logging.Warning)
	d.builtins["err"] = logFunc(logging.Err)
	d.builtins["fail"] = biFail
}

func logFunc(level logging.Level) BuiltinFunc {
	return func(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
		if e.Log != nil {
			e.Log.Log(level, pos, joinArgsAsMessage(args))
		}
		return values.Undef{}, nil
	}
}

func joinArgsAsMessage(args []values.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = values.ToString(a)
	}
	return strings.Join(parts, " ")
}

func biFail(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	return nil, e.posErrorf(pos, "%s", joinArgsAsMessage(args))
}

// ---------------------------------------------------------------------
// Catalog statement-calls (spec §4.7 "include/require/contain").

func (d *Dispatcher) registerCatalog() {
	d.builtins["include"] = biInclude
	d.builtins["require"] = biRequire
	d.builtins["contain"] = biContain
	d.builtins["tag"] = biTag
	d.builtins["defined"] = biDefined
	d.builtins["realize"] = biRealize
}

func biInclude(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	for _, name := range flattenAllStrings(args) {
		if _, err := e.declareClass(name, nil, pos); err != nil {
			return nil, err
		}
	}
	return values.Undef{}, nil
}

func biRequire(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	owner := e.currentContainer()
	for _, name := range flattenAllStrings(args) {
		ref, err := e.declareClass(name, nil, pos)
		if err != nil {
			return nil, err
		}
		if owner != nil {
			e.queueRelationship(values.Str(ref), values.Str(owner.Ref()), "require", pos)
		}
	}
	return values.Undef{}, nil
}

func biContain(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	owner := e.currentContainer()
	for _, name := range flattenAllStrings(args) {
		ref, err := e.declareClass(name, nil, pos)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			continue
		}
		typeName, title, ok := values.ParseResourceRef(ref)
		if !ok {
			continue
		}
		if r, found := e.Cat.Lookup(typeName, title); found {
			e.Cat.AddEdge(owner, r, catalog.Contains)
		}
	}
	return values.Undef{}, nil
}

func biTag(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	owner := e.currentContainer()
	if owner == nil {
		return nil, e.posErrorf(pos, "tag() called outside of any resource body")
	}
	owner.Tags = append(owner.Tags, flattenAllStrings(args)...)
	return values.Undef{}, nil
}

func biDefined(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	for _, a := range args {
		s, ok := values.Deref(a).(values.Str)
		if !ok {
			continue
		}
		name := string(s)
		if typeName, title, ok := values.ParseResourceRef(name); ok {
			if _, found := e.Cat.Lookup(typeName, title); found {
				return values.Bool(true), nil
			}
			continue
		}
		normalized := classNameNormalize(name)
		if e.Ctx.IsClassDeclared(normalized) {
			return values.Bool(true), nil
		}
		if len(e.Reg.Class(normalized)) > 0 {
			return values.Bool(true), nil
		}
		if _, ok := e.Reg.DefinedType(normalized); ok {
			return values.Bool(true), nil
		}
	}
	return values.Bool(false), nil
}

func biRealize(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	for _, ref := range flattenAllValues(args) {
		s, ok := values.Deref(ref).(values.Str)
		if !ok {
			continue
		}
		typeName, title, ok := values.ParseResourceRef(string(s))
		if !ok {
			continue
		}
		if r, found := e.Cat.Lookup(typeName, title); found {
			e.Cat.Realize(r)
		}
	}
	return values.Undef{}, nil
}

// ---------------------------------------------------------------------
// Utility functions.

func (d *Dispatcher) registerUtility() {
	d.builtins["versioncmp"] = biVersioncmp
	d.builtins["shellquote"] = biShellquote
}

func biVersioncmp(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 2 {
		return nil, e.posErrorf(pos, "versioncmp requires exactly 2 arguments")
	}
	a, aok := values.Deref(args[0]).(values.Str)
	b, bok := values.Deref(args[1]).(values.Str)
	if !aok || !bok {
		return nil, e.posErrorf(pos, "versioncmp requires String arguments")
	}
	return values.Int(versionCompare(string(a), string(b))), nil
}

func versionCompare(a, b string) int64 {
	as := splitVersionSegments(a)
	bs := splitVersionSegments(b)
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		an, aIsNum := parseVersionSegment(av)
		bn, bIsNum := parseVersionSegment(bv)
		if aIsNum && bIsNum {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func splitVersionSegments(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
}

func parseVersionSegment(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func biShellquote(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	parts := flattenAllStrings(args)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = shellQuoteOne(p)
	}
	return values.Str(strings.Join(quoted, " ")), nil
}

func shellQuoteOne(s string) string {
	if s != "" && isShellSafe(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@%_+=:,./-", r) {
			continue
		}
		return false
	}
	return true
}

// ---------------------------------------------------------------------
// Collection methods backing the method-call postfix sugar (spec §4.5).

func (d *Dispatcher) registerCollections() {
	d.builtins["each"] = biEach
	d.builtins["map"] = biMap
	d.builtins["collect"] = biMap
	d.builtins["filter"] = biFilter
	d.builtins["select"] = biFilter
	d.builtins["reject"] = biReject
	d.builtins["reduce"] = biReduce
	d.builtins["size"] = biSize
	d.builtins["length"] = biSize
	d.builtins["empty"] = biEmpty
	d.builtins["keys"] = biKeys
	d.builtins["values"] = biValues
	d.builtins["sort"] = biSort
	d.builtins["unique"] = biUnique
	d.builtins["flatten"] = biFlatten
	d.builtins["join"] = biJoin
}

func toIterator(v values.Value) (*values.Iterator, error) {
	switch t := values.Deref(v).(type) {
	case *values.Array:
		return values.NewSequenceIterator(t), nil
	case *values.Hash:
		return values.NewKeyValueIterator(t), nil
	case *values.Iterator:
		return t, nil
	default:
		return nil, fmt.Errorf("expected an Array, Hash, or Iterator, got %s", v.Kind())
	}
}

func biEach(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "each requires exactly one receiver argument")
	}
	it, err := toIterator(args[0])
	if err != nil {
		return nil, e.posErrorf(pos, "%s", err)
	}
	var callErr error
	it.Each(func(kv ...values.Value) bool {
		if _, callErr = e.callBlock(block, kv); callErr != nil {
			return false
		}
		return true
	})
	if callErr != nil {
		return nil, callErr
	}
	return args[0], nil
}

func biMap(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "map requires exactly one receiver argument")
	}
	it, err := toIterator(args[0])
	if err != nil {
		return nil, e.posErrorf(pos, "%s", err)
	}
	var out []values.Value
	var callErr error
	it.Each(func(kv ...values.Value) bool {
		v, err := e.callBlock(block, kv)
		if err != nil {
			callErr = err
			return false
		}
		out = append(out, v)
		return true
	})
	if callErr != nil {
		return nil, callErr
	}
	return &values.Array{Elements: out}, nil
}

func filterGeneric(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position, keep bool) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "filter/reject requires exactly one receiver argument")
	}
	switch t := values.Deref(args[0]).(type) {
	case *values.Hash:
		var out []values.HashPair
		for _, p := range t.Pairs {
			res, err := e.callBlock(block, []values.Value{p.Key, p.Value})
			if err != nil {
				return nil, err
			}
			if values.IsTruthy(res) == keep {
				out = append(out, p)
			}
		}
		return &values.Hash{Pairs: out}, nil
	case *values.Array:
		var out []values.Value
		for _, v := range t.Elements {
			res, err := e.callBlock(block, []values.Value{v})
			if err != nil {
				return nil, err
			}
			if values.IsTruthy(res) == keep {
				out = append(out, v)
			}
		}
		return &values.Array{Elements: out}, nil
	default:
		return nil, e.posErrorf(pos, "filter/reject requires an Array or Hash receiver, got %s", args[0].Kind())
	}
}

func biFilter(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	return filterGeneric(e, args, block, pos, true)
}

func biReject(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	return filterGeneric(e, args, block, pos, false)
}

func biReduce(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, e.posErrorf(pos, "reduce takes a receiver and an optional initial value")
	}
	it, err := toIterator(args[0])
	if err != nil {
		return nil, e.posErrorf(pos, "%s", err)
	}
	var memo values.Value
	haveMemo := false
	if len(args) == 2 {
		memo = args[1]
		haveMemo = true
	}
	var callErr error
	it.Each(func(kv ...values.Value) bool {
		if !haveMemo {
			if len(kv) == 1 {
				memo = kv[0]
			} else {
				memo = &values.Array{Elements: append([]values.Value{}, kv...)}
			}
			haveMemo = true
			return true
		}
		blockArgs := append([]values.Value{memo}, kv...)
		v, err := e.callBlock(block, blockArgs)
		if err != nil {
			callErr = err
			return false
		}
		memo = v
		return true
	})
	if callErr != nil {
		return nil, callErr
	}
	if !haveMemo {
		return values.Undef{}, nil
	}
	return memo, nil
}

func biSize(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "size/length requires exactly one argument")
	}
	switch t := values.Deref(args[0]).(type) {
	case *values.Array:
		return values.Int(len(t.Elements)), nil
	case *values.Hash:
		return values.Int(len(t.Pairs)), nil
	case values.Str:
		return values.Int(values.GraphemeLen(string(t))), nil
	case *values.Iterator:
		n := 0
		t.Each(func(kv ...values.Value) bool { n++; return true })
		return values.Int(n), nil
	default:
		return nil, e.posErrorf(pos, "size/length requires a String, Array, Hash, or Iterator, got %s", args[0].Kind())
	}
}

func biEmpty(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	v, err := biSize(e, args, block, pos)
	if err != nil {
		return nil, err
	}
	return values.Bool(v.(values.Int) == 0), nil
}

func biKeys(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "keys requires exactly one receiver argument")
	}
	h, ok := values.Deref(args[0]).(*values.Hash)
	if !ok {
		return nil, e.posErrorf(pos, "keys requires a Hash receiver, got %s", args[0].Kind())
	}
	out := make([]values.Value, len(h.Pairs))
	for i, p := range h.Pairs {
		out[i] = p.Key
	}
	return &values.Array{Elements: out}, nil
}

func biValues(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "values requires exactly one receiver argument")
	}
	h, ok := values.Deref(args[0]).(*values.Hash)
	if !ok {
		return nil, e.posErrorf(pos, "values requires a Hash receiver, got %s", args[0].Kind())
	}
	out := make([]values.Value, len(h.Pairs))
	for i, p := range h.Pairs {
		out[i] = p.Value
	}
	return &values.Array{Elements: out}, nil
}

func biSort(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "sort requires exactly one receiver argument")
	}
	arr, ok := values.Deref(args[0]).(*values.Array)
	if !ok {
		return nil, e.posErrorf(pos, "sort requires an Array receiver, got %s", args[0].Kind())
	}
	out := append([]values.Value{}, arr.Elements...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if block != nil {
			res, err := e.callBlock(block, []values.Value{out[i], out[j]})
			if err != nil {
				sortErr = err
				return false
			}
			n, ok := values.Deref(res).(values.Int)
			if !ok {
				sortErr = fmt.Errorf("sort block must return an Integer")
				return false
			}
			return n < 0
		}
		cmp, err := e.compare(token.LT, out[i], out[j])
		if err != nil {
			sortErr = err
			return false
		}
		return bool(cmp.(values.Bool))
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &values.Array{Elements: out}, nil
}

func biUnique(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "unique requires exactly one receiver argument")
	}
	arr, ok := values.Deref(args[0]).(*values.Array)
	if !ok {
		return nil, e.posErrorf(pos, "unique requires an Array receiver, got %s", args[0].Kind())
	}
	var out []values.Value
	for _, v := range arr.Elements {
		dup := false
		for _, seen := range out {
			if values.Equal(v, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return &values.Array{Elements: out}, nil
}

func biFlatten(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 1 {
		return nil, e.posErrorf(pos, "flatten requires exactly one receiver argument")
	}
	arr, ok := values.Deref(args[0]).(*values.Array)
	if !ok {
		return nil, e.posErrorf(pos, "flatten requires an Array receiver, got %s", args[0].Kind())
	}
	return &values.Array{Elements: flattenDeep(arr)}, nil
}

func flattenDeep(a *values.Array) []values.Value {
	var out []values.Value
	for _, v := range a.Elements {
		if sub, ok := values.Deref(v).(*values.Array); ok {
			out = append(out, flattenDeep(sub)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func biJoin(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, e.posErrorf(pos, "join takes a receiver and an optional separator")
	}
	arr, ok := values.Deref(args[0]).(*values.Array)
	if !ok {
		return nil, e.posErrorf(pos, "join requires an Array receiver, got %s", args[0].Kind())
	}
	sep := ""
	if len(args) == 2 {
		s, ok := values.Deref(args[1]).(values.Str)
		if !ok {
			return nil, e.posErrorf(pos, "join separator must be a String")
		}
		sep = string(s)
	}
	parts := make([]string, len(arr.Elements))
	for i, v := range arr.Elements {
		parts[i] = values.ToString(v)
	}
	return values.Str(strings.Join(parts, sep)), nil
}

// ---------------------------------------------------------------------
// String functions.

func (d *Dispatcher) registerStrings() {
	d.builtins["split"] = biSplit
	d.builtins["upcase"] = stringMapFunc(strings.ToUpper)
	d.builtins["downcase"] = stringMapFunc(strings.ToLower)
	d.builtins["capitalize"] = stringMapFunc(capitalizeStr)
	d.builtins["strip"] = stringMapFunc(strings.TrimSpace)
}

func biSplit(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
	if len(args) != 2 {
		return nil, e.posErrorf(pos, "split requires a receiver and a separator")
	}
	s, ok := values.Deref(args[0]).(values.Str)
	if !ok {
		return nil, e.posErrorf(pos, "split requires a String receiver")
	}
	var parts []string
	switch sep := values.Deref(args[1]).(type) {
	case values.Str:
		parts = strings.Split(string(s), string(sep))
	case *values.Regex:
		parts = sep.Regexp().Split(string(s), -1)
	default:
		return nil, e.posErrorf(pos, "split separator must be a String or Regexp")
	}
	out := make([]values.Value, len(parts))
	for i, p := range parts {
		out[i] = values.Str(p)
	}
	return &values.Array{Elements: out}, nil
}

func stringMapFunc(f func(string) string) BuiltinFunc {
	return func(e *Evaluator, args []values.Value, block *ast.Lambda, pos token.Position) (values.Value, error) {
		if len(args) != 1 {
			return nil, e.posErrorf(pos, "expects exactly one receiver argument")
		}
		switch t := values.Deref(args[0]).(type) {
		case values.Str:
			return values.Str(f(string(t))), nil
		case *values.Array:
			out := make([]values.Value, len(t.Elements))
			for i, v := range t.Elements {
				s, ok := values.Deref(v).(values.Str)
				if !ok {
					return nil, e.posErrorf(pos, "array elements must be String")
				}
				out[i] = values.Str(f(string(s)))
			}
			return &values.Array{Elements: out}, nil
		default:
			return nil, e.posErrorf(pos, "expects a String or Array[String] receiver, got %s", args[0].Kind())
		}
	}
}

func capitalizeStr(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
