package eval

import (
	"fmt"
	"strings"

	"github.com/puppetlabs/puppetlang/catalog"
	"github.com/puppetlabs/puppetlang/internal/runtime"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// currentContainer returns the resource whose body is currently being
// evaluated, if any, used to set Resource.Container for nested resource
// declarations (spec §3 "containment").
func (e *Evaluator) currentContainer() *catalog.Resource {
	n := len(e.containers)
	if n == 0 {
		return nil
	}
	return e.containers[n-1]
}

func (e *Evaluator) pushContainer(r *catalog.Resource) {
	e.containers = append(e.containers, r)
}

func (e *Evaluator) popContainer() {
	e.containers = e.containers[:len(e.containers)-1]
}

// evalResource implements spec §4.7 "Resource declaration" steps 1-5: type
// expression evaluation, title evaluation (including `default` bodies),
// attribute composition with splat/append, metaparameter coercion, and
// resource creation/registration (or class declaration, when the type
// name is "class").
func (e *Evaluator) evalResource(n *ast.Resource) (values.Value, error) {
	typeVal, err := e.evalExpr(n.Type)
	if err != nil {
		return nil, err
	}
	typeName, ok := values.Deref(typeVal).(values.Str)
	if !ok {
		return nil, e.posErrorf(n.Pos(), "resource type must evaluate to a string, got %s", typeVal.Kind())
	}
	normalized := strings.ToLower(string(typeName))

	var defaultAttrs []ast.Attribute
	type titledBody struct {
		title string
		attrs []ast.Attribute
		pos   token.Position
	}
	var bodies []titledBody

	for _, b := range n.Bodies {
		titleVal, err := e.evalExpr(b.Title)
		if err != nil {
			return nil, err
		}
		if values.IsDefault(titleVal) {
			defaultAttrs = append(defaultAttrs, b.Attributes...)
			continue
		}
		titles, err := titleStrings(titleVal)
		if err != nil {
			return nil, e.posErrorf(b.Title.Pos(), "%s", err)
		}
		for _, t := range titles {
			bodies = append(bodies, titledBody{title: t, attrs: b.Attributes, pos: b.Title.Pos()})
		}
	}

	var results []values.Value
	for _, tb := range bodies {
		attrs, meta, err := e.evalAttributes(append(append([]ast.Attribute{}, defaultAttrs...), tb.attrs...))
		if err != nil {
			return nil, err
		}
		if normalized == "class" {
			ref, err := e.declareClass(tb.title, attrs, tb.pos)
			if err != nil {
				return nil, err
			}
			results = append(results, values.Str(ref))
			continue
		}
		ref, err := e.declareResource(normalized, tb.title, attrs, meta, n.Virtual, n.Exported, tb.pos)
		if err != nil {
			return nil, err
		}
		results = append(results, values.Str(ref))
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return &values.Array{Elements: results}, nil
}

// titleStrings expands a title value into one or more resource titles
// (spec §4.7: "an array title declares one resource per element").
func titleStrings(v values.Value) ([]string, error) {
	switch t := values.Deref(v).(type) {
	case values.Str:
		return []string{string(t)}, nil
	case *values.Array:
		var out []string
		for _, el := range t.Elements {
			s, ok := values.Deref(el).(values.Str)
			if !ok {
				return nil, fmt.Errorf("resource title array elements must be strings")
			}
			out = append(out, string(s))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("resource title must be a string or array of strings, got %s", v.Kind())
	}
}

type evaluatedAttr struct {
	name  string
	op    catalog.AttrOp
	value values.Value
	pos   token.Position
}

type metaparams struct {
	before, notify, require, subscribe []values.Value
	tags                               []string
}

// evalAttributes evaluates a body's attribute list, expanding splats
// (`* => $hash`) and separating metaparameters from ordinary attributes
// (spec §4.7 "attribute composition with splat/append, metaparameter
// coercion").
func (e *Evaluator) evalAttributes(attrs []ast.Attribute) ([]evaluatedAttr, metaparams, error) {
	var out []evaluatedAttr
	var meta metaparams
	for _, a := range attrs {
		if a.Splat {
			v, err := e.evalExpr(a.Value)
			if err != nil {
				return nil, meta, err
			}
			h, ok := values.Deref(v).(*values.Hash)
			if !ok {
				return nil, meta, e.posErrorf(a.Pos(), "splat attribute value must be a hash")
			}
			for _, p := range h.Pairs {
				name, ok := values.Deref(p.Key).(values.Str)
				if !ok {
					continue
				}
				if err := e.addAttr(&out, &meta, string(name), catalog.OpAssign, p.Value, a.Pos()); err != nil {
					return nil, meta, err
				}
			}
			continue
		}
		name, err := e.attrName(a.Name)
		if err != nil {
			return nil, meta, err
		}
		v, err := e.evalExpr(a.Value)
		if err != nil {
			return nil, meta, err
		}
		op := catalog.OpAssign
		if a.Op == ast.OpAppend {
			op = catalog.OpAppend
		}
		if err := e.addAttr(&out, &meta, name, op, v, a.Pos()); err != nil {
			return nil, meta, err
		}
	}
	return out, meta, nil
}

func (e *Evaluator) attrName(n ast.Expr) (string, error) {
	switch t := n.(type) {
	case *ast.BareWord:
		return t.Value, nil
	case *ast.Name:
		return t.Value, nil
	case *ast.String:
		v, err := e.evalString(t)
		if err != nil {
			return "", err
		}
		return string(v.(values.Str)), nil
	default:
		return "", e.posErrorf(n.Pos(), "invalid attribute name")
	}
}

func (e *Evaluator) addAttr(out *[]evaluatedAttr, meta *metaparams, name string, op catalog.AttrOp, v values.Value, pos token.Position) error {
	switch name {
	case "before":
		meta.before = append(meta.before, flattenRefs(v)...)
	case "notify":
		meta.notify = append(meta.notify, flattenRefs(v)...)
	case "require":
		meta.require = append(meta.require, flattenRefs(v)...)
	case "subscribe":
		meta.subscribe = append(meta.subscribe, flattenRefs(v)...)
	case "tag":
		for _, r := range flattenRefs(v) {
			if s, ok := values.Deref(r).(values.Str); ok {
				meta.tags = append(meta.tags, string(s))
			}
		}
	default:
		*out = append(*out, evaluatedAttr{name: name, op: op, value: v, pos: pos})
	}
	return nil
}

func flattenRefs(v values.Value) []values.Value {
	if arr, ok := values.Deref(v).(*values.Array); ok {
		return append([]values.Value{}, arr.Elements...)
	}
	return []values.Value{v}
}

// declareResource creates and inserts a catalog resource, applying any
// pending override already queued for it (spec §4.7 "Resource-override
// evaluation").
func (e *Evaluator) declareResource(typeName, title string, attrs []evaluatedAttr, meta metaparams, virtual, exported bool, pos token.Position) (string, error) {
	r := catalog.NewResource(typeName, title, pos)
	r.Virtual = virtual
	r.Exported = exported
	r.Tags = meta.tags
	r.Container = e.currentContainer()
	for _, a := range attrs {
		r.SetAttr(&catalog.Attribute{Name: a.name, Value: a.value, Op: a.op, NamePos: a.pos, ValuePos: a.pos})
	}
	if err := e.Cat.Add(r); err != nil {
		return "", e.posErrorf(pos, "%s", err)
	}
	e.resourceScopes[r] = e.Ctx.Scope()
	owner := values.Str(r.Ref())
	for _, ref := range meta.before {
		e.queueRelationship(owner, ref, "before", pos)
	}
	for _, ref := range meta.notify {
		e.queueRelationship(owner, ref, "notify", pos)
	}
	for _, ref := range meta.require {
		e.queueRelationship(ref, owner, "require", pos)
	}
	for _, ref := range meta.subscribe {
		e.queueRelationship(ref, owner, "subscribe", pos)
	}
	if _, ok := e.Reg.DefinedType(typeName); ok {
		args := make(map[string]values.Value, len(attrs))
		for _, a := range attrs {
			args[a.name] = a.value
		}
		e.Ctx.QueueDefinedType(&runtime.DeclaredDefinedType{
			TypeName: typeName, Title: title, Args: args,
			Scope: e.Ctx.Scope(), Pos: pos,
			Virtual: virtual, Exported: exported, Resource: r,
		})
	}
	return r.Ref(), nil
}

// declareClass implements idempotent class declaration (spec §4.7 "Class
// declaration with idempotent body evaluation"): the body is evaluated at
// most once per class name; later declarations with different parameter
// values are not re-evaluated, matching Puppet's "a class is evaluated
// once" semantics.
func (e *Evaluator) declareClass(name string, attrs []evaluatedAttr, pos token.Position) (string, error) {
	normalized := classNameNormalize(name)
	ref := "Class['" + normalized + "']"
	if e.Ctx.IsClassDeclared(normalized) {
		return ref, nil
	}
	defs := e.Reg.Class(normalized)
	if len(defs) == 0 {
		return "", e.posErrorf(pos, "class %q is not defined", name)
	}
	def := defs[0]
	r := catalog.NewResource("class", normalized, pos)
	r.Container = e.currentContainer()
	for _, a := range attrs {
		r.SetAttr(&catalog.Attribute{Name: a.name, Value: a.value, Op: a.op, NamePos: a.pos, ValuePos: a.pos})
	}
	if err := e.Cat.Add(r); err != nil {
		return "", e.posErrorf(pos, "%s", err)
	}
	e.resourceScopes[r] = e.Ctx.Scope()
	e.Ctx.MarkClassDeclared(normalized)

	parent := e.Ctx.Scope().Root()
	classScope := runtime.NewResourceScope(parent, normalized)
	if def.Parent != "" {
		if _, err := e.declareClass(def.Parent, nil, pos); err != nil {
			return "", err
		}
	}
	if !e.Ctx.Scopes().Register(normalized, classScope) {
		return "", e.posErrorf(pos, "scope already registered for class %q", normalized)
	}
	if err := e.bindParams(classScope, def.Params, attrs, pos); err != nil {
		return "", err
	}

	h := e.Ctx.PushScope(classScope)
	e.pushContainer(r)
	_, err := e.evalBlock(def.Body)
	e.popContainer()
	h.Close()
	return ref, err
}

func classNameNormalize(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "::"))
}

// bindParams binds a class/defined-type's declared parameters into scope,
// from explicit attribute values, falling back to each parameter's
// default expression (evaluated in scope so later defaults can reference
// earlier parameters), and erroring on a required-but-missing parameter
// (spec §4.3/§4.7).
func (e *Evaluator) bindParams(scope *runtime.Scope, params []ast.Param, attrs []evaluatedAttr, pos token.Position) error {
	byName := map[string]values.Value{}
	for _, a := range attrs {
		byName[a.name] = a.value
	}
	for _, p := range params {
		if v, ok := byName[p.Name]; ok {
			scope.Set(p.Name, v)
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
		return e.posErrorf(pos, "missing required parameter %q", p.Name)
	}
	return nil
}

// evalExprInScope evaluates expr with scope made current (spec §4.3: a
// parameter default may reference an earlier parameter of the same
// class/defined type).
func (e *Evaluator) evalExprInScope(scope *runtime.Scope, expr ast.Expr) (values.Value, error) {
	h := e.Ctx.PushScope(scope)
	defer h.Close()
	return e.evalExpr(expr)
}

// checkOverrideScope enforces spec §4.7's "override without inheritance"
// parent-scope check: an override is permitted only when it is issued from
// a scope that contains the target resource's declaring scope, or when the
// target's declaring scope is unknown/unassociated.
func (e *Evaluator) checkOverrideScope(r *catalog.Resource, overrideScope *runtime.Scope, pos token.Position) error {
	declScope, ok := e.resourceScopes[r]
	if !ok || declScope == nil || overrideScope == nil {
		return nil
	}
	if overrideScope.Contains(declScope) {
		return nil
	}
	return e.posErrorf(pos, "override without inheritance: %s is not in a scope that contains %s", overrideScope.Name(), r.Ref())
}

// evalResourceOverride implements spec §4.7 "Resource-override
// evaluation": applied immediately if the target already exists in the
// catalog, otherwise queued until it is created (permitted only from a
// scope that contains the target, checked at apply time).
func (e *Evaluator) evalResourceOverride(n *ast.ResourceOverride) (values.Value, error) {
	refVal, err := e.evalExpr(n.Reference)
	if err != nil {
		return nil, err
	}
	attrs, _, err := e.evalAttributes(n.Attributes)
	if err != nil {
		return nil, err
	}
	overrideScope := e.Ctx.Scope()
	applyTo := func(r *catalog.Resource) error {
		if err := e.checkOverrideScope(r, overrideScope, n.Pos()); err != nil {
			return err
		}
		for _, a := range attrs {
			r.SetAttr(&catalog.Attribute{Name: a.name, Value: a.value, Op: a.op, NamePos: a.pos, ValuePos: a.pos})
		}
		return nil
	}
	for _, ref := range flattenRefs(refVal) {
		s, ok := values.Deref(ref).(values.Str)
		if !ok {
			continue
		}
		typeName, title, ok := values.ParseResourceRef(string(s))
		if !ok {
			return nil, e.posErrorf(n.Pos(), "invalid resource reference %q", s)
		}
		if r, found := e.Cat.Lookup(typeName, title); found {
			if err := applyTo(r); err != nil {
				return nil, err
			}
			continue
		}
		e.Ctx.QueueOverride(&runtime.PendingOverride{
			TargetType: strings.ToLower(typeName),
			TargetRef:  ref,
			Attributes: n.Attributes,
			Scope:      overrideScope,
			Pos:        n.Pos(),
		})
	}
	return refVal, nil
}

// evalCollectorLiteral registers a collector query for the finalization
// loop (spec §4.7 "Collectors").
func (e *Evaluator) evalCollectorLiteral(n *ast.CollectorQuery) (values.Value, error) {
	typeVal, err := e.evalExpr(n.Type)
	if err != nil {
		return nil, err
	}
	typeName, ok := values.Deref(typeVal).(values.Str)
	if !ok {
		return nil, e.posErrorf(n.Pos(), "collector type must evaluate to a string")
	}
	e.Ctx.AddCollector(&runtime.Collector{
		TypeName: strings.ToLower(string(typeName)),
		Exported: n.Exported,
		Query:    n.Query,
		Scope:    e.Ctx.Scope(),
		Pos:      n.Pos(),
		Matched:  map[string]bool{},
	})
	return values.Undef{}, nil
}
