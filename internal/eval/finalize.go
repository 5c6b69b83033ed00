package eval

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/puppetlabs/puppetlang/catalog"
	"github.com/puppetlabs/puppetlang/internal/runtime"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// Finalize runs the fixed-point finalization loop (spec §4.7
// "Finalization"): queued defined-type declarations, resource overrides,
// collector queries, and relationship edges are applied repeatedly until
// a pass makes no further progress, capped at MaxFinalizationIterations
// to guard against runaway recursion (e.g. a defined type that
// unconditionally declares another instance of itself).
func (e *Evaluator) Finalize() errors.List {
	var merr *multierror.Error
	for i := 0; i < MaxFinalizationIterations; i++ {
		changed := false

		pendingTypes := e.Ctx.DefinedTypeQueue()
		e.Ctx.SetDefinedTypeQueue(nil)
		for _, d := range pendingTypes {
			if err := e.evalDeclaredDefinedType(d); err != nil {
				merr = multierror.Append(merr, err)
				continue
			}
			changed = true
		}

		if e.applyOverrides(&merr) {
			changed = true
		}
		if e.runCollectors(&merr) {
			changed = true
		}
		if e.applyRelationships(&merr) {
			changed = true
		}

		if !changed {
			break
		}
	}

	if remaining := e.Ctx.DefinedTypeQueue(); len(remaining) > 0 {
		merr = multierror.Append(merr, fmt.Errorf("finalization did not converge after %d iterations: %d defined-type declaration(s) still queued", MaxFinalizationIterations, len(remaining)))
	}
	if remaining := e.Ctx.Overrides(); len(remaining) > 0 {
		merr = multierror.Append(merr, fmt.Errorf("resource override target never appeared in the catalog (%d pending)", len(remaining)))
	}

	var out errors.List
	if merr == nil {
		return out
	}
	for _, err := range merr.Errors {
		if ee, ok := err.(errors.Error); ok {
			out = out.Add(ee)
			continue
		}
		out = out.Add(errors.Newf(token.NoPos, "%s", err))
	}
	return out
}

// evalDeclaredDefinedType evaluates one queued defined-type instance: a
// fresh resource scope bound to its title, parameters bound from the
// evaluated attributes, body evaluated with the pre-created catalog
// resource as the containing resource (spec §4.3 "defined type
// instantiation").
func (e *Evaluator) evalDeclaredDefinedType(d *runtime.DeclaredDefinedType) error {
	def, ok := e.Reg.DefinedType(d.TypeName)
	if !ok {
		return e.posErrorf(d.Pos, "defined type %q is not defined", d.TypeName)
	}
	scopeName := d.TypeName + "[" + d.Title + "]"
	scope := runtime.NewResourceScope(d.Scope, scopeName)
	scope.Set("title", values.Str(d.Title))
	scope.Set("name", values.Str(d.Title))
	attrs := make([]evaluatedAttr, 0, len(d.Args))
	for name, v := range d.Args {
		attrs = append(attrs, evaluatedAttr{name: name, value: v, pos: d.Pos})
	}
	if err := e.bindParams(scope, def.Params, attrs, d.Pos); err != nil {
		return err
	}
	if !e.Ctx.Scopes().Register(scopeName, scope) {
		return e.posErrorf(d.Pos, "scope already registered for %s", scopeName)
	}
	h := e.Ctx.PushScope(scope)
	e.pushContainer(d.Resource)
	_, err := e.evalBlock(def.Body)
	e.popContainer()
	h.Close()
	return err
}

// applyOverrides applies any pending override whose target resource now
// exists in the catalog (spec §4.7 "Resource-override evaluation").
func (e *Evaluator) applyOverrides(merr **multierror.Error) bool {
	pending := e.Ctx.Overrides()
	if len(pending) == 0 {
		return false
	}
	var remaining []*runtime.PendingOverride
	changed := false
	for _, o := range pending {
		s, ok := values.Deref(o.TargetRef).(values.Str)
		if !ok {
			remaining = append(remaining, o)
			continue
		}
		typeName, title, ok := values.ParseResourceRef(string(s))
		if !ok {
			remaining = append(remaining, o)
			continue
		}
		r, found := e.Cat.Lookup(typeName, title)
		if !found {
			remaining = append(remaining, o)
			continue
		}
		if err := e.checkOverrideScope(r, o.Scope, o.Pos); err != nil {
			*merr = multierror.Append(*merr, err)
			continue
		}
		attrs, _, err := e.evalAttributesInScope(o.Scope, o.Attributes)
		if err != nil {
			*merr = multierror.Append(*merr, err)
			continue
		}
		for _, a := range attrs {
			r.SetAttr(&catalog.Attribute{Name: a.name, Value: a.value, Op: a.op, NamePos: a.pos, ValuePos: a.pos})
		}
		changed = true
	}
	e.Ctx.SetOverrides(remaining)
	return changed
}

// evalAttributesInScope evaluates attrs with scope made current, used for
// a deferred override application (spec §4.7: overrides evaluate their
// attribute expressions in the scope that issued them, not the one that
// created the target).
func (e *Evaluator) evalAttributesInScope(scope *runtime.Scope, attrs []ast.Attribute) ([]evaluatedAttr, metaparams, error) {
	h := e.Ctx.PushScope(scope)
	defer h.Close()
	return e.evalAttributes(attrs)
}

// runCollectors realizes every catalog resource newly matching a
// registered collector (spec §4.7 "Collectors"; §5 "Collector runs are
// ordered by collector creation order").
func (e *Evaluator) runCollectors(merr **multierror.Error) bool {
	changed := false
	for _, col := range e.Ctx.Collectors() {
		for _, r := range e.Cat.ByType(col.TypeName) {
			if col.Exported && !r.Exported {
				continue
			}
			key := r.Key()
			if col.Matched[key] {
				continue
			}
			matched, err := e.evalCollectorQueryInScope(col.Scope, col.Query, r)
			if err != nil {
				*merr = multierror.Append(*merr, err)
				continue
			}
			if !matched {
				continue
			}
			col.Matched[key] = true
			if !r.IsRealized() {
				e.Cat.Realize(r)
			}
			changed = true
		}
	}
	return changed
}

func (e *Evaluator) evalCollectorQueryInScope(scope *runtime.Scope, query ast.Expr, r *catalog.Resource) (bool, error) {
	if query == nil {
		return true, nil
	}
	bin, ok := query.(*ast.BinaryExpr)
	if !ok {
		return false, fmt.Errorf("unsupported collector query expression")
	}
	h := e.Ctx.PushScope(scope)
	defer h.Close()
	pos := 0
	tree := climb(bin.Terms, &pos, 0, &binNode{leaf: bin.Left})
	return e.evalQueryTree(r, tree)
}

func (e *Evaluator) evalQueryTree(r *catalog.Resource, t *binNode) (bool, error) {
	if t.left == nil && t.right == nil {
		return false, fmt.Errorf("collector query term must be a comparison, not a bare value")
	}
	switch t.op {
	case token.AND:
		l, err := e.evalQueryTree(r, t.left)
		if err != nil || !l {
			return false, err
		}
		return e.evalQueryTree(r, t.right)
	case token.OR:
		l, err := e.evalQueryTree(r, t.left)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return e.evalQueryTree(r, t.right)
	case token.EQ, token.NE:
		name, ok := queryLeafName(t.left)
		if !ok {
			return false, fmt.Errorf("collector query left operand must be an attribute name")
		}
		rv, err := e.queryOperandValue(t.right)
		if err != nil {
			return false, err
		}
		eq := values.Equal(collectorAttrValue(r, name), rv)
		if t.op == token.NE {
			return !eq, nil
		}
		return eq, nil
	default:
		return false, fmt.Errorf("unsupported collector query operator %s", t.op)
	}
}

func queryLeafName(t *binNode) (string, bool) {
	if t.left != nil || t.right != nil || t.leaf == nil {
		return "", false
	}
	switch n := t.leaf.(type) {
	case *ast.Name:
		return n.Value, true
	case *ast.Variable:
		return n.Name, true
	case *ast.BareWord:
		return n.Value, true
	default:
		return "", false
	}
}

func (e *Evaluator) queryOperandValue(t *binNode) (values.Value, error) {
	if t.left != nil || t.right != nil {
		return nil, fmt.Errorf("collector query right operand must be a literal")
	}
	return e.evalExpr(t.leaf)
}

func collectorAttrValue(r *catalog.Resource, name string) values.Value {
	switch name {
	case "title", "name":
		return values.Str(r.Title)
	case "tag":
		tags := make([]values.Value, len(r.Tags))
		for i, t := range r.Tags {
			tags[i] = values.Str(t)
		}
		return &values.Array{Elements: tags}
	}
	if a, ok := r.Attrs[name]; ok {
		return a.Value
	}
	return values.Undef{}
}

// applyRelationships resolves every queued relationship's (possibly
// array-valued) source/target references into catalog resources and
// inserts the corresponding edge (spec §4.8). A reference that never
// resolves is reported but does not block the others.
func (e *Evaluator) applyRelationships(merr **multierror.Error) bool {
	pending := e.Ctx.Relationships()
	if len(pending) == 0 {
		return false
	}
	changed := false
	for _, rel := range pending {
		sources, sOk := e.resolveRelRefs(rel.Source)
		targets, tOk := e.resolveRelRefs(rel.Target)
		if !sOk || !tOk {
			*merr = multierror.Append(*merr, fmt.Errorf("%s: relationship references a resource not present in the catalog", rel.Pos))
			continue
		}
		rn := relationOf(rel.Kind)
		for _, s := range sources {
			for _, t := range targets {
				e.Cat.AddEdge(s, t, rn)
			}
		}
		changed = true
	}
	return changed
}

func (e *Evaluator) resolveRelRefs(v values.Value) ([]*catalog.Resource, bool) {
	var out []*catalog.Resource
	for _, ref := range flattenRefs(v) {
		s, ok := values.Deref(ref).(values.Str)
		if !ok {
			return nil, false
		}
		typeName, title, ok := values.ParseResourceRef(string(s))
		if !ok {
			return nil, false
		}
		r, found := e.Cat.Lookup(typeName, title)
		if !found {
			return nil, false
		}
		out = append(out, r)
	}
	return out, true
}

func relationOf(kind string) catalog.Relation {
	switch kind {
	case "before":
		return catalog.Before
	case "notify":
		return catalog.Notify
	case "require":
		return catalog.Require
	case "subscribe":
		return catalog.Subscribe
	default:
		return catalog.Require
	}
}
