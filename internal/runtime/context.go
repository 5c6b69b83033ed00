package runtime

import (
	"github.com/puppetlabs/puppetlang/catalog"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// PendingOverride is a queued resource-override (spec §4.7 "Resource-
// override evaluation"): applied immediately if its target already
// exists, otherwise stored here indexed by target type name and applied
// when the target is later created.
type PendingOverride struct {
	TargetType string // normalized resource type name
	TargetRef  values.Value
	Attributes []ast.Attribute
	Scope      *Scope
	Pos        token.Position
}

// DeclaredDefinedType is a queued defined-type declaration awaiting
// evaluation in the finalization loop (spec §4.7 "queue a declared-
// defined-type entry for later evaluation").
type DeclaredDefinedType struct {
	TypeName string
	Title    string
	Args     map[string]values.Value
	Scope    *Scope
	Pos      token.Position
	Virtual  bool
	Exported bool
	Resource *catalog.Resource // the container resource already added to the catalog
}

// Collector is a deferred resource selector (spec §4.7 "Collectors").
type Collector struct {
	TypeName string
	Exported bool
	Query    ast.Expr // nil means "all"
	Scope    *Scope
	Pos      token.Position
	Matched  map[string]bool // already-matched (type,title) keys, for idempotent re-runs
}

// Relationship is one queued `->`/`~>`/edge declaration awaiting
// evaluation after overrides are applied (spec §4.7 "evaluate queued
// relationships").
type Relationship struct {
	Source, Target values.Value
	Kind           string // "before", "require", "notify", "subscribe"
	Pos            token.Position
}

// streamFrame is one entry of the EPP output-stream stack (spec §4.6
// "stream stack (for EPP output)").
type streamFrame struct {
	buf []byte
}

// Context is the evaluation-time singleton for a compilation (spec §4.6
// "The context"). It owns the scope stack, match-scope stack, EPP output
// stream stack, the classes-declared set, and the three finalization
// queues (overrides, declared defined types, collectors) plus relationships
// and the node scope pointer.
type Context struct {
	scopes  *ScopeRegistry
	scope   *Scope
	match   *MatchScope
	streams []*streamFrame

	declaredClasses map[string]bool
	overrides       []*PendingOverride
	definedTypes    []*DeclaredDefinedType
	collectors      []*Collector
	relationships   []*Relationship

	nodeScope *Scope
}

// NewContext creates a Context rooted at the given root scope.
func NewContext(root *Scope) *Context {
	return &Context{
		scopes:          NewScopeRegistry(),
		scope:           root,
		match:           NewMatchScope(nil),
		declaredClasses: map[string]bool{},
	}
}

// Scope returns the current (innermost) scope.
func (c *Context) Scope() *Scope { return c.scope }

// MatchScope returns the current match-scope frame.
func (c *Context) MatchScope() *MatchScope { return c.match }

// Scopes returns the scope registry used for `$ns::name` lookups.
func (c *Context) Scopes() *ScopeRegistry { return c.scopes }

// ScopedPush is a deterministic, RAII-style holder: it pushes scope and a
// fresh match-scope frame, and its Close method restores the previous
// ones unconditionally, including on error-propagation exit paths (spec
// §4.6 "RAII-style scoped holders push/pop scopes, match scopes, and
// output streams"; §5 "guaranteed to unwind on any exit path").
type ScopedPush struct {
	ctx        *Context
	prevScope  *Scope
	prevMatch  *MatchScope
}

// PushScope enters newScope and a nested match frame, returning a holder
// whose Close restores the previous scope/match frame.
func (c *Context) PushScope(newScope *Scope) *ScopedPush {
	h := &ScopedPush{ctx: c, prevScope: c.scope, prevMatch: c.match}
	c.scope = newScope
	c.match = NewMatchScope(c.match)
	return h
}

// Close restores the scope/match frame active before the corresponding
// PushScope call.
func (h *ScopedPush) Close() {
	h.ctx.scope = h.prevScope
	h.ctx.match = h.prevMatch
}

// PushStream begins a nested EPP output buffer; PopStream removes it and
// returns its accumulated contents to the caller.
func (c *Context) PushStream() *streamFrame {
	f := &streamFrame{}
	c.streams = append(c.streams, f)
	return f
}

// PopStream removes the innermost stream frame and returns its contents.
func (c *Context) PopStream() string {
	n := len(c.streams)
	if n == 0 {
		return ""
	}
	f := c.streams[n-1]
	c.streams = c.streams[:n-1]
	return string(f.buf)
}

// WriteStream appends text to the innermost EPP output stream, if any.
func (c *Context) WriteStream(text string) {
	if n := len(c.streams); n > 0 {
		c.streams[n-1].buf = append(c.streams[n-1].buf, text...)
	}
}

// NodeScope returns the scope associated with node-definition evaluation,
// if any is active.
func (c *Context) NodeScope() *Scope { return c.nodeScope }

// SetNodeScope records the scope entered while evaluating a node
// definition's body.
func (c *Context) SetNodeScope(s *Scope) { c.nodeScope = s }

// IsClassDeclared reports whether class name has already been declared
// (spec §4.7 "re-declaration is idempotent").
func (c *Context) IsClassDeclared(name string) bool { return c.declaredClasses[name] }

// MarkClassDeclared records that class name's body has been evaluated.
func (c *Context) MarkClassDeclared(name string) { c.declaredClasses[name] = true }

// QueueOverride enqueues a resource override for later application.
func (c *Context) QueueOverride(o *PendingOverride) { c.overrides = append(c.overrides, o) }

// Overrides returns the current pending-override queue.
func (c *Context) Overrides() []*PendingOverride { return c.overrides }

// SetOverrides replaces the pending-override queue (used after a
// finalization pass drains the ones that applied).
func (c *Context) SetOverrides(os []*PendingOverride) { c.overrides = os }

// QueueDefinedType enqueues a defined-type declaration for the
// finalization loop.
func (c *Context) QueueDefinedType(d *DeclaredDefinedType) { c.definedTypes = append(c.definedTypes, d) }

// DefinedTypeQueue returns the current declared-defined-type queue.
func (c *Context) DefinedTypeQueue() []*DeclaredDefinedType { return c.definedTypes }

// SetDefinedTypeQueue replaces the declared-defined-type queue.
func (c *Context) SetDefinedTypeQueue(q []*DeclaredDefinedType) { c.definedTypes = q }

// AddCollector registers a collector, in creation order (spec §5
// "Collector runs are ordered by collector creation order").
func (c *Context) AddCollector(col *Collector) { c.collectors = append(c.collectors, col) }

// Collectors returns the registered collectors in creation order.
func (c *Context) Collectors() []*Collector { return c.collectors }

// QueueRelationship enqueues a relationship edge for evaluation after
// overrides are applied.
func (c *Context) QueueRelationship(r *Relationship) { c.relationships = append(c.relationships, r) }

// Relationships returns and clears the queued relationships.
func (c *Context) Relationships() []*Relationship {
	rs := c.relationships
	c.relationships = nil
	return rs
}
