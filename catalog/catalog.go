// Package catalog implements the compiled configuration graph (spec §4.8
// "Catalog"): an ordered resource store with secondary indices, plus a
// directed containment/relationship graph and cycle detection.
package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// AttrOp mirrors ast.AttrOp without importing the ast package, since a
// realized resource's attributes are the evaluated result, not syntax.
type AttrOp int

const (
	OpAssign AttrOp = iota
	OpAppend
)

// Attribute is one resolved resource attribute (spec §3 "Resource":
// "(name, value, name-context, value-context)").
type Attribute struct {
	Name        string
	Value       values.Value
	Op          AttrOp
	NamePos     token.Position
	ValuePos    token.Position
}

// Relation is the label on a catalog graph edge (spec §3 "Catalog":
// "a directed graph of vertices ... labeled edges").
type Relation int

const (
	Contains Relation = iota
	Before
	Require
	Notify
	Subscribe
)

func (r Relation) String() string {
	switch r {
	case Contains:
		return "contains"
	case Before:
		return "before"
	case Require:
		return "require"
	case Notify:
		return "notify"
	case Subscribe:
		return "subscribe"
	default:
		return "unknown"
	}
}

// Resource is a realized or virtual resource declaration (spec §3
// "Resource"). Virtual resources hold no graph vertex until realized.
type Resource struct {
	TypeName string
	Title    string
	Exported bool
	Virtual  bool
	Tags     []string

	Container *Resource
	Attrs     map[string]*Attribute
	AttrOrder []string // insertion order, for deterministic enumeration

	vertex   int // graph vertex id once realized; -1 if not realized
	declPos  token.Position
}

// Key returns the resource's fully-qualified (type,title) identity used
// for uniqueness and lookup (spec §3 invariants: "Resource titles are
// unique per fully-qualified (type, title)").
func (r *Resource) Key() string {
	return strings.ToLower(r.TypeName) + "[" + r.Title + "]"
}

// Ref renders the resource the way `Type['title']` string references do.
func (r *Resource) Ref() string {
	return capitalizeSegments(r.TypeName) + "['" + r.Title + "']"
}

func capitalizeSegments(name string) string {
	parts := strings.Split(name, "::")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "::")
}

// IsRealized reports whether this resource owns a graph vertex.
func (r *Resource) IsRealized() bool { return r.vertex >= 0 }

// SetAttr assigns or appends an attribute value (spec §3 "Attribute
// operator": assignment or append).
func (r *Resource) SetAttr(a *Attribute) {
	if existing, ok := r.Attrs[a.Name]; ok && a.Op == OpAppend {
		merged := appendAttrValue(existing.Value, a.Value)
		existing.Value = merged
		existing.ValuePos = a.ValuePos
		return
	}
	if _, ok := r.Attrs[a.Name]; !ok {
		r.AttrOrder = append(r.AttrOrder, a.Name)
	}
	cp := *a
	r.Attrs[a.Name] = &cp
}

func appendAttrValue(existing, added values.Value) values.Value {
	toArray := func(v values.Value) []values.Value {
		if arr, ok := values.Deref(v).(*values.Array); ok {
			return append([]values.Value{}, arr.Elements...)
		}
		return []values.Value{v}
	}
	out := append(toArray(existing), toArray(added)...)
	return &values.Array{Elements: out}
}

// edgeKey identifies a (source, target, relation) triple for idempotent
// edge insertion (spec §4.8 "Adding an edge is idempotent").
type edgeKey struct {
	from, to int
	rel      Relation
}

// Edge is one labeled graph edge, exposed for serialization collaborators
// (spec §6 "Catalog output": "edges").
type Edge struct {
	From, To *Resource
	Relation Relation
}

// Catalog stores resources in insertion order with secondary indices, and
// the relationship graph over realized resources (spec §3 "Catalog").
type Catalog struct {
	// Version identifies this catalog uniquely, matching the output
	// document's "version" field (spec §6 "a JSON document with fields
	// name, version, ...").
	Version string

	resources []*Resource
	byKey     map[string]*Resource
	byType    map[string][]*Resource

	vertices []*Resource
	edgeSet  map[edgeKey]bool
	edges    []Edge
	outAdj   map[int][]int // vertex -> adjacent vertex ids, any relation
}

// New creates an empty catalog with a fresh version id.
func New() *Catalog {
	return &Catalog{
		Version: uuid.NewString(),
		byKey:   map[string]*Resource{},
		byType:  map[string][]*Resource{},
		edgeSet: map[edgeKey]bool{},
		outAdj:  map[int][]int{},
	}
}

// NewResource constructs a Resource ready for insertion. typeName and
// title must both be non-empty for the resource to be "fully qualified"
// (spec §3 invariants).
func NewResource(typeName, title string, pos token.Position) *Resource {
	return &Resource{
		TypeName: typeName,
		Title:    title,
		Attrs:    map[string]*Attribute{},
		vertex:   -1,
		declPos:  pos,
	}
}

// DeclPos returns the source position where the resource was declared.
func (r *Resource) DeclPos() token.Position { return r.declPos }

// Add inserts resource into the catalog (spec §3 invariants: "A resource
// must be fully qualified ... to be inserted"; §8 "Catalog insertion is
// idempotent-by-key: adding an existing (type,title) returns failure and
// leaves the catalog unchanged"). Stages cannot have a container (spec §3
// invariants).
func (c *Catalog) Add(r *Resource) error {
	if r.TypeName == "" || r.Title == "" {
		return fmt.Errorf("resource must have both a type and a title to be inserted")
	}
	if strings.EqualFold(r.TypeName, "stage") && r.Container != nil {
		return fmt.Errorf("stage %q cannot have a container", r.Title)
	}
	key := r.Key()
	if _, dup := c.byKey[key]; dup {
		return fmt.Errorf("duplicate declaration: %s is already in the catalog", r.Ref())
	}
	c.byKey[key] = r
	c.byType[strings.ToLower(r.TypeName)] = append(c.byType[strings.ToLower(r.TypeName)], r)
	c.resources = append(c.resources, r)
	if !r.Virtual {
		c.realize(r)
	}
	return nil
}

// Realize adds r's graph vertex and containment edge if it was inserted
// virtual and is now being collected/realized (spec §3 invariants:
// "Realizing one adds the vertex and the containment edge atomically").
func (c *Catalog) Realize(r *Resource) {
	if r.IsRealized() {
		return
	}
	r.Virtual = false
	c.realize(r)
}

func (c *Catalog) realize(r *Resource) {
	r.vertex = len(c.vertices)
	c.vertices = append(c.vertices, r)
	if r.Container != nil && !strings.EqualFold(r.TypeName, "stage") {
		c.addEdge(r.Container, r, Contains)
	}
}

// Lookup finds a resource by (typeName, title), unqualified of exported/
// virtual state.
func (c *Catalog) Lookup(typeName, title string) (*Resource, bool) {
	r, ok := c.byKey[strings.ToLower(typeName)+"[" + title + "]"]
	return r, ok
}

// ByType returns every resource (realized or virtual) declared with the
// given type name, in insertion order.
func (c *Catalog) ByType(typeName string) []*Resource {
	return c.byType[strings.ToLower(typeName)]
}

// Resources returns every resource in insertion order (spec §5 "Catalog
// insertion order is preserved; enumeration is stable").
func (c *Catalog) Resources() []*Resource { return c.resources }

// AddEdge inserts a labeled edge from -> to, in uniform "from applies
// before to" order (spec §4.8): callers resolve before/notify/require/
// subscribe direction to this convention before calling, so before/
// notify/require/subscribe metaparameters and `->`/`~>`/`<-`/`<~`
// operators all funnel into the same edge orientation regardless of
// which side of the declaration named which resource. Both endpoints
// must already be realized.
func (c *Catalog) AddEdge(from, to *Resource, rel Relation) {
	c.addEdge(from, to, rel)
}

func (c *Catalog) addEdge(from, to *Resource, rel Relation) {
	if !from.IsRealized() || !to.IsRealized() {
		return
	}
	key := edgeKey{from: from.vertex, to: to.vertex, rel: rel}
	if c.edgeSet[key] {
		return
	}
	c.edgeSet[key] = true
	c.edges = append(c.edges, Edge{From: from, To: to, Relation: rel})
	c.outAdj[from.vertex] = append(c.outAdj[from.vertex], to.vertex)
}

// Edges returns every edge in insertion order.
func (c *Catalog) Edges() []Edge { return c.edges }
