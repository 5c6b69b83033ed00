package catalog

import (
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

func TestAddDuplicateRejected(t *testing.T) {
	c := New()
	r1 := NewResource("File", "x", token.Position{Line: 1})
	qt.Assert(t, qt.IsNil(c.Add(r1)))
	r2 := NewResource("file", "x", token.Position{Line: 2})
	err := c.Add(r2)
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.HasLen(c.Resources(), 1))
}

func TestAddRequiresFullyQualified(t *testing.T) {
	c := New()
	err := c.Add(NewResource("File", "", token.Position{}))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestVirtualResourceNotRealizedUntilCollected(t *testing.T) {
	c := New()
	r := NewResource("File", "x", token.Position{})
	r.Virtual = true
	qt.Assert(t, qt.IsNil(c.Add(r)))
	qt.Assert(t, qt.IsFalse(r.IsRealized()))
	c.Realize(r)
	qt.Assert(t, qt.IsTrue(r.IsRealized()))
}

func TestContainmentEdgeOnRealize(t *testing.T) {
	c := New()
	class := NewResource("Class", "foo", token.Position{})
	qt.Assert(t, qt.IsNil(c.Add(class)))
	file := NewResource("File", "x", token.Position{})
	file.Container = class
	qt.Assert(t, qt.IsNil(c.Add(file)))
	edges := c.Edges()
	qt.Assert(t, qt.HasLen(edges, 1))
	qt.Assert(t, qt.Equals(edges[0].Relation, Contains))
	qt.Assert(t, qt.Equals(edges[0].From, class))
	qt.Assert(t, qt.Equals(edges[0].To, file))
}

func TestDetectCyclesSimple(t *testing.T) {
	c := New()
	a := NewResource("Class", "a", token.Position{})
	b := NewResource("Class", "b", token.Position{})
	qt.Assert(t, qt.IsNil(c.Add(a)))
	qt.Assert(t, qt.IsNil(c.Add(b)))
	c.AddEdge(a, b, Require)
	c.AddEdge(b, a, Require)
	cycles := c.DetectCycles()
	qt.Assert(t, qt.HasLen(cycles, 1))
	qt.Assert(t, qt.HasLen(cycles[0].Cycle, 2))
}

func TestDetectCyclesNoneOnDAG(t *testing.T) {
	c := New()
	a := NewResource("Class", "a", token.Position{})
	b := NewResource("Class", "b", token.Position{})
	qt.Assert(t, qt.IsNil(c.Add(a)))
	qt.Assert(t, qt.IsNil(c.Add(b)))
	c.AddEdge(a, b, Require)
	qt.Assert(t, qt.HasLen(c.DetectCycles(), 0))
}

func TestAttrAppend(t *testing.T) {
	r := NewResource("File", "x", token.Position{})
	r.SetAttr(&Attribute{Name: "require", Op: OpAssign, Value: &values.Array{Elements: []values.Value{values.Str("a")}}})
	r.SetAttr(&Attribute{Name: "require", Op: OpAppend, Value: values.Str("b")})
	arr, ok := r.Attrs["require"].Value.(*values.Array)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(arr.Elements, 2))
	qt.Assert(t, qt.Equals[values.Value](arr.Elements[0], values.Str("a")))
	qt.Assert(t, qt.Equals[values.Value](arr.Elements[1], values.Str("b")))
	qt.Assert(t, qt.HasLen(r.AttrOrder, 1))
}

func TestAttrAssignOverwrites(t *testing.T) {
	r := NewResource("File", "x", token.Position{})
	r.SetAttr(&Attribute{Name: "ensure", Op: OpAssign, Value: values.Str("present")})
	r.SetAttr(&Attribute{Name: "ensure", Op: OpAssign, Value: values.Str("absent")})
	qt.Assert(t, qt.Equals[values.Value](r.Attrs["ensure"].Value, values.Str("absent")))
	qt.Assert(t, qt.HasLen(r.AttrOrder, 1))
}
