package embed

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestValueConstructionAndInspection(t *testing.T) {
	i := NewInt(42)
	n, ok := i.AsInt()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(n, int64(42)))
	qt.Assert(t, qt.Equals(i.Kind(), KindInteger))

	s := NewString("hello")
	str, n2, ok := s.AsString()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(str, "hello"))
	qt.Assert(t, qt.Equals(n2, 5))
}

func TestArrayPushAndGet(t *testing.T) {
	a := NewArray()
	qt.Assert(t, qt.IsNil(a.ArrayPush(NewInt(1))))
	qt.Assert(t, qt.IsNil(a.ArrayPush(NewInt(2))))
	qt.Assert(t, qt.Equals(a.Len(), 2))

	v, ok := a.ArrayGet(1)
	qt.Assert(t, qt.IsTrue(ok))
	n, _ := v.AsInt()
	qt.Assert(t, qt.Equals(n, int64(2)))
}

func TestHashSetAndGet(t *testing.T) {
	h := NewHash()
	qt.Assert(t, qt.IsNil(h.HashSet(NewString("a"), NewInt(1))))
	qt.Assert(t, qt.IsNil(h.HashSet(NewString("a"), NewInt(2))))
	qt.Assert(t, qt.Equals(h.Len(), 1))

	v, ok := h.HashGet(NewString("a"))
	qt.Assert(t, qt.IsTrue(ok))
	n, _ := v.AsInt()
	qt.Assert(t, qt.Equals(n, int64(2)))
}

func TestArrayEachStopsEarly(t *testing.T) {
	a := NewArray()
	a.ArrayPush(NewInt(1))
	a.ArrayPush(NewInt(2))
	a.ArrayPush(NewInt(3))

	var seen []int64
	err := a.Each(func(kv ...*Value) bool {
		n, _ := kv[0].AsInt()
		seen = append(seen, n)
		return n != 2
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(seen, []int64{1, 2}))
}

func TestFreeMakesValueUndef(t *testing.T) {
	v := NewInt(7)
	v.Free()
	qt.Assert(t, qt.Equals(v.Kind(), KindUndef))
}

func TestEvaluateStringReturnsValue(t *testing.T) {
	sess := CreateSession("test", "", nil)
	defer sess.Free()
	v, exc := sess.EvaluateString("site.pp", `1 + 1`)
	qt.Assert(t, qt.IsNil(exc))
	n, ok := v.AsInt()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(n, int64(2)))
}

func TestEvaluateStringReportsException(t *testing.T) {
	sess := CreateSession("test", "", nil)
	defer sess.Free()
	_, exc := sess.EvaluateString("broken.pp", `file { :`)
	qt.Assert(t, qt.IsNotNil(exc))
}

func TestDefineFunctionCallableFromManifest(t *testing.T) {
	sess := CreateSession("test", "", nil)
	defer sess.Free()
	sess.DefineFunction("double", func(ctx *CallContext, args []*Value) (*Value, error) {
		n, _ := args[0].AsInt()
		return NewInt(n * 2), nil
	})
	v, exc := sess.EvaluateString("site.pp", `double(21)`)
	qt.Assert(t, qt.IsNil(exc))
	n, ok := v.AsInt()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(n, int64(42)))
}
