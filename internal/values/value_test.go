package values

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestIsTruthy(t *testing.T) {
	qt.Assert(t, qt.IsFalse(IsTruthy(Undef{})))
	qt.Assert(t, qt.IsFalse(IsTruthy(Bool(false))))
	qt.Assert(t, qt.IsTrue(IsTruthy(Bool(true))))
	qt.Assert(t, qt.IsTrue(IsTruthy(Int(0))))
	qt.Assert(t, qt.IsTrue(IsTruthy(Str(""))))
	qt.Assert(t, qt.IsTrue(IsTruthy(Default{})))
}

func TestDerefVariableRef(t *testing.T) {
	ref := &VariableRef{Name: "x", Target: Int(3)}
	qt.Assert(t, qt.Equals(Deref(ref), Value(Int(3))))
	qt.Assert(t, qt.IsTrue(IsTruthy(ref)))
}

func TestArrayAccessNegativeIndex(t *testing.T) {
	a := &Array{Elements: []Value{Int(1), Int(2), Int(3)}}
	qt.Assert(t, qt.Equals(ArrayAccess(a, -1, 0, false), Value(Int(3))))
	qt.Assert(t, qt.DeepEquals(ArrayAccess(a, -100, 0, false), Value(Undef{})))
}

func TestStringAccessRange(t *testing.T) {
	qt.Assert(t, qt.Equals(StringAccess("hello", 1, 3, true), Str("ell")))
	qt.Assert(t, qt.Equals(StringAccess("hello", -3, -1, true), Str("llo")))
	qt.Assert(t, qt.Equals(StringAccess("hello", 10, 2, true), Str("")))
}

func TestHashAccessMultipleKeys(t *testing.T) {
	h := &Hash{Pairs: []HashPair{
		{Key: Str("a"), Value: Int(1)},
		{Key: Str("b"), Value: Int(2)},
	}}
	got := HashAccess(h, []Value{Str("a"), Str("missing"), Str("b")})
	arr, ok := got.(*Array)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(arr.Elements, []Value{Int(1), Int(2)}))
}

func TestEqualStringNormalization(t *testing.T) {
	// "café" with a combining acute accent should equal the precomposed form.
	decomposed := Str("café")
	precomposed := Str("café")
	qt.Assert(t, qt.IsTrue(Equal(decomposed, precomposed)))
}

func TestGetTypeIsInstance(t *testing.T) {
	vals := []Value{
		Undef{}, Default{}, Bool(true), Int(1), Float(1.5), Str("x"),
		&Array{Elements: []Value{Int(1), Int(2)}},
		&Hash{Pairs: []HashPair{{Key: Str("k"), Value: Int(1)}}},
	}
	for _, v := range vals {
		ty := GetType(v)
		qt.Assert(t, qt.IsTrue(ty.IsInstance(v)), qt.Commentf("value %v not instance of %s", v, ty.Name()))
	}
}

func TestBuildTypeArrayBounded(t *testing.T) {
	ty, err := BuildType("Array", []Value{&TypeValue{Type: IntegerType{}}, Int(1), Int(10)})
	qt.Assert(t, qt.IsNil(err))
	at, ok := ty.(ArrayType)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(at.From, 1))
	qt.Assert(t, qt.Equals(at.To, 10))
	qt.Assert(t, qt.IsFalse(at.IsInstance(&Array{})))
	qt.Assert(t, qt.IsTrue(at.IsInstance(&Array{Elements: []Value{Int(1)}})))
}

func TestIntegerSpecialization(t *testing.T) {
	narrow := IntegerType{From: 1, To: 10, Bounded: true}
	wide := IntegerType{From: 0, To: 100, Bounded: true}
	qt.Assert(t, qt.IsTrue(narrow.IsSpecializationOf(wide)))
	qt.Assert(t, qt.IsFalse(wide.IsSpecializationOf(narrow)))
}
