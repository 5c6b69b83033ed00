// Package embed implements the C-ABI-shaped embedding surface (spec §4.9
// "Embedding API", §6 "Embedding C ABI surface"): session create/free,
// host function definition, file evaluation, value construction/
// inspection/mutation, array/hash manipulation, iteration with a
// callback, and yield-to-block inside a function callback.
//
// The package mirrors the C ABI's contracts in idiomatic Go rather than
// exposing actual `//export`ed C symbols (cgo has no place in a library
// meant to be linked into other Go programs); a thin cgo shim translating
// these calls to char*/struct-pointer signatures is a separate, later
// concern left to whichever host links this package in over a real C
// boundary, the way cuelang.org/go's own public cue package wraps
// internal/core/runtime without itself being the cgo boundary.
package embed

import (
	"fmt"

	"github.com/puppetlabs/puppetlang/internal/values"
)

// Kind mirrors the embedding API's value-kind enumeration (spec §6:
// "UNDEF, DEFAULT, INTEGER, FLOAT, BOOLEAN, STRING, REGEXP, TYPE, ARRAY,
// HASH, SEQUENCE_ITERATOR, KEY_VALUE_ITERATOR").
type Kind int

const (
	KindUndef Kind = iota
	KindDefault
	KindInteger
	KindFloat
	KindBoolean
	KindString
	KindRegexp
	KindType
	KindArray
	KindHash
	KindSequenceIterator
	KindKeyValueIterator
)

func (k Kind) String() string {
	switch k {
	case KindUndef:
		return "UNDEF"
	case KindDefault:
		return "DEFAULT"
	case KindInteger:
		return "INTEGER"
	case KindFloat:
		return "FLOAT"
	case KindBoolean:
		return "BOOLEAN"
	case KindString:
		return "STRING"
	case KindRegexp:
		return "REGEXP"
	case KindType:
		return "TYPE"
	case KindArray:
		return "ARRAY"
	case KindHash:
		return "HASH"
	case KindSequenceIterator:
		return "SEQUENCE_ITERATOR"
	case KindKeyValueIterator:
		return "KEY_VALUE_ITERATOR"
	default:
		return "UNKNOWN"
	}
}

func kindOf(v values.Value) Kind {
	switch values.Deref(v).(type) {
	case values.Undef:
		return KindUndef
	case values.Default:
		return KindDefault
	case values.Int:
		return KindInteger
	case values.Float:
		return KindFloat
	case values.Bool:
		return KindBoolean
	case values.Str:
		return KindString
	case *values.Regex:
		return KindRegexp
	case *values.TypeValue:
		return KindType
	case *values.Array:
		return KindArray
	case *values.Hash:
		return KindHash
	case *values.Iterator:
		// an Iterator's two flavors (spec §3 "Iterator") map to the two
		// embedding-API iterator kinds by what it was built over.
		it := values.Deref(v).(*values.Iterator)
		if it.IterKind == values.KeyValueIterator {
			return KindKeyValueIterator
		}
		return KindSequenceIterator
	default:
		return KindUndef
	}
}

// Value is an owned opaque handle to a core value (spec §4.9 "Values are
// owned opaque handles; cloning is explicit"). The zero Value is not
// valid; use the New* constructors or a Session's inspection results.
type Value struct {
	v     values.Value
	freed bool
}

func wrap(v values.Value) *Value { return &Value{v: v} }

// Kind reports the value's kind tag.
func (h *Value) Kind() Kind {
	if h == nil || h.freed {
		return KindUndef
	}
	return kindOf(h.v)
}

// Free releases the handle. Using a Value after Free is a programming
// error the same way using a freed C pointer is (spec §4.9 "Every
// allocation returned to the caller has a matching free").
func (h *Value) Free() {
	if h == nil {
		return
	}
	h.freed = true
	h.v = nil
}

// Clone returns an independent handle to the same underlying value (spec
// §4.9 "cloning is explicit"). Values are otherwise immutable once built,
// except via the array/hash mutation calls below.
func (h *Value) Clone() *Value {
	if h == nil || h.freed {
		return nil
	}
	return wrap(h.v)
}

// errImmutable is returned by a mutating call against a variable
// reference or iterator handle (spec §4.9 "Mutating setters fail on
// 'immutable' values (variable refs, iterators)").
var errImmutable = fmt.Errorf("value is immutable")

func (h *Value) checkMutable() error {
	if h == nil || h.freed {
		return fmt.Errorf("value handle is freed")
	}
	switch h.v.(type) {
	case *values.VariableRef, *values.Iterator:
		return errImmutable
	}
	return nil
}

// ---------------------------------------------------------------------
// Construction.

func NewUndef() *Value          { return wrap(values.Undef{}) }
func NewDefault() *Value        { return wrap(values.Default{}) }
func NewInt(n int64) *Value     { return wrap(values.Int(n)) }
func NewFloat(f float64) *Value { return wrap(values.Float(f)) }
func NewBool(b bool) *Value     { return wrap(values.Bool(b)) }
func NewString(s string) *Value { return wrap(values.Str(s)) }

// NewRegexp compiles pattern and returns a REGEXP value, or an error if
// the pattern is invalid.
func NewRegexp(pattern string) (*Value, error) {
	re, err := values.NewRegex(pattern)
	if err != nil {
		return nil, err
	}
	return wrap(re), nil
}

// NewArray returns an empty ARRAY value.
func NewArray() *Value { return wrap(&values.Array{}) }

// NewHash returns an empty HASH value.
func NewHash() *Value { return wrap(&values.Hash{}) }

// ---------------------------------------------------------------------
// Inspection.

// AsInt returns the underlying integer, or ok=false if h is not INTEGER.
func (h *Value) AsInt() (n int64, ok bool) {
	i, ok := values.Deref(h.v).(values.Int)
	return int64(i), ok
}

// AsFloat returns the underlying float, or ok=false if h is not FLOAT.
func (h *Value) AsFloat() (f float64, ok bool) {
	v, ok := values.Deref(h.v).(values.Float)
	return float64(v), ok
}

// AsBool returns the underlying boolean, or ok=false if h is not BOOLEAN.
func (h *Value) AsBool() (b bool, ok bool) {
	v, ok := values.Deref(h.v).(values.Bool)
	return bool(v), ok
}

// AsString returns the underlying UTF-8 text and its byte length (spec §6
// "All strings across the boundary are UTF-8 with an explicit byte
// length"), or ok=false if h is not STRING.
func (h *Value) AsString() (s string, byteLen int, ok bool) {
	v, ok := values.Deref(h.v).(values.Str)
	if !ok {
		return "", 0, false
	}
	return string(v), len(v), true
}

// AsRegexpPattern returns the underlying pattern text, or ok=false if h
// is not REGEXP.
func (h *Value) AsRegexpPattern() (pattern string, ok bool) {
	re, ok := values.Deref(h.v).(*values.Regex)
	if !ok {
		return "", false
	}
	return re.Regexp().String(), true
}

// Len returns the element/pair count of an ARRAY or HASH value, or -1 for
// any other kind.
func (h *Value) Len() int {
	switch t := values.Deref(h.v).(type) {
	case *values.Array:
		return len(t.Elements)
	case *values.Hash:
		return len(t.Pairs)
	default:
		return -1
	}
}

// ArrayGet returns the element at i, or ok=false if h is not ARRAY or i
// is out of range.
func (h *Value) ArrayGet(i int) (*Value, bool) {
	arr, ok := values.Deref(h.v).(*values.Array)
	if !ok || i < 0 || i >= len(arr.Elements) {
		return nil, false
	}
	return wrap(arr.Elements[i]), true
}

// ArrayPush appends elem's value to h (spec §4.9 "array ... manipulation").
func (h *Value) ArrayPush(elem *Value) error {
	if err := h.checkMutable(); err != nil {
		return err
	}
	arr, ok := values.Deref(h.v).(*values.Array)
	if !ok {
		return fmt.Errorf("ArrayPush requires an ARRAY value, got %s", h.Kind())
	}
	arr.Elements = append(arr.Elements, elem.v)
	return nil
}

// ArraySet replaces the element at i in place.
func (h *Value) ArraySet(i int, elem *Value) error {
	if err := h.checkMutable(); err != nil {
		return err
	}
	arr, ok := values.Deref(h.v).(*values.Array)
	if !ok {
		return fmt.Errorf("ArraySet requires an ARRAY value, got %s", h.Kind())
	}
	if i < 0 || i >= len(arr.Elements) {
		return fmt.Errorf("ArraySet index %d out of range", i)
	}
	arr.Elements[i] = elem.v
	return nil
}

// HashGet looks up key (by value equality, spec §3 "Hash") in h, or
// ok=false if h is not HASH or key is absent.
func (h *Value) HashGet(key *Value) (*Value, bool) {
	hash, ok := values.Deref(h.v).(*values.Hash)
	if !ok {
		return nil, false
	}
	for _, p := range hash.Pairs {
		if values.Equal(p.Key, key.v) {
			return wrap(p.Value), true
		}
	}
	return nil, false
}

// HashSet sets key => val in h, replacing any existing pair with an
// equal key (spec §4.9 "hash manipulation").
func (h *Value) HashSet(key, val *Value) error {
	if err := h.checkMutable(); err != nil {
		return err
	}
	hash, ok := values.Deref(h.v).(*values.Hash)
	if !ok {
		return fmt.Errorf("HashSet requires a HASH value, got %s", h.Kind())
	}
	for i, p := range hash.Pairs {
		if values.Equal(p.Key, key.v) {
			hash.Pairs[i].Value = val.v
			return nil
		}
	}
	hash.Pairs = append(hash.Pairs, values.HashPair{Key: key.v, Value: val.v})
	return nil
}

// Each iterates h (an ARRAY, HASH, or either iterator kind) calling fn
// with the per-step handle(s): one value for an ARRAY/SEQUENCE_ITERATOR,
// (key, value) for a HASH/KEY_VALUE_ITERATOR (spec §4.9 "iteration with
// callback"; spec §6 "Iteration callback returns truthy to continue,
// falsy to stop").
func (h *Value) Each(fn func(kv ...*Value) bool) error {
	it, err := toIterator(h.v)
	if err != nil {
		return err
	}
	it.Each(func(kv ...values.Value) bool {
		wrapped := make([]*Value, len(kv))
		for i, v := range kv {
			wrapped[i] = wrap(v)
		}
		return fn(wrapped...)
	})
	return nil
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
		return nil, fmt.Errorf("expected an ARRAY, HASH, or iterator value, got %s", kindOf(v))
	}
}
