// Package values implements the runtime value and type system (spec §3
// "Value", §3 "Type", §4.5 "Value & type system"): a sum type of runtime
// values plus a parallel sum type of type tags used for instance checks,
// specialization ordering, and resource/class parameter validation.
package values

import (
	"fmt"
	"regexp"
)

// Value is the common interface implemented by every runtime value variant
// (spec §3: "undef | default | integer(i64) | float(f64) | boolean |
// string(utf8) | regex | type | array | hash | variable-ref | iterator").
type Value interface {
	// Kind names the value's runtime variant, used for diagnostics and
	// dispatch-by-kind in the function dispatcher (spec §4.7).
	Kind() string
	valueNode()
}

// Undef is Puppet's "undef" literal. The zero value is usable directly.
type Undef struct{}

// Default is the `default` keyword value, used in case/selector fall-
// through and resource-defaults bodies.
type Default struct{}

// Bool is a Puppet boolean.
type Bool bool

// Int is a 64-bit signed integer value.
type Int int64

// Float is an IEEE-754 double value.
type Float float64

// Str is a UTF-8 string value.
type Str string

// Regex is a compiled regular expression value, usable both as a case/match
// operand and as a first-class value (spec §3 Value sum: "regex").
type Regex struct {
	Pattern string
	re      *regexp.Regexp
}

// NewRegex compiles pattern into a Regex value.
func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return &Regex{Pattern: pattern, re: re}, nil
}

// Regexp returns the compiled expression for matching.
func (r *Regex) Regexp() *regexp.Regexp { return r.re }

// Array is a Puppet array value: an ordered, 0-indexed sequence.
type Array struct {
	Elements []Value
}

// HashPair is one key/value entry of a Hash, in insertion order.
type HashPair struct {
	Key   Value
	Value Value
}

// Hash is a Puppet hash value: an insertion-ordered association list.
// Lookups are by value-equality (spec "equality: normalization-aware for
// strings") rather than a native Go map key, since keys may be arrays,
// hashes, or other non-comparable-in-Go values.
type Hash struct {
	Pairs []HashPair
}

// TypeValue wraps a Type as a first-class runtime value (spec Type(T)).
type TypeValue struct {
	Type Type
}

// VariableRef is an immutable handle to a shared value, as produced by
// variable lookup (spec §3: "Variable references are immutable 'handles'
// to shared values"). Mutating setters in the embedding API must reject
// these (spec §4.9).
type VariableRef struct {
	Name   string
	Target Value
}

// IteratorKind distinguishes a sequence iterator (array-like) from a
// key/value iterator (hash-like), mirroring the embedding API's
// SEQUENCE_ITERATOR / KEY_VALUE_ITERATOR value kinds (spec §6).
type IteratorKind int

const (
	SequenceIterator IteratorKind = iota
	KeyValueIterator
)

// Iterator is an immutable view onto an Array or Hash (spec §3: "iterators
// are immutable views onto arrays/hashes").
type Iterator struct {
	IterKind IteratorKind
	values   []Value // sequence items, or flattened [k0,v0,k1,v1,...] pairs
}

// NewSequenceIterator builds an iterator over an array's elements.
func NewSequenceIterator(a *Array) *Iterator {
	return &Iterator{IterKind: SequenceIterator, values: append([]Value(nil), a.Elements...)}
}

// NewKeyValueIterator builds an iterator over a hash's key/value pairs.
func NewKeyValueIterator(h *Hash) *Iterator {
	it := &Iterator{IterKind: KeyValueIterator}
	for _, p := range h.Pairs {
		it.values = append(it.values, p.Key, p.Value)
	}
	return it
}

// Each invokes fn for every item (sequence) or key/value pair, stopping
// early if fn returns false (spec §6 "Iteration callback returns truthy
// to continue, falsy to stop").
func (it *Iterator) Each(fn func(kv ...Value) bool) {
	switch it.IterKind {
	case SequenceIterator:
		for _, v := range it.values {
			if !fn(v) {
				return
			}
		}
	case KeyValueIterator:
		for i := 0; i+1 < len(it.values); i += 2 {
			if !fn(it.values[i], it.values[i+1]) {
				return
			}
		}
	}
}

func (Undef) valueNode()       {}
func (Default) valueNode()     {}
func (Bool) valueNode()        {}
func (Int) valueNode()         {}
func (Float) valueNode()       {}
func (Str) valueNode()         {}
func (*Regex) valueNode()      {}
func (*Array) valueNode()      {}
func (*Hash) valueNode()       {}
func (*TypeValue) valueNode()  {}
func (*VariableRef) valueNode() {}
func (*Iterator) valueNode()   {}

func (Undef) Kind() string        { return "Undef" }
func (Default) Kind() string      { return "Default" }
func (Bool) Kind() string         { return "Boolean" }
func (Int) Kind() string          { return "Integer" }
func (Float) Kind() string        { return "Float" }
func (Str) Kind() string          { return "String" }
func (*Regex) Kind() string       { return "Regexp" }
func (*Array) Kind() string       { return "Array" }
func (*Hash) Kind() string        { return "Hash" }
func (*TypeValue) Kind() string   { return "Type" }
func (*VariableRef) Kind() string { return "VariableRef" }
func (*Iterator) Kind() string    { return "Iterator" }

// IsTruthy implements spec §4.5 "is_truthy": undef and `false` are false,
// everything else (including 0, "", empty array/hash) is true.
func IsTruthy(v Value) bool {
	switch t := v.(type) {
	case Undef, nil:
		return false
	case Bool:
		return bool(t)
	case *VariableRef:
		return IsTruthy(t.Target)
	default:
		return true
	}
}

// IsDefault reports whether v is the `default` value, unwrapping variable
// references first.
func IsDefault(v Value) bool {
	_, ok := Deref(v).(Default)
	return ok
}

// IsUndef reports whether v is `undef`, unwrapping variable references.
func IsUndef(v Value) bool {
	switch Deref(v).(type) {
	case Undef, nil:
		return true
	}
	return false
}

// Deref unwraps a VariableRef to its underlying target, recursively. All
// other values are returned unchanged.
func Deref(v Value) Value {
	for {
		ref, ok := v.(*VariableRef)
		if !ok {
			return v
		}
		v = ref.Target
	}
}
