package values

import (
	"fmt"
	"strings"
)

// Type is the common interface implemented by every runtime type tag
// (spec §3 "Type", §4.5 "Type contract"). Each variant implements Name,
// IsInstance, and IsSpecializationOf, used respectively for printing,
// membership tests, and the ordering induced by specialization that
// comparison operators on types rely on.
type Type interface {
	// Name renders the type the way it would be written in source,
	// e.g. "Array[Integer, 1, 10]".
	Name() string
	// IsInstance reports whether v is a member of this type.
	IsInstance(v Value) bool
	// IsSpecializationOf reports whether this type is equal to or more
	// specific than other (every instance of this type is an instance of
	// other).
	IsSpecializationOf(other Type) bool
	typeNode()
}

// ---------------------------------------------------------------------
// Leaf / abstract types

type AnyType struct{}
type UndefType struct{}
type DefaultType struct{}
type BooleanType struct{}
type ScalarType struct{}
type NumericType struct{}
type DataType struct{}
type CollectionType struct{}
type CatalogEntryType struct{}

func (AnyType) Name() string     { return "Any" }
func (UndefType) Name() string   { return "Undef" }
func (DefaultType) Name() string { return "Default" }
func (BooleanType) Name() string { return "Boolean" }
func (ScalarType) Name() string  { return "Scalar" }
func (NumericType) Name() string { return "Numeric" }
func (DataType) Name() string    { return "Data" }
func (CollectionType) Name() string    { return "Collection" }
func (CatalogEntryType) Name() string  { return "CatalogEntry" }

func (AnyType) IsInstance(Value) bool { return true }
func (UndefType) IsInstance(v Value) bool {
	_, ok := Deref(v).(Undef)
	return ok
}
func (DefaultType) IsInstance(v Value) bool { return IsDefault(v) }
func (BooleanType) IsInstance(v Value) bool {
	_, ok := Deref(v).(Bool)
	return ok
}
func (ScalarType) IsInstance(v Value) bool {
	switch Deref(v).(type) {
	case Int, Float, Str, Bool, *Regex:
		return true
	}
	return false
}
func (NumericType) IsInstance(v Value) bool {
	switch Deref(v).(type) {
	case Int, Float:
		return true
	}
	return false
}
func (DataType) IsInstance(v Value) bool {
	switch d := Deref(v).(type) {
	case Undef:
		return true
	case *Array:
		for _, e := range d.Elements {
			if !(DataType{}).IsInstance(e) {
				return false
			}
		}
		return true
	case *Hash:
		for _, p := range d.Pairs {
			if !(DataType{}).IsInstance(p.Value) {
				return false
			}
		}
		return true
	default:
		return (ScalarType{}).IsInstance(v)
	}
}
func (CollectionType) IsInstance(v Value) bool {
	switch Deref(v).(type) {
	case *Array, *Hash:
		return true
	}
	return false
}
func (CatalogEntryType) IsInstance(v Value) bool {
	// Resource/Class references are represented as strings naming the
	// fully-qualified reference; any resource or class type specializes
	// this, per spec's catalog_entry supertype.
	return (ResourceType{}).IsInstance(v) || (ClassType{}).IsInstance(v)
}

var abstractOrder = map[string][]string{
	// name -> names it directly specializes (immediate supertypes)
	"Undef":        {"Any"},
	"Default":      {"Any"},
	"Boolean":      {"Scalar", "Data", "Any"},
	"Scalar":       {"Any"},
	"Numeric":      {"Scalar", "Data", "Any"},
	"Data":         {"Any"},
	"Collection":   {"Any"},
	"CatalogEntry": {"Any"},
}

func specializesAbstract(name string, other Type) bool {
	if name == other.Name() {
		return true
	}
	if other.Name() == "Any" {
		return true
	}
	seen := map[string]bool{}
	var walk func(string) bool
	walk = func(n string) bool {
		if seen[n] {
			return false
		}
		seen[n] = true
		if n == other.Name() {
			return true
		}
		for _, sup := range abstractOrder[n] {
			if walk(sup) {
				return true
			}
		}
		return false
	}
	return walk(name)
}

func (t AnyType) IsSpecializationOf(other Type) bool { return other.Name() == "Any" }
func (t UndefType) IsSpecializationOf(other Type) bool { return specializesAbstract("Undef", other) }
func (t DefaultType) IsSpecializationOf(other Type) bool { return specializesAbstract("Default", other) }
func (t BooleanType) IsSpecializationOf(other Type) bool { return specializesAbstract("Boolean", other) }
func (t ScalarType) IsSpecializationOf(other Type) bool  { return specializesAbstract("Scalar", other) }
func (t NumericType) IsSpecializationOf(other Type) bool { return specializesAbstract("Numeric", other) }
func (t DataType) IsSpecializationOf(other Type) bool    { return specializesAbstract("Data", other) }
func (t CollectionType) IsSpecializationOf(other Type) bool {
	return specializesAbstract("Collection", other)
}
func (t CatalogEntryType) IsSpecializationOf(other Type) bool {
	return specializesAbstract("CatalogEntry", other)
}

func (AnyType) typeNode()          {}
func (UndefType) typeNode()        {}
func (DefaultType) typeNode()      {}
func (BooleanType) typeNode()      {}
func (ScalarType) typeNode()       {}
func (NumericType) typeNode()      {}
func (DataType) typeNode()         {}
func (CollectionType) typeNode()   {}
func (CatalogEntryType) typeNode() {}

// ---------------------------------------------------------------------
// Ranged numeric/string types

// IntegerType is `Integer[from,to]`; from/to are inclusive bounds, with
// math.MinInt64/math.MaxInt64 meaning "unbounded" on that side.
type IntegerType struct {
	From, To int64
	Bounded  bool
}

func (t IntegerType) Name() string {
	if !t.Bounded {
		return "Integer"
	}
	return fmt.Sprintf("Integer[%d, %d]", t.From, t.To)
}
func (t IntegerType) IsInstance(v Value) bool {
	i, ok := Deref(v).(Int)
	if !ok {
		return false
	}
	if !t.Bounded {
		return true
	}
	return int64(i) >= t.From && int64(i) <= t.To
}
func (t IntegerType) IsSpecializationOf(other Type) bool {
	switch o := other.(type) {
	case IntegerType:
		if !o.Bounded {
			return true
		}
		return t.Bounded && t.From >= o.From && t.To <= o.To
	default:
		return specializesAbstract("Numeric", other) || other.Name() == "Any"
	}
}
func (IntegerType) typeNode() {}

// FloatType is `Float[from,to]`.
type FloatType struct {
	From, To float64
	Bounded  bool
}

func (t FloatType) Name() string {
	if !t.Bounded {
		return "Float"
	}
	return fmt.Sprintf("Float[%g, %g]", t.From, t.To)
}
func (t FloatType) IsInstance(v Value) bool {
	f, ok := Deref(v).(Float)
	if !ok {
		return false
	}
	if !t.Bounded {
		return true
	}
	return float64(f) >= t.From && float64(f) <= t.To
}
func (t FloatType) IsSpecializationOf(other Type) bool {
	switch o := other.(type) {
	case FloatType:
		if !o.Bounded {
			return true
		}
		return t.Bounded && t.From >= o.From && t.To <= o.To
	default:
		return specializesAbstract("Numeric", other) || other.Name() == "Any"
	}
}
func (FloatType) typeNode() {}

// StringType is `String[from,to]`, constraining the string's grapheme
// length (spec §4.5 "String[a,b]").
type StringType struct {
	From, To int
	Bounded  bool
}

func (t StringType) Name() string {
	if !t.Bounded {
		return "String"
	}
	return fmt.Sprintf("String[%d, %d]", t.From, t.To)
}
func (t StringType) IsInstance(v Value) bool {
	s, ok := Deref(v).(Str)
	if !ok {
		return false
	}
	if !t.Bounded {
		return true
	}
	n := GraphemeLen(string(s))
	return n >= t.From && n <= t.To
}
func (t StringType) IsSpecializationOf(other Type) bool {
	switch o := other.(type) {
	case StringType:
		if !o.Bounded {
			return true
		}
		return t.Bounded && t.From >= o.From && t.To <= o.To
	default:
		return specializesAbstract("Scalar", other) || specializesAbstract("Data", other) || other.Name() == "Any"
	}
}
func (StringType) typeNode() {}

// RegexpType is `Regexp[pattern]`; an unset Pattern matches any regex value.
type RegexpType struct {
	Pattern string
	HasPat  bool
}

func (t RegexpType) Name() string {
	if !t.HasPat {
		return "Regexp"
	}
	return fmt.Sprintf("Regexp[%q]", t.Pattern)
}
func (t RegexpType) IsInstance(v Value) bool {
	r, ok := Deref(v).(*Regex)
	if !ok {
		return false
	}
	return !t.HasPat || r.Pattern == t.Pattern
}
func (t RegexpType) IsSpecializationOf(other Type) bool {
	if o, ok := other.(RegexpType); ok {
		return !o.HasPat || (t.HasPat && t.Pattern == o.Pattern)
	}
	return other.Name() == "Any" || specializesAbstract("Scalar", other)
}
func (RegexpType) typeNode() {}

// PatternType is `Pattern[p1, p2, ...]`: a string matching any listed regex.
type PatternType struct {
	Patterns []*Regex
}

func (t PatternType) Name() string {
	parts := make([]string, len(t.Patterns))
	for i, p := range t.Patterns {
		parts[i] = fmt.Sprintf("%q", p.Pattern)
	}
	return fmt.Sprintf("Pattern[%s]", strings.Join(parts, ", "))
}
func (t PatternType) IsInstance(v Value) bool {
	s, ok := Deref(v).(Str)
	if !ok {
		return false
	}
	for _, p := range t.Patterns {
		if p.Regexp().MatchString(string(s)) {
			return true
		}
	}
	return false
}
func (t PatternType) IsSpecializationOf(other Type) bool {
	return other.Name() == "Any" || specializesAbstract("Scalar", other) || other.Name() == "String"
}
func (PatternType) typeNode() {}

// EnumType is `Enum[s1, s2, ...]`.
type EnumType struct {
	Values []string
}

func (t EnumType) Name() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("Enum[%s]", strings.Join(parts, ", "))
}
func (t EnumType) IsInstance(v Value) bool {
	s, ok := Deref(v).(Str)
	if !ok {
		return false
	}
	for _, e := range t.Values {
		if string(s) == e {
			return true
		}
	}
	return false
}
func (t EnumType) IsSpecializationOf(other Type) bool {
	if o, ok := other.(EnumType); ok {
		for _, v := range t.Values {
			if !contains(o.Values, v) {
				return false
			}
		}
		return true
	}
	return other.Name() == "Any" || specializesAbstract("Scalar", other) || other.Name() == "String"
}
func (EnumType) typeNode() {}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------
// Collections

// ArrayType is `Array[T, from, to]`.
type ArrayType struct {
	Element    Type
	From, To   int
	Bounded    bool
}

func (t ArrayType) Name() string {
	elem := "Any"
	if t.Element != nil {
		elem = t.Element.Name()
	}
	if !t.Bounded {
		return fmt.Sprintf("Array[%s]", elem)
	}
	return fmt.Sprintf("Array[%s, %d, %d]", elem, t.From, t.To)
}
func (t ArrayType) IsInstance(v Value) bool {
	a, ok := Deref(v).(*Array)
	if !ok {
		return false
	}
	if t.Bounded && (len(a.Elements) < t.From || len(a.Elements) > t.To) {
		return false
	}
	if t.Element == nil {
		return true
	}
	for _, e := range a.Elements {
		if !t.Element.IsInstance(e) {
			return false
		}
	}
	return true
}
func (t ArrayType) IsSpecializationOf(other Type) bool {
	if o, ok := other.(ArrayType); ok {
		if o.Element != nil && (t.Element == nil || !t.Element.IsSpecializationOf(o.Element)) {
			return false
		}
		if o.Bounded {
			return t.Bounded && t.From >= o.From && t.To <= o.To
		}
		return true
	}
	return other.Name() == "Any" || specializesAbstract("Collection", other) || specializesAbstract("Data", other)
}
func (ArrayType) typeNode() {}

// HashType is `Hash[K, V, from, to]`.
type HashType struct {
	Key, Elem Type
	From, To  int
	Bounded   bool
}

func (t HashType) Name() string {
	k, e := "Any", "Any"
	if t.Key != nil {
		k = t.Key.Name()
	}
	if t.Elem != nil {
		e = t.Elem.Name()
	}
	if !t.Bounded {
		return fmt.Sprintf("Hash[%s, %s]", k, e)
	}
	return fmt.Sprintf("Hash[%s, %s, %d, %d]", k, e, t.From, t.To)
}
func (t HashType) IsInstance(v Value) bool {
	h, ok := Deref(v).(*Hash)
	if !ok {
		return false
	}
	if t.Bounded && (len(h.Pairs) < t.From || len(h.Pairs) > t.To) {
		return false
	}
	for _, p := range h.Pairs {
		if t.Key != nil && !t.Key.IsInstance(p.Key) {
			return false
		}
		if t.Elem != nil && !t.Elem.IsInstance(p.Value) {
			return false
		}
	}
	return true
}
func (t HashType) IsSpecializationOf(other Type) bool {
	if _, ok := other.(HashType); ok {
		return true // conservative: treat same-shape hashes as comparable
	}
	return other.Name() == "Any" || specializesAbstract("Collection", other) || specializesAbstract("Data", other)
}
func (HashType) typeNode() {}

// TupleType is `Tuple[T1, T2, ..., from, to]`.
type TupleType struct {
	Elements []Type
	From, To int
	Bounded  bool
}

func (t TupleType) Name() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.Name()
	}
	s := strings.Join(parts, ", ")
	if !t.Bounded {
		return fmt.Sprintf("Tuple[%s]", s)
	}
	return fmt.Sprintf("Tuple[%s, %d, %d]", s, t.From, t.To)
}
func (t TupleType) IsInstance(v Value) bool {
	a, ok := Deref(v).(*Array)
	if !ok {
		return false
	}
	min, max := len(t.Elements), len(t.Elements)
	if t.Bounded {
		min, max = t.From, t.To
	}
	if len(a.Elements) < min || len(a.Elements) > max {
		return false
	}
	for i, e := range a.Elements {
		var et Type
		if i < len(t.Elements) {
			et = t.Elements[i]
		} else if len(t.Elements) > 0 {
			et = t.Elements[len(t.Elements)-1]
		}
		if et != nil && !et.IsInstance(e) {
			return false
		}
	}
	return true
}
func (t TupleType) IsSpecializationOf(other Type) bool {
	return other.Name() == "Any" || specializesAbstract("Collection", other) || specializesAbstract("Data", other)
}
func (TupleType) typeNode() {}

// StructType is `Struct[{key => T, ...}]`.
type StructField struct {
	Key      string
	Optional bool
	Type     Type
}
type StructType struct {
	Fields []StructField
}

func (t StructType) Name() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = fmt.Sprintf("%q => %s", f.Key, f.Type.Name())
	}
	return fmt.Sprintf("Struct[{%s}]", strings.Join(parts, ", "))
}
func (t StructType) IsInstance(v Value) bool {
	h, ok := Deref(v).(*Hash)
	if !ok {
		return false
	}
	get := func(key string) (Value, bool) {
		for _, p := range h.Pairs {
			if s, ok := Deref(p.Key).(Str); ok && string(s) == key {
				return p.Value, true
			}
		}
		return nil, false
	}
	for _, f := range t.Fields {
		val, found := get(f.Key)
		if !found {
			if !f.Optional {
				return false
			}
			continue
		}
		if !f.Type.IsInstance(val) {
			return false
		}
	}
	return true
}
func (t StructType) IsSpecializationOf(other Type) bool {
	return other.Name() == "Any" || specializesAbstract("Collection", other) || specializesAbstract("Data", other)
}
func (StructType) typeNode() {}

// ---------------------------------------------------------------------
// Combinators

// OptionalType is `Optional[T]`, equivalent to `Variant[T, Undef]`.
type OptionalType struct{ Inner Type }

func (t OptionalType) Name() string { return fmt.Sprintf("Optional[%s]", t.Inner.Name()) }
func (t OptionalType) IsInstance(v Value) bool {
	return IsUndef(v) || t.Inner.IsInstance(v)
}
func (t OptionalType) IsSpecializationOf(other Type) bool {
	if o, ok := other.(OptionalType); ok {
		return t.Inner.IsSpecializationOf(o.Inner)
	}
	return other.Name() == "Any"
}
func (OptionalType) typeNode() {}

// NotUndefType is `NotUndef[T]`.
type NotUndefType struct{ Inner Type }

func (t NotUndefType) Name() string {
	if t.Inner == nil {
		return "NotUndef"
	}
	return fmt.Sprintf("NotUndef[%s]", t.Inner.Name())
}
func (t NotUndefType) IsInstance(v Value) bool {
	if IsUndef(v) {
		return false
	}
	if t.Inner == nil {
		return true
	}
	return t.Inner.IsInstance(v)
}
func (t NotUndefType) IsSpecializationOf(other Type) bool { return other.Name() == "Any" }
func (NotUndefType) typeNode()                            {}

// VariantType is `Variant[T1, T2, ...]`.
type VariantType struct{ Options []Type }

func (t VariantType) Name() string {
	parts := make([]string, len(t.Options))
	for i, o := range t.Options {
		parts[i] = o.Name()
	}
	return fmt.Sprintf("Variant[%s]", strings.Join(parts, ", "))
}
func (t VariantType) IsInstance(v Value) bool {
	for _, o := range t.Options {
		if o.IsInstance(v) {
			return true
		}
	}
	return false
}
func (t VariantType) IsSpecializationOf(other Type) bool {
	for _, o := range t.Options {
		if !o.IsSpecializationOf(other) {
			return false
		}
	}
	return true
}
func (VariantType) typeNode() {}

// CallableType is `Callable[paramTypes, min, max, block?]`.
type CallableType struct {
	Params   []Type
	Min, Max int
	Bounded  bool
	Block    Type
}

func (t CallableType) Name() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.Name()
	}
	return fmt.Sprintf("Callable[%s]", strings.Join(parts, ", "))
}
func (t CallableType) IsInstance(Value) bool { return false } // no callable-as-value in this model
func (t CallableType) IsSpecializationOf(other Type) bool { return other.Name() == "Any" }
func (CallableType) typeNode()                             {}

// TypeType is `Type[T]`: the type of a type value.
type TypeType struct{ Inner Type }

func (t TypeType) Name() string {
	if t.Inner == nil {
		return "Type"
	}
	return fmt.Sprintf("Type[%s]", t.Inner.Name())
}
func (t TypeType) IsInstance(v Value) bool {
	tv, ok := Deref(v).(*TypeValue)
	if !ok {
		return false
	}
	if t.Inner == nil {
		return true
	}
	return tv.Type.IsSpecializationOf(t.Inner)
}
func (t TypeType) IsSpecializationOf(other Type) bool { return other.Name() == "Any" }
func (TypeType) typeNode()                             {}

// RuntimeType is `Runtime[...]`, an opaque escape hatch for host-language
// values; no runtime values in this core construct one.
type RuntimeType struct{ Name_ string }

func (t RuntimeType) Name() string              { return fmt.Sprintf("Runtime[%q]", t.Name_) }
func (t RuntimeType) IsInstance(Value) bool      { return false }
func (t RuntimeType) IsSpecializationOf(o Type) bool { return o.Name() == "Any" }
func (RuntimeType) typeNode()                    {}

// ResourceType is `Resource[name?, title?]`.
type ResourceType struct {
	TypeName string
	Title    string
}

func (t ResourceType) Name() string {
	switch {
	case t.TypeName != "" && t.Title != "":
		return fmt.Sprintf("%s[%q]", capitalize(t.TypeName), t.Title)
	case t.TypeName != "":
		return fmt.Sprintf("Resource[%q]", t.TypeName)
	default:
		return "Resource"
	}
}
func (t ResourceType) IsInstance(v Value) bool {
	s, ok := Deref(v).(Str)
	if !ok {
		return false
	}
	name, title, ok := ParseResourceRef(string(s))
	if !ok {
		return false
	}
	if t.TypeName != "" && !strings.EqualFold(t.TypeName, name) {
		return false
	}
	if t.Title != "" && t.Title != title {
		return false
	}
	return true
}
func (t ResourceType) IsSpecializationOf(other Type) bool {
	if o, ok := other.(ResourceType); ok {
		if o.TypeName == "" {
			return true
		}
		if !strings.EqualFold(o.TypeName, t.TypeName) {
			return false
		}
		return o.Title == "" || o.Title == t.Title
	}
	return other.Name() == "Any" || specializesAbstract("CatalogEntry", other)
}
func (ResourceType) typeNode() {}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseResourceRef splits a "Type[title]" or "Type::Sub[title]" reference
// string into its type name and title.
func ParseResourceRef(s string) (typeName, title string, ok bool) {
	i := strings.IndexByte(s, '[')
	if i < 0 || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	return s[:i], strings.Trim(s[i+1:len(s)-1], "'\""), true
}

// ClassType is `Class[title?]`.
type ClassType struct{ Title string }

func (t ClassType) Name() string {
	if t.Title == "" {
		return "Class"
	}
	return fmt.Sprintf("Class[%q]", t.Title)
}
func (t ClassType) IsInstance(v Value) bool {
	s, ok := Deref(v).(Str)
	if !ok {
		return false
	}
	name, title, ok := ParseResourceRef(string(s))
	if !ok || !strings.EqualFold(name, "class") {
		return false
	}
	return t.Title == "" || t.Title == title
}
func (t ClassType) IsSpecializationOf(other Type) bool {
	if o, ok := other.(ClassType); ok {
		return o.Title == "" || o.Title == t.Title
	}
	return other.Name() == "Any" || specializesAbstract("CatalogEntry", other)
}
func (ClassType) typeNode() {}

// ---------------------------------------------------------------------
// GetType

// GetType returns the most specific runtime type of v (spec §4.5
// "get_type returning the most specific runtime type").
func GetType(v Value) Type {
	switch t := Deref(v).(type) {
	case Undef, nil:
		return UndefType{}
	case Default:
		return DefaultType{}
	case Bool:
		return BooleanType{}
	case Int:
		return IntegerType{From: int64(t), To: int64(t), Bounded: true}
	case Float:
		return FloatType{From: float64(t), To: float64(t), Bounded: true}
	case Str:
		n := GraphemeLen(string(t))
		return StringType{From: n, To: n, Bounded: true}
	case *Regex:
		return RegexpType{Pattern: t.Pattern, HasPat: true}
	case *Array:
		var elem Type
		for _, e := range t.Elements {
			et := GetType(e)
			if elem == nil {
				elem = et
			} else {
				elem = generalize(elem, et)
			}
		}
		if elem == nil {
			elem = UndefType{}
		}
		return ArrayType{Element: elem, From: len(t.Elements), To: len(t.Elements), Bounded: true}
	case *Hash:
		var kt, vt Type
		for _, p := range t.Pairs {
			k, v := GetType(p.Key), GetType(p.Value)
			if kt == nil {
				kt, vt = k, v
			} else {
				kt, vt = generalize(kt, k), generalize(vt, v)
			}
		}
		if kt == nil {
			kt, vt = UndefType{}, UndefType{}
		}
		return HashType{Key: kt, Elem: vt, From: len(t.Pairs), To: len(t.Pairs), Bounded: true}
	case *TypeValue:
		return TypeType{Inner: t.Type}
	default:
		return AnyType{}
	}
}

// generalize returns a type encompassing both a and b, falling back to
// Any when no closer common supertype applies. Used to compute an array
// or hash's element type from heterogeneous members.
func generalize(a, b Type) Type {
	if a.Name() == b.Name() {
		return a
	}
	switch a.(type) {
	case IntegerType, FloatType:
		switch b.(type) {
		case IntegerType, FloatType:
			return NumericType{}
		}
	}
	if a.IsSpecializationOf(DataType{}) && b.IsSpecializationOf(DataType{}) {
		return DataType{}
	}
	return AnyType{}
}

// GraphemeLen reports the grapheme-cluster length used for Unicode-aware
// string indexing (spec §4.5). Delegates to the grapheme helper in
// access.go, which wraps golang.org/x/text/unicode/norm.
func GraphemeLen(s string) int { return len(Graphemes(s)) }
