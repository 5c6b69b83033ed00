package values

import "fmt"

// BuildType constructs a Type from a parsed `Name[params...]` type
// expression (spec §4.5 "Types parse from textual specifications") once
// the evaluator has evaluated each bracketed parameter to a Value. Bare
// type names (no brackets) are called with a nil params slice.
func BuildType(name string, params []Value) (Type, error) {
	switch name {
	case "Any":
		return AnyType{}, nil
	case "Undef":
		return UndefType{}, nil
	case "Default":
		return DefaultType{}, nil
	case "Boolean":
		return BooleanType{}, nil
	case "Scalar":
		return ScalarType{}, nil
	case "Numeric":
		return NumericType{}, nil
	case "Data":
		return DataType{}, nil
	case "Collection":
		return CollectionType{}, nil
	case "CatalogEntry":
		return CatalogEntryType{}, nil
	case "Integer":
		if len(params) == 0 {
			return IntegerType{}, nil
		}
		from, to, err := intRange(params)
		return IntegerType{From: from, To: to, Bounded: true}, err
	case "Float":
		if len(params) == 0 {
			return FloatType{}, nil
		}
		from, to, err := floatRange(params)
		return FloatType{From: from, To: to, Bounded: true}, err
	case "String":
		if len(params) == 0 {
			return StringType{}, nil
		}
		from, to, err := intRange(params)
		return StringType{From: int(from), To: int(to), Bounded: true}, err
	case "Regexp":
		if len(params) == 0 {
			return RegexpType{}, nil
		}
		s, err := asString(params[0])
		if err != nil {
			return nil, err
		}
		return RegexpType{Pattern: s, HasPat: true}, nil
	case "Pattern":
		var regs []*Regex
		for _, p := range params {
			s, err := asString(p)
			if err != nil {
				return nil, err
			}
			r, err := NewRegex(s)
			if err != nil {
				return nil, err
			}
			regs = append(regs, r)
		}
		return PatternType{Patterns: regs}, nil
	case "Enum":
		var vals []string
		for _, p := range params {
			s, err := asString(p)
			if err != nil {
				return nil, err
			}
			vals = append(vals, s)
		}
		return EnumType{Values: vals}, nil
	case "Array":
		return buildArray(params)
	case "Hash":
		return buildHash(params)
	case "Tuple":
		return buildTuple(params)
	case "Optional":
		if len(params) != 1 {
			return nil, fmt.Errorf("Optional takes exactly one type parameter")
		}
		inner, err := asType(params[0])
		if err != nil {
			return nil, err
		}
		return OptionalType{Inner: inner}, nil
	case "NotUndef":
		if len(params) == 0 {
			return NotUndefType{}, nil
		}
		inner, err := asType(params[0])
		if err != nil {
			return nil, err
		}
		return NotUndefType{Inner: inner}, nil
	case "Variant":
		var opts []Type
		for _, p := range params {
			t, err := asType(p)
			if err != nil {
				return nil, err
			}
			opts = append(opts, t)
		}
		return VariantType{Options: opts}, nil
	case "Type":
		if len(params) == 0 {
			return TypeType{}, nil
		}
		inner, err := asType(params[0])
		if err != nil {
			return nil, err
		}
		return TypeType{Inner: inner}, nil
	case "Runtime":
		n := ""
		if len(params) > 0 {
			n, _ = asString(params[0])
		}
		return RuntimeType{Name_: n}, nil
	case "Resource":
		switch len(params) {
		case 0:
			return ResourceType{}, nil
		case 1:
			s, err := asString(params[0])
			return ResourceType{TypeName: s}, err
		default:
			tn, err := asString(params[0])
			if err != nil {
				return nil, err
			}
			title, err := asString(params[1])
			return ResourceType{TypeName: tn, Title: title}, err
		}
	case "Class":
		if len(params) == 0 {
			return ClassType{}, nil
		}
		title, err := asString(params[0])
		return ClassType{Title: title}, err
	case "Callable":
		var ps []Type
		for _, p := range params {
			t, err := asType(p)
			if err != nil {
				return nil, err
			}
			ps = append(ps, t)
		}
		return CallableType{Params: ps}, nil
	case "Struct":
		return buildStruct(params)
	default:
		return nil, fmt.Errorf("unknown type %q", name)
	}
}

func intRange(params []Value) (int64, int64, error) {
	from, err := asInt(params[0])
	if err != nil {
		return 0, 0, err
	}
	to := from
	if len(params) > 1 {
		to, err = asInt(params[1])
		if err != nil {
			return 0, 0, err
		}
	}
	return from, to, nil
}

func floatRange(params []Value) (float64, float64, error) {
	from, err := asFloat(params[0])
	if err != nil {
		return 0, 0, err
	}
	to := from
	if len(params) > 1 {
		to, err = asFloat(params[1])
		if err != nil {
			return 0, 0, err
		}
	}
	return from, to, nil
}

func buildArray(params []Value) (Type, error) {
	var elem Type = AnyType{}
	rest := params
	if len(params) > 0 {
		if t, err := asType(params[0]); err == nil {
			elem = t
			rest = params[1:]
		}
	}
	if len(rest) == 0 {
		return ArrayType{Element: elem}, nil
	}
	from, to, err := intRange(rest)
	if err != nil {
		return nil, err
	}
	return ArrayType{Element: elem, From: int(from), To: int(to), Bounded: true}, nil
}

func buildHash(params []Value) (Type, error) {
	var key, elem Type = AnyType{}, AnyType{}
	rest := params
	if len(rest) > 0 {
		if t, err := asType(rest[0]); err == nil {
			key = t
			rest = rest[1:]
			if len(rest) > 0 {
				if t2, err := asType(rest[0]); err == nil {
					elem = t2
					rest = rest[1:]
				}
			}
		}
	}
	if len(rest) == 0 {
		return HashType{Key: key, Elem: elem}, nil
	}
	from, to, err := intRange(rest)
	if err != nil {
		return nil, err
	}
	return HashType{Key: key, Elem: elem, From: int(from), To: int(to), Bounded: true}, nil
}

func buildTuple(params []Value) (Type, error) {
	var elems []Type
	i := 0
	for ; i < len(params); i++ {
		t, err := asType(params[i])
		if err != nil {
			break
		}
		elems = append(elems, t)
	}
	rest := params[i:]
	if len(rest) == 0 {
		return TupleType{Elements: elems}, nil
	}
	from, to, err := intRange(rest)
	if err != nil {
		return nil, err
	}
	return TupleType{Elements: elems, From: int(from), To: int(to), Bounded: true}, nil
}

func buildStruct(params []Value) (Type, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("Struct takes exactly one hash parameter")
	}
	h, ok := Deref(params[0]).(*Hash)
	if !ok {
		return nil, fmt.Errorf("Struct parameter must be a hash")
	}
	var fields []StructField
	for _, p := range h.Pairs {
		key, err := asString(p.Key)
		optional := false
		if err != nil {
			// keys must be plain strings; a field is optional when its
			// value type is Optional[...] (checked below).
			return nil, err
		}
		t, err := asType(p.Value)
		if err != nil {
			return nil, err
		}
		if _, ok := t.(OptionalType); ok {
			optional = true
		}
		fields = append(fields, StructField{Key: key, Optional: optional, Type: t})
	}
	return StructType{Fields: fields}, nil
}

func asString(v Value) (string, error) {
	s, ok := Deref(v).(Str)
	if !ok {
		return "", fmt.Errorf("expected a string type parameter, got %s", v.Kind())
	}
	return string(s), nil
}

func asInt(v Value) (int64, error) {
	i, ok := Deref(v).(Int)
	if !ok {
		return 0, fmt.Errorf("expected an integer type parameter, got %s", v.Kind())
	}
	return int64(i), nil
}

func asFloat(v Value) (float64, error) {
	switch n := Deref(v).(type) {
	case Float:
		return float64(n), nil
	case Int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a numeric type parameter, got %s", v.Kind())
}

func asType(v Value) (Type, error) {
	tv, ok := Deref(v).(*TypeValue)
	if !ok {
		return nil, fmt.Errorf("expected a type parameter, got %s", v.Kind())
	}
	return tv.Type, nil
}
