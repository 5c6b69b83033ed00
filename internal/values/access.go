package values

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Graphemes splits s into Unicode grapheme-ish clusters, used by the `[]`
// access operator's "Unicode-grapheme indexing" (spec §4.5). Clusters are
// computed from golang.org/x/text/unicode/norm's normalization-boundary
// iterator: each segment groups a base rune with any following combining
// marks, which is a close enough approximation of a grapheme cluster for
// indexing purposes without pulling in a dedicated segmentation library —
// x/text is the Unicode collaborator spec §1/§9 names.
func Graphemes(s string) []string {
	var it norm.Iter
	it.InitString(norm.NFC, s)
	var out []string
	for !it.Done() {
		out = append(out, string(it.Next()))
	}
	return out
}

// clampRange resolves a (start, count) pair against length n the way
// string/array access does (spec §4.5, §8 boundary behaviors): negative
// start counts from the end; start is then clamped to [0, n]; negative
// count is an inclusive end index; a zero count, or an end before start,
// yields an empty, zero-width result.
func clampRange(n, start, count int, hasCount bool) (from, to int) {
	if start < 0 {
		start += n
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if !hasCount {
		return start, n
	}
	var end int
	if count < 0 {
		end = count + n + 1
	} else {
		end = start + count
	}
	if end < start {
		end = start
	}
	if end > n {
		end = n
	}
	return start, end
}

// StringAccess implements `string[i]` / `string[i, n]` (spec §4.5).
func StringAccess(s string, start int, count int, hasCount bool) Str {
	g := Graphemes(s)
	from, to := clampRange(len(g), start, count, hasCount)
	return Str(strings.Join(g[from:to], ""))
}

// ArrayAccess implements `array[i]` / `array[i, n]`. Single-index access
// (hasCount == false) returns the element, or Undef{} when out of range;
// ranged access always returns an Array (possibly empty).
func ArrayAccess(a *Array, start int, count int, hasCount bool) Value {
	n := len(a.Elements)
	if !hasCount {
		idx := start
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n {
			return Undef{}
		}
		return a.Elements[idx]
	}
	from, to := clampRange(n, start, count, hasCount)
	return &Array{Elements: append([]Value{}, a.Elements[from:to]...)}
}

// HashAccess implements `hash[k]` and `hash[k1, k2, ...]` (spec §4.5):
// a single key returns its value or Undef if absent; multiple keys
// return an Array of the found values, skipping missing keys.
func HashAccess(h *Hash, keys []Value) Value {
	lookup := func(k Value) (Value, bool) {
		for _, p := range h.Pairs {
			if Equal(p.Key, k) {
				return p.Value, true
			}
		}
		return nil, false
	}
	if len(keys) == 1 {
		v, ok := lookup(keys[0])
		if !ok {
			return Undef{}
		}
		return v
	}
	var out []Value
	for _, k := range keys {
		if v, ok := lookup(k); ok {
			out = append(out, v)
		}
	}
	return &Array{Elements: out}
}

// Equal implements value equality (spec §4.5 "equality: normalization-
// aware for strings"): strings compare by Unicode NFC-normalized form;
// arrays/hashes compare structurally; everything else by Go equality on
// the dereferenced value.
func Equal(a, b Value) bool {
	a, b = Deref(a), Deref(b)
	switch av := a.(type) {
	case Str:
		bv, ok := b.(Str)
		return ok && norm.NFC.String(string(av)) == norm.NFC.String(string(bv))
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Hash:
		bv, ok := b.(*Hash)
		if !ok || len(av.Pairs) != len(bv.Pairs) {
			return false
		}
		for _, p := range av.Pairs {
			found := false
			for _, q := range bv.Pairs {
				if Equal(p.Key, q.Key) && Equal(p.Value, q.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case Undef:
		_, ok := b.(Undef)
		return ok
	case Default:
		_, ok := b.(Default)
		return ok
	default:
		return a == b
	}
}

// ToString renders v in the deterministic printed form used by
// interpolation and logging (spec §4.5 "to_string").
func ToString(v Value) string {
	switch t := Deref(v).(type) {
	case nil, Undef:
		return ""
	case Default:
		return "default"
	case Bool:
		if t {
			return "true"
		}
		return "false"
	case Int:
		return fmt.Sprintf("%d", int64(t))
	case Float:
		return fmt.Sprintf("%g", float64(t))
	case Str:
		return string(t)
	case *Regex:
		return "/" + t.Pattern + "/"
	case *TypeValue:
		return t.Type.Name()
	case *Array:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = inspect(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Hash:
		parts := make([]string, len(t.Pairs))
		for i, p := range t.Pairs {
			parts[i] = fmt.Sprintf("%s => %s", inspect(p.Key), inspect(p.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// inspect renders a value as it appears nested inside an array/hash
// to_string, quoting strings the way Puppet's own inspect form does.
func inspect(v Value) string {
	if s, ok := Deref(v).(Str); ok {
		return fmt.Sprintf("'%s'", string(s))
	}
	return ToString(v)
}
