// Package runtime implements the evaluation-time scope, match-scope, and
// session context (spec §4.6 "Scope, context, registry", §3 "Scope",
// "Match scope"). It is the mutable state a single compilation threads
// through the evaluator.
package runtime

import (
	"strings"

	"github.com/puppetlabs/puppetlang/internal/values"
)

// FactSource is the external collaborator the root scope reads facts
// through (spec §1 "YAML/Facter-based fact providers" as an external
// collaborator the core consumes via an interface).
type FactSource interface {
	// Facts returns the flat fact name -> value map for the current node.
	Facts() map[string]values.Value
	// Trusted returns the $trusted hash contents, if any (may be empty).
	Trusted() map[string]values.Value
}

// Scope is a variable-binding frame (spec §3 "Scope"). Each scope has an
// optional parent; the root scope reads facts through a FactSource.
type Scope struct {
	parent *Scope
	vars   map[string]values.Value
	name   string // associated resource's normalized title, if any
	facts  FactSource
}

// NewRootScope creates the top-level scope, seeded with flat fact
// variables plus $facts and $trusted hashes (spec SUPPLEMENTED FEATURES:
// "the root scope created per spec §4.6 is seeded not just with flat fact
// variables but also a $facts hash and a $trusted hash").
func NewRootScope(facts FactSource) *Scope {
	s := &Scope{vars: map[string]values.Value{}, facts: facts}
	if facts == nil {
		return s
	}
	factMap := facts.Facts()
	for k, v := range factMap {
		s.vars[k] = v
	}
	var pairs []values.HashPair
	for k, v := range factMap {
		pairs = append(pairs, values.HashPair{Key: values.Str(k), Value: v})
	}
	s.vars["facts"] = &values.Hash{Pairs: pairs}
	var trustedPairs []values.HashPair
	for k, v := range facts.Trusted() {
		trustedPairs = append(trustedPairs, values.HashPair{Key: values.Str(k), Value: v})
	}
	s.vars["trusted"] = &values.Hash{Pairs: trustedPairs}
	return s
}

// NewChild creates a local scope nested under parent, not associated with
// any resource (e.g. an if/case/lambda body's local scope).
func NewChild(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]values.Value{}}
}

// NewResourceScope creates a scope for evaluating a resource body
// (including a declared class), associated with name (the resource's
// normalized title) and chained to parent.
func NewResourceScope(parent *Scope, name string) *Scope {
	return &Scope{parent: parent, vars: map[string]values.Value{}, name: name}
}

// Name returns the scope's associated resource name, or "" if unassociated.
func (s *Scope) Name() string { return s.name }

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Root walks up to the top-level scope.
func (s *Scope) Root() *Scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// Set creates or updates a local binding in this scope (spec §4.6
// "setting creates a local binding in the current scope"). Legality of
// the target is checked at parse time by the validator, not here.
func (s *Scope) Set(name string, v values.Value) {
	s.vars[strings.TrimPrefix(name, "$")] = v
}

// Local looks up name only in this scope, without climbing parents.
func (s *Scope) Local(name string) (values.Value, bool) {
	v, ok := s.vars[strings.TrimPrefix(name, "$")]
	return v, ok
}

// Lookup implements spec §4.6 "$name with no :: : current scope, climbing
// parents." Returns the value wrapped as an immutable VariableRef handle
// (spec §3 "Variable references are immutable handles to shared values"),
// and whether it was found.
func (s *Scope) Lookup(name string) (values.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return &values.VariableRef{Name: name, Target: v}, true
		}
	}
	return nil, false
}

// Contains reports whether target is this scope or a descendant of it by
// parent chain, used by the override "parent-scope check" (spec §4.7
// "Resource-override evaluation": "permitted when the override is issued
// from a scope that contains the target").
func (s *Scope) Contains(target *Scope) bool {
	for cur := target; cur != nil; cur = cur.parent {
		if cur == s {
			return true
		}
	}
	return false
}
