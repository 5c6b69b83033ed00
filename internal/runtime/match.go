package runtime

import "strings"

// MatchScope is a stack frame of captured regex-match groups, accessed by
// $1, $2, ... (spec §3 "Match scope"). Creating a local scope also pushes
// a match scope (spec §3); the nearest non-empty frame wins on lookup.
type MatchScope struct {
	parent *MatchScope
	groups []string
}

// NewMatchScope pushes a new, initially empty match frame under parent.
func NewMatchScope(parent *MatchScope) *MatchScope {
	return &MatchScope{parent: parent}
}

// SetGroups replaces this frame's captured groups (group 1 is groups[0]),
// called after a successful =~ match.
func (m *MatchScope) SetGroups(groups []string) {
	m.groups = groups
}

// Lookup implements `$1`, `$2`, ... lookup: the nearest frame (climbing
// parents) that has a non-empty group set wins (spec §3 "the nearest
// non-empty frame wins").
func (m *MatchScope) Lookup(n int) (string, bool) {
	for cur := m; cur != nil; cur = cur.parent {
		if len(cur.groups) == 0 {
			continue
		}
		if n < 1 || n > len(cur.groups) {
			return "", false
		}
		return cur.groups[n-1], true
	}
	return "", false
}

// ParseMatchVar parses a `$1`, `$23`, ... variable name (with or without
// the leading "$") into its numeric index, or ok=false if it is not a
// match-variable form.
func ParseMatchVar(name string) (n int, ok bool) {
	name = strings.TrimPrefix(name, "$")
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	val := 0
	for _, r := range name {
		val = val*10 + int(r-'0')
	}
	return val, true
}

// ScopeRegistry maps a scope name (the associated resource's normalized
// title) to its Scope, enforcing "each scope name appears at most once in
// the scope registry" (spec §3 invariants).
type ScopeRegistry struct {
	byName map[string]*Scope
}

// NewScopeRegistry creates an empty scope registry.
func NewScopeRegistry() *ScopeRegistry {
	return &ScopeRegistry{byName: map[string]*Scope{}}
}

// Register records scope under name. Returns false if name is already
// registered (the invariant's "at most once").
func (r *ScopeRegistry) Register(name string, scope *Scope) bool {
	if _, dup := r.byName[name]; dup {
		return false
	}
	r.byName[name] = scope
	return true
}

// Lookup finds the scope registered under name, used for `$ns::name`
// qualified variable lookups (spec §4.6).
func (r *ScopeRegistry) Lookup(name string) (*Scope, bool) {
	s, ok := r.byName[name]
	return s, ok
}
