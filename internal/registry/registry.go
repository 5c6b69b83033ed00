// Package registry holds pre-evaluation definitions discovered by the
// scanner (spec §4.4 "Definition scanner", §4.6 "The registry"): classes,
// defined types, node definitions, and type aliases, keyed by normalized
// name.
package registry

import (
	"regexp"
	"strings"

	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// ClassDef is one `class name { ... }` definition. Classes may be reopened
// only with a matching parent (spec §3 invariants), so a name may map to
// more than one ClassDef only when all share the same Parent.
type ClassDef struct {
	Name   string
	Parent string
	Params []ast.Param
	Body   []ast.Stmt
	Pos    token.Position
}

// DefinedTypeDef is one `define name { ... }` definition.
type DefinedTypeDef struct {
	Name   string
	Params []ast.Param
	Body   []ast.Stmt
	Pos    token.Position
}

// NodeDef is one `node <hosts> { ... }` definition, matched either by exact
// (lowercased) hostname or by regex.
type NodeDef struct {
	Hostnames []string
	Regexes   []*regexp.Regexp
	Default   bool
	Body      []ast.Stmt
	Pos       token.Position
}

// Matches reports whether hostname (already lowercased by the caller)
// satisfies this node definition's selector.
func (n *NodeDef) Matches(hostname string) bool {
	if n.Default {
		return true
	}
	for _, h := range n.Hostnames {
		if h == hostname {
			return true
		}
	}
	for _, re := range n.Regexes {
		if re.MatchString(hostname) {
			return true
		}
	}
	return false
}

// TypeAliasDef is one `type Name = <type expr>` definition.
type TypeAliasDef struct {
	Name string
	Expr ast.Expr
	Pos  token.Position
}

// FunctionDef is one user-defined `function name(...) { ... }` definition
// (spec §4.3), dispatched alongside the built-in function table.
type FunctionDef struct {
	Name   string
	Params []ast.Param
	Body   []ast.Stmt
	Pos    token.Position
}

// Registry maps normalized names to the definitions discovered by the
// scanner (spec §4.6 "The registry maps normalized names to class
// definitions (a list, since classes may be reopened only with a matching
// parent), defined types, type aliases, and node definitions").
type Registry struct {
	Classes      map[string][]*ClassDef
	DefinedTypes map[string]*DefinedTypeDef
	Nodes        []*NodeDef
	Aliases      map[string]*TypeAliasDef
	Functions    map[string]*FunctionDef
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		Classes:      map[string][]*ClassDef{},
		DefinedTypes: map[string]*DefinedTypeDef{},
		Aliases:      map[string]*TypeAliasDef{},
		Functions:    map[string]*FunctionDef{},
	}
}

// NormalizeName lowercases a class/defined-type/node name and strips a
// leading "::" (spec §3 invariants: "Class and defined-type names are
// normalized to lowercase with stripped leading ::").
func NormalizeName(name string) string {
	name = strings.TrimPrefix(name, "::")
	return strings.ToLower(name)
}

// Class returns the class definitions registered under name, if any.
func (r *Registry) Class(name string) []*ClassDef {
	return r.Classes[NormalizeName(name)]
}

// DefinedType returns the defined-type definition registered under name,
// if any.
func (r *Registry) DefinedType(name string) (*DefinedTypeDef, bool) {
	d, ok := r.DefinedTypes[NormalizeName(name)]
	return d, ok
}

// Alias returns the type alias registered under name, if any.
func (r *Registry) Alias(name string) (*TypeAliasDef, bool) {
	d, ok := r.Aliases[name]
	return d, ok
}

// Function returns the user-defined function registered under name, if any.
func (r *Registry) Function(name string) (*FunctionDef, bool) {
	d, ok := r.Functions[NormalizeName(name)]
	return d, ok
}

// MatchNode finds the first node definition matching hostname, falling
// back to a `node default` definition if one was registered, per node
// definitions being tried in declaration order (spec GLOSSARY "Node
// definition").
func (r *Registry) MatchNode(hostname string) *NodeDef {
	hostname = strings.ToLower(hostname)
	var fallback *NodeDef
	for _, n := range r.Nodes {
		if n.Default {
			if fallback == nil {
				fallback = n
			}
			continue
		}
		if n.Matches(hostname) {
			return n
		}
	}
	return fallback
}

// BuiltinTypeNames lists the runtime type system's built-in type names, so
// the scanner can reject `type Name = ...` aliases that collide with them
// (spec §4.3 "Type-alias name must not collide with a built-in type").
var BuiltinTypeNames = map[string]bool{
	"Any": true, "Undef": true, "Default": true, "Boolean": true,
	"Integer": true, "Float": true, "String": true, "Regexp": true,
	"Pattern": true, "Enum": true, "Array": true, "Hash": true,
	"Tuple": true, "Struct": true, "Optional": true, "NotUndef": true,
	"Variant": true, "Callable": true, "Scalar": true, "Numeric": true,
	"Data": true, "Collection": true, "CatalogEntry": true, "Resource": true,
	"Class": true, "Runtime": true, "Type": true,
}
