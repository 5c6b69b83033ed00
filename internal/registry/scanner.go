package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// Scan walks file once, collecting classes, defined types, node
// definitions, and type aliases into staging lists, and commits them to
// reg only if the entire scan succeeds (spec §4.4: "collecting ... into
// staging lists; commits them to the registry only if the entire scan
// succeeds").
func Scan(reg *Registry, file *ast.File) errors.List {
	s := &scanner{
		classes: map[string][]*ClassDef{},
		defTys:  map[string]*DefinedTypeDef{},
		aliases: map[string]*TypeAliasDef{},
		funcs:   map[string]*FunctionDef{},
	}
	s.scanStmts(file.Statements, true)
	if len(s.errs) > 0 {
		return s.errs
	}
	for name, defs := range s.classes {
		reg.Classes[name] = append(reg.Classes[name], defs...)
	}
	for name, d := range s.defTys {
		reg.DefinedTypes[name] = d
	}
	for name, a := range s.aliases {
		reg.Aliases[name] = a
	}
	for name, f := range s.funcs {
		reg.Functions[name] = f
	}
	reg.Nodes = append(reg.Nodes, s.nodes...)
	return nil
}

type scanner struct {
	classes map[string][]*ClassDef
	defTys  map[string]*DefinedTypeDef
	aliases map[string]*TypeAliasDef
	funcs   map[string]*FunctionDef
	nodes   []*NodeDef
	errs    errors.List
}

func (s *scanner) errorf(pos token.Position, format string, args ...interface{}) {
	s.errs = s.errs.Add(errors.Newf(pos, format, args...))
}

// scanStmts walks a statement list. canDefine is true at top level and
// inside a class body (spec §4.4 "can-define" rule); it is false inside
// resource bodies, collector queries, and control-flow bodies, which the
// caller enforces by not recursing into those with canDefine set.
func (s *scanner) scanStmts(stmts []ast.Stmt, canDefine bool) {
	for _, stmt := range stmts {
		s.scanStmt(stmt, canDefine)
	}
}

func (s *scanner) scanStmt(stmt ast.Stmt, canDefine bool) {
	switch n := stmt.(type) {
	case *ast.ClassDecl:
		if !canDefine {
			s.errorf(n.Pos(), "class definitions are only legal at top level or inside a class")
			return
		}
		s.defineClass(n)
		s.scanStmts(n.Body, true)
	case *ast.DefinedTypeDecl:
		if !canDefine {
			s.errorf(n.Pos(), "defined type definitions are only legal at top level or inside a class")
			return
		}
		s.defineType(n)
		// Defined-type bodies are evaluated per-declaration later, not
		// scanned for nested definitions now; defined types cannot nest
		// further class/defined-type declarations per spec §4.3.
	case *ast.NodeDecl:
		if !canDefine {
			s.errorf(n.Pos(), "node definitions are only legal at top level")
			return
		}
		s.defineNode(n)
	case *ast.TypeAliasDecl:
		if !canDefine {
			s.errorf(n.Pos(), "type aliases are only legal at top level")
			return
		}
		s.defineAlias(n)
	case *ast.FunctionDecl:
		s.defineFunction(n)
	case *ast.ApplicationDecl, *ast.SiteDecl, *ast.ProducesDecl, *ast.ConsumesDecl:
		// Recognized as top-level-only by the validator; the scanner does
		// not register them (no pre-evaluation lookup is needed for them).
	case *ast.IfExpr:
		s.scanStmts(n.Then, false)
		for _, e := range n.Elsifs {
			s.scanStmts(e.Body, false)
		}
		s.scanStmts(n.Else, false)
	case *ast.UnlessExpr:
		s.scanStmts(n.Then, false)
		s.scanStmts(n.Else, false)
	case *ast.CaseExpr:
		for _, opt := range n.Options {
			s.scanStmts(opt.Body, false)
		}
	default:
		// resource bodies, collector queries, plain expressions: no
		// definitions permitted beneath them (canDefine is simply not
		// propagated further).
	}
}

func (s *scanner) defineClass(n *ast.ClassDecl) {
	name := NormalizeName(n.Name)
	if err := checkDefinitionName(name, n.Pos()); err != nil {
		s.errorf(n.Pos(), "%s", err)
		return
	}
	def := &ClassDef{Name: name, Parent: NormalizeName(n.Parent), Params: n.Params, Body: n.Body, Pos: n.Pos()}
	existing := s.classes[name]
	for _, e := range existing {
		if e.Parent != def.Parent {
			s.errorf(n.Pos(), "class %q already defined with a different parent at %s", n.Name, e.Pos)
			return
		}
	}
	s.classes[name] = append(existing, def)
}

func (s *scanner) defineType(n *ast.DefinedTypeDecl) {
	name := NormalizeName(n.Name)
	if err := checkDefinitionName(name, n.Pos()); err != nil {
		s.errorf(n.Pos(), "%s", err)
		return
	}
	if _, dup := s.defTys[name]; dup {
		s.errorf(n.Pos(), "defined type %q already defined", n.Name)
		return
	}
	if _, dup := s.classes[name]; dup {
		s.errorf(n.Pos(), "name %q is used by both a class and a defined type", n.Name)
		return
	}
	s.defTys[name] = &DefinedTypeDef{Name: name, Params: n.Params, Body: n.Body, Pos: n.Pos()}
}

func (s *scanner) defineNode(n *ast.NodeDecl) {
	def := &NodeDef{Body: n.Body, Pos: n.Pos(), Default: n.Default}
	for _, h := range n.Hosts {
		switch host := h.(type) {
		case *ast.String:
			if len(host.Parts) == 1 && host.Parts[0].Expr == nil {
				def.Hostnames = append(def.Hostnames, strings.ToLower(host.Parts[0].Text))
			}
		case *ast.Regex:
			re, err := regexp.Compile(host.Pattern)
			if err != nil {
				s.errorf(n.Pos(), "invalid node regex %q: %s", host.Pattern, err)
				continue
			}
			def.Regexes = append(def.Regexes, re)
		}
	}
	for _, existing := range s.nodes {
		if def.Default && existing.Default {
			s.errorf(n.Pos(), "duplicate default node definition")
			return
		}
		for _, h := range def.Hostnames {
			for _, eh := range existing.Hostnames {
				if h == eh {
					s.errorf(n.Pos(), "duplicate node definition for %q", h)
					return
				}
			}
		}
	}
	s.nodes = append(s.nodes, def)
}

func (s *scanner) defineAlias(n *ast.TypeAliasDecl) {
	if BuiltinTypeNames[n.Name] {
		s.errorf(n.Pos(), "type alias %q collides with a built-in type", n.Name)
		return
	}
	if _, dup := s.aliases[n.Name]; dup {
		s.errorf(n.Pos(), "type alias %q already defined", n.Name)
		return
	}
	s.aliases[n.Name] = &TypeAliasDef{Name: n.Name, Expr: n.Type, Pos: n.Pos()}
}

func (s *scanner) defineFunction(n *ast.FunctionDecl) {
	name := NormalizeName(n.Name)
	if _, dup := s.funcs[name]; dup {
		s.errorf(n.Pos(), "function %q already defined", n.Name)
		return
	}
	s.funcs[name] = &FunctionDef{Name: name, Params: n.Params, Body: n.Body, Pos: n.Pos()}
}

// checkDefinitionName rejects the reserved class/defined-type names
// "main" and "settings". It does not check for a leading "::".
func checkDefinitionName(normalized string, pos token.Position) error {
	if normalized == "main" || normalized == "settings" {
		return fmt.Errorf("%q is a reserved name and cannot be used for a class or defined type", normalized)
	}
	return nil
}
