// Package ast declares the syntax tree produced by the parser for Puppet
// manifests (spec §3 "AST"): a sum type of primary expression, control-flow,
// catalog-declaration, and postfix node variants, each carrying begin/end
// source positions.
package ast

import (
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// A Node represents any node in the abstract syntax tree.
type Node interface {
	Pos() token.Position
	End() token.Position
}

// An Expr is implemented by every expression node variant.
type Expr interface {
	Node
	exprNode()
	stmtNode()
}

// A Stmt is implemented by every top-level/body statement variant,
// including declarations (class, defined type, node, resource, ...).
type Stmt interface {
	Node
	stmtNode()
}

// Base embeds begin/end positions shared by every node.
type Base struct {
	From token.Position
	To   token.Position
}

func (b Base) Pos() token.Position { return b.From }
func (b Base) End() token.Position { return b.To }

// ---------------------------------------------------------------------
// Primary expressions (spec §3 AST "Primary variants")

type Undef struct{ Base }
type DefaultLit struct{ Base }

type BoolLit struct {
	Base
	Value bool
}

type IntLit struct {
	Base
	Value int64
}

type FloatLit struct {
	Base
	Value float64
}

// StringPart is one segment of a String node: either literal text or an
// embedded expression (spec §3 "Token" string decomposition,
// string_start/string_text/interpolation_start/interpolation_end/string_end).
type StringPart struct {
	Text string // set when Expr == nil
	Expr Expr   // set for ${...} / $name interpolations
}

// String is a (possibly interpolated) string or heredoc literal.
type String struct {
	Base
	Parts        []StringPart
	Format       string // heredoc :format tag, if any
	Margin       int    // heredoc margin, if any
	Interpolated bool
}

type Regex struct {
	Base
	Pattern string
}

// Variable is a `$name` reference, including qualified (`$ns::name`) and
// match-variable (`$1`) forms.
type Variable struct {
	Base
	Name string
}

// Name is an unqualified or qualified bare identifier used as a function
// name or statement-call target.
type Name struct {
	Base
	Value string
}

// BareWord is an unquoted identifier used as an attribute value
// (e.g. `ensure => present`).
type BareWord struct {
	Base
	Value string
}

// TypeExpr is a type-system reference such as `Array[Integer, 1, 10]`.
type TypeExpr struct {
	Base
	Name   string
	Params []Expr
}

type ArrayLit struct {
	Base
	Elements []Expr
}

type HashEntry struct {
	Key   Expr
	Value Expr
}

type HashLit struct {
	Base
	Entries []HashEntry
}

// ---------------------------------------------------------------------
// Control flow

type IfExpr struct {
	Base
	Cond   Expr
	Then   []Stmt
	Elsifs []ElsifClause
	Else   []Stmt
}

type ElsifClause struct {
	Cond Expr
	Body []Stmt
}

type UnlessExpr struct {
	Base
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// CaseOption is one `values: { body }` arm, or the `default:` arm when
// IsDefault is true. A splat option (`*$arr:`) sets Splat.
type CaseOption struct {
	Values    []Expr
	IsDefault bool
	Splat     bool
	Body      []Stmt
}

type CaseExpr struct {
	Base
	Subject Expr
	Options []CaseOption
}

// Param is one function/lambda/defined-type parameter.
type Param struct {
	Base
	Type     Expr // nil if untyped
	Name     string
	Default  Expr // nil if required
	Captures bool // `*$rest`
}

// Lambda is a `|params| { body }` block passed to a function call.
type Lambda struct {
	Base
	Params []Param
	Body   []Stmt
}

type FunctionCall struct {
	Base
	Name  string
	Args  []Expr
	Block *Lambda // trailing lambda, if any
}

// ---------------------------------------------------------------------
// Catalog forms

// ResourceBody is one `title: { attr => value, ... }` group within a
// resource expression.
type ResourceBody struct {
	Title      Expr
	Attributes []Attribute
}

// Attribute is one `name => value` or `name +> value` pair (spec §3
// "attribute operator").
type Attribute struct {
	Base
	Name   Expr // BareWord or String; nil for a splat (Splat is set)
	Op     AttrOp
	Value  Expr
	Splat  bool // `* => {hash}`
}

type AttrOp int

const (
	OpAssign AttrOp = iota
	OpAppend
)

// Resource is `type { body, body, ... }`, optionally prefixed with `@`
// (virtual) or `@@` (exported).
type Resource struct {
	Base
	Type     Expr
	Bodies   []ResourceBody
	Virtual  bool
	Exported bool
}

// ResourceOverride is `Ref { attr => value, ... }` (spec §4.7 "Resource-
// override evaluation").
type ResourceOverride struct {
	Base
	Reference  Expr
	Attributes []Attribute
}

// ResourceDefaults is `Type { attr => value, ... }` with a bare type and
// no title (spec §9 Open Questions: unimplemented, reserved syntax).
type ResourceDefaults struct {
	Base
	Type       Expr
	Attributes []Attribute
}

type ClassDecl struct {
	Base
	Name      string
	Params    []Param
	Parent    string // "inherits" target, if any
	Body      []Stmt
}

type DefinedTypeDecl struct {
	Base
	Name   string
	Params []Param
	Body   []Stmt
}

type NodeDecl struct {
	Base
	Hosts   []Expr // string literals or regexes
	Default bool
	Body    []Stmt
}

// CollectorQuery is the `<| query |>` / `<<| query |>>` predicate.
type CollectorQuery struct {
	Base
	Type     Expr
	Exported bool
	Query    Expr // nil means "all"
}

type FunctionDecl struct {
	Base
	Name       string
	Params     []Param
	ReturnType Expr
	Body       []Stmt
}

type TypeAliasDecl struct {
	Base
	Name string
	Type Expr
}

// Application/Site/Produces/Consumes reserve their syntax per spec §9
// Open Questions ("unimplemented in the source"); evaluation fails with a
// not-yet-implemented fault until a specification is agreed.
type ApplicationDecl struct {
	Base
	Name   string
	Params []Param
	Body   []Stmt
}

type SiteDecl struct {
	Base
	Body []Stmt
}

type ProducesDecl struct {
	Base
	Type   Expr
	Params []Param
	Body   []Stmt
}

type ConsumesDecl struct {
	Base
	Type   Expr
	Params []Param
	Body   []Stmt
}

// ---------------------------------------------------------------------
// Unary / binary / postfix

type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryMinus
)

type UnaryExpr struct {
	Base
	Op      UnaryOp
	Operand Expr
}

// Assignment is `$target = value`, legal only when Target is a local
// variable or an array of local variables (spec §3 invariants, §4.3).
type Assignment struct {
	Base
	Target Expr
	Value  Expr
}

func (*Assignment) exprNode() {}
func (*Assignment) stmtNode() {}

// BinaryTerm is one (operator, right-operand) pair in the flat sequence
// evaluated by precedence climbing (spec §3 "expression" = primary + a
// sequence of (binary-op, right) pairs, spec §4.5 "Precedence climbing").
type BinaryTerm struct {
	Op    token.Token
	Right Expr
}

// BinaryExpr is a primary expression followed by zero or more operator
// terms; it is not itself nested by the parser; the evaluator performs
// precedence climbing at evaluation time.
type BinaryExpr struct {
	Base
	Left  Expr
	Terms []BinaryTerm
}

// SelectorCase is one `value => result` arm of a `?` selector postfix.
type SelectorCase struct {
	Value  Expr // nil marks `default`
	Result Expr
}

// Postfix wraps a primary expression with a chain of access/method-
// call/selector operations applied left to right (spec §3 "postfix with
// chained selector/access/method_call").
type Postfix struct {
	Base
	Primary Expr
	Chain   []PostfixOp
}

type PostfixOpKind int

const (
	PostfixAccess PostfixOpKind = iota
	PostfixMethodCall
	PostfixSelector
)

type PostfixOp struct {
	Kind    PostfixOpKind
	Index   []Expr         // PostfixAccess: `[a, b, ...]`
	Method  string         // PostfixMethodCall: `.name(...)`
	Args    []Expr         // PostfixMethodCall
	Block   *Lambda        // PostfixMethodCall trailing block
	Cases   []SelectorCase // PostfixSelector: `? { ... }`
}

// ---------------------------------------------------------------------
// Top level

// File is one parsed manifest or EPP template. Params is reserved for an
// EPP template's `<%- |$a, $b| -%>` parameter list; the parser does not
// fill it in, so it is always empty.
type File struct {
	Base
	Path       string
	Source     string
	Statements []Stmt
	Params     []Param // EPP parameter list, if any
	IsEPP      bool
}

func (f *File) Pos() token.Position { return f.From }
func (f *File) End() token.Position { return f.To }

// EPPText is a literal run of template text found between `<% %>`/`<%= %>`
// blocks in an EPP document (spec §4.1 "EPP templates toggle the lexer
// between text and code"), evaluated as an implicit write to the current
// output stream.
type EPPText struct {
	Base
	Text string
}

func (*EPPText) stmtNode() {}

// EPPRender is an embedded `<%= expr %>` block: expr is evaluated and its
// string form written to the current output stream.
type EPPRender struct {
	Base
	Expr Expr
}

func (*EPPRender) stmtNode() {}

// exprNode markers
func (*Undef) exprNode()           {}
func (*DefaultLit) exprNode()      {}
func (*BoolLit) exprNode()         {}
func (*IntLit) exprNode()          {}
func (*FloatLit) exprNode()        {}
func (*String) exprNode()          {}
func (*Regex) exprNode()           {}
func (*Variable) exprNode()        {}
func (*Name) exprNode()            {}
func (*BareWord) exprNode()        {}
func (*TypeExpr) exprNode()        {}
func (*ArrayLit) exprNode()        {}
func (*HashLit) exprNode()         {}
func (*IfExpr) exprNode()          {}
func (*UnlessExpr) exprNode()      {}
func (*CaseExpr) exprNode()        {}
func (*FunctionCall) exprNode()    {}
func (*Lambda) exprNode()          {}
func (*Resource) exprNode()        {}
func (*ResourceOverride) exprNode() {}
func (*ResourceDefaults) exprNode() {}
func (*CollectorQuery) exprNode()  {}
func (*UnaryExpr) exprNode()       {}
func (*BinaryExpr) exprNode()      {}
func (*Postfix) exprNode()         {}

// stmtNode markers — every Expr doubles as a Stmt (an expression
// statement), plus the declaration-only forms below.
func (*Undef) stmtNode()            {}
func (*DefaultLit) stmtNode()       {}
func (*BoolLit) stmtNode()          {}
func (*IntLit) stmtNode()           {}
func (*FloatLit) stmtNode()         {}
func (*String) stmtNode()           {}
func (*Regex) stmtNode()            {}
func (*Variable) stmtNode()         {}
func (*Name) stmtNode()             {}
func (*BareWord) stmtNode()         {}
func (*TypeExpr) stmtNode()         {}
func (*ArrayLit) stmtNode()         {}
func (*HashLit) stmtNode()          {}
func (*IfExpr) stmtNode()           {}
func (*UnlessExpr) stmtNode()       {}
func (*CaseExpr) stmtNode()         {}
func (*FunctionCall) stmtNode()     {}
func (*Lambda) stmtNode()           {}
func (*Resource) stmtNode()         {}
func (*ResourceOverride) stmtNode() {}
func (*ResourceDefaults) stmtNode() {}
func (*CollectorQuery) stmtNode()   {}
func (*UnaryExpr) stmtNode()        {}
func (*BinaryExpr) stmtNode()       {}
func (*Postfix) stmtNode()          {}
func (*ClassDecl) stmtNode()        {}
func (*DefinedTypeDecl) stmtNode()  {}
func (*NodeDecl) stmtNode()         {}
func (*FunctionDecl) stmtNode()     {}
func (*TypeAliasDecl) stmtNode()    {}
func (*ApplicationDecl) stmtNode()  {}
func (*SiteDecl) stmtNode()         {}
func (*ProducesDecl) stmtNode()     {}
func (*ConsumesDecl) stmtNode()     {}

// NewBase constructs position info for node variants, for parser code that
// prefers a constructor to a literal.
func NewBase(from, to token.Position) Base { return Base{From: from, To: to} }
