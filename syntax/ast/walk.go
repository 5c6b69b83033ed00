package ast

// Walk traverses an AST in depth-first order: it calls before(node) first;
// node must not be nil. If before returns true (or is nil), Walk recurses
// into node's non-nil children, then calls after(node) if non-nil.
func Walk(node Node, before func(Node) bool, after func(Node)) {
	if before != nil && !before(node) {
		return
	}
	walkChildren(node, before, after)
	if after != nil {
		after(node)
	}
}

func walkStmts(list []Stmt, before func(Node) bool, after func(Node)) {
	for _, s := range list {
		Walk(s, before, after)
	}
}

func walkExprs(list []Expr, before func(Node) bool, after func(Node)) {
	for _, e := range list {
		if e != nil {
			Walk(e, before, after)
		}
	}
}

func walkChildren(node Node, before func(Node) bool, after func(Node)) {
	switch n := node.(type) {
	case *File:
		walkStmts(n.Statements, before, after)
	case *String:
		for _, p := range n.Parts {
			if p.Expr != nil {
				Walk(p.Expr, before, after)
			}
		}
	case *ArrayLit:
		walkExprs(n.Elements, before, after)
	case *HashLit:
		for _, e := range n.Entries {
			Walk(e.Key, before, after)
			Walk(e.Value, before, after)
		}
	case *TypeExpr:
		walkExprs(n.Params, before, after)
	case *IfExpr:
		Walk(n.Cond, before, after)
		walkStmts(n.Then, before, after)
		for _, e := range n.Elsifs {
			Walk(e.Cond, before, after)
			walkStmts(e.Body, before, after)
		}
		walkStmts(n.Else, before, after)
	case *UnlessExpr:
		Walk(n.Cond, before, after)
		walkStmts(n.Then, before, after)
		walkStmts(n.Else, before, after)
	case *CaseExpr:
		Walk(n.Subject, before, after)
		for _, opt := range n.Options {
			walkExprs(opt.Values, before, after)
			walkStmts(opt.Body, before, after)
		}
	case *Lambda:
		for _, p := range n.Params {
			walkParam(p, before, after)
		}
		walkStmts(n.Body, before, after)
	case *FunctionCall:
		walkExprs(n.Args, before, after)
		if n.Block != nil {
			Walk(n.Block, before, after)
		}
	case *Resource:
		Walk(n.Type, before, after)
		for _, b := range n.Bodies {
			Walk(b.Title, before, after)
			walkAttrs(b.Attributes, before, after)
		}
	case *ResourceOverride:
		Walk(n.Reference, before, after)
		walkAttrs(n.Attributes, before, after)
	case *ResourceDefaults:
		Walk(n.Type, before, after)
		walkAttrs(n.Attributes, before, after)
	case *ClassDecl:
		for _, p := range n.Params {
			walkParam(p, before, after)
		}
		walkStmts(n.Body, before, after)
	case *DefinedTypeDecl:
		for _, p := range n.Params {
			walkParam(p, before, after)
		}
		walkStmts(n.Body, before, after)
	case *NodeDecl:
		walkExprs(n.Hosts, before, after)
		walkStmts(n.Body, before, after)
	case *CollectorQuery:
		Walk(n.Type, before, after)
		if n.Query != nil {
			Walk(n.Query, before, after)
		}
	case *FunctionDecl:
		for _, p := range n.Params {
			walkParam(p, before, after)
		}
		if n.ReturnType != nil {
			Walk(n.ReturnType, before, after)
		}
		walkStmts(n.Body, before, after)
	case *TypeAliasDecl:
		Walk(n.Type, before, after)
	case *ApplicationDecl:
		for _, p := range n.Params {
			walkParam(p, before, after)
		}
		walkStmts(n.Body, before, after)
	case *SiteDecl:
		walkStmts(n.Body, before, after)
	case *ProducesDecl, *ConsumesDecl:
		// capability mappings carry no nested expressions worth walking yet
	case *UnaryExpr:
		Walk(n.Operand, before, after)
	case *BinaryExpr:
		Walk(n.Left, before, after)
		for _, t := range n.Terms {
			Walk(t.Right, before, after)
		}
	case *Postfix:
		Walk(n.Primary, before, after)
		for _, op := range n.Chain {
			walkExprs(op.Index, before, after)
			walkExprs(op.Args, before, after)
			if op.Block != nil {
				Walk(op.Block, before, after)
			}
			for _, c := range op.Cases {
				if c.Value != nil {
					Walk(c.Value, before, after)
				}
				Walk(c.Result, before, after)
			}
		}
	}
}

func walkParam(p Param, before func(Node) bool, after func(Node)) {
	if p.Type != nil {
		Walk(p.Type, before, after)
	}
	if p.Default != nil {
		Walk(p.Default, before, after)
	}
}

func walkAttrs(attrs []Attribute, before func(Node) bool, after func(Node)) {
	for _, a := range attrs {
		Walk(a.Name, before, after)
		Walk(a.Value, before, after)
	}
}
