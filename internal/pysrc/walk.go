package pysrc

// Inspect traverses the tree rooted at n in depth-first order, calling fn
// for every node before its children. Children are skipped when fn
// returns false. Nil nodes are never passed to fn.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	exprs := func(list []Expr) {
		for _, e := range list {
			Inspect(e, fn)
		}
	}
	stmts := func(list []Stmt) {
		for _, s := range list {
			Inspect(s, fn)
		}
	}
	params := func(p *Params) {
		if p == nil {
			return
		}
		for _, a := range p.Args {
			Inspect(a.Default, fn)
		}
		for _, a := range p.KwOnly {
			Inspect(a.Default, fn)
		}
	}
	keywords := func(list []*Keyword) {
		for _, k := range list {
			Inspect(k.Value, fn)
		}
	}

	switch n := n.(type) {
	case *Module:
		stmts(n.Body)
	case *Attribute:
		Inspect(n.X, fn)
	case *Subscript:
		Inspect(n.X, fn)
		Inspect(n.Index, fn)
	case *Slice:
		Inspect(n.Lo, fn)
		Inspect(n.Hi, fn)
		Inspect(n.Step, fn)
	case *Call:
		Inspect(n.Func, fn)
		exprs(n.Args)
		keywords(n.Keywords)
	case *Starred:
		Inspect(n.X, fn)
	case *BinOp:
		Inspect(n.X, fn)
		Inspect(n.Y, fn)
	case *UnaryOp:
		Inspect(n.X, fn)
	case *BoolOp:
		exprs(n.Values)
	case *Compare:
		Inspect(n.X, fn)
		exprs(n.Comparators)
	case *IfExp:
		Inspect(n.Test, fn)
		Inspect(n.Body, fn)
		Inspect(n.Else, fn)
	case *Lambda:
		params(n.Params)
		Inspect(n.Body, fn)
	case *NamedExpr:
		Inspect(n.Target, fn)
		Inspect(n.Value, fn)
	case *List:
		exprs(n.Elts)
	case *Tuple:
		exprs(n.Elts)
	case *Set:
		exprs(n.Elts)
	case *Dict:
		for i := range n.Keys {
			Inspect(n.Keys[i], fn)
			Inspect(n.Values[i], fn)
		}
	case *Comp:
		for _, g := range n.Generators {
			Inspect(g.Iter, fn)
			Inspect(g.Target, fn)
			exprs(g.Ifs)
		}
		Inspect(n.Elt, fn)
		Inspect(n.Value, fn)
	case *Yield:
		Inspect(n.Value, fn)
	case *Await:
		Inspect(n.X, fn)

	case *ExprStmt:
		Inspect(n.X, fn)
	case *Assign:
		exprs(n.Targets)
		Inspect(n.Value, fn)
	case *AugAssign:
		Inspect(n.Target, fn)
		Inspect(n.Value, fn)
	case *AnnAssign:
		Inspect(n.Target, fn)
		Inspect(n.Annotation, fn)
		Inspect(n.Value, fn)
	case *If:
		Inspect(n.Test, fn)
		stmts(n.Body)
		stmts(n.Else)
	case *For:
		Inspect(n.Target, fn)
		Inspect(n.Iter, fn)
		stmts(n.Body)
		stmts(n.Else)
	case *While:
		Inspect(n.Test, fn)
		stmts(n.Body)
		stmts(n.Else)
	case *With:
		for _, item := range n.Items {
			Inspect(item.Context, fn)
			Inspect(item.Target, fn)
		}
		stmts(n.Body)
	case *Try:
		stmts(n.Body)
		for _, h := range n.Handlers {
			Inspect(h.Type, fn)
			stmts(h.Body)
		}
		stmts(n.Else)
		stmts(n.Finally)
	case *FunctionDef:
		exprs(n.Decorators)
		params(n.Params)
		stmts(n.Body)
	case *ClassDef:
		exprs(n.Decorators)
		exprs(n.Bases)
		keywords(n.Keywords)
		stmts(n.Body)
	case *Return:
		Inspect(n.Value, fn)
	case *Raise:
		Inspect(n.Exc, fn)
		Inspect(n.Cause, fn)
	case *Assert:
		Inspect(n.Test, fn)
		Inspect(n.Msg, fn)
	case *Delete:
		exprs(n.Targets)
	}
}
