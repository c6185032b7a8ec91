package sqlparse

// WalkExprs visits every expression node reachable from stmt in source
// order, depth-first.
func WalkExprs(stmt Statement, fn func(Expr)) {
	walkStatement(stmt, fn)
}

// walkStatement visits every expression node reachable from stmt in
// source order.
func walkStatement(stmt Statement, fn func(Expr)) {
	switch s := stmt.(type) {
	case *SelectStatement:
		for _, item := range s.Items {
			walkExpr(item.Expr, fn)
		}
		walkExpr(s.Where, fn)
		for _, g := range s.GroupBy {
			walkExpr(g, fn)
		}
		walkExpr(s.Having, fn)
		for _, o := range s.OrderBy {
			walkExpr(o.Expr, fn)
		}
		walkExpr(s.Limit, fn)
		walkExpr(s.Offset, fn)
	case *InsertStatement:
		for _, row := range s.Rows {
			for _, e := range row {
				walkExpr(e, fn)
			}
		}
		for _, d := range s.Docs {
			walkExpr(d, fn)
		}
	case *UpdateStatement:
		for _, set := range s.Sets {
			walkExpr(set.Value, fn)
		}
		walkExpr(s.Where, fn)
	case *DeleteStatement:
		walkExpr(s.Where, fn)
	}
}

// walkExpr visits e and its children depth-first.
func walkExpr(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case *Binary:
		walkExpr(x.Left, fn)
		walkExpr(x.Right, fn)
	case *Not:
		walkExpr(x.Expr, fn)
	case *Paren:
		walkExpr(x.Expr, fn)
	case *IsNull:
		walkExpr(x.Expr, fn)
	case *In:
		walkExpr(x.Expr, fn)
		for _, elem := range x.List {
			walkExpr(elem, fn)
		}
	case *FuncCall:
		for _, arg := range x.Args {
			walkExpr(arg, fn)
		}
	}
}
