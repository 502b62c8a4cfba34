package ast

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false the children of that node are skipped. Nil nodes are never passed to f.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Module:
		for _, u := range n.Usings {
			Inspect(u, f)
		}
		for _, a := range n.Attrs {
			Inspect(a, f)
		}
		for _, d := range n.Decls {
			Inspect(d, f)
		}
	case *FuncDecl:
		for _, a := range n.Attrs {
			Inspect(a, f)
		}
		for _, p := range n.Params {
			Inspect(p, f)
		}
		inspectType(n.Output, f)
		if n.Effects != nil {
			Inspect(n.Effects, f)
		}
		for _, c := range n.Requires {
			Inspect(c, f)
		}
		for _, c := range n.Ensures {
			Inspect(c, f)
		}
		inspectStmts(n.Body, f)
	case *Param:
		inspectType(n.Type, f)
	case *EffectDecl:
		for _, it := range n.Items {
			Inspect(it, f)
		}
	case *Contract:
		inspectExpr(n.Cond, f)
	case *ClassDecl:
		for _, a := range n.Attrs {
			Inspect(a, f)
		}
		for _, i := range n.Implements {
			Inspect(i, f)
		}
		for _, m := range n.Members {
			Inspect(m, f)
		}
	case *FieldDecl:
		inspectType(n.Type, f)
		inspectExpr(n.Init, f)
	case *InterfaceDecl:
		for _, a := range n.Attrs {
			Inspect(a, f)
		}
		for _, m := range n.Methods {
			Inspect(m, f)
		}
	case *EnumDecl:
		inspectType(n.Underlying, f)
		for _, m := range n.Members {
			Inspect(m, f)
		}
	case *EnumMember:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *ExtensionDecl:
		for _, m := range n.Methods {
			Inspect(m, f)
		}
	case *TypeRef:
		for _, a := range n.Args {
			Inspect(a, f)
		}
		inspectType(n.Elem, f)

	case *BindStmt:
		inspectType(n.Type, f)
		inspectExpr(n.Value, f)
	case *AssignStmt:
		inspectExpr(n.Target, f)
		inspectExpr(n.Value, f)
	case *ReturnStmt:
		inspectExpr(n.Value, f)
	case *IfStmt:
		inspectExpr(n.Cond, f)
		inspectStmts(n.Then, f)
		for _, ei := range n.ElseIfs {
			Inspect(ei, f)
		}
		inspectStmts(n.Else, f)
	case *ElseIf:
		inspectExpr(n.Cond, f)
		inspectStmts(n.Body, f)
	case *LoopStmt:
		inspectExpr(n.From, f)
		inspectExpr(n.To, f)
		inspectExpr(n.Step, f)
		inspectStmts(n.Body, f)
	case *WhileStmt:
		inspectExpr(n.Cond, f)
		inspectStmts(n.Body, f)
	case *ForeachStmt:
		inspectExpr(n.Collection, f)
		inspectStmts(n.Body, f)
	case *MatchStmt:
		inspectExpr(n.Subject, f)
		for _, c := range n.Cases {
			Inspect(c, f)
		}
	case *MatchCase:
		inspectPattern(n.Pattern, f)
		inspectExpr(n.Guard, f)
		inspectExpr(n.Value, f)
		inspectStmts(n.Body, f)
	case *TryStmt:
		inspectStmts(n.Body, f)
		for _, c := range n.Catches {
			Inspect(c, f)
		}
		inspectStmts(n.Finally, f)
	case *CatchClause:
		inspectExpr(n.Guard, f)
		inspectStmts(n.Body, f)
	case *ThrowStmt:
		inspectExpr(n.Value, f)
	case *ResourceStmt:
		inspectExpr(n.Value, f)
		inspectStmts(n.Body, f)
	case *YieldStmt:
		inspectExpr(n.Value, f)
	case *PrintStmt:
		inspectExpr(n.Value, f)
	case *ExprStmt:
		inspectExpr(n.X, f)

	case *MemberExpr:
		inspectExpr(n.X, f)
	case *Binary:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *Unary:
		inspectExpr(n.X, f)
	case *Call:
		inspectExpr(n.Callee, f)
		inspectExprs(n.Args, f)
	case *NewExpr:
		inspectType(n.Type, f)
		inspectExprs(n.Args, f)
		for _, in := range n.Inits {
			Inspect(in, f)
		}
	case *FieldInit:
		inspectExpr(n.Value, f)
	case *ArrayExpr:
		inspectType(n.Elem, f)
		inspectExprs(n.Elems, f)
		inspectExpr(n.Size, f)
	case *VariantExpr:
		inspectExpr(n.X, f)
	case *Lambda:
		for _, p := range n.Params {
			Inspect(p, f)
		}
		inspectExpr(n.Body, f)
	case *LambdaParam:
		inspectType(n.Type, f)
	case *MatchExpr:
		inspectExpr(n.Subject, f)
		for _, a := range n.Arms {
			Inspect(a, f)
		}
	case *MatchArm:
		inspectPattern(n.Pattern, f)
		inspectExpr(n.Guard, f)
		inspectExpr(n.Value, f)
	case *CastExpr:
		inspectType(n.Type, f)
		inspectExpr(n.X, f)
	case *AwaitExpr:
		inspectExpr(n.X, f)

	case *LiteralPat:
		Inspect(n.Value, f)
	case *RelPat:
		Inspect(n.Value, f)
	case *VariantPat:
		inspectPattern(n.Inner, f)
	}
}

func inspectStmts(list []Stmt, f func(Node) bool) {
	for _, s := range list {
		Inspect(s, f)
	}
}

func inspectExprs(list []Expr, f func(Node) bool) {
	for _, e := range list {
		inspectExpr(e, f)
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectPattern(p Pattern, f func(Node) bool) {
	if p != nil {
		Inspect(p, f)
	}
}

func inspectType(t *TypeRef, f func(Node) bool) {
	if t != nil {
		Inspect(t, f)
	}
}

// isNil catches typed nil pointers stored in the Node interface.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Literal:
		return v == nil
	case *TypeRef:
		return v == nil
	case *EffectDecl:
		return v == nil
	}
	return false
}
