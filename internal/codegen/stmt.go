package codegen

import (
	"sigil/internal/ast"
	"sigil/internal/types"
)

func (g *generator) stmts(list []ast.Stmt) {
	for _, st := range list {
		g.stmt(st)
	}
}

// block writes a braced, indented statement list.
func (g *generator) block(list []ast.Stmt) {
	g.open()
	g.stmts(list)
	g.close("")
}

func (g *generator) stmt(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.BindStmt:
		g.bind(st)
	case *ast.AssignStmt:
		g.emitLinef("%s = %s;", g.expr(st.Target), g.exprTyped(st.Value, g.typeOf(st.Target)))
	case *ast.ReturnStmt:
		g.ret(st)
	case *ast.IfStmt:
		g.emitLinef("if (%s)", g.expr(st.Cond))
		g.block(st.Then)
		for _, ei := range st.ElseIfs {
			g.emitLinef("else if (%s)", g.expr(ei.Cond))
			g.block(ei.Body)
		}
		if st.HasElse {
			g.emitLine("else")
			g.block(st.Else)
		}
	case *ast.LoopStmt:
		step := st.Var + "++"
		if st.Step != nil {
			step = st.Var + " += " + g.expr(st.Step)
		}
		g.emitLinef("for (var %s = %s; %s <= %s; %s)", st.Var, g.expr(st.From), st.Var, g.expr(st.To), step)
		g.block(st.Body)
	case *ast.WhileStmt:
		g.emitLinef("while (%s)", g.expr(st.Cond))
		g.block(st.Body)
	case *ast.ForeachStmt:
		if st.Index != "" {
			g.emitLinef("foreach (var (%[1]s, %[2]s) in %[3]s.Select((%[2]s, %[1]s) => (%[1]s, %[2]s)))",
				st.Index, st.Item, g.operand(st.Collection))
		} else {
			g.emitLinef("foreach (var %s in %s)", st.Item, g.expr(st.Collection))
		}
		g.block(st.Body)
	case *ast.MatchStmt:
		g.switchStmt(st)
	case *ast.TryStmt:
		g.emitLine("try")
		g.block(st.Body)
		for _, c := range st.Catches {
			head := "catch"
			switch {
			case c.Type != "" && c.Var != "":
				head += " (" + c.Type + " " + c.Var + ")"
			case c.Type != "":
				head += " (" + c.Type + ")"
			}
			if c.Guard != nil {
				head += " when (" + g.expr(c.Guard) + ")"
			}
			g.emitLine(head)
			g.block(c.Body)
		}
		if st.HasFinally {
			g.emitLine("finally")
			g.block(st.Finally)
		}
	case *ast.ResourceStmt:
		g.emitLinef("using (var %s = %s)", st.Name, g.expr(st.Value))
		g.block(st.Body)
	case *ast.ThrowStmt:
		g.emitLinef("throw %s;", g.expr(st.Value))
	case *ast.RethrowStmt:
		g.emitLine("throw;")
	case *ast.YieldStmt:
		g.emitLinef("yield return %s;", g.expr(st.Value))
	case *ast.YieldBreakStmt:
		g.emitLine("yield break;")
	case *ast.PrintStmt:
		g.emitLinef("Console.WriteLine(%s);", g.expr(st.Value))
	case *ast.BreakStmt:
		g.emitLine("break;")
	case *ast.ContinueStmt:
		g.emitLine("continue;")
	case *ast.ExprStmt:
		g.emitLine(g.expr(st.X) + ";")
	case *ast.RawStmt:
		g.raw(st.Text)
	}
}

func (g *generator) bind(st *ast.BindStmt) {
	want := g.bindType(st)
	typ := "var"
	if st.Type != nil {
		typ = g.typeRef(st.Type)
	}
	if st.Value == nil {
		if st.Type == nil {
			typ = g.typeID(want)
		}
		g.emitLinef("%s %s = default;", typ, st.Name)
		return
	}
	if st.Type == nil {
		if _, ok := st.Value.(*ast.VariantExpr); ok && want != types.NoTypeID {
			// None alone does not say which Option it is
			typ = g.typeID(want)
		}
	}
	g.emitLinef("%s %s = %s;", typ, st.Name, g.exprTyped(st.Value, want))
}

// bindType is the checked type of the local a bind introduces.
func (g *generator) bindType(st *ast.BindStmt) types.TypeID {
	if g.opts.Symbols == nil || g.opts.Sema == nil {
		return types.NoTypeID
	}
	if sym, ok := g.opts.Symbols.DeclOf(st); ok {
		return g.opts.Sema.SymbolTypes[sym.ID]
	}
	return types.NoTypeID
}

// ret writes a return, routing the value through __result when
// postconditions must see it. Each check gets its own block so the
// temporary never clashes with another return in an enclosing scope.
func (g *generator) ret(st *ast.ReturnStmt) {
	st0 := g.fn
	if st0 == nil || len(st0.ensures) == 0 || st0.iterator {
		if st.Value == nil {
			g.emitLine("return;")
			return
		}
		g.emitLinef("return %s;", g.returnValue(st.Value))
		return
	}
	g.open()
	if st.Value == nil {
		g.postconditions("")
		g.emitLine("return;")
	} else {
		g.emitLinef("%s __result = %s;", st0.result, g.returnValue(st.Value))
		g.postconditions("__result")
		g.emitLine("return __result;")
	}
	g.close("")
}

func (g *generator) returnValue(v ast.Expr) string {
	if g.fn != nil && g.fn.decl != nil && g.fn.decl.Output != nil {
		return g.exprTyped(v, g.resolve(g.fn.decl.Output))
	}
	return g.expr(v)
}

// switchStmt writes a match as a C# switch statement. Each section gets
// its own block so locals bound in different arms do not collide.
func (g *generator) switchStmt(st *ast.MatchStmt) {
	g.emitLinef("switch (%s)", g.expr(st.Subject))
	g.open()
	for _, c := range st.Cases {
		g.emitLine(g.caseLabel(c.Pattern, c.Guard))
		g.open()
		if c.Inline {
			g.emitLine(g.expr(c.Value) + ";")
			g.emitLine("break;")
		} else {
			g.stmts(c.Body)
			if !terminates(c.Body) {
				g.emitLine("break;")
			}
		}
		g.close("")
	}
	g.close("")
}

func (g *generator) caseLabel(p ast.Pattern, guard ast.Expr) string {
	if _, ok := p.(*ast.WildcardPat); ok {
		if guard == nil {
			return "default:"
		}
		return "case var _ when " + g.expr(guard) + ":"
	}
	label := "case " + g.pattern(p)
	if guard != nil {
		label += " when " + g.expr(guard)
	}
	return label + ":"
}

// terminates reports whether a case body ends in a jump, so no break is
// needed after it.
func terminates(body []ast.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	switch body[len(body)-1].(type) {
	case *ast.ReturnStmt, *ast.ThrowStmt, *ast.RethrowStmt, *ast.BreakStmt, *ast.ContinueStmt, *ast.YieldBreakStmt:
		return true
	}
	return false
}
