package sema

import (
	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

func (tc *typeChecker) checkStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		tc.checkStmt(s)
	}
}

func (tc *typeChecker) checkStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BindStmt:
		tc.checkBind(s)
	case *ast.AssignStmt:
		tc.checkAssign(s)
	case *ast.ReturnStmt:
		tc.checkReturn(s)
	case *ast.IfStmt:
		tc.checkCondition(s.Cond)
		tc.checkStmts(s.Then)
		for _, ei := range s.ElseIfs {
			tc.checkCondition(ei.Cond)
			tc.checkStmts(ei.Body)
		}
		tc.checkStmts(s.Else)
	case *ast.WhileStmt:
		tc.checkCondition(s.Cond)
		tc.checkLoopBody(s.Body)
	case *ast.LoopStmt:
		tc.checkCountedLoop(s)
	case *ast.ForeachStmt:
		tc.checkForeach(s)
	case *ast.MatchStmt:
		subject := tc.checkExpr(s.Subject, types.NoTypeID)
		for _, c := range s.Cases {
			tc.checkPattern(c.Pattern, subject)
			if c.Guard != nil {
				tc.checkCondition(c.Guard)
			}
			if c.Value != nil {
				tc.checkExpr(c.Value, types.NoTypeID)
			}
			tc.checkStmts(c.Body)
		}
	case *ast.TryStmt:
		tc.checkStmts(s.Body)
		for _, c := range s.Catches {
			if c.Var != "" {
				if sym, ok := tc.table.DeclOf(c); ok {
					name := c.Type
					if name == "" {
						name = "Exception"
					}
					tc.result.SymbolTypes[sym.ID] = tc.catchType(c, name)
				}
			}
			if c.Guard != nil {
				tc.checkCondition(c.Guard)
			}
			tc.checkStmts(c.Body)
		}
		tc.checkStmts(s.Finally)
	case *ast.ThrowStmt:
		t := tc.u.Resolve(tc.checkExpr(s.Value, types.NoTypeID))
		switch tc.in.KindOf(t) {
		case types.KindNamed, types.KindExternal, types.KindVar, types.KindInvalid:
		default:
			tc.report(diag.SemaTypeMismatch, s.Value.NodeSpan(), "throw requires an exception object, got %s", tc.typeLabel(t))
		}
	case *ast.ResourceStmt:
		t := tc.checkExpr(s.Value, types.NoTypeID)
		if sym, ok := tc.table.DeclOf(s); ok {
			tc.result.SymbolTypes[sym.ID] = t
		}
		tc.checkStmts(s.Body)
	case *ast.YieldStmt:
		tc.checkYield(s)
	case *ast.PrintStmt:
		tc.checkExpr(s.Value, types.NoTypeID)
	case *ast.ExprStmt:
		tc.checkExpr(s.X, types.NoTypeID)
	case *ast.BreakStmt:
		if tc.loopDepth == 0 {
			tc.report(diag.SemaBreakOutsideLoop, s.Span, "break outside of a loop")
		}
	case *ast.ContinueStmt:
		if tc.loopDepth == 0 {
			tc.report(diag.SemaBreakOutsideLoop, s.Span, "continue outside of a loop")
		}
	case *ast.RethrowStmt, *ast.YieldBreakStmt, *ast.RawStmt:
	}
}

func (tc *typeChecker) catchType(c *ast.CatchClause, name string) types.TypeID {
	if sym, ok := tc.table.Ref(c); ok {
		if id, found := tc.result.SymbolTypes[sym.ID]; found {
			return id
		}
	}
	return tc.in.External(name)
}

func (tc *typeChecker) checkLoopBody(body []ast.Stmt) {
	tc.loopDepth++
	tc.checkStmts(body)
	tc.loopDepth--
}

func (tc *typeChecker) checkBind(s *ast.BindStmt) {
	var declared types.TypeID
	if s.Type != nil {
		declared = tc.resolveType(s.Type)
	}
	t := declared
	if s.Value != nil {
		got := tc.checkExpr(s.Value, declared)
		if declared != types.NoTypeID {
			tc.requireAssignable(s.Value, got, declared, "binding '"+s.Name+"'")
		} else {
			if tc.u.Resolve(got) == tc.b.Void {
				tc.report(diag.SemaTypeMismatch, s.Value.NodeSpan(), "cannot bind '%s' to a value of type void", s.Name)
				got = tc.b.Invalid
			}
			t = got
		}
	}
	if t == types.NoTypeID {
		t = tc.u.NewVar()
	}
	if sym, ok := tc.table.DeclOf(s); ok && sym.Decl == ast.Node(s) {
		tc.result.SymbolTypes[sym.ID] = t
	}
}

func (tc *typeChecker) checkAssign(s *ast.AssignStmt) {
	target := tc.checkExpr(s.Target, types.NoTypeID)
	tc.checkMutable(s.Target)
	got := tc.checkExpr(s.Value, target)
	tc.requireAssignable(s.Value, got, target, "assignment")
}

// checkMutable reports assignments to parameters, immutable locals,
// readonly fields and anything that is not a storage location.
func (tc *typeChecker) checkMutable(target ast.Expr) {
	sym, ok := tc.table.Ref(target)
	if !ok {
		if m, isMember := target.(*ast.MemberExpr); isMember {
			if f, found := tc.fieldOf(m); found && f.Readonly {
				tc.report(diag.SemaAssignToImmutable, target.NodeSpan(), "cannot assign to readonly field '%s'", f.Name)
			}
		}
		return
	}
	switch sym.Kind {
	case symbols.SymbolLocal, symbols.SymbolParam, symbols.SymbolField:
		if sym.Mutable() {
			return
		}
	case symbols.SymbolExternal, symbols.SymbolFallback:
		return
	}
	b := diag.ReportError(tc.reporter, diag.SemaAssignToImmutable, target.NodeSpan(),
		"cannot assign to immutable "+sym.Kind.String()+" '"+sym.Name+"'")
	switch sym.Kind {
	case symbols.SymbolLocal:
		b.WithNote(sym.Span, "declare it mutable with §B{~"+sym.Name+"}")
	default:
		if sym.Span != (source.Span{}) {
			b.WithNote(sym.Span, "declared here")
		}
	}
	b.Emit()
}

func (tc *typeChecker) checkReturn(s *ast.ReturnStmt) {
	ctx := tc.fn
	if ctx == nil {
		return
	}
	if ctx.iterator {
		if s.Value != nil {
			tc.checkExpr(s.Value, types.NoTypeID)
			tc.report(diag.SemaIteratorReturnsValue, s.Span,
				"iterator '%s' cannot return a value; use §YI to yield items and §YB to stop", ctx.decl.Name)
		}
		return
	}
	if s.Value == nil {
		if ctx.result != tc.b.Void {
			tc.report(diag.SemaMissingReturnValue, s.Span, "return without a value in function '%s' returning %s", ctx.decl.Name, tc.typeLabel(ctx.result))
		}
		return
	}
	if ctx.result == tc.b.Void {
		tc.checkExpr(s.Value, types.NoTypeID)
		tc.report(diag.SemaTypeMismatch, s.Value.NodeSpan(), "function '%s' has no output but returns a value", ctx.decl.Name)
		return
	}
	got := tc.checkExpr(s.Value, ctx.result)
	tc.requireAssignable(s.Value, got, ctx.result, "return value")
}

func (tc *typeChecker) checkYield(s *ast.YieldStmt) {
	ctx := tc.fn
	if ctx == nil || !ctx.iterator {
		tc.checkExpr(s.Value, types.NoTypeID)
		return
	}
	got := tc.checkExpr(s.Value, ctx.elem)
	tc.requireAssignable(s.Value, got, ctx.elem, "yielded value")
}

func (tc *typeChecker) checkCondition(cond ast.Expr) {
	if cond == nil {
		return
	}
	t := tc.u.Resolve(tc.checkExpr(cond, tc.b.Bool))
	if tc.in.KindOf(t) == types.KindVar {
		tc.u.Unify(t, tc.b.Bool)
		return
	}
	if t != tc.b.Bool && !tc.isInvalid(t) {
		tc.report(diag.SemaNonBoolCondition, cond.NodeSpan(), "condition must be bool, got %s", tc.typeLabel(t))
	}
}

func (tc *typeChecker) checkCountedLoop(s *ast.LoopStmt) {
	from := tc.checkExpr(s.From, types.NoTypeID)
	to := tc.checkExpr(s.To, from)
	varType := tc.b.I32
	if t, ok := tc.in.Promote(tc.u.Resolve(from), tc.u.Resolve(to)); ok {
		varType = t
	}
	for _, e := range []ast.Expr{s.From, s.To, s.Step} {
		if e == nil {
			continue
		}
		t := tc.u.Resolve(tc.result.ExprTypes[e.NodeID()])
		if e == s.Step {
			t = tc.u.Resolve(tc.checkExpr(s.Step, varType))
		}
		if !tc.isInvalid(t) && tc.in.KindOf(t) != types.KindVar && !tc.in.KindOf(t).IsInteger() {
			tc.report(diag.SemaTypeMismatch, e.NodeSpan(), "loop bounds must be integers, got %s", tc.typeLabel(t))
		}
	}
	if sym, ok := tc.table.DeclOf(s); ok {
		tc.result.SymbolTypes[sym.ID] = varType
	}
	tc.checkLoopBody(s.Body)
}

func (tc *typeChecker) checkForeach(s *ast.ForeachStmt) {
	coll := tc.u.Resolve(tc.checkExpr(s.Collection, types.NoTypeID))
	elem := tc.elementType(coll)
	if elem == types.NoTypeID {
		tc.report(diag.SemaTypeMismatch, s.Collection.NodeSpan(), "cannot iterate over %s", tc.typeLabel(coll))
		elem = tc.b.Invalid
	}
	if scope, ok := tc.table.Scopes[s.ID]; ok {
		if sc := tc.table.Scope(scope); sc != nil {
			if id, found := sc.NameIndex[s.Item]; found {
				tc.result.SymbolTypes[id] = elem
			}
			if s.Index != "" {
				if id, found := sc.NameIndex[s.Index]; found {
					tc.result.SymbolTypes[id] = tc.b.I32
				}
			}
		}
	}
	tc.checkLoopBody(s.Body)
}

// elementType returns what iterating over t yields, NoTypeID when t is not
// iterable.
func (tc *typeChecker) elementType(t types.TypeID) types.TypeID {
	tt, ok := tc.in.Lookup(t)
	if !ok {
		return types.NoTypeID
	}
	switch tt.Kind {
	case types.KindArray:
		return tt.Elem
	case types.KindString:
		return tc.in.External("char")
	case types.KindExternal:
		info, _ := tc.in.ExternalInfo(t)
		if len(info.Args) == 1 {
			return info.Args[0]
		}
		return tc.u.NewVar()
	case types.KindVar, types.KindInvalid:
		return tc.u.NewVar()
	}
	return types.NoTypeID
}

func containsYield(stmts []ast.Stmt) bool {
	found := false
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			switch n.(type) {
			case *ast.YieldStmt, *ast.YieldBreakStmt:
				found = true
			case ast.Expr:
				return false
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

func containsRaw(stmts []ast.Stmt) bool {
	found := false
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			if _, ok := n.(*ast.RawStmt); ok {
				found = true
			}
			return !found
		})
	}
	return found
}
