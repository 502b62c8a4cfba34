package sema

import "sigil/internal/ast"

type returnStatus uint8

const (
	returnOpen returnStatus = iota
	returnClosed
)

// returnsOnAllPaths reports whether control cannot fall off the end of
// stmts. Loops are treated as possibly skipping their body.
func returnsOnAllPaths(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if stmtStatus(s) == returnClosed {
			return true
		}
	}
	return false
}

func stmtStatus(s ast.Stmt) returnStatus {
	switch s := s.(type) {
	case *ast.ReturnStmt, *ast.ThrowStmt, *ast.RethrowStmt:
		return returnClosed
	case *ast.IfStmt:
		if !s.HasElse || !returnsOnAllPaths(s.Then) || !returnsOnAllPaths(s.Else) {
			return returnOpen
		}
		for _, ei := range s.ElseIfs {
			if !returnsOnAllPaths(ei.Body) {
				return returnOpen
			}
		}
		return returnClosed
	case *ast.WhileStmt:
		if isTrueLiteral(s.Cond) && !containsBreak(s.Body) {
			return returnClosed
		}
		return returnOpen
	case *ast.MatchStmt:
		catchAll := false
		for _, c := range s.Cases {
			if c.Inline || !returnsOnAllPaths(c.Body) {
				return returnOpen
			}
			if c.Guard == nil && ast.IsCatchAll(c.Pattern) {
				catchAll = true
			}
		}
		if catchAll {
			return returnClosed
		}
		return returnOpen
	case *ast.TryStmt:
		if s.HasFinally && returnsOnAllPaths(s.Finally) {
			return returnClosed
		}
		if !returnsOnAllPaths(s.Body) {
			return returnOpen
		}
		for _, c := range s.Catches {
			if !returnsOnAllPaths(c.Body) {
				return returnOpen
			}
		}
		return returnClosed
	case *ast.ResourceStmt:
		if returnsOnAllPaths(s.Body) {
			return returnClosed
		}
	}
	return returnOpen
}

func isTrueLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && lit.Kind == ast.LitBool && lit.Value == "true"
}

// containsBreak looks for a break that targets the enclosing loop, skipping
// nested loops.
func containsBreak(stmts []ast.Stmt) bool {
	found := false
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			if found {
				return false
			}
			switch n.(type) {
			case *ast.BreakStmt:
				found = true
				return false
			case *ast.LoopStmt, *ast.WhileStmt, *ast.ForeachStmt, ast.Expr:
				return false
			}
			return true
		})
	}
	return found
}
