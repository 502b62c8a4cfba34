package format

import (
	"strings"

	"sigil/internal/ast"
)

func (p *printer) printStmts(stmts []ast.Stmt) {
	for _, st := range stmts {
		p.printStmt(st)
	}
}

// block prints an indented statement list.
func (p *printer) block(stmts []ast.Stmt) {
	p.writer.IndentPush()
	p.printStmts(stmts)
	p.writer.IndentPop()
}

// operand appends " expr" to the current line.
func (p *printer) operand(e ast.Expr) {
	p.writer.WriteString(" " + Expr(e))
}

func (p *printer) printStmt(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.BindStmt:
		name := st.Name
		if st.Mutable {
			name = "~" + name
		}
		if st.Type != nil {
			p.marker("B", Type(st.Type), name)
		} else {
			p.marker("B", name)
		}
		if st.Value != nil {
			p.operand(st.Value)
		} else {
			p.exprOpen = true
		}
	case *ast.AssignStmt:
		p.marker("AS", target(st.Target))
		p.operand(st.Value)
	case *ast.ReturnStmt:
		p.marker("R")
		if st.Value != nil {
			p.operand(st.Value)
		} else {
			p.exprOpen = true
		}
	case *ast.IfStmt:
		p.marker("IF", st.BlockID)
		p.operand(st.Cond)
		p.block(st.Then)
		for _, ei := range st.ElseIfs {
			p.marker("EI")
			p.operand(ei.Cond)
			p.block(ei.Body)
		}
		if st.HasElse {
			p.marker("EL")
			p.block(st.Else)
		}
		p.closeMarker("IF", st.BlockID)
	case *ast.LoopStmt:
		p.marker("L", st.BlockID, st.Var)
		p.operand(st.From)
		p.operand(st.To)
		if st.Step != nil {
			p.operand(st.Step)
		} else {
			p.exprOpen = true
		}
		p.block(st.Body)
		p.closeMarker("L", st.BlockID)
	case *ast.WhileStmt:
		p.marker("WH", st.BlockID)
		p.operand(st.Cond)
		p.block(st.Body)
		p.closeMarker("WH", st.BlockID)
	case *ast.ForeachStmt:
		if st.Index != "" {
			p.marker("FE", st.BlockID, st.Index, st.Item)
		} else {
			p.marker("FE", st.BlockID, st.Item)
		}
		p.operand(st.Collection)
		p.block(st.Body)
		p.closeMarker("FE", st.BlockID)
	case *ast.MatchStmt:
		p.marker("W", st.BlockID)
		p.operand(st.Subject)
		p.writer.IndentPush()
		for _, c := range st.Cases {
			p.printCase(c)
		}
		p.writer.IndentPop()
		p.closeMarker("W", st.BlockID)
	case *ast.TryStmt:
		p.marker("TR", st.BlockID)
		p.block(st.Body)
		for _, c := range st.Catches {
			p.marker("CA", c.Type, c.Var)
			if c.Guard != nil {
				p.writer.WriteString(" when")
				p.operand(c.Guard)
			}
			p.block(c.Body)
		}
		if st.HasFinally {
			p.marker("FI")
			p.block(st.Finally)
		}
		p.closeMarker("TR", st.BlockID)
	case *ast.ResourceStmt:
		p.marker("US", st.BlockID, st.Name)
		p.operand(st.Value)
		p.block(st.Body)
		p.closeMarker("US", st.BlockID)
	case *ast.ThrowStmt:
		p.marker("TH")
		p.operand(st.Value)
	case *ast.RethrowStmt:
		p.marker("RT")
	case *ast.YieldStmt:
		p.marker("YI")
		p.operand(st.Value)
	case *ast.YieldBreakStmt:
		p.marker("YB")
	case *ast.PrintStmt:
		p.marker("P")
		p.operand(st.Value)
	case *ast.BreakStmt:
		p.marker("BK")
	case *ast.ContinueStmt:
		p.marker("CN")
	case *ast.ExprStmt:
		text := Expr(st.X)
		if st.Marked || p.exprOpen || !strings.HasPrefix(text, "(") {
			p.marker("C")
			p.writer.WriteString(" " + text)
			return
		}
		p.writer.Newline()
		p.writer.WriteString(text)
	case *ast.RawStmt:
		p.printRaw(st.Text)
		p.exprOpen = false
	}
}

func (p *printer) printCase(c *ast.MatchCase) {
	p.marker("K")
	p.writer.WriteString(" " + Pattern(c.Pattern))
	if c.Guard != nil {
		p.writer.WriteString(" when")
		p.operand(c.Guard)
	}
	if c.Inline {
		p.writer.WriteString(" ->")
		p.operand(c.Value)
		return
	}
	p.block(c.Body)
}

// target spells an assignment target the way §AS{...} expects it.
func target(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Name:
		return e.Name
	case *ast.This:
		return "this"
	case *ast.MemberExpr:
		return target(e.X) + "." + e.Name
	}
	return Expr(e)
}
