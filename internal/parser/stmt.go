package parser

import (
	"fmt"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
	"sigil/internal/token"
)

// parseBlockStmts reads statements until a closing marker, EOF or one of
// the given clause markers (e.g. §EI/§EL inside an if).
func (p *Parser) parseBlockStmts(stop ...token.Kind) []ast.Stmt {
	var out []ast.Stmt
	for {
		tok := p.peek()
		if tok.Kind == token.EOF || tok.Is(stop...) {
			return out
		}
		if tok.Kind == token.Close {
			if p.strayClose() {
				continue
			}
			return out
		}
		if st := p.parseStmt(); st != nil {
			out = append(out, st)
		}
	}
}

// parseStmt parses one statement; it returns nil after reporting an error.
func (p *Parser) parseStmt() ast.Stmt {
	tok := p.peek()
	switch tok.Kind {
	case token.MkBind:
		return p.parseBind()
	case token.MkAssign:
		return p.parseAssign()
	case token.MkReturn:
		p.advance()
		st := &ast.ReturnStmt{}
		if p.startsExpr() {
			st.Value = p.parseExpr()
		}
		st.Meta = p.meta(tok.Span)
		return st
	case token.MkIf:
		return p.parseIf()
	case token.MkLoop:
		return p.parseLoop()
	case token.MkWhile:
		return p.parseWhile()
	case token.MkForeach:
		return p.parseForeach()
	case token.MkMatch:
		return p.parseMatchStmt()
	case token.MkTry:
		return p.parseTry()
	case token.MkResource:
		return p.parseResource()
	case token.MkThrow:
		p.advance()
		return &ast.ThrowStmt{Value: p.parseExpr(), Meta: p.meta(tok.Span)}
	case token.MkRethrow:
		p.advance()
		return &ast.RethrowStmt{Meta: p.metaAt(tok.Span)}
	case token.MkYield:
		p.advance()
		return &ast.YieldStmt{Value: p.parseExpr(), Meta: p.meta(tok.Span)}
	case token.MkYieldBreak:
		p.advance()
		return &ast.YieldBreakStmt{Meta: p.metaAt(tok.Span)}
	case token.MkPrint:
		p.advance()
		return &ast.PrintStmt{Value: p.parseExpr(), Meta: p.meta(tok.Span)}
	case token.MkBreak:
		p.advance()
		return &ast.BreakStmt{Meta: p.metaAt(tok.Span)}
	case token.MkContinue:
		p.advance()
		return &ast.ContinueStmt{Meta: p.metaAt(tok.Span)}
	case token.MkCall:
		p.advance()
		return &ast.ExprStmt{X: p.parseExpr(), Marked: true, Meta: p.meta(tok.Span)}
	case token.LParen:
		x := p.parseExpr()
		return &ast.ExprStmt{X: x, Meta: p.meta(tok.Span)}
	case token.RawBlock:
		p.advance()
		return &ast.RawStmt{Meta: p.metaAt(tok.Span), Text: tok.Value}
	case token.MkElseIf, token.MkElse, token.MkCase, token.MkCatch, token.MkFinally:
		p.errAt(diag.SynMisplacedClause, tok.Span, describe(tok)+" is only valid inside its enclosing block")
		p.skipStray()
		return nil
	}
	if isHeaderClause(tok.Kind) {
		p.errAt(diag.SynMisplacedClause, tok.Span, describe(tok)+" is only valid in a function header")
	} else {
		p.err(diag.SynUnexpectedToken, "expected a statement, found "+describe(tok))
	}
	p.skipStray()
	return nil
}

// parseBind parses §B{[type:][~]name} [value].
func (p *Parser) parseBind() ast.Stmt {
	tok := p.advance()
	fields := attrFields(tok)
	st := &ast.BindStmt{}
	switch len(fields) {
	case 0:
		p.requireFields(tok, fields, 1, "a name: §B{name} or §B{type:name}")
	case 1:
		st.Name = fields[0]
	default:
		st.Type = p.parseTypeString(fields[0], attrsSpan(tok))
		st.Name = fields[1]
		if len(fields) > 2 {
			p.errAt(diag.SynInvalidModifier, attrsSpan(tok), "unexpected '"+strings.Join(fields[2:], ":")+"' in §B")
		}
	}
	if strings.HasPrefix(st.Name, "~") {
		st.Mutable = true
		st.Name = strings.TrimSpace(st.Name[1:])
	}
	if st.Name == "" && len(fields) > 0 {
		p.errAt(diag.SynMissingRequiredAttribute, attrsSpan(tok), "§B requires a name")
	}
	if p.startsExpr() {
		st.Value = p.parseExpr()
	} else if st.Type == nil {
		p.err(diag.SynExpectExpression, fmt.Sprintf("binding %s needs a type or an initial value", st.Name))
	}
	st.Meta = p.meta(tok.Span)
	return st
}

// parseAssign parses §AS{target} value, where target is name or this.field.
func (p *Parser) parseAssign() ast.Stmt {
	tok := p.advance()
	fields := attrFields(tok)
	st := &ast.AssignStmt{}
	if p.requireFields(tok, fields, 1, "a target: §AS{name}") {
		st.Target = p.targetExpr(fields[0], attrsSpan(tok))
	} else {
		st.Target = &ast.BadExpr{Meta: p.metaAt(tok.Span)}
	}
	st.Value = p.parseExpr()
	st.Meta = p.meta(tok.Span)
	return st
}

// targetExpr turns "a.b.c" or "this.x" into a member chain.
func (p *Parser) targetExpr(text string, sp source.Span) ast.Expr {
	parts := strings.Split(text, ".")
	var x ast.Expr
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if !isIdentText(part) {
			p.errAt(diag.SynExpectExpression, sp, fmt.Sprintf("invalid assignment target '%s'", text))
			return &ast.BadExpr{Meta: p.metaAt(sp)}
		}
		switch {
		case i == 0 && part == "this":
			x = &ast.This{Meta: p.metaAt(sp)}
		case i == 0:
			x = &ast.Name{Meta: p.metaAt(sp), Name: part}
		default:
			x = &ast.MemberExpr{Meta: p.metaAt(sp), X: x, Name: part}
		}
	}
	return x
}

func isIdentText(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= 0x80 || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

// blockID extracts and validates the first attribute of a block marker.
func (p *Parser) blockID(tok token.Token, fields []string, what string) string {
	if p.requireFields(tok, fields, 1, what) {
		return fields[0]
	}
	return ""
}

func (p *Parser) parseIf() ast.Stmt {
	open := p.advance()
	st := &ast.IfStmt{BlockID: p.blockID(open, attrFields(open), "an id: §IF{id} cond")}
	st.Cond = p.parseExpr()
	blk := p.pushBlock(open, st.BlockID)
	st.Then = p.parseBlockStmts(token.MkElseIf, token.MkElse)
	for p.at(token.MkElseIf) || p.at(token.MkElse) {
		tok := p.advance()
		if st.HasElse {
			p.errAt(diag.SynMisplacedClause, tok.Span, describe(tok)+" after §EL")
		}
		if tok.Kind == token.MkElseIf {
			ei := &ast.ElseIf{Cond: p.parseExpr()}
			ei.Body = p.parseBlockStmts(token.MkElseIf, token.MkElse)
			ei.Meta = p.meta(tok.Span)
			st.ElseIfs = append(st.ElseIfs, ei)
			continue
		}
		st.HasElse = true
		st.Else = append(st.Else, p.parseBlockStmts(token.MkElseIf, token.MkElse)...)
	}
	p.closeBlock(blk)
	st.Meta = p.meta(open.Span)
	return st
}

// parseLoop parses §L{id:var} from to [step] ... §/L{id}.
func (p *Parser) parseLoop() ast.Stmt {
	open := p.advance()
	fields := attrFields(open)
	st := &ast.LoopStmt{}
	if p.requireFields(open, fields, 2, "an id and a variable: §L{id:i} from to") {
		st.BlockID, st.Var = fields[0], fields[1]
	} else if len(fields) > 0 {
		st.BlockID = fields[0]
	}
	st.From = p.parseExpr()
	st.To = p.parseExpr()
	if p.startsExpr() {
		st.Step = p.parseExpr()
	}
	blk := p.pushBlock(open, st.BlockID)
	st.Body = p.parseBlockStmts()
	p.closeBlock(blk)
	st.Meta = p.meta(open.Span)
	return st
}

func (p *Parser) parseWhile() ast.Stmt {
	open := p.advance()
	st := &ast.WhileStmt{BlockID: p.blockID(open, attrFields(open), "an id: §WH{id} cond")}
	st.Cond = p.parseExpr()
	blk := p.pushBlock(open, st.BlockID)
	st.Body = p.parseBlockStmts()
	p.closeBlock(blk)
	st.Meta = p.meta(open.Span)
	return st
}

// parseForeach parses §FE{id:[index:]item} collection ... §/FE{id}.
func (p *Parser) parseForeach() ast.Stmt {
	open := p.advance()
	fields := attrFields(open)
	st := &ast.ForeachStmt{}
	switch {
	case len(fields) >= 3:
		st.BlockID, st.Index, st.Item = fields[0], fields[1], fields[2]
	case p.requireFields(open, fields, 2, "an id and an item name: §FE{id:item} collection"):
		st.BlockID, st.Item = fields[0], fields[1]
	case len(fields) > 0:
		st.BlockID = fields[0]
	}
	st.Collection = p.parseExpr()
	blk := p.pushBlock(open, st.BlockID)
	st.Body = p.parseBlockStmts()
	p.closeBlock(blk)
	st.Meta = p.meta(open.Span)
	return st
}

// parseMatchStmt parses §W{id} subject §K ... §/W{id}.
func (p *Parser) parseMatchStmt() ast.Stmt {
	open := p.advance()
	st := &ast.MatchStmt{BlockID: p.blockID(open, attrFields(open), "an id: §W{id} subject")}
	st.Subject = p.parseExpr()
	blk := p.pushBlock(open, st.BlockID)
	for !p.at(token.EOF) {
		tok := p.peek()
		if tok.Kind == token.Close {
			if p.strayClose() {
				continue
			}
			break
		}
		if tok.Kind != token.MkCase {
			p.err(diag.SynUnexpectedToken, "expected §K case, found "+describe(tok))
			p.skipStray()
			continue
		}
		st.Cases = append(st.Cases, p.parseCase())
	}
	p.closeBlock(blk)
	st.Meta = p.meta(open.Span)
	return st
}

// parseCase parses §K pattern [when guard] (-> expr | statements...).
func (p *Parser) parseCase() *ast.MatchCase {
	tok := p.advance()
	c := &ast.MatchCase{Pattern: p.parsePattern()}
	if p.at(token.KwWhen) {
		p.advance()
		c.Guard = p.parseExpr()
	}
	if p.at(token.Arrow) {
		p.advance()
		c.Inline = true
		c.Value = p.parseExpr()
	} else {
		c.Body = p.parseBlockStmts(token.MkCase)
	}
	c.Meta = p.meta(tok.Span)
	return c
}

// parseTry parses §TR{id} ... §CA{[Type[:var]]} [when g] ... §FI ... §/TR{id}.
func (p *Parser) parseTry() ast.Stmt {
	open := p.advance()
	st := &ast.TryStmt{BlockID: p.blockID(open, attrFields(open), "an id: §TR{id}")}
	blk := p.pushBlock(open, st.BlockID)
	st.Body = p.parseBlockStmts(token.MkCatch, token.MkFinally)
	for p.at(token.MkCatch) || p.at(token.MkFinally) {
		tok := p.advance()
		if st.HasFinally {
			p.errAt(diag.SynMisplacedClause, tok.Span, describe(tok)+" after §FI")
		}
		if tok.Kind == token.MkFinally {
			st.HasFinally = true
			st.Finally = append(st.Finally, p.parseBlockStmts(token.MkCatch, token.MkFinally)...)
			continue
		}
		cc := &ast.CatchClause{}
		fields := attrFields(tok)
		if len(fields) > 0 {
			cc.Type = fields[0]
		}
		if len(fields) > 1 {
			cc.Var = fields[1]
		}
		if p.at(token.KwWhen) {
			p.advance()
			cc.Guard = p.parseExpr()
		}
		cc.Body = p.parseBlockStmts(token.MkCatch, token.MkFinally)
		cc.Meta = p.meta(tok.Span)
		st.Catches = append(st.Catches, cc)
	}
	if len(st.Catches) == 0 && !st.HasFinally {
		p.errAt(diag.SynMissingRequiredAttribute, open.Span, "§TR needs at least one §CA or a §FI")
	}
	p.closeBlock(blk)
	st.Meta = p.meta(open.Span)
	return st
}

// parseResource parses §US{id:name} value ... §/US{id}.
func (p *Parser) parseResource() ast.Stmt {
	open := p.advance()
	fields := attrFields(open)
	st := &ast.ResourceStmt{}
	if p.requireFields(open, fields, 2, "an id and a name: §US{id:name} value") {
		st.BlockID, st.Name = fields[0], fields[1]
	} else if len(fields) > 0 {
		st.BlockID = fields[0]
	}
	st.Value = p.parseExpr()
	blk := p.pushBlock(open, st.BlockID)
	st.Body = p.parseBlockStmts()
	p.closeBlock(blk)
	st.Meta = p.meta(open.Span)
	return st
}
