package parser

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/token"
)

// startsExpr reports whether the current token can begin an expression.
func (p *Parser) startsExpr() bool {
	switch p.peek().Kind {
	case token.IntLit, token.FloatLit, token.DecLit, token.StringLit, token.BoolLit,
		token.Ident, token.LParen, token.KwThis, token.KwNone:
		return true
	}
	return false
}

var opTable = map[token.Kind]ast.Op{
	token.Plus: ast.OpAdd, token.Minus: ast.OpSub, token.Star: ast.OpMul,
	token.Slash: ast.OpDiv, token.Percent: ast.OpMod,
	token.EqEq: ast.OpEq, token.BangEq: ast.OpNe,
	token.Lt: ast.OpLt, token.LtEq: ast.OpLe, token.Gt: ast.OpGt, token.GtEq: ast.OpGe,
	token.AndAnd: ast.OpAnd, token.OrOr: ast.OpOr, token.Bang: ast.OpNot,
}

func (p *Parser) parseExpr() ast.Expr {
	x := p.parsePrimary()
	return p.parsePostfix(x)
}

// parsePostfix handles member access on any primary: (f x).Length.
func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for p.at(token.Dot) && p.peekN(1).Kind == token.Ident {
		p.advance()
		name := p.advance()
		x = &ast.MemberExpr{X: x, Name: name.Value, Meta: p.meta(x.NodeSpan())}
	}
	return x
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLit, token.FloatLit, token.DecLit, token.StringLit, token.BoolLit:
		return p.parseLiteral()
	case token.Ident:
		p.advance()
		return &ast.Name{Meta: p.metaAt(tok.Span), Name: tok.Value}
	case token.KwThis:
		p.advance()
		return &ast.This{Meta: p.metaAt(tok.Span)}
	case token.KwNone:
		p.advance()
		return &ast.VariantExpr{Meta: p.metaAt(tok.Span), Kind: ast.VariantNone}
	case token.LParen:
		return p.parseForm()
	}
	p.err(diag.SynExpectExpression, "expected expression, found "+describe(tok))
	if !p.atBoundary() {
		p.advance()
	}
	return &ast.BadExpr{Meta: p.metaAt(tok.Span)}
}

func (p *Parser) parseLiteral() *ast.Literal {
	tok := p.advance()
	lit := &ast.Literal{Meta: p.metaAt(tok.Span), Value: tok.Value, Tagged: tok.Tagged}
	switch tok.Kind {
	case token.IntLit:
		lit.Kind = ast.LitInt
	case token.FloatLit:
		lit.Kind = ast.LitFloat
	case token.DecLit:
		lit.Kind = ast.LitDec
	case token.StringLit:
		lit.Kind = ast.LitString
	default:
		lit.Kind = ast.LitBool
	}
	return lit
}

// parseForm parses a parenthesised form. The head decides its meaning:
// an operator, a keyword form, or otherwise a call.
func (p *Parser) parseForm() ast.Expr {
	open := p.advance()
	head := p.peek()

	var x ast.Expr
	switch {
	case head.Kind.IsOperator():
		x = p.parseOperatorForm(open)
	case head.Kind == token.KwNew:
		x = p.parseNew(open)
	case head.Kind == token.KwArray:
		x = p.parseArray(open)
	case head.Is(token.KwSome, token.KwOk, token.KwErr, token.KwNone):
		x = p.parseVariant(open)
	case head.Kind == token.KwLambda:
		x = p.parseLambda(open)
	case head.Kind == token.KwMatch:
		x = p.parseMatchExpr(open)
	case head.Kind == token.KwCast:
		p.advance()
		t := p.parseTypeTokens()
		inner := p.parseExpr()
		x = &ast.CastExpr{Type: t, X: inner}
	case head.Kind == token.KwAwait:
		p.advance()
		x = &ast.AwaitExpr{X: p.parseExpr()}
	case head.Kind == token.RParen:
		p.err(diag.SynExpectExpression, "empty form '()'")
		p.advance()
		return &ast.BadExpr{Meta: p.meta(open.Span)}
	default:
		callee := p.parseExpr()
		args := p.parseArgs()
		x = &ast.Call{Callee: callee, Args: args}
	}
	p.closeForm(open)
	setMeta(x, p.meta(open.Span))
	return x
}

// parseArgs reads expressions until ')' or a marker boundary.
func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	for !p.at(token.RParen) && !p.atBoundary() {
		args = append(args, p.parseExpr())
	}
	return args
}

func (p *Parser) closeForm(open token.Token) {
	if p.at(token.RParen) {
		p.advance()
		return
	}
	p.report(diag.SynUnexpectedToken, diag.SevError, p.diagSpan(),
		"expected ')' to close the form, found "+describe(p.peek())).
		WithNote(open.Span, "form opened here").Emit()
	p.skipForm()
}

// skipForm skips to and past the ')' closing the current form, stopping
// early at a marker boundary.
func (p *Parser) skipForm() {
	depth := 0
	for !p.atBoundary() {
		switch p.peek().Kind {
		case token.LParen:
			depth++
		case token.RParen:
			if depth == 0 {
				p.advance()
				return
			}
			depth--
		}
		p.advance()
	}
}

func (p *Parser) parseOperatorForm(open token.Token) ast.Expr {
	opTok := p.advance()
	op := opTable[opTok.Kind]
	operands := p.parseArgs()

	switch {
	case len(operands) == 0:
		p.errAt(diag.SynExpectExpression, opTok.Span, fmt.Sprintf("operator '%s' needs operands", op))
		return &ast.BadExpr{}
	case len(operands) == 1:
		switch op {
		case ast.OpSub:
			return &ast.Unary{Op: ast.OpNeg, X: operands[0]}
		case ast.OpNot:
			return &ast.Unary{Op: ast.OpNot, X: operands[0]}
		}
		p.errAt(diag.SynExpectExpression, opTok.Span, fmt.Sprintf("operator '%s' needs two operands", op))
		return &ast.BadExpr{}
	case op == ast.OpNot:
		p.errAt(diag.SynUnexpectedToken, opTok.Span, "operator '!' takes exactly one operand")
		return &ast.Unary{Op: ast.OpNot, X: operands[0]}
	case op.IsComparison() && len(operands) != 2:
		p.errAt(diag.SynUnexpectedToken, opTok.Span, fmt.Sprintf("comparison '%s' takes exactly two operands", op))
	}

	// n-ary arithmetic and logic fold to the left: (+ a b c) == (+ (+ a b) c)
	x := operands[0]
	for i, rhs := range operands[1:] {
		b := &ast.Binary{Op: op, Left: x, Right: rhs}
		if i < len(operands)-2 {
			b.Meta = p.metaAt(open.Span.Cover(rhs.NodeSpan()))
		}
		x = b
	}
	return x
}

// parseNew parses (new Type args... Field=value...).
func (p *Parser) parseNew(open token.Token) ast.Expr {
	p.advance()
	n := &ast.NewExpr{Type: p.parseTypeTokens()}
	for !p.at(token.RParen) && !p.atBoundary() {
		if p.at(token.Ident) && p.peekN(1).Kind == token.Assign {
			name := p.advance()
			p.advance()
			fi := &ast.FieldInit{Name: name.Value, Value: p.parseExpr()}
			fi.Meta = p.meta(name.Span)
			n.Inits = append(n.Inits, fi)
			continue
		}
		if len(n.Inits) > 0 {
			p.err(diag.SynUnexpectedToken, "positional argument after field initialisers")
		}
		n.Args = append(n.Args, p.parseExpr())
	}
	return n
}

// parseArray parses (array T [e...]) or (array T size).
func (p *Parser) parseArray(open token.Token) ast.Expr {
	p.advance()
	a := &ast.ArrayExpr{Elem: p.parseTypeTokens()}
	if a.Elem.IsArray() && p.at(token.RParen) {
		// (array T []) lexes its empty element list as an array suffix
		a.Elem = a.Elem.Elem
		a.Elems = []ast.Expr{}
		return a
	}
	if p.at(token.LBracket) {
		p.advance()
		for !p.at(token.RBracket) && !p.atBoundary() && !p.at(token.RParen) {
			a.Elems = append(a.Elems, p.parseExpr())
		}
		p.expect(token.RBracket, "expected ']' after array elements")
		if a.Elems == nil {
			a.Elems = []ast.Expr{}
		}
		return a
	}
	if p.startsExpr() {
		a.Size = p.parseExpr()
		return a
	}
	p.err(diag.SynExpectExpression, "array needs an element list [..] or a size")
	return a
}

func (p *Parser) parseVariant(open token.Token) ast.Expr {
	kw := p.advance()
	v := &ast.VariantExpr{}
	switch kw.Kind {
	case token.KwSome:
		v.Kind = ast.VariantSome
	case token.KwOk:
		v.Kind = ast.VariantOk
	case token.KwErr:
		v.Kind = ast.VariantErr
	case token.KwNone:
		v.Kind = ast.VariantNone
		return v
	}
	if !p.startsExpr() {
		p.err(diag.SynExpectExpression, fmt.Sprintf("'%s' needs a value", v.Kind))
		return v
	}
	v.X = p.parseExpr()
	return v
}

// parseLambda parses (lambda [a b:i32] body).
func (p *Parser) parseLambda(open token.Token) ast.Expr {
	p.advance()
	l := &ast.Lambda{}
	if _, ok := p.expect(token.LBracket, "expected '[' to start lambda parameters"); ok {
		for p.at(token.Ident) {
			name := p.advance()
			lp := &ast.LambdaParam{Name: name.Value}
			if p.at(token.Colon) {
				p.advance()
				lp.Type = p.parseTypeTokens()
			}
			lp.Meta = p.meta(name.Span)
			l.Params = append(l.Params, lp)
		}
		p.expect(token.RBracket, "expected ']' to end lambda parameters")
	}
	l.Body = p.parseExpr()
	return l
}

// parseMatchExpr parses (match x [pattern [when g] -> value] ...).
func (p *Parser) parseMatchExpr(open token.Token) ast.Expr {
	p.advance()
	m := &ast.MatchExpr{Subject: p.parseExpr()}
	for p.at(token.LBracket) {
		armOpen := p.advance()
		arm := &ast.MatchArm{Pattern: p.parsePattern()}
		if p.at(token.KwWhen) {
			p.advance()
			arm.Guard = p.parseExpr()
		}
		p.expect(token.Arrow, "expected '->' in match arm")
		arm.Value = p.parseExpr()
		p.expect(token.RBracket, "expected ']' to close match arm")
		arm.Meta = p.meta(armOpen.Span)
		m.Arms = append(m.Arms, arm)
	}
	if len(m.Arms) == 0 {
		p.err(diag.SynExpectExpression, "match expression needs at least one arm [pattern -> value]")
	}
	return m
}

// setMeta assigns the node id and span once the closing paren is known.
func setMeta(x ast.Expr, m ast.Meta) {
	switch n := x.(type) {
	case *ast.Binary:
		n.Meta = m
	case *ast.Unary:
		n.Meta = m
	case *ast.Call:
		n.Meta = m
	case *ast.NewExpr:
		n.Meta = m
	case *ast.ArrayExpr:
		n.Meta = m
	case *ast.VariantExpr:
		n.Meta = m
	case *ast.Lambda:
		n.Meta = m
	case *ast.MatchExpr:
		n.Meta = m
	case *ast.CastExpr:
		n.Meta = m
	case *ast.AwaitExpr:
		n.Meta = m
	case *ast.BadExpr:
		n.Meta = m
	}
}
