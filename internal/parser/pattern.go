package parser

import (
	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/token"
)

var relOps = map[token.Kind]ast.Op{
	token.Lt: ast.OpLt, token.LtEq: ast.OpLe, token.Gt: ast.OpGt, token.GtEq: ast.OpGe,
}

// parsePattern parses one match pattern. On error it reports InvalidPattern
// and returns a wildcard so the match can still be checked.
func (p *Parser) parsePattern() ast.Pattern {
	tok := p.peek()
	switch tok.Kind {
	case token.Underscore:
		p.advance()
		return &ast.WildcardPat{Meta: p.metaAt(tok.Span)}
	case token.IntLit, token.FloatLit, token.DecLit, token.StringLit, token.BoolLit:
		lit := p.parseLiteral()
		return &ast.LiteralPat{Meta: p.metaAt(tok.Span), Value: lit}
	case token.Ident:
		p.advance()
		if p.at(token.Dot) && p.peekN(1).Kind == token.Ident {
			p.advance()
			member := p.advance()
			return &ast.EnumPat{Meta: p.meta(tok.Span), Type: tok.Value, Member: member.Value}
		}
		return &ast.BindPat{Meta: p.metaAt(tok.Span), Name: tok.Value}
	case token.KwNone:
		p.advance()
		return &ast.VariantPat{Meta: p.metaAt(tok.Span), Kind: ast.VariantNone}
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		p.advance()
		if !p.peek().IsLiteral() {
			p.err(diag.SynInvalidPattern, "relational pattern needs a literal operand")
			return &ast.WildcardPat{Meta: p.metaAt(tok.Span)}
		}
		lit := p.parseLiteral()
		return &ast.RelPat{Meta: p.meta(tok.Span), Op: relOps[tok.Kind], Value: lit}
	case token.LParen:
		return p.parseVariantPattern()
	}
	p.err(diag.SynInvalidPattern, "expected a pattern, found "+describe(tok))
	if !p.atBoundary() {
		p.advance()
	}
	return &ast.WildcardPat{Meta: p.metaAt(tok.Span)}
}

// parseVariantPattern parses (some p), (ok p), (err p) and (none).
func (p *Parser) parseVariantPattern() ast.Pattern {
	open := p.advance()
	kw := p.peek()
	vp := &ast.VariantPat{}
	switch kw.Kind {
	case token.KwSome:
		vp.Kind = ast.VariantSome
	case token.KwOk:
		vp.Kind = ast.VariantOk
	case token.KwErr:
		vp.Kind = ast.VariantErr
	case token.KwNone:
		vp.Kind = ast.VariantNone
	default:
		p.err(diag.SynInvalidPattern, "expected some, none, ok or err in pattern, found "+describe(kw))
		p.skipForm()
		return &ast.WildcardPat{Meta: p.meta(open.Span)}
	}
	p.advance()
	if vp.Kind != ast.VariantNone {
		if p.at(token.RParen) {
			p.err(diag.SynInvalidPattern, "'"+vp.Kind.String()+"' pattern needs an inner pattern")
		} else {
			vp.Inner = p.parsePattern()
		}
	}
	p.closeForm(open)
	vp.Meta = p.meta(open.Span)
	return vp
}
