package lexer

import (
	"sigil/internal/diag"
	"sigil/internal/token"
)

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	if lx.cursor.HasPrefix(arrowRune) {
		lx.cursor.Advance(len(arrowRune))
		return lx.tok(token.Arrow, start)
	}
	b := lx.cursor.Bump()
	kind := token.Invalid
	switch b {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case '.':
		kind = token.Dot
	case ',':
		kind = token.Comma
	case ':':
		kind = token.Colon
	case '_':
		kind = token.Underscore
	case '+':
		kind = token.Plus
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '%':
		kind = token.Percent
	case '-':
		kind = token.Minus
		if lx.cursor.Eat('>') {
			kind = token.Arrow
		}
	case '=':
		kind = token.Assign
		if lx.cursor.Eat('=') {
			kind = token.EqEq
		}
	case '!':
		kind = token.Bang
		if lx.cursor.Eat('=') {
			kind = token.BangEq
		}
	case '<':
		kind = token.Lt
		if lx.cursor.Eat('=') {
			kind = token.LtEq
		}
	case '>':
		kind = token.Gt
		if lx.cursor.Eat('=') {
			kind = token.GtEq
		}
	case '&':
		if lx.cursor.Eat('&') {
			kind = token.AndAnd
		}
	case '|':
		if lx.cursor.Eat('|') {
			kind = token.OrOr
		}
	}
	tok := lx.tok(kind, start)
	if kind == token.Invalid {
		lx.errLex(diag.LexUnknownChar, tok.Span, "unknown character '"+tok.Text+"'")
	}
	return tok
}
