package lexer

import (
	"sigil/internal/diag"
	"sigil/internal/token"
)

// scanNumber reads [-]digits[.digits][(e|E)[+-]digits]. The kind is IntLit
// unless a fraction or exponent is present.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Eat('-')
	kind := token.IntLit
	lx.digits()
	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		lx.cursor.Bump()
		lx.digits()
		kind = token.FloatLit
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		mark := lx.cursor.Mark()
		lx.cursor.Bump()
		if s := lx.cursor.Peek(); s == '+' || s == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			lx.cursor.Reset(mark)
			return lx.badNumber(start, "exponent has no digits")
		}
		lx.digits()
		kind = token.FloatLit
	}
	if isIdentContinueByte(lx.cursor.Peek()) {
		return lx.badNumber(start, "invalid digit or suffix in number")
	}
	return lx.tok(kind, start)
}

func (lx *Lexer) digits() {
	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) badNumber(start Mark, why string) token.Token {
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexBadNumber, sp, "malformed number "+lx.text(sp)+": "+why)
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
