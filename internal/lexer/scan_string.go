package lexer

import (
	"strings"

	"sigil/internal/diag"
	"sigil/internal/token"
)

// scanString reads "..." and decodes escapes into Value. The escape set is
// closed: \" \\ \n \t \r \0. Anything else is reported and kept literally
// so later passes still see a string.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote
	var val strings.Builder
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case '"':
			lx.cursor.Bump()
			tok := lx.tok(token.StringLit, start)
			tok.Value = val.String()
			return tok
		case '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedString, sp, "newline in string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		case '\\':
			escStart := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.scanEscape(escStart, &val)
		default:
			val.WriteByte(lx.cursor.Bump())
		}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

func (lx *Lexer) scanEscape(escStart Mark, val *strings.Builder) {
	if lx.cursor.EOF() {
		return
	}
	switch c := lx.cursor.Bump(); c {
	case 'n':
		val.WriteByte('\n')
	case 't':
		val.WriteByte('\t')
	case 'r':
		val.WriteByte('\r')
	case '0':
		val.WriteByte(0)
	case '\\', '"':
		val.WriteByte(c)
	default:
		if c == '\n' {
			lx.cursor.Reset(escStart + 1)
		}
		sp := lx.cursor.SpanFrom(escStart)
		lx.errLex(diag.LexInvalidEscape, sp, "invalid escape sequence "+lx.text(sp))
		val.WriteString(lx.text(sp))
	}
}
