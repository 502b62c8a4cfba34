package lexer

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"sigil/internal/diag"
	"sigil/internal/token"
)

func (lx *Lexer) peekRune() (rune, int) {
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:lx.cursor.Limit])
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	r, size := lx.peekRune()
	if r != '_' && !unicode.IsLetter(r) {
		lx.cursor.Advance(size)
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unknown character "+quoteRune(r))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	ascii := true
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r, size := lx.peekRune()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) {
			break
		}
		ascii = false
		lx.cursor.Advance(size)
	}

	tok := lx.tok(token.Ident, start)
	if !ascii {
		// composed and decomposed spellings must bind to the same name
		tok.Value = norm.NFC.String(tok.Text)
	}
	if kind, ok := token.LookupLiteralTag(tok.Text); ok && lx.cursor.Peek() == ':' {
		return lx.scanTypedLiteral(kind, start)
	}
	if kind, ok := token.LookupKeyword(tok.Value); ok {
		tok.Kind = kind
	}
	return tok
}

// scanTypedLiteral handles INT:42, FLOAT:1.5, DEC:-3, STR:"x" and BOOL:true.
// The tag has been consumed; the cursor sits on ':'.
func (lx *Lexer) scanTypedLiteral(kind token.Kind, start Mark) token.Token {
	lx.cursor.Bump() // ':'
	var payload token.Token
	bad := false
	switch kind {
	case token.StringLit:
		if lx.cursor.Peek() != '"' {
			bad = true
			break
		}
		payload = lx.scanString()
		bad = payload.Kind != token.StringLit
	case token.BoolLit:
		switch {
		case lx.cursor.HasPrefix("true"):
			lx.cursor.Advance(4)
			payload.Value = "true"
		case lx.cursor.HasPrefix("false"):
			lx.cursor.Advance(5)
			payload.Value = "false"
		default:
			bad = true
		}
		bad = bad || isIdentContinueByte(lx.cursor.Peek())
	default:
		b := lx.cursor.Peek()
		if !isDec(b) && !(b == '-' && isDec(lx.cursor.PeekAt(1))) {
			bad = true
			break
		}
		payload = lx.scanNumber()
		switch {
		case payload.Kind == token.Invalid:
			bad = true
		case kind == token.IntLit && payload.Kind != token.IntLit:
			bad = true
		}
	}

	sp := lx.cursor.SpanFrom(start)
	if bad {
		for isIdentContinueByte(lx.cursor.Peek()) || lx.cursor.Peek() == '.' {
			lx.cursor.Bump()
		}
		sp = lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexBadTypedLiteral, sp, "malformed typed literal "+lx.text(sp))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp), Value: payload.Value, Tagged: true}
}

func quoteRune(r rune) string {
	if r == utf8.RuneError {
		return "(invalid UTF-8)"
	}
	return "'" + string(r) + "'"
}
