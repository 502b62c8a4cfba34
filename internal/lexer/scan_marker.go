package lexer

import (
	"strings"

	"sigil/internal/diag"
	"sigil/internal/token"
)

// scanMarker reads §TAG{attrs}, §/TAG{attrs} or a whole §RAW ... §/RAW block.
func (lx *Lexer) scanMarker() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Advance(len(sectionSign))
	closing := lx.cursor.Eat('/')
	tagStart := lx.cursor.Off
	for isUpper(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	tag := string(lx.file.Content[tagStart:lx.cursor.Off])

	info, ok := token.LookupMarker(tag)
	if !ok {
		// swallow the rest of the word so "§foo" is one error, not two
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownMarker, sp, "unknown block marker "+lx.text(sp))
		tok := token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		lx.scanAttrs(&tok)
		return tok
	}

	if info.Kind == token.MkRaw && !closing {
		return lx.scanPassthrough(start)
	}

	tok := lx.tok(info.Kind, start)
	if closing {
		tok.Kind = token.Close
		tok.Closes = info.Kind
	}
	lx.scanAttrs(&tok)
	return tok
}

// scanAttrs attaches a brace payload written directly after a marker.
// Quotes and nested braces are honoured; the inner text is kept raw and
// split by the parser.
func (lx *Lexer) scanAttrs(tok *token.Token) {
	if lx.cursor.Peek() != '{' {
		return
	}
	open := lx.cursor.Mark()
	lx.cursor.Bump()
	inner := lx.cursor.Off
	depth := 1
	inString := false
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		switch {
		case inString && b == '\\':
			lx.cursor.Bump()
		case b == '"':
			inString = !inString
		case inString:
		case b == '{':
			depth++
		case b == '}':
			depth--
			if depth == 0 {
				tok.HasAttrs = true
				tok.Attrs = string(lx.file.Content[inner : lx.cursor.Off-1])
				tok.AttrsSpan = lx.cursor.SpanFrom(open)
				tok.Span = tok.Span.Cover(tok.AttrsSpan)
				tok.Text = lx.text(tok.Span)
				return
			}
		case b == '\n':
			// attribute lists are single-line; stop here and report
			lx.cursor.Reset(Mark(lx.cursor.Off - 1))
			lx.unterminatedAttrs(tok, open, inner)
			return
		}
	}
	lx.unterminatedAttrs(tok, open, inner)
}

func (lx *Lexer) unterminatedAttrs(tok *token.Token, open Mark, inner uint32) {
	sp := lx.cursor.SpanFrom(open)
	lx.errLex(diag.LexUnterminatedAttributes, sp, "unterminated attribute list: expected '}'")
	tok.HasAttrs = true
	tok.Attrs = string(lx.file.Content[inner:lx.cursor.Off])
	tok.AttrsSpan = sp
	tok.Span = tok.Span.Cover(sp)
	tok.Text = lx.text(tok.Span)
}

// scanPassthrough consumes everything up to the closing §/RAW (or §/CSHARP).
func (lx *Lexer) scanPassthrough(start Mark) token.Token {
	info, _ := token.MarkerOf(token.MkRaw)
	body := lx.cursor.Off
	for !lx.cursor.EOF() {
		if lx.cursor.HasPrefix(sectionSign + "/") {
			end := lx.cursor.Off
			mark := lx.cursor.Mark()
			lx.cursor.Advance(len(sectionSign) + 1)
			tagStart := lx.cursor.Off
			for isUpper(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			tag := string(lx.file.Content[tagStart:lx.cursor.Off])
			if tag == info.Short || tag == info.Long {
				tok := lx.tok(token.RawBlock, start)
				tok.Value = string(lx.file.Content[body:end])
				return tok
			}
			lx.cursor.Reset(mark)
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedPassthrough, sp,
		"unterminated passthrough block: expected "+sectionSign+"/"+info.Short)
	return token.Token{
		Kind:  token.RawBlock,
		Span:  sp,
		Text:  lx.text(sp),
		Value: strings.TrimRight(string(lx.file.Content[body:lx.cursor.Off]), " \t\n"),
	}
}
