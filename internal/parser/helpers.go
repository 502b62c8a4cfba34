package parser

import (
	"fmt"
	"strings"

	"sigil/internal/diag"
	"sigil/internal/source"
	"sigil/internal/token"
)

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) *diag.ReportBuilder {
	if p.opts.Reporter == nil {
		return nil
	}
	if sev == diag.SevError {
		if p.opts.Enough() {
			return nil
		}
		p.opts.CurrentErrors++
	}
	return diag.NewReportBuilder(p.opts.Reporter, sev, code, sp, msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	p.report(code, diag.SevError, sp, msg).Emit()
}

// err reports at the current token.
func (p *Parser) err(code diag.Code, msg string) {
	p.errAt(code, p.diagSpan(), msg)
}

// diagSpan is the current token span, or the end of the previous token at EOF.
func (p *Parser) diagSpan() source.Span {
	tok := p.peek()
	if tok.Kind == token.EOF {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return tok.Span
}

func (p *Parser) expect(k token.Kind, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(diag.SynUnexpectedToken, fmt.Sprintf("%s, found %s", msg, describe(p.peek())))
	return token.Token{Kind: token.Invalid, Span: p.diagSpan()}, false
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Close:
		return "§/" + markerShort(tok.Closes)
	}
	if tok.Kind.IsMarker() {
		return "§" + markerShort(tok.Kind)
	}
	if tok.Text != "" {
		return "'" + tok.Text + "'"
	}
	return tok.Kind.String()
}

func markerShort(k token.Kind) string {
	if info, ok := token.MarkerOf(k); ok {
		return info.Short
	}
	return "?"
}

// atBoundary reports whether the current token ends an expression-level
// construct: any marker, closing marker, passthrough or EOF.
func (p *Parser) atBoundary() bool {
	tok := p.peek()
	return tok.Kind.IsMarker() || tok.Kind == token.Close || tok.Kind == token.RawBlock || tok.Kind == token.EOF
}

// resyncToMarker skips tokens until the next marker boundary.
func (p *Parser) resyncToMarker() {
	for !p.atBoundary() {
		p.advance()
	}
}

// splitAttrs splits a raw attribute payload on sep, ignoring separators
// inside quotes and <> () [] nesting. Fields are trimmed.
func splitAttrs(raw string, sep byte) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '<' || c == '(' || c == '[':
			depth++
		case (c == '>' || c == ')' || c == ']') && depth > 0:
			depth--
		case c == sep && depth == 0:
			out = append(out, strings.TrimSpace(raw[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(raw[start:]))
}

// attrFields returns the ':'-separated fields of a marker payload.
func attrFields(tok token.Token) []string {
	if !tok.HasAttrs {
		return nil
	}
	return splitAttrs(tok.Attrs, ':')
}

// attrsSpan points diagnostics at the payload when there is one.
func attrsSpan(tok token.Token) source.Span {
	if tok.HasAttrs {
		return tok.AttrsSpan
	}
	return tok.Span
}

// requireFields checks that a marker has at least n non-empty fields.
func (p *Parser) requireFields(tok token.Token, fields []string, n int, what string) bool {
	if len(fields) >= n {
		ok := true
		for _, f := range fields[:n] {
			if f == "" {
				ok = false
			}
		}
		if ok {
			return true
		}
	}
	p.errAt(diag.SynMissingRequiredAttribute, attrsSpan(tok),
		fmt.Sprintf("§%s requires %s", markerShort(tok.Kind), what))
	return false
}

// pushBlock records an open block and returns it for closeBlock.
func (p *Parser) pushBlock(tok token.Token, id string) openBlock {
	b := openBlock{kind: tok.Kind, id: id, span: tok.Span}
	p.open = append(p.open, b)
	return b
}

// closeBlock consumes the closing marker of b, reporting kind and id
// mismatches. A closing marker that belongs to an enclosing block is left
// in place so the outer construct can still close cleanly.
func (p *Parser) closeBlock(b openBlock) {
	defer func() { p.open = p.open[:len(p.open)-1] }()
	info, _ := token.MarkerOf(b.kind)
	tok := p.peek()

	if tok.Kind != token.Close {
		rb := p.report(diag.SynUnclosedBlock, diag.SevError, b.span,
			fmt.Sprintf("§%s{%s} is never closed: expected §/%s{%s}", info.Short, b.id, info.Short, b.id))
		if tok.Kind != token.EOF {
			rb = rb.WithNote(p.diagSpan(), "found "+describe(tok)+" instead")
		}
		rb.Emit()
		return
	}

	if tok.Closes != b.kind {
		for i := len(p.open) - 2; i >= 0; i-- {
			if p.open[i].kind == tok.Closes {
				p.report(diag.SynUnclosedBlock, diag.SevError, b.span,
					fmt.Sprintf("§%s{%s} is never closed: expected §/%s{%s} before %s",
						info.Short, b.id, info.Short, b.id, describe(tok))).Emit()
				return
			}
		}
		p.advance()
		p.report(diag.SynMismatchedClose, diag.SevError, tok.Span,
			fmt.Sprintf("expected §/%s{%s}, found %s", info.Short, b.id, describe(tok))).
			WithNote(b.span, "block opened here").Emit()
		return
	}

	p.advance()
	if !info.NeedsID {
		return
	}
	closeID := strings.TrimSpace(tok.Attrs)
	switch {
	case !tok.HasAttrs || closeID == "":
		p.errAt(diag.SynMissingRequiredAttribute, tok.Span,
			fmt.Sprintf("closing marker §/%s requires the block id %q", info.Short, b.id))
	case closeID != b.id:
		p.report(diag.SynMismatchedID, diag.SevError, attrsSpan(tok),
			fmt.Sprintf("closing id %q does not match opening id %q", closeID, b.id)).
			WithNote(b.span, "block opened here").Emit()
	}
}

// strayClose reports and skips a closing marker that matches no open block.
// It returns false when the marker belongs to an open block.
func (p *Parser) strayClose() bool {
	tok := p.peek()
	for _, b := range p.open {
		if b.kind == tok.Closes {
			return false
		}
	}
	p.advance()
	p.errAt(diag.SynMismatchedClose, tok.Span, describe(tok)+" does not close any open block")
	return true
}
