package parser

import (
	"strings"
	"unicode"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
	"sigil/internal/token"
)

// parseTypeString parses a type written inside an attribute payload:
// Name, Name<Arg,...>, T[] and any nesting of those.
func (p *Parser) parseTypeString(s string, sp source.Span) *ast.TypeRef {
	ts := typeScanner{src: strings.TrimSpace(s)}
	t := ts.parse(p, sp)
	if t == nil || ts.pos != len(ts.src) {
		p.errAt(diag.SynExpectType, sp, "malformed type '"+s+"'")
		return &ast.TypeRef{Meta: p.metaAt(sp), Name: strings.TrimSpace(s)}
	}
	return t
}

type typeScanner struct {
	src string
	pos int
}

func (ts *typeScanner) skipSpace() {
	for ts.pos < len(ts.src) && ts.src[ts.pos] == ' ' {
		ts.pos++
	}
}

func (ts *typeScanner) eat(c byte) bool {
	ts.skipSpace()
	if ts.pos < len(ts.src) && ts.src[ts.pos] == c {
		ts.pos++
		return true
	}
	return false
}

func (ts *typeScanner) parse(p *Parser, sp source.Span) *ast.TypeRef {
	ts.skipSpace()
	start := ts.pos
	for ts.pos < len(ts.src) {
		r := rune(ts.src[ts.pos])
		if r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r) || r >= 0x80 {
			ts.pos++
			continue
		}
		break
	}
	if ts.pos == start {
		return nil
	}
	t := &ast.TypeRef{Name: ts.src[start:ts.pos]}
	if ts.eat('<') {
		for {
			arg := ts.parse(p, sp)
			if arg == nil {
				return nil
			}
			t.Args = append(t.Args, arg)
			if ts.eat(',') {
				continue
			}
			if ts.eat('>') {
				break
			}
			return nil
		}
	}
	t.Meta = p.metaAt(sp)
	for ts.eat('[') {
		if !ts.eat(']') {
			return nil
		}
		t = &ast.TypeRef{Meta: p.metaAt(sp), Elem: t}
	}
	ts.skipSpace()
	return t
}

// parseTypeTokens parses a type inside an expression, e.g. in (new List<i32>)
// or (cast i64 x).
func (p *Parser) parseTypeTokens() *ast.TypeRef {
	start := p.peek().Span
	name, ok := p.expect(token.Ident, "expected type name")
	if !ok {
		return nil
	}
	text := name.Value
	for p.at(token.Dot) && p.peekN(1).Kind == token.Ident {
		p.advance()
		text += "." + p.advance().Value
	}
	t := &ast.TypeRef{Name: text}
	if p.at(token.Lt) {
		p.advance()
		for {
			arg := p.parseTypeTokens()
			if arg == nil {
				return nil
			}
			t.Args = append(t.Args, arg)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			if _, ok := p.expect(token.Gt, "expected '>' to close type arguments"); !ok {
				return nil
			}
			break
		}
	}
	t.Meta = p.meta(start)
	for p.at(token.LBracket) && p.peekN(1).Kind == token.RBracket {
		p.advance()
		p.advance()
		t = &ast.TypeRef{Meta: p.meta(start), Elem: t}
	}
	return t
}
