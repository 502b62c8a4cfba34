package parser

import (
	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/lexer"
	"sigil/internal/source"
	"sigil/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit has been reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// openBlock remembers a marker whose closing counterpart is still pending.
type openBlock struct {
	kind token.Kind
	id   string
	span source.Span
}

// Parser holds the state for one file.
type Parser struct {
	toks     []token.Token
	pos      int
	file     *source.File
	opts     Options
	nextID   ast.NodeID
	lastSpan source.Span
	open     []openBlock
}

// ParseFile lexes and parses one file. Lexer diagnostics go to the same reporter.
// The returned module is never nil, even for empty or broken input.
func ParseFile(file *source.File, opts Options) *ast.Module {
	toks := lexer.Tokenize(file, lexer.Options{Reporter: opts.Reporter})
	return ParseTokens(file, toks, opts)
}

// ParseTokens parses an already lexed token stream ending in EOF.
func ParseTokens(file *source.File, toks []token.Token, opts Options) *ast.Module {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(toks, token.Token{Kind: token.EOF, Span: source.Span{File: file.ID}})
	}
	p := &Parser{
		toks:     toks,
		file:     file,
		opts:     opts,
		lastSpan: source.Span{File: file.ID},
	}
	return p.parseModule()
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

// peekN looks n tokens ahead; the EOF token repeats past the end.
func (p *Parser) peekN(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
		p.lastSpan = tok.Span
	}
	return tok
}

func (p *Parser) meta(start source.Span) ast.Meta {
	p.nextID++
	return ast.Meta{ID: p.nextID, Span: start.Cover(p.lastSpan)}
}

// metaAt is used for nodes whose span is exactly sp.
func (p *Parser) metaAt(sp source.Span) ast.Meta {
	p.nextID++
	return ast.Meta{ID: p.nextID, Span: sp}
}
