package token

import "sigil/internal/source"

// Token is a single lexeme. Text is the exact source slice; Value holds the
// decoded payload (unescaped string contents, the number behind a typed tag,
// the body of a passthrough block).
type Token struct {
	Kind  Kind
	Span  source.Span
	Text  string
	Value string

	// Tagged marks literals written with a type tag (INT:, STR:, ...).
	Tagged bool

	// Attrs is the raw text between the braces directly following a marker.
	Attrs     string
	HasAttrs  bool
	AttrsSpan source.Span

	// Closes is set on Close tokens.
	Closes Kind
}

func (t Token) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

func (t Token) IsLiteral() bool { return t.Kind.IsLiteral() }

func (t Token) IsMarker() bool { return t.Kind.IsMarker() }
