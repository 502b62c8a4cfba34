package lexer_test

import (
	"strings"
	"testing"

	"sigil/internal/diag"
	"sigil/internal/lexer"
	"sigil/internal/source"
	"sigil/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("test.sgl", []byte(src)))
	bag := diag.NewBag(0)
	toks := lexer.Tokenize(f, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		out = append(out, tk.Kind)
	}
	return out
}

func expectKinds(t *testing.T, src string, want ...token.Kind) []token.Token {
	t.Helper()
	toks, bag := lex(t, src)
	if bag.HasErrors() {
		t.Fatalf("%q: unexpected diagnostics: %v", src, bag.Items())
	}
	got := kinds(toks)
	want = append(want, token.EOF)
	if len(got) != len(want) {
		t.Fatalf("%q: got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d is %v, want %v (all: %v)", src, i, got[i], want[i], got)
		}
	}
	return toks
}

func TestShortAndLongMarkersAgree(t *testing.T) {
	for _, m := range token.Markers {
		if m.Kind == token.MkRaw {
			continue
		}
		short, _ := lex(t, "§"+m.Short+"{a}")
		long, _ := lex(t, "§"+m.Long+"{a}")
		if short[0].Kind != m.Kind || long[0].Kind != m.Kind {
			t.Errorf("%s/%s lexed as %v/%v", m.Short, m.Long, short[0].Kind, long[0].Kind)
		}
		if short[0].Attrs != "a" || long[0].Attrs != "a" {
			t.Errorf("%s: attrs %q/%q", m.Short, short[0].Attrs, long[0].Attrs)
		}
	}
}

func TestFunctionHeader(t *testing.T) {
	toks := expectKinds(t, "§F{f001:Add:pub}\n  §I{i32:a}\n  §O{i32}\n  §R (+ a b)\n§/F{f001}",
		token.MkFunc, token.MkIn, token.MkOut, token.MkReturn,
		token.LParen, token.Plus, token.Ident, token.Ident, token.RParen,
		token.Close)
	if toks[0].Attrs != "f001:Add:pub" {
		t.Fatalf("attrs = %q", toks[0].Attrs)
	}
	last := toks[len(toks)-2]
	if last.Closes != token.MkFunc || last.Attrs != "f001" {
		t.Fatalf("close = %+v", last)
	}
}

func TestAttrsRespectQuotesAndBraces(t *testing.T) {
	toks, bag := lex(t, `§AT{Obsolete:"use {x} instead"} §B{x}`)
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	if toks[0].Attrs != `Obsolete:"use {x} instead"` {
		t.Fatalf("attrs = %q", toks[0].Attrs)
	}
}

func TestLiterals(t *testing.T) {
	toks := expectKinds(t, `42 -7 1.5 1e10 2.5E-3 "a\tb" true INT:5 FLOAT:1 DEC:-42.5 STR:"s" BOOL:false`,
		token.IntLit, token.IntLit, token.FloatLit, token.FloatLit, token.FloatLit,
		token.StringLit, token.BoolLit, token.IntLit, token.FloatLit, token.DecLit,
		token.StringLit, token.BoolLit)
	checks := map[int]string{1: "-7", 5: "a\tb", 7: "5", 8: "1", 9: "-42.5", 10: "s", 11: "false"}
	for i, want := range checks {
		if toks[i].Value != want {
			t.Errorf("token %d value = %q, want %q", i, toks[i].Value, want)
		}
	}
	if !toks[9].Tagged || toks[0].Tagged {
		t.Errorf("tagged flags wrong")
	}
}

func TestOperatorsAndArrows(t *testing.T) {
	expectKinds(t, "== != <= >= < > && || ! -> → = _ % * / + -",
		token.EqEq, token.BangEq, token.LtEq, token.GtEq, token.Lt, token.Gt,
		token.AndAnd, token.OrOr, token.Bang, token.Arrow, token.Arrow, token.Assign,
		token.Underscore, token.Percent, token.Star, token.Slash, token.Plus, token.Minus)
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := expectKinds(t, "some none ok err match this Some _x x1 Console.WriteLine // trailing",
		token.KwSome, token.KwNone, token.KwOk, token.KwErr, token.KwMatch, token.KwThis,
		token.Ident, token.Ident, token.Ident, token.Ident, token.Dot, token.Ident)
	if toks[6].Value != "Some" {
		t.Fatalf("Some should stay an identifier, got %+v", toks[6])
	}
}

func TestIdentifiersAreNFCNormalized(t *testing.T) {
	composed, _ := lex(t, "caf\u00e9")
	decomposed, _ := lex(t, "cafe\u0301")
	if composed[0].Value != decomposed[0].Value {
		t.Fatalf("%q != %q", composed[0].Value, decomposed[0].Value)
	}
}

func TestPassthrough(t *testing.T) {
	toks := expectKinds(t, "§RAW\nvar x = 1; // §B{y}\n§/RAW §BK", token.RawBlock, token.MkBreak)
	if toks[0].Value != "\nvar x = 1; // §B{y}\n" {
		t.Fatalf("raw = %q", toks[0].Value)
	}
	toks = expectKinds(t, "§CSHARP x §/CSHARP", token.RawBlock)
	if toks[0].Value != " x " {
		t.Fatalf("raw = %q", toks[0].Value)
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unterminated passthrough", "§RAW int x;", diag.LexUnterminatedPassthrough},
		{"invalid escape", `"bad \q"`, diag.LexInvalidEscape},
		{"single quote escape", `"it\'s"`, diag.LexInvalidEscape},
		{"unicode escape", `"\u0041"`, diag.LexInvalidEscape},
		{"unterminated string", `"abc`, diag.LexUnterminatedString},
		{"unknown marker", "§ZZ{a}", diag.LexUnknownMarker},
		{"lower-case marker", "§f{a}", diag.LexUnknownMarker},
		{"unterminated attrs", "§F{f1:Main\n§/F{f1}", diag.LexUnterminatedAttributes},
		{"bad number", "12abc", diag.LexBadNumber},
		{"bad exponent", "1e+", diag.LexBadNumber},
		{"bad typed literal", "INT:1.5", diag.LexBadTypedLiteral},
		{"unknown char", "#", diag.LexUnknownChar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lex(t, tt.src)
			if bag.Count(tt.code) == 0 {
				t.Fatalf("expected %s, got %v", tt.code.ID(), bag.Items())
			}
			if toks[len(toks)-1].Kind != token.EOF {
				t.Fatalf("token stream must end with EOF")
			}
		})
	}
}

func TestUnterminatedPassthroughNamesCloser(t *testing.T) {
	_, bag := lex(t, "§RAW abc")
	msg := bag.Items()[0].Message
	if want := "expected §/RAW"; !strings.Contains(msg, want) {
		t.Fatalf("message %q does not mention %q", msg, want)
	}
}

func TestLexerNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{"", "§", "§/", "§{", "\"\\", "INT:", "STR:x", "→→", "\xff\xfe", "§RAW§/", "-", "1.", "{}}"}
	for _, in := range inputs {
		toks, _ := lex(t, in)
		if toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("%q: no EOF", in)
		}
	}
}

