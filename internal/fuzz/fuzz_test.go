package fuzz

import (
	"context"
	"testing"
	"time"

	"sigil/internal/compiler"
	"sigil/internal/diag"
	"sigil/internal/format"
	"sigil/internal/lexer"
	"sigil/internal/parser"
	"sigil/internal/source"
	"sigil/internal/testkit"
	"sigil/internal/token"
)

const maxFuzzInput = 1 << 16

// pipelineTimeout bounds one compilation; longer means a hang.
const pipelineTimeout = 5 * time.Second

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}

func FuzzLexerTokens(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.sgl", clamp(input)))
		bag := diag.NewBag(64)
		toks := lexer.Tokenize(file, lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})
		if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("token stream does not end in EOF")
		}
		for _, tok := range toks {
			if int(tok.Span.End) > len(file.Content) || tok.Span.Start > tok.Span.End {
				t.Fatalf("token %v has span %v outside %d bytes", tok.Kind, tok.Span, len(file.Content))
			}
		}
	})
}

func FuzzParserSpans(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.sgl", clamp(input)))
		bag := diag.NewBag(128)
		mod := parser.ParseFile(file, parser.Options{Reporter: &diag.BagReporter{Bag: bag}})
		if err := testkit.CheckSpanInvariants(mod, file); err != nil {
			t.Fatal(err)
		}
		if err := testkit.CheckDiagnosticSpans(bag.Items(), file); err != nil {
			t.Fatal(err)
		}
		if !bag.HasErrors() {
			// a clean parse must survive formatting
			if ok, msg := format.CheckRoundTrip(file, format.Options{IndentWidth: 2}, 128); !ok {
				t.Fatalf("round trip: %s", msg)
			}
		}
	})
}

func FuzzCompile(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		src := string(clamp(input))
		done := make(chan *compiler.Result, 1)
		go func() {
			done <- compiler.CompileWithOptions(context.Background(), src, "fuzz.sgl", compiler.Options{MaxDiagnostics: 256})
		}()
		select {
		case res := <-done:
			if err := testkit.CheckDiagnosticSpans(res.Diagnostics, res.File); err != nil {
				t.Fatal(err)
			}
			if res.HasErrors && res.GeneratedCode != "" && blocking(res.Diagnostics) {
				t.Fatal("code generated despite a blocking error")
			}
		case <-time.After(pipelineTimeout):
			t.Fatalf("compile hang: %q", truncateForLog(src, 200))
		}
	})
}

// blocking reports an error from a pass that runs before generation.
func blocking(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if !d.IsError() {
			continue
		}
		switch d.Code.ID()[:3] {
		case "LEX", "SYN", "SEM", "EFF":
			return true
		}
	}
	return false
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
