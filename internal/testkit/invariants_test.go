package testkit

import (
	"strings"
	"testing"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/parser"
	"sigil/internal/source"
)

const calc = `§M{m1:Calc}
§F{f1:Abs:pub} §I{i32:x} §O{i32}
  §S (>= result 0)
  §IF{i1} (< x 0) §R (- 0 x) §/IF{i1}
  §R x
§/F{f1}
§/M{m1}
`

func parse(t *testing.T, src string) (*ast.Module, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("calc.sgl", []byte(src)))
	return parser.ParseFile(f, parser.Options{}), f
}

func TestCheckSpanInvariants(t *testing.T) {
	mod, f := parse(t, calc)
	if err := CheckSpanInvariants(mod, f); err != nil {
		t.Fatal(err)
	}
}

func TestCheckSpanInvariantsCatchesBadSpans(t *testing.T) {
	mod, f := parse(t, calc)
	mod.Decls[0].(*ast.FuncDecl).Span.End = 10_000
	err := CheckSpanInvariants(mod, f)
	if err == nil || !strings.Contains(err.Error(), "beyond content") {
		t.Fatalf("err = %v", err)
	}

	mod, f = parse(t, calc)
	fn := mod.Decls[0].(*ast.FuncDecl)
	fn.Params[0].ID = fn.ID
	if err := CheckSpanInvariants(mod, f); err == nil || !strings.Contains(err.Error(), "used twice") {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckDiagnosticSpans(t *testing.T) {
	_, f := parse(t, calc)
	ok := diag.NewError(diag.SemaUnresolvedSymbol, source.Span{File: f.ID, Start: 0, End: 3}, "fine")
	if err := CheckDiagnosticSpans([]diag.Diagnostic{ok}, f); err != nil {
		t.Fatal(err)
	}
	bad := ok.WithNote(source.Span{File: f.ID, Start: 5, End: 9999}, "too far")
	if err := CheckDiagnosticSpans([]diag.Diagnostic{bad}, f); err == nil {
		t.Fatal("out-of-range note accepted")
	}
}
