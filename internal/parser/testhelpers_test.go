package parser

import (
	"fmt"
	"strings"
	"testing"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
)

func parseSource(t *testing.T, input string) (*ast.Module, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSetWithBase("")
	id := fs.AddVirtual("test.sgl", []byte(input))
	bag := diag.NewBag(0)
	mod := ParseFile(fs.Get(id), Options{Reporter: &diag.BagReporter{Bag: bag}})
	if mod == nil {
		t.Fatal("ParseFile returned nil module")
	}
	return mod, bag
}

func parseClean(t *testing.T, input string) *ast.Module {
	t.Helper()
	mod, bag := parseSource(t, input)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	return mod
}

// firstFunc parses a module containing one function with the given body.
func firstFunc(t *testing.T, body string) *ast.FuncDecl {
	t.Helper()
	mod := parseClean(t, "§M{m1:Demo}\n§F{f1:Main}\n"+body+"\n§/F{f1}\n§/M{m1}")
	if len(mod.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(mod.Decls))
	}
	fn, ok := mod.Decls[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected *ast.FuncDecl, got %T", mod.Decls[0])
	}
	return fn
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	return bag.Count(code) > 0
}

func newVirtual(input string) *source.File {
	fs := source.NewFileSetWithBase("")
	return fs.Get(fs.AddVirtual("test.sgl", []byte(input)))
}
