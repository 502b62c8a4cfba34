package symbols

import (
	"fmt"
	"strings"
	"testing"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/parser"
	"sigil/internal/source"
)

func bindSource(t *testing.T, input string) (*ast.Module, *Table, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSetWithBase("")
	id := fs.AddVirtual("test.sgl", []byte(input))
	bag := diag.NewBag(0)
	rep := &diag.BagReporter{Bag: bag}
	mod := parser.ParseFile(fs.Get(id), parser.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %s", summary(bag))
	}
	return mod, Bind(mod, Options{Reporter: rep}), bag
}

func summary(bag *diag.Bag) string {
	var parts []string
	for _, d := range bag.Items() {
		parts = append(parts, fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message))
	}
	if len(parts) == 0 {
		return "<none>"
	}
	return strings.Join(parts, "; ")
}

// names collects every Name node in mod keyed by spelling; the last
// occurrence wins.
func names(mod *ast.Module) map[string]*ast.Name {
	out := map[string]*ast.Name{}
	ast.Inspect(mod, func(n ast.Node) bool {
		if nm, ok := n.(*ast.Name); ok {
			out[nm.Name] = nm
		}
		return true
	})
	return out
}

func TestForwardReferenceResolves(t *testing.T) {
	mod, table, bag := bindSource(t, `§M{m1:A}
§F{f1:Main} §R (Helper 1) §/F{f1}
§F{f2:Helper} §I{i32:x} §O{i32} §R x §/F{f2}
§/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(bag))
	}
	ns := names(mod)
	sym, ok := table.Ref(ns["Helper"])
	if !ok || sym.Kind != SymbolFunction || sym.Decl != mod.Decls[1] {
		t.Fatalf("Helper resolved to %+v", sym)
	}
	x, ok := table.Ref(ns["x"])
	if !ok || x.Kind != SymbolParam {
		t.Fatalf("x resolved to %+v", x)
	}
}

func TestUnresolvedSymbolSuggests(t *testing.T) {
	_, _, bag := bindSource(t, `§M{m1:A} §F{f1:F} §I{i32:count} §R (+ coutn 1) §/F{f1} §/M{m1}`)
	if bag.Count(diag.SemaUnresolvedSymbol) != 1 {
		t.Fatalf("expected one UnresolvedSymbol, got: %s", summary(bag))
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || !strings.Contains(d.Notes[0].Msg, "'count'") {
		t.Fatalf("expected did-you-mean note, got %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "count" {
		t.Fatalf("expected replacement fix, got %+v", d.Fixes)
	}
}

func TestCapitalisedRootsAreExternal(t *testing.T) {
	mod, table, bag := bindSource(t, `§M{m1:A} §F{f1:F} §C (Console.WriteLine "hi") §C (Math.Max 1 2) §/F{f1} §/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(bag))
	}
	ns := names(mod)
	for _, n := range []string{"Console", "Math"} {
		sym, ok := table.Ref(ns[n])
		if !ok || sym.Kind != SymbolExternal || sym.Name != n {
			t.Fatalf("%s resolved to %+v", n, sym)
		}
	}
	if table.External("Console") != table.External("Console") {
		t.Fatal("external symbols must be shared")
	}
}

func TestDuplicateSymbol(t *testing.T) {
	tests := []string{
		"§M{m1:A} §F{f1:F} §/F{f1} §F{f2:F} §/F{f2} §/M{m1}",
		"§M{m1:A} §F{f1:F} §I{i32:a} §I{str:a} §/F{f1} §/M{m1}",
		"§M{m1:A} §F{f1:F} §B{x} 1 §B{x} 2 §/F{f1} §/M{m1}",
		"§M{m1:A} §CL{c1:P} §FLD{i32:x} §FLD{i32:x} §/CL{c1} §/M{m1}",
	}
	for _, src := range tests {
		_, _, bag := bindSource(t, src)
		if bag.Count(diag.SemaDuplicateSymbol) != 1 {
			t.Errorf("%s: expected DuplicateSymbol, got: %s", src, summary(bag))
			continue
		}
		if len(bag.Items()[0].Notes) != 1 {
			t.Errorf("%s: expected previous-declaration note", src)
		}
	}
}

func TestShadowingInNestedBlockIsAllowed(t *testing.T) {
	_, _, bag := bindSource(t, `§M{m1:A} §F{f1:F} §B{x} 1
§IF{i1} true §B{x} 2 §P x §/IF{i1}
§/F{f1} §/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(bag))
	}
}

func TestBlockLocalsDoNotLeak(t *testing.T) {
	_, _, bag := bindSource(t, `§M{m1:A} §F{f1:F}
§L{l1:i} 1 3 §P i §/L{l1}
§P i
§/F{f1} §/M{m1}`)
	if bag.Count(diag.SemaUnresolvedSymbol) != 1 {
		t.Fatalf("expected loop variable to be out of scope, got: %s", summary(bag))
	}
}

func TestClassMembersAndThis(t *testing.T) {
	mod, table, bag := bindSource(t, `§M{m1:A}
§CL{c1:Counter:pub}
  §FLD{i32:count:priv}
  §FLD{i32:limit:priv:readonly} 10
  §MT{m1:Inc:pub} §AS{this.count} (+ count 1) §R (Reset) §/MT{m1}
  §MT{m2:Reset:pub} §AS{count} 0 §/MT{m2}
§/CL{c1}
§/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(bag))
	}
	var member *ast.MemberExpr
	ast.Inspect(mod, func(n ast.Node) bool {
		if m, ok := n.(*ast.MemberExpr); ok {
			member = m
		}
		return true
	})
	field, ok := table.Ref(member)
	if !ok || field.Kind != SymbolField || !field.Mutable() {
		t.Fatalf("this.count resolved to %+v", field)
	}
	cls, _ := table.Ref(member.X)
	if cls == nil || cls.Kind != SymbolClass || field.Owner != cls.ID {
		t.Fatalf("this resolved to %+v", cls)
	}
	limit, _ := table.Member(cls, "limit")
	if limit == nil || limit.Mutable() || limit.Flags&SymbolFlagReadonly == 0 {
		t.Fatalf("limit should be readonly, got %+v", limit)
	}
	reset, _ := table.Ref(names(mod)["Reset"])
	if reset == nil || reset.Kind != SymbolMethod {
		t.Fatalf("Reset resolved to %+v", reset)
	}
}

func TestThisOutsideClass(t *testing.T) {
	_, _, bag := bindSource(t, "§M{m1:A} §F{f1:F} §P this.x §/F{f1} §/M{m1}")
	if bag.Count(diag.SemaUnresolvedSymbol) != 1 {
		t.Fatalf("expected UnresolvedSymbol, got: %s", summary(bag))
	}
}

func TestInheritedMembersResolve(t *testing.T) {
	mod, table, bag := bindSource(t, `§M{m1:A}
§CL{c1:Base} §FLD{i32:id} §/CL{c1}
§CL{c2:Derived:pub:Base} §MT{m1:Get} §O{i32} §R this.id §/MT{m1} §/CL{c2}
§CL{c3:Widget:pub:Control} §MT{m1:Get} §O{i32} §R this.Handle §/MT{m1} §/CL{c3}
§/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(bag))
	}
	derived, _ := table.TypeByName("Derived")
	if sym, ok := table.Member(derived, "id"); !ok || sym.Kind != SymbolField {
		t.Fatalf("inherited field not found: %+v", sym)
	}
	widget, _ := table.TypeByName("Widget")
	if !table.HasOpenMembers(widget) || table.HasOpenMembers(derived) {
		t.Fatal("only classes with external bases have open members")
	}
	_ = mod
}

func TestUnknownMember(t *testing.T) {
	_, _, bag := bindSource(t, `§M{m1:A}
§EN{e1:Color} Red Green §/EN{e1}
§F{f1:F} §R Color.Gren §/F{f1}
§/M{m1}`)
	if bag.Count(diag.SemaUnknownMember) != 1 {
		t.Fatalf("expected UnknownMember, got: %s", summary(bag))
	}
	if n := bag.Items()[0].Notes; len(n) != 1 || !strings.Contains(n[0].Msg, "Green") {
		t.Fatalf("expected suggestion, got %+v", n)
	}
}

func TestContractNamesAreLenient(t *testing.T) {
	mod, table, bag := bindSource(t, `§M{m1:A}
§F{f1:Abs} §I{i32:x} §O{i32}
  §Q (>= x lower)
  §S (>= result 0)
  §R x
§/F{f1}
§F{f2:Log} §I{i32:x} §S (== result x) §/F{f2}
§/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("contracts must not report, got: %s", summary(bag))
	}
	var unresolved []string
	for _, name := range table.Unresolved {
		unresolved = append(unresolved, name)
	}
	if len(unresolved) != 2 {
		t.Fatalf("expected lower and result of Log unresolved, got %v", unresolved)
	}
	fn := mod.Decls[0].(*ast.FuncDecl)
	var result *ast.Name
	ast.Inspect(fn.Ensures[0], func(n ast.Node) bool {
		if nm, ok := n.(*ast.Name); ok && nm.Name == "result" {
			result = nm
		}
		return true
	})
	if sym, ok := table.Ref(result); !ok || sym.Kind != SymbolResult {
		t.Fatalf("result resolved to %+v", sym)
	}
}

func TestPatternsBindAndResolve(t *testing.T) {
	mod, table, bag := bindSource(t, `§M{m1:A}
§EN{e1:Color} Red Green §/EN{e1}
§F{f1:F} §I{Option<i32>:o} §I{Color:c} §O{i32}
  §W{w1} c §K Color.Red -> 1 §K _ -> 2 §/W{w1}
  §R (match o [(some v) -> v] [none -> 0])
§/F{f1}
§/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(bag))
	}
	var enumPat *ast.EnumPat
	var bindPat *ast.BindPat
	ast.Inspect(mod, func(n ast.Node) bool {
		switch p := n.(type) {
		case *ast.EnumPat:
			enumPat = p
		case *ast.BindPat:
			bindPat = p
		}
		return true
	})
	if sym, ok := table.Ref(enumPat); !ok || sym.Kind != SymbolEnumMember || sym.Name != "Red" {
		t.Fatalf("enum pattern resolved to %+v", sym)
	}
	v, ok := table.DeclOf(bindPat)
	if !ok || v.Kind != SymbolLocal {
		t.Fatalf("binder pattern declared %+v", v)
	}
	if sym, _ := table.Ref(names(mod)["v"]); sym != v {
		t.Fatalf("v resolved to %+v, want %+v", sym, v)
	}
}

func TestExtensionMethodsAttachToEnum(t *testing.T) {
	_, table, bag := bindSource(t, `§M{m1:A}
§EN{e1:Color} Red §/EN{e1}
§EXT{x1:Color} §MT{m1:IsWarm:pub} §I{Color:c} §O{bool} §R (== c Color.Red) §/MT{m1} §/EXT{x1}
§/M{m1}`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(bag))
	}
	color, _ := table.TypeByName("Color")
	if m, ok := table.Member(color, "IsWarm"); !ok || m.Kind != SymbolMethod || m.Owner != color.ID {
		t.Fatalf("extension method not attached: %+v", m)
	}
}

func TestExtensionOfUnknownEnum(t *testing.T) {
	_, _, bag := bindSource(t, "§M{m1:A} §EXT{x1:Shade} §MT{m1:F} §/MT{m1} §/EXT{x1} §/M{m1}")
	if bag.Count(diag.SemaUnknownType) != 1 {
		t.Fatalf("expected UnknownType, got: %s", summary(bag))
	}
}

func TestUnknownLowercaseType(t *testing.T) {
	_, _, bag := bindSource(t, "§M{m1:A} §F{f1:F} §I{i33:x} §/F{f1} §/M{m1}")
	if bag.Count(diag.SemaUnknownType) != 1 {
		t.Fatalf("expected UnknownType, got: %s", summary(bag))
	}
	if n := bag.Items()[0].Notes; len(n) != 1 {
		t.Fatalf("expected a suggestion, got %+v", n)
	}
}

func TestLambdaParamsScoped(t *testing.T) {
	_, _, bag := bindSource(t, "§M{m1:A} §F{f1:F} §B{add} (lambda [a b] (+ a b)) §P a §/F{f1} §/M{m1}")
	if bag.Count(diag.SemaUnresolvedSymbol) != 1 {
		t.Fatalf("expected lambda params to be out of scope, got: %s", summary(bag))
	}
}

func TestResolverLeaveMismatchPanics(t *testing.T) {
	table := NewTable()
	root := table.newScope(ScopeModule, NoScopeID, NoSymbolID, source.Span{})
	r := NewResolver(table, root, nil)
	inner := r.Enter(ScopeBlock, NoSymbolID, source.Span{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched Leave")
		}
	}()
	r.Leave(root)
	_ = inner
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name  string
		cands []string
		want  string
	}{
		{"coutn", []string{"count", "total"}, "count"},
		{"x", []string{"y", "zz"}, "y"},
		{"Gren", []string{"Red", "Green"}, "Green"},
		{"total", []string{"alpha", "beta"}, ""},
	}
	for _, tt := range tests {
		got, _ := Suggest(tt.name, tt.cands)
		if got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
