package sema

import (
	"fmt"
	"strings"
	"testing"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/parser"
	"sigil/internal/source"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

type checked struct {
	mod   *ast.Module
	table *symbols.Table
	res   *Result
	bag   *diag.Bag
}

func checkSource(t *testing.T, input string) checked {
	t.Helper()
	fs := source.NewFileSetWithBase("")
	id := fs.AddVirtual("test.sgl", []byte(input))
	bag := diag.NewBag(0)
	rep := &diag.BagReporter{Bag: bag}
	mod := parser.ParseFile(fs.Get(id), parser.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %s", summary(bag))
	}
	table := symbols.Bind(mod, symbols.Options{Reporter: rep})
	res := Check(mod, Options{Reporter: rep, Symbols: table})
	return checked{mod: mod, table: table, res: res, bag: bag}
}

func inFunc(body string) string {
	return "§M{m1:A} §F{f1:F} " + body + " §/F{f1} §/M{m1}"
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

func firstOf[T ast.Node](mod *ast.Module) T {
	var out T
	found := false
	ast.Inspect(mod, func(n ast.Node) bool {
		if found {
			return false
		}
		if v, ok := n.(T); ok {
			out, found = v, true
			return false
		}
		return true
	})
	return out
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diag.Code
	}{
		{"string minus int", inFunc(`§B{s} "a" §B{n} (- s 1)`), diag.SemaNonNumericArithmetic},
		{"bool times int", inFunc(`§B{b} true §P (* b 2)`), diag.SemaNonNumericArithmetic},
		{"negate string", inFunc(`§P (- "x")`), diag.SemaNonNumericArithmetic},
		{"declared type", inFunc(`§B{i32:x} "hello"`), diag.SemaTypeMismatch},
		{"mix float and dec", inFunc(`§B{f64:a} 1.5 §B{dec:b} 2.5 §P (+ a b)`), diag.SemaTypeMismatch},
		{"literal overflow", inFunc(`§B{u8:x} 300`), diag.SemaTypeMismatch},
		{"negative unsigned", inFunc(`§B{u32:x} -1`), diag.SemaTypeMismatch},
		{"if condition", inFunc(`§IF{c1} 1 §P "x" §/IF{c1}`), diag.SemaNonBoolCondition},
		{"while condition", inFunc(`§WH{w1} "go" §BK §/WH{w1}`), diag.SemaNonBoolCondition},
		{"arity", `§M{m1:A}
§F{f1:Add} §I{i32:a} §I{i32:b} §O{i32} §R (+ a b) §/F{f1}
§F{f2:Main} §P (Add 1) §/F{f2}
§/M{m1}`, diag.SemaArityMismatch},
		{"argument type", `§M{m1:A}
§F{f1:Twice} §I{i32:a} §O{i32} §R (* a 2) §/F{f1}
§F{f2:Main} §P (Twice "x") §/F{f2}
§/M{m1}`, diag.SemaTypeMismatch},
		{"immutable local", inFunc(`§B{x} 1 §AS{x} 2`), diag.SemaAssignToImmutable},
		{"parameter", "§M{m1:A} §F{f1:F} §I{i32:a} §AS{a} 2 §/F{f1} §/M{m1}", diag.SemaAssignToImmutable},
		{"iterator return", "§M{m1:A} §F{f1:Gen} §O{i32} §YI 1 §R 2 §/F{f1} §/M{m1}", diag.SemaIteratorReturnsValue},
		{"missing return", "§M{m1:A} §F{f1:F} §I{bool:c} §O{i32} §IF{c1} c §R 1 §/IF{c1} §/F{f1} §/M{m1}", diag.SemaMissingReturnValue},
		{"bare return", "§M{m1:A} §F{f1:F} §O{i32} §R §/F{f1} §/M{m1}", diag.SemaMissingReturnValue},
		{"value from void", inFunc(`§R 1`), diag.SemaTypeMismatch},
		{"call a number", inFunc(`§B{n} 5 §P (n 1)`), diag.SemaNotCallable},
		{"break", inFunc(`§BK`), diag.SemaBreakOutsideLoop},
		{"continue", inFunc(`§CN`), diag.SemaBreakOutsideLoop},
		{"logical operand", inFunc(`§P (&& true 1)`), diag.SemaTypeMismatch},
		{"match arms", inFunc(`§B{n} 1 §P (match n [0 -> "zero"] [_ -> 1])`), diag.SemaTypeMismatch},
		{"array size", inFunc(`§B{a} (array i32 "x")`), diag.SemaTypeMismatch},
		{"void binding", "§M{m1:A} §F{f1:Log} §/F{f1} §F{f2:F} §B{x} (Log) §/F{f2} §/M{m1}", diag.SemaTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkSource(t, tt.input)
			if c.bag.Count(tt.code) == 0 {
				t.Fatalf("expected %s, got: %s", tt.code.ID(), summary(c.bag))
			}
		})
	}
}

func TestWellTypedPrograms(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"contracts", `§M{m1:A}
§F{f1:Divide:pub} §I{i32:a} §I{i32:b} §O{i32}
  §Q (!= b 0) "b must not be zero"
  §S (>= result 0)
  §R (/ a b)
§/F{f1}
§/M{m1}`},
		{"widening", inFunc(`§B{i32:a} 1 §B{i64:b} a §B{f64:c} b`)},
		{"string concat", inFunc(`§B{n} 3 §P (+ "n=" n)`)},
		{"mutable local", inFunc(`§B{~x} 0 §L{l1:i} 1 10 §AS{x} (+ x i) §/L{l1}`)},
		{"if else returns", `§M{m1:A} §F{f1:Sign} §I{i32:x} §O{i32}
§IF{c1} (> x 0) §R 1 §EI (< x 0) §R -1 §EL §R 0 §/IF{c1}
§/F{f1} §/M{m1}`},
		{"throw ends path", `§M{m1:A} §F{f1:F} §I{i32:x} §O{i32}
§IF{c1} (> x 0) §R x §/IF{c1}
§TH (new ArgumentException "x")
§/F{f1} §/M{m1}`},
		{"option", `§M{m1:A} §F{f1:Find} §I{i32:x} §O{Option<i32>}
§IF{c1} (> x 0) §R (some x) §/IF{c1}
§R none
§/F{f1} §/M{m1}`},
		{"iterator", "§M{m1:A} §F{f1:Gen} §O{i32} §L{l1:i} 1 3 §YI i §/L{l1} §YB §/F{f1} §/M{m1}"},
		{"external calls", inFunc(`§C (Console.WriteLine "hi") §B{t} (DateTime.Now)`)},
		{"loop break", inFunc(`§WH{w1} true §BK §/WH{w1}`)},
		{"class", `§M{m1:Geo}
§CL{c1:Counter:pub}
  §FLD{i32:count:priv} 0
  §MT{m1:Inc:pub} §AS{this.count} (+ this.count 1) §/MT{m1}
  §MT{m2:Get:pub} §O{i32} §R count §/MT{m2}
§/CL{c1}
§F{f1:Main} §B{c} (new Counter) §C (c.Inc) §P (c.Get) §/F{f1}
§/M{m1}`},
		{"enum extension", `§M{m1:A}
§EN{e1:Color:pub} Red Green §/EN{e1}
§EXT{x1:Color}
  §MT{m1:IsWarm:pub} §I{Color:c} §O{bool} §R (== c Color.Red) §/MT{m1}
§/EXT{x1}
§F{f1:Main} §B{c} Color.Green §P (c.IsWarm) §/F{f1}
§/M{m1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkSource(t, tt.input)
			if c.bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %s", summary(c.bag))
			}
		})
	}
}

func TestLiteralAdoptsDeclaredType(t *testing.T) {
	c := checkSource(t, inFunc(`§B{i64:big} 5 §B{small} 7 §B{huge} 3000000000`))
	b := c.res.Types.Builtins()
	binds := map[string]*ast.BindStmt{}
	ast.Inspect(c.mod, func(n ast.Node) bool {
		if s, ok := n.(*ast.BindStmt); ok {
			binds[s.Name] = s
		}
		return true
	})
	tests := []struct {
		name string
		want types.TypeID
	}{
		{"big", b.I64},
		{"small", b.I32},
		{"huge", b.I64},
	}
	for _, tt := range tests {
		if got := c.res.TypeOf(binds[tt.name].Value); got != tt.want {
			t.Errorf("%s literal typed %s, want %s", tt.name, c.res.Types.String(got), c.res.Types.String(tt.want))
		}
	}
}

func TestUntypedLiteralFollowsOperand(t *testing.T) {
	c := checkSource(t, "§M{m1:A} §F{f1:F} §I{i64:n} §O{i64} §R (+ n 1) §/F{f1} §/M{m1}")
	if c.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(c.bag))
	}
	bin := firstOf[*ast.Binary](c.mod)
	b := c.res.Types.Builtins()
	if got := c.res.TypeOf(bin.Right); got != b.I64 {
		t.Fatalf("literal operand typed %s, want i64", c.res.Types.String(got))
	}
	if got := c.res.TypeOf(bin); got != b.I64 {
		t.Fatalf("sum typed %s, want i64", c.res.Types.String(got))
	}
}

func TestMatchExpressionInference(t *testing.T) {
	c := checkSource(t, inFunc(`§B{n} 4 §B{label} (match n [0 -> "zero"] [< 0 -> "neg"] [x when (> x 100) -> "big"] [_ -> "pos"])`))
	if c.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(c.bag))
	}
	m := firstOf[*ast.MatchExpr](c.mod)
	if got := c.res.TypeOf(m); got != c.res.Types.Builtins().String {
		t.Fatalf("match typed %s, want str", c.res.Types.String(got))
	}
	bind := firstOf[*ast.BindPat](c.mod)
	sym, ok := c.table.DeclOf(bind)
	if !ok || c.res.SymbolTypes[sym.ID] != c.res.Types.Builtins().I32 {
		t.Fatalf("binder x not typed i32")
	}
}

func TestNumericMatchArmsPromote(t *testing.T) {
	c := checkSource(t, inFunc(`§B{b} true §B{v} (match b [true -> 1] [false -> 2.5])`))
	if c.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(c.bag))
	}
	if got := c.res.TypeOf(firstOf[*ast.MatchExpr](c.mod)); got != c.res.Types.Builtins().F64 {
		t.Fatalf("match typed %s, want f64", c.res.Types.String(got))
	}
}

func TestVoidIteratorInfersElement(t *testing.T) {
	c := checkSource(t, `§M{m1:A} §F{f1:Names} §YI "a" §YI "b" §/F{f1} §/M{m1}`)
	if c.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(c.bag))
	}
	fn := c.mod.Decls[0].(*ast.FuncDecl)
	if !c.res.IsIterator(fn) {
		t.Fatal("Names should be an iterator")
	}
	if got := c.res.Iterators[fn.ID]; got != c.res.Types.Builtins().String {
		t.Fatalf("element typed %s, want str", c.res.Types.String(got))
	}
}

func TestAsyncCallReturnsTask(t *testing.T) {
	c := checkSource(t, `§M{m1:A}
§F{f1:Load:async} §O{str} §R "x" §/F{f1}
§F{f2:Main:async} §B{s} (await (Load)) §B{t} (Load) §/F{f2}
§/M{m1}`)
	if c.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", summary(c.bag))
	}
	binds := map[string]*ast.BindStmt{}
	ast.Inspect(c.mod, func(n ast.Node) bool {
		if s, ok := n.(*ast.BindStmt); ok {
			binds[s.Name] = s
		}
		return true
	})
	if got := c.res.TypeOf(binds["s"].Value); got != c.res.Types.Builtins().String {
		t.Fatalf("awaited value typed %s, want str", c.res.Types.String(got))
	}
	if got := c.res.Types.String(c.res.TypeOf(binds["t"].Value)); got != "Task<str>" {
		t.Fatalf("task typed %s, want Task<str>", got)
	}
}

func TestImmutableLocalNote(t *testing.T) {
	c := checkSource(t, inFunc(`§B{x} 1 §AS{x} 2`))
	items := c.bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected one diagnostic, got: %s", summary(c.bag))
	}
	if len(items[0].Notes) != 1 || !strings.Contains(items[0].Notes[0].Msg, "§B{~x}") {
		t.Fatalf("expected a mutability hint, got %+v", items[0].Notes)
	}
}

func TestReadonlyFieldAssignment(t *testing.T) {
	c := checkSource(t, `§M{m1:A}
§CL{c1:Box}
  §FLD{i32:size:priv:readonly} 1
  §MT{m1:Grow} §AS{this.size} 2 §/MT{m1}
§/CL{c1}
§/M{m1}`)
	if c.bag.Count(diag.SemaAssignToImmutable) != 1 {
		t.Fatalf("expected readonly assignment error, got: %s", summary(c.bag))
	}
}

func TestInvalidOperandsDoNotCascade(t *testing.T) {
	c := checkSource(t, inFunc(`§B{s} "a" §B{n} (* (- s 1) 2)`))
	if got := c.bag.Count(diag.SemaNonNumericArithmetic); got != 1 {
		t.Fatalf("expected exactly one arithmetic error, got: %s", summary(c.bag))
	}
}

func TestReturnsOnAllPaths(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"return", `§R 1`, true},
		{"if without else", `§IF{c1} c §R 1 §/IF{c1}`, false},
		{"if with else", `§IF{c1} c §R 1 §EL §R 2 §/IF{c1}`, true},
		{"elseif gap", `§IF{c1} c §R 1 §EI c §P 1 §EL §R 2 §/IF{c1}`, false},
		{"match catch-all", `§W{w1} c §K true §R 1 §K _ §R 2 §/W{w1}`, true},
		{"match without catch-all", `§W{w1} c §K true §R 1 §K false §R 2 §/W{w1}`, false},
		{"try catch", `§TR{t1} §R 1 §CA §R 2 §/TR{t1}`, true},
		{"finally", `§TR{t1} §P 1 §CA §P 2 §FI §R 3 §/TR{t1}`, true},
		{"infinite loop", `§WH{w1} true §P 1 §/WH{w1}`, true},
		{"loop with break", `§WH{w1} true §BK §/WH{w1}`, false},
		{"nested break", `§WH{w1} true §WH{w2} c §BK §/WH{w2} §/WH{w1}`, true},
		{"counted loop", `§L{l1:i} 1 3 §R i §/L{l1}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkSource(t, "§M{m1:A} §F{f1:F} §I{bool:c} "+tt.body+" §/F{f1} §/M{m1}")
			fn := c.mod.Decls[0].(*ast.FuncDecl)
			if got := returnsOnAllPaths(fn.Body); got != tt.want {
				t.Fatalf("returnsOnAllPaths = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignatureRecordsResultSymbol(t *testing.T) {
	c := checkSource(t, `§M{m1:A} §F{f1:Abs} §I{i32:x} §O{i32} §S (>= result 0) §R x §/F{f1} §/M{m1}`)
	fn := c.mod.Decls[0].(*ast.FuncDecl)
	sig, ok := c.res.Signature(c.table, fn)
	b := c.res.Types.Builtins()
	if !ok || sig.Result != b.I32 || len(sig.Params) != 1 || sig.Params[0] != b.I32 {
		t.Fatalf("unexpected signature %+v", sig)
	}
	cond := fn.Ensures[0].Cond.(*ast.Binary)
	if got := c.res.TypeOf(cond.Left); got != b.I32 {
		t.Fatalf("result typed %s, want i32", c.res.Types.String(got))
	}
}
