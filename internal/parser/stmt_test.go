package parser

import (
	"testing"

	"sigil/internal/ast"
	"sigil/internal/diag"
)

func TestBindForms(t *testing.T) {
	fn := firstFunc(t, `§B{x} 1 §B{i64:y} 2 §B{~z} 0 §B{str:~name} "a" §B{Option<i32>:maybe}`)
	if len(fn.Body) != 5 {
		t.Fatalf("expected 5 binds, got %d", len(fn.Body))
	}
	x := fn.Body[0].(*ast.BindStmt)
	if x.Name != "x" || x.Type != nil || x.Mutable {
		t.Fatalf("unexpected bind %+v", x)
	}
	y := fn.Body[1].(*ast.BindStmt)
	if y.Type.Name != "i64" {
		t.Fatal("expected typed bind")
	}
	if z := fn.Body[2].(*ast.BindStmt); !z.Mutable || z.Name != "z" {
		t.Fatalf("unexpected mutable bind %+v", z)
	}
	if n := fn.Body[3].(*ast.BindStmt); !n.Mutable || n.Type.Name != "str" {
		t.Fatalf("unexpected typed mutable bind %+v", n)
	}
	m := fn.Body[4].(*ast.BindStmt)
	if m.Value != nil || m.Type.String() != "Option<i32>" {
		t.Fatalf("unexpected declaration-only bind %+v", m)
	}
}

func TestBindWithoutTypeOrValue(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1:F} §B{x} §/F{f1} §/M{m1}")
	if !hasCode(bag, diag.SynExpectExpression) {
		t.Fatalf("expected ExpectedExpression, got: %s", diagnosticsSummary(bag))
	}
}

func TestAssignTargets(t *testing.T) {
	fn := firstFunc(t, "§AS{count} (+ count 1) §AS{this.total} 0")
	a := fn.Body[0].(*ast.AssignStmt)
	if ast.DottedName(a.Target) != "count" {
		t.Fatal("expected name target")
	}
	b := fn.Body[1].(*ast.AssignStmt)
	m, ok := b.Target.(*ast.MemberExpr)
	if !ok || m.Name != "total" {
		t.Fatal("expected member target")
	}
	if _, ok := m.X.(*ast.This); !ok {
		t.Fatal("expected this receiver")
	}
}

func TestIfElseChain(t *testing.T) {
	fn := firstFunc(t, `§IF{c1} (> x 0) §P "pos" §EI (< x 0) §P "neg" §EL §P "zero" §/IF{c1}`)
	st := fn.Body[0].(*ast.IfStmt)
	if len(st.Then) != 1 || len(st.ElseIfs) != 1 || !st.HasElse || len(st.Else) != 1 {
		t.Fatalf("unexpected if %+v", st)
	}
}

func TestLoops(t *testing.T) {
	fn := firstFunc(t, `§L{l1:i} 1 10 2 §P i §/L{l1}
§WH{w1} (< n 10) §AS{n} (+ n 1) §BK §/WH{w1}
§FE{e1:idx:item} items §P item §CN §/FE{e1}
§FE{e2:s} names §P s §/FE{e2}`)
	loop := fn.Body[0].(*ast.LoopStmt)
	if loop.Var != "i" || loop.Step == nil {
		t.Fatalf("unexpected loop %+v", loop)
	}
	wh := fn.Body[1].(*ast.WhileStmt)
	if len(wh.Body) != 2 {
		t.Fatalf("unexpected while body %d", len(wh.Body))
	}
	fe := fn.Body[2].(*ast.ForeachStmt)
	if fe.Index != "idx" || fe.Item != "item" {
		t.Fatalf("unexpected indexed foreach %+v", fe)
	}
	fe2 := fn.Body[3].(*ast.ForeachStmt)
	if fe2.Index != "" || fe2.Item != "s" {
		t.Fatalf("unexpected foreach %+v", fe2)
	}
}

func TestTryCatchFinally(t *testing.T) {
	fn := firstFunc(t, `§TR{t1}
  §C (Risky)
§CA{IOException:ex} when (!= ex.Message "")
  §P ex.Message
§CA
  §RT
§FI
  §P "done"
§/TR{t1}`)
	st := fn.Body[0].(*ast.TryStmt)
	if len(st.Catches) != 2 || !st.HasFinally {
		t.Fatalf("unexpected try %+v", st)
	}
	if st.Catches[0].Type != "IOException" || st.Catches[0].Var != "ex" || st.Catches[0].Guard == nil {
		t.Fatalf("unexpected first catch %+v", st.Catches[0])
	}
	if st.Catches[1].Type != "" {
		t.Fatal("expected catch-all")
	}
	if _, ok := st.Catches[1].Body[0].(*ast.RethrowStmt); !ok {
		t.Fatal("expected rethrow")
	}
}

func TestTryWithoutHandlers(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1:F} §TR{t1} §P 1 §/TR{t1} §/F{f1} §/M{m1}")
	if !hasCode(bag, diag.SynMissingRequiredAttribute) {
		t.Fatalf("expected MissingRequiredAttribute, got: %s", diagnosticsSummary(bag))
	}
}

func TestResourceAndYield(t *testing.T) {
	fn := firstFunc(t, `§US{u1:reader} (new StreamReader path) §YI (reader.ReadLine) §/US{u1} §YB`)
	res := fn.Body[0].(*ast.ResourceStmt)
	if res.Name != "reader" || len(res.Body) != 1 {
		t.Fatalf("unexpected resource %+v", res)
	}
	if _, ok := res.Body[0].(*ast.YieldStmt); !ok {
		t.Fatal("expected yield")
	}
	if _, ok := fn.Body[1].(*ast.YieldBreakStmt); !ok {
		t.Fatal("expected yield break")
	}
}

func TestExpressionStatements(t *testing.T) {
	fn := firstFunc(t, `§C (Log "a") (Log "b") §TH (new Exception "x")`)
	first := fn.Body[0].(*ast.ExprStmt)
	second := fn.Body[1].(*ast.ExprStmt)
	if !first.Marked || second.Marked {
		t.Fatal("only the §C statement is marked")
	}
	if _, ok := fn.Body[2].(*ast.ThrowStmt); !ok {
		t.Fatal("expected throw")
	}
}

func TestMisplacedElse(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1:F} §EL §P 1 §/F{f1} §/M{m1}")
	if !hasCode(bag, diag.SynMisplacedClause) {
		t.Fatalf("expected MisplacedClause, got: %s", diagnosticsSummary(bag))
	}
}

func TestRawStatement(t *testing.T) {
	fn := firstFunc(t, "§RAW Console.Beep(); §/RAW")
	if _, ok := fn.Body[0].(*ast.RawStmt); !ok {
		t.Fatalf("expected raw statement, got %T", fn.Body[0])
	}
}
