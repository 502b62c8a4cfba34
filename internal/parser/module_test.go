package parser

import (
	"testing"

	"sigil/internal/ast"
	"sigil/internal/diag"
)

func TestParseModuleHeader(t *testing.T) {
	mod := parseClean(t, `§M{m1:Billing} §U{System.Text} §U{System.IO} §/M{m1}`)
	if mod.BlockID != "m1" || mod.Name != "Billing" {
		t.Fatalf("unexpected module header %q/%q", mod.BlockID, mod.Name)
	}
	if len(mod.Usings) != 2 || mod.Usings[1].Namespace != "System.IO" {
		t.Fatalf("unexpected usings: %+v", mod.Usings)
	}
}

func TestParseLongFormMarkers(t *testing.T) {
	short := parseClean(t, "§M{m1:A} §F{f1:Run} §R §/F{f1} §/M{m1}")
	long := parseClean(t, "§MODULE{m1:A} §FUNC{f1:Run} §RETURN §/FUNC{f1} §/MODULE{m1}")
	if len(short.Decls) != 1 || len(long.Decls) != 1 {
		t.Fatalf("expected one decl in both forms, got %d and %d", len(short.Decls), len(long.Decls))
	}
	if short.Decls[0].(*ast.FuncDecl).Name != long.Decls[0].(*ast.FuncDecl).Name {
		t.Fatal("short and long forms disagree")
	}
}

func TestMismatchedIDReported(t *testing.T) {
	mod, bag := parseSource(t, "§M{m1:A} §F{f1:Run} §R §/F{f2} §F{f3:Next} §/F{f3} §/M{m1}")
	if bag.Count(diag.SynMismatchedID) != 1 {
		t.Fatalf("expected one MismatchedId, got: %s", diagnosticsSummary(bag))
	}
	// the sibling function is still parsed
	if len(mod.Decls) != 2 {
		t.Fatalf("expected 2 decls after recovery, got %d", len(mod.Decls))
	}
	d := bag.Items()[0]
	if d.Code.Name() != "MismatchedId" || len(d.Notes) != 1 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestMissingCloseIDReported(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1:Run} §/F §/M{m1}")
	if !hasCode(bag, diag.SynMissingRequiredAttribute) {
		t.Fatalf("expected MissingRequiredAttribute, got: %s", diagnosticsSummary(bag))
	}
}

func TestMissingRequiredAttribute(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1} §/F{f1} §/M{m1}")
	if !hasCode(bag, diag.SynMissingRequiredAttribute) {
		t.Fatalf("expected MissingRequiredAttribute, got: %s", diagnosticsSummary(bag))
	}
}

func TestUnclosedBlock(t *testing.T) {
	mod, bag := parseSource(t, "§M{m1:A} §F{f1:Run} §IF{c1} true §R §/F{f1} §/M{m1}")
	if bag.Count(diag.SynUnclosedBlock) != 1 {
		t.Fatalf("expected one UnclosedBlock, got: %s", diagnosticsSummary(bag))
	}
	if bag.Count(diag.SynMismatchedID) != 0 {
		t.Fatalf("the function close must still match: %s", diagnosticsSummary(bag))
	}
	if len(mod.Decls) != 1 {
		t.Fatalf("expected the function to survive, got %d decls", len(mod.Decls))
	}
}

func TestStrayCloseSkipped(t *testing.T) {
	mod, bag := parseSource(t, "§M{m1:A} §/WH{w1} §F{f1:Run} §/F{f1} §/M{m1}")
	if bag.Count(diag.SynMismatchedClose) != 1 {
		t.Fatalf("expected one MismatchedClose, got: %s", diagnosticsSummary(bag))
	}
	if len(mod.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(mod.Decls))
	}
}

func TestMissingModuleMarker(t *testing.T) {
	mod, bag := parseSource(t, "§F{f1:Run} §/F{f1}")
	if !hasCode(bag, diag.SynUnexpectedTopLevel) {
		t.Fatalf("expected UnexpectedTopLevel, got: %s", diagnosticsSummary(bag))
	}
	if len(mod.Decls) != 1 {
		t.Fatalf("expected the function to be parsed anyway, got %d decls", len(mod.Decls))
	}
}

func TestAttributesAttachToNextDecl(t *testing.T) {
	mod := parseClean(t, "§M{m1:A} §AT{Obsolete:\"use Run2\"} §F{f1:Run} §/F{f1} §/M{m1}")
	fn := mod.Decls[0].(*ast.FuncDecl)
	if len(fn.Attrs) != 1 || fn.Attrs[0].Name != "Obsolete" || fn.Attrs[0].Args[0] != `"use Run2"` {
		t.Fatalf("unexpected attrs %+v", fn.Attrs)
	}
}

func TestPassthroughAtModuleLevel(t *testing.T) {
	mod := parseClean(t, "§M{m1:A} §RAW public static int X = 1; §/RAW §/M{m1}")
	raw, ok := mod.Decls[0].(*ast.RawDecl)
	if !ok {
		t.Fatalf("expected RawDecl, got %T", mod.Decls[0])
	}
	if raw.Text == "" {
		t.Fatal("raw text lost")
	}
}

func TestNodeIDsAreUnique(t *testing.T) {
	mod := parseClean(t, `§M{m1:A}
§F{f1:Add:pub}
  §I{i32:a} §I{i32:b} §O{i32}
  §Q (>= a 0)
  §R (+ a b (* 2 a))
§/F{f1}
§/M{m1}`)
	seen := map[ast.NodeID]bool{}
	ast.Inspect(mod, func(n ast.Node) bool {
		id := n.NodeID()
		if !id.IsValid() {
			t.Errorf("node %T has no id", n)
		}
		if seen[id] {
			t.Errorf("duplicate id %d on %T", id, n)
		}
		seen[id] = true
		return true
	})
}

func TestMaxErrorsStopsReporting(t *testing.T) {
	fs := newVirtual("§M{m1:A} §F{f1} §/F §F{f2} §/F §F{f3} §/F §/M{m1}")
	bag := diag.NewBag(0)
	ParseFile(fs, Options{MaxErrors: 2, Reporter: &diag.BagReporter{Bag: bag}})
	if bag.Len() != 2 {
		t.Fatalf("expected exactly 2 reported errors, got %d: %s", bag.Len(), diagnosticsSummary(bag))
	}
}
