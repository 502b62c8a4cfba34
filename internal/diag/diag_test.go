package diag

import (
	"strings"
	"testing"

	"sigil/internal/source"
)

func TestCodeIDRanges(t *testing.T) {
	tests := []struct {
		code Code
		id   string
		name string
	}{
		{LexInvalidEscape, "LEX1003", "InvalidEscapeSequence"},
		{SynMismatchedID, "SYN2002", "MismatchedId"},
		{SynMissingRequiredAttribute, "SYN2003", "MissingRequiredAttribute"},
		{SemaUnresolvedSymbol, "SEM3001", "UnresolvedSymbol"},
		{EffMissingCapability, "EFF3101", "MissingCapability"},
		{ConStrongerPrecondition, "CON3211", "StrongerPrecondition"},
		{ConWeakerPostcondition, "CON3212", "WeakerPostcondition"},
		{PatNonExhaustive, "PAT3301", "NonExhaustiveMatch"},
		{PatUnreachable, "PAT3302", "UnreachablePattern"},
		{ObsTimings, "OBS6001", "Timings"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.id {
			t.Errorf("%d.ID() = %q, want %q", tt.code, got, tt.id)
		}
		if got := tt.code.Name(); got != tt.name {
			t.Errorf("%d.Name() = %q, want %q", tt.code, got, tt.name)
		}
		if back, ok := CodeByName(tt.name); !ok || back != tt.code {
			t.Errorf("CodeByName(%q) = %d, %v", tt.name, back, ok)
		}
	}
}

func TestCodeNamesUnique(t *testing.T) {
	seen := map[string]Code{}
	for _, c := range AllCodes() {
		if prev, dup := seen[c.Name()]; dup {
			t.Fatalf("codes %d and %d share name %q", prev, c, c.Name())
		}
		seen[c.Name()] = c
	}
}

func TestBagLimitKeepsErrors(t *testing.T) {
	b := NewBag(1)
	b.Add(New(SevWarning, PatUnreachable, source.Span{}, "w1"))
	if b.Add(New(SevWarning, PatUnreachable, source.Span{}, "w2")) {
		t.Fatalf("warning beyond limit accepted")
	}
	if !b.Add(NewError(SemaTypeMismatch, source.Span{}, "e")) {
		t.Fatalf("error rejected by limit")
	}
	if !b.HasErrors() || b.Dropped() != 1 || b.Len() != 2 {
		t.Fatalf("unexpected bag state: len=%d dropped=%d", b.Len(), b.Dropped())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(0)
	b.Add(NewError(SemaTypeMismatch, source.Span{Start: 9, End: 10}, "late"))
	b.Add(New(SevWarning, PatUnreachable, source.Span{Start: 1, End: 2}, "warn"))
	b.Add(NewError(SemaTypeMismatch, source.Span{Start: 1, End: 2}, "err"))
	b.Add(NewError(SemaTypeMismatch, source.Span{Start: 1, End: 2}, "err"))
	b.Dedup()
	b.Sort()
	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].Message != "err" || items[1].Message != "warn" || items[2].Message != "late" {
		t.Fatalf("order = %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	r := BagReporter{Bag: bag}
	b := Report(r, PatNonExhaustive, source.Span{}, "missing none").WithNote(source.Span{}, "scrutinee here")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("len = %d", bag.Len())
	}
	d := bag.Items()[0]
	if d.Severity != SevWarning || len(d.Notes) != 1 {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.sgl", []byte("line one\nline two\n"))
	diags := []Diagnostic{
		NewError(SynMismatchedID, source.Span{File: id, Start: 9, End: 13}, "closing id 'f2' does not match 'f1'"),
		New(SevWarning, PatUnreachable, source.Span{File: id, Start: 0, End: 4}, "unreachable"),
	}
	got := FormatGoldenDiagnostics(diags, fs, false)
	want := strings.Join([]string{
		"warning PAT3302 demo.sgl:1:1 unreachable",
		"error SYN2002 demo.sgl:2:1 closing id 'f2' does not match 'f1'",
	}, "\n")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
