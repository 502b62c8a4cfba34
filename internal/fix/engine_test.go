package fix

import (
	"errors"
	"testing"

	"sigil/internal/diag"
	"sigil/internal/source"
)

func spanOf(f *source.File, start, end uint32) source.Span {
	return source.Span{File: f.ID, Start: start, End: end}
}

func replace(f *source.File, start, end uint32, text string) diag.Diagnostic {
	sp := spanOf(f, start, end)
	return diag.NewError(diag.SemaUnresolvedSymbol, sp, "unresolved").
		WithFix("replace with '"+text+"'", diag.FixEdit{Span: sp, NewText: text})
}

func newFile(content string) *source.File {
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual("a.sgl", []byte(content)))
}

func TestApplyModes(t *testing.T) {
	// "totl + cout"
	f := newFile("totl + cout")
	diags := []diag.Diagnostic{replace(f, 7, 11, "count"), replace(f, 0, 4, "total")}

	tests := []struct {
		name    string
		opts    ApplyOptions
		want    string
		applied int
	}{
		{"once takes the first in source order", ApplyOptions{Mode: ApplyModeOnce}, "total + cout", 1},
		{"all", ApplyOptions{Mode: ApplyModeAll}, "total + count", 2},
		{"by id", ApplyOptions{Mode: ApplyModeID, TargetID: "SEM3001-7-0"}, "totl + count", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply(f, diags, tt.opts)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if string(res.Content) != tt.want || len(res.Applied) != tt.applied {
				t.Fatalf("content %q, applied %d", res.Content, len(res.Applied))
			}
		})
	}
	if string(f.Content) != "totl + cout" {
		t.Fatal("Apply modified the file in place")
	}
}

func TestApplyUnknownID(t *testing.T) {
	f := newFile("totl")
	res, err := Apply(f, []diag.Diagnostic{replace(f, 0, 4, "total")}, ApplyOptions{Mode: ApplyModeID, TargetID: "nope"})
	if !errors.Is(err, ErrNoFixes) || len(res.Skipped) != 1 {
		t.Fatalf("err = %v, skipped = %+v", err, res.Skipped)
	}
}

func TestApplyNoFixes(t *testing.T) {
	f := newFile("x")
	d := diag.NewError(diag.SemaUnresolvedSymbol, spanOf(f, 0, 1), "plain")
	if _, err := Apply(f, []diag.Diagnostic{d}, ApplyOptions{}); !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v", err)
	}
}

func TestApplySkipsConflicts(t *testing.T) {
	f := newFile("abcdef")
	first := replace(f, 0, 4, "X")
	overlapping := replace(f, 2, 6, "Y")
	res, err := Apply(f, []diag.Diagnostic{first, overlapping}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Content) != "Xef" || len(res.Skipped) != 1 {
		t.Fatalf("content %q, skipped %+v", res.Content, res.Skipped)
	}
}

func TestApplyAllPicksOneAlternative(t *testing.T) {
	f := newFile("totl")
	sp := spanOf(f, 0, 4)
	d := diag.NewError(diag.SemaUnresolvedSymbol, sp, "unresolved").
		WithFix("replace with 'total'", diag.FixEdit{Span: sp, NewText: "total"}).
		WithFix("replace with 'tool'", diag.FixEdit{Span: sp, NewText: "tool"})
	res, err := Apply(f, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Content) != "total" {
		t.Fatalf("content %q", res.Content)
	}
}

func TestSpansConflict(t *testing.T) {
	sp := func(s, e uint32) source.Span { return source.Span{Start: s, End: e} }
	tests := []struct {
		a, b source.Span
		want bool
	}{
		{sp(0, 2), sp(2, 4), false},
		{sp(0, 3), sp(2, 4), true},
		{sp(1, 1), sp(1, 1), false},
		{sp(2, 2), sp(0, 4), true},
		{sp(0, 0), sp(0, 4), false},
	}
	for _, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("spansConflict(%v, %v) = %v", tt.a, tt.b, got)
		}
	}
}
