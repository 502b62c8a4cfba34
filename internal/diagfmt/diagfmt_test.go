package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"sigil/internal/diag"
	"sigil/internal/lexer"
	"sigil/internal/source"
)

func fixture(t *testing.T, path string) (*source.FileSet, []diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSetWithBase("/home/user/project")
	id := fs.AddVirtual(path, []byte("§M{m1:A}\n§F{f1:F}\n\t§R missing\n§/F{f1}\n§/M{m1}\n"))
	content := string(fs.Get(id).Content)
	start := strings.Index(content, "missing")
	// #nosec G115 -- test fixture
	sp := source.Span{File: id, Start: uint32(start), End: uint32(start + len("missing"))}
	d := diag.NewError(diag.SemaUnresolvedSymbol, sp, "unresolved symbol 'missing'").
		WithNote(source.Span{File: id, Start: 0, End: 8}, "module declared here").
		WithFix("declare it", diag.FixEdit{Span: sp, NewText: "found"})
	w := diag.New(diag.SevWarning, diag.PatNonExhaustive, source.Span{File: id, Start: 0, End: 1}, "match is not exhaustive")
	return fs, []diag.Diagnostic{d, w}
}

func TestPrettyLayout(t *testing.T) {
	fs, diags := fixture(t, "calc.sgl")
	var buf bytes.Buffer
	Pretty(&buf, diags[:1], fs, PrettyOpts{Context: 1, ShowNotes: true, ShowFixes: true})
	got := buf.String()

	for _, want := range []string{
		"calc.sgl:3:6: ERROR SEM3001: unresolved symbol 'missing'",
		"2 | §F{f1:F}",
		"3 |     §R missing",
		"  |        ^~~~~~~",
		"4 | §/F{f1}",
		"note: calc.sgl:1:1: module declared here",
		"fix: declare it",
		`replace "missing" with "found"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Error("colour disabled but escapes present")
	}
}

func TestPrettyHidesNotesByDefault(t *testing.T) {
	fs, diags := fixture(t, "calc.sgl")
	var buf bytes.Buffer
	Pretty(&buf, diags, fs, PrettyOpts{})
	got := buf.String()
	if strings.Contains(got, "note:") || strings.Contains(got, "fix:") {
		t.Fatalf("notes or fixes shown without being asked:\n%s", got)
	}
	if !strings.Contains(got, "WARNING PAT3301") {
		t.Fatalf("second diagnostic missing:\n%s", got)
	}
}

func TestPrettyColor(t *testing.T) {
	fs, diags := fixture(t, "calc.sgl")
	var buf bytes.Buffer
	Pretty(&buf, diags[:1], fs, PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatal("expected ANSI escapes")
	}
}

func TestPathModes(t *testing.T) {
	fs, diags := fixture(t, "/home/user/project/src/a/very/deeply/nested/dir/test.sgl")
	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAbsolute, "/home/user/project/src/a/very/deeply/nested/dir/test.sgl:3:6"},
		{PathModeBasename, "\ntest.sgl:3:6"},
		{PathModeAuto, "\ntest.sgl:3:6"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteByte('\n')
			Short(&buf, diags[:1], fs, tt.mode)
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
	if m, err := ParsePathMode("rel"); err != nil || m != PathModeRelative {
		t.Fatalf("ParsePathMode(rel) = %v, %v", m, err)
	}
	if _, err := ParsePathMode("sideways"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestShort(t *testing.T) {
	fs, diags := fixture(t, "calc.sgl")
	var buf bytes.Buffer
	Short(&buf, diags, fs, PathModeAuto)
	want := "calc.sgl:3:6: error SEM3001 unresolved symbol 'missing'\n" +
		"calc.sgl:1:1: warning PAT3301 match is not exhaustive\n"
	if buf.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestJSON(t *testing.T) {
	fs, diags := fixture(t, "calc.sgl")
	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true, IncludePreviews: true}
	if err := JSON(&buf, diags, fs, opts); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Severity != "error" || d.Code != "SEM3001" || d.Name != "UnresolvedSymbol" {
		t.Fatalf("header = %+v", d)
	}
	if d.Location.StartLine != 3 || d.Location.StartCol != 6 || d.Location.File != "calc.sgl" {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || len(d.Fixes) != 1 {
		t.Fatalf("notes/fixes = %+v / %+v", d.Notes, d.Fixes)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.OldText != "missing" || len(edit.AfterLines) != 1 || edit.AfterLines[0] != "\t§R found" {
		t.Fatalf("edit = %+v", edit)
	}

	buf.Reset()
	if err := JSON(&buf, diags, fs, JSONOpts{Max: 1}); err != nil {
		t.Fatal(err)
	}
	out = DiagnosticsOutput{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Diagnostics[0].Notes != nil || out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("truncated output = %+v", out)
	}
}

func TestJSONKeepsTimingNotes(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("a.sgl", nil)
	d := diag.Diagnostic{Severity: diag.SevInfo, Code: diag.ObsTimings, Message: "timings", Notes: []diag.Note{{Msg: `{"kind":"file"}`}}}
	out := BuildDiagnosticsOutput([]diag.Diagnostic{d}, fs, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 1 {
		t.Fatal("timing payload dropped")
	}
}

func TestSarif(t *testing.T) {
	fs, diags := fixture(t, "calc.sgl")
	var buf bytes.Buffer
	err := Sarif(&buf, []FileDiagnostics{{FileSet: fs, Diagnostics: diags}}, SarifRunMeta{ToolVersion: "1.0.0", InvocationArgs: []string{"diag", "calc.sgl"}})
	if err != nil {
		t.Fatal(err)
	}
	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Invocations []struct {
				ExecutionSuccessful bool `json:"executionSuccessful"`
			} `json:"invocations"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex int    `json:"ruleIndex"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						Region struct {
							StartLine   int `json:"startLine"`
							StartColumn int `json:"startColumn"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "sigil" || len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("driver = %+v", run.Tool.Driver)
	}
	if run.Tool.Driver.Rules[0].ID != "SEM3001" || run.Tool.Driver.Rules[1].ID != "PAT3301" {
		t.Fatalf("rules not sorted by code: %+v", run.Tool.Driver.Rules)
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Fatal("run with an error reported as successful")
	}
	r := run.Results[0]
	if r.RuleID != "SEM3001" || r.RuleIndex != 0 || r.Level != "error" {
		t.Fatalf("result = %+v", r)
	}
	if reg := r.Locations[0].PhysicalLocation.Region; reg.StartLine != 3 || reg.StartColumn != 6 {
		t.Fatalf("region = %+v", reg)
	}
	if run.Results[1].Level != "warning" {
		t.Fatalf("second level = %s", run.Results[1].Level)
	}
}

func TestFormatTokens(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.sgl", []byte(`§R (+ x "a\n")`))
	tokens := lexer.Tokenize(fs.Get(id), lexer.Options{})

	var buf bytes.Buffer
	if err := FormatTokensPretty(&buf, tokens, fs); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(tokens) {
		t.Fatalf("%d lines for %d tokens", len(lines), len(tokens))
	}
	if !strings.Contains(lines[0], "at 1:1-1:") {
		t.Fatalf("first line %q", lines[0])
	}

	buf.Reset()
	if err := FormatTokensJSON(&buf, tokens); err != nil {
		t.Fatal(err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(tokens) || out[len(out)-1].Kind != tokens[len(tokens)-1].Kind.String() {
		t.Fatalf("json tokens = %+v", out)
	}
	var sawString bool
	for _, o := range out {
		if o.Value == "a\n" {
			sawString = true
		}
	}
	if !sawString {
		t.Fatal("decoded string value missing")
	}
}

func TestJSONFiles(t *testing.T) {
	fsA, diagsA := fixture(t, "a.sgl")
	fsB, _ := fixture(t, "b.sgl")
	var buf bytes.Buffer
	err := JSONFiles(&buf, []FileDiagnostics{
		{FileSet: fsA, Diagnostics: diagsA},
		{FileSet: fsB},
	}, JSONOpts{})
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["a.sgl"].Count != 2 || out["b.sgl"].Count != 0 {
		t.Fatalf("out = %+v", out)
	}
}
