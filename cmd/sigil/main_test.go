package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sigil/internal/compiler"
	"sigil/internal/diagfmt"
	"sigil/internal/driver"
	"sigil/internal/project"
	"sigil/internal/smt"
)

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatal("explicit modes ignored")
	}
}

func TestModuleName(t *testing.T) {
	tests := map[string]string{
		"calc":         "Calc",
		"my-calc":      "MyCalc",
		"2fast":        "App2fast",
		"---":          "App",
		"hello_world1": "HelloWorld1",
	}
	for in, want := range tests {
		if got := moduleName(in); got != want {
			t.Errorf("moduleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitProject(t *testing.T) {
	target := filepath.Join(t.TempDir(), "my-calc")
	var out bytes.Buffer
	if err := initProject(&out, target); err != nil {
		t.Fatalf("initProject: %v", err)
	}
	if !strings.Contains(out.String(), "src/main.sgl") {
		t.Fatalf("output = %q", out.String())
	}

	cfg, err := project.LoadConfig(filepath.Join(target, project.ManifestName))
	if err != nil {
		t.Fatalf("generated manifest does not load: %v", err)
	}
	if cfg.Package.Name != "my-calc" {
		t.Fatalf("package name = %q", cfg.Package.Name)
	}

	src, err := os.ReadFile(filepath.Join(target, "src", "main.sgl"))
	if err != nil {
		t.Fatal(err)
	}
	res := compiler.Compile(string(src), "main.sgl")
	if res.HasErrors {
		t.Fatalf("generated entry file does not compile: %+v", res.Diagnostics)
	}
	if !strings.Contains(res.GeneratedCode, "MyCalc") {
		t.Fatalf("module name missing from output:\n%s", res.GeneratedCode)
	}

	if err := initProject(&out, target); err == nil {
		t.Fatal("second init should refuse an existing manifest")
	}
}

func TestResolveInvocation(t *testing.T) {
	root := t.TempDir()
	if err := initProject(&bytes.Buffer{}, root); err != nil {
		t.Fatal(err)
	}
	inv, err := resolveInvocation([]string{filepath.Join(root, "src", "main.sgl")})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Config == nil || inv.BaseDir != root || inv.OutDir != filepath.Join(root, "out") {
		t.Fatalf("invocation = %+v", inv)
	}
	if len(inv.Paths) != 1 || !strings.HasSuffix(inv.Paths[0], "main.sgl") {
		t.Fatalf("paths = %v", inv.Paths)
	}

	outside := t.TempDir()
	inv, err = resolveInvocation([]string{outside})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Config != nil || inv.OutDir != "" {
		t.Fatalf("no manifest expected: %+v", inv)
	}
}

func TestRelPath(t *testing.T) {
	base := filepath.Join("/", "work")
	if got := relPath(base, filepath.Join(base, "out", "a.cs")); got != filepath.Join("out", "a.cs") {
		t.Fatalf("below base: %s", got)
	}
	other := filepath.Join("/", "elsewhere", "b.cs")
	if got := relPath(base, other); got != other {
		t.Fatalf("outside base: %s", got)
	}
}

func buildFixture(t *testing.T, body string) []driver.FileResult {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "calc.sgl")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	results, err := driver.BuildFiles(context.Background(), []string{path}, driver.BuildOptions{BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	return results
}

func TestRenderDiagnostics(t *testing.T) {
	results := buildFixture(t, "§M{m1:A} §F{f1:F} §R missing §/F{f1} §/M{m1}\n")
	if !anyErrors(results) {
		t.Fatal("fixture should fail")
	}

	var buf bytes.Buffer
	if err := renderDiagnostics(&buf, results, renderOptions{Format: "short", PathMode: diagfmt.PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "calc.sgl:1:") || !strings.Contains(buf.String(), "error SEM") {
		t.Fatalf("short = %q", buf.String())
	}

	buf.Reset()
	if err := renderDiagnostics(&buf, results, renderOptions{Format: "json"}); err != nil {
		t.Fatal(err)
	}
	var single struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &single); err != nil || single.Count == 0 {
		t.Fatalf("json = %s (%v)", buf.String(), err)
	}

	buf.Reset()
	if err := renderDiagnostics(&buf, results, renderOptions{Format: "sarif", Args: []string{"diag"}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"version": "2.1.0"`) {
		t.Fatalf("sarif = %s", buf.String())
	}

	if err := renderDiagnostics(&buf, results, renderOptions{Format: "xml"}); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestRenderPrettySkipsCleanFiles(t *testing.T) {
	results := buildFixture(t, `§M{m1:Calc}
§F{f1:Abs:pub} §I{i32:x} §O{i32}
  §R x
§/F{f1}
§/M{m1}
`)
	var buf bytes.Buffer
	if err := renderDiagnostics(&buf, results, renderOptions{Format: "pretty"}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("clean file printed %q", buf.String())
	}
}

func TestOutcomeFails(t *testing.T) {
	tests := []struct {
		status smt.Status
		strict bool
		want   bool
	}{
		{smt.StatusVerified, true, false},
		{smt.StatusSkipped, true, false},
		{smt.StatusUnverified, false, true},
		{smt.StatusError, false, true},
		{smt.StatusUnknown, false, false},
		{smt.StatusUnknown, true, true},
		{smt.StatusTimeout, true, true},
	}
	for _, tt := range tests {
		if got := outcomeFails(tt.status, tt.strict); got != tt.want {
			t.Errorf("outcomeFails(%s, %v) = %v", tt.status, tt.strict, got)
		}
	}
}

func TestEmitScripts(t *testing.T) {
	results := buildFixture(t, `§M{m1:Calc}
§F{f1:Abs:pub} §I{i32:x} §O{i32}
  §S (>= result 0)
  §IF{i1} (< x 0) §R (- 0 x) §/IF{i1}
  §R x
§/F{f1}
§/M{m1}
`)
	conds := conditionsOf(results[0].Result)
	if len(conds) != 1 {
		t.Fatalf("conditions = %d", len(conds))
	}
	var buf bytes.Buffer
	emitScripts(&buf, "calc.sgl", conds)
	got := buf.String()
	if !strings.HasPrefix(got, "; calc.sgl: Abs: ") || !strings.Contains(got, "(check-sat)") {
		t.Fatalf("script = %s", got)
	}
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	err := renderVersionJSON(&buf, versionInfo{Version: "1.2.3"}, versionOptions{showHash: true})
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "sigil" || payload.Version != "1.2.3" || payload.GitCommit != "unknown" || payload.BuildDate != "" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestVersionPretty(t *testing.T) {
	var buf bytes.Buffer
	renderVersionPretty(&buf, versionInfo{Version: "1.2.3", BuildDate: "today"}, versionOptions{showDate: true})
	want := "sigil 1.2.3: " + versionTagline + "\nbuilt:   today\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
