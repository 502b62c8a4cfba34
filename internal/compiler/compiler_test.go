package compiler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"sigil/internal/diag"
	"sigil/internal/effects"
	"sigil/internal/format"
	"sigil/internal/observ"
	"sigil/internal/parser"
	"sigil/internal/source"
	"sigil/internal/testkit"
)

type scenario struct {
	Name     string   `yaml:"name"`
	Source   string   `yaml:"source"`
	Contains []string `yaml:"contains"`
	Lacks    []string `yaml:"lacks"`
	Codes    []string `yaml:"codes"`
	Absent   []string `yaml:"absent"`
	Errors   bool     `yaml:"errors"`
	Empty    bool     `yaml:"empty"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "scenarios.yaml"))
	if err != nil {
		t.Fatalf("read scenarios: %v", err)
	}
	var out []scenario
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode scenarios: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("no scenarios")
	}
	return out
}

func codeNames(diags []diag.Diagnostic) []string {
	names := make([]string, len(diags))
	for i, d := range diags {
		names[i] = d.Code.Name()
	}
	return names
}

func hasCode(diags []diag.Diagnostic, name string) bool {
	for _, d := range diags {
		if d.Code.Name() == name {
			return true
		}
	}
	return false
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, func(t *testing.T) {
			res := Compile(sc.Source, "scenario.sgl")
			if err := testkit.CheckSpanInvariants(res.AST, res.File); err != nil {
				t.Fatalf("tree: %v", err)
			}
			if err := testkit.CheckDiagnosticSpans(res.Diagnostics, res.File); err != nil {
				t.Fatalf("diagnostics: %v", err)
			}
			if res.HasErrors != sc.Errors {
				t.Fatalf("HasErrors = %v, want %v; diagnostics %v", res.HasErrors, sc.Errors, codeNames(res.Diagnostics))
			}
			for _, name := range sc.Codes {
				if _, ok := diag.CodeByName(name); !ok {
					t.Fatalf("scenario names unknown code %q", name)
				}
				if !hasCode(res.Diagnostics, name) {
					t.Errorf("missing %s; got %v", name, codeNames(res.Diagnostics))
				}
			}
			for _, name := range sc.Absent {
				if hasCode(res.Diagnostics, name) {
					t.Errorf("unexpected %s", name)
				}
			}
			if sc.Empty != (res.GeneratedCode == "") {
				t.Fatalf("generated code empty = %v, want %v", res.GeneratedCode == "", sc.Empty)
			}
			for _, frag := range sc.Contains {
				if !strings.Contains(res.GeneratedCode, frag) {
					t.Errorf("generated code lacks %q\n%s", frag, res.GeneratedCode)
				}
			}
			for _, frag := range sc.Lacks {
				if strings.Contains(res.GeneratedCode, frag) {
					t.Errorf("generated code contains %q\n%s", frag, res.GeneratedCode)
				}
			}
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		a, b := Compile(sc.Source, "x.sgl"), Compile(sc.Source, "x.sgl")
		if a.GeneratedCode != b.GeneratedCode {
			t.Fatalf("%s: generated code differs between runs", sc.Name)
		}
		if strings.Join(codeNames(a.Diagnostics), ",") != strings.Join(codeNames(b.Diagnostics), ",") {
			t.Fatalf("%s: diagnostics differ between runs", sc.Name)
		}
	}
}

func TestCompileRecordsInheritance(t *testing.T) {
	res := Compile(`§M{m1:Bank}
§IFC{i1:IAccount:pub}
  §MT{m1:Withdraw}
    §I{i32:amount}
    §O{i32}
    §Q (>= amount 0)
    §S (> result 0)
  §/MT{m1}
§/IFC{i1}
§CL{c1:Account:pub}
  §IMP{IAccount}
  §MT{m1:Withdraw:pub} §I{i32:amt} §O{i32} §R (+ amt 1) §/MT{m1}
§/CL{c1}
§/M{m1}`, "bank.sgl")
	if res.HasErrors {
		t.Fatalf("unexpected errors %v", codeNames(res.Diagnostics))
	}
	if len(res.Contracts.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Contracts.Records))
	}
	rec := res.Contracts.Records[0]
	if rec.Interface != "IAccount" || len(rec.Requires) != 1 || len(rec.Ensures) != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !strings.Contains(res.GeneratedCode, "// Preconditions inherited from IAccount.Withdraw") {
		t.Fatalf("generated code lacks the inheritance comment\n%s", res.GeneratedCode)
	}
}

func TestCompileOptions(t *testing.T) {
	src := `§M{m1:A}
§F{f1:F} §I{i32:n} §E{io:w}
  §W{w1} n
    §K 1 §P "one"
  §/W{w1}
§/F{f1}
§/M{m1}`

	t.Run("warnings as errors", func(t *testing.T) {
		res := CompileWithOptions(context.Background(), src, "a.sgl", Options{WarningsAsErrors: true})
		if !res.HasErrors {
			t.Fatalf("expected the non-exhaustive warning to become an error")
		}
		// the promotion happens after generation
		if res.GeneratedCode == "" {
			t.Fatal("generation should still run")
		}
	})
	t.Run("ignore warnings", func(t *testing.T) {
		res := CompileWithOptions(context.Background(), src, "a.sgl", Options{IgnoreWarnings: true})
		if len(res.Diagnostics) != 0 {
			t.Fatalf("expected no diagnostics, got %v", codeNames(res.Diagnostics))
		}
	})
	t.Run("timings", func(t *testing.T) {
		res := CompileWithOptions(context.Background(), src, "a.sgl", Options{EnableTimings: true})
		var timing *diag.Diagnostic
		for i := range res.Diagnostics {
			if res.Diagnostics[i].Code == diag.ObsTimings {
				timing = &res.Diagnostics[i]
			}
		}
		if timing == nil || len(timing.Notes) != 1 {
			t.Fatalf("expected a timings diagnostic, got %v", codeNames(res.Diagnostics))
		}
		var payload struct {
			Phases []observ.PhaseReport `json:"phases"`
		}
		if err := json.Unmarshal([]byte(timing.Notes[0].Msg), &payload); err != nil {
			t.Fatalf("timing payload: %v", err)
		}
		var names []string
		for _, p := range payload.Phases {
			names = append(names, p.Name)
		}
		if got := strings.Join(names, ","); got != "parse,bind,sema,effects,contracts,patterns,codegen" {
			t.Fatalf("phases = %s", got)
		}
	})
	t.Run("catalog", func(t *testing.T) {
		cat := effects.DefaultCatalog()
		if err := cat.AddSpec("Audit.Log", "fs:w"); err != nil {
			t.Fatal(err)
		}
		res := CompileWithOptions(context.Background(),
			`§M{m1:A} §F{f1:F} §C (Audit.Log "x") §/F{f1} §/M{m1}`, "a.sgl", Options{Catalog: cat})
		if !hasCode(res.Diagnostics, "MissingCapability") {
			t.Fatalf("expected MissingCapability from the extended catalog, got %v", codeNames(res.Diagnostics))
		}
	})
}

func TestFormatReserializerRoundTrips(t *testing.T) {
	res := Compile(`§M{m1:A}
§F{f1:Abs:pub} §I{i32:x} §O{i32}
  §S (>= result 0)
  §IF{i1} (< x 0) §R (- 0 x) §/IF{i1}
  §R x
§/F{f1}
§/M{m1}`, "a.sgl")
	if res.HasErrors {
		t.Fatalf("unexpected errors %v", codeNames(res.Diagnostics))
	}
	text := FormatReserializer{}.Reserialize(res.AST)

	fs := source.NewFileSetWithBase("")
	id := fs.AddVirtual("again.sgl", []byte(text))
	bag := diag.NewBag(0)
	again := parser.ParseFile(fs.Get(id), parser.Options{Reporter: &diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		t.Fatalf("reserialized text does not parse:\n%s", text)
	}
	if format.Fingerprint(again) != format.Fingerprint(res.AST) {
		t.Fatalf("round trip changed the tree:\n%s", text)
	}
}
