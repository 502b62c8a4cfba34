// Package compiler runs the whole pipeline over one source text: lexing,
// parsing, binding, type checking, effect and contract checks, pattern
// analysis and C# generation.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/codegen"
	"sigil/internal/contracts"
	"sigil/internal/diag"
	"sigil/internal/effects"
	"sigil/internal/observ"
	"sigil/internal/parser"
	"sigil/internal/patterns"
	"sigil/internal/sema"
	"sigil/internal/source"
	"sigil/internal/symbols"
	"sigil/internal/trace"
)

// Options tunes CompileWithOptions. The zero value matches Compile.
type Options struct {
	// MaxDiagnostics caps the bag; 0 keeps everything.
	MaxDiagnostics   int
	IgnoreWarnings   bool
	WarningsAsErrors bool
	// EnableTimings records phase durations and appends an ObsTimings
	// diagnostic carrying them.
	EnableTimings bool
	// Catalog maps external APIs to effects. Nil uses the built-in catalog.
	Catalog *effects.Catalog
	// ReportUnusedEffects notes declared effect kinds a body never uses.
	ReportUnusedEffects bool
	// BaseDir makes diagnostic paths relative.
	BaseDir string
}

// Result is everything one compilation produced. GeneratedCode is empty
// when a pass before contract checking reported an error.
type Result struct {
	HasErrors     bool
	Diagnostics   []diag.Diagnostic
	GeneratedCode string
	AST           *ast.Module

	FileSet   *source.FileSet
	File      *source.File
	Symbols   *symbols.Table
	Sema      *sema.Result
	Effects   effects.Result
	Contracts *contracts.Result
	Patterns  *patterns.Result
	Timings   observ.Report
}

// Compile checks src and translates it to C#. It is deterministic: the same
// input always yields the same result.
func Compile(src, filename string) *Result {
	return CompileWithOptions(context.Background(), src, filename, Options{})
}

// CompileWithOptions is Compile with tracing taken from ctx.
func CompileWithOptions(ctx context.Context, src, filename string, opts Options) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeModule, "compile", trace.CurrentSpan(ctx).SpanID).
		WithExtra("file", filename)

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	// phase times one pass and wraps it in a trace span.
	phase := func(name string, run func() string) {
		idx := -1
		if timer != nil {
			idx = timer.Begin(name)
		}
		span := trace.Begin(tracer, trace.ScopePass, name, root.ID())
		note := run()
		span.End(note)
		if timer != nil {
			timer.End(idx, note)
		}
	}

	fs := source.NewFileSetWithBase(opts.BaseDir)
	fileID := fs.AddVirtual(filename, []byte(src))
	file := fs.Get(fileID)
	bag := diag.NewBag(opts.MaxDiagnostics)
	rep := &diag.BagReporter{Bag: bag}
	res := &Result{FileSet: fs, File: file}

	phase("parse", func() string {
		res.AST = parser.ParseFile(file, parser.Options{Reporter: rep})
		return fmt.Sprintf("decls=%d", len(res.AST.Decls))
	})
	phase("bind", func() string {
		res.Symbols = symbols.Bind(res.AST, symbols.Options{Reporter: rep})
		return ""
	})
	phase("sema", func() string {
		res.Sema = sema.Check(res.AST, sema.Options{Reporter: rep, Symbols: res.Symbols})
		return ""
	})
	phase("effects", func() string {
		res.Effects = effects.Check(res.AST, effects.Options{
			Catalog:      opts.Catalog,
			Reporter:     rep,
			Resolve:      resolver(res.Symbols),
			ReportUnused: opts.ReportUnusedEffects,
		})
		return fmt.Sprintf("functions=%d", len(res.Effects.Declared))
	})
	// contract and pattern findings never block generation
	blocked := bag.HasErrors()
	phase("contracts", func() string {
		res.Contracts = contracts.Check(res.AST, contracts.Options{Reporter: rep, Symbols: res.Symbols, Sema: res.Sema})
		return fmt.Sprintf("records=%d", len(res.Contracts.Records))
	})
	phase("patterns", func() string {
		res.Patterns = patterns.Check(res.AST, patterns.Options{Reporter: rep, Sema: res.Sema})
		return ""
	})
	if !blocked {
		phase("codegen", func() string {
			res.GeneratedCode = codegen.Generate(res.AST, codegen.Options{
				Symbols:    res.Symbols,
				Sema:       res.Sema,
				Contracts:  res.Contracts,
				SourceName: filename,
			})
			return fmt.Sprintf("bytes=%d", len(res.GeneratedCode))
		})
	}

	if opts.IgnoreWarnings {
		bag.Filter(func(d diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning && d.Severity != diag.SevInfo
		})
	}
	if opts.WarningsAsErrors {
		bag.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
	}
	bag.Sort()

	if timer != nil {
		res.Timings = timer.Report()
		appendTimingDiagnostic(bag, filename, res.Timings)
	}

	res.HasErrors = bag.HasErrors()
	res.Diagnostics = bag.Items()
	root.End(fmt.Sprintf("diagnostics=%d", len(res.Diagnostics)))
	return res
}

// resolver finds the user function a call refers to, for effect
// propagation through calls.
func resolver(table *symbols.Table) func(*ast.Call) (*ast.FuncDecl, bool) {
	return func(call *ast.Call) (*ast.FuncDecl, bool) {
		if table == nil {
			return nil, false
		}
		sym, ok := table.Ref(call.Callee)
		if !ok {
			return nil, false
		}
		fn, ok := sym.Decl.(*ast.FuncDecl)
		return fn, ok
	}
}

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records the report as an info diagnostic whose
// note is the JSON payload. It bypasses the bag limit.
func appendTimingDiagnostic(bag *diag.Bag, path string, report observ.Report) {
	payload := timingPayload{Kind: "file", Path: path, TotalMS: report.TotalMS, Phases: report.Phases}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if path != "" {
		msg += " for " + path
	}
	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Notes:    []diag.Note{{Msg: string(data)}},
	}
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(0)
	overflow.Add(entry)
	bag.Merge(overflow)
}
