package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"sigil/internal/compiler"
	"sigil/internal/diag"
	"sigil/internal/source"
	"sigil/internal/trace"
)

// BuildOptions configures BuildPaths.
type BuildOptions struct {
	// Jobs caps parallel compilations; 0 uses GOMAXPROCS.
	Jobs int
	// Cache may be nil. Runs with timings enabled bypass it.
	Cache   *DiskCache
	Compile compiler.Options
	// BaseDir anchors output paths; empty means the working directory.
	BaseDir string
	// OutDir receives the generated .cs files. Empty skips writing.
	OutDir   string
	Progress ProgressSink
}

// FileResult is the outcome for one source file. Result is never nil.
type FileResult struct {
	Path   string
	Result *compiler.Result
	Cached bool
	// Output is the written file, if any.
	Output string
}

// ErrNoSources is returned when the given paths hold no source files.
var ErrNoSources = errors.New("no source files found")

// BuildPaths compiles every source file under paths in parallel. Results
// follow the sorted file order regardless of scheduling.
func BuildPaths(ctx context.Context, paths []string, opts BuildOptions) ([]FileResult, error) {
	files, err := CollectFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoSources
	}
	return BuildFiles(ctx, files, opts)
}

// BuildFiles is BuildPaths over an explicit file list.
func BuildFiles(ctx context.Context, files []string, opts BuildOptions) ([]FileResult, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "build", trace.CurrentSpan(ctx).SpanID).
		WithExtra("files", fmt.Sprint(len(files)))
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})
	started := time.Now()

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, f := range files {
		emit(opts.Progress, Event{File: f, Stage: StageLoad, Status: StatusQueued})
	}

	// each goroutine owns results[i]
	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(files), 1)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = buildOne(gctx, path, opts)
			return nil
		})
	}
	err := g.Wait()

	status := StatusDone
	if err != nil {
		status = StatusError
	}
	emit(opts.Progress, Event{Stage: StageBuild, Status: status, Err: err, Elapsed: time.Since(started)})
	span.End(fmt.Sprintf("jobs=%d", jobs))
	if err != nil {
		return nil, err
	}
	return results, nil
}

func buildOne(ctx context.Context, path string, opts BuildOptions) FileResult {
	started := time.Now()
	out := FileResult{Path: path}

	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	fs := source.NewFileSetWithBase(opts.Compile.BaseDir)
	id, err := fs.Load(path)
	if err != nil {
		out.Result = failedResult(path, opts.Compile.BaseDir, diag.IOLoadFileError, "failed to load file: "+err.Error())
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return out
	}
	content := fs.Get(id).Content

	emit(opts.Progress, Event{File: path, Stage: StageCompile, Status: StatusWorking})
	useCache := opts.Cache != nil && !opts.Compile.EnableTimings
	var cacheWarnings []diag.Diagnostic
	if useCache {
		key := cacheKey(path, content, opts.Compile)
		var payload cachedResult
		hit, err := opts.Cache.get(key, &payload)
		switch {
		case err != nil:
			cacheWarnings = append(cacheWarnings, cacheWarning("read", err))
		case hit:
			out.Result = fromCached(&payload, path, content, opts.Compile.BaseDir)
			out.Cached = true
		}
		if !out.Cached {
			out.Result = compiler.CompileWithOptions(ctx, string(content), path, opts.Compile)
			if err := opts.Cache.put(key, toCached(out.Result)); err != nil {
				cacheWarnings = append(cacheWarnings, cacheWarning("write", err))
			}
		}
	} else {
		out.Result = compiler.CompileWithOptions(ctx, string(content), path, opts.Compile)
	}
	out.Result.Diagnostics = append(out.Result.Diagnostics, cacheWarnings...)

	compileStatus := StatusDone
	switch {
	case out.Cached:
		compileStatus = StatusCached
	case out.Result.HasErrors:
		compileStatus = StatusError
	}
	emit(opts.Progress, Event{File: path, Stage: StageCompile, Status: compileStatus, Elapsed: time.Since(started)})

	if opts.OutDir == "" || out.Result.HasErrors || out.Result.GeneratedCode == "" {
		return out
	}
	emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusWorking})
	dest := OutputPath(baseDir(opts.BaseDir), opts.OutDir, path)
	if err := writeOutput(dest, out.Result.GeneratedCode); err != nil {
		out.Result.Diagnostics = append(out.Result.Diagnostics, diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.IOWriteFileError,
			Message:  fmt.Sprintf("failed to write %s: %v", dest, err),
		})
		out.Result.HasErrors = true
		emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return out
	}
	out.Output = dest
	emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusDone, Elapsed: time.Since(started)})
	return out
}

func baseDir(dir string) string {
	if dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// writeOutput replaces dest atomically so a reader never sees half a file.
func writeOutput(dest, code string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".sigil-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(code); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func cacheWarning(op string, err error) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.IOCacheError,
		Message:  fmt.Sprintf("cache %s failed: %v", op, err),
	}
}

// failedResult stands in for a compilation that never started.
func failedResult(path, base string, code diag.Code, msg string) *compiler.Result {
	fs := source.NewFileSetWithBase(base)
	id := fs.AddVirtual(path, nil)
	return &compiler.Result{
		HasErrors: true,
		FileSet:   fs,
		File:      fs.Get(id),
		Diagnostics: []diag.Diagnostic{{
			Severity: diag.SevError,
			Code:     code,
			Message:  msg,
		}},
	}
}

// Summary counts files by outcome.
type Summary struct {
	Files    int
	Failed   int
	Cached   int
	Written  int
	Errors   int
	Warnings int
}

func Summarize(results []FileResult) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		if r.Result.HasErrors {
			s.Failed++
		}
		if r.Cached {
			s.Cached++
		}
		if r.Output != "" {
			s.Written++
		}
		for _, d := range r.Result.Diagnostics {
			switch {
			case d.Severity >= diag.SevError:
				s.Errors++
			case d.Severity == diag.SevWarning:
				s.Warnings++
			}
		}
	}
	return s
}
