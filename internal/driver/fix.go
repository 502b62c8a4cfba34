package driver

import (
	"context"
	"errors"
	"os"

	"sigil/internal/compiler"
	"sigil/internal/fix"
	"sigil/internal/source"
)

// FixOptions configures FixPaths.
type FixOptions struct {
	Apply   fix.ApplyOptions
	Compile compiler.Options
	// DryRun computes the rewritten text without writing it.
	DryRun bool
}

// FixResult is the outcome for one file. Content holds the rewritten text
// when Changed is set.
type FixResult struct {
	Path    string
	Changed bool
	Applied []fix.AppliedFix
	Skipped []fix.SkippedFix
	Content []byte
	Err     error
}

// FixPaths compiles each source file under paths and applies the fix-its
// its diagnostics carry.
func FixPaths(ctx context.Context, paths []string, opts FixOptions) ([]FixResult, error) {
	files, err := CollectFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoSources
	}
	results := make([]FixResult, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, fixFile(ctx, path, opts))
	}
	return results, nil
}

func fixFile(ctx context.Context, path string, opts FixOptions) FixResult {
	out := FixResult{Path: path}
	fs := source.NewFileSetWithBase(opts.Compile.BaseDir)
	id, err := fs.Load(path)
	if err != nil {
		out.Err = err
		return out
	}
	content := fs.Get(id).Content

	res := compiler.CompileWithOptions(ctx, string(content), path, opts.Compile)
	applied, err := fix.Apply(res.File, res.Diagnostics, opts.Apply)
	if applied != nil {
		out.Applied, out.Skipped = applied.Applied, applied.Skipped
	}
	switch {
	case errors.Is(err, fix.ErrNoFixes):
		return out
	case err != nil:
		out.Err = err
		return out
	}
	out.Changed = true
	out.Content = applied.Content
	if opts.DryRun {
		return out
	}
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, applied.Content, mode); err != nil {
		out.Err = err
	}
	return out
}
