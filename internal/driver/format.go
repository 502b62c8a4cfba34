package driver

import (
	"bytes"
	"context"
	"os"

	"sigil/internal/format"
	"sigil/internal/source"
)

// FormatOptions configures FormatPaths.
type FormatOptions struct {
	// Check reports files that would change without touching them.
	Check bool
	// Stdout returns formatted text instead of rewriting files.
	Stdout bool
	// Verify re-parses the output and fails when the tree changed.
	Verify         bool
	MaxDiagnostics int
	Options        format.Options
}

// FormatResult captures the result of formatting a single file.
type FormatResult struct {
	Path      string
	Changed   bool
	Err       error
	Formatted []byte
}

// FormatPaths formats files or directories (recursively collecting source
// files). A file that fails to parse gets Err set and is left alone.
func FormatPaths(ctx context.Context, paths []string, opts FormatOptions) ([]FormatResult, error) {
	files, err := CollectFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoSources
	}

	results := make([]FormatResult, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := FormatResult{Path: path}
		formatted, changed, err := formatSingleFile(path, opts)
		switch {
		case err != nil:
			result.Err = err
		case opts.Check:
			result.Changed = changed
		case opts.Stdout:
			result.Formatted = formatted
			result.Changed = changed
		case changed:
			mode := os.FileMode(0o644)
			if info, statErr := os.Stat(path); statErr == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(path, formatted, mode.Perm()); err != nil {
				result.Err = err
			} else {
				result.Changed = true
			}
		}
		results = append(results, result)
	}
	return results, nil
}

func formatSingleFile(path string, opts FormatOptions) (formatted []byte, changed bool, err error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, false, err
	}
	sf := fs.Get(id)
	if opts.Verify {
		if ok, msg := format.CheckRoundTrip(sf, opts.Options, opts.MaxDiagnostics); !ok {
			return nil, false, &FormatError{Path: path, Msg: msg}
		}
	}
	formatted, err = format.FormatFile(sf, opts.Options)
	if err != nil {
		return nil, false, err
	}
	// compare with the raw bytes so CRLF or BOM files count as changed
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return formatted, !bytes.Equal(raw, formatted), nil
}

// FormatError reports a formatting that would not round-trip.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string {
	return e.Path + ": " + e.Msg
}
