package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sigil/internal/diag"
	"sigil/internal/diagfmt"
	"sigil/internal/driver"
	"sigil/internal/observ"
	"sigil/internal/version"
)

// renderOptions carries the output flags shared by build and diag.
type renderOptions struct {
	Format    string
	PathMode  diagfmt.PathMode
	Color     bool
	WithNotes bool
	Suggest   bool
	Preview   bool
	Args      []string
}

func readRenderOptions(cmd *cobra.Command, args []string) (renderOptions, error) {
	opts := renderOptions{Format: "pretty", PathMode: diagfmt.PathModeAuto, Args: args}
	var err error
	if cmd.Flags().Lookup("format") != nil {
		if opts.Format, err = cmd.Flags().GetString("format"); err != nil {
			return opts, fmt.Errorf("failed to get format flag: %w", err)
		}
	}
	switch opts.Format {
	case "pretty", "json", "sarif", "short":
	default:
		return opts, fmt.Errorf("unknown format: %s (expected pretty|json|sarif|short)", opts.Format)
	}
	if opts.WithNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.Suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return opts, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if opts.Preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return opts, fmt.Errorf("failed to get preview flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if fullPath {
		opts.PathMode = diagfmt.PathModeAbsolute
	}
	opts.Color = useColor(cmd, os.Stdout)
	return opts, nil
}

// addRenderFlags registers the diagnostic output flags on cmd.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	cmd.Flags().Bool("preview", false, "show the lines a fix would produce (implies --suggest)")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// renderDiagnostics writes the diagnostics of every result in opts.Format.
// Files without diagnostics print nothing in pretty and short mode.
func renderDiagnostics(w io.Writer, results []driver.FileResult, opts renderOptions) error {
	showFixes := opts.Suggest || opts.Preview
	switch opts.Format {
	case "pretty":
		printed := 0
		for _, r := range results {
			diags := visible(r.Result.Diagnostics)
			if len(diags) == 0 {
				continue
			}
			if printed > 0 {
				fmt.Fprintln(w)
			}
			printed++
			if len(results) > 1 {
				fmt.Fprintf(w, "== %s ==\n", r.Result.File.FormatPath(opts.PathMode.String(), r.Result.FileSet.BaseDir()))
			}
			diagfmt.Pretty(w, diags, r.Result.FileSet, diagfmt.PrettyOpts{
				Color:     opts.Color,
				Context:   2,
				PathMode:  opts.PathMode,
				ShowNotes: opts.WithNotes,
				ShowFixes: showFixes,
			})
		}
	case "short":
		for _, r := range results {
			diagfmt.Short(w, visible(r.Result.Diagnostics), r.Result.FileSet, opts.PathMode)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.PathMode,
			IncludeNotes:     opts.WithNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  opts.Preview,
		}
		if len(results) == 1 {
			r := results[0].Result
			return diagfmt.JSON(w, r.Diagnostics, r.FileSet, jsonOpts)
		}
		return diagfmt.JSONFiles(w, fileDiagnostics(results), jsonOpts)
	case "sarif":
		return diagfmt.Sarif(w, fileDiagnostics(results), diagfmt.SarifRunMeta{
			ToolName:       "sigil",
			ToolVersion:    version.Version,
			InvocationArgs: opts.Args,
		})
	default:
		return fmt.Errorf("unknown format: %s", opts.Format)
	}
	return nil
}

func fileDiagnostics(results []driver.FileResult) []diagfmt.FileDiagnostics {
	out := make([]diagfmt.FileDiagnostics, 0, len(results))
	for _, r := range results {
		out = append(out, diagfmt.FileDiagnostics{FileSet: r.Result.FileSet, Diagnostics: r.Result.Diagnostics})
	}
	return out
}

// visible drops timing payloads; --timings prints those separately.
func visible(diags []diag.Diagnostic) []diag.Diagnostic {
	out := diags[:0:0]
	for _, d := range diags {
		if d.Code != diag.ObsTimings {
			out = append(out, d)
		}
	}
	return out
}

func printTimings(w io.Writer, results []driver.FileResult) {
	for _, r := range results {
		if len(r.Result.Timings.Phases) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", r.Result.File.FormatPath("auto", r.Result.FileSet.BaseDir()))
		writeReport(w, r.Result.Timings)
	}
}

func writeReport(w io.Writer, report observ.Report) {
	for _, p := range report.Phases {
		line := fmt.Sprintf("  %-12s %8.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			line += "  " + p.Note
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(w, "  %-12s %8.2f ms\n", "total", report.TotalMS)
}

// errDiagnostics makes the command fail without cobra printing anything
// further; the diagnostics were already shown.
var errDiagnostics = fmt.Errorf("compilation failed")

func anyErrors(results []driver.FileResult) bool {
	for _, r := range results {
		if r.Result.HasErrors {
			return true
		}
	}
	return false
}
