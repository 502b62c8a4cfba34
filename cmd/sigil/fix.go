package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sigil/internal/driver"
	"sigil/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [file.sgl|directory...]",
	Short: "Apply suggested fixes to sigil sources",
	Long: `Compile sources and apply the fixes their diagnostics suggest, such as
replacing a misspelled name with the closest declared one. By default only the
first fix of each file is applied.`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every non-overlapping fix")
	fixCmd.Flags().String("id", "", "apply only the fix with this id (see --dry-run)")
	fixCmd.Flags().Bool("dry-run", false, "list fixes without writing files")
	fixCmd.Flags().String("format", "text", "output format (text|json)")
}

func runFix(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if all && id != "" {
		return errors.New("--all and --id cannot be used together")
	}
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown format: %s (expected text|json)", outputFormat)
	}

	applyOpts := fix.ApplyOptions{Mode: fix.ApplyModeOnce}
	switch {
	case all:
		applyOpts.Mode = fix.ApplyModeAll
	case id != "":
		applyOpts = fix.ApplyOptions{Mode: fix.ApplyModeID, TargetID: id}
	}

	inv, err := resolveInvocation(args)
	if err != nil {
		return err
	}
	compileOpts, err := compileOptions(cmd, inv)
	if err != nil {
		return err
	}
	compileOpts.EnableTimings = false

	results, err := driver.FixPaths(cmd.Context(), inv.Paths, driver.FixOptions{
		Apply:   applyOpts,
		Compile: compileOpts,
		DryRun:  dryRun,
	})
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		if err := renderFixJSON(os.Stdout, inv.BaseDir, results); err != nil {
			return err
		}
	} else {
		renderFixText(os.Stdout, inv.BaseDir, results, dryRun)
	}
	for _, r := range results {
		if r.Err != nil {
			cmd.SilenceErrors = true
			return errors.New("fix: some files could not be fixed")
		}
	}
	return nil
}

func renderFixText(w io.Writer, base string, results []driver.FixResult, dryRun bool) {
	verb := "fixed"
	if dryRun {
		verb = "would fix"
	}
	total := 0
	for _, r := range results {
		path := relPath(base, r.Path)
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "fix: %s: %v\n", path, r.Err)
			continue
		}
		for _, a := range r.Applied {
			fmt.Fprintf(w, "%s %s: %s [%s]\n", verb, path, a.Title, a.ID)
			total++
		}
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "skipped %s: %s (%s)\n", path, s.Title, s.Reason)
		}
	}
	if total == 0 {
		fmt.Fprintln(w, "no applicable fixes found")
	}
}

func renderFixJSON(w io.Writer, base string, results []driver.FixResult) error {
	type jsonFix struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Reason  string `json:"reason,omitempty"`
	}
	type jsonFile struct {
		Path    string    `json:"path"`
		Changed bool      `json:"changed"`
		Applied []jsonFix `json:"applied,omitempty"`
		Skipped []jsonFix `json:"skipped,omitempty"`
		Error   string    `json:"error,omitempty"`
	}
	payload := make([]jsonFile, 0, len(results))
	for _, r := range results {
		jf := jsonFile{Path: relPath(base, r.Path), Changed: r.Changed}
		for _, a := range r.Applied {
			jf.Applied = append(jf.Applied, jsonFix{ID: a.ID, Title: a.Title, Code: a.Code.ID(), Message: a.Message})
		}
		for _, s := range r.Skipped {
			jf.Skipped = append(jf.Skipped, jsonFix{ID: s.ID, Title: s.Title, Reason: s.Reason})
		}
		if r.Err != nil {
			jf.Error = r.Err.Error()
		}
		payload = append(payload, jf)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
