package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sigil/internal/compiler"
	"sigil/internal/driver"
	"sigil/internal/lower"
	"sigil/internal/smt"
)

var smtCmd = &cobra.Command{
	Use:   "smt [flags] [file.sgl|directory...]",
	Short: "Prove postconditions with an SMT solver",
	Long: `Lower every function to single-assignment form, translate its
postconditions to SMT-LIB and ask z3 whether any input can violate them.`,
	RunE: runSMT,
}

func init() {
	smtCmd.Flags().String("z3", "", "path to the z3 binary (default: search PATH)")
	smtCmd.Flags().Duration("timeout", smt.DefaultTimeout, "time limit per condition")
	smtCmd.Flags().Int("jobs", 0, "max concurrent solver processes (0=one per condition)")
	smtCmd.Flags().Bool("emit", false, "print the SMT-LIB scripts instead of solving them")
	smtCmd.Flags().Bool("strict", false, "fail on unknown and timed-out conditions too")
	smtCmd.Flags().String("format", "text", "output format (text|json)")
}

type smtFileReport struct {
	Path     string
	Outcomes []smt.Outcome
}

func runSMT(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()
	cmd.SilenceUsage = true

	z3Path, err := cmd.Flags().GetString("z3")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	emit, err := cmd.Flags().GetBool("emit")
	if err != nil {
		return err
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}
	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown format: %s (expected text|json)", outputFormat)
	}

	var solver *smt.Solver
	if !emit {
		if solver, err = findSolver(z3Path, timeout, jobs); err != nil {
			return err
		}
	}

	inv, err := resolveInvocation(args)
	if err != nil {
		return err
	}
	compileOpts, err := compileOptions(cmd, inv)
	if err != nil {
		return err
	}
	files, err := driver.CollectFiles(cmd.Context(), inv.Paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return driver.ErrNoSources
	}

	// conditions only make sense over a checked tree, so the ordinary
	// pipeline runs first and its errors stop the file
	checked, err := driver.BuildFiles(cmd.Context(), files, driver.BuildOptions{Jobs: jobs, Compile: compileOpts, BaseDir: inv.BaseDir})
	if err != nil {
		return err
	}
	var failedFiles []driver.FileResult
	var reports []smtFileReport
	for _, fr := range checked {
		if fr.Result.HasErrors || fr.Result.AST == nil {
			failedFiles = append(failedFiles, fr)
			continue
		}
		conds := conditionsOf(fr.Result)
		rel := relPath(inv.BaseDir, fr.Path)
		if emit {
			emitScripts(os.Stdout, rel, conds)
			continue
		}
		reports = append(reports, smtFileReport{Path: rel, Outcomes: solver.CheckAll(cmd.Context(), conds)})
	}
	if len(failedFiles) > 0 {
		render := renderOptions{Format: "pretty", Color: useColor(cmd, os.Stderr)}
		if err := renderDiagnostics(os.Stderr, failedFiles, render); err != nil {
			return err
		}
	}

	failed := len(failedFiles) > 0
	if !emit {
		if outputFormat == "json" {
			if err := renderSMTJSON(os.Stdout, reports); err != nil {
				return err
			}
		} else {
			renderSMTText(os.Stdout, reports, useColor(cmd, os.Stdout))
		}
		for _, r := range reports {
			for _, o := range r.Outcomes {
				if outcomeFails(o.Status, strict) {
					failed = true
				}
			}
		}
	}
	if failed {
		cmd.SilenceErrors = true
		return errDiagnostics
	}
	return nil
}

func findSolver(path string, timeout time.Duration, jobs int) (*smt.Solver, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("z3: %w", err)
		}
		return &smt.Solver{Path: path, Timeout: timeout, Jobs: jobs}, nil
	}
	solver, err := smt.FindZ3()
	if err != nil {
		if errors.Is(err, smt.ErrSolverNotFound) {
			return nil, fmt.Errorf("%w (install z3, pass --z3, or use --emit)", err)
		}
		return nil, err
	}
	solver.Timeout, solver.Jobs = timeout, jobs
	return solver, nil
}

func conditionsOf(res *compiler.Result) []*smt.Condition {
	prog := lower.Lower(res.AST, res.Symbols, res.Sema)
	return smt.TranslateProgram(prog, res.Sema)
}

func outcomeFails(status smt.Status, strict bool) bool {
	switch status {
	case smt.StatusUnverified, smt.StatusError:
		return true
	case smt.StatusUnknown, smt.StatusTimeout:
		return strict
	default:
		return false
	}
}

func emitScripts(w io.Writer, path string, conds []*smt.Condition) {
	for _, c := range conds {
		fmt.Fprintf(w, "; %s: %s: %s\n", path, c.Function, c.Text)
		if c.Skipped != "" {
			fmt.Fprintf(w, "; skipped: %s\n\n", c.Skipped)
			continue
		}
		fmt.Fprintln(w, strings.TrimRight(c.Script, "\n"))
		fmt.Fprintln(w)
	}
}

func renderSMTText(w io.Writer, reports []smtFileReport, colored bool) {
	palette := map[smt.Status]*color.Color{
		smt.StatusVerified:   color.New(color.FgGreen),
		smt.StatusUnverified: color.New(color.FgRed, color.Bold),
		smt.StatusError:      color.New(color.FgRed),
		smt.StatusUnknown:    color.New(color.FgYellow),
		smt.StatusTimeout:    color.New(color.FgYellow),
		smt.StatusSkipped:    color.New(color.Faint),
	}
	for _, c := range palette {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	counts := map[smt.Status]int{}
	for _, r := range reports {
		for _, o := range r.Outcomes {
			counts[o.Status]++
			line := fmt.Sprintf("%s: %s: %s", r.Path, o.Condition.Function, o.Condition.Text)
			fmt.Fprintf(w, "%-10s %s", palette[o.Status].Sprint(string(o.Status)), line)
			if o.Message != "" {
				fmt.Fprintf(w, " (%s)", o.Message)
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "%d verified, %d unverified, %d unknown, %d timeout, %d error, %d skipped\n",
		counts[smt.StatusVerified], counts[smt.StatusUnverified], counts[smt.StatusUnknown],
		counts[smt.StatusTimeout], counts[smt.StatusError], counts[smt.StatusSkipped])
}

func renderSMTJSON(w io.Writer, reports []smtFileReport) error {
	type jsonOutcome struct {
		File     string `json:"file"`
		Function string `json:"function"`
		Contract string `json:"contract"`
		Status   string `json:"status"`
		Message  string `json:"message,omitempty"`
	}
	payload := []jsonOutcome{}
	for _, r := range reports {
		for _, o := range r.Outcomes {
			payload = append(payload, jsonOutcome{
				File:     r.Path,
				Function: o.Condition.Function,
				Contract: o.Condition.Text,
				Status:   string(o.Status),
				Message:  o.Message,
			})
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
