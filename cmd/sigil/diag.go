package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sigil/internal/driver"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [file.sgl|directory...]",
	Short: "Check sigil sources and report diagnostics",
	Long: `Run every check over sigil source files without writing any output.
With no arguments the sources of the enclosing sigil.toml project are checked.`,
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	diagCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	diagCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	diagCmd.Flags().Bool("unused-effects", false, "report declared effects a function never uses")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diagCmd.Flags().Bool("disk-cache", false, "reuse results from the persistent compile cache")
	addRenderFlags(diagCmd)
}

// runDiagnose compiles every file in memory and renders the diagnostics.
// It fails when any file has an error.
func runDiagnose(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()
	cmd.SilenceUsage = true

	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return errors.New("no-warnings and warnings-as-errors flags cannot be used together")
	}
	unusedEffects, err := cmd.Flags().GetBool("unused-effects")
	if err != nil {
		return fmt.Errorf("failed to get unused-effects flag: %w", err)
	}
	diskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	render, err := readRenderOptions(cmd, args)
	if err != nil {
		return err
	}

	inv, err := resolveInvocation(args)
	if err != nil {
		return err
	}
	compileOpts, err := compileOptions(cmd, inv)
	if err != nil {
		return err
	}
	compileOpts.IgnoreWarnings = noWarnings
	compileOpts.WarningsAsErrors = compileOpts.WarningsAsErrors || warningsAsErrors
	if noWarnings {
		compileOpts.WarningsAsErrors = false
	}
	compileOpts.ReportUnusedEffects = unusedEffects

	jobs, err := jobsFor(cmd, inv)
	if err != nil {
		return err
	}
	opts := driver.BuildOptions{
		Jobs:    jobs,
		Compile: compileOpts,
		BaseDir: inv.BaseDir,
	}
	if diskCache {
		if opts.Cache, err = driver.OpenDiskCache("sigil"); err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
	}

	results, err := driver.BuildPaths(cmd.Context(), inv.Paths, opts)
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}
	if err := renderDiagnostics(os.Stdout, results, render); err != nil {
		return fmt.Errorf("failed to format diagnostics: %w", err)
	}
	if compileOpts.EnableTimings {
		printTimings(os.Stderr, results)
	}
	if anyErrors(results) {
		cmd.SilenceErrors = true
		return errDiagnostics
	}
	return nil
}
