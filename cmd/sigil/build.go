package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sigil/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.sgl|directory...]",
	Short: "Translate sigil sources to C#",
	Long: `Compile sigil sources and write one .cs file per source into the output
directory. With no arguments the sources of the enclosing sigil.toml project
are built into its [build].out directory.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("out", "", "output directory for generated .cs files")
	buildCmd.Flags().Int("jobs", 0, "max parallel compilations (0=auto)")
	buildCmd.Flags().Bool("no-cache", false, "bypass the persistent compile cache")
	buildCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	addRenderFlags(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()
	cmd.SilenceUsage = true

	outFlag, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	render, err := readRenderOptions(cmd, args)
	if err != nil {
		return err
	}
	render.Color = useColor(cmd, os.Stderr)

	inv, err := resolveInvocation(args)
	if err != nil {
		return err
	}
	compileOpts, err := compileOptions(cmd, inv)
	if err != nil {
		return err
	}
	compileOpts.WarningsAsErrors = compileOpts.WarningsAsErrors || warningsAsErrors
	jobs, err := jobsFor(cmd, inv)
	if err != nil {
		return err
	}

	outDir := inv.OutDir
	if outFlag != "" {
		outDir = outFlag
	}
	if outDir == "" {
		return errors.New("no output directory: pass --out or run inside a sigil.toml project")
	}

	opts := driver.BuildOptions{
		Jobs:    jobs,
		Compile: compileOpts,
		BaseDir: inv.BaseDir,
		OutDir:  outDir,
	}
	cacheEnabled := !noCache && (inv.Config == nil || inv.Config.Build.Cache)
	if cacheEnabled {
		cache, err := driver.OpenDiskCache("sigil")
		if err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "warning: cache disabled: %v\n", err)
			}
		} else {
			opts.Cache = cache
		}
	}

	files, err := driver.CollectFiles(cmd.Context(), inv.Paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return driver.ErrNoSources
	}

	var results []driver.FileResult
	if !quiet && shouldUseTUI(mode) {
		title := "sigil build"
		if inv.Config != nil {
			title = "sigil build " + inv.Config.Package.Name
		}
		results, err = runBuildWithUI(cmd.Context(), title, files, opts)
	} else {
		results, err = driver.BuildFiles(cmd.Context(), files, opts)
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if err := renderDiagnostics(os.Stderr, results, render); err != nil {
		return err
	}
	if compileOpts.EnableTimings {
		printTimings(os.Stderr, results)
	}
	if !quiet {
		s := driver.Summarize(results)
		fmt.Fprintf(os.Stdout, "built %d/%d files into %s (%d cached, %d errors, %d warnings)\n",
			s.Written, s.Files, relPath(inv.BaseDir, outDir), s.Cached, s.Errors, s.Warnings)
	}
	if anyErrors(results) {
		cmd.SilenceErrors = true
		return errDiagnostics
	}
	return nil
}
