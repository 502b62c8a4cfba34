package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sigil/internal/compiler"
	"sigil/internal/project"
)

const noManifestMessage = "no " + project.ManifestName + " found\nplease pass a file or directory, e.g.:\n  sigil build src/"

// invocation is what a command works on: explicit paths, or the sources of
// the enclosing project.
type invocation struct {
	Config  *project.Config // nil outside a project
	Paths   []string
	BaseDir string
	OutDir  string
}

// resolveInvocation looks for a manifest above the first argument (or the
// working directory) and fills the paths from it when none were given.
func resolveInvocation(args []string) (*invocation, error) {
	start := "."
	if len(args) > 0 {
		start = args[0]
		if info, err := os.Stat(start); err == nil && !info.IsDir() {
			start = filepath.Dir(start)
		}
	}
	cfg, found, err := project.Load(start)
	if err != nil {
		return nil, err
	}

	inv := &invocation{}
	if found {
		inv.Config = cfg
		inv.BaseDir = cfg.Root
		inv.OutDir = cfg.OutDir()
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		inv.BaseDir = wd
	}

	switch {
	case len(args) > 0:
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %q: %w", a, err)
			}
			inv.Paths = append(inv.Paths, abs)
		}
	case found:
		inv.Paths = cfg.SourcePaths()
	default:
		return nil, errors.New(noManifestMessage)
	}
	return inv, nil
}

// compileOptions merges the global flags over the manifest settings. An
// explicit --max-diagnostics wins over [build].max_diagnostics.
func compileOptions(cmd *cobra.Command, inv *invocation) (compiler.Options, error) {
	flags := cmd.Root().PersistentFlags()
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return compiler.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return compiler.Options{}, fmt.Errorf("failed to get timings flag: %w", err)
	}

	opts := compiler.Options{
		MaxDiagnostics: maxDiagnostics,
		EnableTimings:  timings,
		BaseDir:        inv.BaseDir,
	}
	if cfg := inv.Config; cfg != nil {
		if !flags.Changed("max-diagnostics") {
			opts.MaxDiagnostics = cfg.Build.MaxDiagnostics
		}
		opts.WarningsAsErrors = cfg.Build.WarningsAsErrors
		catalog, err := cfg.Catalog()
		if err != nil {
			return compiler.Options{}, fmt.Errorf("%s: [effects]: %w", cfg.Path, err)
		}
		opts.Catalog = catalog
	}
	return opts, nil
}

// jobsFor picks the worker count: the flag when set, else the manifest.
func jobsFor(cmd *cobra.Command, inv *invocation) (int, error) {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return 0, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs < 0 {
		return 0, fmt.Errorf("--jobs must not be negative")
	}
	if jobs == 0 && inv.Config != nil {
		jobs = inv.Config.Build.Jobs
	}
	return jobs, nil
}

// relPath shows path relative to base when it lies below it.
func relPath(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
