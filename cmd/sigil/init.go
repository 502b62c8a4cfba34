package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"sigil/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new sigil project",
	Long: `Initialize a new sigil project by creating a project manifest (sigil.toml)
and an entry file (src/main.sgl). If [path|name] is omitted, initializes the
current directory. A non-existing name creates the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) > 0 {
			target = args[0]
		}
		return initProject(cmd.OutOrStdout(), target)
	},
}

// initProject writes sigil.toml and src/main.sgl under target. It refuses
// to touch a directory that already has a manifest and keeps an existing
// main.sgl.
func initProject(out io.Writer, target string) error {
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "sigil-project"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(project.Manifest(name)), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	mainPath := filepath.Join(target, "src", "main.sgl")
	createdMain := false
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(mainPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(mainPath, []byte(defaultMain(moduleName(name))), 0o644); err != nil {
			return fmt.Errorf("failed to write main.sgl: %w", err)
		}
		createdMain = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		rel = relPath(wd, target)
	}
	fmt.Fprintf(out, "Initialized sigil project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdMain {
		fmt.Fprintln(out, "  - src/main.sgl")
	} else {
		fmt.Fprintln(out, "  - src/main.sgl (existing)")
	}
	return nil
}

// moduleName turns a directory name into a module identifier:
// "my-calc" becomes "MyCalc".
func moduleName(dir string) string {
	var b strings.Builder
	upper := true
	for _, r := range dir {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" || unicode.IsDigit([]rune(name)[0]) {
		return "App" + name
	}
	return name
}

func defaultMain(module string) string {
	return fmt.Sprintf(`§M{m1:%s}
§F{f1:Abs:pub} §I{i32:x} §O{i32}
  §S (>= result 0)
  §IF{i1} (< x 0) §R (- 0 x) §/IF{i1}
  §R x
§/F{f1}
§/M{m1}
`, module)
}
