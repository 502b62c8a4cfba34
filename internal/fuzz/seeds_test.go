package fuzz

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

const maxSeedBytes = 64 << 10

var builtinSeeds = []string{
	"",
	"§M{m1:A} §/M{m1}",
	"§M{m1:A} §F{f1:F} §R missing §/F{f1} §/M{m1}",
	"§M{m1:A}\n§F{f1:F} §I{i32:n}\n§W{w1} n §K 1 §P \"one\" §K _ §P \"many\" §/W{w1}\n§/F{f1}\n§/M{m1}\n",
	"§M{m1:A} §F{f1:F} §I{i32:x} §O{i32} §Q (!= x 0) §R (/ 10 x) §/F{f1} §/M{m1}",
	"§M{m1:A} §F{f1:F} §IF{i1} (< x 0) §/IF{i2} §/F{f1}",
	"§M{",
	"§/M{m1}",
	"§R (((((",
	"§R \"unterminated",
}

// addSeeds adds the built-in seeds, every scenario source from the
// compiler testdata and any .sgl file under the repository testdata.
func addSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addScenarioSeeds(f)
	addFileSeeds(f, filepath.Join("..", "..", "testdata"))
}

func addScenarioSeeds(f *testing.F) {
	// #nosec G304 -- fixed repository location
	data, err := os.ReadFile(filepath.Join("..", "compiler", "testdata", "scenarios.yaml"))
	if err != nil {
		return
	}
	var scenarios []struct {
		Source string `yaml:"source"`
	}
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return
	}
	for _, sc := range scenarios {
		f.Add(clampSeed([]byte(sc.Source)))
	}
}

func addFileSeeds(f *testing.F, root string) {
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".sgl" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err == nil {
			f.Add(clampSeed(src))
		}
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
