package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"sigil/internal/effects"
)

// Config is a parsed sigil.toml.
type Config struct {
	// Root is the directory holding the manifest; Path is the manifest itself.
	Root string `toml:"-"`
	Path string `toml:"-"`

	Package PackageConfig     `toml:"package"`
	Build   BuildConfig       `toml:"build"`
	Effects map[string]string `toml:"effects"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	// Sources are files or directories relative to Root.
	Sources          []string `toml:"sources"`
	Out              string   `toml:"out"`
	MaxDiagnostics   int      `toml:"max_diagnostics"`
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
	Jobs             int      `toml:"jobs"`
	Cache            bool     `toml:"cache"`
}

// ErrPackageSectionMissing reports a manifest without [package].
var ErrPackageSectionMissing = errors.New("missing [package]")

// DefaultConfig is what an absent key falls back to.
func DefaultConfig() Config {
	return Config{
		Build: BuildConfig{
			Sources:        []string{"."},
			Out:            "out",
			MaxDiagnostics: 100,
			Cache:          true,
		},
	}
}

// LoadConfig parses the manifest at path and fills defaults for keys it
// leaves out.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	cfg.Package.Name = strings.TrimSpace(cfg.Package.Name)
	if cfg.Package.Name == "" {
		return nil, fmt.Errorf("%s: [package].name is empty", path)
	}
	if len(cfg.Build.Sources) == 0 {
		cfg.Build.Sources = []string{"."}
	}
	if cfg.Build.Jobs < 0 || cfg.Build.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: [build] jobs and max_diagnostics must not be negative", path)
	}
	for _, src := range append([]string{cfg.Build.Out}, cfg.Build.Sources...) {
		if filepath.IsAbs(src) {
			return nil, fmt.Errorf("%s: path %q must be relative to the project root", path, src)
		}
	}
	if _, err := cfg.Catalog(); err != nil {
		return nil, fmt.Errorf("%s: [effects]: %w", path, err)
	}
	return &cfg, nil
}

// Load finds and parses the manifest above startDir. ok is false when
// there is none.
func Load(startDir string) (cfg *Config, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err = LoadConfig(path)
	return cfg, true, err
}

// Catalog is the built-in effect catalog extended with [effects].
func (c *Config) Catalog() (*effects.Catalog, error) {
	cat := effects.DefaultCatalog()
	if c == nil || len(c.Effects) == 0 {
		return cat, nil
	}
	if err := cat.Extend(c.Effects); err != nil {
		return nil, err
	}
	return cat, nil
}

// SourcePaths resolves Build.Sources against Root.
func (c *Config) SourcePaths() []string {
	out := make([]string, len(c.Build.Sources))
	for i, s := range c.Build.Sources {
		out[i] = filepath.Join(c.Root, filepath.FromSlash(s))
	}
	return out
}

// OutDir resolves Build.Out against Root.
func (c *Config) OutDir() string {
	return filepath.Join(c.Root, filepath.FromSlash(c.Build.Out))
}

// Manifest renders the sigil.toml written by `sigil init`.
func Manifest(name string) string {
	return fmt.Sprintf(`[package]
name = %q

[build]
sources = ["src"]
out = "out"
max_diagnostics = 100
warnings_as_errors = false
cache = true

# Extra effect catalog entries: callee = "kind:cap,..."
[effects]
`, name)
}
