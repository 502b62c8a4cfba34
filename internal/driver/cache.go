package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"sigil/internal/compiler"
	"sigil/internal/diag"
	"sigil/internal/project"
	"sigil/internal/source"
	"sigil/internal/version"
)

// Bump when cachedResult changes shape.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores compile results on disk keyed by a digest of the source
// and everything else that can change the output. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type cachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

type cachedDiagnostic struct {
	Code     uint16
	Severity uint8
	Message  string
	Start    uint32
	End      uint32
	Notes    []cachedNote
}

type cachedResult struct {
	Schema        uint16
	GeneratedCode string
	HasErrors     bool
	Diagnostics   []cachedDiagnostic
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app, falling back to
// ~/.cache/app.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := key.String()
	return filepath.Join(c.dir, "results", hexKey[:2], hexKey+".mp")
}

func (c *DiskCache) put(key project.Digest, payload *cachedResult) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (c *DiskCache) get(key project.Digest, out *cachedResult) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	// stale schema reads as a miss
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// cacheKey covers the file content, its path and the options that shape
// the output.
func cacheKey(path string, content []byte, opts compiler.Options) project.Digest {
	var flags []byte
	for _, on := range []bool{opts.IgnoreWarnings, opts.WarningsAsErrors, opts.ReportUnusedEffects} {
		if on {
			flags = append(flags, 1)
		} else {
			flags = append(flags, 0)
		}
	}
	flags = append(flags, byte(opts.MaxDiagnostics), byte(opts.MaxDiagnostics>>8))

	var catalog []byte
	if opts.Catalog != nil {
		for _, name := range opts.Catalog.Names() {
			set, _ := opts.Catalog.Lookup(name)
			catalog = append(catalog, name...)
			catalog = append(catalog, '=')
			catalog = append(catalog, set.String()...)
			catalog = append(catalog, '\n')
		}
	}
	return project.Combine(project.Sum(content),
		project.Sum([]byte(path)),
		project.Sum([]byte(version.Version)),
		project.Sum(flags),
		project.Sum(catalog),
	)
}

func toCached(res *compiler.Result) *cachedResult {
	out := &cachedResult{
		Schema:        diskCacheSchemaVersion,
		GeneratedCode: res.GeneratedCode,
		HasErrors:     res.HasErrors,
		Diagnostics:   make([]cachedDiagnostic, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Diagnostics {
		cd := cachedDiagnostic{
			Code:     uint16(d.Code),
			Severity: uint8(d.Severity),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		out.Diagnostics = append(out.Diagnostics, cd)
	}
	return out
}

// fromCached rebuilds a Result over a fresh file set holding content. A
// compilation only ever sees one file, so spans need no file remapping.
// Fix-its are not cached.
func fromCached(payload *cachedResult, path string, content []byte, baseDir string) *compiler.Result {
	fs := source.NewFileSetWithBase(baseDir)
	id := fs.AddVirtual(path, content)
	res := &compiler.Result{
		HasErrors:     payload.HasErrors,
		GeneratedCode: payload.GeneratedCode,
		FileSet:       fs,
		File:          fs.Get(id),
		Diagnostics:   make([]diag.Diagnostic, 0, len(payload.Diagnostics)),
	}
	for _, cd := range payload.Diagnostics {
		d := diag.Diagnostic{
			Code:     diag.Code(cd.Code),
			Severity: diag.Severity(cd.Severity),
			Message:  cd.Message,
			Primary:  source.Span{File: id, Start: cd.Start, End: cd.End},
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: source.Span{File: id, Start: n.Start, End: n.End}, Msg: n.Msg})
		}
		res.Diagnostics = append(res.Diagnostics, d)
	}
	return res
}
