package effects

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog maps external API names to the effects they perform. Names are
// dotted callee paths ("File.ReadAllText") or, for constructors, "new T".
type Catalog struct {
	entries map[string]Set
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Set)}
}

var builtinEntries = []struct {
	name string
	effs string
}{
	{"File.ReadAllText", "fs:r"},
	{"File.ReadAllLines", "fs:r"},
	{"File.ReadAllBytes", "fs:r"},
	{"File.ReadLines", "fs:r"},
	{"File.Exists", "fs:r"},
	{"File.OpenRead", "fs:r"},
	{"File.WriteAllText", "fs:w"},
	{"File.WriteAllLines", "fs:w"},
	{"File.WriteAllBytes", "fs:w"},
	{"File.AppendAllText", "fs:w"},
	{"File.Delete", "fs:w"},
	{"File.Copy", "fs:rw"},
	{"File.Move", "fs:rw"},
	{"File.OpenWrite", "fs:w"},
	{"Directory.Exists", "fs:r"},
	{"Directory.GetFiles", "fs:r"},
	{"Directory.EnumerateFiles", "fs:r"},
	{"Directory.CreateDirectory", "fs:w"},
	{"Directory.Delete", "fs:w"},
	{"new StreamReader", "fs:r"},
	{"new StreamWriter", "fs:w"},
	{"new FileStream", "fs:rw"},
	{"Environment.GetEnvironmentVariable", "env:r"},
	{"Environment.GetEnvironmentVariables", "env:r"},
	{"Environment.SetEnvironmentVariable", "env:w"},
	{"Environment.Exit", "env:w"},
	{"Environment.GetCommandLineArgs", "env:r"},
	{"Console.WriteLine", "io:w"},
	{"Console.Write", "io:w"},
	{"Console.ReadLine", "io:r"},
	{"Console.ReadKey", "io:r"},
	{"Console.Read", "io:r"},
	{"new HttpClient", "net:rw"},
	{"HttpClient.GetAsync", "net:r"},
	{"HttpClient.GetStringAsync", "net:r"},
	{"HttpClient.PostAsync", "net:w"},
	{"HttpClient.PutAsync", "net:w"},
	{"HttpClient.DeleteAsync", "net:w"},
	{"Dns.GetHostAddresses", "net:r"},
	{"new SqlConnection", "db:rw"},
	{"DbCommand.ExecuteReader", "db:r"},
	{"DbCommand.ExecuteScalar", "db:r"},
	{"DbCommand.ExecuteNonQuery", "db:w"},
}

// DefaultCatalog returns a fresh catalog with the built-in entries.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, e := range builtinEntries {
		if err := c.AddSpec(e.name, e.effs); err != nil {
			panic(err) // the built-in table is static
		}
	}
	return c
}

// Add registers name, merging with an existing entry.
func (c *Catalog) Add(name string, set Set) {
	c.entries[name] = c.entries[name].Union(set)
}

// AddSpec registers name with an effect list such as "fs:r,io:w".
func (c *Catalog) AddSpec(name, spec string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("effect catalog entry has an empty name")
	}
	set, err := ParseList(spec)
	if err != nil {
		return fmt.Errorf("effect catalog entry %s: %w", name, err)
	}
	if set.IsEmpty() {
		return fmt.Errorf("effect catalog entry %s declares no effects", name)
	}
	c.Add(name, set)
	return nil
}

// Extend adds every entry of table, as loaded from project configuration.
// Entries are applied in name order so the first reported error is stable.
func (c *Catalog) Extend(table map[string]string) error {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.AddSpec(name, table[name]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds name, then retries without leading namespace segments so
// "System.IO.File.ReadAllText" matches "File.ReadAllText". A bare method
// name is never matched on its own.
func (c *Catalog) Lookup(name string) (Set, bool) {
	if c == nil {
		return Set{}, false
	}
	isNew := strings.HasPrefix(name, "new ")
	path := strings.TrimPrefix(name, "new ")
	for {
		key := path
		if isNew {
			key = "new " + path
		}
		if set, ok := c.entries[key]; ok {
			return set, true
		}
		_, rest, ok := strings.Cut(path, ".")
		if !ok || (!isNew && !strings.Contains(rest, ".")) {
			return Set{}, false
		}
		path = rest
	}
}

func (c *Catalog) Len() int { return len(c.entries) }

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.entries))
	for name := range c.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Clone() *Catalog {
	out := NewCatalog()
	for name, set := range c.entries {
		out.entries[name] = set
	}
	return out
}
