package effects

import "testing"

func TestReadWriteEncompassesReadAndWrite(t *testing.T) {
	if !CapReadWrite.Encompasses(CapRead) || !CapReadWrite.Encompasses(CapWrite) {
		t.Fatal("rw must encompass r and w")
	}
	if CapRead.Encompasses(CapWrite) || CapWrite.Encompasses(CapRead) || CapRead.Encompasses(CapReadWrite) {
		t.Fatal("r and w must not encompass each other or rw")
	}
}

func TestSetEncompasses(t *testing.T) {
	declared, err := ParseList("fs:rw,env:r")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		need string
		ok   bool
	}{
		{"", true},
		{"fs:r", true},
		{"fs:w", true},
		{"fs:rw,env:r", true},
		{"env:w", false},
		{"env:rw", false},
		{"net:r", false},
	}
	for _, tt := range tests {
		need, err := ParseList(tt.need)
		if err != nil {
			t.Fatal(err)
		}
		if got := declared.Encompasses(need); got != tt.ok {
			t.Errorf("%s encompasses %q = %v, want %v", declared, tt.need, got, tt.ok)
		}
	}
}

func TestParseAliases(t *testing.T) {
	e, err := Parse("filesystem", "readwrite")
	if err != nil || e != (Effect{Kind: KindFS, Cap: CapReadWrite}) {
		t.Fatalf("got %v, %v", e, err)
	}
	if _, err := Parse("gpu", "r"); err == nil {
		t.Fatal("expected unknown kind error")
	}
	if _, err := Parse("fs", "x"); err == nil {
		t.Fatal("expected unknown capability error")
	}
}

func TestSetStringAndMissing(t *testing.T) {
	s := Of(Effect{KindIO, CapWrite}, Effect{KindFS, CapRead}, Effect{KindFS, CapWrite})
	if s.String() != "fs:rw,io:w" {
		t.Fatalf("got %q", s.String())
	}
	need := Of(Effect{KindFS, CapReadWrite}, Effect{KindNet, CapRead})
	if got := Of(Effect{KindFS, CapRead}).Missing(need).String(); got != "fs:w,net:r" {
		t.Fatalf("missing = %q", got)
	}
}

func TestCatalogLookupStripsNamespaces(t *testing.T) {
	c := DefaultCatalog()
	for _, name := range []string{"File.ReadAllText", "IO.File.ReadAllText", "System.IO.File.ReadAllText"} {
		set, ok := c.Lookup(name)
		if !ok || set.String() != "fs:r" {
			t.Errorf("%s: got %v %v", name, set, ok)
		}
	}
	if _, ok := c.Lookup("ReadAllText"); ok {
		t.Error("bare method names must not match")
	}
	if set, ok := c.Lookup("new System.IO.StreamWriter"); !ok || set.String() != "fs:w" {
		t.Errorf("constructor lookup: got %v %v", set, ok)
	}
}

func TestCatalogExtend(t *testing.T) {
	c := DefaultCatalog()
	if err := c.Extend(map[string]string{"Telemetry.Send": "net:w", "Cache.Get": "db:r"}); err != nil {
		t.Fatal(err)
	}
	if set, ok := c.Lookup("Telemetry.Send"); !ok || set.String() != "net:w" {
		t.Fatalf("got %v %v", set, ok)
	}
	if err := c.Extend(map[string]string{"Bad.Entry": "fs"}); err == nil {
		t.Fatal("expected error for malformed entry")
	}
}
