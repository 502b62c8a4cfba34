// Package effects models declared side-effect capabilities and checks that
// every function only performs the effects it declares.
package effects

import (
	"fmt"
	"strings"
)

// Kind is the resource category an effect touches.
type Kind uint8

const (
	KindFS Kind = iota
	KindEnv
	KindNet
	KindDB
	KindIO

	numKinds
)

var kindNames = [numKinds]string{"fs", "env", "net", "db", "io"}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind accepts the short names and their spelled-out aliases.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fs", "filesystem", "file":
		return KindFS, true
	case "env", "environment":
		return KindEnv, true
	case "net", "network", "http":
		return KindNet, true
	case "db", "database":
		return KindDB, true
	case "io", "console":
		return KindIO, true
	}
	return 0, false
}

// Cap is a capability bit set. CapReadWrite is the union of read and write,
// so it encompasses both.
type Cap uint8

const (
	CapRead  Cap = 1 << iota
	CapWrite
	CapReadWrite = CapRead | CapWrite
)

func (c Cap) String() string {
	switch c {
	case CapRead:
		return "r"
	case CapWrite:
		return "w"
	case CapReadWrite:
		return "rw"
	}
	return ""
}

// Encompasses reports whether holding c is enough to perform other.
func (c Cap) Encompasses(other Cap) bool {
	return other != 0 && c&other == other
}

func ParseCap(s string) (Cap, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "read":
		return CapRead, true
	case "w", "write":
		return CapWrite, true
	case "rw", "wr", "readwrite":
		return CapReadWrite, true
	}
	return 0, false
}

// Effect is one kind:capability pair such as fs:r.
type Effect struct {
	Kind Kind
	Cap  Cap
}

func (e Effect) String() string {
	return e.Kind.String() + ":" + e.Cap.String()
}

// Parse builds an effect from its two written halves.
func Parse(kind, capability string) (Effect, error) {
	k, ok := ParseKind(kind)
	if !ok {
		return Effect{}, fmt.Errorf("unknown effect kind %q (expected fs, env, net, db or io)", kind)
	}
	c, ok := ParseCap(capability)
	if !ok {
		return Effect{}, fmt.Errorf("unknown capability %q for %s (expected r, w or rw)", capability, k)
	}
	return Effect{Kind: k, Cap: c}, nil
}

// ParseList parses "fs:r,io:w". Empty input is the empty set.
func ParseList(s string) (Set, error) {
	var set Set
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kind, capability, ok := strings.Cut(item, ":")
		if !ok {
			return Set{}, fmt.Errorf("effect %q must be written kind:capability", item)
		}
		eff, err := Parse(kind, capability)
		if err != nil {
			return Set{}, err
		}
		set = set.With(eff)
	}
	return set, nil
}

// Set is an effect set kept as one capability mask per kind. The zero value
// is the empty set.
type Set struct {
	caps [numKinds]Cap
}

// Of builds a set from individual effects.
func Of(effs ...Effect) Set {
	var s Set
	for _, e := range effs {
		s = s.With(e)
	}
	return s
}

// With returns s plus e.
func (s Set) With(e Effect) Set {
	if e.Kind < numKinds {
		s.caps[e.Kind] |= e.Cap
	}
	return s
}

func (s Set) Union(o Set) Set {
	for k := range s.caps {
		s.caps[k] |= o.caps[k]
	}
	return s
}

// Allows reports whether the set grants e.
func (s Set) Allows(e Effect) bool {
	if e.Kind >= numKinds {
		return false
	}
	return s.caps[e.Kind].Encompasses(e.Cap)
}

// Encompasses reports whether every effect of o is granted by s.
func (s Set) Encompasses(o Set) bool {
	for k := range s.caps {
		if o.caps[k] != 0 && !s.caps[k].Encompasses(o.caps[k]) {
			return false
		}
	}
	return true
}

// Missing returns the parts of o not granted by s.
func (s Set) Missing(o Set) Set {
	var out Set
	for k := range s.caps {
		out.caps[k] = o.caps[k] &^ s.caps[k]
	}
	return out
}

func (s Set) IsEmpty() bool {
	return s == Set{}
}

// Items lists the effects in kind order, one entry per kind.
func (s Set) Items() []Effect {
	var out []Effect
	for k, c := range s.caps {
		if c != 0 {
			out = append(out, Effect{Kind: Kind(k), Cap: c})
		}
	}
	return out
}

// String renders the set as "fs:rw,io:w", or "" when empty.
func (s Set) String() string {
	items := s.Items()
	parts := make([]string, len(items))
	for i, e := range items {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

// Describe renders the set for documentation comments, e.g.
// "filesystem read/write, console write".
func (s Set) Describe() string {
	var parts []string
	for _, e := range s.Items() {
		parts = append(parts, describeKind[e.Kind]+" "+describeCap[e.Cap])
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

var describeKind = [numKinds]string{"filesystem", "environment", "network", "database", "console"}

var describeCap = map[Cap]string{CapRead: "read", CapWrite: "write", CapReadWrite: "read/write"}

// Kinds lists every effect kind.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}
