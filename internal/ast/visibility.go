package ast

import "strings"

// Visibility is the declared access level. VisDefault means the source said
// nothing; the code generator picks the context default.
type Visibility uint8

const (
	VisDefault Visibility = iota
	VisPublic
	VisPrivate
	VisInternal
	VisProtected
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "public"
	case VisPrivate:
		return "private"
	case VisInternal:
		return "internal"
	case VisProtected:
		return "protected"
	}
	return ""
}

// Short is the canonical source spelling.
func (v Visibility) Short() string {
	switch v {
	case VisPublic:
		return "pub"
	case VisPrivate:
		return "priv"
	case VisInternal:
		return "int"
	case VisProtected:
		return "prot"
	}
	return ""
}

// ParseVisibility accepts both the short and the long spelling.
func ParseVisibility(s string) (Visibility, bool) {
	switch strings.ToLower(s) {
	case "pub", "public":
		return VisPublic, true
	case "priv", "private":
		return VisPrivate, true
	case "int", "internal":
		return VisInternal, true
	case "prot", "protected":
		return VisProtected, true
	}
	return VisDefault, false
}

// Modifiers is a bit set shared by classes, fields and methods.
type Modifiers uint16

const (
	ModStruct Modifiers = 1 << iota
	ModReadonly
	ModStatic
	ModAbstract
	ModSealed
	ModPartial
	ModVirtual
	ModOverride
	ModAsync
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPartial, "partial"},
	{ModStatic, "static"},
	{ModAbstract, "abstract"},
	{ModSealed, "sealed"},
	{ModVirtual, "virtual"},
	{ModOverride, "override"},
	{ModAsync, "async"},
	{ModReadonly, "readonly"},
	{ModStruct, "struct"},
}

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

// Names lists the set flags in canonical order.
func (m Modifiers) Names() []string {
	var out []string
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			out = append(out, mn.name)
		}
	}
	return out
}

// ParseModifier matches a modifier keyword case-insensitively.
func ParseModifier(s string) (Modifiers, bool) {
	s = strings.ToLower(s)
	for _, mn := range modifierNames {
		if mn.name == s {
			return mn.mod, true
		}
	}
	return 0, false
}
