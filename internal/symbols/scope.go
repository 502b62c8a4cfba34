package symbols

import "sigil/internal/source"

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeModule             // module-level declarations
	ScopeType               // members of a class, interface or enum
	ScopeFunction           // parameters of a function or method
	ScopeBlock              // generic block scope
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeType:
		return "type"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Parent ScopeID
	// Owner is the type or function symbol the scope belongs to.
	Owner SymbolID
	// Base is the member scope of a base class, consulted after this one.
	Base      ScopeID
	Span      source.Span
	NameIndex map[string]SymbolID
	Symbols   []SymbolID
}
