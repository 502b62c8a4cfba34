package symbols

import (
	"sigil/internal/ast"
	"sigil/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolModule
	SymbolFunction
	SymbolClass
	SymbolInterface
	SymbolEnum
	SymbolEnumMember
	SymbolMethod
	SymbolField
	SymbolParam
	SymbolLocal
	SymbolResult   // the implicit `result` of a postcondition
	SymbolExternal // capitalised root not declared in the unit, e.g. Console
	SymbolFallback // stands in for an expression the binder cannot handle
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolModule:
		return "module"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	case SymbolInterface:
		return "interface"
	case SymbolEnum:
		return "enum"
	case SymbolEnumMember:
		return "enum member"
	case SymbolMethod:
		return "method"
	case SymbolField:
		return "field"
	case SymbolParam:
		return "parameter"
	case SymbolLocal:
		return "local"
	case SymbolResult:
		return "result"
	case SymbolExternal:
		return "external"
	case SymbolFallback:
		return "fallback"
	default:
		return "invalid"
	}
}

// IsType reports whether the symbol names a type.
func (k SymbolKind) IsType() bool {
	switch k {
	case SymbolClass, SymbolInterface, SymbolEnum:
		return true
	}
	return false
}

// IsValue reports whether a reference to the symbol yields a value.
func (k SymbolKind) IsValue() bool {
	switch k {
	case SymbolParam, SymbolLocal, SymbolField, SymbolResult, SymbolEnumMember:
		return true
	}
	return false
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint8

const (
	SymbolFlagMutable SymbolFlags = 1 << iota
	SymbolFlagStatic
	SymbolFlagReadonly
)

// Symbol is one named entity. Decl is the declaring node; it is nil for
// externals and the fallback.
type Symbol struct {
	ID    SymbolID
	Name  string
	Kind  SymbolKind
	Flags SymbolFlags
	Span  source.Span
	Scope ScopeID
	Decl  ast.Node
	// Owner is the enclosing type for fields, methods and enum members.
	Owner SymbolID
	// Members is the scope holding a type's members.
	Members ScopeID
}

func (s *Symbol) Mutable() bool { return s.Flags&SymbolFlagMutable != 0 }

// Func returns the declaration of a function or method symbol.
func (s *Symbol) Func() (*ast.FuncDecl, bool) {
	fn, ok := s.Decl.(*ast.FuncDecl)
	return fn, ok
}
