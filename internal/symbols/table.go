package symbols

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"sigil/internal/ast"
	"sigil/internal/source"
)

// Table is the binder's output: symbol and scope arenas plus side tables
// keyed by AST node identity.
type Table struct {
	symbols []*Symbol
	scopes  []*Scope

	Module ScopeID
	// Refs maps Name, This and MemberExpr nodes, type references and
	// enum patterns to the symbol they denote.
	Refs map[ast.NodeID]SymbolID
	// Decls maps declaring nodes (functions, params, binds, ...) to symbols.
	Decls map[ast.NodeID]SymbolID
	// Scopes maps function and block-owning nodes to the scope they open.
	Scopes map[ast.NodeID]ScopeID
	// Unresolved holds lower-case names inside contracts that did not
	// resolve. They are left for the contract checker to report.
	Unresolved map[ast.NodeID]string

	externals map[string]SymbolID
	fallback  SymbolID
}

// NewTable builds an empty table. Slot 0 of both arenas stays nil.
func NewTable() *Table {
	t := &Table{
		symbols:    make([]*Symbol, 1, 64),
		scopes:     make([]*Scope, 1, 16),
		Refs:       make(map[ast.NodeID]SymbolID),
		Decls:      make(map[ast.NodeID]SymbolID),
		Scopes:     make(map[ast.NodeID]ScopeID),
		Unresolved: make(map[ast.NodeID]string),
		externals:  make(map[string]SymbolID),
	}
	return t
}

func (t *Table) newScope(kind ScopeKind, parent ScopeID, owner SymbolID, span source.Span) ScopeID {
	n, err := safecast.Conv[uint32](len(t.scopes))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := ScopeID(n)
	t.scopes = append(t.scopes, &Scope{ID: id, Kind: kind, Parent: parent, Owner: owner, Span: span, NameIndex: make(map[string]SymbolID)})
	return id
}

func (t *Table) newSymbol(sym Symbol) SymbolID {
	n, err := safecast.Conv[uint32](len(t.symbols))
	if err != nil {
		panic(fmt.Errorf("symbol arena overflow: %w", err))
	}
	sym.ID = SymbolID(n)
	t.symbols = append(t.symbols, &sym)
	return sym.ID
}

// Symbol returns the symbol for id, or nil.
func (t *Table) Symbol(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(t.symbols) {
		return nil
	}
	return t.symbols[id]
}

// Scope returns the scope for id, or nil.
func (t *Table) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(t.scopes) {
		return nil
	}
	return t.scopes[id]
}

// SymbolCount reports the number of allocated symbols.
func (t *Table) SymbolCount() int { return len(t.symbols) - 1 }

// Ref returns the symbol a node refers to.
func (t *Table) Ref(n ast.Node) (*Symbol, bool) {
	sym := t.Symbol(t.Refs[n.NodeID()])
	return sym, sym != nil
}

// DeclOf returns the symbol declared by a node.
func (t *Table) DeclOf(n ast.Node) (*Symbol, bool) {
	sym := t.Symbol(t.Decls[n.NodeID()])
	return sym, sym != nil
}

// LookupIn searches scope and its ancestors, following base-class scopes.
func (t *Table) LookupIn(scope ScopeID, name string) (*Symbol, bool) {
	for s := t.Scope(scope); s != nil; s = t.Scope(s.Parent) {
		if sym := t.lookupMember(s.ID, name, 0); sym != nil {
			return sym, true
		}
	}
	return nil, false
}

// Member finds name among the members of a type symbol, including
// inherited members.
func (t *Table) Member(owner *Symbol, name string) (*Symbol, bool) {
	if owner == nil || !owner.Members.IsValid() {
		return nil, false
	}
	sym := t.lookupMember(owner.Members, name, 0)
	return sym, sym != nil
}

func (t *Table) lookupMember(scope ScopeID, name string, depth int) *Symbol {
	s := t.Scope(scope)
	if s == nil || depth > 16 {
		return nil
	}
	if id, ok := s.NameIndex[name]; ok {
		return t.Symbol(id)
	}
	if s.Base.IsValid() {
		return t.lookupMember(s.Base, name, depth+1)
	}
	return nil
}

// TypeByName finds a module-level class, interface or enum.
func (t *Table) TypeByName(name string) (*Symbol, bool) {
	sym, ok := t.LookupIn(t.Module, name)
	if !ok || !sym.Kind.IsType() {
		return nil, false
	}
	return sym, true
}

// VisibleNames lists every name visible from scope, nearest first, then
// alphabetically.
func (t *Table) VisibleNames(scope ScopeID) []string {
	seen := map[string]bool{}
	var out []string
	for s := t.Scope(scope); s != nil; s = t.Scope(s.Parent) {
		var level []string
		for cur := s; cur != nil; cur = t.Scope(cur.Base) {
			for name := range cur.NameIndex {
				if !seen[name] {
					seen[name] = true
					level = append(level, name)
				}
			}
		}
		sort.Strings(level)
		out = append(out, level...)
	}
	return out
}

// External returns the shared symbol for an undeclared capitalised root.
func (t *Table) External(name string) *Symbol {
	if id, ok := t.externals[name]; ok {
		return t.Symbol(id)
	}
	id := t.newSymbol(Symbol{Name: name, Kind: SymbolExternal})
	t.externals[name] = id
	return t.Symbol(id)
}

// Fallback returns the symbol bound to unsupported expressions.
func (t *Table) Fallback() *Symbol {
	if !t.fallback.IsValid() {
		t.fallback = t.newSymbol(Symbol{Name: "<unsupported>", Kind: SymbolFallback})
	}
	return t.Symbol(t.fallback)
}

// HasOpenMembers reports whether a class inherits from a type outside the
// unit, so a missing member may still exist on the base.
func (t *Table) HasOpenMembers(owner *Symbol) bool {
	for depth := 0; owner != nil && owner.Kind == SymbolClass && depth < 16; depth++ {
		cls, ok := owner.Decl.(*ast.ClassDecl)
		if !ok || cls.Base == "" {
			return false
		}
		members := t.Scope(owner.Members)
		if members == nil || !members.Base.IsValid() {
			return true
		}
		owner = t.Symbol(t.Scope(members.Base).Owner)
	}
	return false
}

// MemberNames lists the members of a type symbol, inherited ones included.
func (t *Table) MemberNames(owner *Symbol) []string {
	if owner == nil || !owner.Members.IsValid() {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for s, depth := t.Scope(owner.Members), 0; s != nil && depth < 16; s, depth = t.Scope(s.Base), depth+1 {
		for _, id := range s.Symbols {
			if sym := t.Symbol(id); sym != nil && !seen[sym.Name] {
				seen[sym.Name] = true
				out = append(out, sym.Name)
			}
		}
	}
	return out
}

// TypeNames lists the types declared at module level in declaration order.
func (t *Table) TypeNames() []string {
	m := t.Scope(t.Module)
	if m == nil {
		return nil
	}
	var out []string
	for _, id := range m.Symbols {
		if sym := t.Symbol(id); sym != nil && sym.Kind.IsType() {
			out = append(out, sym.Name)
		}
	}
	return out
}

// Members lists the symbols declared directly in a type's member scope.
func (t *Table) Members(owner *Symbol) []*Symbol {
	if owner == nil {
		return nil
	}
	s := t.Scope(owner.Members)
	if s == nil {
		return nil
	}
	out := make([]*Symbol, 0, len(s.Symbols))
	for _, id := range s.Symbols {
		out = append(out, t.Symbol(id))
	}
	return out
}
