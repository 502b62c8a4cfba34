package symbols

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
)

// Resolver drives scope management and declaration/lookup routines.
type Resolver struct {
	table    *Table
	reporter diag.Reporter
	stack    []ScopeID
}

// NewResolver wires a resolver to a table. If root is valid it becomes the
// current scope.
func NewResolver(table *Table, root ScopeID, reporter diag.Reporter) *Resolver {
	r := &Resolver{table: table, reporter: reporter, stack: make([]ScopeID, 0, 8)}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Enter creates a child of the current scope and makes it current.
func (r *Resolver) Enter(kind ScopeKind, owner SymbolID, span source.Span) ScopeID {
	id := r.table.newScope(kind, r.CurrentScope(), owner, span)
	r.stack = append(r.stack, id)
	return id
}

// Push makes an existing scope current, e.g. a class member scope created
// during pre-registration.
func (r *Resolver) Push(id ScopeID) {
	r.stack = append(r.stack, id)
}

// Leave pops the current scope. A mismatch with expected is a binder bug and
// panics; it can't be triggered by user input.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	if expected.IsValid() && top != expected {
		panic(fmt.Sprintf("symbols: leaving scope %d, current is %d", expected, top))
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// Declare installs a symbol into the current scope. A name already present
// in the same scope is reported and the earlier declaration keeps the name.
func (r *Resolver) Declare(name string, span source.Span, kind SymbolKind, flags SymbolFlags, decl ast.Node) (SymbolID, bool) {
	scope := r.table.Scope(r.CurrentScope())
	if scope == nil {
		return NoSymbolID, false
	}
	if prev, ok := scope.NameIndex[name]; ok {
		r.reportDuplicate(name, span, r.table.Symbol(prev))
		return prev, false
	}
	owner := scope.Owner
	if scope.Kind != ScopeType {
		owner = NoSymbolID
	}
	id := r.table.newSymbol(Symbol{
		Name:  name,
		Kind:  kind,
		Flags: flags,
		Span:  span,
		Scope: scope.ID,
		Decl:  decl,
		Owner: owner,
	})
	scope.NameIndex[name] = id
	scope.Symbols = append(scope.Symbols, id)
	if decl != nil {
		r.table.Decls[decl.NodeID()] = id
	}
	return id, true
}

// Lookup walks the scope chain from the current scope.
func (r *Resolver) Lookup(name string) (*Symbol, bool) {
	return r.table.LookupIn(r.CurrentScope(), name)
}

// Enclosing returns the nearest symbol owning a scope of the given kind.
func (r *Resolver) Enclosing(kind ScopeKind) *Symbol {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if s := r.table.Scope(r.stack[i]); s != nil && s.Kind == kind {
			return r.table.Symbol(s.Owner)
		}
	}
	return nil
}

func (r *Resolver) reportDuplicate(name string, span source.Span, prev *Symbol) {
	msg := fmt.Sprintf("duplicate declaration of '%s'", name)
	b := diag.ReportError(r.reporter, diag.SemaDuplicateSymbol, span, msg)
	if prev != nil && prev.Span != (source.Span{}) {
		b.WithNote(prev.Span, "previous declaration here")
	}
	b.Emit()
}
