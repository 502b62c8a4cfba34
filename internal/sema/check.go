package sema

import (
	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

// Options configure a semantic pass over a module.
type Options struct {
	Reporter diag.Reporter
	Symbols  *symbols.Table
	Types    *types.Interner
}

// Result stores semantic artefacts produced by the checker. Every map is
// keyed by node or symbol identity; the tree itself is never touched.
type Result struct {
	Types   *types.Interner
	Unifier *types.Unifier
	// ExprTypes holds the resolved type of every checked expression, of
	// literal patterns and of the scrutinee position of every pattern.
	ExprTypes map[ast.NodeID]types.TypeID
	// SymbolTypes holds the type of values and the signature of callables.
	SymbolTypes map[symbols.SymbolID]types.TypeID
	// DeclTypes maps class, interface and enum declarations to their type.
	DeclTypes map[ast.NodeID]types.TypeID
	// Iterators maps functions whose body yields to the element type.
	Iterators map[ast.NodeID]types.TypeID
}

// TypeOf returns the recorded type of a node, or NoTypeID.
func (r *Result) TypeOf(n ast.Node) types.TypeID {
	if r == nil || n == nil {
		return types.NoTypeID
	}
	return r.ExprTypes[n.NodeID()]
}

// IsIterator reports whether fn yields.
func (r *Result) IsIterator(fn *ast.FuncDecl) bool {
	if r == nil || fn == nil {
		return false
	}
	_, ok := r.Iterators[fn.ID]
	return ok
}

// Signature returns the function type recorded for a function or method
// declaration.
func (r *Result) Signature(table *symbols.Table, fn *ast.FuncDecl) (types.FuncInfo, bool) {
	if r == nil || table == nil || fn == nil {
		return types.FuncInfo{}, false
	}
	sym, ok := table.DeclOf(fn)
	if !ok {
		return types.FuncInfo{}, false
	}
	return r.Types.FuncInfo(r.SymbolTypes[sym.ID])
}

// Check types every declaration, statement and expression of mod. The
// symbol table must come from symbols.Bind over the same module.
func Check(mod *ast.Module, opts Options) *Result {
	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	res := &Result{
		Types:       in,
		Unifier:     types.NewUnifier(in),
		ExprTypes:   make(map[ast.NodeID]types.TypeID),
		SymbolTypes: make(map[symbols.SymbolID]types.TypeID),
		DeclTypes:   make(map[ast.NodeID]types.TypeID),
		Iterators:   make(map[ast.NodeID]types.TypeID),
	}
	if mod == nil || opts.Symbols == nil {
		return res
	}
	tc := &typeChecker{
		reporter: opts.Reporter,
		table:    opts.Symbols,
		in:       in,
		u:        res.Unifier,
		b:        in.Builtins(),
		result:   res,
	}
	tc.run(mod)
	return res
}

type typeChecker struct {
	reporter diag.Reporter
	table    *symbols.Table
	in       *types.Interner
	u        *types.Unifier
	b        types.Builtins
	result   *Result

	fn        *funcContext
	loopDepth int
	// inContract relaxes reporting for names the binder left unresolved.
	inContract bool
}

// funcContext describes the function whose body is being checked.
type funcContext struct {
	decl     *ast.FuncDecl
	result   types.TypeID // declared output, Void when absent
	iterator bool
	elem     types.TypeID // yielded element type of an iterator
}

func (tc *typeChecker) run(mod *ast.Module) {
	tc.declareTypes(mod)
	tc.collectSignatures(mod)
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			tc.checkFunc(d)
		case *ast.ClassDecl:
			for _, m := range d.Members {
				switch m := m.(type) {
				case *ast.FieldDecl:
					tc.checkFieldInit(m)
				case *ast.FuncDecl:
					tc.checkFunc(m)
				}
			}
		case *ast.InterfaceDecl:
			for _, m := range d.Methods {
				tc.checkFunc(m)
			}
		case *ast.ExtensionDecl:
			for _, m := range d.Methods {
				tc.checkFunc(m)
			}
		}
	}
	tc.finish()
}

// finish replaces every recorded type by its deep resolution so consumers
// never observe a resolved variable.
func (tc *typeChecker) finish() {
	for id, t := range tc.result.ExprTypes {
		tc.result.ExprTypes[id] = tc.u.Deep(t)
	}
	for id, t := range tc.result.SymbolTypes {
		tc.result.SymbolTypes[id] = tc.u.Deep(t)
	}
	for id, t := range tc.result.Iterators {
		tc.result.Iterators[id] = tc.u.Deep(t)
	}
}

func (tc *typeChecker) checkFieldInit(f *ast.FieldDecl) {
	if f.Init == nil {
		return
	}
	sym, ok := tc.table.DeclOf(f)
	if !ok {
		return
	}
	want := tc.result.SymbolTypes[sym.ID]
	got := tc.checkExpr(f.Init, want)
	tc.requireAssignable(f.Init, got, want, "field initializer")
}

func (tc *typeChecker) checkFunc(fn *ast.FuncDecl) {
	ctx := &funcContext{decl: fn, result: tc.b.Void}
	if sig, ok := tc.result.Signature(tc.table, fn); ok {
		ctx.result = sig.Result
	} else if fn.Output != nil {
		ctx.result = tc.resolveType(fn.Output)
	}
	if containsYield(fn.Body) {
		ctx.iterator = true
		ctx.elem = ctx.result
		if ctx.result == tc.b.Void {
			ctx.elem = tc.u.NewVar()
		}
		tc.result.Iterators[fn.ID] = ctx.elem
	}
	prevFn, prevDepth := tc.fn, tc.loopDepth
	tc.fn, tc.loopDepth = ctx, 0
	defer func() { tc.fn, tc.loopDepth = prevFn, prevDepth }()

	tc.inContract = true
	for _, c := range fn.Requires {
		tc.checkExpr(c.Cond, tc.b.Bool)
	}
	for _, c := range fn.Ensures {
		tc.checkExpr(c.Cond, tc.b.Bool)
	}
	tc.inContract = false

	if !fn.HasBody {
		return
	}
	tc.checkStmts(fn.Body)
	if ctx.result != tc.b.Void && !ctx.iterator && !returnsOnAllPaths(fn.Body) && !containsRaw(fn.Body) {
		tc.report(diag.SemaMissingReturnValue, fn.Span,
			"function '%s' must return a value of type %s on every path", fn.Name, tc.typeLabel(ctx.result))
	}
}
