package sema

import (
	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

// declareTypes registers a nominal type for every class, interface and enum
// so signatures can refer to them in any order.
func (tc *typeChecker) declareTypes(mod *ast.Module) {
	for _, d := range mod.Decls {
		var id types.TypeID
		switch d := d.(type) {
		case *ast.ClassDecl:
			kind := types.NamedClass
			if d.Modifiers.Has(ast.ModStruct) {
				kind = types.NamedStruct
			}
			id = tc.in.RegisterNamed(d.Name, kind, d.Span)
		case *ast.InterfaceDecl:
			id = tc.in.RegisterNamed(d.Name, types.NamedInterface, d.Span)
		case *ast.EnumDecl:
			members := make([]string, len(d.Members))
			for i, m := range d.Members {
				members[i] = m.Name
			}
			id = tc.in.RegisterEnum(d.Name, members, d.Span)
		default:
			continue
		}
		tc.result.DeclTypes[d.NodeID()] = id
		if sym, ok := tc.table.DeclOf(d); ok && sym.Decl == ast.Node(d) {
			tc.result.SymbolTypes[sym.ID] = id
		}
	}
	for _, d := range mod.Decls {
		if e, ok := d.(*ast.EnumDecl); ok {
			id := tc.result.DeclTypes[e.ID]
			for _, m := range e.Members {
				if sym, ok := tc.table.DeclOf(m); ok {
					tc.result.SymbolTypes[sym.ID] = id
				}
			}
		}
	}
}

// collectSignatures records field types and callable signatures before any
// body is checked.
func (tc *typeChecker) collectSignatures(mod *ast.Module) {
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			tc.declareFunc(d)
		case *ast.ClassDecl:
			tc.collectClass(d)
		case *ast.InterfaceDecl:
			info, _ := tc.in.NamedInfo(tc.result.DeclTypes[d.ID])
			for _, m := range d.Methods {
				sig := tc.declareFunc(m)
				if info != nil {
					info.Methods = append(info.Methods, types.Method{Name: m.Name, Sig: sig})
				}
			}
		case *ast.ExtensionDecl:
			target, ok := tc.table.TypeByName(d.Target)
			var info *types.EnumInfo
			if ok {
				info, _ = tc.in.EnumInfo(tc.result.SymbolTypes[target.ID])
			}
			for _, m := range d.Methods {
				sig := tc.declareFunc(m)
				if info != nil {
					info.Methods = append(info.Methods, types.Method{Name: m.Name, Sig: sig})
				}
			}
		}
	}
}

func (tc *typeChecker) collectClass(c *ast.ClassDecl) {
	id := tc.result.DeclTypes[c.ID]
	info, ok := tc.in.NamedInfo(id)
	if !ok {
		return
	}
	if c.Base != "" {
		if base, found := tc.table.TypeByName(c.Base); found {
			info.Base = tc.result.SymbolTypes[base.ID]
		} else {
			info.Base = tc.in.External(c.Base)
		}
	}
	for _, impl := range c.Implements {
		if sym, found := tc.table.Ref(impl); found && sym.Kind == symbols.SymbolInterface {
			info.Implements = append(info.Implements, tc.result.SymbolTypes[sym.ID])
		} else {
			info.Implements = append(info.Implements, tc.in.External(impl.Name))
		}
	}
	for _, m := range c.Members {
		switch m := m.(type) {
		case *ast.FieldDecl:
			ft := tc.resolveType(m.Type)
			readonly := m.Modifiers.Has(ast.ModReadonly) || c.Modifiers.Has(ast.ModReadonly)
			info.Fields = append(info.Fields, types.Field{
				Name:     m.Name,
				Type:     ft,
				Readonly: readonly,
				Static:   m.Modifiers.Has(ast.ModStatic),
			})
			if sym, found := tc.table.DeclOf(m); found {
				tc.result.SymbolTypes[sym.ID] = ft
			}
		case *ast.FuncDecl:
			sig := tc.declareFunc(m)
			info.Methods = append(info.Methods, types.Method{Name: m.Name, Sig: sig, Static: m.Modifiers.Has(ast.ModStatic)})
		}
	}
}

// declareFunc computes the signature of fn and types its parameters.
func (tc *typeChecker) declareFunc(fn *ast.FuncDecl) types.TypeID {
	params := make([]types.TypeID, len(fn.Params))
	variadic := false
	for i, p := range fn.Params {
		pt := tc.resolveType(p.Type)
		if p.Mode == ast.ParamVariadic {
			variadic = i == len(fn.Params)-1
			if tc.in.KindOf(pt) != types.KindArray {
				pt = tc.in.Array(pt)
			}
		}
		params[i] = pt
		if sym, ok := tc.table.DeclOf(p); ok {
			tc.result.SymbolTypes[sym.ID] = pt
		}
	}
	result := tc.b.Void
	if fn.Output != nil {
		result = tc.resolveType(fn.Output)
	}
	if len(fn.Ensures) > 0 && fn.Output != nil {
		if scope, ok := tc.table.Scopes[fn.Ensures[0].ID]; ok {
			if sym, found := tc.table.LookupIn(scope, "result"); found && sym.Kind == symbols.SymbolResult {
				tc.result.SymbolTypes[sym.ID] = result
			}
		}
	}
	sig := tc.in.Func(params, result, variadic)
	if sym, ok := tc.table.DeclOf(fn); ok && sym.Decl == ast.Node(fn) {
		tc.result.SymbolTypes[sym.ID] = sig
	}
	return sig
}

// resolveType maps a written type to a TypeID. Errors were reported by the
// binder; unknown names become Invalid here.
func (tc *typeChecker) resolveType(t *ast.TypeRef) types.TypeID {
	if t == nil {
		return tc.b.Void
	}
	if t.Elem != nil {
		return tc.in.Array(tc.resolveType(t.Elem))
	}
	if prim, ok := tc.in.Primitive(t.Name); ok {
		return prim
	}
	switch {
	case types.IsOptionName(t.Name) && len(t.Args) == 1:
		return tc.in.Option(tc.resolveType(t.Args[0]))
	case types.IsResultName(t.Name) && len(t.Args) == 2:
		return tc.in.Result(tc.resolveType(t.Args[0]), tc.resolveType(t.Args[1]))
	case types.IsResultName(t.Name) && len(t.Args) == 1:
		return tc.in.Result(tc.resolveType(t.Args[0]), tc.in.External("Exception"))
	case types.IsOptionName(t.Name), types.IsResultName(t.Name):
		tc.report(diag.SemaArityMismatch, t.Span, "%s takes %s type arguments, got %d", t.Name, typeArgCount(t.Name), len(t.Args))
		return tc.b.Invalid
	}
	sym, ok := tc.table.Ref(t)
	if !ok {
		return tc.b.Invalid
	}
	if sym.Kind == symbols.SymbolExternal {
		args := make([]types.TypeID, len(t.Args))
		for i, a := range t.Args {
			args[i] = tc.resolveType(a)
		}
		return tc.in.External(sym.Name, args...)
	}
	if id, found := tc.result.SymbolTypes[sym.ID]; found && sym.Kind.IsType() {
		return id
	}
	return tc.b.Invalid
}

func typeArgCount(name string) string {
	if types.IsOptionName(name) {
		return "1"
	}
	return "1 or 2"
}
