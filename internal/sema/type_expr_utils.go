package sema

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
	"sigil/internal/types"
)

func (tc *typeChecker) report(code diag.Code, span source.Span, format string, args ...interface{}) {
	if tc.reporter == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	diag.ReportError(tc.reporter, code, span, msg).Emit()
}

func (tc *typeChecker) typeLabel(id types.TypeID) string {
	if id == types.NoTypeID {
		return "<unknown>"
	}
	return tc.u.String(id)
}

func (tc *typeChecker) isInvalid(id types.TypeID) bool {
	id = tc.u.Resolve(id)
	return id == types.NoTypeID || id == tc.b.Invalid
}

func (tc *typeChecker) record(e ast.Node, t types.TypeID) types.TypeID {
	tc.result.ExprTypes[e.NodeID()] = t
	return t
}

// assignable reports whether a value of type got may be stored where want
// is expected, binding open variables on the way.
func (tc *typeChecker) assignable(got, want types.TypeID) bool {
	got, want = tc.u.Resolve(got), tc.u.Resolve(want)
	if tc.isInvalid(got) || tc.isInvalid(want) {
		return true
	}
	if tc.u.Unify(got, want) {
		return true
	}
	if tc.in.Widens(got, want) {
		return true
	}
	tg, _ := tc.in.Lookup(got)
	tw, _ := tc.in.Lookup(want)
	switch {
	case tg.Kind == types.KindOption && tw.Kind == types.KindOption,
		tg.Kind == types.KindArray && tw.Kind == types.KindArray:
		return tc.assignable(tg.Elem, tw.Elem)
	case tg.Kind == types.KindResult && tw.Kind == types.KindResult:
		return tc.assignable(tg.Elem, tw.Elem) && tc.assignable(tg.Err, tw.Err)
	case tg.Kind == types.KindNamed && tw.Kind == types.KindNamed:
		return tc.derivesFrom(got, want, 0)
	case tg.Kind == types.KindNamed && tw.Kind == types.KindExternal:
		// a user class may extend or implement a platform type
		return tc.hasExternalAncestor(got, 0)
	case tg.Kind == types.KindExternal && tw.Kind == types.KindExternal:
		// platform hierarchies are unknown, e.g. IOException to Exception
		return true
	}
	return false
}

// derivesFrom walks base classes and implemented interfaces of a named type.
func (tc *typeChecker) derivesFrom(t, ancestor types.TypeID, depth int) bool {
	if t == ancestor {
		return true
	}
	info, ok := tc.in.NamedInfo(t)
	if !ok || depth > 16 {
		return false
	}
	if info.Base != types.NoTypeID && tc.derivesFrom(info.Base, ancestor, depth+1) {
		return true
	}
	for _, impl := range info.Implements {
		if tc.derivesFrom(impl, ancestor, depth+1) {
			return true
		}
	}
	return false
}

func (tc *typeChecker) hasExternalAncestor(t types.TypeID, depth int) bool {
	if tc.in.KindOf(t) == types.KindExternal {
		return true
	}
	info, ok := tc.in.NamedInfo(t)
	if !ok || depth > 16 {
		return false
	}
	if info.Base != types.NoTypeID && tc.hasExternalAncestor(info.Base, depth+1) {
		return true
	}
	for _, impl := range info.Implements {
		if tc.hasExternalAncestor(impl, depth+1) {
			return true
		}
	}
	return false
}

func (tc *typeChecker) requireAssignable(e ast.Expr, got, want types.TypeID, what string) {
	if e == nil || want == types.NoTypeID || tc.assignable(got, want) {
		return
	}
	tc.report(diag.SemaTypeMismatch, e.NodeSpan(), "type mismatch in %s: expected %s, got %s", what, tc.typeLabel(want), tc.typeLabel(got))
}

// fieldOf looks up a field through the static type of m.X.
func (tc *typeChecker) fieldOf(m *ast.MemberExpr) (types.Field, bool) {
	owner := tc.u.Resolve(tc.result.ExprTypes[m.X.NodeID()])
	for depth := 0; depth < 16; depth++ {
		info, ok := tc.in.NamedInfo(owner)
		if !ok {
			return types.Field{}, false
		}
		for _, f := range info.Fields {
			if f.Name == m.Name {
				return f, true
			}
		}
		owner = info.Base
	}
	return types.Field{}, false
}

// methodOf looks up a method on a named or enum type, walking base classes.
func (tc *typeChecker) methodOf(owner types.TypeID, name string) (types.Method, bool) {
	for depth := 0; depth < 16; depth++ {
		if info, ok := tc.in.EnumInfo(owner); ok {
			for _, m := range info.Methods {
				if m.Name == name {
					return m, true
				}
			}
			return types.Method{}, false
		}
		info, ok := tc.in.NamedInfo(owner)
		if !ok {
			return types.Method{}, false
		}
		for _, m := range info.Methods {
			if m.Name == name {
				return m, true
			}
		}
		owner = info.Base
	}
	return types.Method{}, false
}
