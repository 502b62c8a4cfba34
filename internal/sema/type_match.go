package sema

import (
	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/types"
)

// checkPattern records the scrutinee type at every pattern position and
// types binders. Shape mismatches are left to the pattern checker, which
// sees the recorded types.
func (tc *typeChecker) checkPattern(p ast.Pattern, scrutinee types.TypeID) {
	if p == nil {
		return
	}
	scrutinee = tc.u.Resolve(scrutinee)
	tc.record(p, scrutinee)
	st, _ := tc.in.Lookup(scrutinee)
	switch p := p.(type) {
	case *ast.BindPat:
		if sym, ok := tc.table.DeclOf(p); ok {
			tc.result.SymbolTypes[sym.ID] = scrutinee
		}
	case *ast.LiteralPat:
		tc.checkExpr(p.Value, scrutinee)
	case *ast.RelPat:
		tc.checkExpr(p.Value, scrutinee)
	case *ast.VariantPat:
		if p.Inner == nil {
			return
		}
		inner := tc.b.Invalid
		switch {
		case st.Kind == types.KindOption && p.Kind == ast.VariantSome,
			st.Kind == types.KindResult && p.Kind == ast.VariantOk:
			inner = st.Elem
		case st.Kind == types.KindResult && p.Kind == ast.VariantErr:
			inner = st.Err
		case st.Kind == types.KindVar:
			inner = tc.u.NewVar()
		}
		tc.checkPattern(p.Inner, inner)
	case *ast.EnumPat:
		if sym, ok := tc.table.Ref(p); ok && st.Kind == types.KindVar {
			tc.u.Unify(scrutinee, tc.result.SymbolTypes[sym.ID])
		}
	case *ast.WildcardPat:
	}
}

// checkMatch infers the type of a match expression from its arms. Numeric
// arms promote to a common type; any other disagreement is reported at the
// offending arm.
func (tc *typeChecker) checkMatch(m *ast.MatchExpr, expected types.TypeID) types.TypeID {
	subject := tc.checkExpr(m.Subject, types.NoTypeID)
	result := types.NoTypeID
	if expected != types.NoTypeID && !tc.isInvalid(expected) {
		result = expected
	}
	for _, arm := range m.Arms {
		tc.checkPattern(arm.Pattern, subject)
		if arm.Guard != nil {
			tc.checkCondition(arm.Guard)
		}
		got := tc.checkExpr(arm.Value, result)
		switch {
		case result == types.NoTypeID:
			result = got
		case expected != types.NoTypeID && result == expected:
			tc.requireAssignable(arm.Value, got, expected, "match arm")
		default:
			joined, ok := tc.join(result, got)
			if !ok {
				tc.report(diag.SemaTypeMismatch, arm.Value.NodeSpan(),
					"match arms have incompatible types %s and %s", tc.typeLabel(result), tc.typeLabel(got))
				continue
			}
			result = joined
		}
	}
	if result == types.NoTypeID {
		return tc.u.NewVar()
	}
	return result
}

// join returns the least type both a and b are assignable to.
func (tc *typeChecker) join(a, b types.TypeID) (types.TypeID, bool) {
	a, b = tc.u.Resolve(a), tc.u.Resolve(b)
	if tc.isInvalid(a) {
		return b, true
	}
	if tc.isInvalid(b) {
		return a, true
	}
	if tc.in.KindOf(a).IsNumeric() && tc.in.KindOf(b).IsNumeric() {
		return tc.in.Promote(a, b)
	}
	if tc.assignable(b, a) {
		return a, true
	}
	if tc.assignable(a, b) {
		return b, true
	}
	return types.NoTypeID, false
}
