package sema

import (
	"strconv"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/types"
)

// checkLiteral types a literal against the expected type. Untyped numeric
// literals adopt a compatible numeric expectation so that `§B{i64:x} 5`
// records 5 as i64; without one they default to i32 (or i64 when the
// value does not fit), f64 and dec.
func (tc *typeChecker) checkLiteral(l *ast.Literal, expected types.TypeID) types.TypeID {
	exp := tc.u.Resolve(expected)
	expKind := tc.in.KindOf(exp)
	switch l.Kind {
	case ast.LitString:
		return tc.b.String
	case ast.LitBool:
		return tc.b.Bool
	case ast.LitInt:
		if expKind.IsNumeric() {
			if expKind == types.KindUint && strings.HasPrefix(l.Value, "-") {
				tc.report(diag.SemaTypeMismatch, l.Span, "negative literal %s cannot be %s", l.Value, tc.typeLabel(exp))
				return tc.b.Invalid
			}
			if !tc.intFits(l.Value, exp) {
				tc.report(diag.SemaTypeMismatch, l.Span, "literal %s overflows %s", l.Value, tc.typeLabel(exp))
			}
			return exp
		}
		if _, err := strconv.ParseInt(l.Value, 10, 32); err != nil {
			return tc.b.I64
		}
		return tc.b.I32
	case ast.LitFloat:
		switch {
		case expKind == types.KindFloat:
			return exp
		case expKind == types.KindDecimal && !l.Tagged:
			return exp
		}
		return tc.b.F64
	case ast.LitDec:
		return tc.b.Dec
	}
	return tc.b.Invalid
}

// intFits reports whether the integer literal text is representable in t.
// Float and decimal targets accept any integer.
func (tc *typeChecker) intFits(text string, t types.TypeID) bool {
	tt, ok := tc.in.Lookup(t)
	if !ok {
		return true
	}
	bits := int(tt.Width)
	switch tt.Kind {
	case types.KindInt:
		_, err := strconv.ParseInt(text, 10, bits)
		return err == nil
	case types.KindUint:
		_, err := strconv.ParseUint(text, 10, bits)
		return err == nil
	}
	return true
}

// isUntypedNumber reports whether e is a numeric literal without a tag,
// possibly negated; its type follows the other operand.
func isUntypedNumber(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Literal:
		return !e.Tagged && (e.Kind == ast.LitInt || e.Kind == ast.LitFloat)
	case *ast.Unary:
		return e.Op == ast.OpNeg && isUntypedNumber(e.X)
	}
	return false
}

// checkOperands types both sides of a binary operator. A side that is an
// untyped literal is checked after the other one and takes its type as
// expectation.
func (tc *typeChecker) checkOperands(b *ast.Binary, expected types.TypeID) (types.TypeID, types.TypeID) {
	leftLit, rightLit := isUntypedNumber(b.Left), isUntypedNumber(b.Right)
	switch {
	case leftLit && !rightLit:
		r := tc.checkExpr(b.Right, expected)
		return tc.checkExpr(b.Left, tc.numericHint(r, expected)), r
	case rightLit && !leftLit:
		l := tc.checkExpr(b.Left, expected)
		return l, tc.checkExpr(b.Right, tc.numericHint(l, expected))
	}
	return tc.checkExpr(b.Left, expected), tc.checkExpr(b.Right, expected)
}

func (tc *typeChecker) numericHint(t, fallback types.TypeID) types.TypeID {
	if tc.in.KindOf(tc.u.Resolve(t)).IsNumeric() {
		return t
	}
	return fallback
}

func (tc *typeChecker) checkBinary(b *ast.Binary, expected types.TypeID) types.TypeID {
	switch {
	case b.Op.IsArithmetic():
		return tc.checkArithmetic(b, expected)
	case b.Op.IsComparison():
		l, r := tc.checkOperands(b, types.NoTypeID)
		tc.checkComparison(b, l, r)
		return tc.b.Bool
	case b.Op.IsLogical():
		for _, side := range []ast.Expr{b.Left, b.Right} {
			t := tc.u.Resolve(tc.checkExpr(side, tc.b.Bool))
			if tc.in.KindOf(t) == types.KindVar {
				tc.u.Unify(t, tc.b.Bool)
				continue
			}
			if t != tc.b.Bool && !tc.isInvalid(t) {
				tc.report(diag.SemaTypeMismatch, side.NodeSpan(), "operator %s requires bool operands, got %s", b.Op, tc.typeLabel(t))
			}
		}
		return tc.b.Bool
	}
	tc.checkOperands(b, types.NoTypeID)
	return tc.b.Invalid
}

func (tc *typeChecker) checkArithmetic(b *ast.Binary, expected types.TypeID) types.TypeID {
	hint := types.NoTypeID
	if tc.in.KindOf(tc.u.Resolve(expected)).IsNumeric() {
		hint = expected
	}
	l, r := tc.checkOperands(b, hint)
	l, r = tc.u.Resolve(l), tc.u.Resolve(r)
	if tc.isInvalid(l) || tc.isInvalid(r) {
		return tc.b.Invalid
	}
	lk, rk := tc.in.KindOf(l), tc.in.KindOf(r)
	if b.Op == ast.OpAdd && (lk == types.KindString || rk == types.KindString) {
		return tc.b.String
	}
	switch {
	case lk == types.KindVar && rk == types.KindVar:
		tc.u.Unify(l, r)
		return l
	case lk == types.KindVar && rk.IsNumeric():
		tc.u.Unify(l, r)
		return r
	case rk == types.KindVar && lk.IsNumeric():
		tc.u.Unify(r, l)
		return l
	case !lk.IsNumeric() || !rk.IsNumeric():
		tc.report(diag.SemaNonNumericArithmetic, b.Span,
			"Arithmetic operators require numeric operands, got %s and %s", tc.typeLabel(l), tc.typeLabel(r))
		return tc.b.Invalid
	}
	t, ok := tc.in.Promote(l, r)
	if !ok {
		tc.report(diag.SemaTypeMismatch, b.Span, "cannot mix %s and %s without a cast", tc.typeLabel(l), tc.typeLabel(r))
		return tc.b.Invalid
	}
	return t
}

func (tc *typeChecker) checkComparison(b *ast.Binary, l, r types.TypeID) {
	l, r = tc.u.Resolve(l), tc.u.Resolve(r)
	if tc.isInvalid(l) || tc.isInvalid(r) {
		return
	}
	lk, rk := tc.in.KindOf(l), tc.in.KindOf(r)
	if lk == types.KindVar || rk == types.KindVar {
		tc.u.Unify(l, r)
		return
	}
	if b.Op == ast.OpEq || b.Op == ast.OpNe {
		if lk.IsNumeric() && rk.IsNumeric() {
			if _, ok := tc.in.Promote(l, r); ok {
				return
			}
		} else if tc.assignable(l, r) || tc.assignable(r, l) {
			return
		}
		tc.report(diag.SemaTypeMismatch, b.Span, "cannot compare %s with %s", tc.typeLabel(l), tc.typeLabel(r))
		return
	}
	if lk.IsNumeric() && rk.IsNumeric() {
		if _, ok := tc.in.Promote(l, r); !ok {
			tc.report(diag.SemaTypeMismatch, b.Span, "cannot compare %s with %s", tc.typeLabel(l), tc.typeLabel(r))
		}
		return
	}
	if lk == types.KindExternal || rk == types.KindExternal {
		return
	}
	tc.report(diag.SemaTypeMismatch, b.Span, "operator %s requires numeric operands, got %s and %s", b.Op, tc.typeLabel(l), tc.typeLabel(r))
}

func (tc *typeChecker) checkUnary(u *ast.Unary, expected types.TypeID) types.TypeID {
	if u.Op == ast.OpNot {
		t := tc.u.Resolve(tc.checkExpr(u.X, tc.b.Bool))
		if tc.in.KindOf(t) == types.KindVar {
			tc.u.Unify(t, tc.b.Bool)
		} else if t != tc.b.Bool && !tc.isInvalid(t) {
			tc.report(diag.SemaTypeMismatch, u.Span, "operator ! requires a bool operand, got %s", tc.typeLabel(t))
		}
		return tc.b.Bool
	}
	t := tc.u.Resolve(tc.checkExpr(u.X, expected))
	k := tc.in.KindOf(t)
	if tc.isInvalid(t) || k == types.KindVar {
		return t
	}
	if !k.IsNumeric() {
		tc.report(diag.SemaNonNumericArithmetic, u.Span, "Arithmetic operators require numeric operands, got %s", tc.typeLabel(t))
		return tc.b.Invalid
	}
	return t
}
