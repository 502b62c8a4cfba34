package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"sigil/internal/ast"
)

// Strength relates one condition to another under structural implication.
type Strength uint8

const (
	// Incomparable means neither condition could be shown to imply the other.
	Incomparable Strength = iota
	Equivalent
	Stronger
	Weaker
)

func (s Strength) String() string {
	switch s {
	case Equivalent:
		return "equivalent"
	case Stronger:
		return "stronger"
	case Weaker:
		return "weaker"
	}
	return "incomparable"
}

// Side describes how to read one of the two compared condition lists.
// Rename maps parameter names to the names used on the other side; IsInt
// reports whether an expression has an integer type, which lets `x > 0`
// and `x >= 1` compare as equivalent.
type Side struct {
	Conds  []ast.Expr
	Rename map[string]string
	IsInt  func(ast.Expr) bool
}

// Compare relates the conjunction of a to the conjunction of b. An empty
// list stands for true.
func Compare(a, b Side) Strength {
	fa, fb := a.formula(), b.formula()
	ab, ba := implies(fa, fb), implies(fb, fa)
	switch {
	case ab && ba:
		return Equivalent
	case ab:
		return Stronger
	case ba:
		return Weaker
	}
	return Incomparable
}

type formula interface{ isFormula() }

type fTrue struct{}

type fAnd struct{ l, r formula }

type fOr struct{ l, r formula }

// fAtom is an opaque condition identified by its canonical text.
type fAtom struct{ key string }

// fCmp is `subject op bound` with a constant bound. subject is canonical
// text, either one operand or the difference of an ordered pair.
type fCmp struct {
	subject string
	op      ast.Op
	bound   *big.Rat
}

func (fTrue) isFormula() {}
func (fAnd) isFormula()  {}
func (fOr) isFormula()   {}
func (fAtom) isFormula() {}
func (fCmp) isFormula()  {}

func (s Side) formula() formula {
	var out formula = fTrue{}
	for i, c := range s.Conds {
		f := s.build(c)
		if i == 0 {
			out = f
			continue
		}
		out = fAnd{out, f}
	}
	return out
}

func (s Side) build(e ast.Expr) formula {
	switch e := e.(type) {
	case *ast.Literal:
		if e.Kind == ast.LitBool && e.Value == "true" {
			return fTrue{}
		}
	case *ast.Binary:
		switch e.Op {
		case ast.OpAnd:
			return fAnd{s.build(e.Left), s.build(e.Right)}
		case ast.OpOr:
			return fOr{s.build(e.Left), s.build(e.Right)}
		}
		if e.Op.IsComparison() {
			if c, ok := s.comparison(e.Op, e.Left, e.Right); ok {
				return c
			}
		}
	case *ast.Unary:
		if e.Op == ast.OpNot {
			if b, ok := e.X.(*ast.Binary); ok && b.Op.IsComparison() {
				if c, ok := s.comparison(negate(b.Op), b.Left, b.Right); ok {
					return c
				}
			}
		}
	}
	return fAtom{key: canonical(e, s.Rename)}
}

// comparison normalises `subject op constant`, flipping the operator when
// the constant is on the left. Two non-constant operands compare their
// difference against zero, with the pair ordered by canonical text.
func (s Side) comparison(op ast.Op, left, right ast.Expr) (formula, bool) {
	subject := canonical(left, s.Rename)
	isInt := s.IsInt != nil && s.IsInt(left)
	bound, ok := constant(right)
	if !ok {
		bound, ok = constant(left)
		if ok {
			subject, op = canonical(right, s.Rename), flip(op)
			isInt = s.IsInt != nil && s.IsInt(right)
		} else {
			l, r := canonical(left, s.Rename), canonical(right, s.Rename)
			if l == r {
				return nil, false
			}
			if l > r {
				l, r, op = r, l, flip(op)
			}
			subject, bound = "(- "+l+" "+r+")", new(big.Rat)
			isInt = s.IsInt != nil && s.IsInt(left) && s.IsInt(right)
		}
	} else if _, both := constant(left); both {
		return nil, false
	}
	if isInt && bound.IsInt() {
		one := big.NewRat(1, 1)
		switch op {
		case ast.OpGt:
			op, bound = ast.OpGe, new(big.Rat).Add(bound, one)
		case ast.OpLt:
			op, bound = ast.OpLe, new(big.Rat).Sub(bound, one)
		}
	}
	return fCmp{subject: subject, op: op, bound: bound}, true
}

func constant(e ast.Expr) (*big.Rat, bool) {
	switch e := e.(type) {
	case *ast.Literal:
		if e.Kind != ast.LitInt && e.Kind != ast.LitFloat && e.Kind != ast.LitDec {
			return nil, false
		}
		r, ok := new(big.Rat).SetString(e.Value)
		return r, ok
	case *ast.Unary:
		if e.Op != ast.OpNeg {
			return nil, false
		}
		r, ok := constant(e.X)
		if !ok {
			return nil, false
		}
		return new(big.Rat).Neg(r), true
	}
	return nil, false
}

func flip(op ast.Op) ast.Op {
	switch op {
	case ast.OpLt:
		return ast.OpGt
	case ast.OpLe:
		return ast.OpGe
	case ast.OpGt:
		return ast.OpLt
	case ast.OpGe:
		return ast.OpLe
	}
	return op
}

func negate(op ast.Op) ast.Op {
	switch op {
	case ast.OpEq:
		return ast.OpNe
	case ast.OpNe:
		return ast.OpEq
	case ast.OpLt:
		return ast.OpGe
	case ast.OpLe:
		return ast.OpGt
	case ast.OpGt:
		return ast.OpLe
	case ast.OpGe:
		return ast.OpLt
	}
	return op
}

// implies decides a => b structurally. It is sound but incomplete: false
// means "not shown".
func implies(a, b formula) bool {
	if _, ok := b.(fTrue); ok {
		return true
	}
	if bb, ok := b.(fAnd); ok {
		return implies(a, bb.l) && implies(a, bb.r)
	}
	if aa, ok := a.(fOr); ok {
		return implies(aa.l, b) && implies(aa.r, b)
	}
	if aa, ok := a.(fAnd); ok {
		if implies(aa.l, b) || implies(aa.r, b) {
			return true
		}
	}
	if bb, ok := b.(fOr); ok {
		return implies(a, bb.l) || implies(a, bb.r)
	}
	switch aa := a.(type) {
	case fAtom:
		bb, ok := b.(fAtom)
		return ok && aa.key == bb.key
	case fCmp:
		bb, ok := b.(fCmp)
		return ok && aa.subject == bb.subject && cmpImplies(aa, bb)
	}
	return false
}

// cmpImplies reports whether every value satisfying a satisfies b.
func cmpImplies(a, b fCmp) bool {
	switch {
	case a.op == ast.OpNe:
		return b.op == ast.OpNe && a.bound.Cmp(b.bound) == 0
	case b.op == ast.OpNe:
		return !intervalOf(a).contains(b.bound)
	}
	ia, ib := intervalOf(a), intervalOf(b)
	return ib.lowerBelow(ia) && ia.upperBelow(ib)
}

// interval is a possibly unbounded range of reals; nil bounds are infinite.
type interval struct {
	lo, hi         *big.Rat
	loIncl, hiIncl bool
}

func intervalOf(c fCmp) interval {
	switch c.op {
	case ast.OpGt:
		return interval{lo: c.bound}
	case ast.OpGe:
		return interval{lo: c.bound, loIncl: true}
	case ast.OpLt:
		return interval{hi: c.bound}
	case ast.OpLe:
		return interval{hi: c.bound, hiIncl: true}
	}
	return interval{lo: c.bound, hi: c.bound, loIncl: true, hiIncl: true}
}

func (iv interval) contains(x *big.Rat) bool {
	if iv.lo != nil {
		if c := x.Cmp(iv.lo); c < 0 || (c == 0 && !iv.loIncl) {
			return false
		}
	}
	if iv.hi != nil {
		if c := x.Cmp(iv.hi); c > 0 || (c == 0 && !iv.hiIncl) {
			return false
		}
	}
	return true
}

// lowerBelow reports whether iv's lower bound admits everything other's does.
func (iv interval) lowerBelow(other interval) bool {
	if iv.lo == nil {
		return true
	}
	if other.lo == nil {
		return false
	}
	switch c := iv.lo.Cmp(other.lo); {
	case c < 0:
		return true
	case c > 0:
		return false
	}
	return iv.loIncl || !other.loIncl
}

// upperBelow reports whether iv's upper bound stays within other's.
func (iv interval) upperBelow(other interval) bool {
	if other.hi == nil {
		return true
	}
	if iv.hi == nil {
		return false
	}
	switch c := iv.hi.Cmp(other.hi); {
	case c < 0:
		return true
	case c > 0:
		return false
	}
	return other.hiIncl || !iv.hiIncl
}

// canonical renders e as an s-expression with parameters renamed. Nodes
// it does not understand render uniquely, so they never compare equal.
func canonical(e ast.Expr, rename map[string]string) string {
	var b strings.Builder
	writeCanonical(&b, e, rename)
	return b.String()
}

func writeCanonical(b *strings.Builder, e ast.Expr, rename map[string]string) {
	if e == nil {
		b.WriteString("<missing>")
		return
	}
	switch e := e.(type) {
	case *ast.Literal:
		if e.Kind == ast.LitString {
			fmt.Fprintf(b, "%q", e.Value)
			return
		}
		b.WriteString(e.Value)
	case *ast.Name:
		if to, ok := rename[e.Name]; ok {
			b.WriteString(to)
			return
		}
		b.WriteString(e.Name)
	case *ast.This:
		b.WriteString("this")
	case *ast.MemberExpr:
		writeCanonical(b, e.X, rename)
		b.WriteByte('.')
		b.WriteString(e.Name)
	case *ast.Binary:
		b.WriteByte('(')
		b.WriteString(string(e.Op))
		b.WriteByte(' ')
		writeCanonical(b, e.Left, rename)
		b.WriteByte(' ')
		writeCanonical(b, e.Right, rename)
		b.WriteByte(')')
	case *ast.Unary:
		b.WriteByte('(')
		b.WriteString(string(e.Op))
		b.WriteByte(' ')
		writeCanonical(b, e.X, rename)
		b.WriteByte(')')
	case *ast.Call:
		b.WriteByte('(')
		writeCanonical(b, e.Callee, rename)
		for _, a := range e.Args {
			b.WriteByte(' ')
			writeCanonical(b, a, rename)
		}
		b.WriteByte(')')
	case *ast.VariantExpr:
		b.WriteByte('(')
		b.WriteString(e.Kind.String())
		if e.X != nil {
			b.WriteByte(' ')
			writeCanonical(b, e.X, rename)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%T#%d>", e, e.NodeID())
	}
}
