package types

// rank orders numeric types for implicit widening: integers by width
// (unsigned above signed of the same width), then floats, then decimal.
func rank(t Type) int {
	switch t.Kind {
	case KindInt:
		return int(t.Width)
	case KindUint:
		return int(t.Width) + 1
	case KindFloat:
		return 100 + int(t.Width)
	case KindDecimal:
		return 200
	}
	return -1
}

// Promote returns the result type of an arithmetic operation over a and b,
// both already resolved. Mixing binary floating point with decimal has no
// implicit conversion and fails.
func (in *Interner) Promote(a, b TypeID) (TypeID, bool) {
	ta, okA := in.Lookup(a)
	tb, okB := in.Lookup(b)
	if !okA || !okB || !ta.Kind.IsNumeric() || !tb.Kind.IsNumeric() {
		return NoTypeID, false
	}
	if a == b {
		return a, true
	}
	if (ta.Kind == KindFloat && tb.Kind == KindDecimal) || (ta.Kind == KindDecimal && tb.Kind == KindFloat) {
		return NoTypeID, false
	}
	if rank(ta) >= rank(tb) {
		return a, true
	}
	return b, true
}

// Widens reports whether a value of type from is implicitly usable where to
// is expected. Identity always widens.
func (in *Interner) Widens(from, to TypeID) bool {
	if from == to {
		return true
	}
	tf, okF := in.Lookup(from)
	tt, okT := in.Lookup(to)
	if !okF || !okT || !tf.Kind.IsNumeric() || !tt.Kind.IsNumeric() {
		return false
	}
	switch {
	case tf.Kind.IsInteger() && tt.Kind.IsInteger():
		if tf.Kind == KindUint && tt.Kind == KindInt {
			return tt.Width > tf.Width
		}
		if tf.Kind == KindInt && tt.Kind == KindUint {
			return false
		}
		return tt.Width >= tf.Width
	case tf.Kind.IsInteger():
		return true // to float or decimal
	case tf.Kind == KindFloat && tt.Kind == KindFloat:
		return tt.Width >= tf.Width
	}
	return false
}

// LiteralFits reports whether an untyped numeric literal of kind lit can
// take type target: integer literals fit every numeric type, float literals
// fit floats and decimal literals fit only decimal.
func (in *Interner) LiteralFits(lit Kind, target TypeID) bool {
	tt, ok := in.Lookup(target)
	if !ok || !tt.Kind.IsNumeric() {
		return false
	}
	switch lit {
	case KindInt:
		return true
	case KindFloat:
		return tt.Kind == KindFloat
	case KindDecimal:
		return tt.Kind == KindDecimal
	}
	return false
}
