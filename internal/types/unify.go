package types

// Unifier owns the type-variable cells of one compilation. A variable is an
// index into the arena; binding writes the target into the cell, so every
// holder of the variable observes the resolution.
//
// Equality laws: an unresolved variable is equal only to itself; a resolved
// variable is equal to whatever it resolves to, in both directions.
type Unifier struct {
	in    *Interner
	cells []TypeID // NoTypeID while unresolved
}

func NewUnifier(in *Interner) *Unifier {
	return &Unifier{in: in}
}

func (u *Unifier) Interner() *Interner { return u.in }

// NewVar allocates a fresh unresolved variable.
func (u *Unifier) NewVar() TypeID {
	u.cells = append(u.cells, NoTypeID)
	return u.in.newVar(len(u.cells) - 1)
}

// Vars reports how many variables have been allocated.
func (u *Unifier) Vars() int { return len(u.cells) }

// Resolve follows variable bindings until it reaches a concrete type or an
// unresolved variable.
func (u *Unifier) Resolve(id TypeID) TypeID {
	for i := 0; i <= len(u.cells); i++ {
		tt, ok := u.in.Lookup(id)
		if !ok || tt.Kind != KindVar {
			return id
		}
		next := u.cells[tt.Payload]
		if next == NoTypeID {
			return id
		}
		id = next
	}
	return id
}

// IsResolved reports whether id no longer is, or points to, an open variable.
func (u *Unifier) IsResolved(id TypeID) bool {
	return u.in.KindOf(u.Resolve(id)) != KindVar
}

// Deep resolves id and every component type, rebuilding structural types so
// that no resolved variable remains inside.
func (u *Unifier) Deep(id TypeID) TypeID {
	id = u.Resolve(id)
	tt, ok := u.in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindOption:
		return u.in.Option(u.Deep(tt.Elem))
	case KindResult:
		return u.in.Result(u.Deep(tt.Elem), u.Deep(tt.Err))
	case KindArray:
		return u.in.Array(u.Deep(tt.Elem))
	case KindFunc:
		fn := u.in.funcs[tt.Payload]
		params := make([]TypeID, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = u.Deep(p)
		}
		return u.in.Func(params, u.Deep(fn.Result), fn.Variadic)
	}
	return id
}

// Equal compares two types after resolution without binding anything.
func (u *Unifier) Equal(a, b TypeID) bool {
	a, b = u.Resolve(a), u.Resolve(b)
	if a == b {
		return true
	}
	ta, okA := u.in.Lookup(a)
	tb, okB := u.in.Lookup(b)
	if !okA || !okB || ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case KindOption, KindArray:
		return u.Equal(ta.Elem, tb.Elem)
	case KindResult:
		return u.Equal(ta.Elem, tb.Elem) && u.Equal(ta.Err, tb.Err)
	case KindFunc:
		fa, fb := u.in.funcs[ta.Payload], u.in.funcs[tb.Payload]
		if len(fa.Params) != len(fb.Params) || fa.Variadic != fb.Variadic {
			return false
		}
		for i := range fa.Params {
			if !u.Equal(fa.Params[i], fb.Params[i]) {
				return false
			}
		}
		return u.Equal(fa.Result, fb.Result)
	case KindExternal:
		ea, eb := u.in.externals[ta.Payload], u.in.externals[tb.Payload]
		if ea.Name != eb.Name || len(ea.Args) != len(eb.Args) {
			return false
		}
		for i := range ea.Args {
			if !u.Equal(ea.Args[i], eb.Args[i]) {
				return false
			}
		}
		return true
	}
	// distinct ids of primitives, nominal types and open variables differ
	return false
}

// Unify makes a and b equal, binding open variables as needed. It returns
// false when the types cannot be made equal; bindings made before the
// failure are kept, which is harmless because the caller reports an error.
func (u *Unifier) Unify(a, b TypeID) bool {
	a, b = u.Resolve(a), u.Resolve(b)
	if a == b {
		return true
	}
	if a == NoTypeID || b == NoTypeID {
		return false
	}
	ta, _ := u.in.Lookup(a)
	tb, _ := u.in.Lookup(b)
	switch {
	case ta.Kind == KindVar:
		return u.bind(ta, b)
	case tb.Kind == KindVar:
		return u.bind(tb, a)
	case ta.Kind != tb.Kind:
		return false
	}
	switch ta.Kind {
	case KindOption, KindArray:
		return u.Unify(ta.Elem, tb.Elem)
	case KindResult:
		okElem := u.Unify(ta.Elem, tb.Elem)
		return u.Unify(ta.Err, tb.Err) && okElem
	case KindFunc:
		fa, fb := u.in.funcs[ta.Payload], u.in.funcs[tb.Payload]
		if len(fa.Params) != len(fb.Params) {
			return false
		}
		ok := true
		for i := range fa.Params {
			ok = u.Unify(fa.Params[i], fb.Params[i]) && ok
		}
		return u.Unify(fa.Result, fb.Result) && ok
	case KindExternal:
		return u.Equal(a, b)
	}
	return false
}

func (u *Unifier) bind(v Type, target TypeID) bool {
	if u.occurs(v.Payload, target) {
		return false
	}
	u.cells[v.Payload] = target
	return true
}

// occurs reports whether variable cell appears inside t.
func (u *Unifier) occurs(cell uint32, t TypeID) bool {
	t = u.Resolve(t)
	tt, ok := u.in.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindVar:
		return tt.Payload == cell
	case KindOption, KindArray:
		return u.occurs(cell, tt.Elem)
	case KindResult:
		return u.occurs(cell, tt.Elem) || u.occurs(cell, tt.Err)
	case KindFunc:
		fn := u.in.funcs[tt.Payload]
		for _, p := range fn.Params {
			if u.occurs(cell, p) {
				return true
			}
		}
		return u.occurs(cell, fn.Result)
	}
	return false
}

// String renders id after deep resolution.
func (u *Unifier) String(id TypeID) string {
	return u.in.String(u.Deep(id))
}
