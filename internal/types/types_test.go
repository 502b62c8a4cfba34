package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Void == NoTypeID || b.Bool == NoTypeID || b.Dec == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if got := in.MustLookup(b.I64); got.Kind != KindInt || got.Width != Width64 {
		t.Fatalf("unexpected i64 descriptor %+v", got)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if in.Option(b.I32) != in.Option(b.I32) {
		t.Fatal("option types should be deduplicated")
	}
	if in.Result(b.I32, b.String) == in.Result(b.String, b.I32) {
		t.Fatal("result arguments are ordered")
	}
	if in.External("List", b.I32) != in.External("List", b.I32) {
		t.Fatal("external types should be deduplicated by spelling")
	}
	if in.Func([]TypeID{b.I32}, b.Bool, false) != in.Func([]TypeID{b.I32}, b.Bool, false) {
		t.Fatal("function types should be deduplicated")
	}
}

func TestNominalTypesAreDistinct(t *testing.T) {
	in := NewInterner()
	a := in.RegisterNamed("Point", NamedStruct, zeroSpan)
	b := in.RegisterNamed("Point", NamedStruct, zeroSpan)
	if a == b {
		t.Fatal("each registration gets its own identity")
	}
	info, ok := in.NamedInfo(a)
	if !ok || info.Name != "Point" || info.Kind != NamedStruct {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestPrimitiveAliases(t *testing.T) {
	in := NewInterner()
	pairs := [][2]string{{"int", "i32"}, {"long", "i64"}, {"string", "str"}, {"double", "f64"}, {"float", "f32"}, {"decimal", "dec"}}
	for _, p := range pairs {
		a, okA := in.Primitive(p[0])
		b, okB := in.Primitive(p[1])
		if !okA || !okB || a != b {
			t.Errorf("%s and %s should resolve to the same type", p[0], p[1])
		}
	}
	if _, ok := in.Primitive("Widget"); ok {
		t.Error("user names are not primitives")
	}
}

func TestString(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	id := in.Array(in.Result(in.Option(b.I64), in.External("Exception")))
	if got := in.String(id); got != "Result<Option<i64>,Exception>[]" {
		t.Fatalf("got %q", got)
	}
}

func TestUnresolvedVariableEqualsOnlyItself(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()
	v1, v2 := u.NewVar(), u.NewVar()
	if !u.Equal(v1, v1) {
		t.Fatal("a variable equals itself")
	}
	if u.Equal(v1, v2) || u.Equal(v2, v1) {
		t.Fatal("distinct unresolved variables must differ")
	}
	if u.Equal(v1, b.I32) || u.Equal(b.I32, v1) {
		t.Fatal("an unresolved variable must not equal a concrete type in either direction")
	}
}

func TestResolvedVariableEqualsTargetSymmetrically(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()
	v := u.NewVar()
	if !u.Unify(v, b.String) {
		t.Fatal("binding a fresh variable must succeed")
	}
	if !u.Equal(v, b.String) || !u.Equal(b.String, v) {
		t.Fatal("resolved variable must equal its target in both directions")
	}
	if u.Equal(v, b.I32) {
		t.Fatal("resolved variable must not equal other types")
	}
}

func TestUnifyThroughChains(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()
	v1, v2 := u.NewVar(), u.NewVar()
	if !u.Unify(v1, v2) || !u.Unify(v2, b.Bool) {
		t.Fatal("unify failed")
	}
	if u.Resolve(v1) != b.Bool {
		t.Fatalf("v1 resolved to %s", u.String(v1))
	}
	if !u.Equal(v1, v2) {
		t.Fatal("variables unified together must be equal")
	}
}

func TestUnifyStructural(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()
	v := u.NewVar()
	if !u.Unify(in.Option(v), in.Option(b.F64)) {
		t.Fatal("Option<?T> should unify with Option<f64>")
	}
	if u.String(in.Option(v)) != "Option<f64>" {
		t.Fatalf("got %s", u.String(in.Option(v)))
	}
	if u.Unify(in.Option(b.I32), in.Result(b.I32, b.String)) {
		t.Fatal("different constructors must not unify")
	}
}

func TestOccursCheck(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	v := u.NewVar()
	if u.Unify(v, in.Array(v)) {
		t.Fatal("binding ?T to ?T[] must fail")
	}
	if u.IsResolved(v) {
		t.Fatal("failed binding must leave the variable open")
	}
}

func TestPromote(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tests := []struct {
		a, b, want TypeID
		ok         bool
	}{
		{b.I32, b.I32, b.I32, true},
		{b.I32, b.I64, b.I64, true},
		{b.U32, b.I32, b.U32, true},
		{b.I64, b.F32, b.F32, true},
		{b.I32, b.Dec, b.Dec, true},
		{b.F64, b.Dec, NoTypeID, false},
		{b.String, b.I32, NoTypeID, false},
		{b.Bool, b.Bool, NoTypeID, false},
	}
	for _, tt := range tests {
		got, ok := in.Promote(tt.a, tt.b)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Promote(%s,%s) = %s,%v", in.String(tt.a), in.String(tt.b), in.String(got), ok)
		}
	}
}

func TestWidensAndLiteralFits(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if !in.Widens(b.I32, b.I64) || in.Widens(b.I64, b.I32) || in.Widens(b.I32, b.U64) {
		t.Fatal("integer widening rules violated")
	}
	if !in.Widens(b.U16, b.I32) || in.Widens(b.U32, b.I32) {
		t.Fatal("unsigned to signed widening rules violated")
	}
	if !in.LiteralFits(KindInt, b.U8) || !in.LiteralFits(KindInt, b.Dec) {
		t.Fatal("integer literals fit every numeric type")
	}
	if in.LiteralFits(KindFloat, b.Dec) || !in.LiteralFits(KindFloat, b.F32) {
		t.Fatal("float literals fit floats only")
	}
}
