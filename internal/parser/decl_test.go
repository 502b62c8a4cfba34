package parser

import (
	"testing"

	"sigil/internal/ast"
	"sigil/internal/diag"
)

func TestParseFunctionHeader(t *testing.T) {
	mod := parseClean(t, `§M{m1:Calc}
§F{f1:Divide:pub}
  §I{i32:a}
  §I{i32:b}
  §O{i32}
  §E{io:w,fs:rw}
  §Q (!= b 0) "b must not be zero"
  §S (>= result 0)
  §R (/ a b)
§/F{f1}
§/M{m1}`)
	fn := mod.Decls[0].(*ast.FuncDecl)
	if fn.Name != "Divide" || fn.Visibility != ast.VisPublic {
		t.Fatalf("unexpected header %s %v", fn.Name, fn.Visibility)
	}
	if len(fn.Params) != 2 || fn.Params[1].Name != "b" || fn.Params[1].Type.Name != "i32" {
		t.Fatalf("unexpected params %+v", fn.Params)
	}
	if fn.Output == nil || fn.Output.Name != "i32" {
		t.Fatal("missing output type")
	}
	if fn.Effects == nil || len(fn.Effects.Items) != 2 || fn.Effects.Items[1].Cap != "rw" {
		t.Fatalf("unexpected effects %+v", fn.Effects)
	}
	if len(fn.Requires) != 1 || fn.Requires[0].Message != "b must not be zero" {
		t.Fatalf("unexpected requires %+v", fn.Requires)
	}
	if len(fn.Ensures) != 1 || len(fn.Body) != 1 {
		t.Fatalf("expected 1 ensures and 1 statement, got %d/%d", len(fn.Ensures), len(fn.Body))
	}
}

func TestVoidOutputIsNil(t *testing.T) {
	fn := firstFunc(t, "§O{void}")
	if fn.Output != nil {
		t.Fatalf("void output should be nil, got %s", fn.Output)
	}
}

func TestParamModes(t *testing.T) {
	fn := firstFunc(t, "§I{i32:a:ref} §I{i32:b:out} §I{str[]:rest:params}")
	want := []ast.ParamMode{ast.ParamRef, ast.ParamOut, ast.ParamVariadic}
	for i, m := range want {
		if fn.Params[i].Mode != m {
			t.Fatalf("param %d: got %v want %v", i, fn.Params[i].Mode, m)
		}
	}
	if !fn.Params[2].Type.IsArray() {
		t.Fatal("expected array type for params")
	}
}

func TestInvalidEffect(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1:F} §E{gpu:r} §/F{f1} §/M{m1}")
	if !hasCode(bag, diag.SynInvalidEffect) {
		t.Fatalf("expected InvalidEffect, got: %s", diagnosticsSummary(bag))
	}
}

func TestHeaderClauseAfterStatement(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1:F} §P 1 §Q true §/F{f1} §/M{m1}")
	if !hasCode(bag, diag.SynMisplacedClause) {
		t.Fatalf("expected MisplacedClause, got: %s", diagnosticsSummary(bag))
	}
}

func TestAsyncFunction(t *testing.T) {
	mod := parseClean(t, "§M{m1:A} §F{f1:Load:pub:async} §O{str} §R \"\" §/F{f1} §/M{m1}")
	if !mod.Decls[0].(*ast.FuncDecl).IsAsync() {
		t.Fatal("expected async function")
	}
}

func TestFunctionRejectsMethodModifiers(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §F{f1:Load:virtual} §/F{f1} §/M{m1}")
	if !hasCode(bag, diag.SynInvalidModifier) {
		t.Fatalf("expected InvalidModifier, got: %s", diagnosticsSummary(bag))
	}
}

func TestClassHeaderSlots(t *testing.T) {
	tests := []struct {
		header string
		vis    ast.Visibility
		base   string
		mods   ast.Modifiers
	}{
		{"§CL{c1:Shape}", ast.VisDefault, "", 0},
		{"§CL{c1:Shape:pub}", ast.VisPublic, "", 0},
		{"§CL{c1:Shape:pub:Base}", ast.VisPublic, "Base", 0},
		{"§CL{c1:Shape:pub:abstract}", ast.VisPublic, "", ast.ModAbstract},
		{"§CL{c1:Shape:pub:Base:sealed}", ast.VisPublic, "Base", ast.ModSealed},
		{"§CL{c1:Point:pub:struct readonly}", ast.VisPublic, "", ast.ModStruct | ast.ModReadonly},
		{"§CL{c1:Util:static}", ast.VisDefault, "", ast.ModStatic},
		// a base type spelled like a modifier is read as the modifier
		{"§CL{c1:Shape:pub:Partial}", ast.VisPublic, "", ast.ModPartial},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			mod := parseClean(t, "§M{m1:A} "+tt.header+" §/CL{c1} §/M{m1}")
			cl := mod.Decls[0].(*ast.ClassDecl)
			if cl.Visibility != tt.vis || cl.Base != tt.base || cl.Modifiers != tt.mods {
				t.Fatalf("got vis=%v base=%q mods=%v", cl.Visibility, cl.Base, cl.Modifiers.Names())
			}
		})
	}
}

func TestInvalidClassModifierCombination(t *testing.T) {
	for _, header := range []string{
		"§CL{c1:X:abstract sealed}",
		"§CL{c1:X:struct static}",
		"§CL{c1:X:readonly}",
		"§CL{c1:X:virtual}",
	} {
		_, bag := parseSource(t, "§M{m1:A} "+header+" §/CL{c1} §/M{m1}")
		if !hasCode(bag, diag.SynInvalidModifier) {
			t.Errorf("%s: expected InvalidModifier, got: %s", header, diagnosticsSummary(bag))
		}
	}
}

func TestClassMembers(t *testing.T) {
	mod := parseClean(t, `§M{m1:Geo}
§CL{c1:Circle:pub}
  §IMP{IShape,IComparable}
  §FLD{f64:radius:priv:readonly} 1.0
  §MT{m1:Area:pub:override}
    §O{f64}
    §R (* 3.14 radius radius)
  §/MT{m1}
§/CL{c1}
§/M{m1}`)
	cl := mod.Decls[0].(*ast.ClassDecl)
	if len(cl.Implements) != 2 || cl.Implements[1].Name != "IComparable" {
		t.Fatalf("unexpected implements %+v", cl.Implements)
	}
	fields := cl.Fields()
	if len(fields) != 1 || !fields[0].Modifiers.Has(ast.ModReadonly) || fields[0].Init == nil {
		t.Fatalf("unexpected fields %+v", fields)
	}
	methods := cl.Methods()
	if len(methods) != 1 || !methods[0].Modifiers.Has(ast.ModOverride) {
		t.Fatalf("unexpected methods %+v", methods)
	}
}

func TestAbstractMethodHasNoBody(t *testing.T) {
	mod := parseClean(t, "§M{m1:A} §CL{c1:Shape:abstract} §MT{m1:Area:pub:abstract} §O{f64} §/MT{m1} §/CL{c1} §/M{m1}")
	m := mod.Decls[0].(*ast.ClassDecl).Methods()[0]
	if m.HasBody {
		t.Fatal("abstract method without statements must have HasBody=false")
	}
}

func TestInterface(t *testing.T) {
	mod := parseClean(t, `§M{m1:A}
§IFC{i1:IAccount:pub}
  §MT{m1:Withdraw}
    §I{dec:amount}
    §Q (> amount 0)
    §S (>= result 0)
    §O{dec}
  §/MT{m1}
§/IFC{i1}
§/M{m1}`)
	ifc := mod.Decls[0].(*ast.InterfaceDecl)
	if ifc.Name != "IAccount" || len(ifc.Methods) != 1 {
		t.Fatalf("unexpected interface %+v", ifc)
	}
	m := ifc.Methods[0]
	if m.HasBody || len(m.Requires) != 1 || len(m.Ensures) != 1 {
		t.Fatalf("unexpected interface method %+v", m)
	}
}

func TestInterfaceMethodBodyRejected(t *testing.T) {
	_, bag := parseSource(t, "§M{m1:A} §IFC{i1:I} §MT{m1:Run} §R §/MT{m1} §/IFC{i1} §/M{m1}")
	if !hasCode(bag, diag.SynMisplacedClause) {
		t.Fatalf("expected MisplacedClause, got: %s", diagnosticsSummary(bag))
	}
}

func TestEnumAndExtension(t *testing.T) {
	mod := parseClean(t, `§M{m1:A}
§EN{e1:Color:pub:u8} Red, Green = 5 Blue §/EN{e1}
§EXT{x1:Color}
  §MT{m1:IsWarm:pub} §I{Color:c} §O{bool} §R (== c Color.Red) §/MT{m1}
§/EXT{x1}
§/M{m1}`)
	en := mod.Decls[0].(*ast.EnumDecl)
	if len(en.Members) != 3 || en.Members[1].Value == nil || en.Members[1].Value.Value != "5" {
		t.Fatalf("unexpected enum members %+v", en.Members)
	}
	if en.Underlying == nil || en.Underlying.Name != "u8" {
		t.Fatal("expected underlying u8")
	}
	ext := mod.Decls[1].(*ast.ExtensionDecl)
	if ext.Target != "Color" || len(ext.Methods) != 1 {
		t.Fatalf("unexpected extension %+v", ext)
	}
}
