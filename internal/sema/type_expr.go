package sema

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

// checkExpr types e. expected guides literals, empty variants and lambdas
// and may be NoTypeID; compatibility with it is checked by the caller.
func (tc *typeChecker) checkExpr(e ast.Expr, expected types.TypeID) types.TypeID {
	if e == nil {
		return tc.b.Invalid
	}
	var t types.TypeID
	switch e := e.(type) {
	case *ast.Literal:
		t = tc.checkLiteral(e, expected)
	case *ast.Name:
		t = tc.checkName(e)
	case *ast.This:
		t = tc.b.Invalid
		if sym, ok := tc.table.Ref(e); ok {
			t = tc.symbolType(sym)
		}
	case *ast.MemberExpr:
		t = tc.checkMember(e)
	case *ast.Binary:
		t = tc.checkBinary(e, expected)
	case *ast.Unary:
		t = tc.checkUnary(e, expected)
	case *ast.Call:
		t = tc.checkCall(e)
	case *ast.NewExpr:
		t = tc.checkNew(e)
	case *ast.ArrayExpr:
		t = tc.checkArray(e)
	case *ast.VariantExpr:
		t = tc.checkVariant(e, expected)
	case *ast.Lambda:
		t = tc.checkLambda(e, expected)
	case *ast.MatchExpr:
		t = tc.checkMatch(e, expected)
	case *ast.CastExpr:
		t = tc.checkCast(e)
	case *ast.AwaitExpr:
		t = tc.awaitResult(tc.checkExpr(e.X, types.NoTypeID))
	case *ast.BadExpr:
		t = tc.b.Invalid
	default:
		tc.report(diag.SemaUnsupportedExpression, e.NodeSpan(), "Unsupported expression type in type checking: %T", e)
		t = tc.b.Invalid
	}
	return tc.record(e, t)
}

func (tc *typeChecker) checkName(n *ast.Name) types.TypeID {
	sym, ok := tc.table.Ref(n)
	if !ok {
		return tc.b.Invalid
	}
	return tc.symbolType(sym)
}

// symbolType returns the type a reference to sym evaluates to.
func (tc *typeChecker) symbolType(sym *symbols.Symbol) types.TypeID {
	switch sym.Kind {
	case symbols.SymbolExternal:
		return tc.in.External(sym.Name)
	case symbols.SymbolFallback:
		return tc.b.Invalid
	}
	if t, ok := tc.result.SymbolTypes[sym.ID]; ok {
		return t
	}
	// a local referenced before its declaration was checked, e.g. from a
	// lambda body; give it a variable the declaration will unify with
	v := tc.u.NewVar()
	tc.result.SymbolTypes[sym.ID] = v
	return v
}

func (tc *typeChecker) checkMember(m *ast.MemberExpr) types.TypeID {
	x := tc.u.Resolve(tc.checkExpr(m.X, types.NoTypeID))
	if sym, ok := tc.table.Ref(m); ok {
		return tc.symbolType(sym)
	}
	if owner, ok := tc.table.Ref(m.X); ok && owner.Kind.IsType() {
		// the binder has already reported unknown static members
		return tc.u.NewVar()
	}
	tt, ok := tc.in.Lookup(x)
	if !ok {
		return tc.b.Invalid
	}
	switch tt.Kind {
	case types.KindNamed:
		if f, found := tc.fieldOf(m); found {
			return f.Type
		}
		if meth, found := tc.methodOf(x, m.Name); found {
			return meth.Sig
		}
		if tc.hasExternalAncestor(x, 0) {
			return tc.u.NewVar()
		}
		info, _ := tc.in.NamedInfo(x)
		tc.report(diag.SemaUnknownMember, m.Span, "type '%s' has no member '%s'", info.Name, m.Name)
		return tc.b.Invalid
	case types.KindEnum:
		if meth, found := tc.methodOf(x, m.Name); found {
			// extension methods take the receiver as their first parameter
			sig, _ := tc.in.FuncInfo(meth.Sig)
			if len(sig.Params) > 0 {
				return tc.in.Func(sig.Params[1:], sig.Result, sig.Variadic)
			}
			return meth.Sig
		}
		return tc.u.NewVar()
	case types.KindString, types.KindArray:
		if m.Name == "Length" {
			return tc.b.I32
		}
		return tc.u.NewVar()
	case types.KindOption:
		switch m.Name {
		case "IsSome", "IsNone":
			return tc.b.Bool
		case "Value":
			return tt.Elem
		}
		return tc.u.NewVar()
	case types.KindResult:
		switch m.Name {
		case "IsOk", "IsErr":
			return tc.b.Bool
		case "Value":
			return tt.Elem
		case "Error":
			return tt.Err
		}
		return tc.u.NewVar()
	case types.KindInvalid:
		return tc.b.Invalid
	}
	return tc.u.NewVar()
}

func (tc *typeChecker) checkCall(c *ast.Call) types.TypeID {
	callee := tc.u.Resolve(tc.checkExpr(c.Callee, types.NoTypeID))
	tt, _ := tc.in.Lookup(callee)
	switch tt.Kind {
	case types.KindFunc:
		sig, _ := tc.in.FuncInfo(callee)
		tc.checkArgs(c, sig)
		if fn := tc.calleeDecl(c); fn != nil && fn.IsAsync() {
			return tc.taskOf(sig.Result)
		}
		return sig.Result
	case types.KindVar, types.KindExternal, types.KindInvalid:
		for _, a := range c.Args {
			tc.checkExpr(a, types.NoTypeID)
		}
		if tt.Kind == types.KindInvalid {
			return tc.b.Invalid
		}
		return tc.u.NewVar()
	}
	for _, a := range c.Args {
		tc.checkExpr(a, types.NoTypeID)
	}
	tc.report(diag.SemaNotCallable, c.Callee.NodeSpan(), "value of type %s is not callable", tc.typeLabel(callee))
	return tc.b.Invalid
}

// calleeDecl returns the declaration a call resolves to, if it names a user
// function or method.
func (tc *typeChecker) calleeDecl(c *ast.Call) *ast.FuncDecl {
	sym, ok := tc.table.Ref(c.Callee)
	if !ok {
		return nil
	}
	fn, _ := sym.Func()
	return fn
}

func (tc *typeChecker) checkArgs(c *ast.Call, sig types.FuncInfo) {
	n := len(sig.Params)
	ok := len(c.Args) == n
	if sig.Variadic {
		ok = len(c.Args) >= n-1
	}
	if !ok {
		name := ast.DottedName(c.Callee)
		if name == "" {
			name = "callee"
		}
		want := fmt.Sprintf("%d", n)
		if sig.Variadic {
			want = fmt.Sprintf("at least %d", n-1)
		}
		tc.report(diag.SemaArityMismatch, c.Span, "'%s' expects %s argument(s), got %d", name, want, len(c.Args))
	}
	for i, a := range c.Args {
		var want types.TypeID
		switch {
		case i < n-1 || (i == n-1 && !sig.Variadic):
			want = sig.Params[i]
		case sig.Variadic && n > 0:
			last := sig.Params[n-1]
			want = last
			if tt, found := tc.in.Lookup(last); found && tt.Kind == types.KindArray && len(c.Args) != n {
				want = tt.Elem
			}
		}
		got := tc.checkExpr(a, want)
		if want != types.NoTypeID && !tc.assignable(got, want) {
			// a lone variadic argument may also be the element type
			if sig.Variadic && i == n-1 {
				if tt, found := tc.in.Lookup(want); found && tt.Kind == types.KindArray && tc.assignable(got, tt.Elem) {
					continue
				}
			}
			tc.report(diag.SemaTypeMismatch, a.NodeSpan(), "argument %d: expected %s, got %s", i+1, tc.typeLabel(want), tc.typeLabel(got))
		}
	}
}

func (tc *typeChecker) taskOf(result types.TypeID) types.TypeID {
	if result == tc.b.Void {
		return tc.in.External("Task")
	}
	return tc.in.External("Task", result)
}

func (tc *typeChecker) awaitResult(t types.TypeID) types.TypeID {
	t = tc.u.Resolve(t)
	info, ok := tc.in.ExternalInfo(t)
	if !ok || (info.Name != "Task" && info.Name != "ValueTask") {
		return t
	}
	if len(info.Args) == 1 {
		return info.Args[0]
	}
	return tc.b.Void
}

func (tc *typeChecker) checkNew(n *ast.NewExpr) types.TypeID {
	t := tc.resolveType(n.Type)
	for _, a := range n.Args {
		tc.checkExpr(a, types.NoTypeID)
	}
	info, named := tc.in.NamedInfo(t)
	if named && info.Kind == types.NamedInterface {
		tc.report(diag.SemaTypeMismatch, n.Span, "cannot instantiate interface '%s'", info.Name)
	}
	for _, init := range n.Inits {
		var want types.TypeID
		if named {
			f, found := tc.namedField(t, init.Name)
			switch {
			case found:
				want = f.Type
			case !tc.hasExternalAncestor(t, 0):
				tc.report(diag.SemaUnknownMember, init.Span, "type '%s' has no field '%s'", info.Name, init.Name)
			}
		}
		got := tc.checkExpr(init.Value, want)
		tc.requireAssignable(init.Value, got, want, "initializer of '"+init.Name+"'")
	}
	return t
}

func (tc *typeChecker) namedField(t types.TypeID, name string) (types.Field, bool) {
	for depth := 0; depth < 16; depth++ {
		info, ok := tc.in.NamedInfo(t)
		if !ok {
			break
		}
		for _, f := range info.Fields {
			if f.Name == name {
				return f, true
			}
		}
		t = info.Base
	}
	return types.Field{}, false
}

func (tc *typeChecker) checkArray(a *ast.ArrayExpr) types.TypeID {
	elem := tc.resolveType(a.Elem)
	if a.Elem == nil {
		elem = tc.u.NewVar()
	}
	for _, e := range a.Elems {
		got := tc.checkExpr(e, elem)
		tc.requireAssignable(e, got, elem, "array element")
	}
	if a.Size != nil {
		size := tc.u.Resolve(tc.checkExpr(a.Size, tc.b.I32))
		if !tc.isInvalid(size) && tc.in.KindOf(size) != types.KindVar && !tc.in.KindOf(size).IsInteger() {
			tc.report(diag.SemaTypeMismatch, a.Size.NodeSpan(), "array size must be an integer, got %s", tc.typeLabel(size))
		}
	}
	return tc.in.Array(elem)
}

func (tc *typeChecker) checkVariant(v *ast.VariantExpr, expected types.TypeID) types.TypeID {
	exp, _ := tc.in.Lookup(tc.u.Resolve(expected))
	switch v.Kind {
	case ast.VariantNone:
		if exp.Kind == types.KindOption {
			return tc.u.Resolve(expected)
		}
		return tc.in.Option(tc.u.NewVar())
	case ast.VariantSome:
		var want types.TypeID
		if exp.Kind == types.KindOption {
			want = exp.Elem
		}
		return tc.in.Option(tc.variantPayload(v.X, want))
	case ast.VariantOk:
		okT, errT := tc.u.NewVar(), tc.u.NewVar()
		if exp.Kind == types.KindResult {
			okT, errT = exp.Elem, exp.Err
		}
		return tc.in.Result(tc.variantPayload(v.X, okT), errT)
	default:
		okT, errT := tc.u.NewVar(), tc.u.NewVar()
		if exp.Kind == types.KindResult {
			okT, errT = exp.Elem, exp.Err
		}
		return tc.in.Result(okT, tc.variantPayload(v.X, errT))
	}
}

// variantPayload types the payload of some/ok/err. When an expected payload
// type is known and compatible it wins, so `(some 1)` in an Option<i64>
// context stays Option<i64>.
func (tc *typeChecker) variantPayload(x ast.Expr, want types.TypeID) types.TypeID {
	got := tc.checkExpr(x, want)
	if want != types.NoTypeID && tc.assignable(got, want) {
		return want
	}
	return got
}

func (tc *typeChecker) checkLambda(l *ast.Lambda, expected types.TypeID) types.TypeID {
	var expSig types.FuncInfo
	hasSig := false
	if info, ok := tc.in.FuncInfo(tc.u.Resolve(expected)); ok && len(info.Params) == len(l.Params) {
		expSig, hasSig = info, true
	}
	params := make([]types.TypeID, len(l.Params))
	for i, p := range l.Params {
		var pt types.TypeID
		switch {
		case p.Type != nil:
			pt = tc.resolveType(p.Type)
		case hasSig:
			pt = expSig.Params[i]
		default:
			pt = tc.u.NewVar()
		}
		params[i] = pt
		if sym, ok := tc.table.DeclOf(p); ok {
			tc.result.SymbolTypes[sym.ID] = pt
		}
	}
	var want types.TypeID
	if hasSig {
		want = expSig.Result
	}
	body := tc.checkExpr(l.Body, want)
	return tc.in.Func(params, body, false)
}

func (tc *typeChecker) checkCast(c *ast.CastExpr) types.TypeID {
	target := tc.resolveType(c.Type)
	from := tc.u.Resolve(tc.checkExpr(c.X, types.NoTypeID))
	if tc.isInvalid(from) || tc.isInvalid(target) {
		return target
	}
	fk, tk := tc.in.KindOf(from), tc.in.KindOf(target)
	ok := true
	switch {
	case fk == types.KindVar, tk == types.KindExternal, fk == types.KindExternal:
	case fk.IsNumeric() || fk == types.KindEnum:
		ok = tk.IsNumeric() || tk == types.KindEnum
	case fk == types.KindBool, fk == types.KindString:
		ok = from == target
	case fk == types.KindNamed:
		ok = tk == types.KindNamed
	}
	if !ok {
		tc.report(diag.SemaTypeMismatch, c.Span, "cannot cast %s to %s", tc.typeLabel(from), tc.typeLabel(target))
	}
	return target
}
