package symbols

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
	"sigil/internal/types"
)

// Options configures Bind.
type Options struct {
	Reporter diag.Reporter
}

// Bind resolves every reference in mod. Module declarations and type
// members are registered before any body is walked, so a function may call
// one declared later in the file.
func Bind(mod *ast.Module, opts Options) *Table {
	t := NewTable()
	if mod == nil {
		return t
	}
	t.Module = t.newScope(ScopeModule, NoScopeID, NoSymbolID, mod.Span)
	b := &binder{t: t, r: NewResolver(t, t.Module, opts.Reporter), reporter: opts.Reporter}
	b.declareModule(mod)
	b.bindModule(mod)
	return t
}

type binder struct {
	t        *Table
	r        *Resolver
	reporter diag.Reporter
	// inContract is set while binding a precondition or postcondition.
	// Unknown lower-case names there are recorded, not reported.
	inContract bool
}

// IsExternalName reports whether an undeclared name is taken to be an
// opaque type or namespace from the target platform: a capitalised root
// or a dotted path.
func IsExternalName(name string) bool {
	if strings.Contains(name, ".") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func (b *binder) declareModule(mod *ast.Module) {
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			b.r.Declare(d.Name, d.Span, SymbolFunction, 0, d)
		case *ast.ClassDecl:
			b.declareType(d.Name, d.Span, SymbolClass, d)
		case *ast.InterfaceDecl:
			b.declareType(d.Name, d.Span, SymbolInterface, d)
		case *ast.EnumDecl:
			b.declareType(d.Name, d.Span, SymbolEnum, d)
		}
	}

	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.ClassDecl:
			b.declareClassMembers(d)
		case *ast.InterfaceDecl:
			b.declareInterfaceMembers(d)
		case *ast.EnumDecl:
			b.declareEnumMembers(d)
		}
	}

	// Extensions come last so they can attach to any enum in the unit.
	for _, d := range mod.Decls {
		if ext, ok := d.(*ast.ExtensionDecl); ok {
			b.declareExtension(ext)
		}
	}
}

func (b *binder) declareType(name string, span source.Span, kind SymbolKind, decl ast.Node) {
	id, ok := b.r.Declare(name, span, kind, 0, decl)
	if !ok {
		return
	}
	sym := b.t.Symbol(id)
	sym.Members = b.t.newScope(ScopeType, b.t.Module, id, span)
}

// typeSymbol returns the symbol a type declaration registered, skipping
// duplicates that lost the name.
func (b *binder) typeSymbol(decl ast.Node) *Symbol {
	sym, ok := b.t.DeclOf(decl)
	if !ok || sym.Decl != decl || !sym.Members.IsValid() {
		return nil
	}
	return sym
}

func (b *binder) declareClassMembers(c *ast.ClassDecl) {
	cls := b.typeSymbol(c)
	if cls == nil {
		return
	}
	if c.Base != "" {
		if base, ok := b.t.TypeByName(c.Base); ok && base.Kind == SymbolClass && base.ID != cls.ID {
			b.t.Scope(cls.Members).Base = base.Members
		}
	}
	b.r.Push(cls.Members)
	defer b.r.Leave(cls.Members)
	for _, m := range c.Members {
		switch m := m.(type) {
		case *ast.FieldDecl:
			var flags SymbolFlags
			switch {
			case m.Modifiers.Has(ast.ModStatic):
				flags = SymbolFlagStatic | SymbolFlagMutable
			case m.Modifiers.Has(ast.ModReadonly), c.Modifiers.Has(ast.ModReadonly):
				flags = SymbolFlagReadonly
			default:
				flags = SymbolFlagMutable
			}
			b.r.Declare(m.Name, m.Span, SymbolField, flags, m)
		case *ast.FuncDecl:
			var flags SymbolFlags
			if m.Modifiers.Has(ast.ModStatic) {
				flags = SymbolFlagStatic
			}
			b.r.Declare(m.Name, m.Span, SymbolMethod, flags, m)
		}
	}
}

func (b *binder) declareInterfaceMembers(i *ast.InterfaceDecl) {
	sym := b.typeSymbol(i)
	if sym == nil {
		return
	}
	b.r.Push(sym.Members)
	defer b.r.Leave(sym.Members)
	for _, m := range i.Methods {
		b.r.Declare(m.Name, m.Span, SymbolMethod, 0, m)
	}
}

func (b *binder) declareEnumMembers(e *ast.EnumDecl) {
	sym := b.typeSymbol(e)
	if sym == nil {
		return
	}
	b.r.Push(sym.Members)
	defer b.r.Leave(sym.Members)
	for _, m := range e.Members {
		b.r.Declare(m.Name, m.Span, SymbolEnumMember, SymbolFlagStatic, m)
	}
}

func (b *binder) declareExtension(ext *ast.ExtensionDecl) {
	target, ok := b.t.TypeByName(ext.Target)
	if !ok || target.Kind != SymbolEnum {
		msg := fmt.Sprintf("extension target '%s' is not an enum declared in this module", ext.Target)
		diag.ReportError(b.reporter, diag.SemaUnknownType, ext.Span, msg).Emit()
		return
	}
	b.r.Push(target.Members)
	defer b.r.Leave(target.Members)
	for _, m := range ext.Methods {
		b.r.Declare(m.Name, m.Span, SymbolMethod, 0, m)
	}
}

func (b *binder) bindModule(mod *ast.Module) {
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			b.bindFunc(d)
		case *ast.ClassDecl:
			b.bindClass(d)
		case *ast.InterfaceDecl:
			b.bindInterface(d)
		case *ast.EnumDecl:
			b.bindType(d.Underlying)
		case *ast.ExtensionDecl:
			for _, m := range d.Methods {
				b.bindFunc(m)
			}
		case *ast.RawDecl:
		}
	}
}

func (b *binder) bindClass(c *ast.ClassDecl) {
	cls := b.typeSymbol(c)
	if cls == nil {
		return
	}
	for _, impl := range c.Implements {
		b.bindTypeName(impl.Name, impl.ID, impl.Span)
	}
	b.r.Push(cls.Members)
	defer b.r.Leave(cls.Members)
	for _, m := range c.Members {
		switch m := m.(type) {
		case *ast.FieldDecl:
			b.bindType(m.Type)
			b.bindExpr(m.Init)
		case *ast.FuncDecl:
			b.bindFunc(m)
		}
	}
}

func (b *binder) bindInterface(i *ast.InterfaceDecl) {
	sym := b.typeSymbol(i)
	if sym == nil {
		return
	}
	b.r.Push(sym.Members)
	defer b.r.Leave(sym.Members)
	for _, m := range i.Methods {
		b.bindFunc(m)
	}
}

func (b *binder) bindFunc(fn *ast.FuncDecl) {
	owner := b.t.Decls[fn.ID]
	scope := b.r.Enter(ScopeFunction, owner, fn.Span)
	defer b.r.Leave(scope)
	b.t.Scopes[fn.ID] = scope

	for _, p := range fn.Params {
		b.bindType(p.Type)
		var flags SymbolFlags
		if p.Mode == ast.ParamRef || p.Mode == ast.ParamOut {
			flags = SymbolFlagMutable
		}
		b.r.Declare(p.Name, p.Span, SymbolParam, flags, p)
	}
	b.bindType(fn.Output)

	for _, c := range fn.Requires {
		b.bindContract(c)
	}
	if len(fn.Ensures) > 0 {
		post := b.r.Enter(ScopeBlock, owner, fn.Span)
		if fn.Output != nil {
			b.r.Declare("result", fn.Output.Span, SymbolResult, 0, nil)
		}
		for _, c := range fn.Ensures {
			b.t.Scopes[c.ID] = post
			b.bindContract(c)
		}
		b.r.Leave(post)
	}

	if fn.HasBody {
		b.bindBlock(fn.ID, fn.Span, fn.Body)
	}
}

func (b *binder) bindContract(c *ast.Contract) {
	b.inContract = true
	b.bindExpr(c.Cond)
	b.inContract = false
}

// bindBlock opens a block scope for stmts and records it under key.
func (b *binder) bindBlock(key ast.NodeID, span source.Span, stmts []ast.Stmt, locals ...blockLocal) {
	scope := b.r.Enter(ScopeBlock, NoSymbolID, span)
	defer b.r.Leave(scope)
	if key.IsValid() {
		if _, taken := b.t.Scopes[key]; !taken {
			b.t.Scopes[key] = scope
		}
	}
	for _, l := range locals {
		if l.name != "" {
			b.r.Declare(l.name, l.span, SymbolLocal, l.flags, l.decl)
		}
	}
	b.bindStmts(stmts)
}

type blockLocal struct {
	name  string
	span  source.Span
	flags SymbolFlags
	decl  ast.Node
}

func (b *binder) bindStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		b.bindStmt(s)
	}
}

func (b *binder) bindStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BindStmt:
		b.bindType(s.Type)
		b.bindExpr(s.Value)
		var flags SymbolFlags
		if s.Mutable {
			flags = SymbolFlagMutable
		}
		b.r.Declare(s.Name, s.Span, SymbolLocal, flags, s)
	case *ast.AssignStmt:
		b.bindExpr(s.Target)
		b.bindExpr(s.Value)
	case *ast.ReturnStmt:
		b.bindExpr(s.Value)
	case *ast.IfStmt:
		b.bindExpr(s.Cond)
		b.bindBlock(s.ID, s.Span, s.Then)
		for _, ei := range s.ElseIfs {
			b.bindExpr(ei.Cond)
			b.bindBlock(ei.ID, ei.Span, ei.Body)
		}
		if s.HasElse {
			b.bindBlock(ast.NoNodeID, s.Span, s.Else)
		}
	case *ast.LoopStmt:
		b.bindExpr(s.From)
		b.bindExpr(s.To)
		b.bindExpr(s.Step)
		b.bindBlock(s.ID, s.Span, s.Body, blockLocal{name: s.Var, span: s.Span, decl: s})
	case *ast.WhileStmt:
		b.bindExpr(s.Cond)
		b.bindBlock(s.ID, s.Span, s.Body)
	case *ast.ForeachStmt:
		b.bindExpr(s.Collection)
		// The index and the item share the declaring node; the item wins
		// the Decls slot.
		locals := []blockLocal{{name: s.Index, span: s.Span}, {name: s.Item, span: s.Span, decl: s}}
		b.bindBlock(s.ID, s.Span, s.Body, locals...)
	case *ast.MatchStmt:
		b.bindExpr(s.Subject)
		for _, c := range s.Cases {
			scope := b.r.Enter(ScopeBlock, NoSymbolID, c.Span)
			b.t.Scopes[c.ID] = scope
			b.bindPattern(c.Pattern)
			b.bindExpr(c.Guard)
			b.bindExpr(c.Value)
			b.bindStmts(c.Body)
			b.r.Leave(scope)
		}
	case *ast.TryStmt:
		b.bindBlock(s.ID, s.Span, s.Body)
		for _, c := range s.Catches {
			scope := b.r.Enter(ScopeBlock, NoSymbolID, c.Span)
			b.t.Scopes[c.ID] = scope
			if c.Type != "" {
				b.bindTypeName(c.Type, c.ID, c.Span)
			}
			if c.Var != "" {
				b.r.Declare(c.Var, c.Span, SymbolLocal, 0, c)
			}
			b.bindExpr(c.Guard)
			b.bindStmts(c.Body)
			b.r.Leave(scope)
		}
		if s.HasFinally {
			b.bindBlock(ast.NoNodeID, s.Span, s.Finally)
		}
	case *ast.ThrowStmt:
		b.bindExpr(s.Value)
	case *ast.ResourceStmt:
		b.bindExpr(s.Value)
		b.bindBlock(s.ID, s.Span, s.Body, blockLocal{name: s.Name, span: s.Span, decl: s})
	case *ast.YieldStmt:
		b.bindExpr(s.Value)
	case *ast.PrintStmt:
		b.bindExpr(s.Value)
	case *ast.ExprStmt:
		b.bindExpr(s.X)
	case *ast.RethrowStmt, *ast.YieldBreakStmt, *ast.BreakStmt, *ast.ContinueStmt, *ast.RawStmt:
	}
}

func (b *binder) bindExpr(e ast.Expr) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *ast.Literal, *ast.BadExpr:
	case *ast.Name:
		b.bindName(e)
	case *ast.This:
		cls := b.r.Enclosing(ScopeType)
		if cls == nil || cls.Kind != SymbolClass {
			diag.ReportError(b.reporter, diag.SemaUnresolvedSymbol, e.Span, "'this' used outside of a class").Emit()
			return
		}
		b.t.Refs[e.ID] = cls.ID
	case *ast.MemberExpr:
		b.bindExpr(e.X)
		b.bindMember(e)
	case *ast.Binary:
		b.bindExpr(e.Left)
		b.bindExpr(e.Right)
	case *ast.Unary:
		b.bindExpr(e.X)
	case *ast.Call:
		b.bindExpr(e.Callee)
		for _, a := range e.Args {
			b.bindExpr(a)
		}
	case *ast.NewExpr:
		b.bindType(e.Type)
		for _, a := range e.Args {
			b.bindExpr(a)
		}
		for _, in := range e.Inits {
			b.bindExpr(in.Value)
		}
	case *ast.ArrayExpr:
		b.bindType(e.Elem)
		for _, el := range e.Elems {
			b.bindExpr(el)
		}
		b.bindExpr(e.Size)
	case *ast.VariantExpr:
		b.bindExpr(e.X)
	case *ast.Lambda:
		scope := b.r.Enter(ScopeFunction, NoSymbolID, e.Span)
		b.t.Scopes[e.ID] = scope
		for _, p := range e.Params {
			b.bindType(p.Type)
			b.r.Declare(p.Name, p.Span, SymbolParam, 0, p)
		}
		b.bindExpr(e.Body)
		b.r.Leave(scope)
	case *ast.MatchExpr:
		b.bindExpr(e.Subject)
		for _, arm := range e.Arms {
			scope := b.r.Enter(ScopeBlock, NoSymbolID, arm.Span)
			b.t.Scopes[arm.ID] = scope
			b.bindPattern(arm.Pattern)
			b.bindExpr(arm.Guard)
			b.bindExpr(arm.Value)
			b.r.Leave(scope)
		}
	case *ast.CastExpr:
		b.bindType(e.Type)
		b.bindExpr(e.X)
	case *ast.AwaitExpr:
		b.bindExpr(e.X)
	default:
		msg := fmt.Sprintf("Unsupported expression type in binding: %T", e)
		diag.ReportError(b.reporter, diag.SemaUnsupportedExpression, e.NodeSpan(), msg).Emit()
		b.t.Refs[e.NodeID()] = b.t.Fallback().ID
	}
}

func (b *binder) bindName(n *ast.Name) {
	if sym, ok := b.r.Lookup(n.Name); ok {
		b.t.Refs[n.ID] = sym.ID
		return
	}
	if IsExternalName(n.Name) {
		b.t.Refs[n.ID] = b.t.External(n.Name).ID
		return
	}
	if b.inContract {
		b.t.Unresolved[n.ID] = n.Name
		return
	}
	msg := fmt.Sprintf("unresolved symbol '%s'", n.Name)
	rb := diag.ReportError(b.reporter, diag.SemaUnresolvedSymbol, n.Span, msg)
	if s, ok := Suggest(n.Name, b.t.VisibleNames(b.r.CurrentScope())); ok {
		rb.WithNote(n.Span, fmt.Sprintf("did you mean '%s'?", s)).
			WithFix(fmt.Sprintf("replace with '%s'", s), diag.FixEdit{Span: n.Span, NewText: s})
	}
	rb.Emit()
}

// bindMember resolves X.Name when X denotes a type declared in the unit or
// `this`. Member access on values is left to the type checker.
func (b *binder) bindMember(m *ast.MemberExpr) {
	owner, ok := b.t.Ref(m.X)
	if !ok || !owner.Kind.IsType() {
		return
	}
	if sym, found := b.t.Member(owner, m.Name); found {
		b.t.Refs[m.ID] = sym.ID
		return
	}
	if b.t.HasOpenMembers(owner) {
		return
	}
	msg := fmt.Sprintf("%s '%s' has no member '%s'", owner.Kind, owner.Name, m.Name)
	rb := diag.ReportError(b.reporter, diag.SemaUnknownMember, m.Span, msg)
	if s, ok := Suggest(m.Name, b.t.MemberNames(owner)); ok {
		rb.WithNote(m.Span, fmt.Sprintf("did you mean '%s'?", s))
	}
	rb.Emit()
}

func (b *binder) bindPattern(p ast.Pattern) {
	switch p := p.(type) {
	case *ast.BindPat:
		b.r.Declare(p.Name, p.Span, SymbolLocal, 0, p)
	case *ast.VariantPat:
		if p.Inner != nil {
			b.bindPattern(p.Inner)
		}
	case *ast.EnumPat:
		enum, ok := b.t.TypeByName(p.Type)
		if !ok {
			if !IsExternalName(p.Type) {
				msg := fmt.Sprintf("unknown type '%s' in pattern", p.Type)
				diag.ReportError(b.reporter, diag.SemaUnknownType, p.Span, msg).Emit()
			}
			return
		}
		if sym, found := b.t.Member(enum, p.Member); found {
			b.t.Refs[p.ID] = sym.ID
			return
		}
		msg := fmt.Sprintf("%s '%s' has no member '%s'", enum.Kind, enum.Name, p.Member)
		diag.ReportError(b.reporter, diag.SemaUnknownMember, p.Span, msg).Emit()
	case *ast.WildcardPat, *ast.LiteralPat, *ast.RelPat:
	}
}

func (b *binder) bindType(t *ast.TypeRef) {
	if t == nil {
		return
	}
	if t.Elem != nil {
		b.bindType(t.Elem)
		return
	}
	for _, a := range t.Args {
		b.bindType(a)
	}
	if types.IsOptionName(t.Name) || types.IsResultName(t.Name) {
		return
	}
	b.bindTypeName(t.Name, t.ID, t.Span)
}

func (b *binder) bindTypeName(name string, id ast.NodeID, span source.Span) {
	if _, ok := types.CanonicalPrimitive(name); ok {
		return
	}
	if sym, ok := b.t.TypeByName(name); ok {
		b.t.Refs[id] = sym.ID
		return
	}
	if IsExternalName(name) {
		b.t.Refs[id] = b.t.External(name).ID
		return
	}
	msg := fmt.Sprintf("unknown type '%s'", name)
	rb := diag.ReportError(b.reporter, diag.SemaUnknownType, span, msg)
	if s, ok := Suggest(name, append(types.PrimitiveNames(), b.t.TypeNames()...)); ok {
		rb.WithNote(span, fmt.Sprintf("did you mean '%s'?", s))
	}
	rb.Emit()
}
