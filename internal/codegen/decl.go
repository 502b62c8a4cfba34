package codegen

import (
	"strings"

	"sigil/internal/ast"
	"sigil/internal/effects"
	"sigil/internal/types"
)

type memberKind uint8

const (
	memberModule memberKind = iota
	memberClass
	memberStruct
	memberInterface
	memberExtension
)

// guard is one contract turned into a runtime check. origin names the
// method an inherited contract comes from.
type guard struct {
	cond   ast.Expr
	rename map[string]string
	label  string
	origin string
}

// funcState describes the function whose body is being written.
type funcState struct {
	decl *ast.FuncDecl
	// result is the C# type of a returned value, "" for void bodies.
	result   string
	ensures  []guard
	iterator bool

	// set while a contract condition is written
	rename     map[string]string
	resultName string
}

func visibility(v ast.Visibility, fallback string) string {
	if s := v.String(); s != "" {
		return s
	}
	return fallback
}

// words joins the non-empty parts with single spaces.
func words(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func flag(m ast.Modifiers, f ast.Modifiers, word string) string {
	if m.Has(f) {
		return word
	}
	return ""
}

func (g *generator) class(cl *ast.ClassDecl) {
	isStruct := cl.Modifiers.Has(ast.ModStruct)
	keyword := "class"
	kind := memberClass
	if isStruct {
		keyword, kind = "struct", memberStruct
	}
	m := cl.Modifiers
	sealed, readonly := flag(m, ast.ModSealed, "sealed"), ""
	if isStruct {
		// structs are implicitly sealed
		sealed, readonly = "", flag(m, ast.ModReadonly, "readonly")
	}
	head := words(
		visibility(cl.Visibility, "public"),
		flag(m, ast.ModStatic, "static"),
		flag(m, ast.ModAbstract, "abstract"),
		sealed,
		readonly,
		flag(m, ast.ModPartial, "partial"),
		keyword,
		cl.Name,
	)
	var bases []string
	if cl.Base != "" {
		bases = append(bases, cl.Base)
	}
	for _, imp := range cl.Implements {
		bases = append(bases, imp.Name)
	}
	if len(bases) > 0 {
		head += " : " + strings.Join(bases, ", ")
	}

	g.attributes(cl.Attrs)
	g.emitLine(head)
	g.open()
	var prev ast.Member
	for _, mem := range cl.Members {
		if prev != nil {
			_, prevField := prev.(*ast.FieldDecl)
			_, field := mem.(*ast.FieldDecl)
			if !prevField || !field {
				g.emitLine("")
			}
		}
		prev = mem
		switch mem := mem.(type) {
		case *ast.FieldDecl:
			g.field(mem)
		case *ast.FuncDecl:
			g.function(mem, kind, cl.Name)
		case *ast.RawDecl:
			g.raw(mem.Text)
		}
	}
	g.close("")
}

func (g *generator) field(f *ast.FieldDecl) {
	decl := words(
		visibility(f.Visibility, "private"),
		flag(f.Modifiers, ast.ModStatic, "static"),
		flag(f.Modifiers, ast.ModReadonly, "readonly"),
		g.typeRef(f.Type),
		f.Name,
	)
	if f.Init != nil {
		decl += " = " + g.exprTyped(f.Init, g.resolve(f.Type))
	}
	g.emitLine(decl + ";")
}

func (g *generator) iface(ifc *ast.InterfaceDecl) {
	g.attributes(ifc.Attrs)
	g.emitLine(words(visibility(ifc.Visibility, "public"), "interface", ifc.Name))
	g.open()
	for i, m := range ifc.Methods {
		if i > 0 {
			g.emitLine("")
		}
		g.function(m, memberInterface, ifc.Name)
	}
	g.close("")
}

func (g *generator) enum(en *ast.EnumDecl) {
	head := words(visibility(en.Visibility, "public"), "enum", en.Name)
	if en.Underlying != nil {
		head += " : " + g.typeRef(en.Underlying)
	}
	g.attributes(en.Attrs)
	g.emitLine(head)
	g.open()
	for i, m := range en.Members {
		line := m.Name
		if m.Value != nil {
			line += " = " + g.literal(m.Value, types.NoTypeID)
		}
		if i < len(en.Members)-1 {
			line += ","
		}
		g.emitLine(line)
	}
	g.close("")
}

func (g *generator) extension(ext *ast.ExtensionDecl) {
	g.emitLinef("public static class %sExtensions", ext.Target)
	g.open()
	for i, m := range ext.Methods {
		if i > 0 {
			g.emitLine("")
		}
		g.self = ""
		if len(m.Params) == 0 {
			g.self = "self"
		}
		g.function(m, memberExtension, ext.Target)
	}
	g.self = ""
	g.close("")
}

// returnType spells the C# return type, wrapping iterator and async
// bodies.
func (g *generator) returnType(fn *ast.FuncDecl) (full, result string, iterator bool) {
	if elem, ok := g.iteratorElem(fn); ok {
		return "IEnumerable<" + elem + ">", "", true
	}
	if fn.Output != nil {
		result = g.typeRef(fn.Output)
	}
	switch {
	case fn.IsAsync() && result == "":
		return "Task", "", false
	case fn.IsAsync():
		return "Task<" + result + ">", result, false
	case result == "":
		return "void", "", false
	}
	return result, result, false
}

func (g *generator) iteratorElem(fn *ast.FuncDecl) (string, bool) {
	if g.opts.Sema != nil {
		if id, ok := g.opts.Sema.Iterators[fn.ID]; ok {
			if fn.Output != nil {
				return g.typeRef(fn.Output), true
			}
			return g.typeID(id), true
		}
	}
	for _, st := range fn.Body {
		found := false
		ast.Inspect(st, func(n ast.Node) bool {
			switch n.(type) {
			case *ast.YieldStmt, *ast.YieldBreakStmt:
				found = true
			case *ast.Lambda:
				return false
			}
			return !found
		})
		if found {
			if fn.Output != nil {
				return g.typeRef(fn.Output), true
			}
			return "object", true
		}
	}
	return "", false
}

func (g *generator) params(fn *ast.FuncDecl, kind memberKind, owner string) string {
	var parts []string
	// the receiver is the first parameter, or an implicit self
	if kind == memberExtension && len(fn.Params) == 0 {
		parts = append(parts, "this "+owner+" "+g.self)
	}
	for i, p := range fn.Params {
		recv := ""
		if kind == memberExtension && i == 0 {
			recv = "this"
		}
		parts = append(parts, words(recv, p.Mode.String(), g.typeRef(p.Type), p.Name))
	}
	return strings.Join(parts, ", ")
}

func (g *generator) function(fn *ast.FuncDecl, kind memberKind, owner string) {
	full, result, iterator := g.returnType(fn)
	m := fn.Modifiers

	var head string
	switch kind {
	case memberInterface:
		head = words(full, fn.Name)
	case memberModule, memberExtension:
		head = words(visibility(fn.Visibility, "public"), "static", flag(m, ast.ModAsync, "async"), full, fn.Name)
	default:
		head = words(
			visibility(fn.Visibility, "public"),
			flag(m, ast.ModStatic, "static"),
			flag(m, ast.ModAbstract, "abstract"),
			flag(m, ast.ModVirtual, "virtual"),
			flag(m, ast.ModOverride, "override"),
			flag(m, ast.ModSealed, "sealed"),
			flag(m, ast.ModAsync, "async"),
			full,
			fn.Name,
		)
	}
	head += "(" + g.params(fn, kind, owner) + ")"

	g.effectRemarks(fn)
	if kind == memberInterface || !fn.HasBody {
		g.contractComments(fn)
	}
	g.attributes(fn.Attrs)
	if !fn.HasBody {
		g.emitLine(head + ";")
		return
	}
	g.emitLine(head)
	g.open()

	st := &funcState{decl: fn, result: result, iterator: iterator}
	pre, post := g.contracts(fn)
	if !iterator {
		st.ensures = post
	}
	outer := g.fn
	g.fn = st
	g.checks(pre, "Precondition", "")
	g.stmts(fn.Body)
	if len(st.ensures) > 0 && st.result == "" && fallsThrough(fn.Body) {
		g.postconditions("")
	}
	g.fn = outer
	g.close("")
}

// contracts collects the checks a body must run: its own, or the ones it
// inherits verbatim when it declares none.
func (g *generator) contracts(fn *ast.FuncDecl) (pre, post []guard) {
	for _, c := range fn.Requires {
		pre = append(pre, guard{cond: c.Cond, label: c.Message})
	}
	for _, c := range fn.Ensures {
		post = append(post, guard{cond: c.Cond, label: c.Message})
	}
	for _, rec := range g.opts.Contracts.For(fn) {
		origin := rec.Interface + "." + rec.Origin.Name
		if rec.InheritsRequires {
			for _, c := range rec.Requires {
				pre = append(pre, guard{cond: c.Cond, rename: rec.Rename, label: c.Message, origin: origin})
			}
		}
		if rec.InheritsEnsures {
			for _, c := range rec.Ensures {
				post = append(post, guard{cond: c.Cond, rename: rec.Rename, label: c.Message, origin: origin})
			}
		}
	}
	return pre, post
}

// checks writes one runtime check per guard, announcing each inherited
// group with a comment naming its origin.
func (g *generator) checks(list []guard, what, result string) {
	origin := ""
	for _, gd := range list {
		if gd.origin != "" && gd.origin != origin {
			g.emitLinef("// %ss inherited from %s", what, gd.origin)
		}
		origin = gd.origin
		cond := g.withContract(gd.rename, result, func() string { return g.expr(gd.cond) })
		msg := gd.label
		if msg == "" {
			msg = g.withContract(gd.rename, "", func() string { return g.expr(gd.cond) })
		}
		g.emitLinef("if (!(%s)) throw new ContractViolationException(%s);", cond, csString(what+" failed: "+msg))
	}
}

// postconditions checks every postcondition, reading result from name.
func (g *generator) postconditions(result string) {
	g.checks(g.fn.ensures, "Postcondition", result)
}

// withContract evaluates f with parameter renames and the result binding
// of a contract in effect.
func (g *generator) withContract(rename map[string]string, result string, f func() string) string {
	st := g.fn
	if st == nil {
		st = &funcState{}
		g.fn = st
		defer func() { g.fn = nil }()
	}
	prevRename, prevResult := st.rename, st.resultName
	st.rename, st.resultName = rename, result
	defer func() { st.rename, st.resultName = prevRename, prevResult }()
	return f()
}

func (g *generator) effectRemarks(fn *ast.FuncDecl) {
	set := effects.Declared(fn.Effects)
	if set.IsEmpty() {
		return
	}
	g.emitLinef("/// <remarks>Effects: %s (%s).</remarks>", set.Describe(), set.String())
}

// contractComments documents contracts on signatures without a body, where
// they cannot be checked.
func (g *generator) contractComments(fn *ast.FuncDecl) {
	for _, c := range fn.Requires {
		g.emitLinef("// requires %s", g.expr(c.Cond))
	}
	for _, c := range fn.Ensures {
		g.emitLinef("// ensures %s", g.withContract(nil, "result", func() string { return g.expr(c.Cond) }))
	}
}

// fallsThrough reports whether control can reach the end of a body.
func fallsThrough(body []ast.Stmt) bool {
	if len(body) == 0 {
		return true
	}
	switch body[len(body)-1].(type) {
	case *ast.ReturnStmt, *ast.ThrowStmt, *ast.RethrowStmt:
		return false
	}
	return true
}

func (g *generator) resolve(t *ast.TypeRef) types.TypeID {
	if t == nil || g.opts.Sema == nil || g.opts.Sema.Types == nil {
		return types.NoTypeID
	}
	if id, ok := g.opts.Sema.Types.Primitive(t.Name); ok && t.Elem == nil {
		return id
	}
	return types.NoTypeID
}
