package codegen

import (
	"fmt"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

var csPrimitives = map[string]string{
	"void": "void",
	"bool": "bool",
	"str":  "string",
	"i8":   "sbyte",
	"i16":  "short",
	"i32":  "int",
	"i64":  "long",
	"u8":   "byte",
	"u16":  "ushort",
	"u32":  "uint",
	"u64":  "ulong",
	"f32":  "float",
	"f64":  "double",
	"dec":  "decimal",
}

// typeRef spells a written type in C#.
func (g *generator) typeRef(t *ast.TypeRef) string {
	if t == nil {
		return "void"
	}
	if t.Elem != nil {
		return g.typeRef(t.Elem) + "[]"
	}
	if c, ok := types.CanonicalPrimitive(t.Name); ok && len(t.Args) == 0 {
		return csPrimitives[c]
	}
	name := t.Name
	if types.IsOptionName(name) {
		name = "Option"
	}
	if len(t.Args) == 0 {
		return name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = g.typeRef(a)
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

// typeID spells a checked type in C#. Types with no C# spelling become
// object.
func (g *generator) typeID(id types.TypeID) string {
	if g.opts.Sema == nil || g.opts.Sema.Types == nil {
		return "object"
	}
	in := g.opts.Sema.Types
	t, ok := in.Lookup(id)
	if !ok {
		return "object"
	}
	switch t.Kind {
	case types.KindVoid:
		return "void"
	case types.KindBool:
		return "bool"
	case types.KindString:
		return "string"
	case types.KindInt:
		return intName(true, t.Width)
	case types.KindUint:
		return intName(false, t.Width)
	case types.KindFloat:
		if t.Width == types.Width32 {
			return "float"
		}
		return "double"
	case types.KindDecimal:
		return "decimal"
	case types.KindOption:
		return "Option<" + g.typeID(t.Elem) + ">"
	case types.KindResult:
		return "Result<" + g.typeID(t.Elem) + ", " + g.typeID(t.Err) + ">"
	case types.KindArray:
		return g.typeID(t.Elem) + "[]"
	case types.KindNamed:
		if info, ok := in.NamedInfo(id); ok {
			return info.Name
		}
	case types.KindEnum:
		if info, ok := in.EnumInfo(id); ok {
			return info.Name
		}
	case types.KindExternal:
		if info, ok := in.ExternalInfo(id); ok {
			if len(info.Args) == 0 {
				return info.Name
			}
			args := make([]string, len(info.Args))
			for i, a := range info.Args {
				args[i] = g.typeID(a)
			}
			return info.Name + "<" + strings.Join(args, ", ") + ">"
		}
	}
	return "object"
}

func intName(signed bool, w types.Width) string {
	switch w {
	case types.Width8:
		if signed {
			return "sbyte"
		}
		return "byte"
	case types.Width16:
		if signed {
			return "short"
		}
		return "ushort"
	case types.Width64:
		if signed {
			return "long"
		}
		return "ulong"
	}
	if signed {
		return "int"
	}
	return "uint"
}

func (g *generator) kindOf(id types.TypeID) types.Kind {
	if g.opts.Sema == nil || g.opts.Sema.Types == nil || id == types.NoTypeID {
		return types.KindInvalid
	}
	return g.opts.Sema.Types.KindOf(id)
}

func (g *generator) typeOf(n ast.Node) types.TypeID {
	if g.opts.Sema == nil {
		return types.NoTypeID
	}
	return g.opts.Sema.TypeOf(n)
}

// exprTyped writes e where a value of type want is expected; literals take
// their suffix from want.
func (g *generator) exprTyped(e ast.Expr, want types.TypeID) string {
	if lit, ok := e.(*ast.Literal); ok && want != types.NoTypeID {
		return g.literal(lit, want)
	}
	return g.expr(e)
}

func (g *generator) expr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Literal:
		return g.literal(e, types.NoTypeID)
	case *ast.Name:
		return g.name(e)
	case *ast.This:
		if g.self != "" {
			return g.self
		}
		return "this"
	case *ast.MemberExpr:
		return g.operand(e.X) + "." + e.Name
	case *ast.Binary:
		return g.operand(e.Left) + " " + string(e.Op) + " " + g.operand(e.Right)
	case *ast.Unary:
		if e.Op == ast.OpNot {
			return "!" + g.operand(e.X)
		}
		return "-" + g.operand(e.X)
	case *ast.Call:
		return g.expr(e.Callee) + "(" + g.exprList(e.Args) + ")"
	case *ast.NewExpr:
		s := "new " + g.typeRef(e.Type) + "(" + g.exprList(e.Args) + ")"
		if len(e.Inits) > 0 {
			inits := make([]string, len(e.Inits))
			for i, in := range e.Inits {
				inits[i] = in.Name + " = " + g.expr(in.Value)
			}
			s += " { " + strings.Join(inits, ", ") + " }"
		}
		return s
	case *ast.ArrayExpr:
		elem := g.typeRef(e.Elem)
		switch {
		case e.Size != nil && e.Elems == nil:
			return "new " + elem + "[" + g.expr(e.Size) + "]"
		case len(e.Elems) == 0:
			return "Array.Empty<" + elem + ">()"
		}
		return "new " + elem + "[] { " + g.exprList(e.Elems) + " }"
	case *ast.VariantExpr:
		return g.variant(e)
	case *ast.Lambda:
		return g.lambda(e)
	case *ast.MatchExpr:
		arms := make([]string, len(e.Arms))
		for i, a := range e.Arms {
			arm := g.pattern(a.Pattern)
			if a.Guard != nil {
				arm += " when " + g.expr(a.Guard)
			}
			arms[i] = arm + " => " + g.expr(a.Value)
		}
		return g.operand(e.Subject) + " switch { " + strings.Join(arms, ", ") + " }"
	case *ast.CastExpr:
		return "(" + g.typeRef(e.Type) + ")" + g.operand(e.X)
	case *ast.AwaitExpr:
		return "await " + g.operand(e.X)
	}
	return "default"
}

// operand parenthesizes compound expressions used inside another one.
func (g *generator) operand(e ast.Expr) string {
	s := g.expr(e)
	switch e.(type) {
	case *ast.Binary, *ast.MatchExpr, *ast.Lambda, *ast.CastExpr, *ast.AwaitExpr, *ast.Unary:
		return "(" + s + ")"
	}
	return s
}

func (g *generator) exprList(list []ast.Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = g.expr(e)
	}
	return strings.Join(parts, ", ")
}

func (g *generator) name(n *ast.Name) string {
	if st := g.fn; st != nil {
		if n.Name == "result" && st.resultName != "" {
			return st.resultName
		}
		if r, ok := st.rename[n.Name]; ok {
			return r
		}
	}
	if !g.inModuleClass && g.opts.Symbols != nil {
		if sym, ok := g.opts.Symbols.Ref(n); ok && sym.Kind == symbols.SymbolFunction {
			return ModuleClass(g.mod.Name) + "." + n.Name
		}
	}
	return n.Name
}

func (g *generator) variant(e *ast.VariantExpr) string {
	id := g.typeOf(e)
	known := g.kindOf(id) == types.KindOption || g.kindOf(id) == types.KindResult
	holder := "Option"
	if e.Kind == ast.VariantOk || e.Kind == ast.VariantErr {
		holder = "Result"
	}
	if known {
		holder = g.typeID(id)
	}
	switch e.Kind {
	case ast.VariantNone:
		if !known {
			return "default"
		}
		return holder + ".None"
	case ast.VariantSome:
		return holder + ".Some(" + g.expr(e.X) + ")"
	case ast.VariantOk:
		return holder + ".Ok(" + g.expr(e.X) + ")"
	}
	return holder + ".Err(" + g.expr(e.X) + ")"
}

func (g *generator) lambda(l *ast.Lambda) string {
	typed := len(l.Params) > 0
	for _, p := range l.Params {
		if p.Type == nil {
			typed = false
		}
	}
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		if typed {
			params[i] = g.typeRef(p.Type) + " " + p.Name
		} else {
			params[i] = p.Name
		}
	}
	return "(" + strings.Join(params, ", ") + ") => " + g.expr(l.Body)
}

// literal writes a literal in exact textual form. ctx, or the checked type
// of the literal when ctx is unset, decides the suffix.
func (g *generator) literal(l *ast.Literal, ctx types.TypeID) string {
	if ctx == types.NoTypeID {
		ctx = g.typeOf(l)
	}
	kind := g.kindOf(ctx)
	single := kind == types.KindFloat && g.opts.Sema.Types.MustLookup(ctx).Width == types.Width32
	switch l.Kind {
	case ast.LitString:
		return csString(l.Value)
	case ast.LitBool:
		return l.Value
	case ast.LitDec:
		return l.Value + "m"
	case ast.LitInt:
		switch {
		case kind == types.KindDecimal:
			return l.Value + "m"
		case single:
			return l.Value + "f"
		}
		return l.Value
	case ast.LitFloat:
		text := l.Value
		if l.Tagged && !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		switch {
		case kind == types.KindDecimal && !l.Tagged:
			return text + "m"
		case single:
			return text + "f"
		}
		return text
	}
	return l.Value
}

// csString quotes s as a C# regular string literal.
func csString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// pattern spells a match pattern as a C# pattern.
func (g *generator) pattern(p ast.Pattern) string {
	switch p := p.(type) {
	case *ast.WildcardPat:
		return "_"
	case *ast.BindPat:
		return "var " + p.Name
	case *ast.LiteralPat:
		return g.patternLiteral(p, p.Value)
	case *ast.RelPat:
		return string(p.Op) + " " + g.patternLiteral(p, p.Value)
	case *ast.EnumPat:
		return p.Type + "." + p.Member
	case *ast.VariantPat:
		var tag, field string
		switch p.Kind {
		case ast.VariantNone:
			return "{ IsSome: false }"
		case ast.VariantSome:
			tag, field = "IsSome: true", "Value"
		case ast.VariantOk:
			tag, field = "IsOk: true", "Value"
		default:
			tag, field = "IsOk: false", "Error"
		}
		if p.Inner == nil {
			return "{ " + tag + " }"
		}
		if _, ok := p.Inner.(*ast.WildcardPat); ok {
			return "{ " + tag + " }"
		}
		return "{ " + tag + ", " + field + ": " + g.pattern(p.Inner) + " }"
	}
	return "_"
}

func (g *generator) patternLiteral(p ast.Pattern, l *ast.Literal) string {
	ctx := g.typeOf(l)
	if ctx == types.NoTypeID {
		ctx = g.typeOf(p)
	}
	return g.literal(l, ctx)
}
