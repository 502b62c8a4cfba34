package format

import (
	"strings"
	"unicode/utf8"

	"sigil/internal/ast"
)

// Expr renders an expression as canonical source.
func Expr(e ast.Expr) string {
	return ExprWith(e, nil)
}

// ExprWith renders e, spelling every plain name through name. A nil name
// keeps names as written.
func ExprWith(e ast.Expr, name func(*ast.Name) string) string {
	ep := exprPrinter{name: name}
	ep.expr(e)
	return ep.b.String()
}

// Type renders a type reference; nil is void.
func Type(t *ast.TypeRef) string {
	return t.String()
}

// Pattern renders a match pattern.
func Pattern(p ast.Pattern) string {
	ep := exprPrinter{}
	ep.pattern(p)
	return ep.b.String()
}

type exprPrinter struct {
	b    strings.Builder
	name func(*ast.Name) string
}

func (ep *exprPrinter) form(head string, parts ...func()) {
	ep.b.WriteByte('(')
	ep.b.WriteString(head)
	for _, part := range parts {
		ep.b.WriteByte(' ')
		part()
	}
	ep.b.WriteByte(')')
}

func (ep *exprPrinter) sub(e ast.Expr) func() {
	return func() { ep.expr(e) }
}

func (ep *exprPrinter) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Literal:
		ep.b.WriteString(literal(e))
	case *ast.Name:
		if ep.name != nil {
			ep.b.WriteString(ep.name(e))
		} else {
			ep.b.WriteString(e.Name)
		}
	case *ast.This:
		ep.b.WriteString("this")
	case *ast.MemberExpr:
		ep.expr(e.X)
		ep.b.WriteByte('.')
		ep.b.WriteString(e.Name)
	case *ast.Binary:
		ep.form(string(e.Op), ep.sub(e.Left), ep.sub(e.Right))
	case *ast.Unary:
		ep.form(string(e.Op), ep.sub(e.X))
	case *ast.Call:
		ep.b.WriteByte('(')
		ep.expr(e.Callee)
		ep.args(e.Args)
		ep.b.WriteByte(')')
	case *ast.NewExpr:
		ep.b.WriteString("(new ")
		ep.b.WriteString(Type(e.Type))
		ep.args(e.Args)
		for _, fi := range e.Inits {
			ep.b.WriteByte(' ')
			ep.b.WriteString(fi.Name)
			ep.b.WriteByte('=')
			ep.expr(fi.Value)
		}
		ep.b.WriteByte(')')
	case *ast.ArrayExpr:
		ep.b.WriteString("(array ")
		ep.b.WriteString(Type(e.Elem))
		if e.Size != nil && e.Elems == nil {
			ep.b.WriteByte(' ')
			ep.expr(e.Size)
		} else {
			ep.b.WriteString(" [")
			for i, el := range e.Elems {
				if i > 0 {
					ep.b.WriteByte(' ')
				}
				ep.expr(el)
			}
			ep.b.WriteByte(']')
		}
		ep.b.WriteByte(')')
	case *ast.VariantExpr:
		if e.Kind == ast.VariantNone {
			ep.b.WriteString("none")
			return
		}
		ep.form(e.Kind.String(), ep.sub(e.X))
	case *ast.Lambda:
		ep.b.WriteString("(lambda [")
		for i, p := range e.Params {
			if i > 0 {
				ep.b.WriteByte(' ')
			}
			ep.b.WriteString(p.Name)
			if p.Type != nil {
				ep.b.WriteByte(':')
				ep.b.WriteString(Type(p.Type))
			}
		}
		ep.b.WriteString("] ")
		ep.expr(e.Body)
		ep.b.WriteByte(')')
	case *ast.MatchExpr:
		ep.b.WriteString("(match ")
		ep.expr(e.Subject)
		for _, arm := range e.Arms {
			ep.b.WriteString(" [")
			ep.pattern(arm.Pattern)
			if arm.Guard != nil {
				ep.b.WriteString(" when ")
				ep.expr(arm.Guard)
			}
			ep.b.WriteString(" -> ")
			ep.expr(arm.Value)
			ep.b.WriteByte(']')
		}
		ep.b.WriteByte(')')
	case *ast.CastExpr:
		ep.b.WriteString("(cast ")
		ep.b.WriteString(Type(e.Type))
		ep.b.WriteByte(' ')
		ep.expr(e.X)
		ep.b.WriteByte(')')
	case *ast.AwaitExpr:
		ep.form("await", ep.sub(e.X))
	default:
		ep.b.WriteByte('_')
	}
}

func (ep *exprPrinter) args(args []ast.Expr) {
	for _, a := range args {
		ep.b.WriteByte(' ')
		ep.expr(a)
	}
}

func (ep *exprPrinter) pattern(p ast.Pattern) {
	switch p := p.(type) {
	case *ast.BindPat:
		ep.b.WriteString(p.Name)
	case *ast.LiteralPat:
		ep.b.WriteString(literal(p.Value))
	case *ast.RelPat:
		ep.b.WriteString(string(p.Op))
		ep.b.WriteByte(' ')
		ep.b.WriteString(literal(p.Value))
	case *ast.VariantPat:
		if p.Kind == ast.VariantNone {
			ep.b.WriteString("none")
			return
		}
		ep.b.WriteByte('(')
		ep.b.WriteString(p.Kind.String())
		ep.b.WriteByte(' ')
		ep.pattern(p.Inner)
		ep.b.WriteByte(')')
	case *ast.EnumPat:
		ep.b.WriteString(p.Type)
		ep.b.WriteByte('.')
		ep.b.WriteString(p.Member)
	default:
		ep.b.WriteByte('_')
	}
}

// literal spells a literal so that it lexes back to the same kind, value
// and tag.
func literal(l *ast.Literal) string {
	if l == nil {
		return "_"
	}
	switch l.Kind {
	case ast.LitString:
		if l.Tagged {
			return "STR:" + quote(l.Value)
		}
		return quote(l.Value)
	case ast.LitDec:
		return "DEC:" + l.Value
	case ast.LitFloat:
		if l.Tagged || !strings.ContainsAny(l.Value, ".eE") {
			return "FLOAT:" + l.Value
		}
	}
	if l.Tagged {
		return l.Kind.Tag() + ":" + l.Value
	}
	return l.Value
}

// quote writes a string literal using only the escapes the lexer decodes.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == 0:
			b.WriteString(`\0`)
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}

