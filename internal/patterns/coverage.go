package patterns

import (
	"fmt"
	"math/big"
	"strconv"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/types"
)

// checkShape reports a pattern that can never match a value of type t.
// Types the checker cannot see into accept every shape.
func (c *checker) checkShape(p ast.Pattern, t types.TypeID) bool {
	if c.open(t) {
		return true
	}
	tt := c.lookup(t)
	ok := true
	switch p := p.(type) {
	case *ast.LiteralPat:
		ok = p.Value != nil && literalFits(p.Value.Kind, tt.Kind)
	case *ast.RelPat:
		ok = tt.Kind.IsNumeric()
	case *ast.VariantPat:
		switch {
		case tt.Kind == types.KindOption && (p.Kind == ast.VariantSome || p.Kind == ast.VariantNone):
			if p.Inner != nil {
				return c.checkShape(p.Inner, tt.Elem)
			}
		case tt.Kind == types.KindResult && p.Kind == ast.VariantOk:
			return c.checkShape(p.Inner, tt.Elem)
		case tt.Kind == types.KindResult && p.Kind == ast.VariantErr:
			return c.checkShape(p.Inner, tt.Err)
		default:
			ok = false
		}
	case *ast.EnumPat:
		info, isEnum := c.enumInfo(t)
		ok = isEnum && info.Name == p.Type
	}
	if !ok {
		diag.ReportError(c.reporter, diag.PatTypeMismatch, p.NodeSpan(),
			fmt.Sprintf("pattern %s cannot match a value of type %s", describe(p), c.typeLabel(t))).Emit()
	}
	return ok
}

func literalFits(lit ast.LitKind, k types.Kind) bool {
	switch lit {
	case ast.LitBool:
		return k == types.KindBool
	case ast.LitString:
		return k == types.KindString
	case ast.LitInt:
		return k.IsNumeric()
	}
	return k == types.KindFloat || k == types.KindDecimal
}

// covers reports whether the unguarded patterns in earlier already match
// every value p matches.
func (c *checker) covers(earlier []ast.Pattern, p ast.Pattern, t types.TypeID) bool {
	if len(earlier) > 0 && len(c.missing(earlier, t)) == 0 {
		return true
	}
	switch p := p.(type) {
	case *ast.LiteralPat:
		for _, e := range earlier {
			switch e := e.(type) {
			case *ast.LiteralPat:
				if sameLiteral(e.Value, p.Value) {
					return true
				}
			case *ast.RelPat:
				if relContains(e, p.Value) {
					return true
				}
			}
		}
	case *ast.RelPat:
		for _, e := range earlier {
			if r, ok := e.(*ast.RelPat); ok && r.Op == p.Op && sameLiteral(r.Value, p.Value) {
				return true
			}
		}
	case *ast.EnumPat:
		for _, e := range earlier {
			if ep, ok := e.(*ast.EnumPat); ok && ep.Member == p.Member {
				return true
			}
		}
	case *ast.VariantPat:
		var inners []ast.Pattern
		for _, e := range earlier {
			v, ok := e.(*ast.VariantPat)
			if !ok || v.Kind != p.Kind {
				continue
			}
			if p.Inner == nil {
				return true
			}
			if v.Inner != nil {
				inners = append(inners, v.Inner)
			}
		}
		if p.Inner != nil && len(inners) > 0 {
			return c.covers(inners, p.Inner, c.payload(t, p.Kind))
		}
	}
	return false
}

// payload returns the type carried by a variant of t, NoTypeID when unknown.
func (c *checker) payload(t types.TypeID, kind ast.VariantKind) types.TypeID {
	tt := c.lookup(t)
	switch {
	case tt.Kind == types.KindOption && kind == ast.VariantSome,
		tt.Kind == types.KindResult && kind == ast.VariantOk:
		return tt.Elem
	case tt.Kind == types.KindResult && kind == ast.VariantErr:
		return tt.Err
	}
	return types.NoTypeID
}

// missing lists source spellings of values that pats leave unmatched; nil
// means pats are exhaustive for t.
func (c *checker) missing(pats []ast.Pattern, t types.TypeID) []string {
	for _, p := range pats {
		if ast.IsCatchAll(p) {
			return nil
		}
	}
	switch c.shape(pats, t) {
	case types.KindBool:
		var out []string
		for _, v := range []string{"true", "false"} {
			if !hasBool(pats, v) {
				out = append(out, v)
			}
		}
		return out
	case types.KindOption:
		return c.missingVariants(pats, t, ast.VariantSome, ast.VariantNone)
	case types.KindResult:
		return c.missingVariants(pats, t, ast.VariantOk, ast.VariantErr)
	case types.KindEnum:
		info, _ := c.enumInfo(t)
		seen := map[string]bool{}
		for _, p := range pats {
			if ep, ok := p.(*ast.EnumPat); ok {
				seen[ep.Member] = true
			}
		}
		var out []string
		for _, m := range info.Members {
			if !seen[m] {
				out = append(out, info.Name+"."+m)
			}
		}
		return out
	}
	return []string{"_"}
}

// shape decides how to enumerate the values of t. A scrutinee whose type
// is unknown takes its shape from the variant patterns written against it.
func (c *checker) shape(pats []ast.Pattern, t types.TypeID) types.Kind {
	tt := c.lookup(t)
	switch tt.Kind {
	case types.KindBool, types.KindOption, types.KindResult:
		return tt.Kind
	case types.KindEnum:
		if _, ok := c.enumInfo(t); ok {
			return types.KindEnum
		}
		return types.KindInvalid
	case types.KindVar:
		for _, p := range pats {
			if v, ok := p.(*ast.VariantPat); ok {
				if v.Kind == ast.VariantSome || v.Kind == ast.VariantNone {
					return types.KindOption
				}
				return types.KindResult
			}
		}
	}
	return types.KindInvalid
}

func (c *checker) missingVariants(pats []ast.Pattern, t types.TypeID, kinds ...ast.VariantKind) []string {
	var out []string
	for _, k := range kinds {
		var inners []ast.Pattern
		present := false
		for _, p := range pats {
			if v, ok := p.(*ast.VariantPat); ok && v.Kind == k {
				present = true
				if v.Inner != nil {
					inners = append(inners, v.Inner)
				}
			}
		}
		switch {
		case k == ast.VariantNone:
			if !present {
				out = append(out, "none")
			}
		case len(inners) == 0:
			out = append(out, "("+k.String()+" _)")
		default:
			for _, m := range c.missing(inners, c.payload(t, k)) {
				out = append(out, "("+k.String()+" "+m+")")
			}
		}
	}
	return out
}

func hasBool(pats []ast.Pattern, v string) bool {
	for _, p := range pats {
		if lp, ok := p.(*ast.LiteralPat); ok && lp.Value != nil && lp.Value.Kind == ast.LitBool && lp.Value.Value == v {
			return true
		}
	}
	return false
}

func sameLiteral(a, b *ast.Literal) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Kind == ast.LitString || b.Kind == ast.LitString || a.Kind == ast.LitBool || b.Kind == ast.LitBool {
		return a.Kind == b.Kind && a.Value == b.Value
	}
	x, okX := new(big.Rat).SetString(a.Value)
	y, okY := new(big.Rat).SetString(b.Value)
	return okX && okY && x.Cmp(y) == 0
}

// relContains reports whether the relational pattern r matches the numeric
// literal v.
func relContains(r *ast.RelPat, v *ast.Literal) bool {
	if r.Value == nil || v == nil || v.Kind == ast.LitString || v.Kind == ast.LitBool {
		return false
	}
	x, okX := new(big.Rat).SetString(v.Value)
	bound, okB := new(big.Rat).SetString(r.Value.Value)
	if !okX || !okB {
		return false
	}
	c := x.Cmp(bound)
	switch r.Op {
	case ast.OpLt:
		return c < 0
	case ast.OpLe:
		return c <= 0
	case ast.OpGt:
		return c > 0
	case ast.OpGe:
		return c >= 0
	case ast.OpEq:
		return c == 0
	case ast.OpNe:
		return c != 0
	}
	return false
}

func describe(p ast.Pattern) string {
	switch p := p.(type) {
	case *ast.WildcardPat:
		return "_"
	case *ast.BindPat:
		return p.Name
	case *ast.LiteralPat:
		if p.Value == nil {
			return "literal"
		}
		if p.Value.Kind == ast.LitString {
			return strconv.Quote(p.Value.Value)
		}
		return p.Value.Value
	case *ast.RelPat:
		if p.Value == nil {
			return string(p.Op)
		}
		return string(p.Op) + " " + p.Value.Value
	case *ast.VariantPat:
		if p.Inner == nil {
			return p.Kind.String()
		}
		return "(" + p.Kind.String() + " " + describe(p.Inner) + ")"
	case *ast.EnumPat:
		return p.Type + "." + p.Member
	}
	return "pattern"
}
