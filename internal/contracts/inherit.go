package contracts

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/types"
)

// Violation is a set of substitution problems found on one record.
type Violation uint8

const (
	StrongerPrecondition Violation = 1 << iota
	WeakerPostcondition
)

func (v Violation) Has(flag Violation) bool { return v&flag != 0 }

// InheritanceRecord relates one implementing method to the contracts it
// inherits from an interface declared in the unit, or from the base-class
// method it overrides.
type InheritanceRecord struct {
	Class  string
	Method *ast.FuncDecl
	// Interface names the contract's origin: an interface or a base class.
	Interface string
	Origin    *ast.FuncDecl
	Requires  []*ast.Contract
	Ensures   []*ast.Contract
	// InheritsRequires and InheritsEnsures are set when the method declares
	// no list of its own, so the inherited one applies verbatim.
	InheritsRequires bool
	InheritsEnsures  bool
	// Rename maps the origin's parameter names to the method's.
	Rename     map[string]string
	Violations Violation
}

func (c *checker) inheritance(mod *ast.Module) {
	classes := map[string]*ast.ClassDecl{}
	interfaces := map[string]*ast.InterfaceDecl{}
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.ClassDecl:
			classes[d.Name] = d
		case *ast.InterfaceDecl:
			interfaces[d.Name] = d
		}
	}
	for _, d := range mod.Decls {
		cls, ok := d.(*ast.ClassDecl)
		if !ok {
			continue
		}
		for _, impl := range cls.Implements {
			ifc, local := interfaces[impl.Name]
			if !local {
				continue
			}
			c.implementInterface(cls, impl, ifc)
		}
		for _, m := range cls.Methods() {
			if !m.Modifiers.Has(ast.ModOverride) {
				continue
			}
			if base, origin := overridden(classes, cls, m.Name); origin != nil {
				c.relate(cls, m, base.Name, origin)
			}
		}
	}
}

func (c *checker) implementInterface(cls *ast.ClassDecl, impl *ast.Implements, ifc *ast.InterfaceDecl) {
	clsSym, ok := c.table.DeclOf(cls)
	if !ok {
		return
	}
	for _, want := range ifc.Methods {
		sym, found := c.table.Member(clsSym, want.Name)
		if !found {
			if c.table.HasOpenMembers(clsSym) {
				continue
			}
			diag.ReportError(c.reporter, diag.ConMissingInterfaceMethod, impl.Span,
				fmt.Sprintf("class '%s' does not implement '%s.%s'", cls.Name, ifc.Name, want.Name)).
				WithNote(want.Span, "interface method declared here").
				Emit()
			continue
		}
		fn, isFunc := sym.Func()
		if !isFunc || !declares(cls, fn) {
			continue
		}
		c.relate(cls, fn, ifc.Name, want)
	}
}

// overridden finds the nearest base-class method named name, following
// base classes declared in the unit.
func overridden(classes map[string]*ast.ClassDecl, cls *ast.ClassDecl, name string) (*ast.ClassDecl, *ast.FuncDecl) {
	seen := map[string]bool{cls.Name: true}
	for base := classes[cls.Base]; base != nil && !seen[base.Name]; base = classes[base.Base] {
		seen[base.Name] = true
		for _, m := range base.Methods() {
			if m.Name == name {
				return base, m
			}
		}
	}
	return nil, nil
}

func declares(cls *ast.ClassDecl, fn *ast.FuncDecl) bool {
	for _, m := range cls.Methods() {
		if m == fn {
			return true
		}
	}
	return false
}

// relate compares fn with the origin method it implements or overrides.
func (c *checker) relate(cls *ast.ClassDecl, fn *ast.FuncDecl, originName string, origin *ast.FuncDecl) {
	if !c.sameSignature(cls, fn, originName, origin) {
		return
	}
	if len(origin.Requires) == 0 && len(origin.Ensures) == 0 {
		return
	}
	rec := &InheritanceRecord{
		Class:     cls.Name,
		Method:    fn,
		Interface: originName,
		Origin:    origin,
		Requires:  origin.Requires,
		Ensures:   origin.Ensures,
		Rename:    renaming(origin, fn),
	}
	qualified := cls.Name + "." + fn.Name

	if len(origin.Requires) > 0 {
		if len(fn.Requires) == 0 {
			rec.InheritsRequires = true
		} else if c.compare(fn.Requires, nil, origin.Requires, rec.Rename) == Stronger {
			rec.Violations |= StrongerPrecondition
			diag.ReportError(c.reporter, diag.ConStrongerPrecondition, fn.Requires[0].Span,
				fmt.Sprintf("precondition of '%s' is stronger than the one inherited from '%s'", qualified, originName)).
				WithNote(origin.Requires[0].Span, "inherited precondition declared here").
				Emit()
		}
	}
	if len(origin.Ensures) > 0 {
		if len(fn.Ensures) == 0 {
			rec.InheritsEnsures = true
		} else if c.compare(fn.Ensures, nil, origin.Ensures, rec.Rename) == Weaker {
			rec.Violations |= WeakerPostcondition
			diag.ReportWarning(c.reporter, diag.ConWeakerPostcondition, fn.Ensures[0].Span,
				fmt.Sprintf("postcondition of '%s' is weaker than the one inherited from '%s'", qualified, originName)).
				WithNote(origin.Ensures[0].Span, "inherited postcondition declared here").
				Emit()
		}
	}
	if rec.InheritsRequires || rec.InheritsEnsures {
		diag.ReportInfo(c.reporter, diag.ConInherited, fn.Span,
			fmt.Sprintf("'%s' inherits %d precondition(s) and %d postcondition(s) from '%s'",
				qualified, inheritedCount(rec.InheritsRequires, rec.Requires), inheritedCount(rec.InheritsEnsures, rec.Ensures), originName)).
			Emit()
	}
	c.res.add(rec)
}

func inheritedCount(inherits bool, list []*ast.Contract) int {
	if !inherits {
		return 0
	}
	return len(list)
}

func renaming(origin, fn *ast.FuncDecl) map[string]string {
	out := make(map[string]string, len(origin.Params))
	for i, p := range origin.Params {
		if i < len(fn.Params) && p.Name != fn.Params[i].Name {
			out[p.Name] = fn.Params[i].Name
		}
	}
	return out
}

func (c *checker) compare(own []*ast.Contract, ownRename map[string]string, inherited []*ast.Contract, rename map[string]string) Strength {
	return Compare(
		Side{Conds: conditions(own), Rename: ownRename, IsInt: c.isInt},
		Side{Conds: conditions(inherited), Rename: rename, IsInt: c.isInt},
	)
}

func conditions(list []*ast.Contract) []ast.Expr {
	out := make([]ast.Expr, 0, len(list))
	for _, ct := range list {
		out = append(out, ct.Cond)
	}
	return out
}

func (c *checker) isInt(e ast.Expr) bool {
	if c.sema == nil {
		return false
	}
	return c.sema.Types.KindOf(c.sema.TypeOf(e)).IsInteger()
}

// sameSignature reports SignatureMismatch when fn cannot stand in for origin.
func (c *checker) sameSignature(cls *ast.ClassDecl, fn *ast.FuncDecl, originName string, origin *ast.FuncDecl) bool {
	if c.sema == nil {
		return len(fn.Params) == len(origin.Params)
	}
	want, okW := c.sema.Signature(c.table, origin)
	got, okG := c.sema.Signature(c.table, fn)
	if !okW || !okG {
		return true
	}
	if len(want.Params) == len(got.Params) && c.equal(want.Result, got.Result) {
		match := true
		for i := range want.Params {
			if !c.equal(want.Params[i], got.Params[i]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	diag.ReportError(c.reporter, diag.ConSignatureMismatch, fn.Span,
		fmt.Sprintf("'%s.%s' does not match '%s.%s': expected %s, got %s",
			cls.Name, fn.Name, originName, origin.Name, c.funcLabel(want), c.funcLabel(got))).
		WithNote(origin.Span, "declared here").
		Emit()
	return false
}

func (c *checker) equal(a, b types.TypeID) bool {
	return c.sema.Unifier.Equal(a, b)
}

func (c *checker) funcLabel(f types.FuncInfo) string {
	return c.sema.Types.String(c.sema.Types.Func(f.Params, f.Result, f.Variadic))
}
