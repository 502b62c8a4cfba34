package contracts

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/sema"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

// Options configures Check. Symbols and Sema must come from the same module.
type Options struct {
	Reporter diag.Reporter
	Symbols  *symbols.Table
	Sema     *sema.Result
}

// Result carries the inheritance records computed for the module, in
// declaration order.
type Result struct {
	Records  []*InheritanceRecord
	byMethod map[ast.NodeID][]*InheritanceRecord
}

// For returns the records of one implementing method.
func (r *Result) For(fn *ast.FuncDecl) []*InheritanceRecord {
	if r == nil || fn == nil {
		return nil
	}
	return r.byMethod[fn.ID]
}

func (r *Result) add(rec *InheritanceRecord) {
	r.Records = append(r.Records, rec)
	r.byMethod[rec.Method.ID] = append(r.byMethod[rec.Method.ID], rec)
}

// Check validates the contracts of every function in mod, then relates
// implementations and overrides to the contracts they inherit.
func Check(mod *ast.Module, opts Options) *Result {
	res := &Result{byMethod: make(map[ast.NodeID][]*InheritanceRecord)}
	if mod == nil || opts.Symbols == nil {
		return res
	}
	c := &checker{
		reporter: opts.Reporter,
		table:    opts.Symbols,
		sema:     opts.Sema,
		res:      res,
	}
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			c.checkFunc(d)
		case *ast.ClassDecl:
			for _, m := range d.Methods() {
				c.checkFunc(m)
			}
		case *ast.InterfaceDecl:
			for _, m := range d.Methods {
				c.checkFunc(m)
			}
		case *ast.ExtensionDecl:
			for _, m := range d.Methods {
				c.checkFunc(m)
			}
		}
	}
	c.inheritance(mod)
	return res
}

type checker struct {
	reporter diag.Reporter
	table    *symbols.Table
	sema     *sema.Result
	res      *Result
}

func (c *checker) checkFunc(fn *ast.FuncDecl) {
	for _, ct := range fn.Requires {
		c.checkContract(fn, ct, false)
	}
	for _, ct := range fn.Ensures {
		c.checkContract(fn, ct, true)
	}
}

func (c *checker) checkContract(fn *ast.FuncDecl, ct *ast.Contract, post bool) {
	ast.Inspect(ct.Cond, func(n ast.Node) bool {
		name, ok := n.(*ast.Name)
		if !ok {
			return true
		}
		if _, unresolved := c.table.Unresolved[name.ID]; !unresolved {
			return true
		}
		switch {
		case name.Name == "result" && !post:
			diag.ReportError(c.reporter, diag.ConResultInPrecondition, name.Span,
				"'result' is only available in postconditions").Emit()
		case name.Name == "result" && fn.Output == nil:
			diag.ReportError(c.reporter, diag.ConResultWithoutOutput, name.Span,
				fmt.Sprintf("postcondition of '%s' uses 'result' but the function has no output", fn.Name)).
				WithNote(fn.Span, "declare an output with §O{type}").
				Emit()
		default:
			c.unknownReference(fn, ct, name)
		}
		return true
	})
	c.checkBoolean(ct)
}

func (c *checker) unknownReference(fn *ast.FuncDecl, ct *ast.Contract, name *ast.Name) {
	rb := diag.ReportWarning(c.reporter, diag.ConUnknownReference, name.Span,
		fmt.Sprintf("contract of '%s' references unknown name '%s'", fn.Name, name.Name))
	scope, ok := c.table.Scopes[ct.ID]
	if !ok {
		scope = c.table.Scopes[fn.ID]
	}
	if s, found := symbols.Suggest(name.Name, c.table.VisibleNames(scope)); found {
		rb.WithNote(name.Span, fmt.Sprintf("did you mean '%s'?", s)).
			WithFix(fmt.Sprintf("replace with '%s'", s), diag.FixEdit{Span: name.Span, NewText: s})
	}
	rb.Emit()
}

func (c *checker) checkBoolean(ct *ast.Contract) {
	if c.sema == nil || ct.Cond == nil {
		return
	}
	t := c.sema.TypeOf(ct.Cond)
	switch c.sema.Types.KindOf(t) {
	case types.KindBool, types.KindVar, types.KindInvalid, types.KindExternal:
		return
	}
	diag.ReportError(c.reporter, diag.ConNotBoolean, ct.Cond.NodeSpan(),
		fmt.Sprintf("contract must be a boolean expression, got %s", c.sema.Types.String(t))).Emit()
}
