package effects

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
)

// Options configures Check.
type Options struct {
	Catalog  *Catalog
	Reporter diag.Reporter
	// Resolve returns the user declaration a call refers to. Calls it does
	// not resolve are looked up in the catalog by their dotted name.
	Resolve func(call *ast.Call) (*ast.FuncDecl, bool)
	// ReportUnused emits an info diagnostic for declared kinds never used.
	ReportUnused bool
}

// Result holds the per-function effect facts computed by Check.
type Result struct {
	Declared map[ast.NodeID]Set
	Used     map[ast.NodeID]Set
}

// Declared converts the parsed §E declaration of a function into a set.
// Items that fail to parse were already reported by the parser.
func Declared(decl *ast.EffectDecl) Set {
	var set Set
	if decl == nil {
		return set
	}
	for _, it := range decl.Items {
		if eff, err := Parse(it.Kind, it.Cap); err == nil {
			set = set.With(eff)
		}
	}
	return set
}

// Check verifies every function body in mod against its declared effects.
// Each violating call site is reported separately.
func Check(mod *ast.Module, opts Options) Result {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	c := &checker{opts: opts, res: Result{
		Declared: make(map[ast.NodeID]Set),
		Used:     make(map[ast.NodeID]Set),
	}}
	if mod == nil {
		return c.res
	}
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			c.checkFunc(d, d.Name)
		case *ast.ClassDecl:
			for _, m := range d.Methods() {
				c.checkFunc(m, d.Name+"."+m.Name)
			}
		case *ast.ExtensionDecl:
			for _, m := range d.Methods {
				c.checkFunc(m, d.Target+"."+m.Name)
			}
		}
	}
	return c.res
}

type checker struct {
	opts Options
	res  Result
}

func (c *checker) checkFunc(fn *ast.FuncDecl, qualified string) {
	declared := Declared(fn.Effects)
	c.res.Declared[fn.ID] = declared
	var used Set

	require := func(need Set, at source.Span, what string) {
		used = used.Union(need)
		if declared.Encompasses(need) {
			return
		}
		missing := declared.Missing(need)
		have := "declares no effects"
		if !declared.IsEmpty() {
			have = "declares only " + declared.String()
		}
		diag.ReportError(c.opts.Reporter, diag.EffMissingCapability, at,
			fmt.Sprintf("%s requires %s, but %s %s", what, missing, qualified, have)).
			WithNote(effectsSpan(fn), fmt.Sprintf("add §E{%s} to %s", declared.Union(need), qualified)).
			Emit()
	}

	for _, st := range fn.Body {
		ast.Inspect(st, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.PrintStmt:
				require(Of(Effect{Kind: KindIO, Cap: CapWrite}), n.Span, "printing")
			case *ast.Call:
				if need, what, ok := c.callEffects(n); ok {
					require(need, n.Span, what)
				}
			case *ast.NewExpr:
				if n.Type != nil {
					if need, ok := c.opts.Catalog.Lookup("new " + n.Type.Name); ok {
						require(need, n.Span, "constructing "+n.Type.Name)
					}
				}
			}
			return true
		})
	}
	c.res.Used[fn.ID] = used

	if c.opts.ReportUnused && fn.Effects != nil {
		for _, eff := range declared.Items() {
			if used.caps[eff.Kind] == 0 {
				diag.ReportInfo(c.opts.Reporter, diag.EffUnusedCapability, fn.Effects.Span,
					fmt.Sprintf("%s declares %s but never uses it", qualified, eff)).Emit()
			}
		}
	}
}

func (c *checker) callEffects(call *ast.Call) (Set, string, bool) {
	if c.opts.Resolve != nil {
		if callee, ok := c.opts.Resolve(call); ok {
			need := Declared(callee.Effects)
			return need, "call to " + callee.Name, !need.IsEmpty()
		}
	}
	name := ast.DottedName(call.Callee)
	if name == "" {
		return Set{}, "", false
	}
	need, ok := c.opts.Catalog.Lookup(name)
	return need, "call to " + name, ok
}

func effectsSpan(fn *ast.FuncDecl) source.Span {
	if fn.Effects != nil {
		return fn.Effects.Span
	}
	return fn.Span
}
