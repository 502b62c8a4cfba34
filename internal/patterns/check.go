// Package patterns checks match statements and expressions for
// exhaustiveness, unreachable cases and patterns whose shape cannot match
// the scrutinee. Cases are tried in order and the first match wins.
package patterns

import (
	"fmt"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/sema"
	"sigil/internal/types"
)

// Options configures Check. Without Sema every scrutinee is treated as
// having an open type, so only catch-all coverage counts.
type Options struct {
	Reporter diag.Reporter
	Sema     *sema.Result
}

// Result lists the matches Check found exhaustive, keyed by node.
type Result struct {
	Exhaustive map[ast.NodeID]bool
}

// arm is the part of a match case the checker needs.
type arm struct {
	pattern ast.Pattern
	guard   ast.Expr
}

// Check inspects every match in mod.
func Check(mod *ast.Module, opts Options) *Result {
	res := &Result{Exhaustive: make(map[ast.NodeID]bool)}
	if mod == nil {
		return res
	}
	c := &checker{reporter: opts.Reporter, sema: opts.Sema, res: res}
	ast.Inspect(mod, func(n ast.Node) bool {
		switch m := n.(type) {
		case *ast.MatchStmt:
			arms := make([]arm, 0, len(m.Cases))
			for _, k := range m.Cases {
				arms = append(arms, arm{k.Pattern, k.Guard})
			}
			c.checkMatch(m, m.Subject, arms)
		case *ast.MatchExpr:
			arms := make([]arm, 0, len(m.Arms))
			for _, a := range m.Arms {
				arms = append(arms, arm{a.Pattern, a.Guard})
			}
			c.checkMatch(m, m.Subject, arms)
		}
		return true
	})
	return res
}

type checker struct {
	reporter diag.Reporter
	sema     *sema.Result
	res      *Result
}

func (c *checker) checkMatch(m ast.Node, subject ast.Expr, arms []arm) {
	scrutinee := c.typeOf(subject)
	var earlier []ast.Pattern
	for _, a := range arms {
		if a.pattern == nil {
			continue
		}
		if !c.checkShape(a.pattern, scrutinee) {
			continue
		}
		if c.covers(earlier, a.pattern, scrutinee) {
			diag.ReportWarning(c.reporter, diag.PatUnreachable, a.pattern.NodeSpan(),
				"unreachable pattern: earlier cases already match every value it matches").Emit()
			continue
		}
		if a.guard == nil {
			earlier = append(earlier, a.pattern)
		}
	}
	missing := c.missing(earlier, scrutinee)
	if len(missing) == 0 {
		c.res.Exhaustive[m.NodeID()] = true
		return
	}
	msg := fmt.Sprintf("match on %s is not exhaustive", c.typeLabel(scrutinee))
	rb := diag.ReportWarning(c.reporter, diag.PatNonExhaustive, m.NodeSpan(), msg)
	if len(missing) == 1 && missing[0] == "_" {
		rb.WithNote(m.NodeSpan(), "add a '_' case to cover the remaining values")
	} else {
		rb.WithNote(m.NodeSpan(), "missing: "+strings.Join(missing, ", "))
	}
	rb.Emit()
}

func (c *checker) typeOf(e ast.Expr) types.TypeID {
	if c.sema == nil || e == nil {
		return types.NoTypeID
	}
	return c.sema.TypeOf(e)
}

// lookup returns the descriptor of t. Unknown types read as a variable so
// they behave like an open type.
func (c *checker) lookup(t types.TypeID) types.Type {
	if c.sema != nil {
		if tt, ok := c.sema.Types.Lookup(t); ok {
			return tt
		}
	}
	return types.Type{Kind: types.KindVar}
}

func (c *checker) typeLabel(t types.TypeID) string {
	switch c.lookup(t).Kind {
	case types.KindVar, types.KindInvalid:
		return "this value"
	}
	return c.sema.Types.String(t)
}

// open reports whether a type's values are unknown to the checker.
func (c *checker) open(t types.TypeID) bool {
	switch c.lookup(t).Kind {
	case types.KindVar, types.KindInvalid, types.KindExternal:
		return true
	}
	return false
}

func (c *checker) enumInfo(t types.TypeID) (*types.EnumInfo, bool) {
	if c.sema == nil {
		return nil, false
	}
	return c.sema.Types.EnumInfo(t)
}
