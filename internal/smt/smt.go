// Package smt turns postconditions into SMT-LIB 2 verification conditions.
//
// Each condition is a self-contained script over the lowered body of one
// function: parameters become constants, preconditions become assumptions,
// and every exit asks the solver for a path on which the postcondition
// fails. An unsat answer for every exit proves the postcondition.
//
// Integers are mathematical: overflow is not modelled. Anything the
// translation cannot express is left unconstrained, so a proof never rests
// on it.
package smt

import (
	"fmt"
	"strconv"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/format"
	"sigil/internal/lower"
	"sigil/internal/sema"
	"sigil/internal/source"
	"sigil/internal/types"
)

// Sort is an SMT-LIB sort name.
type Sort string

const (
	SortInt    Sort = "Int"
	SortReal   Sort = "Real"
	SortBool   Sort = "Bool"
	SortString Sort = "String"
)

// Condition is the verification condition of one postcondition.
type Condition struct {
	Function string
	Contract *ast.Contract
	// Text is the postcondition as written.
	Text string
	Span source.Span
	// Script is the SMT-LIB input, empty when Skipped is set.
	Script string
	// Checks is the number of (check-sat) commands in Script.
	Checks  int
	Skipped string
}

// TranslateProgram translates every postcondition of every lowered
// function, in declaration order.
func TranslateProgram(prog *lower.Program, res *sema.Result) []*Condition {
	var out []*Condition
	if prog == nil {
		return out
	}
	for _, fn := range prog.Functions {
		out = append(out, Translate(fn, res)...)
	}
	return out
}

// Translate builds one condition per postcondition of fn.
func Translate(fn *lower.Function, res *sema.Result) []*Condition {
	var out []*Condition
	for _, post := range fn.Decl.Ensures {
		c := &Condition{
			Function: fn.Name,
			Contract: post,
			Text:     format.Expr(post.Cond),
			Span:     post.Span,
		}
		out = append(out, c)
		if fn.Partial {
			c.Skipped = "body not modelled: " + fn.Reason
			continue
		}
		t := newTranslator(fn, res)
		if err := t.condition(post, c); err != nil {
			c.Skipped = err.Error()
		}
	}
	return out
}

// errUntranslatable reports a construct with no SMT counterpart.
type errUntranslatable struct{ what string }

func (e errUntranslatable) Error() string { return "cannot translate " + e.what }

func untranslatable(what string, args ...any) error {
	return errUntranslatable{what: fmt.Sprintf(what, args...)}
}

type translator struct {
	fn  *lower.Function
	res *sema.Result
	in  *types.Interner

	// sorts holds every SSA name declared so far.
	sorts   map[string]Sort
	useDiv  bool
	body    strings.Builder
	outSort Sort
	hasOut  bool
}

func newTranslator(fn *lower.Function, res *sema.Result) *translator {
	t := &translator{fn: fn, res: res, sorts: make(map[string]Sort)}
	if res != nil {
		t.in = res.Types
	}
	return t
}

// sortOf maps a checked type to its sort.
func (t *translator) sortOf(id types.TypeID) (Sort, bool) {
	if t.in == nil || id == types.NoTypeID {
		return "", false
	}
	switch t.in.KindOf(id) {
	case types.KindBool:
		return SortBool, true
	case types.KindInt, types.KindUint:
		return SortInt, true
	case types.KindFloat, types.KindDecimal:
		return SortReal, true
	case types.KindString:
		return SortString, true
	}
	return "", false
}

func (t *translator) typeOf(e ast.Expr) types.TypeID {
	if t.res == nil {
		return types.NoTypeID
	}
	return t.res.TypeOf(e)
}

func (t *translator) line(format string, args ...any) {
	fmt.Fprintf(&t.body, format, args...)
	t.body.WriteByte('\n')
}

func (t *translator) declare(name string, sort Sort) {
	t.sorts[name] = sort
	t.line("(declare-const %s %s)", name, sort)
}

// condition writes the script for post into c.
func (t *translator) condition(post *ast.Contract, c *Condition) error {
	t.outSort, t.hasOut = t.sortOf(t.fn.Output)
	for _, p := range t.fn.Params {
		if s, ok := t.sortOf(p.Type); ok {
			t.declare(p.Name, s)
		}
	}
	for _, pre := range t.fn.Decl.Requires {
		// a precondition we cannot read only weakens the assumptions
		if s, err := t.expr(pre.Cond, t.fn.Entry, ""); err == nil {
			t.line("(assert %s)", s)
		}
	}
	for _, a := range t.fn.Assigns {
		t.assign(a)
	}
	if len(t.fn.Returns) == 0 {
		return untranslatable("a body without a normal exit")
	}
	for i, exit := range t.fn.Returns {
		result := ""
		if exit.Value != nil {
			result = fmt.Sprintf("result@%d", i)
			if !t.hasOut {
				return untranslatable("result of type %s", t.outputName())
			}
			if v, err := t.expr(exit.Value, exit.Env, ""); err == nil {
				if t.outSort == SortReal {
					v = t.promote(exit.Value, v)
				}
				t.line("(define-fun %s () %s %s)", result, t.outSort, v)
			} else {
				t.line("(declare-const %s %s)", result, t.outSort)
			}
			t.sorts[result] = t.outSort
		}
		goal, err := t.expr(post.Cond, exit.Env, result)
		if err != nil {
			return err
		}
		t.line("(push 1)")
		for _, g := range exit.Path {
			if s, err := t.guard(g); err == nil {
				t.line("(assert %s)", s)
			}
		}
		t.line("(assert (not %s))", goal)
		t.line("(check-sat)")
		t.line("(pop 1)")
		c.Checks++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "; %s ensures %s\n", t.fn.Name, c.Text)
	if t.useDiv {
		b.WriteString(divPrelude)
	}
	b.WriteString(t.body.String())
	c.Script = b.String()
	return nil
}

func (t *translator) outputName() string {
	if t.fn.Decl.Output == nil {
		return "void"
	}
	return t.fn.Decl.Output.String()
}

// assign declares one SSA definition. Values the translation cannot read
// become unconstrained constants of the right sort.
func (t *translator) assign(a *lower.Assign) {
	sort, ok := t.sortOf(a.Type)
	if !ok {
		return
	}
	switch a.Kind {
	case lower.KindHavoc:
		t.declare(a.Name, sort)
	case lower.KindPhi:
		cond, err := t.guard(*a.Cond)
		_, thenOK := t.sorts[a.Then]
		_, elseOK := t.sorts[a.Else]
		if err != nil || !thenOK || !elseOK {
			t.declare(a.Name, sort)
			return
		}
		t.sorts[a.Name] = sort
		t.line("(define-fun %s () %s (ite %s %s %s))", a.Name, sort, cond, a.Then, a.Else)
	default:
		v, err := t.expr(a.Value, a.Env, "")
		if err != nil {
			t.declare(a.Name, sort)
			return
		}
		if sort == SortReal {
			v = t.promote(a.Value, v)
		}
		t.sorts[a.Name] = sort
		t.line("(define-fun %s () %s %s)", a.Name, sort, v)
	}
}

func (t *translator) guard(g lower.Guard) (string, error) {
	s, err := t.expr(g.Cond, g.Env, "")
	if err != nil {
		return "", err
	}
	if g.Negated {
		return "(not " + s + ")", nil
	}
	return s, nil
}

// expr translates e with names read through env. result, when set, is the
// constant that stands for the result keyword.
func (t *translator) expr(e ast.Expr, env lower.Env, result string) (string, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return t.literal(e)
	case *ast.Name:
		if e.Name == "result" && result != "" {
			return result, nil
		}
		v, ok := env[e.Name]
		if !ok {
			return "", untranslatable("%s", e.Name)
		}
		if _, declared := t.sorts[v]; !declared {
			return "", untranslatable("%s", e.Name)
		}
		return v, nil
	case *ast.Unary:
		x, err := t.expr(e.X, env, result)
		if err != nil {
			return "", err
		}
		if e.Op == ast.OpNot {
			return "(not " + x + ")", nil
		}
		return "(- " + x + ")", nil
	case *ast.Binary:
		return t.binary(e, env, result)
	case *ast.CastExpr:
		return t.cast(e, env, result)
	}
	return "", untranslatable("%s", format.Expr(e))
}

func (t *translator) binary(e *ast.Binary, env lower.Env, result string) (string, error) {
	l, err := t.expr(e.Left, env, result)
	if err != nil {
		return "", err
	}
	r, err := t.expr(e.Right, env, result)
	if err != nil {
		return "", err
	}
	reals := t.isReal(e.Left) || t.isReal(e.Right)
	if reals {
		l, r = t.promote(e.Left, l), t.promote(e.Right, r)
	}
	switch e.Op {
	case ast.OpAdd:
		if t.isString(e.Left) || t.isString(e.Right) {
			if !t.isString(e.Left) || !t.isString(e.Right) {
				return "", untranslatable("string concatenation with %s", format.Expr(e))
			}
			return fmt.Sprintf("(str.++ %s %s)", l, r), nil
		}
		return fmt.Sprintf("(+ %s %s)", l, r), nil
	case ast.OpSub, ast.OpMul:
		return fmt.Sprintf("(%s %s %s)", e.Op, l, r), nil
	case ast.OpDiv:
		if reals {
			return fmt.Sprintf("(/ %s %s)", l, r), nil
		}
		t.useDiv = true
		return fmt.Sprintf("(sigil.div %s %s)", l, r), nil
	case ast.OpMod:
		if reals {
			return "", untranslatable("real remainder")
		}
		t.useDiv = true
		return fmt.Sprintf("(sigil.rem %s %s)", l, r), nil
	case ast.OpEq:
		return fmt.Sprintf("(= %s %s)", l, r), nil
	case ast.OpNe:
		return fmt.Sprintf("(not (= %s %s))", l, r), nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return fmt.Sprintf("(%s %s %s)", e.Op, l, r), nil
	case ast.OpAnd:
		return fmt.Sprintf("(and %s %s)", l, r), nil
	case ast.OpOr:
		return fmt.Sprintf("(or %s %s)", l, r), nil
	}
	return "", untranslatable("operator %s", e.Op)
}

func (t *translator) cast(e *ast.CastExpr, env lower.Env, result string) (string, error) {
	x, err := t.expr(e.X, env, result)
	if err != nil {
		return "", err
	}
	from, okFrom := t.sortOf(t.typeOf(e.X))
	to, okTo := t.sortOf(t.typeOf(e))
	switch {
	case !okFrom || !okTo:
		return "", untranslatable("cast to %s", e.Type)
	case from == to:
		return x, nil
	case from == SortInt && to == SortReal:
		return "(to_real " + x + ")", nil
	case from == SortReal && to == SortInt:
		// conversion truncates toward zero
		return fmt.Sprintf("(ite (>= %[1]s 0.0) (to_int %[1]s) (- (to_int (- %[1]s))))", x), nil
	}
	return "", untranslatable("cast to %s", e.Type)
}

func (t *translator) isReal(e ast.Expr) bool {
	s, ok := t.sortOf(t.typeOf(e))
	return ok && s == SortReal
}

func (t *translator) isString(e ast.Expr) bool {
	s, ok := t.sortOf(t.typeOf(e))
	return ok && s == SortString
}

// promote lifts an integer operand into a real context.
func (t *translator) promote(e ast.Expr, s string) string {
	if lit, ok := e.(*ast.Literal); ok && lit.Kind == ast.LitInt {
		return realLiteral(lit.Value)
	}
	if sort, ok := t.sortOf(t.typeOf(e)); ok && sort == SortInt {
		return "(to_real " + s + ")"
	}
	return s
}

func (t *translator) literal(l *ast.Literal) (string, error) {
	switch l.Kind {
	case ast.LitBool:
		return l.Value, nil
	case ast.LitString:
		return `"` + strings.ReplaceAll(l.Value, `"`, `""`) + `"`, nil
	case ast.LitInt:
		if s, ok := t.sortOf(t.typeOf(l)); ok && s == SortReal {
			return realLiteral(l.Value), nil
		}
		if v, ok := strings.CutPrefix(l.Value, "-"); ok {
			return "(- " + v + ")", nil
		}
		return l.Value, nil
	case ast.LitFloat, ast.LitDec:
		return realLiteral(l.Value), nil
	}
	return "", untranslatable("literal %s", l.Value)
}

// realLiteral spells a numeric literal as an SMT-LIB decimal.
func realLiteral(text string) string {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	neg := f < 0
	if neg {
		f = -f
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	if neg {
		return "(- " + s + ")"
	}
	return s
}

// divPrelude defines integer division and remainder truncating toward zero.
const divPrelude = `(define-fun sigil.div ((a Int) (b Int)) Int
  (ite (= (< a 0) (< b 0)) (div (abs a) (abs b)) (- (div (abs a) (abs b)))))
(define-fun sigil.rem ((a Int) (b Int)) Int (- a (* b (sigil.div a b))))
`
