// Package lower projects checked function bodies into typed assignments in
// SSA form. Every write to a local gets a fresh versioned name, branches
// merge through phi assignments and loops havoc what they write. The
// result feeds the verification-condition generator in package smt.
package lower

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/format"
	"sigil/internal/sema"
	"sigil/internal/source"
	"sigil/internal/symbols"
	"sigil/internal/types"
)

type Kind uint8

const (
	KindParam Kind = iota
	KindBind
	KindAssign
	KindPhi
	KindHavoc // a value nothing is known about, e.g. after a loop
)

func (k Kind) String() string {
	switch k {
	case KindParam:
		return "param"
	case KindBind:
		return "bind"
	case KindAssign:
		return "assign"
	case KindPhi:
		return "phi"
	}
	return "havoc"
}

// Env maps a source variable to its current SSA name.
type Env map[string]string

// Rename spells n through the environment, keeping names it does not bind.
func (e Env) Rename(n *ast.Name) string {
	if v, ok := e[n.Name]; ok {
		return v
	}
	return n.Name
}

// Guard is a branch condition read in the environment it was evaluated in.
type Guard struct {
	Cond    ast.Expr
	Env     Env
	Negated bool
}

func (g Guard) String() string {
	s := format.ExprWith(g.Cond, g.Env.Rename)
	if g.Negated {
		return "(! " + s + ")"
	}
	return s
}

// Assign is one SSA definition. Value and Env are set for binds and
// assignments; Cond, Then and Else for phis.
type Assign struct {
	Kind  Kind
	Name  string
	Var   string
	Type  types.TypeID
	Value ast.Expr
	Env   Env
	Cond  *Guard
	Then  string
	Else  string
	Span  source.Span
}

// Exit is a return reached under Path. Value is nil for a bare return.
type Exit struct {
	Value ast.Expr
	Env   Env
	Path  []Guard
	Span  source.Span
}

// Function is the lowered form of one function or method body.
type Function struct {
	Decl    *ast.FuncDecl
	Name    string
	Output  types.TypeID // checked result type, Void when none
	Params  []*Assign
	Assigns []*Assign
	Returns []*Exit
	// Entry is the environment holding only the parameters; contracts are
	// read in it.
	Entry Env
	// Partial is set when the body uses a construct the lowering does not
	// model; Reason names the first one.
	Partial bool
	Reason  string
}

type Program struct {
	Functions []*Function
}

// Lookup returns the lowered function for decl.
func (p *Program) Lookup(decl *ast.FuncDecl) (*Function, bool) {
	for _, f := range p.Functions {
		if f.Decl == decl {
			return f, true
		}
	}
	return nil, false
}

// Lower lowers every function and method with a body.
func Lower(mod *ast.Module, table *symbols.Table, res *sema.Result) *Program {
	prog := &Program{}
	if mod == nil {
		return prog
	}
	add := func(name string, fn *ast.FuncDecl) {
		if fn.HasBody {
			prog.Functions = append(prog.Functions, lowerFunc(name, fn, table, res))
		}
	}
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			add(d.Name, d)
		case *ast.ClassDecl:
			for _, m := range d.Methods() {
				add(d.Name+"."+m.Name, m)
			}
		case *ast.ExtensionDecl:
			for _, m := range d.Methods {
				add(d.Target+"."+m.Name, m)
			}
		}
	}
	return prog
}

type lowerer struct {
	fn       *Function
	table    *symbols.Table
	sema     *sema.Result
	versions map[string]int
}

func lowerFunc(name string, decl *ast.FuncDecl, table *symbols.Table, res *sema.Result) *Function {
	l := &lowerer{
		fn:       &Function{Decl: decl, Name: name},
		table:    table,
		sema:     res,
		versions: make(map[string]int),
	}
	if sig, ok := res.Signature(table, decl); ok {
		l.fn.Output = sig.Result
	}
	env := Env{}
	for _, p := range decl.Params {
		a := &Assign{Kind: KindParam, Name: l.fresh(p.Name), Var: p.Name, Type: l.symbolType(p), Span: p.Span}
		l.fn.Params = append(l.fn.Params, a)
		env[p.Name] = a.Name
	}
	l.fn.Entry = maps.Clone(env)
	var path []Guard
	if l.block(decl.Body, env, &path) {
		// falling off the end is a bare return
		l.fn.Returns = append(l.fn.Returns, &Exit{Env: env, Path: path, Span: decl.Span})
	}
	return l.fn
}

func (l *lowerer) fresh(v string) string {
	n := l.versions[v]
	l.versions[v] = n + 1
	return fmt.Sprintf("%s@%d", v, n)
}

func (l *lowerer) symbolType(n ast.Node) types.TypeID {
	if l.table == nil || l.sema == nil {
		return types.NoTypeID
	}
	if sym, ok := l.table.DeclOf(n); ok {
		return l.sema.SymbolTypes[sym.ID]
	}
	return types.NoTypeID
}

func (l *lowerer) partial(why string) {
	if !l.fn.Partial {
		l.fn.Partial, l.fn.Reason = true, why
	}
}

func (l *lowerer) emit(a *Assign) {
	l.fn.Assigns = append(l.fn.Assigns, a)
}

// block lowers stmts in env and reports whether control can fall off the
// end. Names bound inside the block are dropped from env afterwards. path
// grows with the guard of every branch that ended early, so it holds the
// condition under which the end of the block is reached.
func (l *lowerer) block(stmts []ast.Stmt, env Env, path *[]Guard) bool {
	outer := maps.Clone(env)
	live := true
	for _, st := range stmts {
		if !l.stmt(st, env, path) {
			live = false
			break
		}
	}
	for v := range env {
		if _, ok := outer[v]; !ok {
			delete(env, v)
		}
	}
	return live
}

func (l *lowerer) stmt(st ast.Stmt, env Env, path *[]Guard) bool {
	switch st := st.(type) {
	case *ast.BindStmt:
		a := &Assign{Kind: KindBind, Name: l.fresh(st.Name), Var: st.Name, Type: l.symbolType(st), Span: st.Span}
		if st.Value != nil {
			a.Value, a.Env = st.Value, maps.Clone(env)
		} else {
			a.Kind = KindHavoc
		}
		l.emit(a)
		env[st.Name] = a.Name
	case *ast.AssignStmt:
		n, ok := st.Target.(*ast.Name)
		if !ok {
			l.partial("assignment to " + format.Expr(st.Target))
			return true
		}
		if _, local := env[n.Name]; !local {
			l.partial("assignment to " + n.Name)
			return true
		}
		a := &Assign{Kind: KindAssign, Name: l.fresh(n.Name), Var: n.Name, Value: st.Value, Env: maps.Clone(env), Span: st.Span}
		a.Type = l.varType(n.Name)
		l.emit(a)
		env[n.Name] = a.Name
	case *ast.ReturnStmt:
		l.fn.Returns = append(l.fn.Returns, &Exit{
			Value: st.Value,
			Env:   maps.Clone(env),
			Path:  slices.Clone(*path),
			Span:  st.Span,
		})
		return false
	case *ast.ThrowStmt, *ast.RethrowStmt:
		// exceptional exits owe nothing to the postcondition
		return false
	case *ast.IfStmt:
		return l.ifChain(st.Cond, st.Then, st.ElseIfs, st.Else, env, path)
	case *ast.LoopStmt:
		l.loop(st.Body, env)
	case *ast.WhileStmt:
		l.loop(st.Body, env)
	case *ast.ForeachStmt:
		l.loop(st.Body, env)
	case *ast.ResourceStmt:
		inner := maps.Clone(env)
		a := &Assign{Kind: KindBind, Name: l.fresh(st.Name), Var: st.Name, Type: l.symbolType(st), Value: st.Value, Env: maps.Clone(env), Span: st.Span}
		l.emit(a)
		inner[st.Name] = a.Name
		live := l.block(st.Body, inner, path)
		for v := range env {
			env[v] = inner[v]
		}
		return live
	case *ast.MatchStmt:
		l.partial("match statement")
	case *ast.TryStmt:
		l.partial("try statement")
	case *ast.YieldStmt, *ast.YieldBreakStmt:
		l.partial("iterator body")
	case *ast.RawStmt:
		l.partial("passthrough block")
	}
	return true
}

// varType finds the declared type of the local currently bound to v.
func (l *lowerer) varType(v string) types.TypeID {
	for i := len(l.fn.Assigns) - 1; i >= 0; i-- {
		if a := l.fn.Assigns[i]; a.Var == v && a.Type != types.NoTypeID {
			return a.Type
		}
	}
	for _, p := range l.fn.Params {
		if p.Var == v {
			return p.Type
		}
	}
	return types.NoTypeID
}

// ifChain lowers if/else-if/else as nested two-way branches.
// When only one branch falls through, path takes that branch's guards.
func (l *lowerer) ifChain(cond ast.Expr, then []ast.Stmt, elseIfs []*ast.ElseIf, els []ast.Stmt, env Env, path *[]Guard) bool {
	pos := Guard{Cond: cond, Env: maps.Clone(env)}
	neg := pos
	neg.Negated = true

	thenEnv := maps.Clone(env)
	thenPath := append(slices.Clone(*path), pos)
	thenLive := l.block(then, thenEnv, &thenPath)

	elseEnv := maps.Clone(env)
	elsePath := append(slices.Clone(*path), neg)
	var elseLive bool
	if len(elseIfs) > 0 {
		next := elseIfs[0]
		elseLive = l.ifChain(next.Cond, next.Body, elseIfs[1:], els, elseEnv, &elsePath)
	} else {
		elseLive = l.block(els, elseEnv, &elsePath)
	}

	switch {
	case thenLive && elseLive:
		l.merge(pos, thenEnv, elseEnv, env)
	case thenLive:
		maps.Copy(env, thenEnv)
		*path = thenPath
	case elseLive:
		maps.Copy(env, elseEnv)
		*path = elsePath
	default:
		return false
	}
	return true
}

// merge writes a phi for every outer variable the branches left with
// different versions.
func (l *lowerer) merge(g Guard, thenEnv, elseEnv, env Env) {
	for _, v := range sortedKeys(env) {
		t, e := thenEnv[v], elseEnv[v]
		if t == e {
			env[v] = t
			continue
		}
		a := &Assign{Kind: KindPhi, Name: l.fresh(v), Var: v, Type: l.varType(v), Cond: &g, Then: t, Else: e}
		l.emit(a)
		env[v] = a.Name
	}
}

// loop havocs every outer variable the body assigns. Iterations are not
// unrolled, so a return inside the body makes the function partial.
func (l *lowerer) loop(body []ast.Stmt, env Env) {
	written := map[string]bool{}
	for _, st := range body {
		ast.Inspect(st, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.AssignStmt:
				if name, ok := n.Target.(*ast.Name); ok {
					written[name.Name] = true
				}
			case *ast.ReturnStmt:
				l.partial("return inside a loop")
			case *ast.YieldStmt:
				l.partial("iterator body")
			}
			return true
		})
	}
	for _, v := range sortedKeys(env) {
		if !written[v] {
			continue
		}
		a := &Assign{Kind: KindHavoc, Name: l.fresh(v), Var: v, Type: l.varType(v), Span: body[0].NodeSpan()}
		l.emit(a)
		env[v] = a.Name
	}
}

func sortedKeys(env Env) []string {
	return slices.Sorted(maps.Keys(env))
}

// String renders the function for debugging and golden tests.
func (f *Function) String() string {
	var b strings.Builder
	b.WriteString("func " + f.Name + "(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
	}
	b.WriteString(")\n")
	for _, a := range f.Assigns {
		b.WriteString("  " + a.Name + " = ")
		switch a.Kind {
		case KindPhi:
			fmt.Fprintf(&b, "phi %s ? %s : %s", a.Cond, a.Then, a.Else)
		case KindHavoc:
			b.WriteString("havoc")
		default:
			b.WriteString(format.ExprWith(a.Value, a.Env.Rename))
		}
		b.WriteByte('\n')
	}
	for _, r := range f.Returns {
		b.WriteString("  return")
		if r.Value != nil {
			b.WriteString(" " + format.ExprWith(r.Value, r.Env.Rename))
		}
		for i, g := range r.Path {
			if i == 0 {
				b.WriteString(" if ")
			} else {
				b.WriteString(" && ")
			}
			b.WriteString(g.String())
		}
		b.WriteByte('\n')
	}
	if f.Partial {
		b.WriteString("  partial: " + f.Reason + "\n")
	}
	return b.String()
}
