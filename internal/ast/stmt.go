package ast

// Stmt is a statement inside a function body.
type Stmt interface {
	Node
	stmtNode()
}

// BindStmt introduces a local: §B{[type:][~]name} [value].
type BindStmt struct {
	Meta
	Name    string
	Type    *TypeRef
	Mutable bool
	Value   Expr
}

type AssignStmt struct {
	Meta
	Target Expr // *Name or *MemberExpr
	Value  Expr
}

type ReturnStmt struct {
	Meta
	Value Expr // nil for a bare return
}

type ElseIf struct {
	Meta
	Cond Expr
	Body []Stmt
}

type IfStmt struct {
	Meta
	BlockID string
	Cond    Expr
	Then    []Stmt
	ElseIfs []*ElseIf
	Else    []Stmt
	HasElse bool
}

// LoopStmt is a counted loop with an inclusive upper bound.
type LoopStmt struct {
	Meta
	BlockID string
	Var     string
	From    Expr
	To      Expr
	Step    Expr // optional
	Body    []Stmt
}

type WhileStmt struct {
	Meta
	BlockID string
	Cond    Expr
	Body    []Stmt
}

type ForeachStmt struct {
	Meta
	BlockID    string
	Index      string // optional
	Item       string
	Collection Expr
	Body       []Stmt
}

// MatchCase is one §K arm. Inline arms (`-> expr`) keep the expression in
// Value; block arms keep their statements in Body.
type MatchCase struct {
	Meta
	Pattern Pattern
	Guard   Expr
	Inline  bool
	Value   Expr
	Body    []Stmt
}

type MatchStmt struct {
	Meta
	BlockID string
	Subject Expr
	Cases   []*MatchCase
}

type CatchClause struct {
	Meta
	Type  string // empty for catch-all
	Var   string
	Guard Expr
	Body  []Stmt
}

type TryStmt struct {
	Meta
	BlockID    string
	Body       []Stmt
	Catches    []*CatchClause
	Finally    []Stmt
	HasFinally bool
}

type ThrowStmt struct {
	Meta
	Value Expr
}

type RethrowStmt struct{ Meta }

// ResourceStmt scopes a disposable value to its body.
type ResourceStmt struct {
	Meta
	BlockID string
	Name    string
	Value   Expr
	Body    []Stmt
}

type YieldStmt struct {
	Meta
	Value Expr
}

type YieldBreakStmt struct{ Meta }

type PrintStmt struct {
	Meta
	Value Expr
}

type BreakStmt struct{ Meta }

type ContinueStmt struct{ Meta }

// ExprStmt evaluates an expression for its side effects. Marked is true when
// it was written with §C.
type ExprStmt struct {
	Meta
	X      Expr
	Marked bool
}

type RawStmt struct {
	Meta
	Text string
}

func (*BindStmt) stmtNode()       {}
func (*AssignStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()     {}
func (*IfStmt) stmtNode()         {}
func (*LoopStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()      {}
func (*ForeachStmt) stmtNode()    {}
func (*MatchStmt) stmtNode()      {}
func (*TryStmt) stmtNode()        {}
func (*ThrowStmt) stmtNode()      {}
func (*RethrowStmt) stmtNode()    {}
func (*ResourceStmt) stmtNode()   {}
func (*YieldStmt) stmtNode()      {}
func (*YieldBreakStmt) stmtNode() {}
func (*PrintStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()      {}
func (*ContinueStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()       {}
func (*RawStmt) stmtNode()        {}
