package ast

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitDec
	LitString
	LitBool
)

func (k LitKind) Tag() string {
	switch k {
	case LitInt:
		return "INT"
	case LitFloat:
		return "FLOAT"
	case LitDec:
		return "DEC"
	case LitString:
		return "STR"
	}
	return "BOOL"
}

// Literal keeps the literal text as written (without type tag or quotes);
// strings hold their decoded value.
type Literal struct {
	Meta
	Kind   LitKind
	Value  string
	Tagged bool
}

type Name struct {
	Meta
	Name string
}

type This struct{ Meta }

type MemberExpr struct {
	Meta
	X    Expr
	Name string
}

// Op is an operator spelled the way it appears in the source.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpAnd Op = "&&"
	OpOr  Op = "||"
	OpNot Op = "!"
	OpNeg Op = "-"
)

func (op Op) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}

func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

func (op Op) IsLogical() bool { return op == OpAnd || op == OpOr }

type Binary struct {
	Meta
	Op    Op
	Left  Expr
	Right Expr
}

type Unary struct {
	Meta
	Op Op
	X  Expr
}

type Call struct {
	Meta
	Callee Expr
	Args   []Expr
}

type FieldInit struct {
	Meta
	Name  string
	Value Expr
}

// NewExpr constructs an object: (new T args... Field=value...).
type NewExpr struct {
	Meta
	Type  *TypeRef
	Args  []Expr
	Inits []*FieldInit
}

// ArrayExpr is (array T [e...]) or (array T size).
type ArrayExpr struct {
	Meta
	Elem  *TypeRef
	Elems []Expr
	Size  Expr
}

type VariantKind uint8

const (
	VariantSome VariantKind = iota
	VariantNone
	VariantOk
	VariantErr
)

func (k VariantKind) String() string {
	switch k {
	case VariantSome:
		return "some"
	case VariantNone:
		return "none"
	case VariantOk:
		return "ok"
	}
	return "err"
}

// VariantExpr builds an Option or Result value. X is nil for none.
type VariantExpr struct {
	Meta
	Kind VariantKind
	X    Expr
}

type LambdaParam struct {
	Meta
	Name string
	Type *TypeRef
}

type Lambda struct {
	Meta
	Params []*LambdaParam
	Body   Expr
}

type MatchArm struct {
	Meta
	Pattern Pattern
	Guard   Expr
	Value   Expr
}

type MatchExpr struct {
	Meta
	Subject Expr
	Arms    []*MatchArm
}

type CastExpr struct {
	Meta
	Type *TypeRef
	X    Expr
}

type AwaitExpr struct {
	Meta
	X Expr
}

// BadExpr stands in for an expression that failed to parse.
type BadExpr struct{ Meta }

func (*Literal) exprNode()     {}
func (*Name) exprNode()        {}
func (*This) exprNode()        {}
func (*MemberExpr) exprNode()  {}
func (*Binary) exprNode()      {}
func (*Unary) exprNode()       {}
func (*Call) exprNode()        {}
func (*NewExpr) exprNode()     {}
func (*ArrayExpr) exprNode()   {}
func (*VariantExpr) exprNode() {}
func (*Lambda) exprNode()      {}
func (*MatchExpr) exprNode()   {}
func (*CastExpr) exprNode()    {}
func (*AwaitExpr) exprNode()   {}
func (*BadExpr) exprNode()     {}

// DottedName returns "a.b.c" for a chain of names, or "" for anything else.
func DottedName(e Expr) string {
	switch e := e.(type) {
	case *Name:
		return e.Name
	case *MemberExpr:
		if base := DottedName(e.X); base != "" {
			return base + "." + e.Name
		}
	}
	return ""
}
