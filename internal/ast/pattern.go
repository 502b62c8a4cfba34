package ast

// Pattern is the left-hand side of a match arm.
type Pattern interface {
	Node
	patternNode()
}

type WildcardPat struct{ Meta }

// BindPat matches anything and binds it to Name.
type BindPat struct {
	Meta
	Name string
}

type LiteralPat struct {
	Meta
	Value *Literal
}

// RelPat is a relational pattern such as `< 0` or `>= 10`.
type RelPat struct {
	Meta
	Op    Op
	Value *Literal
}

// VariantPat matches some/none/ok/err. Inner is nil for none.
type VariantPat struct {
	Meta
	Kind  VariantKind
	Inner Pattern
}

// EnumPat matches one enum member, written Type.Member.
type EnumPat struct {
	Meta
	Type   string
	Member string
}

func (*WildcardPat) patternNode() {}
func (*BindPat) patternNode()     {}
func (*LiteralPat) patternNode()  {}
func (*RelPat) patternNode()      {}
func (*VariantPat) patternNode()  {}
func (*EnumPat) patternNode()     {}

// IsCatchAll reports whether p matches every value unconditionally.
func IsCatchAll(p Pattern) bool {
	switch p.(type) {
	case *WildcardPat, *BindPat:
		return true
	}
	return false
}
