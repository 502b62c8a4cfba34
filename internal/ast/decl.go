package ast

// Decl is a module-level declaration.
type Decl interface {
	Node
	declNode()
}

// Member is something that may appear inside a class body.
type Member interface {
	Node
	memberNode()
}

// Module is the root of a parsed compilation unit.
type Module struct {
	Meta
	BlockID string
	Name    string
	Usings  []*Using
	Attrs   []*Attribute
	Decls   []Decl
}

// Using imports a namespace into the generated file.
type Using struct {
	Meta
	Namespace string
}

// Attribute is a §AT metadata tag, emitted verbatim as a target attribute.
type Attribute struct {
	Meta
	Name string
	Args []string
}

type ParamMode uint8

const (
	ParamValue ParamMode = iota
	ParamRef
	ParamOut
	ParamVariadic
)

func (m ParamMode) String() string {
	switch m {
	case ParamRef:
		return "ref"
	case ParamOut:
		return "out"
	case ParamVariadic:
		return "params"
	}
	return ""
}

type Param struct {
	Meta
	Name string
	Type *TypeRef
	Mode ParamMode
}

// EffectItem is one kind:capability pair from an §E declaration.
type EffectItem struct {
	Meta
	Kind string
	Cap  string
}

// EffectDecl is the declared effect set of a function. A nil *EffectDecl
// means "no effects declared", which is the empty set.
type EffectDecl struct {
	Meta
	Items []*EffectItem
}

// Contract is a §Q precondition or §S postcondition.
type Contract struct {
	Meta
	Cond    Expr
	Message string
}

// FuncDecl covers module functions, class methods, interface method
// signatures and enum extension methods.
type FuncDecl struct {
	Meta
	BlockID    string
	Name       string
	Visibility Visibility
	Modifiers  Modifiers
	Params     []*Param
	Output     *TypeRef // nil for void
	Effects    *EffectDecl
	Requires   []*Contract
	Ensures    []*Contract
	Attrs      []*Attribute
	Body       []Stmt
	// HasBody is false for interface signatures and abstract methods.
	HasBody bool
}

// IsAsync reports whether the function was declared async.
func (f *FuncDecl) IsAsync() bool { return f.Modifiers.Has(ModAsync) }

type FieldDecl struct {
	Meta
	Name       string
	Type       *TypeRef
	Visibility Visibility
	Modifiers  Modifiers
	Init       Expr
}

// ClassDecl is a class or, with ModStruct, a struct.
type ClassDecl struct {
	Meta
	BlockID    string
	Name       string
	Visibility Visibility
	Base       string
	Modifiers  Modifiers
	Implements []*Implements
	Attrs      []*Attribute
	Members    []Member
}

// Implements names one interface a class implements.
type Implements struct {
	Meta
	Name string
}

// Fields returns the field members in source order.
func (c *ClassDecl) Fields() []*FieldDecl {
	var out []*FieldDecl
	for _, m := range c.Members {
		if f, ok := m.(*FieldDecl); ok {
			out = append(out, f)
		}
	}
	return out
}

// Methods returns the method members in source order.
func (c *ClassDecl) Methods() []*FuncDecl {
	var out []*FuncDecl
	for _, m := range c.Members {
		if f, ok := m.(*FuncDecl); ok {
			out = append(out, f)
		}
	}
	return out
}

type InterfaceDecl struct {
	Meta
	BlockID    string
	Name       string
	Visibility Visibility
	Attrs      []*Attribute
	Methods    []*FuncDecl
}

type EnumMember struct {
	Meta
	Name  string
	Value *Literal // optional explicit value
}

type EnumDecl struct {
	Meta
	BlockID    string
	Name       string
	Visibility Visibility
	Underlying *TypeRef
	Attrs      []*Attribute
	Members    []*EnumMember
}

// ExtensionDecl adds methods to an enum.
type ExtensionDecl struct {
	Meta
	BlockID string
	Target  string
	Methods []*FuncDecl
}

// RawDecl is a passthrough block at module or class level.
type RawDecl struct {
	Meta
	Text string
}

func (*FuncDecl) declNode()      {}
func (*ClassDecl) declNode()     {}
func (*InterfaceDecl) declNode() {}
func (*EnumDecl) declNode()      {}
func (*ExtensionDecl) declNode() {}
func (*RawDecl) declNode()       {}

func (*FieldDecl) memberNode() {}
func (*FuncDecl) memberNode()  {}
func (*RawDecl) memberNode()   {}
