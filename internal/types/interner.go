package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"sigil/internal/source"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Bool    TypeID
	String  TypeID
	I8      TypeID
	I16     TypeID
	I32     TypeID
	I64     TypeID
	U8      TypeID
	U16     TypeID
	U32     TypeID
	U64     TypeID
	F32     TypeID
	F64     TypeID
	Dec     TypeID
}

// NamedKind distinguishes the user declarations behind KindNamed.
type NamedKind uint8

const (
	NamedClass NamedKind = iota
	NamedStruct
	NamedInterface
)

// Field describes a single field of a named type.
type Field struct {
	Name     string
	Type     TypeID
	Readonly bool
	Static   bool
}

// Method is a method signature on a named or enum type.
type Method struct {
	Name   string
	Sig    TypeID // KindFunc
	Static bool
}

// NamedInfo stores metadata for a user class, struct or interface.
type NamedInfo struct {
	Name       string
	Kind       NamedKind
	Decl       source.Span
	Base       TypeID
	Implements []TypeID
	Fields     []Field
	Methods    []Method
}

// EnumInfo stores metadata for a user enum.
type EnumInfo struct {
	Name    string
	Decl    source.Span
	Members []string
	Methods []Method
}

// ExternalInfo names an opaque target-language type.
type ExternalInfo struct {
	Name string
	Args []TypeID
}

// FuncInfo is a callable signature. Variadic marks a trailing params array.
type FuncInfo struct {
	Params   []TypeID
	Result   TypeID
	Variadic bool
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Nominal types get a fresh slot per registration; external and function
// types are deduplicated by their rendered key.
type Interner struct {
	types     []Type
	index     map[typeKey]TypeID
	builtins  Builtins
	named     []NamedInfo
	enums     []EnumInfo
	externals []ExternalInfo
	funcs     []FuncInfo
	keyed     map[string]TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
		keyed: make(map[string]TypeID),
	}
	// slot 0 of every side table is a sentinel
	in.named = append(in.named, NamedInfo{})
	in.enums = append(in.enums, EnumInfo{})
	in.externals = append(in.externals, ExternalInfo{})
	in.funcs = append(in.funcs, FuncInfo{})

	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.I8 = in.Intern(MakeInt(Width8))
	in.builtins.I16 = in.Intern(MakeInt(Width16))
	in.builtins.I32 = in.Intern(MakeInt(Width32))
	in.builtins.I64 = in.Intern(MakeInt(Width64))
	in.builtins.U8 = in.Intern(MakeUint(Width8))
	in.builtins.U16 = in.Intern(MakeUint(Width16))
	in.builtins.U32 = in.Intern(MakeUint(Width32))
	in.builtins.U64 = in.Intern(MakeUint(Width64))
	in.builtins.F32 = in.Intern(MakeFloat(Width32))
	in.builtins.F64 = in.Intern(MakeFloat(Width64))
	in.builtins.Dec = in.Intern(Type{Kind: KindDecimal})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

type typeKey Type

func slot(n int) uint32 {
	s, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("types: side table overflow: %w", err))
	}
	return s
}

// Option returns Option<elem>.
func (in *Interner) Option(elem TypeID) TypeID {
	return in.Intern(MakeOption(elem))
}

// Result returns Result<ok,err>.
func (in *Interner) Result(ok, err TypeID) TypeID {
	return in.Intern(MakeResult(ok, err))
}

// Array returns elem[].
func (in *Interner) Array(elem TypeID) TypeID {
	return in.Intern(MakeArray(elem))
}

// RegisterNamed allocates a nominal type slot and returns its TypeID.
func (in *Interner) RegisterNamed(name string, kind NamedKind, decl source.Span) TypeID {
	in.named = append(in.named, NamedInfo{Name: name, Kind: kind, Decl: decl})
	return in.internRaw(Type{Kind: KindNamed, Payload: slot(len(in.named) - 1)})
}

// NamedInfo returns the mutable metadata of a named type.
func (in *Interner) NamedInfo(id TypeID) (*NamedInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindNamed || int(tt.Payload) >= len(in.named) {
		return nil, false
	}
	return &in.named[tt.Payload], true
}

// RegisterEnum allocates an enum type slot.
func (in *Interner) RegisterEnum(name string, members []string, decl source.Span) TypeID {
	in.enums = append(in.enums, EnumInfo{Name: name, Decl: decl, Members: append([]string(nil), members...)})
	return in.internRaw(Type{Kind: KindEnum, Payload: slot(len(in.enums) - 1)})
}

func (in *Interner) EnumInfo(id TypeID) (*EnumInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindEnum || int(tt.Payload) >= len(in.enums) {
		return nil, false
	}
	return &in.enums[tt.Payload], true
}

// External returns the opaque type name<args...>. Equal spellings share one id.
func (in *Interner) External(name string, args ...TypeID) TypeID {
	var b strings.Builder
	b.WriteString("ext:")
	b.WriteString(name)
	for _, a := range args {
		fmt.Fprintf(&b, ",%d", a)
	}
	key := b.String()
	if id, ok := in.keyed[key]; ok {
		return id
	}
	in.externals = append(in.externals, ExternalInfo{Name: name, Args: append([]TypeID(nil), args...)})
	id := in.internRaw(Type{Kind: KindExternal, Payload: slot(len(in.externals) - 1)})
	in.keyed[key] = id
	return id
}

func (in *Interner) ExternalInfo(id TypeID) (ExternalInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindExternal || int(tt.Payload) >= len(in.externals) {
		return ExternalInfo{}, false
	}
	return in.externals[tt.Payload], true
}

// Func returns the function type (params) -> result.
func (in *Interner) Func(params []TypeID, result TypeID, variadic bool) TypeID {
	var b strings.Builder
	b.WriteString("fn:")
	for _, p := range params {
		fmt.Fprintf(&b, "%d,", p)
	}
	fmt.Fprintf(&b, "->%d:%t", result, variadic)
	key := b.String()
	if id, ok := in.keyed[key]; ok {
		return id
	}
	in.funcs = append(in.funcs, FuncInfo{Params: append([]TypeID(nil), params...), Result: result, Variadic: variadic})
	id := in.internRaw(Type{Kind: KindFunc, Payload: slot(len(in.funcs) - 1)})
	in.keyed[key] = id
	return id
}

func (in *Interner) FuncInfo(id TypeID) (FuncInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFunc || int(tt.Payload) >= len(in.funcs) {
		return FuncInfo{}, false
	}
	return in.funcs[tt.Payload], true
}

// newVar allocates a fresh type-variable type pointing at cell.
func (in *Interner) newVar(cell int) TypeID {
	return in.internRaw(Type{Kind: KindVar, Payload: slot(cell)})
}
