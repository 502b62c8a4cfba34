package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindString
	KindInt
	KindUint
	KindFloat
	KindDecimal
	KindOption
	KindResult
	KindArray
	KindNamed    // user class, struct or interface
	KindEnum     // user enum
	KindExternal // opaque target-language type, e.g. Exception or List<i32>
	KindFunc
	KindVar // inference variable, see Unifier
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindOption:
		return "option"
	case KindResult:
		return "result"
	case KindArray:
		return "array"
	case KindNamed:
		return "named"
	case KindEnum:
		return "enum"
	case KindExternal:
		return "external"
	case KindFunc:
		return "func"
	case KindVar:
		return "var"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type. Payload indexes the
// side table that belongs to the kind (named, enum, external, func info or
// the unifier cell of a type variable).
type Type struct {
	Kind    Kind
	Width   Width  // numeric primitives
	Elem    TypeID // option value, result ok value, array element
	Err     TypeID // result error
	Payload uint32
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

func MakeOption(elem TypeID) Type {
	return Type{Kind: KindOption, Elem: elem}
}

func MakeResult(ok, err TypeID) Type {
	return Type{Kind: KindResult, Elem: ok, Err: err}
}

// MakeArray describes T[].
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}

// IsNumeric reports whether the kind is one of the numeric primitives.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt, KindUint, KindFloat, KindDecimal:
		return true
	}
	return false
}

// IsInteger reports whether the kind is a signed or unsigned integer.
func (k Kind) IsInteger() bool {
	return k == KindInt || k == KindUint
}

// IsTwoVariant reports whether values of the kind split into exactly two
// constructors (bool, Option, Result).
func (k Kind) IsTwoVariant() bool {
	switch k {
	case KindBool, KindOption, KindResult:
		return true
	}
	return false
}
