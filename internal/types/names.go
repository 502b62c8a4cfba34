package types

import (
	"strconv"
	"strings"
)

// primitiveNames maps every accepted spelling to its canonical short name.
var primitiveNames = map[string]string{
	"void": "void",
	"bool": "bool", "boolean": "bool",
	"str": "str", "string": "str",
	"i8": "i8", "sbyte": "i8",
	"i16": "i16", "short": "i16",
	"i32": "i32", "int": "i32",
	"i64": "i64", "long": "i64",
	"u8": "u8", "byte": "u8",
	"u16": "u16", "ushort": "u16",
	"u32": "u32", "uint": "u32",
	"u64": "u64", "ulong": "u64",
	"f32": "f32", "float": "f32",
	"f64": "f64", "double": "f64",
	"dec": "dec", "decimal": "dec",
}

// CanonicalPrimitive maps a primitive spelling (i32, int, string, ...) to
// its canonical short name.
func CanonicalPrimitive(name string) (string, bool) {
	c, ok := primitiveNames[name]
	return c, ok
}

// PrimitiveNames lists the canonical primitive names.
func PrimitiveNames() []string {
	return []string{"bool", "dec", "f32", "f64", "i16", "i32", "i64", "i8", "str", "u16", "u32", "u64", "u8", "void"}
}

// Primitive resolves a primitive type name, accepting the short spellings
// (i32, str, dec) and the common long aliases (int, string, decimal).
func (in *Interner) Primitive(name string) (TypeID, bool) {
	c, ok := primitiveNames[name]
	if !ok {
		return NoTypeID, false
	}
	b := in.builtins
	switch c {
	case "void":
		return b.Void, true
	case "bool":
		return b.Bool, true
	case "str":
		return b.String, true
	case "i8":
		return b.I8, true
	case "i16":
		return b.I16, true
	case "i32":
		return b.I32, true
	case "i64":
		return b.I64, true
	case "u8":
		return b.U8, true
	case "u16":
		return b.U16, true
	case "u32":
		return b.U32, true
	case "u64":
		return b.U64, true
	case "f32":
		return b.F32, true
	case "f64":
		return b.F64, true
	}
	return b.Dec, true
}

// IsOptionName and IsResultName accept both spellings used in sources.
func IsOptionName(name string) bool {
	return name == "Option" || name == "Optional"
}

func IsResultName(name string) bool {
	return name == "Result"
}

// String renders id in source spelling, e.g. Option<i32> or Result<str,Error>[].
func (in *Interner) String(id TypeID) string {
	var b strings.Builder
	in.write(&b, id, 0)
	return b.String()
}

func (in *Interner) write(b *strings.Builder, id TypeID, depth int) {
	tt, ok := in.Lookup(id)
	if !ok {
		b.WriteString("?")
		return
	}
	if depth > 32 {
		b.WriteString("...")
		return
	}
	switch tt.Kind {
	case KindVoid:
		b.WriteString("void")
	case KindBool:
		b.WriteString("bool")
	case KindString:
		b.WriteString("str")
	case KindInt:
		b.WriteString("i" + widthText(tt.Width))
	case KindUint:
		b.WriteString("u" + widthText(tt.Width))
	case KindFloat:
		b.WriteString("f" + widthText(tt.Width))
	case KindDecimal:
		b.WriteString("dec")
	case KindOption:
		b.WriteString("Option<")
		in.write(b, tt.Elem, depth+1)
		b.WriteString(">")
	case KindResult:
		b.WriteString("Result<")
		in.write(b, tt.Elem, depth+1)
		b.WriteString(",")
		in.write(b, tt.Err, depth+1)
		b.WriteString(">")
	case KindArray:
		in.write(b, tt.Elem, depth+1)
		b.WriteString("[]")
	case KindNamed:
		b.WriteString(in.named[tt.Payload].Name)
	case KindEnum:
		b.WriteString(in.enums[tt.Payload].Name)
	case KindExternal:
		ext := in.externals[tt.Payload]
		b.WriteString(ext.Name)
		if len(ext.Args) > 0 {
			b.WriteString("<")
			for i, a := range ext.Args {
				if i > 0 {
					b.WriteString(",")
				}
				in.write(b, a, depth+1)
			}
			b.WriteString(">")
		}
	case KindFunc:
		fn := in.funcs[tt.Payload]
		b.WriteString("(")
		for i, p := range fn.Params {
			if i > 0 {
				b.WriteString(",")
			}
			in.write(b, p, depth+1)
		}
		b.WriteString(") -> ")
		in.write(b, fn.Result, depth+1)
	case KindVar:
		b.WriteString("?T")
		b.WriteString(strconv.Itoa(int(tt.Payload)))
	default:
		b.WriteString("invalid")
	}
}

func widthText(w Width) string {
	if w == WidthAny {
		return "32"
	}
	return strconv.Itoa(int(w))
}
