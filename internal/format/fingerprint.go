package format

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"sigil/internal/ast"
)

// Fingerprint dumps the structure of a tree, leaving out node ids, spans
// and whether an expression statement was written with §C. Two trees with
// the same fingerprint generate the same code.
func Fingerprint(n ast.Node) string {
	var b strings.Builder
	dump(&b, reflect.ValueOf(n))
	return b.String()
}

var metaType = reflect.TypeOf(ast.Meta{})

func dump(b *strings.Builder, v reflect.Value) {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			b.WriteString("nil")
			return
		}
		if v.Kind() == reflect.Pointer {
			b.WriteString(v.Type().Elem().Name())
		}
		dump(b, v.Elem())
	case reflect.Struct:
		b.WriteByte('{')
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if f.Type == metaType || (f.Name == "Marked" && t == reflect.TypeOf(ast.ExprStmt{})) {
				continue
			}
			b.WriteString(f.Name)
			b.WriteByte(':')
			dump(b, v.Field(i))
			b.WriteByte(' ')
		}
		b.WriteByte('}')
	case reflect.Slice:
		// nil and empty differ only for array literals, where they do matter
		if v.IsNil() {
			b.WriteString("nil")
			return
		}
		b.WriteByte('[')
		for i := range v.Len() {
			dump(b, v.Index(i))
			b.WriteByte(' ')
		}
		b.WriteByte(']')
	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))
	default:
		fmt.Fprint(b, v.Interface())
	}
}
