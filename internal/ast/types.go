package ast

import "strings"

// TypeRef is a type as written in the source: a name with optional type
// arguments, or an array of another TypeRef.
type TypeRef struct {
	Meta
	Name string
	Args []*TypeRef
	Elem *TypeRef // set for T[]
}

func (t *TypeRef) IsArray() bool { return t != nil && t.Elem != nil }

// String renders the canonical source spelling, e.g. Result<i32,str>[] .
func (t *TypeRef) String() string {
	if t == nil {
		return "void"
	}
	if t.Elem != nil {
		return t.Elem.String() + "[]"
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte('<')
	for i, a := range t.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte('>')
	return b.String()
}
