package format

import (
	"strings"

	"sigil/internal/ast"
)

// marker writes §TAG{fields} on a fresh line. Empty trailing fields are
// dropped; a marker without fields is written bare.
func (p *printer) marker(tag string, fields ...string) {
	p.exprOpen = false
	p.writer.Newline()
	p.writer.WriteString("§" + tag)
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) > 0 {
		p.writer.WriteString("{" + strings.Join(fields, ":") + "}")
	}
}

// closeMarker writes §/TAG{id} on its own line.
func (p *printer) closeMarker(tag, id string) {
	p.exprOpen = false
	p.writer.Newline()
	p.writer.WriteString("§/" + tag + "{" + id + "}")
	p.writer.Newline()
}

// slots lists the non-empty header words after id and name.
func slots(vis ast.Visibility, mods ast.Modifiers, extra ...string) []string {
	var out []string
	if s := vis.Short(); s != "" {
		out = append(out, s)
	}
	out = append(out, mods.Names()...)
	for _, e := range extra {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (p *printer) printModule(mod *ast.Module) {
	p.marker("M", mod.BlockID, mod.Name)
	for _, u := range mod.Usings {
		p.marker("U", u.Namespace)
	}
	for i, d := range mod.Decls {
		if i > 0 || len(mod.Usings) > 0 {
			p.writer.BlankLine()
		}
		p.printDecl(d)
	}
	if len(mod.Attrs) > 0 {
		p.writer.BlankLine()
		p.printAttrs(mod.Attrs)
	}
	p.closeMarker("M", mod.BlockID)
}

func (p *printer) printDecl(d ast.Decl) {
	switch d := d.(type) {
	case *ast.FuncDecl:
		p.printFunc("F", d)
	case *ast.ClassDecl:
		p.printClass(d)
	case *ast.InterfaceDecl:
		p.printInterface(d)
	case *ast.EnumDecl:
		p.printEnum(d)
	case *ast.ExtensionDecl:
		p.marker("EXT", d.BlockID, d.Target)
		p.writer.IndentPush()
		for _, m := range d.Methods {
			p.printFunc("MT", m)
		}
		p.writer.IndentPop()
		p.closeMarker("EXT", d.BlockID)
	case *ast.RawDecl:
		p.printRaw(d.Text)
	}
}

func (p *printer) printAttrs(attrs []*ast.Attribute) {
	for _, a := range attrs {
		p.marker("AT", append([]string{a.Name}, a.Args...)...)
	}
}

func (p *printer) printRaw(text string) {
	p.writer.Newline()
	p.writer.WriteString("§RAW")
	p.writer.WriteVerbatim(text)
	p.writer.WriteVerbatim("§/RAW")
	p.writer.Newline()
}

func (p *printer) printFunc(tag string, fn *ast.FuncDecl) {
	p.marker(tag, append([]string{fn.BlockID, fn.Name}, slots(fn.Visibility, fn.Modifiers)...)...)
	p.writer.IndentPush()
	for _, prm := range fn.Params {
		p.marker("I", Type(prm.Type), prm.Name, prm.Mode.String())
	}
	if fn.Output != nil {
		p.marker("O", Type(fn.Output))
	}
	if fn.Effects != nil && len(fn.Effects.Items) > 0 {
		items := make([]string, 0, len(fn.Effects.Items))
		for _, it := range fn.Effects.Items {
			items = append(items, it.Kind+":"+it.Cap)
		}
		p.writer.Newline()
		p.writer.WriteString("§E{" + strings.Join(items, ",") + "}")
	}
	p.printContracts("Q", fn.Requires)
	p.printContracts("S", fn.Ensures)
	p.printAttrs(fn.Attrs)
	p.printStmts(fn.Body)
	p.writer.IndentPop()
	p.closeMarker(tag, fn.BlockID)
}

func (p *printer) printContracts(tag string, cs []*ast.Contract) {
	for _, c := range cs {
		p.marker(tag)
		p.writer.WriteString(" " + Expr(c.Cond))
		if c.Message != "" {
			p.writer.WriteString(" " + quote(c.Message))
		}
	}
}

func (p *printer) printClass(cl *ast.ClassDecl) {
	p.marker("CL", append([]string{cl.BlockID, cl.Name}, slots(cl.Visibility, cl.Modifiers, cl.Base)...)...)
	p.writer.IndentPush()
	p.printAttrs(cl.Attrs)
	if len(cl.Implements) > 0 {
		names := make([]string, 0, len(cl.Implements))
		for _, imp := range cl.Implements {
			names = append(names, imp.Name)
		}
		p.writer.Newline()
		p.writer.WriteString("§IMP{" + strings.Join(names, ",") + "}")
	}
	for _, m := range cl.Members {
		switch m := m.(type) {
		case *ast.FieldDecl:
			p.marker("FLD", append([]string{Type(m.Type), m.Name}, slots(m.Visibility, m.Modifiers)...)...)
			if m.Init != nil {
				p.writer.WriteString(" " + Expr(m.Init))
			}
		case *ast.FuncDecl:
			p.printFunc("MT", m)
		case *ast.RawDecl:
			p.printRaw(m.Text)
		}
	}
	p.writer.IndentPop()
	p.closeMarker("CL", cl.BlockID)
}

func (p *printer) printInterface(ifc *ast.InterfaceDecl) {
	p.marker("IFC", ifc.BlockID, ifc.Name, ifc.Visibility.Short())
	p.writer.IndentPush()
	p.printAttrs(ifc.Attrs)
	for _, m := range ifc.Methods {
		p.printFunc("MT", m)
	}
	p.writer.IndentPop()
	p.closeMarker("IFC", ifc.BlockID)
}

func (p *printer) printEnum(en *ast.EnumDecl) {
	fields := []string{en.BlockID, en.Name}
	if s := en.Visibility.Short(); s != "" {
		fields = append(fields, s)
	}
	if en.Underlying != nil {
		fields = append(fields, Type(en.Underlying))
	}
	p.marker("EN", fields...)
	p.writer.IndentPush()
	p.printAttrs(en.Attrs)
	for _, m := range en.Members {
		p.writer.Newline()
		p.writer.WriteString(m.Name)
		if m.Value != nil {
			p.writer.WriteString(" = " + literal(m.Value))
		}
	}
	p.writer.IndentPop()
	p.closeMarker("EN", en.BlockID)
}
