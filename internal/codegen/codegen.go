// Package codegen emits C# source for a checked module.
//
// Output is a pure function of the annotated tree: declarations are written
// in source order, nothing depends on map iteration, and no timestamps or
// paths beyond Options.SourceName reach the text.
package codegen

import (
	"fmt"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/contracts"
	"sigil/internal/sema"
	"sigil/internal/symbols"
)

// GlobalModule is the module name that suppresses the namespace wrapper.
const GlobalModule = "global"

// RuntimeNamespace holds Option, Result and ContractViolationException.
const RuntimeNamespace = "Sigil.Runtime"

// Options carries the analysis results the generator reads. Any of them may
// be nil; the generator then falls back to what the tree alone says.
type Options struct {
	Symbols   *symbols.Table
	Sema      *sema.Result
	Contracts *contracts.Result
	// SourceName is mentioned in the header comment when set.
	SourceName string
	// Indent defaults to four spaces.
	Indent string
}

var defaultUsings = []string{
	"System",
	"System.Collections.Generic",
	"System.Linq",
	"System.Threading.Tasks",
	RuntimeNamespace,
}

// Generate returns the C# translation of mod.
func Generate(mod *ast.Module, opts Options) string {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	g := &generator{opts: opts, mod: mod}
	if mod == nil {
		return ""
	}
	g.module()
	return g.sb.String()
}

type generator struct {
	opts   Options
	mod    *ast.Module
	sb     strings.Builder
	indent int

	// fn is the function whose body is being written.
	fn *funcState
	// inModuleClass is set while writing the static module class.
	inModuleClass bool
	// self replaces `this` inside extension methods.
	self string
}

func (g *generator) emit(s string) {
	g.sb.WriteString(s)
}

func (g *generator) emitLine(s string) {
	if s == "" {
		g.sb.WriteString("\n")
		return
	}
	g.sb.WriteString(g.indentStr())
	g.sb.WriteString(s)
	g.sb.WriteString("\n")
}

func (g *generator) emitLinef(format string, args ...any) {
	g.emitLine(fmt.Sprintf(format, args...))
}

func (g *generator) incIndent() { g.indent++ }

func (g *generator) decIndent() { g.indent-- }

func (g *generator) indentStr() string {
	return strings.Repeat(g.opts.Indent, g.indent)
}

// open writes an Allman brace and indents.
func (g *generator) open() {
	g.emitLine("{")
	g.incIndent()
}

func (g *generator) close(suffix string) {
	g.decIndent()
	g.emitLine("}" + suffix)
}

// ModuleClass names the static class holding a module's functions.
func ModuleClass(name string) string {
	if name == "" || name == GlobalModule {
		return "GlobalModule"
	}
	return name + "Module"
}

func (g *generator) module() {
	header := "// <auto-generated>Generated by sigil. Do not edit.</auto-generated>"
	if g.opts.SourceName != "" {
		header = fmt.Sprintf("// <auto-generated>Generated by sigil from %s. Do not edit.</auto-generated>", g.opts.SourceName)
	}
	g.emitLine(header)
	g.emitLine("#nullable enable")
	g.emitLine("")

	seen := map[string]bool{}
	for _, u := range defaultUsings {
		seen[u] = true
		g.emitLinef("using %s;", u)
	}
	for _, u := range g.mod.Usings {
		if !seen[u.Namespace] {
			seen[u.Namespace] = true
			g.emitLinef("using %s;", u.Namespace)
		}
	}
	g.emitLine("")

	wrapped := g.mod.Name != GlobalModule
	if wrapped {
		g.emitLinef("namespace %s", g.mod.Name)
		g.open()
	}

	first := true
	sep := func() {
		if !first {
			g.emitLine("")
		}
		first = false
	}

	// module attributes apply to the module class
	var funcs []*ast.FuncDecl
	var raws []*ast.RawDecl
	for _, d := range g.mod.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			funcs = append(funcs, d)
		case *ast.RawDecl:
			raws = append(raws, d)
		}
	}
	if len(funcs) > 0 || len(g.mod.Attrs) > 0 {
		sep()
		g.moduleClass(funcs)
	}
	for _, d := range g.mod.Decls {
		switch d := d.(type) {
		case *ast.ClassDecl:
			sep()
			g.class(d)
		case *ast.InterfaceDecl:
			sep()
			g.iface(d)
		case *ast.EnumDecl:
			sep()
			g.enum(d)
		case *ast.ExtensionDecl:
			sep()
			g.extension(d)
		}
	}
	for _, r := range raws {
		sep()
		g.raw(r.Text)
	}

	if wrapped {
		g.close("")
	}
}

func (g *generator) moduleClass(funcs []*ast.FuncDecl) {
	g.attributes(g.mod.Attrs)
	g.emitLinef("public static class %s", ModuleClass(g.mod.Name))
	g.open()
	g.inModuleClass = true
	for i, fn := range funcs {
		if i > 0 {
			g.emitLine("")
		}
		g.function(fn, memberModule, "")
	}
	g.inModuleClass = false
	g.close("")
}

func (g *generator) attributes(attrs []*ast.Attribute) {
	for _, a := range attrs {
		if len(a.Args) == 0 {
			g.emitLinef("[%s]", a.Name)
			continue
		}
		g.emitLinef("[%s(%s)]", a.Name, strings.Join(a.Args, ", "))
	}
}

// raw writes a passthrough block verbatim apart from surrounding space.
func (g *generator) raw(text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		g.emitLine(strings.TrimRight(line, " \t\r"))
	}
}
