package parser

import (
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/token"
)

// parseModule parses §M{id:Name} ... §/M{id}. Input without a module marker
// is still parsed into an anonymous module so later passes have a tree.
func (p *Parser) parseModule() *ast.Module {
	start := p.peek().Span
	mod := &ast.Module{}
	if !p.at(token.MkModule) {
		p.err(diag.SynUnexpectedTopLevel, "expected §M{id:Name} at the start of the file, found "+describe(p.peek()))
		p.parseModuleBody(mod)
		for !p.at(token.EOF) {
			p.skipStray()
			p.parseModuleBody(mod)
		}
		mod.Meta = p.meta(start)
		return mod
	}

	open := p.advance()
	fields := attrFields(open)
	if p.requireFields(open, fields, 2, "an id and a name: §M{id:Name}") {
		mod.BlockID, mod.Name = fields[0], fields[1]
	} else if len(fields) > 0 {
		mod.BlockID = fields[0]
	}
	blk := p.pushBlock(open, mod.BlockID)
	p.parseModuleBody(mod)
	p.closeBlock(blk)

	for !p.at(token.EOF) {
		p.err(diag.SynUnexpectedTopLevel, "unexpected "+describe(p.peek())+" after the end of the module")
		p.advance()
		p.resyncToMarker()
	}
	mod.Meta = p.meta(start)
	return mod
}

// parseModuleBody reads declarations until a closing marker or EOF.
func (p *Parser) parseModuleBody(mod *ast.Module) {
	var pending []*ast.Attribute
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.Close:
			if p.strayClose() {
				continue
			}
			fallthrough
		case token.EOF:
			if len(pending) > 0 {
				mod.Attrs = append(mod.Attrs, pending...)
			}
			return
		case token.MkUsing:
			p.advance()
			fields := attrFields(tok)
			if p.requireFields(tok, fields, 1, "a namespace: §U{System.Text}") {
				mod.Usings = append(mod.Usings, &ast.Using{Meta: p.metaAt(tok.Span), Namespace: fields[0]})
			}
		case token.MkAttribute:
			if attr := p.parseAttribute(); attr != nil {
				pending = append(pending, attr)
			}
		case token.MkFunc:
			fn := p.parseFunc(false)
			fn.Attrs = append(pending, fn.Attrs...)
			pending = nil
			mod.Decls = append(mod.Decls, fn)
		case token.MkClass:
			cl := p.parseClass()
			cl.Attrs = append(pending, cl.Attrs...)
			pending = nil
			mod.Decls = append(mod.Decls, cl)
		case token.MkInterface:
			ifc := p.parseInterface()
			ifc.Attrs = append(pending, ifc.Attrs...)
			pending = nil
			mod.Decls = append(mod.Decls, ifc)
		case token.MkEnum:
			en := p.parseEnum()
			en.Attrs = append(pending, en.Attrs...)
			pending = nil
			mod.Decls = append(mod.Decls, en)
		case token.MkExtension:
			mod.Decls = append(mod.Decls, p.parseExtension())
		case token.RawBlock:
			p.advance()
			mod.Decls = append(mod.Decls, &ast.RawDecl{Meta: p.metaAt(tok.Span), Text: tok.Value})
		default:
			p.err(diag.SynUnexpectedTopLevel, fmt.Sprintf("unexpected %s at module level", describe(tok)))
			p.skipStray()
		}
	}
}

// skipStray drops one unexpected token together with its operands.
func (p *Parser) skipStray() {
	if p.at(token.EOF) {
		return
	}
	p.advance()
	p.resyncToMarker()
}

// parseAttribute parses §AT{Name[:arg...]}.
func (p *Parser) parseAttribute() *ast.Attribute {
	tok := p.advance()
	fields := attrFields(tok)
	if !p.requireFields(tok, fields, 1, "an attribute name: §AT{Name[:arg]}") {
		return nil
	}
	return &ast.Attribute{Meta: p.metaAt(tok.Span), Name: fields[0], Args: fields[1:]}
}
