package parser

import (
	"fmt"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/token"
)

const classModifiers = ast.ModStruct | ast.ModReadonly | ast.ModStatic | ast.ModAbstract | ast.ModSealed | ast.ModPartial

// parseClass parses §CL{id:Name[:slot...]} ... §/CL{id}.
//
// The slots after the name are positional only loosely: each word is tried
// as a visibility, then as a modifier keyword (case-insensitive), and only
// then taken as the base type. A base type whose name collides with a
// modifier keyword therefore cannot be expressed in the header.
func (p *Parser) parseClass() *ast.ClassDecl {
	open := p.advance()
	fields := attrFields(open)
	cl := &ast.ClassDecl{}
	if p.requireFields(open, fields, 2, "an id and a name: §CL{id:Name}") {
		cl.BlockID, cl.Name = fields[0], fields[1]
	} else if len(fields) > 0 {
		cl.BlockID = fields[0]
	}
	if len(fields) > 2 {
		p.applyClassSlots(cl, open, fields[2:])
	}

	blk := p.pushBlock(open, cl.BlockID)
	for !p.at(token.EOF) {
		tok := p.peek()
		if tok.Kind == token.Close {
			if p.strayClose() {
				continue
			}
			break
		}
		switch tok.Kind {
		case token.MkField:
			cl.Members = append(cl.Members, p.parseField())
		case token.MkMethod:
			cl.Members = append(cl.Members, p.parseFunc(true))
		case token.MkImplements:
			p.advance()
			if !tok.HasAttrs || strings.TrimSpace(tok.Attrs) == "" {
				p.errAt(diag.SynMissingRequiredAttribute, tok.Span, "§IMP requires an interface name: §IMP{IShape}")
				continue
			}
			for _, name := range splitAttrs(tok.Attrs, ',') {
				if name != "" {
					cl.Implements = append(cl.Implements, &ast.Implements{Meta: p.metaAt(attrsSpan(tok)), Name: name})
				}
			}
		case token.MkAttribute:
			if attr := p.parseAttribute(); attr != nil {
				cl.Attrs = append(cl.Attrs, attr)
			}
		case token.RawBlock:
			p.advance()
			cl.Members = append(cl.Members, &ast.RawDecl{Meta: p.metaAt(tok.Span), Text: tok.Value})
		default:
			p.err(diag.SynUnexpectedToken, fmt.Sprintf("unexpected %s in class %s", describe(tok), cl.Name))
			p.skipStray()
		}
	}
	p.closeBlock(blk)
	cl.Meta = p.meta(open.Span)
	return cl
}

func (p *Parser) applyClassSlots(cl *ast.ClassDecl, open token.Token, slots []string) {
	sp := attrsSpan(open)
	for _, slot := range slots {
		for _, word := range strings.Fields(slot) {
			if vis, ok := ast.ParseVisibility(word); ok {
				if cl.Visibility != ast.VisDefault {
					p.errAt(diag.SynInvalidModifier, sp, "visibility specified twice")
				}
				cl.Visibility = vis
				continue
			}
			if mod, ok := ast.ParseModifier(word); ok {
				if !classModifiers.Has(mod) {
					p.errAt(diag.SynInvalidModifier, sp, fmt.Sprintf("'%s' is not a valid class modifier", word))
					continue
				}
				cl.Modifiers |= mod
				continue
			}
			if cl.Base != "" {
				p.errAt(diag.SynInvalidModifier, sp,
					fmt.Sprintf("unexpected '%s' in class header: base type is already '%s'", word, cl.Base))
				continue
			}
			cl.Base = word
		}
	}

	m := cl.Modifiers
	switch {
	case m.Has(ast.ModStatic) && m.Has(ast.ModStruct):
		p.errAt(diag.SynInvalidModifier, sp, "a struct cannot be static")
	case m.Has(ast.ModAbstract) && m.Has(ast.ModSealed):
		p.errAt(diag.SynInvalidModifier, sp, "a class cannot be both abstract and sealed")
	case m.Has(ast.ModAbstract) && m.Has(ast.ModStatic):
		p.errAt(diag.SynInvalidModifier, sp, "a class cannot be both abstract and static")
	case m.Has(ast.ModAbstract) && m.Has(ast.ModStruct):
		p.errAt(diag.SynInvalidModifier, sp, "a struct cannot be abstract")
	case m.Has(ast.ModReadonly) && !m.Has(ast.ModStruct):
		p.errAt(diag.SynInvalidModifier, sp, "readonly is only valid together with struct")
	case m.Has(ast.ModStruct) && cl.Base != "":
		p.errAt(diag.SynInvalidModifier, sp, fmt.Sprintf("a struct cannot derive from '%s'", cl.Base))
	}
}

// parseField parses §FLD{type:name[:vis][:readonly|static]} [initializer].
func (p *Parser) parseField() *ast.FieldDecl {
	tok := p.advance()
	fields := attrFields(tok)
	fd := &ast.FieldDecl{}
	if p.requireFields(tok, fields, 2, "a type and a name: §FLD{type:name}") {
		fd.Type = p.parseTypeString(fields[0], attrsSpan(tok))
		fd.Name = fields[1]
	}
	if len(fields) > 2 {
		for _, slot := range fields[2:] {
			for _, word := range strings.Fields(slot) {
				if vis, ok := ast.ParseVisibility(word); ok {
					fd.Visibility = vis
					continue
				}
				mod, ok := ast.ParseModifier(word)
				if !ok || (mod != ast.ModReadonly && mod != ast.ModStatic) {
					p.errAt(diag.SynInvalidModifier, attrsSpan(tok),
						fmt.Sprintf("'%s' is not a valid field modifier", word))
					continue
				}
				fd.Modifiers |= mod
			}
		}
	}
	if p.startsExpr() {
		fd.Init = p.parseExpr()
	}
	fd.Meta = p.meta(tok.Span)
	return fd
}

// parseInterface parses §IFC{id:Name[:vis]} with method signatures.
func (p *Parser) parseInterface() *ast.InterfaceDecl {
	open := p.advance()
	fields := attrFields(open)
	ifc := &ast.InterfaceDecl{}
	if p.requireFields(open, fields, 2, "an id and a name: §IFC{id:Name}") {
		ifc.BlockID, ifc.Name = fields[0], fields[1]
	} else if len(fields) > 0 {
		ifc.BlockID = fields[0]
	}
	for _, slot := range fields[min(2, len(fields)):] {
		vis, ok := ast.ParseVisibility(slot)
		if !ok {
			p.errAt(diag.SynInvalidModifier, attrsSpan(open), fmt.Sprintf("'%s' is not a valid interface modifier", slot))
			continue
		}
		ifc.Visibility = vis
	}

	blk := p.pushBlock(open, ifc.BlockID)
	for !p.at(token.EOF) {
		tok := p.peek()
		if tok.Kind == token.Close {
			if p.strayClose() {
				continue
			}
			break
		}
		switch tok.Kind {
		case token.MkMethod:
			m := p.parseFunc(true)
			if len(m.Body) > 0 {
				p.errAt(diag.SynMisplacedClause, m.Body[0].NodeSpan(),
					fmt.Sprintf("interface method %s.%s cannot have a body", ifc.Name, m.Name))
			}
			m.HasBody = false
			m.Body = nil
			ifc.Methods = append(ifc.Methods, m)
		case token.MkAttribute:
			if attr := p.parseAttribute(); attr != nil {
				ifc.Attrs = append(ifc.Attrs, attr)
			}
		default:
			p.err(diag.SynUnexpectedToken, fmt.Sprintf("unexpected %s in interface %s", describe(tok), ifc.Name))
			p.skipStray()
		}
	}
	p.closeBlock(blk)
	ifc.Meta = p.meta(open.Span)
	return ifc
}

// parseEnum parses §EN{id:Name[:underlying]} Red Green = 5 ... §/EN{id}.
func (p *Parser) parseEnum() *ast.EnumDecl {
	open := p.advance()
	fields := attrFields(open)
	en := &ast.EnumDecl{}
	if p.requireFields(open, fields, 2, "an id and a name: §EN{id:Name}") {
		en.BlockID, en.Name = fields[0], fields[1]
	} else if len(fields) > 0 {
		en.BlockID = fields[0]
	}
	for _, slot := range fields[min(2, len(fields)):] {
		if vis, ok := ast.ParseVisibility(slot); ok {
			en.Visibility = vis
			continue
		}
		if en.Underlying != nil {
			p.errAt(diag.SynInvalidModifier, attrsSpan(open), fmt.Sprintf("unexpected '%s' in enum header", slot))
			continue
		}
		en.Underlying = p.parseTypeString(slot, attrsSpan(open))
	}

	blk := p.pushBlock(open, en.BlockID)
	for !p.at(token.EOF) {
		tok := p.peek()
		if tok.Kind == token.Close {
			if p.strayClose() {
				continue
			}
			break
		}
		if tok.Kind == token.Comma {
			p.advance()
			continue
		}
		if tok.Kind == token.MkAttribute {
			if attr := p.parseAttribute(); attr != nil {
				en.Attrs = append(en.Attrs, attr)
			}
			continue
		}
		if tok.Kind != token.Ident {
			p.err(diag.SynUnexpectedToken, fmt.Sprintf("expected enum member name, found %s", describe(tok)))
			p.skipStray()
			continue
		}
		p.advance()
		member := &ast.EnumMember{Name: tok.Value}
		if p.at(token.Assign) {
			p.advance()
			if p.at(token.IntLit) {
				member.Value = p.parseLiteral()
			} else {
				p.err(diag.SynExpectExpression, "expected an integer value for enum member "+tok.Value)
				if !p.atBoundary() {
					p.advance()
				}
			}
		}
		member.Meta = p.meta(tok.Span)
		en.Members = append(en.Members, member)
	}
	p.closeBlock(blk)
	en.Meta = p.meta(open.Span)
	return en
}

// parseExtension parses §EXT{id:Enum} with §MT methods.
func (p *Parser) parseExtension() *ast.ExtensionDecl {
	open := p.advance()
	fields := attrFields(open)
	ext := &ast.ExtensionDecl{}
	if p.requireFields(open, fields, 2, "an id and the extended enum: §EXT{id:Enum}") {
		ext.BlockID, ext.Target = fields[0], fields[1]
	} else if len(fields) > 0 {
		ext.BlockID = fields[0]
	}
	blk := p.pushBlock(open, ext.BlockID)
	for !p.at(token.EOF) {
		tok := p.peek()
		if tok.Kind == token.Close {
			if p.strayClose() {
				continue
			}
			break
		}
		if tok.Kind != token.MkMethod {
			p.err(diag.SynUnexpectedToken, fmt.Sprintf("expected §MT inside extension of %s, found %s", ext.Target, describe(tok)))
			p.skipStray()
			continue
		}
		ext.Methods = append(ext.Methods, p.parseFunc(true))
	}
	p.closeBlock(blk)
	ext.Meta = p.meta(open.Span)
	return ext
}
