package parser

import (
	"fmt"
	"strings"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/effects"
	"sigil/internal/token"
)

func isHeaderClause(k token.Kind) bool {
	switch k {
	case token.MkIn, token.MkOut, token.MkEffects, token.MkRequires, token.MkEnsures, token.MkAttribute:
		return true
	}
	return false
}

// parseFunc parses §F (method=false) or §MT (method=true) blocks.
func (p *Parser) parseFunc(method bool) *ast.FuncDecl {
	open := p.advance()
	fields := attrFields(open)
	fn := &ast.FuncDecl{HasBody: true}
	what := fmt.Sprintf("an id and a name: §%s{id:Name}", markerShort(open.Kind))
	if p.requireFields(open, fields, 2, what) {
		fn.BlockID, fn.Name = fields[0], fields[1]
	} else if len(fields) > 0 {
		fn.BlockID = fields[0]
	}
	if len(fields) > 2 {
		p.applyFuncSlots(fn, open, fields[2:], method)
	}

	blk := p.pushBlock(open, fn.BlockID)
	sawStmt := false
	for !p.at(token.EOF) {
		tok := p.peek()
		if tok.Kind == token.Close {
			if p.strayClose() {
				continue
			}
			break
		}
		if isHeaderClause(tok.Kind) {
			if sawStmt {
				p.errAt(diag.SynMisplacedClause, tok.Span,
					fmt.Sprintf("%s must appear before the first statement of %s", describe(tok), fn.Name))
			}
			p.parseHeaderClause(fn)
			continue
		}
		if st := p.parseStmt(); st != nil {
			fn.Body = append(fn.Body, st)
			sawStmt = true
		}
	}
	p.closeBlock(blk)
	if fn.Modifiers.Has(ast.ModAbstract) && len(fn.Body) == 0 {
		fn.HasBody = false
	}
	fn.Meta = p.meta(open.Span)
	return fn
}

func (p *Parser) applyFuncSlots(fn *ast.FuncDecl, open token.Token, slots []string, method bool) {
	for _, slot := range slots {
		for _, word := range strings.Fields(slot) {
			if vis, ok := ast.ParseVisibility(word); ok {
				if fn.Visibility != ast.VisDefault {
					p.errAt(diag.SynInvalidModifier, attrsSpan(open), "visibility specified twice")
				}
				fn.Visibility = vis
				continue
			}
			mod, ok := ast.ParseModifier(word)
			allowed := ast.ModAsync
			if method {
				allowed |= ast.ModVirtual | ast.ModOverride | ast.ModAbstract | ast.ModStatic
			}
			if !ok || !allowed.Has(mod) {
				p.errAt(diag.SynInvalidModifier, attrsSpan(open),
					fmt.Sprintf("'%s' is not a valid modifier for %s", word, fn.Name))
				continue
			}
			fn.Modifiers |= mod
		}
	}
	switch m := fn.Modifiers; {
	case m.Has(ast.ModAbstract) && m.Has(ast.ModVirtual):
		p.errAt(diag.SynInvalidModifier, attrsSpan(open), "a method cannot be both abstract and virtual")
	case m.Has(ast.ModStatic) && (m.Has(ast.ModVirtual) || m.Has(ast.ModOverride) || m.Has(ast.ModAbstract)):
		p.errAt(diag.SynInvalidModifier, attrsSpan(open), "a static method cannot be virtual, override or abstract")
	}
}

func (p *Parser) parseHeaderClause(fn *ast.FuncDecl) {
	tok := p.peek()
	switch tok.Kind {
	case token.MkIn:
		p.advance()
		if param := p.parseParam(tok); param != nil {
			fn.Params = append(fn.Params, param)
		}
	case token.MkOut:
		p.advance()
		fields := attrFields(tok)
		if !p.requireFields(tok, fields, 1, "a type: §O{type}") {
			return
		}
		if fn.Output != nil {
			p.errAt(diag.SynMisplacedClause, tok.Span, "output type declared twice")
		}
		fn.Output = p.parseTypeString(fields[0], attrsSpan(tok))
		if fn.Output.Name == "void" && fn.Output.Elem == nil {
			fn.Output = nil
		}
	case token.MkEffects:
		p.advance()
		fn.Effects = p.parseEffects(tok, fn.Effects)
	case token.MkRequires, token.MkEnsures:
		p.advance()
		c := p.parseContract(tok)
		if tok.Kind == token.MkRequires {
			fn.Requires = append(fn.Requires, c)
		} else {
			fn.Ensures = append(fn.Ensures, c)
		}
	case token.MkAttribute:
		if attr := p.parseAttribute(); attr != nil {
			fn.Attrs = append(fn.Attrs, attr)
		}
	}
}

// parseParam parses §I{type:name[:ref|out|params]}.
func (p *Parser) parseParam(tok token.Token) *ast.Param {
	fields := attrFields(tok)
	if !p.requireFields(tok, fields, 2, "a type and a name: §I{type:name}") {
		return nil
	}
	param := &ast.Param{Name: fields[1], Type: p.parseTypeString(fields[0], attrsSpan(tok))}
	if len(fields) > 2 {
		switch strings.ToLower(fields[2]) {
		case "ref":
			param.Mode = ast.ParamRef
		case "out":
			param.Mode = ast.ParamOut
		case "params", "variadic":
			param.Mode = ast.ParamVariadic
		default:
			p.errAt(diag.SynInvalidModifier, attrsSpan(tok),
				fmt.Sprintf("unknown parameter modifier '%s' (expected ref, out or params)", fields[2]))
		}
	}
	param.Meta = p.metaAt(tok.Span)
	return param
}

// parseEffects parses §E{fs:r,io:w}. Repeated §E markers accumulate.
func (p *Parser) parseEffects(tok token.Token, into *ast.EffectDecl) *ast.EffectDecl {
	if into == nil {
		into = &ast.EffectDecl{Meta: p.metaAt(tok.Span)}
	} else {
		into.Span = into.Span.Cover(tok.Span)
	}
	if !tok.HasAttrs {
		p.errAt(diag.SynMissingRequiredAttribute, tok.Span, "§E requires a list of effects: §E{fs:r,io:w}")
		return into
	}
	for _, item := range splitAttrs(tok.Attrs, ',') {
		if item == "" {
			continue
		}
		parts := splitAttrs(item, ':')
		if len(parts) != 2 {
			p.errAt(diag.SynInvalidEffect, attrsSpan(tok),
				fmt.Sprintf("effect '%s' must be written kind:capability", item))
			continue
		}
		eff, err := effects.Parse(parts[0], parts[1])
		if err != nil {
			p.errAt(diag.SynInvalidEffect, attrsSpan(tok), err.Error())
			continue
		}
		into.Items = append(into.Items, &ast.EffectItem{
			Meta: p.metaAt(attrsSpan(tok)),
			Kind: eff.Kind.String(),
			Cap:  eff.Cap.String(),
		})
	}
	return into
}

// parseContract parses the operand of §Q / §S: an expression and an
// optional message string.
func (p *Parser) parseContract(tok token.Token) *ast.Contract {
	c := &ast.Contract{Cond: p.parseExpr()}
	if p.at(token.StringLit) {
		c.Message = p.advance().Value
	}
	c.Meta = p.meta(tok.Span)
	return c
}
