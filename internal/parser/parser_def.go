package parser

import (
	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/token"
)

// parseTemplateOrCustomDef parses "[Template] @Style|@Element|@Var Name {
// ... }" and its Custom twin.
func (p *Parser) parseTemplateOrCustomDef(parent ast.Ref, isCustom bool) {
	kw := p.advance()
	typeTok := p.advance()
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		return
	}
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	stateKind := state.TemplateBlock
	if isCustom {
		stateKind = state.CustomBlock
	}
	p.machine.Push(stateKind, logger.Loc{Column: kw.Range.Start})
	p.checkDepth(kw.Range)

	switch typeTok.Kind {
	case token.AtStyle:
		p.parseStyleDef(parent, kw.Range, nameTok.Lexeme, isCustom)
	case token.AtElement:
		p.parseElementDef(parent, kw.Range, nameTok.Lexeme, isCustom)
	case token.AtVar:
		p.parseVarDef(parent, kw.Range, nameTok.Lexeme, isCustom)
	default:
		p.errorf(typeTok.Range, "expected @Style, @Element, or @Var after %v", kw.Kind)
	}
	p.machine.Pop()
	p.expect(token.RBrace)
}

func (p *Parser) parseStyleDef(parent ast.Ref, r logger.Range, name string, isCustom bool) {
	var props []ast.InlineDeclData
	var valueless []string
	var inherits []ast.Ref
	var specOps []ast.Ref
	def := p.arena.New(ast.Node{Kind: ast.KindTemplateStyle, Range: r}, parent) // kind fixed up below

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.pumpComments(def)
		switch p.tok().Kind {
		case token.KwInherit:
			inherits = append(inherits, p.parseInheritReferenceOnly(def))
		case token.KwDelete:
			if ref := p.parseSpecOp(def, true); ref != ast.RefNil {
				specOps = append(specOps, ref)
			}
		case token.KwModify:
			if ref := p.parseModifyOp(def); ref != ast.RefNil {
				specOps = append(specOps, ref)
			}
		case token.Ident:
			nameTok := p.advance()
			if p.at(token.Semicolon) {
				p.advance()
				if isCustom {
					valueless = append(valueless, nameTok.Lexeme)
				} else {
					p.errorf(nameTok.Range, "template style property %q must have a value", nameTok.Lexeme)
				}
				continue
			}
			if !p.at(token.Colon) && !p.at(token.Equals) {
				p.errorf(p.tok().Range, "expected ':' after property %q", nameTok.Lexeme)
				p.recoverTo(token.Semicolon)
				continue
			}
			p.advance()
			value, _, _ := p.parseValue()
			p.expect(token.Semicolon)
			props = append(props, ast.InlineDeclData{Property: nameTok.Lexeme, Value: value})
		default:
			p.errorf(p.tok().Range, "unexpected %v in style definition", p.tok().Kind)
			p.advance()
		}
	}

	base := ast.TemplateStyleData{Name: name, Properties: props, Inherits: inherits}
	node := p.arena.Get(def)
	if isCustom {
		node.Kind = ast.KindCustomStyle
		node.Data = ast.CustomStyleData{TemplateStyleData: base, ValuelessKeys: valueless, SpecOps: specOps}
	} else {
		node.Kind = ast.KindTemplateStyle
		node.Data = base
	}
}

func (p *Parser) parseElementDef(parent ast.Ref, r logger.Range, name string, isCustom bool) {
	var inherits []ast.Ref
	var specOps []ast.Ref
	def := p.arena.New(ast.Node{Kind: ast.KindTemplateElement, Range: r}, parent)

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.pumpComments(def)
		switch p.tok().Kind {
		case token.KwInherit:
			inherits = append(inherits, p.parseInheritReferenceOnly(def))
		case token.KwDelete:
			if ref := p.parseSpecOp(def, false); ref != ast.RefNil {
				specOps = append(specOps, ref)
			}
		case token.KwInsert:
			if ref := p.parseInsertOp(def); ref != ast.RefNil {
				specOps = append(specOps, ref)
			}
		case token.KwReplace:
			if ref := p.parseReplaceOp(def); ref != ast.RefNil {
				specOps = append(specOps, ref)
			}
		case token.KwText:
			p.parseTextNode(def)
		case token.KwStyle:
			p.parseLocalStyleBlock(def)
		case token.KwScript:
			p.parseLocalScriptBlock(def)
		case token.AtStyle, token.AtElement, token.AtVar:
			p.parseReferenceUse(def)
		case token.BlockOrigin:
			p.parseOriginBlock(def)
		case token.Ident:
			p.parseAttributeOrElement(def)
		default:
			p.errorf(p.tok().Range, "unexpected %v in element definition", p.tok().Kind)
			p.advance()
		}
	}

	base := ast.TemplateElementData{Name: name, Inherits: inherits}
	node := p.arena.Get(def)
	if isCustom {
		node.Kind = ast.KindCustomElement
		node.Data = ast.CustomElementData{TemplateElementData: base, SpecOps: specOps}
	} else {
		node.Kind = ast.KindTemplateElement
		node.Data = base
	}
}

func (p *Parser) parseVarDef(parent ast.Ref, r logger.Range, name string, isCustom bool) {
	vars := map[string]string{}
	var order []string
	var inherits []ast.Ref
	def := p.arena.New(ast.Node{Kind: ast.KindTemplateVar, Range: r}, parent)

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.pumpComments(def)
		switch p.tok().Kind {
		case token.KwInherit:
			inherits = append(inherits, p.parseInheritReferenceOnly(def))
		case token.Ident:
			keyTok := p.advance()
			if !p.at(token.Colon) && !p.at(token.Equals) {
				p.errorf(p.tok().Range, "expected ':' after variable %q", keyTok.Lexeme)
				p.recoverTo(token.Semicolon)
				continue
			}
			p.advance()
			value, _, _ := p.parseValue()
			p.expect(token.Semicolon)
			if _, exists := vars[keyTok.Lexeme]; !exists {
				order = append(order, keyTok.Lexeme)
			}
			vars[keyTok.Lexeme] = value
		default:
			p.errorf(p.tok().Range, "unexpected %v in variable group", p.tok().Kind)
			p.advance()
		}
	}

	base := ast.TemplateVarData{Name: name, Vars: vars, VarOrder: order, Inherits: inherits}
	node := p.arena.Get(def)
	if isCustom {
		node.Kind = ast.KindCustomVar
		node.Data = ast.CustomVarData{TemplateVarData: base}
	} else {
		node.Kind = ast.KindTemplateVar
		node.Data = base
	}
}

// parseInheritDecl parses "inherit @Style|@Element|@Var Name [from ns];"
// as a standalone element/style-block child.
func (p *Parser) parseInheritDecl(parent ast.Ref) {
	kw := p.advance()
	ref := p.parseReferenceHead(parent, false)
	p.expect(token.Semicolon)
	p.arena.New(ast.Node{Kind: ast.KindInheritNode, Range: kw.Range, Data: ast.InheritNodeData{Reference: ref}}, parent)
}

// parseInheritReferenceOnly is used inside Template/Custom definition
// bodies, where the Reference is also recorded directly in the
// definition's own Inherits slice.
func (p *Parser) parseInheritReferenceOnly(parent ast.Ref) ast.Ref {
	p.advance() // 'inherit'
	ref := p.parseReferenceHead(parent, false)
	p.expect(token.Semicolon)
	return ref
}

// parseExceptDecl parses "except target[, target]*;", a constraint
// forbidding specific children/specializations.
func (p *Parser) parseExceptDecl(parent ast.Ref) {
	kw := p.advance()
	var targets []string
	for {
		switch p.tok().Kind {
		case token.Ident:
			targets = append(targets, p.advance().Lexeme)
		case token.AtStyle, token.AtElement, token.AtVar, token.AtHtml, token.AtJavaScript, token.AtChtl, token.AtUserType:
			targets = append(targets, p.advance().Lexeme)
		default:
			p.errorf(p.tok().Range, "expected identifier in except list")
		}
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.Semicolon)
	p.arena.New(ast.Node{Kind: ast.KindExceptNode, Range: kw.Range, Data: ast.ExceptNodeData{Targets: targets}}, parent)
}

// parseReferenceUse parses a Template/Custom reference at a use-site:
// "@Style|@Element|@Var Name[(key)] [from ns] [{ specblock }];".
func (p *Parser) parseReferenceUse(parent ast.Ref) {
	ref := p.parseReferenceHead(parent, true)
	_ = ref
}

// parseReferenceHead parses the "@Kind Name[(key)] [from ns]" portion and,
// when allowSpecBlock, an optional trailing "{ specblock }"; otherwise a
// bare ";" terminates it (used by inherit, which never takes a spec
// block).
func (p *Parser) parseReferenceHead(parent ast.Ref, allowSpecBlock bool) ast.Ref {
	typeTok := p.advance()
	kind, styleScope := referenceKind(typeTok.Kind)
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		return ast.RefNil
	}
	varKey := ""
	if kind == ast.RefTemplateVar || kind == ast.RefCustomVar {
		if p.at(token.LParen) {
			p.advance()
			keyTok, _ := p.expect(token.Ident)
			varKey = keyTok.Lexeme
			p.expect(token.RParen)
		}
	}
	from := ""
	if p.at(token.KwFrom) {
		p.advance()
		from = p.parseDottedName()
	}

	data := ast.ReferenceData{Kind: kind, QualifiedName: nameTok.Lexeme, From: from, VarKey: varKey}
	ref := p.arena.New(ast.Node{Kind: ast.KindReference, Range: nameTok.Range}, parent)

	if allowSpecBlock && p.at(token.LBrace) {
		p.advance()
		data.SpecArgs = p.parseSpecBlock(ref, styleScope)
		p.expect(token.RBrace)
	} else {
		p.expect(token.Semicolon)
	}
	p.arena.Get(ref).Data = data
	return ref
}

func (p *Parser) parseDottedName() string {
	name, _ := p.expect(token.Ident)
	out := name.Lexeme
	for p.at(token.Dot) {
		p.advance()
		n, _ := p.expect(token.Ident)
		out += "." + n.Lexeme
	}
	return out
}

func referenceKind(k token.Kind) (ast.ReferenceKind, bool) {
	switch k {
	case token.AtStyle:
		return ast.RefTemplateStyle, true
	case token.AtElement:
		return ast.RefTemplateElement, false
	case token.AtVar:
		return ast.RefTemplateVar, true
	default:
		return ast.RefTemplateStyle, true
	}
}

// parseSpecBlock parses the body of a Custom reference's use-site
// specialization block: property overrides, nested element children, and
// delete/insert/replace/modify ops, applied in declared order.
func (p *Parser) parseSpecBlock(parent ast.Ref, styleScope bool) []ast.Ref {
	var out []ast.Ref
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.pumpComments(parent)
		switch p.tok().Kind {
		case token.KwDelete:
			if ref := p.parseSpecOp(parent, styleScope); ref != ast.RefNil {
				out = append(out, ref)
			}
		case token.KwInsert:
			if ref := p.parseInsertOp(parent); ref != ast.RefNil {
				out = append(out, ref)
			}
		case token.KwReplace:
			if ref := p.parseReplaceOp(parent); ref != ast.RefNil {
				out = append(out, ref)
			}
		case token.KwModify:
			if ref := p.parseModifyOp(parent); ref != ast.RefNil {
				out = append(out, ref)
			}
		case token.Ident:
			if styleScope {
				nameTok := p.advance()
				if !p.at(token.Colon) && !p.at(token.Equals) {
					p.errorf(p.tok().Range, "expected ':' after property %q", nameTok.Lexeme)
					p.recoverTo(token.Semicolon)
					continue
				}
				p.advance()
				value, r, _ := p.parseValue()
				p.expect(token.Semicolon)
				out = append(out, p.arena.New(ast.Node{Kind: ast.KindInlineDecl, Range: r,
					Data: ast.InlineDeclData{Property: nameTok.Lexeme, Value: value}}, parent))
			} else {
				out = append(out, p.parseElement(parent))
			}
		case token.KwText:
			p.parseTextNode(parent)
		default:
			p.errorf(p.tok().Range, "unexpected %v in specialization block", p.tok().Kind)
			p.advance()
		}
	}
	return out
}

func (p *Parser) parseSpecOp(parent ast.Ref, styleScope bool) ast.Ref {
	kw := p.advance()
	switch {
	case p.tok().IsMarker:
		t := p.advance()
		p.expect(token.Semicolon)
		return p.arena.New(ast.Node{Kind: ast.KindDeleteInherit, Range: kw.Range, Data: ast.DeleteInheritData{QualifiedName: t.Lexeme}}, parent)
	case styleScope:
		var last ast.Ref = ast.RefNil
		for {
			nameTok, ok := p.expect(token.Ident)
			if !ok {
				break
			}
			last = p.arena.New(ast.Node{Kind: ast.KindDeleteProp, Range: nameTok.Range, Data: ast.DeletePropData{Property: nameTok.Lexeme}}, parent)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		p.expect(token.Semicolon)
		return last
	default:
		sel := p.parseSimpleSelectorString()
		p.expect(token.Semicolon)
		return p.arena.New(ast.Node{Kind: ast.KindDeleteElement, Range: kw.Range, Data: ast.DeleteElementData{Selector: sel}}, parent)
	}
}

func (p *Parser) parseInsertOp(parent ast.Ref) ast.Ref {
	kw := p.advance()
	pos := ast.PosAfter
	switch p.tok().Kind {
	case token.KwAfter:
		p.advance()
		pos = ast.PosAfter
	case token.KwBefore:
		p.advance()
		pos = ast.PosBefore
	case token.KwAtTop:
		p.advance()
		pos = ast.PosAtTop
	case token.KwAtBottom:
		p.advance()
		pos = ast.PosAtBottom
	}
	sel := p.parseSimpleSelectorString()
	body := ast.RefNil
	if _, ok := p.expect(token.LBrace); ok {
		body = p.parseElement(ast.RefNil)
		p.expect(token.RBrace)
	}
	return p.arena.New(ast.Node{Kind: ast.KindInsertElement, Range: kw.Range, Data: ast.InsertElementData{Position: pos, Selector: sel, Body: body}}, parent)
}

func (p *Parser) parseReplaceOp(parent ast.Ref) ast.Ref {
	kw := p.advance()
	sel := p.parseSimpleSelectorString()
	body := ast.RefNil
	if _, ok := p.expect(token.LBrace); ok {
		body = p.parseElement(ast.RefNil)
		p.expect(token.RBrace)
	}
	return p.arena.New(ast.Node{Kind: ast.KindReplaceElement, Range: kw.Range, Data: ast.ReplaceElementData{Selector: sel, Body: body}}, parent)
}

func (p *Parser) parseModifyOp(parent ast.Ref) ast.Ref {
	kw := p.advance()
	nameTok, _ := p.expect(token.Ident)
	if !p.at(token.Colon) && !p.at(token.Equals) {
		p.errorf(p.tok().Range, "expected ':' after modify target %q", nameTok.Lexeme)
		p.recoverTo(token.Semicolon)
		return ast.RefNil
	}
	p.advance()
	value, _, _ := p.parseValue()
	p.expect(token.Semicolon)
	return p.arena.New(ast.Node{Kind: ast.KindModifyProp, Range: kw.Range, Data: ast.ModifyPropData{Property: nameTok.Lexeme, Value: value}}, parent)
}

func (p *Parser) parseSimpleSelectorString() string {
	switch p.tok().Kind {
	case token.Dot:
		p.advance()
		name, _ := p.expect(token.Ident)
		return "." + name.Lexeme
	case token.Hash:
		p.advance()
		name, _ := p.expect(token.Ident)
		return "#" + name.Lexeme
	case token.Amp:
		p.advance()
		return "&"
	default:
		name, _ := p.expect(token.Ident)
		return name.Lexeme
	}
}
