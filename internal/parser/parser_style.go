package parser

import (
	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/token"
)

// parseLocalStyleBlock parses "style { ... }". Selector automation
// consumes this node's Selector children later, during resolution.
func (p *Parser) parseLocalStyleBlock(parent ast.Ref) {
	kw := p.advance()
	lbrace, ok := p.expect(token.LBrace)
	if !ok {
		return
	}
	block := p.arena.New(ast.Node{Kind: ast.KindLocalStyleBlock, Range: kw.Range}, parent)
	p.machine.Push(state.LocalStyle, logger.Loc{Column: lbrace.Range.Start})
	p.checkDepth(lbrace.Range)

	for {
		p.pumpComments(block)
		switch p.tok().Kind {
		case token.RBrace, token.EOF:
			p.machine.Pop()
			p.expect(token.RBrace)
			return
		case token.KwInherit:
			p.guard(func() { p.parseInheritDecl(block) })
		case token.AtStyle:
			p.guard(func() { p.parseReferenceUse(block) })
		case token.Dot, token.Hash, token.Amp:
			p.guard(func() { p.parseSelectorRule(block) })
		case token.Ident:
			p.guard(func() { p.parseInlineDecl(block) })
		default:
			p.errorf(p.tok().Range, "unexpected %v %q inside style block", p.tok().Kind, p.tok().Lexeme)
			p.advance()
		}
	}
}

// parseInlineDecl parses a bare "property: value;" pair, CE-equivalent
// between ':' and '='.
func (p *Parser) parseInlineDecl(parent ast.Ref) {
	nameTok := p.advance()
	if p.at(token.Equals) {
		p.advance()
	} else if _, ok := p.expect(token.Colon); !ok {
		p.recoverTo(token.Semicolon)
		return
	}
	value, r, _ := p.parseValue()
	p.expect(token.Semicolon)
	p.arena.New(ast.Node{Kind: ast.KindInlineDecl, Range: r, Data: ast.InlineDeclData{Property: nameTok.Lexeme, Value: value}}, parent)
}

// parseSelectorRule parses one of the six selector forms: ".class { }",
// "#id { }", "& { }", "&:hover { }", "&::before { }", or a compound tag
// selector.
func (p *Parser) parseSelectorRule(parent ast.Ref) {
	kind, name, start := p.parseSelectorHead()
	lbrace, ok := p.expect(token.LBrace)
	if !ok {
		return
	}
	rule := p.arena.New(ast.Node{Kind: ast.KindSelector, Range: start, Data: ast.SelectorData{Kind: kind, Name: name}}, parent)
	p.machine.Push(state.LocalStyle, logger.Loc{Column: lbrace.Range.Start})
	p.checkDepth(lbrace.Range)
	for {
		p.pumpComments(rule)
		switch p.tok().Kind {
		case token.RBrace, token.EOF:
			p.machine.Pop()
			p.expect(token.RBrace)
			return
		case token.AtStyle:
			p.guard(func() { p.parseReferenceUse(rule) })
		case token.Ident:
			p.guard(func() { p.parseInlineDecl(rule) })
		default:
			p.errorf(p.tok().Range, "unexpected %v inside selector rule", p.tok().Kind)
			p.advance()
		}
	}
}

func (p *Parser) parseSelectorHead() (ast.SelectorKind, string, logger.Range) {
	switch p.tok().Kind {
	case token.Dot:
		start := p.advance()
		name, _ := p.expect(token.Ident)
		return ast.SelClass, name.Lexeme, start.Range
	case token.Hash:
		start := p.advance()
		name, _ := p.expect(token.Ident)
		return ast.SelID, name.Lexeme, start.Range
	case token.Amp:
		start := p.advance()
		if p.at(token.Colon) {
			p.advance()
			double := false
			if p.at(token.Colon) {
				p.advance()
				double = true
			}
			name, _ := p.expect(token.Ident)
			if double {
				return ast.SelPseudoElement, name.Lexeme, start.Range
			}
			return ast.SelPseudoClass, name.Lexeme, start.Range
		}
		return ast.SelRef, "", start.Range
	default:
		name := p.advance()
		return ast.SelCompound, name.Lexeme, name.Range
	}
}
