package parser

import (
	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/token"
)

// parseOriginBlock parses "[Origin] @Html|@Style|@JavaScript|@Type [name]
// { <raw content> }" (a definition) or "[Origin] @Type name;" (a reuse of
// a previously named origin). Origin content is always captured raw.
func (p *Parser) parseOriginBlock(parent ast.Ref) {
	kw := p.advance()
	typeTok := p.advance()
	name := ""
	if p.at(token.Ident) {
		name = p.advance().Lexeme
	}
	if p.at(token.Semicolon) {
		p.advance()
		p.arena.New(ast.Node{Kind: ast.KindReference, Range: kw.Range,
			Data: ast.ReferenceData{Kind: ast.RefOrigin, QualifiedName: name}}, parent)
		return
	}
	if !p.at(token.LBrace) {
		p.expect(token.LBrace)
		return
	}
	p.machine.Push(state.OriginBlock, logger.Loc{Column: kw.Range.Start})
	raw, _ := p.lex.RawBalancedBlock()
	p.machine.Pop()
	p.arena.New(ast.Node{Kind: ast.KindOriginBlock, Range: kw.Range,
		Data: ast.OriginBlockData{OriginType: originKind(typeTok), RawName: typeTok.Lexeme, Name: name, RawContent: raw}}, parent)
}

func originKind(t token.Token) ast.OriginKind {
	switch t.Kind {
	case token.AtHtml:
		return ast.OriginHTML
	case token.AtStyle:
		return ast.OriginStyle
	case token.AtJavaScript:
		return ast.OriginJavaScript
	default:
		return ast.OriginKind(t.Lexeme)
	}
}

// parseImportDecl parses "[Import] @Kind Symbol|* from \"path\" [as
// alias];".
func (p *Parser) parseImportDecl(parent ast.Ref) {
	kw := p.advance()
	kindTok := p.advance()
	symbol := ""
	wildcard := false
	if p.at(token.Star) {
		p.advance()
		wildcard = true
	} else if p.at(token.Ident) {
		symbol = p.advance().Lexeme
	}
	if _, ok := p.expect(token.KwFrom); !ok {
		p.recoverTo(token.Semicolon)
		return
	}
	path, _, _ := p.parseValue()
	alias := ""
	if p.at(token.KwAs) {
		p.advance()
		aliasTok, _ := p.expect(token.Ident)
		alias = aliasTok.Lexeme
	}
	p.expect(token.Semicolon)
	p.arena.New(ast.Node{Kind: ast.KindImportDecl, Range: kw.Range,
		Data: ast.ImportDeclData{Kind: importKind(kindTok), Path: path, Symbol: symbol, Alias: alias, Wildcard: wildcard}}, parent)
}

func importKind(t token.Token) ast.ImportKind {
	switch t.Kind {
	case token.AtStyle:
		return ast.ImportTemplate
	case token.AtElement:
		return ast.ImportTemplate
	case token.AtVar:
		return ast.ImportTemplate
	case token.AtChtl:
		return ast.ImportChtl
	case token.AtCJmod:
		return ast.ImportCJmod
	case token.AtConfig:
		return ast.ImportConfig
	default:
		return ast.ImportOrigin
	}
}

// parseNamespaceDef parses "[Namespace] name { ... }". Namespaces nest:
// a namespace declared inside another becomes a child of it.
func (p *Parser) parseNamespaceDef(parent ast.Ref) {
	kw := p.advance()
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		return
	}
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	ns := p.arena.New(ast.Node{Kind: ast.KindNamespace, Range: kw.Range, Data: ast.NamespaceData{Name: nameTok.Lexeme}}, parent)
	p.machine.Push(state.Namespace, logger.Loc{Column: kw.Range.Start})
	p.checkDepth(kw.Range)
	p.parseTopItemsUntil(ns, token.RBrace)
	p.machine.Pop()
	p.expect(token.RBrace)
}

// parseConfigurationDef parses "[Configuration] @Config Name { ... }",
// including nested [Name] alias and [OriginType] groups.
func (p *Parser) parseConfigurationDef(parent ast.Ref) {
	kw := p.advance()
	p.expect(token.AtConfig)
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		return
	}
	inheritsFrom := ""
	if p.at(token.KwInherit) {
		p.advance()
		parentTok, _ := p.expect(token.Ident)
		inheritsFrom = parentTok.Lexeme
	}
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	p.machine.Push(state.Configuration, logger.Loc{Column: kw.Range.Start})

	options := map[string]string{}
	nameAliases := map[string]string{}
	var originTypes []string

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.pumpComments(parent)
		switch p.tok().Kind {
		case token.BlockName:
			p.advance()
			p.expect(token.LBrace)
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				if _, core := token.CoreKeywords[p.tok().Lexeme]; !core && !p.at(token.Ident) {
					p.expect(token.Ident)
					p.recoverTo(token.Semicolon, token.RBrace)
					continue
				}
				keyTok := p.advance()
				if !p.at(token.Colon) && !p.at(token.Equals) {
					p.recoverTo(token.Semicolon)
					continue
				}
				p.advance()
				value, _, _ := p.parseValue()
				p.expect(token.Semicolon)
				nameAliases[keyTok.Lexeme] = value
			}
			p.expect(token.RBrace)
		case token.BlockOriginType:
			p.advance()
			p.expect(token.LBrace)
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				t := p.advance()
				originTypes = append(originTypes, t.Lexeme)
				if p.at(token.Comma) || p.at(token.Semicolon) {
					p.advance()
				}
			}
			p.expect(token.RBrace)
		case token.Ident:
			keyTok := p.advance()
			if !p.at(token.Colon) && !p.at(token.Equals) {
				p.recoverTo(token.Semicolon)
				continue
			}
			p.advance()
			value, _, _ := p.parseValue()
			p.expect(token.Semicolon)
			options[keyTok.Lexeme] = value
		default:
			p.errorf(p.tok().Range, "unexpected %v in configuration block", p.tok().Kind)
			p.advance()
		}
	}
	p.machine.Pop()
	p.expect(token.RBrace)

	p.arena.New(ast.Node{Kind: ast.KindConfigurationGroup, Range: kw.Range,
		Data: ast.ConfigurationGroupData{Name: nameTok.Lexeme, InheritsFrom: inheritsFrom, Options: options, NameAliases: nameAliases, OriginTypes: originTypes}}, parent)

	if _, err := p.cfg.Register(nameTok.Lexeme, options, nil, nameAliases, originTypes, inheritsFrom); err != nil {
		p.errorf(nameTok.Range, "%s", err)
	}
}

// parseInfoBlock parses "[Info] { key: \"value\"; ... }", the free-form
// module metadata block.
func (p *Parser) parseInfoBlock(parent ast.Ref) {
	kw := p.advance()
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	entries := map[string]string{}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		keyTok, ok := p.expect(token.Ident)
		if !ok {
			p.recoverTo(token.Semicolon, token.RBrace)
			continue
		}
		if !p.at(token.Colon) && !p.at(token.Equals) {
			p.recoverTo(token.Semicolon)
			continue
		}
		p.advance()
		value, _, _ := p.parseValue()
		p.expect(token.Semicolon)
		entries[keyTok.Lexeme] = value
	}
	p.expect(token.RBrace)
	p.arena.New(ast.Node{Kind: ast.KindInfoBlock, Range: kw.Range, Data: ast.InfoBlockData{Entries: entries}}, parent)
}

// parseExportBlock parses "[Export] { Name1; Name2; }", which restricts
// the names that a `from` clause naming the enclosing namespace can
// resolve. Imports of the file are not filtered by it.
func (p *Parser) parseExportBlock(parent ast.Ref) {
	kw := p.advance()
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	var names []string
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		nameTok, ok := p.expect(token.Ident)
		if !ok {
			p.recoverTo(token.Semicolon, token.RBrace)
			continue
		}
		names = append(names, nameTok.Lexeme)
		if p.at(token.Comma) || p.at(token.Semicolon) {
			p.advance()
		}
	}
	p.expect(token.RBrace)
	p.arena.New(ast.Node{Kind: ast.KindExportBlock, Range: kw.Range, Data: ast.ExportBlockData{Names: names}}, parent)
}
