// Package parser implements the recursive-descent CHTL parser: token
// stream to AST. It runs a single lexer over
// the whole source file and leans on the state machine (internal/state)
// to gate CHTL-JS syntax inside script blocks, rather than re-lexing
// scanner-sliced fragments one at a time — the fragment scanner remains
// a standalone, independently testable component that the
// parser does not need for the common single-file case.
package parser

import (
	"fmt"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/fragment"
	"github.com/chtl-lang/chtl/internal/lexer"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/token"
)

// Options configures parse limits and strictness.
type Options struct {
	DepthCap int // default 1000
	TokenCap int // default 1,000,000
	Strict   bool
}

func (o Options) withDefaults() Options {
	if o.DepthCap <= 0 {
		o.DepthCap = 1000
	}
	if o.TokenCap <= 0 {
		o.TokenCap = 1_000_000
	}
	return o
}

// bail is panicked on a fatal parse error so recovery can unwind to a
// known synchronization point instead of threading an error return
// through every call in the recursive-descent chain.
type bail struct{}

// Parser consumes one Source's token stream and builds its AST.
type Parser struct {
	log     *logger.Log
	source  *logger.Source
	cfg     *config.Engine
	machine *state.Machine
	arena   *ast.Arena
	lex     *lexer.Lexer

	opts       Options
	tokenCount int
}

// Parse runs the full C5 pass over source and returns the populated
// Arena plus the root Ref. Diagnostics are recorded on log; Parse itself
// only returns an error for conditions that make the result unusable
// (resource caps exceeded, or a fatal error in strict mode).
func Parse(log *logger.Log, source *logger.Source, cfgEngine *config.Engine, machine *state.Machine, opts Options) (arena *ast.Arena, root ast.Ref, err error) {
	opts = opts.withDefaults()
	p := &Parser{
		log:     log,
		source:  source,
		cfg:     cfgEngine,
		machine: machine,
		arena:   ast.NewArena(),
		opts:    opts,
	}
	whole := fragment.Fragment{Text: source.Contents, Range: logger.Range{Start: 0, Len: len(source.Contents)}}
	p.lex = lexer.New(log, source, cfgEngine.Active(), machine, whole)

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bail); ok {
				err = fmt.Errorf("parsing %s: unrecoverable syntax error", source.PrettyPath)
				return
			}
			panic(r)
		}
	}()

	root = p.arena.Root()
	p.parseTopLevel(root)
	return p.arena, root, nil
}

func (p *Parser) errorf(r logger.Range, format string, args ...interface{}) {
	p.log.AddError(p.source, r, logger.KindParse, fmt.Sprintf(format, args...))
}

func (p *Parser) tok() token.Token { return p.lex.Token }

func (p *Parser) at(k token.Kind) bool { return p.lex.Token.Kind == k }

func (p *Parser) advance() token.Token {
	t := p.lex.Token
	p.tokenCount++
	if p.tokenCount > p.opts.TokenCap {
		p.errorf(t.Range, "token stream exceeds the %d token cap", p.opts.TokenCap)
		panic(bail{})
	}
	p.lex.Next()
	return t
}

// expect consumes the current token if it matches k, otherwise records an
// error. In strict mode a mismatch bails out of the whole parse; in
// tolerant mode it leaves the cursor for the caller's recovery logic.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if !p.at(k) {
		p.errorf(p.tok().Range, "expected %v, found %v %q", k, p.tok().Kind, p.tok().Lexeme)
		if p.opts.Strict {
			panic(bail{})
		}
		return token.Token{}, false
	}
	return p.advance(), true
}

func (p *Parser) checkDepth(r logger.Range) {
	if p.machine.Depth() > p.opts.DepthCap {
		p.errorf(r, "nesting exceeds the %d depth cap", p.opts.DepthCap)
		panic(bail{})
	}
}

// recoverTo discards tokens up to and including the next occurrence of
// one of stops, the CHTL grammar's usual statement/block terminators.
// Tolerant mode resynchronizes at the next recognizable boundary
// rather than aborting the whole parse.
func (p *Parser) recoverTo(stops ...token.Kind) {
	for !p.at(token.EOF) {
		k := p.tok().Kind
		for _, s := range stops {
			if k == s {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bail); ok && !p.opts.Strict {
				p.recoverTo(token.Semicolon, token.RBrace)
				return
			}
			panic(r)
		}
	}()
	fn()
}

// pumpComments drains leading comment tokens before an item: generator
// comments ("-- ...") are appended to parent as Comment nodes because
// they must survive into generated output; line/block
// comments are discarded.
func (p *Parser) pumpComments(parent ast.Ref) {
	for {
		switch p.tok().Kind {
		case token.CommentGen:
			t := p.advance()
			p.arena.New(ast.Node{Kind: ast.KindComment, Range: t.Range,
				Data: ast.CommentData{Kind: ast.CommentGenerator, Content: t.Lexeme}}, parent)
		case token.CommentLine, token.CommentBlock:
			p.advance()
		default:
			return
		}
	}
}

// parseTopLevel parses the sequence of top-level declarations: template
// and custom definitions, origin blocks, imports, namespaces,
// configuration groups, use-declarations, info/export blocks, and root
// elements.
func (p *Parser) parseTopLevel(parent ast.Ref) {
	p.parseTopItemsUntil(parent, token.EOF)
}

// parseTopItemsUntil parses top-level-shaped declarations until stop (EOF
// at file scope, RBrace inside a [Namespace] block) is reached.
func (p *Parser) parseTopItemsUntil(parent ast.Ref, stop token.Kind) {
	for {
		p.pumpComments(parent)
		if p.at(stop) || p.at(token.EOF) {
			return
		}
		p.guard(func() { p.parseTopItem(parent) })
	}
}

func (p *Parser) parseTopItem(parent ast.Ref) {
	switch p.tok().Kind {
	case token.BlockTemplate:
		p.parseTemplateOrCustomDef(parent, false)
	case token.BlockCustom:
		p.parseTemplateOrCustomDef(parent, true)
	case token.BlockOrigin:
		p.parseOriginBlock(parent)
	case token.BlockImport:
		p.parseImportDecl(parent)
	case token.BlockNamespace:
		p.parseNamespaceDef(parent)
	case token.BlockConfiguration:
		p.parseConfigurationDef(parent)
	case token.BlockInfo:
		p.parseInfoBlock(parent)
	case token.BlockExport:
		p.parseExportBlock(parent)
	case token.KwUse:
		p.parseUseDecl(parent)
	case token.Ident:
		p.parseElement(parent)
	default:
		p.errorf(p.tok().Range, "unexpected %v %q at top level", p.tok().Kind, p.tok().Lexeme)
		p.advance()
	}
}

// parseElement parses "tagName { ... }".
func (p *Parser) parseElement(parent ast.Ref) ast.Ref {
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		return ast.RefNil
	}
	ref := p.arena.New(ast.Node{Kind: ast.KindElement, Range: nameTok.Range, Data: ast.ElementData{TagName: nameTok.Lexeme}}, parent)

	lbrace, ok := p.expect(token.LBrace)
	if !ok {
		return ref
	}
	p.machine.Push(state.HtmlElement, logger.Loc{Column: lbrace.Range.Start})
	p.checkDepth(lbrace.Range)
	p.parseElementBody(ref)
	p.machine.Pop()
	p.expect(token.RBrace)
	return ref
}

// parseElementBody parses the items legal inside an element's braces:
// attributes, text, nested elements, local style/script blocks, origin
// blocks, references, and inherit/except declarations.
func (p *Parser) parseElementBody(parent ast.Ref) {
	for {
		p.pumpComments(parent)
		switch p.tok().Kind {
		case token.RBrace, token.EOF:
			return
		case token.KwText:
			p.guard(func() { p.parseTextNode(parent) })
		case token.KwStyle:
			p.guard(func() { p.parseLocalStyleBlock(parent) })
		case token.KwScript:
			p.guard(func() { p.parseLocalScriptBlock(parent) })
		case token.KwInherit:
			p.guard(func() { p.parseInheritDecl(parent) })
		case token.KwExcept:
			p.guard(func() { p.parseExceptDecl(parent) })
		case token.BlockOrigin:
			p.guard(func() { p.parseOriginBlock(parent) })
		case token.AtStyle, token.AtElement, token.AtVar:
			p.guard(func() { p.parseReferenceUse(parent) })
		case token.Ident:
			p.guard(func() { p.parseAttributeOrElement(parent) })
		default:
			p.errorf(p.tok().Range, "unexpected %v %q inside element body", p.tok().Kind, p.tok().Lexeme)
			p.advance()
		}
	}
}

// parseAttributeOrElement disambiguates "name: value;"/"name = value;"
// (Attribute) from "name { ... }" (a nested Element) by one token of
// lookahead.
func (p *Parser) parseAttributeOrElement(parent ast.Ref) {
	nameTok := p.advance()
	switch p.tok().Kind {
	case token.Colon, token.Equals:
		p.advance() // CE-equivalence: ':' and '=' are interchangeable
		value, r, unquoted := p.parseValue()
		p.expect(token.Semicolon)
		p.arena.New(ast.Node{Kind: ast.KindAttribute, Range: r,
			Data: ast.AttributeData{Name: nameTok.Lexeme, Value: value, Unquoted: unquoted}}, parent)
	case token.LBrace:
		lbrace := p.advance()
		p.machine.Push(state.HtmlElement, logger.Loc{Column: lbrace.Range.Start})
		p.checkDepth(lbrace.Range)
		ref := p.arena.New(ast.Node{Kind: ast.KindElement, Range: nameTok.Range, Data: ast.ElementData{TagName: nameTok.Lexeme}}, parent)
		p.parseElementBody(ref)
		p.machine.Pop()
		p.expect(token.RBrace)
	default:
		p.errorf(p.tok().Range, "expected ':' or '{' after %q", nameTok.Lexeme)
		p.recoverTo(token.Semicolon, token.RBrace)
	}
}

// parseValue reads either a quoted string or an unquoted literal run,
// returning its text, source range, and whether it was unquoted.
func (p *Parser) parseValue() (string, logger.Range, bool) {
	switch p.tok().Kind {
	case token.StringDouble, token.StringSingle:
		t := p.advance()
		return unquote(t.Lexeme), t.Range, false
	default:
		if raw, r, ok := p.lex.ScanUnquoted(nil); ok {
			return raw, r, true
		}
		return "", p.tok().Range, true
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// parseTextNode parses "text { \"...\" }" or the CE-equivalent shorthand
// "text: \"...\" ;".
func (p *Parser) parseTextNode(parent ast.Ref) {
	kw := p.advance()
	switch p.tok().Kind {
	case token.LBrace:
		p.advance()
		p.pumpComments(parent)
		value, r, unquoted := p.parseValue()
		p.expect(token.RBrace)
		p.arena.New(ast.Node{Kind: ast.KindText, Range: r, Data: ast.TextData{Content: value, Unquoted: unquoted}}, parent)
	case token.Colon, token.Equals:
		p.advance()
		value, r, unquoted := p.parseValue()
		p.expect(token.Semicolon)
		p.arena.New(ast.Node{Kind: ast.KindText, Range: r, Data: ast.TextData{Content: value, Unquoted: unquoted}}, parent)
	default:
		p.errorf(kw.Range, "expected '{' or ':' after 'text'")
		p.recoverTo(token.Semicolon, token.RBrace)
	}
}

func (p *Parser) parseUseDecl(parent ast.Ref) {
	kw := p.advance()
	switch {
	case p.at(token.KwHtml5):
		p.advance()
		p.expect(token.Semicolon)
		p.arena.New(ast.Node{Kind: ast.KindUseDecl, Range: kw.Range, Data: ast.UseDeclData{Kind: ast.UseHTML5}}, parent)
	case p.at(token.AtConfig):
		p.advance()
		name, _ := p.expect(token.Ident)
		p.expect(token.Semicolon)
		p.arena.New(ast.Node{Kind: ast.KindUseDecl, Range: kw.Range, Data: ast.UseDeclData{Kind: ast.UseConfig, ConfigName: name.Lexeme}}, parent)
		if _, err := p.cfg.Activate(name.Lexeme); err != nil {
			p.errorf(name.Range, "%s", err)
		}
	default:
		p.errorf(p.tok().Range, "expected 'html5' or '@Config' after 'use'")
		p.recoverTo(token.Semicolon)
	}
}
