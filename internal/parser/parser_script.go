package parser

import (
	"strconv"
	"strings"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/token"
)

// parseLocalScriptBlock parses "script { ... }".
// The block's body is captured raw and then lazily re-scanned for
// CHTL-JS sugar (enhanced selectors, arrow chains, listen/delegate/
// animate calls, vir declarations); everything else stays RawJS.
func (p *Parser) parseLocalScriptBlock(parent ast.Ref) {
	kw := p.advance()
	if !p.at(token.LBrace) {
		p.expect(token.LBrace)
		return
	}
	block := p.arena.New(ast.Node{Kind: ast.KindLocalScriptBlock, Range: kw.Range}, parent)
	p.machine.Push(state.LocalScript, logger.Loc{Column: kw.Range.Start})
	p.checkDepth(kw.Range)

	raw, r := p.lex.RawBalancedBlock()
	p.machine.Pop()
	p.parseScriptBody(raw, r.Start, block)
}

// parseScriptBody scans raw for "{{" enhanced-selector chains and "vir"
// declarations, emitting everything in between as RawJS nodes.
func (p *Parser) parseScriptBody(raw string, base int, parent ast.Ref) {
	i, n := 0, len(raw)
	lastCut := 0
	emitRaw := func(end int) {
		if end > lastCut && strings.TrimSpace(raw[lastCut:end]) != "" {
			p.arena.New(ast.Node{Kind: ast.KindRawJS, Range: logger.Range{Start: base + lastCut, Len: end - lastCut},
				Data: ast.RawJSData{Content: raw[lastCut:end]}}, parent)
		}
	}
	for i < n {
		switch {
		case raw[i] == '"' || raw[i] == '\'' || raw[i] == '`':
			i = skipQuotedRaw(raw, i)
		case strings.HasPrefix(raw[i:], "{{"):
			emitRaw(i)
			i = p.parseChain(raw, i, base, parent)
			lastCut = i
		case wordAt(raw, i, "vir"):
			emitRaw(i)
			i = p.parseVirDecl(raw, i, base, parent)
			lastCut = i
		default:
			i++
		}
	}
	emitRaw(n)
}

// parseChain parses "{{selector}}" followed by any number of chained
// "->member", "->listen(...)", "->delegate(...)", "->animate(...)", and
// "&->event(...)" suffixes, returning the index just past the chain.
func (p *Parser) parseChain(raw string, i, base int, parent ast.Ref) int {
	cur, i := p.parseEnhancedSelector(raw, i, base, parent)
	for {
		j := skipWSRaw(raw, i)
		switch {
		case strings.HasPrefix(raw[j:], "&->"):
			cur, i = p.parseEventBind(raw, j+3, base, parent, cur)
		case strings.HasPrefix(raw[j:], "->"):
			member, k := identAt(raw, skipWSRaw(raw, j+2))
			switch member {
			case "listen":
				cur, i = p.parseListenCall(raw, k, base, parent, cur)
			case "delegate":
				cur, i = p.parseDelegateCall(raw, k, base, parent, cur)
			case "animate":
				cur, i = p.parseAnimateCall(raw, k, base, parent, cur)
			default:
				arrowRef := p.arena.New(ast.Node{Kind: ast.KindArrow, Range: logger.Range{Start: base + j, Len: k - j},
					Data: ast.ArrowData{LHS: cur, RHSMember: member}}, parent)
				cur, i = arrowRef, k
			}
		default:
			return i
		}
	}
}

func (p *Parser) parseEnhancedSelector(raw string, i, base int, parent ast.Ref) (ast.Ref, int) {
	start := i
	close := strings.Index(raw[i+2:], "}}")
	var inner string
	var end int
	if close < 0 {
		inner = raw[i+2:]
		end = len(raw)
	} else {
		inner = raw[i+2 : i+2+close]
		end = i + 2 + close + 2
	}
	data := ast.EnhancedSelectorData{Raw: inner}
	if lb := strings.LastIndexByte(inner, '['); lb >= 0 && strings.HasSuffix(inner, "]") {
		if idx, err := strconv.Atoi(inner[lb+1 : len(inner)-1]); err == nil {
			data.Raw = inner[:lb]
			data.Index = idx
			data.HasIndex = true
		}
	}
	ref := p.arena.New(ast.Node{Kind: ast.KindEnhancedSelector, Range: logger.Range{Start: base + start, Len: end - start}, Data: data}, parent)
	return ref, end
}

func (p *Parser) parseEventBind(raw string, i, base int, parent ast.Ref, lhs ast.Ref) (ast.Ref, int) {
	i = skipWSRaw(raw, i)
	event, i := identAt(raw, i)
	i = skipWSRaw(raw, i)
	body := ""
	if i < len(raw) && raw[i] == '(' {
		close := findMatching(raw, i, '(', ')')
		body = raw[i+1 : close]
		i = close + 1
	}
	i = skipOptSemi(raw, i)
	ref := p.arena.New(ast.Node{Kind: ast.KindEventBind, Range: logger.Range{Start: base, Len: i - base},
		Data: ast.EventBindData{LHS: lhs, Event: event, Body: body}}, parent)
	return ref, i
}

// parseCallObject reads "(" <object-literal> ")" and returns its parsed
// entries plus the index just past the closing paren.
func (p *Parser) parseCallObject(raw string, i int) ([]kv, int) {
	i = skipWSRaw(raw, i)
	if i >= len(raw) || raw[i] != '(' {
		return nil, i
	}
	closeParen := findMatching(raw, i, '(', ')')
	inner := strings.TrimSpace(raw[i+1 : closeParen])
	var entries []kv
	if strings.HasPrefix(inner, "{") {
		ob := findMatching(inner, 0, '{', '}')
		entries = parseObjectEntries(inner[1:ob])
	}
	return entries, closeParen + 1
}

func (p *Parser) parseListenCall(raw string, i, base int, parent ast.Ref, target ast.Ref) (ast.Ref, int) {
	entries, i := p.parseCallObject(raw, i)
	i = skipOptSemi(raw, i)
	data := ast.ListenCallData{Target: target}
	for _, e := range entries {
		data.Entries = append(data.Entries, ast.ListenEntry{Event: e.Key, Handler: e.Value})
	}
	ref := p.arena.New(ast.Node{Kind: ast.KindListenCall, Range: logger.Range{Start: base, Len: i - base}, Data: data}, parent)
	return ref, i
}

func (p *Parser) parseDelegateCall(raw string, i, base int, parent ast.Ref, target ast.Ref) (ast.Ref, int) {
	entries, i := p.parseCallObject(raw, i)
	i = skipOptSemi(raw, i)
	data := ast.DelegateCallData{Parent: target}
	for _, e := range entries {
		switch e.Key {
		case "target":
			for _, sel := range splitTopLevel(strings.Trim(e.Value, "[]"), ',') {
				sel = strings.Trim(strings.TrimSpace(sel), `"'`)
				if sel != "" {
					data.Children = append(data.Children, sel)
				}
			}
		default:
			data.Entries = append(data.Entries, ast.ListenEntry{Event: e.Key, Handler: e.Value})
		}
	}
	ref := p.arena.New(ast.Node{Kind: ast.KindDelegateCall, Range: logger.Range{Start: base, Len: i - base}, Data: data}, parent)
	return ref, i
}

func (p *Parser) parseAnimateCall(raw string, i, base int, parent ast.Ref, target ast.Ref) (ast.Ref, int) {
	entries, i := p.parseCallObject(raw, i)
	i = skipOptSemi(raw, i)
	data := ast.AnimateCallData{Target: target}
	for _, e := range entries {
		switch e.Key {
		case "duration":
			data.Duration = e.Value
		case "easing":
			data.Easing = e.Value
		case "loop":
			data.Loop = e.Value
		case "delay":
			data.Delay = e.Value
		case "keyframes":
			data.Keyframes = parseKeyframes(e.Value)
		}
	}
	ref := p.arena.New(ast.Node{Kind: ast.KindAnimateCall, Range: logger.Range{Start: base, Len: i - base}, Data: data}, parent)
	return ref, i
}

// parseKeyframes parses an animate() "keyframes" value shaped as an
// object literal keyed by stop position, e.g. "{ 0: {opacity: 0}, 1: {
// opacity: 1} }".
func parseKeyframes(raw string) []ast.Keyframe {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil
	}
	close := findMatching(raw, 0, '{', '}')
	var out []ast.Keyframe
	for _, e := range parseObjectEntries(raw[1:close]) {
		at, err := strconv.ParseFloat(strings.TrimSuffix(e.Key, "%"), 64)
		if err != nil {
			continue
		}
		if strings.HasSuffix(e.Key, "%") {
			at /= 100
		}
		kf := ast.Keyframe{At: at, Styles: map[string]string{}}
		v := strings.TrimSpace(e.Value)
		if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
			for _, prop := range parseObjectEntries(v[1 : len(v)-1]) {
				kf.Styles[prop.Key] = prop.Value
				kf.Order = append(kf.Order, prop.Key)
			}
		}
		out = append(out, kf)
	}
	return out
}

// parseVirDecl parses "vir name = listen { ... }" (the "= listen" part
// may be left out): a named virtual object whose body is shaped like a
// listen() call.
func (p *Parser) parseVirDecl(raw string, i, base int, parent ast.Ref) int {
	start := i
	i = skipWSRaw(raw, i+3)
	name, i := identAt(raw, i)
	i = skipWSRaw(raw, i)
	if i < len(raw) && raw[i] == '=' {
		_, i = identAt(raw, skipWSRaw(raw, i+1))
		i = skipWSRaw(raw, i)
	}
	if i >= len(raw) || raw[i] != '{' {
		return i
	}
	close := findMatching(raw, i, '{', '}')
	entries := parseObjectEntries(raw[i+1 : close])
	i = close + 1
	i = skipOptSemi(raw, i)

	bodyData := ast.ListenCallData{Target: ast.RefNil}
	for _, e := range entries {
		bodyData.Entries = append(bodyData.Entries, ast.ListenEntry{Event: e.Key, Handler: e.Value})
	}
	bodyRef := p.arena.New(ast.Node{Kind: ast.KindListenCall, Data: bodyData}, ast.RefNil)
	p.arena.New(ast.Node{Kind: ast.KindVirDeclaration, Range: logger.Range{Start: base + start, Len: i - start},
		Data: ast.VirDeclarationData{Name: name, Body: bodyRef}}, parent)
	return i
}

func skipOptSemi(raw string, i int) int {
	i = skipWSRaw(raw, i)
	if i < len(raw) && raw[i] == ';' {
		i++
	}
	return i
}
