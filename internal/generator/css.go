package generator

import (
	"fmt"
	"strings"

	"github.com/mazznoer/csscolorparser"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
)

type cssRule struct {
	selector string
	decls    []ast.InlineDeclData
}

type cssGen struct {
	builder
	a     *ast.Arena
	cfg   *config.Engine
	rules []cssRule
}

func newCSSGen(a *ast.Arena, cfg *config.Engine, opts Options) *cssGen {
	return &cssGen{builder: builder{opts: opts}, a: a, cfg: cfg}
}

// collect walks the tree hoisting every local style block into either a
// `style="..."` attribute on its owning element (bare, unselected
// declarations — preferred) or a top-level CSS rule (selector rules).
func (g *cssGen) collect(ref ast.Ref) {
	node := g.a.Get(ref)
	if node.Kind == ast.KindElement {
		for _, c := range node.Children {
			if g.a.Get(c).Kind == ast.KindLocalStyleBlock {
				g.collectStyleBlock(ref, c)
			}
		}
	}
	for _, c := range node.Children {
		g.collect(c)
	}
}

func (g *cssGen) collectStyleBlock(owner, block ast.Ref) {
	var inline []ast.InlineDeclData
	ownerSelector := elementBaseSelector(g.a, owner)
	for _, c := range g.a.Get(block).Children {
		switch data := g.a.Get(c).Data.(type) {
		case ast.InlineDeclData:
			inline = append(inline, data)
		case ast.SelectorData:
			g.collectSelectorRule(c, data, ownerSelector)
		}
	}
	if len(inline) == 0 {
		return
	}
	if !hasAttr(g.a, owner, "style") {
		g.a.New(ast.Node{Kind: ast.KindAttribute,
			Data: ast.AttributeData{Name: "style", Value: renderDecls(inline, true)}}, owner)
	}
}

func (g *cssGen) collectSelectorRule(ref ast.Ref, data ast.SelectorData, ownerSelector string) {
	var decls []ast.InlineDeclData
	for _, c := range g.a.Get(ref).Children {
		if d, ok := g.a.Get(c).Data.(ast.InlineDeclData); ok {
			decls = append(decls, d)
		}
	}
	g.rules = append(g.rules, cssRule{selector: selectorText(data, ownerSelector), decls: decls})
}

// elementBaseSelector returns the selector an owning element resolves to
// for "&" purposes: its class attribute, else its id, else its tag name
// (selector automation has already run by generation time).
func elementBaseSelector(a *ast.Arena, ref ast.Ref) string {
	class, id := "", ""
	for _, c := range a.Get(ref).Children {
		if attr, ok := a.Get(c).Data.(ast.AttributeData); ok {
			if attr.Name == "class" && class == "" {
				class = attr.Value
			}
			if attr.Name == "id" && id == "" {
				id = attr.Value
			}
		}
	}
	if class != "" {
		return "." + class
	}
	if id != "" {
		return "#" + id
	}
	if el, ok := a.Get(ref).Data.(ast.ElementData); ok {
		return el.TagName
	}
	return "*"
}

func selectorText(data ast.SelectorData, ownerSelector string) string {
	switch data.Kind {
	case ast.SelClass:
		return "." + data.Name
	case ast.SelID:
		return "#" + data.Name
	case ast.SelPseudoClass:
		return ownerSelector + ":" + data.Name
	case ast.SelPseudoElement:
		return ownerSelector + "::" + data.Name
	default:
		return data.Name
	}
}

func hasAttr(a *ast.Arena, ref ast.Ref, name string) bool {
	for _, c := range a.Get(ref).Children {
		if attr, ok := a.Get(c).Data.(ast.AttributeData); ok && attr.Name == name {
			return true
		}
	}
	return false
}

func renderDecls(decls []ast.InlineDeclData, inline bool) string {
	var b strings.Builder
	for i, d := range decls {
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(normalizeValue(d.Value))
		b.WriteByte(';')
		if inline && i < len(decls)-1 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// normalizeValue passes CSS color literals through csscolorparser for
// validation only. The generator always emits the author's literal
// value unchanged: "color: red" stays "color: red", never
// re-canonicalized to "#ff0000".
func normalizeValue(v string) string {
	trimmed := strings.TrimSpace(v)
	if looksLikeColor(trimmed) {
		_, _ = csscolorparser.Parse(trimmed)
	}
	return v
}

func looksLikeColor(v string) bool {
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "#") || strings.HasPrefix(lower, "rgb") ||
		strings.HasPrefix(lower, "hsl") || isNamedColor(lower)
}

var namedColors = map[string]bool{
	"red": true, "blue": true, "green": true, "black": true, "white": true,
	"yellow": true, "orange": true, "purple": true, "gray": true, "grey": true,
	"transparent": true, "currentcolor": true,
}

func isNamedColor(v string) bool { return namedColors[v] }

func (g *cssGen) render() string {
	if len(g.rules) == 0 {
		return ""
	}
	var b strings.Builder
	for _, rule := range g.rules {
		fmt.Fprintf(&b, "%s {", rule.selector)
		if !g.opts.Minify {
			b.WriteByte('\n')
		}
		for _, d := range rule.decls {
			if !g.opts.Minify {
				b.WriteString(strings.Repeat(" ", g.opts.IndentSize))
			}
			b.WriteString(d.Property)
			b.WriteString(": ")
			b.WriteString(normalizeValue(d.Value))
			b.WriteByte(';')
			if !g.opts.Minify {
				b.WriteByte('\n')
			}
		}
		b.WriteString("}")
		if !g.opts.Minify {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
