package generator

import (
	"html"
	"sort"
	"strings"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
)

// voidElements never get a closing tag (HTML5 spec).
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type htmlGen struct {
	builder
	a   *ast.Arena
	cfg *config.Engine
}

func newHTMLGen(a *ast.Arena, cfg *config.Engine, opts Options) *htmlGen {
	return &htmlGen{builder: builder{opts: opts}, a: a, cfg: cfg}
}

// emitDoctype writes "<!DOCTYPE html>" when a `use html5;` declaration
// is present among root's direct children.
func (g *htmlGen) emitDoctype(root ast.Ref) {
	for _, c := range g.a.Get(root).Children {
		if d, ok := g.a.Get(c).Data.(ast.UseDeclData); ok && d.Kind == ast.UseHTML5 {
			g.buf.WriteString("<!DOCTYPE html>")
			g.newline()
			return
		}
	}
}

// emitChildren renders every HTML-relevant child of ref at the given
// indent depth.
func (g *htmlGen) emitChildren(ref ast.Ref, depth int) {
	g.indent = depth
	for _, c := range g.a.Get(ref).Children {
		g.emitNode(c, depth)
	}
}

func (g *htmlGen) emitNode(ref ast.Ref, depth int) {
	node := g.a.Get(ref)
	switch data := node.Data.(type) {
	case ast.ElementData:
		g.emitElement(ref, data, depth)
	case ast.TextData:
		g.indent = depth
		g.writeIndent()
		if data.Unquoted {
			g.buf.WriteString(data.Content)
		} else {
			g.buf.WriteString(html.EscapeString(data.Content))
		}
		g.newline()
	case ast.CommentData:
		if data.Kind == ast.CommentGenerator {
			g.indent = depth
			g.writeIndent()
			g.buf.WriteString("<!-- ")
			g.buf.WriteString(data.Content)
			g.buf.WriteString(" -->")
			g.newline()
		}
	case ast.OriginBlockData:
		if data.OriginType == ast.OriginHTML {
			g.indent = depth
			g.writeIndent()
			g.buf.WriteString(strings.TrimSpace(data.RawContent))
			g.newline()
		}
	}
}

// emitElement writes "<tag attrs>children</tag>", attribute order id,
// class, then insertion order.
func (g *htmlGen) emitElement(ref ast.Ref, data ast.ElementData, depth int) {
	g.indent = depth
	g.writeIndent()
	g.buf.WriteByte('<')
	g.buf.WriteString(data.TagName)

	attrs := collectAttrs(g.a, ref)
	for _, attr := range orderAttrs(attrs) {
		g.buf.WriteByte(' ')
		g.buf.WriteString(attr.Name)
		g.buf.WriteString(`="`)
		g.buf.WriteString(html.EscapeString(attr.Value))
		g.buf.WriteByte('"')
	}

	hasContent := hasHTMLContent(g.a, ref)
	if voidElements[data.TagName] && !hasContent {
		g.buf.WriteString(">")
		g.newline()
		return
	}
	g.buf.WriteByte('>')
	g.newline()
	g.emitChildren(ref, depth+1)
	g.indent = depth
	g.writeIndent()
	g.buf.WriteString("</")
	g.buf.WriteString(data.TagName)
	g.buf.WriteByte('>')
	g.newline()
}

func hasHTMLContent(a *ast.Arena, ref ast.Ref) bool {
	for _, c := range a.Get(ref).Children {
		switch a.Get(c).Kind {
		case ast.KindElement, ast.KindText, ast.KindComment:
			return true
		case ast.KindOriginBlock:
			if d, ok := a.Get(c).Data.(ast.OriginBlockData); ok && d.OriginType == ast.OriginHTML {
				return true
			}
		}
	}
	return false
}

func collectAttrs(a *ast.Arena, ref ast.Ref) []ast.AttributeData {
	var out []ast.AttributeData
	for _, c := range a.Get(ref).Children {
		if attr, ok := a.Get(c).Data.(ast.AttributeData); ok {
			out = append(out, attr)
		}
	}
	return out
}

// orderAttrs puts id first, class second, and preserves insertion order
// for everything else.
func orderAttrs(attrs []ast.AttributeData) []ast.AttributeData {
	out := append([]ast.AttributeData(nil), attrs...)
	sort.SliceStable(out, func(i, j int) bool {
		return attrRank(out[i].Name) < attrRank(out[j].Name)
	})
	return out
}

func attrRank(name string) int {
	switch name {
	case "id":
		return 0
	case "class":
		return 1
	default:
		return 2
	}
}
