// Package generator implements the three output generators: HTML
// element-tree emission, CSS rule hoisting, and JS emission with
// CHTL-JS lowering. All three build their buffers in one pass over the
// resolved AST.
package generator

import (
	"strings"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
)

// Options controls the generator pass: minification and indent size.
type Options struct {
	Minify     bool
	IndentSize int
}

func (o Options) withDefaults() Options {
	if o.IndentSize <= 0 {
		o.IndentSize = 2
	}
	return o
}

// Output holds the three rendered buffers for one compile job.
type Output struct {
	HTML string
	CSS  string
	JS   string
}

// Generate runs the HTML, CSS, and JS generators over root in one pass
// and returns their rendered buffers.
func Generate(a *ast.Arena, cfg *config.Engine, root ast.Ref, opts Options) Output {
	opts = opts.withDefaults()
	h := newHTMLGen(a, cfg, opts)
	c := newCSSGen(a, cfg, opts)
	j := newJSGen(a, cfg, opts)

	c.collect(root)
	h.emitDoctype(root)
	h.emitChildren(root, 0)
	j.collect(root)

	return Output{
		HTML: h.buf.String(),
		CSS:  c.render(),
		JS:   j.render(),
	}
}

// builder is a small indenting string buffer shared by all three
// generators.
type builder struct {
	buf    strings.Builder
	opts   Options
	indent int
}

func (b *builder) writeIndent() {
	if b.opts.Minify {
		return
	}
	b.buf.WriteString(strings.Repeat(" ", b.indent*b.opts.IndentSize))
}

func (b *builder) newline() {
	if !b.opts.Minify {
		b.buf.WriteByte('\n')
	}
}
