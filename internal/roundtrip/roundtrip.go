// Package roundtrip validates generated output by parsing it back with
// the real grammars for HTML, CSS, and JavaScript ("generated
// output is syntactically valid in its target language" invariant).
// It never inspects the AST it gets back — a parse producing an error
// node anywhere in the tree is enough to fail validation.
package roundtrip

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// Language selects which grammar Validate parses with.
type Language int

const (
	HTML Language = iota
	CSS
	JS
)

func (l Language) String() string {
	switch l {
	case HTML:
		return "html"
	case CSS:
		return "css"
	case JS:
		return "javascript"
	default:
		return "unknown"
	}
}

var pools = map[Language]*sync.Pool{
	HTML: newPool(tree_sitter_html.Language()),
	CSS:  newPool(tree_sitter_css.Language()),
	JS:   newPool(tree_sitter_javascript.Language()),
}

func newPool(lang func() *sitter.Language) *sync.Pool {
	return &sync.Pool{
		New: func() any {
			p := sitter.NewParser()
			_ = p.SetLanguage(sitter.NewLanguage(lang()))
			return p
		},
	}
}

// Validate parses src with lang's grammar and reports the first syntax
// error tree-sitter's error-recovery surfaces, if any. A nil result
// means src is well-formed lang.
func Validate(lang Language, src string) error {
	pool, ok := pools[lang]
	if !ok {
		return fmt.Errorf("roundtrip: unknown language %v", lang)
	}
	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)

	tree := parser.Parse([]byte(src), nil)
	if tree == nil {
		return fmt.Errorf("roundtrip: %s parser produced no tree", lang)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			start, end := int(bad.StartByte()), int(bad.EndByte())
			if end > start+40 {
				end = start + 40
			}
			if end > len(src) {
				end = len(src)
			}
			if start > end {
				start = end
			}
			return fmt.Errorf("roundtrip: invalid %s output at byte %d: %q", lang, start, src[start:end])
		}
		return fmt.Errorf("roundtrip: invalid %s output", lang)
	}
	return nil
}

// firstError walks the tree depth-first for the first ERROR node or
// MISSING token tree-sitter's error recovery inserted.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			if bad := firstError(child); bad != nil {
				return bad
			}
		}
	}
	return nil
}
