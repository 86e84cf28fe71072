package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/ast"
)

func TestArenaParentLinksAreConsistent(t *testing.T) {
	a := ast.NewArena()
	div := a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "div"}}, a.Root())
	text := a.New(ast.Node{Kind: ast.KindText, Data: ast.TextData{Content: "hi"}}, div)

	assert.True(t, a.ValidateParentLinks())
	assert.Equal(t, div, a.Parent(text))
	assert.Equal(t, []ast.Ref{div}, a.Get(a.Root()).Children)
}

func TestRemoveAndInsertChildKeepOrder(t *testing.T) {
	a := ast.NewArena()
	div := a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "div"}}, a.Root())
	h1 := a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "h1"}}, div)
	p := a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "p"}}, div)

	a.RemoveChild(div, h1)
	require.Equal(t, []ast.Ref{p}, a.Get(div).Children)

	span := a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "span"}}, ast.RefNil)
	a.InsertChildAt(div, 1, span)
	assert.Equal(t, []ast.Ref{p, span}, a.Get(div).Children)
	assert.True(t, a.ValidateParentLinks())
}

func TestWalkIsDepthFirstLeftToRight(t *testing.T) {
	a := ast.NewArena()
	div := a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "div"}}, a.Root())
	a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "h1"}}, div)
	a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "p"}}, div)

	var order []string
	a.Walk(a.Root(), func(ref ast.Ref, n *ast.Node) {
		if n.Kind == ast.KindElement {
			order = append(order, n.Data.(ast.ElementData).TagName)
		}
	})
	assert.Equal(t, []string{"div", "h1", "p"}, order)
}

func TestCloneDuplicatesSubtree(t *testing.T) {
	a := ast.NewArena()
	div := a.New(ast.Node{Kind: ast.KindElement, Data: ast.ElementData{TagName: "div"}}, a.Root())
	a.New(ast.Node{Kind: ast.KindText, Data: ast.TextData{Content: "hi"}}, div)

	clone := a.Clone(div, a.Root())
	require.NotEqual(t, div, clone)
	assert.Len(t, a.Get(clone).Children, 1)
	assert.True(t, a.ValidateParentLinks())
}
