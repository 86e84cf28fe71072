package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/cache"
)

func TestGetOrParseOnlyCallsParseOnceForIdenticalContent(t *testing.T) {
	c := cache.NewParseCache(0)
	calls := 0
	parse := func() (*ast.Arena, ast.Ref, error) {
		calls++
		a := ast.NewArena()
		root := a.New(ast.Node{Kind: ast.KindRoot}, ast.RefNil)
		return a, root, nil
	}

	first := c.GetOrParse("a.chtl", "div { }", parse)
	second := c.GetOrParse("b.chtl", "div { }", parse)

	require.NoError(t, first.Err)
	assert.Equal(t, 1, calls)
	assert.Same(t, first.Arena, second.Arena)
}

func TestGetOrParseReparsesOnDifferentContent(t *testing.T) {
	c := cache.NewParseCache(0)
	calls := 0
	parse := func() (*ast.Arena, ast.Ref, error) {
		calls++
		a := ast.NewArena()
		root := a.New(ast.Node{Kind: ast.KindRoot}, ast.RefNil)
		return a, root, nil
	}

	c.GetOrParse("a.chtl", "div { }", parse)
	c.GetOrParse("a.chtl", "span { }", parse)

	assert.Equal(t, 2, calls)
}

func TestProcessedTracksPathsSeenByGetOrParse(t *testing.T) {
	c := cache.NewParseCache(0)
	assert.False(t, c.Processed("a.chtl"))
	c.GetOrParse("a.chtl", "div { }", func() (*ast.Arena, ast.Ref, error) {
		a := ast.NewArena()
		return a, a.New(ast.Node{Kind: ast.KindRoot}, ast.RefNil), nil
	})
	assert.True(t, c.Processed("a.chtl"))
}

func TestHashContentIsStableAndDistinguishesInput(t *testing.T) {
	assert.Equal(t, cache.HashContent("x"), cache.HashContent("x"))
	assert.NotEqual(t, cache.HashContent("x"), cache.HashContent("y"))
}
