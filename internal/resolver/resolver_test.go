package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/parser"
	"github.com/chtl-lang/chtl/internal/resolver"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/symbols"
)

func resolve(t *testing.T, src string) (*ast.Arena, ast.Ref, *logger.Log) {
	t.Helper()
	log := logger.NewLog(false)
	source := &logger.Source{PrettyPath: "t.chtl", Contents: src}
	cfg := config.NewEngine(log)
	machine := state.NewMachine(false)
	arena, root, err := parser.Parse(log, source, cfg, machine, parser.Options{})
	require.NoError(t, err)
	syms := symbols.NewMap()
	res := resolver.New(log, source, cfg, syms, arena, nil)
	require.NoError(t, res.Resolve(root))
	return arena, root, log
}

func TestVarShorthandKeyParsesGroupAndKey(t *testing.T) {
	group, key, ok := resolver.VarShorthandKey("ThemeColor(tableColor)")
	require.True(t, ok)
	assert.Equal(t, "ThemeColor", group)
	assert.Equal(t, "tableColor", key)
}

func TestStyleTemplateReferenceExpandsPropertiesInline(t *testing.T) {
	src := `[Template] @Style Base { color: red; }
div { style { @Style Base; } }`
	a, root, log := resolve(t, src)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[1]
	styleBlock := a.Get(div).Children[0]
	var found bool
	for _, c := range a.Get(styleBlock).Children {
		if d, ok := a.Get(c).Data.(ast.InlineDeclData); ok && d.Property == "color" && d.Value == "red" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCustomStyleDeleteSpecOpRemovesProperty(t *testing.T) {
	src := `[Custom] @Style Base { color: red; padding: 1px; }
div { style { @Style Base { delete padding; } } }`
	a, root, log := resolve(t, src)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[1]
	styleBlock := a.Get(div).Children[0]
	for _, c := range a.Get(styleBlock).Children {
		if d, ok := a.Get(c).Data.(ast.InlineDeclData); ok {
			assert.NotEqual(t, "padding", d.Property)
		}
	}
}

func TestVarReferenceResolvesToLiteralText(t *testing.T) {
	src := `[Template] @Var Theme { tableColor: "#fff"; }
div { style { color: @Var Theme(tableColor); } }`
	a, root, log := resolve(t, src)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[1]
	styleBlock := a.Get(div).Children[0]
	var value string
	for _, c := range a.Get(styleBlock).Children {
		if d, ok := a.Get(c).Data.(ast.InlineDeclData); ok && d.Property == "color" {
			value = d.Value
		}
	}
	assert.Equal(t, "#fff", value)
}

func TestSelectorAutomationAddsFirstClassAttribute(t *testing.T) {
	src := `div { style { .box { color: red; } } }`
	a, root, log := resolve(t, src)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[0]
	var class string
	for _, c := range a.Get(div).Children {
		if attr, ok := a.Get(c).Data.(ast.AttributeData); ok && attr.Name == "class" {
			class = attr.Value
		}
	}
	assert.Equal(t, "box", class)
}

func TestExceptConstraintFlagsForbiddenSibling(t *testing.T) {
	src := `div { except span; span { text{"no"} } }`
	_, _, log := resolve(t, src)
	assert.True(t, log.HasErrors())
}

func TestExceptConstraintAllowsUnlistedSibling(t *testing.T) {
	src := `div { except span; p { text{"ok"} } }`
	_, _, log := resolve(t, src)
	assert.False(t, log.HasErrors())
}

func TestRefSelectorResolvesToAutoClassInStyleBlock(t *testing.T) {
	src := `div { style { .box { color: red; } & { font-weight: bold; } } }`
	a, root, log := resolve(t, src)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[0]
	styleBlock := a.Get(div).Children[0]
	var sawResolved bool
	for _, c := range a.Get(styleBlock).Children {
		if sel, ok := a.Get(c).Data.(ast.SelectorData); ok && sel.Kind == ast.SelCompound && sel.Name == "box" {
			sawResolved = true
		}
	}
	assert.True(t, sawResolved)
}
