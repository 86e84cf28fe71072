package generator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/generator"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/parser"
	"github.com/chtl-lang/chtl/internal/resolver"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/symbols"
)

func generate(t *testing.T, src string) generator.Output {
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
	require.False(t, log.HasErrors())
	return generator.Generate(arena, cfg, root, generator.Options{})
}

func TestUseHTML5EmitsDoctype(t *testing.T) {
	out := generate(t, `use html5;`)
	assert.True(t, strings.HasPrefix(out.HTML, "<!DOCTYPE html>"))
}

func TestNoDoctypeWithoutUseHTML5(t *testing.T) {
	out := generate(t, `div { text { "hi" } }`)
	assert.NotContains(t, out.HTML, "DOCTYPE")
}

func TestEmitsElementWithTextContent(t *testing.T) {
	out := generate(t, `div { text { "hi" } }`)
	assert.Contains(t, out.HTML, "<div>")
	assert.Contains(t, out.HTML, "hi")
	assert.Contains(t, out.HTML, "</div>")
}

func TestEscapesTextContent(t *testing.T) {
	out := generate(t, `div { text { "<script>" } }`)
	assert.Contains(t, out.HTML, "&lt;script&gt;")
}

func TestVoidElementSelfCloses(t *testing.T) {
	out := generate(t, `img { id: logo; }`)
	assert.Contains(t, out.HTML, `<img id="logo">`)
}

func TestLocalStyleSelectorHoistsIntoCSSBuffer(t *testing.T) {
	out := generate(t, `div { style { .box { color: red; } } }`)
	assert.Contains(t, out.CSS, ".box {")
	assert.Contains(t, out.CSS, "color: red;")
}

func TestColorValuesPreserveAuthorLiteral(t *testing.T) {
	out := generate(t, `div { style { .box { color: red; padding: 4px; } } }`)
	assert.Contains(t, out.CSS, "color: red;")
	assert.NotContains(t, out.CSS, "#ff0000")
}

func TestInlineStyleDeclarationBecomesStyleAttribute(t *testing.T) {
	out := generate(t, `div { style { color: blue; } }`)
	assert.Contains(t, out.HTML, `style="color: blue;"`)
}

func TestEnhancedSelectorLowersToQuerySelector(t *testing.T) {
	out := generate(t, `div { script { {{.box}}->listen({click: handleClick}); } }`)
	assert.Contains(t, out.JS, "document.querySelector")
	assert.Contains(t, out.JS, "addEventListener")
}

func TestAnimateCallLowersToWebAnimationsAPI(t *testing.T) {
	out := generate(t, `div { script { {{.box}}->animate({duration: 300, easing: "ease-in", loop: 1, delay: 0, keyframes: {0: {opacity: 0}, 1: {opacity: 1}}}); } }`)
	assert.Contains(t, out.JS, ".animate(")
}
