package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/parser"
	"github.com/chtl-lang/chtl/internal/state"
)

func parse(t *testing.T, src string) (*ast.Arena, ast.Ref, *logger.Log) {
	t.Helper()
	log := logger.NewLog(false)
	source := &logger.Source{PrettyPath: "t.chtl", Contents: src}
	cfg := config.NewEngine(log)
	machine := state.NewMachine(false)
	arena, root, err := parser.Parse(log, source, cfg, machine, parser.Options{})
	require.NoError(t, err)
	return arena, root, log
}

func childKinds(a *ast.Arena, ref ast.Ref) []ast.Kind {
	var out []ast.Kind
	for _, c := range a.Get(ref).Children {
		out = append(out, a.Get(c).Kind)
	}
	return out
}

func TestParsesElementWithAttributeAndText(t *testing.T) {
	a, root, log := parse(t, `div { id: box; text { "hello" } }`)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[0]
	assert.Equal(t, ast.KindElement, a.Get(div).Kind)
	assert.Equal(t, []ast.Kind{ast.KindAttribute, ast.KindText}, childKinds(a, div))
}

func TestNestedElements(t *testing.T) {
	a, root, log := parse(t, `div { span { text: "hi"; } }`)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[0]
	span := a.Get(div).Children[0]
	assert.Equal(t, ast.KindElement, a.Get(span).Kind)
	assert.Equal(t, "span", a.Get(span).Data.(ast.ElementData).TagName)
}

func TestLocalStyleBlockWithSelectorAndInlineDecl(t *testing.T) {
	a, root, log := parse(t, `div { style { color: red; .box { width: 10px; } } }`)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[0]
	styleBlock := a.Get(div).Children[0]
	require.Equal(t, ast.KindLocalStyleBlock, a.Get(styleBlock).Kind)
	kinds := childKinds(a, styleBlock)
	assert.Contains(t, kinds, ast.KindInlineDecl)
	assert.Contains(t, kinds, ast.KindSelector)
}

func TestTemplateStyleDefinitionWithValuelessCustomProperty(t *testing.T) {
	a, root, log := parse(t, `[Custom] @Style Btn { color: red; padding; }`)
	require.False(t, log.HasErrors())
	def := a.Get(root).Children[0]
	data := a.Get(def).Data.(ast.CustomStyleData)
	assert.Equal(t, "Btn", data.Name)
	require.Len(t, data.Properties, 1)
	assert.Equal(t, "color", data.Properties[0].Property)
	assert.Equal(t, []string{"padding"}, data.ValuelessKeys)
}

func TestReferenceUseWithSpecializationBlock(t *testing.T) {
	a, root, log := parse(t, `div { @Style Btn { color: blue; delete padding; } }`)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[0]
	ref := a.Get(div).Children[0]
	require.Equal(t, ast.KindReference, a.Get(ref).Kind)
	data := a.Get(ref).Data.(ast.ReferenceData)
	assert.Equal(t, "Btn", data.QualifiedName)
	require.Len(t, data.SpecArgs, 2)
	assert.Equal(t, ast.KindInlineDecl, a.Get(data.SpecArgs[0]).Kind)
	assert.Equal(t, ast.KindDeleteProp, a.Get(data.SpecArgs[1]).Kind)
}

func TestLocalScriptBlockExtractsEnhancedSelectorAndListenCall(t *testing.T) {
	a, root, log := parse(t, `div { script { let x = 1; {{.box}}->listen({click: handleClick}); } }`)
	require.False(t, log.HasErrors())
	div := a.Get(root).Children[0]
	script := a.Get(div).Children[0]
	require.Equal(t, ast.KindLocalScriptBlock, a.Get(script).Kind)
	kinds := childKinds(a, script)
	assert.Contains(t, kinds, ast.KindRawJS)
	assert.Contains(t, kinds, ast.KindListenCall)
}

func TestOriginBlockCapturesRawContent(t *testing.T) {
	a, root, log := parse(t, `[Origin] @Html { <div class="x">raw</div> }`)
	require.False(t, log.HasErrors())
	origin := a.Get(root).Children[0]
	data := a.Get(origin).Data.(ast.OriginBlockData)
	assert.Contains(t, data.RawContent, "<div class=\"x\">raw</div>")
}

func TestNamespaceNestsTopLevelItems(t *testing.T) {
	a, root, log := parse(t, `[Namespace] ui { [Template] @Style Btn { color: red; } }`)
	require.False(t, log.HasErrors())
	ns := a.Get(root).Children[0]
	require.Equal(t, ast.KindNamespace, a.Get(ns).Kind)
	assert.Equal(t, ast.KindTemplateStyle, a.Get(a.Get(ns).Children[0]).Kind)
}

func TestConfigurationDefRegistersWithEngine(t *testing.T) {
	a, root, log := parse(t, `[Configuration] @Config Strict { DEBUG_MODE: true; [Name] { inherit: extends; } }`)
	require.False(t, log.HasErrors())
	assert.Equal(t, ast.KindConfigurationGroup, a.Get(a.Get(root).Children[0]).Kind)
}
