package symbols_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/symbols"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	m := symbols.NewMap()
	require.NoError(t, m.Register("", symbols.Entry{QualifiedName: "Btn", Kind: symbols.KindTemplateStyle}))
	err := m.Register("", symbols.Entry{QualifiedName: "Btn", Kind: symbols.KindTemplateStyle})
	assert.Error(t, err)
}

func TestNamespaceNestingAndExplicitFromLookup(t *testing.T) {
	m := symbols.NewMap()
	ui := m.CreateNamespace("ui", "")
	require.NoError(t, m.Register(ui, symbols.Entry{QualifiedName: "T", Kind: symbols.KindTemplateStyle}))

	e, err := m.Lookup("T", symbols.KindTemplateStyle, "ui", false)
	require.NoError(t, err)
	assert.Equal(t, "T", e.QualifiedName)

	_, err = m.Lookup("T", symbols.KindTemplateStyle, "", false)
	assert.Error(t, err, "not visible without an explicit namespace or matching current namespace")
}

func TestLookupFallsBackWhenUnambiguous(t *testing.T) {
	m := symbols.NewMap()
	ui := m.CreateNamespace("ui", "")
	require.NoError(t, m.Register(ui, symbols.Entry{QualifiedName: "Only", Kind: symbols.KindTemplateStyle}))

	e, err := m.Lookup("Only", symbols.KindTemplateStyle, "", false)
	require.NoError(t, err)
	assert.Equal(t, "Only", e.QualifiedName)
}

func TestLookupAmbiguousAcrossNamespaces(t *testing.T) {
	m := symbols.NewMap()
	a := m.CreateNamespace("a", "")
	b := m.CreateNamespace("b", "")
	require.NoError(t, m.Register(a, symbols.Entry{QualifiedName: "Dup", Kind: symbols.KindTemplateStyle}))
	require.NoError(t, m.Register(b, symbols.Entry{QualifiedName: "Dup", Kind: symbols.KindTemplateStyle}))

	_, err := m.Lookup("Dup", symbols.KindTemplateStyle, "", false)
	assert.Error(t, err)
}

func TestExportRestrictsExternalVisibility(t *testing.T) {
	m := symbols.NewMap()
	ns := m.CreateNamespace("mod", "")
	require.NoError(t, m.Register(ns, symbols.Entry{QualifiedName: "Public", Kind: symbols.KindTemplateStyle}))
	require.NoError(t, m.Register(ns, symbols.Entry{QualifiedName: "Private", Kind: symbols.KindTemplateStyle}))
	m.RecordExport(ns, "Public")

	_, err := m.Lookup("Public", symbols.KindTemplateStyle, ns, true)
	assert.NoError(t, err)

	_, err = m.Lookup("Private", symbols.KindTemplateStyle, ns, true)
	assert.Error(t, err)
}

func TestGenerateUniqueNamesNeverCollide(t *testing.T) {
	m := symbols.NewMap()
	first := m.GenerateUniqueClassName("box")
	second := m.GenerateUniqueClassName("box")
	assert.NotEqual(t, first, second)

	m.ReserveConfigName("box_2")
	third := m.GenerateUniqueClassName("box")
	assert.NotEqual(t, "box_2", third)
}

func TestHasCycleDetectsRepeat(t *testing.T) {
	ok, at := symbols.HasCycle([]string{"a.chtl", "b.chtl", "a.chtl"})
	assert.True(t, ok)
	assert.Equal(t, "a.chtl", at)

	ok, _ = symbols.HasCycle([]string{"a.chtl", "b.chtl"})
	assert.False(t, ok)
}
