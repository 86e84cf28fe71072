package chtl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/exitcode"
	"github.com/chtl-lang/chtl/pkg/chtl"
)

func TestCompileStringProducesHTML(t *testing.T) {
	result, err := chtl.CompileString("t.chtl", `div { id: app; text { "hello" } }`, chtl.Options{})
	require.NoError(t, err)
	assert.Contains(t, result.Output.HTML, `<div id="app">`)
	assert.Contains(t, result.Output.HTML, "hello")
}

func TestCompileStringReportsParseErrorsAsExitCodeOne(t *testing.T) {
	_, err := chtl.CompileString("t.chtl", `div { id: }`, chtl.Options{})
	require.Error(t, err)
	assert.Equal(t, exitcode.CompileErrors, exitcode.Get(err))
}

func TestCompileStringWithValidateRoundTripsOutput(t *testing.T) {
	result, err := chtl.CompileString("t.chtl", `div { style { .box { color: red; } } text { "hi" } }`, chtl.Options{Validate: true})
	require.NoError(t, err)
	assert.Contains(t, result.Output.CSS, ".box")
}
