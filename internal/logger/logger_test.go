package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/logger"
)

func TestLocAtFindsLineAndColumn(t *testing.T) {
	src := &logger.Source{PrettyPath: "x.chtl", Contents: "div {\n  text { hi }\n}\n"}
	loc, lineText := src.LocAt(8)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 2, loc.Column)
	assert.Equal(t, "  text { hi }", lineText)
}

func TestLogOrdersDeterministically(t *testing.T) {
	log := logger.NewLog(false)
	srcA := &logger.Source{PrettyPath: "b.chtl", Contents: "div{}"}
	srcB := &logger.Source{PrettyPath: "a.chtl", Contents: "div{}"}
	log.AddError(srcA, logger.Range{Start: 0, Len: 1}, logger.KindParse, "z issue")
	log.AddError(srcB, logger.Range{Start: 0, Len: 1}, logger.KindParse, "a issue")

	msgs := log.Done()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a.chtl", msgs[0].Data.Path)
	assert.Equal(t, "b.chtl", msgs[1].Data.Path)
	assert.True(t, log.HasErrors())
}

func TestNotesHiddenUnlessDebug(t *testing.T) {
	log := logger.NewLog(false)
	src := &logger.Source{PrettyPath: "x.chtl", Contents: "div{}"}
	log.AddNote(src, logger.Range{Start: 0, Len: 1}, logger.KindParse, "fyi")
	assert.Empty(t, log.Done())

	debugLog := logger.NewLog(true)
	debugLog.AddNote(src, logger.Range{Start: 0, Len: 1}, logger.KindParse, "fyi")
	assert.Len(t, debugLog.Done(), 1)
}
