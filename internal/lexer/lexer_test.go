package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/fragment"
	"github.com/chtl-lang/chtl/internal/lexer"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/token"
)

func newLexer(t *testing.T, src string, chtljs bool) *lexer.Lexer {
	t.Helper()
	log := logger.NewLog(false)
	source := &logger.Source{PrettyPath: "t.chtl", Contents: src}
	m := state.NewMachine(false)
	if chtljs {
		m.Push(state.LocalScript, logger.Loc{})
	}
	f := fragment.Fragment{Text: src, Range: logger.Range{Start: 0, Len: len(src)}}
	return lexer.New(log, source, config.NewDefaultGroup(), m, f)
}

func collect(l *lexer.Lexer) []token.Token {
	var toks []token.Token
	for l.Token.Kind != token.EOF {
		toks = append(toks, l.Token)
		l.Next()
	}
	return toks
}

func TestLexerTokenizesKeywordsAndPunct(t *testing.T) {
	l := newLexer(t, `div { text: "hi"; }`, false)
	toks := collect(l)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Ident, toks[0].Kind)
	assert.Equal(t, token.LBrace, toks[1].Kind)
	assert.Equal(t, token.KwText, toks[2].Kind)
	assert.Equal(t, token.Colon, toks[3].Kind)
	assert.Equal(t, token.StringDouble, toks[4].Kind)
}

func TestLexerPreservesGeneratorComments(t *testing.T) {
	l := newLexer(t, `-- keep me`, false)
	assert.Equal(t, token.CommentGen, l.Token.Kind)
	assert.Equal(t, "-- keep me", l.Token.Lexeme)
}

func TestLexerGatesEnhancedSelectorsOnContext(t *testing.T) {
	outside := newLexer(t, `{{.box}}`, false)
	assert.Equal(t, token.LBrace, outside.Token.Kind, "outside CHTL-JS context, {{ is two LBrace tokens")

	inside := newLexer(t, `{{.box}}`, true)
	assert.Equal(t, token.DoubleLBrace, inside.Token.Kind)
}

func TestLexerRecognizesAtAndBlockMarkers(t *testing.T) {
	l := newLexer(t, `[Template] @Style Btn`, false)
	toks := collect(l)
	require.Len(t, toks, 3)
	assert.Equal(t, token.BlockTemplate, toks[0].Kind)
	assert.Equal(t, token.AtStyle, toks[1].Kind)
	assert.True(t, toks[1].IsMarker)
	assert.Equal(t, token.Ident, toks[2].Kind)
}

func TestLexerResolvesConfiguredKeywordAlias(t *testing.T) {
	log := logger.NewLog(false)
	source := &logger.Source{PrettyPath: "t.chtl", Contents: `extends Base;`}
	m := state.NewMachine(false)
	cfg, err := config.NewEngine(log).Register("Aliased", nil, nil, map[string]string{"inherit": "extends"}, nil, "")
	require.NoError(t, err)
	f := fragment.Fragment{Text: source.Contents, Range: logger.Range{Start: 0, Len: len(source.Contents)}}
	l := lexer.New(log, source, cfg, m, f)
	assert.Equal(t, token.KwInherit, l.Token.Kind)
}

func TestScanUnquotedStopsAtReservedChars(t *testing.T) {
	l := newLexer(t, `color: red solid 1px; next`, false)
	l.Next() // "color"
	l.Next() // ":"
	raw, _, ok := l.ScanUnquoted(nil)
	require.True(t, ok)
	assert.Equal(t, "red solid 1px", raw)
	assert.Equal(t, token.Semicolon, l.Token.Kind)
}
