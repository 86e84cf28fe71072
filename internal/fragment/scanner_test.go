package fragment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/fragment"
	"github.com/chtl-lang/chtl/internal/logger"
)

func scan(t *testing.T, src string) []fragment.Fragment {
	t.Helper()
	log := logger.NewLog(false)
	source := &logger.Source{PrettyPath: "t.chtl", Contents: src}
	return fragment.NewScanner(log, source, nil).Scan()
}

func TestScannerTilesPlainCHTL(t *testing.T) {
	frags := scan(t, `div { text { hi } }`)
	require.Len(t, frags, 1)
	assert.Equal(t, fragment.LangCHTL, frags[0].Lang)
}

func TestScannerSlicesStyleAndScriptBlocks(t *testing.T) {
	src := `div {
  style { color: red; }
  script { {{.box}} &-> click { go(); } }
}`
	frags := scan(t, src)
	var langs []fragment.Lang
	for _, f := range frags {
		langs = append(langs, f.Lang)
	}
	assert.Contains(t, langs, fragment.LangCSS)
	assert.Contains(t, langs, fragment.LangCHTLJS)

	// Ranges must exactly tile the source.
	total := 0
	for _, f := range frags {
		assert.Equal(t, src[f.Range.Start:f.Range.End()], f.Text)
		total += f.Range.Len
	}
	assert.Equal(t, len(src), total)
}

func TestScannerBalancesNestedBraces(t *testing.T) {
	src := `div { style { .a { color: red; } } }`
	frags := scan(t, src)
	var css fragment.Fragment
	for _, f := range frags {
		if f.Lang == fragment.LangCSS {
			css = f
		}
	}
	require.NotEmpty(t, css.Text)
	assert.Contains(t, css.Text, ".a { color: red; }")
}

func TestScannerRecognizesOriginBlocks(t *testing.T) {
	src := `[Origin] @Html { <div>raw</div> }`
	frags := scan(t, src)
	require.Len(t, frags, 2)
	assert.Equal(t, fragment.LangCHTL, frags[0].Lang)
	assert.Equal(t, fragment.LangHTML, frags[1].Lang)
	assert.Equal(t, "@Html", frags[1].OriginType)
}

func TestScannerWarnsOnUnterminatedBlock(t *testing.T) {
	log := logger.NewLog(false)
	source := &logger.Source{PrettyPath: "t.chtl", Contents: `div { style { color: red;`}
	fragment.NewScanner(log, source, nil).Scan()
	msgs := log.Done()
	require.Len(t, msgs, 1)
	assert.Equal(t, logger.Warning, msgs[0].Severity)
}
