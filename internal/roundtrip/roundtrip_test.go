package roundtrip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chtl-lang/chtl/internal/roundtrip"
)

func TestValidHTMLPasses(t *testing.T) {
	err := roundtrip.Validate(roundtrip.HTML, `<div id="app"><p>hi</p></div>`)
	assert.NoError(t, err)
}

func TestValidCSSPasses(t *testing.T) {
	err := roundtrip.Validate(roundtrip.CSS, `.box { color: #ff0000; }`)
	assert.NoError(t, err)
}

func TestValidJSPasses(t *testing.T) {
	err := roundtrip.Validate(roundtrip.JS, `(function () { document.querySelector(".box").addEventListener("click", function () {}); })();`)
	assert.NoError(t, err)
}

func TestMalformedCSSFails(t *testing.T) {
	err := roundtrip.Validate(roundtrip.CSS, `.box { color: }`)
	assert.Error(t, err)
}

func TestUnknownLanguageFails(t *testing.T) {
	err := roundtrip.Validate(roundtrip.Language(99), `anything`)
	assert.Error(t, err)
}
