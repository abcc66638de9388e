package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

func TestConvertProducesStandaloneDocument(t *testing.T) {
	c := NewGoldmarkConverter(Options{FallbackTitle: "readme"})

	out, err := c.Convert("# CanOverhead *tool*\n\nSome text.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n", "")
	require.NoError(t, err)

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>CanOverhead tool</title>")
	assert.Contains(t, out, `<h1 id="canoverhead-tool">`)
	assert.Contains(t, out, "<table>")
}

func TestConvertFallbackTitle(t *testing.T) {
	c := NewGoldmarkConverter(Options{FallbackTitle: "a < b"})
	out, err := c.Convert("no heading here\n", "")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>a &lt; b</title>")
}

func TestConvertTitlesByNameWithoutHeading(t *testing.T) {
	c := NewGoldmarkConverter(Options{})

	out, err := c.Convert("Just a paragraph.\n", "license")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>license</title>")

	out, err = c.Convert("# Heading wins\n", "license")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Heading wins</title>")

	out, err = c.Convert("Just a paragraph.\n", "")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Document</title>")
}

func TestConvertIsDeterministic(t *testing.T) {
	c := NewGoldmarkConverter(Options{Highlight: true})
	doc := "# Title\n\n## Title\n\n```go\nfunc main() {}\n```\n\nFootnote[^1].\n\n[^1]: note\n"

	first, err := c.Convert(doc, "")
	require.NoError(t, err)
	second, err := c.Convert(doc, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvertHighlightsInline(t *testing.T) {
	c := NewGoldmarkConverter(Options{Highlight: true})
	out, err := c.Convert("```js\nconst x = 1;\n```\n", "")
	require.NoError(t, err)
	assert.Contains(t, out, "style=")
	assert.NotContains(t, out, `class="chroma"`)
}

func TestConvertRejectsInvalidUTF8(t *testing.T) {
	c := NewGoldmarkConverter(Options{})
	_, err := c.Convert("bad \xff byte", "")
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConversion))
}

func TestConvertRewritesDocumentLinks(t *testing.T) {
	c := NewGoldmarkConverter(Options{LinkTargets: map[string]string{
		"CHANGELOG.md": "changelog.html",
		"docs/ROADMAP.md": "roadmap.html",
	}})

	out, err := c.Convert("See [changes](./CHANGELOG.md#v1) and [plan](docs/ROADMAP.md), " +
		"[site](https://example.com/CHANGELOG.md), [other](LICENSE.md).\n", "")
	require.NoError(t, err)

	assert.Contains(t, out, `href="changelog.html#v1"`)
	assert.Contains(t, out, `href="roadmap.html"`)
	assert.Contains(t, out, `href="https://example.com/CHANGELOG.md"`)
	assert.Contains(t, out, `href="LICENSE.md"`)
}

func TestConvertKeepsEmbeddedHTML(t *testing.T) {
	c := NewGoldmarkConverter(Options{})
	out, err := c.Convert("<div class=\"badge\">ok</div>\n", "")
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="badge">ok</div>`)
}
