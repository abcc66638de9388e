package markdown

import (
	"bytes"
	"fmt"
	"html"
	"unicode/utf8"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// Converter renders one Markdown document to a standalone HTML document.
// name identifies the document and titles it when it has no heading.
type Converter interface {
	Convert(doc, name string) (string, error)
}

// Options configures the goldmark pipeline.
type Options struct {
	// Highlight enables chroma syntax highlighting of fenced code blocks.
	// Styles are emitted inline since converted documents carry no stylesheet.
	Highlight      bool
	HighlightStyle string
	// LinkTargets maps document sources, as written in links, to their output
	// names so cross-document links keep working in the build directory.
	LinkTargets map[string]string
	// FallbackTitle is used when the document has no heading and Convert is
	// given no name.
	FallbackTitle string
}

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// GoldmarkConverter converts Markdown with GFM, footnotes and optional
// highlighting. Output is deterministic for identical input.
type GoldmarkConverter struct {
	md   goldmark.Markdown
	opts Options
}

// NewGoldmarkConverter builds the goldmark pipeline for opts.
func NewGoldmarkConverter(opts Options) *GoldmarkConverter {
	if opts.FallbackTitle == "" {
		opts.FallbackTitle = "Document"
	}
	extensions := []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
	}
	if opts.Highlight {
		style := opts.HighlightStyle
		if style == "" {
			style = DefaultHighlightStyle
		}
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
		))
	}

	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if len(opts.LinkTargets) > 0 {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(newLinkRewriter(opts.LinkTargets), 100),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(parserOpts...),
		// Sources are the repository's own files; embedded HTML is kept.
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	return &GoldmarkConverter{md: md, opts: opts}
}

// Convert renders doc to a complete HTML5 document titled after its first
// heading, or after name when there is none.
func (c *GoldmarkConverter) Convert(doc, name string) (string, error) {
	if !utf8.ValidString(doc) {
		return "", foundationerrors.ConversionError("document is not valid UTF-8").Build()
	}

	src := []byte(doc)
	root := c.md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext()))

	title := firstHeading(root, src)
	if title == "" {
		title = name
	}
	if title == "" {
		title = c.opts.FallbackTitle
	}

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, root); err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryConversion, "markdown rendering failed").
			WithSeverity(foundationerrors.SeverityFatal).
			Build()
	}
	return fmt.Sprintf(htmlTemplate, html.EscapeString(title), buf.String()), nil
}
