package minify

import (
	"context"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

var mediaTypes = map[catalog.Kind]string{
	catalog.KindMarkup: "text/html",
	catalog.KindStyle:  "text/css",
	catalog.KindScript: "application/javascript",
}

// Local minifies in process. Markup keeps its document and end tags and
// attribute quotes so the asset inliner still recognizes every reference.
type Local struct {
	m *tdminify.M
}

// NewLocal creates a Local minifier for markup, styles and scripts.
func NewLocal() *Local {
	m := tdminify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return &Local{m: m}
}

func (l *Local) Minify(_ context.Context, kind catalog.Kind, src []byte) (string, error) {
	mediaType, ok := mediaTypes[kind]
	if !ok {
		return "", unsupportedKind(kind)
	}
	out, err := l.m.String(mediaType, string(src))
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryService, "local minifier rejected the input").
			WithSeverity(foundationerrors.SeverityFatal).
			WithContext("kind", string(kind)).
			WithContext("reason", ReasonRejected).
			Build()
	}
	return out, nil
}
