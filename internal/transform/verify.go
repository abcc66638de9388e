package transform

import (
	"bytes"
	"net/url"
	"path"
	"slices"
	"strings"

	"golang.org/x/net/html"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// VerifyInlined parses markup and fails if a stylesheet link or a script src
// still points at one of the inlined file names.
func VerifyInlined(markup []byte, inlined []string) error {
	if len(inlined) == 0 {
		return nil
	}
	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryReference, "failed to parse inlined markup").
			WithSeverity(foundationerrors.SeverityFatal).
			Build()
	}

	var leftover []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if ref := assetReference(n); ref != "" && slices.Contains(inlined, ref) {
				leftover = append(leftover, ref)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(leftover) > 0 {
		return foundationerrors.ReferenceError("asset reference survived inlining").
			WithContext("files", strings.Join(leftover, ",")).
			Build()
	}
	return nil
}

// assetReference returns the file name a stylesheet link or external script
// element points at, or "".
func assetReference(n *html.Node) string {
	switch n.Data {
	case "link":
		if !strings.Contains(strings.ToLower(getAttr(n, "rel")), "stylesheet") {
			return ""
		}
		return refBase(getAttr(n, "href"))
	case "script":
		return refBase(getAttr(n, "src"))
	}
	return ""
}

func refBase(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil {
		ref = u.Path
	}
	return path.Base(ref)
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
