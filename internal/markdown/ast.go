package markdown

import (
	"path"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// firstHeading returns the plain text of the first heading in the document.
func firstHeading(root gmast.Node, src []byte) string {
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			title = plainText(h, src)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(title)
}

func plainText(n gmast.Node, src []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}

// linkRewriter points links at other catalog documents to their converted output.
type linkRewriter struct {
	targets map[string]string
}

func newLinkRewriter(targets map[string]string) *linkRewriter {
	normalized := make(map[string]string, len(targets))
	for src, out := range targets {
		normalized[normalizeLinkPath(src)] = out
	}
	return &linkRewriter{targets: normalized}
}

func normalizeLinkPath(p string) string {
	return path.Clean(strings.TrimPrefix(p, "./"))
}

func (r *linkRewriter) Transform(doc *gmast.Document, _ text.Reader, _ parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		link, ok := n.(*gmast.Link)
		if !ok {
			return gmast.WalkContinue, nil
		}
		dest, fragment, hasFragment := strings.Cut(string(link.Destination), "#")
		if dest == "" || strings.Contains(dest, "://") {
			return gmast.WalkContinue, nil
		}
		if out, found := r.targets[normalizeLinkPath(dest)]; found {
			if hasFragment {
				out += "#" + fragment
			}
			link.Destination = []byte(out)
		}
		return gmast.WalkContinue, nil
	})
}
