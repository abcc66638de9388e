package transform

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

var (
	linkTagRe = regexp.MustCompile(`(?i)<link\b[^>]*>`)
	// A <script> start tag that carries its own src attribute.
	scriptSrcTagRe = regexp.MustCompile(`(?i)<script\b[^>]*\bsrc\s*=[^>]*>`)
	scriptEndRe    = regexp.MustCompile(`(?i)^\s*</script\s*>`)
	// Tags left open at the end of a line.
	openLinkRe   = regexp.MustCompile(`(?i)<link\b[^>]*$`)
	openScriptRe = regexp.MustCompile(`(?i)<script\b[^>]*$`)
	srcAttrRe    = regexp.MustCompile(`(?i)\bsrc\s*=`)

	// Asset names are matched narrowly: a bare file name with the expected
	// extension. Anything else in a recognized tag is a malformed reference.
	cssNameRe = regexp.MustCompile(`[a-zA-Z0-9_.-]+\.css`)
	jsNameRe  = regexp.MustCompile(`[a-zA-Z0-9_.-]+\.js`)

	styleCloseRe  = regexp.MustCompile(`(?i)</(style)`)
	scriptCloseRe = regexp.MustCompile(`(?i)</(script)`)
)

// InlineResult reports what InlineAssets did to the markup file.
type InlineResult struct {
	// Inlined lists the asset file names whose content now lives in the
	// markup, in first-reference order.
	Inlined []string
}

type assetKind int

const (
	assetStyle assetKind = iota
	assetScript
)

func (k assetKind) String() string {
	if k == assetStyle {
		return "stylesheet"
	}
	return "script"
}

// InlineAssets replaces stylesheet <link> tags and <script src> tags in the
// markup file with the content of the referenced files from buildDir.
//
// The markup is scanned line by line. On each line, <link> tags mentioning
// "stylesheet" and <script> tags with their own src attribute are
// recognized; a recognized script tag must be closed on the same line. Lines
// without recognized tags are copied unchanged. Every recognized tag must name
// a file present in buildDir, otherwise a reference error is returned and
// nothing is written. Removing the inlined files is left to the caller.
func InlineAssets(buildDir, markupFile string) (InlineResult, error) {
	path := filepath.Join(buildDir, markupFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return InlineResult{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read markup").
			WithContext("path", path).
			Build()
	}

	in := &inliner{dir: buildDir, markup: markupFile, contents: map[string]string{}}
	lines := strings.SplitAfter(string(data), "\n")
	var out strings.Builder
	out.Grow(len(data))

	for i, line := range lines {
		replaced, err := in.line(line, i+1)
		if err != nil {
			return InlineResult{}, err
		}
		out.WriteString(replaced)
	}

	if len(in.order) == 0 {
		return InlineResult{}, nil
	}

	if err := os.WriteFile(path, []byte(out.String()), 0o600); err != nil {
		return InlineResult{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write inlined markup").
			WithContext("path", path).
			Build()
	}
	return InlineResult{Inlined: in.order}, nil
}

type inliner struct {
	dir      string
	markup   string
	contents map[string]string
	order    []string
}

type tagMatch struct {
	start, end int
	kind       assetKind
}

func (in *inliner) line(line string, lineNo int) (string, error) {
	lower := strings.ToLower(line)
	if !strings.Contains(lower, "<link") && !strings.Contains(lower, "<script") {
		return line, nil
	}

	var matches []tagMatch
	for _, loc := range linkTagRe.FindAllStringIndex(line, -1) {
		if strings.Contains(strings.ToLower(line[loc[0]:loc[1]]), "stylesheet") {
			matches = append(matches, tagMatch{start: loc[0], end: loc[1], kind: assetStyle})
		}
	}
	if tag := openLinkRe.FindString(line); tag != "" && strings.Contains(strings.ToLower(tag), "stylesheet") {
		return "", in.malformed(assetStyle, tag, lineNo)
	}

	for _, loc := range scriptSrcTagRe.FindAllStringIndex(line, -1) {
		end := scriptEndRe.FindStringIndex(line[loc[1]:])
		if end == nil {
			return "", in.malformed(assetScript, line[loc[0]:], lineNo)
		}
		matches = append(matches, tagMatch{start: loc[0], end: loc[1] + end[1], kind: assetScript})
	}
	if tag := openScriptRe.FindString(line); tag != "" && srcAttrRe.MatchString(tag) {
		return "", in.malformed(assetScript, tag, lineNo)
	}

	if len(matches) == 0 {
		return line, nil
	}
	slices.SortFunc(matches, func(a, b tagMatch) int { return a.start - b.start })

	var out strings.Builder
	last := 0
	for _, m := range matches {
		content, err := in.resolve(m.kind, line[m.start:m.end], lineNo)
		if err != nil {
			return "", err
		}
		out.WriteString(line[last:m.start])
		if m.kind == assetStyle {
			out.WriteString("<style>")
			out.WriteString(styleCloseRe.ReplaceAllString(content, `<\/$1`))
			out.WriteString("</style>")
		} else {
			out.WriteString("<script>")
			out.WriteString(scriptCloseRe.ReplaceAllString(content, `<\/$1`))
			out.WriteString("</script>")
		}
		last = m.end
	}
	out.WriteString(line[last:])
	return out.String(), nil
}

// resolve extracts the asset name from tag and returns the file's content.
func (in *inliner) resolve(kind assetKind, tag string, lineNo int) (string, error) {
	nameRe := cssNameRe
	if kind == assetScript {
		nameRe = jsNameRe
	}
	name := nameRe.FindString(tag)
	if name == "" {
		return "", in.malformed(kind, tag, lineNo)
	}
	if content, ok := in.contents[name]; ok {
		return content, nil
	}

	data, err := os.ReadFile(filepath.Join(in.dir, name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", foundationerrors.ReferenceError("referenced asset is not in the build directory").
			WithContext("markup", in.markup).
			WithContext("line", lineNo).
			WithContext("asset", kind.String()).
			WithContext("file", name).
			Build()
	case err != nil:
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read asset").
			WithContext("file", name).
			Build()
	}
	in.contents[name] = string(data)
	in.order = append(in.order, name)
	return string(data), nil
}

func (in *inliner) malformed(kind assetKind, text string, lineNo int) error {
	return foundationerrors.ReferenceError("cannot extract " + kind.String() + " file name").
		WithContext("markup", in.markup).
		WithContext("line", lineNo).
		WithContext("text", strings.TrimSpace(text)).
		Build()
}
