package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// Kind classifies an artifact and selects the transform applied to it.
type Kind string

const (
	KindDocument Kind = "document"
	KindMarkup   Kind = "markup"
	KindStyle    Kind = "style"
	KindScript   Kind = "script"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDocument, KindMarkup, KindStyle, KindScript:
		return true
	}
	return false
}

// Minifiable reports whether artifacts of this kind pass through the minifier.
func (k Kind) Minifiable() bool {
	return k == KindMarkup || k == KindStyle || k == KindScript
}

var (
	// ErrOutputAlias is the cause of the error returned when two artifacts
	// would write the same file in the build directory.
	ErrOutputAlias = errors.New("output name used by more than one artifact")
	// ErrSourceMissing is the cause of the error returned when a source file
	// does not exist under the base directory.
	ErrSourceMissing = errors.New("source file does not exist")
)

// Entry is one catalog row as written in the configuration file.
type Entry struct {
	Name    string `yaml:"name"`
	Kind    Kind   `yaml:"kind"`
	Source  string `yaml:"source"`
	Output  string `yaml:"output,omitempty"`
	Minify  *bool  `yaml:"minify,omitempty"`
	Primary bool   `yaml:"primary,omitempty"`
}

// Artifact is a validated catalog row with defaults applied.
type Artifact struct {
	Name    string
	Kind    Kind
	Source  string // relative to the base directory
	Output  string // file name inside the build directory
	Minify  bool
	Primary bool
}

// Catalog is the static, ordered set of artifacts a build processes. It is
// read-only once constructed.
type Catalog struct {
	baseDir   string
	artifacts []Artifact
	primary   int
}

// DefaultOutput derives the build directory file name for a source: documents
// become the lower-cased base name with an .html extension, everything else
// keeps its base name.
func DefaultOutput(kind Kind, source string) string {
	base := filepath.Base(source)
	if kind != KindDocument {
		return base
	}
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base))) + ".html"
}

// New validates entries against baseDir and returns the catalog. Every source
// must exist; loading fails on the first missing one.
func New(baseDir string, entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, foundationerrors.ConfigError("catalog is empty").Build()
	}

	c := &Catalog{baseDir: baseDir, primary: -1}
	names := make(map[string]struct{}, len(entries))
	outputs := make(map[string]string, len(entries))

	for i, e := range entries {
		a, err := normalize(i, e)
		if err != nil {
			return nil, err
		}
		if _, dup := names[a.Name]; dup {
			return nil, foundationerrors.ConfigError("duplicate artifact name").
				WithContext("artifact", a.Name).
				Build()
		}
		names[a.Name] = struct{}{}

		if owner, taken := outputs[a.Output]; taken {
			return nil, foundationerrors.WrapError(ErrOutputAlias, foundationerrors.CategoryConfig, "artifacts share an output name").
				WithSeverity(foundationerrors.SeverityFatal).
				WithContext("artifact", a.Name).
				WithContext("other", owner).
				WithContext("output", a.Output).
				Build()
		}
		outputs[a.Output] = a.Name

		if a.Primary {
			if c.primary >= 0 {
				return nil, foundationerrors.ConfigError("more than one primary markup artifact").
					WithContext("artifact", a.Name).
					WithContext("other", c.artifacts[c.primary].Name).
					Build()
			}
			c.primary = len(c.artifacts)
		}
		c.artifacts = append(c.artifacts, a)
	}

	if c.primary < 0 {
		c.primary = c.implicitPrimary()
	}

	for _, a := range c.artifacts {
		if err := c.checkSource(a); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func normalize(index int, e Entry) (Artifact, error) {
	if e.Name == "" {
		return Artifact{}, foundationerrors.ConfigError("catalog entry has no name").
			WithContext("index", index).
			Build()
	}
	if !e.Kind.Valid() {
		return Artifact{}, foundationerrors.ConfigError(fmt.Sprintf("unknown artifact kind %q", e.Kind)).
			WithContext("artifact", e.Name).
			Build()
	}
	if e.Source == "" {
		return Artifact{}, foundationerrors.ConfigError("catalog entry has no source").
			WithContext("artifact", e.Name).
			Build()
	}
	if e.Kind == KindDocument && e.Minify != nil && *e.Minify {
		return Artifact{}, foundationerrors.ConfigError("documents cannot be minified").
			WithContext("artifact", e.Name).
			Build()
	}
	if e.Primary && e.Kind != KindMarkup {
		return Artifact{}, foundationerrors.ConfigError("only markup artifacts can be primary").
			WithContext("artifact", e.Name).
			Build()
	}

	a := Artifact{
		Name:    e.Name,
		Kind:    e.Kind,
		Source:  filepath.Clean(e.Source),
		Output:  e.Output,
		Minify:  e.Kind.Minifiable(),
		Primary: e.Primary,
	}
	if e.Minify != nil && e.Kind.Minifiable() {
		a.Minify = *e.Minify
	}
	if a.Output == "" {
		a.Output = DefaultOutput(e.Kind, e.Source)
	}
	if a.Output != filepath.Base(a.Output) || a.Output == "." || a.Output == ".." {
		return Artifact{}, foundationerrors.ConfigError("output must be a plain file name").
			WithContext("artifact", e.Name).
			WithContext("output", a.Output).
			Build()
	}
	return a, nil
}

// implicitPrimary picks the markup artifact written as index.html when no
// entry is flagged primary.
func (c *Catalog) implicitPrimary() int {
	for i, a := range c.artifacts {
		if a.Kind == KindMarkup && a.Output == "index.html" {
			return i
		}
	}
	return -1
}

func (c *Catalog) checkSource(a Artifact) error {
	path := c.SourcePath(a)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return foundationerrors.WrapError(ErrSourceMissing, foundationerrors.CategoryConfig, "artifact source not found").
			WithSeverity(foundationerrors.SeverityFatal).
			WithContext("artifact", a.Name).
			WithContext("path", path).
			Build()
	case err != nil:
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot stat artifact source").
			WithContext("artifact", a.Name).
			WithContext("path", path).
			Build()
	case info.IsDir():
		return foundationerrors.ConfigError("artifact source is a directory").
			WithContext("artifact", a.Name).
			WithContext("path", path).
			Build()
	}
	return nil
}

// BaseDir returns the directory sources are resolved against.
func (c *Catalog) BaseDir() string {
	return c.baseDir
}

// All returns the artifacts in catalog order.
func (c *Catalog) All() []Artifact {
	out := make([]Artifact, len(c.artifacts))
	copy(out, c.artifacts)
	return out
}

// ByKind returns the artifacts of one kind in catalog order.
func (c *Catalog) ByKind(kind Kind) []Artifact {
	var out []Artifact
	for _, a := range c.artifacts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Primary returns the markup artifact that receives inlined assets and the
// provenance comment. ok is false when the catalog has no markup artifact
// eligible as primary.
func (c *Catalog) Primary() (Artifact, bool) {
	if c.primary < 0 {
		return Artifact{}, false
	}
	return c.artifacts[c.primary], true
}

// SourcePath returns the absolute-or-base-relative path of a's source.
func (c *Catalog) SourcePath(a Artifact) string {
	if filepath.IsAbs(a.Source) {
		return a.Source
	}
	return filepath.Join(c.baseDir, a.Source)
}
