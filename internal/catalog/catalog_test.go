package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o600))
	}
}

func boolPtr(b bool) *bool { return &b }

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "readme.html", DefaultOutput(KindDocument, "README.md"))
	assert.Equal(t, "changelog.html", DefaultOutput(KindDocument, "docs/CHANGELOG.md"))
	assert.Equal(t, "CanOverhead.js", DefaultOutput(KindScript, "CanOverhead.js"))
	assert.Equal(t, "style.css", DefaultOutput(KindStyle, "css/style.css"))
}

func TestNewAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "README.md", "index.html", "style.css", "app.js")

	cat, err := New(dir, []Entry{
		{Name: "readme", Kind: KindDocument, Source: "README.md"},
		{Name: "index", Kind: KindMarkup, Source: "index.html"},
		{Name: "style", Kind: KindStyle, Source: "style.css"},
		{Name: "app", Kind: KindScript, Source: "app.js", Minify: boolPtr(false)},
	})
	require.NoError(t, err)

	all := cat.All()
	require.Len(t, all, 4)
	assert.Equal(t, "readme.html", all[0].Output)
	assert.False(t, all[0].Minify)
	assert.True(t, all[1].Minify)
	assert.False(t, all[3].Minify)

	primary, ok := cat.Primary()
	require.True(t, ok)
	assert.Equal(t, "index", primary.Name, "index.html markup is the implicit primary")

	assert.Len(t, cat.ByKind(KindScript), 1)
	assert.Equal(t, filepath.Join(dir, "style.css"), cat.SourcePath(all[2]))
}

func TestNewRejectsOutputAliasing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "index.md", "index.html")

	_, err := New(dir, []Entry{
		{Name: "doc", Kind: KindDocument, Source: "index.md"},
		{Name: "index", Kind: KindMarkup, Source: "index.html"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutputAlias))

	_, err = New(dir, []Entry{
		{Name: "doc", Kind: KindDocument, Source: "index.md", Output: "about.html"},
		{Name: "index", Kind: KindMarkup, Source: "index.html"},
	})
	require.NoError(t, err, "explicit output resolves the collision")
}

func TestNewFailsFastOnMissingSource(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "index.html")

	_, err := New(dir, []Entry{
		{Name: "index", Kind: KindMarkup, Source: "index.html"},
		{Name: "style", Kind: KindStyle, Source: "style.css"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceMissing))

	classified, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	name, _ := classified.Context().GetString("artifact")
	assert.Equal(t, "style", name)
}

func TestNewValidation(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.md", "index.html", "other.html", "s.css")

	cases := map[string][]Entry{
		"empty":          nil,
		"unknown kind":   {{Name: "x", Kind: "image", Source: "a.md"}},
		"missing name":   {{Kind: KindDocument, Source: "a.md"}},
		"missing source": {{Name: "x", Kind: KindDocument}},
		"minify doc":     {{Name: "x", Kind: KindDocument, Source: "a.md", Minify: boolPtr(true)}},
		"primary style":  {{Name: "x", Kind: KindStyle, Source: "s.css", Primary: true}},
		"nested output":  {{Name: "x", Kind: KindStyle, Source: "s.css", Output: "css/s.css"}},
		"duplicate name": {
			{Name: "x", Kind: KindStyle, Source: "s.css"},
			{Name: "x", Kind: KindMarkup, Source: "index.html"},
		},
		"two primaries": {
			{Name: "a", Kind: KindMarkup, Source: "index.html", Primary: true},
			{Name: "b", Kind: KindMarkup, Source: "other.html", Primary: true},
		},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(dir, entries)
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
		})
	}
}

func TestPrimaryAbsentWithoutMarkup(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.md")

	cat, err := New(dir, []Entry{{Name: "a", Kind: KindDocument, Source: "a.md"}})
	require.NoError(t, err)
	_, ok := cat.Primary()
	assert.False(t, ok)
}

func TestDefaultCatalogIsConsistent(t *testing.T) {
	dir := t.TempDir()
	for _, e := range Default() {
		touch(t, dir, e.Source)
	}
	cat, err := New(dir, Default())
	require.NoError(t, err)
	primary, ok := cat.Primary()
	require.True(t, ok)
	assert.Equal(t, "index.html", primary.Output)
}
