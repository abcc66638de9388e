package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

func TestNewResolvesRelativeToBase(t *testing.T) {
	base := t.TempDir()
	bd, err := New(base, "docs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "docs"), bd.Path())
	assert.Equal(t, filepath.Join(base, "docs", "index.html"), bd.Join("index.html"))
}

func TestNewRejectsDirectoryContainingBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "site")

	for _, dir := range []string{".", "..", base} {
		_, err := New(base, dir)
		require.Error(t, err, dir)
		assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
	}

	_, err := New(base, "")
	require.Error(t, err)
}

func TestRecreateWipesPreviousContent(t *testing.T) {
	bd, err := New(t.TempDir(), "build")
	require.NoError(t, err)

	require.NoError(t, bd.Recreate())
	require.NoError(t, bd.WriteFile("stale.html", []byte("old")))
	require.NoError(t, os.MkdirAll(bd.Join("nested"), 0o750))

	require.NoError(t, bd.Recreate())
	entries, err := os.ReadDir(bd.Path())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveToleratesMissingFile(t *testing.T) {
	bd, err := New(t.TempDir(), "build")
	require.NoError(t, err)
	require.NoError(t, bd.Recreate())

	require.NoError(t, bd.WriteFile("style.css", []byte("a{}")))
	require.NoError(t, bd.Remove("style.css"))
	require.NoError(t, bd.Remove("style.css"))
	assert.NoFileExists(t, bd.Join("style.css"))
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<p>hi</p>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "assets"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "assets", "app.js"), []byte("x()"), 0o600))

	require.NoError(t, CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(data))
	assert.FileExists(t, filepath.Join(dst, "assets", "app.js"))
}

func TestCopyFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("older and longer"), 0o644))

	require.NoError(t, CopyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
