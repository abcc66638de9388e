package workspace

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// BuildDir is the staging directory a build writes into. It is destroyed and
// recreated at the start of every build and owned by a single build at a time.
type BuildDir struct {
	path string
}

// New resolves dir against baseDir and returns the build directory handle.
// The directory must be neither the base directory nor one of its ancestors,
// since recreating it would wipe the sources.
func New(baseDir, dir string) (*BuildDir, error) {
	if dir == "" {
		return nil, foundationerrors.ConfigError("build directory is not configured").Build()
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot resolve base directory").
			WithContext("path", baseDir).
			Build()
	}
	path := dir
	if !filepath.IsAbs(path) {
		path = filepath.Join(absBase, path)
	}
	path = filepath.Clean(path)
	if path == absBase || isWithin(path, absBase) {
		return nil, foundationerrors.ConfigError("build directory must not contain the base directory").
			WithContext("build_dir", path).
			WithContext("base_dir", absBase).
			Build()
	}
	return &BuildDir{path: path}, nil
}

// isWithin reports whether child is strictly below parent.
func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Path returns the absolute path of the build directory.
func (b *BuildDir) Path() string {
	return b.path
}

// Join returns the path of name inside the build directory.
func (b *BuildDir) Join(name string) string {
	return filepath.Join(b.path, name)
}

// Recreate removes the directory with everything in it and creates it empty.
func (b *BuildDir) Recreate() error {
	if err := os.RemoveAll(b.path); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to remove build directory").
			WithContext("path", b.path).
			Build()
	}
	if err := os.MkdirAll(b.path, 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create build directory").
			WithContext("path", b.path).
			Build()
	}
	slog.Debug("Recreated build directory", logfields.Path(b.path))
	return nil
}

// WriteFile writes data to name inside the build directory.
func (b *BuildDir) WriteFile(name string, data []byte) error {
	path := b.Join(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write build output").
			WithContext("path", path).
			Build()
	}
	return nil
}

// Remove deletes name from the build directory. A missing file is not an error.
func (b *BuildDir) Remove(name string) error {
	err := os.Remove(b.Join(name))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to remove build output").
		WithContext("path", b.Join(name)).
		Build()
}
