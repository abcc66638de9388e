package transform

import (
	"bytes"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// DefaultCompressedSuffix is appended to a file name to name its compressed sibling.
const DefaultCompressedSuffix = ".gz"

// DefaultCompressionLevel is used when no level is configured.
const DefaultCompressionLevel = gzip.BestCompression

// Compress writes a gzip copy of the file at path next to it and returns the
// sibling's path. The original is kept. The gzip header carries no name or
// modification time, so identical input gives identical output.
func Compress(path, suffix string, level int) (string, error) {
	if suffix == "" {
		suffix = DefaultCompressedSuffix
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read file to compress").
			WithContext("path", path).
			Build()
	}

	gz, err := GzipBytes(data, level)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "gzip compression failed").
			WithSeverity(foundationerrors.SeverityFatal).
			WithContext("path", path).
			Build()
	}

	target := path + suffix
	if err := os.WriteFile(target, gz, 0o600); err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write compressed file").
			WithContext("path", target).
			Build()
	}
	return target, nil
}

// GzipBytes compresses data at level with an empty header: no name and an
// MTIME field of zero.
func GzipBytes(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	// The zero time.Time does not encode as zero; the epoch does.
	zw.ModTime = time.Unix(0, 0)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
