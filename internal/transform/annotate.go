package transform

import (
	"os"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// DefaultSourceURL is where the provenance comment sends readers by default.
const DefaultSourceURL = "https://github.com/Nik89/CanOverhead"

// ProvenanceComment renders the comment placed at the top of the primary markup.
func ProvenanceComment(sourceURL string) string {
	return "<!-- Oh hi there! If you want to see the non-minified source code, check\n" +
		"the project source repository: " + sourceURL + " -->\n"
}

// Annotate prepends comment to the file at path. Calling it twice prepends
// the comment twice.
func Annotate(path, comment string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read file to annotate").
			WithContext("path", path).
			Build()
	}
	out := make([]byte, 0, len(comment)+len(data))
	out = append(out, comment...)
	out = append(out, data...)
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write annotated file").
			WithContext("path", path).
			Build()
	}
	return nil
}
