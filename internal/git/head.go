package git

import (
	"os"
	"path/filepath"
	"strings"
)

// ReadRepoHead returns the commit hash HEAD points at by reading .git/HEAD
// under root, resolving a symbolic ref through its loose ref file or
// packed-refs. It needs no git binary and is used for the history ledger.
func ReadRepoHead(root string) (string, error) {
	gitDir := filepath.Join(root, ".git")
	data, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "ref:") {
		return line, nil
	}

	ref := strings.TrimSpace(strings.TrimPrefix(line, "ref:"))
	if refData, refErr := os.ReadFile(filepath.Join(gitDir, filepath.FromSlash(ref))); refErr == nil {
		return strings.TrimSpace(string(refData)), nil
	}

	packed, err := os.ReadFile(filepath.Join(gitDir, "packed-refs"))
	if err != nil {
		return "", err
	}
	for _, l := range strings.Split(string(packed), "\n") {
		fields := strings.Fields(l)
		if len(fields) == 2 && fields[1] == ref {
			return fields[0], nil
		}
	}
	return "", os.ErrNotExist
}

// ReadHeadRef returns the raw contents of .git/HEAD under root.
func ReadHeadRef(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, ".git", "HEAD"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
