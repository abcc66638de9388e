package git

import "context"

// Signature identifies the author of a publish commit.
type Signature struct {
	Name  string
	Email string
}

// IsZero reports whether no author was configured.
func (s Signature) IsZero() bool {
	return s.Name == "" && s.Email == ""
}

// DefaultSignature is used by backends that cannot fall back to git's own
// user configuration.
var DefaultSignature = Signature{Name: "sitepub", Email: "sitepub@localhost"}

// Repository is the version control surface used by the publisher.
type Repository interface {
	// IsRepository reports whether the directory is inside a work tree.
	IsRepository(ctx context.Context) (bool, error)
	// Root returns the top-level directory of the work tree.
	Root(ctx context.Context) (string, error)
	// CurrentBranch returns the checked out branch; a detached HEAD is an error.
	CurrentBranch(ctx context.Context) (string, error)
	// IsClean reports whether there are no staged, unstaged or untracked
	// (non-ignored) changes.
	IsClean(ctx context.Context) (bool, error)
	// HeadRevision returns the full hash of the HEAD commit.
	HeadRevision(ctx context.Context) (string, error)
	// Checkout switches to branch. With force, local modifications are discarded.
	Checkout(ctx context.Context, branch string, force bool) error
	// StageAll stages every addition, modification and deletion.
	StageAll(ctx context.Context) error
	// Commit records the staged changes and returns the new commit hash.
	Commit(ctx context.Context, message string, author Signature) (string, error)
}
