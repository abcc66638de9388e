package git

import (
	"context"
	"errors"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// GoGitRepository implements Repository in process with go-git. The
// repository is opened on first use.
type GoGitRepository struct {
	dir  string
	repo *gogit.Repository
}

// NewGoGitRepository returns a Repository for the work tree containing dir.
func NewGoGitRepository(dir string) *GoGitRepository {
	return &GoGitRepository{dir: dir}
}

func (r *GoGitRepository) open() (*gogit.Repository, error) {
	if r.repo != nil {
		return r.repo, nil
	}
	repo, err := gogit.PlainOpenWithOptions(r.dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, wrapRepoErr(err, "open repository")
	}
	r.repo = repo
	return repo, nil
}

func (r *GoGitRepository) worktree() (*gogit.Worktree, error) {
	repo, err := r.open()
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, wrapRepoErr(err, "open work tree")
	}
	return wt, nil
}

func wrapRepoErr(err error, op string) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryRepository, op+" failed").
		WithContext("operation", op).
		Build()
}

func (r *GoGitRepository) IsRepository(_ context.Context) (bool, error) {
	_, err := r.open()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return false, nil
	}
	return false, err
}

func (r *GoGitRepository) Root(_ context.Context) (string, error) {
	wt, err := r.worktree()
	if err != nil {
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

func (r *GoGitRepository) CurrentBranch(_ context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", wrapRepoErr(err, "resolve HEAD")
	}
	if !ref.Name().IsBranch() {
		return "", foundationerrors.RepositoryError("HEAD is detached").
			WithContext("revision", ref.Hash().String()).
			Build()
	}
	return ref.Name().Short(), nil
}

func (r *GoGitRepository) IsClean(_ context.Context) (bool, error) {
	wt, err := r.worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, wrapRepoErr(err, "status")
	}
	return status.IsClean(), nil
}

func (r *GoGitRepository) HeadRevision(_ context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", wrapRepoErr(err, "resolve HEAD")
	}
	return ref.Hash().String(), nil
}

func (r *GoGitRepository) Checkout(_ context.Context, branch string, force bool) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Force:  force,
	})
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRepository, "checkout failed").
			WithContext("branch", branch).
			WithContext("force", force).
			Build()
	}
	return nil
}

func (r *GoGitRepository) StageAll(_ context.Context) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	status, err := wt.Status()
	if err != nil {
		return wrapRepoErr(err, "status")
	}
	for path, st := range status {
		if st.Worktree == gogit.Unmodified {
			continue
		}
		if st.Worktree == gogit.Deleted {
			_, err = wt.Remove(path)
		} else {
			_, err = wt.Add(path)
		}
		if err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryRepository, "stage failed").
				WithContext("path", path).
				Build()
		}
	}
	return nil
}

// Commit uses DefaultSignature when author is zero, since go-git does not
// read the user's git configuration.
func (r *GoGitRepository) Commit(_ context.Context, message string, author Signature) (string, error) {
	wt, err := r.worktree()
	if err != nil {
		return "", err
	}
	if author.IsZero() {
		author = DefaultSignature
	}
	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: time.Now()},
	})
	if err != nil {
		return "", wrapRepoErr(err, "commit")
	}
	return hash.String(), nil
}
