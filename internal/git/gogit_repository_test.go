package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

func TestGoGitRepositoryInspection(t *testing.T) {
	ctx := context.Background()
	repo, dir := initRepo(t)
	r := NewGoGitRepository(dir)

	ok, err := r.IsRepository(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	root, err := r.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, root)

	branch, err := r.CurrentBranch(ctx)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Name().Short(), branch)

	rev, err := r.HeadRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, head.Hash().String(), rev)

	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("x"), 0o600))
	clean, err = r.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestGoGitRepositoryDetectsNonRepository(t *testing.T) {
	r := NewGoGitRepository(t.TempDir())
	ok, err := r.IsRepository(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGoGitRepositoryCheckoutStageCommit(t *testing.T) {
	ctx := context.Background()
	repo, dir := initRepo(t)
	createBranch(t, repo, "gh-pages")
	r := NewGoGitRepository(dir)

	original, err := r.CurrentBranch(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Checkout(ctx, "gh-pages", false))
	branch, err := r.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gh-pages", branch)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>hi</p>"), 0o600))
	require.NoError(t, r.StageAll(ctx))

	hash, err := r.Commit(ctx, "Publish site", Signature{})
	require.NoError(t, err)
	rev, err := r.HeadRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, rev, hash)

	commit, err := repo.CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultSignature.Name, commit.Author.Name)
	_, err = commit.File("a.txt")
	assert.Error(t, err, "deletion should be committed")
	_, err = commit.File("index.html")
	assert.NoError(t, err)

	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, r.Checkout(ctx, original, true))
	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	assert.NoError(t, err)
}

func TestGoGitRepositoryCheckoutUnknownBranch(t *testing.T) {
	_, dir := initRepo(t)
	r := NewGoGitRepository(dir)
	err := r.Checkout(context.Background(), "does-not-exist", false)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRepository))
}
