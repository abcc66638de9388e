package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

type scriptedRunner struct {
	calls   []string
	results map[string]CommandResult
	err     error
}

func (s *scriptedRunner) Run(_ context.Context, _ string, name string, args ...string) (CommandResult, error) {
	line := name + " " + strings.Join(args, " ")
	s.calls = append(s.calls, line)
	if s.err != nil {
		return CommandResult{}, s.err
	}
	return s.results[line], nil
}

func TestExecRepositoryCommandLines(t *testing.T) {
	ctx := context.Background()
	runner := &scriptedRunner{results: map[string]CommandResult{
		"git rev-parse --is-inside-work-tree": {Stdout: "true\n"},
		"git symbolic-ref --short -q HEAD":     {Stdout: "main\n"},
		"git status --porcelain":               {Stdout: ""},
		"git rev-parse HEAD":                   {Stdout: "abc123\n"},
	}}
	r := NewExecRepository("/repo", runner)

	ok, err := r.IsRepository(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	branch, err := r.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, r.Checkout(ctx, "gh-pages", false))
	require.NoError(t, r.Checkout(ctx, "main", true))
	require.NoError(t, r.StageAll(ctx))

	hash, err := r.Commit(ctx, "Publish site", Signature{Name: "Bot", Email: "bot@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)

	assert.Equal(t, []string{
		"git rev-parse --is-inside-work-tree",
		"git symbolic-ref --short -q HEAD",
		"git status --porcelain",
		"git checkout gh-pages --",
		"git checkout --force main --",
		"git add --all",
		"git -c user.name=Bot -c user.email=bot@example.com commit --quiet -m Publish site",
		"git rev-parse HEAD",
	}, runner.calls)
}

func TestExecRepositoryNonZeroExit(t *testing.T) {
	ctx := context.Background()
	runner := &scriptedRunner{results: map[string]CommandResult{
		"git symbolic-ref --short -q HEAD": {ExitCode: 1},
		"git status --porcelain":           {Stdout: " M index.md\n"},
		"git checkout gh-pages --":         {ExitCode: 1, Stderr: "error: pathspec 'gh-pages' did not match\n"},
	}}
	r := NewExecRepository("/repo", runner)

	_, err := r.CurrentBranch(ctx)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRepository))

	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)

	err = r.Checkout(ctx, "gh-pages", false)
	require.Error(t, err)
	ce, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	stderr, _ := ce.Context().GetString("stderr")
	assert.Equal(t, "error: pathspec 'gh-pages' did not match", stderr)
}

func TestExecRepositoryRunnerFailure(t *testing.T) {
	r := NewExecRepository("/repo", &scriptedRunner{err: errors.New("exec: \"git\": executable file not found in $PATH")})
	_, err := r.IsRepository(context.Background())
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRepository))
}

func TestExecRunnerReportsExitCode(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
	res, err := ExecRunner{}.Run(context.Background(), t.TempDir(), "git", "rev-parse", "--is-inside-work-tree")
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
}

func TestExecRepositoryAgainstGoGitRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
	ctx := context.Background()
	repo, dir := initRepo(t)
	createBranch(t, repo, "gh-pages")
	r := NewExecRepository(dir, nil)

	ok, err := r.IsRepository(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	head, err := repo.Head()
	require.NoError(t, err)
	rev, err := r.HeadRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, head.Hash().String(), rev)

	require.NoError(t, r.Checkout(ctx, "gh-pages", false))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>x</p>"), 0o600))
	require.NoError(t, r.StageAll(ctx))
	hash, err := r.Commit(ctx, "Publish site", DefaultSignature)
	require.NoError(t, err)
	assert.NotEqual(t, rev, hash)

	fromFile, err := ReadRepoHead(dir)
	require.NoError(t, err)
	assert.Equal(t, hash, fromFile)
}
