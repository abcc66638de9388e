package git

import (
	"context"
	"log/slog"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// ExecRepository implements Repository by running the git binary.
type ExecRepository struct {
	dir    string
	runner Runner
}

// NewExecRepository returns a Repository for the work tree containing dir.
// A nil runner means ExecRunner.
func NewExecRepository(dir string, runner Runner) *ExecRepository {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &ExecRepository{dir: dir, runner: runner}
}

func (r *ExecRepository) git(ctx context.Context, args ...string) (CommandResult, error) {
	slog.Debug("git", slog.String("args", strings.Join(args, " ")), logfields.Path(r.dir))
	res, err := r.runner.Run(ctx, r.dir, "git", args...)
	if err != nil {
		return res, foundationerrors.WrapError(err, foundationerrors.CategoryRepository, "cannot run git").
			WithSeverity(foundationerrors.SeverityFatal).
			WithContext("command", "git "+args[0]).
			Build()
	}
	return res, nil
}

// must runs git and turns a non-zero exit into a repository error.
func (r *ExecRepository) must(ctx context.Context, args ...string) (string, error) {
	res, err := r.git(ctx, args...)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", foundationerrors.RepositoryError("git "+args[0]+" failed").
			WithContext("command", "git "+strings.Join(args, " ")).
			WithContext("exit_code", res.ExitCode).
			WithContext("stderr", strings.TrimSpace(res.Stderr)).
			Build()
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (r *ExecRepository) IsRepository(ctx context.Context) (bool, error) {
	res, err := r.git(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false, err
	}
	return res.Success() && strings.TrimSpace(res.Stdout) == "true", nil
}

func (r *ExecRepository) Root(ctx context.Context) (string, error) {
	return r.must(ctx, "rev-parse", "--show-toplevel")
}

func (r *ExecRepository) CurrentBranch(ctx context.Context) (string, error) {
	res, err := r.git(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", foundationerrors.RepositoryError("HEAD is detached").
			WithContext("exit_code", res.ExitCode).
			Build()
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (r *ExecRepository) IsClean(ctx context.Context) (bool, error) {
	out, err := r.must(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

func (r *ExecRepository) HeadRevision(ctx context.Context) (string, error) {
	return r.must(ctx, "rev-parse", "HEAD")
}

func (r *ExecRepository) Checkout(ctx context.Context, branch string, force bool) error {
	args := []string{"checkout"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, branch, "--")
	_, err := r.must(ctx, args...)
	return err
}

func (r *ExecRepository) StageAll(ctx context.Context) error {
	_, err := r.must(ctx, "add", "--all")
	return err
}

// Commit falls back to git's configured user when author is zero.
func (r *ExecRepository) Commit(ctx context.Context, message string, author Signature) (string, error) {
	var args []string
	if author.Name != "" {
		args = append(args, "-c", "user.name="+author.Name)
	}
	if author.Email != "" {
		args = append(args, "-c", "user.email="+author.Email)
	}
	args = append(args, "commit", "--quiet", "-m", message)
	if _, err := r.must(ctx, args...); err != nil {
		return "", err
	}
	return r.HeadRevision(ctx)
}
