package publish

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/build"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/observability"
	"git.home.luguber.info/inful/sitepub/internal/workspace"
)

const (
	DefaultBranch = "gh-pages"
	// DefaultMessage is the commit message template; {revision} is replaced
	// with the source revision the build was made from.
	DefaultMessage = "Publish site built from {revision}"
)

// DefaultPurge lists the top-level patterns removed from the publish branch
// before the new build is copied in.
var DefaultPurge = []string{"*.html", "*.css", "*.js", "*.md", "*.gz", "*.yml"}

// Options configures a Publisher. Zero values select the defaults.
type Options struct {
	Branch  string
	Purge   []string
	Message string
	Author  git.Signature
}

func (o Options) withDefaults() Options {
	if o.Branch == "" {
		o.Branch = DefaultBranch
	}
	if o.Purge == nil {
		o.Purge = DefaultPurge
	}
	if o.Message == "" {
		o.Message = DefaultMessage
	}
	return o
}

// Result describes a publish attempt. Publish always returns a non-nil
// Result, also on failure.
type Result struct {
	// State is the last state reached.
	State State
	// Transitions lists every state reached after Idle, in order.
	Transitions    []State
	OriginalBranch string
	Branch         string
	SourceRevision string
	// Commit is empty when nothing changed.
	Commit    string
	Unchanged bool
	Purged    []string
	Copied    []string
	// RestoreErr is set when returning to the original branch failed after
	// another error.
	RestoreErr error
	Duration   time.Duration
}

// Publisher runs the publish state machine against a repository.
type Publisher struct {
	repo     git.Repository
	opts     Options
	recorder metrics.Recorder
}

// New creates a Publisher.
func New(repo git.Repository, opts Options) *Publisher {
	return &Publisher{repo: repo, opts: opts.withDefaults(), recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (p *Publisher) WithRecorder(r metrics.Recorder) *Publisher {
	if r != nil {
		p.recorder = r
	}
	return p
}

// run carries the values captured during one publish.
type run struct {
	m      machine
	res    *Result
	root   string
	source string
}

// Publish moves the output of a successful build into the publish branch.
func (p *Publisher) Publish(ctx context.Context, b *build.Result) (*Result, error) {
	start := time.Now()
	r := &run{res: &Result{Branch: p.opts.Branch}}
	defer func() {
		r.res.State = r.m.state
		r.res.Transitions = r.m.reached
		r.res.Duration = time.Since(start)
	}()

	if b == nil || !b.Status.IsSuccess() {
		p.recorder.IncPublishOutcome(metrics.OutcomeFailed)
		return r.res, foundationerrors.PreconditionError("only a successful build can be published").Build()
	}
	ctx = observability.WithBuildID(ctx, b.BuildID)
	r.source = b.OutputDir

	steps := []struct {
		to State
		fn func(context.Context, *run) error
	}{
		{StatePreconditionChecked, p.checkPreconditions},
		{StateBranchSwitched, p.switchBranch},
		{StatePurged, p.purge},
		{StatePopulated, p.populate},
		{StateCommitted, p.commit},
		{StateRestored, p.restore},
	}

	for _, step := range steps {
		tctx := observability.WithTransition(ctx, step.to.String())
		observability.DebugContext(tctx, "Publish transition starting")
		err := step.fn(tctx, r)
		if err == nil {
			err = r.m.advance(step.to)
		}
		if err != nil {
			p.recorder.IncTransitionResult(step.to.String(), metrics.ResultFailed)
			observability.ErrorContext(tctx, "Publish transition failed", logfields.Error(err))
			// The checkout may have started even if it failed.
			if step.to > StatePreconditionChecked {
				r.res.RestoreErr = p.forceRestore(ctx, r)
			}
			p.recorder.IncPublishOutcome(metrics.OutcomeFailed)
			return r.res, err
		}
		p.recorder.IncTransitionResult(step.to.String(), metrics.ResultSuccess)
	}

	outcome := metrics.OutcomeSuccess
	if r.res.Unchanged {
		outcome = metrics.OutcomeUnchanged
	}
	p.recorder.IncPublishOutcome(outcome)
	observability.InfoContext(ctx, "Publish completed",
		logfields.Branch(p.opts.Branch),
		logfields.Revision(r.res.Commit),
		slog.Bool("unchanged", r.res.Unchanged),
		slog.Int("files", len(r.res.Copied)))
	return r.res, nil
}

func (p *Publisher) checkPreconditions(ctx context.Context, r *run) error {
	ok, err := p.repo.IsRepository(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return foundationerrors.PreconditionError("not inside a git work tree").Build()
	}
	clean, err := p.repo.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return foundationerrors.PreconditionError("work tree has uncommitted changes").
			WithContext("hint", "commit or stash your changes before publishing").
			Build()
	}

	branch, err := p.repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if branch == p.opts.Branch {
		return foundationerrors.PreconditionError("already on the publish branch").
			WithContext("branch", branch).
			Build()
	}
	revision, err := p.repo.HeadRevision(ctx)
	if err != nil {
		return err
	}
	root, err := p.repo.Root(ctx)
	if err != nil {
		return err
	}
	// Checkout and staging would sweep a build directory below the root into
	// the publish branch and remove it again on restore.
	if withinPath(root, r.source) {
		return foundationerrors.PreconditionError("build directory is inside the work tree").
			WithContext("path", r.source).
			WithContext("root", root).
			WithContext("hint", "set build.directory to a path outside the repository").
			Build()
	}

	r.root = root
	r.res.OriginalBranch = branch
	r.res.SourceRevision = revision
	observability.InfoContext(ctx, "Publish preconditions satisfied",
		logfields.Branch(branch), logfields.Revision(revision))
	return nil
}

func (p *Publisher) switchBranch(ctx context.Context, _ *run) error {
	observability.InfoContext(ctx, "Switching to publish branch", logfields.Branch(p.opts.Branch))
	return p.repo.Checkout(ctx, p.opts.Branch, false)
}

func (p *Publisher) purge(ctx context.Context, r *run) error {
	for _, pattern := range p.opts.Purge {
		matches, err := filepath.Glob(filepath.Join(r.root, pattern))
		if err != nil {
			return foundationerrors.ValidationError("invalid purge pattern").
				WithCause(err).
				WithContext("pattern", pattern).
				Build()
		}
		for _, match := range matches {
			info, err := os.Lstat(match)
			if err != nil || info.IsDir() {
				continue
			}
			if err := os.Remove(match); err != nil && !errors.Is(err, os.ErrNotExist) {
				return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot purge file").
					WithContext("path", match).
					Build()
			}
			r.res.Purged = append(r.res.Purged, filepath.Base(match))
		}
	}
	sort.Strings(r.res.Purged)
	observability.DebugContext(ctx, "Purged published files", slog.Int("count", len(r.res.Purged)))
	return nil
}

func (p *Publisher) populate(ctx context.Context, r *run) error {
	entries, err := os.ReadDir(r.source)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot read build directory").
			WithContext("path", r.source).
			Build()
	}
	for _, entry := range entries {
		src := filepath.Join(r.source, entry.Name())
		dst := filepath.Join(r.root, entry.Name())
		if entry.IsDir() {
			err = workspace.CopyDir(src, dst)
		} else {
			err = workspace.CopyFile(src, dst)
		}
		if err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot copy build output").
				WithContext("path", src).
				Build()
		}
		r.res.Copied = append(r.res.Copied, entry.Name())
	}
	observability.DebugContext(ctx, "Copied build output", slog.Int("count", len(r.res.Copied)))
	return nil
}

func (p *Publisher) commit(ctx context.Context, r *run) error {
	if err := p.repo.StageAll(ctx); err != nil {
		return err
	}
	clean, err := p.repo.IsClean(ctx)
	if err != nil {
		return err
	}
	if clean {
		r.res.Unchanged = true
		observability.InfoContext(ctx, "Published output unchanged, nothing to commit")
		return nil
	}
	message := strings.ReplaceAll(p.opts.Message, "{revision}", r.res.SourceRevision)
	hash, err := p.repo.Commit(ctx, message, p.opts.Author)
	if err != nil {
		return err
	}
	r.res.Commit = hash
	observability.InfoContext(ctx, "Committed published output", logfields.Revision(hash))
	return nil
}

func (p *Publisher) restore(ctx context.Context, r *run) error {
	return p.repo.Checkout(ctx, r.res.OriginalBranch, false)
}

// forceRestore returns to the original branch, discarding whatever the
// publish left in the work tree.
func (p *Publisher) forceRestore(ctx context.Context, r *run) error {
	if r.res.OriginalBranch == "" {
		return nil
	}
	err := p.repo.Checkout(ctx, r.res.OriginalBranch, true)
	if err != nil {
		observability.ErrorContext(ctx, "Could not restore original branch",
			logfields.Branch(r.res.OriginalBranch), logfields.Error(err))
		return err
	}
	observability.WarnContext(ctx, "Restored original branch after failed publish",
		logfields.Branch(r.res.OriginalBranch))
	return nil
}

// withinPath reports whether p is root or lies below it, after resolving
// symlinks where possible.
func withinPath(root, p string) bool {
	absRoot, errRoot := resolvePath(root)
	absP, errP := resolvePath(p)
	if errRoot != nil || errP != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absP)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
