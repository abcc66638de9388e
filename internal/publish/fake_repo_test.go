package publish

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitepub/internal/git"
)

// fakeRepo records every call and lets tests fail a chosen operation.
type fakeRepo struct {
	root     string
	branch   string
	clean    bool
	isRepo   bool
	failOn   map[string]error
	calls    []string
	commits  []string
	unchange bool
}

func newFakeRepo(root string) *fakeRepo {
	return &fakeRepo{root: root, branch: "main", clean: true, isRepo: true, failOn: map[string]error{}}
}

func (f *fakeRepo) record(call string) error {
	f.calls = append(f.calls, call)
	for prefix, err := range f.failOn {
		if strings.HasPrefix(call, prefix) {
			return err
		}
	}
	return nil
}

func (f *fakeRepo) IsRepository(context.Context) (bool, error) {
	return f.isRepo, f.record("IsRepository")
}

func (f *fakeRepo) Root(context.Context) (string, error) {
	return f.root, f.record("Root")
}

func (f *fakeRepo) CurrentBranch(context.Context) (string, error) {
	return f.branch, f.record("CurrentBranch")
}

func (f *fakeRepo) IsClean(context.Context) (bool, error) {
	return f.clean, f.record("IsClean")
}

func (f *fakeRepo) HeadRevision(context.Context) (string, error) {
	return "abc123", f.record("HeadRevision")
}

func (f *fakeRepo) Checkout(_ context.Context, branch string, force bool) error {
	if err := f.record(fmt.Sprintf("Checkout %s force=%t", branch, force)); err != nil {
		return err
	}
	f.branch = branch
	return nil
}

func (f *fakeRepo) StageAll(context.Context) error {
	if err := f.record("StageAll"); err != nil {
		return err
	}
	f.clean = f.unchange
	return nil
}

func (f *fakeRepo) Commit(_ context.Context, message string, _ git.Signature) (string, error) {
	if err := f.record("Commit"); err != nil {
		return "", err
	}
	f.commits = append(f.commits, message)
	f.clean = true
	return "def456", nil
}
