package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepub/internal/build"
	"git.home.luguber.info/inful/sitepub/internal/publish"
)

func TestStoreRecordAndList(t *testing.T) {
	ctx := context.Background()
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	started := time.UnixMilli(1_700_000_000_000)
	first := Run{BuildID: "b1", StartedAt: started, Duration: 1500 * time.Millisecond,
		BuildStatus: "success", Files: []string{"/out/index.html", "/out/index.html.gz"}}
	second := Run{BuildID: "b2", StartedAt: started.Add(time.Minute), BuildStatus: "failed",
		FailedStage: "minify", Error: "minify failed"}

	id1, err := store.Record(ctx, first)
	require.NoError(t, err)
	id2, err := store.Record(ctx, second)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b2", runs[0].BuildID)
	assert.Equal(t, "minify", runs[0].FailedStage)
	assert.False(t, runs[0].Succeeded())
	assert.Nil(t, runs[0].Files)

	assert.Equal(t, "b1", runs[1].BuildID)
	assert.True(t, runs[1].StartedAt.Equal(started))
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
	assert.Equal(t, first.Files, runs[1].Files)
	assert.True(t, runs[1].Succeeded())

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byID, err := store.GetByBuildID(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, id1, byID[0].ID)
}

func TestStoreLastPublished(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, ok, err := store.LastPublished(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Record(ctx, Run{BuildID: "b1", BuildStatus: "success", Published: true,
		PublishState: "restored", Commit: "abc", SourceRevision: "r1"})
	require.NoError(t, err)
	_, err = store.Record(ctx, Run{BuildID: "b2", BuildStatus: "success", Published: true,
		PublishState: "restored", Unchanged: true, SourceRevision: "r2"})
	require.NoError(t, err)

	last, ok, err := store.LastPublished(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b1", last.BuildID)
	assert.Equal(t, "abc", last.Commit)
	assert.True(t, last.Published)
}

func TestNewRunSummarizesResults(t *testing.T) {
	start := time.Now().Add(-time.Second)
	b := &build.Result{
		BuildID:   "b1",
		Status:    build.StatusSuccess,
		StartTime: start,
		Duration:  time.Second,
		Artifacts: []build.ArtifactOutput{{Name: "index", Path: "/out/index.html", Compressed: "/out/index.html.gz"}},
	}
	p := &publish.Result{State: publish.StateRestored, Commit: "c1", SourceRevision: "r1", Duration: time.Second}

	r := NewRun(b, p, nil)
	assert.Equal(t, "b1", r.BuildID)
	assert.Equal(t, "success", r.BuildStatus)
	assert.Equal(t, []string{"/out/index.html", "/out/index.html.gz"}, r.Files)
	assert.True(t, r.Published)
	assert.Equal(t, "restored", r.PublishState)
	assert.Equal(t, 2*time.Second, r.Duration)
	assert.True(t, r.Succeeded())

	failed := NewRun(b, &publish.Result{State: publish.StatePurged}, errors.New("boom"))
	assert.False(t, failed.Succeeded())
	assert.Equal(t, "boom", failed.Error)

	empty := NewRun(nil, nil, errors.New("config"))
	assert.False(t, empty.StartedAt.IsZero())
	assert.False(t, empty.Succeeded())
}
