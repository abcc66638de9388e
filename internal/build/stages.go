package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/observability"
	"git.home.luguber.info/inful/sitepub/internal/workspace"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

const (
	StagePrepareBuildDir StageName = "prepare_build_dir"
	StageConvert         StageName = "convert"
	StageMinify          StageName = "minify"
	StageInline          StageName = "inline"
	StageAnnotate        StageName = "annotate"
	StageCompress        StageName = "compress"
)

// Stage is a discrete unit of work in the build.
type Stage func(ctx context.Context, bs *buildState) error

// StageDef pairs a stage name with its implementation.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageError reports the stage that aborted a build. Err carries the
// classified cause naming the artifact involved.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// artifactState tracks one catalog artifact through the stages.
type artifactState struct {
	artifact   catalog.Artifact
	path       string
	compressed string
	inlined    bool
}

// buildState is the mutable state threaded through the stages of one build.
type buildState struct {
	svc       *DefaultBuildService
	dir       *workspace.BuildDir
	artifacts []*artifactState
	primary   *artifactState
	inlined   []string
	durations map[StageName]time.Duration
}

func newBuildState(svc *DefaultBuildService, dir *workspace.BuildDir) *buildState {
	bs := &buildState{svc: svc, dir: dir, durations: map[StageName]time.Duration{}}
	primary, hasPrimary := svc.catalog.Primary()
	for _, a := range svc.catalog.All() {
		st := &artifactState{artifact: a}
		if hasPrimary && a.Name == primary.Name {
			bs.primary = st
		}
		bs.artifacts = append(bs.artifacts, st)
	}
	return bs
}

// pipeline is the fixed stage order.
func pipeline() []StageDef {
	return []StageDef{
		{StagePrepareBuildDir, stagePrepareBuildDir},
		{StageConvert, stageConvert},
		{StageMinify, stageMinify},
		{StageInline, stageInline},
		{StageAnnotate, stageAnnotate},
		{StageCompress, stageCompress},
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Stages are not interrupted once started.
func runStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	rec := bs.svc.recorder
	for _, st := range stages {
		stageCtx := observability.WithStage(ctx, string(st.Name))
		observability.DebugContext(stageCtx, "Stage started")

		t0 := time.Now()
		err := st.Fn(stageCtx, bs)
		dur := time.Since(t0)

		bs.durations[st.Name] = dur
		rec.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			rec.IncStageResult(string(st.Name), metrics.ResultFailed)
			observability.ErrorContext(stageCtx, "Stage failed", logfields.Error(err))
			return &StageError{Stage: st.Name, Err: err}
		}
		rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
		observability.InfoContext(stageCtx, "Stage complete",
			logfields.DurationMS(float64(dur.Microseconds())/1000),
			slog.Int("artifacts", len(bs.live())))
	}
	return nil
}

// live returns the artifacts that currently have a file in the build directory.
func (bs *buildState) live() []*artifactState {
	var out []*artifactState
	for _, a := range bs.artifacts {
		if a.path != "" && !a.inlined {
			out = append(out, a)
		}
	}
	return out
}
