package build

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/markdown"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/minify"
	"git.home.luguber.info/inful/sitepub/internal/observability"
	"git.home.luguber.info/inful/sitepub/internal/transform"
	"git.home.luguber.info/inful/sitepub/internal/workspace"
)

// Options configures the non-injectable parts of a build.
type Options struct {
	// BuildDir is resolved against the catalog's base directory.
	BuildDir       string
	SourceURL      string
	CompressSuffix string
	CompressLevel  int
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	catalog   *catalog.Catalog
	opts      Options
	converter markdown.Converter
	minifier  minify.Minifier
	recorder  metrics.Recorder
	newID     func() string
}

// NewBuildService creates a DefaultBuildService for cat. The default
// converter is goldmark with cross-document links rewritten; the default
// minifier is the remote service.
func NewBuildService(cat *catalog.Catalog, opts Options) *DefaultBuildService {
	if opts.SourceURL == "" {
		opts.SourceURL = transform.DefaultSourceURL
	}
	if opts.CompressSuffix == "" {
		opts.CompressSuffix = transform.DefaultCompressedSuffix
	}
	if opts.CompressLevel == 0 {
		opts.CompressLevel = transform.DefaultCompressionLevel
	}
	return &DefaultBuildService{
		catalog:   cat,
		opts:      opts,
		converter: markdown.NewGoldmarkConverter(markdown.Options{LinkTargets: DocumentLinkTargets(cat)}),
		minifier:  minify.NewRemote(minify.RemoteConfig{}),
		recorder:  metrics.NoopRecorder{},
		newID:     uuid.NewString,
	}
}

// DocumentLinkTargets maps each document's source path to its output name.
func DocumentLinkTargets(cat *catalog.Catalog) map[string]string {
	targets := map[string]string{}
	for _, a := range cat.ByKind(catalog.KindDocument) {
		targets[a.Source] = a.Output
	}
	return targets
}

// WithConverter replaces the document converter.
func (s *DefaultBuildService) WithConverter(c markdown.Converter) *DefaultBuildService {
	s.converter = c
	return s
}

// WithMinifier replaces the minifier.
func (s *DefaultBuildService) WithMinifier(m minify.Minifier) *DefaultBuildService {
	s.minifier = m
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithIDGenerator replaces the build id generator (for tests).
func (s *DefaultBuildService) WithIDGenerator(fn func() string) *DefaultBuildService {
	s.newID = fn
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{
		BuildID:   s.newID(),
		StartTime: start,
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	dir, err := workspace.New(s.catalog.BaseDir(), s.opts.BuildDir)
	if err != nil {
		s.finish(ctx, result, err)
		return result, err
	}
	result.OutputDir = dir.Path()

	observability.InfoContext(ctx, "Build started",
		logfields.Path(result.OutputDir),
		slog.Int("artifacts", len(s.catalog.All())))

	bs := newBuildState(s, dir)
	err = runStages(ctx, bs, pipeline())

	result.StageDurations = bs.durations
	result.Inlined = bs.inlined
	for _, st := range bs.artifacts {
		result.Artifacts = append(result.Artifacts, ArtifactOutput{
			Name:       st.artifact.Name,
			Kind:       st.artifact.Kind,
			Path:       st.path,
			Compressed: st.compressed,
			Inlined:    st.inlined,
		})
	}
	var se *StageError
	if errors.As(err, &se) {
		result.FailedStage = se.Stage
	}
	s.finish(ctx, result, err)
	return result, err
}

func (s *DefaultBuildService) finish(ctx context.Context, result *Result, err error) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveBuildDuration(result.Duration)

	if err != nil {
		result.Status = StatusFailed
		s.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		observability.ErrorContext(ctx, "Build failed",
			logfields.Stage(string(result.FailedStage)),
			logfields.Error(err))
		return
	}
	result.Status = StatusSuccess
	s.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	observability.InfoContext(ctx, "Build complete",
		logfields.Path(result.OutputDir),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
}

func (s *DefaultBuildService) recordSizes(st *artifactState) {
	if info, err := os.Stat(st.path); err == nil {
		s.recorder.ObserveArtifactBytes(st.artifact.Name, "final", int(info.Size()))
	}
	if info, err := os.Stat(st.compressed); err == nil {
		s.recorder.ObserveArtifactBytes(st.artifact.Name, "compressed", int(info.Size()))
	}
}
