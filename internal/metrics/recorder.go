package metrics

import "time"

// ResultLabel enumerates stage and transition result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Outcome labels for whole builds and publishes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeUnchanged = "unchanged"
)

// Recorder defines observability hooks for build stages and publish
// transitions. Implementations may forward to Prometheus or anything else.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	ObserveArtifactBytes(artifact, form string, n int)
	IncTransitionResult(transition string, result ResultLabel)
	IncPublishOutcome(outcome string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) ObserveArtifactBytes(string, string, int)   {}
func (NoopRecorder) IncTransitionResult(string, ResultLabel)    {}
func (NoopRecorder) IncPublishOutcome(string)                   {}
