package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitepub"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry         *prom.Registry
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	artifactBytes    *prom.GaugeVec
	transitionResult *prom.CounterVec
	publishOutcome   *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a private registry, reachable through Registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		artifactBytes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of each artifact in the build directory by form (final, compressed)",
		}, []string{"artifact", "form"}),
		transitionResult: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publish_transition_results_total",
			Help:      "Publish state machine transitions by result",
		}, []string{"transition", "result"}),
		publishOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publish_outcomes_total",
			Help:      "Publish outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.buildDuration, pr.buildOutcome,
		pr.artifactBytes, pr.transitionResult, pr.publishOutcome)
	return pr
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveArtifactBytes(artifact, form string, n int) {
	p.artifactBytes.WithLabelValues(artifact, form).Set(float64(n))
}

func (p *PrometheusRecorder) IncTransitionResult(transition string, result ResultLabel) {
	p.transitionResult.WithLabelValues(transition, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPublishOutcome(outcome string) {
	p.publishOutcome.WithLabelValues(outcome).Inc()
}
