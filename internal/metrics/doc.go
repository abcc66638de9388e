// Package metrics records build stage and publish transition metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	recorder := metrics.NewPrometheusRecorder(nil)
//	svc := build.NewService(cat, opts).WithRecorder(recorder)
//
// The CLI is a short-lived process, so there is no scrape endpoint. When
// metrics.textfile is configured the registry is flushed with WriteTextfile
// at exit.
package metrics
