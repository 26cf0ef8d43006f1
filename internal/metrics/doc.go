// Package metrics provides build observability hooks for sitesmith.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs nil checks:
//
//	p := pipeline.New("blog", ...).WithRecorder(metrics.NoopRecorder{})
//
// The dev server swaps in a PrometheusRecorder backed by a private registry
// and serves it at /metrics through HTTPHandler.
package metrics
