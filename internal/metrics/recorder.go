package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for pipeline, task and live-reload metrics.
type Recorder interface {
	ObserveStageDuration(pipeline, stage string, d time.Duration)
	ObservePipelineDuration(pipeline string, d time.Duration)
	IncStageResult(pipeline, stage string, result ResultLabel)
	IncTaskOutcome(task string, success bool)
	IncReloadBroadcast(kind string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, string, time.Duration) {}
func (NoopRecorder) ObservePipelineDuration(string, time.Duration)      {}
func (NoopRecorder) IncStageResult(string, string, ResultLabel)         {}
func (NoopRecorder) IncTaskOutcome(string, bool)                        {}
func (NoopRecorder) IncReloadBroadcast(string)                          {}
