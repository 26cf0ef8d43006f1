package pipeline

import (
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

// Outcome is the final result of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what happened during one pipeline run.
type Report struct {
	Pipeline       string
	BuildID        string
	Start          time.Time
	End            time.Time
	Files          int // files in the set when the run ended
	StageDurations map[string]time.Duration
	StageResults   map[string]metrics.ResultLabel
	Errors         []error
	Warnings       []error
	Outcome        Outcome
}

func newReport(pipeline, buildID string) *Report {
	return &Report{
		Pipeline:       pipeline,
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
		StageResults:   make(map[string]metrics.ResultLabel),
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

func (r *Report) finish(files int) {
	r.End = time.Now()
	r.Files = files
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
		if se, ok := r.Errors[len(r.Errors)-1].(*StageError); ok && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
		}
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}
