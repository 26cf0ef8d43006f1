package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	pipelineDuration *prom.HistogramVec
	stageResults     *prom.CounterVec
	taskOutcomes     *prom.CounterVec
	reloads          *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitesmith",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"pipeline", "stage"}),
		pipelineDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitesmith",
			Name:      "pipeline_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		}, []string{"pipeline"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesmith",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"pipeline", "stage", "result"}),
		taskOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesmith",
			Name:      "task_outcomes_total",
			Help:      "Build task outcomes",
		}, []string{"task", "outcome"}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesmith",
			Name:      "livereload_broadcasts_total",
			Help:      "Live-reload notifications sent to browsers",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.stageDuration, pr.pipelineDuration, pr.stageResults, pr.taskOutcomes, pr.reloads)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(pipeline, stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePipelineDuration(pipeline string, d time.Duration) {
	if p == nil {
		return
	}
	p.pipelineDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(pipeline, stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(pipeline, stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncTaskOutcome(task string, success bool) {
	if p == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "success"
	}
	p.taskOutcomes.WithLabelValues(task, outcome).Inc()
}

func (p *PrometheusRecorder) IncReloadBroadcast(kind string) {
	if p == nil {
		return
	}
	p.reloads.WithLabelValues(kind).Inc()
}
