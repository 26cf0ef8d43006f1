// Package pipeline runs an ordered list of stages over a virtual file set
// with an explicit, typed build context.
//
// Each stage declares which context keys it requires and provides. Validate
// walks the stages in order and rejects a pipeline whose stage would read a
// key nobody has set yet, so ordering mistakes surface before any file is
// touched.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

// Pipeline is a named, strictly sequential list of stages.
type Pipeline struct {
	name     string
	seeds    []string
	stages   []Stage
	recorder metrics.Recorder
	logger   *slog.Logger
}

// New creates a pipeline. seeds names the context keys the caller sets
// before Run.
func New(name string, seeds []string, stages ...Stage) *Pipeline {
	return &Pipeline{
		name:     name,
		seeds:    seeds,
		stages:   stages,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
}

// WithRecorder sets the metrics recorder. A nil recorder is ignored.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithLogger sets the logger used for run and stage lines.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Validate checks that every required key is seeded or provided by an
// earlier stage.
func (p *Pipeline) Validate() error {
	available := make(map[string]struct{}, len(p.seeds))
	for _, k := range p.seeds {
		available[k] = struct{}{}
	}
	for _, s := range p.stages {
		for _, k := range s.Requires() {
			if _, ok := available[k]; !ok {
				return serrors.ValidationFailed("stage "+s.Name(),
					fmt.Sprintf("requires key %q which no earlier stage provides", k)).
					WithContext("pipeline", p.name)
			}
		}
		for _, k := range s.Provides() {
			available[k] = struct{}{}
		}
	}
	return nil
}

// Run validates the pipeline, then executes each stage in order against
// files and pc. A fatal or canceled stage stops the run; warnings are
// recorded and the run continues. The returned error, if any, is a
// *StageError.
func (p *Pipeline) Run(ctx context.Context, files *fileset.Set, pc *Context) (*Report, error) {
	report := newReport(p.name, uuid.NewString())
	log := p.logger.With(logfields.Pipeline(p.name), logfields.BuildID(report.BuildID))

	if err := p.Validate(); err != nil {
		se := Fatal("validate", err)
		report.Errors = append(report.Errors, se)
		report.finish(files.Len())
		return report, se
	}
	for _, k := range p.seeds {
		if !pc.Has(k) {
			se := Fatal("seed", serrors.ValidationFailed("seed", fmt.Sprintf("context key %q not set", k)))
			report.Errors = append(report.Errors, se)
			report.finish(files.Len())
			return report, se
		}
	}

	log.Info("Pipeline started", logfields.Files(files.Len()), slog.Int("stages", len(p.stages)))
	err := p.runStages(ctx, files, pc, report, log)
	report.finish(files.Len())
	p.recorder.ObservePipelineDuration(p.name, report.Duration())

	if err != nil {
		log.Error("Pipeline failed", logfields.Elapsed(report.Duration()), logfields.Error(err))
		return report, err
	}
	log.Info("Pipeline finished",
		logfields.Files(files.Len()),
		logfields.Elapsed(report.Duration()),
		slog.String("outcome", string(report.Outcome)))
	return report, nil
}

func (p *Pipeline) runStages(ctx context.Context, files *fileset.Set, pc *Context, report *Report, log *slog.Logger) error {
	for _, st := range p.stages {
		name := st.Name()
		select {
		case <-ctx.Done():
			se := Canceled(name, ctx.Err())
			report.Errors = append(report.Errors, se)
			p.record(report, name, metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Run(ctx, files, pc)
		if err == nil {
			err = checkProvided(st, pc)
		}
		dur := time.Since(t0)
		report.StageDurations[name] = dur
		p.recorder.ObserveStageDuration(p.name, name, dur)
		log.Debug("Stage finished", logfields.Stage(name), logfields.Elapsed(dur), logfields.Files(files.Len()))

		if err == nil {
			p.record(report, name, metrics.ResultSuccess)
			continue
		}
		if ctx.Err() != nil {
			err = Canceled(name, err)
		}
		se := classify(name, err)
		switch se.Kind {
		case StageErrorWarning:
			p.record(report, name, metrics.ResultWarning)
			report.Warnings = append(report.Warnings, se)
			log.Warn("Stage warning", logfields.Stage(name), logfields.Error(se.Err))
		case StageErrorCanceled:
			p.record(report, name, metrics.ResultCanceled)
			report.Errors = append(report.Errors, se)
			return se
		default:
			p.record(report, name, metrics.ResultFatal)
			report.Errors = append(report.Errors, se)
			return se
		}
	}
	return nil
}

func (p *Pipeline) record(report *Report, stage string, result metrics.ResultLabel) {
	report.StageResults[stage] = result
	p.recorder.IncStageResult(p.name, stage, result)
}

// checkProvided enforces that a stage actually set what it declared.
func checkProvided(st Stage, pc *Context) error {
	for _, k := range st.Provides() {
		if !pc.Has(k) {
			return Fatal(st.Name(), serrors.InternalError(
				fmt.Sprintf("stage did not set declared key %q", k), nil))
		}
	}
	return nil
}
