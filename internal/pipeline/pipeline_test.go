package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

var (
	keyVersion = NewKey[string]("docsVersion")
	keyNavs    = NewKey[[]string]("navs")
)

type countingRecorder struct {
	metrics.NoopRecorder
	results map[string]metrics.ResultLabel
	runs    int
}

func (c *countingRecorder) IncStageResult(_, stage string, r metrics.ResultLabel) {
	if c.results == nil {
		c.results = map[string]metrics.ResultLabel{}
	}
	c.results[stage] = r
}

func (c *countingRecorder) ObservePipelineDuration(string, time.Duration) { c.runs++ }

func noop(name string, requires, provides []string) Stage {
	return Func(name, requires, provides, func(context.Context, *fileset.Set, *Context) error { return nil })
}

func TestContextTypedAccess(t *testing.T) {
	pc := NewContext()
	_, ok := Get(pc, keyVersion)
	require.False(t, ok)

	Set(pc, keyVersion, "1.8")
	v, ok := Get(pc, keyVersion)
	require.True(t, ok)
	require.Equal(t, "1.8", v)
	require.Equal(t, "1.8", MustGet(pc, keyVersion))

	wrongType := NewKey[int]("docsVersion")
	_, ok = Get(pc, wrongType)
	require.False(t, ok)

	require.Panics(t, func() { MustGet(pc, keyNavs) })
	require.Equal(t, []string{"docsVersion"}, pc.Keys())
	require.Equal(t, "1.8", pc.Locals()["docsVersion"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		seeds   []string
		stages  []Stage
		wantErr bool
	}{
		{
			name:   "seeded key satisfies requirement",
			seeds:  []string{"docsVersion"},
			stages: []Stage{noop("markdown", []string{"docsVersion"}, nil)},
		},
		{
			name: "earlier provider satisfies requirement",
			stages: []Stage{
				noop("navigation", nil, []string{"navs"}),
				noop("layouts", []string{"navs"}, nil),
			},
		},
		{
			name: "later provider is rejected",
			stages: []Stage{
				noop("layouts", []string{"navs"}, nil),
				noop("navigation", nil, []string{"navs"}),
			},
			wantErr: true,
		},
		{
			name:    "missing key is rejected",
			stages:  []Stage{noop("feed", []string{"posts"}, nil)},
			wantErr: true,
		},
		{
			name: "duplicate providers allowed",
			stages: []Stage{
				noop("a", nil, []string{"navs"}),
				noop("b", nil, []string{"navs"}),
				noop("c", []string{"navs"}, nil),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := New("test", tc.seeds, tc.stages...).Validate()
			if tc.wantErr {
				require.Error(t, err)
				require.True(t, serrors.IsCategory(err, serrors.CategoryValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRunExecutesInOrderAndReports(t *testing.T) {
	var order []string
	step := func(name string, provides []string) Stage {
		return Func(name, nil, provides, func(_ context.Context, files *fileset.Set, pc *Context) error {
			order = append(order, name)
			if len(provides) > 0 {
				Set(pc, keyNavs, []string{"header"})
			}
			files.Put(name+".txt", fileset.NewFile(nil))
			return nil
		})
	}
	rec := &countingRecorder{}
	p := New("docs-1.8", nil, step("one", nil), step("two", []string{"navs"}), step("three", nil)).WithRecorder(rec)

	files := fileset.New()
	pc := NewContext()
	report, err := p.Run(t.Context(), files, pc)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three"}, order)
	require.Equal(t, []string{"one", "two", "three"}, p.Stages())
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, 3, report.Files)
	require.NotEmpty(t, report.BuildID)
	require.Len(t, report.StageDurations, 3)
	require.Equal(t, metrics.ResultSuccess, rec.results["two"])
	require.Equal(t, 1, rec.runs)
}

func TestRunStopsOnFatal(t *testing.T) {
	ran := false
	p := New("site", nil,
		Func("broken", nil, nil, func(context.Context, *fileset.Set, *Context) error {
			return errors.New("template exploded")
		}),
		Func("after", nil, nil, func(context.Context, *fileset.Set, *Context) error {
			ran = true
			return nil
		}),
	)
	report, err := p.Run(t.Context(), fileset.New(), NewContext())
	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorFatal, se.Kind)
	require.Equal(t, "broken", se.Stage)
	require.False(t, ran)
	require.Equal(t, OutcomeFailed, report.Outcome)
}

func TestRunContinuesOnWarning(t *testing.T) {
	ran := false
	p := New("blog", nil,
		Func("soft", nil, nil, func(context.Context, *fileset.Set, *Context) error {
			return Warn("soft", errors.New("no posts"))
		}),
		Func("after", nil, nil, func(context.Context, *fileset.Set, *Context) error {
			ran = true
			return nil
		}),
	)
	report, err := p.Run(t.Context(), fileset.New(), NewContext())
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.Warnings, 1)
}

func TestRunCanceledBeforeStage(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	report, err := New("site", nil, noop("a", nil, nil)).Run(ctx, fileset.New(), NewContext())
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorCanceled, se.Kind)
	require.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestRunRejectsMissingSeedAndUnsetProvides(t *testing.T) {
	_, err := New("docs", []string{"docsVersion"}, noop("a", []string{"docsVersion"}, nil)).
		Run(t.Context(), fileset.New(), NewContext())
	require.Error(t, err)

	_, err = New("docs", nil, noop("liar", nil, []string{"navs"})).
		Run(t.Context(), fileset.New(), NewContext())
	require.Error(t, err)
	require.Contains(t, err.Error(), `"navs"`)
}

func TestEachRenames(t *testing.T) {
	files := fileset.New()
	files.Put("foo.html", fileset.NewFile(nil))
	files.Put("index.html", fileset.NewFile(nil))

	stage := Each("each", func(p string, _ *fileset.File) (string, error) {
		if p == "foo.html" {
			return "foo/index.html", nil
		}
		return p, nil
	})
	require.NoError(t, stage.Run(t.Context(), files, NewContext()))
	require.Equal(t, []string{"foo/index.html", "index.html"}, files.Paths())
}

func TestDefineProvidesKey(t *testing.T) {
	p := New("site", nil,
		Define(keyVersion, "1.9"),
		noop("reader", []string{"docsVersion"}, nil),
	)
	pc := NewContext()
	_, err := p.Run(t.Context(), fileset.New(), pc)
	require.NoError(t, err)
	require.Equal(t, "1.9", MustGet(pc, keyVersion))
	require.Equal(t, []string{"define:docsVersion", "reader"}, p.Stages())
}
