package site

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitesmith/internal/assets"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
)

// Task names.
const (
	TaskSite       = "build-site"
	TaskBlog       = "build-blog"
	TaskCopy       = "copy"
	TaskJavaScript = "javascript"
	TaskStyles     = "styles"
	docsPrefix     = "build-docs-"
	imagesPrefix   = "copy-docs-images-"
)

// DocsTask names the pipeline task of one docs version.
func DocsTask(version string) string { return docsPrefix + version }

// DocsImagesTask names the image copy task of one docs version.
func DocsImagesTask(version string) string { return imagesPrefix + version }

// DocsImagePatterns select the files copied verbatim next to each docs version.
var DocsImagePatterns = []string{"**/*.{png,gif,jpg,jpeg,json,sh}"}

// TaskFunc is the body of a named task.
type TaskFunc func(ctx context.Context) error

// Tasks is the registry of named build operations.
type Tasks struct {
	b     *Builder
	funcs map[string]TaskFunc
	order []string
}

// NewTasks registers every task the configuration implies.
func NewTasks(b *Builder) *Tasks {
	t := &Tasks{b: b, funcs: map[string]TaskFunc{}}
	cfg := b.cfg

	t.register(TaskSite, b.pipelineTask(b.Site))
	t.register(TaskBlog, b.pipelineTask(b.Blog))
	for _, v := range cfg.Docs.Versions {
		t.register(DocsTask(v), b.pipelineTask(func() *Definition { return b.Docs(v) }))
		t.register(DocsImagesTask(v), func(ctx context.Context) error {
			n, err := assets.Copy(ctx, cfg.Path(filepath.Join(cfg.Paths.Docs, v)), cfg.DocsOutput(v), DocsImagePatterns...)
			b.opts.Logger.Debug("Copied docs images", logfields.Version(v), logfields.Files(n))
			return err
		})
	}
	t.register(TaskCopy, func(ctx context.Context) error {
		n, err := assets.Copy(ctx, cfg.Path(cfg.Paths.Assets), filepath.Join(cfg.BuildDir(), filepath.Base(cfg.Paths.Assets)), "**/*")
		b.opts.Logger.Debug("Copied assets", logfields.Files(n))
		return err
	})
	t.register(TaskJavaScript, func(ctx context.Context) error {
		s := &assets.Scripts{
			SrcDir:  cfg.Path(cfg.Paths.Scripts),
			DestDir: filepath.Join(cfg.BuildDir(), filepath.Base(cfg.Paths.Scripts)),
			Bundle:  cfg.Assets.Bundle,
			Minify:  cfg.Production(),
		}
		return s.Run(ctx)
	})
	t.register(TaskStyles, b.stylesTask)
	return t
}

func (t *Tasks) register(name string, fn TaskFunc) {
	t.funcs[name] = fn
	t.order = append(t.order, name)
}

// Names lists every task in registration order.
func (t *Tasks) Names() []string { return slices.Clone(t.order) }

// Has reports whether name is registered.
func (t *Tasks) Has(name string) bool {
	_, ok := t.funcs[name]
	return ok
}

// Run executes the named tasks concurrently; no names means every task.
// Tasks share no state, so one failing does not stop the others. All
// failures are returned joined.
func (t *Tasks) Run(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = t.order
	}
	for _, n := range names {
		if !t.Has(n) {
			return serrors.ValidationFailed("task", fmt.Sprintf("unknown task %q", n))
		}
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range names {
		g.Go(func() error {
			if err := t.runOne(ctx, name); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (t *Tasks) runOne(ctx context.Context, name string) error {
	log := t.b.opts.Logger.With(logfields.Task(name))
	start := time.Now()
	log.Debug("Task started")

	err := t.funcs[name](ctx)
	t.b.opts.Recorder.IncTaskOutcome(name, err == nil)
	if err != nil {
		log.Error("Task failed", logfields.Elapsed(time.Since(start)), logfields.Error(err))
		return err
	}
	log.Info("Task finished", logfields.Elapsed(time.Since(start)))
	return nil
}

func (b *Builder) pipelineTask(def func() *Definition) TaskFunc {
	return func(ctx context.Context) error {
		_, err := b.Run(ctx, def())
		return err
	}
}

func (b *Builder) stylesTask(ctx context.Context) error {
	cfg := b.cfg
	src := cfg.Path(cfg.Paths.Styles)
	s := &assets.Styles{
		Compiler: b.opts.Sass,
		SrcDir:   src,
		DestDir:  filepath.Join(cfg.BuildDir(), filepath.Base(cfg.Paths.Styles)),
		Minify:   cfg.Production(),
		Logger:   b.opts.Logger,
	}
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	if b.opts.StrictStyles && len(res.Failed) > 0 {
		var errs []error
		for _, f := range slices.Sorted(maps.Keys(res.Failed)) {
			errs = append(errs, res.Failed[f])
		}
		return serrors.StylesFailed(src, errors.Join(errs...))
	}
	return nil
}
