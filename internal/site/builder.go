// Package site assembles the site, blog and per-version docs pipelines and
// exposes them, together with the asset steps, as named tasks.
package site

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/assets"
	"git.home.luguber.info/inful/sitesmith/internal/config"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
	"git.home.luguber.info/inful/sitesmith/internal/render"
)

// Options carry the process-level collaborators of a Builder.
type Options struct {
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// Sass compiles stylesheets. Nil means dart-sass from the config.
	Sass assets.SassCompiler
	// Clock drives event filtering and timestamps.
	Clock func() time.Time
	// StrictStyles turns stylesheet compile errors into task failures.
	StrictStyles bool
}

// Builder turns a Config into runnable pipeline definitions.
type Builder struct {
	cfg  *config.Config
	opts Options
	sass *assets.DartSass
}

func NewBuilder(cfg *config.Config, opts Options) *Builder {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	b := &Builder{cfg: cfg, opts: opts}
	if opts.Sass == nil {
		b.sass = assets.NewDartSass(cfg.Assets.SassBinary)
		b.opts.Sass = b.sass
	}
	return b
}

// Close stops the sass compiler the builder started, if any.
func (b *Builder) Close() error {
	if b.sass == nil {
		return nil
	}
	return b.sass.Close()
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.Config { return b.cfg }

// Definition is one pipeline run: where files come from, what happens to
// them and where they land.
type Definition struct {
	Name     string
	Source   string
	Patterns []string
	// Exclude drops set paths below these relative directories after reading.
	Exclude []string
	Dest    string
	Seeds   []string
	Seed    func(pc *pipeline.Context)
	Stages  []pipeline.Stage
}

// Pipeline builds the pipeline of d with the builder's logger and recorder.
func (b *Builder) Pipeline(d *Definition) *pipeline.Pipeline {
	return pipeline.New(d.Name, d.Seeds, d.Stages...).
		WithRecorder(b.opts.Recorder).
		WithLogger(b.opts.Logger)
}

// Render reads the sources of d and runs its pipeline in memory.
func (b *Builder) Render(ctx context.Context, d *Definition) (*fileset.Set, *pipeline.Report, error) {
	files, err := readSources(d.Source, d.Patterns, d.Exclude)
	if err != nil {
		return nil, nil, serrors.Wrap(err, serrors.CategoryFileSystem, serrors.SeverityFatal, "read sources").
			WithContext("pipeline", d.Name).
			WithContext("source", d.Source)
	}
	pc := pipeline.NewContext()
	if d.Seed != nil {
		d.Seed(pc)
	}
	report, err := b.Pipeline(d).Run(ctx, files, pc)
	return files, report, err
}

// Run renders d and writes the result. The destination is only touched
// once every stage has succeeded.
func (b *Builder) Run(ctx context.Context, d *Definition) (*pipeline.Report, error) {
	files, report, err := b.Render(ctx, d)
	if err != nil {
		return report, err
	}
	if err := fileset.Write(ctx, files, d.Dest); err != nil {
		return report, serrors.WriteFailed(d.Dest, err)
	}
	b.opts.Logger.Debug("Pipeline output written",
		logfields.Pipeline(d.Name),
		logfields.Path(d.Dest),
		logfields.Files(files.Len()))
	return report, nil
}

func readSources(dir string, patterns, exclude []string) (*fileset.Set, error) {
	files, err := fileset.ReadDir(dir, patterns...)
	if err != nil {
		return nil, err
	}
	for _, p := range files.Paths() {
		for _, ex := range exclude {
			if p == ex || strings.HasPrefix(p, ex+"/") {
				files.Delete(p)
				break
			}
		}
	}
	return files, nil
}

// nestedDirs returns the entries of dirs that lie inside root, relative to
// it and slash separated.
func nestedDirs(root string, dirs ...string) []string {
	var out []string
	for _, d := range dirs {
		rel, err := filepath.Rel(root, d)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, path.Clean(filepath.ToSlash(rel)))
	}
	return out
}

// engine loads layouts and partials from disk. A fresh engine per run picks
// up template edits in serve mode.
func (b *Builder) engine() *render.Engine {
	var partials []fs.FS
	for _, p := range b.cfg.Paths.Partial {
		dir := b.cfg.Path(p)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			partials = append(partials, os.DirFS(dir))
		}
	}
	return render.NewEngine(os.DirFS(b.cfg.Path(b.cfg.Paths.Layouts)), partials, nil)
}
