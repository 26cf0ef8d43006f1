package render

import (
	"context"
	"html/template"
	"maps"
	"strings"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// Global locals shared by every template.
var (
	KeyRootURL   = pipeline.NewKey[string]("rootUrl")
	KeyTimestamp = pipeline.NewKey[int64]("cssTimestamp")
)

// PageExt is the extension of page templates in the source tree.
const PageExt = ".tmpl"

// Data is the template input for a file: the run's global locals, then the
// file's metadata, then its contents under "contents".
func Data(pc *pipeline.Context, f *fileset.File) map[string]any {
	data := pc.Locals()
	maps.Copy(data, f.Meta)
	data["contents"] = template.HTML(f.Contents) //nolint:gosec // rendered from trusted sources
	return data
}

// PagesStage renders every page template (.tmpl) through the engine and
// renames it to .html.
func PagesStage(e *Engine, requires ...string) pipeline.Stage {
	return pipeline.Func("pages", requires, nil, func(ctx context.Context, files *fileset.Set, pc *pipeline.Context) error {
		return files.Each(func(p string, f *fileset.File) error {
			if fileset.Ext(p) != PageExt {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := e.Inline(p, f.Contents)
			if err != nil {
				return serrors.TemplateFailed(p, p, err)
			}
			out, err := Execute(t, Data(pc, f))
			if err != nil {
				return serrors.TemplateFailed(p, p, err)
			}
			f.Contents = out
			return files.Rename(p, strings.TrimSuffix(p, PageExt)+".html")
		})
	})
}

// LayoutOptions configure LayoutsStage.
type LayoutOptions struct {
	// Default is used when a file has no "layout" metadata. Empty means
	// such files are left unwrapped.
	Default string
	// Include restricts which files are wrapped; nil means every .html file.
	Include func(p string) bool
}

// LayoutsStage wraps HTML files in the layout named by their "layout"
// metadata, or opts.Default.
func LayoutsStage(e *Engine, opts LayoutOptions, requires ...string) pipeline.Stage {
	return pipeline.Func("layouts", requires, nil, func(ctx context.Context, files *fileset.Set, pc *pipeline.Context) error {
		return files.Each(func(p string, f *fileset.File) error {
			if fileset.Ext(p) != ".html" || (opts.Include != nil && !opts.Include(p)) {
				return nil
			}
			name := f.Meta.String("layout")
			if name == "" {
				name = opts.Default
			}
			if name == "" {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := e.Layout(name)
			if err != nil {
				return serrors.TemplateFailed(name, p, err)
			}
			out, err := Execute(t, Data(pc, f))
			if err != nil {
				return serrors.TemplateFailed(name, p, err)
			}
			f.Contents = out
			return nil
		})
	})
}
