// Package markdown renders markdown source files to HTML with goldmark.
package markdown

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// Options selects the markdown dialect.
type Options struct {
	// Typographer turns quotes, dashes and ellipses into typographic entities.
	Typographer bool
	// Tables enables pipe tables.
	Tables bool
	// GFM enables GitHub-flavored markdown: tables, strikethrough, task
	// lists and autolinks.
	GFM bool
	// HeadingIDs adds generated id attributes to headings.
	HeadingIDs bool
}

// DefaultOptions matches the dialect every content pipeline uses.
func DefaultOptions() Options {
	return Options{Typographer: true, Tables: true, GFM: true, HeadingIDs: true}
}

// Renderer converts markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer for opts.
func New(opts Options) *Renderer {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	} else {
		if opts.Tables {
			exts = append(exts, extension.Table)
		}
	}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}

	var parserOpts []parser.Option
	if opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		// Source files are trusted and embed raw HTML.
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)}
}

// Render converts src to HTML.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsMarkdown reports whether p names a markdown source.
func IsMarkdown(p string) bool {
	switch fileset.Ext(p) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// HTMLPath swaps the markdown extension of p for .html.
func HTMLPath(p string) string {
	ext := fileset.Ext(p)
	return strings.TrimSuffix(p, p[len(p)-len(ext):]) + ".html"
}

// Stage renders every markdown file and renames it to .html. Other files
// pass through untouched.
func Stage(r *Renderer) pipeline.Stage {
	return pipeline.Func("markdown", nil, nil, func(ctx context.Context, files *fileset.Set, _ *pipeline.Context) error {
		return files.Each(func(p string, f *fileset.File) error {
			if !IsMarkdown(p) {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := r.Render(f.Contents)
			if err != nil {
				return serrors.MarkdownFailed(p, err)
			}
			f.Contents = out
			return files.Rename(p, HTMLPath(p))
		})
	})
}

// TimestampStage stores ts under key in the metadata of every markdown file.
// It runs before Stage, while files still carry their markdown extension.
func TimestampStage(key string, ts int64) pipeline.Stage {
	return pipeline.Func("timestamp", nil, nil, func(_ context.Context, files *fileset.Set, _ *pipeline.Context) error {
		return files.Each(func(p string, f *fileset.File) error {
			if IsMarkdown(p) {
				f.Meta[key] = ts
			}
			return nil
		})
	})
}
