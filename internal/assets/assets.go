// Package assets builds the stylesheet, script and static asset outputs.
package assets

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
)

// Styles compiles every non-partial SCSS file below SrcDir into DestDir.
type Styles struct {
	Compiler     SassCompiler
	SrcDir       string
	DestDir      string
	IncludePaths []string
	Minify       bool
	Logger       *slog.Logger
}

// StylesResult reports a styles run. Failed files keep their previous output.
type StylesResult struct {
	Written []string
	Failed  map[string]error
}

// Run compiles the stylesheets. Compile errors are logged and collected in
// the result without failing the run, so the last good CSS stays in place.
func (s *Styles) Run(ctx context.Context) (*StylesResult, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	src, err := fileset.ReadDir(s.SrcDir, "**/*.scss")
	if err != nil {
		return nil, serrors.StylesFailed(s.SrcDir, err)
	}
	includes := append([]string{s.SrcDir}, s.IncludePaths...)
	out := fileset.New()
	res := &StylesResult{Failed: make(map[string]error)}

	for _, p := range src.Paths() {
		if strings.HasPrefix(path.Base(p), "_") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		f, _ := src.Get(p)
		css, err := s.Compiler.Compile(f.Contents, filepath.Join(s.SrcDir, filepath.FromSlash(p)), includes)
		if err == nil {
			css, err = PostProcessCSS(css, p, s.Minify)
		}
		if err != nil {
			se := serrors.StylesFailed(p, err)
			res.Failed[p] = se
			log.Error("Stylesheet failed, keeping previous output", logfields.File(p), logfields.Error(err))
			continue
		}
		target := strings.TrimSuffix(p, path.Ext(p)) + ".css"
		out.Put(target, fileset.NewFile(css))
		res.Written = append(res.Written, target)
	}
	if err := fileset.Write(ctx, out, s.DestDir); err != nil {
		return res, serrors.WriteFailed(s.DestDir, err)
	}
	return res, nil
}

// Scripts transpiles every script below SrcDir and concatenates them, in
// path order, into DestDir/Bundle.
type Scripts struct {
	SrcDir  string
	DestDir string
	Bundle  string
	Minify  bool
}

// Run builds the bundle. Any transpile error fails the run and leaves the
// previous bundle in place.
func (s *Scripts) Run(ctx context.Context) error {
	src, err := fileset.ReadDir(s.SrcDir, "**/*.js")
	if err != nil {
		return serrors.ScriptsFailed(s.SrcDir, err)
	}
	parts := make([][]byte, 0, src.Len())
	for _, p := range src.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, _ := src.Get(p)
		code, err := TranspileJS(f.Contents, p)
		if err != nil {
			return serrors.ScriptsFailed(p, err)
		}
		parts = append(parts, code)
	}
	bundle := Concat(parts)
	if s.Minify {
		if bundle, err = MinifyJS(bundle, s.Bundle); err != nil {
			return serrors.ScriptsFailed(s.Bundle, err)
		}
	}
	out := fileset.New()
	out.Put(s.Bundle, fileset.NewFile(bundle))
	if err := fileset.Write(ctx, out, s.DestDir); err != nil {
		return serrors.WriteFailed(s.DestDir, err)
	}
	return nil
}

// Copy copies files of srcDir matching patterns verbatim into destDir and
// returns how many were copied.
func Copy(ctx context.Context, srcDir, destDir string, patterns ...string) (int, error) {
	set, err := fileset.ReadDir(srcDir, patterns...)
	if err != nil {
		return 0, serrors.WriteFailed(srcDir, err)
	}
	if err := fileset.Write(ctx, set, destDir); err != nil {
		return 0, serrors.WriteFailed(destDir, err)
	}
	return set.Len(), nil
}
