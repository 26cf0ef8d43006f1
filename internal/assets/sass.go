package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bep/godartsass/v2"
)

// SassCompiler turns one SCSS source into CSS.
type SassCompiler interface {
	Compile(src []byte, path string, includePaths []string) ([]byte, error)
}

// DartSass compiles through the Dart Sass embedded protocol. The compiler
// process starts on first use and lives until Close.
type DartSass struct {
	binary string

	once       sync.Once
	startErr   error
	transpiler *godartsass.Transpiler
}

// NewDartSass returns a compiler using the dart-sass binary at path, or the
// one found on PATH when path is empty.
func NewDartSass(path string) *DartSass {
	return &DartSass{binary: path}
}

func (d *DartSass) start() error {
	d.once.Do(func() {
		d.transpiler, d.startErr = godartsass.Start(godartsass.Options{
			DartSassEmbeddedFilename: d.binary,
		})
		if d.startErr != nil {
			d.startErr = fmt.Errorf("start dart-sass: %w", d.startErr)
		}
	})
	return d.startErr
}

// Compile implements SassCompiler with expanded output; minification is a
// separate step.
func (d *DartSass) Compile(src []byte, path string, includePaths []string) ([]byte, error) {
	if err := d.start(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	res, err := d.transpiler.Execute(godartsass.Args{
		Source:       string(src),
		URL:          "file://" + filepath.ToSlash(abs),
		OutputStyle:  godartsass.OutputStyleExpanded,
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		IncludePaths: includePaths,
	})
	if err != nil {
		return nil, err
	}
	return []byte(res.CSS), nil
}

// Close stops the compiler process if it was started.
func (d *DartSass) Close() error {
	if d.transpiler == nil {
		return nil
	}
	return d.transpiler.Close()
}
