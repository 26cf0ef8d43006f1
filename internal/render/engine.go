// Package render executes page templates and layouts over the file set.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"
)

// Engine loads layouts and shared partials and caches parsed layouts.
// An Engine reflects the templates on disk when it was created; build a new
// one per run to pick up edits.
type Engine struct {
	layouts  fs.FS
	partials []fs.FS
	funcs    template.FuncMap

	mu    sync.Mutex
	base  *template.Template
	cache map[string]*template.Template
}

// NewEngine creates an Engine. layouts may be nil when a pipeline never
// wraps pages; partials are parsed into every template as named templates.
func NewEngine(layouts fs.FS, partials []fs.FS, extra template.FuncMap) *Engine {
	funcs := sprig.HtmlFuncMap()
	for k, v := range Funcs() {
		funcs[k] = v
	}
	for k, v := range extra {
		funcs[k] = v
	}
	return &Engine{
		layouts:  layouts,
		partials: partials,
		funcs:    funcs,
		cache:    make(map[string]*template.Template),
	}
}

// baseTemplate parses every partial once. Callers hold e.mu.
func (e *Engine) baseTemplate() (*template.Template, error) {
	if e.base != nil {
		return e.base, nil
	}
	base := template.New("").Funcs(e.funcs)
	for _, pfs := range e.partials {
		if pfs == nil {
			continue
		}
		names, err := doublestar.Glob(pfs, "**/*.{html,tmpl}", doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			src, err := fs.ReadFile(pfs, name)
			if err != nil {
				return nil, err
			}
			if _, err := base.New(name).Parse(string(src)); err != nil {
				return nil, fmt.Errorf("partial %s: %w", name, err)
			}
		}
	}
	e.base = base
	return base, nil
}

// LayoutName normalizes a layout reference: a missing extension or a
// legacy template extension becomes .html.
func LayoutName(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	switch path.Ext(name) {
	case ".html":
		return name
	case "":
		return name + ".html"
	default:
		return strings.TrimSuffix(name, path.Ext(name)) + ".html"
	}
}

// Layout returns the parsed layout called name.
func (e *Engine) Layout(name string) (*template.Template, error) {
	name = LayoutName(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.cache[name]; ok {
		return t, nil
	}
	if e.layouts == nil {
		return nil, fmt.Errorf("layout %s: %w", name, fs.ErrNotExist)
	}
	src, err := fs.ReadFile(e.layouts, name)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", name, err)
	}
	t, err := e.parse(name, src)
	if err != nil {
		return nil, err
	}
	e.cache[name] = t
	return t, nil
}

// Inline parses a one-off template such as a page source.
func (e *Engine) Inline(name string, src []byte) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parse(name, src)
}

func (e *Engine) parse(name string, src []byte) (*template.Template, error) {
	base, err := e.baseTemplate()
	if err != nil {
		return nil, err
	}
	clone, err := base.Clone()
	if err != nil {
		return nil, err
	}
	return clone.New(name).Parse(string(src))
}

// Execute runs t with data and returns the output.
func Execute(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
