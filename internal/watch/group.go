package watch

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
)

// Reload kinds sent to browsers after a rebuild.
const (
	ReloadPage = "page"
	ReloadCSS  = "css"
)

// Group is one watched source tree and the tasks that rebuild it.
type Group struct {
	Name string
	Dir  string
	// Patterns are doublestar globs relative to Dir. Empty matches everything.
	Patterns []string
	// Exclude names globs relative to Dir that never match, even when a
	// pattern does.
	Exclude []string
	Tasks   []string
	Reload  string
}

func (g Group) validate() error {
	if g.Name == "" || g.Dir == "" {
		return serrors.ValidationFailed("watch.group", "name and dir are required")
	}
	if len(g.Tasks) == 0 {
		return serrors.ValidationFailed("watch.group", "group "+g.Name+" has no tasks")
	}
	for _, p := range append(slices.Clone(g.Patterns), g.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return serrors.ValidationFailed("watch.group", "invalid pattern "+p+" in group "+g.Name)
		}
	}
	return nil
}

// Match reports whether path lies under Dir and matches one of the patterns.
func (g Group) Match(path string) bool {
	rel, err := filepath.Rel(g.Dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, ex := range g.Exclude {
		if doublestar.MatchUnvalidated(ex, rel) {
			return false
		}
	}
	if len(g.Patterns) == 0 {
		return true
	}
	for _, p := range g.Patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

// ignored filters editor droppings and hidden files.
func ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"),
		base == "Thumbs.db":
		return true
	}
	return false
}
