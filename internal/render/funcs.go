package render

import (
	"html/template"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
)

// Funcs returns the site-specific template helpers added on top of sprig.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": FormatDate,
		"safeHTML":   func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // trusted site sources
	}
}

// FormatDate formats v (time.Time or a date string) with a Go layout.
// Unparseable values render as the empty string.
func FormatDate(layout string, v any) string {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case string:
		parsed, ok := fileset.ParseDate(d)
		if !ok {
			return ""
		}
		t = parsed
	default:
		return ""
	}
	return t.Format(layout)
}
