// Package paths rewrites output paths: directory-style pretty URLs, blog
// permalinks and slugs.
package paths

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

const indexFile = "index.html"

// PrettyURL rewrites "foo.html" to "foo/index.html". index.html files and
// non-HTML files are returned unchanged, so applying it twice is a no-op.
func PrettyURL(p string) string {
	if path.Base(p) == indexFile || path.Ext(p) != ".html" {
		return p
	}
	return strings.TrimSuffix(p, ".html") + "/" + indexFile
}

// PrettyStage applies PrettyURL to every file.
func PrettyStage() pipeline.Stage {
	return pipeline.Each("pretty-urls", func(p string, _ *fileset.File) (string, error) {
		return PrettyURL(p), nil
	})
}

// Slug lower-cases s, folds accents and joins runs of anything that is not
// a letter or digit into single dashes.
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// Permalink expands pattern for a file. Supported placeholders are :title
// (slug of the title, else of the file name) and :date (four-digit year of
// the date field). The result is a directory; the caller appends index.html.
func Permalink(pattern, p string, meta fileset.Meta) (string, error) {
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		switch seg {
		case ":title":
			title := meta.String("title")
			if title == "" {
				title = strings.TrimSuffix(path.Base(p), path.Ext(p))
			}
			slug := Slug(title)
			if slug == "" {
				return "", fmt.Errorf("permalink for %s: empty title slug", p)
			}
			segments[i] = slug
		case ":date":
			d, ok := meta.Time("date")
			if !ok {
				return "", fmt.Errorf("permalink for %s: missing or invalid date", p)
			}
			segments[i] = d.Format("2006")
		}
	}
	return path.Join(segments...), nil
}

// PermalinkStage moves every HTML file accepted by match to its permalink
// directory and records the link under the "path" metadata key.
func PermalinkStage(pattern string, match func(p string, f *fileset.File) bool) pipeline.Stage {
	return pipeline.Each("permalinks", func(p string, f *fileset.File) (string, error) {
		if path.Ext(p) != ".html" || (match != nil && !match(p, f)) {
			return p, nil
		}
		dir, err := Permalink(pattern, p, f.Meta)
		if err != nil {
			return "", err
		}
		f.Meta["path"] = dir
		return path.Join(dir, indexFile), nil
	})
}
