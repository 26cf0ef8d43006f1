package paths

import (
	"path"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func extension(exts ...string) gopter.Gen {
	return gen.IntRange(0, len(exts)-1).Map(func(i int) string { return exts[i] })
}

// TestPrettyURLProperties exercises the rewrite rule over generated paths.
func TestPrettyURLProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	segments := gen.SliceOfN(3, gen.Identifier())

	properties.Property("html files become directory indexes", prop.ForAll(
		func(segs []string) bool {
			p := strings.Join(segs, "/") + ".html"
			if path.Base(p) == "index.html" {
				return true
			}
			return PrettyURL(p) == strings.TrimSuffix(p, ".html")+"/index.html"
		},
		segments,
	))

	properties.Property("rewrite is idempotent", prop.ForAll(
		func(segs []string, ext string) bool {
			p := strings.Join(segs, "/") + ext
			once := PrettyURL(p)
			return PrettyURL(once) == once
		},
		segments,
		extension(".html", ".css", ".json", ""),
	))

	properties.Property("non-html paths untouched", prop.ForAll(
		func(segs []string, ext string) bool {
			p := strings.Join(segs, "/") + ext
			return PrettyURL(p) == p
		},
		segments,
		extension(".css", ".js", ".json", ".png", ""),
	))

	properties.TestingRun(t)
}
