package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

func TestRenderDialect(t *testing.T) {
	r := New(DefaultOptions())

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"heading", "# Hi", []string{`<h1 id="hi">Hi</h1>`}},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |\n", []string{"<table>", "<td>1</td>"}},
		{"typographer", `"quoted" -- dash`, []string{"&ldquo;quoted&rdquo;", "&ndash;"}},
		{"autolink", "see https://dcos.io now", []string{`<a href="https://dcos.io">https://dcos.io</a>`}},
		{"fenced code", "```go\nfmt.Println()\n```\n", []string{`<code class="language-go">`}},
		{"raw html kept", "<div class=\"note\">x</div>\n", []string{`<div class="note">x</div>`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.Render([]byte(tc.src))
			require.NoError(t, err)
			for _, w := range tc.want {
				require.Contains(t, string(out), w)
			}
		})
	}
}

func TestHTMLPath(t *testing.T) {
	require.Equal(t, "foo.html", HTMLPath("foo.md"))
	require.Equal(t, "a/b/README.html", HTMLPath("a/b/README.MD"))
	require.Equal(t, "x.html", HTMLPath("x.markdown"))
}

func TestStageRendersOnlyMarkdown(t *testing.T) {
	files := fileset.New()
	files.Put("foo.md", fileset.NewFile([]byte("# Hi")))
	files.Put("index.tmpl", fileset.NewFile([]byte("# not markdown")))
	pc := pipeline.NewContext()

	require.NoError(t, TimestampStage("cssTimestamp", 42).Run(t.Context(), files, pc))
	require.NoError(t, Stage(New(DefaultOptions())).Run(t.Context(), files, pc))

	require.Equal(t, []string{"foo.html", "index.tmpl"}, files.Paths())
	f, _ := files.Get("foo.html")
	require.Contains(t, string(f.Contents), "<h1")
	require.Equal(t, int64(42), f.Meta["cssTimestamp"])

	tmpl, _ := files.Get("index.tmpl")
	require.Equal(t, "# not markdown", string(tmpl.Contents))
	require.NotContains(t, tmpl.Meta, "cssTimestamp")
}
