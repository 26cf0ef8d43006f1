package render

import (
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/frontmatter"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

var keyDocsVersion = pipeline.NewKey[string]("docsVersion")

func testEngine() *Engine {
	layouts := fstest.MapFS{
		"default.html": {Data: []byte(`<html>{{template "header.html" .}}<main>{{.contents}}</main></html>`)},
		"docs.html":    {Data: []byte(`<docs v="{{.docsVersion}}">{{.title}}|{{.contents}}</docs>`)},
		"broken.html":  {Data: []byte(`{{template "nope" .}}`)},
	}
	partials := fstest.MapFS{
		"header.html": {Data: []byte(`<header>{{.rootUrl}}</header>`)},
	}
	return NewEngine(layouts, []fs.FS{partials}, nil)
}

func TestLayoutName(t *testing.T) {
	require.Equal(t, "docs.html", LayoutName("docs"))
	require.Equal(t, "docs.html", LayoutName("docs.jade"))
	require.Equal(t, "a/b.html", LayoutName("a/b.html"))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "February 01", FormatDate("January 02", d))
	require.Equal(t, "Feb", FormatDate("Jan", "2023-02-01"))
	require.Empty(t, FormatDate("Jan", "not a date"))
	require.Empty(t, FormatDate("Jan", 42))
}

func TestFormatDateOnFrontMatterDates(t *testing.T) {
	fields, _, err := frontmatter.Extract([]byte("---\ndate: 2023-02-01\nquoted: \"2023-03-04\"\n---\n"))
	require.NoError(t, err)

	files := fileset.New()
	page := fileset.NewFile([]byte(`{{formatDate "2006-01-02" .date}}|{{formatDate "Jan 2, 2006" .quoted}}`))
	page.Meta.Merge(fields)
	files.Put("post.tmpl", page)

	require.NoError(t, PagesStage(testEngine()).Run(t.Context(), files, pipeline.NewContext()))

	got, _ := files.Get("post.html")
	require.Equal(t, "2023-02-01|Mar 4, 2023", string(got.Contents))
}

func TestPagesStage(t *testing.T) {
	files := fileset.New()
	page := fileset.NewFile([]byte(`<h1>{{.title}}</h1>{{range .items}}<i>{{.}}</i>{{end}}{{upper "x"}}`))
	page.Meta.Merge(map[string]any{"title": "Home", "items": []string{"a", "b"}})
	files.Put("index.tmpl", page)
	files.Put("about.html", fileset.NewFile([]byte("<p>{{.title}}</p>")))

	require.NoError(t, PagesStage(testEngine()).Run(t.Context(), files, pipeline.NewContext()))

	require.Equal(t, []string{"index.html", "about.html"}, files.Paths())
	got, _ := files.Get("index.html")
	require.Equal(t, "<h1>Home</h1><i>a</i><i>b</i>X", string(got.Contents))
	about, _ := files.Get("about.html")
	require.Equal(t, "<p>{{.title}}</p>", string(about.Contents), "html files are not page templates")
}

func TestLayoutsStageSelection(t *testing.T) {
	files := fileset.New()
	withLayout := fileset.NewFile([]byte("<p>body</p>"))
	withLayout.Meta.Merge(map[string]any{"layout": "docs.jade", "title": "Install"})
	files.Put("install.html", withLayout)
	files.Put("plain.html", fileset.NewFile([]byte("<p>plain</p>")))
	files.Put("data.json", fileset.NewFile([]byte(`{}`)))

	pc := pipeline.NewContext()
	pipeline.Set(pc, keyDocsVersion, "1.8")
	pipeline.Set(pc, KeyRootURL, "https://dcos.io")

	require.NoError(t, LayoutsStage(testEngine(), LayoutOptions{Default: "default.html"}).Run(t.Context(), files, pc))

	install, _ := files.Get("install.html")
	require.Equal(t, `<docs v="1.8">Install|<p>body</p></docs>`, string(install.Contents))

	plain, _ := files.Get("plain.html")
	require.Equal(t, `<html><header>https://dcos.io</header><main><p>plain</p></main></html>`, string(plain.Contents))

	data, _ := files.Get("data.json")
	require.Equal(t, `{}`, string(data.Contents))
}

func TestLayoutsStageWithoutDefaultSkips(t *testing.T) {
	files := fileset.New()
	files.Put("x.html", fileset.NewFile([]byte("raw")))
	require.NoError(t, LayoutsStage(testEngine(), LayoutOptions{}).Run(t.Context(), files, pipeline.NewContext()))
	x, _ := files.Get("x.html")
	require.Equal(t, "raw", string(x.Contents))
}

func TestTemplateErrorsAreFatal(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"missing layout", "nowhere.html"},
		{"execution error", "broken.html"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			files := fileset.New()
			f := fileset.NewFile([]byte("x"))
			f.Meta["layout"] = tc.layout
			files.Put("page.html", f)
			err := LayoutsStage(testEngine(), LayoutOptions{}).Run(t.Context(), files, pipeline.NewContext())
			require.Error(t, err)
			require.True(t, serrors.IsCategory(err, serrors.CategoryTemplate))
		})
	}
}
