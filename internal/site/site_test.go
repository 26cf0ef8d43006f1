package site

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/config"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/navtree"
)

type passSass struct{ fail bool }

func (p passSass) Compile(src []byte, _ string, _ []string) ([]byte, error) {
	if p.fail {
		return nil, errors.New("undefined variable")
	}
	return src, nil
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func write(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func newProject(t *testing.T, env map[string]string, opts Options) (string, *Tasks) {
	t.Helper()
	root := t.TempDir()
	write(t, root, "env.json", `{"production":{"root_url":"https://example.org"},"development":{"root_url":"http://localhost:3000"}}`)
	write(t, root, "layouts/blog-post.html", `<article>{{ .contents }}</article>`)
	write(t, root, "layouts/blog-category.html", `<h1>{{ .tag }}</h1>{{ range .posts }}<li>{{ .Meta.title }}</li>{{ end }}`)
	write(t, root, "layouts/docs.html", `<main data-version="{{ .docsVersion }}">{{ .contents }}</main>`)
	write(t, root, "layouts/page.html", `<body data-root="{{ .rootUrl }}">{{ .contents }}</body>`)

	cfg, err := config.Load(filepath.Join(root, config.DefaultFileName), func(k string) string { return env[k] })
	require.NoError(t, err)

	if opts.Sass == nil {
		opts.Sass = passSass{}
	}
	opts.Clock = func() time.Time { return fixedNow }
	b := NewBuilder(cfg, opts)
	t.Cleanup(func() { _ = b.Close() })
	return root, NewTasks(b)
}

func TestSiteBuildRendersMarkdownAndNavigation(t *testing.T) {
	root, tasks := newProject(t, nil, Options{})
	write(t, root, "src/foo.md", "---\ntitle: Foo\nmenu_order: 2\n---\n# Hi\n")
	write(t, root, "src/about.md", "---\ntitle: About\nlayout: page\n---\nAbout us\n")
	write(t, root, "src/blog/2023-01-01-x.md", "---\ntitle: X\ndate: 2023-01-01\n---\nx\n")

	require.NoError(t, tasks.Run(t.Context(), TaskSite))

	require.Contains(t, read(t, root, "build/foo/index.html"), "Hi</h1>")
	require.Contains(t, read(t, root, "build/about/index.html"), `data-root="https://example.org"`)
	require.NoFileExists(t, filepath.Join(root, "build", "blog", "2023-01-01-x", "index.html"))

	var nav navtree.Entry
	require.NoError(t, json.Unmarshal([]byte(read(t, root, "build/navigation.json")), &nav))
	var foo *navtree.Entry
	for _, c := range nav.Children {
		if c.Name == "foo" {
			foo = c
		}
	}
	require.NotNil(t, foo, "navigation export lists foo")
	require.Equal(t, "foo", foo.Path)
	require.Equal(t, 2, foo.Order)
	require.Equal(t, "about", nav.Children[1].Name, "foo ranks before about")
}

func TestSitePagesSeeUpcomingEvents(t *testing.T) {
	root, tasks := newProject(t, map[string]string{"NODE_ENV": "development"}, Options{})
	write(t, root, "src/events.json", `[
		{"title": "Past", "date": "2024-01-10"},
		{"title": "MesosCon", "date": "2024-09-05"}
	]`)
	write(t, root, "src/index.tmpl", `{{ .rootUrl }}|{{ range .events }}{{ .title }} {{ .day }} {{ .month }};{{ end }}`)

	require.NoError(t, tasks.Run(t.Context(), TaskSite))
	require.Equal(t, "http://localhost:3000|MesosCon 5 Sep;", read(t, root, "build/index.html"))
}

func TestBlogBuildOrdersPostsNewestFirst(t *testing.T) {
	root, tasks := newProject(t, nil, Options{})
	write(t, root, "src/blog/2023-01-01-january.md", "---\ntitle: January post\ndate: 2023-01-01\ncategory: [News]\n---\nHello January\n")
	write(t, root, "src/blog/2023-02-01-february.md", "---\ntitle: February post\ndate: 2023-02-01\ncategory: [News, Releases]\n---\nHello February\n")

	require.NoError(t, tasks.Run(t.Context(), TaskBlog))

	var posts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(read(t, root, "build/blog/posts.json")), &posts))
	require.Len(t, posts, 2)
	require.Equal(t, "February post", posts[0]["title"])
	require.Equal(t, "January post", posts[1]["title"])
	require.NotContains(t, posts[0], "contents")
	require.NotContains(t, posts[0], "next")
	require.NotContains(t, posts[1], "previous")

	require.True(t, json.Valid([]byte(read(t, root, "build/blog/search-index.json"))))

	post := read(t, root, "build/blog/2023/february-post/index.html")
	require.Contains(t, post, "<article>")
	require.Contains(t, post, "Hello February")

	category := read(t, root, "build/blog/category/news.html")
	require.Contains(t, category, "<h1>News</h1>")
	require.Less(t, strings.Index(category, "February post"), strings.Index(category, "January post"))
	require.FileExists(t, filepath.Join(root, "build", "blog", "category", "releases.html"))

	require.Contains(t, read(t, root, "build/rss.xml"), "https://example.org/blog/2023/february-post/")
}

func TestDocsBuildPerVersion(t *testing.T) {
	root, tasks := newProject(t, nil, Options{})
	write(t, root, "dcos-docs/1.8/index.md", "---\ntitle: Docs\n---\nWelcome\n")
	write(t, root, "dcos-docs/1.8/usage/cli.md", "---\ntitle: CLI\nmenu_order: 1\n---\nUse the CLI\n")
	write(t, root, "dcos-docs/1.8/usage/img/cli.png", "png")
	write(t, root, "dcos-docs/1.8/usage/notes.txt", "skip")

	require.NoError(t, tasks.Run(t.Context(), DocsTask("1.8"), DocsImagesTask("1.8")))

	cli := read(t, root, "build/docs/1.8/usage/cli/index.html")
	require.Contains(t, cli, `<main data-version="1.8">`)
	require.Contains(t, cli, "Use the CLI")
	require.Contains(t, read(t, root, "build/docs/1.8/index.html"), "Welcome")
	require.FileExists(t, filepath.Join(root, "build", "docs", "1.8", "navigation.json"))
	require.Equal(t, "png", read(t, root, "build/docs/1.8/usage/img/cli.png"))
	require.NoFileExists(t, filepath.Join(root, "build", "docs", "1.8", "usage", "notes.txt"))
}

func TestFailedRunLeavesPreviousOutput(t *testing.T) {
	root, tasks := newProject(t, nil, Options{})
	write(t, root, "src/foo.md", "---\ntitle: Foo\n---\nfirst\n")
	require.NoError(t, tasks.Run(t.Context(), TaskSite))

	write(t, root, "src/foo.md", "---\ntitle: Foo\nsecond\n")
	write(t, root, "src/bar.md", "bar\n")
	err := tasks.Run(t.Context(), TaskSite)
	require.Error(t, err)
	require.True(t, serrors.IsCategory(err, serrors.CategoryValidation))

	require.Contains(t, read(t, root, "build/foo/index.html"), "first")
	require.NoFileExists(t, filepath.Join(root, "build", "bar", "index.html"))
}

func TestAssetTasks(t *testing.T) {
	root, tasks := newProject(t, map[string]string{"SITE_ENV": "production"}, Options{})
	write(t, root, "src/scripts/a.js", "var a = 1")
	write(t, root, "src/scripts/b.js", "var b = a + 1;")
	write(t, root, "src/styles/main.scss", "a { color: red; }")
	write(t, root, "src/styles/_vars.scss", "$x: 1;")
	write(t, root, "src/assets/img/logo.png", "logo")

	require.NoError(t, tasks.Run(t.Context(), TaskJavaScript, TaskStyles, TaskCopy))

	require.FileExists(t, filepath.Join(root, "build", "scripts", "main.js"))
	require.Contains(t, read(t, root, "build/styles/main.css"), "color:red")
	require.NoFileExists(t, filepath.Join(root, "build", "styles", "_vars.css"))
	require.Equal(t, "logo", read(t, root, "build/assets/img/logo.png"))
}

func TestStylesFailurePolicy(t *testing.T) {
	for _, strict := range []bool{false, true} {
		root, tasks := newProject(t, nil, Options{Sass: passSass{fail: true}, StrictStyles: strict})
		write(t, root, "src/styles/main.scss", "a { color: $missing; }")
		err := tasks.Run(t.Context(), TaskStyles)
		if strict {
			require.Error(t, err)
			require.True(t, serrors.IsCategory(err, serrors.CategoryAssets))
		} else {
			require.NoError(t, err)
		}
	}
}

func TestTasksRegistry(t *testing.T) {
	_, tasks := newProject(t, nil, Options{})
	names := tasks.Names()
	for _, want := range []string{TaskSite, TaskBlog, DocsTask("1.7"), DocsImagesTask("1.9"), TaskCopy, TaskJavaScript, TaskStyles} {
		require.Contains(t, names, want)
	}
	require.Error(t, tasks.Run(t.Context(), "nope"))
}

func TestRunAllTasksOnEmptyProject(t *testing.T) {
	_, tasks := newProject(t, nil, Options{})
	require.NoError(t, tasks.Run(t.Context()))
}
