package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/collections"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

func doc(path, title, category, body string) *fileset.File {
	f := fileset.NewFile([]byte(body))
	f.Source = path + ".md"
	f.Meta.Merge(map[string]any{"title": title, "category": category, "path": path})
	return f
}

func TestPlainText(t *testing.T) {
	got := PlainText([]byte(`<h1>Hello</h1><p>big <b>world</b></p><script>var x = 1</script><style>p{}</style>`))
	require.Equal(t, "Hello big world", got)
}

func TestTokenize(t *testing.T) {
	require.Empty(t, Tokenize("a the of"))
	require.Equal(t, []string{"dc", "os", "release", "cafe"}, Tokenize("DC/OS: the Release of Café!"))
}

func TestWeightsOrderResults(t *testing.T) {
	files := []*fileset.File{
		doc("blog/2023/body", "Other", "misc", "<p>marathon marathon</p>"),
		doc("blog/2023/title", "Marathon", "misc", "<p>nothing</p>"),
		doc("blog/2023/cat", "Third", "marathon", "<p>nothing</p>"),
	}
	idx := Build(files, DefaultFields)

	hits := idx.Query("Marathon")
	require.Len(t, hits, 3)
	require.Equal(t, "blog/2023/title", hits[0].Ref)
	require.Equal(t, 10, hits[0].Score)
	require.Equal(t, "blog/2023/cat", hits[1].Ref)
	require.Equal(t, "blog/2023/body", hits[2].Ref)
	require.Equal(t, 4, hits[2].Score)

	require.Empty(t, idx.Query("marathon absent"))
	require.Nil(t, idx.Query("the"))
}

func TestStageEmitsValidJSON(t *testing.T) {
	s := fileset.New()
	for _, f := range []*fileset.File{
		doc("blog/2023/a", "Alpha", "news", "<p>first post</p>"),
		doc("blog/2023/b", "Beta", "news", "<p>second post</p>"),
	} {
		s.Put(f.Meta.String("path")+"/index.html", f)
	}
	pc := pipeline.NewContext()
	p := pipeline.New("blog", nil,
		collections.Stage(collections.Options{Name: "posts", Pattern: "**/*.md"}),
		Stage(Options{Collection: "posts", Path: "blog/search-index.json"}),
	)
	_, err := p.Run(t.Context(), s, pc)
	require.NoError(t, err)

	out, ok := s.Get("blog/search-index.json")
	require.True(t, ok)
	var idx Index
	require.NoError(t, json.Unmarshal(out.Contents, &idx))
	require.Equal(t, FormatVersion, idx.Version)
	require.Len(t, idx.Documents, 2)
	require.Len(t, idx.Terms["post"], 2)
	require.Equal(t, 10, idx.Fields["title"])
}
