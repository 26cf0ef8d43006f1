package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/collections"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

func TestEntriesStripIgnoredAndCyclicKeys(t *testing.T) {
	a := fileset.NewFile(nil)
	b := fileset.NewFile(nil)
	a.Meta.Merge(map[string]any{
		"title":    "A",
		"contents": "<p>big</p>",
		"next":     b,
		"previous": nil,
		"stats":    map[string]any{"size": 1},
		"mode":     "0644",
		"lunr":     true,
		"related":  []*fileset.File{b},
	})
	b.Meta.Merge(map[string]any{"title": "B", "previous": a})

	entries := Entries([]*fileset.File{a, b}, DefaultIgnore)
	require.Equal(t, []map[string]any{{"title": "A"}, {"title": "B"}}, entries)
	require.Equal(t, "<p>big</p>", a.Meta["contents"], "source metadata untouched")

	data, err := Marshal([]*fileset.File{a, b}, DefaultIgnore)
	require.NoError(t, err)
	for _, banned := range DefaultIgnore {
		require.NotContains(t, string(data), `"`+banned+`"`)
	}
}

func TestStageWritesCollectionInOrder(t *testing.T) {
	s := fileset.New()
	for _, m := range []map[string]any{
		{"title": "January", "date": "2023-01-01"},
		{"title": "February", "date": "2023-02-01"},
	} {
		f := fileset.NewFile([]byte("body"))
		f.Source = m["title"].(string) + ".md"
		f.Meta.Merge(m)
		s.Put(f.Source, f)
	}

	pc := pipeline.NewContext()
	p := pipeline.New("blog", nil,
		collections.Stage(collections.Options{Name: "posts", Pattern: "*.md", SortBy: "date", Reverse: true}),
		Stage(Options{Collection: "posts", Path: "blog/posts.json"}),
	)
	_, err := p.Run(t.Context(), s, pc)
	require.NoError(t, err)

	out, ok := s.Get("blog/posts.json")
	require.True(t, ok)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Contents, &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, "February", decoded[0]["title"])
	require.Equal(t, "January", decoded[1]["title"])
	require.NotContains(t, decoded[0], "next")
}
