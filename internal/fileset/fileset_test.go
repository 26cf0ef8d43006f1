package fileset

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetPutGetDeleteKeepsOrder(t *testing.T) {
	s := New()
	s.Put("b.md", NewFile([]byte("b")))
	s.Put("./a.md", NewFile([]byte("a")))
	s.Put("c/../c.md", NewFile([]byte("c")))

	require.Equal(t, []string{"b.md", "a.md", "c.md"}, s.Paths())

	s.Put("b.md", NewFile([]byte("b2")))
	require.Equal(t, []string{"b.md", "a.md", "c.md"}, s.Paths())
	f, ok := s.Get("b.md")
	require.True(t, ok)
	require.Equal(t, "b2", string(f.Contents))

	s.Delete("a.md")
	require.Equal(t, []string{"b.md", "c.md"}, s.Paths())
	require.False(t, s.Has("a.md"))
	require.Equal(t, 2, s.Len())
}

func TestSetRename(t *testing.T) {
	s := New()
	s.Put("a.md", NewFile([]byte("a")))
	s.Put("b.md", NewFile([]byte("b")))

	require.NoError(t, s.Rename("a.md", "a.html"))
	require.Equal(t, []string{"a.html", "b.md"}, s.Paths())

	err := s.Rename("a.html", "b.md")
	require.ErrorIs(t, err, fs.ErrExist)

	err = s.Rename("missing.md", "x.md")
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, s.Rename("b.md", "b.md"))
}

func TestEachToleratesMutation(t *testing.T) {
	s := New()
	s.Put("a.md", NewFile(nil))
	s.Put("b.md", NewFile(nil))

	var visited []string
	err := s.Each(func(p string, _ *File) error {
		visited = append(visited, p)
		s.Delete("b.md")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a.md"}, visited)
}

func TestReadMatchesPatternsSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"index.tmpl":          {Data: []byte("home")},
		"about.md":            {Data: []byte("about")},
		"deep/nested/x.tmpl":  {Data: []byte("x")},
		"deep/ignored.md":     {Data: []byte("no")},
		"styles/_partial.css": {Data: []byte("css")},
	}

	s, err := Read(fsys, "**/*.tmpl", "*.md")
	require.NoError(t, err)
	require.Equal(t, []string{"about.md", "deep/nested/x.tmpl", "index.tmpl"}, s.Paths())

	f, _ := s.Get("deep/nested/x.tmpl")
	require.Equal(t, "deep/nested/x.tmpl", f.Source)
	require.NotNil(t, f.Meta)
}

func TestReadDirMissingIsEmpty(t *testing.T) {
	s, err := ReadDir(filepath.Join(t.TempDir(), "nope"), "**/*")
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestWriteCreatesDirectoriesAndKeepsOtherFiles(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "keep.txt"), []byte("old"), 0o644))

	s := New()
	s.Put("blog/2024/post/index.html", NewFile([]byte("<p>post</p>")))
	require.NoError(t, Write(t.Context(), s, dest))

	data, err := os.ReadFile(filepath.Join(dest, "blog", "2024", "post", "index.html"))
	require.NoError(t, err)
	require.Equal(t, "<p>post</p>", string(data))

	_, err = os.Stat(filepath.Join(dest, "keep.txt"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dest, "blog", "2024", "post"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestMetaAccessors(t *testing.T) {
	m := Meta{
		"menu_order": 3,
		"weight":     "7",
		"ratio":      2.0,
		"date":       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"quoted":     "2024-05-06",
		"category":   "go, tooling ,",
		"tags":       []any{"a", "b"},
	}

	n, ok := m.Int("menu_order")
	require.True(t, ok)
	require.Equal(t, 3, n)
	n, ok = m.Int("weight")
	require.True(t, ok)
	require.Equal(t, 7, n)
	n, ok = m.Int("ratio")
	require.True(t, ok)
	require.Equal(t, 2, n)
	_, ok = m.Int("missing")
	require.False(t, ok)

	d, ok := m.Time("date")
	require.True(t, ok)
	require.Equal(t, 2024, d.Year())
	d, ok = m.Time("quoted")
	require.True(t, ok)
	require.Equal(t, time.May, d.Month())

	require.Equal(t, []string{"go", "tooling"}, m.Strings("category"))
	require.Equal(t, []string{"a", "b"}, m.Strings("tags"))
	require.Nil(t, m.Strings("missing"))
	require.Equal(t, "3", m.String("menu_order"))
	require.Empty(t, m.String("missing"))

	clone := m.Clone()
	clone.Merge(map[string]any{"menu_order": 9})
	n, _ = m.Int("menu_order")
	require.Equal(t, 3, n)
}
