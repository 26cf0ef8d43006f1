package navtree

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
)

// Entry is the plain, serializable form of a node used by templates and
// the JSON export.
type Entry struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Type     NodeType     `json:"type"`
	Order    int          `json:"order"`
	File     *FileSummary `json:"file,omitempty"`
	Children []*Entry     `json:"children"`
}

// FileSummary is the subset of file metadata exposed in navigation.
type FileSummary struct {
	PostTitle   string `json:"post_title"`
	SearchBlurb string `json:"search_blurb,omitempty"`
}

// Export reduces the arena into an Entry tree rooted at the root directory.
// The second return maps node indices to their entries.
func (t *Tree) Export() (*Entry, map[int]*Entry) {
	byNode := make(map[int]*Entry, len(t.Nodes))
	var reduce func(i int) *Entry
	reduce = func(i int) *Entry {
		n := &t.Nodes[i]
		e := &Entry{
			Name:     entryName(n),
			Path:     URLPath(n),
			Type:     n.Type,
			Order:    n.Rank,
			Children: make([]*Entry, 0, len(n.Children)),
		}
		switch {
		case n.Type == TypeFile:
			e.File = summarize(n.Meta, e.Name)
		case t.IndexOf(i) >= 0:
			e.File = summarize(t.Nodes[t.IndexOf(i)].Meta, e.Name)
		}
		for _, c := range n.Children {
			e.Children = append(e.Children, reduce(c))
		}
		byNode[i] = e
		return e
	}
	return reduce(0), byNode
}

// URLPath is the directory-style link of a node: "a/b.html" becomes "a/b",
// "a/index.html" becomes "a".
func URLPath(n *Node) string {
	if n.Type == TypeDir {
		return n.Path
	}
	if n.Name == "index.html" {
		dir := path.Dir(n.Path)
		if dir == "." {
			return ""
		}
		return dir
	}
	return strings.TrimSuffix(n.Path, path.Ext(n.Path))
}

func entryName(n *Node) string {
	if n.Type == TypeDir {
		return n.Name
	}
	return strings.TrimSuffix(n.Name, path.Ext(n.Name))
}

func summarize(m fileset.Meta, name string) *FileSummary {
	title := m.String("nav_title")
	if title == "" {
		title = m.String("post_title")
	}
	if title == "" {
		title = m.String("title")
	}
	if title == "" {
		title = cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(name))
	}
	return &FileSummary{PostTitle: title, SearchBlurb: m.String("search_blurb")}
}
