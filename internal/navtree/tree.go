// Package navtree builds the navigation tree of a pipeline from the flat
// paths of its file set.
//
// The tree is an arena: nodes live in one slice and refer to each other by
// index, so the shape is derived once and the exported form has no cycles.
package navtree

import (
	"cmp"
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
)

// DefaultRank is the rank of entries without an explicit menu_order.
const DefaultRank = 999

// NodeType discriminates directories from files.
type NodeType string

const (
	TypeDir  NodeType = "dir"
	TypeFile NodeType = "file"
)

// Node is one arena entry.
type Node struct {
	Name     string // path segment, e.g. "install.html" or "usage"
	Path     string // set path for files, directory path for dirs
	Type     NodeType
	Parent   int // -1 for the root
	Children []int
	Rank     int
	Meta     fileset.Meta // nil for directories
}

// Tree is an arena of nodes; Nodes[0] is the root directory.
type Tree struct {
	Nodes []Node
}

// Build creates a tree from every path in files accepted by include. A nil
// include accepts .html files.
func Build(files *fileset.Set, include func(p string) bool) *Tree {
	if include == nil {
		include = func(p string) bool { return fileset.Ext(p) == ".html" }
	}
	t := &Tree{Nodes: []Node{{Type: TypeDir, Parent: -1}}}
	dirs := map[string]int{"": 0}

	for _, p := range files.Paths() {
		if !include(p) {
			continue
		}
		f, _ := files.Get(p)
		parent := t.ensureDir(dirs, path.Dir(p))
		t.add(Node{Name: path.Base(p), Path: p, Type: TypeFile, Parent: parent, Meta: f.Meta})
	}

	for i := range t.Nodes {
		t.Nodes[i].Rank = t.rankOf(i)
	}
	for i := range t.Nodes {
		t.sortChildren(i)
	}
	return t
}

func (t *Tree) add(n Node) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	if n.Parent >= 0 {
		t.Nodes[n.Parent].Children = append(t.Nodes[n.Parent].Children, idx)
	}
	return idx
}

func (t *Tree) ensureDir(dirs map[string]int, dir string) int {
	if dir == "." {
		dir = ""
	}
	if idx, ok := dirs[dir]; ok {
		return idx
	}
	parent := t.ensureDir(dirs, path.Dir(dir))
	idx := t.add(Node{Name: path.Base(dir), Path: dir, Type: TypeDir, Parent: parent})
	dirs[dir] = idx
	return idx
}

// rankOf returns a file's menu_order, a directory's index.html menu_order,
// or DefaultRank.
func (t *Tree) rankOf(i int) int {
	n := t.Nodes[i]
	if n.Type == TypeFile {
		if r, ok := n.Meta.Int("menu_order"); ok {
			return r
		}
		return DefaultRank
	}
	if idx := t.IndexOf(i); idx >= 0 {
		if r, ok := t.Nodes[idx].Meta.Int("menu_order"); ok {
			return r
		}
	}
	return DefaultRank
}

// IndexOf returns the index.html child of directory i, or -1.
func (t *Tree) IndexOf(i int) int {
	for _, c := range t.Nodes[i].Children {
		if t.Nodes[c].Type == TypeFile && t.Nodes[c].Name == "index.html" {
			return c
		}
	}
	return -1
}

// Less orders two nodes by rank, then by name.
func Less(a, b *Node) int {
	return cmp.Or(cmp.Compare(a.Rank, b.Rank), strings.Compare(a.Name, b.Name))
}

func (t *Tree) sortChildren(i int) {
	slices.SortStableFunc(t.Nodes[i].Children, func(a, b int) int {
		return Less(&t.Nodes[a], &t.Nodes[b])
	})
}

// Lookup returns the node index of the file stored at set path p, or -1.
func (t *Tree) Lookup(p string) int {
	for i := range t.Nodes {
		if t.Nodes[i].Type == TypeFile && t.Nodes[i].Path == p {
			return i
		}
	}
	return -1
}

// Ancestry returns the indices from the first level below the root down to i.
func (t *Tree) Ancestry(i int) []int {
	var chain []int
	for n := i; n > 0; n = t.Nodes[n].Parent {
		chain = append(chain, n)
	}
	slices.Reverse(chain)
	return chain
}
