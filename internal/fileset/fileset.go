// Package fileset holds the in-memory virtual file tree that every pipeline
// stage mutates: an insertion-ordered map from output-relative path to file
// contents plus metadata.
package fileset

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// File is one virtual file.
type File struct {
	Contents []byte
	Meta     Meta
	// Source is the path the file was read from, relative to the reader root.
	// It survives renames so collection patterns can match the names files were read under.
	Source string
	Mode   fs.FileMode
}

// NewFile creates a file with an empty metadata bag.
func NewFile(contents []byte) *File {
	return &File{Contents: contents, Meta: Meta{}, Mode: 0o644}
}

// Set is an ordered mapping from output-relative path to File.
// Paths are slash-separated, cleaned, and unique.
type Set struct {
	order []string
	files map[string]*File
}

// New returns an empty Set.
func New() *Set {
	return &Set{files: make(map[string]*File)}
}

// Normalize cleans p into the canonical key form used by Set.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Len returns the number of files.
func (s *Set) Len() int { return len(s.order) }

// Get returns the file stored under p.
func (s *Set) Get(p string) (*File, bool) {
	f, ok := s.files[Normalize(p)]
	return f, ok
}

// Has reports whether p exists.
func (s *Set) Has(p string) bool {
	_, ok := s.files[Normalize(p)]
	return ok
}

// Put stores f under p, replacing any existing file while keeping its position.
func (s *Set) Put(p string, f *File) {
	p = Normalize(p)
	if f.Meta == nil {
		f.Meta = Meta{}
	}
	if _, exists := s.files[p]; !exists {
		s.order = append(s.order, p)
	}
	s.files[p] = f
}

// Delete removes p if present.
func (s *Set) Delete(p string) {
	p = Normalize(p)
	if _, ok := s.files[p]; !ok {
		return
	}
	delete(s.files, p)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == p })
}

// Rename moves the file at from to to. Renaming onto an existing different
// path is an error; renaming to the same path is a no-op.
func (s *Set) Rename(from, to string) error {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return nil
	}
	f, ok := s.files[from]
	if !ok {
		return fmt.Errorf("rename %s: %w", from, fs.ErrNotExist)
	}
	if _, exists := s.files[to]; exists {
		return fmt.Errorf("rename %s -> %s: %w", from, to, fs.ErrExist)
	}
	idx := slices.Index(s.order, from)
	s.order[idx] = to
	delete(s.files, from)
	s.files[to] = f
	return nil
}

// Paths returns a snapshot of all paths in insertion order.
func (s *Set) Paths() []string {
	return slices.Clone(s.order)
}

// Each calls fn for every file in insertion order over a snapshot of paths,
// so fn may add, delete or rename files.
func (s *Set) Each(fn func(p string, f *File) error) error {
	for _, p := range s.Paths() {
		f, ok := s.files[p]
		if !ok {
			continue
		}
		if err := fn(p, f); err != nil {
			return err
		}
	}
	return nil
}

// Ext returns the lower-cased extension of p including the dot.
func Ext(p string) string {
	return strings.ToLower(path.Ext(p))
}
