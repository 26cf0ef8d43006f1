package fileset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// tempFilePrefix is the prefix used for temporary atomic write files.
const tempFilePrefix = ".sitesmith-tmp-"

// Read loads every file of fsys matching any of patterns into a new Set.
// Paths are stored relative to the root of fsys, sorted lexically so runs
// are deterministic regardless of directory iteration order.
func Read(fsys fs.FS, patterns ...string) (*Set, error) {
	seen := make(map[string]struct{})
	var matches []string
	for _, pattern := range patterns {
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range found {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			matches = append(matches, m)
		}
	}
	slices.Sort(matches)

	set := New()
	for _, p := range matches {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		f := NewFile(data)
		f.Source = p
		if info, err := fs.Stat(fsys, p); err == nil {
			f.Mode = info.Mode().Perm()
		}
		set.Put(p, f)
	}
	return set, nil
}

// ReadDir is Read over a directory on disk. A missing directory yields an
// empty set, matching a glob that simply finds nothing.
func ReadDir(dir string, patterns ...string) (*Set, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return New(), nil
	}
	return Read(os.DirFS(dir), patterns...)
}

// Write flushes every file of s below dest. Existing files outside the set
// are left in place; each file is replaced atomically.
func Write(ctx context.Context, s *Set, dest string) error {
	return s.Each(func(p string, f *File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", p, err)
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		return WriteFileAtomic(target, f.Contents, mode)
	})
}

// WriteFileAtomic writes data to a file atomically by writing to a temp file
// and then renaming it to the target filename.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
