// Package collections groups files into named, sorted collections and
// synthesizes tag listing pages.
package collections

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// Metadata keys set on collection members.
const (
	NextKey       = "next"
	PreviousKey   = "previous"
	CollectionKey = "collection"
)

// Key returns the context key under which collection name is stored.
func Key(name string) pipeline.Key[[]*fileset.File] {
	return pipeline.NewKey[[]*fileset.File](name)
}

// Options define one collection.
type Options struct {
	Name string
	// Pattern is a doublestar glob matched against each file's source path.
	Pattern string
	SortBy  string
	Reverse bool
}

// Build returns the files of s matching opts.Pattern, sorted by opts.SortBy.
// Files without a source path are never members.
func Build(s *fileset.Set, opts Options) ([]*fileset.File, error) {
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("collection %s: invalid pattern %q", opts.Name, opts.Pattern)
	}
	var members []*fileset.File
	for _, p := range s.Paths() {
		f, _ := s.Get(p)
		if f.Source == "" || !doublestar.MatchUnvalidated(opts.Pattern, f.Source) {
			continue
		}
		members = append(members, f)
	}
	Sort(members, opts.SortBy, opts.Reverse)
	return members, nil
}

// Sort orders files by the metadata field key. Files missing the field
// always sort last; ties keep their input order.
func Sort(files []*fileset.File, key string, reverse bool) {
	if key == "" {
		return
	}
	slices.SortStableFunc(files, func(a, b *fileset.File) int {
		_, aok := a.Meta[key]
		_, bok := b.Meta[key]
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := compareField(a.Meta, b.Meta, key)
		if reverse {
			return -c
		}
		return c
	})
}

func compareField(a, b fileset.Meta, key string) int {
	if at, ok := a.Time(key); ok {
		if bt, ok := b.Time(key); ok {
			return at.Compare(bt)
		}
	}
	if ai, ok := a.Int(key); ok {
		if bi, ok := b.Int(key); ok {
			return cmp.Compare(ai, bi)
		}
	}
	return strings.Compare(a.String(key), b.String(key))
}

// Stage computes the collection, links members to their neighbours and
// stores it under Key(opts.Name).
func Stage(opts Options) pipeline.Stage {
	return pipeline.Func("collection:"+opts.Name, nil, []string{opts.Name}, func(_ context.Context, files *fileset.Set, pc *pipeline.Context) error {
		members, err := Build(files, opts)
		if err != nil {
			return err
		}
		for i, f := range members {
			f.Meta[CollectionKey] = []string{opts.Name}
			delete(f.Meta, PreviousKey)
			delete(f.Meta, NextKey)
			if i > 0 {
				f.Meta[PreviousKey] = members[i-1]
			}
			if i < len(members)-1 {
				f.Meta[NextKey] = members[i+1]
			}
		}
		pipeline.Set(pc, Key(opts.Name), members)
		return nil
	})
}

// DecorateStage applies fn to every member of collection name.
func DecorateStage(name string, fn func(f *fileset.File)) pipeline.Stage {
	return pipeline.Func("decorate:"+name, []string{name}, nil, func(_ context.Context, _ *fileset.Set, pc *pipeline.Context) error {
		for _, f := range pipeline.MustGet(pc, Key(name)) {
			fn(f)
		}
		return nil
	})
}

// FormattedDate returns a decorator storing the date field formatted with
// layout under "formattedDate".
func FormattedDate(layout string) func(f *fileset.File) {
	return func(f *fileset.File) {
		if d, ok := f.Meta.Time("date"); ok {
			f.Meta["formattedDate"] = d.Format(layout)
		}
	}
}

// PublishedAt returns the date field of f, or the zero time.
func PublishedAt(f *fileset.File) time.Time {
	d, _ := f.Meta.Time("date")
	return d
}
