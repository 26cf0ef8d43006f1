// Package metadata writes a collection's metadata as a JSON artifact.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"git.home.luguber.info/inful/sitesmith/internal/collections"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// DefaultIgnore lists keys that never belong in the export: rendered
// contents, neighbour links, file stats and search handles.
var DefaultIgnore = []string{"contents", "next", "previous", "stats", "mode", "lunr", "searchIndex"}

// Options configure the writer.
type Options struct {
	Collection string
	Path       string
	Ignore     []string
}

// Entries reduces files to plain maps without ignored keys. Values that
// refer back to files are dropped as well, since they form cycles.
func Entries(files []*fileset.File, ignore []string) []map[string]any {
	out := make([]map[string]any, 0, len(files))
	for _, f := range files {
		entry := maps.Clone(map[string]any(f.Meta))
		if entry == nil {
			entry = map[string]any{}
		}
		for k, v := range entry {
			if slices.Contains(ignore, k) || refersToFiles(v) {
				delete(entry, k)
			}
		}
		out = append(out, entry)
	}
	return out
}

func refersToFiles(v any) bool {
	switch v.(type) {
	case *fileset.File, []*fileset.File, map[string][]*fileset.File:
		return true
	}
	return false
}

// Marshal renders the collection export.
func Marshal(files []*fileset.File, ignore []string) ([]byte, error) {
	return json.MarshalIndent(Entries(files, ignore), "", "  ")
}

// Stage writes collection opts.Collection to opts.Path inside the file set.
func Stage(opts Options) pipeline.Stage {
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	return pipeline.Func("writemetadata", []string{opts.Collection}, nil, func(_ context.Context, files *fileset.Set, pc *pipeline.Context) error {
		members := pipeline.MustGet(pc, collections.Key(opts.Collection))
		data, err := Marshal(members, ignore)
		if err != nil {
			return fmt.Errorf("encode %s: %w", opts.Collection, err)
		}
		files.Put(opts.Path, fileset.NewFile(data))
		return nil
	})
}
