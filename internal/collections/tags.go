package collections

import (
	"context"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/paths"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// KeyTags maps each tag to its sorted files. Tags sharing a slug are one
// entry, keyed by the first spelling seen in collection order.
var KeyTags = pipeline.NewKey[map[string][]*fileset.File]("tags")

// TagOptions configure tag listing generation.
type TagOptions struct {
	// Handle is the metadata field holding a file's tags.
	Handle string
	// Path is the output path template; ":tag" is replaced by the tag slug.
	Path    string
	Layout  string
	SortBy  string
	Reverse bool
	// Collection restricts tagging to members of that collection when set.
	Collection string
}

// TagPath expands the output path template for tag.
func TagPath(pattern, tag string) string {
	return strings.ReplaceAll(pattern, ":tag", paths.Slug(tag))
}

// TagsStage builds the tag index and adds one listing file per tag. Each
// listing carries "tag", "posts" and "layout" metadata.
func TagsStage(opts TagOptions) pipeline.Stage {
	var requires []string
	if opts.Collection != "" {
		requires = []string{opts.Collection}
	}
	return pipeline.Func("tags", requires, []string{KeyTags.Name()}, func(_ context.Context, files *fileset.Set, pc *pipeline.Context) error {
		var candidates []*fileset.File
		if opts.Collection != "" {
			candidates = pipeline.MustGet(pc, Key(opts.Collection))
		} else {
			for _, p := range files.Paths() {
				f, _ := files.Get(p)
				candidates = append(candidates, f)
			}
		}

		spelling := make(map[string]string)
		members := make(map[string][]*fileset.File)
		var order []string
		for _, f := range candidates {
			for _, tag := range f.Meta.Strings(opts.Handle) {
				slug := paths.Slug(tag)
				if _, seen := spelling[slug]; !seen {
					spelling[slug] = tag
					order = append(order, slug)
				}
				if !slices.Contains(members[slug], f) {
					members[slug] = append(members[slug], f)
				}
			}
		}
		slices.Sort(order)

		index := make(map[string][]*fileset.File, len(order))
		for _, slug := range order {
			tag := spelling[slug]
			list := members[slug]
			Sort(list, opts.SortBy, opts.Reverse)
			page := fileset.NewFile(nil)
			page.Meta.Merge(map[string]any{
				"tag":    tag,
				"posts":  list,
				"title":  tag,
				"layout": opts.Layout,
			})
			files.Put(TagPath(opts.Path, tag), page)
			index[tag] = list
		}
		pipeline.Set(pc, KeyTags, index)
		return nil
	})
}
