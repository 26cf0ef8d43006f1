package site

import (
	"path"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/collections"
	"git.home.luguber.info/inful/sitesmith/internal/events"
	"git.home.luguber.info/inful/sitesmith/internal/feed"
	"git.home.luguber.info/inful/sitesmith/internal/frontmatter"
	"git.home.luguber.info/inful/sitesmith/internal/markdown"
	"git.home.luguber.info/inful/sitesmith/internal/metadata"
	"git.home.luguber.info/inful/sitesmith/internal/navtree"
	"git.home.luguber.info/inful/sitesmith/internal/paths"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
	"git.home.luguber.info/inful/sitesmith/internal/render"
	"git.home.luguber.info/inful/sitesmith/internal/search"
)

// Template locals describing the docs versions.
var (
	KeyDocsVersion  = pipeline.NewKey[string]("docsVersion")
	KeyDocsVersions = pipeline.NewKey[[]string]("docsVersions")
	KeyDocsCurrent  = pipeline.NewKey[string]("docsCurrent")
)

const (
	// NavigationExport is written at the root of the site and of each docs version.
	NavigationExport = "navigation.json"
	// PostsCollection holds every blog post, newest first.
	PostsCollection = "posts"
	// TagHandle is the post field listing its categories.
	TagHandle = "category"
)

var sitePatterns = []string{"**/*.md", "**/*" + render.PageExt, "**/*.html"}

// Site describes the main pages: markdown and page templates below the
// source directory, minus the blog and asset trees.
func (b *Builder) Site() *Definition {
	cfg := b.cfg
	now := b.opts.Clock()
	ts := now.UnixMilli()
	src := cfg.Path(cfg.Paths.Source)
	e := b.engine()

	return &Definition{
		Name:     "site",
		Source:   src,
		Patterns: sitePatterns,
		Exclude: nestedDirs(src,
			cfg.Path(cfg.Paths.Blog),
			cfg.Path(cfg.Paths.Styles),
			cfg.Path(cfg.Paths.Scripts),
			cfg.Path(cfg.Paths.Assets)),
		Dest: cfg.BuildDir(),
		Stages: []pipeline.Stage{
			frontmatter.Stage(),
			events.Stage(cfg.Path(cfg.Paths.Events), func() time.Time { return now }),
			markdown.TimestampStage(render.KeyTimestamp.Name(), ts),
			markdown.Stage(markdown.New(markdown.DefaultOptions())),
			pipeline.Define(render.KeyRootURL, cfg.Profile.RootURL),
			pipeline.Define(render.KeyTimestamp, ts),
			pipeline.Define(KeyDocsVersions, cfg.Docs.Versions),
			pipeline.Define(KeyDocsCurrent, cfg.Docs.Current),
			render.PagesStage(e, render.KeyRootURL.Name(), events.Key.Name()),
			navtree.Stage(navtree.StageOptions{ExportPath: NavigationExport}),
			paths.PrettyStage(),
			render.LayoutsStage(e, render.LayoutOptions{}, render.KeyRootURL.Name(), navtree.KeyNavs.Name()),
		},
	}
}

// Blog describes the posts: permalinked pages, the posts collection with
// its JSON dump, tag listings, the search index and the feed.
func (b *Builder) Blog() *Definition {
	cfg := b.cfg
	ts := b.opts.Clock().UnixMilli()
	e := b.engine()

	return &Definition{
		Name:     "blog",
		Source:   cfg.Path(cfg.Paths.Blog),
		Patterns: []string{"**/*.md"},
		Dest:     cfg.BuildDir(),
		Stages: []pipeline.Stage{
			frontmatter.Stage(),
			markdown.TimestampStage(render.KeyTimestamp.Name(), ts),
			markdown.Stage(markdown.New(markdown.DefaultOptions())),
			paths.PermalinkStage(cfg.Blog.Permalink, nil),
			collections.Stage(collections.Options{Name: PostsCollection, Pattern: "**/*.md", SortBy: "date", Reverse: true}),
			collections.DecorateStage(PostsCollection, collections.FormattedDate(cfg.Blog.DateFormat)),
			metadata.Stage(metadata.Options{Collection: PostsCollection, Path: cfg.Blog.PostsPath}),
			collections.TagsStage(collections.TagOptions{
				Handle:     TagHandle,
				Path:       cfg.Blog.TagPath,
				Layout:     cfg.Blog.TagLayout,
				SortBy:     "date",
				Reverse:    true,
				Collection: PostsCollection,
			}),
			search.Stage(search.Options{Collection: PostsCollection, Path: cfg.Blog.SearchIndexPath}),
			feed.Stage(feed.Options{
				Collection:  PostsCollection,
				Path:        cfg.Blog.FeedPath,
				Limit:       cfg.Blog.FeedLimit,
				Title:       cfg.Site.Title,
				Description: cfg.Site.Description,
				SiteURL:     cfg.Profile.RootURL,
			}),
			pipeline.Define(render.KeyRootURL, cfg.Profile.RootURL),
			pipeline.Define(render.KeyTimestamp, ts),
			render.LayoutsStage(e, render.LayoutOptions{Default: cfg.Blog.Layout}, render.KeyRootURL.Name(), PostsCollection),
		},
	}
}

// Docs describes one documentation version, written below docs/<version>.
func (b *Builder) Docs(version string) *Definition {
	cfg := b.cfg
	ts := b.opts.Clock().UnixMilli()
	e := b.engine()

	return &Definition{
		Name:     "docs-" + version,
		Source:   cfg.Path(path.Join(cfg.Paths.Docs, version)),
		Patterns: []string{"**/*.md"},
		Dest:     cfg.DocsOutput(version),
		Seeds:    []string{KeyDocsVersion.Name(), KeyDocsVersions.Name()},
		Seed: func(pc *pipeline.Context) {
			pipeline.Set(pc, KeyDocsVersion, version)
			pipeline.Set(pc, KeyDocsVersions, cfg.Docs.Versions)
		},
		Stages: []pipeline.Stage{
			frontmatter.Stage(),
			markdown.TimestampStage(render.KeyTimestamp.Name(), ts),
			markdown.Stage(markdown.New(markdown.DefaultOptions())),
			pipeline.Define(render.KeyRootURL, cfg.Profile.RootURL),
			pipeline.Define(render.KeyTimestamp, ts),
			pipeline.Define(KeyDocsCurrent, cfg.Docs.Current),
			navtree.Stage(navtree.StageOptions{ExportPath: NavigationExport}),
			paths.PrettyStage(),
			render.LayoutsStage(e, render.LayoutOptions{Default: cfg.Docs.DefaultLayout},
				render.KeyRootURL.Name(), navtree.KeyNavs.Name(), KeyDocsVersion.Name()),
		},
	}
}
