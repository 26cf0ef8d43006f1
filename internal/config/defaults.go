package config

import "time"

// Default returns a Config describing the conventional project layout.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title:   "DC/OS",
			EnvFile: "env.json",
		},
		Paths: PathsConfig{
			Root:    ".",
			Source:  "src",
			Build:   "build",
			Layouts: "layouts",
			Partial: []string{"mixins", "includes"},
			Docs:    "dcos-docs",
			Blog:    "src/blog",
			Events:  "src/events.json",
			Styles:  "src/styles",
			Scripts: "src/scripts",
			Assets:  "src/assets",
		},
		Docs: DocsConfig{
			Versions:      []string{"1.7", "1.8", "1.9"},
			Current:       "1.8",
			DefaultLayout: "docs.html",
		},
		Blog: BlogConfig{
			Permalink:       "blog/:date/:title",
			PostsPath:       "blog/posts.json",
			SearchIndexPath: "blog/search-index.json",
			TagPath:         "blog/category/:tag.html",
			TagLayout:       "blog-category.html",
			FeedPath:        "rss.xml",
			FeedLimit:       20,
			DateFormat:      "January 02",
			Layout:          "blog-post.html",
		},
		Assets: AssetsConfig{
			Bundle: "main.js",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            3000,
			QuietWindow:     200 * time.Millisecond,
			MaxDelay:        2 * time.Second,
			RefreshInterval: time.Hour,
			Heartbeat:       30 * time.Second,
		},
	}
}

// applyDefaults fills zero values left by a partial YAML file.
func applyDefaults(c *Config) {
	d := Default()
	setString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	setString(&c.Site.EnvFile, d.Site.EnvFile)
	setString(&c.Paths.Root, d.Paths.Root)
	setString(&c.Paths.Source, d.Paths.Source)
	setString(&c.Paths.Build, d.Paths.Build)
	setString(&c.Paths.Layouts, d.Paths.Layouts)
	setString(&c.Paths.Docs, d.Paths.Docs)
	setString(&c.Paths.Blog, d.Paths.Blog)
	setString(&c.Paths.Events, d.Paths.Events)
	setString(&c.Paths.Styles, d.Paths.Styles)
	setString(&c.Paths.Scripts, d.Paths.Scripts)
	setString(&c.Paths.Assets, d.Paths.Assets)
	if c.Paths.Partial == nil {
		c.Paths.Partial = d.Paths.Partial
	}

	if len(c.Docs.Versions) == 0 {
		c.Docs.Versions = d.Docs.Versions
		setString(&c.Docs.Current, d.Docs.Current)
	}
	if c.Docs.Current == "" {
		c.Docs.Current = c.Docs.Versions[len(c.Docs.Versions)-1]
	}
	setString(&c.Docs.DefaultLayout, d.Docs.DefaultLayout)

	setString(&c.Blog.Permalink, d.Blog.Permalink)
	setString(&c.Blog.PostsPath, d.Blog.PostsPath)
	setString(&c.Blog.SearchIndexPath, d.Blog.SearchIndexPath)
	setString(&c.Blog.TagPath, d.Blog.TagPath)
	setString(&c.Blog.TagLayout, d.Blog.TagLayout)
	setString(&c.Blog.FeedPath, d.Blog.FeedPath)
	setString(&c.Blog.DateFormat, d.Blog.DateFormat)
	setString(&c.Blog.Layout, d.Blog.Layout)
	setString(&c.Assets.Bundle, d.Assets.Bundle)
	if c.Blog.FeedLimit == 0 {
		c.Blog.FeedLimit = d.Blog.FeedLimit
	}

	setString(&c.Server.Host, d.Server.Host)
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.QuietWindow == 0 {
		c.Server.QuietWindow = d.Server.QuietWindow
	}
	if c.Server.MaxDelay == 0 {
		c.Server.MaxDelay = d.Server.MaxDelay
	}
	if c.Server.RefreshInterval == 0 {
		c.Server.RefreshInterval = d.Server.RefreshInterval
	}
	if c.Server.Heartbeat == 0 {
		c.Server.Heartbeat = d.Server.Heartbeat
	}
}
