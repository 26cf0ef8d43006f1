package site

import (
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/sitesmith/internal/watch"
)

// Watch group names.
const (
	GroupSite    = "site"
	GroupEvents  = "events"
	GroupBlog    = "blog"
	GroupLayouts = "layouts"
	GroupStyles  = "styles"
	GroupScripts = "scripts"
	GroupAssets  = "assets"
)

// DocsGroup names the watch group of one docs version.
func DocsGroup(version string) string { return "docs-" + version }

// WatchGroups maps every source tree of the project to the tasks that
// rebuild it. Layout and partial edits rebuild every templated pipeline.
func (b *Builder) WatchGroups() []watch.Group {
	cfg := b.cfg
	src := cfg.Path(cfg.Paths.Source)

	var exclude []string
	for _, d := range nestedDirs(src,
		cfg.Path(cfg.Paths.Blog),
		cfg.Path(cfg.Paths.Styles),
		cfg.Path(cfg.Paths.Scripts),
		cfg.Path(cfg.Paths.Assets)) {
		exclude = append(exclude, path.Join(d, "**"))
	}

	templated := []string{TaskSite, TaskBlog}
	for _, v := range cfg.Docs.Versions {
		templated = append(templated, DocsTask(v))
	}

	events := cfg.Path(cfg.Paths.Events)
	groups := []watch.Group{
		{Name: GroupSite, Dir: src, Patterns: sitePatterns, Exclude: exclude, Tasks: []string{TaskSite}, Reload: watch.ReloadPage},
		{Name: GroupEvents, Dir: filepath.Dir(events), Patterns: []string{filepath.Base(events)}, Tasks: []string{TaskSite}, Reload: watch.ReloadPage},
		{Name: GroupBlog, Dir: cfg.Path(cfg.Paths.Blog), Patterns: []string{"**/*.md"}, Tasks: []string{TaskBlog}, Reload: watch.ReloadPage},
		{Name: GroupLayouts, Dir: cfg.Path(cfg.Paths.Layouts), Tasks: templated, Reload: watch.ReloadPage},
	}
	for _, p := range cfg.Paths.Partial {
		groups = append(groups, watch.Group{
			Name:   GroupLayouts + "-" + filepath.Base(p),
			Dir:    cfg.Path(p),
			Tasks:  templated,
			Reload: watch.ReloadPage,
		})
	}
	groups = append(groups,
		watch.Group{Name: GroupStyles, Dir: cfg.Path(cfg.Paths.Styles), Patterns: []string{"**/*.scss"}, Tasks: []string{TaskStyles}, Reload: watch.ReloadCSS},
		watch.Group{Name: GroupScripts, Dir: cfg.Path(cfg.Paths.Scripts), Patterns: []string{"**/*.js"}, Tasks: []string{TaskJavaScript}, Reload: watch.ReloadPage},
		watch.Group{Name: GroupAssets, Dir: cfg.Path(cfg.Paths.Assets), Tasks: []string{TaskCopy}, Reload: watch.ReloadPage},
	)
	for _, v := range cfg.Docs.Versions {
		groups = append(groups, watch.Group{
			Name:   DocsGroup(v),
			Dir:    cfg.Path(path.Join(cfg.Paths.Docs, v)),
			Tasks:  []string{DocsTask(v), DocsImagesTask(v)},
			Reload: watch.ReloadPage,
		})
	}
	return groups
}
