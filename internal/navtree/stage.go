package navtree

import (
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// Metadata keys written onto files.
const (
	PathProperty     = "nav_path"
	ChildrenProperty = "nav_children"
	// HeaderNav names the single navigation kept under KeyNavs.
	HeaderNav = "header"
)

// KeyNavs holds every named navigation root of the run.
var KeyNavs = pipeline.NewKey[map[string]*Entry]("navs")

// StageOptions configure the navigation stage.
type StageOptions struct {
	// ExportPath is the set path of the JSON export; empty disables it.
	ExportPath string
	// Include selects the files that become navigation nodes.
	Include func(p string) bool
}

// Stage builds the header navigation, annotates each file with its
// breadcrumb and index files with their siblings, and stores the tree
// under KeyNavs.
func Stage(opts StageOptions) pipeline.Stage {
	return pipeline.Func("navigation", nil, []string{KeyNavs.Name()}, func(_ context.Context, files *fileset.Set, pc *pipeline.Context) error {
		tree := Build(files, opts.Include)
		root, byNode := tree.Export()

		for i := range tree.Nodes {
			n := &tree.Nodes[i]
			if n.Type != TypeFile {
				continue
			}
			crumbs := make([]*Entry, 0, 4)
			for _, a := range tree.Ancestry(i) {
				crumbs = append(crumbs, byNode[a])
			}
			n.Meta[PathProperty] = crumbs
			if n.Name == "index.html" {
				n.Meta[ChildrenProperty] = byNode[n.Parent].Children
			}
		}

		pipeline.Set(pc, KeyNavs, map[string]*Entry{HeaderNav: root})

		if opts.ExportPath == "" {
			return nil
		}
		data, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			return fmt.Errorf("encode navigation: %w", err)
		}
		files.Put(opts.ExportPath, fileset.NewFile(data))
		return nil
	})
}
