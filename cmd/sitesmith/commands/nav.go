package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/site"
)

// NavCmd renders one docs version in memory and prints its navigation tree.
type NavCmd struct {
	Version string `arg:"" optional:"" help:"Docs version (default: the current one)"`

	out io.Writer
}

func (n *NavCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}
	version := n.Version
	if version == "" {
		version = cfg.Docs.Current
	}
	if !slices.Contains(cfg.Docs.Versions, version) {
		return serrors.ValidationFailed("version", fmt.Sprintf("%q is not one of %v", version, cfg.Docs.Versions))
	}
	builder := newBuilder(cfg, g.Logger, metrics.NoopRecorder{}, false)
	defer func() { _ = builder.Close() }()

	files, _, err := builder.Render(context.Background(), builder.Docs(version))
	if err != nil {
		return err
	}
	f, ok := files.Get(site.NavigationExport)
	if !ok {
		return serrors.New(serrors.CategoryBuild, serrors.SeverityError, "navigation was not produced").
			WithContext("version", version)
	}
	out := n.out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, string(f.Contents))
	return err
}
