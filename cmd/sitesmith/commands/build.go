package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Tasks []string `arg:"" optional:"" help:"Tasks to run (default: all). See --list."`
	List  bool     `name:"list" help:"List the available tasks and exit"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}
	builder := newBuilder(cfg, g.Logger, metrics.NoopRecorder{}, false)
	defer func() { _ = builder.Close() }()
	tasks := site.NewTasks(builder)

	if b.List {
		for _, name := range tasks.Names() {
			_, _ = fmt.Fprintln(os.Stdout, name)
		}
		return nil
	}

	start := time.Now()
	if err := tasks.Run(ctx, b.Tasks...); err != nil {
		return err
	}
	g.Logger.Info("Build complete", logfields.Path(cfg.BuildDir()), logfields.Elapsed(time.Since(start)))
	return nil
}
