package commands

import (
	"context"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitesmith/internal/bus"
	"git.home.luguber.info/inful/sitesmith/internal/config"
	"git.home.luguber.info/inful/sitesmith/internal/devserver"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/site"
	"git.home.luguber.info/inful/sitesmith/internal/watch"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd builds once, serves the output with live reload and rebuilds the
// affected pipelines whenever a watched source changes.
type ServeCmd struct {
	Host      string `name:"host" help:"Override server.host."`
	Port      int    `short:"p" name:"port" help:"Override server.port."`
	NoRefresh bool   `name:"no-refresh" help:"Disable the periodic site rebuild."`
}

func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}
	s.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return serve(ctx, cfg, g, !s.NoRefresh)
}

func serve(ctx context.Context, cfg *config.Config, g *Global, refresh bool) error {
	logger := g.Logger
	reg := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	builder := newBuilder(cfg, logger, recorder, false)
	defer func() { _ = builder.Close() }()
	tasks := site.NewTasks(builder)
	groups := builder.WatchGroups()

	events := bus.New()
	defer events.Close()

	hub := devserver.NewHub(recorder, cfg.Server.Heartbeat)
	runner, err := watch.NewRunner(events, tasks, hub, groups, logger)
	if err != nil {
		return err
	}
	watcher, err := watch.NewWatcher(events, groups, logger)
	if err != nil {
		return err
	}
	debouncer, err := watch.NewDebouncer(events, watch.DebouncerConfig{
		QuietWindow: cfg.Server.QuietWindow,
		MaxDelay:    cfg.Server.MaxDelay,
		Busy:        runner.Busy,
	})
	if err != nil {
		return err
	}

	// A failed first build still serves whatever is on disk.
	_ = runner.Bootstrap(ctx)

	srv := devserver.New(devserver.Options{
		Root:        cfg.BuildDir(),
		Addr:        net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		CurrentDocs: cfg.Docs.Current,
		Hub:         hub,
		Registry:    reg,
		Logger:      logger,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return runner.Run(gctx) })
	grp.Go(func() error { return debouncer.Run(gctx) })
	grp.Go(func() error { return watcher.Run(gctx) })

	var refresher *watch.Refresher
	if refresh {
		refresher, err = watch.NewRefresher(events, site.GroupSite, cfg.Server.RefreshInterval, logger)
		if err == nil {
			err = refresher.Start(gctx)
		}
		if err != nil {
			logger.Warn("Periodic rebuild disabled", logfields.Error(err))
			refresher = nil
		}
	}

	<-gctx.Done()
	logger.Info("Shutting down")
	if refresher != nil {
		_ = refresher.Stop()
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	stopErr := srv.Stop(stopCtx)
	if err := grp.Wait(); err != nil {
		return err
	}
	return stopErr
}
