package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitesmith/internal/bus"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
)

// Refresher periodically requests a rebuild of one group. The site pages
// depend on the clock (past events drop out), so they go stale without any
// file change.
type Refresher struct {
	scheduler gocron.Scheduler
	bus       *bus.Bus
	group     string
	interval  time.Duration
	logger    *slog.Logger
}

func NewRefresher(b *bus.Bus, group string, interval time.Duration, logger *slog.Logger) (*Refresher, error) {
	if interval <= 0 {
		return nil, serrors.ValidationError("refresh interval must be > 0")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, serrors.Wrap(err, serrors.CategoryRuntime, serrors.SeverityFatal, "create scheduler")
	}
	return &Refresher{scheduler: s, bus: b, group: group, interval: interval, logger: logger}, nil
}

// Start schedules the refresh job. Requests stop once ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() { r.request(ctx) }),
		gocron.WithName("refresh-"+r.group),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return serrors.Wrap(err, serrors.CategoryRuntime, serrors.SeverityFatal, "schedule refresh").
			WithContext("group", r.group)
	}
	r.logger.Info("Scheduled refresh", logfields.Group(r.group), slog.Duration("interval", r.interval))
	r.scheduler.Start()
	return nil
}

func (r *Refresher) Stop() error {
	return r.scheduler.Shutdown()
}

func (r *Refresher) request(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r.logger.Debug("Scheduled refresh firing", logfields.Group(r.group))
	if err := r.bus.Publish(ctx, Changed{Group: r.group, Cause: "schedule", At: time.Now()}); err != nil {
		r.logger.Debug("Refresh not delivered", logfields.Group(r.group), logfields.Error(err))
	}
}
