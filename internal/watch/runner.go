package watch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/bus"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
)

// State of the dev loop.
type State int32

const (
	StateIdle State = iota
	StateBuilding
	StateServing
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateServing:
		return "serving"
	default:
		return "idle"
	}
}

// Tasks runs named build tasks.
type Tasks interface {
	Run(ctx context.Context, names ...string) error
}

// Reloader tells connected browsers to refresh.
type Reloader interface {
	Broadcast(kind string)
}

// Runner executes Rebuild events one at a time. A failed task is logged and
// leaves the loop serving; the next change retries it.
type Runner struct {
	bus      *bus.Bus
	tasks    Tasks
	reloader Reloader
	groups   map[string]Group
	logger   *slog.Logger

	state     atomic.Int32
	readyOnce sync.Once
	ready     chan struct{}
}

func NewRunner(b *bus.Bus, tasks Tasks, reloader Reloader, groups []Group, logger *slog.Logger) (*Runner, error) {
	if b == nil || tasks == nil {
		return nil, serrors.ValidationError("bus and tasks are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]Group, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}
	return &Runner{bus: b, tasks: tasks, reloader: reloader, groups: byName, logger: logger, ready: make(chan struct{})}, nil
}

func (r *Runner) State() State { return State(r.state.Load()) }

// Busy is true while a build is in flight; it feeds DebouncerConfig.Busy.
func (r *Runner) Busy() bool { return r.State() == StateBuilding }

// Ready is closed once Run has subscribed.
func (r *Runner) Ready() <-chan struct{} { return r.ready }

// Bootstrap performs the initial build and moves the loop to serving even
// when the build fails, so the server still comes up.
func (r *Runner) Bootstrap(ctx context.Context, tasks ...string) error {
	r.state.Store(int32(StateBuilding))
	defer r.state.Store(int32(StateServing))

	start := time.Now()
	err := r.tasks.Run(ctx, tasks...)
	if err != nil {
		r.logger.Error("Initial build failed", logfields.Error(err), logfields.Elapsed(time.Since(start)))
		return err
	}
	r.logger.Info("Initial build complete", logfields.Elapsed(time.Since(start)))
	return nil
}

func (r *Runner) Run(ctx context.Context) error {
	rebuilds, unsubscribe := bus.Subscribe[Rebuild](r.bus, 8)
	defer unsubscribe()

	r.readyOnce.Do(func() { close(r.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-rebuilds:
			if !ok {
				return nil
			}
			r.rebuild(ctx, evt)
		}
	}
}

func (r *Runner) rebuild(ctx context.Context, evt Rebuild) {
	r.state.Store(int32(StateBuilding))
	defer r.state.Store(int32(StateServing))

	start := time.Now()
	r.logger.Info("Change detected; rebuilding",
		slog.Any("groups", evt.Groups),
		slog.Int("requests", evt.RequestCount),
		slog.String("cause", evt.Cause))

	var (
		ran    = map[string]bool{}
		ok     int
		failed int
		kind   = ReloadCSS
	)
	for _, name := range evt.Groups {
		g, known := r.groups[name]
		if !known {
			r.logger.Warn("Rebuild for unknown group", logfields.Group(name))
			continue
		}
		groupOK := true
		for _, task := range g.Tasks {
			if ran[task] {
				continue
			}
			ran[task] = true
			if err := r.tasks.Run(ctx, task); err != nil {
				groupOK = false
				failed++
				r.logger.Warn("Rebuild task failed", logfields.Group(name), logfields.Task(task), logfields.Error(err))
			}
		}
		if groupOK {
			ok++
			if g.Reload != ReloadCSS {
				kind = ReloadPage
			}
		}
	}

	r.logger.Info("Rebuild finished",
		slog.Int("groups_ok", ok),
		slog.Int("tasks_failed", failed),
		logfields.Elapsed(time.Since(start)))

	if ok > 0 && r.reloader != nil {
		r.reloader.Broadcast(kind)
	}
}
