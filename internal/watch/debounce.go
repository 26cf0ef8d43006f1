package watch

import (
	"context"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/bus"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
)

type DebouncerConfig struct {
	QuietWindow time.Duration
	MaxDelay    time.Duration

	// Busy reports whether a rebuild is in flight. While it returns true the
	// debouncer holds back and emits exactly one follow-up Rebuild afterwards.
	Busy func() bool

	PollInterval time.Duration
}

// Debouncer folds Changed events into Rebuild events. A rebuild fires once
// no change has arrived for QuietWindow, or MaxDelay after the first change of
// a burst, whichever comes first. A running build is never pre-empted.
type Debouncer struct {
	bus *bus.Bus
	cfg DebouncerConfig

	mu        sync.Mutex
	readyOnce sync.Once
	ready     chan struct{}

	groups       map[string]struct{}
	afterRun     bool
	polling      bool
	firstAt      time.Time
	lastAt       time.Time
	requestCount int
}

func NewDebouncer(b *bus.Bus, cfg DebouncerConfig) (*Debouncer, error) {
	if b == nil {
		return nil, serrors.ValidationError("bus is required")
	}
	if cfg.QuietWindow <= 0 {
		return nil, serrors.ValidationError("quiet window must be > 0")
	}
	if cfg.MaxDelay < cfg.QuietWindow {
		return nil, serrors.ValidationError("max delay must be >= quiet window")
	}
	if cfg.Busy == nil {
		cfg.Busy = func() bool { return false }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Debouncer{bus: b, cfg: cfg, ready: make(chan struct{}), groups: map[string]struct{}{}}, nil
}

// Ready is closed once Run has subscribed.
func (d *Debouncer) Ready() <-chan struct{} { return d.ready }

func (d *Debouncer) Run(ctx context.Context) error {
	changes, unsubscribe := bus.Subscribe[Changed](d.bus, 64)
	defer unsubscribe()

	d.readyOnce.Do(func() { close(d.ready) })

	quiet := stoppedTimer()
	maxWait := stoppedTimer()
	poll := stoppedTimer()

	var quietC, maxC, pollC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-changes:
			if !ok {
				return nil
			}
			first := d.record(evt)
			rearm(quiet, d.cfg.QuietWindow)
			quietC = quiet.C
			if first {
				rearm(maxWait, d.cfg.MaxDelay)
				maxC = maxWait.C
			}
		case <-quietC:
			if d.emit(ctx, "quiet") {
				quietC, maxC = nil, nil
			}
		case <-maxC:
			if d.emit(ctx, "max_delay") {
				quietC, maxC = nil, nil
			}
		case <-pollC:
			if d.emitAfterRun(ctx) {
				pollC, quietC, maxC = nil, nil, nil
				continue
			}
			rearm(poll, d.cfg.PollInterval)
			pollC = poll.C
		}

		if pollC == nil && d.needsPoll() {
			rearm(poll, d.cfg.PollInterval)
			pollC = poll.C
		}
	}
}

// record adds evt to the pending burst and reports whether it opened one.
func (d *Debouncer) record(evt Changed) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	opened := len(d.groups) == 0
	if opened {
		d.firstAt = at
		d.requestCount = 0
	}
	d.groups[evt.Group] = struct{}{}
	d.lastAt = at
	d.requestCount++
	return opened
}

func (d *Debouncer) needsPoll() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.afterRun && !d.polling
}

func (d *Debouncer) emit(ctx context.Context, cause string) bool {
	d.mu.Lock()
	if len(d.groups) == 0 {
		d.mu.Unlock()
		return true
	}
	if d.cfg.Busy() {
		d.afterRun = true
		d.mu.Unlock()
		return false
	}

	evt := Rebuild{
		Groups:       make([]string, 0, len(d.groups)),
		RequestCount: d.requestCount,
		FirstRequest: d.firstAt,
		LastRequest:  d.lastAt,
		Cause:        cause,
	}
	for g := range d.groups {
		evt.Groups = append(evt.Groups, g)
	}
	slices.Sort(evt.Groups)

	d.groups = map[string]struct{}{}
	d.afterRun = false
	d.polling = false
	d.mu.Unlock()

	_ = d.bus.Publish(ctx, evt)
	return true
}

func (d *Debouncer) emitAfterRun(ctx context.Context) bool {
	d.mu.Lock()
	if !d.afterRun {
		d.mu.Unlock()
		return true
	}
	d.polling = true
	d.mu.Unlock()

	if d.cfg.Busy() {
		return false
	}
	return d.emit(ctx, "after_running")
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func rearm(t *time.Timer, after time.Duration) {
	t.Stop()
	t.Reset(after)
}
