package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitesmith/internal/bus"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
)

// Watcher turns filesystem notifications into Changed events, one per
// matching group.
type Watcher struct {
	bus    *bus.Bus
	groups []Group
	logger *slog.Logger

	ready chan struct{}
}

func NewWatcher(b *bus.Bus, groups []Group, logger *slog.Logger) (*Watcher, error) {
	if b == nil {
		return nil, serrors.ValidationError("bus is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	resolved := make([]Group, 0, len(groups))
	for _, g := range groups {
		if err := g.validate(); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(g.Dir)
		if err != nil {
			return nil, serrors.Wrap(err, serrors.CategoryFileSystem, serrors.SeverityFatal, "resolve watch dir").
				WithContext("dir", g.Dir)
		}
		g.Dir = abs
		resolved = append(resolved, g)
	}
	return &Watcher{bus: b, groups: resolved, logger: logger, ready: make(chan struct{})}, nil
}

// Groups returns the groups with absolute directories.
func (w *Watcher) Groups() []Group { return w.groups }

// Ready is closed once every group directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Resolve lists the groups a changed path belongs to.
func (w *Watcher) Resolve(path string) []string {
	if ignored(path) {
		return nil
	}
	var names []string
	for _, g := range w.groups {
		if g.Match(path) {
			names = append(names, g.Name)
		}
	}
	return names
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return serrors.Wrap(err, serrors.CategoryRuntime, serrors.SeverityFatal, "create fs watcher")
	}
	defer func() { _ = fw.Close() }()

	seen := map[string]bool{}
	for _, g := range w.groups {
		if seen[g.Dir] {
			continue
		}
		seen[g.Dir] = true
		if _, statErr := os.Stat(g.Dir); statErr != nil {
			w.logger.Warn("Watch directory missing", logfields.Group(g.Name), logfields.Path(g.Dir))
			continue
		}
		w.addTree(fw, g.Dir)
	}
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fw, ev)
		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(werr))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addTree(fw, ev.Name)
		}
	}
	groups := w.Resolve(ev.Name)
	if len(groups) == 0 {
		return
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	now := time.Now()
	for _, g := range groups {
		if err := w.bus.Publish(ctx, Changed{Group: g, Path: ev.Name, Cause: "fs", At: now}); err != nil {
			w.logger.Debug("Change not delivered", logfields.Group(g), logfields.Error(err))
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && ignored(path) {
			return filepath.SkipDir
		}
		if addErr := fw.Add(path); addErr != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(addErr))
		}
		return nil
	})
}
