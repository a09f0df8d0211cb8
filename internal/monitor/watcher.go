package monitor

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/rjeczalik/notify"

	"github.com/driftwatch/driftwatch/internal/fingerprint"
)

// Change is published when a watched object's fingerprint diverges from its
// cached value.
type Change struct {
	Path        string
	Fingerprint fingerprint.Fingerprint
	Prior       fingerprint.Fingerprint
	Description string
}

// Watcher re-retrieves monitored objects when the filesystem reports writes
// under a root, publishing genuine divergences on Changes. Each object's
// monitor is only ever driven from the watcher's event loop, preserving the
// one-in-flight-evaluation-per-object invariant.
type Watcher struct {
	root     string
	algo     fingerprint.Algorithm
	policy   LinkPolicy
	store    Store
	events   chan notify.EventInfo
	changes  chan Change
	monitors map[string]*Monitor
}

// NewWatcher builds a watcher over root. All objects share store but each
// gets its own monitor and cache.
func NewWatcher(root string, algo fingerprint.Algorithm, policy LinkPolicy, store Store) *Watcher {
	return &Watcher{
		root:     root,
		algo:     algo,
		policy:   policy,
		store:    store,
		events:   make(chan notify.EventInfo, 64),
		changes:  make(chan Change, 16),
		monitors: make(map[string]*Monitor),
	}
}

// Changes returns the channel of published divergences. It is closed when
// Run returns.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	recursive := filepath.Join(w.root, "...")
	if err := notify.Watch(recursive, w.events, notify.Write|notify.Create|notify.Remove|notify.Rename); err != nil {
		return err
	}
	defer notify.Stop(w.events)
	defer close(w.changes)

	slog.Info("watcher start", "root", w.root, "algorithm", w.algo)
	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher stop", "root", w.root)
			return ctx.Err()
		case event := <-w.events:
			w.handle(ctx, event.Path())
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	mon, ok := w.monitors[path]
	if !ok {
		var err error
		mon, err = New(NewFileResource(path, w.policy, w.store), w.algo)
		if err != nil {
			slog.Error("cannot monitor path", "path", path, "error", err)
			return
		}
		w.monitors[path] = mon
	}

	result, err := mon.Retrieve()
	if err != nil {
		slog.Warn("retrieve failed", "path", path, "error", err)
		return
	}
	if result.Outcome != Changed {
		return
	}

	desc, err := mon.ChangeDescription()
	if err != nil {
		desc = result.Fingerprint.String()
	}
	change := Change{
		Path:        path,
		Fingerprint: result.Fingerprint,
		Prior:       result.Prior,
		Description: desc,
	}
	select {
	case w.changes <- change:
	case <-ctx.Done():
	}
}
