package collector

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/sessiond/internal/daemon/store"
	"github.com/grovetools/sessiond/pkg/paths"
)

// debounceDelay coalesces fsnotify event bursts into a single rescan.
const debounceDelay = 500 * time.Millisecond

// PointerWatcher watches the Claude debug directory, where the liveness
// pointer and per-session debug logs live, and nudges the scan collector
// when anything moves. It produces no updates of its own; the nudged scan
// pass does.
type PointerWatcher struct {
	claudeDir string
	nudge     func()
	logger    *logrus.Entry
}

// NewPointerWatcher creates a watcher that calls nudge after filesystem
// activity settles.
func NewPointerWatcher(claudeDir string, nudge func(), logger *logrus.Entry) *PointerWatcher {
	return &PointerWatcher{claudeDir: claudeDir, nudge: nudge, logger: logger}
}

// Name returns the collector's name.
func (w *PointerWatcher) Name() string { return "pointer-watch" }

// Run starts the watch loop. A missing debug directory is not an error;
// the watcher falls back to the Claude root so it picks up the directory
// when it appears.
func (w *PointerWatcher) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := paths.DebugDir(w.claudeDir)
	if _, err := os.Stat(target); err != nil {
		target = w.claudeDir
	}
	if err := watcher.Add(target); err != nil {
		w.logger.WithError(err).WithField("dir", target).Warn("Pointer watch unavailable, relying on the scan interval")
		<-ctx.Done()
		return nil
	}
	w.logger.WithField("dir", target).Debug("Watching for session activity")

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.nudge)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}
