package deeplink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"readauth/pkg/logging"
)

const (
	handoffExt = ".json"
	tempExt    = ".tmp"

	// DefaultPollInterval is used when fsnotify is unavailable.
	DefaultPollInterval = 500 * time.Millisecond
)

// Handoff passes relaunch events between instances through a directory.
type Handoff struct {
	dir          string
	pollInterval time.Duration
}

// NewHandoff returns a handoff rooted at dir.
func NewHandoff(dir string) *Handoff {
	return &Handoff{dir: dir, pollInterval: DefaultPollInterval}
}

// Dir returns the handoff directory.
func (h *Handoff) Dir() string {
	return h.dir
}

// Send writes ev for the running instance. The file is renamed into place so
// the watcher never reads a partial write.
func (h *Handoff) Send(ev RelaunchEvent) error {
	if err := os.MkdirAll(h.dir, 0700); err != nil {
		return fmt.Errorf("failed to create handoff directory: %w", err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal relaunch event: %w", err)
	}

	name := uuid.NewString()
	tmp := filepath.Join(h.dir, name+tempExt)
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write relaunch event: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(h.dir, name+handoffExt)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to publish relaunch event: %w", err)
	}
	return nil
}

// Watch delivers every event sent to the directory to d until ctx is done.
// Events already waiting when Watch starts are delivered first.
func (h *Handoff) Watch(ctx context.Context, d *Dispatcher) error {
	if err := os.MkdirAll(h.dir, 0700); err != nil {
		return fmt.Errorf("failed to create handoff directory: %w", err)
	}

	h.drain(d)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("DeepLink", "fsnotify not available, falling back to polling: %v", err)
		go h.poll(ctx, d)
		return nil
	}
	if err := watcher.Add(h.dir); err != nil {
		logging.Warn("DeepLink", "Failed to watch %s, falling back to polling: %v", h.dir, err)
		watcher.Close()
		go h.poll(ctx, d)
		return nil
	}

	go h.processEvents(ctx, watcher, d)
	logging.Debug("DeepLink", "Watching %s for relaunch events", h.dir)
	return nil
}

func (h *Handoff) processEvents(ctx context.Context, watcher *fsnotify.Watcher, d *Dispatcher) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if strings.HasSuffix(event.Name, handoffExt) {
				h.deliver(event.Name, d)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("DeepLink", err, "fsnotify error")
		}
	}
}

func (h *Handoff) poll(ctx context.Context, d *Dispatcher) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.drain(d)
		}
	}
}

func (h *Handoff) drain(d *Dispatcher) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != handoffExt {
			continue
		}
		h.deliver(filepath.Join(h.dir, entry.Name()), d)
	}
}

// deliver reads, removes and dispatches one event file. Removal happens
// first so an event is delivered at most once.
func (h *Handoff) deliver(path string, d *Dispatcher) {
	// #nosec G304 -- path is inside the handoff directory
	data, err := os.ReadFile(path)
	if err != nil {
		// Already consumed by a concurrent drain.
		return
	}
	if err := os.Remove(path); err != nil {
		return
	}

	var ev RelaunchEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		logging.Warn("DeepLink", "Discarding malformed relaunch event %s: %v", filepath.Base(path), err)
		return
	}
	d.HandleRelaunch(ev)
}
