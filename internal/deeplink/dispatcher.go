package deeplink

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"readauth/pkg/logging"
)

// RelaunchEvent is what a second instance forwards to the running one.
type RelaunchEvent struct {
	Args []string `json:"args"`
	Cwd  string   `json:"cwd"`
}

// URL returns args[1], the redirected URL, when present.
func (e RelaunchEvent) URL() (string, bool) {
	if len(e.Args) < 2 {
		return "", false
	}
	u := strings.TrimSpace(e.Args[1])
	return u, u != ""
}

// Dispatcher fans opened URLs out to subscribers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[uuid.UUID]func([]string)
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[uuid.UUID]func([]string))}
}

// OnOpenURL subscribes fn to opened URLs. The returned function unsubscribes.
func (d *Dispatcher) OnOpenURL(fn func(urls []string)) func() {
	id := uuid.New()
	d.mu.Lock()
	d.handlers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.handlers, id)
		d.mu.Unlock()
	}
}

// OpenURLs delivers urls to every subscriber. Blank entries are dropped and
// an empty batch is not delivered.
func (d *Dispatcher) OpenURLs(urls []string) {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	if len(clean) == 0 {
		return
	}

	d.mu.RLock()
	fns := make([]func([]string), 0, len(d.handlers))
	for _, fn := range d.handlers {
		fns = append(fns, fn)
	}
	d.mu.RUnlock()

	if len(fns) == 0 {
		logging.Debug("DeepLink", "No subscribers for %d opened URL(s)", len(clean))
		return
	}
	for _, fn := range fns {
		fn(clean)
	}
}

// HandleRelaunch delivers the URL carried by a single-instance relaunch.
func (d *Dispatcher) HandleRelaunch(ev RelaunchEvent) {
	u, ok := ev.URL()
	if !ok {
		logging.Debug("DeepLink", "Relaunch from %s carried no URL", ev.Cwd)
		return
	}
	d.OpenURLs([]string{u})
}
