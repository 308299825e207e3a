package listener

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"readauth/pkg/logging"
)

const (
	// CallbackPath receives the forwarded redirect URL.
	CallbackPath = "/callback"

	// ShutdownTimeout bounds a graceful stop.
	ShutdownTimeout = 5 * time.Second

	subsystem = "Listener"
)

//go:embed templates/forward.html
var forwardHTML string

//go:embed templates/success.html
var successHTML string

//go:embed templates/error.html
var errorHTML string

var (
	forwardTmpl = template.Must(template.New("forward").Parse(forwardHTML))
	successTmpl = template.Must(template.New("success").Parse(successHTML))
	errorTmpl   = template.Must(template.New("error").Parse(errorHTML))
)

// Config configures a Listener.
type Config struct {
	// Ports are tried in order. Empty means an OS-assigned port.
	Ports []int
}

// Listener is the local loopback OAuth listener.
type Listener struct {
	mu              sync.Mutex
	ports           []int
	servers         map[int]*server
	urlHandlers     map[uuid.UUID]func(string)
	invalidHandlers map[uuid.UUID]func(string)
}

type server struct {
	port     int
	http     *http.Server
	listener net.Listener
}

// New creates a listener. Nothing is bound until Start.
func New(cfg Config) *Listener {
	ports := cfg.Ports
	if len(ports) == 0 {
		ports = []int{0}
	}
	return &Listener{
		ports:           ports,
		servers:         make(map[int]*server),
		urlHandlers:     make(map[uuid.UUID]func(string)),
		invalidHandlers: make(map[uuid.UUID]func(string)),
	}
}

// OnURL registers fn for every valid forwarded redirect URL.
// The returned function removes the registration.
func (l *Listener) OnURL(fn func(string)) func() {
	return l.register(l.urlHandlers, fn)
}

// OnInvalidURL registers fn for forwarded values that are not a redirect to
// this listener.
func (l *Listener) OnInvalidURL(fn func(string)) func() {
	return l.register(l.invalidHandlers, fn)
}

func (l *Listener) register(handlers map[uuid.UUID]func(string), fn func(string)) func() {
	id := uuid.New()
	l.mu.Lock()
	handlers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(handlers, id)
		l.mu.Unlock()
	}
}

// Start binds the first available configured port on 127.0.0.1 and begins
// serving. The server stops when ctx is cancelled or Cancel is called.
func (l *Listener) Start(ctx context.Context) (int, error) {
	var lastErr error
	for _, port := range l.ports {
		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			logging.Debug(subsystem, "Port %d unavailable: %v", port, err)
			lastErr = err
			continue
		}
		return l.serve(ctx, ln), nil
	}
	return 0, fmt.Errorf("failed to start loopback listener: %w", lastErr)
}

func (l *Listener) serve(ctx context.Context, ln net.Listener) int {
	s := &server{
		port:     ln.Addr().(*net.TCPAddr).Port,
		listener: ln,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		l.handleCallback(w, r, s.port)
	})
	mux.HandleFunc("/", l.handleForward)

	s.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	l.mu.Lock()
	l.servers[s.port] = s
	l.mu.Unlock()

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(subsystem, err, "Loopback listener on port %d stopped", s.port)
		}
	}()

	go func() {
		<-ctx.Done()
		if err := l.Cancel(s.port); err != nil {
			logging.Warn(subsystem, "Failed to stop listener on port %d: %v", s.port, err)
		}
	}()

	logging.Info(subsystem, "Listening for OAuth redirect on http://localhost:%d", s.port)
	return s.port
}

// Cancel stops the server bound to port. Unknown ports are ignored.
func (l *Listener) Cancel(port int) error {
	l.mu.Lock()
	s, ok := l.servers[port]
	delete(l.servers, port)
	l.mu.Unlock()

	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(ctx)
	_ = s.listener.Close()
	logging.Debug(subsystem, "Stopped listener on port %d", port)
	return err
}

// Close stops every running server.
func (l *Listener) Close() error {
	var errs []error
	for _, port := range l.Ports() {
		if err := l.Cancel(port); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ports returns the bound ports in ascending order.
func (l *Listener) Ports() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	ports := make([]int, 0, len(l.servers))
	for p := range l.servers {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'; script-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// handleForward serves the page that forwards the fragment back to us.
func (l *Listener) handleForward(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	setSecurityHeaders(w)
	if err := forwardTmpl.Execute(w, map[string]string{"CallbackPath": CallbackPath}); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request, port int) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	setSecurityHeaders(w)

	raw := r.URL.Query().Get("url")
	if !isRedirectTo(raw, port) {
		logging.Warn(subsystem, "Ignoring invalid forwarded URL (%d bytes)", len(raw))
		l.dispatch(l.invalidHandlers, raw)
		w.WriteHeader(http.StatusBadRequest)
		_ = errorTmpl.Execute(w, map[string]string{"Message": "The sign-in response was not recognised."})
		return
	}

	logging.Debug(subsystem, "Received redirect on port %d", port)
	l.dispatch(l.urlHandlers, raw)
	if err := successTmpl.Execute(w, nil); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (l *Listener) dispatch(handlers map[uuid.UUID]func(string), value string) {
	l.mu.Lock()
	fns := make([]func(string), 0, len(handlers))
	for _, fn := range handlers {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// isRedirectTo reports whether raw is an http URL addressed to this listener.
func isRedirectTo(raw string, port int) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "localhost" && host != "127.0.0.1" {
		return false
	}
	return u.Port() == strconv.Itoa(port)
}
