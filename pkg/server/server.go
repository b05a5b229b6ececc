package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helium-dev/helium/pkg/router"
	"github.com/helium-dev/helium/pkg/transport"
)

// ErrServerClosed is returned by Run and Serve after Shutdown.
var ErrServerClosed = errors.New("server: closed")

// Server serves procedure calls and pages.
type Server struct {
	config     *Config
	dispatcher *transport.Dispatcher
	table      *router.Table
	renderer   PageRenderer
	gatherer   prometheus.Gatherer
	middleware []func(http.Handler) http.Handler

	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	cancelBase context.CancelFunc
	addr       net.Addr
	closed     bool

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTable sets the route table used for page requests. Without a table
// every page request is answered with 404.
func WithTable(t *router.Table) Option {
	return func(s *Server) {
		s.table = t
	}
}

// WithRenderer sets the page renderer. Default: JSONRenderer.
func WithRenderer(r PageRenderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithGatherer enables the metrics endpoint backed by g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHTTPMiddleware adds HTTP middleware around every route.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server dispatching calls through d.
func New(config *Config, d *transport.Dispatcher, opts ...Option) *Server {
	s := &Server{
		config:     config.withDefaults(),
		dispatcher: d,
		renderer:   JSONRenderer{},
		logger:     slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.config.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	for _, mw := range s.middleware {
		r.Use(mw)
	}

	r.Handle(s.config.RPCPath, s.dispatcher)
	r.Get(s.config.WSPath, s.dispatcher.ServeWebSocket)

	if s.gatherer != nil && s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(s.servePage)
	r.MethodNotAllowed(s.servePage)

	return r
}

// Handler returns the server's http.Handler for mounting elsewhere.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Table returns the route table, which may be nil.
func (s *Server) Table() *router.Table {
	return s.table
}

// Dispatcher returns the procedure dispatcher.
func (s *Server) Dispatcher() *transport.Dispatcher {
	return s.dispatcher
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Addr returns the listening address once Serve has started, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. A cancelled context is a clean
// exit and returns the result of Shutdown.
//
// Request contexts outlive ctx until Shutdown has drained plain HTTP
// requests; they are then cancelled, which closes WebSocket connections.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	base, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	hs := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancelBase()
		ln.Close()
		return ErrServerClosed
	}
	s.httpServer = hs
	s.cancelBase = cancelBase
	s.addr = ln.Addr()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- hs.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return ErrServerClosed
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.WithoutCancel(ctx))
	}
}

// Shutdown stops accepting connections and waits up to ShutdownTimeout for
// active requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	s.closed = true
	hs, cancelBase := s.httpServer, s.cancelBase
	s.mu.Unlock()

	if hs != nil {
		err := hs.Shutdown(ctx)
		cancelBase()
		if err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
