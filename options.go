package helium

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/helium-dev/helium/pkg/middleware"
	"github.com/helium-dev/helium/pkg/server"
	"github.com/helium-dev/helium/pkg/transport"
)

type options struct {
	server *server.Config
	logger *slog.Logger

	renderer       server.PageRenderer
	httpMiddleware []func(http.Handler) http.Handler

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	metrics    []middleware.MetricsOption

	tracing     bool
	otelOptions []middleware.OTelOption

	rateRPS   float64
	rateBurst int

	callTimeout    time.Duration
	maxMessageSize int64
	maxInFlight    int
	checkOrigin    func(r *http.Request) bool

	builtins bool
}

func defaultOptions() options {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return options{
		server:     server.DefaultConfig(),
		logger:     slog.Default(),
		registerer: reg,
		gatherer:   reg,
		tracing:    true,
		builtins:   true,
	}
}

// Option configures an App.
type Option func(*options)

// WithServerConfig sets the HTTP server configuration.
func WithServerConfig(cfg *server.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.server = cfg
		}
	}
}

// WithLogger sets the logger for the app and its server.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRenderer sets the page renderer. Default: server.JSONRenderer.
func WithRenderer(r server.PageRenderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithHTTPMiddleware adds net/http middleware around every request.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(o *options) {
		o.httpMiddleware = append(o.httpMiddleware, mw...)
	}
}

// WithMetricsRegistry records call metrics in reg and serves reg on the
// metrics path. Default: a fresh registry with Go and process collectors.
func WithMetricsRegistry(reg *prometheus.Registry, opts ...middleware.MetricsOption) Option {
	return func(o *options) {
		if reg == nil {
			o.registerer, o.gatherer = nil, nil
			return
		}
		o.registerer = reg
		o.gatherer = reg
		o.metrics = opts
	}
}

// WithoutMetrics disables call metrics and the metrics endpoint.
func WithoutMetrics() Option {
	return func(o *options) {
		o.registerer = nil
		o.gatherer = nil
	}
}

// WithTracing configures the OpenTelemetry span middleware. It is enabled by
// default with the global tracer provider.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(o *options) {
		o.tracing = true
		o.otelOptions = opts
	}
}

// WithoutTracing disables the span middleware.
func WithoutTracing() Option {
	return func(o *options) {
		o.tracing = false
	}
}

// WithRateLimit limits calls per remote host. Non-positive values disable
// the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rateRPS = rps
		o.rateBurst = burst
	}
}

// WithCallTimeout gives every call a deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		o.callTimeout = d
	}
}

// WithMaxMessageSize limits one request envelope.
func WithMaxMessageSize(n int64) Option {
	return func(o *options) {
		o.maxMessageSize = n
	}
}

// WithMaxInFlight limits concurrent calls per WebSocket connection.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		o.maxInFlight = n
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(o *options) {
		o.checkOrigin = fn
	}
}

// WithoutBuiltins leaves out the helium.* procedures.
func WithoutBuiltins() Option {
	return func(o *options) {
		o.builtins = false
	}
}

// dispatcherOptions assembles the call middleware chain, outermost first:
// tracing, metrics, rate limit, timeout, then App.Use middleware.
func (a *App) dispatcherOptions() []transport.Option {
	var chain []transport.Middleware
	if a.opts.tracing {
		chain = append(chain, middleware.OpenTelemetry(a.opts.otelOptions...))
	}
	if a.opts.registerer != nil {
		mopts := append([]middleware.MetricsOption{
			middleware.WithRegistry(a.opts.registerer),
			middleware.WithKnownProcedures(a.registry.Has),
		}, a.opts.metrics...)
		chain = append(chain, middleware.Prometheus(mopts...))
	}
	if a.opts.rateRPS > 0 && a.opts.rateBurst > 0 {
		chain = append(chain, middleware.RateLimit(a.opts.rateRPS, a.opts.rateBurst))
	}
	if a.opts.callTimeout > 0 {
		chain = append(chain, middleware.Timeout(a.opts.callTimeout))
	}
	chain = append(chain, a.middleware...)

	opts := []transport.Option{
		transport.WithLogger(a.opts.logger.With("component", "transport")),
		transport.WithMiddleware(chain...),
		transport.WithMaxMessageSize(a.opts.maxMessageSize),
		transport.WithMaxInFlight(a.opts.maxInFlight),
	}
	if a.opts.checkOrigin != nil {
		opts = append(opts, transport.WithCheckOrigin(a.opts.checkOrigin))
	}
	return opts
}
