package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/helium-dev/helium/pkg/protocol"
	"github.com/helium-dev/helium/pkg/transport"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "helium").
	Namespace string

	// Subsystem is the metrics subsystem (default: "rpc").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for call duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Known reports whether a procedure name may be used as a label value.
	// Other names are recorded as "unknown". When nil, only UnknownProcedure
	// outcomes are relabelled.
	Known func(name string) bool
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithKnownProcedures bounds the procedure label to names known reports
// true for, typically (*procedure.Registry).Has. Calls rejected before the
// registry lookup, for example by a rate limiter, then cannot add series.
func WithKnownProcedures(known func(name string) bool) MetricsOption {
	return func(c *MetricsConfig) {
		c.Known = known
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "helium",
		Subsystem: "rpc",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// unknownProcedure is the label value for names outside the known set.
const unknownProcedure = "unknown"

// Metrics holds the call metrics. Create one per registry.
type Metrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	known        func(name string) bool
}

// NewMetrics registers the call metrics.
// It panics if the metrics are already registered with the registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		known: config.Known,

		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "calls_total",
			Help:        "Total number of procedure calls by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"procedure", "kind"}),

		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "call_duration_seconds",
			Help:        "Procedure call duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"procedure"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "calls_in_flight",
			Help:        "Number of procedure calls currently running",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Middleware returns the transport middleware recording into m.
func (m *Metrics) Middleware() transport.Middleware {
	return func(next transport.Invoker) transport.Invoker {
		return func(ctx context.Context, req *protocol.Request) *protocol.Response {
			m.inFlight.Inc()
			start := time.Now()

			resp := next(ctx, req)

			m.inFlight.Dec()

			kind := outcome(resp)
			name := m.label(req.Name, kind)
			m.callDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			m.callsTotal.WithLabelValues(name, kind).Inc()

			return resp
		}
	}
}

// label returns the procedure label value for a call.
func (m *Metrics) label(name, kind string) string {
	if m.known != nil {
		if m.known(name) {
			return name
		}
		return unknownProcedure
	}
	if kind == string(protocol.KindUnknownProcedure) {
		return unknownProcedure
	}
	return name
}

// Prometheus creates metrics with opts and returns their middleware.
func Prometheus(opts ...MetricsOption) transport.Middleware {
	return NewMetrics(opts...).Middleware()
}

// outcome is "ok" for a successful response and the failure kind otherwise.
func outcome(resp *protocol.Response) string {
	switch {
	case resp == nil:
		return string(protocol.KindHandlerError)
	case resp.OK:
		return "ok"
	default:
		return string(resp.Kind)
	}
}
