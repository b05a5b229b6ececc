// Package middleware provides transport.Middleware for procedure calls.
//
// # Prometheus Metrics
//
// Metrics records call counts, durations and in-flight calls:
//   - helium_rpc_calls_total{procedure,kind}
//   - helium_rpc_call_duration_seconds{procedure}
//   - helium_rpc_calls_in_flight
//
// Successful calls are counted with kind "ok"; failures use the response's
// failure kind. Calls to unregistered names are recorded under the procedure
// label "unknown".
//
//	reg := prometheus.NewRegistry()
//	d := transport.NewDispatcher(registry, transport.WithMiddleware(
//	    middleware.Prometheus(middleware.WithRegistry(reg)),
//	))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # OpenTelemetry
//
// OpenTelemetry starts one server span per call. The span carries the
// procedure name, correlation id and transport, and is marked as an error
// when the call fails. Handlers reach it with trace.SpanFromContext.
//
// # Rate Limiting
//
// RateLimit applies a token bucket per caller (the remote address by
// default) and answers refused calls with a RateLimited failure without
// invoking the handler.
package middleware
