// Package transport dispatches helium procedure calls.
//
// The Dispatcher resolves a request's procedure in a procedure.Registry,
// decodes its arguments, runs the handler and packages the outcome as a
// protocol.Response carrying the request's correlation identifier. Every
// per-call failure becomes a structured response; nothing a client sends can
// crash the serving process.
//
// Two bindings are provided:
//
//	mux.Handle("/_helium/rpc", d)                            // one POST per call
//	mux.Handle("/_helium/ws", http.HandlerFunc(d.ServeWebSocket)) // many calls per connection
//
// Over WebSocket each request runs in its own goroutine and its response is
// written as soon as it completes, so responses may arrive in any order.
//
// Middleware wraps dispatch the same way HTTP middleware wraps handlers:
//
//	d := transport.NewDispatcher(reg,
//	    transport.WithMiddleware(
//	        middleware.Prometheus(),
//	        middleware.OpenTelemetry(),
//	    ),
//	)
package transport
