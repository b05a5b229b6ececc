package procedure

import (
	"context"
	"net/http"
)

// CallInfo describes the invocation a handler is serving.
type CallInfo struct {
	// Procedure is the registered name being invoked.
	Procedure string

	// CorrelationID is the identifier the client attached to the request.
	CorrelationID string

	// Transport names the binding the request arrived on ("http", "websocket").
	Transport string

	// RemoteAddr is the client address as seen by the server.
	RemoteAddr string

	// Header holds the HTTP request headers (the upgrade request for WebSocket).
	Header http.Header
}

type callInfoKey struct{}

// WithCallInfo returns a context carrying info.
func WithCallInfo(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

// InfoFromContext returns the CallInfo stored by the transport.
func InfoFromContext(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(CallInfo)
	return info, ok
}
