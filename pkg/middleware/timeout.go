package middleware

import (
	"context"
	"time"

	"github.com/helium-dev/helium/pkg/protocol"
	"github.com/helium-dev/helium/pkg/transport"
)

// Timeout gives every call a deadline of d. Handlers observe it through
// their context; a handler that ignores the context runs to completion.
// A non-positive d disables the middleware.
func Timeout(d time.Duration) transport.Middleware {
	return func(next transport.Invoker) transport.Invoker {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, req *protocol.Request) *protocol.Response {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}
