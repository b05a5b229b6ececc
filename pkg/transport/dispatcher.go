package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
)

// Invoker turns a request into its response.
type Invoker func(ctx context.Context, req *protocol.Request) *protocol.Response

// Middleware wraps an Invoker.
type Middleware func(next Invoker) Invoker

// Dispatcher routes requests to registered procedures.
type Dispatcher struct {
	registry *procedure.Registry
	invoke   Invoker

	middleware     []Middleware
	maxMessageSize int64
	maxInFlight    int
	writeTimeout   time.Duration
	upgrader       websocket.Upgrader

	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMiddleware appends middleware. The first middleware is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(d *Dispatcher) {
		d.middleware = append(d.middleware, mw...)
	}
}

// WithMaxMessageSize limits the size of one request envelope.
// Default: protocol.DefaultMaxMessageSize.
func WithMaxMessageSize(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxMessageSize = n
		}
	}
}

// WithMaxInFlight limits concurrently running calls per WebSocket connection.
// Default: 64.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxInFlight = n
		}
	}
}

// WithWriteTimeout bounds each WebSocket response write.
// Default: 10 seconds.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.writeTimeout = timeout
		}
	}
}

// WithCheckOrigin sets the WebSocket origin check.
// Default: gorilla/websocket's same-origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(d *Dispatcher) {
		d.upgrader.CheckOrigin = fn
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *procedure.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:       registry,
		maxMessageSize: protocol.DefaultMaxMessageSize,
		maxInFlight:    64,
		writeTimeout:   10 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: slog.Default().With("component", "transport"),
	}
	for _, opt := range opts {
		opt(d)
	}

	invoke := Invoker(d.dispatch)
	for i := len(d.middleware) - 1; i >= 0; i-- {
		invoke = d.middleware[i](invoke)
	}
	d.invoke = invoke

	return d
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *procedure.Registry {
	return d.registry
}

// Dispatch runs req through the middleware chain and the named handler.
// It always returns a response carrying req.CorrelationID.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	resp := d.invoke(ctx, req)
	if resp == nil {
		resp = protocol.Failure(req.CorrelationID, protocol.KindHandlerError, "no response produced")
	}
	resp.CorrelationID = req.CorrelationID
	return d.encodable(req, resp)
}

// encodable replaces a response the wire codec would reject, such as a
// middleware failure with an unregistered kind, with a HandlerError.
func (d *Dispatcher) encodable(req *protocol.Request, resp *protocol.Response) *protocol.Response {
	switch {
	case !resp.OK && !resp.Kind.Valid():
		d.logger.Error("invalid failure kind",
			"procedure", req.Name,
			"correlation_id", req.CorrelationID,
			"kind", string(resp.Kind))
		return protocol.Failure(req.CorrelationID, protocol.KindHandlerError,
			fmt.Sprintf("invalid failure kind %q: %s", resp.Kind, resp.Message))
	case resp.OK && len(resp.Value) > 0 && !json.Valid(resp.Value):
		d.logger.Error("invalid result value",
			"procedure", req.Name,
			"correlation_id", req.CorrelationID)
		return protocol.Failure(req.CorrelationID, protocol.KindHandlerError, "result is not valid JSON")
	}
	return resp
}

// dispatch is the innermost Invoker.
func (d *Dispatcher) dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	id := req.CorrelationID

	handler, err := d.registry.Resolve(req.Name)
	if err != nil {
		d.logger.Debug("unknown procedure", "procedure", req.Name, "correlation_id", id)
		return protocol.Failure(id, protocol.KindUnknownProcedure, err.Error())
	}

	if len(req.Args) > 0 {
		if err := protocol.CheckDepth(req.Args, protocol.MaxArgsDepth); err != nil {
			return protocol.Failure(id, protocol.KindInvalidArguments, err.Error())
		}
	}

	call, err := handler.Bind(req.Args)
	if err != nil {
		d.logger.Debug("invalid arguments", "procedure", req.Name, "correlation_id", id, "error", err)
		return protocol.Failure(id, protocol.KindInvalidArguments, err.Error())
	}

	info, _ := procedure.InfoFromContext(ctx)
	info.Procedure = req.Name
	info.CorrelationID = id
	ctx = procedure.WithCallInfo(ctx, info)

	result, err := d.run(ctx, req, call)
	if err != nil {
		d.logger.Warn("procedure failed", "procedure", req.Name, "correlation_id", id, "error", err)
		return protocol.Failure(id, protocol.KindHandlerError, err.Error())
	}

	value, err := protocol.MarshalValue(result)
	if err != nil {
		d.logger.Error("procedure result not encodable", "procedure", req.Name, "correlation_id", id, "error", err)
		return protocol.Failure(id, protocol.KindHandlerError, fmt.Sprintf("result is not JSON-representable: %v", err))
	}

	return protocol.Success(id, value)
}

// errHandlerPanic is reported to clients instead of the panic value.
var errHandlerPanic = errors.New("procedure panicked")

// run executes call, converting a panic into an error.
func (d *Dispatcher) run(ctx context.Context, req *protocol.Request, call procedure.Call) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("procedure panic",
				"procedure", req.Name,
				"correlation_id", req.CorrelationID,
				"panic", r,
				"stack", string(debug.Stack()))
			result, err = nil, errHandlerPanic
		}
	}()
	return call(ctx)
}

// decodeFailure converts a DecodeRequest error into a response.
// req may be nil when the envelope could not be parsed at all.
func decodeFailure(req *protocol.Request, err error) *protocol.Response {
	id := ""
	if req != nil {
		id = req.CorrelationID
	}
	if errors.Is(err, protocol.ErrMissingName) {
		return protocol.Failure(id, protocol.KindUnknownProcedure, err.Error())
	}
	return protocol.Failure(id, protocol.KindInvalidArguments, err.Error())
}
