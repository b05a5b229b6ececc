package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/helium-dev/helium/pkg/protocol"
)

// DefaultTimeout bounds a call when no WithTimeout option is given.
const DefaultTimeout = 30 * time.Second

// Transport delivers one request and returns its response.
// A returned error means the call could not be delivered or answered.
type Transport interface {
	RoundTrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// Client calls remote procedures.
type Client struct {
	transport Transport
	timeout   time.Duration
	newID     func() string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every call. Zero disables the client-side bound; the
// caller's context still applies.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithIDGenerator replaces the correlation identifier generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New creates a client over transport.
func New(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		timeout:   DefaultTimeout,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes the named procedure with args and decodes the result into out.
// out may be nil to discard the result. Failures are *CallError values.
func (c *Client) Call(ctx context.Context, name string, args any, out any) error {
	raw, err := c.call(ctx, name, args)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &CallError{
			Kind:      KindInvalidResult,
			Procedure: name,
			Message:   fmt.Sprintf("result does not decode into %T", out),
			Err:       err,
		}
	}
	return nil
}

// Invoke is the typed form of Client.Call.
func Invoke[R any](ctx context.Context, c *Client, name string, args any) (R, error) {
	var out R
	err := c.Call(ctx, name, args, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, name string, args any) (json.RawMessage, error) {
	id := c.newID()

	raw, err := protocol.MarshalValue(args)
	if err != nil {
		return nil, &CallError{
			Kind:          KindInvalidArguments,
			Procedure:     name,
			CorrelationID: id,
			Message:       "arguments are not JSON-representable",
			Err:           err,
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := &protocol.Request{Name: name, Args: raw, CorrelationID: id}
	if err := req.Validate(); err != nil {
		kind := KindInvalidArguments
		if errors.Is(err, protocol.ErrMissingName) {
			kind = KindUnknownProcedure
		}
		return nil, &CallError{Kind: kind, Procedure: name, CorrelationID: id, Message: err.Error(), Err: err}
	}

	resp, err := c.transport.RoundTrip(ctx, req)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return nil, &CallError{Kind: kind, Procedure: name, CorrelationID: id, Err: err}
	}

	if resp.CorrelationID != id {
		return nil, &CallError{
			Kind:          KindNetwork,
			Procedure:     name,
			CorrelationID: id,
			Message:       fmt.Sprintf("response correlation id %q does not match request", resp.CorrelationID),
		}
	}
	if !resp.OK {
		return nil, &CallError{
			Kind:          Kind(resp.Kind),
			Procedure:     name,
			CorrelationID: id,
			Message:       resp.Message,
		}
	}
	return resp.Value, nil
}
