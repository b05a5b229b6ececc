package procedure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Call is a handler invocation whose arguments have already been decoded.
type Call func(ctx context.Context) (any, error)

// Handler is a registered procedure implementation.
//
// Bind decodes the wire arguments and returns a ready-to-run Call. A Bind
// error is always an argument error; errors returned by the Call itself are
// handler failures.
type Handler interface {
	Bind(args json.RawMessage) (Call, error)
}

// HandlerFunc adapts a bind function to the Handler interface.
type HandlerFunc func(args json.RawMessage) (Call, error)

// Bind implements Handler.
func (f HandlerFunc) Bind(args json.RawMessage) (Call, error) {
	return f(args)
}

var nullJSON = json.RawMessage("null")

// Func creates a handler taking a single argument value.
// The wire arguments are decoded strictly into A: unknown object fields,
// type mismatches and trailing data are argument errors. Absent arguments
// decode as JSON null.
func Func[A, R any](fn func(ctx context.Context, args A) (R, error)) Handler {
	return HandlerFunc(func(raw json.RawMessage) (Call, error) {
		var a A
		if err := decodeStrict(raw, &a); err != nil {
			return nil, &ArgumentError{Reason: "decode argument", Err: err}
		}
		return func(ctx context.Context) (any, error) {
			return fn(ctx, a)
		}, nil
	})
}

// Func2 creates a handler taking two positional arguments.
// The wire arguments must be a JSON array with exactly two elements.
func Func2[A, B, R any](fn func(ctx context.Context, a A, b B) (R, error)) Handler {
	return HandlerFunc(func(raw json.RawMessage) (Call, error) {
		elems, err := positional(raw, 2)
		if err != nil {
			return nil, err
		}
		var a A
		if err := decodeStrict(elems[0], &a); err != nil {
			return nil, &ArgumentError{Reason: "decode argument 0", Err: err}
		}
		var b B
		if err := decodeStrict(elems[1], &b); err != nil {
			return nil, &ArgumentError{Reason: "decode argument 1", Err: err}
		}
		return func(ctx context.Context) (any, error) {
			return fn(ctx, a, b)
		}, nil
	})
}

// NoArgs creates a handler that takes no arguments.
// Absent, null, empty-array and empty-object payloads are accepted.
func NoArgs[R any](fn func(ctx context.Context) (R, error)) Handler {
	return HandlerFunc(func(raw json.RawMessage) (Call, error) {
		switch string(bytes.TrimSpace(raw)) {
		case "", "null", "[]", "{}":
		default:
			return nil, &ArgumentError{Reason: "procedure takes no arguments"}
		}
		return func(ctx context.Context) (any, error) {
			return fn(ctx)
		}, nil
	})
}

// Raw creates a handler that receives the undecoded argument payload.
// Only syntactically invalid JSON is rejected.
func Raw(fn func(ctx context.Context, args json.RawMessage) (any, error)) Handler {
	return HandlerFunc(func(raw json.RawMessage) (Call, error) {
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = nullJSON
		}
		if !json.Valid(raw) {
			return nil, &ArgumentError{Reason: "malformed JSON"}
		}
		args := append(json.RawMessage(nil), raw...)
		return func(ctx context.Context) (any, error) {
			return fn(ctx, args)
		}, nil
	})
}

// Required wraps h so that absent or null arguments are an argument error
// instead of decoding as the zero value.
func Required(h Handler) Handler {
	return HandlerFunc(func(raw json.RawMessage) (Call, error) {
		switch string(bytes.TrimSpace(raw)) {
		case "", "null":
			return nil, &ArgumentError{Reason: "arguments are required"}
		}
		return h.Bind(raw)
	})
}

// positional splits a JSON array payload into exactly n elements.
func positional(raw json.RawMessage, n int) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := decodeStrict(raw, &elems); err != nil {
		return nil, &ArgumentError{Reason: fmt.Sprintf("expected an array of %d arguments", n), Err: err}
	}
	if len(elems) != n {
		return nil, &ArgumentError{Reason: fmt.Sprintf("expected %d arguments, got %d", n, len(elems))}
	}
	return elems, nil
}

// decodeStrict unmarshals raw into v, rejecting unknown fields and
// trailing data.
func decodeStrict(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = nullJSON
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after arguments")
	}
	return nil
}
