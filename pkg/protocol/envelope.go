package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope errors.
var (
	ErrMissingName     = errors.New("protocol: request has no procedure name")
	ErrInvalidEnvelope = errors.New("protocol: invalid envelope")
)

// Request is a call envelope sent by a client.
type Request struct {
	// Name is the procedure to invoke.
	Name string `json:"name"`

	// Args is the raw JSON argument value (absent means null).
	Args json.RawMessage `json:"args,omitempty"`

	// CorrelationID pairs the request with its response.
	CorrelationID string `json:"correlationId"`
}

// Validate checks the envelope-level invariants of a request.
func (r *Request) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if len(r.Args) > 0 && !json.Valid(r.Args) {
		return fmt.Errorf("%w: args are not valid JSON", ErrInvalidEnvelope)
	}
	return nil
}

// Response is the single answer to a Request.
// Exactly one of Value (OK) or Kind/Message (!OK) is meaningful.
type Response struct {
	CorrelationID string
	OK            bool
	Value         json.RawMessage
	Kind          ErrorKind
	Message       string
}

// Success creates a successful response. A nil value encodes as null.
func Success(correlationID string, value json.RawMessage) *Response {
	return &Response{CorrelationID: correlationID, OK: true, Value: value}
}

// Failure creates a failed response.
func Failure(correlationID string, kind ErrorKind, message string) *Response {
	return &Response{CorrelationID: correlationID, Kind: kind, Message: message}
}

// Err returns the failure descriptor, or nil for a successful response.
func (r *Response) Err() *Error {
	if r.OK {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message}
}

type successWire struct {
	CorrelationID string          `json:"correlationId"`
	OK            bool            `json:"ok"`
	Value         json.RawMessage `json:"value"`
}

type failureWire struct {
	CorrelationID string    `json:"correlationId"`
	OK            bool      `json:"ok"`
	Kind          ErrorKind `json:"kind"`
	Message       string    `json:"message"`
}

type responseWire struct {
	CorrelationID *string          `json:"correlationId"`
	OK            *bool            `json:"ok"`
	Value         *json.RawMessage `json:"value"`
	Kind          *ErrorKind       `json:"kind"`
	Message       *string          `json:"message"`
}

// MarshalJSON encodes the response with exactly one of value or kind/message.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.OK {
		value := r.Value
		if len(bytes.TrimSpace(value)) == 0 {
			value = json.RawMessage("null")
		}
		return json.Marshal(successWire{CorrelationID: r.CorrelationID, OK: true, Value: value})
	}
	if !r.Kind.Valid() {
		return nil, fmt.Errorf("%w: failure kind %q", ErrInvalidEnvelope, r.Kind)
	}
	return json.Marshal(failureWire{CorrelationID: r.CorrelationID, Kind: r.Kind, Message: r.Message})
}

// UnmarshalJSON decodes a response and enforces the payload/failure invariant.
func (r *Response) UnmarshalJSON(data []byte) error {
	var w responseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.OK == nil {
		return fmt.Errorf("%w: missing ok field", ErrInvalidEnvelope)
	}

	*r = Response{OK: *w.OK}
	if w.CorrelationID != nil {
		r.CorrelationID = *w.CorrelationID
	}

	if r.OK {
		if w.Kind != nil || w.Message != nil {
			return fmt.Errorf("%w: successful response carries a failure", ErrInvalidEnvelope)
		}
		if w.Value != nil {
			r.Value = *w.Value
		} else {
			r.Value = json.RawMessage("null")
		}
		return nil
	}

	if w.Value != nil {
		return fmt.Errorf("%w: failed response carries a value", ErrInvalidEnvelope)
	}
	if w.Kind == nil || *w.Kind == "" {
		return fmt.Errorf("%w: failed response has no kind", ErrInvalidEnvelope)
	}
	r.Kind = *w.Kind
	if w.Message != nil {
		r.Message = *w.Message
	}
	return nil
}

// EncodeRequest encodes a request envelope.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(req)
}

// DecodeRequest decodes and validates a request envelope.
// Argument payloads nesting deeper than MaxArgsDepth are rejected.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := req.Validate(); err != nil {
		return &req, err
	}
	if len(req.Args) > 0 {
		if err := CheckDepth(req.Args, MaxArgsDepth); err != nil {
			return &req, err
		}
	}
	return &req, nil
}

// EncodeResponse encodes a response envelope.
func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse decodes a response envelope.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarshalValue encodes a handler result or client argument as raw JSON.
// A value that is not JSON-representable returns an error.
func MarshalValue(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(bytes.TrimSpace(raw)) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: raw value is not valid JSON", ErrInvalidEnvelope)
		}
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
