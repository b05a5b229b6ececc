package client

import (
	"errors"
	"fmt"

	"github.com/helium-dev/helium/pkg/protocol"
)

// Kind classifies a failed call.
type Kind string

const (
	KindUnknownProcedure = Kind(protocol.KindUnknownProcedure)
	KindInvalidArguments = Kind(protocol.KindInvalidArguments)
	KindHandlerError     = Kind(protocol.KindHandlerError)
	KindRateLimited      = Kind(protocol.KindRateLimited)
	KindNetwork          = Kind("NetworkError")
	KindTimeout          = Kind("TimeoutError")

	// KindInvalidResult reports a successful result that does not decode
	// into the caller's type.
	KindInvalidResult = Kind("InvalidResult")
)

// ErrTransportClosed is returned when a call is made on a closed transport.
var ErrTransportClosed = errors.New("client: transport closed")

// CallError is returned for every failed call.
type CallError struct {
	// Kind is the failure class.
	Kind Kind

	// Procedure is the name that was called.
	Procedure string

	// CorrelationID is the identifier of the failed request.
	CorrelationID string

	// Message is the server-provided failure message, if any.
	Message string

	// Err is the underlying delivery or decoding error, if any.
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return fmt.Sprintf("call %q failed: %s", e.Procedure, e.Kind)
	}
	return fmt.Sprintf("call %q failed: %s: %s", e.Procedure, e.Kind, msg)
}

// Unwrap returns the underlying delivery error.
func (e *CallError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a *CallError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	return ""
}
