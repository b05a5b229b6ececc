package protocol

// ErrorKind identifies why a call failed.
type ErrorKind string

const (
	KindUnknownProcedure ErrorKind = "UnknownProcedure" // No handler for the name
	KindInvalidArguments ErrorKind = "InvalidArguments" // Arguments rejected before invocation
	KindHandlerError     ErrorKind = "HandlerError"     // Handler ran and failed
	KindRateLimited      ErrorKind = "RateLimited"      // Call refused by rate limiting
)

// String returns the wire representation of the kind.
func (k ErrorKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the kinds a server may send.
func (k ErrorKind) Valid() bool {
	switch k {
	case KindUnknownProcedure, KindInvalidArguments, KindHandlerError, KindRateLimited:
		return true
	default:
		return false
	}
}

// Error is a failure descriptor carried by a response.
type Error struct {
	Kind    ErrorKind
	Message string
}

// NewError creates a failure descriptor.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}
