package procedure

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	ErrDuplicateProcedure = errors.New("duplicate procedure")
	ErrUnknownProcedure   = errors.New("unknown procedure")
	ErrRegistrySealed     = errors.New("procedure registry is sealed")
	ErrInvalidName        = errors.New("invalid procedure name")
	ErrNilHandler         = errors.New("nil procedure handler")
)

// DuplicateProcedureError is returned by Register when the name is already
// taken. It is a programmer error and should abort startup.
type DuplicateProcedureError struct {
	Name string
}

func (e *DuplicateProcedureError) Error() string {
	return fmt.Sprintf("procedure %q is already registered", e.Name)
}

// Is reports whether target is ErrDuplicateProcedure.
func (e *DuplicateProcedureError) Is(target error) bool {
	return target == ErrDuplicateProcedure
}

// UnknownProcedureError is returned by Resolve when no handler is registered
// under the name.
type UnknownProcedureError struct {
	Name string
}

func (e *UnknownProcedureError) Error() string {
	return fmt.Sprintf("unknown procedure %q", e.Name)
}

// Is reports whether target is ErrUnknownProcedure.
func (e *UnknownProcedureError) Is(target error) bool {
	return target == ErrUnknownProcedure
}

// ArgumentError reports that a payload could not be decoded into the
// handler's argument types. The handler is never invoked.
type ArgumentError struct {
	Reason string
	Err    error
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid arguments: %s: %v", e.Reason, e.Err)
	}
	return "invalid arguments: " + e.Reason
}

// Unwrap returns the underlying decode error.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}
