package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRegistry Category = "registry"
	CategoryRouting  Category = "routing"
	CategoryProtocol Category = "protocol"
	CategoryManifest Category = "manifest"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location points at the file an error came from, such as a page module.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	switch {
	case l.Line > 0 && l.Column > 0:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	case l.Line > 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return l.File
	}
}

// HeliumError is a structured error with a code, an explanation and a hint
// for fixing it.
type HeliumError struct {
	// Code is a unique error identifier (e.g., "H001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file the error relates to, if any.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *HeliumError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *HeliumError) Unwrap() error {
	return e.Wrapped
}

// WithLocation sets the file the error relates to.
func (e *HeliumError) WithLocation(file string, line, column int) *HeliumError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *HeliumError) WithSuggestion(s string) *HeliumError {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *HeliumError) WithExample(ex string) *HeliumError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *HeliumError) WithDetail(d string) *HeliumError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *HeliumError) Wrap(err error) *HeliumError {
	e.Wrapped = err
	return e
}

// New creates a HeliumError from a registered error code.
func New(code string) *HeliumError {
	template, ok := registry[code]
	if !ok {
		return &HeliumError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &HeliumError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new HeliumError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *HeliumError {
	return &HeliumError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}
