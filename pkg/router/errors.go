package router

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidRoutePattern = errors.New("invalid route pattern")
	ErrDuplicateRoute      = errors.New("duplicate route")
	ErrRouteNotFound       = errors.New("route not found")
	ErrBuilderClosed       = errors.New("route builder already built")
)

// InvalidRoutePatternError reports a malformed route template.
type InvalidRoutePatternError struct {
	Template string
	Reason   string
}

func invalidPattern(template, reason string) *InvalidRoutePatternError {
	return &InvalidRoutePatternError{Template: template, Reason: reason}
}

func (e *InvalidRoutePatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Template, e.Reason)
}

func (e *InvalidRoutePatternError) Is(target error) bool {
	return target == ErrInvalidRoutePattern
}

// DuplicateRouteError reports two templates that accept the same paths.
type DuplicateRouteError struct {
	Template string
	Existing string
	Page     PageRef
}

func (e *DuplicateRouteError) Error() string {
	if e.Template == e.Existing {
		return fmt.Sprintf("duplicate route %q (page %s)", e.Template, e.Page)
	}
	return fmt.Sprintf("route %q conflicts with %q (page %s)", e.Template, e.Existing, e.Page)
}

func (e *DuplicateRouteError) Is(target error) bool {
	return target == ErrDuplicateRoute
}

// RouteNotFoundError is returned by Resolve when no route matches a path.
// Err is set when the path itself was rejected.
type RouteNotFoundError struct {
	Path string
	Err  error
}

func (e *RouteNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("route not found for %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("route not found for %q", e.Path)
}

func (e *RouteNotFoundError) Is(target error) bool {
	return target == ErrRouteNotFound
}

func (e *RouteNotFoundError) Unwrap() error {
	return e.Err
}
