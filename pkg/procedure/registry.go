package procedure

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps procedure names to handlers.
//
// Register is meant for the startup phase. The mutex only makes late
// registration safe against concurrent Resolve calls; Seal rejects it
// altogether once the server starts accepting traffic.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	sealed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register stores handler under name.
// It fails with a *DuplicateProcedureError if the name is already present,
// leaving the existing entry untouched.
func (r *Registry) Register(name string, handler Handler) error {
	if err := validateName(name); err != nil {
		return err
	}
	if handler == nil {
		return ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if _, exists := r.handlers[name]; exists {
		return &DuplicateProcedureError{Name: name}
	}
	r.handlers[name] = handler
	return nil
}

// MustRegister is like Register but panics on error.
// Intended for package-level registration where a failure is a build defect.
func (r *Registry) MustRegister(name string, handler Handler) {
	if err := r.Register(name, handler); err != nil {
		panic(err)
	}
}

// Resolve returns the handler registered under name.
func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownProcedureError{Name: name}
	}
	return handler, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered procedure names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered procedures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Seal ends the registration phase. Later Register calls fail with
// ErrRegistrySealed. Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// validateName rejects names that cannot be addressed on the wire.
func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
