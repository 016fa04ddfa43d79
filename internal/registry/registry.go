// Package registry tracks the ordered set of physical interfaces under
// management. Registration order is significant: the virtual target paired
// with each interface is named after its registration position, so a stable
// order makes provisioning reproducible across runs.
package registry

import (
	"errors"
	"fmt"
	"sync"
)

// Interface describes one physical network interface under management.
// Role is a descriptive tag (e.g. "wan-a-facing") carried through reports;
// it never influences provisioning decisions. Interfaces are immutable
// after registration.
type Interface struct {
	Name string
	Role string
}

// DuplicateError reports an attempt to register an interface name that is
// already registered. The registry is left unchanged.
type DuplicateError struct {
	Name string
}

// Error returns the formatted error string.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("registry: interface %q already registered", e.Name)
}

// Registry holds the managed interfaces in registration order.
type Registry struct {
	mu     sync.RWMutex
	order  []Interface
	byName map[string]struct{}
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]struct{}),
	}
}

// Register adds an interface to the registry. It rejects empty names and
// returns *DuplicateError when the name is already registered; in both
// cases the registry is unchanged. Register has no OS side effects.
func (r *Registry) Register(name, role string) error {
	if name == "" {
		return errors.New("registry: interface name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return &DuplicateError{Name: name}
	}

	r.byName[name] = struct{}{}
	r.order = append(r.order, Interface{Name: name, Role: role})
	return nil
}

// List returns the registered interfaces in registration order.
// The returned slice is a copy; callers may modify it freely.
func (r *Registry) List() []Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Interface, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered interfaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
