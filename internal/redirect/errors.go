package redirect

import "fmt"

// ConflictError reports a capture point whose existing configuration was
// not created by this program or does not match what it would create.
// The foreign state is never mutated or removed; resolution requires an
// explicit teardown (or operator intervention) followed by a retry.
type ConflictError struct {
	Interface string
	Detail    string
}

// Error returns the formatted error string.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("redirect: %s: conflicting capture point: %s", e.Interface, e.Detail)
}

// InstallError reports that the traffic-control facility rejected part of
// the redirect rule installation.
type InstallError struct {
	Interface string
	Target    string
	Cause     error
}

// Error returns the formatted error string.
func (e *InstallError) Error() string {
	return fmt.Sprintf("redirect: install %s -> %s: %v", e.Interface, e.Target, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *InstallError) Unwrap() error { return e.Cause }
