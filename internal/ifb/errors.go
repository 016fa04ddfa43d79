package ifb

import "fmt"

// CreateError reports that a virtual target device could not be brought to
// a usable state. It covers both facility rejections (wrapped in Cause) and
// name conflicts with foreign links (described in Detail). These indicate
// an environment problem and are surfaced, never retried.
type CreateError struct {
	Device string
	Detail string // conflict description when there is no underlying cause
	Cause  error
}

// Error returns the formatted error string.
func (e *CreateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ifb: provision %s: %v", e.Device, e.Cause)
	}
	return fmt.Sprintf("ifb: provision %s: %s", e.Device, e.Detail)
}

// Unwrap returns the underlying cause, if any.
func (e *CreateError) Unwrap() error { return e.Cause }
