// Package ifb provisions the virtual IFB devices that receive redirected
// ingress traffic. Each managed physical interface is paired with exactly
// one such device; an external shaping policy attaches its egress queueing
// discipline there, which is what makes per-direction shaping possible.
package ifb

import "errors"

// LinkKind is the netlink link type of the devices this package manages.
const LinkKind = "ifb"

// Device describes a virtual redirect target link.
type Device struct {
	Name  string
	Index int // kernel link index
	Up    bool
	Kind  string // netlink link type; LinkKind for devices we manage
}

// ErrDeviceNotFound is returned by LookupDevice when no link has the
// requested name.
var ErrDeviceNotFound = errors.New("ifb: device not found")

// Controller abstracts OS-level link operations for testability.
type Controller interface {
	// LookupDevice returns the named link. It returns ErrDeviceNotFound
	// when no link with that name exists.
	LookupDevice(name string) (Device, error)
	// CreateDevice creates an IFB link with the given name, initially down.
	CreateDevice(name string) error
	SetDeviceUp(name string) error
	// DeleteDevice deletes the named link.
	// Implementations must be idempotent: deleting a non-existent link must return nil.
	DeleteDevice(name string) error
}
