// Package forward toggles the kernel's IPv4 forwarding switch. The router
// only flips the switch on and off; routing table contents are out of
// scope.
package forward

// Controller abstracts the forwarding sysctl for testability.
type Controller interface {
	// Forwarding reports whether IPv4 forwarding is currently enabled.
	Forwarding() (bool, error)
	SetForwarding(enable bool) error
}
