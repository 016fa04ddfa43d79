//go:build linux

package ifb

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"
)

// NetlinkController implements Controller using Linux netlink.
type NetlinkController struct {
	logger *slog.Logger
}

// NewNetlinkController returns a new NetlinkController.
func NewNetlinkController(logger *slog.Logger) *NetlinkController {
	return &NetlinkController{logger: logger}
}

// LookupDevice returns the named link, mapping a missing link to
// ErrDeviceNotFound.
func (c *NetlinkController) LookupDevice(name string) (Device, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return Device{}, ErrDeviceNotFound
		}
		return Device{}, fmt.Errorf("ifb: lookup device: %w", err)
	}

	attrs := link.Attrs()
	return Device{
		Name:  attrs.Name,
		Index: attrs.Index,
		Up:    attrs.Flags&net.FlagUp != 0,
		Kind:  link.Type(),
	}, nil
}

// CreateDevice creates an IFB link with the given name. The link is left
// down; callers bring it up separately.
func (c *NetlinkController) CreateDevice(name string) error {
	la := netlink.NewLinkAttrs()
	la.Name = name

	if err := netlink.LinkAdd(&netlink.Ifb{LinkAttrs: la}); err != nil {
		return fmt.Errorf("ifb: create device: %w", err)
	}

	c.logger.Debug("netlink ifb link created",
		"component", "ifb",
		"device", name,
	)

	return nil
}

// SetDeviceUp brings the named link up.
func (c *NetlinkController) SetDeviceUp(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("ifb: set device up: %w", err)
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("ifb: set device up: %w", err)
	}

	c.logger.Debug("device brought up",
		"component", "ifb",
		"device", name,
	)

	return nil
}

// DeleteDevice deletes the named link.
// It is idempotent: deleting a non-existent link returns nil.
func (c *NetlinkController) DeleteDevice(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		// Link does not exist — idempotent success.
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("ifb: delete device: %w", err)
	}

	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("ifb: delete device: %w", err)
	}

	c.logger.Debug("netlink ifb link deleted",
		"component", "ifb",
		"device", name,
	)

	return nil
}
