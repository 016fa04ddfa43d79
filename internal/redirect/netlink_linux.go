//go:build linux

package redirect

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// NetlinkTC implements TrafficControl using Linux netlink.
type NetlinkTC struct {
	logger *slog.Logger
}

// NewNetlinkTC returns a new NetlinkTC.
func NewNetlinkTC(logger *slog.Logger) *NetlinkTC {
	return &NetlinkTC{logger: logger}
}

// ingressHandle is the fixed kernel handle of an ingress qdisc (ffff:).
// Filters on the capture point hang off this handle as their parent.
var ingressHandle = netlink.MakeHandle(0xffff, 0)

// IngressQdisc returns the ingress qdisc on iface, or nil when there is
// none. A missing interface also reports no capture point.
func (c *NetlinkTC) IngressQdisc(iface string) (*QdiscInfo, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil, nil
		}
		return nil, fmt.Errorf("redirect: ingress qdisc: %w", err)
	}

	qdiscs, err := netlink.QdiscList(link)
	if err != nil {
		return nil, fmt.Errorf("redirect: ingress qdisc: %w", err)
	}

	for _, q := range qdiscs {
		if q.Type() == "ingress" {
			attrs := q.Attrs()
			return &QdiscInfo{Handle: attrs.Handle, Parent: attrs.Parent}, nil
		}
	}
	return nil, nil
}

// AddIngressQdisc attaches an ingress qdisc to iface.
func (c *NetlinkTC) AddIngressQdisc(iface string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("redirect: add ingress qdisc: %w", err)
	}

	qdisc := &netlink.Ingress{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: link.Attrs().Index,
			Handle:    ingressHandle,
			Parent:    netlink.HANDLE_INGRESS,
		},
	}

	if err := netlink.QdiscAdd(qdisc); err != nil {
		return fmt.Errorf("redirect: add ingress qdisc: %w", err)
	}

	c.logger.Debug("ingress qdisc added",
		"component", "redirect",
		"interface", iface,
	)

	return nil
}

// DelIngressQdisc removes iface's ingress qdisc.
// It is idempotent: a missing interface or qdisc returns nil.
func (c *NetlinkTC) DelIngressQdisc(iface string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("redirect: del ingress qdisc: %w", err)
	}

	qdisc := &netlink.Ingress{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: link.Attrs().Index,
			Handle:    ingressHandle,
			Parent:    netlink.HANDLE_INGRESS,
		},
	}

	if err := netlink.QdiscDel(qdisc); err != nil {
		// Older kernels report a missing qdisc as EINVAL, newer as ENOENT.
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EINVAL) {
			return nil
		}
		return fmt.Errorf("redirect: del ingress qdisc: %w", err)
	}

	c.logger.Debug("ingress qdisc removed",
		"component", "redirect",
		"interface", iface,
	)

	return nil
}

// Filters lists the filters attached to iface's capture point.
func (c *NetlinkTC) Filters(iface string) ([]FilterInfo, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil, nil
		}
		return nil, fmt.Errorf("redirect: list filters: %w", err)
	}

	raw, err := netlink.FilterList(link, ingressHandle)
	if err != nil {
		return nil, fmt.Errorf("redirect: list filters: %w", err)
	}

	infos := make([]FilterInfo, 0, len(raw))
	for _, f := range raw {
		attrs := f.Attrs()
		info := FilterInfo{
			Priority: attrs.Priority,
			Protocol: attrs.Protocol,
			Handle:   attrs.Handle,
			Kind:     f.Type(),
		}
		if ma, ok := f.(*netlink.MatchAll); ok {
			for _, act := range ma.Actions {
				mirred, ok := act.(*netlink.MirredAction)
				if ok && mirred.MirredAction == netlink.TCA_EGRESS_REDIR {
					info.RedirectTo = mirred.Ifindex
				}
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// AddRedirectFilter installs the matchall redirect filter on iface's
// capture point. The mirred action steals the packet (TC_ACT_STOLEN), so
// it continues through the stack via the target only.
func (c *NetlinkTC) AddRedirectFilter(iface string, prio uint16, targetIndex int) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("redirect: add filter: %w", err)
	}

	filter := &netlink.MatchAll{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: link.Attrs().Index,
			Parent:    ingressHandle,
			Priority:  prio,
			Protocol:  unix.ETH_P_ALL,
		},
		Actions: []netlink.Action{netlink.NewMirredAction(targetIndex)},
	}

	if err := netlink.FilterAdd(filter); err != nil {
		return fmt.Errorf("redirect: add filter: %w", err)
	}

	c.logger.Debug("redirect filter added",
		"component", "redirect",
		"interface", iface,
		"priority", prio,
		"target_index", targetIndex,
	)

	return nil
}

// DelRedirectFilter removes a previously listed filter from iface's
// capture point. It is idempotent: an already absent filter returns nil.
func (c *NetlinkTC) DelRedirectFilter(iface string, f FilterInfo) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("redirect: del filter: %w", err)
	}

	filter := &netlink.MatchAll{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: link.Attrs().Index,
			Parent:    ingressHandle,
			Priority:  f.Priority,
			Protocol:  f.Protocol,
			Handle:    f.Handle,
		},
	}

	if err := netlink.FilterDel(filter); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil
		}
		return fmt.Errorf("redirect: del filter: %w", err)
	}

	c.logger.Debug("redirect filter removed",
		"component", "redirect",
		"interface", iface,
		"priority", f.Priority,
	)

	return nil
}
