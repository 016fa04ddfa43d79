//go:build linux

package linkstat

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// NetlinkReader implements Reader using Linux netlink link statistics.
type NetlinkReader struct{}

// NewNetlinkReader returns a new NetlinkReader.
func NewNetlinkReader() *NetlinkReader {
	return &NetlinkReader{}
}

// LinkCounters returns the current counters of the named link.
func (r *NetlinkReader) LinkCounters(name string) (Counters, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return Counters{}, fmt.Errorf("linkstat: link %s: %w", name, err)
	}

	stats := link.Attrs().Statistics
	if stats == nil {
		return Counters{}, fmt.Errorf("linkstat: link %s: no statistics", name)
	}

	return Counters{
		RxPackets: stats.RxPackets,
		RxBytes:   stats.RxBytes,
		TxPackets: stats.TxPackets,
		TxBytes:   stats.TxBytes,
	}, nil
}
