// Package linkstat reads per-link packet and byte counters. Reading a
// physical interface's RX alongside its target device's TX shows whether
// the redirect plane is actually carrying traffic, without touching any
// of the plumbing.
package linkstat

import (
	"fmt"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
)

// Counters holds the RX/TX counters of one link.
type Counters struct {
	RxPackets uint64
	RxBytes   uint64
	TxPackets uint64
	TxBytes   uint64
}

// Stats maps link names to their counters.
type Stats map[string]Counters

// Reader reads link counters from the OS.
type Reader interface {
	// LinkCounters returns the current counters of the named link.
	LinkCounters(name string) (Counters, error)
}

// Snapshot reads the counters of all named links.
func Snapshot(r Reader, names []string) (Stats, error) {
	s := make(Stats, len(names))
	for _, name := range names {
		c, err := r.LinkCounters(name)
		if err != nil {
			return nil, fmt.Errorf("linkstat: reading %s: %w", name, err)
		}
		s[name] = c
	}
	return s, nil
}

// Since computes s(now) - old. Links missing from old count from zero.
func (s Stats) Since(old Stats) Stats {
	out := make(Stats, len(s))
	for name, now := range s {
		prev := old[name]
		out[name] = Counters{
			RxPackets: now.RxPackets - prev.RxPackets,
			RxBytes:   now.RxBytes - prev.RxBytes,
			TxPackets: now.TxPackets - prev.TxPackets,
			TxBytes:   now.TxBytes - prev.TxBytes,
		}
	}
	return out
}

// Print writes the stats to w, one block per link in sorted name order.
// aliases optionally annotates link names (e.g. a target's paired
// interface).
func Print(w io.Writer, s Stats, aliases map[string]string) error {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		c := s[name]

		if alias, ok := aliases[name]; ok {
			fmt.Fprintf(w, "%s (%s):\n", name, alias)
		} else {
			fmt.Fprintf(w, "%s:\n", name)
		}

		fmt.Fprintf(w, "  RX   %-12d  ≈ %-8s (%s)\n",
			c.RxPackets, humanize.Bytes(c.RxBytes), humanize.Comma(int64(c.RxBytes)),
		)
		fmt.Fprintf(w, "  TX   %-12d  ≈ %-8s (%s)\n",
			c.TxPackets, humanize.Bytes(c.TxBytes), humanize.Comma(int64(c.TxBytes)),
		)
	}

	return nil
}
