//go:build linux

package cmd

import (
	"log/slog"

	"github.com/duplexnet/duplexd/internal/forward"
	"github.com/duplexnet/duplexd/internal/ifb"
	"github.com/duplexnet/duplexd/internal/linkstat"
	"github.com/duplexnet/duplexd/internal/redirect"
)

// newControllers returns the netlink- and procfs-backed controllers that
// touch the host.
func newControllers(logger *slog.Logger) (ifb.Controller, redirect.TrafficControl, forward.Controller, error) {
	return ifb.NewNetlinkController(logger),
		redirect.NewNetlinkTC(logger),
		forward.NewSysctlController(logger),
		nil
}

// newStatReader returns the netlink-backed link counter reader.
func newStatReader() (linkstat.Reader, error) {
	return linkstat.NewNetlinkReader(), nil
}
