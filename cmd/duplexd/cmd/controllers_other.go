//go:build !linux

package cmd

import (
	"errors"
	"log/slog"

	"github.com/duplexnet/duplexd/internal/forward"
	"github.com/duplexnet/duplexd/internal/ifb"
	"github.com/duplexnet/duplexd/internal/linkstat"
	"github.com/duplexnet/duplexd/internal/redirect"
)

var errNotLinux = errors.New("duplexd: interface provisioning requires linux")

// newControllers fails on non-Linux platforms; ingress redirection is
// built on tc, which only exists on Linux.
func newControllers(_ *slog.Logger) (ifb.Controller, redirect.TrafficControl, forward.Controller, error) {
	return nil, nil, nil, errNotLinux
}

// newStatReader fails on non-Linux platforms.
func newStatReader() (linkstat.Reader, error) {
	return nil, errNotLinux
}
