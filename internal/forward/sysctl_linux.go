//go:build linux

package forward

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ipForwardPath is the sysctl file controlling global IPv4 forwarding.
const ipForwardPath = "/proc/sys/net/ipv4/ip_forward"

// SysctlController implements Controller via /proc/sys.
type SysctlController struct {
	logger *slog.Logger
}

// NewSysctlController returns a new SysctlController.
func NewSysctlController(logger *slog.Logger) *SysctlController {
	return &SysctlController{logger: logger}
}

// Forwarding reports whether IPv4 forwarding is enabled.
func (c *SysctlController) Forwarding() (bool, error) {
	data, err := os.ReadFile(ipForwardPath)
	if err != nil {
		return false, fmt.Errorf("forward: read %s: %w", ipForwardPath, err)
	}
	return strings.TrimSpace(string(data)) == "1", nil
}

// SetForwarding enables or disables IPv4 forwarding.
func (c *SysctlController) SetForwarding(enable bool) error {
	value := "0"
	if enable {
		value = "1"
	}

	if err := os.WriteFile(ipForwardPath, []byte(value), 0o644); err != nil {
		return fmt.Errorf("forward: write %s: %w", ipForwardPath, err)
	}

	c.logger.Info("ipv4 forwarding set",
		"component", "forward",
		"enabled", enable,
	)

	return nil
}
