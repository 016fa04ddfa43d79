// Package packaging installs duplexd as a supervised systemd service on
// bare-metal Linux routers.
package packaging

import "errors"

// DefaultBinaryPath is the default path to install the duplexd binary.
const DefaultBinaryPath = "/usr/local/bin/duplexd"

// DefaultConfigDir is the default configuration directory.
const DefaultConfigDir = "/etc/duplexd"

// DefaultDataDir is the default data directory.
const DefaultDataDir = "/var/lib/duplexd"

// DefaultServiceName is the default systemd service name.
const DefaultServiceName = "duplexd"

// DefaultUnitFilePath is the default path for the systemd unit file.
const DefaultUnitFilePath = "/etc/systemd/system/duplexd.service"

// InstallConfig holds the configuration for installing duplexd as a
// systemd service.
// InstallConfig is passed as a constructor argument — no file I/O in this package.
type InstallConfig struct {
	// BinaryPath is the path to install the duplexd binary.
	// Default: /usr/local/bin/duplexd
	BinaryPath string

	// ConfigDir is the configuration directory.
	// Default: /etc/duplexd
	ConfigDir string

	// DataDir is the data directory holding the state file.
	// Default: /var/lib/duplexd
	DataDir string

	// UnitFilePath is the path for the systemd unit file.
	// Default: /etc/systemd/system/duplexd.service
	UnitFilePath string

	// ServiceName is the systemd service name.
	// Default: duplexd
	ServiceName string

	// TeardownOnExit adds --teardown-on-exit to the unit's ExecStart,
	// so stopping the service leaves the host unconfigured.
	TeardownOnExit bool

	// EnableNow enables and starts the service right after installing.
	EnableNow bool
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *InstallConfig) ApplyDefaults() {
	if c.BinaryPath == "" {
		c.BinaryPath = DefaultBinaryPath
	}
	if c.ConfigDir == "" {
		c.ConfigDir = DefaultConfigDir
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.UnitFilePath == "" {
		c.UnitFilePath = DefaultUnitFilePath
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
}

// Validate checks that required fields are set.
func (c *InstallConfig) Validate() error {
	if c.BinaryPath == "" {
		return errors.New("packaging: config: BinaryPath is required")
	}
	if c.ConfigDir == "" {
		return errors.New("packaging: config: ConfigDir is required")
	}
	if c.DataDir == "" {
		return errors.New("packaging: config: DataDir is required")
	}
	if c.UnitFilePath == "" {
		return errors.New("packaging: config: UnitFilePath is required")
	}
	if c.ServiceName == "" {
		return errors.New("packaging: config: ServiceName is required")
	}
	return nil
}
