// Package daemon holds duplexd's file-level configuration and the
// persisted run state consumed by the status command and by external
// shaping tooling.
package daemon

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/duplexnet/duplexd/internal/ifb"
)

const (
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultDataDir is the default data directory.
	DefaultDataDir = "/var/lib/duplexd"

	// DefaultVerifyInterval is the default interval between supervisor
	// verification cycles.
	DefaultVerifyInterval = 30 * time.Second

	// ForwardingManaged has apply enable, and teardown disable, the
	// kernel's IPv4 forwarding switch.
	ForwardingManaged = "managed"

	// ForwardingUnmanaged leaves the forwarding switch untouched.
	ForwardingUnmanaged = "unmanaged"
)

// InterfaceConfig binds one physical interface into the managed set.
type InterfaceConfig struct {
	// Name is the physical interface name, e.g. "eth0".
	Name string `yaml:"name"`

	// Role is a descriptive tag carried through reports and state
	// files. It never influences provisioning.
	Role string `yaml:"role"`
}

// Config is the top-level configuration for the duplexd daemon.
// It is populated from a YAML configuration file via ParseConfig.
type Config struct {
	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// DataDir is the directory for persistent daemon data.
	// Default: /var/lib/duplexd
	DataDir string `yaml:"data_dir"`

	// TargetPrefix names the virtual target devices as
	// <prefix><position>. Default: "ifb"
	TargetPrefix string `yaml:"target_prefix"`

	// Forwarding is "managed" or "unmanaged".
	// Default: "managed"
	Forwarding string `yaml:"forwarding"`

	// Parallel provisions interfaces concurrently.
	// Default: false
	Parallel bool `yaml:"parallel"`

	// VerifyInterval is the time between supervisor verification
	// cycles, in nanoseconds when set from YAML.
	// Default: 30s
	VerifyInterval time.Duration `yaml:"verify_interval"`

	// Interfaces lists the physical interfaces to manage, in
	// registration order.
	Interfaces []InterfaceConfig `yaml:"interfaces"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.TargetPrefix == "" {
		c.TargetPrefix = ifb.DefaultPrefix
	}
	if c.Forwarding == "" {
		c.Forwarding = ForwardingManaged
	}
	if c.VerifyInterval == 0 {
		c.VerifyInterval = DefaultVerifyInterval
	}
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("daemon: config: invalid log_level %q", c.LogLevel)
	}
	if c.DataDir == "" {
		return fmt.Errorf("daemon: config: data_dir must not be empty")
	}
	if c.Forwarding != ForwardingManaged && c.Forwarding != ForwardingUnmanaged {
		return fmt.Errorf("daemon: config: invalid forwarding %q (must be %q or %q)",
			c.Forwarding, ForwardingManaged, ForwardingUnmanaged)
	}
	if c.VerifyInterval < time.Second {
		return fmt.Errorf("daemon: config: verify_interval must be at least 1s")
	}

	ifbCfg := ifb.Config{Prefix: c.TargetPrefix}
	if err := ifbCfg.Validate(); err != nil {
		return err
	}

	seen := make(map[string]int, len(c.Interfaces))
	for i, iface := range c.Interfaces {
		if iface.Name == "" {
			return fmt.Errorf("daemon: config: interfaces[%d]: name must not be empty", i)
		}
		if prev, ok := seen[iface.Name]; ok {
			return fmt.Errorf("daemon: config: interface %q listed twice (positions %d and %d)",
				iface.Name, prev, i)
		}
		seen[iface.Name] = i
	}
	// A physical interface that shares a derived target name would make
	// the provisioner fight the host, so reject the overlap up front.
	for i := range c.Interfaces {
		target := fmt.Sprintf("%s%d", c.TargetPrefix, i)
		if pos, ok := seen[target]; ok {
			return fmt.Errorf("daemon: config: interface %q (position %d) collides with derived target name",
				target, pos)
		}
	}
	return nil
}

// ManageForwarding reports whether the daemon owns the kernel's IPv4
// forwarding switch.
func (c *Config) ManageForwarding() bool {
	return c.Forwarding == ForwardingManaged
}

// ParseConfig reads a YAML configuration file and returns a Config.
// It applies defaults and validates the configuration.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("daemon: config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("daemon: config: parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
