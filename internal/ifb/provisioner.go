package ifb

import (
	"errors"
	"fmt"
	"log/slog"
)

// Config holds the provisioner configuration.
// Config is passed as a constructor argument — no file I/O in this package.
type Config struct {
	// Prefix is prepended to the registration position to form target
	// device names: position 0 becomes "<Prefix>0" and so on.
	// Default: "ifb"
	Prefix string
}

// DefaultPrefix is the default target device name prefix.
const DefaultPrefix = "ifb"

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
}

// Validate checks that configuration values are acceptable.
func (c *Config) Validate() error {
	if len(c.Prefix) > 12 {
		// Linux interface names are capped at 15 bytes; leave room for the
		// numeric suffix.
		return errors.New("ifb: config: Prefix must be at most 12 characters")
	}
	return nil
}

// Provisioner creates and removes the virtual target devices paired with
// managed interfaces. Target names derive deterministically from the
// registration position, so repeated runs agree on which device belongs to
// which interface without any persisted mapping.
type Provisioner struct {
	ctrl   Controller
	cfg    Config
	logger *slog.Logger
}

// NewProvisioner creates a new Provisioner. Config defaults are applied
// automatically.
func NewProvisioner(ctrl Controller, cfg Config, logger *slog.Logger) *Provisioner {
	cfg.ApplyDefaults()
	return &Provisioner{
		ctrl:   ctrl,
		cfg:    cfg,
		logger: logger,
	}
}

// TargetName returns the target device name for the interface registered at
// the given position.
func (p *Provisioner) TargetName(position int) string {
	return fmt.Sprintf("%s%d", p.cfg.Prefix, position)
}

// Ensure brings the target device for the given registration position into
// existence and up, and returns it. It inspects before acting: a device
// that already exists and is up causes no link mutations at all, so a
// second run over converged state is free of side effects.
//
// A foreign link squatting on the target name (wrong link kind) is a
// *CreateError; the link is left untouched.
func (p *Provisioner) Ensure(position int) (Device, error) {
	name := p.TargetName(position)

	dev, err := p.ctrl.LookupDevice(name)
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return p.create(name)
	case err != nil:
		return Device{}, &CreateError{Device: name, Cause: err}
	}

	if dev.Kind != LinkKind {
		return Device{}, &CreateError{
			Device: name,
			Detail: fmt.Sprintf("existing link has kind %q, want %q", dev.Kind, LinkKind),
		}
	}

	if !dev.Up {
		if err := p.ctrl.SetDeviceUp(name); err != nil {
			return Device{}, &CreateError{Device: name, Cause: err}
		}
		dev.Up = true
		p.logger.Info("target device brought up",
			"component", "ifb",
			"device", name,
		)
	}

	return dev, nil
}

// create provisions a fresh target device and brings it up.
func (p *Provisioner) create(name string) (Device, error) {
	if err := p.ctrl.CreateDevice(name); err != nil {
		return Device{}, &CreateError{Device: name, Cause: err}
	}
	if err := p.ctrl.SetDeviceUp(name); err != nil {
		return Device{}, &CreateError{Device: name, Cause: err}
	}

	// Re-read so callers get the kernel-assigned link index.
	dev, err := p.ctrl.LookupDevice(name)
	if err != nil {
		return Device{}, &CreateError{Device: name, Cause: err}
	}

	p.logger.Info("target device provisioned",
		"component", "ifb",
		"device", name,
		"index", dev.Index,
	)

	return dev, nil
}

// Probe returns the current state of the target device for the given
// registration position without mutating anything. Absent devices surface
// as ErrDeviceNotFound.
func (p *Provisioner) Probe(position int) (Device, error) {
	dev, err := p.ctrl.LookupDevice(p.TargetName(position))
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return Device{}, ErrDeviceNotFound
		}
		return Device{}, fmt.Errorf("ifb: probe %s: %w", p.TargetName(position), err)
	}
	return dev, nil
}

// Remove deletes the target device for the given registration position.
// An absent device is success; a foreign link with the target's name is
// left untouched and reported as an error.
func (p *Provisioner) Remove(position int) error {
	name := p.TargetName(position)

	dev, err := p.ctrl.LookupDevice(name)
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("ifb: remove %s: %w", name, err)
	}

	if dev.Kind != LinkKind {
		return fmt.Errorf("ifb: remove %s: existing link has kind %q, refusing to delete", name, dev.Kind)
	}

	if err := p.ctrl.DeleteDevice(name); err != nil {
		return fmt.Errorf("ifb: remove %s: %w", name, err)
	}

	p.logger.Info("target device removed",
		"component", "ifb",
		"device", name,
	)

	return nil
}
