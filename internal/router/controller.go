// Package router drives every registered interface through its
// provisioning state machine: ensure the virtual target, bind the
// interface's ingress to it, report the outcome. Failures never cross
// interface boundaries, and re-running over converged state mutates
// nothing.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/duplexnet/duplexd/internal/forward"
	"github.com/duplexnet/duplexd/internal/ifb"
	"github.com/duplexnet/duplexd/internal/redirect"
	"github.com/duplexnet/duplexd/internal/registry"
)

// Config holds the controller's run behavior.
type Config struct {
	// Parallel provisions interfaces concurrently, one goroutine per
	// interface. Results keep registration order regardless.
	Parallel bool

	// ManageForwarding makes Apply enable (and Teardown disable) the
	// kernel's IPv4 forwarding switch.
	ManageForwarding bool
}

// Controller orchestrates provisioning across all registered interfaces.
type Controller struct {
	reg    *registry.Registry
	prov   *ifb.Provisioner
	inst   *redirect.Installer
	fwd    forward.Controller
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewController creates a new Controller.
func NewController(reg *registry.Registry, prov *ifb.Provisioner, inst *redirect.Installer, fwd forward.Controller, cfg Config, logger *slog.Logger) *Controller {
	return &Controller{
		reg:    reg,
		prov:   prov,
		inst:   inst,
		fwd:    fwd,
		cfg:    cfg,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing OS access to one interface, so
// concurrent runs never interleave probe-and-create sequences for the
// same interface.
func (c *Controller) lockFor(name string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lk, ok := c.locks[name]
	if !ok {
		lk = &sync.Mutex{}
		c.locks[name] = lk
	}
	return lk
}

func (c *Controller) newReport(op Op) *Report {
	return &Report{
		RunID:             uuid.NewString(),
		Op:                op,
		StartedAt:         time.Now(),
		ForwardingManaged: c.cfg.ManageForwarding,
	}
}

// Apply drives every registered interface toward the active state and
// returns the per-interface outcome in registration order. Failures are
// isolated: one interface's error never blocks the others. A second
// Apply over converged state succeeds without any OS mutation.
func (c *Controller) Apply(ctx context.Context) (*Report, error) {
	rep := c.newReport(OpApply)

	if c.cfg.ManageForwarding {
		// A router that cannot forward has no working data plane, so a
		// forwarding failure aborts the run before any interface work.
		if err := c.ensureForwarding(true); err != nil {
			return nil, err
		}
		rep.ForwardingOn = true
	}

	ifaces := c.reg.List()
	results := make([]Result, len(ifaces))

	if c.cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, iface := range ifaces {
			i, iface := i, iface
			g.Go(func() error {
				results[i] = c.applyOne(gctx, i, iface)
				return nil
			})
		}
		// Workers never return errors; per-interface failures live in
		// their results.
		_ = g.Wait()
	} else {
		for i, iface := range ifaces {
			results[i] = c.applyOne(ctx, i, iface)
		}
	}

	rep.Results = results
	rep.FinishedAt = time.Now()

	c.logSummary(rep)
	return rep, nil
}

func (c *Controller) applyOne(ctx context.Context, position int, iface registry.Interface) Result {
	res := Result{
		Name:   iface.Name,
		Role:   iface.Role,
		Target: c.prov.TargetName(position),
		State:  StateUnconfigured,
	}

	lk := c.lockFor(iface.Name)
	lk.Lock()
	defer lk.Unlock()

	if err := ctx.Err(); err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("router: apply %s: %w", iface.Name, err)
		return res
	}

	dev, err := c.prov.Ensure(position)
	if err != nil {
		res.State = StateFailed
		res.Err = err
		return res
	}
	res.State = StateTargetReady

	if err := c.inst.Install(iface.Name, dev); err != nil {
		res.State = StateFailed
		res.Err = err
		return res
	}
	res.State = StateRedirectInstalled

	// Target up, rule in place: activation is bookkeeping.
	res.State = StateActive

	c.logger.Info("interface active",
		"component", "router",
		"interface", iface.Name,
		"target", res.Target,
	)

	return res
}

// Teardown removes this program's redirect rules and target devices for
// every registered interface, in reverse dependency order per interface
// (rule before device), then disables forwarding when managed. Removal is
// scoped to owned objects and tolerates anything already absent, so
// Teardown also cleans up after crashed or partial runs and is safe to
// repeat.
func (c *Controller) Teardown(ctx context.Context) (*Report, error) {
	rep := c.newReport(OpTeardown)

	ifaces := c.reg.List()
	results := make([]Result, len(ifaces))
	for i, iface := range ifaces {
		results[i] = c.teardownOne(ctx, i, iface)
	}
	rep.Results = results

	var runErr error
	if c.cfg.ManageForwarding {
		if err := c.ensureForwarding(false); err != nil {
			runErr = err
		}
	}

	rep.FinishedAt = time.Now()
	c.logSummary(rep)
	return rep, runErr
}

func (c *Controller) teardownOne(ctx context.Context, position int, iface registry.Interface) Result {
	res := Result{
		Name:   iface.Name,
		Role:   iface.Role,
		Target: c.prov.TargetName(position),
	}

	lk := c.lockFor(iface.Name)
	lk.Lock()
	defer lk.Unlock()

	if err := ctx.Err(); err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("router: teardown %s: %w", iface.Name, err)
		return res
	}

	// Rule before device. Both are attempted even if the first fails;
	// errors are aggregated so partial cleanup still makes progress.
	var errs []error
	if err := c.inst.Remove(iface.Name); err != nil {
		errs = append(errs, err)
	}
	if err := c.prov.Remove(position); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		res.State = StateFailed
		res.Err = err
		return res
	}

	res.State = StateUnconfigured
	return res
}

// ensureForwarding reads the forwarding switch and only writes it when
// the value actually differs, so repeated runs leave the sysctl alone.
func (c *Controller) ensureForwarding(want bool) error {
	on, err := c.fwd.Forwarding()
	if err != nil {
		return fmt.Errorf("router: forwarding: %w", err)
	}
	if on == want {
		return nil
	}

	if err := c.fwd.SetForwarding(want); err != nil {
		return fmt.Errorf("router: forwarding: %w", err)
	}

	c.logger.Info("ipv4 forwarding changed",
		"component", "router",
		"enabled", want,
	)

	return nil
}

func (c *Controller) logSummary(rep *Report) {
	failed := rep.Failed()
	c.logger.Info("run complete",
		"component", "router",
		"op", string(rep.Op),
		"run_id", rep.RunID,
		"interfaces", len(rep.Results),
		"failed", len(failed),
		"duration", rep.FinishedAt.Sub(rep.StartedAt),
	)
	for _, r := range failed {
		c.logger.Error("interface failed",
			"component", "router",
			"op", string(rep.Op),
			"interface", r.Name,
			"error", r.Err,
		)
	}
}
