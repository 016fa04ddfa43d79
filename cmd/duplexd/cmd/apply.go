package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/duplexnet/duplexd/internal/daemon"
	"github.com/duplexnet/duplexd/internal/ifb"
	"github.com/duplexnet/duplexd/internal/redirect"
	"github.com/duplexnet/duplexd/internal/registry"
	"github.com/duplexnet/duplexd/internal/router"
)

var (
	applySupervise      bool
	applyTeardownOnExit bool
	applyInterfaces     []string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Provision ingress redirection for the configured interfaces",
	Long: "Create the virtual target device for every configured interface, bring it up,\n" +
		"and redirect the interface's ingress onto it. Re-running over an already\n" +
		"provisioned host changes nothing and succeeds.",
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applySupervise, "supervise", false, "stay running and re-verify interfaces periodically")
	applyCmd.Flags().BoolVar(&applyTeardownOnExit, "teardown-on-exit", false, "tear everything down again when a supervised run exits")
	applyCmd.Flags().StringArrayVar(&applyInterfaces, "interface", nil, "interface to manage as name:role (repeatable; replaces the configured list)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("duplexd apply: %w", err)
	}
	if err := overrideInterfaces(cfg, applyInterfaces); err != nil {
		return fmt.Errorf("duplexd apply: %w", err)
	}

	logger := setupLogger(cfg.LogLevel)

	logger.Info("starting duplexd",
		"version", buildVersion,
		"interfaces", len(cfg.Interfaces),
		"parallel", cfg.Parallel,
	)

	ctrl, err := buildController(cfg, logger)
	if err != nil {
		return fmt.Errorf("duplexd apply: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rep, err := ctrl.Apply(ctx)
	if err != nil {
		return fmt.Errorf("duplexd apply: %w", err)
	}

	state := daemon.StateFromReport(rep)
	if err := state.Write(cfg.DataDir); err != nil {
		return fmt.Errorf("duplexd apply: %w", err)
	}

	printRunSummary(cmd.OutOrStdout(), rep)

	if failed := rep.Failed(); len(failed) > 0 {
		return fmt.Errorf("duplexd apply: %d of %d interfaces failed", len(failed), len(rep.Results))
	}

	if !applySupervise {
		return nil
	}
	return superviseRun(ctx, ctrl, state, cfg, logger)
}

// superviseRun blocks on the verification loop until the signal context
// is cancelled, then optionally tears the provisioning down again.
func superviseRun(ctx context.Context, ctrl *router.Controller, state *daemon.StateFile, cfg *daemon.Config, logger *slog.Logger) error {
	sup := daemon.NewSupervisor(ctrl, state, cfg.DataDir, cfg.VerifyInterval, logger)

	// SIGHUP forces an immediate re-verification.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				sup.TriggerVerify()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("duplexd apply: %w", err)
	}
	logger.Info("shutting down", "reason", ctx.Err())

	if applyTeardownOnExit {
		// The signal context is already cancelled; teardown runs on a
		// fresh one so cleanup is not cut short.
		rep, runErr := ctrl.Teardown(context.Background())
		exitState := daemon.StateFromReport(rep)
		if err := exitState.Write(cfg.DataDir); err != nil {
			logger.Error("state file update failed", "error", err)
		}
		if runErr != nil {
			return fmt.Errorf("duplexd apply: teardown on exit: %w", runErr)
		}
		if failed := rep.Failed(); len(failed) > 0 {
			return fmt.Errorf("duplexd apply: teardown on exit: %d of %d interfaces failed", len(failed), len(rep.Results))
		}
	}

	logger.Info("duplexd stopped")
	return nil
}

// overrideInterfaces replaces the configured interface list with parsed
// name:role flags, re-validating the result.
func overrideInterfaces(cfg *daemon.Config, specs []string) error {
	if len(specs) == 0 {
		return nil
	}
	overrides, err := parseInterfaceFlags(specs)
	if err != nil {
		return err
	}
	cfg.Interfaces = overrides
	return cfg.Validate()
}

// parseInterfaceFlags turns repeated name:role values into interface
// configs. The role part is optional.
func parseInterfaceFlags(specs []string) ([]daemon.InterfaceConfig, error) {
	out := make([]daemon.InterfaceConfig, 0, len(specs))
	for _, spec := range specs {
		name, role, _ := strings.Cut(spec, ":")
		if name == "" {
			return nil, fmt.Errorf("invalid --interface %q (want name or name:role)", spec)
		}
		out = append(out, daemon.InterfaceConfig{Name: name, Role: role})
	}
	return out, nil
}

// buildController wires the registry, provisioner and installer over the
// host-backed controllers.
func buildController(cfg *daemon.Config, logger *slog.Logger) (*router.Controller, error) {
	linkCtrl, tc, fwd, err := newControllers(logger)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	for _, ic := range cfg.Interfaces {
		if err := reg.Register(ic.Name, ic.Role); err != nil {
			return nil, err
		}
	}

	prov := ifb.NewProvisioner(linkCtrl, ifb.Config{Prefix: cfg.TargetPrefix}, logger)
	inst := redirect.NewInstaller(tc, logger)
	rcfg := router.Config{
		Parallel:         cfg.Parallel,
		ManageForwarding: cfg.ManageForwarding(),
	}
	return router.NewController(reg, prov, inst, fwd, rcfg, logger), nil
}
