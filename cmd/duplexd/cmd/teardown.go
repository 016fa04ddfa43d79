package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/duplexnet/duplexd/internal/daemon"
)

var teardownInterfaces []string

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove this program's redirect rules and target devices",
	Long: "Remove the redirect rules and virtual target devices for every configured\n" +
		"interface. Only objects this program installed are touched; capture points\n" +
		"holding other tooling's filters are left in place. Running against a clean\n" +
		"host succeeds without doing anything.",
	RunE: runTeardown,
}

func init() {
	teardownCmd.Flags().StringArrayVar(&teardownInterfaces, "interface", nil, "interface to tear down as name:role (repeatable; replaces the configured list)")
	rootCmd.AddCommand(teardownCmd)
}

func runTeardown(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("duplexd teardown: %w", err)
	}
	if err := overrideInterfaces(cfg, teardownInterfaces); err != nil {
		return fmt.Errorf("duplexd teardown: %w", err)
	}

	logger := setupLogger(cfg.LogLevel)

	ctrl, err := buildController(cfg, logger)
	if err != nil {
		return fmt.Errorf("duplexd teardown: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rep, runErr := ctrl.Teardown(ctx)

	state := daemon.StateFromReport(rep)
	if err := state.Write(cfg.DataDir); err != nil {
		return fmt.Errorf("duplexd teardown: %w", err)
	}

	printRunSummary(cmd.OutOrStdout(), rep)

	if runErr != nil {
		return fmt.Errorf("duplexd teardown: %w", runErr)
	}
	if failed := rep.Failed(); len(failed) > 0 {
		return fmt.Errorf("duplexd teardown: %d of %d interfaces failed", len(failed), len(rep.Results))
	}
	return nil
}
