package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/duplexnet/duplexd/internal/packaging"
)

var (
	installTeardownOnExit bool
	installEnableNow      bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install duplexd as a systemd service",
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installTeardownOnExit, "teardown-on-exit", false,
		"have the service remove all redirects when it stops")
	installCmd.Flags().BoolVar(&installEnableNow, "enable-now", false,
		"enable and start the service after installing")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := packaging.InstallConfig{
		TeardownOnExit: installTeardownOnExit,
		EnableNow:      installEnableNow,
	}

	installer := packaging.NewInstaller(cfg, packaging.NewSystemdController(), packaging.NewRootChecker(), logger)

	if err := installer.Install(); err != nil {
		return fmt.Errorf("duplexd install: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "duplexd installed successfully")
	return nil
}
