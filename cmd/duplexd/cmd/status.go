package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/duplexnet/duplexd/internal/daemon"
	"github.com/duplexnet/duplexd/internal/linkstat"
)

var (
	statusProbe    bool
	statusCounters bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provisioning state",
	Long: "Show the outcome of the last apply or teardown run from the state file.\n" +
		"With --probe the live device and tc state is inspected instead; with\n" +
		"--counters packet and byte counters for all managed links are printed,\n" +
		"which makes a load-bearing redirect visible as target TX tracking\n" +
		"physical RX.",
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusProbe, "probe", false, "inspect live device and tc state instead of the last run snapshot")
	statusCmd.Flags().BoolVar(&statusCounters, "counters", false, "show packet and byte counters for managed links")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 0, "with --counters, sample twice and print the delta over this interval")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("duplexd status: %w", err)
	}
	w := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if statusProbe {
		logger := setupLogger(cfg.LogLevel)
		ctrl, err := buildController(cfg, logger)
		if err != nil {
			return fmt.Errorf("duplexd status: %w", err)
		}
		printVerifySummary(w, ctrl.Verify(ctx))
	} else {
		state, err := daemon.LoadState(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("duplexd status: %w", err)
		}
		printStateFile(w, state)
	}

	if statusCounters {
		if err := printCounters(ctx, w, cfg); err != nil {
			return fmt.Errorf("duplexd status: %w", err)
		}
	}
	return nil
}

// printCounters snapshots RX/TX counters for every physical interface
// and its paired target. With a sampling interval the delta between two
// snapshots is printed instead of the absolute counts.
func printCounters(ctx context.Context, w io.Writer, cfg *daemon.Config) error {
	reader, err := newStatReader()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(cfg.Interfaces)*2)
	aliases := make(map[string]string, len(cfg.Interfaces))
	for i, ic := range cfg.Interfaces {
		target := fmt.Sprintf("%s%d", cfg.TargetPrefix, i)
		names = append(names, ic.Name, target)
		aliases[target] = fmt.Sprintf("%s ingress", ic.Name)
	}

	stats, err := linkstat.Snapshot(reader, names)
	if err != nil {
		return err
	}

	if statusInterval > 0 {
		select {
		case <-time.After(statusInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
		later, err := linkstat.Snapshot(reader, names)
		if err != nil {
			return err
		}
		stats = later.Since(stats)
		fmt.Fprintf(w, "\ncounters over %s:\n", statusInterval)
	} else {
		fmt.Fprintln(w, "\ncounters (absolute):")
	}

	return linkstat.Print(w, stats, aliases)
}
