package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/duplexnet/duplexd/internal/daemon"
	"github.com/duplexnet/duplexd/internal/router"
)

// colorState renders a lifecycle state in the conventional color: green
// for terminal success, red for failures, yellow for anything partial.
func colorState(s string) string {
	switch s {
	case string(router.StateActive), string(router.StateUnconfigured):
		return color.GreenString(s)
	case string(router.StateFailed):
		return color.RedString(s)
	default:
		return color.YellowString(s)
	}
}

func roleOrDash(role string) string {
	if role == "" {
		return "-"
	}
	return role
}

// printRunSummary renders a run report for the terminal.
func printRunSummary(w io.Writer, rep *router.Report) {
	fmt.Fprintf(w, "%s run %s\n", rep.Op, rep.RunID)
	for _, res := range rep.Results {
		fmt.Fprintf(w, "  %-12s %-16s -> %-8s %s", res.Name, roleOrDash(res.Role), res.Target, colorState(string(res.State)))
		if res.Err != nil {
			fmt.Fprintf(w, "  %s", res.Err)
		}
		fmt.Fprintln(w)
	}
	if rep.ForwardingManaged {
		fmt.Fprintf(w, "  ipv4 forwarding: %t\n", rep.ForwardingOn)
	}
}

// printStateFile renders the persisted snapshot of the last run.
func printStateFile(w io.Writer, s *daemon.StateFile) {
	fmt.Fprintf(w, "last run: %s (%s, finished %s)\n", s.RunID, s.Op, humanize.Time(s.FinishedAt))
	if s.ForwardingManaged {
		fmt.Fprintf(w, "forwarding: managed, on=%t\n", s.ForwardingOn)
	}
	for _, is := range s.Interfaces {
		fmt.Fprintf(w, "  %-12s %-16s -> %-8s %s", is.Name, roleOrDash(is.Role), is.Target, colorState(is.State))
		if is.Error != "" {
			fmt.Fprintf(w, "  %s", is.Error)
		}
		fmt.Fprintln(w)
	}
	if s.VerifiedAt != nil {
		fmt.Fprintf(w, "last verified: %s\n", humanize.Time(*s.VerifiedAt))
	}
}

// printVerifySummary renders a live verification pass.
func printVerifySummary(w io.Writer, results []router.VerifyResult) {
	fmt.Fprintf(w, "live state (%d interfaces):\n", len(results))
	for _, vr := range results {
		fmt.Fprintf(w, "  %-12s -> %-8s %s", vr.Name, vr.Target, colorState(string(vr.State)))
		if vr.Detail != "" {
			fmt.Fprintf(w, "  %s", vr.Detail)
		}
		fmt.Fprintln(w)
	}
}
