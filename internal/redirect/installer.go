package redirect

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/duplexnet/duplexd/internal/ifb"
)

// Installer installs and removes the redirect rule binding a physical
// interface's ingress path to its virtual target. All decisions are made
// query-then-act: existing state is inspected before anything is mutated,
// so a converged interface is left completely untouched.
type Installer struct {
	tc     TrafficControl
	logger *slog.Logger
}

// NewInstaller returns a new Installer.
func NewInstaller(tc TrafficControl, logger *slog.Logger) *Installer {
	return &Installer{tc: tc, logger: logger}
}

// RuleStatus describes what an inspection of an interface's capture point
// found. RedirectTo is only meaningful when OwnedFilter is true.
type RuleStatus struct {
	CapturePresent bool
	OwnedFilter    bool
	RedirectTo     int
	ForeignFilters int
}

// Install ensures iface's ingress stream is redirected to target.
//
// With no capture point present it adds the ingress qdisc and the owned
// matchall redirect filter; a filter failure rolls the freshly created
// qdisc back so no ambiguous half-installed state is left behind. With a
// capture point present it requires the point to hold exactly the owned
// rule redirecting to target — then Install succeeds with zero mutations.
// Anything else on the capture point (foreign filters, a mismatched owned
// rule, or no filters at all) is a *ConflictError and is never touched.
func (ins *Installer) Install(iface string, target ifb.Device) error {
	if !target.Up {
		return &InstallError{
			Interface: iface,
			Target:    target.Name,
			Cause:     errors.New("target device is down"),
		}
	}

	prio := FilterPriority(iface)

	qdisc, err := ins.tc.IngressQdisc(iface)
	if err != nil {
		return &InstallError{Interface: iface, Target: target.Name, Cause: err}
	}

	if qdisc == nil {
		return ins.installFresh(iface, target, prio)
	}

	filters, err := ins.tc.Filters(iface)
	if err != nil {
		return &InstallError{Interface: iface, Target: target.Name, Cause: err}
	}

	owned, foreign := splitOwned(filters, prio)

	switch {
	case len(foreign) > 0:
		return &ConflictError{Interface: iface, Detail: describeForeign(foreign)}
	case owned == nil:
		return &ConflictError{Interface: iface, Detail: "capture point holds no redirect rule"}
	case owned.RedirectTo != target.Index:
		return &ConflictError{
			Interface: iface,
			Detail: fmt.Sprintf("owned rule redirects to link index %d, want %d (%s)",
				owned.RedirectTo, target.Index, target.Name),
		}
	}

	ins.logger.Debug("redirect rule already installed",
		"component", "redirect",
		"interface", iface,
		"target", target.Name,
	)

	return nil
}

// installFresh creates the capture point and the owned redirect filter on
// an interface that had neither.
func (ins *Installer) installFresh(iface string, target ifb.Device, prio uint16) error {
	if err := ins.tc.AddIngressQdisc(iface); err != nil {
		return &InstallError{Interface: iface, Target: target.Name, Cause: err}
	}

	if err := ins.tc.AddRedirectFilter(iface, prio, target.Index); err != nil {
		// Roll the fresh capture point back: a filterless qdisc would read
		// as ambiguous foreign state on the next run.
		if delErr := ins.tc.DelIngressQdisc(iface); delErr != nil {
			ins.logger.Error("capture point rollback failed",
				"component", "redirect",
				"interface", iface,
				"error", delErr,
			)
		}
		return &InstallError{Interface: iface, Target: target.Name, Cause: err}
	}

	ins.logger.Info("redirect rule installed",
		"component", "redirect",
		"interface", iface,
		"target", target.Name,
		"priority", prio,
	)

	return nil
}

// Remove tears down this program's redirect rule on iface. It is scoped to
// owned objects: the owned filter is deleted when present, and the capture
// point itself only when no foreign filters remain on it. A bare capture
// point with no filters at all is treated as inert residue (a crashed
// install) and removed. Absence of anything is success, so Remove is
// idempotent.
func (ins *Installer) Remove(iface string) error {
	qdisc, err := ins.tc.IngressQdisc(iface)
	if err != nil {
		return fmt.Errorf("redirect: remove %s: %w", iface, err)
	}
	if qdisc == nil {
		return nil
	}

	filters, err := ins.tc.Filters(iface)
	if err != nil {
		return fmt.Errorf("redirect: remove %s: %w", iface, err)
	}

	prio := FilterPriority(iface)
	foreign := 0
	for _, f := range filters {
		if f.Priority == prio && f.Kind == FilterKind {
			if err := ins.tc.DelRedirectFilter(iface, f); err != nil {
				return fmt.Errorf("redirect: remove %s: %w", iface, err)
			}
			ins.logger.Info("redirect rule removed",
				"component", "redirect",
				"interface", iface,
			)
		} else {
			foreign++
		}
	}

	if foreign > 0 {
		// Someone else still uses the capture point; leave it in place.
		ins.logger.Warn("capture point left in place",
			"component", "redirect",
			"interface", iface,
			"foreign_filters", foreign,
		)
		return nil
	}

	if err := ins.tc.DelIngressQdisc(iface); err != nil {
		return fmt.Errorf("redirect: remove %s: %w", iface, err)
	}

	ins.logger.Debug("capture point removed",
		"component", "redirect",
		"interface", iface,
	)

	return nil
}

// Probe inspects iface's capture point without mutating anything.
func (ins *Installer) Probe(iface string) (RuleStatus, error) {
	var st RuleStatus

	qdisc, err := ins.tc.IngressQdisc(iface)
	if err != nil {
		return st, fmt.Errorf("redirect: probe %s: %w", iface, err)
	}
	if qdisc == nil {
		return st, nil
	}
	st.CapturePresent = true

	filters, err := ins.tc.Filters(iface)
	if err != nil {
		return st, fmt.Errorf("redirect: probe %s: %w", iface, err)
	}

	prio := FilterPriority(iface)
	for _, f := range filters {
		if f.Priority == prio && f.Kind == FilterKind {
			st.OwnedFilter = true
			st.RedirectTo = f.RedirectTo
		} else {
			st.ForeignFilters++
		}
	}

	return st, nil
}

// splitOwned partitions filters into the owned rule (matchall at the
// derived priority) and everything else.
func splitOwned(filters []FilterInfo, prio uint16) (*FilterInfo, []FilterInfo) {
	var owned *FilterInfo
	var foreign []FilterInfo
	for _, f := range filters {
		if f.Priority == prio && f.Kind == FilterKind && owned == nil {
			o := f
			owned = &o
			continue
		}
		foreign = append(foreign, f)
	}
	return owned, foreign
}

func describeForeign(foreign []FilterInfo) string {
	f := foreign[0]
	desc := fmt.Sprintf("foreign filter at priority %d (kind %s)", f.Priority, f.Kind)
	if len(foreign) > 1 {
		desc = fmt.Sprintf("%s and %d more", desc, len(foreign)-1)
	}
	return desc
}
