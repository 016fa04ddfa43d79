package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/duplexnet/duplexd/internal/ifb"
	"github.com/duplexnet/duplexd/internal/redirect"
	"github.com/duplexnet/duplexd/internal/registry"
)

// Verify inspects the live OS state of every registered interface and
// assesses which lifecycle state each is actually in. Verify never
// mutates and never repairs: drift in ambiguous host state needs an
// explicit teardown and re-apply, not a silent fix.
func (c *Controller) Verify(ctx context.Context) []VerifyResult {
	ifaces := c.reg.List()
	out := make([]VerifyResult, 0, len(ifaces))
	for i, iface := range ifaces {
		if ctx.Err() != nil {
			break
		}
		out = append(out, c.verifyOne(i, iface))
	}
	return out
}

func (c *Controller) verifyOne(position int, iface registry.Interface) VerifyResult {
	vr := VerifyResult{
		Name:   iface.Name,
		Target: c.prov.TargetName(position),
	}

	lk := c.lockFor(iface.Name)
	lk.Lock()
	defer lk.Unlock()

	dev, devErr := c.prov.Probe(position)
	haveDev := devErr == nil
	if devErr != nil && !errors.Is(devErr, ifb.ErrDeviceNotFound) {
		vr.State = StateFailed
		vr.Detail = devErr.Error()
		return vr
	}

	st, err := c.inst.Probe(iface.Name)
	if err != nil {
		vr.State = StateFailed
		vr.Detail = err.Error()
		return vr
	}

	targetOK := haveDev && dev.Kind == ifb.LinkKind
	ruleOK := st.CapturePresent && st.OwnedFilter && haveDev && st.RedirectTo == dev.Index

	switch {
	case ruleOK && targetOK && dev.Up:
		vr.State = StateActive
		if st.ForeignFilters > 0 {
			vr.Detail = fmt.Sprintf("%d foreign filters on capture point", st.ForeignFilters)
		}
	case ruleOK && targetOK:
		vr.State = StateRedirectInstalled
		vr.Detail = "target device is down"
	case targetOK && dev.Up && !st.CapturePresent:
		vr.State = StateTargetReady
		vr.Detail = "redirect rule missing"
	case !haveDev && !st.CapturePresent:
		vr.State = StateUnconfigured
	default:
		vr.State = StateFailed
		vr.Detail = describeDrift(haveDev, dev, st)
	}

	return vr
}

// describeDrift names every inconsistency found between the target device
// and the capture point.
func describeDrift(haveDev bool, dev ifb.Device, st redirect.RuleStatus) string {
	var parts []string

	switch {
	case !haveDev:
		parts = append(parts, "target device missing")
	case dev.Kind != ifb.LinkKind:
		parts = append(parts, fmt.Sprintf("target name held by %s link", dev.Kind))
	case !dev.Up:
		parts = append(parts, "target device down")
	}

	switch {
	case !st.CapturePresent:
		parts = append(parts, "capture point missing")
	case !st.OwnedFilter:
		parts = append(parts, "owned redirect rule missing from capture point")
	case haveDev && st.RedirectTo != dev.Index:
		parts = append(parts, fmt.Sprintf("rule redirects to link index %d, want %d", st.RedirectTo, dev.Index))
	}

	if st.ForeignFilters > 0 {
		parts = append(parts, fmt.Sprintf("%d foreign filters", st.ForeignFilters))
	}

	return strings.Join(parts, "; ")
}
