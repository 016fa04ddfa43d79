package router

import "time"

// State is the lifecycle position of one managed interface.
type State string

const (
	StateUnconfigured      State = "unconfigured"
	StateTargetReady       State = "target-ready"
	StateRedirectInstalled State = "redirect-installed"
	StateActive            State = "active"
	StateFailed            State = "failed"
)

// Op names the kind of run that produced a Report.
type Op string

const (
	OpApply    Op = "apply"
	OpTeardown Op = "teardown"
)

// Result is the final outcome of one interface in a run.
type Result struct {
	Name   string
	Role   string
	Target string
	State  State
	Err    error
}

// Report is the aggregate outcome of an Apply or Teardown run. Results
// are ordered by registration position regardless of how the run was
// scheduled.
type Report struct {
	RunID             string
	Op                Op
	StartedAt         time.Time
	FinishedAt        time.Time
	ForwardingManaged bool
	ForwardingOn      bool
	Results           []Result
}

// Failed returns the results of interfaces that ended in StateFailed.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.State == StateFailed {
			out = append(out, res)
		}
	}
	return out
}

// AllActive reports whether every interface reached StateActive.
func (r *Report) AllActive() bool {
	for _, res := range r.Results {
		if res.State != StateActive {
			return false
		}
	}
	return true
}

// VerifyResult is the read-only health assessment of one managed
// interface, derived entirely from live OS state.
type VerifyResult struct {
	Name   string
	Target string
	State  State
	Detail string // drift description, empty when nothing is off
}

// Healthy reports whether the interface is fully provisioned with no
// drift noted.
func (v VerifyResult) Healthy() bool {
	return v.State == StateActive && v.Detail == ""
}
