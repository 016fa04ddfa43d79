package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/duplexnet/duplexd/internal/router"
)

// Verifier assesses the live state of every managed interface without
// mutating anything.
type Verifier interface {
	Verify(ctx context.Context) []router.VerifyResult
}

// Supervisor re-verifies provisioned interfaces on a fixed interval and
// keeps the state file's verification stamp current. It never repairs
// drift; it surfaces it in the log so an operator can decide between
// teardown-and-retry and leaving the host alone.
type Supervisor struct {
	verifier  Verifier
	state     *StateFile
	dataDir   string
	interval  time.Duration
	logger    *slog.Logger
	triggerCh chan struct{}
}

// NewSupervisor creates a Supervisor over an applied state snapshot.
func NewSupervisor(verifier Verifier, state *StateFile, dataDir string, interval time.Duration, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		verifier:  verifier,
		state:     state,
		dataDir:   dataDir,
		interval:  interval,
		logger:    logger,
		triggerCh: make(chan struct{}, 1),
	}
}

// TriggerVerify requests an immediate verification cycle.
// Multiple rapid calls are coalesced — only one extra cycle runs.
func (s *Supervisor) TriggerVerify() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
		// Already a trigger pending; coalesce.
	}
}

// Run starts the verification loop. It blocks until ctx is cancelled.
// The first cycle runs immediately; subsequent cycles run at the
// configured interval or when TriggerVerify is called.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.verifier == nil {
		return errors.New("daemon: supervisor: verifier is nil")
	}

	s.logger.Info("supervisor started",
		"component", "supervisor",
		"interval", s.interval,
	)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("supervisor stopped", "component", "supervisor")
			return ctx.Err()

		case <-ticker.C:
			s.runCycle(ctx)

		case <-s.triggerCh:
			s.runCycle(ctx)
			// Reset the ticker after a triggered cycle.
			ticker.Reset(s.interval)
		}
	}
}

// runCycle performs a single verification pass. A fully healthy pass
// stamps and rewrites the state file; a drifted pass logs each drifted
// interface and leaves the stamp at the last clean cycle.
func (s *Supervisor) runCycle(ctx context.Context) {
	start := time.Now()

	results := s.verifier.Verify(ctx)
	if ctx.Err() != nil {
		return
	}

	healthy := 0
	for _, vr := range results {
		if vr.Healthy() {
			healthy++
			continue
		}
		s.logger.Warn("interface drifted",
			"component", "supervisor",
			"interface", vr.Name,
			"target", vr.Target,
			"state", string(vr.State),
			"detail", vr.Detail,
		)
	}

	if healthy == len(results) {
		s.state.MarkVerified(time.Now())
		if err := s.state.Write(s.dataDir); err != nil {
			s.logger.Warn("state file update failed",
				"component", "supervisor",
				"error", err,
			)
		}
	}

	s.logger.Info("verification cycle complete",
		"component", "supervisor",
		"interfaces", len(results),
		"drifted", len(results)-healthy,
		"duration", time.Since(start),
	)
}
