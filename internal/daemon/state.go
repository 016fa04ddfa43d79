package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/duplexnet/duplexd/internal/fsutil"
	"github.com/duplexnet/duplexd/internal/router"
)

// StateFileName is the name of the run snapshot inside DataDir.
const StateFileName = "state.json"

// InterfaceState is the persisted outcome of one managed interface.
type InterfaceState struct {
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Target string `json:"target"`
	State  string `json:"state"`
	Error  string `json:"error,omitempty"`
}

// StateFile is the JSON snapshot written after every apply and teardown
// run. External shaping tooling reads it to learn which virtual target
// carries which interface's ingress, so its layout is a stable contract.
type StateFile struct {
	RunID             string           `json:"run_id"`
	Op                string           `json:"op"`
	StartedAt         time.Time        `json:"started_at"`
	FinishedAt        time.Time        `json:"finished_at"`
	ForwardingManaged bool             `json:"forwarding_managed"`
	ForwardingOn      bool             `json:"forwarding_on"`
	Interfaces        []InterfaceState `json:"interfaces"`

	// VerifiedAt is the time of the latest clean supervisor
	// verification cycle, absent outside supervised runs.
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// StateFromReport converts a run report into its persisted form.
func StateFromReport(rep *router.Report) *StateFile {
	s := &StateFile{
		RunID:             rep.RunID,
		Op:                string(rep.Op),
		StartedAt:         rep.StartedAt,
		FinishedAt:        rep.FinishedAt,
		ForwardingManaged: rep.ForwardingManaged,
		ForwardingOn:      rep.ForwardingOn,
		Interfaces:        make([]InterfaceState, 0, len(rep.Results)),
	}
	for _, res := range rep.Results {
		is := InterfaceState{
			Name:   res.Name,
			Role:   res.Role,
			Target: res.Target,
			State:  string(res.State),
		}
		if res.Err != nil {
			is.Error = res.Err.Error()
		}
		s.Interfaces = append(s.Interfaces, is)
	}
	return s
}

// MarkVerified stamps the snapshot with a clean verification time.
func (s *StateFile) MarkVerified(at time.Time) {
	s.VerifiedAt = &at
}

// Failed returns the interfaces that ended in the failed state.
func (s *StateFile) Failed() []InterfaceState {
	var out []InterfaceState
	for _, is := range s.Interfaces {
		if is.State == string(router.StateFailed) {
			out = append(out, is)
		}
	}
	return out
}

// AllActive reports whether every interface reached the active state.
func (s *StateFile) AllActive() bool {
	for _, is := range s.Interfaces {
		if is.State != string(router.StateActive) {
			return false
		}
	}
	return true
}

// Write persists the snapshot under dir atomically, creating dir when
// absent. The file is world-readable; it carries no secrets and other
// tooling consumes it.
func (s *StateFile) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("daemon: state: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("daemon: state: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(filepath.Join(dir, StateFileName), data, 0o644); err != nil {
		return fmt.Errorf("daemon: state: write %s: %w", StateFileName, err)
	}
	return nil
}

// LoadState reads the snapshot back from dir.
func LoadState(dir string) (*StateFile, error) {
	path := filepath.Join(dir, StateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("daemon: state: read %s: %w", path, err)
	}
	var s StateFile
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("daemon: state: parse %s: %w", path, err)
	}
	return &s, nil
}
