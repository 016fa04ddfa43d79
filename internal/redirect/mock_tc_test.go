package redirect

import (
	"log/slog"
	"sync"
)

// mockCall records a single method invocation on mockTC.
type mockCall struct {
	Method string
	Args   []interface{}
}

// mockTC is a stateful test double for TrafficControl. It keeps per-
// interface qdisc and filter tables so installs are visible to later
// queries, records all calls, and supports configurable error returns
// per method.
type mockTC struct {
	mu sync.Mutex

	// In-memory tc state, keyed by interface name.
	qdiscs  map[string]*QdiscInfo
	filters map[string][]FilterInfo

	// Call records
	calls []mockCall

	// Configurable error returns (set before test)
	ingressQdiscErr error
	addQdiscErr     error
	delQdiscErr     error
	filtersErr      error
	addFilterErr    error
	delFilterErr    error

	nextHandle uint32
}

// seedQdisc installs a capture point without recording a call.
func (m *mockTC) seedQdisc(iface string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureMaps()
	m.qdiscs[iface] = &QdiscInfo{Handle: 0xffff0000}
}

// seedFilter attaches a filter without recording a call. The capture
// point is created implicitly.
func (m *mockTC) seedFilter(iface string, f FilterInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureMaps()
	if m.qdiscs[iface] == nil {
		m.qdiscs[iface] = &QdiscInfo{Handle: 0xffff0000}
	}
	m.filters[iface] = append(m.filters[iface], f)
}

func (m *mockTC) ensureMaps() {
	if m.qdiscs == nil {
		m.qdiscs = make(map[string]*QdiscInfo)
	}
	if m.filters == nil {
		m.filters = make(map[string][]FilterInfo)
	}
}

func (m *mockTC) IngressQdisc(iface string) (*QdiscInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "IngressQdisc", Args: []interface{}{iface}})
	if m.ingressQdiscErr != nil {
		return nil, m.ingressQdiscErr
	}
	return m.qdiscs[iface], nil
}

func (m *mockTC) AddIngressQdisc(iface string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "AddIngressQdisc", Args: []interface{}{iface}})
	if m.addQdiscErr != nil {
		return m.addQdiscErr
	}
	m.ensureMaps()
	m.qdiscs[iface] = &QdiscInfo{Handle: 0xffff0000}
	return nil
}

func (m *mockTC) DelIngressQdisc(iface string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "DelIngressQdisc", Args: []interface{}{iface}})
	if m.delQdiscErr != nil {
		return m.delQdiscErr
	}
	delete(m.qdiscs, iface)
	delete(m.filters, iface)
	return nil
}

func (m *mockTC) Filters(iface string) ([]FilterInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "Filters", Args: []interface{}{iface}})
	if m.filtersErr != nil {
		return nil, m.filtersErr
	}
	out := make([]FilterInfo, len(m.filters[iface]))
	copy(out, m.filters[iface])
	return out, nil
}

func (m *mockTC) AddRedirectFilter(iface string, prio uint16, targetIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "AddRedirectFilter", Args: []interface{}{iface, prio, targetIndex}})
	if m.addFilterErr != nil {
		return m.addFilterErr
	}
	m.ensureMaps()
	m.nextHandle++
	m.filters[iface] = append(m.filters[iface], FilterInfo{
		Priority:   prio,
		Handle:     0x8000 + m.nextHandle,
		Kind:       FilterKind,
		RedirectTo: targetIndex,
	})
	return nil
}

func (m *mockTC) DelRedirectFilter(iface string, f FilterInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "DelRedirectFilter", Args: []interface{}{iface, f}})
	if m.delFilterErr != nil {
		return m.delFilterErr
	}
	kept := m.filters[iface][:0]
	for _, have := range m.filters[iface] {
		if have != f {
			kept = append(kept, have)
		}
	}
	m.filters[iface] = kept
	return nil
}

// callsFor returns all recorded calls for the given method name.
func (m *mockTC) callsFor(method string) []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []mockCall
	for _, c := range m.calls {
		if c.Method == method {
			result = append(result, c)
		}
	}
	return result
}

// mutations returns all recorded calls that change tc state.
func (m *mockTC) mutations() []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []mockCall
	for _, c := range m.calls {
		switch c.Method {
		case "AddIngressQdisc", "DelIngressQdisc", "AddRedirectFilter", "DelRedirectFilter":
			result = append(result, c)
		}
	}
	return result
}

// resetCalls clears the call record, keeping tc state.
func (m *mockTC) resetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}
