package ifb

import (
	"log/slog"
	"sync"
)

// mockCall records a single method invocation on mockController.
type mockCall struct {
	Method string
	Args   []interface{}
}

// mockController is a stateful test double for Controller. It keeps an
// in-memory link table so created devices are visible to later lookups,
// records all calls, and supports configurable error returns per method.
type mockController struct {
	mu sync.Mutex

	// In-memory link table, keyed by name.
	devices map[string]Device

	// Call records
	calls []mockCall

	// Configurable error returns (set before test)
	lookupErr error
	createErr error
	setUpErr  error
	deleteErr error

	nextIndex int
}

// seed inserts a link without recording a call, simulating pre-existing
// host state.
func (m *mockController) seed(dev Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.devices == nil {
		m.devices = make(map[string]Device)
	}
	m.devices[dev.Name] = dev
}

func (m *mockController) LookupDevice(name string) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "LookupDevice", Args: []interface{}{name}})
	if m.lookupErr != nil {
		return Device{}, m.lookupErr
	}
	dev, ok := m.devices[name]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}
	return dev, nil
}

func (m *mockController) CreateDevice(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "CreateDevice", Args: []interface{}{name}})
	if m.createErr != nil {
		return m.createErr
	}
	if m.devices == nil {
		m.devices = make(map[string]Device)
	}
	m.nextIndex++
	m.devices[name] = Device{Name: name, Index: 100 + m.nextIndex, Up: false, Kind: LinkKind}
	return nil
}

func (m *mockController) SetDeviceUp(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "SetDeviceUp", Args: []interface{}{name}})
	if m.setUpErr != nil {
		return m.setUpErr
	}
	if dev, ok := m.devices[name]; ok {
		dev.Up = true
		m.devices[name] = dev
	}
	return nil
}

func (m *mockController) DeleteDevice(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: "DeleteDevice", Args: []interface{}{name}})
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.devices, name)
	return nil
}

// callsFor returns all recorded calls for the given method name.
func (m *mockController) callsFor(method string) []mockCall {
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

// mutations returns all recorded calls that change link state.
func (m *mockController) mutations() []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []mockCall
	for _, c := range m.calls {
		switch c.Method {
		case "CreateDevice", "SetDeviceUp", "DeleteDevice":
			result = append(result, c)
		}
	}
	return result
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}
