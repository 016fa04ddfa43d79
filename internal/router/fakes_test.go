package router

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/duplexnet/duplexd/internal/ifb"
	"github.com/duplexnet/duplexd/internal/redirect"
)

// fakeHost is an in-memory stand-in for the host networking facilities.
// It implements ifb.Controller, redirect.TrafficControl and
// forward.Controller over shared state so a Controller wired to it
// exercises the real provisioner and installer end to end, and records
// every mutating call so tests can assert convergence.
type fakeHost struct {
	mu sync.Mutex

	links      map[string]ifb.Device
	qdiscs     map[string]bool
	filters    map[string][]redirect.FilterInfo
	forwarding bool

	nextIndex int
	mutations []string

	// Configurable failures (set before test)
	createErr       map[string]error // keyed by device name
	forwardReadErr  error
	forwardWriteErr error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		links:     make(map[string]ifb.Device),
		qdiscs:    make(map[string]bool),
		filters:   make(map[string][]redirect.FilterInfo),
		createErr: make(map[string]error),
	}
}

// --- ifb.Controller ---

func (h *fakeHost) LookupDevice(name string) (ifb.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	dev, ok := h.links[name]
	if !ok {
		return ifb.Device{}, ifb.ErrDeviceNotFound
	}
	return dev, nil
}

func (h *fakeHost) CreateDevice(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, "CreateDevice "+name)
	if err := h.createErr[name]; err != nil {
		return err
	}
	h.nextIndex++
	h.links[name] = ifb.Device{Name: name, Index: 100 + h.nextIndex, Kind: ifb.LinkKind}
	return nil
}

func (h *fakeHost) SetDeviceUp(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, "SetDeviceUp "+name)
	if dev, ok := h.links[name]; ok {
		dev.Up = true
		h.links[name] = dev
	}
	return nil
}

func (h *fakeHost) DeleteDevice(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, "DeleteDevice "+name)
	delete(h.links, name)
	return nil
}

// --- redirect.TrafficControl ---

func (h *fakeHost) IngressQdisc(iface string) (*redirect.QdiscInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.qdiscs[iface] {
		return nil, nil
	}
	return &redirect.QdiscInfo{Handle: 0xffff0000}, nil
}

func (h *fakeHost) AddIngressQdisc(iface string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, "AddIngressQdisc "+iface)
	h.qdiscs[iface] = true
	return nil
}

func (h *fakeHost) DelIngressQdisc(iface string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, "DelIngressQdisc "+iface)
	delete(h.qdiscs, iface)
	delete(h.filters, iface)
	return nil
}

func (h *fakeHost) Filters(iface string) ([]redirect.FilterInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]redirect.FilterInfo, len(h.filters[iface]))
	copy(out, h.filters[iface])
	return out, nil
}

func (h *fakeHost) AddRedirectFilter(iface string, prio uint16, targetIndex int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, fmt.Sprintf("AddRedirectFilter %s prio=%d target=%d", iface, prio, targetIndex))
	h.filters[iface] = append(h.filters[iface], redirect.FilterInfo{
		Priority:   prio,
		Handle:     uint32(0x8000 + len(h.filters[iface]) + 1),
		Kind:       redirect.FilterKind,
		RedirectTo: targetIndex,
	})
	return nil
}

func (h *fakeHost) DelRedirectFilter(iface string, f redirect.FilterInfo) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, fmt.Sprintf("DelRedirectFilter %s prio=%d", iface, f.Priority))
	kept := h.filters[iface][:0]
	for _, have := range h.filters[iface] {
		if have != f {
			kept = append(kept, have)
		}
	}
	h.filters[iface] = kept
	return nil
}

// --- forward.Controller ---

func (h *fakeHost) Forwarding() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.forwardReadErr != nil {
		return false, h.forwardReadErr
	}
	return h.forwarding, nil
}

func (h *fakeHost) SetForwarding(enable bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, fmt.Sprintf("SetForwarding %t", enable))
	if h.forwardWriteErr != nil {
		return h.forwardWriteErr
	}
	h.forwarding = enable
	return nil
}

// --- test helpers ---

// seedDevice inserts a link without recording a mutation.
func (h *fakeHost) seedDevice(dev ifb.Device) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.links[dev.Name] = dev
}

// seedFilter attaches a filter (and its capture point) without recording
// a mutation.
func (h *fakeHost) seedFilter(iface string, f redirect.FilterInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.qdiscs[iface] = true
	h.filters[iface] = append(h.filters[iface], f)
}

// dropDevice removes a link behind the controller's back.
func (h *fakeHost) dropDevice(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.links, name)
}

// downDevice flips a link down behind the controller's back.
func (h *fakeHost) downDevice(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if dev, ok := h.links[name]; ok {
		dev.Up = false
		h.links[name] = dev
	}
}

// clearTC removes iface's capture point and filters behind the
// controller's back.
func (h *fakeHost) clearTC(iface string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.qdiscs, iface)
	delete(h.filters, iface)
}

func (h *fakeHost) mutationLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.mutations))
	copy(out, h.mutations)
	return out
}

func (h *fakeHost) resetMutations() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = nil
}

func (h *fakeHost) device(name string) (ifb.Device, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	dev, ok := h.links[name]
	return dev, ok
}

func (h *fakeHost) deviceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.links)
}

func (h *fakeHost) hasQdisc(iface string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.qdiscs[iface]
}

func (h *fakeHost) filterCount(iface string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.filters[iface])
}

func (h *fakeHost) forwardingOn() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.forwarding
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}
