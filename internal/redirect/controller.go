// Package redirect installs the tc objects that steer a physical
// interface's ingress stream onto its paired virtual target: an ingress
// qdisc as the capture point plus one matchall filter whose sole action is
// a mirred egress redirect. Redirect means steal, not copy — exactly one
// instance of each packet continues through the stack, via the target.
package redirect

// FilterKind is the tc filter kind of the rules this package installs.
const FilterKind = "matchall"

// QdiscInfo describes an ingress qdisc found on an interface.
type QdiscInfo struct {
	Handle uint32
	Parent uint32
}

// FilterInfo describes one tc filter attached to an interface's capture
// point. RedirectTo is the link index a mirred egress-redirect action
// points at, or 0 when the filter carries no such action.
type FilterInfo struct {
	Priority   uint16
	Protocol   uint16
	Handle     uint32
	Kind       string
	RedirectTo int
}

// TrafficControl abstracts the tc ingress plumbing for testability.
type TrafficControl interface {
	// IngressQdisc returns the ingress qdisc on iface, or nil when there is
	// none. A missing interface is reported as no capture point; mutating
	// calls surface the missing interface instead.
	IngressQdisc(iface string) (*QdiscInfo, error)
	AddIngressQdisc(iface string) error
	// DelIngressQdisc removes iface's ingress qdisc.
	// Implementations must be idempotent: removing an absent qdisc must return nil.
	DelIngressQdisc(iface string) error
	// Filters lists the filters attached to iface's capture point.
	Filters(iface string) ([]FilterInfo, error)
	// AddRedirectFilter installs a matchall filter at the given priority
	// whose single action redirects (steals) every packet to the link with
	// index targetIndex.
	AddRedirectFilter(iface string, prio uint16, targetIndex int) error
	// DelRedirectFilter removes a previously listed filter.
	// Implementations must be idempotent: removing an absent filter must return nil.
	DelRedirectFilter(iface string, f FilterInfo) error
}
