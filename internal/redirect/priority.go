package redirect

import "hash/fnv"

// FilterPriority derives the tc filter priority that identifies this
// program's redirect rule on the named interface. The priority is a pure
// function of the interface name, so repeated runs (and teardown after a
// crash) agree on which filter is ours without scanning arbitrary state.
// FNV-1a of the name is folded to 16 bits; 0 is avoided because the kernel
// treats priority 0 as "auto-assign".
func FilterPriority(iface string) uint16 {
	h := fnv.New32a()
	h.Write([]byte(iface))
	sum := h.Sum32()

	prio := uint16(sum>>16) ^ uint16(sum)
	if prio == 0 {
		return 1
	}
	return prio
}
