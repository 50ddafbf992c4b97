package rib

import (
	"github.com/ripd/ripd/internal/netorder"
	"github.com/ripd/ripd/internal/rip"
)

// dumpBatchSize is the number of entries Dump packs into one packet
// before rolling to the next. This is one less than rip.MaxEntries
// (the wire-format ceiling of 25 entries per packet): the reference
// implementation's get_packet (lookup.cpp) rolls over at 24, leaving
// headroom that this implementation preserves rather than packing
// every packet to the wire limit.
const dumpBatchSize = rip.MaxEntries - 1

// Dump renders every entry whose IfIndex does not equal excludeIfIndex
// into a sequence of RIP response packets (split horizon). Each packet
// carries at most dumpBatchSize entries; an excludeIfIndex of -1
// disables the exclusion (used for direct replies to a RIP request,
// which carry no split horizon).
//
// For each entry, Mask is derived from Len as a prefix mask in storage
// convention; Addr, Nexthop, and Metric are carried over, with Metric
// converted from its host-order table representation to the big-endian
// wire form RIP entries use.
func (t *Table) Dump(excludeIfIndex int) []rip.Packet {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var packets []rip.Packet
	var current []rip.Entry

	for _, e := range t.entries {
		if e.IfIndex == excludeIfIndex {
			continue
		}
		current = append(current, rip.Entry{
			Addr:    e.Addr,
			Mask:    netorder.StoredMaskFromLen(e.Len),
			Nexthop: e.Nexthop,
			Metric:  netorder.Swap32(uint32(e.Metric)),
		})
		if len(current) == dumpBatchSize {
			packets = append(packets, rip.Packet{Command: rip.CommandResponse, Entries: current})
			current = nil
		}
	}
	if len(current) > 0 || len(packets) == 0 {
		packets = append(packets, rip.Packet{Command: rip.CommandResponse, Entries: current})
	}
	return packets
}
