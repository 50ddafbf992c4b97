// Package rib implements the C4 component: the routing table.
//
// The source keeps routes in a singly-linked list; this is a contiguous
// growable slice instead (an equivalent-behavior, strictly cheaper
// representation -- see DESIGN.md). A single mutex guards it, since the
// control loop in internal/router mutates it from one goroutine while
// the admin HTTP surface may read a snapshot from another.
package rib

import (
	"fmt"
	"sync"

	"github.com/ripd/ripd/internal/netorder"
)

// Entry is one routing table entry. Addr and Nexthop are held in the
// repository's big-endian storage convention (see internal/netorder);
// Len, IfIndex, and Metric are ordinary host-order integers.
type Entry struct {
	Addr    uint32
	Len     int
	IfIndex int
	Nexthop uint32 // 0 means "direct" (no next hop, on-link)
	Metric  int
}

// String renders e as "addr/len via nexthop if=N metric=M", using
// dotted-quad for the addresses; a direct entry (Nexthop 0) renders the
// nexthop as "direct" rather than 0.0.0.0.
func (e Entry) String() string {
	nh := "direct"
	if e.Nexthop != 0 {
		nh = netorder.Addr(e.Nexthop).String()
	}
	return fmt.Sprintf("%s/%d via %s if=%d metric=%d",
		netorder.Addr(e.Addr), e.Len, nh, e.IfIndex, e.Metric)
}

// key identifies an entry for upsert/withdraw purposes: the pair
// (Addr, Len) must be unique across the table.
type key struct {
	addr uint32
	len  int
}

// Table is the routing table: an unordered collection of entries keyed
// by (Addr, Len).
type Table struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewTable returns an empty routing table.
func NewTable() *Table {
	return &Table{}
}

// Upsert installs e. If an entry with the same (Addr, Len) already
// exists, its IfIndex, Nexthop, and Metric are overwritten in place;
// otherwise e is appended.
func (t *Table) Upsert(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].Addr == e.Addr && t.entries[i].Len == e.Len {
			t.entries[i].IfIndex = e.IfIndex
			t.entries[i].Nexthop = e.Nexthop
			t.entries[i].Metric = e.Metric
			return
		}
	}
	t.entries = append(t.entries, e)
}

// Withdraw removes the entry keyed by (addr, len). It is a no-op if no
// such entry exists.
func (t *Table) Withdraw(addr uint32, len int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].Addr == addr && t.entries[i].Len == len {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Query performs a longest-prefix-match lookup for addr (in storage
// convention). Among entries whose prefix matches addr and whose Len is
// maximal, the last one encountered in iteration order wins -- ties are
// broken by table order, not by any secondary key.
func (t *Table) Query(addr uint32) (e Entry, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bestLen := -1
	for _, cand := range t.entries {
		mask := netorder.StoredMaskFromLen(cand.Len)
		if addr&mask != cand.Addr&mask {
			continue
		}
		if cand.Len >= bestLen {
			bestLen = cand.Len
			e = cand
			ok = true
		}
	}
	return e, ok
}

// Snapshot returns a copy of every entry currently in the table, for the
// admin surface to render. The order is unspecified.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
