package router

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ripd/ripd/internal/hal"
	"github.com/ripd/ripd/internal/netorder"
	"github.com/ripd/ripd/internal/rib"
	"github.com/ripd/ripd/internal/rip"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, m *hal.Mock, ifaces []Interface) (*Router, *rib.Table) {
	t.Helper()
	table := rib.NewTable()
	cfg := Config{
		Interfaces:        ifaces,
		PeriodicInterval:  30 * time.Second,
		TriggeredHoldDown: 2 * time.Second,
		ReceiveTimeout:    time.Second,
	}
	r := New(m, table, cfg, discardLogger())
	return r, table
}

// Scenario 6: a response advertising 172.16.0.0/16 metric 3 from
// 10.0.1.2 on if=1 installs the route with metric 4, triggers an
// immediate update, and the 2s hold-down suppresses a second trigger
// 500ms later but allows one 2100ms later.
func TestHandleResponseTriggeredUpdate(t *testing.T) {
	t.Parallel()

	m := hal.NewMock()
	ifaces := []Interface{
		{Addr: 0x0200000A, IfIndex: 1}, // 10.0.0.2, the receiving interface
		{Addr: 0x0200010A, IfIndex: 2}, // 10.1.0.2, a second interface
	}
	r, table := newTestRouter(t, m, ifaces)

	const neighbor = 0x0201000A // 10.0.1.2, stored
	const addr = 0x000010AC     // 172.16.0.0, stored (bytes 172,16,0,0)

	entry := rip.Entry{
		Addr:    addr,
		Mask:    netorder.StoredMaskFromLen(16),
		Nexthop: 0,
		Metric:  netorder.Swap32(3),
	}
	p := rip.Packet{Command: rip.CommandResponse, Entries: []rip.Entry{entry}}

	m.SetTicks(0)
	r.handleResponse(context.Background(), p, 1, neighbor)

	got, ok := table.Query(addr)
	if !ok {
		t.Fatal("route was not installed")
	}
	if got.Metric != 4 || got.Nexthop != neighbor || got.IfIndex != 1 || got.Len != 16 {
		t.Errorf("installed entry = %+v, want metric=4 nexthop=%#x ifIndex=1 len=16", got, uint32(neighbor))
	}
	if len(m.Sent) == 0 {
		t.Fatal("no triggered update was sent")
	}
	firstSentCount := len(m.Sent)

	// A second response 500ms later must not cause another triggered send.
	m.SetTicks(500)
	r.handleResponse(context.Background(), p, 1, neighbor)
	if len(m.Sent) != firstSentCount {
		t.Errorf("triggered update sent again within hold-down: %d sends, want %d", len(m.Sent), firstSentCount)
	}

	// One 2100ms after the first must trigger again.
	m.SetTicks(2100)
	r.handleResponse(context.Background(), p, 1, neighbor)
	if len(m.Sent) <= firstSentCount {
		t.Error("no triggered update sent after hold-down elapsed")
	}
}

func TestReplyToRequestNoSplitHorizon(t *testing.T) {
	t.Parallel()

	m := hal.NewMock()
	ifaces := []Interface{{Addr: 0x0200000A, IfIndex: 1}}
	r, table := newTestRouter(t, m, ifaces)
	table.Upsert(rib.Entry{Addr: 0x0000000A, Len: 8, IfIndex: 1, Metric: 1})

	r.replyToRequest(context.Background(), 1, 0x0500000A)

	if len(m.Sent) == 0 {
		t.Fatal("no reply sent")
	}
	if m.Sent[0].IfIndex != 1 {
		t.Errorf("reply sent out if %d, want 1", m.Sent[0].IfIndex)
	}
}

func TestTransitForwardDropsOnMiss(t *testing.T) {
	t.Parallel()

	m := hal.NewMock()
	r, _ := newTestRouter(t, m, []Interface{{Addr: 0x0200000A, IfIndex: 1}})

	pkt := []byte{
		0x45, 0x00, 0x00, 0x14, 0x00, 0x00, 0x00, 0x00, 0x40, 0x06, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x0A, 0x02, 0x00, 0x00, 0xC8,
	}
	recomputeChecksum(pkt)

	r.handleTransit(context.Background(), pkt, hal.Frame{IfIndex: 1})
	if len(m.Sent) != 0 {
		t.Error("forwarded a packet with no matching route")
	}
}

func TestTransitForwardsWithRoute(t *testing.T) {
	t.Parallel()

	m := hal.NewMock()
	r, table := newTestRouter(t, m, []Interface{{Addr: 0x0200000A, IfIndex: 1}})
	table.Upsert(rib.Entry{Addr: 0x0000000A, Len: 8, IfIndex: 1, Nexthop: 0, Metric: 1})

	pkt := []byte{
		0x45, 0x00, 0x00, 0x14, 0x00, 0x00, 0x00, 0x00, 0x40, 0x06, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x0A, 0x0A, 0x05, 0x00, 0xC8, // dst 10.5.0.200, within 10.0.0.0/8
	}
	recomputeChecksum(pkt)

	r.handleTransit(context.Background(), pkt, hal.Frame{IfIndex: 1})
	if len(m.Sent) != 1 {
		t.Fatalf("got %d sends, want 1", len(m.Sent))
	}
	if m.Sent[0].Payload[8] != 0x3F {
		t.Errorf("forwarded TTL = %#x, want 0x3f", m.Sent[0].Payload[8])
	}
}

func TestTransitDropsTTLZero(t *testing.T) {
	t.Parallel()

	m := hal.NewMock()
	r, table := newTestRouter(t, m, []Interface{{Addr: 0x0200000A, IfIndex: 1}})
	table.Upsert(rib.Entry{Addr: 0x0000000A, Len: 8, IfIndex: 1, Nexthop: 0, Metric: 1})

	pkt := []byte{
		0x45, 0x00, 0x00, 0x14, 0x00, 0x00, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x0A, 0x0A, 0x05, 0x00, 0xC8, // dst 10.5.0.200, within 10.0.0.0/8
	}
	recomputeChecksum(pkt)

	r.handleTransit(context.Background(), pkt, hal.Frame{IfIndex: 1})
	if len(m.Sent) != 0 {
		t.Error("forwarded a packet with TTL 0")
	}
}

func recomputeChecksum(pkt []byte) {
	pkt[10], pkt[11] = 0, 0
	var sum uint32
	for i := 0; i+1 < 20; i += 2 {
		sum += uint32(pkt[i])<<8 | uint32(pkt[i+1])
		sum = (sum & 0xffff) + (sum >> 16)
	}
	cs := ^uint16(sum)
	pkt[10] = byte(cs >> 8)
	pkt[11] = byte(cs)
}
