// Package router implements the C5 component: the single-threaded,
// single-flow control loop that ties the checksum engine (internal/
// checksum), the IPv4 header processor (internal/ipv4), the RIP codec
// (internal/rip), and the routing table (internal/rib) to a hardware
// abstraction layer (internal/hal).
//
// Run owns exactly one goroutine's worth of state: no mutex guards
// anything in this package except indirectly, through rib.Table, which
// the admin HTTP surface also reads from a different goroutine.
package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/ripd/ripd/internal/hal"
	"github.com/ripd/ripd/internal/ipv4"
	"github.com/ripd/ripd/internal/netorder"
	"github.com/ripd/ripd/internal/rib"
	"github.com/ripd/ripd/internal/rip"
)

// Interface is one local, RIP-speaking interface.
type Interface struct {
	Addr    uint32 // big-endian storage
	IfIndex int
}

// Config bundles the control loop's timing and topology parameters.
type Config struct {
	Interfaces []Interface

	// PeriodicInterval is how often a full-table dump is advertised out
	// every interface. The source uses 5s; a comment suggests 30s per
	// RFC 2453 Section 3.8. This implementation defaults to 30s and
	// treats 5s purely as a test-acceleration value -- see DESIGN.md.
	PeriodicInterval time.Duration

	// TriggeredHoldDown bounds how often a triggered update may be
	// emitted: at least this much time must elapse between two
	// consecutive triggered emissions.
	TriggeredHoldDown time.Duration

	// ReceiveTimeout bounds each call to HAL.Receive.
	ReceiveTimeout time.Duration
}

// DefaultConfig returns the RFC-matching defaults (30s periodic, 2s
// triggered hold-down, 1s receive timeout).
func DefaultConfig() Config {
	return Config{
		PeriodicInterval:  30 * time.Second,
		TriggeredHoldDown: 2 * time.Second,
		ReceiveTimeout:    time.Second,
	}
}

// Metrics is the subset of internal/metrics.Collector the control loop
// drives. Kept as an interface so router tests need not depend on a
// running Prometheus registry.
type Metrics interface {
	IncReceived()
	IncSent()
	IncDropped(reason string)
	IncTriggeredUpdates()
	IncPeriodicUpdates()
	SetRoutes(direct, learned int)
}

type noopMetrics struct{}

func (noopMetrics) IncReceived()         {}
func (noopMetrics) IncSent()             {}
func (noopMetrics) IncDropped(string)    {}
func (noopMetrics) IncTriggeredUpdates() {}
func (noopMetrics) IncPeriodicUpdates()  {}
func (noopMetrics) SetRoutes(int, int)   {}

// bufSize is the reused scratch buffer size: large enough for any frame
// this router ever builds or parses (20 IPv4 + 8 UDP + 4 RIP header +
// 25*20 RIP entries = 532 bytes, rounded well up for headroom).
const bufSize = 2048

// Router runs the control loop described in package doc.
type Router struct {
	hal     hal.HAL
	table   *rib.Table
	cfg     Config
	log     *slog.Logger
	metrics Metrics

	lastPeriodic  int64
	lastTriggered int64

	inBuf  []byte
	outBuf []byte
}

// Option configures optional Router fields.
type Option func(*Router)

// WithMetrics wires a Metrics sink; the default is a no-op.
func WithMetrics(m Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New builds a Router over table, wired to hal for frame I/O. Direct
// routes for cfg.Interfaces are not installed here; call InstallDirectRoutes
// for that (kept separate so tests can build a table with arbitrary
// contents instead).
func New(h hal.HAL, table *rib.Table, cfg Config, log *slog.Logger, opts ...Option) *Router {
	if cfg.PeriodicInterval <= 0 {
		cfg.PeriodicInterval = 30 * time.Second
	}
	if cfg.TriggeredHoldDown <= 0 {
		cfg.TriggeredHoldDown = 2 * time.Second
	}
	if cfg.ReceiveTimeout <= 0 {
		cfg.ReceiveTimeout = time.Second
	}
	r := &Router{
		hal:     h,
		table:   table,
		cfg:     cfg,
		log:     log,
		metrics: noopMetrics{},
		inBuf:   make([]byte, bufSize),
		outBuf:  make([]byte, bufSize),

		// No triggered update has been sent yet, so the hold-down starts
		// out already elapsed and the first one goes out immediately.
		lastTriggered: -cfg.TriggeredHoldDown.Milliseconds(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InstallDirectRoutes installs, for each configured interface, a direct
// route covering its /24 network with nexthop 0 and metric 1 (§6.5 boot
// configuration).
func (r *Router) InstallDirectRoutes() {
	for _, iface := range r.cfg.Interfaces {
		network := iface.Addr & netorder.StoredMaskFromLen(24)
		r.table.Upsert(rib.Entry{
			Addr:    network,
			Len:     24,
			IfIndex: iface.IfIndex,
			Nexthop: 0,
			Metric:  1,
		})
	}
	r.reportRoutes()
}

// reportRoutes recomputes the direct/learned split over the current
// table and reports it to r.metrics.
func (r *Router) reportRoutes() {
	var direct, learned int
	for _, e := range r.table.Snapshot() {
		if e.Nexthop == 0 {
			direct++
		} else {
			learned++
		}
	}
	r.metrics.SetRoutes(direct, learned)
}

func (r *Router) localAddrs() []uint32 {
	addrs := make([]uint32, len(r.cfg.Interfaces))
	for i, iface := range r.cfg.Interfaces {
		addrs[i] = iface.Addr
	}
	return addrs
}

// isLocal reports whether dst names this router (any configured
// interface address) or the RIP multicast group.
func (r *Router) isLocal(dst uint32) bool {
	if dst == rip.MulticastAddr {
		return true
	}
	for _, iface := range r.cfg.Interfaces {
		if iface.Addr == dst {
			return true
		}
	}
	return false
}

// Run drives the control loop until ctx is canceled or the HAL reports
// end of file. It returns nil on either clean termination, and a
// non-nil error only when the HAL itself returns an unrecoverable error.
func (r *Router) Run(ctx context.Context) error {
	if err := r.hal.Init(ctx, r.localAddrs()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if r.hal.Ticks()-r.lastPeriodic >= r.cfg.PeriodicInterval.Milliseconds() {
			r.emitFullDump(ctx, -1)
			r.lastPeriodic = r.hal.Ticks()
			r.metrics.IncPeriodicUpdates()
		}

		frame, ok, err := r.hal.Receive(ctx, r.cfg.ReceiveTimeout)
		if err != nil {
			if err == hal.ErrEndOfFile || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !ok {
			continue
		}
		r.metrics.IncReceived()
		r.handleFrame(ctx, frame)
	}
}

func (r *Router) handleFrame(ctx context.Context, frame hal.Frame) {
	packet := frame.Payload
	if len(packet) < ipv4.HeaderSize {
		r.metrics.IncDropped("short_frame")
		r.log.Warn("dropped frame", "reason", "short_frame", "if_index", frame.IfIndex, "len", len(packet))
		return
	}
	if !ipv4.ValidateHeader(packet, len(packet)) {
		r.metrics.IncDropped("bad_checksum")
		r.log.Warn("dropped frame", "reason", "bad_checksum", "if_index", frame.IfIndex,
			"src", netorder.Addr(ipv4.SourceAddr(packet)), "dst", netorder.Addr(ipv4.DestinationAddr(packet)))
		return
	}

	dst := ipv4.DestinationAddr(packet)
	if r.isLocal(dst) {
		r.handleLocal(ctx, packet, frame)
		return
	}
	r.handleTransit(ctx, packet, frame)
}

func (r *Router) handleLocal(ctx context.Context, packet []byte, frame hal.Frame) {
	src := ipv4.SourceAddr(packet)

	p, err := rip.Disassemble(packet, len(packet))
	if err != nil {
		r.metrics.IncDropped("rip_malformed")
		r.log.Warn("dropped frame", "reason", "rip_malformed", "if_index", frame.IfIndex,
			"src", netorder.Addr(src), "error", err)
		return
	}

	switch p.Command {
	case rip.CommandRequest:
		r.replyToRequest(ctx, frame.IfIndex, src)
	case rip.CommandResponse:
		r.handleResponse(ctx, p, frame.IfIndex, src)
	}
}

// replyToRequest answers a RIP request with a full-table dump, no split
// horizon, addressed directly back to the requester.
func (r *Router) replyToRequest(ctx context.Context, ifIndex int, dst uint32) {
	ifaceAddr := r.addrOf(ifIndex)
	packets := r.table.Dump(-1)
	for _, p := range packets {
		r.sendRIP(ctx, p, ifIndex, ifaceAddr, dst)
	}
}

// handleResponse applies the merge rules of spec.md §4.5 step 5 and
// emits a triggered update if anything installed and the hold-down has
// elapsed.
func (r *Router) handleResponse(ctx context.Context, p rip.Packet, ifIndex int, neighbor uint32) {
	triggered := false

	for _, e := range p.Entries {
		metric := netorder.Swap32(e.Metric)
		if metric >= 15 {
			continue
		}
		newMetric := int(metric) + 1
		prefixLen := netorder.StoredMaskLen(e.Mask)

		existing, exists := r.table.Query(e.Addr)
		install := false
		switch {
		case !exists:
			install = true
		case existing.Nexthop == neighbor:
			install = true
		case newMetric < existing.Metric:
			install = true
		}

		if install {
			r.table.Upsert(rib.Entry{
				Addr:    e.Addr & netorder.StoredMaskFromLen(prefixLen),
				Len:     prefixLen,
				IfIndex: ifIndex,
				Nexthop: neighbor,
				Metric:  newMetric,
			})
			triggered = true
		}
	}

	if triggered {
		r.reportRoutes()
		if r.hal.Ticks()-r.lastTriggered >= r.cfg.TriggeredHoldDown.Milliseconds() {
			r.emitFullDump(ctx, ifIndex)
			r.lastTriggered = r.hal.Ticks()
			r.metrics.IncTriggeredUpdates()
		}
	}
}

// emitFullDump sends a full-table dump out every configured interface
// except excludeIfIndex (-1 excludes none), addressed to the RIP
// multicast group.
func (r *Router) emitFullDump(ctx context.Context, excludeIfIndex int) {
	for _, iface := range r.cfg.Interfaces {
		if iface.IfIndex == excludeIfIndex {
			continue
		}
		packets := r.table.Dump(iface.IfIndex)
		for _, p := range packets {
			r.sendRIP(ctx, p, iface.IfIndex, iface.Addr, rip.MulticastAddr)
		}
	}
}

// sendRIP assembles p, wraps it in UDP and IPv4 headers (src, dst), and
// transmits it out ifIndex after resolving dst's MAC via ARP.
func (r *Router) sendRIP(ctx context.Context, p rip.Packet, ifIndex int, src, dst uint32) {
	buf := r.outBuf[:cap(r.outBuf)]

	ripLen, err := rip.Assemble(p, buf)
	if err != nil {
		r.log.Warn("assemble rip payload failed", "error", err)
		return
	}
	udpLen, err := rip.AssembleUDP(buf, ripLen)
	if err != nil {
		r.log.Warn("assemble udp header failed", "error", err)
		return
	}
	totalLen, err := rip.AssembleIP(buf, udpLen, src, dst)
	if err != nil {
		r.log.Warn("assemble ip header failed", "error", err)
		return
	}

	mac, err := r.hal.ArpLookup(ctx, ifIndex, dst)
	if err != nil {
		r.metrics.IncDropped("arp_miss")
		r.log.Warn("dropped rip packet", "reason", "arp_miss", "if_index", ifIndex,
			"dst", netorder.Addr(dst), "error", err)
		return
	}
	if err := r.hal.Send(ctx, ifIndex, buf[:totalLen], mac); err != nil {
		r.log.Warn("send failed", "if_index", ifIndex, "error", err)
		return
	}
	r.metrics.IncSent()
}

// handleTransit forwards a unicast datagram not addressed to this
// router: longest-prefix lookup, ARP resolution, TTL/checksum rewrite,
// transmit.
func (r *Router) handleTransit(ctx context.Context, packet []byte, frame hal.Frame) {
	dst := ipv4.DestinationAddr(packet)

	entry, ok := r.table.Query(dst)
	if !ok {
		r.metrics.IncDropped("no_route")
		r.log.Warn("dropped transit packet", "reason", "no_route", "if_index", frame.IfIndex,
			"dst", netorder.Addr(dst))
		return
	}

	nextHop := entry.Nexthop
	if nextHop == 0 {
		nextHop = dst
	}

	mac, err := r.hal.ArpLookup(ctx, entry.IfIndex, nextHop)
	if err != nil {
		r.metrics.IncDropped("arp_miss")
		r.log.Warn("dropped transit packet", "reason", "arp_miss", "if_index", entry.IfIndex,
			"dst", netorder.Addr(dst), "next_hop", netorder.Addr(nextHop), "error", err)
		return
	}

	if ipv4.TTL(packet) == 0 {
		r.metrics.IncDropped("ttl_exceeded")
		r.log.Info("dropped transit packet", "reason", "ttl_exceeded", "if_index", frame.IfIndex,
			"src", netorder.Addr(ipv4.SourceAddr(packet)), "dst", netorder.Addr(dst))
		return
	}

	out := r.inBuf[:len(packet)]
	copy(out, packet)
	if !ipv4.Forward(out, len(out)) {
		r.metrics.IncDropped("bad_checksum")
		r.log.Warn("dropped transit packet", "reason", "bad_checksum", "if_index", entry.IfIndex,
			"dst", netorder.Addr(dst))
		return
	}

	if err := r.hal.Send(ctx, entry.IfIndex, out, mac); err != nil {
		r.log.Warn("forward send failed", "if_index", entry.IfIndex, "error", err)
		return
	}
	r.metrics.IncSent()
}

// addrOf returns the configured address of ifIndex, or 0 if unknown.
func (r *Router) addrOf(ifIndex int) uint32 {
	for _, iface := range r.cfg.Interfaces {
		if iface.IfIndex == ifIndex {
			return iface.Addr
		}
	}
	return 0
}
