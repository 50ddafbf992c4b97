//go:build linux

// Package udpmulticast is a reference hal.HAL implementation for a real
// Linux host: one UDP/520 socket per configured interface, bound with
// SO_BINDTODEVICE the same way the daemon binds per-interface sockets in
// rawsock_linux.go, joined to the RIPv2 "all RIP routers" multicast
// group (224.0.0.9) via golang.org/x/net/ipv4.
//
// This is a demonstration/integration HAL, not a production one: it
// speaks UDP sockets rather than raw Ethernet frames, so ArpLookup is a
// stub (the kernel resolves the link-layer address itself once the
// socket writes to an IP destination) and DstMAC/SrcMAC on delivered
// frames are always zero. The RIP control loop above this boundary
// never inspects those fields except to pass them back into Send, so
// the simplification is invisible to it.
package udpmulticast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/ripd/ripd/internal/hal"
	"github.com/ripd/ripd/internal/rip"
)

const (
	multicastGroup = "224.0.0.9"
	ripPort        = 520
	readBufSize    = 2048
)

// ErrUnexpectedConnType indicates ListenPacket returned a connection
// type other than *net.UDPConn.
var ErrUnexpectedConnType = errors.New("udpmulticast: unexpected connection type")

// Link describes one interface this HAL instance operates on.
type Link struct {
	IfIndex int
	IfName  string
	Addr    uint32 // stored convention, this interface's own address
}

type socket struct {
	link  Link
	pconn *ipv4.PacketConn
}

// HAL is a reference hal.HAL bound to real Linux network interfaces.
// It is safe for the single control-loop goroutine to call repeatedly;
// it is not safe for concurrent use by multiple callers.
type HAL struct {
	links   []Link
	sockets []*socket

	mu     sync.Mutex
	frames chan hal.Frame
	errs   chan error
}

var _ hal.HAL = (*HAL)(nil)

// New returns a HAL that will open one socket per link once Init runs.
func New(links []Link) *HAL {
	return &HAL{
		links:  links,
		frames: make(chan hal.Frame, 64),
		errs:   make(chan error, len(links)),
	}
}

// Init opens and configures one multicast UDP socket per configured
// link and starts a reader goroutine for each.
func (h *HAL) Init(ctx context.Context, _ []uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := net.ParseIP(multicastGroup)

	for _, link := range h.links {
		iface, err := net.InterfaceByName(link.IfName)
		if err != nil {
			return fmt.Errorf("lookup interface %s: %w", link.IfName, err)
		}

		lc := net.ListenConfig{
			Control: func(_, _ string, c syscall.RawConn) error {
				return bindToDevice(c, link.IfName)
			},
		}

		pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", ripPort))
		if err != nil {
			return fmt.Errorf("listen udp4 on %s: %w", link.IfName, err)
		}
		udpConn, ok := pc.(*net.UDPConn)
		if !ok {
			_ = pc.Close()
			return fmt.Errorf("%s: %w", link.IfName, ErrUnexpectedConnType)
		}

		p := ipv4.NewPacketConn(udpConn)
		if err := p.JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
			_ = udpConn.Close()
			return fmt.Errorf("join multicast group on %s: %w", link.IfName, err)
		}
		if err := p.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface, true); err != nil {
			_ = udpConn.Close()
			return fmt.Errorf("set control message on %s: %w", link.IfName, err)
		}

		sock := &socket{link: link, pconn: p}
		h.sockets = append(h.sockets, sock)
		go h.readLoop(sock)
	}

	return nil
}

func (h *HAL) readLoop(sock *socket) {
	buf := make([]byte, readBufSize)
	for {
		n, cm, src, err := sock.pconn.ReadFrom(buf)
		if err != nil {
			h.errs <- fmt.Errorf("read on %s: %w", sock.link.IfName, err)
			return
		}

		udpAddr, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}
		srcAddr := ipToStored(udpAddr.IP)
		dstAddr := sock.link.Addr
		if cm != nil && cm.Dst != nil {
			dstAddr = ipToStored(cm.Dst)
		}

		packet, err := wrapRIPDatagram(buf[:n], srcAddr, dstAddr)
		if err != nil {
			continue
		}

		h.frames <- hal.Frame{Payload: packet, IfIndex: sock.link.IfIndex}
	}
}

// Ticks returns a monotonic millisecond clock reading.
func (h *HAL) Ticks() int64 {
	return time.Now().UnixMilli()
}

// Receive blocks for up to timeout for one inbound frame across any
// configured interface.
func (h *HAL) Receive(ctx context.Context, timeout time.Duration) (hal.Frame, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return hal.Frame{}, false, ctx.Err()
	case err := <-h.errs:
		return hal.Frame{}, false, err
	case f := <-h.frames:
		return f, true, nil
	case <-timer.C:
		return hal.Frame{}, false, nil
	}
}

// Send extracts the RIP datagram from payload (a full IPv4 packet
// assembled by internal/rip) and writes it to the socket for ifIndex.
// dstMAC is accepted for interface conformance only; the kernel resolves
// the link-layer address for a UDP socket write.
func (h *HAL) Send(_ context.Context, ifIndex int, payload []byte, _ hal.MAC) error {
	sock := h.socketFor(ifIndex)
	if sock == nil {
		return fmt.Errorf("udpmulticast: no socket for ifIndex %d", ifIndex)
	}
	if len(payload) < rip.FrameRIPOffset {
		return fmt.Errorf("udpmulticast: payload too short (%d bytes)", len(payload))
	}

	dst := storedToIP(ipv4DestAddr(payload))
	_, err := sock.pconn.WriteTo(payload[rip.FrameRIPOffset:], nil, &net.UDPAddr{IP: dst, Port: ripPort})
	if err != nil {
		return fmt.Errorf("send on ifIndex %d: %w", ifIndex, err)
	}
	return nil
}

// ArpLookup is a stub: UDP sockets do not expose link-layer resolution,
// so this always returns the zero MAC. See the package doc.
func (h *HAL) ArpLookup(_ context.Context, _ int, _ uint32) (hal.MAC, error) {
	return hal.MAC{}, nil
}

func (h *HAL) socketFor(ifIndex int) *socket {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sockets {
		if s.link.IfIndex == ifIndex {
			return s
		}
	}
	return nil
}

// bindToDevice applies SO_BINDTODEVICE to the socket, mirroring the
// daemon's applySockOptsCommon.
func bindToDevice(c syscall.RawConn, ifName string) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, ifName)
	})
	if err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("set SO_BINDTODEVICE(%s): %w", ifName, sockErr)
	}
	return nil
}

func ipToStored(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return uint32(v4[0]) | uint32(v4[1])<<8 | uint32(v4[2])<<16 | uint32(v4[3])<<24
}

func storedToIP(stored uint32) net.IP {
	return net.IPv4(byte(stored), byte(stored>>8), byte(stored>>16), byte(stored>>24))
}

// ipv4DestAddr reads the destination address (stored convention) out of
// an assembled IPv4 packet's header.
func ipv4DestAddr(packet []byte) uint32 {
	return uint32(packet[16]) | uint32(packet[17])<<8 | uint32(packet[18])<<16 | uint32(packet[19])<<24
}

// wrapRIPDatagram reconstructs a synthetic IPv4+UDP+RIP packet around a
// RIP payload received directly off a UDP socket (the kernel has
// already stripped the real IP/UDP headers), so downstream processing
// in internal/router sees the same packet shape regardless of HAL.
func wrapRIPDatagram(ripPayload []byte, src, dst uint32) ([]byte, error) {
	packet := make([]byte, rip.FrameRIPOffset+len(ripPayload))
	copy(packet[rip.FrameRIPOffset:], ripPayload)

	udpLen, err := rip.AssembleUDP(packet, len(ripPayload))
	if err != nil {
		return nil, fmt.Errorf("wrap UDP header: %w", err)
	}
	if _, err := rip.AssembleIP(packet, udpLen, src, dst); err != nil {
		return nil, fmt.Errorf("wrap IP header: %w", err)
	}
	return packet, nil
}
