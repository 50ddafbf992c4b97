// Package hal defines the hardware abstraction layer boundary: frame
// delivery, frame transmission, ARP resolution, and a monotonic clock.
// The control loop in internal/router consumes a HAL; it never touches a
// socket or a NIC directly.
package hal

import (
	"context"
	"errors"
	"time"
)

// MAC is a 6-byte Ethernet hardware address.
type MAC [6]byte

// ErrEndOfFile signals clean shutdown: the HAL has no more frames to
// deliver, ever. The control loop exits without error when Receive
// returns it.
var ErrEndOfFile = errors.New("hal: end of file")

// Frame is one inbound frame delivered by Receive.
type Frame struct {
	Payload []byte // IPv4 datagram, truncated frames are never delivered
	SrcMAC  MAC
	DstMAC  MAC
	IfIndex int
}

// HAL is the boundary between the RIP control loop and the network.
// Implementations must be safe for the single goroutine that owns the
// control loop to call repeatedly; no implementation here needs to be
// safe for concurrent use by multiple callers, except Mock, which is
// also read from test goroutines.
type HAL interface {
	// Init performs one-time setup given the local interface addresses,
	// indexed by interface ordinal, in the repository's big-endian
	// storage convention.
	Init(ctx context.Context, addrs []uint32) error

	// Ticks returns a monotonic millisecond clock reading.
	Ticks() int64

	// Receive blocks for up to timeout for one inbound frame across any
	// interface. It returns ErrEndOfFile on clean shutdown, and a zero
	// Frame with ok=false and a nil error to indicate "timed out, nothing
	// arrived" -- callers distinguish a timeout from a frame by checking
	// ok. Any other non-nil error is treated as unrecoverable.
	Receive(ctx context.Context, timeout time.Duration) (frame Frame, ok bool, err error)

	// Send transmits payload out ifIndex addressed to dstMAC.
	Send(ctx context.Context, ifIndex int, payload []byte, dstMAC MAC) error

	// ArpLookup resolves addr (big-endian storage) to a MAC address on
	// ifIndex.
	ArpLookup(ctx context.Context, ifIndex int, addr uint32) (MAC, error)
}
