// Package rip implements the C3 component: bit-exact disassembly of an
// IPv4/UDP-wrapped RIPv2 (RFC 2453) payload into structured form, and
// assembly of structured form back into a frame ready for transmission.
//
// Every address-shaped field (addr, mask, nexthop, metric) is stored in
// the repository's big-endian-storage convention -- see
// github.com/ripd/ripd/internal/netorder.
package rip

import "errors"

// Command values (RFC 2453 Section 4).
const (
	CommandRequest  = 1
	CommandResponse = 2
)

// Version is the only RIPv2 version this codec accepts or emits.
const Version = 2

// MaxEntries is the maximum number of route entries a single RIP packet
// may carry (RFC 2453 Section 4: 25 entries in a 512-byte UDP datagram).
const MaxEntries = 25

// EntrySize is the on-wire size of one RIP route entry in bytes.
const EntrySize = 20

// HeaderSize is the on-wire size of the RIP packet header (command,
// version, zero, zero) in bytes.
const HeaderSize = 4

// Offsets of the RIP payload within an IPv4(20)+UDP(8)-wrapped frame.
const (
	FrameRIPOffset = 28
	UDPOffset      = 20
	IPv4Offset     = 0
)

// Well-known RIP transport parameters (RFC 2453 Section 1).
const (
	Port          = 520
	MulticastAddr = 0x090000E0 // 224.0.0.9, stored big-endian-as-little-endian
)

// Entry is one RIPv2 route table entry, every field held in the
// repository's big-endian storage convention.
type Entry struct {
	Addr    uint32
	Mask    uint32
	Nexthop uint32
	Metric  uint32
}

// Packet is a disassembled RIPv2 message.
type Packet struct {
	Command uint8
	Entries []Entry
}

// Sentinel errors returned by Disassemble. Every failure is also wrapped
// with additional context via fmt.Errorf's %w.
var (
	ErrFrameTooShort   = errors.New("rip: frame shorter than claimed IPv4 total length")
	ErrInvalidCommand  = errors.New("rip: command is neither request nor response")
	ErrInvalidVersion  = errors.New("rip: version is not 2")
	ErrReservedNonzero = errors.New("rip: reserved header bytes are not zero")
	ErrInvalidFamily   = errors.New("rip: entry address family mismatched for command")
	ErrNonzeroTag      = errors.New("rip: entry route tag is not zero")
	ErrMetricRange     = errors.New("rip: entry metric outside [1, 16]")
	ErrInvalidMask     = errors.New("rip: entry mask is not a canonical prefix mask")
	ErrTooManyEntries  = errors.New("rip: too many entries for one packet")
)
