// Package ipv4 implements the C2 component: inbound IPv4 header validation
// and the forwarding-path TTL decrement with incremental checksum update.
//
// Only the 20-byte base header is interpreted; IHL is read but any value
// is accepted (the checksum span honors IHL, per RFC 791 Section 3.1).
// Addresses and header fields are read directly from the wire buffer in
// network (big-endian) byte order -- this package never allocates a
// separate header struct, mirroring the offset-based accessor style of a
// zero-copy frame view.
package ipv4

import (
	"encoding/binary"

	"github.com/ripd/ripd/internal/checksum"
)

// Field byte offsets within the 20-byte base header (RFC 791 Section 3.1).
const (
	OffVersionIHL = 0
	OffTotalLen   = 2
	OffTTL        = 8
	OffProtocol   = 9
	OffChecksum   = 10
	OffSrcAddr    = 12
	OffDstAddr    = 16

	HeaderSize = 20
)

// IHL returns the header length in 32-bit words from the low nibble of
// byte 0. The base header is assumed present; callers must bounds-check
// length >= 1 before calling.
func IHL(packet []byte) int { return int(packet[0] & 0x0f) }

// HeaderLen returns 4*IHL, the header length in bytes.
func HeaderLen(packet []byte) int { return IHL(packet) * 4 }

// TotalLength returns the IPv4 Total Length field (offsets 2-3, big-endian).
func TotalLength(packet []byte) uint16 {
	return binary.BigEndian.Uint16(packet[OffTotalLen : OffTotalLen+2])
}

// TTL returns the Time To Live field (offset 8).
func TTL(packet []byte) uint8 { return packet[OffTTL] }

// SourceAddr returns the big-endian-stored source address word (offsets
// 12-15), i.e. the first octet of the dotted-quad in the low byte of the
// returned uint32 when read as a little-endian machine integer. See
// DESIGN.md for the big-endian-storage convention this repository uses
// throughout the RIP codec and routing table.
func SourceAddr(packet []byte) uint32 {
	return binary.LittleEndian.Uint32(packet[OffSrcAddr : OffSrcAddr+4])
}

// DestinationAddr returns the big-endian-stored destination address word
// (offsets 16-19). See SourceAddr.
func DestinationAddr(packet []byte) uint32 {
	return binary.LittleEndian.Uint32(packet[OffDstAddr : OffDstAddr+4])
}

// ValidateHeader reports whether the IPv4 header checksum over the first
// 4*IHL bytes of packet is correct. Equivalent to
// checksum.ValidateIPv4Header; kept as a thin wrapper so callers only
// import this package for header-level operations.
func ValidateHeader(packet []byte, length int) bool {
	return checksum.ValidateIPv4Header(packet, length)
}

// Forward validates the header checksum, decrements TTL with wrapping
// subtraction, and recomputes the header checksum incrementally in place.
//
// Contract (RFC 791 Section 3.1, incremental update per RFC 1624):
//  1. Validate the header checksum. On mismatch, return false and leave
//     packet unchanged.
//  2. Decrement byte 8 (TTL) by one, wrapping.
//  3. Recompute the checksum incrementally: complement the stored
//     checksum, add the complement of the old TTL/protocol word, add the
//     new TTL/protocol word, fold carries, invert, and write back.
//  4. Return true.
//
// The caller is responsible for rejecting TTL=0 before calling Forward --
// this function only decrements whatever TTL it finds, it does not refuse
// to decrement past zero.
func Forward(packet []byte, length int) bool {
	if !checksum.ValidateIPv4Header(packet, length) {
		return false
	}

	oldChecksum := binary.BigEndian.Uint16(packet[OffChecksum : OffChecksum+2])
	oldWord := binary.BigEndian.Uint16(packet[OffTTL : OffTTL+2])

	packet[OffTTL]--

	newWord := binary.BigEndian.Uint16(packet[OffTTL : OffTTL+2])

	sum := checksum.AddCarry(^oldChecksum, ^oldWord)
	sum = checksum.AddCarry(sum, newWord)
	newChecksum := checksum.Fold(sum)

	binary.BigEndian.PutUint16(packet[OffChecksum:OffChecksum+2], newChecksum)
	return true
}
