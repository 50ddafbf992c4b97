package rip

import (
	"encoding/binary"
	"fmt"

	"github.com/ripd/ripd/internal/checksum"
	"github.com/ripd/ripd/internal/netorder"
)

// Disassemble parses an IPv4(20)+UDP(8)-wrapped RIPv2 payload out of
// packet, a frame of length bytes (which may be shorter than len(packet)
// if the caller reused a larger scratch buffer).
//
// It assumes the fixed 20-byte IPv4 header and 8-byte UDP header -- RIP
// is read starting at offset 28 -- and does not itself validate the IPv4
// or UDP checksums.
//
// numEntries is derived as (length-32)/20, matching the documented frame
// layout (4-byte RIP header at offset 28). The reference implementation
// this codec is based on instead computes (length-31)/20, an off-by-one
// bug; this port corrects it. See DESIGN.md.
func Disassemble(packet []byte, length int) (Packet, error) {
	if length < FrameRIPOffset+HeaderSize || len(packet) < length {
		return Packet{}, fmt.Errorf("rip: disassemble: %w", ErrFrameTooShort)
	}

	totalLen := binary.BigEndian.Uint16(packet[2:4])
	if int(totalLen) > length {
		return Packet{}, fmt.Errorf("rip: disassemble: total length %d exceeds frame of %d bytes: %w",
			totalLen, length, ErrFrameTooShort)
	}

	command := packet[FrameRIPOffset]
	if command != CommandRequest && command != CommandResponse {
		return Packet{}, fmt.Errorf("rip: disassemble: command %d: %w", command, ErrInvalidCommand)
	}

	version := packet[FrameRIPOffset+1]
	if version != Version {
		return Packet{}, fmt.Errorf("rip: disassemble: version %d: %w", version, ErrInvalidVersion)
	}

	if packet[FrameRIPOffset+2] != 0 || packet[FrameRIPOffset+3] != 0 {
		return Packet{}, fmt.Errorf("rip: disassemble: %w", ErrReservedNonzero)
	}

	numEntries := (length - 32) / 20
	if numEntries < 0 {
		numEntries = 0
	}
	if numEntries > MaxEntries {
		return Packet{}, fmt.Errorf("rip: disassemble: %d entries: %w", numEntries, ErrTooManyEntries)
	}

	wantFamily := uint16(0)
	if command == CommandResponse {
		wantFamily = 2
	}

	entries := make([]Entry, numEntries)
	for i := 0; i < numEntries; i++ {
		off := FrameRIPOffset + HeaderSize + i*EntrySize
		if off+EntrySize > len(packet) {
			return Packet{}, fmt.Errorf("rip: disassemble: entry %d: %w", i, ErrFrameTooShort)
		}

		family := binary.BigEndian.Uint16(packet[off : off+2])
		if family != wantFamily {
			return Packet{}, fmt.Errorf("rip: disassemble: entry %d: family %d: %w", i, family, ErrInvalidFamily)
		}
		if packet[off+2] != 0 || packet[off+3] != 0 {
			return Packet{}, fmt.Errorf("rip: disassemble: entry %d: %w", i, ErrNonzeroTag)
		}

		addr := binary.LittleEndian.Uint32(packet[off+4 : off+8])
		mask := binary.LittleEndian.Uint32(packet[off+8 : off+12])
		nexthop := binary.LittleEndian.Uint32(packet[off+12 : off+16])
		metric := binary.LittleEndian.Uint32(packet[off+16 : off+20])

		hostMetric := netorder.Swap32(metric)
		if hostMetric < 1 || hostMetric > 16 {
			return Packet{}, fmt.Errorf("rip: disassemble: entry %d: metric %d: %w", i, hostMetric, ErrMetricRange)
		}

		// The mask must be contiguous ones then zeros in host order.
		if inv := ^netorder.Swap32(mask); inv&(inv+1) != 0 {
			return Packet{}, fmt.Errorf("rip: disassemble: entry %d: mask %#08x: %w", i, mask, ErrInvalidMask)
		}

		entries[i] = Entry{Addr: addr, Mask: mask, Nexthop: nexthop, Metric: metric}
	}

	return Packet{Command: command, Entries: entries}, nil
}

// Assemble writes a RIP payload -- a 4-byte header followed by
// len(p.Entries) 20-byte entries -- into buffer starting at offset 28
// (the wrapped-in-IPv4+UDP egress form; see AssembleUDP and AssembleIP
// for the wrapping headers). It returns the number of bytes written,
// 4 + 20*len(p.Entries).
func Assemble(p Packet, buffer []byte) (int, error) {
	if len(p.Entries) > MaxEntries {
		return 0, fmt.Errorf("rip: assemble: %d entries: %w", len(p.Entries), ErrTooManyEntries)
	}
	ripLen := HeaderSize + EntrySize*len(p.Entries)
	if len(buffer) < FrameRIPOffset+ripLen {
		return 0, fmt.Errorf("rip: assemble: buffer too small for %d bytes", ripLen)
	}

	buffer[FrameRIPOffset] = p.Command
	buffer[FrameRIPOffset+1] = Version
	buffer[FrameRIPOffset+2] = 0
	buffer[FrameRIPOffset+3] = 0

	family := uint16(0)
	if p.Command == CommandResponse {
		family = 2
	}

	for i, e := range p.Entries {
		off := FrameRIPOffset + HeaderSize + i*EntrySize
		binary.BigEndian.PutUint16(buffer[off:off+2], family)
		buffer[off+2] = 0
		buffer[off+3] = 0
		binary.LittleEndian.PutUint32(buffer[off+4:off+8], e.Addr)
		binary.LittleEndian.PutUint32(buffer[off+8:off+12], e.Mask)
		binary.LittleEndian.PutUint32(buffer[off+12:off+16], e.Nexthop)
		binary.LittleEndian.PutUint32(buffer[off+16:off+20], e.Metric)
	}

	return ripLen, nil
}

// AssembleUDP writes a UDP header at offsets 20-27 over a RIP payload of
// ripLen bytes starting at offset 28: source and destination port 520,
// length = ripLen+8, checksum disabled (0). Returns ripLen+8.
func AssembleUDP(buffer []byte, ripLen int) (int, error) {
	udpLen := ripLen + 8
	if len(buffer) < UDPOffset+8 {
		return 0, fmt.Errorf("rip: assemble-udp: buffer too small for UDP header")
	}
	binary.BigEndian.PutUint16(buffer[20:22], Port)
	binary.BigEndian.PutUint16(buffer[22:24], Port)
	binary.BigEndian.PutUint16(buffer[24:26], uint16(udpLen))
	binary.BigEndian.PutUint16(buffer[26:28], 0)
	return udpLen, nil
}

// AssembleIP writes a 20-byte IPv4 header at offsets 0-19 over a UDP
// datagram of udpLen bytes: Version=4, IHL=5, TTL=1 (multicast-scoped),
// Protocol=17 (UDP), source and destination addresses given in the
// repository's big-endian storage convention. The header checksum is
// computed per the internal/checksum Internet checksum. Returns
// udpLen+20.
func AssembleIP(buffer []byte, udpLen int, src, dst uint32) (int, error) {
	totalLen := udpLen + 20
	if len(buffer) < IPv4Offset+20 {
		return 0, fmt.Errorf("rip: assemble-ip: buffer too small for IPv4 header")
	}

	buffer[0] = 0x45 // version 4, IHL 5
	buffer[1] = 0     // TOS
	binary.BigEndian.PutUint16(buffer[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(buffer[4:6], 0) // identification
	binary.BigEndian.PutUint16(buffer[6:8], 0) // flags/fragment offset
	buffer[8] = 1                              // TTL
	buffer[9] = 17                             // protocol: UDP
	binary.BigEndian.PutUint16(buffer[10:12], 0)
	binary.LittleEndian.PutUint32(buffer[12:16], src)
	binary.LittleEndian.PutUint32(buffer[16:20], dst)

	sum := checksum.Sum(buffer[0:20])
	binary.BigEndian.PutUint16(buffer[10:12], checksum.Fold(sum))

	return totalLen, nil
}
