package hal

import (
	"context"
	"sync"
	"time"
)

// Mock is an in-memory HAL for control-loop tests. Every method's
// default behavior can be overridden with the matching *Func field; call
// recording (Sent) is always safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// ReceiveFunc, if set, is called by Receive instead of the default
	// (which returns ok=false, simulating a timeout with nothing
	// pending).
	ReceiveFunc func(ctx context.Context, timeout time.Duration) (Frame, bool, error)

	// ArpFunc, if set, resolves addresses for ArpLookup. The default
	// returns an all-zero MAC.
	ArpFunc func(ifIndex int, addr uint32) (MAC, error)

	// SendErr, if set, is returned by every Send call.
	SendErr error

	// Sent records every frame handed to Send, in call order.
	Sent []SentFrame

	// initAddrs records the addrs slice passed to Init.
	initAddrs []uint32
	ticks     int64
}

// SentFrame records one Send call.
type SentFrame struct {
	IfIndex int
	Payload []byte
	DstMAC  MAC
}

// NewMock returns a ready-to-use Mock. SetTicks, ReceiveFunc, ArpFunc,
// and SendErr can be layered on afterward.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Init(_ context.Context, addrs []uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initAddrs = append([]uint32(nil), addrs...)
	return nil
}

// InitAddrs returns the addrs slice most recently passed to Init.
func (m *Mock) InitAddrs() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32(nil), m.initAddrs...)
}

// SetTicks sets the value Ticks returns until changed again.
func (m *Mock) SetTicks(ms int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = ms
}

func (m *Mock) Ticks() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}

func (m *Mock) Receive(ctx context.Context, timeout time.Duration) (Frame, bool, error) {
	m.mu.Lock()
	fn := m.ReceiveFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, timeout)
	}
	return Frame{}, false, nil
}

func (m *Mock) Send(_ context.Context, ifIndex int, payload []byte, dstMAC MAC) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := make([]byte, len(payload))
	copy(data, payload)
	m.Sent = append(m.Sent, SentFrame{IfIndex: ifIndex, Payload: data, DstMAC: dstMAC})
	return m.SendErr
}

func (m *Mock) ArpLookup(_ context.Context, ifIndex int, addr uint32) (MAC, error) {
	m.mu.Lock()
	fn := m.ArpFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ifIndex, addr)
	}
	return MAC{}, nil
}

var _ HAL = (*Mock)(nil)
