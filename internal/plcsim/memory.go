package plcsim

import (
	"context"
	"fmt"
	"sync"

	"rh-editor/internal/model"
	"rh-editor/internal/plc"
)

// Memory is an in-process stand-in for a set of controllers. Every
// NewClient call returns a fresh connection sharing the same data blocks.
type Memory struct {
	mu     sync.Mutex
	blocks map[string]map[int][]byte

	// Failure injection, keyed by controller name.
	ConnectErr map[string]error
	Refuse     map[string]bool
	ReadErr    map[string]error
	WriteErr   map[string]error

	Dials  int
	Closed int
}

func NewMemory() *Memory {
	return &Memory{
		blocks:     make(map[string]map[int][]byte),
		ConnectErr: make(map[string]error),
		Refuse:     make(map[string]bool),
		ReadErr:    make(map[string]error),
		WriteErr:   make(map[string]error),
	}
}

// SetCounter stores seconds at the equipment's address.
func (m *Memory) SetCounter(e model.Equipment, seconds int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.block(e.Controller, e.DBNumber, e.DBOffset+plc.CounterSize)[e.DBOffset:], plc.EncodeCounter(seconds))
}

// Counter returns the seconds stored at the equipment's address.
func (m *Memory) Counter(e model.Equipment) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, _ := plc.DecodeCounter(m.block(e.Controller, e.DBNumber, e.DBOffset+plc.CounterSize)[e.DBOffset:])
	return v
}

// block returns the backing slice grown to at least size bytes. Callers
// hold m.mu.
func (m *Memory) block(ctrl string, db, size int) []byte {
	dbs, ok := m.blocks[ctrl]
	if !ok {
		dbs = make(map[int][]byte)
		m.blocks[ctrl] = dbs
	}
	b := dbs[db]
	if len(b) < size {
		grown := make([]byte, size)
		copy(grown, b)
		b = grown
		dbs[db] = b
	}
	return b
}

// NewClient implements plc.Dialer.
func (m *Memory) NewClient(c model.Controller) (plc.Client, error) {
	if c.Address == "" {
		return nil, fmt.Errorf("%w: %s", plc.ErrNoAddress, c.Name)
	}
	m.mu.Lock()
	m.Dials++
	m.mu.Unlock()
	return &memoryClient{mem: m, ctrl: c.Name}, nil
}

type memoryClient struct {
	mem       *Memory
	ctrl      string
	connected bool
}

func (c *memoryClient) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mem.mu.Lock()
	defer c.mem.mu.Unlock()
	if err := c.mem.ConnectErr[c.ctrl]; err != nil {
		return err
	}
	c.connected = !c.mem.Refuse[c.ctrl]
	return nil
}

func (c *memoryClient) IsConnected() bool { return c.connected }

func (c *memoryClient) ReadBlock(block, offset, length int) ([]byte, error) {
	if !c.connected {
		return nil, plc.ErrNotConnected
	}
	c.mem.mu.Lock()
	defer c.mem.mu.Unlock()
	if err := c.mem.ReadErr[c.ctrl]; err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, c.mem.block(c.ctrl, block, offset+length)[offset:])
	return out, nil
}

func (c *memoryClient) WriteBlock(block, offset int, data []byte) error {
	if !c.connected {
		return plc.ErrNotConnected
	}
	c.mem.mu.Lock()
	defer c.mem.mu.Unlock()
	if err := c.mem.WriteErr[c.ctrl]; err != nil {
		return err
	}
	copy(c.mem.block(c.ctrl, block, offset+len(data))[offset:], data)
	return nil
}

func (c *memoryClient) Disconnect() error {
	c.connected = false
	c.mem.mu.Lock()
	c.mem.Closed++
	c.mem.mu.Unlock()
	return nil
}
