// Package plc is the boundary to the controllers holding the counters.
// The wire protocols are provided by client libraries; this package only
// adapts them to one synchronous Client shape.
package plc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"rh-editor/internal/model"
)

// CounterSize is the width in bytes of a seconds counter (S7 DINT).
const CounterSize = 4

const defaultTimeout = 5 * time.Second

var (
	ErrNotConnected = errors.New("plc: not connected")
	ErrNoAddress    = errors.New("plc: controller has no address")
)

// Client is a single synchronous connection to a controller.
type Client interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	ReadBlock(block, offset, length int) ([]byte, error)
	WriteBlock(block, offset int, data []byte) error
	Disconnect() error
}

// Dialer creates an unconnected Client for a controller.
type Dialer interface {
	NewClient(c model.Controller) (Client, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(c model.Controller) (Client, error)

func (f DialerFunc) NewClient(c model.Controller) (Client, error) { return f(c) }

// DefaultDialer selects the driver by the controller's protocol.
var DefaultDialer Dialer = DialerFunc(NewClient)

// NewClient returns the driver matching c.Protocol.
func NewClient(c model.Controller) (Client, error) {
	if c.Address == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAddress, c.Name)
	}
	switch c.Protocol {
	case "", model.ProtocolS7:
		return NewS7Client(c), nil
	case model.ProtocolModbusTCP:
		return NewModbusClient(c), nil
	default:
		return nil, fmt.Errorf("plc: protocol %s not implemented", c.Protocol)
	}
}

// DecodeCounter reads a big-endian signed 32-bit value.
func DecodeCounter(data []byte) (int32, error) {
	if len(data) < CounterSize {
		return 0, fmt.Errorf("plc: insufficient data for counter: %d bytes", len(data))
	}
	return int32(binary.BigEndian.Uint32(data[:CounterSize])), nil
}

// EncodeCounter is the inverse of DecodeCounter.
func EncodeCounter(v int32) []byte {
	b := make([]byte, CounterSize)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}

func timeoutOf(c model.Controller) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// WithTimeout returns a Dialer that gives controllers without their own
// timeout the timeout d.
func WithTimeout(next Dialer, d time.Duration) Dialer {
	return DialerFunc(func(c model.Controller) (Client, error) {
		if c.Timeout <= 0 {
			c.Timeout = d
		}
		return next.NewClient(c)
	})
}
