package plc

import (
	"context"
	"fmt"
	"net"
	"strconv"

	mb "github.com/goburrow/modbus"

	"rh-editor/internal/model"
)

// ModbusClient reaches counters through a Modbus TCP gateway that maps the
// counters' data block onto the holding register table, one register per
// two bytes (MB_SERVER style). The block number is not sent on the wire.
type ModbusClient struct {
	ctrl      model.Controller
	handler   *mb.TCPClientHandler
	client    mb.Client
	connected bool
}

func NewModbusClient(c model.Controller) *ModbusClient {
	return &ModbusClient{ctrl: c}
}

// Endpoint is the host:port dialed for the controller.
func (c *ModbusClient) Endpoint() string {
	host := c.ctrl.Address
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	port := c.ctrl.Port
	if port <= 0 {
		port = model.DefaultModbusPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c *ModbusClient) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h := mb.NewTCPClientHandler(c.Endpoint())
	h.Timeout = timeoutOf(c.ctrl)
	h.SlaveId = c.ctrl.UnitID
	if err := h.Connect(); err != nil {
		return fmt.Errorf("connect %s: %w", c.Endpoint(), err)
	}
	c.handler = h
	c.client = mb.NewClient(h)
	c.connected = true
	return nil
}

func (c *ModbusClient) IsConnected() bool { return c.connected }

func registerSpan(offset, length int) (uint16, uint16, error) {
	if offset < 0 || offset%2 != 0 {
		return 0, 0, fmt.Errorf("modbus: offset %d is not register aligned", offset)
	}
	if length <= 0 || length%2 != 0 {
		return 0, 0, fmt.Errorf("modbus: length %d is not a whole number of registers", length)
	}
	start, qty := offset/2, length/2
	if start+qty > 0x10000 || qty > 123 {
		return 0, 0, fmt.Errorf("modbus: span %d+%d out of range", start, qty)
	}
	return uint16(start), uint16(qty), nil
}

func (c *ModbusClient) ReadBlock(block, offset, length int) ([]byte, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	start, qty, err := registerSpan(offset, length)
	if err != nil {
		return nil, err
	}
	data, err := c.client.ReadHoldingRegisters(start, qty)
	if err != nil {
		return nil, fmt.Errorf("read holding %d[%d] (DB%d): %w", start, qty, block, err)
	}
	if len(data) < length {
		return nil, fmt.Errorf("read holding %d[%d]: short response of %d bytes", start, qty, len(data))
	}
	return data[:length], nil
}

func (c *ModbusClient) WriteBlock(block, offset int, data []byte) error {
	if !c.connected {
		return ErrNotConnected
	}
	start, qty, err := registerSpan(offset, len(data))
	if err != nil {
		return err
	}
	if _, err := c.client.WriteMultipleRegisters(start, qty, data); err != nil {
		return fmt.Errorf("write holding %d[%d] (DB%d): %w", start, qty, block, err)
	}
	return nil
}

func (c *ModbusClient) Disconnect() error {
	if c.handler == nil {
		return nil
	}
	c.connected = false
	h := c.handler
	c.handler = nil
	return h.Close()
}
