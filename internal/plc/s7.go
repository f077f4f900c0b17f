package plc

import (
	"context"
	"fmt"

	"github.com/robinson/gos7"

	"rh-editor/internal/model"
)

// S7Client talks ISO-on-TCP to a Siemens S7 CPU.
type S7Client struct {
	ctrl      model.Controller
	handler   *gos7.TCPClientHandler
	client    gos7.Client
	connected bool
}

func NewS7Client(c model.Controller) *S7Client {
	return &S7Client{ctrl: c}
}

func (c *S7Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h := gos7.NewTCPClientHandler(c.ctrl.Address, c.ctrl.Rack, c.ctrl.Slot)
	h.Timeout = timeoutOf(c.ctrl)
	h.IdleTimeout = timeoutOf(c.ctrl)
	if err := h.Connect(); err != nil {
		return fmt.Errorf("connect %s (rack=%d, slot=%d): %w", c.ctrl.Address, c.ctrl.Rack, c.ctrl.Slot, err)
	}
	c.handler = h
	c.client = gos7.NewClient(h)
	c.connected = true
	return nil
}

func (c *S7Client) IsConnected() bool { return c.connected }

func (c *S7Client) ReadBlock(block, offset, length int) ([]byte, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	buf := make([]byte, length)
	if err := c.client.AGReadDB(block, offset, length, buf); err != nil {
		return nil, fmt.Errorf("read DB%d.DBB%d[%d]: %w", block, offset, length, err)
	}
	return buf, nil
}

func (c *S7Client) WriteBlock(block, offset int, data []byte) error {
	if !c.connected {
		return ErrNotConnected
	}
	if err := c.client.AGWriteDB(block, offset, len(data), data); err != nil {
		return fmt.Errorf("write DB%d.DBB%d[%d]: %w", block, offset, len(data), err)
	}
	return nil
}

func (c *S7Client) Disconnect() error {
	if c.handler == nil {
		return nil
	}
	c.connected = false
	h := c.handler
	c.handler = nil
	return h.Close()
}
