package plcsim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rh-editor/internal/model"
	"rh-editor/internal/plc"
)

func TestMemoryClientRoundTrip(t *testing.T) {
	mem := NewMemory()
	eq := model.Equipment{Name: "A_MH", Controller: "991", DBNumber: 700, DBOffset: 116}
	mem.SetCounter(eq, 3600)

	c, err := mem.NewClient(model.Controller{Name: "991", Address: "10.0.0.91"})
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	require.True(t, c.IsConnected())

	data, err := c.ReadBlock(700, 116, plc.CounterSize)
	require.NoError(t, err)
	v, _ := plc.DecodeCounter(data)
	assert.Equal(t, int32(3600), v)

	require.NoError(t, c.WriteBlock(700, 116, plc.EncodeCounter(7200)))
	require.NoError(t, c.Disconnect())
	assert.Equal(t, int32(7200), mem.Counter(eq))
	assert.Equal(t, 1, mem.Dials)
	assert.Equal(t, 1, mem.Closed)
}

func TestMemoryFailureInjection(t *testing.T) {
	mem := NewMemory()
	mem.Refuse["991"] = true
	mem.ConnectErr["992"] = errors.New("timeout")

	c, err := mem.NewClient(model.Controller{Name: "991", Address: "a"})
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	assert.False(t, c.IsConnected())
	_, err = c.ReadBlock(1, 0, 4)
	assert.ErrorIs(t, err, plc.ErrNotConnected)

	c, err = mem.NewClient(model.Controller{Name: "992", Address: "b"})
	require.NoError(t, err)
	assert.EqualError(t, c.Connect(context.Background()), "timeout")

	_, err = mem.NewClient(model.Controller{Name: "990"})
	assert.ErrorIs(t, err, plc.ErrNoAddress)
}

func TestServerCounterStorage(t *testing.T) {
	srv := NewServer(nil)
	require.NoError(t, srv.SetCounter(20, -123456))
	v, err := srv.Counter(20)
	require.NoError(t, err)
	assert.Equal(t, int32(-123456), v)
	assert.Error(t, srv.SetCounter(21, 1))
}
