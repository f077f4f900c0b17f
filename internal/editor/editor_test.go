package editor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rh-editor/internal/hours"
	"rh-editor/internal/model"
	"rh-editor/internal/plcsim"
	"rh-editor/internal/registry"
)

type memJournal struct {
	records []model.WriteRecord
}

func (j *memJournal) SaveWrite(_ context.Context, rec *model.WriteRecord) error {
	j.records = append(j.records, *rec)
	return nil
}

var (
	pump = model.Equipment{Name: "PUMP1_MAINT_MH", Controller: "991", DBNumber: 700, DBOffset: 116}
	fan  = model.Equipment{Name: "FAN1_MAINT_MH", Controller: "999", DBNumber: 700, DBOffset: 120}
)

func newTestService(t *testing.T) (*Service, *plcsim.Memory, *memJournal, *bytes.Buffer) {
	t.Helper()
	mem := plcsim.NewMemory()
	j := &memJournal{}
	var buf bytes.Buffer
	svc := New(
		registry.NewEquipment([]model.Equipment{pump, fan}),
		registry.NewControllers([]model.Controller{{Name: "991", Address: "10.0.0.91", Slot: 1}}),
		Options{Dialer: mem, Journal: j, Logger: log.New(&buf, "", 0)},
	)
	return svc, mem, j, &buf
}

func TestRead(t *testing.T) {
	svc, mem, _, logs := newTestService(t)
	mem.SetCounter(pump, 5400)

	r, err := svc.Read(context.Background(), pump.Name)
	require.NoError(t, err)
	assert.Equal(t, int32(5400), r.Seconds)
	assert.Equal(t, "1.50", r.HoursText())
	assert.Equal(t, 1, mem.Closed, "connection must be closed after read")
	assert.Contains(t, logs.String(), "DB700.DBD116")

	last, ok := svc.LastReading(pump.Name)
	require.True(t, ok)
	assert.Equal(t, r.Seconds, last.Seconds)
}

func TestReadUnknownController(t *testing.T) {
	svc, mem, _, logs := newTestService(t)

	_, err := svc.Read(context.Background(), fan.Name)
	assert.ErrorIs(t, err, ErrControllerNotFound)
	assert.Equal(t, 0, mem.Dials)
	assert.Contains(t, logs.String(), "ERROR")
}

func TestReadUnknownEquipment(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Read(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownEquipment)
}

func TestReadConnectionRefused(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	mem.Refuse["991"] = true

	_, err := svc.Read(context.Background(), pump.Name)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "10.0.0.91", ce.Address)
	assert.Equal(t, 1, mem.Closed)
}

func TestReadProtocolFailureStillDisconnects(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	mem.ReadErr["991"] = errors.New("bad PDU")

	_, err := svc.Read(context.Background(), pump.Name)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, mem.Closed)
}

func TestWriteConfirms(t *testing.T) {
	svc, mem, j, _ := newTestService(t)

	res, err := svc.Write(context.Background(), pump.Name, "1234.5")
	require.NoError(t, err)
	assert.Equal(t, int64(4_444_200), res.Seconds)
	require.NotNil(t, res.Confirmed)
	assert.Equal(t, int32(4_444_200), res.Confirmed.Seconds)
	assert.NoError(t, res.ConfirmErr)
	assert.Equal(t, int32(4_444_200), mem.Counter(pump))
	assert.Equal(t, 2, mem.Dials, "write and read-back use separate connections")

	require.Len(t, j.records, 1)
	assert.Equal(t, model.WriteOK, j.records[0].Status)
	require.NotNil(t, j.records[0].ConfirmedSeconds)
	assert.Equal(t, int64(4_444_200), *j.records[0].ConfirmedSeconds)
}

func TestWriteRoundsHours(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	_, err := svc.Write(context.Background(), pump.Name, "0.99975")
	require.NoError(t, err)
	assert.Equal(t, int32(3599), mem.Counter(pump))
}

func TestWriteValidationBeforeNetwork(t *testing.T) {
	for _, input := range []string{"abc", "-0.01", "10000.01", ""} {
		svc, mem, j, _ := newTestService(t)
		_, err := svc.Write(context.Background(), pump.Name, input)
		assert.True(t, IsValidation(err), "input %q", input)
		assert.Equal(t, 0, mem.Dials)
		assert.Empty(t, j.records)
	}

	svc, _, _, _ := newTestService(t)
	_, err := svc.Write(context.Background(), pump.Name, "x")
	assert.ErrorIs(t, err, hours.ErrNotNumeric)
}

func TestWriteConnectionFailureSkipsReadBack(t *testing.T) {
	svc, mem, j, _ := newTestService(t)
	mem.ConnectErr["991"] = errors.New("no route to host")

	_, err := svc.Write(context.Background(), pump.Name, "10")
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, mem.Dials)
	require.Len(t, j.records, 1)
	assert.Equal(t, model.WriteFailed, j.records[0].Status)
	assert.Contains(t, j.records[0].Error, "no route to host")
}

func TestWriteReadBackFailure(t *testing.T) {
	svc, mem, j, _ := newTestService(t)
	mem.ReadErr["991"] = errors.New("read refused")

	res, err := svc.Write(context.Background(), pump.Name, "2")
	require.NoError(t, err)
	assert.Nil(t, res.Confirmed)
	assert.Error(t, res.ConfirmErr)
	assert.Equal(t, int32(7200), mem.Counter(pump))
	assert.Equal(t, model.WriteUnconfirmed, j.records[0].Status)
}

func TestWriteUnknownController(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	_, err := svc.Write(context.Background(), fan.Name, "5")
	assert.ErrorIs(t, err, ErrControllerNotFound)
	assert.Equal(t, 0, mem.Dials)
}

func TestWritable(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	assert.True(t, svc.Writable())
	assert.False(t, New(nil, nil, Options{}).Writable())
}

func TestCancelledContextDoesNotDial(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Read(ctx, pump.Name)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mem.Dials)
}
