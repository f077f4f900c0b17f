package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rh-editor/internal/db"
	"rh-editor/internal/model"
	"rh-editor/internal/plcsim"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"equips.json": `{"equips":[{"eq_name":"M1_MAINT_MH","plc_name":"991","db_num":700,"db_addr":116}]}`,
		"plc.json":    `{"plc":[{"plc_name":"991","plc_addr":"10.0.0.91"}]}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	journal := filepath.Join(dir, "journal.db")
	cfg := "files:\n" +
		"  equipment: " + filepath.Join(dir, "equips.json") + "\n" +
		"  controllers: " + filepath.Join(dir, "plc.json") + "\n" +
		"journal:\n" +
		"  enabled: true\n" +
		"  path: " + journal + "\n"
	path := filepath.Join(dir, "rheditor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, journal
}

func TestRunUsage(t *testing.T) {
	assert.ErrorIs(t, run("", false, nil, plcsim.NewMemory()), errUsage)

	cfg, _ := writeConfig(t)
	assert.ErrorIs(t, run(cfg, false, []string{"erase", "M1_MAINT_MH"}, plcsim.NewMemory()), errUsage)
}

func TestRunWriteUnconfirmedReturnsError(t *testing.T) {
	cfg, journal := writeConfig(t)
	mem := plcsim.NewMemory()
	mem.ReadErr["991"] = errors.New("read refused")

	err := run(cfg, false, []string{"write", "M1_MAINT_MH", "3"}, mem)
	require.ErrorIs(t, err, errUnconfirmed)
	assert.Equal(t, int32(10800), mem.Counter(model.Equipment{Controller: "991", DBNumber: 700, DBOffset: 116}))

	j, err := db.Open(journal)
	require.NoError(t, err)
	defer j.Close()
	rows, err := j.History(context.Background(), "M1_MAINT_MH", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.WriteUnconfirmed, rows[0].Status)
}

func TestRunReadFailureReturnsError(t *testing.T) {
	cfg, _ := writeConfig(t)
	mem := plcsim.NewMemory()
	mem.ConnectErr["991"] = errors.New("no route")

	err := run(cfg, false, []string{"read", "M1_MAINT_MH"}, mem)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read M1_MAINT_MH")
}
