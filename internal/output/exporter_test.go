package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rh-editor/internal/model"
	"rh-editor/internal/registry"
)

func TestWriteEquipmentRoundTrip(t *testing.T) {
	records := []model.Equipment{
		{Name: "F1_MAINT_MH", Controller: "991", DBNumber: 40, DBOffset: 116},
		{Name: "K2_MAINT_MH", Controller: "990", DBNumber: 41, DBOffset: 16},
	}
	for _, name := range []string{"equips.json", "equips.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteEquipment(path, records))

			res := registry.LoadEquipment(path)
			require.NoError(t, res.Err)
			assert.Equal(t, registry.Loaded, res.Status)
			assert.Equal(t, records, res.Items)
		})
	}
}

func TestWriteEquipmentEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equips.json")
	require.NoError(t, WriteEquipment(path, nil))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"equips": []}`, string(b))

	res := registry.LoadEquipment(path)
	assert.Equal(t, registry.Loaded, res.Status)
	assert.Empty(t, res.Items)
}

func TestWriteEquipmentReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "equips.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, WriteEquipment(path, []model.Equipment{{Name: "A", Controller: "991", DBNumber: 1, DBOffset: 16}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, registry.LoadEquipment(path).Items, 1)
}

func TestWriteControllers(t *testing.T) {
	rack, slot := 0, 2
	path := filepath.Join(t.TempDir(), "plc.json")
	require.NoError(t, WriteControllers(path, []model.ControllerSpec{
		{Name: "991", Address: "10.0.0.5", Rack: &rack, Slot: &slot, Group: "1"},
	}))

	res := registry.LoadControllers(path)
	require.NoError(t, res.Err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "10.0.0.5", res.Items[0].Address)
	assert.Equal(t, 2, res.Items[0].Slot)
}

func TestWriteControllersKeepsGroupText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plc.json")
	require.NoError(t, WriteControllers(path, []model.ControllerSpec{
		{Name: "991", Address: "h1", Group: "01"},
		{Name: "992", Address: "h2", Group: "+1"},
		{Name: "993", Address: "h3", Group: "7"},
		{Name: "994", Address: "h4", Group: "KILN"},
	}))

	res := registry.LoadControllers(path)
	require.NoError(t, res.Err)
	require.Len(t, res.Items, 4)
	got := map[string]model.GroupID{}
	for _, c := range res.Items {
		got[c.Name] = c.Group
	}
	assert.Equal(t, map[string]model.GroupID{"991": "01", "992": "+1", "993": "7", "994": "KILN"}, got)
}

func TestWriteControllersNumericGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plc.json")
	require.NoError(t, WriteControllers(path, []model.ControllerSpec{
		{Name: "991", Address: "h", Group: "7"},
		{Name: "992", Address: "h", Group: "01"},
	}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"zif": 7`)
	assert.Contains(t, string(b), `"zif": "01"`)
}

func sampleTags() []model.Tag {
	block, word := int64(40), int64(100)
	return []model.Tag{{
		ID:       10,
		Tag:      "F1_MAINT_MH",
		Groups:   "RAW MILL",
		DescEng:  "Fan 1 hours",
		DescRus:  "Вентилятор 1",
		PLC:      model.TagPLC{PLCNo: "991", Input: model.IOPoint{Type: "32 Bit", Block: &block, Word: &word}},
		PLCInput: model.InputAddress(&block, &word),
		Mimics:   []string{"mill.g", "kiln.g"},
	}}
}

func TestEncodeTagsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeTagsCSV(&buf, sampleTags()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, TagsCSVHeader, recs[0])
	assert.Equal(t, "10", recs[1][0])
	assert.Equal(t, "%DB40.DBD100", recs[1][6])
	assert.Contains(t, recs[1][5], `"PLCNo":"991"`)
	assert.Equal(t, "mill.g kiln.g", recs[1][8])
}

func TestEncodeTelegraf(t *testing.T) {
	var buf bytes.Buffer
	EncodeTelegraf(&buf, sampleTags())
	assert.Equal(t, "   nodes = [\n"+
		`     {name="F1_MAINT_MH Fan 1 hours", namespace="1", identifier_type="s", identifier="t|F1_MAINT_MH"},`+"\n"+
		"]\n", buf.String())
}

func TestWriteTagsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	require.NoError(t, WriteTagsYAML(path, sampleTags()))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "PLC_INP: '%DB40.DBD100'")
	assert.Contains(t, string(b), "Tag: F1_MAINT_MH")
}
