package extract

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rh-editor/internal/model"
)

func TestDatabaseRowEquipment(t *testing.T) {
	m := DefaultMapping()
	tests := []struct {
		name    string
		row     DatabaseRow
		want    model.Equipment
		wantErr bool
	}{
		{
			name: "word offset biased",
			row:  DatabaseRow{PointCode: "P1_MAINT_MH", PLCNo: int64(1), InputBlock: int64(5), InputWord: int64(100)},
			want: model.Equipment{Name: "P1_MAINT_MH", Controller: "991", DBNumber: 5, DBOffset: 116},
		},
		{
			name: "missing word counts as zero",
			row:  DatabaseRow{PointCode: "P2_MAINT_MH", PLCNo: int64(3), InputBlock: int64(7)},
			want: model.Equipment{Name: "P2_MAINT_MH", Controller: "990", DBNumber: 7, DBOffset: 16},
		},
		{
			name: "unknown plc number",
			row:  DatabaseRow{PointCode: "P3_MAINT_MH", PLCNo: int64(9), InputBlock: int64(2), InputWord: "4"},
			want: model.Equipment{Name: "P3_MAINT_MH", DBNumber: 2, DBOffset: 20},
		},
		{
			name:    "missing block",
			row:     DatabaseRow{PointCode: "P4_MAINT_MH", PLCNo: int64(1), InputWord: int64(4)},
			wantErr: true,
		},
		{
			name:    "text block",
			row:     DatabaseRow{PointCode: "P5_MAINT_MH", PLCNo: int64(1), InputBlock: "DB", InputWord: int64(4)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.row.Equipment(m)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpreadsheetRowEquipment(t *testing.T) {
	m := DefaultMapping()

	got, err := SpreadsheetRow{Designation: "M1 MAINT MH", IOType0: "991-A12", IOType2: "12", IOType3: "40"}.Equipment(m)
	require.NoError(t, err)
	assert.Equal(t, model.Equipment{Name: "M1 MAINT MH", Controller: "991", DBNumber: 12, DBOffset: 56}, got)

	got, err = SpreadsheetRow{Designation: "M2 MAINT MH", IOType0: "992", IOType2: "12.0", IOType3: "0"}.Equipment(m)
	require.NoError(t, err)
	assert.Equal(t, 16, got.DBOffset)

	_, err = SpreadsheetRow{Designation: "M3 MAINT MH", IOType0: "992", IOType2: "", IOType3: "4"}.Equipment(m)
	assert.Error(t, err)

	_, err = SpreadsheetRow{Designation: "M4 MAINT MH", IOType0: "992", IOType2: "3", IOType3: "4.5"}.Equipment(m)
	assert.Error(t, err)
}

func TestFilterEligible(t *testing.T) {
	f := Filter{Match: DefaultSheetPattern, Exclude: ReservedSuffixes}
	assert.True(t, f.Eligible("Conveyor MAINT MH"))
	assert.True(t, f.Eligible("conveyor_maint_mh_2"))
	assert.False(t, f.Eligible("Conveyor MAINT MH_SPM"))
	assert.False(t, f.Eligible("Conveyor MAINT MHX"))
	assert.False(t, f.Eligible("MAINT MH"))

	all := Filter{}
	assert.True(t, all.Eligible("anything"))
}

func TestExtractSkipsBadRows(t *testing.T) {
	var rows []SpreadsheetRow
	for i := 0; i < 10; i++ {
		rows = append(rows, SpreadsheetRow{
			Line:        i + 2,
			Designation: "Pump " + string(rune('A'+i)) + " MAINT MH",
			IOType0:     "991",
			IOType2:     "20",
			IOType3:     "8",
		})
	}
	rows[4].IOType2 = "n/a"
	rows = append(rows, SpreadsheetRow{Designation: "Pump Z speed", IOType0: "991", IOType2: "1", IOType3: "1"})

	var buf bytes.Buffer
	res := Extract(SpreadsheetRows(rows), Filter{Match: DefaultSheetPattern}, DefaultMapping(), log.New(&buf, "", 0))

	assert.Len(t, res.Records, 9)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "Pump E MAINT MH", res.Skipped[0].Key)
	assert.Equal(t, 1, res.Ineligible)
	assert.Equal(t, 1, strings.Count(buf.String(), "skip "))
	assert.Contains(t, buf.String(), "Pump E MAINT MH")
	for _, eq := range res.Records {
		assert.Equal(t, 24, eq.DBOffset)
	}
}

func TestExtractEmpty(t *testing.T) {
	res := Extract(nil, Filter{}, DefaultMapping(), log.New(&bytes.Buffer{}, "", 0))
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
}
