package extract

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDB(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
}

func tagFixture(t *testing.T) string {
	dir := t.TempDir()
	writeDB(t, filepath.Join(dir, PointsFile),
		`CREATE TABLE Groups (GroupNo INTEGER, GroupCode TEXT)`,
		`CREATE TABLE PointConfig (PointId INTEGER, PointCode TEXT, DefaultText TEXT, LocalText TEXT,
			ConvAlg INTEGER, CalcAlg INTEGER, BlockAlg INTEGER, GroupNo INTEGER)`,
		`INSERT INTO Groups VALUES (1, 'RAW MILL'), (2, 'KILN')`,
		`INSERT INTO PointConfig VALUES
			(10, 'F1_MAINT_MH', 'Fan 1 hours', 'Вентилятор 1', 5, NULL, 7, 1),
			(11, 'F1_MAINT_MH_SPM', 'Fan 1 setpoint', '', 5, NULL, 7, 1),
			(12, 'K2_MAINT_MH', 'Kiln drive hours', NULL, 6, 2, 8, 2),
			(-3, 'K3_MAINT_MH', 'Virtual', NULL, 6, NULL, 8, 2),
			(13, 'K4_SPEED', 'Kiln speed', NULL, 6, NULL, 8, 2)`,
	)
	writeDB(t, filepath.Join(dir, SimConfigFile),
		`CREATE TABLE Points (SDRPointNo INTEGER, PLCNo INTEGER,
			InputType INTEGER, InputBlock INTEGER, InputWord INTEGER, InputBit INTEGER,
			OutputType INTEGER, OutputBlock INTEGER, OutputWord INTEGER, OutputBit INTEGER, ParameterBlock INTEGER)`,
		`INSERT INTO Points VALUES
			(10, 1, 22, 40, 100, NULL, NULL, NULL, NULL, NULL, 3),
			(11, 1, 22, 40, 104, NULL, NULL, NULL, NULL, NULL, 3),
			(12, 3, 22, 41, NULL, NULL, 17, 41, 8, 0, NULL),
			(-3, 2, 22, 42, 0, NULL, NULL, NULL, NULL, NULL, NULL),
			(13, 2, 23, 42, 4, NULL, NULL, NULL, NULL, NULL, NULL)`,
	)
	writeDB(t, filepath.Join(dir, BlockAlgFile),
		`CREATE TABLE BlockDescriptionIndex (AlgNo INTEGER, BlockTableName TEXT)`,
		`INSERT INTO BlockDescriptionIndex VALUES (7, 'MOTOR')`,
	)
	writeDB(t, filepath.Join(dir, BpAlgFile),
		`CREATE TABLE AlgMaster (CaptionKey INTEGER, English TEXT)`,
		`INSERT INTO AlgMaster VALUES (5, 'Counter'), (6, 'Linear')`,
	)
	return dir
}

func TestOpenTagDBMissing(t *testing.T) {
	dir := tagFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, BpAlgFile)))

	_, err := OpenTagDB(dir)
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestTagDBPoints(t *testing.T) {
	db, err := OpenTagDB(tagFixture(t))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	rows, err := db.Points(ctx, DefaultTagPattern, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "F1_MAINT_MH", rows[0].PointCode)
	assert.Equal(t, "RAW MILL", rows[0].GroupCode)
	assert.Equal(t, "K3_MAINT_MH", rows[2].PointCode)

	rows, err = db.Points(ctx, DefaultTagPattern, true)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	res := Extract(DatabaseRows(rows), Filter{}, DefaultMapping(), nil)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "991", res.Records[0].Controller)
	assert.Equal(t, 40, res.Records[0].DBNumber)
	assert.Equal(t, 116, res.Records[0].DBOffset)
	assert.Equal(t, "990", res.Records[1].Controller)
	assert.Equal(t, 16, res.Records[1].DBOffset)
}

func TestTagDBTags(t *testing.T) {
	db, err := OpenTagDB(tagFixture(t))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	rows, err := db.Points(ctx, DefaultTagPattern, true)
	require.NoError(t, err)
	tags := db.Tags(ctx, rows, DefaultMapping())
	require.Len(t, tags, 2)

	fan := tags[0]
	assert.Equal(t, int64(10), fan.ID)
	assert.Equal(t, "5 Counter", fan.Algorithms.ConvAlg)
	assert.Equal(t, "7 MOTOR", fan.Algorithms.BlockAlg)
	assert.Nil(t, fan.Algorithms.CalcAlg)
	assert.Equal(t, "991", fan.PLC.PLCNo)
	assert.Equal(t, "32 Bit", fan.PLC.Input.Type)
	assert.Equal(t, "%DB40.DBD100", fan.PLCInput)
	require.NotNil(t, fan.PLC.FC)
	assert.Equal(t, int64(3), *fan.PLC.FC)
	assert.Equal(t, "Вентилятор 1", fan.DescRus)

	kiln := tags[1]
	assert.Equal(t, "8 8 unknown", kiln.Algorithms.BlockAlg)
	assert.Equal(t, "%DB41.DBDNone", kiln.PLCInput)
	assert.Equal(t, "16 Bit", kiln.PLC.Output.Type)
	assert.Equal(t, "", kiln.DescRus)
}

func TestScanMimics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kiln.g"), []byte("obj K2_MAINT_MH\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mill.g"), []byte("obj F1_MAINT_MH K2_MAINT_MH\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("F1_MAINT_MH"), 0o644))

	db, err := OpenTagDB(tagFixture(t))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	rows, err := db.Points(ctx, DefaultTagPattern, false)
	require.NoError(t, err)
	tags := db.Tags(ctx, rows, DefaultMapping())

	n, err := ScanMimics(dir, tags)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"mill.g"}, tags[0].Mimics)
	assert.Equal(t, []string{"kiln.g", "mill.g"}, tags[1].Mimics)

	orphans := WithoutMimic(tags)
	require.Len(t, orphans, 1)
	assert.Equal(t, "K3_MAINT_MH", orphans[0].Tag)

	_, err = ScanMimics(filepath.Join(dir, "absent"), tags)
	assert.ErrorIs(t, err, ErrSourceMissing)
}
