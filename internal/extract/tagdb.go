package extract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rh-editor/internal/model"
)

// Files of the tag database after conversion from Access to SQLite.
const (
	PointsFile    = "SdrPoint30.sqlite"
	BlockAlgFile  = "SdrBlkAlg30.sqlite"
	BpAlgFile     = "SdrBpAlg30.sqlite"
	SimConfigFile = "SdrSimS5Config30.sqlite"
)

// DefaultTagPattern is the SQL LIKE pattern of maintenance-hour tags.
const DefaultTagPattern = "MAINT%_MH"

const pointsQuery = `
SELECT PointConfig.PointId, PointConfig.PointCode, PointConfig.DefaultText, PointConfig.LocalText,
       ConvAlg, CalcAlg, BlockAlg,
       Groups.GroupCode, sim.Points.PLCNo,
       sim.Points.InputType, InputBlock, InputWord, InputBit,
       sim.Points.OutputType, OutputBlock, OutputWord, OutputBit, ParameterBlock
FROM PointConfig, Groups, sim.Points
WHERE (? = 0 OR PointConfig.PointId > 0)
  AND PointConfig.PointCode LIKE '%' || ? || '%'
  AND PointConfig.PointCode NOT LIKE '%_SPM%'
  AND PointConfig.PointCode NOT LIKE '%_SPA%'
  AND Groups.GroupNo = PointConfig.GroupNo
  AND PointConfig.PointId = sim.Points.SDRPointNo
ORDER BY PointConfig.PointCode`

// TagDB reads the converted tag database.
type TagDB struct {
	points *sql.DB
	blkAlg *sql.DB
	bpAlg  *sql.DB
}

// OpenTagDB opens the tag database files in dir. Every file must exist.
func OpenTagDB(dir string) (*TagDB, error) {
	for _, name := range []string{PointsFile, BlockAlgFile, BpAlgFile, SimConfigFile} {
		p := filepath.Join(dir, name)
		st, err := os.Stat(p)
		if err != nil || st.IsDir() {
			return nil, fmt.Errorf("%w: can't open db file %s", ErrSourceMissing, p)
		}
	}

	points, err := sql.Open("sqlite", filepath.Join(dir, PointsFile))
	if err != nil {
		return nil, err
	}
	// ATTACH is per connection
	points.SetMaxOpenConns(1)
	if _, err := points.Exec("ATTACH DATABASE ? AS sim", filepath.Join(dir, SimConfigFile)); err != nil {
		points.Close()
		return nil, fmt.Errorf("attach %s: %w", SimConfigFile, err)
	}
	blk, err := sql.Open("sqlite", filepath.Join(dir, BlockAlgFile))
	if err != nil {
		points.Close()
		return nil, err
	}
	bp, err := sql.Open("sqlite", filepath.Join(dir, BpAlgFile))
	if err != nil {
		points.Close()
		blk.Close()
		return nil, err
	}
	return &TagDB{points: points, blkAlg: blk, bpAlg: bp}, nil
}

func (t *TagDB) Close() error {
	return errors.Join(t.points.Close(), t.blkAlg.Close(), t.bpAlg.Close())
}

// Points returns the rows whose point code contains pattern (LIKE syntax),
// reserved suffixes excluded. onlyAnalog keeps points with a positive id.
func (t *TagDB) Points(ctx context.Context, pattern string, onlyAnalog bool) ([]DatabaseRow, error) {
	only := 0
	if onlyAnalog {
		only = 1
	}
	rows, err := t.points.QueryContext(ctx, pointsQuery, only, pattern)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var out []DatabaseRow
	for rows.Next() {
		var (
			r             DatabaseRow
			def, loc, grp sql.NullString
		)
		if err := rows.Scan(&r.PointID, &r.PointCode, &def, &loc,
			&r.ConvAlg, &r.CalcAlg, &r.BlockAlg,
			&grp, &r.PLCNo,
			&r.InputType, &r.InputBlock, &r.InputWord, &r.InputBit,
			&r.OutputType, &r.OutputBlock, &r.OutputWord, &r.OutputBit, &r.ParameterBlock); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		r.DefaultText, r.LocalText, r.GroupCode = def.String, loc.String, grp.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// ConvAlgName resolves a conversion algorithm number to its English name.
func (t *TagDB) ConvAlgName(ctx context.Context, n any) string {
	return lookupName(ctx, t.bpAlg, "SELECT English FROM AlgMaster WHERE CaptionKey = ?", n)
}

// BlockAlgName resolves a block algorithm number to its table name.
func (t *TagDB) BlockAlgName(ctx context.Context, n any) string {
	return lookupName(ctx, t.blkAlg, "SELECT BlockTableName FROM BlockDescriptionIndex WHERE AlgNo = ?", n)
}

func lookupName(ctx context.Context, db *sql.DB, query string, n any) string {
	key := text(n)
	var name sql.NullString
	if err := db.QueryRowContext(ctx, query, key).Scan(&name); err != nil || !name.Valid {
		return key + " unknown"
	}
	return name.String
}

// AlgNames resolves algorithm numbers; *TagDB implements it.
type AlgNames interface {
	ConvAlgName(ctx context.Context, n any) string
	BlockAlgName(ctx context.Context, n any) string
}

// BuildTag assembles the tag dictionary entry of a database row.
func BuildTag(ctx context.Context, r DatabaseRow, names AlgNames, m Mapping) model.Tag {
	tag := model.Tag{
		ID:      r.PointID,
		Tag:     r.PointCode,
		Groups:  r.GroupCode,
		DescEng: r.DefaultText,
		DescRus: r.LocalText,
		Algorithms: model.TagAlgorithms{
			ConvAlg:  text(r.ConvAlg) + " " + names.ConvAlgName(ctx, r.ConvAlg),
			CalcAlg:  optInt(r.CalcAlg),
			BlockAlg: text(r.BlockAlg) + " " + names.BlockAlgName(ctx, r.BlockAlg),
		},
		PLC: model.TagPLC{
			FC: optInt(r.ParameterBlock),
			Input: model.IOPoint{
				Type:  MemoryTypes[text(r.InputType)],
				Block: optInt(r.InputBlock),
				Word:  optInt(r.InputWord),
				Bit:   optInt(r.InputBit),
			},
			Output: model.IOPoint{
				Type:  MemoryTypes[text(r.OutputType)],
				Block: optInt(r.OutputBlock),
				Word:  optInt(r.OutputWord),
				Bit:   optInt(r.OutputBit),
			},
		},
		Mimics: []string{},
	}
	if n, err := toInt(r.PLCNo); err == nil {
		tag.PLC.PLCNo = m.ControllerNames[n]
	}
	tag.PLCInput = model.InputAddress(tag.PLC.Input.Block, tag.PLC.Input.Word)
	return tag
}

// Tags builds the dictionary entries of rows.
func (t *TagDB) Tags(ctx context.Context, rows []DatabaseRow, m Mapping) []model.Tag {
	out := make([]model.Tag, 0, len(rows))
	for _, r := range rows {
		out = append(out, BuildTag(ctx, r, t, m))
	}
	return out
}
