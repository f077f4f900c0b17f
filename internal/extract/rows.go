// Package extract turns rows of the engineering tag sources into equipment
// records and tag dictionary entries.
package extract

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"rh-editor/internal/model"
)

// WordOffsetBias is added to the word offset found in the tag source to
// get the byte offset of the counter in the destination data block. The
// two numbering schemes differ by this fixed amount on the installation.
const WordOffsetBias = 16

// DefaultControllerNames maps the tag database PLC number to the controller
// name used in plc.json. 0 marks a spare (unassigned) point.
var DefaultControllerNames = map[int64]string{
	0: "spare",
	1: "991",
	2: "992",
	3: "990",
}

// MemoryTypes names the PLC memory type codes of the tag database.
var MemoryTypes = map[string]string{
	"17": "16 Bit",
	"21": "16 Bit",
	"22": "32 Bit",
	"23": "Float",
	"26": "16 Bit/Time",
	"28": "Float/Stat/Timer",
	"29": "8 Bit",
	"30": "Flt/Trig/Sts",
}

// Mapping holds the installation-specific values used to derive records.
type Mapping struct {
	WordOffsetBias  int
	ControllerNames map[int64]string
}

func DefaultMapping() Mapping {
	return Mapping{WordOffsetBias: WordOffsetBias, ControllerNames: DefaultControllerNames}
}

var errEmpty = errors.New("empty value")

// SourceRow is one row of a tag source: a DatabaseRow or a SpreadsheetRow.
type SourceRow interface {
	Key() string
	Equipment(m Mapping) (model.Equipment, error)
}

// DatabaseRow is one result of the joined tag/PLC point query. Columns that
// SQLite types dynamically are kept raw and coerced on use.
type DatabaseRow struct {
	PointID        int64
	PointCode      string
	DefaultText    string
	LocalText      string
	ConvAlg        any
	CalcAlg        any
	BlockAlg       any
	GroupCode      string
	PLCNo          any
	InputType      any
	InputBlock     any
	InputWord      any
	InputBit       any
	OutputType     any
	OutputBlock    any
	OutputWord     any
	OutputBit      any
	ParameterBlock any
}

func (r DatabaseRow) Key() string { return r.PointCode }

func (r DatabaseRow) Equipment(m Mapping) (model.Equipment, error) {
	eq := model.Equipment{Name: r.PointCode}
	if n, err := toInt(r.PLCNo); err == nil {
		eq.Controller = m.ControllerNames[n]
	} else if !errors.Is(err, errEmpty) {
		return eq, fmt.Errorf("PLCNo: %w", err)
	}
	block, err := toInt(r.InputBlock)
	if err != nil {
		return eq, fmt.Errorf("InputBlock: %w", err)
	}
	word, err := toInt(r.InputWord)
	if errors.Is(err, errEmpty) {
		word, err = 0, nil
	}
	if err != nil {
		return eq, fmt.Errorf("InputWord: %w", err)
	}
	return finish(eq, block, word, m)
}

// SpreadsheetRow is one line of the point list export. IOType_0 starts with
// the controller name, IOType_2 is the block and IOType_3 the word.
type SpreadsheetRow struct {
	Line        int
	Designation string
	IOType0     string
	IOType2     string
	IOType3     string
}

func (r SpreadsheetRow) Key() string { return r.Designation }

func (r SpreadsheetRow) Equipment(m Mapping) (model.Equipment, error) {
	eq := model.Equipment{Name: strings.TrimSpace(r.Designation)}
	ctrl := []rune(strings.TrimSpace(r.IOType0))
	if len(ctrl) > 3 {
		ctrl = ctrl[:3]
	}
	eq.Controller = string(ctrl)
	block, err := toInt(r.IOType2)
	if err != nil {
		return eq, fmt.Errorf("IOType_2: %w", err)
	}
	word, err := toInt(r.IOType3)
	if err != nil {
		return eq, fmt.Errorf("IOType_3: %w", err)
	}
	return finish(eq, block, word, m)
}

func finish(eq model.Equipment, block, word int64, m Mapping) (model.Equipment, error) {
	if block < 0 || word < 0 {
		return eq, fmt.Errorf("negative address %d/%d", block, word)
	}
	eq.DBNumber = int(block)
	eq.DBOffset = int(word) + m.WordOffsetBias
	return eq, nil
}

// toInt coerces a loosely typed cell: integers, integral floats and their
// text forms. nil and blank text yield errEmpty.
func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, errEmpty
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		return int64(x), nil
	case []byte:
		return toInt(string(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, errEmpty
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		return toInt(f)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// optInt is toInt for optional columns.
func optInt(v any) *int64 {
	n, err := toInt(v)
	if err != nil {
		return nil
	}
	return &n
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
