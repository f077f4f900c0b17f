package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column headers read from the point list export.
const (
	ColDesignation = "Designation"
	ColIOType0     = "IOType_0"
	ColIOType2     = "IOType_2"
	ColIOType3     = "IOType_3"
)

// ReadSheet reads the point list export. sheet selects a worksheet; empty
// means the first one.
func ReadSheet(path, sheet string) ([]SpreadsheetRow, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	if _, ok := cols[ColDesignation]; !ok {
		return nil, fmt.Errorf("sheet %q: column %s not found", sheet, ColDesignation)
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]SpreadsheetRow, 0, len(rows)-1)
	for n, row := range rows[1:] {
		out = append(out, SpreadsheetRow{
			Line:        n + 2,
			Designation: cell(row, ColDesignation),
			IOType0:     cell(row, ColIOType0),
			IOType2:     cell(row, ColIOType2),
			IOType3:     cell(row, ColIOType3),
		})
	}
	return out, nil
}
