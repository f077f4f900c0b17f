package extract

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"rh-editor/internal/model"
)

// ErrSourceMissing reports an absent tag database or spreadsheet.
var ErrSourceMissing = errors.New("tag source not found")

// DefaultSheetPattern selects maintenance-hour designations in the point
// list export.
var DefaultSheetPattern = regexp.MustCompile(`(?i).+maint.+mh(_\d+)?$`)

// ReservedSuffixes are tag markers never turned into equipment.
var ReservedSuffixes = []string{"_SPM", "_SPA"}

// Filter decides which rows are eligible. A nil Match accepts every name.
type Filter struct {
	Match   *regexp.Regexp
	Exclude []string
}

func (f Filter) Eligible(name string) bool {
	if f.Match != nil && !f.Match.MatchString(name) {
		return false
	}
	upper := strings.ToUpper(name)
	for _, s := range f.Exclude {
		if strings.Contains(upper, strings.ToUpper(s)) {
			return false
		}
	}
	return true
}

// RowError is a row skipped because its fields could not be coerced.
type RowError struct {
	Index int
	Key   string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Index, e.Key, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

type Result struct {
	Records []model.Equipment
	Skipped []*RowError
	// Ineligible counts rows rejected by the filter.
	Ineligible int
}

// Extract maps eligible rows to equipment records. Rows that fail
// coercion are logged and skipped; the batch continues.
func Extract(rows []SourceRow, f Filter, m Mapping, logger *log.Logger) Result {
	if logger == nil {
		logger = log.Default()
	}
	res := Result{Records: make([]model.Equipment, 0, len(rows))}
	for i, row := range rows {
		if !f.Eligible(row.Key()) {
			res.Ineligible++
			continue
		}
		eq, err := row.Equipment(m)
		if err != nil {
			re := &RowError{Index: i, Key: row.Key(), Err: err}
			logger.Printf("skip %v", re)
			res.Skipped = append(res.Skipped, re)
			continue
		}
		res.Records = append(res.Records, eq)
	}
	return res
}

// DatabaseRows adapts query results to SourceRow.
func DatabaseRows(rows []DatabaseRow) []SourceRow {
	out := make([]SourceRow, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// SpreadsheetRows adapts sheet lines to SourceRow.
func SpreadsheetRows(rows []SpreadsheetRow) []SourceRow {
	out := make([]SourceRow, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
