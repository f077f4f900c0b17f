// Package hours converts between the raw seconds counters kept in the PLC
// and the hours shown to the operator.
package hours

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	SecondsPerHour = 3600

	// Min and Max bound every value accepted at the edit boundary.
	Min = 0.0
	Max = 10000.0
)

var decimal = regexp.MustCompile(`^[+-]?(\d+([.,]\d*)?|[.,]\d+)([eE][+-]?\d+)?$`)

var (
	ErrNotNumeric = errors.New("hours value is not a number")
	ErrOutOfRange = fmt.Errorf("hours value must be between %g and %g", Min, Max)
)

// SecondsToHours converts a raw counter to hours.
func SecondsToHours(seconds int64) float64 {
	return float64(seconds) / SecondsPerHour
}

// HoursToSeconds converts hours to the nearest whole second.
func HoursToSeconds(h float64) int64 {
	return int64(math.Round(h * SecondsPerHour))
}

// Validate reports whether h may be written to a counter.
func Validate(h float64) bool {
	if math.IsNaN(h) {
		return false
	}
	return h >= Min && h <= Max
}

// Parse reads an operator-entered hours value. A comma is accepted as the
// decimal separator.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !decimal.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	h, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	if !Validate(h) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, Format(h))
	}
	return h, nil
}

// Format renders hours with two decimals.
func Format(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

// AcceptsInput is the keystroke check used by input fields: a partially
// typed value is accepted while it is empty or a valid number in range.
func AcceptsInput(s string) bool {
	if s == "" {
		return true
	}
	_, err := Parse(s)
	return err == nil
}
