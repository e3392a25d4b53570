package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TypeConversionError reports a cell that cannot be coerced to its canonical
// type. It is fatal to a load run; nothing is published.
type TypeConversionError struct {
	Column string
	Value  string
	Row    int64
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("row %d: column %q: cannot convert %q", e.Row, e.Column, e.Value)
}

// Text trims surrounding whitespace.
func Text(v string) string {
	return strings.TrimSpace(v)
}

// Code coerces a procedure code to canonical text form: trimmed, with the
// trailing ".0" artifact stripped. The artifact appears when a numeric-code
// column was read as a floating value upstream. Codes are never compared or
// stored as numbers, so leading zeros survive.
func Code(v string) string {
	s := strings.TrimSpace(v)
	if t, ok := strings.CutSuffix(s, ".0"); ok {
		return t
	}
	return s
}

// Modifier coerces a modifier cell to text-or-absent. Empty strings and the
// textual not-a-number spellings produced by spreadsheet exports all mean
// "no modifier" and normalize to nil, never to "".
func Modifier(v string) *string {
	s := strings.TrimSpace(v)
	switch s {
	case "", "nan", "NaN", "NAN":
		return nil
	}
	return &s
}

// GeoZip coerces a geographic zone cell to an integer. Whole-valued floats
// ("75001.0") are accepted because numeric columns round-trip through float
// formatting in some extracts; anything else fails.
func GeoZip(column, v string, row int64) (int64, error) {
	s := strings.TrimSpace(v)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return int64(f), nil
	}
	return 0, &TypeConversionError{Column: column, Value: v, Row: row}
}
