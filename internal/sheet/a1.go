// Package sheet models the ledger as a spreadsheet: A1-notation ranges and
// cell references, the Store interface every backend implements, and the
// decorators (read cache, instrumentation) layered on top of a backend.
package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Range is a rectangular A1 range such as "Sheet1!A:D" or "Sheet1!A2:D10".
// Columns and rows are 1-based and inclusive. EndRow == 0 means the range
// is open-ended (whole columns).
type Range struct {
	Sheet    string
	StartCol int
	EndCol   int
	StartRow int
	EndRow   int
}

// CellRef addresses a single cell, e.g. "Sheet1!C5".
type CellRef struct {
	Sheet string
	Col   int
	Row   int
}

// Columns builds an open-ended range over whole columns, e.g. Columns("Sheet1", "A", "D").
func Columns(sheetName, from, to string) (Range, error) {
	return ParseRange(fmt.Sprintf("%s!%s:%s", quoteSheet(sheetName), from, to))
}

// ParseRange parses A1 notation. The sheet prefix is optional; a quoted
// sheet name ('My Sheet'!A1:B2) is accepted.
func ParseRange(s string) (Range, error) {
	sheetName, body, err := splitSheet(s)
	if err != nil {
		return Range{}, err
	}
	from, to, hasColon := strings.Cut(body, ":")
	if !hasColon {
		to = from
	}
	sc, sr, err := parseEndpoint(from)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	ec, er, err := parseEndpoint(to)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	// Column-only endpoints must be paired: "A:D" or "A1:D10", never "A:D10".
	if (sr == 0) != (er == 0) {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	if ec < sc || (er != 0 && er < sr) {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	if sr == 0 {
		sr = 1
	}
	return Range{Sheet: sheetName, StartCol: sc, EndCol: ec, StartRow: sr, EndRow: er}, nil
}

// ParseCellRef parses a single-cell reference such as "Sheet1!C5".
func ParseCellRef(s string) (CellRef, error) {
	sheetName, body, err := splitSheet(s)
	if err != nil {
		return CellRef{}, err
	}
	col, row, err := excelize.CellNameToCoordinates(body)
	if err != nil {
		return CellRef{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return CellRef{Sheet: sheetName, Col: col, Row: row}, nil
}

// Width is the number of columns covered by the range.
func (r Range) Width() int { return r.EndCol - r.StartCol + 1 }

// Contains reports whether the cell lies inside the range.
func (r Range) Contains(c CellRef) bool {
	if c.Sheet != r.Sheet || c.Col < r.StartCol || c.Col > r.EndCol || c.Row < r.StartRow {
		return false
	}
	return r.EndRow == 0 || c.Row <= r.EndRow
}

// String renders the range back to A1 notation.
func (r Range) String() string {
	sc, _ := excelize.ColumnNumberToName(r.StartCol)
	ec, _ := excelize.ColumnNumberToName(r.EndCol)
	var body string
	if r.EndRow == 0 {
		if r.StartRow > 1 {
			body = fmt.Sprintf("%s%d:%s", sc, r.StartRow, ec)
		} else {
			body = sc + ":" + ec
		}
	} else {
		body = fmt.Sprintf("%s%d:%s%d", sc, r.StartRow, ec, r.EndRow)
	}
	if r.Sheet == "" {
		return body
	}
	return quoteSheet(r.Sheet) + "!" + body
}

// Cell renders the reference without the sheet prefix, e.g. "C5".
func (c CellRef) Cell() string {
	name, _ := excelize.CoordinatesToCellName(c.Col, c.Row)
	return name
}

// String renders the reference back to A1 notation.
func (c CellRef) String() string {
	if c.Sheet == "" {
		return c.Cell()
	}
	return quoteSheet(c.Sheet) + "!" + c.Cell()
}

// Ref builds a cell reference from a sheet, a column letter, and a row.
func Ref(sheetName, column string, row int) (CellRef, error) {
	col, err := excelize.ColumnNameToNumber(column)
	if err != nil || row < 1 {
		return CellRef{}, fmt.Errorf("%w: %s%d", ErrInvalidRange, column, row)
	}
	return CellRef{Sheet: sheetName, Col: col, Row: row}, nil
}

func splitSheet(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidRange)
	}
	i := strings.LastIndex(s, "!")
	if i < 0 {
		return "", s, nil
	}
	name := s[:i]
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		name = strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	if name == "" || i == len(s)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return name, s[i+1:], nil
}

// parseEndpoint accepts "C" (row 0) or "C5".
func parseEndpoint(s string) (col, row int, err error) {
	s = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, "$", "")))
	if s == "" {
		return 0, 0, ErrInvalidRange
	}
	if strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) < 0 {
		col, err = excelize.ColumnNameToNumber(s)
		return col, 0, err
	}
	return excelize.CellNameToCoordinates(s)
}

func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
