package pipeline

import (
	"strconv"
	"strings"
	"time"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is one raw spreadsheet value. Number keeps spreadsheet serials intact
// and Date carries native date values where the source format has them.
// Numeric cells read from text keep that text, so String returns the value
// as written and only date coercion looks at Number.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// numericCell is a number parsed from raw, which String still returns verbatim.
func numericCell(raw string, f float64) Cell {
	return Cell{Kind: CellNumber, Text: raw, Number: f}
}

func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDate, Time: t}
}

func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		if c.Text != "" {
			return c.Text
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		return c.Time.UTC().Format("2006-01-02")
	default:
		return ""
	}
}

// IsBlank reports whether the cell is missing or whitespace only.
func (c Cell) IsBlank() bool {
	return strings.TrimSpace(c.String()) == ""
}

func isBlankRow(row []Cell) bool {
	for _, c := range row {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

func dropBlankRows(rows [][]Cell) [][]Cell {
	out := make([][]Cell, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}
