// Package xlsread converts tables found in spreadsheets into records.
//
//	people, err := xlsread.ReadTable(sheet, &xlsread.Schema{
//		Name:       "Person",
//		NumIDAttrs: 1,
//		Attrs: []xlsread.AttrRule{
//			{Attr: "id", Column: "Id", Reader: xlsread.Int{}},
//			{Attr: "name", Column: "Person's name", Reader: xlsread.Str{}},
//			{Attr: "grades", Column: xlsread.RangeColumn, Range: xlsread.RangeDict{Reader: xlsread.Int{}}},
//		},
//	})
//
// Sheets may be read from xlsx files (OpenXLSX) or csv (ReadCSV).
package xlsread

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Cell of a sheet. Value is nil, string, int64, float64, bool or time.Time.
type Cell struct {
	Sheet string
	Row   int // 0-based
	Col   int // 0-based
	Value any
}

// Coordinate returns excel-style coordinate of the cell: "A1", "AB10".
func (c Cell) Coordinate() string { return Coordinate(c.Row, c.Col) }

func (c Cell) String() string {
	return fmt.Sprintf("%s!%s", quoteSheet(c.Sheet), c.Coordinate())
}

// IsEmpty reports whether the cell has no value or only whitespace.
func (c Cell) IsEmpty() bool {
	if c.Value == nil {
		return true
	}
	if s, ok := c.Value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Coordinate converts 0-based row and column to excel coordinate.
func Coordinate(row, col int) string {
	var name []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		name = append([]byte{byte('A' + (n-1)%26)}, name...)
	}
	return string(name) + strconv.Itoa(row+1)
}

func quoteSheet(title string) string {
	if strings.ContainsAny(title, " \t") {
		return "'" + title + "'"
	}
	return title
}

// Sheet is a source of table data.
type Sheet interface {
	Title() string
	// Rows returns all rows; all rows have the same length.
	Rows() ([][]Cell, error)
}

// MemSheet is a sheet with values kept in memory.
type MemSheet struct {
	Name string
	Data [][]any
}

func (s *MemSheet) Title() string { return s.Name }

func (s *MemSheet) Rows() ([][]Cell, error) {
	width := 0
	for _, r := range s.Data {
		width = max(width, len(r))
	}
	rows := make([][]Cell, len(s.Data))
	for i, r := range s.Data {
		rows[i] = make([]Cell, width)
		for j := range rows[i] {
			rows[i][j] = Cell{Sheet: s.Name, Row: i, Col: j}
			if j < len(r) {
				rows[i][j].Value = r[j]
			}
		}
	}
	return rows, nil
}

// ReadCSV reads csv data into a sheet. Empty fields become nil and
// integer fields become int64; everything else stays a string.
func ReadCSV(r io.Reader, title string) (*MemSheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", title, err)
	}

	sheet := &MemSheet{Name: title, Data: make([][]any, len(records))}
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, field := range rec {
			row[j] = csvValue(field)
		}
		sheet.Data[i] = row
	}
	return sheet, nil
}

func csvValue(field string) any {
	if field == "" {
		return nil
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64); err == nil {
		return n
	}
	return field
}
