package xlsread

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Workbook is an open xlsx file.
type Workbook struct {
	f *excelize.File
}

func OpenXLSX(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Workbook{f: f}, nil
}

func ReadXLSX(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx: %w", err)
	}
	return &Workbook{f: f}, nil
}

func (wb *Workbook) Close() error { return wb.f.Close() }

// SheetNames returns names of the worksheets in workbook order.
func (wb *Workbook) SheetNames() []string { return wb.f.GetSheetList() }

// Sheet returns the worksheet by name.
func (wb *Workbook) Sheet(name string) (Sheet, error) {
	idx, err := wb.f.GetSheetIndex(name)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("worksheet '%s' not found, available: %v", name, wb.SheetNames())
	}
	return &xlsxSheet{f: wb.f, name: name}, nil
}

type xlsxSheet struct {
	f    *excelize.File
	name string
}

func (s *xlsxSheet) Title() string { return s.name }

func (s *xlsxSheet) Rows() ([][]Cell, error) {
	raw, err := s.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet '%s': %w", s.name, err)
	}
	width := 0
	for _, r := range raw {
		width = max(width, len(r))
	}

	rows := make([][]Cell, len(raw))
	for i, r := range raw {
		rows[i] = make([]Cell, width)
		for j := range rows[i] {
			cell := Cell{Sheet: s.name, Row: i, Col: j}
			if j < len(r) && r[j] != "" {
				cell.Value, err = s.value(cell, r[j])
				if err != nil {
					return nil, err
				}
			}
			rows[i][j] = cell
		}
	}
	return rows, nil
}

// value converts raw cell text according to the cell type.
func (s *xlsxSheet) value(cell Cell, raw string) (any, error) {
	ct, err := s.f.GetCellType(s.name, cell.Coordinate())
	if err != nil {
		return nil, fmt.Errorf("failed to get type of cell %s: %w", cell, err)
	}
	switch ct {
	case excelize.CellTypeBool:
		return raw == "1" || raw == "TRUE" || raw == "true", nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw, nil
	case excelize.CellTypeDate:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(f, false); err == nil {
				return t, nil
			}
		}
		return raw, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if f == float64(int64(f)) {
			return int64(f), nil
		}
		return f, nil
	}
	return raw, nil
}
