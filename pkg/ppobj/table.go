package ppobj

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akorshkov/aktools/pkg/color"
)

const (
	DefaultMinWidth = 3
	DefaultMaxWidth = 50
	DefaultMaxRows  = 20
)

var (
	ErrBadColumn = errors.New("invalid table column")
	ErrBadFormat = errors.New("invalid format modifier")
)

var TablePalette = &color.PaletteSpec{
	Name:    "TablePalette",
	Parents: []*color.PaletteSpec{JSONPalette},
	Defaults: map[string]any{
		"TABLE": map[string]any{
			"BORDER":    "GREEN",
			"NAME":      "NAME",
			"COL_TITLE": "GREEN:bold",
		},
	},
	Colors: map[string]string{
		"border":    "TABLE.BORDER",
		"tbl_name":  "TABLE.NAME",
		"col_title": "TABLE.COL_TITLE",
		"warn":      "WARN",
		"error":     "ERROR",
	},
}

// Palettized is implemented by field types which need their own palette.
type Palettized interface {
	PaletteSpec() *color.PaletteSpec
}

func (f *EnumField) PaletteSpec() *color.PaletteSpec { return EnumPalette }

// ColumnSpec describes a visible column. Field is either a field name
// (must be unique among table fields) or an int position in record.
// Zero widths mean defaults; negative MaxWidth hides the column.
type ColumnSpec struct {
	Field    any
	MinWidth int
	MaxWidth int
	Type     FieldType
	Format   string
}

type column struct {
	name     string
	pos      int
	minWidth int
	maxWidth int
	ftype    FieldType
	format   string
}

// Table is a pretty-printable 2-D table, such as results of sql request.
type Table struct {
	Name    string
	Fields  []string
	Records [][]any
	// MaxRows limits the number of printed rows (DefaultMaxRows if zero);
	// negative means unlimited.
	MaxRows int
	Palette *color.Palette

	columns []column
}

// NewTable creates a table. Without columns all fields are visible.
func NewTable(name string, fields []string, records [][]any, columns ...ColumnSpec) (*Table, error) {
	t := &Table{
		Name:    name,
		Fields:  fields,
		Records: records,
		MaxRows: DefaultMaxRows,
	}
	if err := t.SetColumns(columns...); err != nil {
		return nil, err
	}
	return t, nil
}

// SetColumns sets the visible columns.
func (t *Table) SetColumns(specs ...ColumnSpec) error {
	if len(specs) == 0 {
		t.columns = make([]column, len(t.Fields))
		for i, n := range t.Fields {
			t.columns[i] = column{
				name: n, pos: i,
				minWidth: DefaultMinWidth, maxWidth: DefaultMaxWidth,
				ftype: DefaultField{},
			}
		}
		return nil
	}

	positions := map[string][]int{}
	for i, n := range t.Fields {
		positions[n] = append(positions[n], i)
	}

	cols := make([]column, 0, len(specs))
	for _, spec := range specs {
		col := column{
			minWidth: spec.MinWidth,
			maxWidth: spec.MaxWidth,
			ftype:    spec.Type,
			format:   spec.Format,
		}
		if col.minWidth == 0 {
			col.minWidth = DefaultMinWidth
		}
		if col.maxWidth == 0 {
			col.maxWidth = DefaultMaxWidth
		}
		if col.ftype == nil {
			col.ftype = DefaultField{}
		}
		if err := checkFormat(col.ftype, col.format); err != nil {
			return err
		}

		switch f := spec.Field.(type) {
		case int:
			if f < 0 || f >= len(t.Fields) {
				return fmt.Errorf("%w: field position %d must be in range [0, %d). Fields: %v",
					ErrBadColumn, f, len(t.Fields), t.Fields)
			}
			col.pos, col.name = f, t.Fields[f]
		case string:
			poss, ok := positions[f]
			if !ok {
				return fmt.Errorf("%w: unknown field name '%s'. Fields: %v", ErrBadColumn, f, t.Fields)
			}
			if len(poss) > 1 {
				return fmt.Errorf("%w: field name '%s' is not unique, it refers to positions %v",
					ErrBadColumn, f, poss)
			}
			col.pos, col.name = poss[0], f
		default:
			return fmt.Errorf("%w: unexpected field id %T", ErrBadColumn, spec.Field)
		}

		if col.maxWidth > 0 {
			cols = append(cols, col)
		}
	}
	t.columns = cols
	return nil
}

func (t *Table) palette() *color.Palette {
	if t.Palette != nil {
		return t.Palette
	}
	return color.MustPalette(TablePalette, nil, false)
}

// Lines returns colored lines of the table. Each line takes the same
// width on screen.
func (t *Table) Lines() []string {
	texts := newTablePrinter(t).texts()
	res := make([]string, len(texts))
	for i, x := range texts {
		res[i] = x.String()
	}
	return res
}

func (t *Table) String() string { return strings.Join(t.Lines(), "\n") }

type cell struct {
	text  color.Text
	align Align
}

type tablePrinter struct {
	t        *Table
	palette  *color.Palette
	colPals  []*color.Palette
	first    int
	last     int
	skipped  bool
	widths   []int
	width    int
	firstRow [][]cell
	lastRow  [][]cell
}

func newTablePrinter(t *Table) *tablePrinter {
	p := &tablePrinter{t: t, palette: t.palette()}
	n := len(t.Records)

	maxRows := t.MaxRows
	if maxRows == 0 {
		maxRows = DefaultMaxRows
	}
	switch {
	case maxRows < 0 || maxRows >= n:
		p.first = n
	case maxRows >= 3:
		p.first, p.last, p.skipped = maxRows-2, 1, true
	case maxRows == 2:
		p.first, p.skipped = 1, true
	case maxRows == 1:
		p.skipped = true
	}

	p.colPals = make([]*color.Palette, len(t.columns))
	for i, col := range t.columns {
		p.colPals[i] = p.palette
		if ps, ok := col.ftype.(Palettized); ok {
			if sub, err := p.palette.SubPalette(ps.PaletteSpec()); err == nil {
				p.colPals[i] = sub
			}
		}
	}

	p.widths = make([]int, len(t.columns))
	for i, col := range t.columns {
		p.widths[i] = min(col.maxWidth, max(col.minWidth, color.NewText(col.name).Width()))
	}

	p.firstRow = p.cells(t.Records[:p.first])
	p.lastRow = p.cells(t.Records[n-p.last:])

	p.width = len(p.widths) + 1
	for _, w := range p.widths {
		p.width += w
	}
	return p
}

func (p *tablePrinter) cells(records [][]any) [][]cell {
	res := make([][]cell, len(records))
	for r, rec := range records {
		row := make([]cell, len(p.t.columns))
		for i, col := range p.t.columns {
			var value any
			if col.pos < len(rec) {
				value = rec[col.pos]
			}
			text, align := col.ftype.Cell(value, col.format, p.colPals[i])
			row[i] = cell{text: text, align: align}
			if l := text.Width(); l > p.widths[i] {
				p.widths[i] = min(l, col.maxWidth)
			}
		}
		res[r] = row
	}
	return res
}

func (p *tablePrinter) texts() []color.Text {
	if len(p.widths) == 0 {
		return nil
	}
	border := p.palette.Get("border")
	sep := border.Text("|")

	var sb strings.Builder
	for _, w := range p.widths {
		sb.WriteString("+")
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("+")
	borderLine := color.NewText(border.Text(sb.String()))

	row := func(cells []color.Text) color.Text {
		parts := make([]any, len(cells))
		for i, c := range cells {
			parts[i] = c
		}
		return color.NewText(sep, color.NewText(sep).Join(parts...), sep)
	}
	dataRow := func(cells []cell) color.Text {
		texts := make([]color.Text, len(cells))
		for i, c := range cells {
			texts[i] = p.fit(c.text, c.align, p.widths[i])
		}
		return row(texts)
	}

	var lines []color.Text
	lines = append(lines, borderLine)
	title := color.NewText(p.palette.Get("tbl_name").Text(p.t.Name))
	lines = append(lines, row([]color.Text{p.fit(title, AlignLeft, p.width-2)}))

	titles := make([]color.Text, len(p.t.columns))
	colTitle := p.palette.Get("col_title")
	for i, col := range p.t.columns {
		titles[i] = p.fit(color.NewText(colTitle.Text(col.name)), AlignLeft, p.widths[i])
	}
	lines = append(lines, row(titles), borderLine)

	for _, cells := range p.firstRow {
		lines = append(lines, dataRow(cells))
	}
	if p.skipped {
		dots := color.NewText(p.palette.Get("warn").Text("..."))
		lines = append(lines, row([]color.Text{p.fit(dots, AlignLeft, p.width-2)}))
	}
	for _, cells := range p.lastRow {
		lines = append(lines, dataRow(cells))
	}
	lines = append(lines, borderLine)

	total := color.NewText(fmt.Sprintf("Total %d records.", len(p.t.Records)))
	if total.Width() < p.width {
		total = p.fit(total, AlignLeft, p.width)
	}
	lines = append(lines, total)
	return lines
}

// fit pads the text to width or cuts it marking the cut with "...". Width
// is measured in terminal cells.
func (p *tablePrinter) fit(text color.Text, align Align, width int) color.Text {
	filler := width - text.Width()
	switch {
	case filler < 0:
		dots := min(3, width)
		res := cut(text, max(width-3, 0))
		gap := strings.Repeat(" ", width-dots-res.Width())
		return res.Concat(gap, p.palette.Get("warn").Text(strings.Repeat(".", dots)))
	case filler == 0:
		return text
	case align == AlignLeft:
		return text.Concat(strings.Repeat(" ", filler))
	default:
		return color.NewText(strings.Repeat(" ", filler), text)
	}
}

// cut returns the longest beginning of text not wider than width.
func cut(text color.Text, width int) color.Text {
	n, w := 0, 0
	for _, r := range text.Plain() {
		if w += color.RuneWidth(r); w > width {
			break
		}
		n++
	}
	return text.Slice(0, n)
}
