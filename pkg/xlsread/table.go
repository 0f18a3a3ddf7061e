package xlsread

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"
)

var (
	ErrBadRules       = errors.New("invalid reading rules")
	ErrMissingColumn  = errors.New("column not found")
	ErrDifferentAttrs = errors.New("records with same id have different attributes")
	ErrUnknownAttr    = errors.New("unknown attribute")
)

// RangeColumn is the Column of range attributes: the value is read from
// the continuous run of columns not used by other attributes.
const RangeColumn = "*"

// StopRule detects the end of table.
type StopRule string

const (
	StopBlankAll   StopRule = "blank all"
	StopBlankFirst StopRule = "blank first"
)

const (
	originSkipped  = "<skipped column>"
	originExternal = "<n/a>"
)

// AttrRule describes how to read a single attribute.
//
// Column "" means external attribute: it is not read from the sheet and
// gets the Default value. Optional columns may be absent in the table,
// their attributes get the Default too. Default may be a func() any.
type AttrRule struct {
	Attr     string
	Column   string
	Reader   CellReader
	Range    RangeReader
	Optional bool
	Default  any
}

func (r *AttrRule) defaultValue() any {
	if f, ok := r.Default.(func() any); ok {
		return f()
	}
	return r.Default
}

// Skip is a rule for an attribute which is not read from the table.
func Skip(attr string) AttrRule { return AttrRule{Attr: attr} }

// Schema describes records read from a table.
type Schema struct {
	Name  string
	Attrs []AttrRule
	// NumIDAttrs first attributes make the logical id of the record.
	// Records with empty id are skipped.
	NumIDAttrs int
}

func (s *Schema) validate() error {
	if s.NumIDAttrs > len(s.Attrs) {
		return fmt.Errorf("%w: %s has %d id attributes but only %d attributes",
			ErrBadRules, s.Name, s.NumIDAttrs, len(s.Attrs))
	}
	seen := map[string]bool{}
	for _, a := range s.Attrs {
		if seen[a.Attr] {
			return fmt.Errorf("%w: duplicate attribute '%s' in %s", ErrBadRules, a.Attr, s.Name)
		}
		seen[a.Attr] = true
		switch {
		case a.Column == RangeColumn && a.Range == nil:
			return fmt.Errorf("%w: range attribute '%s' has no range reader", ErrBadRules, a.Attr)
		case a.Column != RangeColumn && a.Range != nil:
			return fmt.Errorf("%w: range reader of attribute '%s' requires column '*'", ErrBadRules, a.Attr)
		case a.Column != "" && a.Column != RangeColumn && a.Reader == nil:
			return fmt.Errorf("%w: attribute '%s' has no reader", ErrBadRules, a.Attr)
		}
	}
	return nil
}

type origin struct {
	coord string
	// range attributes
	ranged bool
	cells  map[string]string
	order  []string
}

// Record is a set of attributes read from a table row.
type Record struct {
	schema  *Schema
	sheet   string
	anchor  string
	values  map[string]any
	origins map[string]origin
	// LogicID is the value of the id attribute, or a string composed of
	// id attributes if there are several of them.
	LogicID any
}

func (r *Record) Schema() *Schema { return r.schema }

// Get returns the value of the attribute.
func (r *Record) Get(attr string) (any, bool) {
	v, ok := r.values[attr]
	return v, ok
}

// Values returns the attributes as a map.
func (r *Record) Values() map[string]any {
	res := make(map[string]any, len(r.values))
	for k, v := range r.values {
		res[k] = v
	}
	return res
}

func (r *Record) String() string {
	return fmt.Sprintf("<%s(%s %s) %v>", r.schema.Name, quoteSheet(r.sheet), r.anchor, r.LogicID)
}

// Origin returns coordinate of the cell(s) the attribute was read from:
// "C10" for a simple attribute, "D13:P13" for a range attribute, or the
// cell of the range value with the key. inclSheet adds the sheet name.
func (r *Record) Origin(attr, key string, inclSheet bool) (string, error) {
	prefix := ""
	if inclSheet {
		prefix = quoteSheet(r.sheet) + " "
	}
	o, ok := r.origins[attr]
	if !ok {
		return "", fmt.Errorf("%w '%s'", ErrUnknownAttr, attr)
	}
	if !o.ranged {
		if key != "" {
			return "", fmt.Errorf("'%s' is not a range attribute, key '%s' is not applicable", attr, key)
		}
		return prefix + o.coord, nil
	}
	if key == "" {
		switch len(o.order) {
		case 0:
			return prefix + originSkipped, nil
		case 1:
			return prefix + o.cells[o.order[0]], nil
		}
		return prefix + o.cells[o.order[0]] + ":" + o.cells[o.order[len(o.order)-1]], nil
	}
	coord, ok := o.cells[key]
	if !ok {
		return "", fmt.Errorf("range attribute '%s' has no key '%s'", attr, key)
	}
	return prefix + coord, nil
}

// EnsureEqual checks that records with the same LogicID have equal
// attributes.
func (r *Record) EnsureEqual(other *Record) error {
	for _, a := range r.schema.Attrs {
		if !reflect.DeepEqual(r.values[a.Attr], other.values[a.Attr]) {
			return fmt.Errorf("%w: %s records created from cells '%s' and '%s' have same "+
				"logic_id value %v but different values of attribute '%s': %v and %v",
				ErrDifferentAttrs, r.schema.Name, r.anchor, other.anchor, r.LogicID,
				a.Attr, r.values[a.Attr], other.values[a.Attr])
		}
	}
	return nil
}

// RecordsMap maps records by LogicID. Records with the same id must be
// equal.
func RecordsMap(records []*Record) (map[any]*Record, error) {
	res := make(map[any]*Record, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if prev, ok := res[rec.LogicID]; ok {
			if err := rec.EnsureEqual(prev); err != nil {
				return nil, err
			}
		}
		res[rec.LogicID] = rec
	}
	return res, nil
}

// columnsMap binds a schema to the actual columns of a table.
type columnsMap struct {
	schema *Schema
	// per attribute: column position, -1 for missing and external ones
	cols []int
	// per range attribute
	rangeTitles [][]string
	rangeCols   [][]int
}

func (s *Schema) knownColumns() []string {
	var res []string
	for _, a := range s.Attrs {
		if a.Column != RangeColumn && a.Column != "" {
			res = append(res, a.Column)
		}
	}
	return res
}

func bindColumns(s *Schema, titles []string, known map[string]bool) (*columnsMap, error) {
	ids := make(map[string]int, len(titles))
	for i, t := range titles {
		ids[t] = i
	}

	m := &columnsMap{
		schema:      s,
		cols:        make([]int, len(s.Attrs)),
		rangeTitles: make([][]string, len(s.Attrs)),
		rangeCols:   make([][]int, len(s.Attrs)),
	}
	for i, a := range s.Attrs {
		m.cols[i] = -1
		switch a.Column {
		case "":
		case RangeColumn:
			inRange := false
			for pos, t := range titles {
				if t == "" || known[t] {
					if inRange {
						break
					}
					continue
				}
				inRange = true
				m.rangeTitles[i] = append(m.rangeTitles[i], t)
				m.rangeCols[i] = append(m.rangeCols[i], pos)
			}
			if len(m.rangeCols[i]) == 0 && !a.Optional {
				return nil, fmt.Errorf("%w: no columns corresponding to range attribute '%s'. "+
					"List of all columns names: %q", ErrMissingColumn, a.Attr, titles)
			}
		default:
			pos, ok := ids[a.Column]
			if !ok && !a.Optional {
				return nil, fmt.Errorf("%w: column '%s' required for attribute '%s' is not found. "+
					"List of all columns names: %q", ErrMissingColumn, a.Column, a.Attr, titles)
			}
			if ok {
				m.cols[i] = pos
			}
		}
	}
	return m, nil
}

// record creates the record from the row. nil record (without error)
// means the row has empty id.
func (m *columnsMap) record(sheet string, row []Cell) (*Record, error) {
	s := m.schema
	if s.NumIDAttrs > 0 {
		allEmpty := true
		for i := 0; i < s.NumIDAttrs; i++ {
			if pos := m.cols[i]; pos >= 0 && row[pos].Value != nil {
				allEmpty = false
			}
		}
		if allEmpty {
			return nil, nil
		}
	}

	rec := &Record{
		schema:  s,
		sheet:   sheet,
		values:  make(map[string]any, len(s.Attrs)),
		origins: make(map[string]origin, len(s.Attrs)),
	}
	for i := range s.Attrs {
		a := &s.Attrs[i]
		var (
			v   any
			o   origin
			err error
		)
		switch {
		case a.Column == RangeColumn:
			cells := make([]Cell, len(m.rangeCols[i]))
			for j, pos := range m.rangeCols[i] {
				cells[j] = row[pos]
			}
			o = origin{ranged: true, order: m.rangeTitles[i]}
			v, o.cells, err = a.Range.ReadRange(m.rangeTitles[i], cells)
		case a.Column == "":
			v, o = a.defaultValue(), origin{coord: originExternal}
		case m.cols[i] < 0:
			v, o = a.defaultValue(), origin{coord: originSkipped}
		default:
			cell := row[m.cols[i]]
			o = origin{coord: cell.Coordinate()}
			v, err = a.Reader.Read(cell)
		}
		if err != nil {
			return nil, err
		}
		rec.values[a.Attr] = v
		rec.origins[a.Attr] = o
	}
	if len(row) > 0 {
		rec.anchor = row[0].Coordinate()
	}

	switch s.NumIDAttrs {
	case 0:
	case 1:
		rec.LogicID = rec.values[s.Attrs[0].Attr]
		if rec.LogicID == nil {
			return nil, nil
		}
	default:
		parts := make([]string, s.NumIDAttrs)
		allNil := true
		for i := 0; i < s.NumIDAttrs; i++ {
			v := rec.values[s.Attrs[i].Attr]
			if v != nil {
				allNil = false
			}
			parts[i] = fmt.Sprint(v)
		}
		if allNil {
			return nil, nil
		}
		rec.LogicID = "(" + strings.Join(parts, ", ") + ")"
	}
	return rec, nil
}

// TableReader reads records of several schemas from each row of a table.
type TableReader struct {
	Schemas []*Schema
	StopOn  StopRule
	// Ladder tables have empty leading cells meaning "same as in
	// previous row":
	//
	//	2000  Jan   01
	//	      Feb   01
	//	            02   <- 2000 Feb 02
	Ladder bool
}

func isRowEmpty(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// All yields records of each data row, one per schema (nil for rows with
// empty id).
func (tr *TableReader) All(sheet Sheet) iter.Seq2[[]*Record, error] {
	return func(yield func([]*Record, error) bool) {
		for _, s := range tr.Schemas {
			if err := s.validate(); err != nil {
				yield(nil, err)
				return
			}
		}
		rows, err := sheet.Rows()
		if err != nil {
			yield(nil, err)
			return
		}

		var (
			maps          []*columnsMap
			prevRow       []Cell
			firstTitleCol = -1
		)
		for _, row := range rows {
			if maps == nil {
				if isRowEmpty(row) {
					continue
				}
				if maps, err = tr.bindTitles(row); err != nil {
					yield(nil, err)
					return
				}
				if tr.Ladder {
					for pos, c := range row {
						if !c.IsEmpty() {
							firstTitleCol = pos
							break
						}
					}
				}
				continue
			}

			if tr.StopOn == StopBlankFirst {
				if len(row) == 0 || row[0].IsEmpty() {
					return
				}
			} else if isRowEmpty(row) {
				return
			}

			current := row
			if tr.Ladder && firstTitleCol >= 0 && prevRow != nil {
				current = append([]Cell(nil), row...)
				for i := firstTitleCol; i < len(current); i++ {
					if !current[i].IsEmpty() {
						break
					}
					current[i] = prevRow[i]
				}
			}
			prevRow = current

			results := make([]*Record, len(maps))
			for i, m := range maps {
				if results[i], err = m.record(sheet.Title(), current); err != nil {
					yield(nil, err)
					return
				}
			}
			if !yield(results, nil) {
				return
			}
		}
	}
}

func (tr *TableReader) bindTitles(row []Cell) ([]*columnsMap, error) {
	titles := make([]string, len(row))
	for i, c := range row {
		if c.Value != nil {
			titles[i] = strings.TrimSpace(fmt.Sprint(c.Value))
		}
	}
	known := map[string]bool{}
	for _, s := range tr.Schemas {
		for _, col := range s.knownColumns() {
			known[col] = true
		}
	}
	maps := make([]*columnsMap, len(tr.Schemas))
	for i, s := range tr.Schemas {
		m, err := bindColumns(s, titles, known)
		if err != nil {
			return nil, err
		}
		maps[i] = m
	}
	return maps, nil
}

// Option of ReadTable.
type Option func(*TableReader)

func WithStopOn(rule StopRule) Option { return func(tr *TableReader) { tr.StopOn = rule } }

func WithLadder() Option { return func(tr *TableReader) { tr.Ladder = true } }

// IterTable yields records of the schema; rows with empty id are skipped.
func IterTable(sheet Sheet, schema *Schema, opts ...Option) iter.Seq2[*Record, error] {
	tr := &TableReader{Schemas: []*Schema{schema}}
	for _, opt := range opts {
		opt(tr)
	}
	return func(yield func(*Record, error) bool) {
		for recs, err := range tr.All(sheet) {
			if err != nil {
				yield(nil, err)
				return
			}
			if recs[0] == nil {
				continue
			}
			if !yield(recs[0], nil) {
				return
			}
		}
	}
}

// ReadTable returns all records of the schema.
func ReadTable(sheet Sheet, schema *Schema, opts ...Option) ([]*Record, error) {
	var res []*Record
	for rec, err := range IterTable(sheet, schema, opts...) {
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// ReadTableMap returns records of the schema mapped by LogicID.
func ReadTableMap(sheet Sheet, schema *Schema, opts ...Option) (map[any]*Record, error) {
	records, err := ReadTable(sheet, schema, opts...)
	if err != nil {
		return nil, err
	}
	return RecordsMap(records)
}
