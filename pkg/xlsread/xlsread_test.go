package xlsread

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCoordinate(t *testing.T) {
	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "A1"},
		{1, 0, "A2"},
		{99, 1, "B100"},
		{0, 25, "Z1"},
		{0, 26, "AA1"},
		{0, 26 + 26*26 - 1, "ZZ1"},
		{0, 26 + 26*26, "AAA1"},
	}
	for _, tt := range tests {
		if got := Coordinate(tt.row, tt.col); got != tt.want {
			t.Errorf("Coordinate(%d, %d) = %s, want %s", tt.row, tt.col, got, tt.want)
		}
	}
}

func cell(v any) Cell { return Cell{Sheet: "s", Value: v} }

func TestCellReaders(t *testing.T) {
	v, err := Str{}.Read(cell("  x "))
	require.NoError(t, err)
	require.Equal(t, "x", v)
	v, err = Str{}.Read(cell(int64(10)))
	require.NoError(t, err)
	require.Equal(t, "10", v)
	v, err = Str{}.Read(cell(nil))
	require.NoError(t, err)
	require.Nil(t, v)
	v, err = Str{NoneValues: []any{"-"}}.Read(cell("-"))
	require.NoError(t, err)
	require.Nil(t, v)
	v, err = Str{NoneValues: []any{"-"}}.Read(cell(nil))
	require.NoError(t, err)
	require.Equal(t, "", v)

	v, err = Int{}.Read(cell(int64(7)))
	require.NoError(t, err)
	require.Equal(t, 7, v)
	_, err = Int{}.Read(cell("7"))
	require.ErrorIs(t, err, ErrBadValue)

	for _, tv := range []any{"v", int64(1), "1", true, "True", " true "} {
		v, err = Bool{}.Read(cell(tv))
		require.NoError(t, err)
		require.Equal(t, true, v, "value %#v", tv)
	}
	for _, fv := range []any{nil, "", " ", int64(0), false, "False"} {
		v, err = Bool{}.Read(cell(fv))
		require.NoError(t, err)
		require.Equal(t, false, v, "value %#v", fv)
	}
	_, err = Bool{}.Read(cell("maybe"))
	require.ErrorIs(t, err, ErrBadValue)
	v, err = Bool{NoneValues: []any{"?"}}.Read(cell("?"))
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = List{}.Read(cell("math\n science,history"))
	require.NoError(t, err)
	require.Equal(t, []string{"math", "science", "history"}, v)
	v, err = List{}.Read(cell(" computer science , \n databases "))
	require.NoError(t, err)
	require.Equal(t, []string{"computer science", "databases"}, v)
	_, err = List{}.Read(cell(int64(5)))
	require.ErrorIs(t, err, ErrBadValue)

	v, err = Set{}.Read(cell("a,b,a"))
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"a": true, "b": true}, v)
}

func personSchema() *Schema {
	return &Schema{
		Name:       "Person",
		NumIDAttrs: 1,
		Attrs: []AttrRule{
			{Attr: "id", Column: "Id", Reader: Int{}},
			{Attr: "name", Column: "Person's name", Reader: Str{}},
			{Attr: "status", Column: "Status", Reader: Int{}},
		},
	}
}

func get(t *testing.T, r *Record, attr string) any {
	t.Helper()
	v, ok := r.Get(attr)
	require.True(t, ok, "attribute %s", attr)
	return v
}

func TestSimpleTable(t *testing.T) {
	sheet := &MemSheet{Name: "sheet1", Data: [][]any{
		{"Id", "Person's name", "Status"},
		{10, "Richard", 20},
		{20, "Arnold", 20},
		{30, "Harry", 20},
	}}
	people, err := ReadTable(sheet, personSchema())
	require.NoError(t, err)
	require.Len(t, people, 3)

	arnold := people[1]
	require.Equal(t, 20, get(t, arnold, "id"))
	require.Equal(t, "Arnold", get(t, arnold, "name"))
	require.Equal(t, 20, get(t, arnold, "status"))
	require.Equal(t, 20, arnold.LogicID)
	require.Equal(t, "<Person(sheet1 A3) 20>", arnold.String())

	origin, err := arnold.Origin("name", "", false)
	require.NoError(t, err)
	require.Equal(t, "B3", origin)
	origin, err = arnold.Origin("name", "", true)
	require.NoError(t, err)
	require.Equal(t, "sheet1 B3", origin)
	_, err = arnold.Origin("name", "x", false)
	require.Error(t, err)
	_, err = arnold.Origin("age", "", false)
	require.ErrorIs(t, err, ErrUnknownAttr)
}

func TestSkipAndOptionalColumns(t *testing.T) {
	sheet := &MemSheet{Name: "sheet 1", Data: [][]any{
		{"Id", "Person's name"},
		{10, "Richard"},
		{20, "Arnold"},
	}}

	_, err := ReadTable(sheet, personSchema())
	require.ErrorIs(t, err, ErrMissingColumn)
	require.Contains(t, err.Error(), "column 'Status' required for attribute 'status' is not found")

	schema := personSchema()
	schema.Attrs[2].Optional = true
	schema.Attrs[2].Default = -1
	schema.Attrs[0].Optional = true
	people, err := ReadTable(sheet, schema)
	require.NoError(t, err)
	require.Len(t, people, 2)
	require.Equal(t, -1, get(t, people[1], "status"))
	origin, _ := people[1].Origin("status", "", true)
	require.Equal(t, "'sheet 1' <skipped column>", origin)

	schema = personSchema()
	schema.Attrs[1] = Skip("name")
	schema.Attrs[2].Optional = true
	people, err = ReadTable(sheet, schema)
	require.NoError(t, err)
	require.Nil(t, get(t, people[0], "name"))
	origin, _ = people[0].Origin("name", "", false)
	require.Equal(t, "<n/a>", origin)
}

func TestEmptyLinesAndEnd(t *testing.T) {
	sheet := &MemSheet{Name: "sheet1", Data: [][]any{
		{nil, nil, nil, nil, nil, nil},
		{nil, nil, nil, "    ", nil, nil},
		{nil, nil, "Id", "Person's name", "Status", nil},
		{" ", nil, 10, "Richard", 20, 123},
		{nil, nil, 20, "Arnold", 20, nil},
		{nil, nil, nil, nil, nil, nil},
		{nil, nil, 30, "Harry", 20, nil},
	}}
	people, err := ReadTable(sheet, personSchema())
	require.NoError(t, err)
	require.Len(t, people, 2, "table ends on the first empty row")

	sheet.Data[5][4] = 1
	people, err = ReadTable(sheet, personSchema())
	require.NoError(t, err)
	require.Len(t, people, 3, "row with empty id is skipped")

	people, err = ReadTable(sheet, personSchema(), WithStopOn(StopBlankFirst))
	require.NoError(t, err)
	require.Empty(t, people, "whitespace in the first cell is blank")

	sheet.Data[3][0] = "x"
	people, err = ReadTable(sheet, personSchema(), WithStopOn(StopBlankFirst))
	require.NoError(t, err)
	require.Len(t, people, 1, "second data row has blank first cell")
}

func TestRangeAttributes(t *testing.T) {
	schema := &Schema{
		Name: "Student",
		Attrs: []AttrRule{
			{Attr: "id", Column: "id", Reader: Int{}},
			{Attr: "name", Column: "name", Reader: Str{}},
			{Attr: "classes", Column: RangeColumn, Range: RangeSet{}},
			{Attr: "status", Column: "status", Reader: Int{}},
		},
	}
	for _, data := range [][][]any{
		{
			{"id", "math", "science", "history", "cs", "name", "status"},
			{0, 1, "v", 0, nil, "Arnold", 10},
			{1, nil, nil, nil, nil, "Henry", 10},
		},
		{
			{nil, "math", "science", "history", "cs", "id", "name", "status"},
			{nil, 1, "v", 0, nil, 0, "Arnold", 10},
			{nil, nil, nil, nil, nil, 1, "Henry", 10},
		},
	} {
		records, err := ReadTable(&MemSheet{Name: "s", Data: data}, schema)
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.Equal(t, map[string]bool{"math": true, "science": true}, get(t, records[0], "classes"))
		require.Equal(t, map[string]bool{}, get(t, records[1], "classes"))
		require.Equal(t, "Arnold", get(t, records[0], "name"))
		_, ok := records[0].Get("math")
		require.False(t, ok)
	}

	schema.Attrs[2] = AttrRule{Attr: "grades", Column: RangeColumn, Range: RangeDict{Reader: Int{}}}
	records, err := ReadTable(&MemSheet{Name: "s", Data: [][]any{
		{"id", "math", "science", "history", "cs", "name", "status"},
		{0, 1, 10, 0, nil, "Arnold", 10},
		{1, nil, nil, nil, nil, "Henry", 10},
	}}, schema)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"math": 1, "science": 10, "history": 0, "cs": nil}, get(t, records[0], "grades"))
	require.Equal(t, map[string]any{"math": nil, "science": nil, "history": nil, "cs": nil}, get(t, records[1], "grades"))

	origin, err := records[0].Origin("grades", "", false)
	require.NoError(t, err)
	require.Equal(t, "B2:E2", origin)
	origin, err = records[1].Origin("grades", "history", false)
	require.NoError(t, err)
	require.Equal(t, "D3", origin)
	_, err = records[1].Origin("grades", "art", false)
	require.Error(t, err)

	_, err = ReadTable(&MemSheet{Name: "s", Data: [][]any{{"id", "name", "status"}, {1, "x", 2}}}, schema)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestLadder(t *testing.T) {
	schema := &Schema{
		Name:       "Day",
		NumIDAttrs: 3,
		Attrs: []AttrRule{
			{Attr: "year", Column: "Year", Reader: Int{}},
			{Attr: "month", Column: "Month", Reader: Str{}},
			{Attr: "day", Column: "Day", Reader: Int{}},
			{Attr: "note", Column: "Note", Reader: Str{}},
		},
	}
	sheet := &MemSheet{Name: "cal", Data: [][]any{
		{nil, "Year", "Month", "Day", "Note"},
		{nil, 2000, "Jan", 1, "a"},
		{nil, nil, "Feb", 1, "b"},
		{nil, nil, nil, 2, "c"},
	}}
	days, err := ReadTable(sheet, schema, WithLadder())
	require.NoError(t, err)
	require.Len(t, days, 3)
	require.Equal(t, 2000, get(t, days[2], "year"))
	require.Equal(t, "Feb", get(t, days[2], "month"))
	require.Equal(t, "(2000, Feb, 2)", days[2].LogicID)
	origin, _ := days[2].Origin("month", "", false)
	require.Equal(t, "C3", origin, "value is taken from the previous row")

	days, err = ReadTable(sheet, schema)
	require.NoError(t, err)
	require.Nil(t, get(t, days[2], "year"))
}

func TestRecordsMap(t *testing.T) {
	sheet := &MemSheet{Name: "sheet1", Data: [][]any{
		{"Id", "Person's name", "Status"},
		{10, "Richard", 20},
		{10, "Richard", 20},
		{10, "Richard Diff", 20},
		{20, "Arnold", 20},
		{30, "Harry", 20},
	}}
	people, err := ReadTable(sheet, personSchema())
	require.NoError(t, err)
	require.Len(t, people, 5)

	_, err = RecordsMap(people)
	require.True(t, errors.Is(err, ErrDifferentAttrs))
	require.Contains(t, err.Error(), "same logic_id value 10")
	require.Contains(t, err.Error(), "different values of attribute 'name'")

	people = append(people[:2], people[3:]...)
	byID, err := RecordsMap(people)
	require.NoError(t, err)
	require.Len(t, byID, 3)
	require.Equal(t, "Harry", get(t, byID[30], "name"))

	_, err = ReadTableMap(sheet, personSchema())
	require.ErrorIs(t, err, ErrDifferentAttrs)
}

func TestMultipleSchemas(t *testing.T) {
	person := personSchema()
	status := &Schema{
		Name:       "Status",
		NumIDAttrs: 1,
		Attrs:      []AttrRule{{Attr: "code", Column: "Status", Reader: Int{}}},
	}
	sheet := &MemSheet{Name: "sheet1", Data: [][]any{
		{"Id", "Person's name", "Status"},
		{10, "Richard", 20},
		{20, "Arnold", nil},
	}}
	tr := &TableReader{Schemas: []*Schema{person, status}}
	var rows [][]*Record
	for recs, err := range tr.All(sheet) {
		require.NoError(t, err)
		rows = append(rows, recs)
	}
	require.Len(t, rows, 2)
	require.Equal(t, 20, rows[0][1].LogicID)
	require.NotNil(t, rows[1][0])
	require.Nil(t, rows[1][1], "status record of the second row has empty id")
}

func TestBadRules(t *testing.T) {
	sheet := &MemSheet{Name: "s", Data: [][]any{{"a"}, {1}}}
	bad := []*Schema{
		{Name: "x", NumIDAttrs: 2, Attrs: []AttrRule{{Attr: "a", Column: "a", Reader: Int{}}}},
		{Name: "x", Attrs: []AttrRule{{Attr: "a", Column: "a"}}},
		{Name: "x", Attrs: []AttrRule{{Attr: "a", Column: RangeColumn}}},
		{Name: "x", Attrs: []AttrRule{{Attr: "a", Column: "a", Range: RangeSet{}}}},
		{Name: "x", Attrs: []AttrRule{{Attr: "a", Column: "a", Reader: Int{}}, {Attr: "a", Column: "a", Reader: Int{}}}},
	}
	for _, s := range bad {
		_, err := ReadTable(sheet, s)
		require.ErrorIs(t, err, ErrBadRules)
	}
}

func TestCSV(t *testing.T) {
	data := "Id,Person's name,Status\n10,Richard,20\n20,\"Arnold, Jr\",\n"
	sheet, err := ReadCSV(strings.NewReader(data), "people")
	require.NoError(t, err)
	schema := personSchema()
	people, err := ReadTable(sheet, schema)
	require.NoError(t, err)
	require.Len(t, people, 2)
	require.Equal(t, "Arnold, Jr", get(t, people[1], "name"))
	require.Nil(t, get(t, people[1], "status"))
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "staff list"))
	rows := [][]any{
		{"Id", "Person's name", "Status", "Active"},
		{10, "Richard", 20, true},
		{20, "Arnold", 1.5, false},
	}
	for i, r := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("staff list", addr, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := OpenXLSX(path)
	require.NoError(t, err)
	defer wb.Close()
	require.Equal(t, []string{"staff list"}, wb.SheetNames())
	_, err = wb.Sheet("missing")
	require.Error(t, err)

	sheet, err := wb.Sheet("staff list")
	require.NoError(t, err)
	schema := personSchema()
	schema.Attrs[2].Reader = Str{}
	schema.Attrs = append(schema.Attrs, AttrRule{Attr: "active", Column: "Active", Reader: Bool{}})
	people, err := ReadTable(sheet, schema)
	require.NoError(t, err)
	require.Len(t, people, 2)
	require.Equal(t, 10, get(t, people[0], "id"))
	require.Equal(t, "Richard", get(t, people[0], "name"))
	require.Equal(t, true, get(t, people[0], "active"))
	require.Equal(t, "1.5", get(t, people[1], "status"))
	require.Equal(t, false, get(t, people[1], "active"))
	require.Equal(t, "<Person('staff list' A3) 20>", people[1].String())
}
