package ppobj

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/akorshkov/aktools/pkg/color"
)

// Align of a cell text.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// FieldType converts values of a table column to cell text.
type FieldType interface {
	// Cell returns the desired cell text and alignment. format is the
	// column format modifier ("" means default).
	Cell(value any, format string, p *color.Palette) (color.Text, Align)
	// Formats lists supported format modifiers.
	Formats() []string
}

// DefaultField formats numbers and keywords the way json printer does.
type DefaultField struct{}

func (DefaultField) Formats() []string { return nil }

func (DefaultField) Cell(value any, _ string, p *color.Palette) (color.Text, Align) {
	rv := deref(value)
	if !rv.IsValid() {
		return color.NewText(p.Get("keyword").Text("null")), AlignRight
	}
	if s, isNum := numberString(rv); isNum {
		return color.NewText(p.Get("number").Text(s)), AlignRight
	}
	switch rv.Kind() {
	case reflect.Bool:
		return color.NewText(p.Get("keyword").Sprint(rv.Bool())), AlignRight
	case reflect.String:
		return color.NewText(p.Get("text").Text(rv.String())), AlignLeft
	}
	if t, ok := value.(color.Text); ok {
		return t, AlignLeft
	}
	return color.NewText(p.Get("text").Sprint(value)), AlignLeft
}

func checkFormat(ft FieldType, format string) error {
	if format == "" {
		return nil
	}
	for _, f := range ft.Formats() {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w '%s' for %T. Supported: %v", ErrBadFormat, format, ft, ft.Formats())
}

// DateTimeField formats time.Time values. Formats:
//
//	D   date only: YYYY-MM-DD
//	Dt  date, and time part if it is not midnight
//	DT  same as Dt, but time part is shown as warning (default)
//	S   YYYY-MM-DD HH:MM:SS
//	MS  YYYY-MM-DD HH:MM:SS.ffffff
//
// Zone offset is shown for times not in UTC.
type DateTimeField struct{}

func (DateTimeField) Formats() []string { return []string{"D", "Dt", "DT", "S", "MS"} }

func (f DateTimeField) Cell(value any, format string, p *color.Palette) (color.Text, Align) {
	if format == "" {
		format = "DT"
	}
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return DefaultField{}.Cell(nil, "", p)
		}
		t = *v
	default:
		return DefaultField{}.Cell(value, "", p)
	}

	zone := "-0700"
	if t.Location() == time.UTC {
		zone = ""
	}
	text := p.Get("text")
	switch format {
	case "D":
		return color.NewText(text.Text(t.Format("2006-01-02"))), AlignLeft
	case "Dt", "DT":
		res := color.NewText(text.Text(t.Format("2006-01-02")))
		if !isDate(t) {
			timeFmt := text
			if format == "DT" {
				timeFmt = p.Get("warn")
			}
			res.Append(timeFmt.Text(t.Format(" 15:04:05.000000" + zone)))
		}
		return res, AlignLeft
	case "S":
		return color.NewText(text.Text(t.Format("2006-01-02 15:04:05" + zone))), AlignLeft
	}
	return color.NewText(text.Text(t.Format("2006-01-02 15:04:05.000000" + zone))), AlignLeft
}

func isDate(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

var EnumPalette = &color.PaletteSpec{
	Name:    "EnumPalette",
	Parents: []*color.PaletteSpec{JSONPalette},
	Defaults: map[string]any{
		"TABLE": map[string]any{
			"ENUM": map[string]any{
				"VALUE": "NUMBER",
				"NAME":  "",
			},
		},
	},
	Colors: map[string]string{
		"value":     "TABLE.ENUM.VALUE",
		"enum_name": "TABLE.ENUM.NAME",
		"name_good": "OK",
		"name_warn": "WARN",
		"error":     "ERROR",
		"warn":      "WARN",
	},
}

// EnumName describes a value of enum. Syntax is the palette accessor
// used for the name ("enum_name" if empty).
type EnumName struct {
	Name   string
	Syntax string
}

// EnumField shows enum values with their names: "10 Active".
// Formats: "full" (default), "val", "name".
type EnumField struct {
	values  map[any]EnumName
	missing EnumName
	maxLen  int
}

// NewEnumField creates enum field type from {value: name} map.
func NewEnumField(values map[any]string) *EnumField {
	names := make(map[any]EnumName, len(values))
	for k, v := range values {
		names[k] = EnumName{Name: v}
	}
	return NewEnumFieldNames(names)
}

// NewEnumFieldNames is like NewEnumField but names may have custom colors.
func NewEnumFieldNames(values map[any]EnumName) *EnumField {
	f := &EnumField{
		values:  values,
		missing: EnumName{Name: "<???>", Syntax: "error"},
		maxLen:  1,
	}
	for v := range values {
		if v != nil {
			f.maxLen = max(f.maxLen, len(fmt.Sprint(v)))
		}
	}
	return f
}

func (f *EnumField) Formats() []string { return []string{"full", "val", "name"} }

// Name returns the name of the value.
func (f *EnumField) Name(value any) string {
	if n, ok := f.values[value]; ok {
		return n.Name
	}
	return f.missing.Name
}

// Values returns known enum values sorted by their string form.
func (f *EnumField) Values() []any {
	res := make([]any, 0, len(f.values))
	for v := range f.values {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return fmt.Sprint(res[i]) < fmt.Sprint(res[j]) })
	return res
}

func (f *EnumField) Cell(value any, format string, p *color.Palette) (color.Text, Align) {
	if value == nil {
		return DefaultField{}.Cell(nil, "", p)
	}
	name, known := f.values[value]
	valLen := f.maxLen
	if !known {
		name = f.missing
		valLen = max(valLen, len(fmt.Sprint(value)))
	}
	syntax := name.Syntax
	if syntax == "" {
		syntax = "enum_name"
	}
	nameFmt := p.Get(syntax)

	valText := color.NewText(p.Get("value").Sprint(value))

	switch format {
	case "val":
		return valText, AlignRight
	case "name":
		return color.NewText(nameFmt.Text(name.Name)), AlignLeft
	}
	res := color.Text{}
	if pad := valLen - valText.Len(); pad > 0 {
		res.Append(fmt.Sprintf("%*s", pad, ""))
	}
	res.Append(valText, " ", nameFmt.Text(name.Name))
	return res, AlignLeft
}
