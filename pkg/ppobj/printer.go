// Package ppobj pretty-prints json-like values and 2-D tables with colors.
package ppobj

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/akorshkov/aktools/pkg/color"
)

// OneLineLimit is the screen width below which a container of simple
// values is printed in one line.
const OneLineLimit = 200

var JSONPalette = &color.PaletteSpec{
	Name: "JSONPalette",
	Defaults: map[string]any{
		"JSON": map[string]any{
			"NAME":    "NAME",
			"NUMBER":  "NUMBER",
			"KEYWORD": "KEYWORD",
		},
	},
	Colors: map[string]string{
		"name":    "JSON.NAME",
		"number":  "JSON.NUMBER",
		"keyword": "JSON.KEYWORD",
	},
}

// Printer prints json-like values: maps, slices, strings, numbers, bools
// and nil.
type Printer struct {
	palette *color.Palette
}

// NewPrinter creates a printer using palette p, which should be created
// from JSONPalette spec (or a derived one). nil p means palette for the
// global colors config.
func NewPrinter(p *color.Palette) *Printer {
	if p == nil {
		p = color.MustPalette(JSONPalette, nil, false)
	}
	return &Printer{palette: p}
}

// Lines returns lines of colored text representing v.
func (p *Printer) Lines(v any) []string {
	w := &lineWriter{}
	p.write(w, v, 0)
	return w.finish()
}

func (p *Printer) String(v any) string {
	return strings.Join(p.Lines(v), "\n")
}

type lineWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *lineWriter) put(parts ...string) {
	for _, s := range parts {
		w.cur.WriteString(s)
	}
}

func (w *lineWriter) newline() {
	w.lines = append(w.lines, w.cur.String())
	w.cur.Reset()
}

func (w *lineWriter) finish() []string {
	if w.cur.Len() > 0 || len(w.lines) == 0 {
		w.newline()
	}
	return w.lines
}

type mapItem struct {
	key   reflect.Value
	value any
}

func (p *Printer) write(w *lineWriter, v any, offset int) {
	rv := deref(v)
	if isSimple(rv) {
		w.put(p.simple(rv).String())
		return
	}

	prefix := strings.Repeat(" ", offset+2)
	switch rv.Kind() {
	case reflect.Map:
		items := sortedItems(rv)
		if allSimple(rv) {
			chunks := make([]color.Text, len(items))
			scrLen := 0
			for i, it := range items {
				chunks[i] = color.NewText(p.key(it.key), ": ", p.simple(deref(it.value)))
				scrLen += chunks[i].Len() + 2
			}
			if offset+scrLen < OneLineLimit {
				w.put("{", color.NewText(", ").Join(toAny(chunks)...).String(), "}")
				return
			}
		}
		w.put("{")
		for i, it := range items {
			if i > 0 {
				w.put(",")
			}
			w.newline()
			w.put(prefix, color.NewText(p.key(it.key)).String(), ": ")
			p.write(w, it.value, offset+2)
		}
		w.newline()
		w.put(strings.Repeat(" ", offset), "}")
	default:
		n := rv.Len()
		if allSimple(rv) {
			chunks := make([]color.Text, n)
			scrLen := 0
			for i := 0; i < n; i++ {
				chunks[i] = p.simple(deref(rv.Index(i).Interface()))
				scrLen += chunks[i].Len() + 2
			}
			if offset+scrLen < OneLineLimit {
				w.put("[", color.NewText(", ").Join(toAny(chunks)...).String(), "]")
				return
			}
		}
		w.put("[")
		for i := 0; i < n; i++ {
			if i > 0 {
				w.put(",")
			}
			w.newline()
			w.put(prefix)
			p.write(w, rv.Index(i).Interface(), offset+2)
		}
		w.newline()
		w.put(strings.Repeat(" ", offset), "]")
	}
}

func toAny(texts []color.Text) []any {
	res := make([]any, len(texts))
	for i, t := range texts {
		res[i] = t
	}
	return res
}

// deref unwraps interfaces and pointers. The zero Value stands for nil.
func deref(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func isContainer(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Array:
		return true
	case reflect.Slice:
		return rv.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

// isSimple reports whether the value is printed as a single token:
// scalars and empty containers.
func isSimple(rv reflect.Value) bool {
	return !isContainer(rv) || rv.Len() == 0
}

func allSimple(rv reflect.Value) bool {
	if rv.Kind() == reflect.Map {
		iter := rv.MapRange()
		for iter.Next() {
			if !isSimple(deref(iter.Value().Interface())) {
				return false
			}
		}
		return true
	}
	for i := 0; i < rv.Len(); i++ {
		if !isSimple(deref(rv.Index(i).Interface())) {
			return false
		}
	}
	return true
}

func (p *Printer) simple(rv reflect.Value) color.Text {
	if !rv.IsValid() {
		return color.NewText(p.palette.Get("keyword").Text("null"))
	}
	if isContainer(rv) {
		if rv.Kind() == reflect.Map {
			return color.NewText("{}")
		}
		return color.NewText("[]")
	}
	if s, isNum := numberString(rv); isNum {
		return color.NewText(p.palette.Get("number").Text(s))
	}
	switch rv.Kind() {
	case reflect.Bool:
		return color.NewText(p.palette.Get("keyword").Text(strconv.FormatBool(rv.Bool())))
	case reflect.String:
		return color.NewText(`"` + rv.String() + `"`)
	case reflect.Slice:
		// []byte
		return color.NewText(`"` + string(rv.Bytes()) + `"`)
	}
	return color.NewText(fmt.Sprint(rv.Interface()))
}

func numberString(rv reflect.Value) (string, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), true
	}
	// json.Number and alike
	if rv.Kind() == reflect.String && rv.Type().Name() == "Number" {
		return rv.String(), true
	}
	return "", false
}

func (p *Printer) key(k reflect.Value) color.Chunk {
	k = deref(k.Interface())
	name := p.palette.Get("name")
	if k.IsValid() && k.Kind() == reflect.String {
		return name.Text(`"` + k.String() + `"`)
	}
	if !k.IsValid() {
		return name.Text("null")
	}
	return name.Text(fmt.Sprint(k.Interface()))
}

// sortKey orders map keys: numbers first, then strings, then the rest.
type sortKey struct {
	group int
	num   float64
	str   string
}

func makeSortKey(k reflect.Value) sortKey {
	k = deref(k.Interface())
	if !k.IsValid() {
		return sortKey{group: 2, str: "null"}
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sortKey{group: 0, num: float64(k.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return sortKey{group: 0, num: float64(k.Uint())}
	case reflect.Float32, reflect.Float64:
		return sortKey{group: 0, num: k.Float()}
	case reflect.String:
		return sortKey{group: 1, str: k.String()}
	}
	return sortKey{group: 2, str: fmt.Sprint(k.Interface())}
}

func (a sortKey) less(b sortKey) bool {
	if a.group != b.group {
		return a.group < b.group
	}
	if a.group == 0 && a.num != b.num {
		return a.num < b.num
	}
	return a.str < b.str
}

func sortedItems(rv reflect.Value) []mapItem {
	items := make([]mapItem, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		items = append(items, mapItem{key: iter.Key(), value: iter.Value().Interface()})
	}
	keys := make([]sortKey, len(items))
	for i, it := range items {
		keys[i] = makeSortKey(it.key)
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return keys[idx[i]].less(keys[idx[j]]) })
	res := make([]mapItem, len(items))
	for i, j := range idx {
		res[i] = items[j]
	}
	return res
}

// JSON is a pretty-printable json-like value.
type JSON struct {
	V any
}

func (j JSON) Lines() []string { return NewPrinter(nil).Lines(j.V) }

func (j JSON) String() string { return strings.Join(j.Lines(), "\n") }
