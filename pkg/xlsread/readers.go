package xlsread

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadValue = errors.New("invalid cell value")

// CellReader converts a cell into a value.
type CellReader interface {
	Read(c Cell) (any, error)
}

// isNone reports whether v is one of none values. nil list means
// default {nil}.
func isNone(v any, none []any) bool {
	if none == nil {
		return v == nil
	}
	return containsValue(none, v)
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
	case string:
		return strings.TrimSpace(x)
	}
	return v
}

func containsValue(values []any, v any) bool {
	nv := normalize(v)
	for _, x := range values {
		if normalize(x) == nv {
			return true
		}
	}
	return false
}

func badValue(c Cell, kind string, reason string) error {
	return fmt.Errorf("%w: can't read %s value from %s: %s", ErrBadValue, kind, c, reason)
}

// Str reads trimmed string representation of the cell.
type Str struct {
	NoneValues []any
}

func (r Str) Read(c Cell) (any, error) {
	if isNone(c.Value, r.NoneValues) {
		return nil, nil
	}
	if c.Value == nil {
		return "", nil
	}
	return strings.TrimSpace(fmt.Sprint(c.Value)), nil
}

// Int reads integer values.
type Int struct {
	NoneValues []any
}

func (r Int) Read(c Cell) (any, error) {
	if isNone(c.Value, r.NoneValues) {
		return nil, nil
	}
	switch v := c.Value.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	}
	return nil, badValue(c, "int", fmt.Sprintf("not an integer value %v", c.Value))
}

var (
	defaultTrue  = []any{"v", 1, "1", true, "True", "true"}
	defaultFalse = []any{nil, "", 0, false, "False", "false"}
)

// Bool reads bool values. By default "v", 1, "True" and true are true;
// empty cell, 0, "False" and false are false. Nothing is a none value.
type Bool struct {
	TrueValues  []any
	FalseValues []any
	NoneValues  []any
}

func (r Bool) Read(c Cell) (any, error) {
	if r.NoneValues != nil && containsValue(r.NoneValues, c.Value) {
		return nil, nil
	}
	trueValues, falseValues := r.TrueValues, r.FalseValues
	if trueValues == nil {
		trueValues = defaultTrue
	}
	if falseValues == nil {
		falseValues = defaultFalse
	}
	if containsValue(trueValues, c.Value) {
		return true, nil
	}
	if containsValue(falseValues, c.Value) {
		return false, nil
	}
	return nil, badValue(c, "bool", fmt.Sprintf("'%v' is not a valid bool value", c.Value))
}

// List reads a list of strings separated by ',' and/or new lines.
// Empty items are ignored.
type List struct {
	NoneValues []any
}

func (r List) Read(c Cell) (any, error) {
	if isNone(c.Value, r.NoneValues) {
		return nil, nil
	}
	return readList(c)
}

func readList(c Cell) ([]string, error) {
	s, ok := c.Value.(string)
	if !ok {
		return nil, badValue(c, "list", fmt.Sprintf("the cell contains %T: '%v'", c.Value, c.Value))
	}
	var res []string
	for _, item := range strings.Split(strings.ReplaceAll(s, "\n", ","), ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	if res == nil {
		res = []string{}
	}
	return res, nil
}

// Set is like List, but the result is map[string]bool.
type Set struct {
	NoneValues []any
}

func (r Set) Read(c Cell) (any, error) {
	if isNone(c.Value, r.NoneValues) {
		return nil, nil
	}
	items, err := readList(c)
	if err != nil {
		return nil, err
	}
	res := make(map[string]bool, len(items))
	for _, item := range items {
		res[item] = true
	}
	return res, nil
}

// RangeReader converts a range of cells into a value. titles are the
// column titles of the cells. It also returns {title: coordinate} of
// the source cells.
type RangeReader interface {
	ReadRange(titles []string, cells []Cell) (any, map[string]string, error)
}

func rangeOrigins(titles []string, cells []Cell) map[string]string {
	res := make(map[string]string, len(cells))
	for i, c := range cells {
		res[titles[i]] = c.Coordinate()
	}
	return res
}

// RangeDict makes map[string]any {column title: value}.
type RangeDict struct {
	Reader CellReader
}

func (r RangeDict) ReadRange(titles []string, cells []Cell) (any, map[string]string, error) {
	res := make(map[string]any, len(cells))
	for i, c := range cells {
		v, err := r.Reader.Read(c)
		if err != nil {
			return nil, nil, err
		}
		res[titles[i]] = v
	}
	return res, rangeOrigins(titles, cells), nil
}

// RangeSet makes map[string]bool of titles of the columns with true
// values. Reader is Bool{} by default.
type RangeSet struct {
	Reader CellReader
}

func (r RangeSet) ReadRange(titles []string, cells []Cell) (any, map[string]string, error) {
	reader := r.Reader
	if reader == nil {
		reader = Bool{}
	}
	res := make(map[string]bool)
	for i, c := range cells {
		v, err := reader.Read(c)
		if err != nil {
			return nil, nil, err
		}
		if truthy(v) {
			res[titles[i]] = true
		}
	}
	return res, rangeOrigins(titles, cells), nil
}

func truthy(v any) bool {
	switch x := normalize(v).(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []string:
		return len(x) > 0
	case map[string]bool:
		return len(x) > 0
	}
	return true
}
