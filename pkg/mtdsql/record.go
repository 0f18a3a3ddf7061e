package mtdsql

import (
	"fmt"
	"strings"
)

type fieldsIndex struct {
	names []string
	pos   map[string]int
}

func newFieldsIndex(names []string) *fieldsIndex {
	pos := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := pos[n]; !dup {
			pos[n] = i
		}
	}
	return &fieldsIndex{names: names, pos: pos}
}

// Record is a row returned by a sql request.
type Record struct {
	fields *fieldsIndex
	values []any
}

// NewRecord creates a record; used mostly by tests and by code converting
// data from other sources.
func NewRecord(fields []string, values []any) Record {
	return Record{fields: newFieldsIndex(fields), values: values}
}

func (r Record) Fields() []string {
	if r.fields == nil {
		return nil
	}
	return r.fields.names
}

func (r Record) Values() []any { return r.values }

func (r Record) Len() int { return len(r.values) }

// Value returns the value of the i-th field.
func (r Record) Value(i int) any { return r.values[i] }

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	i, ok := r.fields.pos[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString("record(")
	for i, v := range r.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", r.fields.names[i], v)
	}
	sb.WriteString(")")
	return sb.String()
}

func keyValue(rec Record, name string) (any, error) {
	v, ok := rec.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w '%s' in %s", ErrUnknownField, name, rec)
	}
	if b, isBytes := v.([]byte); isBytes {
		return string(b), nil
	}
	return v, nil
}

// RecordsMap converts records to nested maps:
// {key1: {key2: ... {keyN: record}}}. Inner maps have type map[any]any;
// two records with the same keys are an error.
func RecordsMap(records []Record, keys ...string) (map[any]any, error) {
	return recordsMap(records, keys, true)
}

// RecordsMultiMap is like RecordsMap but leaf values are []Record.
func RecordsMultiMap(records []Record, keys ...string) (map[any]any, error) {
	return recordsMap(records, keys, false)
}

func recordsMap(records []Record, keys []string, unique bool) (map[any]any, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no key fields specified")
	}
	res := map[any]any{}
	last := len(keys) - 1
	for _, rec := range records {
		cur := res
		for i, name := range keys {
			val, err := keyValue(rec, name)
			if err != nil {
				return nil, err
			}
			if i < last {
				next, ok := cur[val].(map[any]any)
				if !ok {
					next = map[any]any{}
					cur[val] = next
				}
				cur = next
				continue
			}
			if !unique {
				list, _ := cur[val].([]Record)
				cur[val] = append(list, rec)
				continue
			}
			if prev, dup := cur[val]; dup {
				return nil, fmt.Errorf("%w %s and %s found (key fields: %v)",
					ErrDuplicateKey, rec, prev, keys)
			}
			cur[val] = rec
		}
	}
	return res, nil
}
