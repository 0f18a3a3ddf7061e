package mtdsql

import (
	"fmt"
	"reflect"
	"strings"
)

// Placeholder is the style of parameter placeholders of a sql driver.
type Placeholder int

const (
	// Question is used by sqlite and most database/sql drivers.
	Question Placeholder = iota
	// PercentS is used by mysql-style drivers.
	PercentS
)

func (p Placeholder) String() string {
	if p == PercentS {
		return "%s"
	}
	return "?"
}

var supportedOps = []string{
	"=", "!=", "IN", "NOT IN", "IS NULL", "IS NOT NULL", "LIKE", "NOT LIKE",
	">", "<", ">=", "<=",
}

// Condition is a part of WHERE clause.
type Condition interface {
	// build returns the sql text of the condition and appends its
	// parameters to args.
	build(args *[]any, ph Placeholder) (string, error)
}

type fieldCond struct {
	field string
	op    string
	value any
}

// Field creates condition "field op value". Operations: = != IN NOT IN
// IS NULL, IS NOT NULL, LIKE, NOT LIKE, > < >= <=.
//
// "=" and "!=" with nil value become IS [NOT] NULL, with a slice value
// become [NOT] IN.
func Field(field, op string, value any) Condition {
	return fieldCond{field: field, op: strings.ToUpper(strings.TrimSpace(op)), value: value}
}

// Eq is a shortcut for Field(field, "=", value).
func Eq(field string, value any) Condition {
	return Field(field, "=", value)
}

type rawCond string

// Raw creates a static condition which has no parameters, such as
// "a.parent_id = b.id".
func Raw(sql string) Condition { return rawCond(sql) }

func (c rawCond) build(*[]any, Placeholder) (string, error) {
	return string(c), nil
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	if _, isBytes := v.([]byte); isBytes {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func listItems(v any) []any {
	rv := reflect.ValueOf(v)
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

func (c fieldCond) normalize() (fieldCond, error) {
	switch c.op {
	case "=", "!=":
		if c.value == nil {
			if c.op == "=" {
				c.op = "IS NULL"
			} else {
				c.op = "IS NOT NULL"
			}
		} else if isList(c.value) {
			if c.op == "=" {
				c.op = "IN"
			} else {
				c.op = "NOT IN"
			}
		}
	case "IN", "NOT IN":
		if !isList(c.value) {
			return c, fmt.Errorf("%w: value %v does not match sql operation %s",
				ErrBadCondition, c.value, c.op)
		}
	case "IS NULL", "IS NOT NULL":
		if c.value != nil {
			return c, fmt.Errorf("%w: value %v does not match sql operation %s",
				ErrBadCondition, c.value, c.op)
		}
	case "LIKE", "NOT LIKE":
		if _, ok := c.value.(string); !ok {
			return c, fmt.Errorf("%w: value for '%s' condition is not string but %T: %v",
				ErrBadCondition, c.op, c.value, c.value)
		}
	case ">", "<", ">=", "<=":
	default:
		return c, fmt.Errorf("%w: unsupported sql operation '%s'. Supported operations are: %v",
			ErrBadCondition, c.op, supportedOps)
	}
	return c, nil
}

func (c fieldCond) build(args *[]any, ph Placeholder) (string, error) {
	c, err := c.normalize()
	if err != nil {
		return "", err
	}
	switch c.op {
	case "IN", "NOT IN":
		items := listItems(c.value)
		if len(items) == 0 {
			if c.op == "IN" {
				return "0", nil
			}
			return "1", nil
		}
		*args = append(*args, items...)
		marks := strings.TrimSuffix(strings.Repeat(ph.String()+", ", len(items)), ", ")
		return c.field + " " + c.op + " (" + marks + ")", nil
	case "IS NULL", "IS NOT NULL":
		return c.field + " " + c.op, nil
	default:
		*args = append(*args, c.value)
		return c.field + " " + c.op + " " + ph.String(), nil
	}
}

type compoundCond struct {
	op       string
	empty    string
	operands []Condition
}

// Or combines conditions with OR. Empty Or is FALSE.
func Or(conds ...Condition) Condition {
	return compoundCond{op: " OR ", empty: "FALSE", operands: conds}
}

// And combines conditions with AND. Empty And is TRUE.
func And(conds ...Condition) Condition {
	return compoundCond{op: " AND ", empty: "TRUE", operands: conds}
}

func (c compoundCond) build(args *[]any, ph Placeholder) (string, error) {
	parts := make([]string, 0, len(c.operands))
	for _, op := range c.operands {
		if op == nil {
			continue
		}
		s, err := op.build(args, ph)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return c.empty, nil
	}
	return "(" + strings.Join(parts, c.op) + ")", nil
}

// Where builds the WHERE clause text (without the keyword) and its
// parameters. nil conditions are ignored.
func Where(ph Placeholder, conds ...Condition) (string, []any, error) {
	args := []any{}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if c == nil {
			continue
		}
		s, err := c.build(&args, ph)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), args, nil
}
