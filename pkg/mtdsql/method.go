// Package mtdsql executes predefined sql requests.
//
// It does not build complex queries: a Method is a manually written
// "SELECT ... FROM ..." part to which the WHERE clause built from
// conditions, GROUP BY and ORDER BY are appended.
//
//	usersByStatus := mtdsql.Method{
//		SelectFrom: "SELECT u.id, u.name, a.status FROM users AS u " +
//			"LEFT JOIN accounts AS a ON u.account_id = a.id",
//		OrderBy: "u.name, u.id",
//	}
//	records, err := usersByStatus.List(ctx, db, mtdsql.Eq("a.status", 5))
package mtdsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/akorshkov/aktools/internal/logger"
)

var log = logger.ForComponent("mtdsql")

var (
	ErrNotFound        = errors.New("record not found")
	ErrMultipleRecords = errors.New("multiple records selected")
	ErrBadCondition    = errors.New("invalid sql condition")
	ErrDuplicateKey    = errors.New("duplicate records")
	ErrUnknownField    = errors.New("unknown field")
)

// Querier is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Method is a predefined sql request.
type Method struct {
	SelectFrom  string
	GroupBy     string
	OrderBy     string
	Placeholder Placeholder
	// LogRef identifies the request in the log.
	LogRef string
}

// WithOrderBy returns a copy of m with different ORDER BY clause.
func (m Method) WithOrderBy(orderBy string) Method {
	m.OrderBy = orderBy
	return m
}

// SQL returns the request text and parameters for the conditions.
func (m Method) SQL(conds ...Condition) (string, []any, error) {
	where, args, err := Where(m.Placeholder, conds...)
	if err != nil {
		return "", nil, err
	}
	query := m.SelectFrom
	if where != "" {
		query += " WHERE " + where
	}
	if m.GroupBy != "" {
		query += " GROUP BY " + m.GroupBy
	}
	if m.OrderBy != "" {
		query += " ORDER BY " + m.OrderBy
	}
	return query, args, nil
}

func (m Method) query(ctx context.Context, q Querier, conds []Condition) (*sql.Rows, error) {
	query, args, err := m.SQL(conds...)
	if err != nil {
		return nil, err
	}
	if m.LogRef != "" {
		log.Debug("SQL request", "ref", m.LogRef, "sql", query, "params", args)
	} else {
		log.Debug("SQL request", "sql", query, "params", args)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sql request failed: %w", err)
	}
	return rows, nil
}

// All executes the request and yields result records.
func (m Method) All(ctx context.Context, q Querier, conds ...Condition) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		rows, err := m.query(ctx, q, conds)
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(Record{}, err)
			return
		}
		fields := newFieldsIndex(cols)

		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				yield(Record{}, err)
				return
			}
			for i, v := range values {
				if b, ok := v.([]byte); ok {
					values[i] = string(b)
				}
			}
			if !yield(Record{fields: fields, values: values}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Record{}, err)
		}
	}
}

// List executes the request and returns all the records.
func (m Method) List(ctx context.Context, q Querier, conds ...Condition) ([]Record, error) {
	var res []Record
	for rec, err := range m.All(ctx, q, conds...) {
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// OneOrNone returns the single selected record; ok is false if nothing was
// selected. More than one record is an error.
func (m Method) OneOrNone(ctx context.Context, q Querier, conds ...Condition) (rec Record, ok bool, err error) {
	records, err := m.List(ctx, q, conds...)
	if err != nil {
		return Record{}, false, err
	}
	switch len(records) {
	case 0:
		return Record{}, false, nil
	case 1:
		return records[0], true, nil
	}
	return Record{}, false, fmt.Errorf("%w: %d records selected", ErrMultipleRecords, len(records))
}

// One returns the single selected record.
func (m Method) One(ctx context.Context, q Querier, conds ...Condition) (Record, error) {
	rec, ok, err := m.OneOrNone(ctx, q, conds...)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Scalars returns the first column of all the selected records.
func (m Method) Scalars(ctx context.Context, q Querier, conds ...Condition) ([]any, error) {
	var res []any
	for rec, err := range m.All(ctx, q, conds...) {
		if err != nil {
			return nil, err
		}
		res = append(res, rec.values[0])
	}
	return res, nil
}
