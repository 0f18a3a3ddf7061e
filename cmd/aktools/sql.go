package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	_ "modernc.org/sqlite"

	"github.com/akorshkov/aktools/pkg/mcaller"
	"github.com/akorshkov/aktools/pkg/mtdsql"
)

var listTables = mtdsql.Method{
	SelectFrom: "SELECT name FROM sqlite_master",
	OrderBy:    "name",
	LogRef:     "list tables",
}

// selectInput is the input of the "select" sql method.
type selectInput struct {
	Table   string
	Query   string
	Eq      map[string]string
	Where   string
	OrderBy string
}

func (in selectInput) method() mtdsql.Method {
	if in.Query != "" {
		return mtdsql.Method{SelectFrom: in.Query, OrderBy: in.OrderBy}
	}
	return mtdsql.Method{SelectFrom: "SELECT * FROM " + in.Table, OrderBy: in.OrderBy}
}

func (in selectInput) conditions() []mtdsql.Condition {
	var conds []mtdsql.Condition
	for field, value := range in.Eq {
		if strings.EqualFold(value, "null") {
			conds = append(conds, mtdsql.Eq(field, nil))
		} else {
			conds = append(conds, mtdsql.Eq(field, value))
		}
	}
	if in.Where != "" {
		conds = append(conds, mtdsql.Raw(in.Where))
	}
	return conds
}

// newSQLCaller creates the caller of sql methods working with the sqlite
// database file.
func newSQLCaller(path string) *mcaller.Caller {
	connector := func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return db, nil
	}

	c := mcaller.New(mcaller.WithSQL(nil, connector))
	c.MustRegister(
		mcaller.Method{
			Name:        "tables",
			Description: "list tables and views",
			Kind:        mcaller.KindSQL,
			Func: func(ctx context.Context, call *mcaller.Call, _ any) (any, error) {
				db, err := call.SQL(ctx)
				if err != nil {
					return nil, err
				}
				return listTables.Scalars(ctx, db, mtdsql.Field("type", "IN", []string{"table", "view"}))
			},
		},
		mcaller.Method{
			Name:        "select",
			Description: "select records of a table",
			Kind:        mcaller.KindSQL,
			Func: func(ctx context.Context, call *mcaller.Call, input any) (any, error) {
				in, ok := input.(selectInput)
				if !ok {
					return nil, fmt.Errorf("%w: expected selectInput, got %T", mcaller.ErrInvalidInput, input)
				}
				db, err := call.SQL(ctx)
				if err != nil {
					return nil, err
				}
				return in.method().List(ctx, db, in.conditions()...)
			},
		},
	)
	return c
}

func sqlCmd() *cli.Command {
	return &cli.Command{
		Name:      "sql",
		Usage:     "print records of a sqlite database",
		ArgsUsage: "DB_FILE [TABLE]",
		Description: "Without TABLE lists tables of the database.\n\n" +
			"  aktools sql data.db users --eq status=5 --order name",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "'SELECT ... FROM ...' part of the request instead of TABLE",
			},
			&cli.StringSliceFlag{
				Name:  "eq",
				Usage: "field=value condition; value 'null' means IS NULL",
			},
			&cli.StringFlag{
				Name:  "where",
				Usage: "raw sql condition",
			},
			&cli.StringFlag{
				Name:  "order",
				Usage: "ORDER BY clause",
			},
			flagMaxRows(),
			flagJSON(),
			flagOutput(),
		},
		Action: func(cctx *cli.Context) error {
			if cctx.NArg() < 1 {
				return fmt.Errorf("database file is not specified")
			}
			caller := newSQLCaller(cctx.Args().Get(0))
			ctx := cctx.Context

			table := cctx.Args().Get(1)
			if table == "" && !cctx.IsSet("query") {
				names, err := caller.Call(ctx, "tables", nil)
				if err != nil {
					return err
				}
				var records [][]any
				for _, n := range names.([]any) {
					records = append(records, []any{n})
				}
				return printTable(cctx, "tables", []string{"name"}, records)
			}

			eq, err := keyValues(cctx.StringSlice("eq"))
			if err != nil {
				return err
			}
			res, err := caller.Call(ctx, "select", selectInput{
				Table:   table,
				Query:   cctx.String("query"),
				Eq:      eq,
				Where:   cctx.String("where"),
				OrderBy: cctx.String("order"),
			})
			if err != nil {
				return err
			}
			records := res.([]mtdsql.Record)
			if len(records) == 0 {
				return output(cctx, "no records")
			}
			rows := make([][]any, len(records))
			for i, rec := range records {
				rows[i] = rec.Values()
			}
			name := table
			if name == "" {
				name = "query"
			}
			return printTable(cctx, name, records[0].Fields(), rows)
		},
	}
}
