package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/akorshkov/aktools/pkg/xlsread"
)

func xlsCmd() *cli.Command {
	return &cli.Command{
		Name:      "xls",
		Usage:     "print a table found in a xlsx or csv file",
		ArgsUsage: "FILE",
		Description: "Without --columns the whole worksheet is printed, the first non-empty\n" +
			"row is the header. With --columns only the records with those columns are read:\n\n" +
			"  aktools xls people.xlsx --sheet staff --columns Id,Name --id 1 --range grades",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "sheet",
				Usage: "worksheet name, the first one by default",
			},
			&cli.StringFlag{
				Name:  "columns",
				Usage: "comma separated titles of the columns to read",
			},
			&cli.IntFlag{
				Name:  "id",
				Usage: "number of leading columns making the record id; records with empty id are skipped",
			},
			&cli.StringFlag{
				Name:  "range",
				Usage: "read the remaining columns into the attribute with this name",
			},
			&cli.BoolFlag{
				Name:  "ladder",
				Usage: "empty leading cells repeat the values of the previous row",
			},
			&cli.BoolFlag{
				Name:  "stop-on-first",
				Usage: "the table ends on a row with empty first cell",
			},
			&cli.BoolFlag{
				Name:  "list-sheets",
				Usage: "print names of worksheets",
			},
			flagMaxRows(),
			flagJSON(),
			flagOutput(),
		},
		Action: func(cctx *cli.Context) error {
			if cctx.NArg() != 1 {
				return fmt.Errorf("expected a single file argument")
			}
			path := cctx.Args().First()

			sheet, names, closer, err := openSheet(path, cctx.String("sheet"))
			if err != nil {
				return err
			}
			defer closer()

			if cctx.Bool("list-sheets") {
				return output(cctx, names...)
			}
			if !cctx.IsSet("columns") {
				fields, records, err := sheetRecords(sheet)
				if err != nil {
					return err
				}
				return printTable(cctx, sheet.Title(), fields, records)
			}

			schema, fields := xlsSchema(
				strings.Split(cctx.String("columns"), ","), cctx.Int("id"), cctx.String("range"))
			var opts []xlsread.Option
			if cctx.Bool("ladder") {
				opts = append(opts, xlsread.WithLadder())
			}
			if cctx.Bool("stop-on-first") {
				opts = append(opts, xlsread.WithStopOn(xlsread.StopBlankFirst))
			}
			records, err := xlsread.ReadTable(sheet, schema, opts...)
			if err != nil {
				return err
			}
			if schema.NumIDAttrs > 0 {
				if _, err := xlsread.RecordsMap(records); err != nil {
					return err
				}
			}

			rows := make([][]any, len(records))
			for i, rec := range records {
				row := make([]any, len(fields))
				for j, f := range fields {
					row[j], _ = rec.Get(f)
				}
				rows[i] = row
			}
			return printTable(cctx, sheet.Title(), fields, rows)
		},
	}
}

func openSheet(path, name string) (xlsread.Sheet, []string, func(), error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, nil, err
		}
		defer f.Close()
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		sheet, err := xlsread.ReadCSV(f, title)
		if err != nil {
			return nil, nil, nil, err
		}
		return sheet, []string{title}, func() {}, nil
	}

	wb, err := xlsread.OpenXLSX(path)
	if err != nil {
		return nil, nil, nil, err
	}
	names := wb.SheetNames()
	if name == "" && len(names) > 0 {
		name = names[0]
	}
	sheet, err := wb.Sheet(name)
	if err != nil {
		wb.Close()
		return nil, nil, nil, err
	}
	return sheet, names, func() { wb.Close() }, nil
}

// xlsSchema reads the columns as strings; the attributes are named as the
// columns.
func xlsSchema(columns []string, numIDs int, rangeAttr string) (*xlsread.Schema, []string) {
	schema := &xlsread.Schema{Name: "Record", NumIDAttrs: numIDs}
	var fields []string
	for _, c := range columns {
		if c = strings.TrimSpace(c); c == "" {
			continue
		}
		schema.Attrs = append(schema.Attrs, xlsread.AttrRule{Attr: c, Column: c, Reader: xlsread.Str{}})
		fields = append(fields, c)
	}
	if rangeAttr != "" {
		schema.Attrs = append(schema.Attrs, xlsread.AttrRule{
			Attr:   rangeAttr,
			Column: xlsread.RangeColumn,
			Range:  xlsread.RangeDict{Reader: xlsread.Str{}},
		})
		fields = append(fields, rangeAttr)
	}
	return schema, fields
}

// sheetRecords returns the values of the sheet: the first non-empty row
// gives the fields, the following rows are records.
func sheetRecords(sheet xlsread.Sheet) ([]string, [][]any, error) {
	rows, err := sheet.Rows()
	if err != nil {
		return nil, nil, err
	}
	var (
		fields  []string
		records [][]any
	)
	for _, row := range rows {
		empty := true
		for _, c := range row {
			if !c.IsEmpty() {
				empty = false
				break
			}
		}
		if fields == nil {
			if empty {
				continue
			}
			fields = make([]string, len(row))
			for i, c := range row {
				if c.Value != nil {
					fields[i] = fmt.Sprint(c.Value)
				} else {
					fields[i] = xlsread.Coordinate(c.Row, c.Col)
				}
			}
			continue
		}
		rec := make([]any, len(row))
		for i, c := range row {
			rec[i] = c.Value
		}
		records = append(records, rec)
	}
	return fields, records, nil
}
