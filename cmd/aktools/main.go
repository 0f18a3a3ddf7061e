package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/akorshkov/aktools/internal/logger"
	"github.com/akorshkov/aktools/pkg/clitools"
	"github.com/akorshkov/aktools/pkg/ppobj"
)

var log = logger.ForComponent("aktools")

const (
	FlagOutput  = "output"
	FlagJSON    = "json"
	FlagMaxRows = "max-rows"
)

func flagOutput() cli.Flag {
	return &cli.StringFlag{
		Name:    FlagOutput,
		Aliases: []string{"o"},
		Usage:   "output file, stdout by default",
	}
}

func flagJSON() cli.Flag {
	return &cli.BoolFlag{
		Name:  FlagJSON,
		Usage: "print results as json",
	}
}

func flagMaxRows() cli.Flag {
	return &cli.IntFlag{
		Name:  FlagMaxRows,
		Usage: "max number of table rows to print, -1 for all",
		Value: ppobj.DefaultMaxRows,
	}
}

// newApp builds the app with fresh commands; cli.App.Run modifies them.
func newApp() *cli.App {
	return clitools.NewApp("aktools", "helper tools for colored terminal output, sql, http and spreadsheets",
		[]*cli.Command{
			colorsCmd(),
			colorsReportCmd(),
			uuidCmd(),
			sqlCmd(),
			xlsCmd(),
			httpCmd(),
			rpcCmd(),
		})
}

func main() {
	clitools.Main(newApp(), os.Args)
}

// output writes lines to the file of the --output flag.
func output(cctx *cli.Context, lines ...string) error {
	w, err := clitools.FileOrStdout(cctx.String(FlagOutput))
	if err != nil {
		return err
	}
	defer w.Close()
	return writeLines(w, lines)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// printValue pretty prints a json-like value.
func printValue(cctx *cli.Context, v any) error {
	s := clitools.FromContext(cctx)
	printer := ppobj.NewPrinter(s.Palette(ppobj.JSONPalette))
	return output(cctx, printer.Lines(v)...)
}

// printTable prints records as a table, or as a list of objects with
// --json.
func printTable(cctx *cli.Context, name string, fields []string, records [][]any) error {
	if cctx.Bool(FlagJSON) {
		items := make([]any, len(records))
		for i, rec := range records {
			obj := make(map[string]any, len(fields))
			for j, f := range fields {
				obj[f] = rec[j]
			}
			items[i] = obj
		}
		return printValue(cctx, items)
	}

	t, err := ppobj.NewTable(name, fields, records)
	if err != nil {
		return err
	}
	t.Palette = clitools.FromContext(cctx).Palette(ppobj.TablePalette)
	if cctx.IsSet(FlagMaxRows) {
		t.MaxRows = cctx.Int(FlagMaxRows)
	}
	return output(cctx, t.Lines()...)
}

// keyValues parses "key=value" arguments.
func keyValues(items []string) (map[string]string, error) {
	res := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid argument '%s': expected key=value", item)
		}
		res[k] = v
	}
	return res, nil
}
