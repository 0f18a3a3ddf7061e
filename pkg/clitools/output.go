package clitools

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	fcolor "github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// FileOrStdout opens the file for writing; empty name or "-" means
// stdout, which is not closed by Close.
func FileOrStdout(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// PrintError writes the error banner.
func PrintError(w io.Writer, err error) {
	console := fcolor.New(fcolor.FgRed, fcolor.Bold)
	console.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
}

// Main runs the app until it finishes or is interrupted and exits with
// status 1 on error.
func Main(app *cli.App, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, args)
	stop()
	if err != nil {
		PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
