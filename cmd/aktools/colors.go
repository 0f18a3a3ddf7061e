package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/akorshkov/aktools/internal/config"
	"github.com/akorshkov/aktools/pkg/clitools"
	"github.com/akorshkov/aktools/pkg/color"
	"github.com/akorshkov/aktools/pkg/mcaller"
	"github.com/akorshkov/aktools/pkg/ppobj"
)

func colorsCmd() *cli.Command {
	return &cli.Command{
		Name:  "colors",
		Usage: "print examples of available colors",
		Flags: []cli.Flag{flagOutput()},
		Action: func(cctx *cli.Context) error {
			return output(cctx, color.MakeExamples())
		},
	}
}

// reportedPalettes are registered in the colors config before the report
// so that it lists the syntaxes used by aktools.
var reportedPalettes = []*color.PaletteSpec{
	ppobj.JSONPalette,
	ppobj.TablePalette,
	ppobj.EnumPalette,
	mcaller.Palette,
}

func colorsReportCmd() *cli.Command {
	return &cli.Command{
		Name:  "colors-report",
		Usage: "print the colors config",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "palettes",
				Usage: "also print palettes of aktools components",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "print the report again each time the config file changes",
			},
			flagOutput(),
		},
		Action: func(cctx *cli.Context) error {
			s := clitools.FromContext(cctx)
			if err := output(cctx, colorsReport(s, cctx.Bool("palettes"))...); err != nil {
				return err
			}
			if !cctx.Bool("watch") {
				return nil
			}

			w, err := s.Config.Watch(cctx.Context, func(cfg *config.Config) {
				conf, err := cfg.ColorsConfig(!s.ColorStdout)
				if err != nil {
					log.Error("invalid colors in config", "error", err)
					return
				}
				color.SetGlobal(conf)
				if err := output(cctx, append([]string{""}, colorsReport(s, cctx.Bool("palettes"))...)...); err != nil {
					log.Error("failed to print report", "error", err)
				}
			})
			if err != nil {
				return err
			}
			log.Info("watching config file", "path", s.Config.Path)
			<-cctx.Context.Done()
			return w.Stop()
		},
	}
}

func colorsReport(s *clitools.Settings, withPalettes bool) []string {
	palettes := make([]*color.Palette, len(reportedPalettes))
	for i, spec := range reportedPalettes {
		palettes[i] = s.Palette(spec)
	}
	lines := color.Global().ReportLines()
	if !withPalettes {
		return lines
	}
	for i, p := range palettes {
		lines = append(lines, "", fmt.Sprintf("%s:", reportedPalettes[i].Name), p.Report())
	}
	return lines
}
