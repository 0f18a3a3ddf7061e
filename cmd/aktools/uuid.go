package main

import (
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/akorshkov/aktools/pkg/shortuuid"
)

func uuidCmd() *cli.Command {
	return &cli.Command{
		Name:      "uuid",
		Usage:     "convert uuids between the standard and short forms",
		ArgsUsage: "[uuid or short uuid...]",
		Description: "Without arguments generates a new uuid.\n" +
			"Short form is 22 characters of the alphabet without similar looking chars.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of uuids to generate",
				Value: 1,
			},
			flagJSON(),
			flagOutput(),
		},
		Action: func(cctx *cli.Context) error {
			var ids []uuid.UUID
			if cctx.NArg() == 0 {
				for i := 0; i < cctx.Int("count"); i++ {
					ids = append(ids, uuid.New())
				}
			}
			for _, arg := range cctx.Args().Slice() {
				u, err := shortuuid.Parse(arg)
				if err != nil {
					return err
				}
				ids = append(ids, u)
			}

			records := make([][]any, len(ids))
			for i, u := range ids {
				records[i] = []any{u.String(), shortuuid.ToShort(u)}
			}
			return printTable(cctx, "uuids", []string{"uuid", "short"}, records)
		},
	}
}
