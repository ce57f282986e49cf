package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/internal/batch"
	"github.com/UserUnknownFactor/psbtool/internal/transmem"
)

func packCmd() *cli.Command {
	var byText bool

	return &cli.Command{
		Name:      "pack",
		Usage:     "Apply translation memories and write rewritten scenarios",
		ArgsUsage: "[glob]",
		Flags: append(append(batchFlags(), codecFlags()...),
			&cli.BoolFlag{
				Name:        "by-text",
				Usage:       "match rows by original text when a memory does not line up",
				Destination: &byText,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStringBatch(ctx, cmd, defaultScenarioPattern, true, func(format transmem.Format) func(context.Context, batch.Task) error {
				return packTask(openPSB, format, byText)
			})
		},
	}
}
