package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/internal/batch"
	"github.com/UserUnknownFactor/psbtool/internal/transmem"
)

func tjsCmd() *cli.Command {
	var byText bool

	return &cli.Command{
		Name:  "tjs",
		Usage: "Translate strings of compiled TJS2 scripts",
		Commands: []*cli.Command{
			{
				Name:      "unpack",
				Usage:     "Write a translation memory next to every matching script",
				ArgsUsage: "[glob]",
				Flags:     batchFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStringBatch(ctx, cmd, defaultScriptPattern, false, func(format transmem.Format) func(context.Context, batch.Task) error {
						return unpackTask(openTJS, format)
					})
				},
			},
			{
				Name:      "pack",
				Usage:     "Apply translation memories and write rewritten scripts",
				ArgsUsage: "[glob]",
				Flags: append(batchFlags(),
					&cli.BoolFlag{
						Name:        "by-text",
						Usage:       "match rows by original text when a memory does not line up",
						Destination: &byText,
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStringBatch(ctx, cmd, defaultScriptPattern, true, func(format transmem.Format) func(context.Context, batch.Task) error {
						return packTask(openTJS, format, byText)
					})
				},
			},
		},
	}
}
