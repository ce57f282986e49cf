package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/internal/batch"
	"github.com/UserUnknownFactor/psbtool/internal/logger"
	"github.com/UserUnknownFactor/psbtool/internal/transmem"
)

func unpackCmd() *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "Write a translation memory next to every matching scenario",
		ArgsUsage: "[glob]",
		Flags:     batchFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStringBatch(ctx, cmd, defaultScenarioPattern, false, func(format transmem.Format) func(context.Context, batch.Task) error {
				return unpackTask(openPSB, format)
			})
		},
	}
}

// runStringBatch resolves the shared batch settings and runs task over the
// matched files. withOut routes outputs under the output directory.
func runStringBatch(
	ctx context.Context, cmd *cli.Command, defPattern string, withOut bool,
	task func(transmem.Format) func(context.Context, batch.Task) error,
) error {
	log := logger.FromContext(ctx)
	cfg := LoadConfig()
	applyBatchConfig(cmd, cfg)
	applyCodecConfig(cmd, cfg)

	n, err := resolveWorkers(workers)
	if err != nil {
		return err
	}
	job := batch.Job{
		Pattern: patternArg(cmd.Args().Slice(), defPattern),
		Workers: n,
		Fn:      task(transmem.ParseFormat(tmFormat)),
	}
	if withOut {
		job.OutDir = resolveOutDir(outDir)
	}
	_, err = batch.Run(ctx, log, job)
	return err
}
