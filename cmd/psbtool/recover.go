package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/internal/logger"
	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

func recoverCmd() *cli.Command {
	var out string

	return &cli.Command{
		Name:      "recover",
		Usage:     "Repair resource table pointers left broken by other packers",
		ArgsUsage: "<file>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output file (default <out-dir>/<file name>)",
				Destination: &out,
			},
		}, codecFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			path := cmd.Args().First()
			if path == "" {
				return errors.New("recover: file argument is required")
			}
			applyCodecConfig(cmd, LoadConfig())

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			level := int(compressionLevel)
			if level == 0 {
				level = psb.DefaultCompressionLevel
			}
			fixed, err := psb.TryRecovery(data, level)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(resolveOutDir(""), filepath.Base(path))
			}
			if err := writeOutput(out, fixed); err != nil {
				return err
			}
			log.Info("recovered", "output", out)
			return nil
		},
	}
}
