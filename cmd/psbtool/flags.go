package main

import (
	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

var (
	outDir           string
	workers          int64
	tmFormat         string
	compress         string
	compressionLevel int64
	forceMaxWidth    bool
	alignResources   bool
	logLevel         string
	logFormat        string
	debug            bool
)

func batchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "out-dir",
			Aliases:     []string{"od", "o"},
			Usage:       "output directory for rewritten files (default $PSBTOOL_OUT_DIR or ./translation_out)",
			Destination: &outDir,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "parallel workers (default $PSBTOOL_WORKERS or GOMAXPROCS)",
			Destination: &workers,
		},
		&cli.StringFlag{
			Name:        "tm-format",
			Usage:       "translation memory format (csv, json)",
			Value:       "csv",
			Destination: &tmFormat,
		},
	}
}

func codecFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "compress",
			Usage:       "MDF envelope for output (auto, always, never)",
			Value:       "auto",
			Destination: &compress,
		},
		&cli.Int64Flag{
			Name:        "compression-level",
			Usage:       "zlib level used when wrapping (1-9)",
			Value:       psb.DefaultCompressionLevel,
			Destination: &compressionLevel,
		},
		&cli.BoolFlag{
			Name:        "force-max-offset-width",
			Usage:       "always write 4-byte string offsets",
			Destination: &forceMaxWidth,
		},
		&cli.BoolFlag{
			Name:        "align-resources",
			Usage:       "pad resource blobs to 4-byte boundaries",
			Destination: &alignResources,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, plain, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// codecOptions builds the export options from the codec flags.
func codecOptions() psb.Options {
	return psb.Options{
		ForceMaxOffsetWidth: forceMaxWidth,
		Compress:            psb.ParseCompressMode(compress),
		CompressionLevel:    int(compressionLevel),
		AlignResources:      alignResources,
	}
}
