package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/internal/logger"
	"github.com/UserUnknownFactor/psbtool/pkg/bitmap"
)

func bitmapCmd() *cli.Command {
	var (
		out         string
		width       int64
		stripHeader bool
	)
	outFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output file",
			Destination: &out,
		}
	}

	return &cli.Command{
		Name:  "bitmap",
		Usage: "Run-length codec for bitmap resources",
		Commands: []*cli.Command{
			{
				Name:      "decompress",
				Usage:     "Expand a run-length stream into raw BGRA words or an image",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{outFlag(),
					&cli.Int64Flag{
						Name:        "width",
						Aliases:     []string{"w"},
						Usage:       "image width in pixels; without it raw words are written",
						Destination: &width,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					in := cmd.Args().First()
					if in == "" {
						return errors.New("bitmap decompress: file argument is required")
					}
					return decompressBitmap(ctx, in, out, int(width))
				},
			},
			{
				Name:      "compress",
				Usage:     "Encode an image or raw BGRA words as a run-length stream",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{outFlag(),
					&cli.BoolFlag{
						Name:        "strip-header",
						Usage:       "drop a leading BMP header from raw input",
						Value:       true,
						Destination: &stripHeader,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					in := cmd.Args().First()
					if in == "" {
						return errors.New("bitmap compress: file argument is required")
					}
					return compressBitmap(ctx, in, out, stripHeader)
				},
			},
		},
	}
}

func decompressBitmap(ctx context.Context, in, out string, width int) error {
	log := logger.FromContext(ctx)
	stream, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	pix, err := bitmap.Decompress(stream)
	if err != nil {
		return err
	}

	if out == "" {
		ext := ".raw"
		if width > 0 {
			ext = ".png"
		}
		out = siblingPath(in, "_dec", ext)
	}
	if width <= 0 || isRawPath(out) {
		err = writeOutput(out, pix)
	} else {
		err = bitmap.SaveImage(out, pix, width)
	}
	if err != nil {
		return err
	}
	log.Info("decompressed", "output", out, "bytes", len(pix))
	return nil
}

func compressBitmap(ctx context.Context, in, out string, stripHeader bool) error {
	log := logger.FromContext(ctx)

	var data []byte
	if isImagePath(in) {
		pix, width, err := bitmap.LoadPixels(in)
		if err != nil {
			return err
		}
		log.Debug("decoded image", "width", width, "bytes", len(pix))
		data, stripHeader = pix, false
	} else {
		raw, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		data = raw
	}

	stream, err := bitmap.Compress(data, stripHeader)
	if err != nil {
		return err
	}
	if out == "" {
		out = siblingPath(in, "_rle", ".bin")
	}
	if err := writeOutput(out, stream); err != nil {
		return err
	}
	log.Info("compressed", "output", out, "bytes", len(stream))
	return nil
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func isRawPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw", ".bin", "":
		return true
	}
	return false
}
