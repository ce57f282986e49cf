package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/internal/logger"
	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

const manifestName = "manifest.json"

// manifest lists extracted resource blobs in table order.
type manifest struct {
	Source    string          `json:"source"`
	Resources []manifestEntry `json:"resources"`
}

type manifestEntry struct {
	Index  int    `json:"index"`
	File   string `json:"file"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

func resourcesCmd() *cli.Command {
	var dir, out string
	dirFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:        "dir",
			Aliases:     []string{"d"},
			Usage:       "resource directory (default <file>_res)",
			Destination: &dir,
		}
	}

	return &cli.Command{
		Name:  "resources",
		Usage: "Extract or replace embedded resource blobs",
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Write every resource blob and a manifest to a directory",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{dirFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return errors.New("resources extract: file argument is required")
					}
					return extractResources(ctx, path, resourceDir(path, dir))
				},
			},
			{
				Name:      "replace",
				Usage:     "Rebuild a container from the blobs listed in a manifest",
				ArgsUsage: "<file>",
				Flags: append([]cli.Flag{dirFlag(),
					&cli.StringFlag{
						Name:        "out",
						Aliases:     []string{"o"},
						Usage:       "output file (default <out-dir>/<file name>)",
						Destination: &out,
					},
				}, codecFlags()...),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return errors.New("resources replace: file argument is required")
					}
					applyCodecConfig(cmd, LoadConfig())
					if out == "" {
						out = filepath.Join(resolveOutDir(""), filepath.Base(path))
					}
					return replaceResources(ctx, path, resourceDir(path, dir), out)
				},
			},
		},
	}
}

func resourceDir(path, flag string) string {
	if flag != "" {
		return flag
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_res"
}

func extractResources(ctx context.Context, path, dir string) error {
	log := logger.FromContext(ctx)
	c, err := psb.LoadFile(path, psb.Options{})
	if err != nil {
		return err
	}
	t, blobs, err := c.Resources()
	if err != nil {
		return fmt.Errorf("read resources: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	m := manifest{Source: filepath.Base(path), Resources: make([]manifestEntry, len(blobs))}
	for i, b := range blobs {
		name := fmt.Sprintf("%04d.bin", i)
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return err
		}
		m.Resources[i] = manifestEntry{Index: i, File: name, Offset: t.Offsets[i], Size: t.Sizes[i]}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0o644); err != nil {
		return err
	}
	log.Info("extracted resources", "count", len(blobs), "dir", dir)
	return nil
}

func replaceResources(ctx context.Context, path, dir, out string) error {
	log := logger.FromContext(ctx)
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	blobs := make([][]byte, len(m.Resources))
	for i, e := range m.Resources {
		if e.Index != i {
			return fmt.Errorf("manifest entry %d has index %d", i, e.Index)
		}
		if blobs[i], err = os.ReadFile(filepath.Join(dir, e.File)); err != nil {
			return err
		}
	}

	c, err := psb.LoadFile(path, codecOptions())
	if err != nil {
		return err
	}
	result, err := c.ExportResources(blobs)
	if err != nil {
		return err
	}
	if err := writeOutput(out, result); err != nil {
		return err
	}
	log.Info("replaced resources", "count", len(blobs), "output", out, "size", len(result))
	return nil
}
