package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

func inspectCmd() *cli.Command {
	var (
		asJSON      bool
		showStrings bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the layout of a PSB container",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "strings", Usage: "also list strings in reading order", Destination: &showStrings},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("inspect: file argument is required")
			}
			c, err := psb.LoadFile(path, psb.Options{})
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}
			if asJSON {
				return writeInspectJSON(os.Stdout, c, showStrings)
			}
			writeInspectText(os.Stdout, path, c, showStrings)
			return nil
		},
	}
}

type inspectReport struct {
	psb.Summary
	Strings []string `json:"strings,omitempty"`
}

func writeInspectJSON(w io.Writer, c *psb.Container, withStrings bool) error {
	rep := inspectReport{Summary: c.Summarize()}
	if withStrings {
		rep.Strings = c.Strings()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rep)
}

func writeInspectText(w io.Writer, path string, c *psb.Container, withStrings bool) {
	s := c.Summarize()
	h := s.Header

	_, _ = fmt.Fprintf(w, "file:       %s\n", path)
	_, _ = fmt.Fprintf(w, "envelope:   %s\n", s.Status)
	_, _ = fmt.Fprintf(w, "version:    %d\n", s.Version)
	_, _ = fmt.Fprintf(w, "size:       %d bytes\n", s.Size)
	_, _ = fmt.Fprintln(w, "header:")
	_, _ = fmt.Fprintf(w, "  names     0x%08x / 0x%08x\n", h.NameOffsetsPos, h.NameDataPos)
	_, _ = fmt.Fprintf(w, "  strings   0x%08x / 0x%08x\n", h.StrOffsetsPos, h.StrDataPos)
	_, _ = fmt.Fprintf(w, "  resources 0x%08x / 0x%08x / 0x%08x\n", h.ResOffsetsPos, h.ResSizesPos, h.ResDataPos)
	_, _ = fmt.Fprintf(w, "  entries   0x%08x\n", h.EntriesPos)
	_, _ = fmt.Fprintf(w, "bytecode:   %d bytes at 0x%x\n", s.BytecodeLen, s.BytecodeStart)
	_, _ = fmt.Fprintf(w, "strings:    %d (%d referenced, table %d bytes, data %d bytes)\n",
		s.StringCount, s.Referenced, s.StrTableLen, s.StrBlobLen)
	if s.InvalidUTF8 > 0 {
		_, _ = fmt.Fprintf(w, "            %d not valid UTF-8\n", s.InvalidUTF8)
	}
	if s.ResourceCount < 0 {
		_, _ = fmt.Fprintln(w, "resources:  unreadable (try recover)")
	} else {
		_, _ = fmt.Fprintf(w, "resources:  %d\n", s.ResourceCount)
	}
	if s.Embedded {
		_, _ = fmt.Fprintln(w, "warning:    bytecode references resources by string")
	}
	if withStrings {
		for i, str := range c.Strings() {
			_, _ = fmt.Fprintf(w, "%5d  %q\n", i, str)
		}
	}
}
