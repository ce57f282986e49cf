package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/UserUnknownFactor/psbtool/internal/batch"
	"github.com/UserUnknownFactor/psbtool/internal/transmem"
	"github.com/UserUnknownFactor/psbtool/pkg/psb"
	"github.com/UserUnknownFactor/psbtool/pkg/tjs2"
)

// stringDoc is a loaded file whose strings can be read and rewritten.
type stringDoc struct {
	strings []string
	export  func(values []string) ([]byte, error)

	// embedded is set when the strings also feed resource lookups.
	embedded bool
}

type openFunc func(path string) (*stringDoc, error)

func openPSB(path string) (*stringDoc, error) {
	c, err := psb.LoadFile(path, codecOptions())
	if err != nil {
		return nil, err
	}
	return &stringDoc{
		strings:  c.Strings(),
		export:   c.ExportStrings,
		embedded: c.HasEmbeddedReferences(),
	}, nil
}

func openTJS(path string) (*stringDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := tjs2.Parse(data)
	if err != nil {
		return nil, err
	}
	strs, err := f.Strings()
	if err != nil {
		return nil, err
	}
	return &stringDoc{strings: strs, export: f.ExportStrings}, nil
}

// unpackTask writes a translation memory next to each input. Inputs that
// already have one are skipped.
func unpackTask(open openFunc, format transmem.Format) func(context.Context, batch.Task) error {
	return func(ctx context.Context, t batch.Task) error {
		tmPath := transmem.PathFor(t.Input, format)
		if _, err := os.Stat(tmPath); err == nil {
			return fmt.Errorf("%w: %s exists", batch.ErrSkip, tmPath)
		}
		doc, err := open(t.Input)
		if err != nil {
			return err
		}
		if doc.embedded {
			t.Log.Warn("bytecode holds resource references that do not resolve to text; see resources extract")
		}
		rows := transmem.Unpack(doc.strings)
		if err := transmem.Save(tmPath, rows); err != nil {
			return err
		}
		t.Log.Info("parsed", "strings", len(doc.strings), "rows", len(rows), "memory", tmPath)
		return nil
	}
}

// packTask applies the memory next to each input and writes the result to
// the task output. Inputs without a memory are skipped.
func packTask(open openFunc, format transmem.Format, byText bool) func(context.Context, batch.Task) error {
	return func(ctx context.Context, t batch.Task) error {
		tmPath := transmem.PathFor(t.Input, format)
		rows, err := transmem.Load(tmPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("%w: no memory at %s", batch.ErrSkip, tmPath)
		case err != nil:
			return err
		case len(rows) == 0:
			return fmt.Errorf("%w: %s is empty", batch.ErrSkip, tmPath)
		}

		doc, err := open(t.Input)
		if err != nil {
			return err
		}
		values, err := transmem.Apply(doc.strings, rows)
		if errors.Is(err, transmem.ErrMisaligned) && byText {
			t.Log.Warn("memory does not line up, matching by text", "rows", len(rows), "strings", len(doc.strings))
			values, err = transmem.ApplyByText(doc.strings, rows), nil
		}
		if err != nil {
			return err
		}

		out, err := doc.export(values)
		if err != nil {
			return err
		}
		if err := writeOutput(t.Output, out); err != nil {
			return err
		}
		t.Log.Info("translated", "output", t.Output, "size", len(out))
		return nil
	}
}
