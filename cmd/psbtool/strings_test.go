package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/UserUnknownFactor/psbtool/internal/batch"
	"github.com/UserUnknownFactor/psbtool/internal/logger"
	"github.com/UserUnknownFactor/psbtool/internal/transmem"
	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

// testScenario builds a raw PSB holding "Hi", "" and "Yo" referenced in
// table order, followed by one-byte-wide resource tables for blobs.
func testScenario(t *testing.T, blobs ...[]byte) []byte {
	t.Helper()

	code := []byte{0x15, 0x00, 0x15, 0x01, 0x15, 0x02}
	table := []byte{0x0D, 0x03, 0x0D, 0x00, 0x03, 0x04}
	strData := []byte("Hi\x00\x00Yo\x00")

	h := psb.Header{
		Version:        3,
		NameOffsetsPos: psb.HeaderSize,
		NameDataPos:    psb.HeaderSize,
		EntriesPos:     psb.HeaderSize,
		StrOffsetsPos:  uint32(psb.HeaderSize + len(code)),
		StrDataPos:     uint32(psb.HeaderSize + len(code) + len(table)),
	}
	copy(h.Magic[:], psb.MagicPSB)

	var res []byte
	if len(blobs) > 0 {
		resAt := int(h.StrDataPos) + len(strData)
		offsets := []byte{0x0D, byte(len(blobs)), 0x0D}
		sizes := []byte{0x0D, byte(len(blobs)), 0x0D}
		at := 0
		for _, b := range blobs {
			offsets = append(offsets, byte(at))
			sizes = append(sizes, byte(len(b)))
			at += len(b)
		}
		h.ResOffsetsPos = uint32(resAt)
		h.ResSizesPos = uint32(resAt + len(offsets))
		h.ResDataPos = uint32(resAt + len(offsets) + len(sizes))
		res = append(offsets, sizes...)
		for _, b := range blobs {
			res = append(res, b...)
		}
	}

	out := h.Bytes()
	for _, part := range [][]byte{code, table, strData, res} {
		out = append(out, part...)
	}
	return out
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestUnpackThenPackScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "a.scn")
	writeFile(t, in, testScenario(t))

	unpack := unpackTask(openPSB, transmem.FormatCSV)
	task := batch.Task{Input: in, Log: logger.Discard()}
	if err := unpack(context.Background(), task); err != nil {
		t.Fatalf("unpack: %v", err)
	}

	tmPath := filepath.Join(dir, "a_strings.csv")
	rows, err := transmem.Load(tmPath)
	if err != nil {
		t.Fatalf("load memory: %v", err)
	}
	want := []transmem.Row{{Original: "Hi"}, {Original: "Yo"}}
	if !slices.Equal(rows, want) {
		t.Fatalf("rows: got %+v want %+v", rows, want)
	}

	if err := unpack(context.Background(), task); !errors.Is(err, batch.ErrSkip) {
		t.Fatalf("second unpack should skip, got %v", err)
	}

	rows[0].Translated = "Salut"
	if err := transmem.Save(tmPath, rows); err != nil {
		t.Fatalf("save memory: %v", err)
	}

	out := filepath.Join(dir, "out", "a.scn")
	pack := packTask(openPSB, transmem.FormatCSV, false)
	if err := pack(context.Background(), batch.Task{Input: in, Output: out, Log: logger.Discard()}); err != nil {
		t.Fatalf("pack: %v", err)
	}
	c, err := psb.LoadFile(out, psb.Options{})
	if err != nil {
		t.Fatalf("load packed: %v", err)
	}
	if got := c.Strings(); !slices.Equal(got, []string{"Salut", "", "Yo"}) {
		t.Fatalf("packed strings: got %q", got)
	}
}

func TestPackSkipsWithoutMemory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "b.scn")
	writeFile(t, in, testScenario(t))

	pack := packTask(openPSB, transmem.FormatCSV, false)
	err := pack(context.Background(), batch.Task{Input: in, Output: filepath.Join(dir, "out.scn"), Log: logger.Discard()})
	if !errors.Is(err, batch.ErrSkip) {
		t.Fatalf("expected skip, got %v", err)
	}
}

func TestPackMisalignedMemory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "c.scn")
	writeFile(t, in, testScenario(t))
	rows := []transmem.Row{
		{Original: "Yo", Translated: "Hey"},
		{Original: "Extra", Translated: "x"},
		{Original: "More", Translated: "y"},
	}
	if err := transmem.Save(filepath.Join(dir, "c_strings.json"), rows); err != nil {
		t.Fatalf("save memory: %v", err)
	}

	out := filepath.Join(dir, "out", "c.scn")
	strict := packTask(openPSB, transmem.FormatJSON, false)
	if err := strict(context.Background(), batch.Task{Input: in, Output: out, Log: logger.Discard()}); !errors.Is(err, transmem.ErrMisaligned) {
		t.Fatalf("expected misaligned error, got %v", err)
	}

	byText := packTask(openPSB, transmem.FormatJSON, true)
	if err := byText(context.Background(), batch.Task{Input: in, Output: out, Log: logger.Discard()}); err != nil {
		t.Fatalf("pack by text: %v", err)
	}
	c, err := psb.LoadFile(out, psb.Options{})
	if err != nil {
		t.Fatalf("load packed: %v", err)
	}
	if got := c.Strings(); !slices.Equal(got, []string{"Hi", "", "Hey"}) {
		t.Fatalf("packed strings: got %q", got)
	}
}

func TestExtractReplaceResources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "d.scn")
	writeFile(t, in, testScenario(t, []byte("abc"), []byte("de")))

	resDir := filepath.Join(dir, "res")
	if err := extractResources(context.Background(), in, resDir); err != nil {
		t.Fatalf("extract: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(resDir, "0000.bin"))
	if err != nil || string(first) != "abc" {
		t.Fatalf("first blob: got %q, %v", first, err)
	}

	writeFile(t, filepath.Join(resDir, "0001.bin"), []byte("fghij"))
	out := filepath.Join(dir, "out", "d.scn")
	if err := replaceResources(context.Background(), in, resDir, out); err != nil {
		t.Fatalf("replace: %v", err)
	}

	c, err := psb.LoadFile(out, psb.Options{})
	if err != nil {
		t.Fatalf("load replaced: %v", err)
	}
	_, blobs, err := c.Resources()
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	if len(blobs) != 2 || string(blobs[0]) != "abc" || string(blobs[1]) != "fghij" {
		t.Fatalf("blobs: got %q", blobs)
	}
	if got := c.Strings(); !slices.Equal(got, []string{"Hi", "", "Yo"}) {
		t.Fatalf("strings changed: got %q", got)
	}
}
