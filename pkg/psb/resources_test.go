package psb

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func TestResourcesRoundTrip(t *testing.T) {
	t.Parallel()

	raw := helloFixture(t)
	c, err := Load(raw, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	table, blobs, err := c.Resources()
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	if table.Len() != 2 || table.DataPos != int(c.Header().ResDataPos) {
		t.Fatalf("table = %+v", table)
	}
	if !slices.Equal(table.Offsets, []uint64{0, 3}) || !slices.Equal(table.Sizes, []uint64{3, 2}) {
		t.Fatalf("offsets/sizes = %v/%v", table.Offsets, table.Sizes)
	}

	out, err := c.ExportResources(blobs)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("unchanged resource export differs from input")
	}
}

func TestExportResourcesReplace(t *testing.T) {
	t.Parallel()

	raw := helloFixture(t)
	for _, align := range []bool{false, true} {
		c, err := Load(raw, Options{AlignResources: align})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		repl := [][]byte{[]byte("vwxyz"), []byte("q")}
		out, err := c.ExportResources(repl)
		if err != nil {
			t.Fatalf("align=%v: export: %v", align, err)
		}

		reloaded, err := Load(out, Options{})
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		table, blobs, err := reloaded.Resources()
		if err != nil {
			t.Fatalf("resources: %v", err)
		}
		if len(blobs) != 2 || !bytes.Equal(blobs[0], repl[0]) || !bytes.Equal(blobs[1], repl[1]) {
			t.Fatalf("align=%v: blobs = %q", align, blobs)
		}
		if align {
			if second := table.DataPos + int(table.Offsets[1]); second%4 != 0 {
				t.Fatalf("second blob at 0x%x not aligned", second)
			}
		} else if table.Offsets[1] != 5 {
			t.Fatalf("unaligned second offset = %d", table.Offsets[1])
		}
		// the final blob is never padded
		if want := table.DataPos + int(table.Offsets[1]) + 1; len(out) != want {
			t.Fatalf("align=%v: length = %d, want %d", align, len(out), want)
		}
		if !slices.Equal(reloaded.StorageStrings(), c.StorageStrings()) {
			t.Fatalf("strings changed by resource export")
		}
	}
}

func TestExportResourcesErrors(t *testing.T) {
	t.Parallel()

	c, err := Load(helloFixture(t), Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, n := range []int{1, 3} {
		_, err := c.ExportResources(make([][]byte, n))
		var cm *CountMismatchError
		if !errors.As(err, &cm) || cm.Table != "resource" || cm.Want != 2 || cm.Got != n {
			t.Fatalf("%d blobs: expected resource count mismatch, got %v", n, err)
		}
	}

	// both tables were written one byte wide
	big := [][]byte{make([]byte, 300), []byte("x")}
	if _, err := c.ExportResources(big); !errors.Is(err, ErrOffsetTooLarge) {
		t.Fatalf("expected ErrOffsetTooLarge, got %v", err)
	}
}

func TestResourceTableEmpty(t *testing.T) {
	t.Parallel()

	raw := fixture{code: strRef(0), entries: []string{"a"}}.build(t)
	h, err := ReadHeader(raw)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	table, err := ReadResourceTable(raw, h)
	if err != nil {
		t.Fatalf("resource table: %v", err)
	}
	if table.Len() != 0 || table.DataPos != len(raw) {
		t.Fatalf("table = %+v", table)
	}
	out, err := ExportResources(raw, table, nil, Options{})
	if err != nil || !bytes.Equal(out, raw) {
		t.Fatalf("empty export changed container: %v", err)
	}
}

func TestTablesRejectHugeZeroWidthCount(t *testing.T) {
	t.Parallel()

	// 2^62 entries of width zero.
	table := []byte{0x14, 0, 0, 0, 0, 0, 0, 0, 0x40, 0x0C}

	h := Header{
		Version:        3,
		NameOffsetsPos: HeaderSize,
		NameDataPos:    HeaderSize,
		StrOffsetsPos:  HeaderSize,
		StrDataPos:     HeaderSize + uint32(len(table)),
		ResOffsetsPos:  HeaderSize,
		ResSizesPos:    HeaderSize,
		ResDataPos:     HeaderSize + uint32(len(table)),
		EntriesPos:     HeaderSize,
	}
	copy(h.Magic[:], MagicPSB)
	raw := append(h.Bytes(), table...)

	if _, err := ReadStringTable(raw, h); !errors.Is(err, ErrFormat) {
		t.Fatalf("string table: expected ErrFormat, got %v", err)
	}
	if _, err := ReadResourceTable(raw, h); !errors.Is(err, ErrFormat) {
		t.Fatalf("resource table: expected ErrFormat, got %v", err)
	}
}

func TestResourceBlobOutOfRange(t *testing.T) {
	t.Parallel()

	raw := helloFixture(t)
	h, err := ReadHeader(raw)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	table, err := ReadResourceTable(raw, h)
	if err != nil {
		t.Fatalf("resource table: %v", err)
	}
	table.Sizes[1] = 100
	if _, err := table.Blobs(raw); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestAlignPad(t *testing.T) {
	t.Parallel()

	for pos, want := range []int{0, 3, 2, 1, 0, 3} {
		if got := alignPad(pos); got != want {
			t.Fatalf("alignPad(%d) = %d, want %d", pos, got, want)
		}
	}
}
