package tjs2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"slices"
	"testing"
)

func u32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// dataContent builds a DATA sector body with small constant arrays around
// the string pool and a trailing object area.
func dataContent(strs []string) []byte {
	var b bytes.Buffer
	b.Write(u32(3))
	b.Write([]byte{1, 2, 3, 0}) // 3 bytes + pad
	b.Write(u32(1))
	b.Write([]byte{4, 5, 0, 0}) // 1 short + pad
	b.Write(u32(1))
	b.Write(u32(6))
	b.Write(u32(0))
	b.Write(u32(1))
	b.Write(make([]byte, 8))

	b.Write(u32(uint32(len(strs))))
	for _, s := range strs {
		units := []rune(s)
		b.Write(u32(uint32(len(units))))
		for _, r := range units {
			b.Write([]byte{byte(r), byte(r >> 8)})
		}
		b.Write(make([]byte, pad4(len(units)*2)))
	}
	b.WriteString("OBJS")
	return b.Bytes()
}

func buildScript(strs []string) []byte {
	var b bytes.Buffer
	b.WriteString(Magic)
	b.Write(u32(0))
	content := dataContent(strs)
	b.WriteString(SectorData)
	b.Write(u32(uint32(len(content))))
	b.Write(content)
	b.Write(u32(1))
	b.WriteString("OBJS")
	b.Write(u32(2))
	b.Write([]byte{9, 9})
	b.Write(u32(1))
	b.WriteString(SectorCode)
	b.Write(u32(3))
	b.Write([]byte{7, 7, 7})
	out := b.Bytes()
	binary.LittleEndian.PutUint32(out[lengthPos:], uint32(len(out)))
	return out
}

func TestParseAndStrings(t *testing.T) {
	t.Parallel()

	buf := buildScript([]string{"はい", "", "いいえ", "abc"})
	f, err := Parse(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(f.Sectors) != 3 {
		t.Fatalf("sectors = %d, want 3", len(f.Sectors))
	}
	if f.Sectors[1].Type != "OBJS" || f.Sectors[2].Type != SectorCode {
		t.Fatalf("sector order = %q, %q", f.Sectors[1].Type, f.Sectors[2].Type)
	}
	got, err := f.Strings()
	if err != nil {
		t.Fatalf("strings: %v", err)
	}
	if !slices.Equal(got, []string{"はい", "", "いいえ", "abc"}) {
		t.Fatalf("strings = %q", got)
	}

	out, err := f.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if !bytes.Equal(out, buf) {
		t.Fatalf("re-encoded file differs")
	}
}

func TestExportStrings(t *testing.T) {
	t.Parallel()

	orig := []string{"はい", "", "いいえ"}
	f, err := Parse(buildScript(orig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := f.ExportStrings([]string{"Yes", "", "No way"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if want := buildScript([]string{"Yes", "", "No way"}); !bytes.Equal(out, want) {
		t.Fatalf("export differs from a freshly built script")
	}

	g, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	got, err := g.Strings()
	if err != nil {
		t.Fatalf("strings: %v", err)
	}
	if !slices.Equal(got, []string{"Yes", "", "No way"}) {
		t.Fatalf("strings = %q", got)
	}
	data, _ := g.Data()
	if !bytes.HasSuffix(data.Content, []byte("OBJS")) {
		t.Fatalf("trailing DATA content lost")
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	buf := buildScript([]string{"a"})

	if _, err := Parse([]byte("TJS2")); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}

	badLen := slices.Clone(buf)
	binary.LittleEndian.PutUint32(badLen[lengthPos:], uint32(len(buf)+1))
	if _, err := Parse(badLen); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for length mismatch, got %v", err)
	}

	noData := slices.Clone(buf)
	copy(noData[firstSector:], "CODE")
	if _, err := Parse(noData); !errors.Is(err, ErrNoDataSector) {
		t.Fatalf("expected ErrNoDataSector, got %v", err)
	}

	truncated := slices.Clone(buf[:len(buf)-2])
	binary.LittleEndian.PutUint32(truncated[lengthPos:], uint32(len(truncated)))
	if _, err := Parse(truncated); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for truncated sector, got %v", err)
	}
}

func TestStringPoolBounds(t *testing.T) {
	t.Parallel()

	content := append(u32(1000), 0, 0, 0, 0)
	if _, err := stringPoolPos(content); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
