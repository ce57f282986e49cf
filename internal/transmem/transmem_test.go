package transmem

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestUnpackSkipsEmpty(t *testing.T) {
	t.Parallel()

	rows := Unpack([]string{"Hello", "", "World", ""})
	want := []Row{{Original: "Hello"}, {Original: "World"}}
	if !slices.Equal(rows, want) {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	strs := []string{"Hello", "", "World", "// note", "Bye"}
	rows := []Row{
		{"Hello", "Hi"},
		{"World", "  "},
		{"// note", "ignored"},
		{"Bye", "Ciao"},
	}
	got, err := Apply(strs, rows)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []string{"Hi", "", "World", "// note", "Ciao"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyLeadingEmpty(t *testing.T) {
	t.Parallel()

	strs := []string{"", "Hello", "Hello"}
	got, err := Apply(strs, Unpack(strs))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !slices.Equal(got, strs) {
		t.Fatalf("untranslated apply changed strings: %q", got)
	}

	got, err = Apply(strs, []Row{{"Hello", "Hi"}, {"Hello", "Hi"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !slices.Equal(got, []string{"", "Hi", "Hi"}) {
		t.Fatalf("got %q", got)
	}
}

func TestApplyMisaligned(t *testing.T) {
	t.Parallel()

	strs := []string{"a", "b", "c"}
	for _, rows := range [][]Row{
		{{"a", "A"}, {"b", "B"}},
		{{"a", "A"}, {"b", "B"}, {"c", "C"}, {"d", "D"}},
	} {
		if _, err := Apply(strs, rows); !errors.Is(err, ErrMisaligned) {
			t.Fatalf("%d rows: expected ErrMisaligned, got %v", len(rows), err)
		}
	}
}

func TestApplyByText(t *testing.T) {
	t.Parallel()

	strs := []string{"yes", "no", "", "maybe", "yes"}
	rows := []Row{
		{"no", "いいえ"},
		{"yes", "はい"},
		{"yes", "later row loses"},
		{"//maybe", "skip"},
	}
	got := ApplyByText(strs, rows)
	want := []string{"はい", "いいえ", "", "maybe", "はい"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{"plain", ""},
		{"with, comma", "and \"quotes\""},
		{"multi\nline", "行"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf, FormatCSV)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !slices.Equal(got, rows) {
		t.Fatalf("got %+v, want %+v", got, rows)
	}
}

func TestReadCSVWithBOM(t *testing.T) {
	t.Parallel()

	in := "\ufefforiginal,translated\nsingle\n"
	got, err := Read(strings.NewReader(in), FormatCSV)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []Row{{"original", "translated"}, {"single", ""}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v", got)
	}

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("a,b\n")
	if err != nil {
		t.Fatalf("encode utf16: %v", err)
	}
	got, err = Read(strings.NewReader(utf16), FormatCSV)
	if err != nil {
		t.Fatalf("read utf16: %v", err)
	}
	if !slices.Equal(got, []Row{{"a", "b"}}) {
		t.Fatalf("utf16 rows = %+v", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []Row{{"<tag>", "&amp"}, {"x", ""}}
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "<tag>") {
		t.Fatalf("html escaped output: %s", buf.String())
	}
	got, err := Read(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !slices.Equal(got, rows) {
		t.Fatalf("got %+v", got)
	}
}

func TestPathForAndSaveLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		f    Format
		want string
	}{
		{"data/scn/a.scn", FormatCSV, "data/scn/a_strings.csv"},
		{"b.psb.m", FormatJSON, "b.psb_strings.json"},
		{"noext", FormatCSV, "noext_strings.csv"},
	}
	for _, tt := range tests {
		if got := PathFor(tt.in, tt.f); got != tt.want {
			t.Fatalf("PathFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	dir := t.TempDir()
	for _, f := range []Format{FormatCSV, FormatJSON} {
		path := PathFor(filepath.Join(dir, "nested", "c.scn"), f)
		rows := []Row{{"a", "b"}}
		if err := Save(path, rows); err != nil {
			t.Fatalf("save %s: %v", f, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		if !slices.Equal(got, rows) {
			t.Fatalf("%s rows = %+v", f, got)
		}
	}
}
