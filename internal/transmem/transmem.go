// Package transmem reads and writes translation memory files: one row per
// translatable string, holding the original text and its translation.
package transmem

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMisaligned is returned when a memory has a different number of rows
// than the container has strings.
var ErrMisaligned = errors.New("transmem: row count does not match strings")

// CommentPrefix marks rows a translator wants left untouched.
const CommentPrefix = "//"

// Suffix is appended to the container base name to name its memory file.
const Suffix = "_strings"

// Format selects the on-disk encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" and "json"; anything else is CSV.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatCSV
}

// Ext is the file extension for the format, dot included.
func (f Format) Ext() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".csv"
}

// Row is one entry of a memory.
type Row struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// Commented reports whether the row is marked to be skipped.
func (r Row) Commented() bool {
	return strings.HasPrefix(r.Original, CommentPrefix)
}

// PathFor returns the memory path for a container: the container path with
// its extension replaced by "_strings" plus the format extension.
func PathFor(container string, f Format) string {
	base := strings.TrimSuffix(container, filepath.Ext(container))
	return base + Suffix + f.Ext()
}

// Unpack builds a memory from strings in reading order. Empty strings are
// not written.
func Unpack(strs []string) []Row {
	rows := make([]Row, 0, len(strs))
	for _, s := range strs {
		if s == "" {
			continue
		}
		rows = append(rows, Row{Original: s})
	}
	return rows
}

// Apply returns strs with translations from rows applied by position. Rows
// correspond to the non-empty strings written by Unpack; a sentinel row is
// re-inserted for the first empty string before aligning.
func Apply(strs []string, rows []Row) ([]string, error) {
	aligned := align(strs, rows)
	if len(aligned) != len(strs) {
		return nil, fmt.Errorf("%w: %d rows for %d strings", ErrMisaligned, len(aligned), len(strs))
	}
	out := make([]string, len(strs))
	for i, s := range strs {
		out[i] = s
		if s == "" {
			continue
		}
		if r := aligned[i]; !r.Commented() && strings.TrimSpace(r.Translated) != "" {
			out[i] = r.Translated
		}
	}
	return out, nil
}

// ApplyByText replaces each string with the translation of the first row
// whose original matches it exactly. Unmatched strings are kept.
func ApplyByText(strs []string, rows []Row) []string {
	lookup := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.Commented() || strings.TrimSpace(r.Translated) == "" {
			continue
		}
		if _, ok := lookup[r.Original]; !ok {
			lookup[r.Original] = r.Translated
		}
	}
	out := make([]string, len(strs))
	for i, s := range strs {
		out[i] = s
		if t, ok := lookup[s]; ok && s != "" {
			out[i] = t
		}
	}
	return out
}

func align(strs []string, rows []Row) []Row {
	for i, s := range strs {
		if s != "" {
			continue
		}
		i = min(i, len(rows))
		aligned := make([]Row, 0, len(rows)+1)
		aligned = append(aligned, rows[:i]...)
		aligned = append(aligned, Row{})
		return append(aligned, rows[i:]...)
	}
	return rows
}

// Read decodes a memory in the given format. A UTF-8 or UTF-16 byte order
// mark is honoured.
func Read(r io.Reader, f Format) ([]Row, error) {
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	if f == FormatJSON {
		var rows []Row
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode memory: %w", err)
		}
		return rows, nil
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode memory: %w", err)
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		var row Row
		if len(rec) > 0 {
			row.Original = rec[0]
		}
		if len(rec) > 1 {
			row.Translated = rec[1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Write encodes rows in the given format.
func Write(w io.Writer, f Format, rows []Row) error {
	if f == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if rows == nil {
			rows = []Row{}
		}
		return enc.Encode(rows)
	}

	cw := csv.NewWriter(w)
	for _, r := range rows {
		if err := cw.Write([]string{r.Original, r.Translated}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads the memory file at path. The format follows the extension.
func Load(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data), formatOf(path))
}

// Save writes rows to path, creating parent directories.
func Save(path string, rows []Row) error {
	var buf bytes.Buffer
	if err := Write(&buf, formatOf(path), rows); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func formatOf(path string) Format {
	return ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}
