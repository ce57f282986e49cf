package psb

import (
	"fmt"
	"slices"
	"strings"
)

// StringTable is the decoded string-offset table and string-data blob of a
// raw PSB. It remembers the encoded extents so an export can compute how
// far downstream regions move.
type StringTable struct {
	Strings []string

	// Offsets are the original blob offsets, one per slot. Slots may alias.
	Offsets []uint32

	CountWidth  int
	OffsetWidth int

	tableLen int
	blobLen  int
}

// TableLen is the encoded size of the original offset table.
func (t *StringTable) TableLen() int { return t.tableLen }

// BlobLen is the size of the original string-data blob, measured to the
// terminator of the furthest string.
func (t *StringTable) BlobLen() int { return t.blobLen }

// ReadStringTable decodes the string table described by h.
func ReadStringTable(raw []byte, h Header) (*StringTable, error) {
	c := newCursor(raw, 0)
	if err := c.seek(int(h.StrOffsetsPos)); err != nil {
		return nil, err
	}

	countWidth, err := c.readSizeTag()
	if err != nil {
		return nil, err
	}
	count, err := c.readUint(countWidth)
	if err != nil {
		return nil, err
	}
	offWidth, err := c.readSizeTag()
	if err != nil {
		return nil, err
	}
	if count > entryLimit(len(raw), c.remaining(), offWidth) {
		return nil, formatErrorf(c.pos, "string table of %d entries past end", count)
	}

	t := &StringTable{
		Strings:     make([]string, count),
		Offsets:     make([]uint32, count),
		CountWidth:  countWidth,
		OffsetWidth: offWidth,
	}
	for i := range t.Offsets {
		off, err := c.readUint(offWidth)
		if err != nil {
			return nil, err
		}
		if off > uint64(len(raw)) {
			return nil, formatErrorf(c.pos-offWidth, "string offset 0x%x out of range", off)
		}
		t.Offsets[i] = uint32(off)
	}
	t.tableLen = c.pos - int(h.StrOffsetsPos)

	base := int(h.StrDataPos)
	end := base
	for i, off := range t.Offsets {
		if err := c.seek(base + int(off)); err != nil {
			return nil, err
		}
		s, err := c.readCString()
		if err != nil {
			return nil, err
		}
		t.Strings[i] = s
		end = max(end, c.pos)
	}
	t.blobLen = end - base
	return t, nil
}

// buildBlob lays out the new string data. Slots that aliased one offset in
// the source keep sharing it while they agree on a value; when exactly one
// distinct replacement is given for an alias group the unchanged members
// adopt it. Entries are written in ascending original offset, so an
// unchanged table re-encodes byte-for-byte.
func (t *StringTable) buildBlob(values []string) ([]byte, []uint64) {
	groups := make(map[uint32][]int, len(t.Offsets))
	for i, off := range t.Offsets {
		groups[off] = append(groups[off], i)
	}

	resolved := slices.Clone(values)
	for _, slots := range groups {
		if len(slots) < 2 {
			continue
		}
		orig := t.Strings[slots[0]]
		var replacement string
		distinct := 0
		for _, s := range slots {
			v := values[s]
			if v == orig || (distinct > 0 && v == replacement) {
				continue
			}
			replacement = v
			distinct++
		}
		if distinct == 1 {
			for _, s := range slots {
				resolved[s] = replacement
			}
		}
	}

	starts := make([]uint32, 0, len(groups))
	for off := range groups {
		starts = append(starts, off)
	}
	slices.Sort(starts)

	var w writer
	newOffsets := make([]uint64, len(values))
	for _, off := range starts {
		placed := make(map[string]uint64, 1)
		for _, s := range groups[off] {
			v := resolved[s]
			if at, ok := placed[v]; ok {
				newOffsets[s] = at
				continue
			}
			at := uint64(w.len())
			w.writeCString(v)
			placed[v] = at
			newOffsets[s] = at
		}
	}
	return w.bytes(), newOffsets
}

// buildTable encodes the offset table with minimal widths, or 4-byte
// offsets when forceMax is set.
func buildTable(offsets []uint64, forceMax bool) ([]byte, error) {
	count := uint64(len(offsets))
	var maxOff uint64
	for _, o := range offsets {
		maxOff = max(maxOff, o)
	}

	countWidth := MinimalWidth(count)
	offWidth := MinimalWidth(maxOff)
	if forceMax {
		countWidth = 4
		offWidth = 4
	}

	var w writer
	if err := w.writeSizeTag(countWidth); err != nil {
		return nil, err
	}
	if err := w.writeUint(count, countWidth); err != nil {
		return nil, err
	}
	if err := w.writeSizeTag(offWidth); err != nil {
		return nil, err
	}
	for _, o := range offsets {
		if err := w.writeUint(o, offWidth); err != nil {
			return nil, err
		}
	}
	return w.bytes(), nil
}

// ExportStrings returns a new raw PSB with the string table replaced by
// values (storage order). raw is not modified.
func ExportStrings(raw []byte, h Header, t *StringTable, values []string, opts Options) ([]byte, error) {
	if len(values) != len(t.Strings) {
		return nil, &CountMismatchError{Table: "string", Want: len(t.Strings), Got: len(values)}
	}
	for i, v := range values {
		if strings.IndexByte(v, 0) >= 0 {
			return nil, fmt.Errorf("%w: string %d contains a NUL byte", ErrFormat, i)
		}
	}

	blob, newOffsets := t.buildBlob(values)
	table, err := buildTable(newOffsets, opts.ForceMaxOffsetWidth)
	if err != nil {
		return nil, err
	}

	strOff := int(h.StrOffsetsPos)
	strData := int(h.StrDataPos)
	tableEnd := strOff + t.tableLen
	blobEnd := strData + t.blobLen
	if strOff < headerSize || tableEnd > strData || blobEnd > len(raw) {
		return nil, formatErrorf(strOff, "string table overlaps string data")
	}

	nh, err := h.Patched(int64(len(table)-t.tableLen), int64(len(blob)-t.blobLen))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(raw)+len(table)-t.tableLen+len(blob)-t.blobLen)
	out = append(out, raw[:strOff]...)
	out = append(out, table...)
	out = append(out, raw[tableEnd:strData]...)
	out = append(out, blob...)
	out = append(out, raw[blobEnd:]...)
	nh.put(out[:headerSize])
	return out, nil
}
