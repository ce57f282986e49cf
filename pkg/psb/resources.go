package psb

import "slices"

// ResourceTable describes the embedded binary blobs of a raw PSB: two
// parallel tables (offsets relative to DataPos, and sizes) with their own
// entry widths.
type ResourceTable struct {
	Offsets []uint64
	Sizes   []uint64

	OffsetWidth int
	SizeWidth   int

	DataPos int

	offsetsAt int
	sizesAt   int
}

// Len returns the number of resources.
func (t *ResourceTable) Len() int {
	return len(t.Offsets)
}

// entryLimit is the largest entry count a table of the given width can
// declare. Zero-width entries occupy no bytes, so they are bounded by the
// buffer size instead.
func entryLimit(size, remaining, width int) uint64 {
	if width == 0 {
		return uint64(size)
	}
	return uint64(remaining / width)
}

// readArray decodes a count-prefixed array and returns the values, the entry
// width and the position of the first entry.
func readArray(raw []byte, pos int) ([]uint64, int, int, error) {
	c := newCursor(raw, 0)
	if err := c.seek(pos); err != nil {
		return nil, 0, 0, err
	}
	countWidth, err := c.readSizeTag()
	if err != nil {
		return nil, 0, 0, err
	}
	count, err := c.readUint(countWidth)
	if err != nil {
		return nil, 0, 0, err
	}
	width, err := c.readSizeTag()
	if err != nil {
		return nil, 0, 0, err
	}
	if count > entryLimit(len(raw), c.remaining(), width) {
		return nil, 0, 0, formatErrorf(pos, "array of %d entries past end", count)
	}
	first := c.pos
	values := make([]uint64, count)
	for i := range values {
		if values[i], err = c.readUint(width); err != nil {
			return nil, 0, 0, err
		}
	}
	return values, width, first, nil
}

// ReadResourceTable decodes the resource tables described by h. A header
// whose three resource fields are all zero has no resources.
func ReadResourceTable(raw []byte, h Header) (*ResourceTable, error) {
	t := &ResourceTable{DataPos: int(h.ResDataPos)}
	if h.ResOffsetsPos == 0 && h.ResSizesPos == 0 && h.ResDataPos == 0 {
		t.DataPos = len(raw)
		return t, nil
	}

	var err error
	t.Offsets, t.OffsetWidth, t.offsetsAt, err = readArray(raw, int(h.ResOffsetsPos))
	if err != nil {
		return nil, err
	}
	t.Sizes, t.SizeWidth, t.sizesAt, err = readArray(raw, int(h.ResSizesPos))
	if err != nil {
		return nil, err
	}
	if len(t.Offsets) != len(t.Sizes) {
		return nil, formatErrorf(int(h.ResSizesPos), "resource tables disagree: %d offsets, %d sizes", len(t.Offsets), len(t.Sizes))
	}
	if t.DataPos > len(raw) {
		return nil, formatErrorf(offResData, "resource data offset 0x%x out of range", t.DataPos)
	}
	return t, nil
}

// Blobs copies every resource out of raw. Each blob starts at
// DataPos+offset and spans size bytes.
func (t *ResourceTable) Blobs(raw []byte) ([][]byte, error) {
	out := make([][]byte, len(t.Offsets))
	for i := range t.Offsets {
		start := uint64(t.DataPos) + t.Offsets[i]
		end := start + t.Sizes[i]
		if end < start || end > uint64(len(raw)) {
			return nil, formatErrorf(t.offsetsAt+i*t.OffsetWidth, "resource %d [0x%x,0x%x) out of range", i, start, end)
		}
		out[i] = slices.Clone(raw[start:end])
	}
	return out, nil
}

// alignPad is the padding needed to bring pos to a 4-byte boundary.
func alignPad(pos int) int {
	return (4 - pos%4) % 4
}

// ExportResources returns a new raw PSB whose resource data is replaced by
// blobs. The tables are rewritten in place with their original widths and
// everything from DataPos on is replaced. raw is not modified.
func ExportResources(raw []byte, t *ResourceTable, blobs [][]byte, opts Options) ([]byte, error) {
	if len(blobs) != len(t.Offsets) {
		return nil, &CountMismatchError{Table: "resource", Want: len(t.Offsets), Got: len(blobs)}
	}
	if len(blobs) == 0 {
		return slices.Clone(raw), nil
	}
	if t.DataPos > len(raw) ||
		t.offsetsAt+len(t.Offsets)*t.OffsetWidth > t.DataPos ||
		t.sizesAt+len(t.Sizes)*t.SizeWidth > t.DataPos {
		return nil, formatErrorf(t.DataPos, "resource tables overlap resource data")
	}

	total := 0
	for i, b := range blobs {
		total += len(b)
		if opts.AlignResources && i != len(blobs)-1 {
			total += alignPad(t.DataPos + total)
		}
	}

	out := make([]byte, t.DataPos, t.DataPos+total)
	copy(out, raw[:t.DataPos])

	rel := 0
	for i, b := range blobs {
		at := t.offsetsAt + i*t.OffsetWidth
		enc, err := CreateOffset(t.OffsetWidth, uint64(rel))
		if err != nil {
			return nil, err
		}
		copy(out[at:], enc)

		at = t.sizesAt + i*t.SizeWidth
		if enc, err = CreateOffset(t.SizeWidth, uint64(len(b))); err != nil {
			return nil, err
		}
		copy(out[at:], enc)

		out = append(out, b...)
		rel += len(b)
		if opts.AlignResources && i != len(blobs)-1 {
			pad := alignPad(t.DataPos + rel)
			out = append(out, make([]byte, pad)...)
			rel += pad
		}
	}
	return out, nil
}
