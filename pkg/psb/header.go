package psb

import "encoding/binary"

// Header is the fixed 40-byte record at the start of a raw PSB. Every field
// after Version is an absolute byte offset into the decompressed container.
type Header struct {
	Magic   [4]byte `json:"-"`
	Version uint32  `json:"version"`

	NameOffsetsPos uint32 `json:"name_offsets_pos"`
	NameDataPos    uint32 `json:"name_data_pos"`
	StrOffsetsPos  uint32 `json:"str_offsets_pos"`
	StrDataPos     uint32 `json:"str_data_pos"`

	// ResOffsetsPos and ResSizesPos locate the two parallel resource tables;
	// ResDataPos is where the resource blobs begin.
	ResOffsetsPos uint32 `json:"res_offsets_pos"`
	ResSizesPos   uint32 `json:"res_sizes_pos"`
	ResDataPos    uint32 `json:"res_data_pos"`

	// EntriesPos is the start of the bytecode (root value tree).
	EntriesPos uint32 `json:"entries_pos"`
}

// HeaderSize is the encoded size of Header.
const HeaderSize = headerSize

func decodeHeader(b []byte) (Header, bool) {
	if len(b) < headerSize {
		return Header{}, false
	}
	le := binary.LittleEndian
	var h Header
	copy(h.Magic[:], b[:4])
	h.Version = le.Uint32(b[offVersion:])
	h.NameOffsetsPos = le.Uint32(b[offNameOffsets:])
	h.NameDataPos = le.Uint32(b[offNameData:])
	h.StrOffsetsPos = le.Uint32(b[offStrOffsets:])
	h.StrDataPos = le.Uint32(b[offStrData:])
	h.ResOffsetsPos = le.Uint32(b[offResOffsets:])
	h.ResSizesPos = le.Uint32(b[offResSizes:])
	h.ResDataPos = le.Uint32(b[offResData:])
	h.EntriesPos = le.Uint32(b[offEntries:])
	return h, true
}

// ReadHeader decodes and validates the header of a raw PSB.
func ReadHeader(raw []byte) (Header, error) {
	if Classify(raw) != StatusPSB {
		return Header{}, ErrInvalidMagic
	}
	h, ok := decodeHeader(raw)
	if !ok {
		return Header{}, formatErrorf(len(raw), "truncated header")
	}
	size := uint64(len(raw))
	for _, f := range h.offsets() {
		if uint64(*f) > size {
			return Header{}, formatErrorf(headerFieldPos(&h, f), "header offset 0x%x beyond container size 0x%x", *f, size)
		}
	}
	return h, nil
}

// Bytes encodes the header in its on-disk layout.
func (h *Header) Bytes() []byte {
	b := make([]byte, headerSize)
	h.put(b)
	return b
}

func (h *Header) put(b []byte) {
	le := binary.LittleEndian
	copy(b[:4], h.Magic[:])
	le.PutUint32(b[offVersion:], h.Version)
	le.PutUint32(b[offNameOffsets:], h.NameOffsetsPos)
	le.PutUint32(b[offNameData:], h.NameDataPos)
	le.PutUint32(b[offStrOffsets:], h.StrOffsetsPos)
	le.PutUint32(b[offStrData:], h.StrDataPos)
	le.PutUint32(b[offResOffsets:], h.ResOffsetsPos)
	le.PutUint32(b[offResSizes:], h.ResSizesPos)
	le.PutUint32(b[offResData:], h.ResDataPos)
	le.PutUint32(b[offEntries:], h.EntriesPos)
}

// offsets lists every region-offset field in layout order.
func (h *Header) offsets() []*uint32 {
	return []*uint32{
		&h.NameOffsetsPos,
		&h.NameDataPos,
		&h.StrOffsetsPos,
		&h.StrDataPos,
		&h.ResOffsetsPos,
		&h.ResSizesPos,
		&h.ResDataPos,
		&h.EntriesPos,
	}
}

func headerFieldPos(h *Header, f *uint32) int {
	for i, p := range h.offsets() {
		if p == f {
			return offNameOffsets + 4*i
		}
	}
	return 0
}

// BytecodeRange returns the start and length of the bytecode region. It runs
// from EntriesPos up to the string offset table.
func (h *Header) BytecodeRange(size int) (start, length int, err error) {
	start = int(h.EntriesPos)
	end := int(h.StrOffsetsPos)
	if start < headerSize || end < start || end > size {
		return 0, 0, ErrCorruptBytecode
	}
	return start, end - start, nil
}

// Patched returns a copy of h with the string-region growth applied.
// Fields at or after the string offset table shift by tableDelta and fields
// at or after the string data shift by blobDelta. Both comparisons use the
// pre-patch boundaries. The boundary fields themselves only move when a
// preceding region changed size.
func (h Header) Patched(tableDelta, blobDelta int64) (Header, error) {
	strOff := h.StrOffsetsPos
	strData := h.StrDataPos

	out := h
	for _, f := range out.offsets() {
		orig := int64(*f)
		v := orig
		if f != &out.StrOffsetsPos && orig >= int64(strOff) {
			v += tableDelta
		}
		if f != &out.StrOffsetsPos && f != &out.StrDataPos && orig >= int64(strData) {
			v += blobDelta
		}
		if v < 0 || v > int64(^uint32(0)) {
			return Header{}, formatErrorf(headerFieldPos(&out, f), "patched offset %d out of range", v)
		}
		*f = uint32(v)
	}
	return out, nil
}
