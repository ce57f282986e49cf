package psb

import (
	"bytes"
	"fmt"
	"slices"
)

// emptyTable is an encoded empty array: 1-byte count of zero, 1-byte entries.
var emptyTable = []byte{0x0D, 0x00, 0x0D}

// TryRecovery repairs a container whose resource header fields were zeroed
// or clobbered by a broken packer. It looks for two empty tables directly
// after the string data and points the resource fields at them. If the
// marker is absent the existing fields must already decode as tables,
// otherwise ErrRecoveryFailed is returned. buf may be MDF-wrapped; the
// result keeps the same envelope.
func TryRecovery(buf []byte, level int) ([]byte, error) {
	raw, wrapped, err := Raw(buf)
	if err != nil {
		return nil, err
	}
	h, ok := decodeHeader(raw)
	if !ok {
		return nil, formatErrorf(len(raw), "truncated header")
	}

	end, err := stringDataEnd(raw, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecoveryFailed, err)
	}

	out := slices.Clone(raw)
	if hasAt(out, emptyTable, end) && hasAt(out, emptyTable, end+len(emptyTable)) {
		h.ResOffsetsPos = uint32(end)
		h.ResSizesPos = uint32(end + 3)
		h.ResDataPos = uint32(end + 6)
		h.put(out[:headerSize])
	} else if !plausibleTable(out, h.ResOffsetsPos) || !plausibleTable(out, h.ResSizesPos) {
		return nil, fmt.Errorf("%w: container carries resource data", ErrRecoveryFailed)
	}

	if wrapped {
		return Wrap(out, level)
	}
	return out, nil
}

// stringDataEnd returns the position just past the terminator of the
// furthest string in the blob.
func stringDataEnd(raw []byte, h Header) (int, error) {
	t, err := ReadStringTable(raw, h)
	if err != nil {
		return 0, err
	}
	if len(t.Strings) == 0 {
		return 0, formatErrorf(int(h.StrOffsetsPos), "empty string table")
	}
	return int(h.StrDataPos) + t.blobLen, nil
}

func hasAt(data, want []byte, pos int) bool {
	if pos < 0 || pos+len(want) > len(data) {
		return false
	}
	return bytes.Equal(data[pos:pos+len(want)], want)
}

func plausibleTable(raw []byte, pos uint32) bool {
	if pos < headerSize || int(pos) >= len(raw) {
		return false
	}
	_, err := DecodeSizeTag(raw[pos])
	return err == nil
}
