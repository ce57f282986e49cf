package psb

import (
	"encoding/binary"
	"fmt"
)

// maxWidth is the widest integer the size-tag convention can declare.
const maxWidth = 8

// MinimalWidth returns the smallest byte count able to hold value.
// Zero needs no bytes at all and maps to width 0.
func MinimalWidth(value uint64) int {
	n := 0
	for value > 0 {
		n++
		value >>= 8
	}
	return n
}

// EncodeSizeTag returns the tag byte that declares a field of the given
// width. Tags are offsets from TypeIntegerArrayN.
func EncodeSizeTag(width int) (byte, error) {
	if width < 0 || width > maxWidth {
		return 0, fmt.Errorf("%w: size tag width %d outside 0..%d", ErrFormat, width, maxWidth)
	}
	return byte(TypeIntegerArrayN) + byte(width), nil
}

// DecodeSizeTag returns the width declared by a size tag byte.
func DecodeSizeTag(tag byte) (int, error) {
	width := int(tag) - int(TypeIntegerArrayN)
	if width < 0 || width > maxWidth {
		return 0, fmt.Errorf("size tag 0x%02x outside 0..%d", tag, maxWidth)
	}
	return width, nil
}

// ReadUint decodes a little-endian unsigned integer from the first width
// bytes of b. Missing high bytes read as zero.
func ReadUint(b []byte, width int) uint64 {
	if width > len(b) {
		width = len(b)
	}
	if width == 8 {
		return binary.LittleEndian.Uint64(b)
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// PutUint writes value into the first width bytes of b, little-endian.
// The caller guarantees the value fits.
func PutUint(b []byte, value uint64, width int) {
	for i := 0; i < width; i++ {
		b[i] = byte(value)
		value >>= 8
	}
}

// CreateOffset encodes value in exactly width bytes. A value that does not
// fit is rejected instead of truncated.
func CreateOffset(width int, value uint64) ([]byte, error) {
	if width < 0 || width > maxWidth {
		return nil, fmt.Errorf("%w: width %d outside 0..%d", ErrFormat, width, maxWidth)
	}
	if width < maxWidth && value>>(uint(width)*8) != 0 {
		return nil, fmt.Errorf("%w: %d does not fit in %d bytes", ErrOffsetTooLarge, value, width)
	}
	b := make([]byte, width)
	PutUint(b, value, width)
	return b, nil
}
