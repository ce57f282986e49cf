package psb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Classify reports which kind of container buf holds.
func Classify(buf []byte) Status {
	if len(buf) < 4 {
		return StatusInvalid
	}
	switch string(buf[:4]) {
	case MagicPSB:
		return StatusPSB
	case MagicMDF:
		return StatusMDF
	default:
		return StatusInvalid
	}
}

// Unwrap strips the MDF envelope and returns the raw PSB bytes. Inflation
// stops at the stored uncompressed length; a stream that decodes past it is
// rejected.
func Unwrap(buf []byte) ([]byte, error) {
	if Classify(buf) != StatusMDF {
		return nil, ErrInvalidMagic
	}
	if len(buf) < mdfPrefixLength {
		return nil, formatErrorf(len(buf), "truncated MDF header")
	}
	size := binary.LittleEndian.Uint32(buf[4:mdfPrefixLength])

	zr, err := zlib.NewReader(bytes.NewReader(buf[mdfPrefixLength:]))
	if err != nil {
		return nil, fmt.Errorf("psb: open MDF stream: %w", err)
	}
	defer func() { _ = zr.Close() }()

	out := bytes.NewBuffer(make([]byte, 0, min(int(size), 64<<20)))
	if _, err := io.Copy(out, io.LimitReader(zr, int64(size)+1)); err != nil {
		return nil, fmt.Errorf("psb: inflate MDF stream: %w", err)
	}
	if out.Len() > int(size) {
		return nil, formatErrorf(4, "MDF payload exceeds stored length %d", size)
	}
	return out.Bytes(), nil
}

// Wrap compresses a raw PSB into an MDF envelope.
func Wrap(raw []byte, level int) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(raw)/2 + mdfPrefixLength)
	out.WriteString(MagicMDF)

	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(raw)))
	out.Write(n[:])

	zw, err := zlib.NewWriterLevel(&out, level)
	if err != nil {
		return nil, fmt.Errorf("psb: zlib level %d: %w", level, err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Raw returns the raw PSB bytes of buf, unwrapping MDF if needed, and
// whether it was wrapped.
func Raw(buf []byte) ([]byte, bool, error) {
	switch Classify(buf) {
	case StatusPSB:
		return buf, false, nil
	case StatusMDF:
		raw, err := Unwrap(buf)
		if err != nil {
			return nil, true, err
		}
		if Classify(raw) != StatusPSB {
			return nil, true, fmt.Errorf("%w: MDF payload is not a PSB", ErrInvalidMagic)
		}
		return raw, true, nil
	default:
		return nil, false, ErrInvalidMagic
	}
}
