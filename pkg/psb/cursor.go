package psb

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"
)

// cursor is a bounds-checked forward reader over an in-memory container.
// Every failed read reports the position it was attempted at.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte, pos int) *cursor {
	return &cursor{data: data, pos: pos}
}

func (c *cursor) seek(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return formatErrorf(pos, "seek out of range (size %d)", len(c.data))
	}
	c.pos = pos
	return nil
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) skip(n int) error {
	if n < 0 || n > c.remaining() {
		return formatErrorf(c.pos, "skip of %d bytes past end", n)
	}
	c.pos += n
	return nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, formatErrorf(c.pos, "read of %d bytes past end", n)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readU8() (uint8, error) {
	if c.remaining() < 1 {
		return 0, formatErrorf(c.pos, "unexpected end of data")
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readUint reads a little-endian unsigned integer of width 0..8 bytes.
func (c *cursor) readUint(width int) (uint64, error) {
	if width < 0 || width > 8 {
		return 0, formatErrorf(c.pos, "integer width %d out of range", width)
	}
	b, err := c.readN(width)
	if err != nil {
		return 0, err
	}
	return ReadUint(b, width), nil
}

// readSizeTag reads a size tag byte and returns the width it declares.
func (c *cursor) readSizeTag() (int, error) {
	pos := c.pos
	tag, err := c.readU8()
	if err != nil {
		return 0, err
	}
	w, err := DecodeSizeTag(tag)
	if err != nil {
		return 0, formatErrorf(pos, "%v", err)
	}
	return w, nil
}

// readCString reads a NUL-terminated string. Invalid UTF-8 sequences are
// kept byte-for-byte so an unchanged export reproduces the input.
func (c *cursor) readCString() (string, error) {
	rest := c.data[c.pos:]
	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return "", formatErrorf(c.pos, "unterminated string")
	}
	s := string(rest[:n])
	c.pos += n + 1
	return s, nil
}

// validString reports whether s decodes as UTF-8.
func validString(s string) bool {
	return utf8.ValidString(s)
}

// writer is the append-only counterpart of cursor.
type writer struct {
	buf []byte
}

func (w *writer) len() int {
	return len(w.buf)
}

func (w *writer) bytes() []byte {
	return w.buf
}

func (w *writer) writeU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) writeU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) write(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *writer) writeCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// writeUint appends value using exactly width bytes.
func (w *writer) writeUint(value uint64, width int) error {
	b, err := CreateOffset(width, value)
	if err != nil {
		return err
	}
	w.buf = append(w.buf, b...)
	return nil
}

func (w *writer) writeSizeTag(width int) error {
	tag, err := EncodeSizeTag(width)
	if err != nil {
		return err
	}
	w.buf = append(w.buf, tag)
	return nil
}
