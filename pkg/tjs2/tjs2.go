// Package tjs2 reads and rewrites the string pool of compiled TJS2 scripts
// (the "TJS2100" bytecode container shipped next to PSB scenarios).
package tjs2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"
)

// Magic is the signature and version tag of a compiled script.
const Magic = "TJS2100\x00"

const (
	lengthPos   = 8
	firstSector = 12

	SectorData = "DATA"
	SectorCode = "TJS2"
)

var (
	ErrInvalidMagic = errors.New("tjs2: invalid magic")
	ErrCorrupt      = errors.New("tjs2: corrupted or incompatible file")
	ErrNoDataSector = errors.New("tjs2: no DATA sector")
)

// Sector is one typed chunk of the file.
type Sector struct {
	Type    string
	Content []byte
}

// File is a parsed script: the DATA sector, then the "other" sectors, then
// the code sectors, in file order.
type File struct {
	Sectors []Sector
}

// Parse decodes a compiled script. The stored file length must match.
func Parse(buf []byte) (*File, error) {
	if len(buf) < firstSector || string(buf[:len(Magic)]) != Magic {
		return nil, ErrInvalidMagic
	}
	if n := binary.LittleEndian.Uint32(buf[lengthPos:]); int64(n) != int64(len(buf)) {
		return nil, fmt.Errorf("%w: stored length %d, file is %d bytes", ErrCorrupt, n, len(buf))
	}

	r := reader{data: buf, pos: firstSector}
	data, err := r.sector()
	if err != nil {
		return nil, err
	}
	if data.Type != SectorData {
		return nil, fmt.Errorf("%w: first sector is %q", ErrNoDataSector, data.Type)
	}
	f := &File{Sectors: []Sector{data}}

	for range 2 {
		count, err := r.u32()
		if err != nil {
			return nil, err
		}
		for range count {
			s, err := r.sector()
			if err != nil {
				return nil, err
			}
			f.Sectors = append(f.Sectors, s)
		}
	}
	return f, nil
}

// Data returns the DATA sector.
func (f *File) Data() (*Sector, error) {
	for i := range f.Sectors {
		if f.Sectors[i].Type == SectorData {
			return &f.Sectors[i], nil
		}
	}
	return nil, ErrNoDataSector
}

// Bytes re-encodes the file: DATA first, then every sector that is neither
// DATA nor TJS2, then the TJS2 sectors.
func (f *File) Bytes() ([]byte, error) {
	data, err := f.Data()
	if err != nil {
		return nil, err
	}
	var other, code []Sector
	for _, s := range f.Sectors {
		switch s.Type {
		case SectorData:
		case SectorCode:
			code = append(code, s)
		default:
			other = append(other, s)
		}
	}

	var out bytes.Buffer
	out.WriteString(Magic)
	out.Write(make([]byte, 4))
	if err := writeSector(&out, *data); err != nil {
		return nil, err
	}
	for _, group := range [][]Sector{other, code} {
		writeU32(&out, uint32(len(group)))
		for _, s := range group {
			if err := writeSector(&out, s); err != nil {
				return nil, err
			}
		}
	}
	b := out.Bytes()
	binary.LittleEndian.PutUint32(b[lengthPos:], uint32(len(b)))
	return b, nil
}

// Strings returns the string pool of the DATA sector.
func (f *File) Strings() ([]string, error) {
	data, err := f.Data()
	if err != nil {
		return nil, err
	}
	start, err := stringPoolPos(data.Content)
	if err != nil {
		return nil, err
	}
	out, _, err := readPool(data.Content, start)
	return out, err
}

// ExportStrings replaces the string pool and returns the re-encoded file.
// The pool may change size; everything around it is kept.
func (f *File) ExportStrings(values []string) ([]byte, error) {
	data, err := f.Data()
	if err != nil {
		return nil, err
	}
	start, err := stringPoolPos(data.Content)
	if err != nil {
		return nil, err
	}
	_, end, err := readPool(data.Content, start)
	if err != nil {
		return nil, err
	}

	var pool bytes.Buffer
	writeU32(&pool, uint32(len(values)))
	for _, s := range values {
		units := utf16.Encode([]rune(s))
		writeU32(&pool, uint32(len(units)))
		for _, u := range units {
			pool.WriteByte(byte(u))
			pool.WriteByte(byte(u >> 8))
		}
		pool.Write(make([]byte, pad4(len(units)*2)))
	}

	content := make([]byte, 0, start+pool.Len()+len(data.Content)-end)
	content = append(content, data.Content[:start]...)
	content = append(content, pool.Bytes()...)
	content = append(content, data.Content[end:]...)
	data.Content = content
	return f.Bytes()
}

// stringPoolPos skips the five numeric constant arrays that precede the
// string pool: bytes, shorts, ints, longs and doubles.
func stringPoolPos(content []byte) (int, error) {
	r := reader{data: content}
	for _, elem := range []int{1, 2, 4, 8, 8} {
		n, err := r.u32()
		if err != nil {
			return 0, err
		}
		if uint64(n)*uint64(elem) > uint64(r.remaining()) {
			return 0, fmt.Errorf("%w: constant array of %d x %d bytes at %d", ErrCorrupt, n, elem, r.pos-4)
		}
		r.pos += int(n) * elem
		r.pos += pad4(r.pos)
	}
	if r.pos > len(content) {
		return 0, fmt.Errorf("%w: string pool past end of DATA", ErrCorrupt)
	}
	return r.pos, nil
}

func readPool(content []byte, pos int) ([]string, int, error) {
	r := reader{data: content, pos: pos}
	count, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	if uint64(count)*4 > uint64(r.remaining()) {
		return nil, 0, fmt.Errorf("%w: %d strings at %d", ErrCorrupt, count, pos)
	}
	out := make([]string, 0, count)
	for range count {
		n, err := r.u32()
		if err != nil {
			return nil, 0, err
		}
		raw, err := r.take(int64(n) * 2)
		if err != nil {
			return nil, 0, err
		}
		units := make([]uint16, n)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
		out = append(out, string(utf16.Decode(units)))
		if _, err := r.take(int64(pad4(len(raw)))); err != nil {
			return nil, 0, err
		}
	}
	return out, r.pos, nil
}

func pad4(n int) int {
	return (4 - n%4) % 4
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) take(n int64) ([]byte, error) {
	if n < 0 || n > int64(r.remaining()) {
		return nil, fmt.Errorf("%w: read of %d bytes at %d", ErrCorrupt, n, r.pos)
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) sector() (Sector, error) {
	typ, err := r.take(4)
	if err != nil {
		return Sector{}, err
	}
	n, err := r.u32()
	if err != nil {
		return Sector{}, err
	}
	content, err := r.take(int64(n))
	if err != nil {
		return Sector{}, err
	}
	return Sector{Type: string(typ), Content: bytes.Clone(content)}, nil
}

func writeU32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func writeSector(w *bytes.Buffer, s Sector) error {
	if len(s.Type) != 4 {
		return fmt.Errorf("%w: sector type %q", ErrCorrupt, s.Type)
	}
	w.WriteString(s.Type)
	writeU32(w, uint32(len(s.Content)))
	w.Write(s.Content)
	return nil
}
