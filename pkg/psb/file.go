package psb

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is a container file mapped read-only into memory.
type File struct {
	Data    []byte
	mmapped bool
}

// Open maps a container file read-only. If mmap is unavailable it falls back
// to reading the whole file. The returned File must be closed; slices of
// Data must not be retained after Close.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < HeaderSize || size64 > int64(int(^uint(0)>>1)) {
		return nil, formatErrorf(0, "file size %d not a container", size64)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Data: data, mmapped: true}, nil
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}

// Close releases the mapping.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.mmapped = false
	return err
}

// LoadFile opens path and parses it. The container keeps its own copy of
// the raw bytes, so the mapping is released before returning.
func LoadFile(path string, opts Options) (*Container, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf := f.Data
	if Classify(buf) == StatusPSB {
		buf = append([]byte(nil), buf...)
	}
	return Load(buf, opts)
}
