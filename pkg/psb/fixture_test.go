package psb

import "testing"

// fixture describes a synthetic container. entries are the distinct strings
// written to the blob; slots maps each table slot to an entry (nil means
// one slot per entry).
type fixture struct {
	code    []byte
	entries []string
	slots   []int
	blobs   [][]byte

	// trailer is appended after the string blob when there are no blobs.
	trailer []byte
}

func writeArray(t *testing.T, w *writer, values []uint64, minWidth int) {
	t.Helper()
	var maxV uint64
	for _, v := range values {
		maxV = max(maxV, v)
	}
	countWidth := max(minWidth, MinimalWidth(uint64(len(values))))
	width := max(minWidth, MinimalWidth(maxV))
	if err := w.writeSizeTag(countWidth); err != nil {
		t.Fatalf("count tag: %v", err)
	}
	if err := w.writeUint(uint64(len(values)), countWidth); err != nil {
		t.Fatalf("count: %v", err)
	}
	if err := w.writeSizeTag(width); err != nil {
		t.Fatalf("width tag: %v", err)
	}
	for _, v := range values {
		if err := w.writeUint(v, width); err != nil {
			t.Fatalf("entry: %v", err)
		}
	}
}

// build encodes the fixture: header, bytecode, string table, string data,
// then the resource tables and data.
func (f fixture) build(t *testing.T) []byte {
	t.Helper()

	slots := f.slots
	if slots == nil {
		slots = make([]int, len(f.entries))
		for i := range slots {
			slots[i] = i
		}
	}

	var blob writer
	entryOff := make([]uint64, len(f.entries))
	for i, s := range f.entries {
		entryOff[i] = uint64(blob.len())
		blob.writeCString(s)
	}
	offsets := make([]uint64, len(slots))
	for i, e := range slots {
		offsets[i] = entryOff[e]
	}

	w := writer{buf: make([]byte, headerSize)}
	h := Header{Version: 3, NameOffsetsPos: headerSize, NameDataPos: headerSize}
	copy(h.Magic[:], MagicPSB)

	h.EntriesPos = uint32(w.len())
	w.write(f.code)

	h.StrOffsetsPos = uint32(w.len())
	writeArray(t, &w, offsets, 0)

	h.StrDataPos = uint32(w.len())
	w.write(blob.bytes())

	if len(f.blobs) > 0 {
		rel := make([]uint64, len(f.blobs))
		sizes := make([]uint64, len(f.blobs))
		var at uint64
		for i, b := range f.blobs {
			rel[i] = at
			sizes[i] = uint64(len(b))
			at += uint64(len(b))
		}
		h.ResOffsetsPos = uint32(w.len())
		writeArray(t, &w, rel, 1)
		h.ResSizesPos = uint32(w.len())
		writeArray(t, &w, sizes, 1)
		h.ResDataPos = uint32(w.len())
		for _, b := range f.blobs {
			w.write(b)
		}
	} else {
		w.write(f.trailer)
	}

	out := w.bytes()
	h.put(out[:headerSize])
	return out
}

// strRef encodes a one-byte string reference.
func strRef(id byte) []byte {
	return []byte{byte(TypeStringN) + 1, id}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
