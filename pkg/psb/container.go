package psb

import (
	"fmt"
)

// Container is a parsed PSB ready for string and resource round trips.
// It never mutates the buffer it was loaded from; every export builds a new
// one. A Container holds no state shared with other containers.
type Container struct {
	raw     []byte
	wrapped bool
	opts    Options

	header  Header
	strings *StringTable
	order   []int

	bytecodeStart int
	bytecodeLen   int
	embedded      bool
	referenced    int
}

// Load parses buf (raw PSB or MDF) and builds the call order mapping.
func Load(buf []byte, opts Options) (*Container, error) {
	raw, wrapped, err := Raw(buf)
	if err != nil {
		return nil, err
	}
	h, err := ReadHeader(raw)
	if err != nil {
		return nil, err
	}
	start, length, err := h.BytecodeRange(len(raw))
	if err != nil {
		return nil, err
	}
	st, err := ReadStringTable(raw, h)
	if err != nil {
		return nil, fmt.Errorf("read string table: %w", err)
	}
	walk, err := WalkRegion(raw, start, start+length)
	if err != nil {
		return nil, fmt.Errorf("walk bytecode: %w", err)
	}

	return &Container{
		raw:           raw,
		wrapped:       wrapped,
		opts:          opts,
		header:        h,
		strings:       st,
		order:         CallOrder(walk.IDs, len(st.Strings)),
		bytecodeStart: start,
		bytecodeLen:   length,
		embedded:      walk.EmbeddedRefs,
		referenced:    countReferenced(walk.IDs, len(st.Strings)),
	}, nil
}

func countReferenced(ids []uint32, n int) int {
	seen := make(map[uint32]struct{}, n)
	for _, id := range ids {
		if int64(id) < int64(n) {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// Header returns a copy of the parsed header.
func (c *Container) Header() Header { return c.header }

// Wrapped reports whether the source was MDF-wrapped.
func (c *Container) Wrapped() bool { return c.wrapped }

// Raw returns the decompressed source bytes. Callers must not modify them.
func (c *Container) Raw() []byte { return c.raw }

// WithOptions returns a copy of c that exports with opts. The parsed
// tables are shared.
func (c *Container) WithOptions(opts Options) *Container {
	cp := *c
	cp.opts = opts
	return &cp
}

// HasEmbeddedReferences reports whether the bytecode references resources.
func (c *Container) HasEmbeddedReferences() bool { return c.embedded }

// CallOrder returns a copy of the call order mapping.
func (c *Container) CallOrder() []int {
	out := make([]int, len(c.order))
	copy(out, c.order)
	return out
}

// StorageStrings returns the strings in table order.
func (c *Container) StorageStrings() []string {
	out := make([]string, len(c.strings.Strings))
	copy(out, c.strings.Strings)
	return out
}

// Strings returns the strings in call (reading) order.
func (c *Container) Strings() []string {
	out, _ := Desort(c.strings.Strings, c.order)
	return out
}

// ExportStrings re-packs the container with values given in call order and
// applies the envelope policy.
func (c *Container) ExportStrings(values []string) ([]byte, error) {
	if len(values) != len(c.order) {
		return nil, &CountMismatchError{Table: "string", Want: len(c.order), Got: len(values)}
	}
	storage, err := Sort(values, c.order)
	if err != nil {
		return nil, err
	}
	out, err := ExportStrings(c.raw, c.header, c.strings, storage, c.opts)
	if err != nil {
		return nil, err
	}
	return c.finish(out)
}

// Resources returns the resource table and copies of all blobs.
func (c *Container) Resources() (*ResourceTable, [][]byte, error) {
	t, err := ReadResourceTable(c.raw, c.header)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := t.Blobs(c.raw)
	if err != nil {
		return nil, nil, err
	}
	return t, blobs, nil
}

// ExportResources re-packs the container with replacement resource blobs.
func (c *Container) ExportResources(blobs [][]byte) ([]byte, error) {
	t, err := ReadResourceTable(c.raw, c.header)
	if err != nil {
		return nil, err
	}
	out, err := ExportResources(c.raw, t, blobs, c.opts)
	if err != nil {
		return nil, err
	}
	return c.finish(out)
}

func (c *Container) finish(raw []byte) ([]byte, error) {
	if !c.opts.wrap(c.wrapped) {
		return raw, nil
	}
	return Wrap(raw, c.opts.level())
}

// Summary describes the layout of a container.
type Summary struct {
	Status        string `json:"status"`
	Version       uint32 `json:"version"`
	Size          int    `json:"size"`
	BytecodeStart int    `json:"bytecode_start"`
	BytecodeLen   int    `json:"bytecode_len"`
	StringCount   int    `json:"string_count"`
	Referenced    int    `json:"referenced_strings"`
	InvalidUTF8   int    `json:"invalid_utf8"`
	StrTableLen   int    `json:"string_table_len"`
	StrBlobLen    int    `json:"string_blob_len"`
	ResourceCount int    `json:"resource_count"`
	Embedded      bool   `json:"embedded_references"`
	Header        Header `json:"header"`
}

// Summarize reports the container layout. Resource table errors are not
// fatal here; the count is -1 when the tables cannot be read.
func (c *Container) Summarize() Summary {
	s := Summary{
		Status:        StatusPSB.String(),
		Version:       c.header.Version,
		Size:          len(c.raw),
		BytecodeStart: c.bytecodeStart,
		BytecodeLen:   c.bytecodeLen,
		StringCount:   len(c.strings.Strings),
		StrTableLen:   c.strings.tableLen,
		StrBlobLen:    c.strings.blobLen,
		Referenced:    c.referenced,
		Embedded:      c.embedded,
		Header:        c.header,
		ResourceCount: -1,
	}
	if c.wrapped {
		s.Status = StatusMDF.String()
	}
	for _, str := range c.strings.Strings {
		if !validString(str) {
			s.InvalidUTF8++
		}
	}
	if t, err := ReadResourceTable(c.raw, c.header); err == nil {
		s.ResourceCount = t.Len()
	}
	return s
}
