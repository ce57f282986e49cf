package psb

import "fmt"

// maxWalkDepth bounds List/Object nesting so hostile input cannot exhaust
// the stack.
const maxWalkDepth = 1 << 12

// WalkResult is the outcome of walking one or more tagged values.
type WalkResult struct {
	// IDs holds string-table indices in the order they were encountered,
	// duplicates included.
	IDs []uint32

	// End is the position immediately after the last value consumed.
	End int

	// EmbeddedRefs is set when a resource reference was seen. Such values
	// do not resolve to translatable text.
	EmbeddedRefs bool
}

// Walk consumes exactly one tagged value starting at start.
func Walk(buf []byte, start int) (WalkResult, error) {
	var res WalkResult
	c := newCursor(buf, 0)
	if err := c.seek(start); err != nil {
		return res, err
	}
	if err := walkValue(c, &res, 0); err != nil {
		return res, err
	}
	res.End = c.pos
	return res, nil
}

// WalkRegion walks consecutive values from start until end is reached.
func WalkRegion(buf []byte, start, end int) (WalkResult, error) {
	var res WalkResult
	if end > len(buf) || start > end {
		return res, ErrCorruptBytecode
	}
	c := newCursor(buf[:end], 0)
	if err := c.seek(start); err != nil {
		return res, err
	}
	for c.pos < end {
		if err := walkValue(c, &res, 0); err != nil {
			return res, err
		}
	}
	res.End = c.pos
	return res, nil
}

func walkValue(c *cursor, res *WalkResult, depth int) error {
	if depth > maxWalkDepth {
		return formatErrorf(c.pos, "value nesting deeper than %d", maxWalkDepth)
	}
	pos := c.pos
	tag, err := c.readU8()
	if err != nil {
		return err
	}
	t := Type(tag)

	switch {
	case t <= TypeTrue:
		return nil

	case t == TypeList:
		return walkValue(c, res, depth+1)

	case t == TypeObject:
		// key-name tree first, then the value tree; ids from both count
		if err := walkValue(c, res, depth+1); err != nil {
			return err
		}
		return walkValue(c, res, depth+1)

	case t > TypeStringN && t <= TypeStringN+4:
		id, err := c.readUint(int(t - TypeStringN))
		if err != nil {
			return err
		}
		res.IDs = append(res.IDs, uint32(id))
		return nil

	case t == TypeDouble:
		return c.skip(8)

	case t == TypeFloat0:
		return nil

	case t == TypeFloat:
		return c.skip(4)

	case t >= TypeIntegerN && t <= TypeIntegerN+8:
		return c.skip(int(t - TypeIntegerN))

	case t > TypeIntegerArrayN && t <= TypeIntegerArrayN+8:
		count, err := c.readUint(int(t - TypeIntegerArrayN))
		if err != nil {
			return err
		}
		widthPos := c.pos
		elem, err := c.readSizeTag()
		if err != nil {
			return err
		}
		if elem <= 0 {
			return formatErrorf(widthPos, "integer array element width %d", elem)
		}
		if count > uint64(c.remaining())/uint64(elem) {
			return formatErrorf(pos, "integer array of %d x %d bytes past end", count, elem)
		}
		return c.skip(int(count) * elem)

	case t > TypeResourceN && t <= TypeResourceN+4:
		res.EmbeddedRefs = true
		return c.skip(int(t - TypeResourceN))

	case t > TypeExtraN && t <= TypeExtraN+4:
		return c.skip(int(t - TypeExtraN))

	case t >= TypeCompilerInteger && t <= TypeCompilerBinaryTree:
		return nil
	}

	return &FormatError{Pos: pos, Msg: fmt.Sprintf("invalid PSB value type 0x%02x", tag)}
}

// CallOrder builds the first-use permutation over a table of n strings.
// Entry i is the storage index of the i-th string a reader meets; slots the
// bytecode never references follow in ascending index order. ids outside
// the table are ignored.
func CallOrder(ids []uint32, n int) []int {
	order := make([]int, 0, n)
	seen := make([]bool, n)
	for _, id := range ids {
		if int64(id) >= int64(n) || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, int(id))
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			order = append(order, i)
		}
	}
	return order
}

// Desort projects storage-order values into call order.
func Desort[T any](values []T, order []int) ([]T, error) {
	if len(order) != len(values) {
		return nil, &CountMismatchError{Table: "call order", Want: len(order), Got: len(values)}
	}
	out := make([]T, len(values))
	for i, src := range order {
		out[i] = values[src]
	}
	return out, nil
}

// Sort is the inverse of Desort: it moves call-order values back to their
// storage slots.
func Sort[T any](values []T, order []int) ([]T, error) {
	if len(order) != len(values) {
		return nil, &CountMismatchError{Table: "call order", Want: len(order), Got: len(values)}
	}
	out := make([]T, len(values))
	for i, dst := range order {
		out[dst] = values[i]
	}
	return out, nil
}
