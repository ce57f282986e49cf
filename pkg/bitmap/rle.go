// Package bitmap implements the word-oriented run-length codec used for
// bitmap payloads embedded in PSB resources, plus conversion between the
// raw BGRA words and standard images.
package bitmap

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated     = errors.New("bitmap: truncated stream")
	ErrRepeatTooLong = errors.New("bitmap: repeat count too large")
	ErrGeometry      = errors.New("bitmap: pixel data does not match width")
)

const (
	wordSize = 4

	// HeaderSize is the BMP file+info header skipped by Compress.
	HeaderSize = 0x36

	repeatFlag = 0x80
	countMask  = 0x7F

	minRepeat  = 3
	maxRepeat  = countMask + minRepeat
	maxLiteral = countMask + 1
)

// Decompress expands a run-length stream. A command byte with the high bit
// set repeats the following word (low bits + 3) times; otherwise
// (low bits + 1) literal words follow.
func Decompress(stream []byte) ([]byte, error) {
	out := make([]byte, 0, len(stream)*2)
	for i := 0; i < len(stream); {
		cmd := stream[i]
		i++
		n := int(cmd & countMask)
		if cmd&repeatFlag != 0 {
			if i+wordSize > len(stream) {
				return nil, fmt.Errorf("%w: repeat word at %d", ErrTruncated, i)
			}
			word := stream[i : i+wordSize]
			for range n + minRepeat {
				out = append(out, word...)
			}
			i += wordSize
			continue
		}
		size := (n + 1) * wordSize
		if i+size > len(stream) {
			return nil, fmt.Errorf("%w: literal of %d bytes at %d", ErrTruncated, size, i)
		}
		out = append(out, stream[i:i+size]...)
		i += size
	}
	return out, nil
}

// Compress encodes data as a run-length stream. With stripHeader set, a
// leading BMP header is dropped when data starts with "BM". The input is
// zero-padded to a whole number of words.
func Compress(data []byte, stripHeader bool) ([]byte, error) {
	data = Prepare(data, stripHeader)

	out := make([]byte, 0, len(data)/2+8)
	pos := 0
	for pos < len(data) {
		if n := runLength(data, pos, -1); n >= minRepeat {
			for n >= minRepeat {
				k := min(n, maxRepeat)
				cmd, err := repeatCommand(k - minRepeat)
				if err != nil {
					return nil, err
				}
				out = append(out, cmd)
				out = append(out, data[pos:pos+wordSize]...)
				pos += k * wordSize
				n -= k
			}
			continue
		}

		words := 0
		for p := pos; p < len(data) && runLength(data, p, minRepeat) < minRepeat; p += wordSize {
			words++
		}
		for words > 0 {
			k := min(words, maxLiteral)
			out = append(out, byte(k-1))
			out = append(out, data[pos:pos+k*wordSize]...)
			pos += k * wordSize
			words -= k
		}
	}
	return out, nil
}

// Prepare applies the header strip and word padding that Compress performs,
// so callers can compare a round trip against the same input.
func Prepare(data []byte, stripHeader bool) []byte {
	if stripHeader && len(data) >= HeaderSize && data[0] == 'B' && data[1] == 'M' {
		data = data[HeaderSize:]
	}
	if pad := (wordSize - len(data)%wordSize) % wordSize; pad > 0 {
		padded := make([]byte, len(data), len(data)+pad)
		copy(padded, data)
		data = append(padded, make([]byte, pad)...)
	}
	return data
}

// runLength counts consecutive copies of the word at pos, stopping at limit
// when limit is positive.
func runLength(data []byte, pos, limit int) int {
	n := 0
	for p := pos; p+wordSize <= len(data); p += wordSize {
		if p != pos && !wordEqual(data, pos, p) {
			break
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return n
}

func wordEqual(data []byte, a, b int) bool {
	return data[a] == data[b] && data[a+1] == data[b+1] &&
		data[a+2] == data[b+2] && data[a+3] == data[b+3]
}

func repeatCommand(extra int) (byte, error) {
	if extra < 0 || extra > countMask {
		return 0, fmt.Errorf("%w: %d", ErrRepeatTooLong, extra)
	}
	return byte(extra) | repeatFlag, nil
}
