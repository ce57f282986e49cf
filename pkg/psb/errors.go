package psb

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMagic    = errors.New("invalid PSB magic")
	ErrFormat          = errors.New("malformed PSB data")
	ErrCountMismatch   = errors.New("table count mismatch")
	ErrOffsetTooLarge  = errors.New("offset too large for its byte width")
	ErrCorruptBytecode = errors.New("corrupted or incompatible bytecode region")
	ErrRecoveryFailed  = errors.New("recovery not possible")
)

// FormatError reports malformed input at a byte position of the raw
// (decompressed) container.
type FormatError struct {
	Pos int
	Msg string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("psb: %s at 0x%x", e.Msg, e.Pos)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

func formatErrorf(pos int, format string, args ...any) error {
	return &FormatError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// CountMismatchError is returned when an export is given a different number
// of entries than the table holds. The format cannot add or remove slots.
type CountMismatchError struct {
	Table string
	Want  int
	Got   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("psb: %s count mismatch: want %d, got %d", e.Table, e.Want, e.Got)
}

func (e *CountMismatchError) Unwrap() error {
	return ErrCountMismatch
}
