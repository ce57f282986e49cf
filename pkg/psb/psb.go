// Package psb reads and rewrites PSB containers, the tagged binary format used
// by the KiriKiri Z / E-Mote scenario files.
//
// A PSB file is edited in place: string and resource counts never change, but
// the string table may grow or shrink, so every header offset that points past
// the edited region is re-patched on export. The raw container may be wrapped
// in an MDF envelope (zlib stream prefixed with the uncompressed length).
package psb

// Container magics must never change.
const (
	// MagicPSB is the raw container signature, "PSB\0".
	MagicPSB = "PSB\x00"

	// MagicMDF is the compressed envelope signature, "MDF\0".
	MagicMDF = "MDF\x00"
)

// Status is the result of classifying a buffer by its leading magic.
type Status uint8

const (
	StatusInvalid Status = iota
	StatusPSB
	StatusMDF
)

func (s Status) String() string {
	switch s {
	case StatusPSB:
		return "psb"
	case StatusMDF:
		return "mdf"
	default:
		return "invalid"
	}
}

// Type is the one-byte discriminant that prefixes every value in the
// bytecode region. Ranged types (IntegerN, StringN, ...) are stored as their
// base; the concrete width is tag - base.
type Type uint8

const (
	TypeNone  Type = 0x00
	TypeNull  Type = 0x01
	TypeFalse Type = 0x02
	TypeTrue  Type = 0x03

	// 0 <= N <= 8
	TypeIntegerN Type = 0x04

	// 1 <= N <= 8; also the base of every size tag.
	TypeIntegerArrayN Type = 0x0C

	// 1 <= N <= 4
	TypeStringN Type = 0x14

	// 1 <= N <= 4
	TypeResourceN Type = 0x18

	TypeFloat0 Type = 0x1D
	TypeFloat  Type = 0x1E
	TypeDouble Type = 0x1F

	TypeList   Type = 0x20
	TypeObject Type = 0x21

	// 1 <= N <= 4
	TypeExtraN Type = 0x21

	// Compiler markers carry no payload.
	TypeCompilerInteger    Type = 0x80
	TypeCompilerString     Type = 0x81
	TypeCompilerResource   Type = 0x82
	TypeCompilerDecimal    Type = 0x83
	TypeCompilerArray      Type = 0x84
	TypeCompilerBool       Type = 0x85
	TypeCompilerBinaryTree Type = 0x86
)

// Header field positions inside the raw container.
const (
	headerSize = 40

	offVersion      = 0x04
	offNameOffsets  = 0x08
	offNameData     = 0x0C
	offStrOffsets   = 0x10
	offStrData      = 0x14
	offResOffsets   = 0x18
	offResSizes     = 0x1C
	offResData      = 0x20
	offEntries      = 0x24
	mdfPrefixLength = 8
)

// DefaultCompressionLevel matches zlib's best compression, which is what the
// engine's own packer emits.
const DefaultCompressionLevel = 9

// CompressMode selects whether exported containers are wrapped in MDF.
type CompressMode uint8

const (
	// CompressAuto re-wraps the output iff the source was wrapped.
	CompressAuto CompressMode = iota
	CompressAlways
	CompressNever
)

// ParseCompressMode accepts "auto", "always" and "never". Anything else
// resolves to CompressAuto.
func ParseCompressMode(s string) CompressMode {
	switch s {
	case "always", "mdf":
		return CompressAlways
	case "never", "raw":
		return CompressNever
	default:
		return CompressAuto
	}
}

func (m CompressMode) String() string {
	switch m {
	case CompressAlways:
		return "always"
	case CompressNever:
		return "never"
	default:
		return "auto"
	}
}

// Options configures export behaviour. The zero value is usable.
type Options struct {
	// ForceMaxOffsetWidth always writes 4-byte string offsets so later edits
	// never need to widen the table.
	ForceMaxOffsetWidth bool

	Compress CompressMode

	// CompressionLevel is the zlib level used when wrapping; 0 selects
	// DefaultCompressionLevel.
	CompressionLevel int

	// AlignResources pads each resource blob except the last so the next one
	// starts on a 4-byte boundary.
	AlignResources bool
}

func (o Options) level() int {
	if o.CompressionLevel == 0 {
		return DefaultCompressionLevel
	}
	return o.CompressionLevel
}

func (o Options) wrap(sourceWrapped bool) bool {
	switch o.Compress {
	case CompressAlways:
		return true
	case CompressNever:
		return false
	default:
		return sourceWrapped
	}
}
