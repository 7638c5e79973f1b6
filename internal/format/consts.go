// Package format houses the low-level layout of the block header that
// prefixes every block in the heap arena. Every read and write is
// bounds-checked, so a scribbled arena decodes to errors rather than panics.
package format

// EndMarker is written immediately after the requested payload of every
// allocated block. A mismatch on free means something wrote past the end
// of the allocation.
//
//	0x00  'D' 'E' 'A' 'D' 'C' '0' 'D' 'E'
var EndMarker = [EndMarkerSize]byte{0x44, 0x45, 0x41, 0x44, 0x43, 0x30, 0x44, 0x45}

const (
	// HeaderSize is the size of the block header in bytes. Payload starts
	// immediately after it.
	HeaderSize = 0x40

	// Alignment is the platform maximum alignment. Every block size and every
	// header offset is a multiple of it.
	Alignment = 16

	// AlignmentMask is the bitmask used for aligning to Alignment (Alignment - 1).
	AlignmentMask = Alignment - 1

	// MinBlockSize is the smallest block that can be split off: a header plus
	// one alignment unit of payload.
	MinBlockSize = HeaderSize + Alignment

	// EndMarkerSize is the width of the canary written after each payload.
	EndMarkerSize = 8

	// DefaultArenaSize is the size of the arena reserved at construction (8 MiB).
	DefaultArenaSize = 8 << 20

	// NilRef terminates the block list. Offset 0 is a valid header so the
	// zero value cannot be used.
	NilRef = ^uint64(0)

	// Block header field offsets.
	BlockSizeOffset      = 0x00 // uint64, header + payload + padding
	BlockStatusOffset    = 0x08 // uint64, status tag
	BlockPrevOffset      = 0x10 // uint64, arena offset of previous header
	BlockNextOffset      = 0x18 // uint64, arena offset of next header
	BlockPayloadOffset   = 0x20 // uint64, arena offset of payload, 0 = unset
	BlockEndMarkerOffset = 0x28 // uint64, arena offset of end marker, 0 when free
	BlockSiteOffset      = 0x30 // uint32, call-site id
	BlockLineOffset      = 0x34 // int32, call-site line
	BlockReservedOffset  = 0x38 // uint64, always zero
)

// Status tags stored at BlockStatusOffset. Any other value decodes as
// StateCorrupt.
const (
	TagFree      uint64 = 0xCAFEFEED
	TagAllocated uint64 = 0xDEADF00D
)
