package format

import "fmt"

// State is the decoded status of a block header.
type State uint8

const (
	// StateCorrupt means the status tag is neither free nor allocated.
	StateCorrupt State = iota
	// StateFree marks a block available for reuse.
	StateFree
	// StateAllocated marks a block handed out to a caller.
	StateAllocated
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateAllocated:
		return "allocated"
	default:
		return "corrupt"
	}
}

// StateOf decodes a raw status tag.
func StateOf(tag uint64) State {
	switch tag {
	case TagFree:
		return StateFree
	case TagAllocated:
		return StateAllocated
	default:
		return StateCorrupt
	}
}

// Tag returns the on-arena encoding of s. StateCorrupt encodes as zero.
func (s State) Tag() uint64 {
	switch s {
	case StateFree:
		return TagFree
	case StateAllocated:
		return TagAllocated
	default:
		return 0
	}
}

// Block is a decoded block header.
//
// Block header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    8     Block size including header and padding.
//	0x08    8     Status tag (TagFree / TagAllocated).
//	0x10    8     Previous header offset in the block list, NilRef at head.
//	0x18    8     Next header offset in the block list, NilRef at tail.
//	0x20    8     Payload offset (Offset + HeaderSize), 0 before first use.
//	0x28    8     End marker offset; only meaningful when allocated.
//	0x30    4     Call-site id.
//	0x34    4     Call-site line.
//	0x38    8     Reserved.
type Block struct {
	Offset    uint64 // Arena offset of the header
	Size      uint64
	State     State
	Prev      uint64
	Next      uint64
	Payload   uint64
	EndMarker uint64 // Zero unless State == StateAllocated
	Site      uint32
	Line      int32
}

// PayloadSize returns the requested payload size of an allocated block.
func (blk Block) PayloadSize() uint64 {
	if blk.State != StateAllocated || blk.EndMarker < blk.Payload {
		return 0
	}
	return blk.EndMarker - blk.Payload
}

// ParseBlock decodes the header at off. Only bounds are checked; semantic
// validation is left to the caller.
func ParseBlock(b []byte, off uint64) (Block, error) {
	if off > uint64(len(b)) || uint64(len(b))-off < HeaderSize {
		return Block{}, fmt.Errorf("block at %#x: %w", off, ErrTruncated)
	}
	o := int(off)
	return Block{
		Offset:    off,
		Size:      ReadU64(b, o+BlockSizeOffset),
		State:     StateOf(ReadU64(b, o+BlockStatusOffset)),
		Prev:      ReadU64(b, o+BlockPrevOffset),
		Next:      ReadU64(b, o+BlockNextOffset),
		Payload:   ReadU64(b, o+BlockPayloadOffset),
		EndMarker: ReadU64(b, o+BlockEndMarkerOffset),
		Site:      ReadU32(b, o+BlockSiteOffset),
		Line:      ReadI32(b, o+BlockLineOffset),
	}, nil
}

// Put encodes blk at blk.Offset.
func (blk Block) Put(b []byte) error {
	if blk.Offset > uint64(len(b)) || uint64(len(b))-blk.Offset < HeaderSize {
		return fmt.Errorf("block at %#x: %w", blk.Offset, ErrTruncated)
	}
	if !IsAligned(blk.Offset) {
		return fmt.Errorf("block at %#x: %w", blk.Offset, ErrMisaligned)
	}
	o := int(blk.Offset)
	endMarker := blk.EndMarker
	if blk.State != StateAllocated {
		endMarker = 0
	}
	PutU64(b, o+BlockSizeOffset, blk.Size)
	PutU64(b, o+BlockStatusOffset, blk.State.Tag())
	PutU64(b, o+BlockPrevOffset, blk.Prev)
	PutU64(b, o+BlockNextOffset, blk.Next)
	PutU64(b, o+BlockPayloadOffset, blk.Payload)
	PutU64(b, o+BlockEndMarkerOffset, endMarker)
	PutU32(b, o+BlockSiteOffset, blk.Site)
	PutI32(b, o+BlockLineOffset, blk.Line)
	PutU64(b, o+BlockReservedOffset, 0)
	return nil
}

// WriteEndMarker copies EndMarker to b[off:].
func WriteEndMarker(b []byte, off uint64) error {
	if off > uint64(len(b)) || uint64(len(b))-off < EndMarkerSize {
		return fmt.Errorf("end marker at %#x: %w", off, ErrTruncated)
	}
	copy(b[off:off+EndMarkerSize], EndMarker[:])
	return nil
}

// EndMarkerValid reports whether b[off:] still holds EndMarker. An out of
// range offset is reported as invalid.
func EndMarkerValid(b []byte, off uint64) bool {
	if off > uint64(len(b)) || uint64(len(b))-off < EndMarkerSize {
		return false
	}
	return [EndMarkerSize]byte(b[off:off+EndMarkerSize]) == EndMarker
}
