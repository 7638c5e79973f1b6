package format

import "math"

// AlignUp returns n aligned up to the next Alignment boundary.
//
// Example:
//
//	AlignUp(1)  = 16
//	AlignUp(16) = 16
//	AlignUp(17) = 32
func AlignUp(n uint64) uint64 {
	return (n + AlignmentMask) &^ AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n uint64) bool {
	return n&AlignmentMask == 0
}

// Padding returns the bytes appended after a payload of n bytes so the block
// ends on an Alignment boundary with room for the end marker.
//
// The arithmetic wraps like size_t does: the overflow check in BlockSizeFor
// relies on padding being computed from the wrapped sum.
//
// Example:
//
//	Padding(0)    = 16 // 64+0 is aligned, a full unit keeps room for the marker
//	Padding(8000) = 16
//	Padding(1)    = 15
//	Padding(10)   = 22 // natural remainder 6 < 8, one more unit added
func Padding(n uint64) uint64 {
	padding := Alignment - ((HeaderSize + n) % Alignment)
	if padding < EndMarkerSize {
		padding += Alignment
	}
	return padding
}

// BlockSizeFor returns the total block size needed for a payload of n bytes.
// ok is false when the size cannot be represented.
func BlockSizeFor(n uint64) (size uint64, ok bool) {
	padding := Padding(n)
	if n > math.MaxUint64-padding-HeaderSize {
		return 0, false
	}
	return HeaderSize + n + padding, true
}
