// Package vm provides the models for segment and page based address
// translation.
package vm

// Fixed geometry of the simulated machine. All sizes are counted in words,
// where one word occupies one memory slot.
const (
	FrameSize          = 512
	NumFrames          = 1024
	PhysicalMemorySize = NumFrames * FrameSize

	SegmentTableSize   = 512
	PageTableSize      = 1024
	PageSize           = 512
	PageTableNumFrames = PageTableSize / FrameSize

	OffsetBits  = 9
	PageBits    = 10
	SegmentBits = 9

	// TLBCapacity is the number of entries in the translation cache.
	TLBCapacity = 4
)

const (
	pageShift    = OffsetBits
	segmentShift = OffsetBits + PageBits

	offsetMask  = (1 << OffsetBits) - 1
	pageMask    = (1 << PageBits) - 1
	segmentMask = (1 << SegmentBits) - 1
	spMask      = (1 << (SegmentBits + PageBits)) - 1

	// SignificantBits is the number of low bits of a virtual address that
	// take part in translation. The rest are ignored.
	SignificantBits = OffsetBits + PageBits + SegmentBits
	significantMask = (1 << SignificantBits) - 1
)

// VAddr is a virtual address.
type VAddr uint32

// PAddr is a physical address, i.e., an index into the physical memory.
type PAddr uint64

// Decode splits a virtual address into its segment index, page index, and
// in-page offset.
func Decode(va VAddr) (s, p, w uint32) {
	w = uint32(va) & offsetMask
	p = (uint32(va) >> pageShift) & pageMask
	s = (uint32(va) >> segmentShift) & segmentMask

	return s, p, w
}

// Compose builds the virtual address that decodes into the given fields.
// Field values are truncated to their widths.
func Compose(s, p, w uint32) VAddr {
	return VAddr((s&segmentMask)<<segmentShift |
		(p&pageMask)<<pageShift |
		w&offsetMask)
}

// Significant returns the bits of va that take part in translation.
func Significant(va VAddr) VAddr {
	return va & significantMask
}

// SP returns the segment and page indices of va concatenated into a single
// key, with the segment index in the high bits.
func SP(va VAddr) uint32 {
	return (uint32(va) >> pageShift) & spMask
}

// Offset returns the in-page offset of va.
func Offset(va VAddr) uint32 {
	return uint32(va) & offsetMask
}

// FrameToPAddr returns the physical address of the first word of a frame.
func FrameToPAddr(frame int) PAddr {
	return PAddr(frame) * FrameSize
}

// PAddrToFrame returns the frame that contains the physical address.
func PAddrToFrame(addr PAddr) int {
	return int(addr / FrameSize)
}
