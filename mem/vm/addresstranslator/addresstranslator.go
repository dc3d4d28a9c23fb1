// Package addresstranslator walks the segment table and the page tables to
// translate virtual addresses into physical addresses.
package addresstranslator

import (
	"fmt"
	"log"

	"github.com/sarchlab/segmmu/mem/physmem"
	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/frame"
	"github.com/sarchlab/segmmu/sim"
)

// Level identifies the table that a walk step reads.
type Level int

// The two levels of the walk.
const (
	SegmentLevel Level = iota
	PageLevel
)

func (l Level) String() string {
	if l == SegmentLevel {
		return "segment"
	}

	return "page"
}

// HookPosFrameAllocated is triggered after a write allocates a page table or a
// page. The hook item is a FrameAllocation.
var HookPosFrameAllocated = &sim.HookPos{Name: "FrameAllocated"}

// A FrameAllocation describes a lazy allocation performed during a write.
type FrameAllocation struct {
	// Level is SegmentLevel when a page table is allocated for a segment and
	// PageLevel when a page is allocated for a page table entry.
	Level     Level
	Entry     vm.PAddr
	Frame     int
	NumFrames int
	Base      vm.PAddr
}

// Comp is an AddressTranslator that owns the physical memory and the frame
// allocator.
type Comp struct {
	sim.ComponentBase

	storage *physmem.Storage
	frames  frame.Allocator
}

// Storage returns the physical memory that the translator walks.
func (c *Comp) Storage() *physmem.Storage {
	return c.storage
}

// FrameAllocator returns the allocator that tracks the used frames.
func (c *Comp) FrameAllocator() frame.Allocator {
	return c.frames
}

// Translate returns the physical address of va. Writes may allocate the page
// table and the page on the way. Reads never change any state.
func (c *Comp) Translate(va vm.VAddr, access vm.Access) (vm.PAddr, error) {
	pageBase, err := c.Walk(va, access)
	if err != nil {
		return 0, err
	}

	return pageBase + vm.PAddr(vm.Offset(va)), nil
}

// Walk returns the base address of the page that contains va.
func (c *Comp) Walk(va vm.VAddr, access vm.Access) (vm.PAddr, error) {
	s, p, _ := vm.Decode(va)

	tableBase, err := c.resolve(SegmentLevel, vm.PAddr(s), access)
	if err != nil {
		return 0, fmt.Errorf("segment %d: %w", s, err)
	}

	pageBase, err := c.resolve(PageLevel, tableBase+vm.PAddr(p), access)
	if err != nil {
		return 0, fmt.Errorf("segment %d page %d: %w", s, p, err)
	}

	return pageBase, nil
}

func (c *Comp) resolve(
	level Level,
	entry vm.PAddr,
	access vm.Access,
) (vm.PAddr, error) {
	slot := c.mustGet(entry)

	switch slot.Kind {
	case vm.Faulted:
		return 0, vm.ErrFault
	case vm.Mapped:
		return slot.Base, nil
	}

	if access == vm.Read {
		return 0, vm.ErrAccess
	}

	return c.allocate(level, entry)
}

func (c *Comp) allocate(level Level, entry vm.PAddr) (vm.PAddr, error) {
	var (
		frameID int
		found   bool
	)

	numFrames := 1
	if level == SegmentLevel {
		numFrames = vm.PageTableNumFrames
		frameID, found = c.frames.FindPair()
	} else {
		frameID, found = c.frames.FindSingle()
	}

	if !found {
		return 0, vm.ErrResourceExhausted
	}

	c.frames.Reserve(frameID, numFrames)

	base := vm.FrameToPAddr(frameID)
	c.mustClear(base, uint64(numFrames*vm.FrameSize))
	c.mustSet(entry, vm.MappedSlot(base))

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosFrameAllocated,
		Item: FrameAllocation{
			Level:     level,
			Entry:     entry,
			Frame:     frameID,
			NumFrames: numFrames,
			Base:      base,
		},
	})

	return base, nil
}

// SegmentEntry returns the segment table entry of segment s.
func (c *Comp) SegmentEntry(s uint32) vm.Slot {
	return c.mustGet(vm.PAddr(s))
}

// SetSegmentEntry overwrites the segment table entry of segment s. A mapped
// entry marks the two frames of the page table as used.
func (c *Comp) SetSegmentEntry(s uint32, slot vm.Slot) error {
	if s >= vm.SegmentTableSize {
		return fmt.Errorf("segment %d out of range", s)
	}

	if slot.IsMapped() {
		err := c.reserveRegion(slot.Base, vm.PageTableSize)
		if err != nil {
			return fmt.Errorf("page table of segment %d: %w", s, err)
		}
	}

	c.mustSet(vm.PAddr(s), slot)

	return nil
}

// SetPageEntry overwrites entry p of the page table of segment s. A mapped
// entry marks the frame of the page as used. The segment must already be
// mapped.
func (c *Comp) SetPageEntry(s, p uint32, slot vm.Slot) error {
	if p >= vm.PageTableSize {
		return fmt.Errorf("page %d out of range", p)
	}

	segment := c.SegmentEntry(s)
	if !segment.IsMapped() {
		return fmt.Errorf("segment %d is %s", s, segment.Kind)
	}

	if slot.IsMapped() {
		err := c.reserveRegion(slot.Base, vm.PageSize)
		if err != nil {
			return fmt.Errorf("page %d of segment %d: %w", p, s, err)
		}
	}

	c.mustSet(segment.Base+vm.PAddr(p), slot)

	return nil
}

func (c *Comp) reserveRegion(base vm.PAddr, size uint64) error {
	if uint64(base)+size > c.storage.Capacity() {
		return physmem.ErrOutOfRange
	}

	first := vm.PAddrToFrame(base)
	numFrames := int(size / vm.FrameSize)
	c.frames.Reserve(first, numFrames)

	return nil
}

func (c *Comp) mustGet(addr vm.PAddr) vm.Slot {
	slot, err := c.storage.Get(addr)
	if err != nil {
		log.Panicf("reading slot %d: %v", addr, err)
	}

	return slot
}

func (c *Comp) mustSet(addr vm.PAddr, slot vm.Slot) {
	err := c.storage.Set(addr, slot)
	if err != nil {
		log.Panicf("writing slot %d: %v", addr, err)
	}
}

func (c *Comp) mustClear(addr vm.PAddr, n uint64) {
	err := c.storage.Clear(addr, n)
	if err != nil {
		log.Panicf("clearing slots %d-%d: %v", addr, uint64(addr)+n, err)
	}
}
