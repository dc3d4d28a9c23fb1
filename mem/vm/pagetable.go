package vm

import (
	"fmt"
	"log"
)

// SlotKind tells how a memory slot takes part in translation.
type SlotKind uint8

// The kinds of slots.
const (
	// Unmapped slots have not been materialized. A write through an unmapped
	// slot allocates the next level structure, a read is an access error.
	Unmapped SlotKind = iota

	// Faulted slots are explicitly invalid. Every access through them is a
	// page fault and they are never allocated.
	Faulted

	// Mapped slots carry the physical base address of the next level
	// structure.
	Mapped
)

func (k SlotKind) String() string {
	switch k {
	case Unmapped:
		return "unmapped"
	case Faulted:
		return "faulted"
	case Mapped:
		return "mapped"
	default:
		return fmt.Sprintf("SlotKind(%d)", uint8(k))
	}
}

// A Slot is one word of physical memory as seen by the translation walk. It
// is either an entry of the segment table, an entry of a page table, or a
// word inside a page.
type Slot struct {
	Kind SlotKind
	Base PAddr
}

// UnmappedSlot returns a slot that has not been materialized.
func UnmappedSlot() Slot {
	return Slot{Kind: Unmapped}
}

// FaultedSlot returns a slot that is explicitly invalid.
func FaultedSlot() Slot {
	return Slot{Kind: Faulted}
}

// MappedSlot returns a slot that points to the structure at base. Base 0
// always holds the segment table, so it can never be the target of a slot.
func MappedSlot(base PAddr) Slot {
	if base == 0 {
		log.Panic("a slot cannot point to physical address 0")
	}

	return Slot{Kind: Mapped, Base: base}
}

// SlotFromRaw converts the integer encoding used by the initial state files
// into a slot. Zero is unmapped, negative values are faulted, and positive
// values are mapped to that address.
func SlotFromRaw(raw int64) Slot {
	switch {
	case raw == 0:
		return UnmappedSlot()
	case raw < 0:
		return FaultedSlot()
	default:
		return MappedSlot(PAddr(raw))
	}
}

// Raw returns the integer encoding of the slot.
func (s Slot) Raw() int64 {
	switch s.Kind {
	case Faulted:
		return -1
	case Mapped:
		return int64(s.Base)
	default:
		return 0
	}
}

// IsMapped returns true if the slot points to a next level structure.
func (s Slot) IsMapped() bool {
	return s.Kind == Mapped
}

func (s Slot) String() string {
	if s.Kind == Mapped {
		return fmt.Sprintf("mapped(%d)", s.Base)
	}

	return s.Kind.String()
}
