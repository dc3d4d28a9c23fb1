// Package physmem provides the physical memory of the simulated machine.
package physmem

import (
	"errors"

	"github.com/sarchlab/segmmu/mem/vm"
)

// ErrOutOfRange is returned when accessing a slot beyond the capacity.
var ErrOutOfRange = errors.New(
	"accessing physical address beyond the storage capacity")

// A Storage keeps the slots of the physical memory.
//
// The storage manages slots in units of one frame. Units that have never been
// written do not take any host memory and all their slots read as unmapped.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]vm.Slot
}

// NewStorage creates a storage object with the specified number of slots.
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = vm.FrameSize
	storage.capacity = capacity
	storage.data = make(map[uint64][]vm.Slot)

	return storage
}

// NewDefaultStorage creates a storage that is as large as the physical memory
// of the simulated machine.
func NewDefaultStorage() *Storage {
	return NewStorage(vm.PhysicalMemorySize)
}

// Capacity returns the number of slots in the storage.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Get returns the slot at addr.
func (s *Storage) Get(addr vm.PAddr) (vm.Slot, error) {
	if uint64(addr) >= s.capacity {
		return vm.Slot{}, ErrOutOfRange
	}

	baseAddr, inUnitAddr := s.parseAddress(uint64(addr))

	unit, ok := s.data[baseAddr]
	if !ok {
		return vm.UnmappedSlot(), nil
	}

	return unit[inUnitAddr], nil
}

// Set overwrites the slot at addr.
func (s *Storage) Set(addr vm.PAddr, slot vm.Slot) error {
	if uint64(addr) >= s.capacity {
		return ErrOutOfRange
	}

	baseAddr, inUnitAddr := s.parseAddress(uint64(addr))

	unit, ok := s.data[baseAddr]
	if !ok {
		if slot.Kind == vm.Unmapped {
			return nil
		}

		unit = make([]vm.Slot, s.unitSize)
		s.data[baseAddr] = unit
	}

	unit[inUnitAddr] = slot

	return nil
}

// Clear resets n slots starting from addr to unmapped.
func (s *Storage) Clear(addr vm.PAddr, n uint64) error {
	if uint64(addr)+n > s.capacity {
		return ErrOutOfRange
	}

	currAddr := uint64(addr)
	end := uint64(addr) + n

	for currAddr < end {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)

		lenToClear := s.unitSize - inUnitAddr
		if end-currAddr < lenToClear {
			lenToClear = end - currAddr
		}

		unit, ok := s.data[baseAddr]
		if ok {
			if lenToClear == s.unitSize {
				delete(s.data, baseAddr)
			} else {
				clear(unit[inUnitAddr : inUnitAddr+lenToClear])
			}
		}

		currAddr += lenToClear
	}

	return nil
}

// NumMaterializedUnits returns the number of frame-sized units that hold at
// least one written slot.
func (s *Storage) NumMaterializedUnits() int {
	return len(s.data)
}
