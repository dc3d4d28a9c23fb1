package mmu

import (
	"github.com/sarchlab/segmmu/mem/physmem"
	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/addresstranslator"
	"github.com/sarchlab/segmmu/mem/vm/frame"
	"github.com/sarchlab/segmmu/mem/vm/tlb"
	"github.com/sarchlab/segmmu/sim"
)

// A Builder can build MMU component
type Builder struct {
	numTLBWays int
	storage    *physmem.Storage
	frames     frame.Allocator
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{
		numTLBWays: vm.TLBCapacity,
	}
}

// WithNumTLBWays sets the number of entries in the TLB.
func (b Builder) WithNumTLBWays(n int) Builder {
	b.numTLBWays = n
	return b
}

// WithStorage sets the physical memory. Each MMU must have its own storage.
func (b Builder) WithStorage(s *physmem.Storage) Builder {
	b.storage = s
	return b
}

// WithFrameAllocator sets the allocator that tracks the used frames. Each MMU
// must have its own allocator.
func (b Builder) WithFrameAllocator(a frame.Allocator) Builder {
	b.frames = a
	return b
}

// Build returns a newly created MMU component
func (b Builder) Build(name string) *Comp {
	mmu := &Comp{
		ComponentBase: *sim.NewComponentBase(name),
	}

	mmu.translator = addresstranslator.MakeBuilder().
		WithStorage(b.storage).
		WithFrameAllocator(b.frames).
		Build(name + ".AddressTranslator")
	mmu.translator.AcceptHook(allocationCounter{stats: &mmu.stats})

	mmu.tlb = tlb.MakeBuilder().
		WithNumWays(b.numTLBWays).
		Build(name + ".TLB")

	return mmu
}
