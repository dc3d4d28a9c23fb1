package addresstranslator

import (
	"log"

	"github.com/sarchlab/segmmu/mem/physmem"
	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/frame"
	"github.com/sarchlab/segmmu/sim"
)

// A Builder can create address translators
type Builder struct {
	storage *physmem.Storage
	frames  frame.Allocator
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{}
}

// WithStorage sets the physical memory that holds the tables. By default, a
// new empty physical memory is created for each translator.
func (b Builder) WithStorage(s *physmem.Storage) Builder {
	b.storage = s
	return b
}

// WithFrameAllocator sets the allocator that tracks the used frames. By
// default, a new allocator with only frame 0 in use is created.
func (b Builder) WithFrameAllocator(a frame.Allocator) Builder {
	b.frames = a
	return b
}

// Build creates a new address translator.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		ComponentBase: *sim.NewComponentBase(name),
		storage:       b.storage,
		frames:        b.frames,
	}

	if c.storage == nil {
		c.storage = physmem.NewDefaultStorage()
	}

	if c.frames == nil {
		c.frames = frame.NewAllocator(int(c.storage.Capacity() / vm.FrameSize))
	}

	if c.storage.Capacity() < vm.SegmentTableSize {
		log.Panicf("storage of %d slots cannot hold the segment table",
			c.storage.Capacity())
	}

	return c
}
