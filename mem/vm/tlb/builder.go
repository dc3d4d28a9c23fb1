package tlb

import (
	"log"

	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/sim"
)

// A Builder can build TLBs
type Builder struct {
	numWays int
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numWays: vm.TLBCapacity,
	}
}

// WithNumWays sets the number of entries in the TLB.
func (b Builder) WithNumWays(n int) Builder {
	b.numWays = n
	return b
}

// Build creates a new TLB
func (b Builder) Build(name string) *Comp {
	if b.numWays < 1 {
		log.Panicf("TLB %s needs at least 1 way, got %d", name, b.numWays)
	}

	tlb := &Comp{
		ComponentBase: *sim.NewComponentBase(name),
		numWays:       b.numWays,
	}
	tlb.Reset()

	return tlb
}
