package mmu

import (
	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/addresstranslator"
	"github.com/sarchlab/segmmu/sim"
)

// Stats counts the events observed by an MMU.
type Stats struct {
	Reads  uint64 `json:"reads"`
	Writes uint64 `json:"writes"`

	TLBHits   uint64 `json:"tlb_hits"`
	TLBMisses uint64 `json:"tlb_misses"`

	Faults            uint64 `json:"faults"`
	AccessErrors      uint64 `json:"access_errors"`
	ResourceExhausted uint64 `json:"resource_exhausted"`
	PageTablesCreated uint64 `json:"page_tables_created"`
	PagesCreated      uint64 `json:"pages_created"`
}

func (s *Stats) countResult(r Result) {
	if r.Access == vm.Write {
		s.Writes++
	} else {
		s.Reads++
	}

	if r.Cached {
		if r.Hit {
			s.TLBHits++
		} else {
			s.TLBMisses++
		}
	}

	switch r.Failure() {
	case vm.FailureFault:
		s.Faults++
	case vm.FailureAccess:
		s.AccessErrors++
	case vm.FailureResourceExhausted:
		s.ResourceExhausted++
	}
}

// allocationCounter is registered on the address translator to count the
// lazily allocated structures.
type allocationCounter struct {
	stats *Stats
}

func (h allocationCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos != addresstranslator.HookPosFrameAllocated {
		return
	}

	alloc := ctx.Item.(addresstranslator.FrameAllocation)
	if alloc.Level == addresstranslator.SegmentLevel {
		h.stats.PageTablesCreated++
	} else {
		h.stats.PagesCreated++
	}
}
