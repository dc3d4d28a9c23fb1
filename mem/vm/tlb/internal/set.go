// Package internal provides the definition required for defining TLB.
package internal

import (
	"log"

	"github.com/sarchlab/segmmu/mem/vm"
)

// A Set holds a certain number of translations and ranks them by recency.
type Set interface {
	Lookup(sp uint32) (wayID int, frameBase vm.PAddr, found bool)
	Update(wayID int, sp uint32, frameBase vm.PAddr)
	Evict() (wayID int)
	Visit(wayID int)
	Blocks() []Block
}

// A Block is one way of a set. The rank orders the blocks by recency, with 0
// being the least recently used. Blocks that never held a translation are
// not valid but still take part in the ranking.
type Block struct {
	WayID     int
	Rank      int
	Valid     bool
	SP        uint32
	FrameBase vm.PAddr
}

// NewSet creates a new TLB set. Initially, way 0 is the least recently used
// and the last way is the most recently used.
func NewSet(numWays int) Set {
	if numWays < 1 {
		log.Panicf("a set needs at least 1 way, got %d", numWays)
	}

	s := &setImpl{}
	s.blocks = make([]Block, numWays)
	for i := range s.blocks {
		s.blocks[i].WayID = i
		s.blocks[i].Rank = i
	}

	return s
}

type setImpl struct {
	blocks []Block
}

func (s *setImpl) Lookup(sp uint32) (wayID int, frameBase vm.PAddr, found bool) {
	for i := range s.blocks {
		b := &s.blocks[i]
		if b.Valid && b.SP == sp {
			return b.WayID, b.FrameBase, true
		}
	}

	return 0, 0, false
}

func (s *setImpl) Update(wayID int, sp uint32, frameBase vm.PAddr) {
	b := &s.blocks[wayID]
	b.Valid = true
	b.SP = sp
	b.FrameBase = frameBase
}

// Evict returns the least recently used way. The way keeps its content until
// it is updated.
func (s *setImpl) Evict() int {
	for i := range s.blocks {
		if s.blocks[i].Rank == 0 {
			return i
		}
	}

	log.Panic("no block has rank 0")

	return 0
}

// Visit makes the way the most recently used. All the ways that were more
// recently used than it move one rank down.
func (s *setImpl) Visit(wayID int) {
	oldRank := s.blocks[wayID].Rank

	for i := range s.blocks {
		if s.blocks[i].Rank > oldRank {
			s.blocks[i].Rank--
		}
	}

	s.blocks[wayID].Rank = len(s.blocks) - 1
}

func (s *setImpl) Blocks() []Block {
	blocks := make([]Block, len(s.blocks))
	copy(blocks, s.blocks)

	return blocks
}
