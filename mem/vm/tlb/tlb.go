// Package tlb provides a fully associative translation cache with least
// recently used replacement.
package tlb

import (
	"fmt"

	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/tlb/internal"
	"github.com/sarchlab/segmmu/sim"
)

// HookPosEvict is triggered when an install replaces a valid entry. The hook
// item is the Entry being replaced.
var HookPosEvict = &sim.HookPos{Name: "TLBEvict"}

// An Entry is a snapshot of one TLB way.
type Entry = internal.Block

// Comp is a cache (TLB) that maps segment-page keys to page frame bases.
type Comp struct {
	sim.ComponentBase

	numWays int
	set     internal.Set
}

// NumWays returns the number of entries of the TLB.
func (c *Comp) NumWays() int {
	return c.numWays
}

// Reset invalidates all the entries in the TLB and restores the initial
// recency order.
func (c *Comp) Reset() {
	c.set = internal.NewSet(c.numWays)
}

// Lookup returns the way that holds the translation of sp.
func (c *Comp) Lookup(sp uint32) (wayID int, found bool) {
	wayID, _, found = c.set.Lookup(sp)
	return wayID, found
}

// FrameBase returns the page frame base stored in a way.
func (c *Comp) FrameBase(wayID int) vm.PAddr {
	return c.set.Blocks()[wayID].FrameBase
}

// Promote marks a way as the most recently used.
func (c *Comp) Promote(wayID int) {
	c.set.Visit(wayID)
}

// LeastRecentlyUsed returns the way that the next install replaces.
func (c *Comp) LeastRecentlyUsed() int {
	return c.set.Evict()
}

// Install stores the translation of sp in the least recently used way and
// makes it the most recently used. It returns the way used.
func (c *Comp) Install(sp uint32, frameBase vm.PAddr) int {
	victim := c.set.Evict()

	old := c.set.Blocks()[victim]
	if old.Valid {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosEvict,
			Item:   old,
		})
	}

	c.set.Update(victim, sp, frameBase)
	c.set.Visit(victim)

	return victim
}

// Entries returns a snapshot of all the ways.
func (c *Comp) Entries() []Entry {
	return c.set.Blocks()
}

// CheckInvariant returns an error if the ranks of the ways are not a
// permutation of 0 to NumWays-1, or if two valid ways hold the same key.
func (c *Comp) CheckInvariant() error {
	seenRank := make([]bool, c.numWays)
	seenKey := make(map[uint32]int)

	for _, e := range c.set.Blocks() {
		if e.Rank < 0 || e.Rank >= c.numWays || seenRank[e.Rank] {
			return fmt.Errorf("%s: way %d has invalid rank %d",
				c.Name(), e.WayID, e.Rank)
		}
		seenRank[e.Rank] = true

		if !e.Valid {
			continue
		}

		if other, dup := seenKey[e.SP]; dup {
			return fmt.Errorf("%s: ways %d and %d both hold key %d",
				c.Name(), other, e.WayID, e.SP)
		}
		seenKey[e.SP] = e.WayID
	}

	return nil
}
