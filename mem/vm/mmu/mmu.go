// Package mmu provides the translation engine that combines the TLB with the
// segment and page table walk.
package mmu

import (
	"log"
	"sync"

	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/addresstranslator"
	"github.com/sarchlab/segmmu/mem/vm/tlb"
	"github.com/sarchlab/segmmu/sim"
)

// HookPosTranslationStart is triggered before a translation. The hook item is
// the Request.
var HookPosTranslationStart = &sim.HookPos{Name: "TranslationStart"}

// HookPosTranslationDone is triggered after a translation. The hook item is
// the Result. Hooks run while the translation holds the lock of
// the Comp, so they must not call Stats, Inspect, or Update.
var HookPosTranslationDone = &sim.HookPos{Name: "TranslationDone"}

// Comp is the default mmu implementation. It owns the physical memory, the
// frame allocator, and the TLB of one simulated machine. Translations are
// serialized. Other goroutines must go through Inspect or Update to touch the
// state.
type Comp struct {
	sim.ComponentBase

	lock sync.RWMutex

	translator *addresstranslator.Comp
	tlb        *tlb.Comp

	stats Stats
}

// Translator returns the address translator that walks the tables.
func (c *Comp) Translator() *addresstranslator.Comp {
	return c.translator
}

// TLB returns the translation cache.
func (c *Comp) TLB() *tlb.Comp {
	return c.tlb
}

// Stats returns the counters collected so far.
func (c *Comp) Stats() Stats {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.stats
}

// Inspect runs f while no translation can change the state. f must only read
// the state and must not call back into the Comp.
func (c *Comp) Inspect(f func()) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	f()
}

// Update runs f with exclusive access to the state, for example to preload
// the tables. f must not call back into the Comp.
func (c *Comp) Update(f func()) {
	c.lock.Lock()
	defer c.lock.Unlock()

	f()
}

// Components returns all the components that form the MMU, including itself.
func (c *Comp) Components() []sim.Component {
	return []sim.Component{c, c.translator, c.tlb}
}

// Read translates va for a read without consulting the TLB.
func (c *Comp) Read(va vm.VAddr) Result {
	return c.Access(Request{Access: vm.Read, VAddr: va}, false)
}

// Write translates va for a write without consulting the TLB. Missing page
// tables and pages are allocated.
func (c *Comp) Write(va vm.VAddr) Result {
	return c.Access(Request{Access: vm.Write, VAddr: va}, false)
}

// ReadCached translates va for a read, consulting the TLB first.
func (c *Comp) ReadCached(va vm.VAddr) Result {
	return c.Access(Request{Access: vm.Read, VAddr: va}, true)
}

// WriteCached translates va for a write, consulting the TLB first.
func (c *Comp) WriteCached(va vm.VAddr) Result {
	return c.Access(Request{Access: vm.Write, VAddr: va}, true)
}

// Access translates the address of a request. If cached is true, the TLB is
// looked up first and successful walks are installed into the TLB.
func (c *Comp) Access(req Request, cached bool) Result {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTranslationStart,
		Item:   req,
	})

	var result Result
	if cached {
		result = c.translateCached(req)
	} else {
		result = c.translate(req)
	}

	result.ID = sim.GetIDGenerator().Generate()
	c.stats.countResult(result)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTranslationDone,
		Item:   result,
	})

	return result
}

func (c *Comp) translate(req Request) Result {
	result := Result{
		Access: req.Access,
		VAddr:  req.VAddr,
	}

	result.PAddr, result.Err = c.translator.Translate(req.VAddr, req.Access)

	return result
}

func (c *Comp) translateCached(req Request) Result {
	result := Result{
		Access: req.Access,
		VAddr:  req.VAddr,
		Cached: true,
	}

	sp := vm.SP(req.VAddr)
	offset := vm.PAddr(vm.Offset(req.VAddr))

	wayID, found := c.tlb.Lookup(sp)
	if found {
		c.tlb.Promote(wayID)
		c.tlbMustBeConsistent()

		result.Hit = true
		result.PAddr = c.tlb.FrameBase(wayID) + offset

		return result
	}

	pageBase, err := c.translator.Walk(req.VAddr, req.Access)
	if err != nil {
		result.Err = err
		return result
	}

	c.tlb.Install(sp, pageBase)
	c.tlbMustBeConsistent()

	result.PAddr = pageBase + offset

	return result
}

func (c *Comp) tlbMustBeConsistent() {
	err := c.tlb.CheckInvariant()
	if err != nil {
		log.Panic(err)
	}
}
