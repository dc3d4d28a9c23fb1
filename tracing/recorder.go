// Package tracing records translations and allocations into a DataRecorder.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/segmmu/datarecording"
	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/addresstranslator"
	"github.com/sarchlab/segmmu/mem/vm/mmu"
	"github.com/sarchlab/segmmu/mem/vm/tlb"
	"github.com/sarchlab/segmmu/sim"
)

// Table names used by the TranslationRecorder.
const (
	TranslationTable = "translation"
	AllocationTable  = "allocation"
	EvictionTable    = "tlb_eviction"
)

type translationEntry struct {
	ID       string
	Location string
	VAddr    uint32
	Segment  uint32
	Page     uint32
	Offset   uint32
	Access   string
	Cached   bool
	Hit      bool
	PAddr    uint64
	Outcome  string
}

type allocationEntry struct {
	ID        string
	Location  string
	Level     string
	Entry     uint64
	Frame     int
	NumFrames int
	Base      uint64
}

type evictionEntry struct {
	ID        string
	Location  string
	WayID     int
	SP        uint32
	FrameBase uint64
}

// NamedHookable is a component that has a name and accepts hooks.
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// TranslationRecorder is a hook that writes one row per translation, per lazy
// allocation, and per TLB eviction.
type TranslationRecorder struct {
	backend  datarecording.DataRecorder
	attached map[NamedHookable]bool
}

// NewTranslationRecorder creates the tables in the backend and returns the
// recorder.
func NewTranslationRecorder(
	backend datarecording.DataRecorder,
) *TranslationRecorder {
	r := &TranslationRecorder{
		backend:  backend,
		attached: make(map[NamedHookable]bool),
	}

	backend.CreateTable(TranslationTable, translationEntry{})
	backend.CreateTable(AllocationTable, allocationEntry{})
	backend.CreateTable(EvictionTable, evictionEntry{})

	return r
}

// Attach registers the recorder on a component.
func (r *TranslationRecorder) Attach(domain NamedHookable) {
	if r.attached[domain] {
		panic(fmt.Sprintf(
			"domain %s already has recorder %s",
			domain.Name(), reflect.TypeOf(r)))
	}

	r.attached[domain] = true
	domain.AcceptHook(r)
}

// AttachMMU registers the recorder on the MMU and on the components it owns.
func (r *TranslationRecorder) AttachMMU(m *mmu.Comp) {
	r.Attach(m)
	r.Attach(m.Translator())
	r.Attach(m.TLB())
}

// Func records the hook item.
func (r *TranslationRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case mmu.HookPosTranslationDone:
		r.recordTranslation(ctx)
	case addresstranslator.HookPosFrameAllocated:
		r.recordAllocation(ctx)
	case tlb.HookPosEvict:
		r.recordEviction(ctx)
	}
}

func (r *TranslationRecorder) recordTranslation(ctx sim.HookCtx) {
	result := ctx.Item.(mmu.Result)
	s, p, w := vm.Decode(result.VAddr)

	r.backend.InsertData(TranslationTable, translationEntry{
		ID:       result.ID,
		Location: locationOf(ctx),
		VAddr:    uint32(result.VAddr),
		Segment:  s,
		Page:     p,
		Offset:   w,
		Access:   result.Access.String(),
		Cached:   result.Cached,
		Hit:      result.Hit,
		PAddr:    uint64(result.PAddr),
		Outcome:  result.Failure().String(),
	})
}

func (r *TranslationRecorder) recordAllocation(ctx sim.HookCtx) {
	alloc := ctx.Item.(addresstranslator.FrameAllocation)

	r.backend.InsertData(AllocationTable, allocationEntry{
		ID:        sim.GetIDGenerator().Generate(),
		Location:  locationOf(ctx),
		Level:     alloc.Level.String(),
		Entry:     uint64(alloc.Entry),
		Frame:     alloc.Frame,
		NumFrames: alloc.NumFrames,
		Base:      uint64(alloc.Base),
	})
}

func (r *TranslationRecorder) recordEviction(ctx sim.HookCtx) {
	entry := ctx.Item.(tlb.Entry)

	r.backend.InsertData(EvictionTable, evictionEntry{
		ID:        sim.GetIDGenerator().Generate(),
		Location:  locationOf(ctx),
		WayID:     entry.WayID,
		SP:        entry.SP,
		FrameBase: uint64(entry.FrameBase),
	})
}

func locationOf(ctx sim.HookCtx) string {
	named, ok := ctx.Domain.(sim.Named)
	if !ok {
		return ""
	}

	return named.Name()
}
