package mmu

import (
	"bytes"
	"log"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("MMU", func() {
	var (
		mmu *Comp
		va  vm.VAddr
	)

	BeforeEach(func() {
		mmu = MakeBuilder().Build("MMU")
		va = vm.Compose(1, 2, 5)
	})

	Context("without TLB", func() {
		It("should allocate on write", func() {
			result := mmu.Write(va)

			Expect(result.OK()).To(BeTrue())
			Expect(result.Token()).To(Equal("1541"))
			Expect(mmu.Stats().PageTablesCreated).To(Equal(uint64(1)))
			Expect(mmu.Stats().PagesCreated).To(Equal(uint64(1)))
		})

		It("should report err on reading unmapped memory", func() {
			result := mmu.Read(va)

			Expect(result.Failure()).To(Equal(vm.FailureAccess))
			Expect(result.Token()).To(Equal("err"))
		})

		It("should report pf on a faulted segment", func() {
			Expect(mmu.Translator().SetSegmentEntry(1, vm.FaultedSlot())).
				To(Succeed())

			Expect(mmu.Read(va).Token()).To(Equal("pf"))
			Expect(mmu.Write(va).Token()).To(Equal("pf"))
			Expect(mmu.Stats().Faults).To(Equal(uint64(2)))
		})

		It("should not touch the TLB", func() {
			mmu.Write(va)
			mmu.Read(va)

			_, found := mmu.TLB().Lookup(vm.SP(va))
			Expect(found).To(BeFalse())
		})
	})

	Context("with TLB", func() {
		It("should miss then hit", func() {
			Expect(mmu.Write(va).Token()).To(Equal("1541"))

			Expect(mmu.ReadCached(va).Token()).To(Equal("m 1541"))
			Expect(mmu.ReadCached(va).Token()).To(Equal("h 1541"))

			stats := mmu.Stats()
			Expect(stats.TLBHits).To(Equal(uint64(1)))
			Expect(stats.TLBMisses).To(Equal(uint64(1)))
		})

		It("should hit on other offsets of the same page", func() {
			mmu.WriteCached(va)

			result := mmu.ReadCached(vm.Compose(1, 2, 100))

			Expect(result.Hit).To(BeTrue())
			Expect(result.PAddr).To(Equal(vm.PAddr(1636)))
		})

		It("should report a miss for a failed translation", func() {
			Expect(mmu.ReadCached(va).Token()).To(Equal("m err"))

			for _, e := range mmu.TLB().Entries() {
				Expect(e.Valid).To(BeFalse())
			}
			Expect(mmu.TLB().LeastRecentlyUsed()).To(Equal(0))
		})

		It("should report m pf for a faulted page", func() {
			mmu.Write(va)
			Expect(mmu.Translator().SetPageEntry(1, 3, vm.FaultedSlot())).
				To(Succeed())

			Expect(mmu.WriteCached(vm.Compose(1, 3, 0)).Token()).
				To(Equal("m pf"))
			Expect(mmu.WriteCached(vm.Compose(1, 3, 0)).Token()).
				To(Equal("m pf"))
		})

		It("should allocate on a write miss", func() {
			Expect(mmu.WriteCached(va).Token()).To(Equal("m 1541"))
			Expect(mmu.WriteCached(va).Token()).To(Equal("h 1541"))
			Expect(mmu.Read(va).Token()).To(Equal("1541"))
		})

		It("should evict the least recently used translation", func() {
			for s := uint32(0); s < 4; s++ {
				Expect(mmu.WriteCached(vm.Compose(s, 0, 0)).Hit).To(BeFalse())
			}

			Expect(mmu.ReadCached(vm.Compose(0, 0, 0)).Hit).To(BeTrue())
			Expect(mmu.WriteCached(vm.Compose(4, 0, 0)).Hit).To(BeFalse())

			Expect(mmu.ReadCached(vm.Compose(0, 0, 0)).Hit).To(BeTrue())
			Expect(mmu.ReadCached(vm.Compose(1, 0, 0)).Hit).To(BeFalse())
		})

		It("should keep the rank invariant", func() {
			r := rand.New(rand.NewSource(3))

			for i := 0; i < 2000; i++ {
				addr := vm.Compose(uint32(r.Intn(6)), uint32(r.Intn(3)), 0)
				if r.Intn(2) == 0 {
					mmu.ReadCached(addr)
				} else {
					mmu.WriteCached(addr)
				}

				ranks := []int{}
				for _, e := range mmu.TLB().Entries() {
					ranks = append(ranks, e.Rank)
				}
				Expect(ranks).To(ConsistOf(0, 1, 2, 3))
			}
		})
	})

	Context("hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			mmu.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should invoke hooks before and after the translation", func() {
			gomock.InOrder(
				hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
					Expect(ctx.Pos).To(BeIdenticalTo(HookPosTranslationStart))
					Expect(ctx.Item).To(Equal(Request{Access: vm.Write, VAddr: va}))
				}),
				hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
					Expect(ctx.Pos).To(BeIdenticalTo(HookPosTranslationDone))
					Expect(ctx.Item.(Result).PAddr).To(Equal(vm.PAddr(1541)))
				}),
			)

			mmu.Write(va)
		})
	})

	Context("shared access", func() {
		It("should apply updates", func() {
			mmu.Update(func() {
				Expect(mmu.Translator().SetSegmentEntry(1, vm.FaultedSlot())).
					To(Succeed())
			})

			Expect(mmu.Read(va).Token()).To(Equal("pf"))
		})

		It("should only show the state between translations", func() {
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)

				for i := uint32(0); i < 200; i++ {
					mmu.WriteCached(vm.Compose(i%8, i%3, 0))
				}
			}()

			for running := true; running; {
				select {
				case <-done:
					running = false
				default:
				}

				mmu.Inspect(func() {
					Expect(mmu.TLB().CheckInvariant()).To(Succeed())
				})
			}

			Expect(mmu.Stats().Writes).To(Equal(uint64(200)))
		})
	})

	Context("logger", func() {
		It("should print the results", func() {
			buf := new(bytes.Buffer)
			mmu.AcceptHook(NewTranslationLogger(log.New(buf, "", 0)))

			mmu.WriteCached(va)
			mmu.Read(vm.Compose(9, 0, 0))

			Expect(buf.String()).To(ContainSubstring(
				"write 0x0080405 -> m 1541 (s=1 p=2 w=5)"))
			Expect(buf.String()).To(ContainSubstring(
				"read 0x0480000 -> err (s=9 p=0 w=0): segment 9: " +
					"access to unmapped address"))
		})
	})

	It("should list its components", func() {
		comps := mmu.Components()

		Expect(comps).To(HaveLen(3))
		Expect(comps[1].Name()).To(Equal("MMU.AddressTranslator"))
		Expect(comps[2].Name()).To(Equal("MMU.TLB"))
	})
})
