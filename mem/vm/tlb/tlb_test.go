package tlb

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/tlb/internal"
	"github.com/sarchlab/segmmu/sim"
	"go.uber.org/mock/gomock"
)

var _ = ginkgo.Describe("TLB", func() {
	var (
		mockCtrl *gomock.Controller
		set      *MockSet
		tlb      *Comp
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		set = NewMockSet(mockCtrl)

		tlb = MakeBuilder().Build("TLB")
		tlb.set = set
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should report a miss", func() {
		set.EXPECT().Lookup(uint32(0x401)).Return(0, vm.PAddr(0), false)

		_, found := tlb.Lookup(0x401)

		Expect(found).To(BeFalse())
	})

	ginkgo.It("should report a hit", func() {
		set.EXPECT().Lookup(uint32(0x401)).Return(2, vm.PAddr(1536), true)

		wayID, found := tlb.Lookup(0x401)

		Expect(found).To(BeTrue())
		Expect(wayID).To(Equal(2))
	})

	ginkgo.It("should visit the way on promote", func() {
		set.EXPECT().Visit(1)

		tlb.Promote(1)
	})

	ginkgo.It("should install into the evicted way and visit it", func() {
		set.EXPECT().Evict().Return(3)
		set.EXPECT().Blocks().Return(make([]internal.Block, 4))
		set.EXPECT().Update(3, uint32(0x401), vm.PAddr(1536))
		set.EXPECT().Visit(3)

		wayID := tlb.Install(0x401, 1536)

		Expect(wayID).To(Equal(3))
	})

	ginkgo.It("should invoke the evict hook when replacing a valid way", func() {
		blocks := make([]internal.Block, 4)
		blocks[1] = internal.Block{WayID: 1, Valid: true, SP: 9, FrameBase: 512}

		set.EXPECT().Evict().Return(1)
		set.EXPECT().Blocks().Return(blocks)
		set.EXPECT().Update(1, uint32(10), vm.PAddr(1024))
		set.EXPECT().Visit(1)

		var evicted []Entry
		tlb.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			evicted = append(evicted, ctx.Item.(Entry))
		}))

		tlb.Install(10, 1024)

		Expect(evicted).To(HaveLen(1))
		Expect(evicted[0].SP).To(Equal(uint32(9)))
	})
})

var _ = ginkgo.Describe("TLB with real set", func() {
	var tlb *Comp

	ginkgo.BeforeEach(func() {
		tlb = MakeBuilder().Build("TLB")
	})

	ginkgo.It("should have 4 ways by default", func() {
		Expect(tlb.NumWays()).To(Equal(4))
		Expect(tlb.Entries()).To(HaveLen(4))
	})

	ginkgo.It("should hit after install", func() {
		tlb.Install(0x401, 1536)

		wayID, found := tlb.Lookup(0x401)

		Expect(found).To(BeTrue())
		Expect(tlb.FrameBase(wayID)).To(Equal(vm.PAddr(1536)))
	})

	ginkgo.It("should never match a key on an empty way", func() {
		_, found := tlb.Lookup(0)

		Expect(found).To(BeFalse())
	})

	ginkgo.It("should replace the least recently used entry", func() {
		for i := uint32(0); i < 4; i++ {
			tlb.Install(i, vm.PAddr(512*(i+1)))
		}

		wayID, _ := tlb.Lookup(0)
		tlb.Promote(wayID)

		Expect(tlb.LeastRecentlyUsed()).To(Equal(1))

		tlb.Install(4, 4096)

		_, found := tlb.Lookup(1)
		Expect(found).To(BeFalse())
		_, found = tlb.Lookup(0)
		Expect(found).To(BeTrue())
		Expect(tlb.CheckInvariant()).To(Succeed())
	})

	ginkgo.It("should fill the empty ways first", func() {
		for i := uint32(0); i < 4; i++ {
			Expect(tlb.Install(i+10, 512)).To(Equal(int(i)))
		}
	})

	ginkgo.It("should forget all entries on reset", func() {
		tlb.Install(1, 512)

		tlb.Reset()

		_, found := tlb.Lookup(1)
		Expect(found).To(BeFalse())
	})

	ginkgo.It("should panic with no ways", func() {
		Expect(func() { MakeBuilder().WithNumWays(0).Build("TLB") }).
			To(Panic())
	})
})
