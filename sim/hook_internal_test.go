package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var (
		comp *ComponentBase
		pos  *HookPos
	)

	BeforeEach(func() {
		comp = NewComponentBase("Comp")
		pos = &HookPos{Name: "Pos"}
	})

	It("should have a name", func() {
		Expect(comp.Name()).To(Equal("Comp"))
	})

	It("should invoke hooks in registration order", func() {
		var order []int
		comp.AcceptHook(HookFunc(func(HookCtx) { order = append(order, 1) }))
		comp.AcceptHook(HookFunc(func(HookCtx) { order = append(order, 2) }))

		comp.InvokeHook(HookCtx{Domain: comp, Pos: pos})

		Expect(order).To(Equal([]int{1, 2}))
		Expect(comp.NumHooks()).To(Equal(2))
	})

	It("should pass the context to the hook", func() {
		var got HookCtx
		comp.AcceptHook(HookFunc(func(ctx HookCtx) { got = ctx }))

		comp.InvokeHook(HookCtx{Domain: comp, Pos: pos, Item: 42})

		Expect(got.Pos).To(BeIdenticalTo(pos))
		Expect(got.Item).To(Equal(42))
	})
})

var _ = Describe("IDGenerator", func() {
	It("should generate sequential ids", func() {
		g := &sequentialIDGenerator{}

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should generate unique ids", func() {
		g := uniqueIDGenerator{}

		Expect(g.Generate()).NotTo(Equal(g.Generate()))
	})
})

var _ = Describe("Global IDGenerator", func() {
	var saved IDGenerator

	BeforeEach(func() {
		idGeneratorMutex.Lock()
		saved = idGenerator
		idGenerator = nil
		idGeneratorMutex.Unlock()
	})

	AfterEach(func() {
		idGeneratorMutex.Lock()
		idGenerator = saved
		idGeneratorMutex.Unlock()
	})

	It("should default to sequential ids", func() {
		Expect(GetIDGenerator().Generate()).To(Equal("1"))
	})

	It("should not change the generator after it is used", func() {
		UseUniqueIDGenerator()

		Expect(GetIDGenerator().Generate()).To(HaveLen(20))
		Expect(UseSequentialIDGenerator).To(Panic())
	})
})
