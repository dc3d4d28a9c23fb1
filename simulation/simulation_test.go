package simulation

import (
	"bytes"
	"log"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/segmmu/datarecording"
	"github.com/sarchlab/segmmu/mem/vm/mmu"
	"github.com/sarchlab/segmmu/tracing"
)

var _ = Describe("Simulation", func() {
	It("should register the components of an MMU", func() {
		s, err := MakeBuilder().Build()
		Expect(err).NotTo(HaveOccurred())
		m := s.AddMMU(mmu.MakeBuilder(), "MMU")

		Expect(s.MMUs()).To(ConsistOf(m))
		Expect(s.Components()).To(HaveLen(3))
		Expect(s.GetComponentByName("MMU.TLB")).To(BeIdenticalTo(m.TLB()))
		Expect(s.GetComponentByName("Nope")).To(BeNil())
		Expect(s.GetDataRecorder()).To(BeNil())
		Expect(s.GetMonitor()).To(BeNil())

		s.Terminate()
	})

	It("should not register two MMUs with the same name", func() {
		s, err := MakeBuilder().Build()
		Expect(err).NotTo(HaveOccurred())
		s.AddMMU(mmu.MakeBuilder(), "MMU")

		Expect(func() { s.AddMMU(mmu.MakeBuilder(), "MMU") }).To(Panic())
	})

	It("should attach the translation logger", func() {
		buf := new(bytes.Buffer)
		s, err := MakeBuilder().
			WithTranslationLogger(log.New(buf, "", 0)).
			Build()
		Expect(err).NotTo(HaveOccurred())
		m := s.AddMMU(mmu.MakeBuilder(), "MMU")

		m.Write(0x200)

		Expect(buf.String()).To(ContainSubstring("1536"))
	})

	It("should record translations", func() {
		path := GinkgoT().TempDir() + "/run"
		s, err := MakeBuilder().
			WithRecording().
			WithOutputFileName(path).
			Build()
		Expect(err).NotTo(HaveOccurred())
		m := s.AddMMU(mmu.MakeBuilder(), "MMU")

		m.Write(0x200)
		m.Read(0x200)
		s.Terminate()

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		n, err := reader.CountRows(tracing.TranslationTable)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("should fail if the recording already exists", func() {
		path := GinkgoT().TempDir() + "/run"
		Expect(os.WriteFile(path+".sqlite3", nil, 0o644)).To(Succeed())

		s, err := MakeBuilder().
			WithRecording().
			WithOutputFileName(path).
			Build()

		Expect(err).To(MatchError(datarecording.ErrRecordingExists))
		Expect(s).To(BeNil())
	})

	It("should reject inconsistent parameters", func() {
		Expect(func() { MakeBuilder().WithMonitorPort(8080).Build() }).
			To(Panic())
		Expect(func() { MakeBuilder().WithBrowser().Build() }).To(Panic())
		Expect(func() { MakeBuilder().WithOutputFileName("x").Build() }).
			To(Panic())
	})
})
