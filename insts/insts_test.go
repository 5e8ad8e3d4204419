package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wavesim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	Describe("SignExtend", func() {
		It("should extend 21-bit offsets", func() {
			Expect(insts.SignExtend(0x1FFFFF, 21)).To(Equal(int64(-1)))
			Expect(insts.SignExtend(0x0FFFFF, 21)).To(Equal(int64(0x0FFFFF)))
			Expect(insts.SignExtend(0x100000, 21)).To(Equal(int64(-0x100000)))
		})

		It("should extend 13-bit offsets", func() {
			Expect(insts.SignExtend(7608, 13)).To(Equal(int64(-584)))
			Expect(insts.SignExtend(0x1000, 13)).To(Equal(int64(-4096)))
			Expect(insts.SignExtend(100, 13)).To(Equal(int64(100)))
		})
	})

	Describe("Program words", func() {
		It("should recognize scheduling hints as no-ops", func() {
			Expect(insts.IsNoop(0xBFB60003)).To(BeTrue())
			Expect(insts.IsNoop(0xBF800000)).To(BeTrue()) // s_nop 0
			Expect(insts.IsNoop(0xBF870091)).To(BeTrue()) // s_delay_alu
			Expect(insts.IsNoop(0xBF89FC07)).To(BeTrue()) // s_waitcnt
			Expect(insts.IsNoop(insts.EndProgram)).To(BeFalse())
			Expect(insts.IsNoop(0xBFA00001)).To(BeFalse()) // s_branch
		})
	})

	Describe("Format", func() {
		It("should report encoding sizes", func() {
			Expect(insts.FormatSOP2.Words()).To(Equal(1))
			Expect(insts.FormatVOP2.Words()).To(Equal(1))
			Expect(insts.FormatVOP3.Words()).To(Equal(2))
			Expect(insts.FormatVOPD.Words()).To(Equal(2))
			Expect(insts.FormatSMEM.Words()).To(Equal(2))
			Expect(insts.FormatGLOBAL.Words()).To(Equal(2))
		})

		It("should only predicate vector ALU formats", func() {
			Expect(insts.FormatVOP1.Predicated()).To(BeTrue())
			Expect(insts.FormatVOP2.Predicated()).To(BeTrue())
			Expect(insts.FormatVOP3.Predicated()).To(BeTrue())
			Expect(insts.FormatVOPC.Predicated()).To(BeTrue())
			Expect(insts.FormatVOPD.Predicated()).To(BeTrue())
			Expect(insts.FormatVOPP.Predicated()).To(BeFalse())
			Expect(insts.FormatLDS.Predicated()).To(BeFalse())
			Expect(insts.FormatSOP1.Predicated()).To(BeFalse())
		})

		It("should have readable names", func() {
			Expect(insts.FormatVOPD.String()).To(Equal("VOPD"))
			Expect(insts.Format(200).String()).To(Equal("UNKNOWN"))
		})
	})
})
