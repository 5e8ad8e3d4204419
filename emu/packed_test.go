package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wavesim/emu"
	"github.com/sarchlab/wavesim/insts"
)

var _ = Describe("VOPD", func() {
	var m *machine

	BeforeEach(func() {
		m = newMachine()
	})

	It("should execute both halves", func() {
		m.setVF(0, 2)
		m.setVF(1, 3)
		m.setVF(2, 1.5)
		m.setVF(3, 0.25)

		Expect(m.run(vopd(vopdFields{
			opX: insts.VOPDMulF32, srcX0: v(0), vsrcX1: 1, vdstX: 4,
			opY: insts.VOPDAddF32, srcY0: v(2), vsrcY1: 3, vdstY: 5,
		})...)).To(Succeed())

		Expect(m.vgprF(4)).To(Equal(float32(6)))
		Expect(m.vgprF(5)).To(Equal(float32(1.75)))
	})

	It("should read every source before writing", func() {
		m.setV(0, 11)
		m.setV(4, 22)

		Expect(m.run(vopd(vopdFields{
			opX: insts.VOPDMovB32, srcX0: v(0), vdstX: 4,
			opY: insts.VOPDMovB32, srcY0: v(4), vdstY: 5,
		})...)).To(Succeed())

		Expect(m.vgpr(4)).To(Equal(uint32(11)))
		Expect(m.vgpr(5)).To(Equal(uint32(22)))
	})

	It("should share one literal between the halves", func() {
		m.setVF(0, 2)
		m.setVF(1, 3)

		Expect(m.run(prog(vopd(vopdFields{
			opX: insts.VOPDFmaakF32, srcX0: v(0), vsrcX1: 1, vdstX: 4,
			opY: insts.VOPDMovB32, srcY0: literal, vdstY: 5,
		}), f32(1))...)).To(Succeed())

		Expect(m.vgprF(4)).To(Equal(float32(7)))
		Expect(m.vgpr(5)).To(Equal(uint32(0x3F800000)))
		Expect(m.stats.LiteralFetches).To(Equal(uint64(1)))
	})

	It("should accept integer operations in the Y half", func() {
		m.setV(0, 2)
		m.setV(1, 3)

		Expect(m.run(vopd(vopdFields{
			opX: insts.VOPDMovB32, srcX0: one, vdstX: 4,
			opY: insts.VOPDAddNcU32, srcY0: v(0), vsrcY1: 1, vdstY: 5,
		})...)).To(Succeed())

		Expect(m.vgpr(4)).To(Equal(uint32(1)))
		Expect(m.vgpr(5)).To(Equal(uint32(5)))
	})

	It("should select on VCC", func() {
		m.setV(0, 10)
		m.setV(1, 20)

		Expect(m.run(prog(
			sop1(insts.SOP1MovB32, vcc, one),
			vopd(vopdFields{
				opX: insts.VOPDCndmaskB32, srcX0: v(0), vsrcX1: 1, vdstX: 4,
				opY: insts.VOPDCndmaskB32, srcY0: v(1), vsrcY1: 0, vdstY: 5,
			}),
		)...)).To(Succeed())

		Expect(m.vgpr(4)).To(Equal(uint32(20)))
		Expect(m.vgpr(5)).To(Equal(uint32(10)))
	})

	It("should reject opcodes the X half does not have", func() {
		err := m.run(vopd(vopdFields{
			opX: 14, srcX0: v(0), vdstX: 4,
			opY: insts.VOPDMovB32, srcY0: v(0), vdstY: 5,
		})...)

		Expect(errors.Is(err, emu.ErrUnsupportedInstruction)).To(BeTrue())
	})
})

var _ = Describe("VOPP", func() {
	var m *machine

	BeforeEach(func() {
		m = newMachine()
	})

	// Halves: 1.0 = 0x3C00, 2.0 = 0x4000, 3.0 = 0x4200, 4.0 = 0x4400.
	const (
		oneTwo    = uint32(0x40003C00)
		threeFour = uint32(0x44004200)
	)

	It("should add both halves", func() {
		m.setV(0, oneTwo)
		m.setV(1, oneTwo)

		Expect(m.run(vopp(voppFields{op: insts.VOPPPkAddF16, vdst: 2,
			src0: v(0), src1: v(1), opselHi: 0b11})...)).To(Succeed())

		Expect(m.vgpr(2)).To(Equal(uint32(0x44004000)))
	})

	It("should pick input halves per result half", func() {
		m.setV(0, oneTwo)
		m.setV(1, oneTwo)

		Expect(m.run(vopp(voppFields{op: insts.VOPPPkAddF16, vdst: 2,
			src0: v(0), src1: v(1), opsel: 0b01, opselHi: 0b10})...)).To(Succeed())

		Expect(m.vgpr(2)).To(Equal(uint32(0x42004200)))
	})

	It("should fuse multiply and add per half", func() {
		m.setV(0, oneTwo)
		m.setV(1, threeFour)
		m.setV(2, 0x3C003C00)

		Expect(m.run(vopp(voppFields{op: insts.VOPPPkFmaF16, vdst: 3,
			src0: v(0), src1: v(1), src2: v(2), opselHi: 0b111})...)).To(Succeed())

		Expect(m.vgpr(3)).To(Equal(uint32(0x48804400)))
	})

	It("should compare signed halves", func() {
		m.setV(0, 0xFFFF0005)
		m.setV(1, 0x00010003)

		Expect(m.run(vopp(voppFields{op: insts.VOPPPkMaxI16, vdst: 2,
			src0: v(0), src1: v(1), opselHi: 0b11})...)).To(Succeed())

		Expect(m.vgpr(2)).To(Equal(uint32(0x00010005)))
	})

	It("should shift each half by its own amount", func() {
		m.setV(0, 0x00040001)
		m.setV(1, 0x80008000)

		Expect(m.run(vopp(voppFields{op: insts.VOPPPkAshrrevI16, vdst: 2,
			src0: v(0), src1: v(1), opselHi: 0b11})...)).To(Succeed())

		Expect(m.vgpr(2)).To(Equal(uint32(0xF800C000)))
	})

	It("should accumulate a dot product into f32", func() {
		m.setV(0, oneTwo)
		m.setV(1, threeFour)
		m.setVF(2, 1)

		Expect(m.run(prog(
			vopp(voppFields{op: insts.VOPPDot2F32F16, vdst: 3,
				src0: v(0), src1: v(1), src2: v(2), opselHi: 0b11}),
			vopp(voppFields{op: insts.VOPPDot2F32F16, vdst: 4,
				src0: v(0), src1: v(1), src2: v(2), opsel: 0b01, opselHi: 0b10}),
		)...)).To(Succeed())

		Expect(m.vgprF(3)).To(Equal(float32(12)))
		Expect(m.vgprF(4)).To(Equal(float32(11)))
	})

	Context("mixed precision", func() {
		BeforeEach(func() {
			m.setVF(0, 2)
			m.setVF(1, 3)
			m.setVF(2, 1)
			m.setV(3, oneTwo)
		})

		It("should compute in f32 when every source is f32", func() {
			Expect(m.run(vopp(voppFields{op: insts.VOPPFmaMixF32, vdst: 4,
				src0: v(0), src1: v(1), src2: v(2)})...)).To(Succeed())

			Expect(m.vgprF(4)).To(Equal(float32(7)))
		})

		It("should widen the selected f16 half", func() {
			m.setVF(1, -3)

			Expect(m.run(vopp(voppFields{op: insts.VOPPFmaMixF32, vdst: 4,
				src0: v(3), src1: v(1), src2: v(2),
				opsel: 0b001, opselHi: 0b001})...)).To(Succeed())

			Expect(m.vgprF(4)).To(Equal(float32(-5)))
		})

		It("should write the low half and clear the high half", func() {
			m.setV(4, 0xFFFFFFFF)

			Expect(m.run(vopp(voppFields{op: insts.VOPPFmaMixloF16, vdst: 4,
				src0: v(0), src1: v(1), src2: v(2)})...)).To(Succeed())

			Expect(m.vgpr(4)).To(Equal(uint32(0x00004700)))
		})

		It("should write the high half and keep the low half", func() {
			m.setV(4, 0x0000BEEF)

			Expect(m.run(vopp(voppFields{op: insts.VOPPFmaMixhiF16, vdst: 4,
				src0: v(0), src1: v(1), src2: v(2)})...)).To(Succeed())

			Expect(m.vgpr(4)).To(Equal(uint32(0x4700BEEF)))
		})
	})

	It("should run while EXEC is zero", func() {
		m.setV(0, oneTwo)

		Expect(m.run(prog(
			sop1(insts.SOP1MovB32, exec, 128),
			vopp(voppFields{op: insts.VOPPPkAddF16, vdst: 2,
				src0: v(0), src1: v(0), opselHi: 0b11}),
		)...)).To(Succeed())

		Expect(m.vgpr(2)).To(Equal(uint32(0x44004000)))
	})

	DescribeTable("should reject negation before writing",
		func(f voppFields) {
			m.setV(2, 0xCAFEF00D)

			err := m.run(vopp(f)...)

			Expect(errors.Is(err, emu.ErrUnsupportedModifier)).To(BeTrue())
			Expect(m.vgpr(2)).To(Equal(uint32(0xCAFEF00D)))
		},
		Entry("neg on f16", voppFields{op: insts.VOPPPkAddF16, vdst: 2,
			src0: v(0), src1: v(1), opselHi: 0b11, neg: 0b01}),
		Entry("neg_hi on integers", voppFields{op: insts.VOPPPkAddU16, vdst: 2,
			src0: v(0), src1: v(1), opselHi: 0b11, negHi: 0b10}),
		Entry("neg_hi on mixed precision", voppFields{op: insts.VOPPFmaMixF32, vdst: 2,
			src0: v(0), src1: v(1), src2: v(0), negHi: 0b001}),
	)

	It("should reject clamp", func() {
		err := m.run(vopp(voppFields{op: insts.VOPPPkAddF16, vdst: 2,
			src0: v(0), src1: v(1), clamp: true})...)

		Expect(errors.Is(err, emu.ErrUnsupportedModifier)).To(BeTrue())
	})

	It("should reject unknown opcodes", func() {
		err := m.run(vopp(voppFields{op: 9, vdst: 2, src0: v(0), src1: v(1)})...)

		Expect(errors.Is(err, emu.ErrUnsupportedInstruction)).To(BeTrue())
	})
})
