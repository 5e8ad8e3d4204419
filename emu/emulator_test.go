package emu_test

import (
	"bytes"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wavesim/emu"
	"github.com/sarchlab/wavesim/insts"
)

var _ = Describe("Emulator", func() {
	var m *machine

	BeforeEach(func() {
		m = newMachine()
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(m.e).NotTo(BeNil())
			Expect(m.e.RegFile()).NotTo(BeNil())
			Expect(m.e.LDS()).To(BeIdenticalTo(m.lds))
			Expect(m.e.Stats()).To(BeIdenticalTo(m.stats))
		})

		It("should keep private stats when none are supplied", func() {
			e := emu.NewEmulator(emu.NewLDS(0), emu.NewMemory(1<<16))

			Expect(e.Interpret([]uint32{sop1(insts.SOP1MovB32, 0, one), insts.EndProgram})).To(Succeed())
			Expect(e.Stats().Instructions).To(Equal(uint64(1)))
		})
	})

	Describe("Interpret", func() {
		It("should reset PC, VCC and EXEC but keep registers", func() {
			m.e.RegFile().VCC.Assign(1)
			m.e.RegFile().EXEC = 0
			m.setS(7, 42)

			Expect(m.run()).To(Succeed())

			Expect(m.e.RegFile().EXEC).To(Equal(uint32(1)))
			Expect(m.e.RegFile().VCC.Value()).To(Equal(uint32(0)))
			Expect(m.e.RegFile().PC).To(Equal(uint64(1)))
			Expect(m.sgpr(7)).To(Equal(uint32(42)))
		})

		It("should stop at the end-of-program word", func() {
			program := []uint32{
				sop1(insts.SOP1MovB32, 2, one),
				insts.EndProgram,
				sop1(insts.SOP1MovB32, 3, one),
			}

			Expect(m.e.Interpret(program)).To(Succeed())

			Expect(m.sgpr(2)).To(Equal(uint32(1)))
			Expect(m.sgpr(3)).To(Equal(uint32(0)))
			Expect(m.e.InstructionCount()).To(Equal(uint64(1)))
		})

		It("should ignore scheduling hints", func() {
			Expect(m.run(
				0xBF800000, // s_nop 0
				0xBF890007, // s_waitcnt
				0xBF870091, // s_delay_alu
				insts.SendMsgDealloc,
				sop1(insts.SOP1MovB32, 2, two),
			)).To(Succeed())

			Expect(m.sgpr(2)).To(Equal(uint32(2)))
			Expect(m.stats.Noops).To(Equal(uint64(4)))
			Expect(m.stats.Instructions).To(Equal(uint64(5)))
		})

		It("should leave every register and LDS untouched on scheduling hints", func() {
			m.e.Load([]uint32{
				0xBF800000, // s_nop 0
				0xBF890007, // s_waitcnt
				0xBF870091, // s_delay_alu
				insts.SendMsgDealloc,
				insts.EndProgram,
			})
			rf := m.e.RegFile()
			rf.SCC = true
			rf.VCC.Assign(1)
			rf.EXEC = 0x5
			m.setS(3, 0xDEADBEEF)
			m.setS(104, 7)
			m.setV(0, 0x12345678)
			m.setV(255, 0xCAFEF00D)
			m.lds.Write(4, []byte{1, 2, 3, 4})

			before := *rf
			ldsBefore := append([]byte(nil), m.lds.Bytes()...)

			for {
				res := m.e.Step()
				Expect(res.Err).NotTo(HaveOccurred())
				if res.Done {
					break
				}
			}

			after := *rf
			after.PC = before.PC
			Expect(after).To(Equal(before))
			Expect(rf.PC).To(Equal(uint64(5)))
			Expect(m.lds.Bytes()).To(Equal(ldsBefore))
			Expect(m.stats.Noops).To(Equal(uint64(4)))
		})

		It("should fail when the program runs off its end", func() {
			err := m.e.Interpret([]uint32{sop1(insts.SOP1MovB32, 2, two)})

			Expect(errors.Is(err, emu.ErrProgramOverrun)).To(BeTrue())
		})

		It("should fail on a truncated 64-bit instruction", func() {
			err := m.e.Interpret([]uint32{0xD5000000})

			Expect(errors.Is(err, emu.ErrProgramOverrun)).To(BeTrue())
			var instErr *emu.InstructionError
			Expect(errors.As(err, &instErr)).To(BeTrue())
			Expect(instErr.Format).To(Equal(insts.FormatVOP3))
		})

		It("should fail on an unknown encoding", func() {
			err := m.run(0xFC000000)

			Expect(errors.Is(err, emu.ErrUnsupportedInstruction)).To(BeTrue())
			var instErr *emu.InstructionError
			Expect(errors.As(err, &instErr)).To(BeTrue())
			Expect(instErr.Word).To(Equal(uint32(0xFC000000)))
			Expect(instErr.Format).To(Equal(insts.FormatUnknown))
		})

		It("should stop at the instruction limit", func() {
			m = newMachine(emu.WithMaxInstructions(10))

			err := m.run(sopp(insts.SOPPBranch, -1))

			Expect(errors.Is(err, emu.ErrInstructionLimit)).To(BeTrue())
			Expect(m.e.InstructionCount()).To(Equal(uint64(10)))
		})
	})

	Describe("Predication", func() {
		It("should skip vector instructions and their literal while EXEC is zero", func() {
			Expect(m.run(
				sop1(insts.SOP1MovB32, exec, 128),
				vop1(insts.VOP1MovB32, 1, literal), 0x1234,
				sop1(insts.SOP1MovB32, 2, 135),
			)).To(Succeed())

			Expect(m.vgpr(1)).To(Equal(uint32(0)))
			Expect(m.sgpr(2)).To(Equal(uint32(7)))
			Expect(m.stats.Skipped).To(Equal(uint64(1)))
			Expect(m.stats.LiteralFetches).To(Equal(uint64(1)))
		})

		It("should skip the implicit literal of fmamk", func() {
			Expect(m.run(
				sop1(insts.SOP1MovB32, exec, 128),
				vop2(insts.VOP2FmamkF32, 1, v(2), 3), f32(2),
				sop1(insts.SOP1MovB32, 2, 135),
			)).To(Succeed())

			Expect(m.sgpr(2)).To(Equal(uint32(7)))
		})

		It("should skip 64-bit vector encodings", func() {
			Expect(m.run(prog(
				sop1(insts.SOP1MovB32, exec, 128),
				vop3(vop3Fields{op: insts.VOP3Add3U32, vdst: 1, src0: one, src1: one, src2: literal}), 5,
				sop1(insts.SOP1MovB32, 2, 135),
			)...)).To(Succeed())

			Expect(m.vgpr(1)).To(Equal(uint32(0)))
			Expect(m.sgpr(2)).To(Equal(uint32(7)))
		})

		It("should never skip scalar instructions", func() {
			Expect(m.run(
				sop1(insts.SOP1MovB32, exec, 128),
				sop1(insts.SOP1MovB32, 4, 135),
			)).To(Succeed())

			Expect(m.sgpr(4)).To(Equal(uint32(7)))
			Expect(m.stats.Skipped).To(Equal(uint64(0)))
		})

		It("should execute packed math regardless of EXEC", func() {
			m.setV(0, 0x00010002)
			m.setV(1, 0x00030004)

			Expect(m.run(prog(
				sop1(insts.SOP1MovB32, exec, 128),
				vopp(voppFields{op: insts.VOPPPkAddU16, vdst: 2, src0: v(0), src1: v(1), opselHi: 3}),
			)...)).To(Succeed())

			Expect(m.vgpr(2)).To(Equal(uint32(0x00040006)))
		})
	})

	Describe("Stats", func() {
		It("should count instructions per format", func() {
			Expect(m.run(
				sop1(insts.SOP1MovB32, 2, one),
				sop2(insts.SOP2AddU32, 2, 2, one),
				vop1(insts.VOP1MovB32, 0, 2),
			)).To(Succeed())

			Expect(m.stats.ByFormat[insts.FormatSOP1]).To(Equal(uint64(1)))
			Expect(m.stats.ByFormat[insts.FormatSOP2]).To(Equal(uint64(1)))
			Expect(m.stats.ByFormat[insts.FormatVOP1]).To(Equal(uint64(1)))
			Expect(m.stats.Wavefronts).To(Equal(uint64(1)))
		})

		It("should merge counters", func() {
			a := &emu.Stats{Instructions: 3, LDSLoads: 1}
			a.ByFormat[insts.FormatSOP1] = 2
			b := &emu.Stats{Instructions: 4, LDSStores: 2}
			b.ByFormat[insts.FormatSOP1] = 1

			a.Merge(b)

			Expect(a.Instructions).To(Equal(uint64(7)))
			Expect(a.LDSOps()).To(Equal(uint64(3)))
			Expect(a.ByFormat[insts.FormatSOP1]).To(Equal(uint64(3)))
		})
	})

	Describe("Tracing", func() {
		It("should log each instruction at debug level", func() {
			buf := &bytes.Buffer{}
			logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			m = newMachine(emu.WithTracer(logger, emu.TraceState))

			Expect(m.run(sop1(insts.SOP1MovB32, 2, one))).To(Succeed())

			Expect(buf.String()).To(ContainSubstring("format=SOP1"))
			Expect(buf.String()).To(ContainSubstring("exec=0x00000001"))
			Expect(buf.String()).To(ContainSubstring("end of program"))
		})

		It("should stay silent when tracing is off", func() {
			buf := &bytes.Buffer{}
			logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			m = newMachine(emu.WithTracer(logger, emu.TraceOff))

			Expect(m.run(sop1(insts.SOP1MovB32, 2, one))).To(Succeed())

			Expect(buf.Len()).To(BeZero())
		})

		DescribeTable("parsing trace levels",
			func(name string, expected emu.TraceLevel) {
				level, err := emu.ParseTraceLevel(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(level).To(Equal(expected))
				Expect(level.String()).To(Equal(name))
			},
			Entry("off", "off", emu.TraceOff),
			Entry("instructions", "instructions", emu.TraceInstructions),
			Entry("state", "state", emu.TraceState),
		)

		It("should reject an unknown trace level", func() {
			_, err := emu.ParseTraceLevel("verbose")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Reset", func() {
		It("should clear every register", func() {
			m.setS(3, 1)
			m.setV(3, 1)
			m.e.RegFile().SCC = true

			m.e.Reset()

			Expect(m.sgpr(3)).To(BeZero())
			Expect(m.vgpr(3)).To(BeZero())
			Expect(m.e.RegFile().SCC).To(BeFalse())
		})
	})
})
