package emu_test

import (
	"math"

	"github.com/sarchlab/wavesim/emu"
	"github.com/sarchlab/wavesim/insts"
)

// Operand codes used throughout the tests.
const (
	vcc     = uint32(insts.OperandVCC)
	null    = uint32(insts.OperandNull)
	exec    = uint32(insts.OperandEXEC)
	literal = uint32(insts.OperandLiteral)
	one     = 129 // inline integer 1
	two     = 130 // inline integer 2
	minus1  = 193 // inline integer -1
	fOne    = 242 // inline float 1.0
	fTwo    = 244 // inline float 2.0
)

// v returns the operand code of VGPR n.
func v(n uint32) uint32 { return 256 + n }

// machine bundles an emulator with the memories it was created with.
type machine struct {
	e     *emu.Emulator
	mem   *emu.Memory
	lds   *emu.LDS
	stats *emu.Stats
}

func newMachine(opts ...emu.EmulatorOption) *machine {
	m := &machine{
		mem:   emu.NewMemory(1 << 20),
		lds:   emu.NewLDS(0),
		stats: &emu.Stats{},
	}
	opts = append([]emu.EmulatorOption{emu.WithStats(m.stats)}, opts...)
	m.e = emu.NewEmulator(m.lds, m.mem, opts...)
	return m
}

// run interprets words followed by s_endpgm.
func (m *machine) run(words ...uint32) error {
	return m.e.Interpret(append(words, insts.EndProgram))
}

func (m *machine) sgpr(i int) uint32    { return m.e.RegFile().ReadSGPR(i) }
func (m *machine) vgpr(i int) uint32    { return m.e.RegFile().ReadVGPR(i) }
func (m *machine) vgprF(i int) float32  { return m.e.RegFile().ReadVGPRF32(i) }
func (m *machine) setS(i int, v uint32) { m.e.RegFile().WriteSGPR(i, v) }
func (m *machine) setV(i int, v uint32) { m.e.RegFile().WriteVGPR(i, v) }
func (m *machine) setVF(i int, f float32) {
	m.e.RegFile().WriteVGPRF32(i, f)
}

func f32(f float32) uint32 { return math.Float32bits(f) }

// Encoders for the 32-bit formats.

func sop2(op uint16, sdst, src0, src1 uint32) uint32 {
	return 0b10<<30 | uint32(op)<<23 | sdst<<16 | src1<<8 | src0
}

func sop1(op uint16, sdst, src0 uint32) uint32 {
	return 0xBE800000 | sdst<<16 | uint32(op)<<8 | src0
}

func sopc(op uint16, src0, src1 uint32) uint32 {
	return 0xBF000000 | uint32(op)<<16 | src1<<8 | src0
}

func sopp(op uint16, simm int16) uint32 {
	return 0xBF800000 | uint32(op)<<16 | uint32(uint16(simm))
}

func sopk(op uint16, sdst uint32, simm uint16) uint32 {
	return 0xB0000000 | uint32(op)<<23 | sdst<<16 | uint32(simm)
}

func vop1(op uint16, vdst, src0 uint32) uint32 {
	return 0x7E000000 | vdst<<17 | uint32(op)<<9 | src0
}

func vop2(op uint16, vdst, src0, vsrc1 uint32) uint32 {
	return uint32(op)<<25 | vdst<<17 | vsrc1<<9 | src0
}

func vopc(op uint16, src0, vsrc1 uint32) uint32 {
	return 0x7C000000 | uint32(op)<<17 | vsrc1<<9 | src0
}

// Encoders for the 64-bit formats return the low and high words.

type vop3Fields struct {
	op                     uint16
	vdst, src0, src1, src2 uint32
	abs, neg, opsel, omod  uint32
	sdst                   uint32
	clamp                  bool
}

func vop3(f vop3Fields) []uint32 {
	lo := 0xD4000000 | uint32(f.op)<<16 | f.vdst
	if insts.IsVOPSD(f.op) {
		lo |= f.sdst << 8
	} else {
		lo |= f.abs<<8 | f.opsel<<11
	}
	if f.clamp {
		lo |= 1 << 15
	}
	hi := f.neg<<29 | f.omod<<27 | f.src2<<18 | f.src1<<9 | f.src0
	return []uint32{lo, hi}
}

type voppFields struct {
	op                         uint16
	vdst, src0, src1, src2     uint32
	opsel, opselHi, neg, negHi uint32
	clamp                      bool
}

func vopp(f voppFields) []uint32 {
	lo := 0xCC000000 | uint32(f.op)<<16 | (f.opselHi>>2)<<14 | f.opsel<<11 | f.negHi<<8 | f.vdst
	if f.clamp {
		lo |= 1 << 15
	}
	hi := f.neg<<29 | (f.opselHi&3)<<27 | f.src2<<18 | f.src1<<9 | f.src0
	return []uint32{lo, hi}
}

type vopdFields struct {
	opX, opY      uint16
	srcX0, vsrcX1 uint32
	srcY0, vsrcY1 uint32
	vdstX, vdstY  uint32
}

func vopd(f vopdFields) []uint32 {
	lo := 0xC8000000 | uint32(f.opX)<<22 | uint32(f.opY)<<17 | f.vsrcX1<<9 | f.srcX0
	hi := f.vdstX<<24 | (f.vdstY>>1)<<17 | f.vsrcY1<<9 | f.srcY0
	return []uint32{lo, hi}
}

func smem(op uint16, sdata, sbase uint32, offset int32, soffset uint32) []uint32 {
	lo := 0xF4000000 | uint32(op)<<18 | sdata<<6 | sbase>>1
	hi := soffset<<25 | uint32(offset)&0x1FFFFF
	return []uint32{lo, hi}
}

func ds(op uint16, vdst, addr, data0, offset0 uint32) []uint32 {
	lo := 0xD8000000 | uint32(op)<<18 | offset0
	hi := vdst<<24 | data0<<8 | addr
	return []uint32{lo, hi}
}

func global(op uint16, vdst, addr, data, saddr uint32, offset int32) []uint32 {
	lo := 0xDC000000 | uint32(op)<<18 | 2<<16 | uint32(offset)&0x1FFF
	hi := vdst<<24 | saddr<<16 | data<<8 | addr
	return []uint32{lo, hi}
}

// prog flattens instruction words.
func prog(parts ...any) []uint32 {
	var out []uint32
	for _, p := range parts {
		switch w := p.(type) {
		case uint32:
			out = append(out, w)
		case int:
			out = append(out, uint32(w))
		case []uint32:
			out = append(out, w...)
		}
	}
	return out
}
