package emu

import (
	"math"

	"github.com/sarchlab/wavesim/insts"
)

// packedOp computes one 16-bit half of a packed instruction.
type packedOp struct {
	three bool
	fn    func(a, b, c uint16) uint16
}

func packed2(fn func(a, b uint16) uint16) packedOp {
	return packedOp{fn: func(a, b, _ uint16) uint16 { return fn(a, b) }}
}

var voppOps = map[uint16]packedOp{
	insts.VOPPPkMulLoU16:   packed2(func(a, b uint16) uint16 { return a * b }),
	insts.VOPPPkAddI16:     packed2(func(a, b uint16) uint16 { return a + b }),
	insts.VOPPPkSubI16:     packed2(func(a, b uint16) uint16 { return a - b }),
	insts.VOPPPkLshlrevB16: packed2(func(a, b uint16) uint16 { return b << (a & 15) }),
	insts.VOPPPkLshrrevB16: packed2(func(a, b uint16) uint16 { return b >> (a & 15) }),
	insts.VOPPPkAshrrevI16: packed2(func(a, b uint16) uint16 { return uint16(int16(b) >> (a & 15)) }),
	insts.VOPPPkMaxI16:     packed2(func(a, b uint16) uint16 { return uint16(max(int16(a), int16(b))) }),
	insts.VOPPPkMinI16:     packed2(func(a, b uint16) uint16 { return uint16(min(int16(a), int16(b))) }),
	insts.VOPPPkAddU16:     packed2(func(a, b uint16) uint16 { return a + b }),
	insts.VOPPPkSubU16:     packed2(func(a, b uint16) uint16 { return a - b }),
	insts.VOPPPkMaxU16:     packed2(func(a, b uint16) uint16 { return max(a, b) }),
	insts.VOPPPkMinU16:     packed2(func(a, b uint16) uint16 { return min(a, b) }),
	insts.VOPPPkFmaF16:     {three: true, fn: fmaF16},
	insts.VOPPPkAddF16:     packed2(addF16),
	insts.VOPPPkMulF16:     packed2(mulF16),
	insts.VOPPPkMinF16:     packed2(minNumF16),
	insts.VOPPPkMaxF16:     packed2(maxNumF16),
}

// half selects the upper 16 bits of v when hi is set.
func half(v uint32, hi bool) uint16 {
	if hi {
		return uint16(v >> 16)
	}
	return uint16(v)
}

func bit(mask uint8, i int) bool { return mask>>i&1 == 1 }

// ExecVOPP executes a packed instruction. Each result half picks its input
// halves through op_sel (low result) and op_sel_hi (high result).
func (v *VectorALU) ExecVOPP(inst *insts.Instruction) error {
	if inst.Clamp {
		return unsupportedModifier("clamp")
	}
	if inst.Neg != 0 || inst.NegHi != 0 {
		return unsupportedModifier("negate on packed operands")
	}
	if err := checkVGPR(inst.VDst, Width32); err != nil {
		return err
	}

	switch inst.Op {
	case insts.VOPPDot2F32F16:
		return v.dot2(inst)
	case insts.VOPPFmaMixF32, insts.VOPPFmaMixloF16, insts.VOPPFmaMixhiF16:
		return v.fmaMix(inst)
	}

	op, ok := voppOps[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}
	n := 2
	if op.three {
		n = 3
	}
	s, err := v.packedSources(inst, n)
	if err != nil {
		return err
	}

	lo := packedHalf(op, s, inst.OpSel)
	hi := packedHalf(op, s, inst.OpSelHi)
	v.regFile.VGPR.Write(int(inst.VDst), uint32(hi)<<16|uint32(lo))
	return nil
}

func (v *VectorALU) packedSources(inst *insts.Instruction, n int) ([3]uint32, error) {
	var s [3]uint32
	codes := [3]uint16{inst.Src0, inst.Src1, inst.Src2}
	for i := range n {
		var err error
		if s[i], err = v.operands.U32(codes[i]); err != nil {
			return s, err
		}
	}
	return s, nil
}

func packedHalf(op packedOp, s [3]uint32, sel uint8) uint16 {
	return op.fn(half(s[0], bit(sel, 0)), half(s[1], bit(sel, 1)), half(s[2], bit(sel, 2)))
}

// dot2 accumulates the products of both f16 halves into an f32 addend.
func (v *VectorALU) dot2(inst *insts.Instruction) error {
	s, err := v.packedSources(inst, 3)
	if err != nil {
		return err
	}

	var ab [2]uint32
	for i := range ab {
		lo := half(s[i], bit(inst.OpSel, i))
		hi := half(s[i], bit(inst.OpSelHi, i))
		ab[i] = uint32(hi)<<16 | uint32(lo)
	}

	v.regFile.VGPR.Write(int(inst.VDst), f32bits(dot2F16(ab[0], ab[1], f32frombits(s[2]), f16ToF32)))
	return nil
}

// fmaMix computes a fused multiply-add over sources that are each either an
// f32 (op_sel_hi clear) or the f16 half chosen by op_sel.
func (v *VectorALU) fmaMix(inst *insts.Instruction) error {
	s, err := v.packedSources(inst, 3)
	if err != nil {
		return err
	}

	var in [3]float32
	for i := range in {
		in[i] = f32frombits(s[i])
		if bit(inst.OpSelHi, i) {
			in[i] = f16ToF32(half(s[i], bit(inst.OpSel, i)))
		}
	}

	reg := int(inst.VDst)
	if inst.Op == insts.VOPPFmaMixF32 {
		v.regFile.VGPR.Write(reg, f32bits(fmaF32(in[0], in[1], in[2])))
		return nil
	}

	r := uint32(f64ToF16(math.FMA(float64(in[0]), float64(in[1]), float64(in[2]))))
	if inst.Op == insts.VOPPFmaMixloF16 {
		v.regFile.VGPR.Write(reg, r)
	} else {
		old := v.regFile.VGPR.Read(reg)
		v.regFile.VGPR.Write(reg, old&0xFFFF|r<<16)
	}
	return nil
}
