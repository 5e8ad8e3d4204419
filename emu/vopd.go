package emu

import "github.com/sarchlab/wavesim/insts"

// vopdOp is one half of a dual-issue instruction.
type vopdOp func(a, b, acc, k uint32, vcc bool) uint32

func vopdF32(fn func(a, b float32) float32) vopdOp {
	return func(a, b, _, _ uint32, _ bool) uint32 {
		return f32bits(fn(f32frombits(a), f32frombits(b)))
	}
}

func vopdFMA(order func(a, b, acc, k float32) (float32, float32, float32)) vopdOp {
	return func(a, b, acc, k uint32, _ bool) uint32 {
		x, y, z := order(f32frombits(a), f32frombits(b), f32frombits(acc), f32frombits(k))
		return f32bits(fmaF32(x, y, z))
	}
}

var vopdOps = map[uint16]vopdOp{
	insts.VOPDFmacF32: vopdFMA(func(a, b, acc, _ float32) (float32, float32, float32) {
		return a, b, acc
	}),
	insts.VOPDFmaakF32: vopdFMA(func(a, b, _, k float32) (float32, float32, float32) {
		return a, b, k
	}),
	insts.VOPDFmamkF32: vopdFMA(func(a, b, _, k float32) (float32, float32, float32) {
		return a, k, b
	}),
	insts.VOPDMulF32:        vopdF32(mulF32),
	insts.VOPDAddF32:        vopdF32(func(a, b float32) float32 { return a + b }),
	insts.VOPDSubF32:        vopdF32(func(a, b float32) float32 { return a - b }),
	insts.VOPDSubrevF32:     vopdF32(func(a, b float32) float32 { return b - a }),
	insts.VOPDMulDx9ZeroF32: vopdF32(mulDx9Zero),
	insts.VOPDMovB32:        func(a, _, _, _ uint32, _ bool) uint32 { return a },
	insts.VOPDCndmaskB32: func(a, b, _, _ uint32, vcc bool) uint32 {
		if vcc {
			return b
		}
		return a
	},
	insts.VOPDMaxF32: vopdF32(maxNumF32),
	insts.VOPDMinF32: vopdF32(minNumF32),
	insts.VOPDDot2accF32F16: func(a, b, acc, _ uint32, _ bool) uint32 {
		return f32bits(dot2F16(a, b, f32frombits(acc), f16ToF32))
	},
	insts.VOPDDot2accF32BF16: func(a, b, acc, _ uint32, _ bool) uint32 {
		return f32bits(dot2F16(a, b, f32frombits(acc), bf16ToF32))
	},
	insts.VOPDAddNcU32:   func(a, b, _, _ uint32, _ bool) uint32 { return a + b },
	insts.VOPDLshlrevB32: func(a, b, _, _ uint32, _ bool) uint32 { return b << (a & 31) },
	insts.VOPDAndB32:     func(a, b, _, _ uint32, _ bool) uint32 { return a & b },
}

// vopdXLimit is the last opcode the X half accepts.
const vopdXLimit = insts.VOPDDot2accF32BF16

// ExecVOPD executes both halves of a dual-issue instruction. Both halves read
// their sources before either result is written.
func (v *VectorALU) ExecVOPD(inst *insts.Instruction) error {
	opX, ok := vopdOps[inst.Op]
	if !ok || inst.Op > vopdXLimit {
		return unsupportedOp(inst.Format, inst.Op)
	}
	opY, ok := vopdOps[inst.OpY]
	if !ok {
		return unsupportedOp(inst.Format, inst.OpY)
	}
	if err := checkVGPR(inst.VDst, Width32); err != nil {
		return err
	}
	if err := checkVGPR(inst.VDstY, Width32); err != nil {
		return err
	}

	var k uint32
	if insts.VOPDUsesLiteral(inst.Op) || insts.VOPDUsesLiteral(inst.OpY) {
		var err error
		if k, err = v.operands.Literal(); err != nil {
			return err
		}
	}

	srcs := [4]uint16{inst.Src0, inst.Src1, inst.SrcY0, inst.SrcY1}
	var vals [4]uint32
	for i, code := range srcs {
		var err error
		if vals[i], err = v.operands.U32(code); err != nil {
			return err
		}
	}

	vcc := v.regFile.VCC.IsSet()
	vgpr := &v.regFile.VGPR
	x := opX(vals[0], vals[1], vgpr.Read(int(inst.VDst)), k, vcc)
	y := opY(vals[2], vals[3], vgpr.Read(int(inst.VDstY)), k, vcc)

	vgpr.Write(int(inst.VDst), x)
	vgpr.Write(int(inst.VDstY), y)
	return nil
}
