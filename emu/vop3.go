package emu

import (
	"math"
	"math/bits"

	"github.com/sarchlab/wavesim/insts"
)

func intTernary(fn func(a, b, c uint32) uint32) valuOp {
	return valuOp{
		kind: kindInt, srcs: [3]Width{Width32, Width32, Width32}, dst: Width32,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(fn(uint32(s[0]), uint32(s[1]), uint32(s[2])))
		},
	}
}

func int16Binary(fn func(a, b uint16) uint16) valuOp {
	return valuOp{
		kind: kindInt, srcs: [3]Width{Width16, Width16}, dst: Width16,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(fn(uint16(s[0]), uint16(s[1])))
		},
	}
}

func f32Ternary3(fn func(a, b, c float32) float32) valuOp {
	return f32Ternary(thirdNone, fn)
}

func f64Binary(fn func(a, b float64) float64) valuOp {
	return valuOp{
		kind: kindF64, srcs: [3]Width{Width64, Width64}, dst: Width64,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return f64bits(fn(f64frombits(s[0]), f64frombits(s[1])))
		},
	}
}

// shift64 shifts a 64-bit second source by the low bits of the first.
func shift64(fn func(shift uint32, v uint64) uint64) valuOp {
	return valuOp{
		kind: kindInt, srcs: [3]Width{Width32, Width64}, dst: Width64,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return fn(uint32(s[0])&63, s[1])
		},
	}
}

func med3[T int32 | uint32](a, b, c T) T {
	return max(min(a, b), min(max(a, b), c))
}

func med3F32(a, b, c float32) float32 {
	return maxNumF32(minNumF32(a, b), minNumF32(maxNumF32(a, b), c))
}

func divFmas(a, b, c float32, scale bool) float32 {
	r := fmaF32(a, b, c)
	if scale {
		return float32(math.Ldexp(float64(r), 32))
	}
	return r
}

var vop3Ops = map[uint16]valuOp{
	insts.VOP3MadI32I24: intTernary(func(a, b, c uint32) uint32 {
		return uint32(sext24(a)*sext24(b)) + c
	}),
	insts.VOP3MadU32U24: intTernary(func(a, b, c uint32) uint32 {
		return uint32(zext24(a)*zext24(b)) + c
	}),
	insts.VOP3BfeU32: intTernary(func(a, b, c uint32) uint32 {
		return bfeU32(a, b&31, c&31)
	}),
	insts.VOP3BfeI32: intTernary(func(a, b, c uint32) uint32 {
		return bfeI32(a, b&31, c&31)
	}),
	insts.VOP3BfiB32: intTernary(func(a, b, c uint32) uint32 { return a&b | ^a&c }),
	insts.VOP3FmaF32: f32Ternary3(fmaF32),
	insts.VOP3FmaF64: {
		kind: kindF64, srcs: [3]Width{Width64, Width64, Width64}, dst: Width64,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return f64bits(math.FMA(f64frombits(s[0]), f64frombits(s[1]), f64frombits(s[2])))
		},
	},
	insts.VOP3Min3F32: f32Ternary3(func(a, b, c float32) float32 {
		return minNumF32(minNumF32(a, b), c)
	}),
	insts.VOP3Min3I32: intTernary(func(a, b, c uint32) uint32 {
		return uint32(min(int32(a), int32(b), int32(c)))
	}),
	insts.VOP3Min3U32: intTernary(func(a, b, c uint32) uint32 { return min(a, b, c) }),
	insts.VOP3Max3F32: f32Ternary3(func(a, b, c float32) float32 {
		return maxNumF32(maxNumF32(a, b), c)
	}),
	insts.VOP3Max3I32: intTernary(func(a, b, c uint32) uint32 {
		return uint32(max(int32(a), int32(b), int32(c)))
	}),
	insts.VOP3Max3U32: intTernary(func(a, b, c uint32) uint32 { return max(a, b, c) }),
	insts.VOP3Med3F32: f32Ternary3(med3F32),
	insts.VOP3Med3I32: intTernary(func(a, b, c uint32) uint32 {
		return uint32(med3(int32(a), int32(b), int32(c)))
	}),
	insts.VOP3Med3U32:     intTernary(med3[uint32]),
	insts.VOP3DivFixupF32: f32Ternary3(func(_, b, c float32) float32 { return c / b }),
	insts.VOP3DivFmasF32: {
		kind: kindF32, srcs: [3]Width{Width32, Width32, Width32}, dst: Width32,
		fn: func(s [3]uint64, r *RegFile) uint64 {
			return uint64(f32bits(divFmas(f32frombits(uint32(s[0])),
				f32frombits(uint32(s[1])), f32frombits(uint32(s[2])), r.VCC.IsSet())))
		},
	},
	insts.VOP3Xor3B32:    intTernary(func(a, b, c uint32) uint32 { return a ^ b ^ c }),
	insts.VOP3XadU32:     intTernary(func(a, b, c uint32) uint32 { return (a ^ b) + c }),
	insts.VOP3LshlAddU32: intTernary(func(a, b, c uint32) uint32 { return a<<(b&31) + c }),
	insts.VOP3AddLshlU32: intTernary(func(a, b, c uint32) uint32 { return (a + b) << (c & 31) }),
	insts.VOP3Add3U32:    intTernary(func(a, b, c uint32) uint32 { return a + b + c }),
	insts.VOP3LshlOrB32:  intTernary(func(a, b, c uint32) uint32 { return a<<(b&31) | c }),
	insts.VOP3AndOrB32:   intTernary(func(a, b, c uint32) uint32 { return a&b | c }),
	insts.VOP3Or3B32:     intTernary(func(a, b, c uint32) uint32 { return a | b | c }),

	insts.VOP3AddNcU16: int16Binary(func(a, b uint16) uint16 { return a + b }),
	insts.VOP3SubNcU16: int16Binary(func(a, b uint16) uint16 { return a - b }),
	insts.VOP3MulLoU16: int16Binary(func(a, b uint16) uint16 { return a * b }),
	insts.VOP3PackB32F16: {
		kind: kindF16, srcs: [3]Width{Width16, Width16}, dst: Width32,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return s[1]<<16 | s[0]
		},
	},
	insts.VOP3LdexpF32: {
		kind: kindF32, srcs: [3]Width{Width32, Width32}, dst: Width32, ints: 0b10,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			f := math.Ldexp(float64(f32frombits(uint32(s[0]))), int(int32(s[1])))
			return uint64(f32bits(float32(f)))
		},
	},
	insts.VOP3AddF64: f64Binary(func(a, b float64) float64 { return a + b }),
	insts.VOP3MulF64: f64Binary(func(a, b float64) float64 { return a * b }),
	insts.VOP3MinF64: f64Binary(minNumF64),
	insts.VOP3MaxF64: f64Binary(maxNumF64),
	insts.VOP3LdexpF64: {
		kind: kindF64, srcs: [3]Width{Width64, Width32}, dst: Width64, ints: 0b10,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return f64bits(math.Ldexp(f64frombits(s[0]), int(int32(s[1]))))
		},
	},
	insts.VOP3MulLoU32: intBinary(func(a, b uint32) uint32 { return a * b }),
	insts.VOP3MulHiU32: intBinary(func(a, b uint32) uint32 {
		hi, _ := bits.Mul32(a, b)
		return hi
	}),
	insts.VOP3MulHiI32: intBinary(func(a, b uint32) uint32 {
		return uint32((int64(int32(a)) * int64(int32(b))) >> 32)
	}),
	insts.VOP3LshlrevB16: int16Binary(func(a, b uint16) uint16 { return b << (a & 15) }),
	insts.VOP3LshrrevB16: int16Binary(func(a, b uint16) uint16 { return b >> (a & 15) }),
	insts.VOP3AshrrevI16: int16Binary(func(a, b uint16) uint16 {
		return uint16(int16(b) >> (a & 15))
	}),
	insts.VOP3LshlrevB64: shift64(func(n uint32, v uint64) uint64 { return v << n }),
	insts.VOP3LshrrevB64: shift64(func(n uint32, v uint64) uint64 { return v >> n }),
	insts.VOP3AshrrevI64: shift64(func(n uint32, v uint64) uint64 { return uint64(int64(v) >> n) }),
}

// ExecVOP3 executes a VOP3 instruction. Opcodes below 512 re-encode the
// compare, VOP2 and VOP1 operations with source modifiers.
func (v *VectorALU) ExecVOP3(inst *insts.Instruction) error {
	if insts.IsVOPSD(inst.Op) {
		return v.execVOPSD(inst)
	}
	if inst.Clamp {
		return unsupportedModifier("clamp")
	}
	if inst.OMod != 0 {
		return unsupportedModifier("output modifier")
	}

	mods := vop3Mods{abs: inst.Abs, neg: inst.Neg, opsel: inst.OpSel}
	codes := [3]uint16{inst.Src0, inst.Src1, inst.Src2}

	switch inst.Op {
	case insts.VOP3CndmaskB32:
		cond, err := v.operands.Value(inst.Src2, Width32)
		if err != nil {
			return err
		}
		return v.cndmask(inst.VDst, inst.Src0, inst.Src1, cond != 0, mods)
	case insts.VOP3ReadlaneB32:
		return v.readLane(inst)
	case insts.VOP3WritelaneB32:
		return v.writeLane(inst)
	case insts.VOP3VOP1Base + insts.VOP1Nop:
		return nil
	case insts.VOP3VOP1Base + insts.VOP1ReadfirstlaneB32:
		return v.readFirstLane(inst)
	}

	var (
		op valuOp
		ok bool
	)
	switch {
	case inst.Op < insts.VOP3VOP2Base:
		return v.execVOP3Compare(inst)
	case inst.Op < insts.VOP3VOP1Base:
		op, ok = vop2Ops[inst.Op-insts.VOP3VOP2Base]
		ok = ok && op.third != thirdLiteral
	case inst.Op < insts.VOP3Native:
		op, ok = vop1Ops[inst.Op-insts.VOP3VOP1Base]
	default:
		op, ok = vop3Ops[inst.Op]
	}
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}

	return v.run(op, inst.VDst, codes, mods)
}

func (v *VectorALU) readLane(inst *insts.Instruction) error {
	if inst.Src0 < insts.OperandVGPR {
		return invalidOperand(inst.Src0)
	}
	lane, err := v.operands.U32(inst.Src1)
	if err != nil {
		return err
	}

	value := v.regFile.VGPR.ReadLane(int(lane%WaveSize), int(inst.Src0-insts.OperandVGPR))
	return v.operands.WriteSDst(inst.VDst, value)
}

func (v *VectorALU) writeLane(inst *insts.Instruction) error {
	if err := checkVGPR(inst.VDst, Width32); err != nil {
		return err
	}
	value, err := v.operands.U32(inst.Src0)
	if err != nil {
		return err
	}
	lane, err := v.operands.U32(inst.Src1)
	if err != nil {
		return err
	}

	v.regFile.VGPR.WriteLane(int(lane%WaveSize), int(inst.VDst), value)
	return nil
}

// execVOPSD executes the VOP3 operations that also write a scalar carry or
// flag destination.
func (v *VectorALU) execVOPSD(inst *insts.Instruction) error {
	if inst.Clamp {
		return unsupportedModifier("clamp")
	}
	if inst.OMod != 0 {
		return unsupportedModifier("output modifier")
	}
	if inst.Op != insts.VOP3DivScaleF32 && inst.Neg != 0 {
		return unsupportedModifier("negate on integer operands")
	}

	sdst := uint16(inst.SDst)
	if err := v.operands.CheckSDst(sdst); err != nil {
		return err
	}

	var (
		result uint64
		width  = Width32
		flag   bool
	)

	switch inst.Op {
	case insts.VOP3AddCoCiU32, insts.VOP3SubCoCiU32, insts.VOP3SubrevCoCiU32:
		a, b, c, err := v.sources3(inst, Width32, Width32, Width32)
		if err != nil {
			return err
		}
		var r uint32
		r, flag = carryOp(inst.Op-insts.VOP3AddCoCiU32, uint32(a), uint32(b), uint32(c&1))
		result = uint64(r)

	case insts.VOP3AddCoU32, insts.VOP3SubCoU32, insts.VOP3SubrevCoU32:
		a, b, _, err := v.sources3(inst, Width32, Width32, 0)
		if err != nil {
			return err
		}
		var r uint32
		r, flag = carryOp(inst.Op-insts.VOP3AddCoU32, uint32(a), uint32(b), 0)
		result = uint64(r)

	case insts.VOP3DivScaleF32:
		a, err := v.operands.Value(inst.Src0, Width32)
		if err != nil {
			return err
		}
		result = vop3Mods{neg: inst.Neg}.apply(a, kindF32, 0)

	case insts.VOP3MadU64U32:
		a, b, c, err := v.sources3(inst, Width32, Width32, Width64)
		if err != nil {
			return err
		}
		var carry uint64
		result, carry = bits.Add64(a*b, c, 0)
		width, flag = Width64, carry != 0

	case insts.VOP3MadI64I32:
		a, b, c, err := v.sources3(inst, Width32, Width32, Width64)
		if err != nil {
			return err
		}
		p := int64(int32(a)) * int64(int32(b))
		sum := p + int64(c)
		result = uint64(sum)
		width, flag = Width64, (p^sum)&(int64(c)^sum) < 0

	default:
		return unsupportedOp(inst.Format, inst.Op)
	}

	if err := checkVGPR(inst.VDst, width); err != nil {
		return err
	}
	v.write(inst.VDst, width, result, false)
	return v.operands.WriteSDst(sdst, b2u(flag))
}

// sources3 resolves up to three sources at the given widths. A zero width
// skips the source.
func (v *VectorALU) sources3(inst *insts.Instruction, w0, w1, w2 Width) (a, b, c uint64, err error) {
	codes := [3]uint16{inst.Src0, inst.Src1, inst.Src2}
	var out [3]uint64
	for i, w := range [3]Width{w0, w1, w2} {
		if w == 0 {
			continue
		}
		if out[i], err = v.operands.Value(codes[i], w); err != nil {
			return 0, 0, 0, err
		}
	}
	return out[0], out[1], out[2], nil
}
