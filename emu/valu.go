package emu

import (
	"math"
	"math/bits"

	"github.com/sarchlab/wavesim/insts"
)

// operandKind tells which source modifiers apply to an operation.
type operandKind uint8

const (
	kindInt operandKind = iota
	kindF16
	kindF32
	kindF64
)

func (k operandKind) signBit() uint64 {
	switch k {
	case kindF16:
		return signBit16
	case kindF32:
		return signBit32
	default:
		return signBit64
	}
}

// thirdSource names where a VOP2 operation's third input comes from.
type thirdSource uint8

const (
	thirdNone thirdSource = iota
	thirdDst
	thirdLiteral
)

// valuOp is one vector ALU operation. It is shared by the VOP1, VOP2 and
// VOP3 encodings of the same opcode.
type valuOp struct {
	kind  operandKind
	srcs  [3]Width // zero marks an unused source
	dst   Width
	third thirdSource
	ints  uint8 // integer sources of a float operation
	fn    func(s [3]uint64, r *RegFile) uint64
}

// intSource reports whether source i carries an integer.
func (op valuOp) intSource(i int) bool {
	return op.kind == kindInt || op.ints>>i&1 == 1
}

func f32Unary(fn func(a float32) float32) valuOp {
	return valuOp{
		kind: kindF32, srcs: [3]Width{Width32}, dst: Width32,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(f32bits(fn(f32frombits(uint32(s[0])))))
		},
	}
}

func f64Unary(fn func(a float64) float64) valuOp {
	return valuOp{
		kind: kindF64, srcs: [3]Width{Width64}, dst: Width64,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return f64bits(fn(f64frombits(s[0])))
		},
	}
}

func intUnary(fn func(a uint32) uint32) valuOp {
	return valuOp{
		kind: kindInt, srcs: [3]Width{Width32}, dst: Width32,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(fn(uint32(s[0])))
		},
	}
}

// convert builds a conversion with explicit source and destination widths.
func convert(kind operandKind, src, dst Width, fn func(a uint64) uint64) valuOp {
	return valuOp{
		kind: kind, srcs: [3]Width{src}, dst: dst,
		fn: func(s [3]uint64, _ *RegFile) uint64 { return fn(s[0]) },
	}
}

func f32Binary(fn func(a, b float32) float32) valuOp {
	return valuOp{
		kind: kindF32, srcs: [3]Width{Width32, Width32}, dst: Width32,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(f32bits(fn(f32frombits(uint32(s[0])), f32frombits(uint32(s[1])))))
		},
	}
}

// f32Ternary builds an operation whose third input is supplied by the
// encoding (accumulator destination or literal).
func f32Ternary(third thirdSource, fn func(a, b, c float32) float32) valuOp {
	return valuOp{
		kind: kindF32, srcs: [3]Width{Width32, Width32, Width32}, dst: Width32,
		third: third,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(f32bits(fn(f32frombits(uint32(s[0])),
				f32frombits(uint32(s[1])), f32frombits(uint32(s[2])))))
		},
	}
}

func f16Binary(fn func(a, b uint16) uint16) valuOp {
	return valuOp{
		kind: kindF16, srcs: [3]Width{Width16, Width16}, dst: Width16,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(fn(uint16(s[0]), uint16(s[1])))
		},
	}
}

func f16Ternary(third thirdSource, fn func(a, b, c uint16) uint16) valuOp {
	return valuOp{
		kind: kindF16, srcs: [3]Width{Width16, Width16, Width16}, dst: Width16,
		third: third,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(fn(uint16(s[0]), uint16(s[1]), uint16(s[2])))
		},
	}
}

func intBinary(fn func(a, b uint32) uint32) valuOp {
	return valuOp{
		kind: kindInt, srcs: [3]Width{Width32, Width32}, dst: Width32,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			return uint64(fn(uint32(s[0]), uint32(s[1])))
		},
	}
}

// cvtUbyte converts byte n of the source to float.
func cvtUbyte(n uint) valuOp {
	return intUnaryToF32(func(a uint32) float32 { return float32((a >> (8 * n)) & 0xFF) })
}

func intUnaryToF32(fn func(a uint32) float32) valuOp {
	return convert(kindInt, Width32, Width32, func(a uint64) uint64 {
		return uint64(f32bits(fn(uint32(a))))
	})
}

func f32ToInt(fn func(a float32) uint32) valuOp {
	return convert(kindF32, Width32, Width32, func(a uint64) uint64 {
		return uint64(fn(f32frombits(uint32(a))))
	})
}

func f32Math(fn func(x float64) float64) valuOp {
	return f32Unary(func(a float32) float32 { return float32(fn(float64(a))) })
}

var vop1Ops = map[uint16]valuOp{
	insts.VOP1MovB32: intUnary(func(a uint32) uint32 { return a }),

	insts.VOP1CvtI32F64: convert(kindF64, Width64, Width32, func(a uint64) uint64 {
		return uint64(uint32(floatToI32(f64frombits(a))))
	}),
	insts.VOP1CvtF64I32: convert(kindInt, Width32, Width64, func(a uint64) uint64 {
		return f64bits(float64(int32(a)))
	}),
	insts.VOP1CvtF32I32: intUnaryToF32(func(a uint32) float32 { return float32(int32(a)) }),
	insts.VOP1CvtF32U32: intUnaryToF32(func(a uint32) float32 { return float32(a) }),
	insts.VOP1CvtU32F32: f32ToInt(func(a float32) uint32 { return floatToU32(float64(a)) }),
	insts.VOP1CvtI32F32: f32ToInt(func(a float32) uint32 { return uint32(floatToI32(float64(a))) }),
	insts.VOP1CvtF16F32: convert(kindF32, Width32, Width16, func(a uint64) uint64 {
		return uint64(f32ToF16(f32frombits(uint32(a))))
	}),
	insts.VOP1CvtF32F16: convert(kindF16, Width16, Width32, func(a uint64) uint64 {
		return uint64(f32bits(f16ToF32(uint16(a))))
	}),
	insts.VOP1CvtNearestI32F32: f32ToInt(func(a float32) uint32 {
		return uint32(floatToI32(math.Floor(float64(a) + 0.5)))
	}),
	insts.VOP1CvtFloorI32F32: f32ToInt(func(a float32) uint32 {
		return uint32(floatToI32(math.Floor(float64(a))))
	}),
	insts.VOP1CvtF32F64: convert(kindF64, Width64, Width32, func(a uint64) uint64 {
		return uint64(f32bits(float32(f64frombits(a))))
	}),
	insts.VOP1CvtF64F32: convert(kindF32, Width32, Width64, func(a uint64) uint64 {
		return f64bits(float64(f32frombits(uint32(a))))
	}),
	insts.VOP1CvtF32Ubyte0: cvtUbyte(0),
	insts.VOP1CvtF32Ubyte1: cvtUbyte(1),
	insts.VOP1CvtF32Ubyte2: cvtUbyte(2),
	insts.VOP1CvtF32Ubyte3: cvtUbyte(3),
	insts.VOP1CvtU32F64: convert(kindF64, Width64, Width32, func(a uint64) uint64 {
		return uint64(floatToU32(f64frombits(a)))
	}),
	insts.VOP1CvtF64U32: convert(kindInt, Width32, Width64, func(a uint64) uint64 {
		return f64bits(float64(uint32(a)))
	}),
	insts.VOP1TruncF64: f64Unary(math.Trunc),
	insts.VOP1CeilF64:  f64Unary(math.Ceil),
	insts.VOP1RndneF64: f64Unary(math.RoundToEven),
	insts.VOP1FloorF64: f64Unary(math.Floor),
	insts.VOP1RcpF64:   f64Unary(func(a float64) float64 { return 1 / a }),
	insts.VOP1SqrtF64:  f64Unary(math.Sqrt),

	insts.VOP1FractF32:    f32Unary(fractF32),
	insts.VOP1TruncF32:    f32Math(math.Trunc),
	insts.VOP1CeilF32:     f32Math(math.Ceil),
	insts.VOP1RndneF32:    f32Math(math.RoundToEven),
	insts.VOP1FloorF32:    f32Math(math.Floor),
	insts.VOP1ExpF32:      f32Math(math.Exp2),
	insts.VOP1LogF32:      f32Math(math.Log2),
	insts.VOP1RcpF32:      f32Unary(func(a float32) float32 { return 1 / a }),
	insts.VOP1RcpIflagF32: f32Unary(func(a float32) float32 { return 1 / a }),
	insts.VOP1RsqF32:      f32Math(func(x float64) float64 { return 1 / math.Sqrt(x) }),
	insts.VOP1SqrtF32:     f32Math(math.Sqrt),
	insts.VOP1SinF32:      f32Math(func(x float64) float64 { return math.Sin(x * 2 * math.Pi) }),
	insts.VOP1CosF32:      f32Math(func(x float64) float64 { return math.Cos(x * 2 * math.Pi) }),

	insts.VOP1NotB32:    intUnary(func(a uint32) uint32 { return ^a }),
	insts.VOP1BfrevB32:  intUnary(bits.Reverse32),
	insts.VOP1ClzI32U32: intUnary(clz32),
	insts.VOP1CtzI32B32: intUnary(ctz32),
	insts.VOP1ClsI32:    intUnary(cls32),

	insts.VOP1CvtF16U16: convert(kindInt, Width16, Width16, func(a uint64) uint64 {
		return uint64(f32ToF16(float32(uint16(a))))
	}),
	insts.VOP1CvtF16I16: convert(kindInt, Width16, Width16, func(a uint64) uint64 {
		return uint64(f32ToF16(float32(int16(a))))
	}),
	insts.VOP1CvtU16F16: convert(kindF16, Width16, Width16, func(a uint64) uint64 {
		return uint64(floatToU16(float64(f16ToF32(uint16(a)))))
	}),
	insts.VOP1CvtI16F16: convert(kindF16, Width16, Width16, func(a uint64) uint64 {
		return uint64(uint16(floatToI16(float64(f16ToF32(uint16(a))))))
	}),
}

// mul24 helpers operate on the low 24 bits of each source.
func sext24(v uint32) int64 { return int64(int32(v<<8) >> 8) }
func zext24(v uint32) uint64 { return uint64(v & 0xFFFFFF) }

// dot2F16 accumulates the two half-precision products of a and b into acc,
// rounding after each step.
func dot2F16(a, b uint32, acc float32, widen func(uint16) float32) float32 {
	acc += mulF32(widen(uint16(a)), widen(uint16(b)))
	acc += mulF32(widen(uint16(a>>16)), widen(uint16(b>>16)))
	return acc
}

func mulDx9Zero(a, b float32) float32 {
	if a == 0 || b == 0 {
		return 0
	}
	return mulF32(a, b)
}

var vop2Ops = map[uint16]valuOp{
	insts.VOP2Dot2accF32F16: {
		kind: kindInt, srcs: [3]Width{Width32, Width32, Width32}, dst: Width32,
		third: thirdDst,
		fn: func(s [3]uint64, _ *RegFile) uint64 {
			acc := dot2F16(uint32(s[0]), uint32(s[1]), f32frombits(uint32(s[2])), f16ToF32)
			return uint64(f32bits(acc))
		},
	},
	insts.VOP2AddF32:        f32Binary(func(a, b float32) float32 { return a + b }),
	insts.VOP2SubF32:        f32Binary(func(a, b float32) float32 { return a - b }),
	insts.VOP2SubrevF32:     f32Binary(func(a, b float32) float32 { return b - a }),
	insts.VOP2MulDx9ZeroF32: f32Binary(mulDx9Zero),
	insts.VOP2MulF32:        f32Binary(mulF32),
	insts.VOP2MinF32:        f32Binary(minNumF32),
	insts.VOP2MaxF32:        f32Binary(maxNumF32),

	insts.VOP2MulI32I24: intBinary(func(a, b uint32) uint32 {
		return uint32(sext24(a) * sext24(b))
	}),
	insts.VOP2MulHiI32I24: intBinary(func(a, b uint32) uint32 {
		return uint32((sext24(a) * sext24(b)) >> 32)
	}),
	insts.VOP2MulU32U24: intBinary(func(a, b uint32) uint32 {
		return uint32(zext24(a) * zext24(b))
	}),
	insts.VOP2MulHiU32U24: intBinary(func(a, b uint32) uint32 {
		return uint32((zext24(a) * zext24(b)) >> 32)
	}),
	insts.VOP2MinI32: intBinary(func(a, b uint32) uint32 {
		return uint32(min(int32(a), int32(b)))
	}),
	insts.VOP2MaxI32: intBinary(func(a, b uint32) uint32 {
		return uint32(max(int32(a), int32(b)))
	}),
	insts.VOP2MinU32:     intBinary(func(a, b uint32) uint32 { return min(a, b) }),
	insts.VOP2MaxU32:     intBinary(func(a, b uint32) uint32 { return max(a, b) }),
	insts.VOP2LshlrevB32: intBinary(func(a, b uint32) uint32 { return b << (a & 31) }),
	insts.VOP2LshrrevB32: intBinary(func(a, b uint32) uint32 { return b >> (a & 31) }),
	insts.VOP2AshrrevI32: intBinary(func(a, b uint32) uint32 { return uint32(int32(b) >> (a & 31)) }),
	insts.VOP2AndB32:     intBinary(func(a, b uint32) uint32 { return a & b }),
	insts.VOP2OrB32:      intBinary(func(a, b uint32) uint32 { return a | b }),
	insts.VOP2XorB32:     intBinary(func(a, b uint32) uint32 { return a ^ b }),
	insts.VOP2XnorB32:    intBinary(func(a, b uint32) uint32 { return ^(a ^ b) }),
	insts.VOP2AddNcU32:   intBinary(func(a, b uint32) uint32 { return a + b }),
	insts.VOP2SubNcU32:   intBinary(func(a, b uint32) uint32 { return a - b }),
	insts.VOP2SubrevNcU32: intBinary(func(a, b uint32) uint32 { return b - a }),

	insts.VOP2FmacF32:  f32Ternary(thirdDst, fmaF32),
	insts.VOP2FmamkF32: f32Ternary(thirdLiteral, func(a, b, k float32) float32 { return fmaF32(a, k, b) }),
	insts.VOP2FmaakF32: f32Ternary(thirdLiteral, fmaF32),

	insts.VOP2AddF16:    f16Binary(addF16),
	insts.VOP2SubF16:    f16Binary(subF16),
	insts.VOP2SubrevF16: f16Binary(func(a, b uint16) uint16 { return subF16(b, a) }),
	insts.VOP2MulF16:    f16Binary(mulF16),
	insts.VOP2MaxF16:    f16Binary(maxNumF16),
	insts.VOP2MinF16:    f16Binary(minNumF16),
	insts.VOP2FmacF16:   f16Ternary(thirdDst, fmaF16),
	insts.VOP2FmamkF16:  f16Ternary(thirdLiteral, func(a, b, k uint16) uint16 { return fmaF16(a, k, b) }),
	insts.VOP2FmaakF16:  f16Ternary(thirdLiteral, fmaF16),
}

// VectorALU implements the vector ALU families. Every operation acts on the
// current lane of the vector register file.
type VectorALU struct {
	regFile  *RegFile
	operands *OperandResolver
}

// NewVectorALU creates a new VectorALU.
func NewVectorALU(regFile *RegFile, operands *OperandResolver) *VectorALU {
	return &VectorALU{regFile: regFile, operands: operands}
}

// ExecVOP1 executes a VOP1 instruction.
func (v *VectorALU) ExecVOP1(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.VOP1Nop:
		return nil
	case insts.VOP1ReadfirstlaneB32:
		return v.readFirstLane(inst)
	}

	op, ok := vop1Ops[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}
	return v.run(op, inst.VDst, [3]uint16{inst.Src0}, vop3Mods{})
}

// readFirstLane copies a VGPR of the lowest active lane into an SGPR.
func (v *VectorALU) readFirstLane(inst *insts.Instruction) error {
	var value uint32
	if inst.Src0 >= insts.OperandVGPR {
		lane := 0
		if v.regFile.EXEC != 0 {
			lane = bits.TrailingZeros32(v.regFile.EXEC)
		}
		value = v.regFile.VGPR.ReadLane(lane, int(inst.Src0-insts.OperandVGPR))
	} else {
		var err error
		if value, err = v.operands.U32(inst.Src0); err != nil {
			return err
		}
	}
	return v.operands.WriteSDst(inst.VDst, value)
}

// ExecVOP2 executes a VOP2 instruction.
func (v *VectorALU) ExecVOP2(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.VOP2CndmaskB32:
		return v.cndmask(inst.VDst, inst.Src0, inst.Src1, v.regFile.VCC.IsSet(), vop3Mods{})
	case insts.VOP2AddCoCiU32, insts.VOP2SubCoCiU32, insts.VOP2SubrevCoCiU32:
		return v.carryOpVOP2(inst)
	}

	op, ok := vop2Ops[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}
	return v.run(op, inst.VDst, [3]uint16{inst.Src0, inst.Src1}, vop3Mods{})
}

func (v *VectorALU) cndmask(vdst, src0, src1 uint16, cond bool, mods vop3Mods) error {
	if err := checkVGPR(vdst, Width32); err != nil {
		return err
	}

	var s [2]uint64
	for i, code := range [2]uint16{src0, src1} {
		val, err := v.operands.Value(code, Width32)
		if err != nil {
			return err
		}
		s[i] = mods.apply(val, kindF32, i)
	}

	if cond {
		v.regFile.VGPR.Write(int(vdst), uint32(s[1]))
	} else {
		v.regFile.VGPR.Write(int(vdst), uint32(s[0]))
	}
	return nil
}

func (v *VectorALU) carryOpVOP2(inst *insts.Instruction) error {
	a, err := v.operands.U32(inst.Src0)
	if err != nil {
		return err
	}
	b, err := v.operands.U32(inst.Src1)
	if err != nil {
		return err
	}
	if err := checkVGPR(inst.VDst, Width32); err != nil {
		return err
	}

	r, carry := carryOp(inst.Op-insts.VOP2AddCoCiU32, a, b, v.regFile.VCC.Value())
	v.regFile.VGPR.Write(int(inst.VDst), r)
	v.regFile.VCC.AssignBool(carry)
	return nil
}

// carryOp evaluates add (0), sub (1) or subrev (2) with a carry or borrow
// input, returning the result and the carry or borrow output.
func carryOp(kind uint16, a, b, cin uint32) (uint32, bool) {
	switch kind {
	case 0:
		sum := uint64(a) + uint64(b) + uint64(cin)
		return uint32(sum), sum>>32 != 0
	case 1:
		return a - b - cin, uint64(b)+uint64(cin) > uint64(a)
	default:
		return b - a - cin, uint64(a)+uint64(cin) > uint64(b)
	}
}

// vop3Mods holds the VOP3 source and destination modifiers.
type vop3Mods struct {
	abs, neg uint8
	opsel    uint8
}

func (m vop3Mods) any() bool {
	return m.abs != 0 || m.neg != 0
}

// apply applies abs then neg to source i.
func (m vop3Mods) apply(v uint64, kind operandKind, i int) uint64 {
	sign := kind.signBit()
	if m.abs>>i&1 == 1 {
		v &^= sign
	}
	if m.neg>>i&1 == 1 {
		v ^= sign
	}
	return v
}

// checkVGPR validates a vector destination of the given width.
func checkVGPR(vdst uint16, width Width) error {
	if int(vdst) >= VGPRCount || (width == Width64 && int(vdst)+1 >= VGPRCount) {
		return invalidOperand(insts.OperandVGPR + vdst)
	}
	return nil
}

// run resolves the sources of op, applies modifiers, evaluates it and
// commits the result to vdst.
func (v *VectorALU) run(op valuOp, vdst uint16, codes [3]uint16, mods vop3Mods) error {
	if err := checkVGPR(vdst, op.dst); err != nil {
		return err
	}

	var s [3]uint64
	for i, width := range op.srcs {
		if width == 0 {
			continue
		}

		var (
			val uint64
			err error
		)
		switch {
		case i == 2 && op.third == thirdDst:
			val, err = v.operands.Value(insts.OperandVGPR+vdst, width)
		case i == 2 && op.third == thirdLiteral:
			var lit uint32
			lit, err = v.operands.Literal()
			val = truncate(uint64(lit), width)
		case width == Width16 && mods.opsel>>i&1 == 1:
			val, err = v.operands.Value(codes[i], Width32)
			val >>= 16
		default:
			val, err = v.operands.Value(codes[i], width)
		}
		if err != nil {
			return err
		}

		switch {
		case !op.intSource(i):
			val = mods.apply(val, op.kind, i)
		case (mods.abs|mods.neg)>>i&1 == 1:
			return unsupportedModifier("negate/abs on integer operands")
		}
		s[i] = val
	}

	v.write(vdst, op.dst, op.fn(s, v.regFile), mods.opsel>>3&1 == 1)
	return nil
}

// write stores a result of the given width. 16-bit results replace the
// whole register unless hi selects the upper half, which keeps the lower.
func (v *VectorALU) write(vdst uint16, width Width, value uint64, hi bool) {
	reg := int(vdst)
	switch {
	case width == Width64:
		v.regFile.VGPR.Write64(reg, value)
	case width == Width16 && hi:
		old := v.regFile.VGPR.Read(reg)
		v.regFile.VGPR.Write(reg, old&0xFFFF|uint32(value&0xFFFF)<<16)
	case width == Width16:
		v.regFile.VGPR.Write(reg, uint32(value&0xFFFF))
	default:
		v.regFile.VGPR.Write(reg, uint32(value))
	}
}
