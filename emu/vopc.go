package emu

import (
	"cmp"
	"math"

	"github.com/sarchlab/wavesim/insts"
)

// compareOp describes how a VOPC opcode reads and compares its sources.
type compareOp struct {
	kind  operandKind
	width Width
	class bool
	test  func(a, b uint64) bool
}

// lookupCompare decodes a VOPC opcode into its compare operation. The cmpx
// bit is ignored.
func lookupCompare(op uint16) (compareOp, bool) {
	op &^= insts.VOPCCmpxBit

	switch {
	case op < insts.VOPCF32Base:
		pred := op - insts.VOPCF16Base
		return compareOp{kind: kindF16, width: Width16, test: func(a, b uint64) bool {
			return floatPredicate(pred, float64(f16ToF32(uint16(a))), float64(f16ToF32(uint16(b))))
		}}, true
	case op < insts.VOPCF64Base:
		pred := op - insts.VOPCF32Base
		return compareOp{kind: kindF32, width: Width32, test: func(a, b uint64) bool {
			return floatPredicate(pred, float64(f32frombits(uint32(a))), float64(f32frombits(uint32(b))))
		}}, true
	case op < insts.VOPCI16Base:
		pred := op - insts.VOPCF64Base
		return compareOp{kind: kindF64, width: Width64, test: func(a, b uint64) bool {
			return floatPredicate(pred, f64frombits(a), f64frombits(b))
		}}, true
	case op < insts.VOPCU16Base:
		return intCompare(op-insts.VOPCI16Base, Width16, func(v uint64) int64 { return int64(int16(v)) }), true
	case op < insts.VOPCI32Base:
		return uintCompare(op-insts.VOPCU16Base, Width16), true
	case op < insts.VOPCU32Base:
		return intCompare(op-insts.VOPCI32Base, Width32, func(v uint64) int64 { return int64(int32(v)) }), true
	case op < insts.VOPCI64Base:
		return uintCompare(op-insts.VOPCU32Base, Width32), true
	case op < insts.VOPCU64Base:
		return intCompare(op-insts.VOPCI64Base, Width64, func(v uint64) int64 { return int64(v) }), true
	case op < insts.VOPCU64Base+8:
		return uintCompare(op-insts.VOPCU64Base, Width64), true
	case op == insts.VOPCClassF16:
		return classCompare(kindF16, Width16, func(v uint64) uint { return classF16(uint16(v)) }), true
	case op == insts.VOPCClassF32:
		return classCompare(kindF32, Width32, func(v uint64) uint { return classF32(uint32(v)) }), true
	case op == insts.VOPCClassF64:
		return classCompare(kindF64, Width64, classF64), true
	}

	return compareOp{}, false
}

func intCompare(pred uint16, width Width, sext func(uint64) int64) compareOp {
	return compareOp{kind: kindInt, width: width, test: func(a, b uint64) bool {
		return intPredicate(pred, sext(a), sext(b))
	}}
}

func uintCompare(pred uint16, width Width) compareOp {
	return compareOp{kind: kindInt, width: width, test: func(a, b uint64) bool {
		return intPredicate(pred, a, b)
	}}
}

// classCompare tests the class of the first source against the class mask
// held in the second.
func classCompare(kind operandKind, width Width, class func(uint64) uint) compareOp {
	return compareOp{kind: kind, width: width, class: true, test: func(a, mask uint64) bool {
		return mask>>class(a)&1 == 1
	}}
}

func floatPredicate(pred uint16, a, b float64) bool {
	unordered := math.IsNaN(a) || math.IsNaN(b)

	switch pred {
	case insts.CmpF:
		return false
	case insts.CmpLt:
		return a < b
	case insts.CmpEq:
		return a == b
	case insts.CmpLe:
		return a <= b
	case insts.CmpGt:
		return a > b
	case insts.CmpLg:
		return a < b || a > b
	case insts.CmpGe:
		return a >= b
	case insts.CmpO:
		return !unordered
	case insts.CmpU:
		return unordered
	case insts.CmpNge:
		return !(a >= b)
	case insts.CmpNlg:
		return !(a < b || a > b)
	case insts.CmpNgt:
		return !(a > b)
	case insts.CmpNle:
		return !(a <= b)
	case insts.CmpNeq:
		return !(a == b)
	case insts.CmpNlt:
		return !(a < b)
	default:
		return true
	}
}

func intPredicate[T cmp.Ordered](pred uint16, a, b T) bool {
	switch pred {
	case insts.CmpIntF:
		return false
	case insts.CmpIntLt:
		return a < b
	case insts.CmpIntEq:
		return a == b
	case insts.CmpIntLe:
		return a <= b
	case insts.CmpIntGt:
		return a > b
	case insts.CmpIntNe:
		return a != b
	case insts.CmpIntGe:
		return a >= b
	default:
		return true
	}
}

// ExecVOPC executes a VOPC instruction. Plain compares write VCC and the
// cmpx variants write EXEC.
func (v *VectorALU) ExecVOPC(inst *insts.Instruction) error {
	result, err := v.compare(inst.Op, inst.Src0, inst.Src1, vop3Mods{})
	if err != nil {
		return err
	}

	if inst.Op&insts.VOPCCmpxBit != 0 {
		v.regFile.EXEC = b2u(result)
	} else {
		v.regFile.VCC.AssignBool(result)
	}
	return nil
}

// execVOP3Compare executes a compare encoded in VOP3, which names its
// scalar destination explicitly.
func (v *VectorALU) execVOP3Compare(inst *insts.Instruction) error {
	result, err := v.compare(inst.Op, inst.Src0, inst.Src1, vop3Mods{abs: inst.Abs, neg: inst.Neg})
	if err != nil {
		return err
	}

	if inst.Op&insts.VOPCCmpxBit != 0 {
		v.regFile.EXEC = b2u(result)
		return nil
	}
	return v.operands.WriteSDst(inst.VDst, b2u(result))
}

func (v *VectorALU) compare(op, src0, src1 uint16, mods vop3Mods) (bool, error) {
	cmpOp, ok := lookupCompare(op)
	if !ok {
		return false, unsupportedOp(insts.FormatVOPC, op)
	}
	if cmpOp.kind == kindInt && mods.any() {
		return false, unsupportedModifier("negate/abs on integer operands")
	}

	a, err := v.operands.Value(src0, cmpOp.width)
	if err != nil {
		return false, err
	}

	bWidth := cmpOp.width
	if cmpOp.class {
		bWidth = Width32
	}
	b, err := v.operands.Value(src1, bWidth)
	if err != nil {
		return false, err
	}

	if cmpOp.kind != kindInt {
		a = mods.apply(a, cmpOp.kind, 0)
		if !cmpOp.class {
			b = mods.apply(b, cmpOp.kind, 1)
		}
	}

	return cmpOp.test(a, b), nil
}
