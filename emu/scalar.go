package emu

import (
	"math"
	"math/bits"

	"github.com/sarchlab/wavesim/insts"
)

// scalarResult is the complete effect of a scalar instruction, computed
// before anything is committed.
type scalarResult struct {
	value   uint64
	scc     bool
	setSCC  bool
	exec    uint32
	setEXEC bool
	noWrite bool
}

func result(v uint64) scalarResult {
	return scalarResult{value: v}
}

func resultSCC(v uint64, scc bool) scalarResult {
	return scalarResult{value: v, scc: scc, setSCC: true}
}

// resultNZ sets SCC when the result is non-zero.
func resultNZ(v uint64) scalarResult {
	return resultSCC(v, v != 0)
}

func sccOnly(scc bool) scalarResult {
	return scalarResult{scc: scc, setSCC: true, noWrite: true}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// clz32 counts leading zeros; zero input yields all ones.
func clz32(v uint32) uint32 {
	if v == 0 {
		return math.MaxUint32
	}
	return uint32(bits.LeadingZeros32(v))
}

// ctz32 counts trailing zeros; zero input yields all ones.
func ctz32(v uint32) uint32 {
	if v == 0 {
		return math.MaxUint32
	}
	return uint32(bits.TrailingZeros32(v))
}

// cls32 returns the position of the first bit, counting from bit 30 down,
// that differs from the sign bit. Inputs made only of sign bits (0 and -1)
// yield all ones.
func cls32(v uint32) uint32 {
	s := int32(v)
	for i := uint32(1); i < 32; i++ {
		if s>>(31-i) != s>>31 {
			return i
		}
	}
	return math.MaxUint32
}

// bitMask returns width low bits set; widths of 32 or more give all ones.
func bitMask32(width uint32) uint32 {
	return uint32(1)<<width - 1
}

func bitMask64(width uint32) uint64 {
	return uint64(1)<<width - 1
}

// bfeU32 extracts an unsigned bitfield.
func bfeU32(v, offset, width uint32) uint32 {
	return (v >> (offset & 31)) & bitMask32(width)
}

// bfeI32 extracts a signed bitfield.
func bfeI32(v, offset, width uint32) uint32 {
	switch {
	case width == 0:
		return 0
	case width >= 32:
		return uint32(int32(v) >> (offset & 31))
	}
	field := bfeU32(v, offset, width)
	shift := 32 - width
	return uint32(int32(field<<shift) >> shift)
}

func addOverflow32(a, b, r uint32) bool {
	return (a>>31 == b>>31) && (a>>31 != r>>31)
}

func subOverflow32(a, b, r uint32) bool {
	return (a>>31 != b>>31) && (a>>31 != r>>31)
}

type sop2Op struct {
	wide0, wide1, wideDst bool
	fn                    func(a, b uint64, scc bool) scalarResult
}

// op32 wraps a 32-bit SOP2 operation.
func op32(fn func(a, b uint32, scc bool) scalarResult) sop2Op {
	return sop2Op{fn: func(a, b uint64, scc bool) scalarResult {
		return fn(uint32(a), uint32(b), scc)
	}}
}

// op64 wraps a SOP2 operation with a 64-bit first source and destination;
// wide1 selects a 64-bit second source.
func op64(wide1 bool, fn func(a, b uint64, scc bool) scalarResult) sop2Op {
	return sop2Op{wide0: true, wide1: wide1, wideDst: true, fn: fn}
}

func logic32(fn func(a, b uint32) uint32) sop2Op {
	return op32(func(a, b uint32, _ bool) scalarResult {
		return resultNZ(uint64(fn(a, b)))
	})
}

func logic64(fn func(a, b uint64) uint64) sop2Op {
	return op64(true, func(a, b uint64, _ bool) scalarResult {
		return resultNZ(fn(a, b))
	})
}

func lshlAdd(n uint) sop2Op {
	return op32(func(a, b uint32, _ bool) scalarResult {
		sum := uint64(a)<<n + uint64(b)
		return resultSCC(uint64(uint32(sum)), sum>>32 != 0)
	})
}

// pick returns a when cond holds and b otherwise; SCC records cond.
func pick(cond bool, a, b uint32) scalarResult {
	if cond {
		return resultSCC(uint64(a), true)
	}
	return resultSCC(uint64(b), false)
}

var sop2Ops = map[uint16]sop2Op{
	insts.SOP2AddU32: op32(func(a, b uint32, _ bool) scalarResult {
		sum := uint64(a) + uint64(b)
		return resultSCC(uint64(uint32(sum)), sum>>32 != 0)
	}),
	insts.SOP2SubU32: op32(func(a, b uint32, _ bool) scalarResult {
		return resultSCC(uint64(a-b), b > a)
	}),
	insts.SOP2AddI32: op32(func(a, b uint32, _ bool) scalarResult {
		r := a + b
		return resultSCC(uint64(r), addOverflow32(a, b, r))
	}),
	insts.SOP2SubI32: op32(func(a, b uint32, _ bool) scalarResult {
		r := a - b
		return resultSCC(uint64(r), subOverflow32(a, b, r))
	}),
	insts.SOP2AddcU32: op32(func(a, b uint32, scc bool) scalarResult {
		sum := uint64(a) + uint64(b) + uint64(b2u(scc))
		return resultSCC(uint64(uint32(sum)), sum>>32 != 0)
	}),
	insts.SOP2SubbU32: op32(func(a, b uint32, scc bool) scalarResult {
		borrow := uint64(b) + uint64(b2u(scc))
		return resultSCC(uint64(a-b-b2u(scc)), borrow > uint64(a))
	}),
	insts.SOP2AbsdiffI32: op32(func(a, b uint32, _ bool) scalarResult {
		d := int32(a - b)
		if d < 0 {
			d = -d
		}
		return resultNZ(uint64(uint32(d)))
	}),
	insts.SOP2LshlB32: logic32(func(a, b uint32) uint32 { return a << (b & 31) }),
	insts.SOP2LshrB32: logic32(func(a, b uint32) uint32 { return a >> (b & 31) }),
	insts.SOP2AshrI32: logic32(func(a, b uint32) uint32 { return uint32(int32(a) >> (b & 31)) }),
	insts.SOP2LshlB64: op64(false, func(a, b uint64, _ bool) scalarResult {
		return resultNZ(a << (b & 63))
	}),
	insts.SOP2LshrB64: op64(false, func(a, b uint64, _ bool) scalarResult {
		return resultNZ(a >> (b & 63))
	}),
	insts.SOP2AshrI64: op64(false, func(a, b uint64, _ bool) scalarResult {
		return resultNZ(uint64(int64(a) >> (b & 63)))
	}),
	insts.SOP2Lshl1AddU32: lshlAdd(1),
	insts.SOP2Lshl2AddU32: lshlAdd(2),
	insts.SOP2Lshl3AddU32: lshlAdd(3),
	insts.SOP2Lshl4AddU32: lshlAdd(4),
	insts.SOP2MinI32: op32(func(a, b uint32, _ bool) scalarResult {
		return pick(int32(a) < int32(b), a, b)
	}),
	insts.SOP2MinU32: op32(func(a, b uint32, _ bool) scalarResult {
		return pick(a < b, a, b)
	}),
	insts.SOP2MaxI32: op32(func(a, b uint32, _ bool) scalarResult {
		return pick(int32(a) > int32(b), a, b)
	}),
	insts.SOP2MaxU32: op32(func(a, b uint32, _ bool) scalarResult {
		return pick(a > b, a, b)
	}),
	insts.SOP2AndB32:     logic32(func(a, b uint32) uint32 { return a & b }),
	insts.SOP2OrB32:      logic32(func(a, b uint32) uint32 { return a | b }),
	insts.SOP2XorB32:     logic32(func(a, b uint32) uint32 { return a ^ b }),
	insts.SOP2NandB32:    logic32(func(a, b uint32) uint32 { return ^(a & b) }),
	insts.SOP2NorB32:     logic32(func(a, b uint32) uint32 { return ^(a | b) }),
	insts.SOP2XnorB32:    logic32(func(a, b uint32) uint32 { return ^(a ^ b) }),
	insts.SOP2AndNot1B32: logic32(func(a, b uint32) uint32 { return a &^ b }),
	insts.SOP2OrNot1B32:  logic32(func(a, b uint32) uint32 { return a | ^b }),
	insts.SOP2AndB64:     logic64(func(a, b uint64) uint64 { return a & b }),
	insts.SOP2OrB64:      logic64(func(a, b uint64) uint64 { return a | b }),
	insts.SOP2XorB64:     logic64(func(a, b uint64) uint64 { return a ^ b }),
	insts.SOP2AndNot1B64: logic64(func(a, b uint64) uint64 { return a &^ b }),
	insts.SOP2OrNot1B64:  logic64(func(a, b uint64) uint64 { return a | ^b }),
	insts.SOP2BfeU32: op32(func(a, b uint32, _ bool) scalarResult {
		return resultNZ(uint64(bfeU32(a, b, (b>>16)&0x7F)))
	}),
	insts.SOP2BfeI32: op32(func(a, b uint32, _ bool) scalarResult {
		return resultNZ(uint64(bfeI32(a, b, (b>>16)&0x7F)))
	}),
	insts.SOP2BfeU64: op64(false, func(a, b uint64, _ bool) scalarResult {
		return resultNZ((a >> (b & 63)) & bitMask64(uint32(b>>16)&0x7F))
	}),
	insts.SOP2BfeI64: op64(false, func(a, b uint64, _ bool) scalarResult {
		width := uint32(b>>16) & 0x7F
		field := (a >> (b & 63)) & bitMask64(width)
		switch {
		case width == 0:
			field = 0
		case width < 64:
			shift := 64 - width
			field = uint64(int64(field<<shift) >> shift)
		}
		return resultNZ(field)
	}),
	insts.SOP2BfmB32: op32(func(a, b uint32, _ bool) scalarResult {
		return result(uint64(bitMask32(a&31) << (b & 31)))
	}),
	insts.SOP2MulI32: op32(func(a, b uint32, _ bool) scalarResult {
		return result(uint64(uint32(int32(a) * int32(b))))
	}),
	insts.SOP2MulHiU32: op32(func(a, b uint32, _ bool) scalarResult {
		return result((uint64(a) * uint64(b)) >> 32)
	}),
	insts.SOP2MulHiI32: op32(func(a, b uint32, _ bool) scalarResult {
		return result(uint64(uint32((int64(int32(a)) * int64(int32(b))) >> 32)))
	}),
	insts.SOP2CselectB32: op32(func(a, b uint32, scc bool) scalarResult {
		if scc {
			return result(uint64(a))
		}
		return result(uint64(b))
	}),
	insts.SOP2CselectB64: op64(true, func(a, b uint64, scc bool) scalarResult {
		if scc {
			return result(a)
		}
		return result(b)
	}),
	insts.SOP2PackLLB32B16: op32(func(a, b uint32, _ bool) scalarResult {
		return result(uint64(b<<16 | a&0xFFFF))
	}),
	insts.SOP2PackLHB32B16: op32(func(a, b uint32, _ bool) scalarResult {
		return result(uint64(b&0xFFFF0000 | a&0xFFFF))
	}),
	insts.SOP2PackHHB32B16: op32(func(a, b uint32, _ bool) scalarResult {
		return result(uint64(b&0xFFFF0000 | a>>16))
	}),
	insts.SOP2PackHLB32B16: op32(func(a, b uint32, _ bool) scalarResult {
		return result(uint64(b<<16 | a>>16))
	}),
}

type sop1Op struct {
	wide    bool // 64-bit source and destination
	readDst bool // the current destination value is an input
	fn      func(s0, dst uint64, r *RegFile) scalarResult
}

func unary32(fn func(v uint32) scalarResult) sop1Op {
	return sop1Op{fn: func(s0, _ uint64, _ *RegFile) scalarResult {
		return fn(uint32(s0))
	}}
}

// saveexec builds an EXEC combinator: EXEC becomes fn(s0, EXEC), SCC tells
// whether any lane remains active, and the destination receives the old
// EXEC.
func saveexec(fn func(s0, exec uint32) uint32) sop1Op {
	return sop1Op{fn: func(s0, _ uint64, r *RegFile) scalarResult {
		exec := fn(uint32(s0), r.EXEC)
		return scalarResult{
			value:   uint64(r.EXEC),
			exec:    exec,
			setEXEC: true,
			scc:     exec != 0,
			setSCC:  true,
		}
	}}
}

var sop1Ops = map[uint16]sop1Op{
	insts.SOP1MovB32: unary32(func(v uint32) scalarResult { return result(uint64(v)) }),
	insts.SOP1MovB64: {wide: true, fn: func(s0, _ uint64, _ *RegFile) scalarResult {
		return result(s0)
	}},
	insts.SOP1CmovB32: {fn: func(s0, _ uint64, r *RegFile) scalarResult {
		if r.SCC {
			return result(s0 & math.MaxUint32)
		}
		return scalarResult{noWrite: true}
	}},
	insts.SOP1CmovB64: {wide: true, fn: func(s0, _ uint64, r *RegFile) scalarResult {
		if r.SCC {
			return result(s0)
		}
		return scalarResult{noWrite: true}
	}},
	insts.SOP1BrevB32: unary32(func(v uint32) scalarResult {
		return result(uint64(bits.Reverse32(v)))
	}),
	insts.SOP1CtzI32B32: unary32(func(v uint32) scalarResult { return result(uint64(ctz32(v))) }),
	insts.SOP1ClzI32U32: unary32(func(v uint32) scalarResult { return result(uint64(clz32(v))) }),
	insts.SOP1ClsI32:    unary32(func(v uint32) scalarResult { return result(uint64(cls32(v))) }),
	insts.SOP1SextI32I8: unary32(func(v uint32) scalarResult {
		return result(uint64(uint32(int32(int8(v)))))
	}),
	insts.SOP1SextI32I16: unary32(func(v uint32) scalarResult {
		return result(uint64(uint32(int32(int16(v)))))
	}),
	insts.SOP1Bitset0B32: {readDst: true, fn: func(s0, dst uint64, _ *RegFile) scalarResult {
		return result(uint64(uint32(dst) &^ (1 << (s0 & 31))))
	}},
	insts.SOP1Bitset1B32: {readDst: true, fn: func(s0, dst uint64, _ *RegFile) scalarResult {
		return result(uint64(uint32(dst) | 1<<(s0&31)))
	}},
	insts.SOP1AbsI32: unary32(func(v uint32) scalarResult {
		if int32(v) < 0 {
			v = -v
		}
		return resultNZ(uint64(v))
	}),
	insts.SOP1Bcnt0I32B32: unary32(func(v uint32) scalarResult {
		return resultNZ(uint64(32 - bits.OnesCount32(v)))
	}),
	insts.SOP1Bcnt1I32B32: unary32(func(v uint32) scalarResult {
		return resultNZ(uint64(bits.OnesCount32(v)))
	}),
	insts.SOP1NotB32: unary32(func(v uint32) scalarResult { return resultNZ(uint64(^v)) }),
	insts.SOP1NotB64: {wide: true, fn: func(s0, _ uint64, _ *RegFile) scalarResult {
		return resultNZ(^s0)
	}},
	insts.SOP1AndSaveexecB32:     saveexec(func(s, e uint32) uint32 { return s & e }),
	insts.SOP1OrSaveexecB32:      saveexec(func(s, e uint32) uint32 { return s | e }),
	insts.SOP1XorSaveexecB32:     saveexec(func(s, e uint32) uint32 { return s ^ e }),
	insts.SOP1NandSaveexecB32:    saveexec(func(s, e uint32) uint32 { return ^(s & e) }),
	insts.SOP1NorSaveexecB32:     saveexec(func(s, e uint32) uint32 { return ^(s | e) }),
	insts.SOP1XnorSaveexecB32:    saveexec(func(s, e uint32) uint32 { return ^(s ^ e) }),
	insts.SOP1AndNot0SaveexecB32: saveexec(func(s, e uint32) uint32 { return ^s & e }),
	insts.SOP1OrNot0SaveexecB32:  saveexec(func(s, e uint32) uint32 { return ^s | e }),
	insts.SOP1AndNot1SaveexecB32: saveexec(func(s, e uint32) uint32 { return s &^ e }),
	insts.SOP1OrNot1SaveexecB32:  saveexec(func(s, e uint32) uint32 { return s | ^e }),
}

type sopcOp struct {
	wide bool
	fn   func(a, b uint64) bool
}

func cmpI32(fn func(a, b int32) bool) sopcOp {
	return sopcOp{fn: func(a, b uint64) bool { return fn(int32(a), int32(b)) }}
}

func cmpU32(fn func(a, b uint32) bool) sopcOp {
	return sopcOp{fn: func(a, b uint64) bool { return fn(uint32(a), uint32(b)) }}
}

var sopcOps = map[uint16]sopcOp{
	insts.SOPCCmpEqI32:   cmpI32(func(a, b int32) bool { return a == b }),
	insts.SOPCCmpLgI32:   cmpI32(func(a, b int32) bool { return a != b }),
	insts.SOPCCmpGtI32:   cmpI32(func(a, b int32) bool { return a > b }),
	insts.SOPCCmpGeI32:   cmpI32(func(a, b int32) bool { return a >= b }),
	insts.SOPCCmpLtI32:   cmpI32(func(a, b int32) bool { return a < b }),
	insts.SOPCCmpLeI32:   cmpI32(func(a, b int32) bool { return a <= b }),
	insts.SOPCCmpEqU32:   cmpU32(func(a, b uint32) bool { return a == b }),
	insts.SOPCCmpLgU32:   cmpU32(func(a, b uint32) bool { return a != b }),
	insts.SOPCCmpGtU32:   cmpU32(func(a, b uint32) bool { return a > b }),
	insts.SOPCCmpGeU32:   cmpU32(func(a, b uint32) bool { return a >= b }),
	insts.SOPCCmpLtU32:   cmpU32(func(a, b uint32) bool { return a < b }),
	insts.SOPCCmpLeU32:   cmpU32(func(a, b uint32) bool { return a <= b }),
	insts.SOPCBitcmp0B32: cmpU32(func(a, b uint32) bool { return a>>(b&31)&1 == 0 }),
	insts.SOPCBitcmp1B32: cmpU32(func(a, b uint32) bool { return a>>(b&31)&1 == 1 }),
	insts.SOPCCmpEqU64:   {wide: true, fn: func(a, b uint64) bool { return a == b }},
	insts.SOPCCmpLgU64:   {wide: true, fn: func(a, b uint64) bool { return a != b }},
}

func widthOf(wide bool) Width {
	if wide {
		return Width64
	}
	return Width32
}

// ScalarALU implements the SOP1, SOP2, SOPC and SOPK families.
type ScalarALU struct {
	regFile  *RegFile
	operands *OperandResolver
}

// NewScalarALU creates a new ScalarALU.
func NewScalarALU(regFile *RegFile, operands *OperandResolver) *ScalarALU {
	return &ScalarALU{regFile: regFile, operands: operands}
}

// ExecSOP1 executes a SOP1 instruction.
func (s *ScalarALU) ExecSOP1(inst *insts.Instruction) error {
	op, ok := sop1Ops[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}

	width := widthOf(op.wide)
	s0, err := s.operands.Value(inst.Src0, width)
	if err != nil {
		return err
	}

	var dst uint64
	if op.readDst {
		if dst, err = s.operands.Value(uint16(inst.SDst), width); err != nil {
			return err
		}
	}

	return s.commit(uint16(inst.SDst), op.wide, op.fn(s0, dst, s.regFile))
}

// ExecSOP2 executes a SOP2 instruction.
func (s *ScalarALU) ExecSOP2(inst *insts.Instruction) error {
	op, ok := sop2Ops[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}

	a, err := s.operands.Value(inst.Src0, widthOf(op.wide0))
	if err != nil {
		return err
	}
	b, err := s.operands.Value(inst.Src1, widthOf(op.wide1))
	if err != nil {
		return err
	}

	return s.commit(uint16(inst.SDst), op.wideDst, op.fn(a, b, s.regFile.SCC))
}

// ExecSOPC executes a SOPC instruction. Only SCC is written.
func (s *ScalarALU) ExecSOPC(inst *insts.Instruction) error {
	op, ok := sopcOps[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}

	width := widthOf(op.wide)
	a, err := s.operands.Value(inst.Src0, width)
	if err != nil {
		return err
	}
	b, err := s.operands.Value(inst.Src1, width)
	if err != nil {
		return err
	}

	s.regFile.SCC = op.fn(a, b)
	return nil
}

// ExecSOPK executes a SOPK instruction. The destination register doubles as
// the first source.
func (s *ScalarALU) ExecSOPK(inst *insts.Instruction) error {
	sdst := uint16(inst.SDst)
	s0, err := s.operands.U32(sdst)
	if err != nil {
		return err
	}

	simm := inst.Simm16
	sext := uint32(int32(int16(simm)))

	var res scalarResult
	switch op := inst.Op; op {
	case insts.SOPKMovkI32:
		res = result(uint64(sext))
	case insts.SOPKCmovkI32:
		res = scalarResult{value: uint64(sext), noWrite: !s.regFile.SCC}
	case insts.SOPKCmpkEqI32, insts.SOPKCmpkLgI32, insts.SOPKCmpkGtI32,
		insts.SOPKCmpkGeI32, insts.SOPKCmpkLtI32, insts.SOPKCmpkLeI32:
		res = sccOnly(compareInt(op-insts.SOPKCmpkEqI32, int64(int32(s0)), int64(int32(sext))))
	case insts.SOPKCmpkEqU32, insts.SOPKCmpkLgU32, insts.SOPKCmpkGtU32,
		insts.SOPKCmpkGeU32, insts.SOPKCmpkLtU32, insts.SOPKCmpkLeU32:
		res = sccOnly(compareInt(op-insts.SOPKCmpkEqU32, int64(s0), int64(simm)))
	case insts.SOPKAddkI32:
		r := s0 + sext
		res = resultSCC(uint64(r), addOverflow32(s0, sext, r))
	case insts.SOPKMulkI32:
		res = result(uint64(uint32(int32(s0) * int32(sext))))
	default:
		return unsupportedOp(inst.Format, inst.Op)
	}

	return s.commit(sdst, false, res)
}

// compareInt evaluates the SOPK comparison order eq, lg, gt, ge, lt, le.
func compareInt(pred uint16, a, b int64) bool {
	switch pred {
	case 0:
		return a == b
	case 1:
		return a != b
	case 2:
		return a > b
	case 3:
		return a >= b
	case 4:
		return a < b
	default:
		return a <= b
	}
}

// commit validates the destination and then applies every effect of res.
func (s *ScalarALU) commit(sdst uint16, wide bool, res scalarResult) error {
	if !res.noWrite {
		if err := s.operands.CheckSDst(sdst); err != nil {
			return err
		}
		if wide && sdst <= lastSGPR && sdst+1 > lastSGPR {
			return invalidOperand(sdst)
		}
	}

	if res.setEXEC {
		s.regFile.EXEC = res.exec
	}
	if res.setSCC {
		s.regFile.SCC = res.scc
	}
	if res.noWrite {
		return nil
	}
	if wide {
		return s.operands.WriteSDst64(sdst, res.value)
	}
	return s.operands.WriteSDst(sdst, uint32(res.value))
}
