package emu

import "github.com/sarchlab/wavesim/insts"

// BranchCond evaluates a SOPP branch condition.
type BranchCond func(r *RegFile) bool

// SOPP branch conditions.
var branchConds = map[uint16]BranchCond{
	insts.SOPPBranch:        func(*RegFile) bool { return true },
	insts.SOPPCbranchSCC0:   func(r *RegFile) bool { return !r.SCC },
	insts.SOPPCbranchSCC1:   func(r *RegFile) bool { return r.SCC },
	insts.SOPPCbranchVCCZ:   func(r *RegFile) bool { return !r.VCC.IsSet() },
	insts.SOPPCbranchVCCNZ:  func(r *RegFile) bool { return r.VCC.IsSet() },
	insts.SOPPCbranchEXECZ:  func(r *RegFile) bool { return r.EXEC == 0 },
	insts.SOPPCbranchEXECNZ: func(r *RegFile) bool { return r.EXEC != 0 },
}

// BranchUnit implements program control instructions.
type BranchUnit struct {
	regFile *RegFile
	stats   *Stats
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile, stats *Stats) *BranchUnit {
	return &BranchUnit{regFile: regFile, stats: stats}
}

// Branch adds a signed word offset to the PC. The PC already points past the
// branch, so an offset of 0 falls through.
func (b *BranchUnit) Branch(offset int16) {
	b.regFile.PC = uint64(int64(b.regFile.PC) + int64(offset))
	b.stats.BranchesTaken++
}

// ExecSOPP executes a SOPP instruction.
func (b *BranchUnit) ExecSOPP(inst *insts.Instruction) error {
	cond, ok := branchConds[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}

	if cond(b.regFile) {
		b.Branch(int16(inst.Simm16))
	}
	return nil
}
