// Package emu provides functional emulation of RDNA3 wavefronts.
package emu

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/wavesim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Done is true once the end-of-program word has been fetched.
	Done bool

	// Skipped is true if a vector instruction was masked off by EXEC.
	Skipped bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes the program of one wavefront functionally.
type Emulator struct {
	regFile *RegFile
	decoder *insts.Decoder
	lds     *LDS
	memory  AddressSpace
	stats   *Stats
	tracer  tracer

	// Execution units
	operands   *OperandResolver
	salu       *ScalarALU
	valu       *VectorALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	program []uint32

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions one Interpret
// call may execute. A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithTracer logs every executed instruction to logger at Debug level.
func WithTracer(logger *slog.Logger, level TraceLevel) EmulatorOption {
	return func(e *Emulator) {
		e.tracer = tracer{logger: logger, level: level}
	}
}

// WithStats makes the emulator count into stats instead of a private
// counter set.
func WithStats(stats *Stats) EmulatorOption {
	return func(e *Emulator) {
		e.stats = stats
	}
}

// NewEmulator creates an emulator that uses lds as its local data share and
// memory as the target of scalar and global memory instructions. Both are
// owned by the caller.
func NewEmulator(lds *LDS, memory AddressSpace, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		decoder: insts.NewDecoder(),
		lds:     lds,
		memory:  memory,
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.stats == nil {
		e.stats = &Stats{}
	}

	e.operands = NewOperandResolver(e.regFile, e)
	e.salu = NewScalarALU(e.regFile, e.operands)
	e.valu = NewVectorALU(e.regFile, e.operands)
	e.lsu = NewLoadStoreUnit(e.regFile, e.operands, lds, memory, e.stats)
	e.branchUnit = NewBranchUnit(e.regFile, e.stats)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// LDS returns the local data share the emulator was created with.
func (e *Emulator) LDS() *LDS {
	return e.lds
}

// Stats returns the counters the emulator updates.
func (e *Emulator) Stats() *Stats {
	return e.stats
}

// InstructionCount returns the number of instructions executed by the last
// Interpret call, including skipped ones.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Reset clears every register. The LDS and memory are left untouched.
func (e *Emulator) Reset() {
	*e.regFile = RegFile{}
	e.program = e.program[:0]
	e.instructionCount = 0
}

// Load copies program and prepares a new wavefront: PC 0, VCC clear, EXEC
// with only the current lane active. SGPRs and VGPRs keep their values so
// callers can pre-load arguments.
func (e *Emulator) Load(program []uint32) {
	e.program = append(e.program[:0], program...)
	e.regFile.PC = 0
	e.regFile.VCC = 0
	e.regFile.EXEC = 1
	e.instructionCount = 0
}

// Interpret runs program until the end-of-program word. It fails with an
// *InstructionError on the first instruction that cannot be executed.
func (e *Emulator) Interpret(program []uint32) error {
	e.Load(program)
	e.stats.Wavefronts++

	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Done {
			return nil
		}
	}
}

// FetchLiteral consumes the word at PC as a literal constant.
func (e *Emulator) FetchLiteral() (uint32, error) {
	word, err := e.fetch()
	if err != nil {
		return 0, err
	}
	e.stats.LiteralFetches++
	return word, nil
}

func (e *Emulator) fetch() (uint32, error) {
	pc := e.regFile.PC
	if pc >= uint64(len(e.program)) {
		return 0, fmt.Errorf("%w: PC=%d, %d words", ErrProgramOverrun, pc, len(e.program))
	}
	e.regFile.PC++
	return e.program[pc], nil
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("%w: %d", ErrInstructionLimit, e.maxInstructions),
		}
	}

	pc := e.regFile.PC

	// 1. Fetch
	word, err := e.fetch()
	if err != nil {
		return StepResult{Err: err}
	}
	if word == insts.EndProgram {
		e.tracer.done(pc, e.instructionCount)
		return StepResult{Done: true}
	}

	e.instructionCount++
	e.stats.Instructions++

	if insts.IsNoop(word) {
		e.stats.Noops++
		return StepResult{}
	}

	// 2. Decode
	format := e.decoder.Classify(word)
	if format == insts.FormatUnknown {
		return StepResult{Err: &InstructionError{
			PC: pc, Word: word, Format: format,
			Err: fmt.Errorf("%w: unknown encoding", ErrUnsupportedInstruction),
		}}
	}

	var hi uint32
	if format.Words() == 2 {
		if hi, err = e.fetch(); err != nil {
			return StepResult{Err: &InstructionError{PC: pc, Word: word, Format: format, Err: err}}
		}
	}
	inst := e.decoder.Decode(word, hi)
	e.stats.ByFormat[format]++
	e.operands.BeginInstruction()

	// 3. Execute
	if format.Predicated() && e.regFile.EXEC == 0 {
		return e.skip(pc, inst)
	}

	if err := e.execute(inst); err != nil {
		return StepResult{Err: &InstructionError{
			PC: pc, Word: word, WordHi: hi, Format: format, Op: inst.Op, Err: err,
		}}
	}

	e.tracer.instruction(pc, inst, false, e.regFile)
	return StepResult{}
}

// skip steps over a masked-off vector instruction, trailing literal included.
func (e *Emulator) skip(pc uint64, inst *insts.Instruction) StepResult {
	if inst.UsesLiteral() {
		if _, err := e.operands.Literal(); err != nil {
			return StepResult{Err: &InstructionError{
				PC: pc, Word: inst.Raw, WordHi: inst.RawHi, Format: inst.Format, Op: inst.Op, Err: err,
			}}
		}
	}

	e.stats.Skipped++
	e.tracer.instruction(pc, inst, true, e.regFile)
	return StepResult{Skipped: true}
}

// execute dispatches a decoded instruction to its execution unit.
func (e *Emulator) execute(inst *insts.Instruction) error {
	switch inst.Format {
	case insts.FormatSMEM:
		return e.lsu.ExecSMEM(inst)
	case insts.FormatSOP1:
		return e.salu.ExecSOP1(inst)
	case insts.FormatSOPC:
		return e.salu.ExecSOPC(inst)
	case insts.FormatSOPP:
		return e.branchUnit.ExecSOPP(inst)
	case insts.FormatSOPK:
		return e.salu.ExecSOPK(inst)
	case insts.FormatSOP2:
		return e.salu.ExecSOP2(inst)
	case insts.FormatVOPP:
		return e.valu.ExecVOPP(inst)
	case insts.FormatVOP1:
		return e.valu.ExecVOP1(inst)
	case insts.FormatVOPD:
		return e.valu.ExecVOPD(inst)
	case insts.FormatVOPC:
		return e.valu.ExecVOPC(inst)
	case insts.FormatVOP2:
		return e.valu.ExecVOP2(inst)
	case insts.FormatVOP3:
		return e.valu.ExecVOP3(inst)
	case insts.FormatLDS:
		return e.lsu.ExecLDS(inst)
	case insts.FormatGLOBAL:
		return e.lsu.ExecGlobal(inst)
	}
	return unsupportedOp(inst.Format, inst.Op)
}
