package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/wavesim/insts"
)

// Failure kinds. Every execution failure wraps one of these.
var (
	// ErrUnsupportedInstruction reports a word whose family or opcode is not
	// implemented.
	ErrUnsupportedInstruction = errors.New("unsupported instruction")

	// ErrUnsupportedModifier reports an implemented opcode used with a
	// modifier (negate, clamp, output modifier) that is not implemented.
	ErrUnsupportedModifier = errors.New("unsupported modifier")

	// ErrInvalidOperand reports an operand or destination code outside every
	// defined range.
	ErrInvalidOperand = errors.New("invalid operand code")

	// ErrMemoryFault reports an access the address space rejected.
	ErrMemoryFault = errors.New("memory fault")

	// ErrProgramOverrun reports a fetch past the last program word.
	ErrProgramOverrun = errors.New("program counter past end of program")

	// ErrInstructionLimit reports that the configured instruction budget
	// was exhausted.
	ErrInstructionLimit = errors.New("max instructions reached")
)

// InstructionError describes a failed instruction. Use errors.Is with the
// Err* kinds, or errors.As to recover the raw encoding.
type InstructionError struct {
	PC     uint64
	Word   uint32
	WordHi uint32
	Format insts.Format
	Op     uint16
	Err    error
}

func (e *InstructionError) Error() string {
	if e.Format.Words() == 2 {
		return fmt.Sprintf("%v at PC=%d (%v op=%d, 0x%08X 0x%08X)",
			e.Err, e.PC, e.Format, e.Op, e.Word, e.WordHi)
	}
	return fmt.Sprintf("%v at PC=%d (%v op=%d, 0x%08X)",
		e.Err, e.PC, e.Format, e.Op, e.Word)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

func unsupportedOp(format insts.Format, op uint16) error {
	return fmt.Errorf("%w: %v opcode %d", ErrUnsupportedInstruction, format, op)
}

func unsupportedModifier(what string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedModifier, what)
}

func invalidOperand(code uint16) error {
	return fmt.Errorf("%w: %d", ErrInvalidOperand, code)
}
