package emu

import (
	"math"

	"github.com/x448/float16"

	"github.com/sarchlab/wavesim/insts"
)

// Width selects how many bits an operand is materialized with.
type Width uint8

// Operand widths.
const (
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Operand code ranges.
const (
	lastSGPR         = SGPRCount - 1
	firstPosInline   = 129
	lastPosInline    = 192
	firstNegInline   = 193
	lastNegInline    = 208
	firstFloatInline = 240
	lastFloatInline  = 247
	lastVGPROperand  = insts.OperandVGPR + VGPRCount - 1
	nullSourceValue  = uint64(insts.OperandNull)
)

// Inline float constants for codes 240..247.
var inlineFloats = [8]float64{0.5, -0.5, 1, -1, 2, -2, 4, -4}

// LiteralSource supplies the 32-bit literal that follows an instruction.
type LiteralSource interface {
	FetchLiteral() (uint32, error)
}

// OperandResolver maps operand codes to values and scalar destination codes
// to registers.
//
// The literal is fetched from the instruction stream the first time an
// instruction asks for it and shared by every later request of that
// instruction.
type OperandResolver struct {
	regFile *RegFile
	source  LiteralSource

	literal    uint32
	hasLiteral bool
}

// NewOperandResolver creates a resolver over regFile that pulls literals
// from source.
func NewOperandResolver(regFile *RegFile, source LiteralSource) *OperandResolver {
	return &OperandResolver{regFile: regFile, source: source}
}

// BeginInstruction clears the literal slot.
func (r *OperandResolver) BeginInstruction() {
	r.hasLiteral = false
	r.literal = 0
}

// Literal returns the literal of the current instruction, fetching it on
// first use.
func (r *OperandResolver) Literal() (uint32, error) {
	if r.hasLiteral {
		return r.literal, nil
	}

	v, err := r.source.FetchLiteral()
	if err != nil {
		return 0, err
	}

	r.literal = v
	r.hasLiteral = true
	return v, nil
}

// Value resolves an operand code at the given width. 16- and 32-bit
// results are zero-extended into the returned uint64.
func (r *OperandResolver) Value(code uint16, width Width) (uint64, error) {
	switch {
	case code <= lastSGPR:
		if width == Width64 {
			if code+1 > lastSGPR {
				return 0, invalidOperand(code)
			}
			return r.regFile.SGPR.Read64(int(code)), nil
		}
		return truncate(uint64(r.regFile.SGPR[code]), width), nil

	case code >= insts.OperandVGPR && code <= lastVGPROperand:
		reg := int(code - insts.OperandVGPR)
		if width == Width64 {
			if reg+1 >= VGPRCount {
				return 0, invalidOperand(code)
			}
			return r.regFile.VGPR.Read64(reg), nil
		}
		return truncate(uint64(r.regFile.VGPR.Read(reg)), width), nil

	case code >= firstPosInline && code <= lastPosInline:
		return uint64(code - 128), nil

	case code >= firstNegInline && code <= lastNegInline:
		return truncate(uint64(-int64(code-192)), width), nil

	case code >= firstFloatInline && code <= lastFloatInline:
		return inlineFloat(inlineFloats[code-firstFloatInline], width), nil

	case code == insts.OperandVCC:
		return uint64(r.regFile.VCC.Value()), nil

	case code == insts.OperandEXEC:
		return uint64(r.regFile.EXEC), nil

	case code == insts.OperandZero:
		return 0, nil

	case code == insts.OperandNull:
		return nullSourceValue, nil

	case code == insts.OperandLiteral:
		v, err := r.Literal()
		if err != nil {
			return 0, err
		}
		return truncate(uint64(v), width), nil
	}

	return 0, invalidOperand(code)
}

// U32 resolves a 32-bit operand.
func (r *OperandResolver) U32(code uint16) (uint32, error) {
	v, err := r.Value(code, Width32)
	return uint32(v), err
}

// U64 resolves a 64-bit operand.
func (r *OperandResolver) U64(code uint16) (uint64, error) {
	return r.Value(code, Width64)
}

// F32 resolves an operand as a float32.
func (r *OperandResolver) F32(code uint16) (float32, error) {
	v, err := r.Value(code, Width32)
	return f32frombits(uint32(v)), err
}

// CheckSDst validates a scalar destination code without writing it.
func (r *OperandResolver) CheckSDst(code uint16) error {
	switch {
	case code <= lastSGPR, code == insts.OperandVCC, code == insts.OperandEXEC,
		code == insts.OperandNull:
		return nil
	}
	return invalidOperand(code)
}

// WriteSDst commits a 32-bit value to a scalar destination: an SGPR, VCC
// (normalized to 0 or 1) or EXEC. The null code discards the value.
func (r *OperandResolver) WriteSDst(code uint16, v uint32) error {
	switch {
	case code <= lastSGPR:
		r.regFile.SGPR[code] = v
	case code == insts.OperandVCC:
		r.regFile.VCC.Assign(v)
	case code == insts.OperandEXEC:
		r.regFile.EXEC = v
	case code == insts.OperandNull:
	default:
		return invalidOperand(code)
	}
	return nil
}

// WriteSDst64 commits a 64-bit value to a scalar register pair. VCC and EXEC
// only keep the low word in wave32.
func (r *OperandResolver) WriteSDst64(code uint16, v uint64) error {
	if code <= lastSGPR {
		if code+1 > lastSGPR {
			return invalidOperand(code)
		}
		r.regFile.SGPR.Write64(int(code), v)
		return nil
	}
	return r.WriteSDst(code, uint32(v))
}

func truncate(v uint64, width Width) uint64 {
	switch width {
	case Width16:
		return v & 0xFFFF
	case Width32:
		return v & 0xFFFFFFFF
	default:
		return v
	}
}

func inlineFloat(f float64, width Width) uint64 {
	switch width {
	case Width16:
		return uint64(float16.Fromfloat32(float32(f)).Bits())
	case Width32:
		return uint64(math.Float32bits(float32(f)))
	default:
		return math.Float64bits(f)
	}
}
