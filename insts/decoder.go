package insts

// Format represents an instruction encoding family.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatSMEM           // Scalar memory load
	FormatSOP1           // Scalar, one source
	FormatSOPC           // Scalar compare
	FormatSOPP           // Scalar program control
	FormatSOPK           // Scalar with 16-bit immediate
	FormatSOP2           // Scalar, two sources
	FormatVOPP           // Vector packed math (VOP3P)
	FormatVOP1           // Vector, one source
	FormatVOPD           // Vector dual issue
	FormatVOPC           // Vector compare
	FormatVOP2           // Vector, two sources
	FormatVOP3           // Vector, three sources with modifiers
	FormatLDS            // Local data share
	FormatGLOBAL         // Global memory
	numFormats
)

// NumFormats is the number of defined formats, including FormatUnknown.
const NumFormats = int(numFormats)

var formatNames = [...]string{
	FormatUnknown: "UNKNOWN",
	FormatSMEM:    "SMEM",
	FormatSOP1:    "SOP1",
	FormatSOPC:    "SOPC",
	FormatSOPP:    "SOPP",
	FormatSOPK:    "SOPK",
	FormatSOP2:    "SOP2",
	FormatVOPP:    "VOPP",
	FormatVOP1:    "VOP1",
	FormatVOPD:    "VOPD",
	FormatVOPC:    "VOPC",
	FormatVOP2:    "VOP2",
	FormatVOP3:    "VOP3",
	FormatLDS:     "LDS",
	FormatGLOBAL:  "GLOBAL",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "UNKNOWN"
}

// Words returns the number of 32-bit words occupied by the base encoding,
// not counting a trailing literal constant.
func (f Format) Words() int {
	switch f {
	case FormatSMEM, FormatVOPP, FormatVOPD, FormatVOP3, FormatLDS, FormatGLOBAL:
		return 2
	default:
		return 1
	}
}

// Predicated reports whether instructions of this format are skipped while
// EXEC is zero.
func (f Format) Predicated() bool {
	switch f {
	case FormatVOP1, FormatVOP2, FormatVOPC, FormatVOPD, FormatVOP3:
		return true
	default:
		return false
	}
}

// Special program words.
const (
	// EndProgram is s_endpgm; it terminates the wavefront.
	EndProgram uint32 = 0xBFB00000
	// SendMsgDealloc is ignored like the other scheduling hints.
	SendMsgDealloc uint32 = 0xBFB60003
)

// IsNoop reports whether word is a scheduling hint that carries no
// architectural effect (s_nop, s_clause, s_delay_alu, s_waitcnt and friends).
func IsNoop(word uint32) bool {
	return word == SendMsgDealloc || word>>20 == 0xBF8
}

// Operand codes with fixed meaning.
const (
	OperandVCC     uint16 = 106
	OperandNull    uint16 = 124
	OperandEXEC    uint16 = 126
	OperandZero    uint16 = 128
	OperandLiteral uint16 = 255
	OperandVGPR    uint16 = 256
)

// Instruction represents a decoded RDNA3 instruction.
//
// Fields are shared between formats; which ones are meaningful depends on
// Format. Source fields that can only name a VGPR are normalized to operand
// codes (OperandVGPR + n) so that every source goes through the same resolver.
type Instruction struct {
	Format Format
	Op     uint16
	Raw    uint32 // first encoding word
	RawHi  uint32 // second encoding word for 64-bit formats

	// Scalar destination (SOP*, VOPSD carry-out, readlane).
	SDst uint8
	// Vector destination register index. VOP3 compares reuse it as an
	// scalar destination code.
	VDst uint16

	Src0, Src1, Src2 uint16
	Simm16           uint16

	// VOP3 / VOPP modifiers.
	Abs     uint8
	Neg     uint8
	NegHi   uint8
	OpSel   uint8
	OpSelHi uint8
	OMod    uint8
	Clamp   bool

	// VOPD second half. The first half uses Op, Src0, Src1 and VDst.
	OpY   uint16
	SrcY0 uint16
	SrcY1 uint16
	VDstY uint16

	// Memory fields.
	SBase   uint8  // SMEM base SGPR (already doubled)
	SData   uint8  // SMEM destination SGPR
	SOffset uint16 // SMEM offset operand code
	Offset  int32  // SMEM imm21, GLOBAL imm13, LDS offset0
	Offset1 uint8  // LDS offset1
	Addr    uint8  // LDS/GLOBAL address VGPR
	Data0   uint8  // LDS/GLOBAL data VGPR
	Data1   uint8  // LDS second data VGPR
	SAddr   uint8  // GLOBAL scalar base code
}

// VOP2 and VOPD opcodes whose encoding implicitly carries a literal.
var implicitLiteralVOP2 = map[uint16]bool{
	VOP2FmamkF32: true, VOP2FmaakF32: true,
	VOP2FmamkF16: true, VOP2FmaakF16: true,
}

// UsesLiteral reports whether a 32-bit literal constant follows the
// encoding of a vector ALU instruction.
func (i *Instruction) UsesLiteral() bool {
	switch i.Format {
	case FormatVOP1, FormatVOPC:
		return i.Src0 == OperandLiteral
	case FormatVOP2:
		return i.Src0 == OperandLiteral || implicitLiteralVOP2[i.Op]
	case FormatVOP3:
		return i.Src0 == OperandLiteral || i.Src1 == OperandLiteral ||
			i.Src2 == OperandLiteral
	case FormatVOPD:
		return i.Src0 == OperandLiteral || i.SrcY0 == OperandLiteral ||
			VOPDUsesLiteral(i.Op) || VOPDUsesLiteral(i.OpY)
	case FormatSOP1, FormatSOPC:
		return i.Src0 == OperandLiteral
	case FormatSOP2:
		return i.Src0 == OperandLiteral || i.Src1 == OperandLiteral
	case FormatVOPP:
		return i.Src0 == OperandLiteral || i.Src1 == OperandLiteral ||
			i.Src2 == OperandLiteral
	default:
		return false
	}
}

// VOPDUsesLiteral reports whether a VOPD half-opcode consumes the literal.
func VOPDUsesLiteral(op uint16) bool {
	return op == VOPDFmaakF32 || op == VOPDFmamkF32
}

// SignExtend interprets the low bits of v as a two's complement number.
func SignExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// Decoder decodes RDNA3 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RDNA3 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Classify returns the encoding family of the first word of an instruction.
// Prefixes are tested from the most specific to the least specific.
func (d *Decoder) Classify(word uint32) Format {
	switch {
	case word>>26 == 0b111101:
		return FormatSMEM
	case word>>23 == 0b1_0111_1101:
		return FormatSOP1
	case word>>23 == 0b1_0111_1110:
		return FormatSOPC
	case word>>23 == 0b1_0111_1111:
		return FormatSOPP
	case word>>28 == 0b1011:
		return FormatSOPK
	case word>>30 == 0b10:
		return FormatSOP2
	case word>>24 == 0b1100_1100:
		return FormatVOPP
	case word>>25 == 0b011_1111:
		return FormatVOP1
	case word>>26 == 0b11_0010:
		return FormatVOPD
	case word>>25 == 0b011_1110:
		return FormatVOPC
	case word>>31 == 0:
		return FormatVOP2
	case word>>26 == 0b11_0101:
		return FormatVOP3
	case word>>26 == 0b11_0110:
		return FormatLDS
	case word>>26 == 0b11_0111:
		return FormatGLOBAL
	default:
		return FormatUnknown
	}
}

// Decode decodes an instruction. hi is the second encoding word and is
// ignored for 32-bit formats.
func (d *Decoder) Decode(lo, hi uint32) *Instruction {
	inst := &Instruction{Format: d.Classify(lo), Raw: lo}
	if inst.Format.Words() == 2 {
		inst.RawHi = hi
	}
	word := uint64(hi)<<32 | uint64(lo)

	switch inst.Format {
	case FormatSMEM:
		d.decodeSMEM(word, inst)
	case FormatSOP1:
		d.decodeSOP1(lo, inst)
	case FormatSOPC:
		d.decodeSOPC(lo, inst)
	case FormatSOPP:
		d.decodeSOPP(lo, inst)
	case FormatSOPK:
		d.decodeSOPK(lo, inst)
	case FormatSOP2:
		d.decodeSOP2(lo, inst)
	case FormatVOPP:
		d.decodeVOPP(word, inst)
	case FormatVOP1:
		d.decodeVOP1(lo, inst)
	case FormatVOPD:
		d.decodeVOPD(word, inst)
	case FormatVOPC:
		d.decodeVOPC(lo, inst)
	case FormatVOP2:
		d.decodeVOP2(lo, inst)
	case FormatVOP3:
		d.decodeVOP3(word, inst)
	case FormatLDS:
		d.decodeLDS(word, inst)
	case FormatGLOBAL:
		d.decodeGlobal(word, inst)
	}

	return inst
}

// decodeSMEM decodes scalar memory loads.
// Format: 111101 | op[25:18] | ... | sdata[12:6] | sbase[5:0]
//
//	soffset[63:57] | offset[52:32]
func (d *Decoder) decodeSMEM(word uint64, inst *Instruction) {
	inst.SBase = uint8(word&0x3F) * 2
	inst.SData = uint8((word >> 6) & 0x7F)
	inst.Op = uint16((word >> 18) & 0xFF)
	inst.Offset = int32(SignExtend((word>>32)&0x1FFFFF, 21))
	inst.SOffset = uint16((word >> 57) & 0x7F)
}

// decodeSOP1 decodes scalar one-source instructions.
// Format: 101111101 | sdst[22:16] | op[15:8] | ssrc0[7:0]
func (d *Decoder) decodeSOP1(word uint32, inst *Instruction) {
	inst.Src0 = uint16(word & 0xFF)
	inst.Op = uint16((word >> 8) & 0xFF)
	inst.SDst = uint8((word >> 16) & 0x7F)
}

// decodeSOPC decodes scalar compares.
// Format: 101111110 | op[22:16] | ssrc1[15:8] | ssrc0[7:0]
func (d *Decoder) decodeSOPC(word uint32, inst *Instruction) {
	inst.Src0 = uint16(word & 0xFF)
	inst.Src1 = uint16((word >> 8) & 0xFF)
	inst.Op = uint16((word >> 16) & 0x7F)
}

// decodeSOPP decodes program control instructions.
// Format: 101111111 | op[22:16] | simm16[15:0]
func (d *Decoder) decodeSOPP(word uint32, inst *Instruction) {
	inst.Simm16 = uint16(word & 0xFFFF)
	inst.Op = uint16((word >> 16) & 0x7F)
}

// decodeSOPK decodes scalar instructions with a 16-bit immediate.
// Format: 1011 | op[27:23] | sdst[22:16] | simm16[15:0]
func (d *Decoder) decodeSOPK(word uint32, inst *Instruction) {
	inst.Simm16 = uint16(word & 0xFFFF)
	inst.SDst = uint8((word >> 16) & 0x7F)
	inst.Op = uint16((word >> 23) & 0x1F)
}

// decodeSOP2 decodes scalar two-source instructions.
// Format: 10 | op[29:23] | sdst[22:16] | ssrc1[15:8] | ssrc0[7:0]
func (d *Decoder) decodeSOP2(word uint32, inst *Instruction) {
	inst.Src0 = uint16(word & 0xFF)
	inst.Src1 = uint16((word >> 8) & 0xFF)
	inst.SDst = uint8((word >> 16) & 0x7F)
	inst.Op = uint16((word >> 23) & 0xFF)
}

// decodeVOPP decodes packed math instructions.
// Format: 11001100 | op[22:16] | clamp[15] | opsel_hi2[14] | opsel[13:11] |
//
//	neg_hi[10:8] | vdst[7:0]
//	neg[63:61] | opsel_hi[60:59] | src2[58:50] | src1[49:41] | src0[40:32]
func (d *Decoder) decodeVOPP(word uint64, inst *Instruction) {
	inst.VDst = uint16(word & 0xFF)
	inst.NegHi = uint8((word >> 8) & 0x7)
	inst.OpSel = uint8((word >> 11) & 0x7)
	inst.OpSelHi = uint8((word>>59)&0x3) | uint8((word>>14)&0x1)<<2
	inst.Clamp = (word>>15)&0x1 == 1
	inst.Op = uint16((word >> 16) & 0x7F)
	inst.Src0 = uint16((word >> 32) & 0x1FF)
	inst.Src1 = uint16((word >> 41) & 0x1FF)
	inst.Src2 = uint16((word >> 50) & 0x1FF)
	inst.Neg = uint8((word >> 61) & 0x7)
}

// decodeVOP1 decodes vector one-source instructions.
// Format: 0111111 | vdst[24:17] | op[16:9] | src0[8:0]
func (d *Decoder) decodeVOP1(word uint32, inst *Instruction) {
	inst.Src0 = uint16(word & 0x1FF)
	inst.Op = uint16((word >> 9) & 0xFF)
	inst.VDst = uint16((word >> 17) & 0xFF)
}

// decodeVOPD decodes dual-issue instructions.
// Format: 110010 | opx[25:22] | opy[21:17] | vsrcx1[16:9] | srcx0[8:0]
//
//	vdstx[63:56] | vdsty[55:49] | vsrcy1[48:41] | srcy0[40:32]
func (d *Decoder) decodeVOPD(word uint64, inst *Instruction) {
	inst.Src0 = uint16(word & 0x1FF)
	inst.Src1 = OperandVGPR + uint16((word>>9)&0xFF)
	inst.OpY = uint16((word >> 17) & 0x1F)
	inst.Op = uint16((word >> 22) & 0xF)
	inst.SrcY0 = uint16((word >> 32) & 0x1FF)
	inst.SrcY1 = OperandVGPR + uint16((word>>41)&0xFF)
	inst.VDst = uint16((word >> 56) & 0xFF)
	// The Y destination always has the opposite parity of the X one.
	inst.VDstY = uint16((word>>49)&0x7F)<<1 | (inst.VDst&1)^1
}

// decodeVOPC decodes vector compares.
// Format: 0111110 | op[24:17] | vsrc1[16:9] | src0[8:0]
func (d *Decoder) decodeVOPC(word uint32, inst *Instruction) {
	inst.Src0 = uint16(word & 0x1FF)
	inst.Src1 = OperandVGPR + uint16((word>>9)&0xFF)
	inst.Op = uint16((word >> 17) & 0xFF)
}

// decodeVOP2 decodes vector two-source instructions.
// Format: 0 | op[30:25] | vdst[24:17] | vsrc1[16:9] | src0[8:0]
func (d *Decoder) decodeVOP2(word uint32, inst *Instruction) {
	inst.Src0 = uint16(word & 0x1FF)
	inst.Src1 = OperandVGPR + uint16((word>>9)&0xFF)
	inst.VDst = uint16((word >> 17) & 0xFF)
	inst.Op = uint16((word >> 25) & 0x3F)
}

// decodeVOP3 decodes three-source vector instructions, including the VOPSD
// carry-out form whose bits [14:8] hold a scalar destination instead of
// abs/opsel/clamp.
// Format: 110101 | op[25:16] | clamp[15] | opsel[14:11] | abs[10:8] | vdst[7:0]
//
//	neg[63:61] | omod[60:59] | src2[58:50] | src1[49:41] | src0[40:32]
func (d *Decoder) decodeVOP3(word uint64, inst *Instruction) {
	inst.VDst = uint16(word & 0xFF)
	inst.Op = uint16((word >> 16) & 0x3FF)
	inst.Src0 = uint16((word >> 32) & 0x1FF)
	inst.Src1 = uint16((word >> 41) & 0x1FF)
	inst.Src2 = uint16((word >> 50) & 0x1FF)
	inst.OMod = uint8((word >> 59) & 0x3)
	inst.Neg = uint8((word >> 61) & 0x7)
	inst.Clamp = (word>>15)&0x1 == 1

	if IsVOPSD(inst.Op) {
		inst.SDst = uint8((word >> 8) & 0x7F)
		return
	}
	inst.Abs = uint8((word >> 8) & 0x7)
	inst.OpSel = uint8((word >> 11) & 0xF)
}

// IsVOPSD reports whether a VOP3 opcode uses the scalar-destination layout.
func IsVOPSD(op uint16) bool {
	switch op {
	case VOP3AddCoCiU32, VOP3SubCoCiU32, VOP3SubrevCoCiU32,
		VOP3DivScaleF32, VOP3MadU64U32, VOP3MadI64I32,
		VOP3AddCoU32, VOP3SubCoU32, VOP3SubrevCoU32:
		return true
	}
	return false
}

// decodeLDS decodes local data share instructions.
// Format: 110110 | op[25:18] | gds[17] | offset1[15:8] | offset0[7:0]
//
//	vdst[63:56] | data1[55:48] | data0[47:40] | addr[39:32]
func (d *Decoder) decodeLDS(word uint64, inst *Instruction) {
	inst.Offset = int32(word & 0xFF)
	inst.Offset1 = uint8((word >> 8) & 0xFF)
	inst.Op = uint16((word >> 18) & 0xFF)
	inst.Addr = uint8((word >> 32) & 0xFF)
	inst.Data0 = uint8((word >> 40) & 0xFF)
	inst.Data1 = uint8((word >> 48) & 0xFF)
	inst.VDst = uint16((word >> 56) & 0xFF)
}

// decodeGlobal decodes global memory instructions.
// Format: 110111 | op[24:18] | seg[17:16] | ... | offset[12:0]
//
//	vdst[63:56] | saddr[54:48] | data[47:40] | addr[39:32]
func (d *Decoder) decodeGlobal(word uint64, inst *Instruction) {
	inst.Offset = int32(SignExtend(word&0x1FFF, 13))
	inst.Op = uint16((word >> 18) & 0x7F)
	inst.Addr = uint8((word >> 32) & 0xFF)
	inst.Data0 = uint8((word >> 40) & 0xFF)
	inst.SAddr = uint8((word >> 48) & 0x7F)
	inst.VDst = uint16((word >> 56) & 0xFF)
}
