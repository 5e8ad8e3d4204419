package insts

// SMEM opcodes. s_load_b(32<<op) for op 0..4.
const (
	SMEMLoadB32  uint16 = 0
	SMEMLoadB64  uint16 = 1
	SMEMLoadB128 uint16 = 2
	SMEMLoadB256 uint16 = 3
	SMEMLoadB512 uint16 = 4
)

// SOP1 opcodes.
const (
	SOP1MovB32             uint16 = 0
	SOP1MovB64             uint16 = 1
	SOP1CmovB32            uint16 = 2
	SOP1CmovB64            uint16 = 3
	SOP1BrevB32            uint16 = 4
	SOP1CtzI32B32          uint16 = 8
	SOP1ClzI32U32          uint16 = 10
	SOP1ClsI32             uint16 = 12
	SOP1SextI32I8          uint16 = 14
	SOP1SextI32I16         uint16 = 15
	SOP1Bitset0B32         uint16 = 16
	SOP1Bitset1B32         uint16 = 18
	SOP1AbsI32             uint16 = 21
	SOP1Bcnt0I32B32        uint16 = 22
	SOP1Bcnt1I32B32        uint16 = 24
	SOP1NotB32             uint16 = 30
	SOP1NotB64             uint16 = 31
	SOP1AndSaveexecB32     uint16 = 32
	SOP1OrSaveexecB32      uint16 = 34
	SOP1XorSaveexecB32     uint16 = 36
	SOP1NandSaveexecB32    uint16 = 38
	SOP1NorSaveexecB32     uint16 = 40
	SOP1XnorSaveexecB32    uint16 = 42
	SOP1AndNot0SaveexecB32 uint16 = 44
	SOP1OrNot0SaveexecB32  uint16 = 46
	SOP1AndNot1SaveexecB32 uint16 = 48
	SOP1OrNot1SaveexecB32  uint16 = 50
)

// SOP2 opcodes.
const (
	SOP2AddU32       uint16 = 0
	SOP2SubU32       uint16 = 1
	SOP2AddI32       uint16 = 2
	SOP2SubI32       uint16 = 3
	SOP2AddcU32      uint16 = 4
	SOP2SubbU32      uint16 = 5
	SOP2AbsdiffI32   uint16 = 6
	SOP2LshlB32      uint16 = 8
	SOP2LshlB64      uint16 = 9
	SOP2LshrB32      uint16 = 10
	SOP2LshrB64      uint16 = 11
	SOP2AshrI32      uint16 = 12
	SOP2AshrI64      uint16 = 13
	SOP2Lshl1AddU32  uint16 = 14
	SOP2Lshl2AddU32  uint16 = 15
	SOP2Lshl3AddU32  uint16 = 16
	SOP2Lshl4AddU32  uint16 = 17
	SOP2MinI32       uint16 = 18
	SOP2MinU32       uint16 = 19
	SOP2MaxI32       uint16 = 20
	SOP2MaxU32       uint16 = 21
	SOP2AndB32       uint16 = 22
	SOP2AndB64       uint16 = 23
	SOP2OrB32        uint16 = 24
	SOP2OrB64        uint16 = 25
	SOP2XorB32       uint16 = 26
	SOP2XorB64       uint16 = 27
	SOP2NandB32      uint16 = 28
	SOP2NorB32       uint16 = 30
	SOP2XnorB32      uint16 = 32
	SOP2AndNot1B32   uint16 = 34
	SOP2AndNot1B64   uint16 = 35
	SOP2OrNot1B32    uint16 = 36
	SOP2OrNot1B64    uint16 = 37
	SOP2BfeU32       uint16 = 38
	SOP2BfeI32       uint16 = 39
	SOP2BfeU64       uint16 = 40
	SOP2BfeI64       uint16 = 41
	SOP2BfmB32       uint16 = 42
	SOP2MulI32       uint16 = 44
	SOP2MulHiU32     uint16 = 45
	SOP2MulHiI32     uint16 = 46
	SOP2CselectB32   uint16 = 48
	SOP2CselectB64   uint16 = 49
	SOP2PackLLB32B16 uint16 = 50
	SOP2PackLHB32B16 uint16 = 51
	SOP2PackHHB32B16 uint16 = 52
	SOP2PackHLB32B16 uint16 = 53
)

// SOPC opcodes.
const (
	SOPCCmpEqI32   uint16 = 0
	SOPCCmpLgI32   uint16 = 1
	SOPCCmpGtI32   uint16 = 2
	SOPCCmpGeI32   uint16 = 3
	SOPCCmpLtI32   uint16 = 4
	SOPCCmpLeI32   uint16 = 5
	SOPCCmpEqU32   uint16 = 6
	SOPCCmpLgU32   uint16 = 7
	SOPCCmpGtU32   uint16 = 8
	SOPCCmpGeU32   uint16 = 9
	SOPCCmpLtU32   uint16 = 10
	SOPCCmpLeU32   uint16 = 11
	SOPCBitcmp0B32 uint16 = 12
	SOPCBitcmp1B32 uint16 = 13
	SOPCCmpEqU64   uint16 = 16
	SOPCCmpLgU64   uint16 = 17
)

// SOPK opcodes.
const (
	SOPKMovkI32   uint16 = 0
	SOPKCmovkI32  uint16 = 2
	SOPKCmpkEqI32 uint16 = 3
	SOPKCmpkLgI32 uint16 = 4
	SOPKCmpkGtI32 uint16 = 5
	SOPKCmpkGeI32 uint16 = 6
	SOPKCmpkLtI32 uint16 = 7
	SOPKCmpkLeI32 uint16 = 8
	SOPKCmpkEqU32 uint16 = 9
	SOPKCmpkLgU32 uint16 = 10
	SOPKCmpkGtU32 uint16 = 11
	SOPKCmpkGeU32 uint16 = 12
	SOPKCmpkLtU32 uint16 = 13
	SOPKCmpkLeU32 uint16 = 14
	SOPKAddkI32   uint16 = 15
	SOPKMulkI32   uint16 = 16
)

// SOPP opcodes.
const (
	SOPPBranch        uint16 = 32
	SOPPCbranchSCC0   uint16 = 33
	SOPPCbranchSCC1   uint16 = 34
	SOPPCbranchVCCZ   uint16 = 35
	SOPPCbranchVCCNZ  uint16 = 36
	SOPPCbranchEXECZ  uint16 = 37
	SOPPCbranchEXECNZ uint16 = 38
	SOPPEndpgm        uint16 = 48
)

// VOP1 opcodes.
const (
	VOP1Nop              uint16 = 0
	VOP1MovB32           uint16 = 1
	VOP1ReadfirstlaneB32 uint16 = 2
	VOP1CvtI32F64        uint16 = 3
	VOP1CvtF64I32        uint16 = 4
	VOP1CvtF32I32        uint16 = 5
	VOP1CvtF32U32        uint16 = 6
	VOP1CvtU32F32        uint16 = 7
	VOP1CvtI32F32        uint16 = 8
	VOP1CvtF16F32        uint16 = 10
	VOP1CvtF32F16        uint16 = 11
	VOP1CvtNearestI32F32 uint16 = 12
	VOP1CvtFloorI32F32   uint16 = 13
	VOP1CvtF32F64        uint16 = 15
	VOP1CvtF64F32        uint16 = 16
	VOP1CvtF32Ubyte0     uint16 = 17
	VOP1CvtF32Ubyte1     uint16 = 18
	VOP1CvtF32Ubyte2     uint16 = 19
	VOP1CvtF32Ubyte3     uint16 = 20
	VOP1CvtU32F64        uint16 = 21
	VOP1CvtF64U32        uint16 = 22
	VOP1TruncF64         uint16 = 23
	VOP1CeilF64          uint16 = 24
	VOP1RndneF64         uint16 = 25
	VOP1FloorF64         uint16 = 26
	VOP1FractF32         uint16 = 32
	VOP1TruncF32         uint16 = 33
	VOP1CeilF32          uint16 = 34
	VOP1RndneF32         uint16 = 35
	VOP1FloorF32         uint16 = 36
	VOP1ExpF32           uint16 = 37
	VOP1LogF32           uint16 = 39
	VOP1RcpF32           uint16 = 42
	VOP1RcpIflagF32      uint16 = 43
	VOP1RsqF32           uint16 = 46
	VOP1RcpF64           uint16 = 47
	VOP1SqrtF32          uint16 = 51
	VOP1SqrtF64          uint16 = 52
	VOP1SinF32           uint16 = 53
	VOP1CosF32           uint16 = 54
	VOP1NotB32           uint16 = 55
	VOP1BfrevB32         uint16 = 56
	VOP1ClzI32U32        uint16 = 57
	VOP1CtzI32B32        uint16 = 58
	VOP1ClsI32           uint16 = 59
	VOP1CvtF16U16        uint16 = 80
	VOP1CvtF16I16        uint16 = 81
	VOP1CvtU16F16        uint16 = 82
	VOP1CvtI16F16        uint16 = 83
)

// VOP2 opcodes.
const (
	VOP2CndmaskB32    uint16 = 1
	VOP2Dot2accF32F16 uint16 = 2
	VOP2AddF32        uint16 = 3
	VOP2SubF32        uint16 = 4
	VOP2SubrevF32     uint16 = 5
	VOP2MulDx9ZeroF32 uint16 = 7
	VOP2MulF32        uint16 = 8
	VOP2MulI32I24     uint16 = 9
	VOP2MulHiI32I24   uint16 = 10
	VOP2MulU32U24     uint16 = 11
	VOP2MulHiU32U24   uint16 = 12
	VOP2MinF32        uint16 = 15
	VOP2MaxF32        uint16 = 16
	VOP2MinI32        uint16 = 17
	VOP2MaxI32        uint16 = 18
	VOP2MinU32        uint16 = 19
	VOP2MaxU32        uint16 = 20
	VOP2LshlrevB32    uint16 = 24
	VOP2LshrrevB32    uint16 = 25
	VOP2AshrrevI32    uint16 = 26
	VOP2AndB32        uint16 = 27
	VOP2OrB32         uint16 = 28
	VOP2XorB32        uint16 = 29
	VOP2XnorB32       uint16 = 30
	VOP2AddCoCiU32    uint16 = 32
	VOP2SubCoCiU32    uint16 = 33
	VOP2SubrevCoCiU32 uint16 = 34
	VOP2AddNcU32      uint16 = 37
	VOP2SubNcU32      uint16 = 38
	VOP2SubrevNcU32   uint16 = 39
	VOP2FmacF32       uint16 = 43
	VOP2FmamkF32      uint16 = 44
	VOP2FmaakF32      uint16 = 45
	VOP2AddF16        uint16 = 50
	VOP2SubF16        uint16 = 51
	VOP2SubrevF16     uint16 = 52
	VOP2MulF16        uint16 = 53
	VOP2FmacF16       uint16 = 54
	VOP2FmamkF16      uint16 = 55
	VOP2FmaakF16      uint16 = 56
	VOP2MaxF16        uint16 = 57
	VOP2MinF16        uint16 = 58
)

// VOP3 opcode ranges. Compares, VOP2 and VOP1 operations are re-encoded in
// VOP3 at fixed offsets.
const (
	VOP3VOPCBase uint16 = 0
	VOP3VOP2Base uint16 = 256
	VOP3VOP1Base uint16 = 384
	VOP3Native   uint16 = 512
)

// VOP3 opcodes.
const (
	VOP3CndmaskB32    uint16 = VOP3VOP2Base + VOP2CndmaskB32
	VOP3AddCoCiU32    uint16 = VOP3VOP2Base + VOP2AddCoCiU32
	VOP3SubCoCiU32    uint16 = VOP3VOP2Base + VOP2SubCoCiU32
	VOP3SubrevCoCiU32 uint16 = VOP3VOP2Base + VOP2SubrevCoCiU32

	VOP3MadI32I24   uint16 = 522
	VOP3MadU32U24   uint16 = 523
	VOP3BfeU32      uint16 = 528
	VOP3BfeI32      uint16 = 529
	VOP3BfiB32      uint16 = 530
	VOP3FmaF32      uint16 = 531
	VOP3FmaF64      uint16 = 532
	VOP3Min3F32     uint16 = 537
	VOP3Min3I32     uint16 = 538
	VOP3Min3U32     uint16 = 539
	VOP3Max3F32     uint16 = 540
	VOP3Max3I32     uint16 = 541
	VOP3Max3U32     uint16 = 542
	VOP3Med3F32     uint16 = 543
	VOP3Med3I32     uint16 = 544
	VOP3Med3U32     uint16 = 545
	VOP3DivFixupF32 uint16 = 551
	VOP3DivFmasF32  uint16 = 567
	VOP3Xor3B32     uint16 = 576
	VOP3XadU32      uint16 = 581
	VOP3LshlAddU32  uint16 = 582
	VOP3AddLshlU32  uint16 = 583
	VOP3Add3U32     uint16 = 597
	VOP3LshlOrB32   uint16 = 598
	VOP3AndOrB32    uint16 = 599
	VOP3Or3B32      uint16 = 600

	VOP3DivScaleF32  uint16 = 764
	VOP3MadU64U32    uint16 = 766
	VOP3MadI64I32    uint16 = 767
	VOP3AddCoU32     uint16 = 768
	VOP3SubCoU32     uint16 = 769
	VOP3SubrevCoU32  uint16 = 770
	VOP3AddNcU16     uint16 = 771
	VOP3SubNcU16     uint16 = 772
	VOP3MulLoU16     uint16 = 773
	VOP3PackB32F16   uint16 = 785
	VOP3LdexpF32     uint16 = 796
	VOP3AddF64       uint16 = 807
	VOP3MulF64       uint16 = 808
	VOP3MinF64       uint16 = 809
	VOP3MaxF64       uint16 = 810
	VOP3LdexpF64     uint16 = 811
	VOP3MulLoU32     uint16 = 812
	VOP3MulHiU32     uint16 = 813
	VOP3MulHiI32     uint16 = 814
	VOP3LshlrevB16   uint16 = 824
	VOP3LshrrevB16   uint16 = 825
	VOP3AshrrevI16   uint16 = 826
	VOP3LshlrevB64   uint16 = 828
	VOP3LshrrevB64   uint16 = 829
	VOP3AshrrevI64   uint16 = 830
	VOP3ReadlaneB32  uint16 = 864
	VOP3WritelaneB32 uint16 = 865
)

// VOPC opcode layout. Bit 7 selects the EXEC-writing (cmpx) variant; the low
// bits select the operand type and the predicate.
const (
	VOPCCmpxBit  uint16 = 0x80
	VOPCF16Base  uint16 = 0
	VOPCF32Base  uint16 = 16
	VOPCF64Base  uint16 = 32
	VOPCI16Base  uint16 = 48
	VOPCU16Base  uint16 = 56
	VOPCI32Base  uint16 = 64
	VOPCU32Base  uint16 = 72
	VOPCI64Base  uint16 = 80
	VOPCU64Base  uint16 = 88
	VOPCClassF16 uint16 = 125
	VOPCClassF32 uint16 = 126
	VOPCClassF64 uint16 = 127
)

// Float compare predicates, added to a float VOPC base.
const (
	CmpF uint16 = iota
	CmpLt
	CmpEq
	CmpLe
	CmpGt
	CmpLg
	CmpGe
	CmpO
	CmpU
	CmpNge
	CmpNlg
	CmpNgt
	CmpNle
	CmpNeq
	CmpNlt
	CmpT
)

// Integer compare predicates, added to an integer VOPC base.
const (
	CmpIntF uint16 = iota
	CmpIntLt
	CmpIntEq
	CmpIntLe
	CmpIntGt
	CmpIntNe
	CmpIntGe
	CmpIntT
)

// VOPD half opcodes. X accepts 0..13, Y additionally 16..18.
const (
	VOPDFmacF32        uint16 = 0
	VOPDFmaakF32       uint16 = 1
	VOPDFmamkF32       uint16 = 2
	VOPDMulF32         uint16 = 3
	VOPDAddF32         uint16 = 4
	VOPDSubF32         uint16 = 5
	VOPDSubrevF32      uint16 = 6
	VOPDMulDx9ZeroF32  uint16 = 7
	VOPDMovB32         uint16 = 8
	VOPDCndmaskB32     uint16 = 9
	VOPDMaxF32         uint16 = 10
	VOPDMinF32         uint16 = 11
	VOPDDot2accF32F16  uint16 = 12
	VOPDDot2accF32BF16 uint16 = 13
	VOPDAddNcU32       uint16 = 16
	VOPDLshlrevB32     uint16 = 17
	VOPDAndB32         uint16 = 18
)

// VOPP opcodes.
const (
	VOPPPkMulLoU16   uint16 = 1
	VOPPPkAddI16     uint16 = 2
	VOPPPkSubI16     uint16 = 3
	VOPPPkLshlrevB16 uint16 = 4
	VOPPPkLshrrevB16 uint16 = 5
	VOPPPkAshrrevI16 uint16 = 6
	VOPPPkMaxI16     uint16 = 7
	VOPPPkMinI16     uint16 = 8
	VOPPPkAddU16     uint16 = 10
	VOPPPkSubU16     uint16 = 11
	VOPPPkMaxU16     uint16 = 12
	VOPPPkMinU16     uint16 = 13
	VOPPPkFmaF16     uint16 = 14
	VOPPPkAddF16     uint16 = 15
	VOPPPkMulF16     uint16 = 16
	VOPPPkMinF16     uint16 = 17
	VOPPPkMaxF16     uint16 = 18
	VOPPDot2F32F16   uint16 = 19
	VOPPFmaMixF32    uint16 = 32
	VOPPFmaMixloF16  uint16 = 33
	VOPPFmaMixhiF16  uint16 = 34
)

// LDS opcodes.
const (
	LDSStoreB32  uint16 = 13
	LDSStoreB8   uint16 = 30
	LDSStoreB16  uint16 = 31
	LDSLoadB32   uint16 = 54
	LDSLoadI8    uint16 = 57
	LDSLoadU8    uint16 = 58
	LDSLoadI16   uint16 = 59
	LDSLoadU16   uint16 = 60
	LDSStoreB64  uint16 = 77
	LDSLoadB64   uint16 = 118
	LDSStoreB96  uint16 = 222
	LDSStoreB128 uint16 = 223
	LDSLoadB96   uint16 = 254
	LDSLoadB128  uint16 = 255
)

// GLOBAL opcodes.
const (
	GlobalLoadU8    uint16 = 16
	GlobalLoadI8    uint16 = 17
	GlobalLoadU16   uint16 = 18
	GlobalLoadI16   uint16 = 19
	GlobalLoadB32   uint16 = 20
	GlobalLoadB64   uint16 = 21
	GlobalLoadB96   uint16 = 22
	GlobalLoadB128  uint16 = 23
	GlobalStoreB8   uint16 = 24
	GlobalStoreB16  uint16 = 25
	GlobalStoreB32  uint16 = 26
	GlobalStoreB64  uint16 = 27
	GlobalStoreB96  uint16 = 28
	GlobalStoreB128 uint16 = 29
)
