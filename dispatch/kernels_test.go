package dispatch_test

import (
	"github.com/sarchlab/wavesim/insts"
)

// Operand codes.
const (
	null    = uint32(insts.OperandNull)
	zero    = uint32(insts.OperandZero)
	one     = 129
	two     = 130
	four    = 132
	kernarg = 0
	s2      = 2
	s4      = 4
	s13     = 13
	s14     = 14
	s15     = 15
	vgpr0   = 256
)

func sop2(op uint16, sdst, src0, src1 uint32) uint32 {
	return 0b10<<30 | uint32(op)<<23 | sdst<<16 | src1<<8 | src0
}

func sopp(op uint16, simm int16) uint32 {
	return 0xBF800000 | uint32(op)<<16 | uint32(uint16(simm))
}

func vop1(op uint16, vdst, src0 uint32) uint32 {
	return 0x7E000000 | vdst<<17 | uint32(op)<<9 | src0
}

func vop2(op uint16, vdst, src0, vsrc1 uint32) uint32 {
	return uint32(op)<<25 | vdst<<17 | vsrc1<<9 | src0
}

func smem(op uint16, sdata, sbase uint32, offset int32, soffset uint32) []uint32 {
	lo := 0xF4000000 | uint32(op)<<18 | sdata<<6 | sbase>>1
	hi := soffset<<25 | uint32(offset)&0x1FFFFF
	return []uint32{lo, hi}
}

func ds(op uint16, vdst, addr, data0, offset0 uint32) []uint32 {
	lo := 0xD8000000 | uint32(op)<<18 | offset0
	hi := vdst<<24 | data0<<8 | addr
	return []uint32{lo, hi}
}

func global(op uint16, vdst, addr, data, saddr uint32, offset int32) []uint32 {
	lo := 0xDC000000 | uint32(op)<<18 | 2<<16 | uint32(offset)&0x1FFF
	hi := vdst<<24 | saddr<<16 | data<<8 | addr
	return []uint32{lo, hi}
}

func program(parts ...any) []uint32 {
	var out []uint32
	for _, p := range parts {
		switch w := p.(type) {
		case uint32:
			out = append(out, w)
		case []uint32:
			out = append(out, w...)
		}
	}
	return append(out, insts.EndProgram)
}

// loadOutput loads the first kernel argument into s[2:3].
func loadOutput() []uint32 {
	return smem(insts.SMEMLoadB64, s2, kernarg, 0, null)
}

// indexKernel stores each thread's global index at out[index] for a 1D
// launch with blocks of four threads.
func indexKernel() []uint32 {
	return program(
		loadOutput(),
		sop2(insts.SOP2MulI32, s4, s15, four),
		vop2(insts.VOP2AddNcU32, 1, s4, 0),
		vop2(insts.VOP2LshlrevB32, 2, two, 1),
		global(insts.GlobalStoreB32, 0, 2, 1, s2, 0),
	)
}

// idKernel stores {s13, s14, s15, v0} as a 16-byte record at
// out[s13 + 2*s14 + 4*s15]. The last thread of a group wins.
func idKernel() []uint32 {
	return program(
		loadOutput(),
		sop2(insts.SOP2Lshl1AddU32, s4, s14, s13),
		sop2(insts.SOP2Lshl2AddU32, s4, s15, s4),
		sop2(insts.SOP2LshlB32, s4, s4, four),
		vop1(insts.VOP1MovB32, 1, s13),
		vop1(insts.VOP1MovB32, 2, s14),
		vop1(insts.VOP1MovB32, 3, s15),
		vop1(insts.VOP1MovB32, 4, vgpr0),
		vop1(insts.VOP1MovB32, 5, s4),
		global(insts.GlobalStoreB128, 0, 5, 1, s2, 0),
	)
}

// counterKernel increments LDS[0] once per thread and stores the running
// count at out[group id].
func counterKernel() []uint32 {
	return program(
		loadOutput(),
		vop1(insts.VOP1MovB32, 1, zero),
		ds(insts.LDSLoadB32, 2, 1, 0, 0),
		vop2(insts.VOP2AddNcU32, 2, one, 2),
		ds(insts.LDSStoreB32, 0, 1, 2, 0),
		vop1(insts.VOP1MovB32, 3, s15),
		vop2(insts.VOP2LshlrevB32, 3, two, 3),
		global(insts.GlobalStoreB32, 0, 3, 2, s2, 0),
	)
}

// spinKernel branches to itself forever.
func spinKernel() []uint32 {
	return program(sopp(insts.SOPPBranch, -1))
}
