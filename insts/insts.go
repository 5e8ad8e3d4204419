// Package insts provides RDNA3 instruction classification and decoding.
//
// This package turns 32- and 64-bit machine words into structured
// instruction values. It supports the encoding families used by compiled
// compute kernels:
//   - Scalar ALU: SOP1, SOP2, SOPC, SOPK, and SOPP (branches)
//   - Scalar memory: SMEM
//   - Vector ALU: VOP1, VOP2, VOP3 (including the VOPSD carry form), VOPC,
//     VOPD (dual issue), and VOPP (packed math)
//   - Vector memory: LDS (DS) and GLOBAL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	format := decoder.Classify(0x80060206) // s_add_u32 s6, s6, s2
//	inst := decoder.Decode(0x80060206, 0)
//	fmt.Printf("%v op=%d sdst=%d\n", format, inst.Op, inst.SDst)
package insts
