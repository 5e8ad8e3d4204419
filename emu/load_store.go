package emu

import (
	"encoding/binary"

	"github.com/sarchlab/wavesim/insts"
)

// LoadStoreUnit implements the scalar memory, LDS and global memory
// instructions of a wavefront.
type LoadStoreUnit struct {
	regFile  *RegFile
	operands *OperandResolver
	lds      *LDS
	memory   AddressSpace
	stats    *Stats
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file, LDS and device memory.
func NewLoadStoreUnit(
	regFile *RegFile,
	operands *OperandResolver,
	lds *LDS,
	memory AddressSpace,
	stats *Stats,
) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile:  regFile,
		operands: operands,
		lds:      lds,
		memory:   memory,
		stats:    stats,
	}
}

// ExecSMEM loads 1, 2, 4, 8 or 16 dwords into consecutive SGPRs:
// SGPR[sdata+i] = mem[SGPR[sbase:sbase+1] + offset + soffset + 4*i].
func (lsu *LoadStoreUnit) ExecSMEM(inst *insts.Instruction) error {
	if inst.Op > insts.SMEMLoadB512 {
		return unsupportedOp(inst.Format, inst.Op)
	}
	n := 1 << inst.Op
	if int(inst.SData)+n > SGPRCount {
		return invalidOperand(uint16(inst.SData))
	}
	if int(inst.SBase)+1 >= SGPRCount {
		return invalidOperand(uint16(inst.SBase))
	}

	var soffset uint64
	if inst.SOffset != insts.OperandNull {
		v, err := lsu.operands.U32(inst.SOffset)
		if err != nil {
			return err
		}
		soffset = uint64(v)
	}

	addr := lsu.regFile.SGPR.Read64(int(inst.SBase)) + uint64(int64(inst.Offset)) + soffset
	data, err := lsu.memory.Read(addr, uint64(n)*4)
	if err != nil {
		return err
	}

	for i := range n {
		lsu.regFile.SGPR[int(inst.SData)+i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	lsu.stats.ScalarLoads++
	return nil
}

// transfer describes the size of a vector memory access.
type transfer struct {
	store  bool
	bytes  int
	signed bool
}

func (t transfer) words() int {
	return (t.bytes + 3) / 4
}

var ldsTransfers = map[uint16]transfer{
	insts.LDSStoreB8:   {store: true, bytes: 1},
	insts.LDSStoreB16:  {store: true, bytes: 2},
	insts.LDSStoreB32:  {store: true, bytes: 4},
	insts.LDSStoreB64:  {store: true, bytes: 8},
	insts.LDSStoreB96:  {store: true, bytes: 12},
	insts.LDSStoreB128: {store: true, bytes: 16},
	insts.LDSLoadU8:    {bytes: 1},
	insts.LDSLoadI8:    {bytes: 1, signed: true},
	insts.LDSLoadU16:   {bytes: 2},
	insts.LDSLoadI16:   {bytes: 2, signed: true},
	insts.LDSLoadB32:   {bytes: 4},
	insts.LDSLoadB64:   {bytes: 8},
	insts.LDSLoadB96:   {bytes: 12},
	insts.LDSLoadB128:  {bytes: 16},
}

var globalTransfers = map[uint16]transfer{
	insts.GlobalLoadU8:    {bytes: 1},
	insts.GlobalLoadI8:    {bytes: 1, signed: true},
	insts.GlobalLoadU16:   {bytes: 2},
	insts.GlobalLoadI16:   {bytes: 2, signed: true},
	insts.GlobalLoadB32:   {bytes: 4},
	insts.GlobalLoadB64:   {bytes: 8},
	insts.GlobalLoadB96:   {bytes: 12},
	insts.GlobalLoadB128:  {bytes: 16},
	insts.GlobalStoreB8:   {store: true, bytes: 1},
	insts.GlobalStoreB16:  {store: true, bytes: 2},
	insts.GlobalStoreB32:  {store: true, bytes: 4},
	insts.GlobalStoreB64:  {store: true, bytes: 8},
	insts.GlobalStoreB96:  {store: true, bytes: 12},
	insts.GlobalStoreB128: {store: true, bytes: 16},
}

// ExecLDS executes a local data share access at VGPR[addr] + offset.
func (lsu *LoadStoreUnit) ExecLDS(inst *insts.Instruction) error {
	t, ok := ldsTransfers[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}
	if err := lsu.checkVGPRs(t, inst); err != nil {
		return err
	}

	addr := uint64(lsu.regFile.VGPR.Read(int(inst.Addr))) + uint64(inst.Offset)

	if t.store {
		lsu.lds.Write(addr, lsu.gather(inst.Data0, t))
		lsu.stats.LDSStores++
		return nil
	}

	lsu.scatter(inst.VDst, t, lsu.lds.Read(addr, t.bytes))
	lsu.stats.LDSLoads++
	return nil
}

// ExecGlobal executes a global memory access. With a null scalar base the
// address is the VGPR pair at addr; otherwise it is the SGPR pair at saddr
// plus the 32-bit VGPR at addr. The signed offset is added in both cases.
func (lsu *LoadStoreUnit) ExecGlobal(inst *insts.Instruction) error {
	t, ok := globalTransfers[inst.Op]
	if !ok {
		return unsupportedOp(inst.Format, inst.Op)
	}
	if err := lsu.checkVGPRs(t, inst); err != nil {
		return err
	}

	addr, err := lsu.globalAddress(inst)
	if err != nil {
		return err
	}

	if t.store {
		if err := lsu.memory.Write(addr, lsu.gather(inst.Data0, t)); err != nil {
			return err
		}
		lsu.stats.GlobalStores++
		return nil
	}

	data, err := lsu.memory.Read(addr, uint64(t.bytes))
	if err != nil {
		return err
	}
	lsu.scatter(inst.VDst, t, data)
	lsu.stats.GlobalLoads++
	return nil
}

// globalSAddrOff is the 7-bit "off" encoding of the scalar base.
const globalSAddrOff = 0x7F

func (lsu *LoadStoreUnit) globalAddress(inst *insts.Instruction) (uint64, error) {
	offset := uint64(int64(inst.Offset))

	saddr := uint16(inst.SAddr)
	if saddr == insts.OperandNull || saddr == globalSAddrOff {
		if int(inst.Addr)+1 >= VGPRCount {
			return 0, invalidOperand(insts.OperandVGPR + uint16(inst.Addr))
		}
		return lsu.regFile.VGPR.Read64(int(inst.Addr)) + offset, nil
	}

	base, err := lsu.operands.U64(saddr)
	if err != nil {
		return 0, err
	}
	return base + uint64(lsu.regFile.VGPR.Read(int(inst.Addr))) + offset, nil
}

func (lsu *LoadStoreUnit) checkVGPRs(t transfer, inst *insts.Instruction) error {
	reg := int(inst.VDst)
	if t.store {
		reg = int(inst.Data0)
	}
	if reg+t.words() > VGPRCount {
		return invalidOperand(insts.OperandVGPR + uint16(reg))
	}
	return nil
}

// gather packs the store data held in consecutive VGPRs from data.
func (lsu *LoadStoreUnit) gather(data uint8, t transfer) []byte {
	buf := make([]byte, t.words()*4)
	for i := range t.words() {
		binary.LittleEndian.PutUint32(buf[i*4:], lsu.regFile.VGPR.Read(int(data)+i))
	}
	return buf[:t.bytes]
}

// scatter writes loaded bytes into consecutive VGPRs from vdst, extending
// sub-dword loads to 32 bits.
func (lsu *LoadStoreUnit) scatter(vdst uint16, t transfer, data []byte) {
	reg := int(vdst)
	switch t.bytes {
	case 1:
		v := uint32(data[0])
		if t.signed {
			v = uint32(int32(int8(data[0])))
		}
		lsu.regFile.VGPR.Write(reg, v)
	case 2:
		raw := binary.LittleEndian.Uint16(data)
		v := uint32(raw)
		if t.signed {
			v = uint32(int32(int16(raw)))
		}
		lsu.regFile.VGPR.Write(reg, v)
	default:
		for i := range t.words() {
			lsu.regFile.VGPR.Write(reg+i, binary.LittleEndian.Uint32(data[i*4:]))
		}
	}
}
