package emu

// Register file dimensions.
const (
	// SGPRCount is the number of addressable scalar registers.
	SGPRCount = 105
	// VGPRCount is the number of vector registers per lane.
	VGPRCount = 256
	// WaveSize is the number of lanes in a wavefront.
	WaveSize = 32
)

// VCC is the vector condition code. Assignments are normalized to 0 or 1,
// so the register behaves as a single boolean for the modeled lane.
type VCC uint32

// Assign stores 1 if v has any bit set and 0 otherwise.
func (c *VCC) Assign(v uint32) {
	if v != 0 {
		*c = 1
		return
	}
	*c = 0
}

// AssignBool stores b as 0 or 1.
func (c *VCC) AssignBool(b bool) {
	if b {
		*c = 1
		return
	}
	*c = 0
}

// Value returns the stored value.
func (c VCC) Value() uint32 {
	return uint32(c)
}

// IsSet reports whether any bit is set.
func (c VCC) IsSet() bool {
	return c != 0
}

// SGPRFile holds the scalar registers.
type SGPRFile [SGPRCount]uint32

// Read64 reads the register pair (i, i+1), low word first.
func (s *SGPRFile) Read64(i int) uint64 {
	return uint64(s[i+1])<<32 | uint64(s[i])
}

// Write64 writes v to the register pair (i, i+1), low word first.
func (s *SGPRFile) Write64(i int, v uint64) {
	s[i] = uint32(v)
	s[i+1] = uint32(v >> 32)
}

// VGPRFile holds the vector registers of every lane. Plain reads and writes
// address the current lane.
type VGPRFile struct {
	lanes [WaveSize][VGPRCount]uint32
	lane  int
}

// Lane returns the current lane.
func (v *VGPRFile) Lane() int {
	return v.lane
}

// SetLane selects the lane used by Read and Write.
func (v *VGPRFile) SetLane(lane int) {
	v.lane = lane % WaveSize
}

// Read reads register i of the current lane.
func (v *VGPRFile) Read(i int) uint32 {
	return v.lanes[v.lane][i]
}

// Write writes register i of the current lane.
func (v *VGPRFile) Write(i int, value uint32) {
	v.lanes[v.lane][i] = value
}

// Read64 reads the register pair (i, i+1) of the current lane.
func (v *VGPRFile) Read64(i int) uint64 {
	return uint64(v.lanes[v.lane][i+1])<<32 | uint64(v.lanes[v.lane][i])
}

// Write64 writes the register pair (i, i+1) of the current lane.
func (v *VGPRFile) Write64(i int, value uint64) {
	v.lanes[v.lane][i] = uint32(value)
	v.lanes[v.lane][i+1] = uint32(value >> 32)
}

// ReadLane reads register i of an arbitrary lane.
func (v *VGPRFile) ReadLane(lane, i int) uint32 {
	return v.lanes[lane%WaveSize][i]
}

// WriteLane writes register i of an arbitrary lane.
func (v *VGPRFile) WriteLane(lane, i int, value uint32) {
	v.lanes[lane%WaveSize][i] = value
}

// RegFile represents the architectural state of one wavefront.
type RegFile struct {
	// PC is the index of the next program word.
	PC uint64

	// SGPR holds scalar registers s0-s104.
	SGPR SGPRFile

	// VGPR holds vector registers v0-v255 for every lane.
	VGPR VGPRFile

	// SCC is the scalar condition code.
	SCC bool

	// VCC is the vector condition code.
	VCC VCC

	// EXEC is the execution mask. Vector ALU instructions are skipped while
	// it is zero.
	EXEC uint32
}

// ReadSGPR reads a scalar register.
func (r *RegFile) ReadSGPR(i int) uint32 {
	return r.SGPR[i]
}

// WriteSGPR writes a scalar register.
func (r *RegFile) WriteSGPR(i int, v uint32) {
	r.SGPR[i] = v
}

// ReadVGPR reads a vector register of the current lane.
func (r *RegFile) ReadVGPR(i int) uint32 {
	return r.VGPR.Read(i)
}

// WriteVGPR writes a vector register of the current lane.
func (r *RegFile) WriteVGPR(i int, v uint32) {
	r.VGPR.Write(i, v)
}

// WriteVGPRF32 stores a float32 in a vector register.
func (r *RegFile) WriteVGPRF32(i int, f float32) {
	r.VGPR.Write(i, f32bits(f))
}

// ReadVGPRF32 loads a float32 from a vector register.
func (r *RegFile) ReadVGPRF32(i int) float32 {
	return f32frombits(r.VGPR.Read(i))
}
