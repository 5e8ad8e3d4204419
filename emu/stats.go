package emu

import "github.com/sarchlab/wavesim/insts"

// Stats counts what a wavefront executed. A Stats value is owned by the
// caller and passed in with WithStats; it is not safe for concurrent use.
type Stats struct {
	Instructions   uint64
	Skipped        uint64 // vector instructions masked off by EXEC
	Noops          uint64
	BranchesTaken  uint64
	LiteralFetches uint64
	ScalarLoads    uint64
	LDSLoads       uint64
	LDSStores      uint64
	GlobalLoads    uint64
	GlobalStores   uint64
	Wavefronts     uint64

	ByFormat [insts.NumFormats]uint64
}

// Merge adds the counters of other into s.
func (s *Stats) Merge(other *Stats) {
	s.Instructions += other.Instructions
	s.Skipped += other.Skipped
	s.Noops += other.Noops
	s.BranchesTaken += other.BranchesTaken
	s.LiteralFetches += other.LiteralFetches
	s.ScalarLoads += other.ScalarLoads
	s.LDSLoads += other.LDSLoads
	s.LDSStores += other.LDSStores
	s.GlobalLoads += other.GlobalLoads
	s.GlobalStores += other.GlobalStores
	s.Wavefronts += other.Wavefronts

	for i := range s.ByFormat {
		s.ByFormat[i] += other.ByFormat[i]
	}
}

// LDSOps returns the total number of LDS accesses.
func (s *Stats) LDSOps() uint64 {
	return s.LDSLoads + s.LDSStores
}
