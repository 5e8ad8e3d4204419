package emu

// LDS is the local data share of one work group: a byte buffer shared by
// every wavefront of the group. Stores past the end grow the buffer with
// zeros; loads past the end read zeros.
type LDS struct {
	data []byte
}

// NewLDS creates a zero-filled LDS of size bytes.
func NewLDS(size int) *LDS {
	return &LDS{data: make([]byte, size)}
}

// Len returns the current size in bytes.
func (l *LDS) Len() int {
	return len(l.data)
}

// Bytes exposes the underlying buffer.
func (l *LDS) Bytes() []byte {
	return l.data
}

// Read copies n bytes starting at addr.
func (l *LDS) Read(addr uint64, n int) []byte {
	out := make([]byte, n)
	if addr < uint64(len(l.data)) {
		copy(out, l.data[addr:])
	}
	return out
}

// Write stores data at addr, growing the buffer if needed.
func (l *LDS) Write(addr uint64, data []byte) {
	end := addr + uint64(len(data))
	if end > uint64(len(l.data)) {
		grown := make([]byte, end)
		copy(grown, l.data)
		l.data = grown
	}
	copy(l.data[addr:], data)
}
