package emu

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// AddressSpace is the linear device memory that SMEM and GLOBAL
// instructions address. Implementations reject accesses outside their
// mapped range with an error instead of touching host memory.
type AddressSpace interface {
	Read(addr uint64, size uint64) ([]byte, error)
	Write(addr uint64, data []byte) error
}

const (
	// nullPageSize is the size of the unmapped region at address 0.
	nullPageSize = 0x1000
	// allocAlignment is the alignment of every allocation.
	allocAlignment = 256
)

// Memory is an AddressSpace backed by an akita storage. Buffers are handed
// out by a bump allocator above an unmapped null page.
type Memory struct {
	storage *mem.Storage

	mu   sync.Mutex
	next uint64
}

// NewMemory creates a memory of the given capacity in bytes.
func NewMemory(capacity uint64) *Memory {
	return &Memory{
		storage: mem.NewStorage(capacity),
		next:    nullPageSize,
	}
}

// Capacity returns the size of the address space.
func (m *Memory) Capacity() uint64 {
	return m.storage.Capacity
}

// Alloc reserves size bytes and returns the device address of the block.
func (m *Memory) Alloc(size uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := m.next
	end := addr + size
	if end > m.storage.Capacity || end < addr {
		return 0, fmt.Errorf("%w: cannot allocate %d bytes", ErrMemoryFault, size)
	}

	m.next = (end + allocAlignment - 1) &^ (allocAlignment - 1)
	return addr, nil
}

func (m *Memory) check(addr, size uint64) error {
	end := addr + size
	if addr < nullPageSize || end > m.storage.Capacity || end < addr {
		return fmt.Errorf("%w: access of %d bytes at 0x%X", ErrMemoryFault, size, addr)
	}
	return nil
}

// Read reads size bytes at addr.
func (m *Memory) Read(addr uint64, size uint64) ([]byte, error) {
	if err := m.check(addr, size); err != nil {
		return nil, err
	}

	data, err := m.storage.Read(addr, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMemoryFault, err)
	}
	return data, nil
}

// Write writes data at addr.
func (m *Memory) Write(addr uint64, data []byte) error {
	if err := m.check(addr, uint64(len(data))); err != nil {
		return err
	}

	if err := m.storage.Write(addr, data); err != nil {
		return fmt.Errorf("%w: %v", ErrMemoryFault, err)
	}
	return nil
}

// ReadWords reads n little-endian 32-bit words at addr.
func (m *Memory) ReadWords(addr uint64, n int) ([]uint32, error) {
	data, err := m.Read(addr, uint64(n)*4)
	if err != nil {
		return nil, err
	}

	words := make([]uint32, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}

// WriteWords writes 32-bit words at addr in little-endian order.
func (m *Memory) WriteWords(addr uint64, words []uint32) error {
	data := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	return m.Write(addr, data)
}
