// Package loader reads GPU kernels from AMDGPU code objects and from
// llvm-objdump disassembly listings.
package loader

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// ErrKernelNotFound is returned when a code object has no kernel of the
// requested name.
var ErrKernelNotFound = errors.New("kernel not found")

// Kernel is one compiled kernel program.
type Kernel struct {
	// Name is the kernel's symbol name.
	Name string
	// Addr is the offset of the first instruction in its code object.
	Addr uint64
	// Code holds the instruction words in program order.
	Code []uint32
}

// CodeObject is the set of kernels read from one file.
type CodeObject struct {
	Kernels []*Kernel
}

// Kernel returns the kernel called name. An empty name selects the first
// kernel.
func (c *CodeObject) Kernel(name string) (*Kernel, error) {
	if len(c.Kernels) == 0 {
		return nil, fmt.Errorf("%w: code object has no kernels", ErrKernelNotFound)
	}
	if name == "" {
		return c.Kernels[0], nil
	}

	for _, k := range c.Kernels {
		if k.Name == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrKernelNotFound, name)
}

// Names lists the kernel names in program order.
func (c *CodeObject) Names() []string {
	names := make([]string, len(c.Kernels))
	for i, k := range c.Kernels {
		names[i] = k.Name
	}
	return names
}

// Load reads the file at path. Files starting with the ELF magic are read
// as AMDGPU code objects; anything else is parsed as a disassembly listing.
func Load(path string) (*CodeObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kernel file: %w", err)
	}

	if bytes.HasPrefix(data, []byte(elf.ELFMAG)) {
		return ReadELF(bytes.NewReader(data))
	}
	return ParseDisassembly(bytes.NewReader(data))
}

// ReadELF extracts every kernel from an AMDGPU code object. Kernels are the
// function symbols defined in .text.
func ReadELF(r io.ReaderAt) (*CodeObject, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Validate ELF class (must be 64-bit)
	if f.Class != elf.ELFCLASS64 {
		return nil, fmt.Errorf("not a 64-bit ELF file")
	}

	// Validate machine type
	if f.Machine != elf.EM_AMDGPU {
		return nil, fmt.Errorf("not an AMDGPU ELF file (machine type: %v)", f.Machine)
	}

	text := f.Section(".text")
	if text == nil {
		return nil, fmt.Errorf("code object has no .text section")
	}
	code, err := text.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to read .text: %w", err)
	}

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("failed to read symbols: %w", err)
	}

	textIndex := sectionIndex(f, text)
	var funcs []elf.Symbol
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) == elf.STT_FUNC && s.Section == textIndex {
			funcs = append(funcs, s)
		}
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].Value < funcs[j].Value })

	obj := &CodeObject{}
	for i, s := range funcs {
		start := s.Value - text.Addr
		end := start + s.Size
		if s.Size == 0 {
			// Unsized symbols run to the next function or the end of .text.
			end = uint64(len(code))
			if i+1 < len(funcs) {
				end = funcs[i+1].Value - text.Addr
			}
		}
		if start > end || end > uint64(len(code)) {
			return nil, fmt.Errorf("kernel %q lies outside .text", s.Name)
		}

		words, err := decodeWords(code[start:end])
		if err != nil {
			return nil, fmt.Errorf("kernel %q: %w", s.Name, err)
		}
		obj.Kernels = append(obj.Kernels, &Kernel{Name: s.Name, Addr: s.Value, Code: words})
	}

	if len(obj.Kernels) == 0 {
		return nil, fmt.Errorf("%w: no function symbols in .text", ErrKernelNotFound)
	}
	return obj, nil
}

func sectionIndex(f *elf.File, s *elf.Section) elf.SectionIndex {
	for i, sec := range f.Sections {
		if sec == s {
			return elf.SectionIndex(i)
		}
	}
	return elf.SHN_UNDEF
}

func decodeWords(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("code size %d is not a multiple of 4", len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}
