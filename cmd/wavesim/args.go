package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/wavesim/dispatch"
	"github.com/sarchlab/wavesim/emu"
	"github.com/sarchlab/wavesim/insts"
)

// kernelArg is one -arg value. Buffers become device allocations whose
// address is passed; scalars are passed as is.
type kernelArg struct {
	kind  string
	value uint64
	size  uint64
	path  string
}

func (a kernelArg) isBuffer() bool {
	return a.kind == "buf" || a.kind == "file"
}

func (a kernelArg) String() string {
	switch a.kind {
	case "buf":
		return fmt.Sprintf("buf:%d", a.size)
	case "file":
		return "file:" + a.path
	}
	return fmt.Sprintf("%s:0x%X", a.kind, a.value)
}

// argList collects repeated -arg flags.
type argList []kernelArg

func (l *argList) String() string {
	parts := make([]string, len(*l))
	for i, a := range *l {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// Set implements flag.Value.
func (l *argList) Set(s string) error {
	a, err := parseArg(s)
	if err != nil {
		return err
	}
	*l = append(*l, a)
	return nil
}

func parseArg(s string) (kernelArg, error) {
	kind, text, ok := strings.Cut(s, ":")
	if !ok {
		return kernelArg{}, fmt.Errorf("argument %q has no kind prefix", s)
	}

	a := kernelArg{kind: kind}
	var err error
	switch kind {
	case "buf":
		a.size, err = strconv.ParseUint(text, 0, 64)
		if err == nil && a.size == 0 {
			err = fmt.Errorf("buffer size must be > 0")
		}
	case "file":
		a.path = text
	case "u32":
		a.value, err = strconv.ParseUint(text, 0, 32)
	case "u64":
		a.value, err = strconv.ParseUint(text, 0, 64)
	case "f32":
		var f float64
		f, err = strconv.ParseFloat(text, 32)
		a.value = uint64(math.Float32bits(float32(f)))
	default:
		return kernelArg{}, fmt.Errorf("unknown argument kind %q", kind)
	}

	if err != nil {
		return kernelArg{}, fmt.Errorf("invalid argument %q: %w", s, err)
	}
	return a, nil
}

// buffer is a device allocation made for a buffer argument.
type buffer struct {
	index int
	addr  uint64
	size  uint64
}

// materialize allocates and fills the buffers in memory and returns the
// kernel argument values in order.
func (l argList) materialize(memory *emu.Memory) ([]uint64, []buffer, error) {
	values := make([]uint64, 0, len(l))
	var buffers []buffer

	for i, a := range l {
		if !a.isBuffer() {
			values = append(values, a.value)
			continue
		}

		var data []byte
		size := a.size
		if a.kind == "file" {
			var err error
			data, err = os.ReadFile(a.path)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read buffer file: %w", err)
			}
			size = uint64(len(data))
		}

		addr, err := memory.Alloc(size)
		if err != nil {
			return nil, nil, fmt.Errorf("argument %d: %w", i, err)
		}
		if len(data) > 0 {
			if err := memory.Write(addr, data); err != nil {
				return nil, nil, fmt.Errorf("argument %d: %w", i, err)
			}
		}

		values = append(values, addr)
		buffers = append(buffers, buffer{index: i, addr: addr, size: size})
	}

	return values, buffers, nil
}

// parseDim3 parses "x", "x,y" or "x,y,z". Missing extents are 1.
func parseDim3(s string) (dispatch.Dim3, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return dispatch.Dim3{}, fmt.Errorf("%q has more than three dimensions", s)
	}

	dims := [3]uint32{1, 1, 1}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return dispatch.Dim3{}, fmt.Errorf("invalid extent %q: %w", p, err)
		}
		dims[i] = uint32(n)
	}
	return dispatch.Dim3{X: dims[0], Y: dims[1], Z: dims[2]}, nil
}

// dumpBuffers prints up to maxWords words of every buffer.
func dumpBuffers(w io.Writer, memory *emu.Memory, buffers []buffer, maxWords int) error {
	for _, b := range buffers {
		n := int(b.size / 4)
		if n > maxWords {
			n = maxWords
		}

		words, err := memory.ReadWords(b.addr, n)
		if err != nil {
			return fmt.Errorf("failed to read argument %d: %w", b.index, err)
		}

		fmt.Fprintf(w, "arg%d @ 0x%X (%d bytes):", b.index, b.addr, b.size)
		for i, word := range words {
			if i%8 == 0 {
				fmt.Fprintf(w, "\n ")
			}
			fmt.Fprintf(w, " %08X", word)
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}

// printStats prints the counters of a launch.
func printStats(w io.Writer, name string, r *dispatch.Result) {
	s := &r.Stats
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Kernel: %s\n", name)
	fmt.Fprintf(w, "Work groups: %d\n", r.Groups)
	fmt.Fprintf(w, "Wavefronts: %d\n", s.Wavefronts)
	fmt.Fprintf(w, "Instructions: %d\n", s.Instructions)
	fmt.Fprintf(w, "  Skipped (EXEC=0): %d\n", s.Skipped)
	fmt.Fprintf(w, "  No-ops:           %d\n", s.Noops)
	fmt.Fprintf(w, "  Branches taken:   %d\n", s.BranchesTaken)
	fmt.Fprintf(w, "  Literals:         %d\n", s.LiteralFetches)
	fmt.Fprintf(w, "Memory:\n")
	fmt.Fprintf(w, "  Scalar loads:  %d\n", s.ScalarLoads)
	fmt.Fprintf(w, "  LDS loads:     %d\n", s.LDSLoads)
	fmt.Fprintf(w, "  LDS stores:    %d\n", s.LDSStores)
	fmt.Fprintf(w, "  Global loads:  %d\n", s.GlobalLoads)
	fmt.Fprintf(w, "  Global stores: %d\n", s.GlobalStores)
	fmt.Fprintf(w, "Formats:\n")
	for f := 0; f < insts.NumFormats; f++ {
		if s.ByFormat[f] == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-7s %d\n", insts.Format(f).String()+":", s.ByFormat[f])
	}
}
