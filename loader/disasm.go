package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseDisassembly reads an `llvm-objdump -d` listing. A line such as
//
//	0000000000001600 <E_4>:
//
// starts a kernel, and every instruction line contributes the 8-digit hex
// words printed in its trailing comment:
//
//	s_load_b64 s[0:1], s[0:1], null   // 000000001600: F4040000 F8000000
func ParseDisassembly(r io.Reader) (*CodeObject, error) {
	obj := &CodeObject{}
	var current *Kernel

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if name, addr, ok := parseLabel(line); ok {
			current = &Kernel{Name: name, Addr: addr}
			obj.Kernels = append(obj.Kernels, current)
			continue
		}

		_, comment, found := strings.Cut(line, "//")
		if !found {
			continue
		}
		words, ok := parseEncoding(comment)
		if !ok {
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: instruction before any kernel label", lineNo)
		}
		current.Code = append(current.Code, words...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read disassembly: %w", err)
	}

	if len(obj.Kernels) == 0 {
		return nil, fmt.Errorf("%w: no kernel label in disassembly", ErrKernelNotFound)
	}
	return obj, nil
}

// parseLabel recognizes "<hex address> <name>:".
func parseLabel(line string) (string, uint64, bool) {
	addrText, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(rest, "<") || !strings.HasSuffix(rest, ">:") {
		return "", 0, false
	}

	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return "", 0, false
	}
	return rest[1 : len(rest)-2], addr, true
}

// parseEncoding reads "ADDR: WORD WORD ..." from an instruction comment.
func parseEncoding(comment string) ([]uint32, bool) {
	fields := strings.Fields(comment)
	if len(fields) < 2 || !strings.HasSuffix(fields[0], ":") {
		return nil, false
	}
	if _, err := strconv.ParseUint(strings.TrimSuffix(fields[0], ":"), 16, 64); err != nil {
		return nil, false
	}

	var words []uint32
	for _, f := range fields[1:] {
		if len(f) != 8 {
			break
		}
		w, err := strconv.ParseUint(f, 16, 32)
		if err != nil {
			break
		}
		words = append(words, uint32(w))
	}
	return words, len(words) > 0
}
