package emu

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sarchlab/wavesim/insts"
)

// TraceLevel selects how much the emulator logs per instruction.
type TraceLevel int

// Trace levels.
const (
	TraceOff TraceLevel = iota
	TraceInstructions
	TraceState
)

var traceLevelNames = map[TraceLevel]string{
	TraceOff:          "off",
	TraceInstructions: "instructions",
	TraceState:        "state",
}

func (l TraceLevel) String() string {
	if name, ok := traceLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("TraceLevel(%d)", int(l))
}

// ParseTraceLevel parses "off", "instructions" or "state".
func ParseTraceLevel(s string) (TraceLevel, error) {
	for level, name := range traceLevelNames {
		if strings.EqualFold(s, name) {
			return level, nil
		}
	}
	return TraceOff, fmt.Errorf("unknown trace level %q", s)
}

// tracer writes instruction traces to a structured logger.
type tracer struct {
	logger *slog.Logger
	level  TraceLevel
}

func (t tracer) enabled() bool {
	return t.logger != nil && t.level > TraceOff
}

func (t tracer) instruction(pc uint64, inst *insts.Instruction, skipped bool, r *RegFile) {
	if !t.enabled() {
		return
	}

	attrs := []any{
		"pc", pc,
		"format", inst.Format.String(),
		"op", inst.Op,
		"word", fmt.Sprintf("0x%08X", inst.Raw),
	}
	if skipped {
		attrs = append(attrs, "skipped", true)
	}
	if t.level >= TraceState {
		attrs = append(attrs,
			"scc", r.SCC,
			"vcc", r.VCC.Value(),
			"exec", fmt.Sprintf("0x%08X", r.EXEC),
		)
	}
	t.logger.Debug("instruction", attrs...)
}

func (t tracer) done(pc uint64, count uint64) {
	if !t.enabled() {
		return
	}
	t.logger.Debug("end of program", "pc", pc, "instructions", count)
}
