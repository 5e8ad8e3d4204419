// Package dispatch launches kernels over a grid of work groups.
//
// Every work group gets its own LDS and emulator. Its threads run one after
// another, each as a single-lane wavefront. Work groups run concurrently.
package dispatch

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/wavesim/emu"
)

// ErrInvalidDimensions reports a grid or block size the dispatcher cannot
// launch.
var ErrInvalidDimensions = errors.New("invalid launch dimensions")

// Register layout of a launched thread.
const (
	kernargSGPR = 0
	// Group ids occupy the last of s13-s15, one per dispatch dimension.
	groupIDLastSGPR = 15
	localIDVGPR     = 0
	// maxBlockDim is the largest block extent that fits the 10-bit fields
	// of the packed local id.
	maxBlockDim = 1 << 10
)

// Dim3 is a three-dimensional extent or index.
type Dim3 struct {
	X, Y, Z uint32
}

// Count returns X*Y*Z.
func (d Dim3) Count() uint64 {
	return uint64(d.X) * uint64(d.Y) * uint64(d.Z)
}

func (d Dim3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", d.X, d.Y, d.Z)
}

// Rank returns the dispatch dimensionality of a grid: 3 if it extends in Z,
// 2 if it extends in Y, and 1 otherwise.
func (d Dim3) Rank() int {
	switch {
	case d.Z > 1:
		return 3
	case d.Y > 1:
		return 2
	default:
		return 1
	}
}

// Memory is the device memory a dispatch runs against. Kernel arguments are
// placed in a block obtained from Alloc.
type Memory interface {
	emu.AddressSpace
	Alloc(size uint64) (uint64, error)
}

// Result summarizes a finished launch.
type Result struct {
	// KernargAddr is the device address of the kernel argument buffer.
	KernargAddr uint64
	// Groups is the number of work groups executed.
	Groups uint64
	// Stats merges the counters of every work group.
	Stats emu.Stats
}

// Dispatcher runs kernels on a shared device memory.
type Dispatcher struct {
	memory  Memory
	workers int
	ldsSize int
	emuOpts []emu.EmulatorOption

	logger     *slog.Logger
	traceLevel emu.TraceLevel
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers bounds how many work groups run at once.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		d.workers = n
	}
}

// WithLDSSize sets the initial LDS size of every work group.
func WithLDSSize(size int) Option {
	return func(d *Dispatcher) {
		d.ldsSize = size
	}
}

// WithEmulatorOptions passes options to every emulator the dispatcher
// creates.
func WithEmulatorOptions(opts ...emu.EmulatorOption) Option {
	return func(d *Dispatcher) {
		d.emuOpts = append(d.emuOpts, opts...)
	}
}

// WithLogger logs launches to logger and traces instructions at level. Trace
// records carry the work group they belong to.
func WithLogger(logger *slog.Logger, level emu.TraceLevel) Option {
	return func(d *Dispatcher) {
		d.logger = logger
		d.traceLevel = level
	}
}

// NewDispatcher creates a dispatcher over memory.
func NewDispatcher(memory Memory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		memory:  memory,
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = 1
	}
	return d
}

// Launch runs kernel once per thread of grid × block. args are written as
// consecutive little-endian 64-bit values into a fresh kernel argument
// buffer whose address each thread finds in s[0:1].
//
// The first failing thread stops the launch; its error is returned.
func (d *Dispatcher) Launch(
	ctx context.Context,
	kernel []uint32,
	grid, block Dim3,
	args []uint64,
) (*Result, error) {
	if err := checkDimensions(grid, block); err != nil {
		return nil, err
	}

	kernarg, err := d.writeArgs(args)
	if err != nil {
		return nil, err
	}

	if d.logger != nil {
		d.logger.Info("launching kernel",
			"grid", grid.String(), "block", block.String(),
			"args", len(args), "kernarg", fmt.Sprintf("0x%X", kernarg))
	}

	result := &Result{KernargAddr: kernarg, Groups: grid.Count()}
	var mu sync.Mutex

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	rank := grid.Rank()
	for _, id := range groupIDs(grid) {
		if groupCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			stats, err := d.runGroup(groupCtx, kernel, rank, id, block, kernarg)
			if err != nil {
				return fmt.Errorf("work group %v: %w", id, err)
			}

			mu.Lock()
			result.Stats.Merge(stats)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func checkDimensions(grid, block Dim3) error {
	if grid.Count() == 0 || block.Count() == 0 {
		return fmt.Errorf("%w: grid %v, block %v", ErrInvalidDimensions, grid, block)
	}
	if block.X > maxBlockDim || block.Y > maxBlockDim || block.Z > maxBlockDim {
		return fmt.Errorf("%w: block %v exceeds %d in some dimension",
			ErrInvalidDimensions, block, maxBlockDim)
	}
	return nil
}

func (d *Dispatcher) writeArgs(args []uint64) (uint64, error) {
	size := uint64(len(args)) * 8
	if size == 0 {
		size = 8
	}

	addr, err := d.memory.Alloc(size)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate kernel arguments: %w", err)
	}

	data := make([]byte, size)
	for i, a := range args {
		binary.LittleEndian.PutUint64(data[i*8:], a)
	}
	if err := d.memory.Write(addr, data); err != nil {
		return 0, fmt.Errorf("failed to write kernel arguments: %w", err)
	}
	return addr, nil
}

// groupIDs enumerates the work groups of grid with Z varying fastest.
func groupIDs(grid Dim3) []Dim3 {
	ids := make([]Dim3, 0, grid.Count())
	for x := uint32(0); x < grid.X; x++ {
		for y := uint32(0); y < grid.Y; y++ {
			for z := uint32(0); z < grid.Z; z++ {
				ids = append(ids, Dim3{X: x, Y: y, Z: z})
			}
		}
	}
	return ids
}

// runGroup executes every thread of one work group in order, X fastest.
func (d *Dispatcher) runGroup(
	ctx context.Context,
	kernel []uint32,
	rank int,
	id, block Dim3,
	kernarg uint64,
) (*emu.Stats, error) {
	stats := &emu.Stats{}
	opts := append([]emu.EmulatorOption{}, d.emuOpts...)
	opts = append(opts, emu.WithStats(stats))
	if d.logger != nil {
		opts = append(opts, emu.WithTracer(d.logger.With("group", id.String()), d.traceLevel))
	}

	e := emu.NewEmulator(emu.NewLDS(d.ldsSize), d.memory, opts...)
	packed := block.Y > 1 || block.Z > 1

	for z := uint32(0); z < block.Z; z++ {
		for y := uint32(0); y < block.Y; y++ {
			for x := uint32(0); x < block.X; x++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				e.Reset()
				seed(e.RegFile(), rank, id, kernarg)
				local := x
				if packed {
					local = z<<20 | y<<10 | x
				}
				e.RegFile().WriteVGPR(localIDVGPR, local)

				if err := e.Interpret(kernel); err != nil {
					return nil, fmt.Errorf("thread %v: %w", Dim3{X: x, Y: y, Z: z}, err)
				}
			}
		}
	}

	return stats, nil
}

// seed writes the kernel argument pointer and the group id into the user
// SGPRs.
func seed(r *emu.RegFile, rank int, id Dim3, kernarg uint64) {
	r.SGPR.Write64(kernargSGPR, kernarg)

	ids := [3]uint32{id.X, id.Y, id.Z}
	first := groupIDLastSGPR - rank + 1
	for i := 0; i < rank; i++ {
		r.WriteSGPR(first+i, ids[i])
	}
}
