// Package main provides the entry point for wavesim.
// wavesim runs RDNA3 GPU kernels on a functional wavefront emulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/wavesim/config"
	"github.com/sarchlab/wavesim/dispatch"
	"github.com/sarchlab/wavesim/emu"
	"github.com/sarchlab/wavesim/loader"
)

var (
	configPath = flag.String("config", "", "Path to configuration JSON file")
	kernelName = flag.String("kernel", "", "Kernel to run (default: the first kernel)")
	gridFlag   = flag.String("grid", "1", "Work groups as x[,y[,z]]")
	blockFlag  = flag.String("block", "1", "Threads per work group as x[,y[,z]]")
	workers    = flag.Int("workers", 0, "Work groups emulated concurrently (overrides config)")
	traceFlag  = flag.String("trace", "", "Trace level: off, instructions or state (overrides config)")
	dumpWords  = flag.Int("dump", 16, "Words of each buffer to print after the run")
	listOnly   = flag.Bool("list", false, "List the kernels in the file and exit")
	verbose    = flag.Bool("v", false, "Verbose output")
	cpuProfile = flag.String("cpuprofile", "", "Write CPU profile to file")
	memProfile = flag.String("memprofile", "", "Write memory profile to file")

	kernelArgs argList
)

func init() {
	flag.Var(&kernelArgs, "arg",
		"Kernel argument: buf:<bytes>, file:<path>, u32:<value>, u64:<value> or f32:<value> (repeatable)")
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: wavesim [options] <kernel.co|kernel.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
	}

	err := run(flag.Arg(0))

	if *cpuProfile != "" {
		pprof.StopCPUProfile()
	}
	if *memProfile != "" {
		writeHeapProfile(*memProfile)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	if err := pprof.WriteHeapProfile(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
	}
}

func run(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	traceLevel, err := cfg.Trace()
	if err != nil {
		return err
	}

	obj, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load kernel file: %w", err)
	}
	if *listOnly {
		for _, k := range obj.Kernels {
			fmt.Printf("%s\t0x%X\t%d words\n", k.Name, k.Addr, len(k.Code))
		}
		return nil
	}

	kernel, err := obj.Kernel(*kernelName)
	if err != nil {
		return err
	}
	grid, err := parseDim3(*gridFlag)
	if err != nil {
		return fmt.Errorf("-grid: %w", err)
	}
	block, err := parseDim3(*blockFlag)
	if err != nil {
		return fmt.Errorf("-block: %w", err)
	}

	memory := emu.NewMemory(cfg.MemorySize)
	args, buffers, err := kernelArgs.materialize(memory)
	if err != nil {
		return err
	}

	logger := newLogger(traceLevel)
	d := dispatch.NewDispatcher(memory,
		dispatch.WithWorkers(cfg.Workers),
		dispatch.WithLDSSize(cfg.LDSSize),
		dispatch.WithEmulatorOptions(emu.WithMaxInstructions(cfg.MaxInstructions)),
		dispatch.WithLogger(logger, traceLevel),
	)

	start := time.Now()
	result, err := d.Launch(context.Background(), kernel.Code, grid, block, args)
	if err != nil {
		return fmt.Errorf("kernel %s failed: %w", kernel.Name, err)
	}
	elapsed := time.Since(start)

	if err := dumpBuffers(os.Stdout, memory, buffers, *dumpWords); err != nil {
		return err
	}
	if *verbose {
		printStats(os.Stdout, kernel.Name, result)
		fmt.Printf("Elapsed time: %v\n", elapsed)
	}
	return nil
}

// loadConfig layers the config file, the environment and the flags, in that
// order.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *traceFlag != "" {
		cfg.TraceLevel = *traceFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(traceLevel emu.TraceLevel) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case traceLevel > emu.TraceOff:
		level = slog.LevelDebug
	case *verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
