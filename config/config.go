// Package config holds the run-time settings of the emulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"

	"github.com/sarchlab/wavesim/emu"
)

// Environment variables read by ApplyEnv.
const (
	EnvTrace           = "WAVESIM_TRACE"
	EnvWorkers         = "WAVESIM_WORKERS"
	EnvMaxInstructions = "WAVESIM_MAX_INSTRUCTIONS"
)

// Config holds the settings of one emulation run.
type Config struct {
	// MaxInstructions bounds the instructions each thread may execute.
	// 0 means no limit. Default: 10,000,000.
	MaxInstructions uint64 `json:"max_instructions"`

	// MemorySize is the capacity of the device address space in bytes.
	// Default: 64 MiB.
	MemorySize uint64 `json:"memory_size"`

	// LDSSize is the initial size of each work group's local data share in
	// bytes. The LDS grows on demand. Default: 64 KiB.
	LDSSize int `json:"lds_size"`

	// Workers is the number of work groups emulated concurrently.
	// Default: 4.
	Workers int `json:"workers"`

	// TraceLevel is "off", "instructions" or "state". Default: "off".
	TraceLevel string `json:"trace_level"`
}

// DefaultConfig returns a Config with the default values.
func DefaultConfig() *Config {
	return &Config{
		MaxInstructions: 10_000_000,
		MemorySize:      64 << 20,
		LDSSize:         64 << 10,
		Workers:         4,
		TraceLevel:      emu.TraceOff.String(),
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from the WAVESIM_* environment variables.
// Variables that are unset or do not parse leave the field unchanged.
func (c *Config) ApplyEnv() {
	c.TraceLevel = env.Str(EnvTrace, c.TraceLevel)
	c.Workers = env.Int(EnvWorkers, c.Workers)

	if env.Has(EnvMaxInstructions) {
		if n := env.Int(EnvMaxInstructions, -1); n >= 0 {
			c.MaxInstructions = uint64(n)
		}
	}
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.MemorySize == 0 {
		return fmt.Errorf("memory_size must be > 0")
	}
	if c.LDSSize < 0 {
		return fmt.Errorf("lds_size must be >= 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if _, err := c.Trace(); err != nil {
		return fmt.Errorf("trace_level: %w", err)
	}
	return nil
}

// Trace parses TraceLevel.
func (c *Config) Trace() (emu.TraceLevel, error) {
	return emu.ParseTraceLevel(c.TraceLevel)
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
