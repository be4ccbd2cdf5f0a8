// Package config loads basekit settings from an optional YAML file and
// applies BASEKIT_* environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognised by ApplyEnv.
const (
	EnvArenaBlockSize    = "BASEKIT_ARENA_BLOCK_SIZE"
	EnvArenaMaxBlockSize = "BASEKIT_ARENA_MAX_BLOCK_SIZE"
	EnvArenaLimit        = "BASEKIT_ARENA_LIMIT"
	EnvPoolSlotSize      = "BASEKIT_POOL_SLOT_SIZE"
	EnvPoolSlots         = "BASEKIT_POOL_SLOTS"
	EnvWaitTimeoutMS     = "BASEKIT_WAIT_TIMEOUT_MS"
	EnvLogLevel          = "BASEKIT_LOG_LEVEL"
	EnvLogJSON           = "BASEKIT_LOG_JSON"
)

// ErrInvalid reports a settings value that cannot be used.
var ErrInvalid = errors.New("config: invalid settings")

// Arena configures alloc.Arena contexts.
type Arena struct {
	BlockSize    int64 `yaml:"block_size"`
	MaxBlockSize int64 `yaml:"max_block_size"`
	Limit        int64 `yaml:"limit"` // 0 means unbounded
}

// Pool configures alloc.Pool contexts.
type Pool struct {
	SlotSize int64 `yaml:"slot_size"`
	Slots    int   `yaml:"slots"`
}

// Wait configures default bounded waits.
type Wait struct {
	TimeoutMS uint64 `yaml:"timeout_ms"`
}

// Log configures internal/logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Settings is the full basekit configuration.
type Settings struct {
	Arena Arena `yaml:"arena"`
	Pool  Pool  `yaml:"pool"`
	Wait  Wait  `yaml:"wait"`
	Log   Log   `yaml:"log"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Arena: Arena{BlockSize: 4 << 10, MaxBlockSize: 64 << 10},
		Pool:  Pool{SlotSize: 256, Slots: 64},
		Wait:  Wait{TimeoutMS: 5000},
		Log:   Log{Level: "info"},
	}
}

// Load reads settings from a YAML file layered over Default, then applies
// environment overrides. An empty path or a missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return Settings{}, fmt.Errorf("config: yaml unmarshal %s: %w", path, err)
			}
		}
	}
	s.ApplyEnv()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ApplyEnv overrides fields from BASEKIT_* environment variables.
func (s *Settings) ApplyEnv() {
	s.Arena.BlockSize = int64(env.Int(EnvArenaBlockSize, int(s.Arena.BlockSize)))
	s.Arena.MaxBlockSize = int64(env.Int(EnvArenaMaxBlockSize, int(s.Arena.MaxBlockSize)))
	s.Arena.Limit = int64(env.Int(EnvArenaLimit, int(s.Arena.Limit)))
	s.Pool.SlotSize = int64(env.Int(EnvPoolSlotSize, int(s.Pool.SlotSize)))
	s.Pool.Slots = env.Int(EnvPoolSlots, s.Pool.Slots)
	if env.Has(EnvWaitTimeoutMS) {
		if ms := env.Int(EnvWaitTimeoutMS, -1); ms >= 0 {
			s.Wait.TimeoutMS = uint64(ms)
		}
	}
	s.Log.Level = env.Str(EnvLogLevel, s.Log.Level)
	if env.Has(EnvLogJSON) {
		s.Log.JSON = env.Bool(EnvLogJSON)
	}
}

// Validate rejects settings no allocator could be built from.
func (s Settings) Validate() error {
	switch {
	case s.Arena.BlockSize <= 0:
		return fmt.Errorf("%w: arena block_size %d", ErrInvalid, s.Arena.BlockSize)
	case s.Arena.MaxBlockSize < s.Arena.BlockSize:
		return fmt.Errorf("%w: arena max_block_size %d below block_size %d",
			ErrInvalid, s.Arena.MaxBlockSize, s.Arena.BlockSize)
	case s.Arena.Limit < 0:
		return fmt.Errorf("%w: arena limit %d", ErrInvalid, s.Arena.Limit)
	case s.Pool.SlotSize <= 0:
		return fmt.Errorf("%w: pool slot_size %d", ErrInvalid, s.Pool.SlotSize)
	case s.Pool.Slots <= 0:
		return fmt.Errorf("%w: pool slots %d", ErrInvalid, s.Pool.Slots)
	}
	return nil
}
