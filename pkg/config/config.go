// Package config reads the KOMPILATOR_* environment variables shared by the
// command-line front ends.
package config

import (
	"time"

	"github.com/xyproto/env/v2"
)

const (
	DefaultMaxSteps   = 100_000_000
	DefaultHistory    = "~/.kompilator_history"
	DefaultExt        = ".mr"
	DefaultDebounceMS = 200
)

type Config struct {
	MaxSteps    int           // emulator step limit, 0 for none
	Verbose     bool          // log pipeline progress
	ShowCost    bool          // print the execution cost after a run
	HistoryFile string        // console line history
	Ext         string        // extension of compiled listings
	Debounce    time.Duration // watch mode: quiet time before recompiling
}

// Load reads the environment, falling back to the defaults above. The env
// package caches variables, so the cache is refreshed first.
func Load() Config {
	env.Load()
	cfg := Config{
		MaxSteps:    env.Int("KOMPILATOR_MAX_STEPS", DefaultMaxSteps),
		Verbose:     env.Bool("KOMPILATOR_VERBOSE"),
		ShowCost:    env.Bool("KOMPILATOR_SHOW_COST"),
		HistoryFile: env.ExpandUser(env.Str("KOMPILATOR_HISTORY", DefaultHistory)),
		Ext:         env.Str("KOMPILATOR_EXT", DefaultExt),
		Debounce:    time.Duration(env.Int("KOMPILATOR_WATCH_DEBOUNCE_MS", DefaultDebounceMS)) * time.Millisecond,
	}
	if cfg.MaxSteps < 0 {
		cfg.MaxSteps = 0
	}
	if cfg.Ext != "" && cfg.Ext[0] != '.' {
		cfg.Ext = "." + cfg.Ext
	}
	return cfg
}
