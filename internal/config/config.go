// Package config holds the process-wide, set-once configuration object.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the frozen, set-once set of process-wide knobs.
type Config struct {
	// FilterInput selects filter vs. display-only handling of
	// visible_nodes.
	FilterInput bool `yaml:"filter_input"`
	// Verbose enables informational warnings for recoverable anomalies
	// that would otherwise be silently tolerated.
	Verbose bool `yaml:"verbose"`
	// AllLogs is the per-record low-volume logs switch. It is stored here
	// only; no logger reads it, so it does not change what is logged.
	AllLogs bool `yaml:"all_logs"`
	// CallThreshold is a minimum mapper/runtime/application call duration.
	// It is stored here only; no pass reads it, so calls are retained
	// whatever their duration.
	CallThreshold time.Duration `yaml:"call_threshold"`
}

var (
	once   sync.Once
	global *Config
)

// Load reads an optional YAML config file. An empty path returns the
// zero-value Config (all features off, no threshold).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Freeze sets the process-wide Config exactly once; subsequent calls are
// no-ops.
func Freeze(cfg *Config) {
	once.Do(func() {
		global = cfg
	})
}

// Get returns the frozen process-wide Config. Panics if Freeze was never
// called, since these knobs have no safe implicit default.
func Get() *Config {
	if global == nil {
		panic("config: Get called before Freeze")
	}
	return global
}

// resetForTest clears the frozen config; only for use by tests in this
// package.
func resetForTest() {
	once = sync.Once{}
	global = nil
}
