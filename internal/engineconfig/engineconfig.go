// Package engineconfig loads the simulation engine's tuning parameters from
// a JSON file. Every field is optional so a config file only needs to
// override the defaults it cares about.
package engineconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the conventional location of an engine config file.
// The binary does not read it on its own: it loads a file only when -config
// names one, and otherwise keeps the compiled-in defaults.
const DefaultConfigPath = "config/engine.defaults.json"

// EngineConfig holds optional overrides for the simulation tick cadence,
// persistence batching, and network server sizing. Fields left nil keep
// their compiled-in default.
type EngineConfig struct {
	TickIntervalSeconds *int `json:"tick_interval_seconds,omitempty"`
	// LogBatchTicks is parsed and validated but not read by the scheduler,
	// whose log cadence is fixed at scheduler.IterationsPerLog.
	LogBatchTicks *int `json:"log_batch_ticks,omitempty"`

	NetPort    *int `json:"net_port,omitempty"`
	NetWorkers *int `json:"net_workers,omitempty"`
	NetQueue   *int `json:"net_queue,omitempty"`

	CommandPollSeconds *int `json:"command_poll_seconds,omitempty"`

	SqliteBusyRetrySeconds *int `json:"sqlite_busy_retry_seconds,omitempty"`
}

func ptrInt(v int) *int { return &v }

// Defaults returns the compiled-in engine configuration.
func Defaults() *EngineConfig {
	return &EngineConfig{
		TickIntervalSeconds:    ptrInt(1),
		LogBatchTicks:          ptrInt(60),
		NetPort:                ptrInt(27020),
		NetWorkers:             ptrInt(5),
		NetQueue:               ptrInt(256),
		CommandPollSeconds:     ptrInt(1),
		SqliteBusyRetrySeconds: ptrInt(1),
	}
}

// LoadEngineConfig reads a JSON file and overlays it on top of Defaults.
// Fields absent from the file keep their default value.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that override values fall within sane ranges.
func (c *EngineConfig) Validate() error {
	if c.TickIntervalSeconds != nil && *c.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tick_interval_seconds must be positive, got %d", *c.TickIntervalSeconds)
	}
	if c.LogBatchTicks != nil && *c.LogBatchTicks <= 0 {
		return fmt.Errorf("log_batch_ticks must be positive, got %d", *c.LogBatchTicks)
	}
	if c.NetPort != nil && (*c.NetPort <= 0 || *c.NetPort > 65535) {
		return fmt.Errorf("net_port must be a valid TCP port, got %d", *c.NetPort)
	}
	if c.NetWorkers != nil && *c.NetWorkers <= 0 {
		return fmt.Errorf("net_workers must be positive, got %d", *c.NetWorkers)
	}
	if c.NetQueue != nil && *c.NetQueue <= 0 {
		return fmt.Errorf("net_queue must be positive, got %d", *c.NetQueue)
	}
	if c.CommandPollSeconds != nil && *c.CommandPollSeconds <= 0 {
		return fmt.Errorf("command_poll_seconds must be positive, got %d", *c.CommandPollSeconds)
	}
	if c.SqliteBusyRetrySeconds != nil && *c.SqliteBusyRetrySeconds <= 0 {
		return fmt.Errorf("sqlite_busy_retry_seconds must be positive, got %d", *c.SqliteBusyRetrySeconds)
	}
	return nil
}
