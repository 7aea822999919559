package otp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// CtrlConfig holds the OTP controller configuration.
type CtrlConfig struct {
	// MacroSize is the OTP array size in bytes. Default: 0x800.
	MacroSize uint32 `json:"macro_size" yaml:"macro_size"`

	// MacroLatency is the macro response latency in cycles. Default: 1.
	MacroLatency int `json:"macro_latency" yaml:"macro_latency"`

	// MaxCycles bounds the blocking helpers Init and Read. Default: 10000.
	MaxCycles uint64 `json:"max_cycles" yaml:"max_cycles"`

	// Partitions is the partition map, in arbitration priority order.
	Partitions []Partition `json:"partitions" yaml:"partitions"`
}

// DefaultCtrlConfig returns the standard 2 KiB configuration.
func DefaultCtrlConfig() *CtrlConfig {
	return &CtrlConfig{
		MacroSize:    0x800,
		MacroLatency: 1,
		MaxCycles:    10000,
		Partitions:   DefaultPartitions(),
	}
}

// LoadPartitionMap loads a CtrlConfig from a JSON or YAML file, chosen by
// extension. A file without partitions keeps the default map.
func LoadPartitionMap(path string) (*CtrlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read partition map: %w", err)
	}

	config := DefaultCtrlConfig()
	config.Partitions = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse partition map: %w", err)
	}

	if len(config.Partitions) == 0 {
		config.Partitions = DefaultPartitions()
	}

	return config, config.Validate()
}

// Validate checks the configuration.
func (c *CtrlConfig) Validate() error {
	if c.MacroSize == 0 || c.MacroSize%BlockBytes != 0 {
		return fmt.Errorf("macro_size must be a positive multiple of %d", BlockBytes)
	}
	if c.MacroLatency < 1 {
		return fmt.Errorf("macro_latency must be >= 1")
	}
	if len(c.Partitions) == 0 {
		return fmt.Errorf("at least one partition is required")
	}
	return ValidateMap(c.Partitions, c.MacroSize)
}
