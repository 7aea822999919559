package cosim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Mode selects the completion action of the bridge.
type Mode uint8

// Bridge modes.
const (
	// ModeStandalone copies the model's final data memory out to the bridge.
	ModeStandalone Mode = iota
	// ModeCompanion compares the model's final data memory with the one
	// produced by the design under test.
	ModeCompanion
)

func (m Mode) String() string {
	if m == ModeCompanion {
		return "companion"
	}
	return "standalone"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "standalone":
		*m = ModeStandalone
	case "companion":
		*m = ModeCompanion
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

// Config holds the static configuration of a bridge.
type Config struct {
	// Mode selects the completion action. Default: standalone.
	Mode Mode `json:"mode" yaml:"mode"`

	// IMem and DMem name the instruction and data memory regions the model
	// reads at start.
	IMem     string `json:"imem" yaml:"imem"`
	IMemSize uint32 `json:"imem_size" yaml:"imem_size"`
	DMem     string `json:"dmem" yaml:"dmem"`
	DMemSize uint32 `json:"dmem_size" yaml:"dmem_size"`

	// StartAddr is the address of the first instruction.
	StartAddr uint32 `json:"start_addr" yaml:"start_addr"`

	// ModelVersion is a semantic version constraint the model must
	// satisfy. Empty accepts any version.
	ModelVersion string `json:"model_version" yaml:"model_version"`

	// MaxCycles bounds Run. 0 means no limit.
	MaxCycles uint64 `json:"max_cycles" yaml:"max_cycles"`
}

// DefaultConfig returns a Config for the 4 KiB OTBN memories.
func DefaultConfig() *Config {
	return &Config{
		Mode:         ModeStandalone,
		IMem:         "imem",
		IMemSize:     4096,
		DMem:         "dmem",
		DMemSize:     4096,
		StartAddr:    0,
		ModelVersion: ">= 1.0.0, < 2.0.0",
		MaxCycles:    1_000_000,
	}
}

// LoadConfig loads a Config from a JSON or YAML file, chosen by extension.
// Fields absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cosim config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse cosim config: %w", err)
	}

	return config, config.Validate()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.IMem == "" || c.DMem == "" {
		return fmt.Errorf("imem and dmem must be named")
	}
	if c.IMem == c.DMem {
		return fmt.Errorf("imem and dmem must be distinct regions")
	}
	if c.IMemSize == 0 || c.DMemSize == 0 {
		return fmt.Errorf("imem_size and dmem_size must be > 0")
	}
	if c.StartAddr%4 != 0 || c.StartAddr >= c.IMemSize {
		return fmt.Errorf("start_addr 0x%x must be word aligned and inside imem", c.StartAddr)
	}
	return nil
}

// Regions returns the regions passed to Model.Start.
func (c *Config) Regions() []Region {
	return []Region{
		{Kind: RegionIMem, Name: c.IMem, Size: c.IMemSize},
		{Kind: RegionDMem, Name: c.DMem, Size: c.DMemSize},
	}
}
