package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the simulation configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Filter   FilterConfig   `yaml:"filter"`
	Log      LogConfig      `yaml:"log"`
	Signal   SignalConfig   `yaml:"signal"`
}

// PipelineConfig contains sampling loop parameters.
type PipelineConfig struct {
	Cycles            int           `yaml:"cycles"`
	Step              time.Duration `yaml:"step"`                // Simulated time between samples
	HighDutyThreshold uint8         `yaml:"high_duty_threshold"` // Advisory is logged when duty exceeds this
	Realtime          bool          `yaml:"realtime"`            // Wait one step of wall-clock time per cycle
}

// FilterConfig contains moving-average parameters.
type FilterConfig struct {
	Window int `yaml:"window"`
}

// LogConfig contains bounded log parameters.
type LogConfig struct {
	Capacity int `yaml:"capacity"`
	MaxLine  int `yaml:"max_line"` // Longer lines are truncated
}

// SignalConfig contains simulated sensor parameters.
type SignalConfig struct {
	FrequencyHz float64 `yaml:"frequency_hz"` // Must be positive; 0 in a file selects the default
	Seed        int64   `yaml:"seed"`         // Noise seed (0 = seed from wall clock)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Cycles:            256,
			Step:              50 * time.Millisecond, // 20 Hz
			HighDutyThreshold: 80,
			Realtime:          false,
		},
		Filter: FilterConfig{
			Window: 8,
		},
		Log: LogConfig{
			Capacity: 16,
			MaxLine:  127,
		},
		Signal: SignalConfig{
			FrequencyHz: 0.5,
			Seed:        0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports values that cannot drive a run.
// Zero values are filled in by Load; negative ones are rejected here.
func (c *Config) Validate() error {
	if c.Pipeline.Cycles <= 0 {
		return fmt.Errorf("%w: pipeline.cycles must be positive, got %d", ErrInvalid, c.Pipeline.Cycles)
	}
	if c.Pipeline.Step <= 0 {
		return fmt.Errorf("%w: pipeline.step must be positive, got %v", ErrInvalid, c.Pipeline.Step)
	}
	if c.Pipeline.HighDutyThreshold > 100 {
		return fmt.Errorf("%w: pipeline.high_duty_threshold must be 0-100, got %d", ErrInvalid, c.Pipeline.HighDutyThreshold)
	}
	if c.Filter.Window <= 0 {
		return fmt.Errorf("%w: filter.window must be positive, got %d", ErrInvalid, c.Filter.Window)
	}
	if c.Log.Capacity <= 0 || c.Log.MaxLine <= 0 {
		return fmt.Errorf("%w: log.capacity and log.max_line must be positive", ErrInvalid)
	}
	if c.Signal.FrequencyHz <= 0 {
		return fmt.Errorf("%w: signal.frequency_hz must be positive, got %g", ErrInvalid, c.Signal.FrequencyHz)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Pipeline.Cycles == 0 {
		c.Pipeline.Cycles = def.Pipeline.Cycles
	}
	if c.Pipeline.Step == 0 {
		c.Pipeline.Step = def.Pipeline.Step
	}

	if c.Filter.Window == 0 {
		c.Filter.Window = def.Filter.Window
	}

	if c.Log.Capacity == 0 {
		c.Log.Capacity = def.Log.Capacity
	}
	if c.Log.MaxLine == 0 {
		c.Log.MaxLine = def.Log.MaxLine
	}

	if c.Signal.FrequencyHz == 0 {
		c.Signal.FrequencyHz = def.Signal.FrequencyHz
	}
}
