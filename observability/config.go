package observability

import (
	"fmt"
	"time"
)

// Config enables OTLP/HTTP export of traces and metrics.
type Config struct {
	Enabled    bool          `mapstructure:"enabled"`
	Endpoint   string        `mapstructure:"endpoint"`
	Insecure   bool          `mapstructure:"insecure"`
	SampleRate float64       `mapstructure:"sample_rate" validate:"min=0,max=1"`
	Interval   time.Duration `mapstructure:"interval"`
}

// Service identifies the process in exported telemetry.
type Service struct {
	Name        string
	Version     string
	Environment string
}

// ApplyDefaults targets a local collector and samples everything.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate checks the export settings when export is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("telemetry endpoint is required")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry sample_rate must be within [0, 1] (got: %v)", c.SampleRate)
	}
	return nil
}
