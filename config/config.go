package config

import (
	"fmt"

	"github.com/kbukum/authclient/authclient"
	"github.com/kbukum/authclient/guard"
	"github.com/kbukum/authclient/httpclient"
	"github.com/kbukum/authclient/observability"
	"github.com/kbukum/authclient/tokenstore"
	"github.com/kbukum/authclient/validation"
)

// Config is the complete authclient configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	HTTP      httpclient.Config        `yaml:"http" mapstructure:"http"`
	Refresh   authclient.RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Store     tokenstore.Config        `yaml:"store" mapstructure:"store"`
	Guard     guard.Config             `yaml:"guard" mapstructure:"guard"`
	Telemetry observability.Config     `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills in every zero-value field.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Refresh.ApplyDefaults()
	if c.HTTP.ErrorCodePath == "" {
		c.HTTP.ErrorCodePath = c.Refresh.CodePath
	}
	c.HTTP.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Guard.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks struct tags first, then the cross-field rules each
// section owns.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("config.http: %w", err)
	}
	if err := c.Refresh.Validate(); err != nil {
		return fmt.Errorf("config.refresh: %w", err)
	}
	if c.Store.Driver == tokenstore.DriverRedis {
		if err := c.Store.Redis.Validate(); err != nil {
			return fmt.Errorf("config.store.redis: %w", err)
		}
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

// Client returns the authenticated client settings.
func (c *Config) Client() authclient.Config {
	return authclient.Config{HTTP: c.HTTP, Refresh: c.Refresh}
}

// Load reads, defaults and validates the configuration for serviceName.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
