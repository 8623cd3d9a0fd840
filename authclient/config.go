package authclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/authclient/httpclient"
	"github.com/kbukum/authclient/refresh"
)

// RefreshConfig configures expiry detection and renewal.
type RefreshConfig struct {
	// Path is the renewal endpoint, called as POST {"refreshToken": ...}.
	Path string `yaml:"path" mapstructure:"path" validate:"startswith=/"`
	// ExpiredCode is the backend error code that marks an expired token.
	ExpiredCode string `yaml:"expired_code" mapstructure:"expired_code" validate:"required"`
	// CodePath is the gjson path of the backend error code in a 401 body.
	CodePath string `yaml:"code_path" mapstructure:"code_path" validate:"required"`
	// RenewalTimeout bounds the renewal call.
	RenewalTimeout time.Duration `yaml:"renewal_timeout" mapstructure:"renewal_timeout" validate:"min=1ms"`
	// WaiterTimeout bounds how long a request waits for a renewal.
	WaiterTimeout time.Duration `yaml:"waiter_timeout" mapstructure:"waiter_timeout" validate:"min=1ms"`
}

// ApplyDefaults fills in zero-value fields.
func (c *RefreshConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "/refresh"
	}
	if c.ExpiredCode == "" {
		c.ExpiredCode = "token.expired"
	}
	if c.CodePath == "" {
		c.CodePath = "code"
	}
	if c.RenewalTimeout <= 0 {
		c.RenewalTimeout = refresh.DefaultRenewalTimeout
	}
	if c.WaiterTimeout <= 0 {
		c.WaiterTimeout = refresh.DefaultWaiterTimeout
	}
}

// Validate checks the renewal settings.
func (c *RefreshConfig) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("refresh.path must start with / (got: %q)", c.Path)
	}
	if c.ExpiredCode == "" {
		return fmt.Errorf("refresh.expired_code is required")
	}
	return nil
}

// Config configures a Client.
type Config struct {
	HTTP    httpclient.Config `yaml:"http" mapstructure:"http"`
	Refresh RefreshConfig     `yaml:"refresh" mapstructure:"refresh"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	c.Refresh.ApplyDefaults()
	if c.HTTP.ErrorCodePath == "" {
		c.HTTP.ErrorCodePath = c.Refresh.CodePath
	}
	c.HTTP.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Refresh.Validate()
}
