package tokenstore

import (
	"fmt"
	"time"

	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/redis"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and configures the process-wide store.
type Config struct {
	Driver     string        `mapstructure:"driver" validate:"oneof=memory redis"`
	TTL        time.Duration `mapstructure:"ttl" validate:"min=1s"`
	AccessKey  string        `mapstructure:"access_key" validate:"required"`
	RefreshKey string        `mapstructure:"refresh_key" validate:"required"`
	Redis      redis.Config  `mapstructure:"redis"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.AccessKey == "" {
		c.AccessKey = DefaultAccessKey
	}
	if c.RefreshKey == "" {
		c.RefreshKey = DefaultRefreshKey
	}
	if c.Driver == DriverRedis {
		c.Redis.ApplyDefaults()
	}
}

// New builds the store selected by cfg.Driver. The returned close function
// releases any connection the store holds.
func New(cfg Config, log *logger.Logger) (Store, func() error, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(TokenPair{}), func() error { return nil }, nil
	case DriverRedis:
		client, err := redis.New(cfg.Redis, log.WithComponent("redis"))
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, cfg.AccessKey, cfg.RefreshKey, cfg.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store driver %q", cfg.Driver)
	}
}
