package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development" validate:"oneof=development test staging production"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s" validate:"gt=0"`

	JWT   JWTConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET, required"         validate:"min=32"`
	Issuer     string        `env:"JWT_ISSUER"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL,  default=24h"  validate:"gt=0"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL, default=168h" validate:"gtfield=AccessTTL"`
	Leeway     time.Duration `env:"JWT_LEEWAY,      default=30s"  validate:"gte=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017" validate:"required"`
	Database string `env:"MONGO_DB,  default=i3m_platform"              validate:"required"`
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,       default=localhost:6379" validate:"required"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,         default=0"              validate:"gte=0"`
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL, default=1h"             validate:"gt=0"`
}

// Development reports whether the service runs with developer conveniences such
// as pretty console logs.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig and
// validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit variable source.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}
