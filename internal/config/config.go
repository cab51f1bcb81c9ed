package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "greenhat/libs/config"
)

// Config defines admin service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"ADMIN_HTTP_PORT"`
	} `yaml:"http"`
	Portal struct {
		BaseURL        string `yaml:"baseUrl" env:"PORTAL_BASE_URL"`
		Email          string `yaml:"email" env:"PORTAL_EMAIL"`
		Password       string `yaml:"password" env:"PORTAL_PASSWORD"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"PORTAL_TIMEOUT"`
	} `yaml:"portal"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"ADMIN_JWT_SECRET"`
	} `yaml:"auth"`
	Redis struct {
		Addr       string `yaml:"addr" env:"ADMIN_REDIS_ADDR"`
		Password   string `yaml:"password" env:"ADMIN_REDIS_PASSWORD"`
		DB         int    `yaml:"db" env:"ADMIN_REDIS_DB"`
		TTLSeconds int    `yaml:"ttlSeconds" env:"ADMIN_REDIS_TTL"`
	} `yaml:"redis"`
	Poll struct {
		FetchSeconds int `yaml:"fetchSeconds" env:"ADMIN_POLL_FETCH"`
		TickSeconds  int `yaml:"tickSeconds" env:"ADMIN_POLL_TICK"`
	} `yaml:"poll"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8090"
	cfg.Portal.TimeoutSeconds = 15
	cfg.Redis.TTLSeconds = 3600
	cfg.Poll.FetchSeconds = 8
	cfg.Poll.TickSeconds = 60

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Portal.BaseURL) == "" {
		return nil, errors.New("config: portal base url required")
	}
	if strings.TrimSpace(cfg.Portal.Email) == "" || cfg.Portal.Password == "" {
		return nil, errors.New("config: portal credentials required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// PortalTimeout returns the portal HTTP client timeout.
func (c *Config) PortalTimeout() time.Duration {
	if c.Portal.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Portal.TimeoutSeconds) * time.Second
}

// SnapshotTTL returns how long a cached snapshot stays usable.
func (c *Config) SnapshotTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// FetchInterval returns the portal poll cadence.
func (c *Config) FetchInterval() time.Duration {
	if c.Poll.FetchSeconds <= 0 {
		return 8 * time.Second
	}
	return time.Duration(c.Poll.FetchSeconds) * time.Second
}

// TickInterval returns the local recompute cadence.
func (c *Config) TickInterval() time.Duration {
	if c.Poll.TickSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Poll.TickSeconds) * time.Second
}
