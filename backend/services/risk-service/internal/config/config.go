package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "driverisk/backend/libs/config"
)

// Config defines risk service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"RISK_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"RISK_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"RISK_REDIS_ADDR"`
		Password string `yaml:"password" env:"RISK_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"RISK_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"RISK_REDIS_TTL"`
	} `yaml:"redis"`
	Predictor struct {
		URL      string        `yaml:"url" env:"RISK_PREDICTOR_URL"`
		Timeout  time.Duration `yaml:"timeout" env:"RISK_PREDICTOR_TIMEOUT"`
		Fallback bool          `yaml:"fallback" env:"RISK_PREDICTOR_FALLBACK"`
	} `yaml:"predictor"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"RISK_JWT_SECRET"`
	} `yaml:"auth"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8086"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 3600
	cfg.Predictor.URL = "http://localhost:8000"
	cfg.Predictor.Timeout = 5 * time.Second
	cfg.Predictor.Fallback = true

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Predictor.URL) == "" {
		return nil, errors.New("config: predictor url required")
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
		port = "8086"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ScoreCacheTTL returns ttl as duration.
func (c *Config) ScoreCacheTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
