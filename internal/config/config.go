// Package config loads service configuration from an optional YAML file with
// environment variable overrides taking precedence.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Auth     AuthConfig     `yaml:"auth"`
	Uploads  UploadsConfig  `yaml:"uploads"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type TrackerConfig struct {
	// BaseURL is the upstream tracking API root, e.g. http://tracker:8082/api
	BaseURL  string        `yaml:"base_url"`
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads the given YAML file if it exists, applies env overrides, and
// fills defaults. A missing file is not an error; a missing JWT secret is.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// env-only configuration
		default:
			return nil, err
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("TRACKER_API_URL"); v != "" {
		cfg.Tracker.BaseURL = v
	}
	if v := os.Getenv("TRACKER_EMAIL"); v != "" {
		cfg.Tracker.Email = v
	}
	if v := os.Getenv("TRACKER_PASSWORD"); v != "" {
		cfg.Tracker.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Uploads.Dir = v
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "3666"
	}
	if cfg.Tracker.Timeout == 0 {
		cfg.Tracker.Timeout = 10 * time.Second
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 8 * time.Hour
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 12
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "uploads"
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}
	return cfg, nil
}
