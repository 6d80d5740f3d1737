package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type BillingConfig struct {
	// Free minutes granted to every new client account.
	SignupFreeMinutes int `yaml:"signup_free_minutes"`
}

type SessionConfig struct {
	// LowBalanceWarning and IdleTimeout are durations like "60s", "5m".
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	ReapInterval  time.Duration `yaml:"reap_interval"`
	WorkerCount   int           `yaml:"worker_count"`
	DedupeTTL     time.Duration `yaml:"dedupe_ttl"`
	DedupeMaxSize int           `yaml:"dedupe_max_size"`
}

type SecurityConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// EncryptionKey seals session snapshots mirrored to redis. Optional;
	// must be 16, 24 or 32 bytes when set.
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Billing  BillingConfig  `yaml:"billing"`
	Session  SessionConfig  `yaml:"session"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		// Dev mode runs with defaults when no config file is around.
		if !dev {
			return nil, fmt.Errorf("read config: %w", err)
		}
		b = nil
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation. Dev mode runs entirely in memory, so the database
	// and redis URLs are only required in prod.
	if !dev {
		if cfg.Database.URL == "" {
			return nil, errors.New("database.url is required")
		}
		if cfg.Redis.URL == "" {
			return nil, errors.New("redis.url is required")
		}
		if cfg.Security.JWTSecret == "" {
			return nil, errors.New("security.jwt_secret is required")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Billing.SignupFreeMinutes < 0 {
		cfg.Billing.SignupFreeMinutes = 0
	}
	if cfg.Session.IdleTimeout <= 0 {
		cfg.Session.IdleTimeout = 10 * time.Minute
	}
	if cfg.Session.ReapInterval <= 0 {
		cfg.Session.ReapInterval = time.Minute
	}
	if cfg.Session.WorkerCount <= 0 {
		cfg.Session.WorkerCount = 4
	}
	if cfg.Session.DedupeTTL <= 0 {
		cfg.Session.DedupeTTL = 5 * time.Minute
	}
	if cfg.Session.DedupeMaxSize <= 0 {
		cfg.Session.DedupeMaxSize = 10000
	}
	if cfg.Security.TokenTTL <= 0 {
		cfg.Security.TokenTTL = 24 * time.Hour
	}
}
