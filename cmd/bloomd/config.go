package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/vkuptcov/bloomstore"
)

const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendBitcask = "bitcask"
)

type Config struct {
	Server ServerConfig `json:"server"`
	Store  StoreConfig  `json:"store"`
	Filter FilterConfig `json:"filter"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
	Mode string `json:"mode"` // debug, release, test
	// LogLevel is parsed by logrus.ParseLevel
	LogLevel string `json:"log_level"`
}

type StoreConfig struct {
	Backend string        `json:"backend"`
	Redis   RedisConfig   `json:"redis"`
	Bitcask BitcaskConfig `json:"bitcask"`
}

type RedisConfig struct {
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	MaxRetries int    `json:"max_retries"`
}

type BitcaskConfig struct {
	Dir string `json:"dir"`
}

// FilterConfig holds the defaults for filters created without explicit parameters.
type FilterConfig struct {
	Capacity  uint64  `json:"capacity"`
	ErrorRate float64 `json:"error_rate"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:     ":8080",
			Mode:     "release",
			LogLevel: "info",
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:       "localhost:6379",
				MaxRetries: 10,
			},
			Bitcask: BitcaskConfig{
				Dir: "data/bloom",
			},
		},
		Filter: FilterConfig{
			Capacity:  bloom.DefaultCapacity,
			ErrorRate: bloom.DefaultErrorRate,
		},
	}
}

// LoadConfig reads a JSON file over DefaultConfig. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, errors.Wrap(readErr, "config read failed")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config %q parse failed", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis, BackendBitcask:
	default:
		return errors.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return errors.Wrap(
		bloom.Params{Capacity: c.Filter.Capacity, ErrorRate: c.Filter.ErrorRate}.Validate(),
		"default filter parameters",
	)
}
