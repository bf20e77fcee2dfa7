package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Redis holds the connection settings for the redis-backed transport.
type Redis struct {
	Address      string `yaml:"address"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	StreamPrefix string `yaml:"stream_prefix"`
}

// Config is the ingest gateway configuration.
type Config struct {
	// Listen is the address of the HTTP ingest endpoint.
	Listen string `yaml:"listen"`

	// MetricsListen is the address of the Prometheus /metrics endpoint.
	MetricsListen string `yaml:"metrics_listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Redis Redis `yaml:"redis"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Listen:        ":8080",
		MetricsListen: ":2112",
		LogLevel:      "info",
		Redis: Redis{
			Address:      "localhost:6379",
			StreamPrefix: "ripple:events:",
		},
	}
}

// Load reads a YAML config file, filling omitted fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Listen == "" {
		return cfg, fmt.Errorf("config: listen address must not be empty")
	}
	return cfg, nil
}
