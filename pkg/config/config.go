package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents bnclass configuration
type Config struct {
	// Classifier settings
	Model ModelConfig `yaml:"model"`

	// Performance settings
	Performance PerformanceConfig `yaml:"performance"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`

	// Shared count store settings
	Store StoreConfig `yaml:"store"`
}

// ModelConfig contains classifier parameters
type ModelConfig struct {
	Type      string `yaml:"type"`      // nbc or aode
	Classes   int    `yaml:"classes"`   // number of trailing class attributes
	Threshold int    `yaml:"threshold"` // AODE minimum super-parent support
	Verbose   int    `yaml:"verbose"`   // diagnostics level 0-3
}

// PerformanceConfig contains parallelism settings
type PerformanceConfig struct {
	Workers int `yaml:"workers"` // parallel classification workers
	Shards  int `yaml:"shards"`  // parallel training shards
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	File   string `yaml:"file"`   // log file path, empty = stderr only
	Format string `yaml:"format"` // json, text
}

// StoreConfig contains Redis count store settings
type StoreConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`
	BatchSize   int    `yaml:"batch_size"`

	// Delete stored counts before pushing a new training run
	Reset bool `yaml:"reset"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Type:      "nbc",
			Classes:   1,
			Threshold: 0,
			Verbose:   0,
		},
		Performance: PerformanceConfig{
			Workers: 1,
			Shards:  1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "text",
		},
		Store: StoreConfig{
			Enabled:     false,
			RedisURL:    "redis://localhost:6379",
			KeyPrefix:   "bnclass:counts",
			DatabaseNum: 0,
			BatchSize:   1000,
			Reset:       true,
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If no config file specified, return defaults
	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	err = os.WriteFile(configPath, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model.Type != "nbc" && c.Model.Type != "aode" {
		return fmt.Errorf("model type must be 'nbc' or 'aode', got %q", c.Model.Type)
	}
	if c.Model.Classes < 1 {
		return fmt.Errorf("model classes must be >= 1")
	}
	if c.Model.Threshold < 0 {
		return fmt.Errorf("model threshold must be >= 0")
	}
	if c.Model.Verbose < 0 || c.Model.Verbose > 3 {
		return fmt.Errorf("model verbose must be between 0 and 3")
	}

	if c.Performance.Workers < 1 {
		return fmt.Errorf("performance workers must be >= 1")
	}
	if c.Performance.Shards < 1 {
		return fmt.Errorf("performance shards must be >= 1")
	}

	validLevel := false
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if c.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging format must be 'text' or 'json'")
	}

	if c.Store.Enabled {
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store redis_url cannot be empty when enabled")
		}
		if c.Store.KeyPrefix == "" {
			return fmt.Errorf("store key_prefix cannot be empty when enabled")
		}
		if c.Store.BatchSize < 1 {
			return fmt.Errorf("store batch_size must be >= 1")
		}
	}

	return nil
}
