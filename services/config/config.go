// Package config resolves the runtime configuration: an embedded per-board
// default, optionally overridden by a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BoardLinux = "linux"
	BoardPico  = "pico"
)

// EmbeddedConfigLookup allows overriding how board defaults are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

type Config struct {
	I2C        I2CConfig       `yaml:"i2c"`
	Chips      ChipsConfig     `yaml:"chips"`
	Init       InitConfig      `yaml:"init"`
	Storage    StorageConfig   `yaml:"storage"`
	Poll       PollConfig      `yaml:"poll"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Log        LogConfig       `yaml:"log"`
}

// ---- BUS ----

type I2CConfig struct {
	// Bus is the periph bus name ("" opens the first available bus).
	Bus string `yaml:"bus"`
}

type ChipsConfig struct {
	One ChipConfig `yaml:"one"`
	Two ChipConfig `yaml:"two"`
}

type ChipConfig struct {
	Address uint16 `yaml:"address"`
}

// ---- BEHAVIOUR ----

type InitConfig struct {
	BackoffMs int `yaml:"backoff_ms"`
}

type StorageConfig struct {
	Path     string `yaml:"path"`
	Volatile bool   `yaml:"volatile"` // in-memory only, nothing survives restart
	AutoSave bool   `yaml:"autosave"`
}

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

type ThresholdConfig struct {
	Touch   uint8 `yaml:"touch"`
	Release uint8 `yaml:"release"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Init.BackoffMs) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

// Default decodes the embedded defaults of board.
func Default(board string) (*Config, error) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for board: " + board)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("embedded config %s: %w", board, err)
	}
	return cfg, nil
}

// Load merges the YAML file at path (if any) over the defaults of board,
// validates the result and fills unset values.
func Load(board, path string) (*Config, error) {
	cfg, err := Default(board)
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		// Unmarshalling into the populated struct keeps keys the file omits.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}
