package config

import "plantsense-go/drivers/mpr121"

const (
	defaultBackoffMs  = 100
	defaultIntervalMs = 500
	defaultPath       = "plantsense.db"
)

// Normalize fills unset values. It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Chips.One.Address == 0 {
		cfg.Chips.One.Address = mpr121.AddressGND
	}
	if cfg.Chips.Two.Address == 0 {
		cfg.Chips.Two.Address = mpr121.AddressSDA
		if cfg.Chips.One.Address == mpr121.AddressSDA {
			cfg.Chips.Two.Address = mpr121.AddressGND
		}
	}
	if cfg.Init.BackoffMs == 0 {
		cfg.Init.BackoffMs = defaultBackoffMs
	}
	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = defaultIntervalMs
	}
	if cfg.Storage.Path == "" && !cfg.Storage.Volatile {
		cfg.Storage.Path = defaultPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
