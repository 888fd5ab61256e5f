package config

import (
	"fmt"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/x/logx"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	chips := []struct {
		name string
		addr uint16
	}{
		{"one", cfg.Chips.One.Address},
		{"two", cfg.Chips.Two.Address},
	}
	for _, c := range chips {
		// zero means "use the default"
		if c.addr == 0 {
			continue
		}
		if c.addr < mpr121.AddressGND || c.addr > mpr121.AddressSCL {
			return fmt.Errorf("chips.%s.address %#02x: MPR121 answers on 0x5a-0x5d only", c.name, c.addr)
		}
	}
	if a, b := cfg.Chips.One.Address, cfg.Chips.Two.Address; a != 0 && a == b {
		return fmt.Errorf("chips.one and chips.two share address %#02x", a)
	}

	if cfg.Init.BackoffMs < 0 {
		return fmt.Errorf("init.backoff_ms must not be negative")
	}
	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll.interval_ms must not be negative")
	}

	t := cfg.Thresholds
	if t.Touch != 0 && t.Release != 0 && t.Release >= t.Touch {
		return fmt.Errorf("thresholds.release (%d) must be below thresholds.touch (%d)", t.Release, t.Touch)
	}

	if cfg.Log.Level != "" {
		if _, err := logx.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}
