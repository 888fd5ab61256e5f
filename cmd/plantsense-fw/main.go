//go:build rp2040 || rp2350

package main

import (
	"time"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/internal/platform"
	"plantsense-go/services/config"
	"plantsense-go/services/touch"
	"plantsense-go/services/touch/console"
	"plantsense-go/services/touch/persist/flashkv"
	"plantsense-go/x/logx"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	uart := platform.UART0(115200)
	cfg, err := config.Load(config.BoardPico, "")
	if err != nil {
		println("[main] config:", err.Error())
		return
	}
	if err := logx.Init(uart, cfg.Log.Level); err != nil {
		println("[main] log:", err.Error())
	}
	logx.SetFlags(0)

	bus, err := platform.I2C0()
	if err != nil {
		logx.Error("i2c0: %v", err)
		return
	}

	svc := touch.New(touch.Config{
		Backoff:          cfg.Backoff(),
		TouchThreshold:   cfg.Thresholds.Touch,
		ReleaseThreshold: cfg.Thresholds.Release,
		AutoSave:         cfg.Storage.AutoSave,
	},
		mpr121.New(bus, cfg.Chips.One.Address),
		mpr121.New(bus, cfg.Chips.Two.Address),
		flashkv.New(platform.Flash()))

	// Blocks until both chips answer.
	if err := svc.Start(); err != nil {
		logx.Error("start: %v", err)
		return
	}
	logx.Info("ready")

	for {
		if err := console.New(svc).Serve(uart, uart); err != nil {
			logx.Error("console: %v", err)
		}
	}
}
