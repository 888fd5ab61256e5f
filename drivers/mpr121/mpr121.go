// Package mpr121 provides a driver for the MPR121 12-channel capacitive touch controller.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/MPR121.pdf
//
// The driver only needs an I2C bus implementing tinygo.org/x/drivers.I2C, so the
// same code runs on TinyGo targets and on Linux through a periph.io adapter.
// All bus faults are returned to the caller; nothing is retried here.
package mpr121

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

var (
	ErrNotFound = errors.New("mpr121: device not found")
	ErrChannel  = errors.New("mpr121: channel out of range")
)

// Config holds the values applied by Begin. Zero thresholds select 12/6.
type Config struct {
	TouchThreshold   uint8
	ReleaseThreshold uint8
	// AutoConfig enables the on-chip charge auto-configuration (limits for Vdd = 3.3 V).
	AutoConfig bool
}

// DefaultConfig matches the usual breakout defaults.
func DefaultConfig() Config {
	return Config{TouchThreshold: 12, ReleaseThreshold: 6, AutoConfig: true}
}

// Device is one MPR121 on an I2C bus.
type Device struct {
	bus  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [2]byte
}

// New returns a handle; it does not touch the bus.
func New(bus drivers.I2C, addr uint16) *Device {
	if addr == 0 {
		addr = AddressGND
	}
	return &Device{bus: bus, addr: addr}
}

func (d *Device) Address() uint16 { return d.addr }

// Begin resets the chip, verifies it answers like an MPR121 and loads the
// baseline filter, threshold and electrode settings. It returns ErrNotFound
// (possibly wrapping the bus error) when the device is absent.
func (d *Device) Begin(cfg Config) error {
	if cfg.TouchThreshold == 0 {
		cfg.TouchThreshold = 12
	}
	if cfg.ReleaseThreshold == 0 {
		cfg.ReleaseThreshold = 6
	}

	if err := d.write(regSoftReset, softResetMagic); err != nil {
		return errors.Join(ErrNotFound, err)
	}
	time.Sleep(time.Millisecond)
	if err := d.write(RegECR, 0x00); err != nil {
		return errors.Join(ErrNotFound, err)
	}
	c2, err := d.ReadRegister(RegConfig2)
	if err != nil {
		return errors.Join(ErrNotFound, err)
	}
	if c2 != config2ResetValue {
		return ErrNotFound
	}

	if err := d.setThresholds(cfg.TouchThreshold, cfg.ReleaseThreshold); err != nil {
		return err
	}

	seq := [...][2]uint8{
		{regMHDR, 0x01}, {regNHDR, 0x01}, {regNCLR, 0x0E}, {regFDLR, 0x00},
		{regMHDF, 0x01}, {regNHDF, 0x05}, {regNCLF, 0x01}, {regFDLF, 0x00},
		{regNHDT, 0x00}, {regNCLT, 0x00}, {regFDLT, 0x00},
		{regDebounce, 0x00},
		{RegConfig1, 0x10}, // 16 uA charge current
		{RegConfig2, 0x20}, // 0.5 us charge time, 1 ms period
	}
	for _, kv := range seq {
		if err := d.write(kv[0], kv[1]); err != nil {
			return err
		}
	}

	if cfg.AutoConfig {
		auto := [...][2]uint8{
			{regAutoConfig0, 0x0B},
			{regUpLimit, 200},     // ((Vdd - 0.7) / Vdd) * 256
			{regTargetLimit, 180}, // UPLIMIT * 0.9
			{regLowLimit, 130},    // UPLIMIT * 0.65
		}
		for _, kv := range auto {
			if err := d.write(kv[0], kv[1]); err != nil {
				return err
			}
		}
	}

	return d.write(RegECR, ecrBaseTrack|Electrodes)
}

// WriteRegister writes one register. Except for ECR and the GPIO block, the
// chip only accepts writes in stop mode, so ECR is cleared around the write
// and restored afterwards.
func (d *Device) WriteRegister(reg, val uint8) error {
	if reg == RegECR || (reg >= regGPIOFirst && reg <= regGPIOLast) {
		return d.write(reg, val)
	}
	ecr, err := d.ReadRegister(RegECR)
	if err != nil {
		return err
	}
	if err := d.write(RegECR, 0x00); err != nil {
		return err
	}
	if err := d.write(reg, val); err != nil {
		// Best effort: leave the chip running even if the target write failed.
		_ = d.write(RegECR, ecr)
		return err
	}
	return d.write(RegECR, ecr)
}

func (d *Device) ReadRegister(reg uint8) (uint8, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

// FilteredData returns the filtered 10-bit electrode reading for channel 0..12.
func (d *Device) FilteredData(ch uint8) (uint16, error) {
	if ch > maxChannel {
		return 0, ErrChannel
	}
	return d.read16(regFiltData0L + 2*ch)
}

// BaselineData returns the baseline value for channel 0..12, scaled to the
// filtered data range (the chip stores the upper 8 of 10 bits).
func (d *Device) BaselineData(ch uint8) (uint16, error) {
	if ch > maxChannel {
		return 0, ErrChannel
	}
	v, err := d.ReadRegister(regBaseline0 + ch)
	if err != nil {
		return 0, err
	}
	return uint16(v) << 2, nil
}

// Touched returns the touch status bitmap of the 12 electrodes.
func (d *Device) Touched() (uint16, error) {
	v, err := d.read16(regTouchStatusL)
	return v & 0x0FFF, err
}

// SetThresholds applies the same touch/release thresholds to every electrode.
func (d *Device) SetThresholds(touch, release uint8) error {
	ecr, err := d.ReadRegister(RegECR)
	if err != nil {
		return err
	}
	if err := d.write(RegECR, 0x00); err != nil {
		return err
	}
	if err := d.setThresholds(touch, release); err != nil {
		return err
	}
	return d.write(RegECR, ecr)
}

func (d *Device) setThresholds(touch, release uint8) error {
	for i := uint8(0); i <= maxChannel; i++ {
		if err := d.write(regTouchTh0+2*i, touch); err != nil {
			return err
		}
		if err := d.write(regReleaseTh0+2*i, release); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) write(reg, val uint8) error {
	d.w[0] = reg
	d.w[1] = val
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

// read16 reads a little-endian register pair (LOW then HIGH).
func (d *Device) read16(reg uint8) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0]) | uint16(d.r[1])<<8, nil
}
