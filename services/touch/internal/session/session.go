// Package session owns the two MPR121 handles and gates startup on their presence.
package session

import (
	"time"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/types"
	"plantsense-go/x/logx"
)

// DefaultBackoff is the pause between presence probes.
const DefaultBackoff = 100 * time.Millisecond

// Chip is the driver surface used by the session; *mpr121.Device satisfies it.
type Chip interface {
	Address() uint16
	Begin(cfg mpr121.Config) error
	WriteRegister(reg, val uint8) error
	ReadRegister(reg uint8) (uint8, error)
	FilteredData(ch uint8) (uint16, error)
	BaselineData(ch uint8) (uint16, error)
	Touched() (uint16, error)
	SetThresholds(touch, release uint8) error
}

// Config controls the presence gate. Zero values select defaults.
type Config struct {
	Backoff time.Duration
	Driver  mpr121.Config
	// Sleep replaces time.Sleep between probes (tests).
	Sleep func(time.Duration)
}

// Session routes every call to one of the two chips. It is single-owner:
// one control loop issues all calls.
type Session struct {
	chips     [types.ChipCount]Chip
	connected [types.ChipCount]bool
	attempts  [types.ChipCount]int
	cfg       Config
}

func New(one, two Chip, cfg Config) *Session {
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Session{chips: [types.ChipCount]Chip{one, two}, cfg: cfg}
}

// Initialize blocks until both chips answer, probing each in turn every
// Backoff. There is no timeout and no cancellation: nothing downstream can
// work without the hardware. A supervisor wanting a deadline must wrap the
// call from outside.
func (s *Session) Initialize() {
	for _, c := range types.Chips {
		s.connect(c)
	}
}

func (s *Session) connect(c types.ChipSelector) {
	dev := s.chips[c]
	for !s.connected[c] {
		s.attempts[c]++
		if err := dev.Begin(s.cfg.Driver); err != nil {
			logx.Warning("%s MPR121 not found at %#02x, check wiring?", c.Side(), dev.Address())
			logx.Debug("%s MPR121 probe %d: %v", c.Side(), s.attempts[c], err)
			s.cfg.Sleep(s.cfg.Backoff)
			continue
		}
		logx.Info("%s MPR121 found at %#02x", c.Side(), dev.Address())
		s.connected[c] = true
	}
}

// Connected reports whether chip has passed the presence gate.
func (s *Session) Connected(chip types.ChipSelector) bool {
	return chip.Valid() && s.connected[chip]
}

// Attempts returns how many probes the chip needed.
func (s *Session) Attempts(chip types.ChipSelector) int {
	if !chip.Valid() {
		return 0
	}
	return s.attempts[chip]
}

// Read returns the filtered value of one electrode. Index checking is left to
// the driver.
func (s *Session) Read(chip types.ChipSelector, electrode uint8) (uint16, error) {
	dev, err := s.chip(chip)
	if err != nil {
		return 0, err
	}
	return dev.FilteredData(electrode)
}

// ReadAll returns the filtered values of all twelve electrodes.
func (s *Session) ReadAll(chip types.ChipSelector) ([mpr121.Electrodes]uint16, error) {
	var out [mpr121.Electrodes]uint16
	dev, err := s.chip(chip)
	if err != nil {
		return out, err
	}
	for i := range out {
		v, err := dev.FilteredData(uint8(i))
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Session) Baseline(chip types.ChipSelector, electrode uint8) (uint16, error) {
	dev, err := s.chip(chip)
	if err != nil {
		return 0, err
	}
	return dev.BaselineData(electrode)
}

func (s *Session) Touched(chip types.ChipSelector) (uint16, error) {
	dev, err := s.chip(chip)
	if err != nil {
		return 0, err
	}
	return dev.Touched()
}

func (s *Session) SetThresholds(chip types.ChipSelector, touch, release uint8) error {
	dev, err := s.chip(chip)
	if err != nil {
		return err
	}
	return dev.SetThresholds(touch, release)
}

// WriteRegister forwards a raw register write.
func (s *Session) WriteRegister(chip types.ChipSelector, reg, val uint8) error {
	dev, err := s.chip(chip)
	if err != nil {
		return err
	}
	return dev.WriteRegister(reg, val)
}

func (s *Session) ReadRegister(chip types.ChipSelector, reg uint8) (uint8, error) {
	dev, err := s.chip(chip)
	if err != nil {
		return 0, err
	}
	return dev.ReadRegister(reg)
}

func (s *Session) chip(c types.ChipSelector) (Chip, error) {
	if !c.Valid() {
		return nil, types.ErrUnknownChip
	}
	return s.chips[c], nil
}
