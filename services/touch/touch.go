// Package touch runs the two-controller touch front end: presence gate,
// parameter restore, register programming, readings and tuning.
package touch

import (
	"io"
	"time"

	"go.uber.org/multierr"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/errcode"
	"plantsense-go/services/touch/internal/codec"
	"plantsense-go/services/touch/internal/params"
	"plantsense-go/services/touch/internal/session"
	"plantsense-go/services/touch/persist"
	"plantsense-go/types"
	"plantsense-go/x/logx"
)

// Chip is the driver surface of one controller; *mpr121.Device satisfies it.
type Chip = session.Chip

// Config tunes the service. Zero values select defaults.
type Config struct {
	Backoff          time.Duration
	TouchThreshold   uint8
	ReleaseThreshold uint8
	// AutoSave persists after every successful SetField.
	AutoSave bool
	// Sleep replaces time.Sleep in the presence gate (tests).
	Sleep func(time.Duration)
}

// Service is driven by a single control loop; it is not safe for concurrent use.
type Service struct {
	cfg     Config
	sess    *session.Session
	store   *params.Store
	persist *persist.Adapter
	closers []io.Closer

	restored bool
}

// New wires the session, parameter store and persistence adapter. Closers
// (bus handles, databases) are released by Close.
func New(cfg Config, one, two Chip, backend persist.Backend, closers ...io.Closer) *Service {
	drv := mpr121.DefaultConfig()
	if cfg.TouchThreshold != 0 {
		drv.TouchThreshold = cfg.TouchThreshold
	}
	if cfg.ReleaseThreshold != 0 {
		drv.ReleaseThreshold = cfg.ReleaseThreshold
	}
	sess := session.New(one, two, session.Config{Backoff: cfg.Backoff, Driver: drv, Sleep: cfg.Sleep})
	return &Service{
		cfg:     cfg,
		sess:    sess,
		store:   params.New(sess),
		persist: persist.New(backend),
		closers: closers,
	}
}

// Start blocks until both chips respond, restores saved parameters (or seeds
// defaults on first boot) and programs CONFIG1/CONFIG2 of both chips.
func (s *Service) Start() error {
	s.sess.Initialize()

	one, two, found, err := s.persist.Load()
	switch {
	case err != nil:
		logx.Warning("parameter restore failed, using defaults: %v", err)
		s.store.SeedDefaults()
	case !found:
		logx.Info("no saved parameters, using defaults")
		s.store.SeedDefaults()
	default:
		logx.Info("restored saved parameters")
		s.store.Seed(one, two)
		s.restored = true
	}

	for _, c := range types.Chips {
		if err := s.store.ApplyAll(c); err != nil {
			return err
		}
		if logx.Enabled(logx.DebugLevel) {
			p := s.store.Get(c)
			c1, c2 := codec.Registers(p)
			logx.Debug("chip %s: %+v CONFIG1=%#02x CONFIG2=%#02x", c, p, c1, c2)
		}
	}
	return nil
}

// Restored reports whether Start found saved parameters.
func (s *Service) Restored() bool { return s.restored }

func (s *Service) Read(chip types.ChipSelector, electrode uint8) (uint16, error) {
	return s.sess.Read(chip, electrode)
}

func (s *Service) ReadAll(chip types.ChipSelector) ([mpr121.Electrodes]uint16, error) {
	return s.sess.ReadAll(chip)
}

func (s *Service) Baseline(chip types.ChipSelector, electrode uint8) (uint16, error) {
	return s.sess.Baseline(chip, electrode)
}

func (s *Service) Touched(chip types.ChipSelector) (uint16, error) {
	return s.sess.Touched(chip)
}

func (s *Service) SetThresholds(chip types.ChipSelector, touch, release uint8) error {
	return s.sess.SetThresholds(chip, touch, release)
}

// SetField updates one field (clamped silently) and rewrites its register.
// With AutoSave the new sets are persisted afterwards.
func (s *Service) SetField(chip types.ChipSelector, field types.ConfigField, value uint8) error {
	before := s.store.Get(chip)
	if err := s.store.SetField(chip, field, value); err != nil {
		return errcode.Wrap(errcode.BusError, "set "+field.String(), err)
	}
	after := s.store.Get(chip)
	if after != before {
		logx.Debug("chip %s: %s=%d (requested %d)", chip, field, mustGet(after, field), value)
	}
	if s.cfg.AutoSave && after != before {
		return s.Save()
	}
	return nil
}

func mustGet(p types.ParameterSet, f types.ConfigField) uint8 {
	v, _ := p.Get(f)
	return v
}

// Params returns the stored set of chip.
func (s *Service) Params(chip types.ChipSelector) types.ParameterSet {
	return s.store.Get(chip)
}

// Registers reads CONFIG1/CONFIG2 back from the chip.
func (s *Service) Registers(chip types.ChipSelector) (config1, config2 uint8, err error) {
	if config1, err = s.sess.ReadRegister(chip, uint8(codec.Config1)); err != nil {
		return 0, 0, err
	}
	config2, err = s.sess.ReadRegister(chip, uint8(codec.Config2))
	return config1, config2, err
}

// InSync reports whether the chip's registers match the stored set.
func (s *Service) InSync(chip types.ChipSelector) (bool, error) {
	c1, c2, err := s.Registers(chip)
	if err != nil {
		return false, err
	}
	return codec.Unpack(c1, c2) == s.store.Get(chip), nil
}

// Save persists both parameter sets.
func (s *Service) Save() error {
	one, two := s.store.Snapshot()
	if err := s.persist.Save(one, two); err != nil {
		return errcode.Wrap(errcode.StorageError, "save", err)
	}
	logx.Info("parameters saved")
	return nil
}

// Reset restores defaults on both chips and forgets saved state.
func (s *Service) Reset() error {
	s.store.SeedDefaults()
	for _, c := range types.Chips {
		if err := s.store.ApplyAll(c); err != nil {
			return errcode.Wrap(errcode.BusError, "reset", err)
		}
	}
	s.restored = false
	return errcode.Wrap(errcode.StorageError, "reset", s.persist.Clear())
}

// Close releases the closers passed to New.
func (s *Service) Close() error {
	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	s.closers = nil
	return err
}
