package cli

import (
	"errors"
	"io"
	"strings"

	"go.uber.org/multierr"
	"tinygo.org/x/drivers"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/internal/platform"
	"plantsense-go/services/touch"
	"plantsense-go/services/touch/console"
	"plantsense-go/services/touch/persist"
	"plantsense-go/services/touch/persist/boltkv"
	"plantsense-go/x/logx"
)

// openService builds the bus, the storage backend and the touch service,
// then runs the blocking start-up sequence.
func (e *env) openService() (svc *touch.Service, err error) {
	var closers []io.Closer
	defer func() {
		if err != nil {
			for _, c := range closers {
				err = multierr.Append(err, c.Close())
			}
		}
	}()

	var bus drivers.I2C
	if e.sim {
		logx.Info("using simulated I2C bus")
		bus = platform.NewSimPair(e.cfg.Chips.One.Address, e.cfg.Chips.Two.Address)
	} else {
		hb, err := platform.OpenI2C(e.cfg.I2C.Bus)
		if err != nil {
			return nil, err
		}
		logx.Debug("opened i2c bus %s", hb)
		closers = append(closers, hb)
		bus = hb
	}

	var backend persist.Backend
	if e.cfg.Storage.Volatile {
		backend = persist.NewMemory()
	} else {
		db, err := boltkv.Open(e.cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, db)
		backend = db
	}

	svc = touch.New(touch.Config{
		Backoff:          e.cfg.Backoff(),
		TouchThreshold:   e.cfg.Thresholds.Touch,
		ReleaseThreshold: e.cfg.Thresholds.Release,
		AutoSave:         e.cfg.Storage.AutoSave,
	},
		mpr121.New(bus, e.cfg.Chips.One.Address),
		mpr121.New(bus, e.cfg.Chips.Two.Address),
		backend, closers...)
	if err := svc.Start(); err != nil {
		return nil, err
	}
	return svc, nil
}

// withService opens the service, runs fn and closes it.
func (e *env) withService(fn func(*touch.Service) error) (err error) {
	svc, err := e.openService()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, svc.Close()) }()
	return fn(svc)
}

// exec runs one console command and turns an error reply into an error.
func exec(svc *touch.Service, out io.Writer, args ...string) error {
	reply := console.New(svc).Exec(strings.Join(args, " "))
	if strings.HasPrefix(reply, "error: ") {
		return errors.New(reply)
	}
	_, err := io.WriteString(out, strings.TrimPrefix(strings.TrimPrefix(reply, "ok"), " ")+"\n")
	return err
}
