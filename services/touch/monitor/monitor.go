// Package monitor polls both controllers on a ticker and reports filtered
// data and touch-mask changes.
package monitor

import (
	"context"
	"sync"
	"time"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/types"
	"plantsense-go/x/logx"
)

// Source is the read side of *touch.Service.
type Source interface {
	ReadAll(chip types.ChipSelector) ([mpr121.Electrodes]uint16, error)
	Touched(chip types.ChipSelector) (uint16, error)
}

// Sample is one poll of one chip. Changed is set when the touch mask differs
// from the previous successful poll.
type Sample struct {
	Chip     types.ChipSelector
	Filtered [mpr121.Electrodes]uint16
	Touched  uint16
	Changed  bool
	Err      error
}

type Service struct {
	src      Source
	interval time.Duration

	mu      sync.Mutex
	pending time.Duration
	reset   chan struct{} // signals a pending interval

	last  [types.ChipCount]uint16
	valid [types.ChipCount]bool
}

func New(src Source, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{src: src, interval: interval, reset: make(chan struct{}, 1)}
}

// SetInterval changes the poll period of a running loop. It never blocks;
// the last value set before the loop wakes wins.
func (s *Service) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.pending = d
	s.mu.Unlock()
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

// Poll reads both chips once.
func (s *Service) Poll() [types.ChipCount]Sample {
	var out [types.ChipCount]Sample
	for i, c := range types.Chips {
		smp := Sample{Chip: c}
		smp.Filtered, smp.Err = s.src.ReadAll(c)
		if smp.Err == nil {
			smp.Touched, smp.Err = s.src.Touched(c)
		}
		if smp.Err == nil {
			smp.Changed = !s.valid[i] || smp.Touched != s.last[i]
			s.last[i], s.valid[i] = smp.Touched, true
		}
		out[i] = smp
	}
	return out
}

// Run polls immediately and then once per interval until ctx is cancelled or
// emit returns false.
func (s *Service) Run(ctx context.Context, emit func(Sample) bool) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		for _, smp := range s.Poll() {
			if smp.Err != nil {
				logx.Warning("chip %s: %v", smp.Chip, smp.Err)
			}
			if !emit(smp) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			logx.Debug("monitor stopping")
			return ctx.Err()
		case <-tick.C:
		case <-s.reset:
			s.mu.Lock()
			d := s.pending
			s.mu.Unlock()
			if d != s.interval {
				s.interval = d
				tick.Reset(d)
				logx.Info("poll interval set to %v", d)
			}
		}
	}
}
