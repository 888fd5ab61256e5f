package touch

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/internal/platform"
	"plantsense-go/services/touch/persist"
	"plantsense-go/types"
	"plantsense-go/x/logx"
)

func quiet(t *testing.T) {
	t.Helper()
	_ = logx.Init(io.Discard, "error")
	t.Cleanup(func() { _ = logx.Init(os.Stderr, "info") })
}

type rig struct {
	bus         *platform.SimBus
	left, right *platform.SimChip
	backend     *persist.Memory
}

func newRig() *rig {
	bus := platform.NewSimPair(mpr121.AddressGND, mpr121.AddressSDA)
	l, _ := bus.Chip(mpr121.AddressGND)
	r, _ := bus.Chip(mpr121.AddressSDA)
	return &rig{bus: bus, left: l, right: r, backend: persist.NewMemory()}
}

func (r *rig) service(cfg Config, closers ...io.Closer) *Service {
	if cfg.Sleep == nil {
		cfg.Sleep = func(time.Duration) {}
	}
	return New(cfg,
		mpr121.New(r.bus, mpr121.AddressGND),
		mpr121.New(r.bus, mpr121.AddressSDA),
		r.backend, closers...)
}

func TestStart_DefaultBoot(t *testing.T) {
	quiet(t)
	r := newRig()
	s := r.service(Config{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.Restored() {
		t.Fatal("virgin storage reported as restored")
	}
	for _, c := range types.Chips {
		if p := s.Params(c); p != (types.ParameterSet{FFI: 3, CDC: 18, CDT: 4, SFI: 0, ESI: 2}) {
			t.Fatalf("chip %s params = %+v", c, p)
		}
	}
	for _, chip := range []*platform.SimChip{r.left, r.right} {
		if got := chip.Register(mpr121.RegConfig1); got != 0xD2 {
			t.Fatalf("CONFIG1 = %#02x, want 0xd2", got)
		}
		if got := chip.Register(mpr121.RegConfig2); got != 0x82 {
			t.Fatalf("CONFIG2 = %#02x, want 0x82", got)
		}
	}
	if ok, err := s.InSync(types.ChipTwo); !ok || err != nil {
		t.Fatalf("InSync = %v, %v", ok, err)
	}
}

func TestStart_RestoresSavedParameters(t *testing.T) {
	quiet(t)
	r := newRig()
	one := types.ParameterSet{FFI: 1, CDC: 32, CDT: 2, SFI: 1, ESI: 3}
	two := types.ParameterSet{FFI: 2, CDC: 10, CDT: 6, SFI: 3, ESI: 5}
	if err := persist.New(r.backend).Save(one, two); err != nil {
		t.Fatal(err)
	}

	s := r.service(Config{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if !s.Restored() || s.Params(types.ChipOne) != one || s.Params(types.ChipTwo) != two {
		t.Fatalf("restored %+v %+v", s.Params(types.ChipOne), s.Params(types.ChipTwo))
	}
	if got := r.right.Register(mpr121.RegConfig2); got != (3<<3|5)|6<<5 {
		t.Fatalf("right CONFIG2 = %#02x", got)
	}
}

func TestStart_WaitsForLateChip(t *testing.T) {
	quiet(t)
	r := newRig()
	r.left.AppearAfter(5)
	sleeps := 0
	s := r.service(Config{Sleep: func(time.Duration) {
		sleeps++
		// chips are brought up in order; the right one waits for the left
		if n := r.right.Probes(); n != 0 {
			t.Errorf("right chip probed %d times while left was missing", n)
		}
	}})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if sleeps != 5 {
		t.Fatalf("sleeps = %d, want 5", sleeps)
	}
	// five rejected resets, then a full bring-up
	if n := r.left.Probes(); n <= 5 {
		t.Fatalf("left probes = %d", n)
	}
}

func TestSetField_ClampAndPersist(t *testing.T) {
	quiet(t)
	r := newRig()
	s := r.service(Config{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	if err := s.SetField(types.ChipOne, types.FieldFFI, 255); err != nil {
		t.Fatal(err)
	}
	if err := s.SetField(types.ChipOne, types.FieldCDC, 0); err != nil {
		t.Fatal(err)
	}
	want := types.ParameterSet{FFI: 3, CDC: 1, CDT: 4, SFI: 0, ESI: 2}
	if got := s.Params(types.ChipOne); got != want {
		t.Fatalf("params = %+v, want %+v", got, want)
	}
	if got := r.left.Register(mpr121.RegConfig1); got != 3<<6|1 {
		t.Fatalf("CONFIG1 = %#02x", got)
	}
	// chip two untouched
	if got := r.right.Register(mpr121.RegConfig1); got != 0xD2 {
		t.Fatalf("right CONFIG1 = %#02x", got)
	}

	if _, _, found, _ := persist.New(r.backend).Load(); found {
		t.Fatal("saved without AutoSave or Save")
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	one, _, found, err := persist.New(r.backend).Load()
	if err != nil || !found || one != want {
		t.Fatalf("saved %+v found=%v err=%v", one, found, err)
	}
}

func TestSetField_AutoSave(t *testing.T) {
	quiet(t)
	r := newRig()
	s := r.service(Config{AutoSave: true})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetField(types.ChipTwo, types.FieldESI, 6); err != nil {
		t.Fatal(err)
	}
	_, two, found, _ := persist.New(r.backend).Load()
	if !found || two.ESI != 6 {
		t.Fatalf("autosave: %+v found=%v", two, found)
	}
}

func TestSetField_BusFaultKeepsState(t *testing.T) {
	quiet(t)
	r := newRig()
	s := r.service(Config{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	r.left.SetFailing(true)
	if err := s.SetField(types.ChipOne, types.FieldSFI, 2); !errors.Is(err, platform.ErrNACK) {
		t.Fatalf("err = %v", err)
	}
	if s.Params(types.ChipOne).SFI != 0 {
		t.Fatal("SFI committed after failed write")
	}
}

func TestReset(t *testing.T) {
	quiet(t)
	r := newRig()
	s := r.service(Config{})
	_ = s.Start()
	_ = s.SetField(types.ChipTwo, types.FieldCDT, 1)
	_ = s.Save()

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.Params(types.ChipTwo) != types.DefaultParameterSet() {
		t.Fatal("defaults not restored")
	}
	if r.right.Register(mpr121.RegConfig2) != 0x82 {
		t.Fatal("registers not rewritten")
	}
	if _, _, found, _ := persist.New(r.backend).Load(); found {
		t.Fatal("storage not cleared")
	}
}

type closer struct{ err error }

func (c closer) Close() error { return c.err }

func TestClose_CombinesErrors(t *testing.T) {
	quiet(t)
	e1, e2 := errors.New("bus"), errors.New("db")
	s := newRig().service(Config{}, closer{e1}, closer{nil}, closer{e2})
	err := s.Close()
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}
}
