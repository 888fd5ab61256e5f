// Package params owns the per-chip parameter sets and applies single-field
// updates through the register codec.
package params

import (
	"plantsense-go/services/touch/internal/codec"
	"plantsense-go/types"
)

// RegisterWriter is the chip-side sink for packed register values.
type RegisterWriter interface {
	WriteRegister(chip types.ChipSelector, reg uint8, val uint8) error
}

// Store holds one ParameterSet per chip. It is not safe for concurrent use;
// a single control loop owns it.
type Store struct {
	sets [types.ChipCount]types.ParameterSet
	w    RegisterWriter
}

// New returns a store seeded with defaults that writes through w.
func New(w RegisterWriter) *Store {
	s := &Store{w: w}
	s.SeedDefaults()
	return s
}

func (s *Store) SeedDefaults() {
	d := types.DefaultParameterSet()
	s.sets = [types.ChipCount]types.ParameterSet{d, d}
}

// Seed replaces both sets, e.g. with restored values.
func (s *Store) Seed(one, two types.ParameterSet) {
	s.sets = [types.ChipCount]types.ParameterSet{one, two}
}

// Get returns a copy of the chip's set (zero value for an invalid chip).
func (s *Store) Get(chip types.ChipSelector) types.ParameterSet {
	if !chip.Valid() {
		return types.ParameterSet{}
	}
	return s.sets[chip]
}

func (s *Store) Snapshot() (one, two types.ParameterSet) {
	return s.sets[types.ChipOne], s.sets[types.ChipTwo]
}

// SetField clamps raw into field's domain, rewrites the owning register and
// commits the new set once the write succeeded. Unknown chips or fields are
// ignored without touching the bus.
func (s *Store) SetField(chip types.ChipSelector, field types.ConfigField, raw uint8) error {
	if !chip.Valid() {
		return nil
	}
	next, reg, val, ok := codec.Apply(s.sets[chip], field, raw)
	if !ok {
		return nil
	}
	if err := s.w.WriteRegister(chip, uint8(reg), val); err != nil {
		return err
	}
	s.sets[chip] = next
	return nil
}

// ApplyAll writes both configuration registers of chip from its stored set.
func (s *Store) ApplyAll(chip types.ChipSelector) error {
	if !chip.Valid() {
		return nil
	}
	c1, c2 := codec.Registers(s.sets[chip])
	if err := s.w.WriteRegister(chip, uint8(codec.Config1), c1); err != nil {
		return err
	}
	return s.w.WriteRegister(chip, uint8(codec.Config2), c2)
}
