// Package codec packs parameter sets into the MPR121 CONFIG1/CONFIG2 registers
// and owns the per-field clamp table.
package codec

import (
	"plantsense-go/drivers/mpr121"
	"plantsense-go/types"
	"plantsense-go/x/mathx"
)

// Register identifies which of the two configuration registers a field lives in.
type Register uint8

const (
	Config1 Register = mpr121.RegConfig1 // register A: FFI, CDC
	Config2 Register = mpr121.RegConfig2 // register B: CDT, SFI, ESI
)

func (r Register) String() string {
	switch r {
	case Config1:
		return "CONFIG1"
	case Config2:
		return "CONFIG2"
	}
	return "invalid"
}

// Rule is the legal range and home register of one field.
type Rule struct {
	Min, Max uint8
	Reg      Register
}

var rules = [...]Rule{
	types.FieldFFI: {Min: 0, Max: 3, Reg: Config1},
	types.FieldCDC: {Min: 1, Max: 63, Reg: Config1},
	types.FieldCDT: {Min: 1, Max: 7, Reg: Config2},
	types.FieldSFI: {Min: 0, Max: 3, Reg: Config2},
	types.FieldESI: {Min: 0, Max: 7, Reg: Config2},
}

// RuleFor returns the rule for f; ok is false for an unrecognised field.
func RuleFor(f types.ConfigField) (Rule, bool) {
	if int(f) >= len(rules) {
		return Rule{}, false
	}
	return rules[f], true
}

// PackConfig1 builds CONFIG1. Inputs must already be in range.
func PackConfig1(cdc, ffi uint8) uint8 {
	return ffi<<6 | cdc
}

// PackConfig2 builds CONFIG2. Inputs must already be in range.
func PackConfig2(esi, sfi, cdt uint8) uint8 {
	return (sfi<<3 | esi) | cdt<<5
}

// UnpackConfig1 splits a CONFIG1 value into CDC and FFI.
func UnpackConfig1(v uint8) (cdc, ffi uint8) {
	return v & 0x3F, v >> 6
}

// UnpackConfig2 splits a CONFIG2 value into ESI, SFI and CDT.
func UnpackConfig2(v uint8) (esi, sfi, cdt uint8) {
	return v & 0x07, (v >> 3) & 0x03, v >> 5
}

// Pack returns the value of reg for the parameter set p.
func Pack(p types.ParameterSet, reg Register) uint8 {
	if reg == Config1 {
		return PackConfig1(p.CDC, p.FFI)
	}
	return PackConfig2(p.ESI, p.SFI, p.CDT)
}

// Registers returns both packed register values of p.
func Registers(p types.ParameterSet) (config1, config2 uint8) {
	return Pack(p, Config1), Pack(p, Config2)
}

// Apply returns a copy of p with f clamped to raw, the register owning f and
// its new value. ok is false, and p is returned untouched, for an unknown field.
func Apply(p types.ParameterSet, f types.ConfigField, raw uint8) (next types.ParameterSet, reg Register, val uint8, ok bool) {
	rule, ok := RuleFor(f)
	if !ok {
		return p, 0, 0, false
	}
	next = p.With(f, mathx.Clamp(raw, rule.Min, rule.Max))
	return next, rule.Reg, Pack(next, rule.Reg), true
}

// Unpack rebuilds a parameter set from register readback. Values are not
// clamped; callers compare them against the stored set.
func Unpack(config1, config2 uint8) types.ParameterSet {
	cdc, ffi := UnpackConfig1(config1)
	esi, sfi, cdt := UnpackConfig2(config2)
	return types.ParameterSet{FFI: ffi, CDC: cdc, CDT: cdt, SFI: sfi, ESI: esi}
}
