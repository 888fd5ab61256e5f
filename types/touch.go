package types

import (
	"errors"
	"strings"
)

// ---- Chip selection ----

// ChipSelector identifies one of the two touch controllers.
type ChipSelector uint8

const (
	ChipOne ChipSelector = iota // left, ADDR to GND (0x5A)
	ChipTwo                     // right, ADDR to SDA (0x5C)
)

// ChipCount is the number of controllers on the board.
const ChipCount = 2

// Chips lists every selector in initialisation order.
var Chips = [ChipCount]ChipSelector{ChipOne, ChipTwo}

func (c ChipSelector) Valid() bool { return c == ChipOne || c == ChipTwo }

func (c ChipSelector) String() string {
	switch c {
	case ChipOne:
		return "one"
	case ChipTwo:
		return "two"
	default:
		return "invalid"
	}
}

// Side is the board position used in diagnostics.
func (c ChipSelector) Side() string {
	if c == ChipTwo {
		return "right"
	}
	return "left"
}

var ErrUnknownChip = errors.New("unknown chip")

// ParseChip accepts one|two, 1|2, a|b and left|right (case-insensitive).
func ParseChip(s string) (ChipSelector, error) {
	switch strings.ToLower(s) {
	case "one", "1", "a", "left":
		return ChipOne, nil
	case "two", "2", "b", "right":
		return ChipTwo, nil
	}
	return 0, ErrUnknownChip
}

// ---- Configuration fields ----

// ConfigField names one of the five tunable fields spread over CONFIG1/CONFIG2.
type ConfigField uint8

const (
	FieldFFI ConfigField = iota // first filter iterations
	FieldCDC                    // charge/discharge current
	FieldCDT                    // charge/discharge time
	FieldSFI                    // second filter iterations
	FieldESI                    // electrode sample interval
)

// Fields lists every recognised field in encoding order.
var Fields = [...]ConfigField{FieldFFI, FieldCDC, FieldCDT, FieldSFI, FieldESI}

var fieldNames = [...]string{"ffi", "cdc", "cdt", "sfi", "esi"}

func (f ConfigField) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "invalid"
}

var ErrUnknownField = errors.New("unknown field")

func ParseField(s string) (ConfigField, error) {
	s = strings.ToLower(s)
	for i, n := range fieldNames {
		if n == s {
			return ConfigField(i), nil
		}
	}
	return 0, ErrUnknownField
}

// ---- Parameter sets ----

// ParameterSet holds the filter/timing fields of one controller.
// Fields are always kept inside their legal domain by the writer.
type ParameterSet struct {
	FFI uint8 `yaml:"ffi" json:"ffi"`
	CDC uint8 `yaml:"cdc" json:"cdc"`
	CDT uint8 `yaml:"cdt" json:"cdt"`
	SFI uint8 `yaml:"sfi" json:"sfi"`
	ESI uint8 `yaml:"esi" json:"esi"`
}

// DefaultParameterSet returns the first-boot values.
func DefaultParameterSet() ParameterSet {
	return ParameterSet{FFI: 3, CDC: 18, CDT: 4, SFI: 0, ESI: 2}
}

// Get returns the value of f; ok is false for an unrecognised field.
func (p ParameterSet) Get(f ConfigField) (v uint8, ok bool) {
	switch f {
	case FieldFFI:
		return p.FFI, true
	case FieldCDC:
		return p.CDC, true
	case FieldCDT:
		return p.CDT, true
	case FieldSFI:
		return p.SFI, true
	case FieldESI:
		return p.ESI, true
	}
	return 0, false
}

// With returns a copy of p with f set to v (unchecked).
func (p ParameterSet) With(f ConfigField, v uint8) ParameterSet {
	switch f {
	case FieldFFI:
		p.FFI = v
	case FieldCDC:
		p.CDC = v
	case FieldCDT:
		p.CDT = v
	case FieldSFI:
		p.SFI = v
	case FieldESI:
		p.ESI = v
	}
	return p
}

// ---- Binary encoding ----
//
// A ParameterSet is stored as EncodedSize bytes: FFI, CDC, CDT, SFI, ESI.

const EncodedSize = 5

var ErrBadEncoding = errors.New("parameter set: bad encoding")

// fieldMax mirrors the hardware field widths; CDC and CDT must be non-zero.
var (
	fieldMin = [EncodedSize]uint8{0, 1, 1, 0, 0}
	fieldMax = [EncodedSize]uint8{3, 63, 7, 3, 7}
)

func (p ParameterSet) MarshalBinary() ([]byte, error) {
	return []byte{p.FFI, p.CDC, p.CDT, p.SFI, p.ESI}, nil
}

func (p *ParameterSet) UnmarshalBinary(b []byte) error {
	if len(b) != EncodedSize {
		return ErrBadEncoding
	}
	for i, v := range b {
		if v < fieldMin[i] || v > fieldMax[i] {
			return ErrBadEncoding
		}
	}
	*p = ParameterSet{FFI: b[0], CDC: b[1], CDT: b[2], SFI: b[3], ESI: b[4]}
	return nil
}
