// Package persist saves and restores the two parameter sets.
//
// Layout (keyed presence): each chip's set is stored as a 5-byte blob
// (FFI, CDC, CDT, SFI, ESI) under its own key. Storage counts as initialised
// only when both keys are present and both blobs decode; anything less is
// reported as "not found" so the caller falls back to defaults. No separate
// flag is stored.
package persist

import (
	"errors"
	"fmt"

	"plantsense-go/types"
)

// Keys under which each chip's set is stored.
const (
	KeyChipOne = "mpr1"
	KeyChipTwo = "mpr2"
)

var ErrClosed = errors.New("persist: backend closed")

// Entry is one key/value pair of a batch write.
type Entry struct {
	Key   string
	Value []byte
}

// Backend is a byte-blob key/value store. Put must apply all entries or none
// as far as a later Get can observe.
type Backend interface {
	Get(key string) (val []byte, ok bool, err error)
	Put(entries ...Entry) error
	Delete(keys ...string) error
}

// Adapter maps parameter sets onto a Backend. It holds no parameter state.
type Adapter struct {
	b Backend
}

func New(b Backend) *Adapter { return &Adapter{b: b} }

func Key(chip types.ChipSelector) string {
	if chip == types.ChipTwo {
		return KeyChipTwo
	}
	return KeyChipOne
}

// Save writes both sets in one batch.
func (a *Adapter) Save(one, two types.ParameterSet) error {
	b1, _ := one.MarshalBinary()
	b2, _ := two.MarshalBinary()
	if err := a.b.Put(Entry{Key: KeyChipOne, Value: b1}, Entry{Key: KeyChipTwo, Value: b2}); err != nil {
		return fmt.Errorf("persist: save: %w", err)
	}
	return nil
}

// Load returns both sets and found=true only if storage holds a complete,
// well-formed pair. On found=false the returned sets are zero and must not
// be applied. err reports backend faults; found is false whenever err is set.
func (a *Adapter) Load() (one, two types.ParameterSet, found bool, err error) {
	var sets [types.ChipCount]types.ParameterSet
	for _, c := range types.Chips {
		raw, ok, err := a.b.Get(Key(c))
		if err != nil {
			return types.ParameterSet{}, types.ParameterSet{}, false, fmt.Errorf("persist: load %s: %w", Key(c), err)
		}
		if !ok {
			return types.ParameterSet{}, types.ParameterSet{}, false, nil
		}
		if err := sets[c].UnmarshalBinary(raw); err != nil {
			return types.ParameterSet{}, types.ParameterSet{}, false, nil
		}
	}
	return sets[types.ChipOne], sets[types.ChipTwo], true, nil
}

// Clear forgets any saved state; the next Load reports not found.
func (a *Adapter) Clear() error {
	if err := a.b.Delete(KeyChipOne, KeyChipTwo); err != nil {
		return fmt.Errorf("persist: clear: %w", err)
	}
	return nil
}
