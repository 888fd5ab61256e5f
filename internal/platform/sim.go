package platform

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// ErrNACK is returned by SimBus when no device acknowledges the address.
var ErrNACK = errors.New("i2c: address not acknowledged")

// Compile-time check.
var _ drivers.I2C = (*SimBus)(nil)

// SimBus implements drivers.I2C with register-file MPR121 emulation.
// It backs the CLI's --sim mode and the package tests.
type SimBus struct {
	mu    sync.Mutex
	chips map[uint16]*SimChip
}

// SimWrite records one register write seen by a simulated chip.
type SimWrite struct {
	Reg, Val uint8
}

// SimChip is one emulated MPR121.
type SimChip struct {
	mu *sync.Mutex

	regs     [256]byte
	missing  int // Tx attempts to reject before the chip starts answering
	identity byte
	failAll  bool

	filtered  [13]uint16
	baseline  [13]uint8
	touchMask uint16
	writes    []SimWrite
	probes    int
}

func NewSimBus() *SimBus {
	return &SimBus{chips: make(map[uint16]*SimChip)}
}

// NewSimPair returns a bus with chips at both given addresses and a plausible
// idle reading on every electrode.
func NewSimPair(addrOne, addrTwo uint16) *SimBus {
	b := NewSimBus()
	for i, a := range []uint16{addrOne, addrTwo} {
		c := b.AddChip(a)
		for ch := 0; ch < 13; ch++ {
			c.filtered[ch] = uint16(600 + 10*i + ch)
			c.baseline[ch] = uint8((600 + 10*i) >> 2)
		}
	}
	return b
}

// AddChip attaches a chip at addr in its power-on state.
func (b *SimBus) AddChip(addr uint16) *SimChip {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &SimChip{mu: &b.mu, identity: 0x24}
	c.reset()
	b.chips[addr] = c
	return c
}

// Chip returns the chip at addr, if any.
func (b *SimBus) Chip(addr uint16) (*SimChip, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chips[addr]
	return c, ok
}

func (b *SimBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.chips[addr]
	if !ok {
		return ErrNACK
	}
	c.probes++
	if c.missing > 0 {
		c.missing--
		return ErrNACK
	}
	if c.failAll {
		return ErrNACK
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	for i, v := range w[1:] {
		c.store(reg+uint8(i), v)
	}
	for i := range r {
		r[i] = c.load(reg + uint8(i))
	}
	return nil
}

func (c *SimChip) reset() {
	c.regs = [256]byte{}
	c.regs[0x5C] = 0x10
	c.regs[0x5D] = c.identity
}

func (c *SimChip) store(reg, v uint8) {
	if reg == 0x80 {
		if v == 0x63 {
			c.reset()
		}
		return
	}
	c.writes = append(c.writes, SimWrite{Reg: reg, Val: v})
	c.regs[reg] = v
}

func (c *SimChip) load(reg uint8) uint8 {
	switch {
	case reg == 0x00:
		return uint8(c.touchMask)
	case reg == 0x01:
		return uint8(c.touchMask >> 8)
	case reg >= 0x04 && reg <= 0x1D:
		v := c.filtered[(reg-0x04)/2]
		if (reg-0x04)%2 == 0 {
			return uint8(v)
		}
		return uint8(v >> 8)
	case reg >= 0x1E && reg <= 0x2A:
		return c.baseline[reg-0x1E]
	}
	return c.regs[reg]
}

// AppearAfter makes the chip ignore the next n transactions.
func (c *SimChip) AppearAfter(n int) {
	c.mu.Lock()
	c.missing = n
	c.mu.Unlock()
}

// SetIdentity changes the CONFIG2 power-on value (0x24 for a genuine MPR121).
func (c *SimChip) SetIdentity(v byte) {
	c.mu.Lock()
	c.identity = v
	c.regs[0x5D] = v
	c.mu.Unlock()
}

// SetFailing makes every transaction fail until cleared.
func (c *SimChip) SetFailing(fail bool) {
	c.mu.Lock()
	c.failAll = fail
	c.mu.Unlock()
}

func (c *SimChip) SetFiltered(ch int, v uint16) {
	c.mu.Lock()
	c.filtered[ch] = v
	c.mu.Unlock()
}

func (c *SimChip) SetBaseline(ch int, v uint8) {
	c.mu.Lock()
	c.baseline[ch] = v
	c.mu.Unlock()
}

func (c *SimChip) SetTouched(mask uint16) {
	c.mu.Lock()
	c.touchMask = mask
	c.mu.Unlock()
}

// Register returns the current register value.
func (c *SimChip) Register(reg uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(reg)
}

// Writes returns a copy of the register writes since the last reset of the log.
func (c *SimChip) Writes() []SimWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SimWrite(nil), c.writes...)
}

func (c *SimChip) ClearWrites() {
	c.mu.Lock()
	c.writes = nil
	c.mu.Unlock()
}

// Probes counts every transaction addressed to the chip, answered or not.
func (c *SimChip) Probes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probes
}
