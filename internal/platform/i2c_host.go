//go:build !(rp2040 || rp2350)

package platform

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*HostI2C)(nil)

// HostI2C adapts a periph I²C bus (Linux /dev/i2c-N) to drivers.I2C.
type HostI2C struct {
	bus  i2c.BusCloser
	name string
}

// OpenI2C initialises the periph host drivers and opens the named bus.
// An empty name selects the first bus found.
func OpenI2C(name string) (*HostI2C, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return &HostI2C{bus: b, name: name}, nil
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	return h.bus.Tx(addr, w, r)
}

func (h *HostI2C) Close() error { return h.bus.Close() }

func (h *HostI2C) String() string {
	if h.name == "" {
		return h.bus.String()
	}
	return h.name
}

// I2CBuses lists the bus names periph can open on this host.
func I2CBuses() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	var names []string
	for _, ref := range i2creg.All() {
		names = append(names, ref.Name)
	}
	return names, nil
}
