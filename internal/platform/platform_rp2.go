//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"plantsense-go/services/touch/persist/flashkv"
)

// I2C0 configures i2c0 at 400 kHz on the board-default pins.
func I2C0() (drivers.I2C, error) {
	b := machine.I2C0
	err := b.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	return b, err
}

// Console is UART0 as an io.ReadWriter for the command console and logs.
type Console struct{ u *uartx.UART }

// UART0 configures uart0 on its default pins. A zero baud keeps the uartx default.
func UART0(baud uint32) *Console {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	return &Console{u: u}
}

func (c *Console) Write(b []byte) (int, error) { return c.u.Write(b) }

// Read blocks until at least one byte has arrived.
func (c *Console) Read(p []byte) (int, error) {
	return c.u.RecvSomeContext(context.Background(), p)
}

// Flash is the on-chip flash, used for parameter storage.
func Flash() flashkv.BlockDevice { return machine.Flash }
