//go:build stm32f7

package stm32f7

import (
	"device/stm32"
	"machine"
)

// Debug is the debug channel on USART3, wired to the ST-LINK virtual COM
// port. It is the io.Writer behind the bootloader log.
type Debug struct {
	u      usart
	active bool
}

// NewDebug returns the debug channel at the given baud rate.
func NewDebug(baud uint32) *Debug {
	return &Debug{u: usart{
		bus:    stm32.USART3,
		enable: &stm32.RCC.APB1ENR,
		mask:   stm32.RCC_APB1ENR_USART3EN,
		clock:  54000000,
		tx:     machine.PD8,
		rx:     machine.PD9,
		af:     7,
		baud:   baud,
	}}
}

// Init implements boot.Peripheral.
func (d *Debug) Init() error {
	d.u.configure()
	d.active = true
	return nil
}

// Deinit implements boot.Peripheral. It waits for the last byte to leave the
// shift register.
func (d *Debug) Deinit() error {
	d.active = false
	d.u.disable()
	return nil
}

// Write sends p, translating "\n" to "\r\n". Writes before Init or after
// Deinit are dropped.
func (d *Debug) Write(p []byte) (int, error) {
	if !d.active {
		return len(p), nil
	}
	for _, c := range p {
		if c == '\n' {
			d.u.writeByte('\r')
		}
		d.u.writeByte(c)
	}
	return len(p), nil
}
