//go:build stm32f7

package stm32f7

import (
	"device/arm"
	"device/stm32"

	"github.com/tinygo-org/motorboot/boot"
)

// USBHandler is the USB device stack run by the update session. Poll handles
// pending controller events and returns promptly. A returned error is fatal
// for the session.
type USBHandler interface {
	Poll() error
}

// USB is the update session on the OTG FS controller. It implements
// boot.Session and boot.Closer.
type USB struct {
	Handler USBHandler

	// Latch is cleared when the handler fails, so the bootloader falls
	// through to the application instead of spinning on a dead controller.
	Latch *boot.Latch

	powered bool
}

// Service implements boot.Session. The controller is powered on first use.
func (u *USB) Service() {
	if !u.powered {
		stm32.RCC.AHB2ENR.SetBits(stm32.RCC_AHB2ENR_OTGFSEN)
		u.powered = true
	}
	if u.Handler == nil {
		return
	}
	if err := u.Handler.Poll(); err != nil {
		boot.LogError(boot.ComponentBoot, "usb session failed", "error", err)
		if u.Latch != nil {
			u.Latch.Clear()
		}
	}
}

// Deinit implements boot.Closer: it masks the controller interrupt, resets
// the controller, which also aborts any DMA in flight, and gates its clock.
func (u *USB) Deinit() error {
	if !u.powered {
		return nil
	}
	irq := uint32(stm32.IRQ_OTG_FS)
	arm.NVIC.ICER[irq/32].Set(1 << (irq % 32))
	arm.NVIC.ICPR[irq/32].Set(1 << (irq % 32))

	stm32.RCC.AHB2RSTR.SetBits(stm32.RCC_AHB2RSTR_OTGFSRST)
	stm32.RCC.AHB2RSTR.ClearBits(stm32.RCC_AHB2RSTR_OTGFSRST)
	stm32.RCC.AHB2ENR.ClearBits(stm32.RCC_AHB2ENR_OTGFSEN)
	u.powered = false
	return nil
}
