//go:build stm32f7

package stm32f7

import (
	"device/stm32"
	"errors"
	"machine"
	"runtime/volatile"
	"time"
)

var errUSARTTimeout = errors.New("usart: timeout")

// usart is a polled USART without interrupts, so its teardown never leaves
// an interrupt behind.
type usart struct {
	bus    *stm32.USART_Type
	enable *volatile.Register32 // RCC enable register
	mask   uint32               // RCC enable bit
	clock  uint32               // bus clock in Hz
	tx, rx machine.Pin
	af     uint8
	baud   uint32
}

func (u *usart) configure() {
	u.enable.SetBits(u.mask)
	u.tx.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTTX}, u.af)
	u.rx.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTRX}, u.af)

	u.bus.CR1.Set(0)
	u.bus.BRR.Set((u.clock + u.baud/2) / u.baud)
	u.bus.CR1.Set(stm32.USART_CR1_TE | stm32.USART_CR1_RE | stm32.USART_CR1_UE)
}

func (u *usart) disable() {
	for !u.bus.ISR.HasBits(stm32.USART_ISR_TC) {
	}
	u.bus.CR1.Set(0)
	u.enable.ClearBits(u.mask)
}

func (u *usart) writeByte(c byte) {
	for !u.bus.ISR.HasBits(stm32.USART_ISR_TXE) {
	}
	u.bus.TDR.Set(uint32(c))
}

// readByte waits for one byte until the deadline.
func (u *usart) readByte(deadline time.Time) (byte, error) {
	for !u.bus.ISR.HasBits(stm32.USART_ISR_RXNE) {
		if time.Now().After(deadline) {
			return 0, errUSARTTimeout
		}
	}
	return byte(u.bus.RDR.Get()), nil
}

// flush drops received bytes and clears receive errors.
func (u *usart) flush() {
	u.bus.ICR.Set(stm32.USART_ICR_ORECF | stm32.USART_ICR_FECF | stm32.USART_ICR_NCF | stm32.USART_ICR_PECF)
	for u.bus.ISR.HasBits(stm32.USART_ISR_RXNE) {
		u.bus.RDR.Get()
	}
}

func resetBus(reg *volatile.Register32) {
	reg.Set(0xffffffff)
	reg.Set(0)
}
