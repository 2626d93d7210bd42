//go:build stm32f7

package stm32f7

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"
)

// CPU hands control to the application. It implements boot.CPU and
// boot.Memory.
//
// The stack pointer passed to SetStackPointer is committed together with the
// branch: Go code cannot keep running on a stack it does not own, so the MSP
// write, the switch back to MSP and the branch are one instruction sequence.
type CPU struct {
	vectorTable uint32
	sp          uint32
}

// NewCPU returns a CPU that relocates the vector table to table before the
// branch.
func NewCPU(table uint32) *CPU {
	return &CPU{vectorTable: table}
}

// ReadWord reads a word of flash.
func (c *CPU) ReadWord(addr uint32) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

// SetStackPointer stages the initial main stack pointer of the application.
func (c *CPU) SetStackPointer(sp uint32) {
	c.sp = sp
}

// Branch loads the staged stack pointer and jumps to entry. Interrupts are
// masked until the last instruction; the HAL teardown has already disabled
// and cleared every interrupt source, so the application starts with PRIMASK
// cleared as after a reset.
func (c *CPU) Branch(entry uint32) {
	arm.DisableInterrupts()
	arm.SCB.VTOR.Set(c.vectorTable)
	arm.AsmFull(`
		dsb
		isb
		msr msp, {sp}
		msr control, {zero}
		isb
		cpsie i
		bx {entry}
	`, map[string]interface{}{
		"sp":    c.sp,
		"zero":  0,
		"entry": entry,
	})
}

// Idle waits for an interrupt.
func (c *CPU) Idle() {
	arm.Asm("wfi")
}
