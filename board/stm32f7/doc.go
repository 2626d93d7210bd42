//go:build stm32f7

// Package stm32f7 implements the hardware collaborators of the bootloader on
// the STM32F722 motor controller: the CPU hand-off, the low-level hardware
// state, the debug and status link USARTs, the indicator PWM and the USB
// controller used by the update session.
//
// The TinyGo runtime configures the clock tree before main runs (216MHz from
// the HSE through the PLL, APB1 at 54MHz, APB2 at 108MHz).
package stm32f7
