//go:build stm32f7

package stm32f7

import (
	"device/arm"
	"device/stm32"

	"github.com/tinygo-org/motorboot/boot"
)

// HAL is the low-level hardware state owned by the bootloader: the clock
// tree set up by the runtime and the indicator timer.
type HAL struct {
	Indicator *Indicator
}

// Init checks that the PLL drives the system clock and starts the indicator
// timer.
func (h *HAL) Init() error {
	sws := (stm32.RCC.CFGR.Get() & stm32.RCC_CFGR_SWS_Msk) >> stm32.RCC_CFGR_SWS_Pos
	if sws != stm32.RCC_CFGR_SWS_PLL {
		return boot.ErrClockConfig
	}
	if h.Indicator != nil {
		return h.Indicator.configure()
	}
	return nil
}

// Deinit returns the chip to its reset state as far as the application can
// tell: SysTick stopped, every interrupt disabled and cleared, and all
// peripherals on the AHB and APB buses reset. The clock tree is left running.
func (h *HAL) Deinit() error {
	arm.DisableInterrupts()

	arm.SYST.SYST_CSR.Set(0)
	arm.SYST.SYST_RVR.Set(0)
	arm.SYST.SYST_CVR.Set(0)

	for i := range arm.NVIC.ICER {
		arm.NVIC.ICER[i].Set(0xffffffff)
		arm.NVIC.ICPR[i].Set(0xffffffff)
	}

	resetBus(&stm32.RCC.APB1RSTR)
	resetBus(&stm32.RCC.APB2RSTR)
	resetBus(&stm32.RCC.AHB1RSTR)
	resetBus(&stm32.RCC.AHB2RSTR)
	resetBus(&stm32.RCC.AHB3RSTR)
	return nil
}
