//go:build stm32f7

// Command bootloader is the USB field-update bootloader of the motor
// controller. Flash it at the start of flash; applications are linked at
// layout.ApplicationAddress.
//
//	tinygo flash -target=nucleo-f722ze ./cmd/bootloader
package main

import (
	"machine"

	"github.com/tinygo-org/motorboot/board/stm32f7"
	"github.com/tinygo-org/motorboot/boot"
	"github.com/tinygo-org/motorboot/image"
	"github.com/tinygo-org/motorboot/layout"
	"github.com/tinygo-org/motorboot/retained"
)

func main() {
	// An update requested by the application holds for this boot only.
	requested := retained.Pending()
	retained.Clear()

	debug := stm32f7.NewDebug(115200)
	boot.SetLogger(boot.NewLogger(debug))

	latch := new(boot.Latch)
	cpu := stm32f7.NewCPU(layout.ApplicationAddress)
	led := stm32f7.NewIndicator(&machine.TIM3, machine.PB4, machine.PB5)

	m, err := boot.NewMachine(boot.Config{
		ApplicationAddress: layout.ApplicationAddress,
		Link: &boot.OverrideLink{
			Link:      stm32f7.NewLink(115200),
			Requested: func() bool { return requested },
		},
		Debug:            debug,
		HAL:              &stm32f7.HAL{Indicator: led},
		// No device stack is wired yet: Service powers the OTG controller
		// but nothing answers on the bus until a DFU USBHandler is set.
		Session:          &stm32f7.USB{Latch: latch},
		Indicator:        led,
		IndicatorChannel: stm32f7.MotorL,
		CPU:              cpu,
		Memory:           cpu,
		Latch:            latch,
		ImageCheck:       &image.VectorCheck{Memory: cpu, Layout: layout.Default},
	})
	if err != nil {
		// The configuration above is fixed, so this is a build error.
		for {
			cpu.Idle()
		}
	}
	m.Run()
}
