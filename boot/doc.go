// Package boot implements the boot decision and control transfer logic of the
// motorboot bootloader.
//
// On every power-up the [Machine] reads the arming state from the status link.
// When the link reports [Unarmed] the application image is started right away.
// Otherwise the bootloader stays in update mode, servicing the USB update
// session and a liveness indicator, and re-reads the arming state after every
// iteration:
//
//	Entry -> Deciding -> Servicing <-> Deciding -> Transferring
//
// Transferring is terminal. It tears down every peripheral owned by the
// bootloader in a fixed order, loads the application stack pointer from the
// first word of the vector table and branches to the reset handler stored in
// the second word:
//
//	m, err := boot.NewMachine(boot.Config{
//	    ApplicationAddress: layout.ApplicationAddress,
//	    Link:               link,
//	    Debug:              debug,
//	    HAL:                hal,
//	    Session:            usb,
//	    Indicator:          led,
//	    CPU:                cpu,
//	    Memory:             cpu,
//	})
//	if err != nil {
//	    // invalid configuration
//	}
//	m.Run() // does not return
//
// All hardware is reached through the small interfaces in this package, so the
// whole state machine runs on a host under test with the doubles from
// [github.com/tinygo-org/motorboot/boot/boottest].
package boot
