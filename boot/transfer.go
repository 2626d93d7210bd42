package boot

// CPU is the processor control needed for the hand-off.
type CPU interface {
	// SetStackPointer loads the main stack pointer.
	SetStackPointer(sp uint32)

	// Branch transfers control to entry. It does not return on hardware.
	Branch(entry uint32)

	// Idle parks the processor until the next event. The caller loops on it.
	Idle()
}

// Memory reads words from the application flash.
type Memory interface {
	ReadWord(addr uint32) uint32
}

// Transfer hands control to the application whose vector table starts at
// addr. It never returns: if the application returns, the processor idles
// forever.
//
// The update session is released first so no USB interrupt or DMA transfer
// can reach bootloader memory after the stack is replaced. Then the status
// link, the debug channel and the HAL are torn down in that order, and only
// then are the stack pointer and the reset vector loaded from the table.
func (m *Machine) Transfer(addr uint32) {
	m.Assert(!m.transferred, "control transfer entered twice")
	m.transferred = true
	m.state = StateTransferring

	LogInfo(ComponentTransfer, "starting application", "iterations", m.iterations)

	if usb, ok := m.cfg.Session.(Closer); ok {
		if err := usb.Deinit(); err != nil {
			LogError(ComponentTransfer, "usb deinit", "error", err)
		}
	}
	if err := m.link.Deinit(); err != nil {
		LogError(ComponentLifecycle, "deinit failed", "peripheral", m.link.Name(), "error", err)
	}
	// The debug channel is gone after this, so its own failure and the HAL's
	// have nowhere to be reported. Both are retired either way.
	_ = m.debug.Deinit()
	_ = m.hal.Deinit()

	m.cfg.CPU.SetStackPointer(m.cfg.Memory.ReadWord(addr))
	m.cfg.CPU.Branch(m.cfg.Memory.ReadWord(addr + 4))

	m.idle()
}
