package boot

import "fmt"

// Machine is the boot decision state machine. It owns the bootloader
// peripherals from Start until the control transfer.
type Machine struct {
	cfg   Config
	latch *Latch

	link  *Lifecycle
	debug *Lifecycle
	hal   *Lifecycle

	state       State
	iterations  int
	transferred bool
	rejected    bool
}

// NewMachine validates cfg and returns a machine in the Entry state.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	latch := cfg.Latch
	if latch == nil {
		latch = new(Latch)
	}
	return &Machine{
		cfg:   cfg,
		latch: latch,
		link:  NewLifecycle("status link", cfg.Link),
		debug: NewLifecycle("debug channel", cfg.Debug),
		hal:   NewLifecycle("hal", cfg.HAL),
		state: StateEntry,
	}, nil
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Iterations returns the number of completed servicing iterations.
func (m *Machine) Iterations() int {
	return m.iterations
}

// Latch returns the boot loop flag. Clearing it ends the servicing loop.
func (m *Machine) Latch() *Latch {
	return m.latch
}

// Run starts the bootloader and never returns: it either hands control to the
// application or halts on a fatal bring-up error.
func (m *Machine) Run() {
	if err := m.Start(); err != nil {
		m.halt("bring-up failed", err)
	}
	m.serve()
	m.Transfer(m.cfg.ApplicationAddress)
}

// Start performs the Entry state: hardware bring-up, then the debug channel
// and the status link. The status banner is logged once the debug channel is
// up.
func (m *Machine) Start() error {
	if err := m.hal.Init(); err != nil {
		return err
	}
	if err := m.debug.Init(); err != nil {
		return err
	}
	LogInfo(ComponentBoot, "dfu bootload", "application", fmt.Sprintf("0x%08x", m.cfg.ApplicationAddress))
	if err := m.link.Init(); err != nil {
		return err
	}
	LogDebug(ComponentLifecycle, "initialized", "peripheral", m.link.Name())
	return nil
}

// serve runs Deciding and Servicing until a control transfer is due.
func (m *Machine) serve() {
	m.state = StateDeciding
	if m.bootNow() {
		return
	}
	LogInfo(ComponentBoot, "update mode")
	for m.latch.Held() {
		m.state = StateServicing
		m.cfg.Indicator.SetLevel(m.cfg.IndicatorChannel, 1.0)
		m.cfg.Session.Service()
		m.cfg.Indicator.Step()
		m.iterations++

		m.state = StateDeciding
		if m.bootNow() {
			return
		}
	}
	LogWarn(ComponentBoot, "boot loop released", "iterations", m.iterations)
}

// bootNow reads the arming state and reports whether the application should
// be started. A failed query never starts the application. The image check
// runs on every call but is only logged when its result changes.
func (m *Machine) bootNow() bool {
	state, err := m.cfg.Link.QueryState()
	if err != nil {
		LogDebug(ComponentArming, "query failed, staying in update mode", "error", err)
		return false
	}
	if state != Unarmed {
		return false
	}
	if m.cfg.ImageCheck != nil {
		if err := m.cfg.ImageCheck.Check(m.cfg.ApplicationAddress); err != nil {
			if !m.rejected {
				LogError(ComponentBoot, "application image rejected", "error", err)
				m.rejected = true
			}
			return false
		}
		if m.rejected {
			LogInfo(ComponentBoot, "application image accepted")
			m.rejected = false
		}
	}
	return true
}

// Assert halts the bootloader when cond is false.
func (m *Machine) Assert(cond bool, msg string) {
	if !cond {
		m.halt("assertion failed", msg)
	}
}

func (m *Machine) halt(reason string, cause any) {
	if m.debug.Active() {
		LogError(ComponentBoot, reason, "cause", cause)
	}
	m.idle()
}

func (m *Machine) idle() {
	for {
		m.cfg.CPU.Idle()
	}
}
