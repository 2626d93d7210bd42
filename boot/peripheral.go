package boot

import "fmt"

// Peripheral is a hardware driver owned by the bootloader while it runs.
// Init is called once when bootloader mode starts and Deinit once, as part of
// the control transfer. Deinit must also disable the interrupts of the
// peripheral.
type Peripheral interface {
	Init() error
	Deinit() error
}

// Closer is implemented by collaborators that only need a teardown, such as an
// update session driver that must release the USB controller before the jump.
type Closer interface {
	Deinit() error
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseActive
	phaseRetired
)

// Lifecycle guards a Peripheral so that it goes through Init and Deinit
// exactly once, in that order.
type Lifecycle struct {
	name  string
	p     Peripheral
	phase phase
}

// NewLifecycle wraps p. The name is used in errors and log messages.
func NewLifecycle(name string, p Peripheral) *Lifecycle {
	return &Lifecycle{name: name, p: p}
}

// Name returns the peripheral name.
func (l *Lifecycle) Name() string {
	return l.name
}

// Active reports whether the peripheral is initialized and not yet torn down.
func (l *Lifecycle) Active() bool {
	return l.phase == phaseActive
}

// Init initializes the peripheral. It fails without touching the hardware if
// the peripheral is already initialized or was retired by Deinit.
func (l *Lifecycle) Init() error {
	switch l.phase {
	case phaseActive:
		return fmt.Errorf("%s: %w", l.name, ErrAlreadyInitialized)
	case phaseRetired:
		return fmt.Errorf("%s: %w", l.name, ErrRetired)
	}
	if err := l.p.Init(); err != nil {
		return fmt.Errorf("%s init: %w", l.name, err)
	}
	l.phase = phaseActive
	return nil
}

// Deinit tears the peripheral down. The peripheral is retired even if the
// driver reports an error: it is never touched again.
func (l *Lifecycle) Deinit() error {
	switch l.phase {
	case phaseIdle:
		return fmt.Errorf("%s: %w", l.name, ErrNotInitialized)
	case phaseRetired:
		return fmt.Errorf("%s: %w", l.name, ErrRetired)
	}
	l.phase = phaseRetired
	if err := l.p.Deinit(); err != nil {
		return fmt.Errorf("%s deinit: %w", l.name, err)
	}
	return nil
}
