package boot

import "fmt"

// Channel identifies an indicator output.
type Channel uint8

// Indicator is the liveness indicator driven while servicing an update.
type Indicator interface {
	// SetLevel sets the intensity of a channel, from 0.0 (off) to 1.0.
	SetLevel(ch Channel, level float32)

	// Step advances the indicator animation by one loop iteration.
	Step()
}

// Session runs the USB update session. Service performs one bounded unit of
// work and must return promptly; the arming state is only re-read between two
// calls.
type Session interface {
	Service()
}

// ImageCheck validates the application image before the bootloader starts it.
type ImageCheck interface {
	Check(addr uint32) error
}

// Config holds everything the Machine needs. All collaborators are required
// except Latch (a fresh one is used when nil) and ImageCheck.
type Config struct {
	// ApplicationAddress is the address of the application vector table. It is
	// fixed at build time.
	ApplicationAddress uint32

	Link  StatusLink // status link, also queried for the arming state
	Debug Peripheral // debug channel, carries the log output
	HAL   Peripheral // low-level hardware state: clocks, timers, interrupts

	Session          Session
	Indicator        Indicator
	IndicatorChannel Channel

	CPU    CPU
	Memory Memory

	Latch      *Latch
	ImageCheck ImageCheck
}

// Validate reports a missing collaborator or an unusable application address.
func (c *Config) Validate() error {
	switch {
	case c.ApplicationAddress == 0:
		return fmt.Errorf("%w: application address not set", ErrInvalidConfig)
	case c.ApplicationAddress%4 != 0:
		return fmt.Errorf("%w: application address 0x%08x not word aligned", ErrInvalidConfig, c.ApplicationAddress)
	case c.Link == nil:
		return fmt.Errorf("%w: no status link", ErrInvalidConfig)
	case c.Debug == nil:
		return fmt.Errorf("%w: no debug channel", ErrInvalidConfig)
	case c.HAL == nil:
		return fmt.Errorf("%w: no HAL", ErrInvalidConfig)
	case c.Session == nil:
		return fmt.Errorf("%w: no update session", ErrInvalidConfig)
	case c.Indicator == nil:
		return fmt.Errorf("%w: no indicator", ErrInvalidConfig)
	case c.CPU == nil:
		return fmt.Errorf("%w: no CPU", ErrInvalidConfig)
	case c.Memory == nil:
		return fmt.Errorf("%w: no memory", ErrInvalidConfig)
	}
	return nil
}
