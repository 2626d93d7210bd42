//go:build stm32f7

package stm32f7

import (
	"device/stm32"
	"fmt"
	"machine"
	"time"

	"github.com/tinygo-org/motorboot/boot"
)

// ONE link frames. The bootloader only uses the state query.
const (
	oneGetStates   = 0x47 // request: one byte
	oneStatesReply = 0x67 // reply: header byte followed by the state byte
)

// oneTimeout bounds a state query, so the servicing loop keeps its pace when
// the link partner is absent.
const oneTimeout = 2 * time.Millisecond

// Link is the ONE status link on USART2. It implements boot.StatusLink.
type Link struct {
	u usart
}

// NewLink returns the status link at the given baud rate.
func NewLink(baud uint32) *Link {
	return &Link{u: usart{
		bus:    stm32.USART2,
		enable: &stm32.RCC.APB1ENR,
		mask:   stm32.RCC_APB1ENR_USART2EN,
		clock:  54000000,
		tx:     machine.PD5,
		rx:     machine.PD6,
		af:     7,
		baud:   baud,
	}}
}

// Init implements boot.Peripheral.
func (l *Link) Init() error {
	l.u.configure()
	return nil
}

// Deinit implements boot.Peripheral.
func (l *Link) Deinit() error {
	l.u.disable()
	return nil
}

// QueryState asks the link partner for the arming state. Every call is a new
// exchange on the wire.
func (l *Link) QueryState() (boot.ArmingState, error) {
	l.u.flush()
	l.u.writeByte(oneGetStates)

	deadline := time.Now().Add(oneTimeout)
	hdr, err := l.u.readByte(deadline)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", boot.ErrQueryFailed, err)
	}
	if hdr != oneStatesReply {
		return 0, fmt.Errorf("%w: unexpected reply 0x%02x", boot.ErrQueryFailed, hdr)
	}
	state, err := l.u.readByte(deadline)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", boot.ErrQueryFailed, err)
	}
	return boot.ArmingState(state), nil
}
