package boot

import "strconv"

// ArmingState is the raw state byte reported by the status link.
type ArmingState uint8

// Arming states. Only Unarmed has a meaning of its own; every other value
// keeps the bootloader in update mode.
const (
	Armed   ArmingState = 0 // remain available for update
	Unarmed ArmingState = 1 // boot the application now
)

// String returns "unarmed" for the boot-now sentinel and "armed(N)" otherwise.
func (s ArmingState) String() string {
	if s == Unarmed {
		return "unarmed"
	}
	return "armed(" + strconv.Itoa(int(s)) + ")"
}

// ArmingLink is the status link that reports the physical arming/override
// state.
//
// QueryState reads the state from hardware on every call. Implementations must
// not cache the value: the override is a physical switch and may change at any
// time between two calls.
type ArmingLink interface {
	QueryState() (ArmingState, error)
}

// StatusLink is the status link peripheral that reports the arming state.
type StatusLink interface {
	ArmingLink
	Peripheral
}

// OverrideLink keeps the bootloader in update mode while an update was
// requested before the last reset, even when the link reports Unarmed.
//
// The wrapped link is still queried on every call, so query failures are
// reported unchanged.
type OverrideLink struct {
	Link StatusLink

	// Requested reports whether an update request is pending. A nil func
	// means no request.
	Requested func() bool
}

// QueryState implements ArmingLink.
func (o *OverrideLink) QueryState() (ArmingState, error) {
	state, err := o.Link.QueryState()
	if err != nil {
		return state, err
	}
	if state == Unarmed && o.Requested != nil && o.Requested() {
		LogDebug(ComponentArming, "update requested, ignoring unarmed state")
		return Armed, nil
	}
	return state, nil
}

// Init initializes the wrapped link.
func (o *OverrideLink) Init() error { return o.Link.Init() }

// Deinit tears down the wrapped link.
func (o *OverrideLink) Deinit() error { return o.Link.Deinit() }
