package boot

// State is a state of the boot decision machine.
type State uint8

// Machine states.
const (
	StateEntry        State = iota // bring-up and peripheral init
	StateDeciding                  // reading the arming state
	StateServicing                 // running one update session iteration
	StateTransferring              // terminal, handing over to the application
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateEntry:
		return "entry"
	case StateDeciding:
		return "deciding"
	case StateServicing:
		return "servicing"
	case StateTransferring:
		return "transferring"
	default:
		return "unknown"
	}
}
