package boot

import "errors"

// Bootloader errors.
var (
	// ErrQueryFailed indicates the arming state could not be read.
	ErrQueryFailed = errors.New("arming state query failed")

	// ErrAlreadyInitialized indicates a peripheral was initialized twice
	// without an intervening deinit.
	ErrAlreadyInitialized = errors.New("peripheral already initialized")

	// ErrNotInitialized indicates a deinit of a peripheral that was never
	// initialized.
	ErrNotInitialized = errors.New("peripheral not initialized")

	// ErrRetired indicates use of a peripheral after its deinit.
	ErrRetired = errors.New("peripheral retired")

	// ErrInvalidConfig indicates a missing collaborator or a bad application
	// address.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClockConfig indicates the clock tree did not come up as configured.
	ErrClockConfig = errors.New("clock configuration failed")
)
