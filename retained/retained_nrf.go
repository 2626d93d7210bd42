//go:build nrf

package retained

import (
	"device/arm"
	"device/nrf"
)

// Request sets the low bit of GPREGRET and resets the system. It must be
// called with the SoftDevice enabled, as done by the BLE update service.
func Request() {
	// Disable the SoftDevice before reset, otherwise GPREGRET is not available.
	// The SVCall number 0x11 means SD_SOFTDEVICE_DISABLE in all SoftDevice
	// versions I checked (s110v8, s132v6, s140v7), so is likely to remain
	// constant.
	arm.SVCall0(0x11) // SD_SOFTDEVICE_DISABLE

	nrf.POWER.GPREGRET.SetBits(1)
	arm.SystemReset()
}

// Pending reports whether an update was requested before the last reset.
func Pending() bool {
	return nrf.POWER.GPREGRET.HasBits(1)
}

// Clear removes a pending request.
func Clear() {
	nrf.POWER.GPREGRET.ClearBits(1)
}
