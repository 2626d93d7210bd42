//go:build stm32f7

package retained

import (
	"device/arm"
	"device/stm32"
)

// requestMagic marks a pending request in RTC backup register 0. Any other
// value, including the zero after a backup domain reset, means no request.
const requestMagic = 0xb0071d0f

func enableBackupAccess() {
	stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_PWREN)
	stm32.PWR.CR1.SetBits(stm32.PWR_CR1_DBP)
}

// Request writes the request marker and resets the system.
func Request() {
	enableBackupAccess()
	stm32.RTC.BKP0R.Set(requestMagic)
	arm.SystemReset()
}

// Pending reports whether an update was requested before the last reset.
func Pending() bool {
	return stm32.RTC.BKP0R.Get() == requestMagic
}

// Clear removes a pending request.
func Clear() {
	enableBackupAccess()
	stm32.RTC.BKP0R.Set(0)
}
