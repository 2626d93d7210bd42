// Package retained stores an "enter update mode" request across a reset.
//
// The application calls Request, which records the request in a register that
// survives a system reset and then resets the chip. The bootloader checks
// Pending once at startup and clears the request, so the following reset boots
// the application again as usual.
package retained
