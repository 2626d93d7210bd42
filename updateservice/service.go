// Package updateservice implements the BLE update service for applications
// started by the motorboot bootloader. A client writes the "enter update mode"
// command; the service then records the request and resets the device, and
// the bootloader stays in update mode on the next boot even when the arming
// switch says otherwise.
package updateservice

import (
	"tinygo.org/x/bluetooth"
)

// ServiceUUID is the update service UUID, which should be present in the
// advertisement as a service.
var ServiceUUID = bluetooth.NewUUID([16]byte{0xcb, 0x15, 0x00, 0x01, 0x24, 0x04, 0x4e, 0x66, 0xab, 0x07, 0xa5, 0xf1, 0x05, 0x3f, 0x14, 0xce})

var (
	commandUUID = bluetooth.NewUUID([16]byte{0xcb, 0x15, 0x00, 0x02, 0x24, 0x04, 0x4e, 0x66, 0xab, 0x07, 0xa5, 0xf1, 0x05, 0x3f, 0x14, 0xce})
	statusUUID  = bluetooth.NewUUID([16]byte{0xcb, 0x15, 0x00, 0x03, 0x24, 0x04, 0x4e, 0x66, 0xab, 0x07, 0xa5, 0xf1, 0x05, 0x3f, 0x14, 0xce})
)

// Commands written to the command characteristic.
const (
	CommandEnterUpdate = 0x00
)

// IsEnterUpdate reports whether a write to the command characteristic is the
// "enter update mode" command.
func IsEnterUpdate(offset int, value []byte) bool {
	return offset == 0 && len(value) == 1 && value[0] == CommandEnterUpdate
}

// AddService adds the update service to the adapter. request is called when a
// client asks for update mode; it normally is retained.Request, which does not
// return. To make use of this service, it also needs to be advertised in the
// BLE advertisement packet, see the blink example.
//
// status is exposed read-only so a client can show which application runs.
func AddService(adapter *bluetooth.Adapter, status []byte, request func()) error {
	return adapter.AddService(&bluetooth.Service{
		UUID: ServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID:  commandUUID,
				Flags: bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					if IsEnterUpdate(offset, value) {
						request()
					}
				},
			},
			{
				UUID:  statusUUID,
				Value: status,
				Flags: bluetooth.CharacteristicReadPermission,
			},
		},
	})
}
