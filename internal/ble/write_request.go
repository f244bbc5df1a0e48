//go:build !darwin && !windows

package ble

import "tinygo.org/x/bluetooth"

// writeAcked on BlueZ goes through WriteValue without a "type" option, which
// uses a write request whenever the characteristic supports one.
func writeAcked(ch bluetooth.DeviceCharacteristic, data []byte) error {
	_, err := ch.WriteWithoutResponse(data)
	return err
}
