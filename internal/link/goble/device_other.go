//go:build !linux

package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/swbot/internal/connection"
)

// CoreBluetooth only writes discovered characteristics, so raw handles cannot be addressed
func newDevice(string) (ble.Device, error) {
	return nil, ErrUnsupportedPlatform
}

func dialAddr(address string, _ connection.AddressType) (ble.Addr, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}
	return ble.NewAddr(address), nil
}
