//go:build linux

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci"
	"github.com/srg/swbot/internal/connection"
)

func newDevice(adapter string) (ble.Device, error) {
	id, err := connection.AdapterID(adapter)
	if err != nil {
		return nil, err
	}
	dev, err := linux.NewDevice(ble.OptDeviceID(id))
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// dialAddr wraps random addresses so the controller dials with the random peer address type
func dialAddr(address string, addressType connection.AddressType) (ble.Addr, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}
	addr := ble.NewAddr(address)
	if addressType == connection.AddressRandom {
		return hci.RandomAddress{Addr: addr}, nil
	}
	return addr, nil
}
