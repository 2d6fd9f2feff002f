package goble

import (
	"errors"
	"fmt"
	"net"
)

// ErrUnsupportedPlatform is returned where the platform BLE stack cannot write raw attribute handles
var ErrUnsupportedPlatform = errors.New("attribute handle writes require the Linux HCI stack")

// validateAddress checks that address is a 6-byte MAC address such as "C1:2B:3C:4D:5E:6F"
func validateAddress(address string) error {
	hw, err := net.ParseMAC(address)
	if err != nil || len(hw) != 6 {
		return fmt.Errorf("invalid device address %q (expected XX:XX:XX:XX:XX:XX)", address)
	}
	return nil
}
