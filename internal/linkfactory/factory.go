// Package linkfactory selects the BLE transport behind a connection.Link.
package linkfactory

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/link/bluez"
	"github.com/srg/swbot/internal/link/goble"
)

// Transport names accepted by New
const (
	TransportHCI   = "hci"
	TransportBlueZ = "bluez"
)

// Transports lists the supported transport names
var Transports = []string{TransportHCI, TransportBlueZ}

// HCI creates links that talk to the controller directly through the go-ble HCI stack.
func HCI(opts connection.Options, logger *logrus.Logger) (connection.Link, error) {
	return goble.NewLink(opts, logger), nil
}

// BlueZ creates links that go through the BlueZ daemon over D-Bus.
func BlueZ(opts connection.Options, logger *logrus.Logger) (connection.Link, error) {
	link, err := bluez.NewLink(opts, logger)
	if err != nil {
		return nil, err
	}
	return link, nil
}

// New returns the link factory for a transport name. An empty name selects HCI.
func New(transport string) (connection.Factory, error) {
	switch transport {
	case "", TransportHCI:
		return HCI, nil
	case TransportBlueZ:
		return BlueZ, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (must be %s or %s)", transport, TransportHCI, TransportBlueZ)
	}
}
