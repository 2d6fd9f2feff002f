package bluez

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/srg/swbot/internal/connection"
)

const (
	bluezService            = "org.bluez"
	deviceInterface         = "org.bluez.Device1"
	characteristicInterface = "org.bluez.GattCharacteristic1"
	objectManagerGetObjects = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"

	// DefaultAdapter is used when no adapter is configured
	DefaultAdapter = "hci0"
)

// ManagedObjects is the reply of ObjectManager.GetManagedObjects
type ManagedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Bus is the part of a D-Bus connection a Link uses
type Bus interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// BusFactory opens a private system bus connection (can be overridden in tests)
var BusFactory = func() (Bus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DevicePath returns the BlueZ object path of a device, e.g. /org/bluez/hci0/dev_C1_2B_3C_4D_5E_6F
func DevicePath(adapter, address string) (dbus.ObjectPath, error) {
	hw, err := net.ParseMAC(address)
	if err != nil || len(hw) != 6 {
		return "", fmt.Errorf("invalid device address %q (expected XX:XX:XX:XX:XX:XX)", address)
	}
	if adapter == "" {
		adapter = DefaultAdapter
	}
	mac := strings.ToUpper(strings.ReplaceAll(hw.String(), ":", "_"))
	return dbus.ObjectPath(fmt.Sprintf("/org/bluez/%s/dev_%s", adapter, mac)), nil
}

// CharacteristicPath finds the characteristic object of device whose value lives at handle.
// BlueZ names characteristic objects after the declaration handle, which precedes the value handle.
func CharacteristicPath(objects ManagedObjects, device dbus.ObjectPath, handle uint16) (dbus.ObjectPath, error) {
	if handle == 0 {
		return "", fmt.Errorf("invalid attribute handle 0x%04X", handle)
	}
	suffix := fmt.Sprintf("/char%04x", handle-1)
	prefix := string(device) + "/"

	for path, ifaces := range objects {
		p := string(path)
		if !strings.HasPrefix(p, prefix) || !strings.HasSuffix(p, suffix) {
			continue
		}
		if _, ok := ifaces[characteristicInterface]; ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("no characteristic with value handle 0x%04X under %s", handle, device)
}

// Link is a connection.Link over BlueZ D-Bus.
// The device must already be known to BlueZ (discovered or paired).
type Link struct {
	adapter    string
	address    string
	devicePath dbus.ObjectPath
	logger     *logrus.Logger

	mu      sync.Mutex
	state   connection.State
	err     error
	bus     Bus
	pending *dbus.Call
}

// NewLink creates an unconnected link for opts
func NewLink(opts connection.Options, logger *logrus.Logger) (*Link, error) {
	if logger == nil {
		logger = logrus.New()
	}
	path, err := DevicePath(opts.Adapter, opts.Address)
	if err != nil {
		return nil, err
	}
	if opts.AddressType != "" && opts.AddressType != connection.AddressRandom {
		logger.WithField("address_type", opts.AddressType).Debug("BlueZ resolves the address type itself, ignoring")
	}
	return &Link{
		adapter:    opts.Adapter,
		address:    opts.Address,
		devicePath: path,
		logger:     logger,
		state:      connection.StateIdle,
	}, nil
}

// Connect asks BlueZ to connect the device without waiting for the reply
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != connection.StateIdle {
		return connection.ErrAlreadyStarted
	}

	bus, err := BusFactory()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	l.bus = bus

	l.logger.WithField("path", l.devicePath).Debug("Calling Device1.Connect")
	l.pending = bus.Object(bluezService, l.devicePath).
		GoWithContext(ctx, deviceInterface+".Connect", 0, make(chan *dbus.Call, 1))
	l.state = connection.StateConnecting
	return nil
}

// State reports StateConnected once BlueZ shows the device connected with its services resolved
func (l *Link) State() connection.State {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case connection.StateConnecting:
		if l.pending != nil {
			select {
			case call := <-l.pending.Done:
				l.pending = nil
				if call.Err != nil {
					l.state = connection.StateClosed
					l.err = call.Err
					return l.state
				}
			default:
			}
		}
		if l.ready() {
			l.state = connection.StateConnected
		}
	case connection.StateConnected:
		if !l.property("Connected") {
			l.state = connection.StateClosed
			l.err = connection.ErrLinkClosed
		}
	}
	return l.state
}

func (l *Link) ready() bool {
	return l.property("Connected") && l.property("ServicesResolved")
}

func (l *Link) property(name string) bool {
	v, err := l.bus.Object(bluezService, l.devicePath).GetProperty(deviceInterface + "." + name)
	if err != nil {
		l.logger.WithFields(logrus.Fields{"property": name, "error": err}).Debug("Failed to read device property")
		return false
	}
	b, _ := v.Value().(bool)
	return b
}

// Err returns the error that closed the link, if any
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// WriteHandle writes payload with a write request to the characteristic value at handle
func (l *Link) WriteHandle(handle uint16, payload []byte) error {
	l.mu.Lock()
	if l.state != connection.StateConnected {
		l.mu.Unlock()
		return connection.ErrNotConnected
	}
	bus := l.bus
	l.mu.Unlock()

	objects := ManagedObjects{}
	if err := bus.Object(bluezService, "/").Call(objectManagerGetObjects, 0).Store(&objects); err != nil {
		return fmt.Errorf("failed to list BlueZ objects: %w", err)
	}

	charPath, err := CharacteristicPath(objects, l.devicePath, handle)
	if err != nil {
		return err
	}

	options := map[string]dbus.Variant{"type": dbus.MakeVariant("request")}
	return bus.Object(bluezService, charPath).Call(characteristicInterface+".WriteValue", 0, payload, options).Err
}

// Disconnect asks BlueZ to drop the connection and closes the bus. Calling it more than once is a no-op.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bus == nil {
		return nil
	}
	bus := l.bus
	l.bus = nil
	l.state = connection.StateClosed

	var errs []error
	if err := bus.Object(bluezService, l.devicePath).Call(deviceInterface+".Disconnect", 0).Err; err != nil {
		errs = append(errs, fmt.Errorf("failed to disconnect %s: %w", l.address, err))
	}
	if err := bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close system bus: %w", err))
	}
	return errors.Join(errs...)
}
