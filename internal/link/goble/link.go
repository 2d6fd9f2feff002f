package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/groutine"
)

// DisconnectGracePeriod bounds how long Disconnect waits for the controller to confirm the link is down
const DisconnectGracePeriod = 2 * time.Second

// Client is the part of ble.Client a Link uses
type Client interface {
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	CancelConnection() error
	Disconnected() <-chan struct{}
}

// Transport is the part of ble.Device a Link uses
type Transport interface {
	Dial(ctx context.Context, addr ble.Addr) (Client, error)
	Stop() error
}

// deviceTransport adapts a ble.Device to Transport
type deviceTransport struct {
	dev ble.Device
}

func (t *deviceTransport) Dial(ctx context.Context, addr ble.Addr) (Client, error) {
	client, err := t.dev.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (t *deviceTransport) Stop() error {
	return t.dev.Stop()
}

// DeviceFactory creates the platform transport for a local adapter (can be overridden in tests)
var DeviceFactory = func(adapter string) (Transport, error) {
	dev, err := newDevice(adapter)
	if err != nil {
		return nil, err
	}
	return &deviceTransport{dev: dev}, nil
}

// Link is a connection.Link over the go-ble HCI stack.
// Writes address attribute handles directly, without service discovery.
type Link struct {
	address     string
	adapter     string
	addressType connection.AddressType
	logger      *logrus.Logger

	mu        sync.Mutex
	state     connection.State
	err       error
	transport Transport
	client    Client
	cancel    context.CancelFunc
	dialDone  <-chan struct{}
	released  bool
}

// NewLink creates an unconnected link for opts
func NewLink(opts connection.Options, logger *logrus.Logger) *Link {
	if logger == nil {
		logger = logrus.New()
	}
	addressType := opts.AddressType
	if addressType == "" {
		addressType = connection.AddressRandom
	}
	return &Link{
		address:     opts.Address,
		adapter:     opts.Adapter,
		addressType: addressType,
		logger:      logger,
		state:       connection.StateIdle,
	}
}

// Connect opens the adapter and starts dialing in the background
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != connection.StateIdle {
		return connection.ErrAlreadyStarted
	}

	addr, err := dialAddr(l.address, l.addressType)
	if err != nil {
		return err
	}

	transport, err := DeviceFactory(l.adapter)
	if err != nil {
		l.logger.WithField("error", err).Error("Failed to create BLE device")
		return fmt.Errorf("failed to create BLE device: %w", err)
	}

	dialCtx, cancel := context.WithCancel(ctx)
	l.transport = transport
	l.cancel = cancel
	l.state = connection.StateConnecting

	l.logger.WithFields(logrus.Fields{
		"address":      l.address,
		"adapter":      l.adapter,
		"address_type": l.addressType,
	}).Debug("Dialing BLE device...")

	l.dialDone = groutine.Go(dialCtx, "ble-dial-"+l.address, func(ctx context.Context) {
		l.dial(ctx, transport, addr)
	})
	return nil
}

func (l *Link) dial(ctx context.Context, transport Transport, addr ble.Addr) {
	client, err := transport.Dial(ctx, addr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == connection.StateClosed {
		// Disconnect won the race; drop a connection that completed meanwhile
		if client != nil {
			_ = client.CancelConnection()
		}
		return
	}

	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"address":   l.address,
			"goroutine": groutine.GetName(ctx),
			"error":     err,
		}).Error("Failed to dial BLE device")
		l.state = connection.StateClosed
		l.err = err
		return
	}

	l.client = client
	l.state = connection.StateConnected
}

// State reports the link state; a connected link whose client reported a disconnect turns into StateClosed
func (l *Link) State() connection.State {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == connection.StateConnected {
		select {
		case <-l.client.Disconnected():
			l.state = connection.StateClosed
			l.err = connection.ErrLinkClosed
		default:
		}
	}
	return l.state
}

// Err returns the error that closed the link, if any
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// WriteHandle writes payload to an attribute handle and waits for the write response
func (l *Link) WriteHandle(handle uint16, payload []byte) error {
	l.mu.Lock()
	if l.state != connection.StateConnected || l.client == nil {
		l.mu.Unlock()
		return connection.ErrNotConnected
	}
	client := l.client
	l.mu.Unlock()

	return client.WriteCharacteristic(&ble.Characteristic{ValueHandle: handle}, payload, false)
}

// Disconnect cancels a pending dial or tears an established connection down, then releases the adapter.
// Calling it more than once is a no-op.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	if l.released || l.state == connection.StateIdle {
		l.mu.Unlock()
		return nil
	}
	l.released = true
	l.state = connection.StateClosed
	cancel, client, transport, dialDone := l.cancel, l.client, l.transport, l.dialDone
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var errs []error
	if client != nil {
		if err := client.CancelConnection(); err != nil {
			errs = append(errs, fmt.Errorf("failed to cancel connection: %w", err))
		}
		l.await(client.Disconnected(), "disconnect")
	} else if dialDone != nil {
		l.await(dialDone, "dial cancellation")
	}

	if transport != nil {
		if err := transport.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop BLE device: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (l *Link) await(ch <-chan struct{}, what string) {
	select {
	case <-ch:
	case <-time.After(DisconnectGracePeriod):
		l.logger.WithFields(logrus.Fields{
			"address": l.address,
			"grace":   DisconnectGracePeriod,
		}).Warnf("Timed out waiting for %s", what)
	}
}
