package switchbot

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/linkfactory"
)

const (
	// DefaultTimeout is used when a driver is built without a positive timeout
	DefaultTimeout = connection.DefaultTimeout

	// PressAdapter is the adapter Press uses unless overridden
	PressAdapter = "hci0"

	// PhaseWriting is reported to the progress callback right before the write
	PhaseWriting = "Writing"
)

// Result describes a write acknowledged by the link
type Result struct {
	Command string
	Address string
	Handle  uint16
	Payload []byte
}

// Driver sends commands from the command table to one device
type Driver struct {
	Address     string
	Adapter     string
	AddressType connection.AddressType
	Timeout     time.Duration

	// PollInterval is the connection state polling period; zero uses connection.DefaultPollInterval
	PollInterval time.Duration

	factory  connection.Factory
	logger   *logrus.Logger
	progress connection.ProgressCallback
}

// Option configures a Driver
type Option func(*Driver)

// WithAdapter selects the local adapter, e.g. "hci1"
func WithAdapter(adapter string) Option {
	return func(d *Driver) {
		d.Adapter = adapter
	}
}

// WithTimeout sets the connection timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.Timeout = timeout
	}
}

// WithPollInterval sets how often the link state is checked while connecting
func WithPollInterval(interval time.Duration) Option {
	return func(d *Driver) {
		d.PollInterval = interval
	}
}

// WithAddressType sets the LE peer address type
func WithAddressType(addressType connection.AddressType) Option {
	return func(d *Driver) {
		d.AddressType = addressType
	}
}

// WithFactory replaces the link factory (HCI transport by default)
func WithFactory(factory connection.Factory) Option {
	return func(d *Driver) {
		d.factory = factory
	}
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithProgress sets a callback receiving connection and write phases
func WithProgress(progress connection.ProgressCallback) Option {
	return func(d *Driver) {
		d.progress = progress
	}
}

// NewDriver creates a driver for the device at address
func NewDriver(address string, opts ...Option) *Driver {
	d := &Driver{
		Address:     address,
		AddressType: connection.AddressRandom,
		Timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	if d.AddressType == "" {
		d.AddressType = connection.AddressRandom
	}
	if d.factory == nil {
		d.factory = linkfactory.HCI
	}
	if d.logger == nil {
		d.logger = logrus.New()
	}
	if d.progress == nil {
		d.progress = func(string) {}
	}
	return d
}

// Run connects to the device, writes the named command and disconnects.
// The command is resolved before any link is created, so an unknown name never touches the radio.
func (d *Driver) Run(ctx context.Context, name string) (*Result, error) {
	cmd, err := Lookup(name)
	if err != nil {
		d.logger.WithField("command", name).Error("Unknown command")
		return nil, err
	}

	opts := connection.Options{
		Address:      d.Address,
		Adapter:      d.Adapter,
		AddressType:  d.AddressType,
		Timeout:      d.Timeout,
		PollInterval: d.PollInterval,
	}

	return connection.WithConnection(ctx, d.factory, opts, d.logger, d.progress, func(link connection.Link) (*Result, error) {
		d.progress(PhaseWriting)
		d.logger.WithFields(logrus.Fields{
			"address": d.Address,
			"command": cmd.Name,
			"handle":  cmd.Handle,
			"payload": cmd.PayloadHex(),
		}).Debug("Writing command")
		return Write(link, d.Address, cmd)
	})
}

// Write performs one acknowledged write of cmd over an open link.
// A link failure is returned inside a *TransportError without retrying.
func Write(link connection.Link, address string, cmd Command) (*Result, error) {
	if err := link.WriteHandle(cmd.Handle, cmd.Payload); err != nil {
		return nil, &TransportError{Op: "write", Address: address, Handle: cmd.Handle, Err: err}
	}
	return &Result{
		Command: cmd.Name,
		Address: address,
		Handle:  cmd.Handle,
		Payload: cmd.Payload,
	}, nil
}

// Press sends the "press" command using adapter hci0 and the default timeout.
// Options override those defaults.
func Press(ctx context.Context, address string, opts ...Option) (*Result, error) {
	opts = append([]Option{WithAdapter(PressAdapter), WithTimeout(DefaultTimeout)}, opts...)
	return NewDriver(address, opts...).Run(ctx, "press")
}
