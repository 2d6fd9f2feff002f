// Package connection opens BLE links and scopes their lifetime to a single use.
package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds how long Open waits for a link to come up.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval is the delay between two link state checks while connecting.
	DefaultPollInterval = 100 * time.Millisecond
)

// State is the lifecycle state of a Link
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AddressType selects the LE peer address type used when dialing.
type AddressType string

const (
	AddressRandom AddressType = "random"
	AddressPublic AddressType = "public"
)

// ParseAddressType accepts "random" or "public"; an empty string yields AddressRandom.
func ParseAddressType(s string) (AddressType, error) {
	switch AddressType(s) {
	case "", AddressRandom:
		return AddressRandom, nil
	case AddressPublic:
		return AddressPublic, nil
	default:
		return "", fmt.Errorf("invalid address type: %s (must be random or public)", s)
	}
}

// Link is a single BLE link to one device.
//
// Connect only initiates the connection; callers observe progress through State.
// WriteHandle is valid only while State reports StateConnected.
type Link interface {
	Connect(ctx context.Context) error
	State() State
	Err() error
	WriteHandle(handle uint16, payload []byte) error
	Disconnect() error
}

// Factory creates an unconnected Link for the given options.
type Factory func(opts Options, logger *logrus.Logger) (Link, error)

// Options defines how a link is opened
type Options struct {
	Address      string
	Adapter      string // local adapter, e.g. "hci0"; empty selects the default adapter
	AddressType  AddressType
	Timeout      time.Duration
	PollInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.AddressType == "" {
		o.AddressType = AddressRandom
	}
	return o
}

// Link errors
var (
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrNotConnected      = errors.New("not connected")
	ErrLinkClosed        = errors.New("link closed")
	ErrAlreadyStarted    = errors.New("connection already started")
)

// ConnectionTimeoutError is returned when a link does not reach StateConnected in time.
//
//nolint:revive // ConnectionTimeoutError reads better than TimeoutError at call sites
type ConnectionTimeoutError struct {
	Address string
	Timeout time.Duration
}

func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf("connection to %s timed out after %s", e.Address, e.Timeout)
}

// Is lets errors.Is match ErrConnectionTimeout
func (e *ConnectionTimeoutError) Is(target error) bool {
	return target == ErrConnectionTimeout
}
