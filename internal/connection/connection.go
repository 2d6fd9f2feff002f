package connection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ProgressCallback is called when the connection phase changes
type ProgressCallback func(phase string)

// Connection phases reported to a ProgressCallback
const (
	PhaseConnecting = "Connecting"
	PhaseConnected  = "Connected"
	PhaseFailed     = "Failed"
)

// Open creates a link through factory, initiates the connection and polls the
// link state every opts.PollInterval until it is connected or opts.Timeout elapses.
// On timeout the pending attempt is abandoned and a *ConnectionTimeoutError is returned.
func Open(ctx context.Context, factory Factory, opts Options, logger *logrus.Logger) (Link, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if strings.TrimSpace(opts.Address) == "" {
		logger.Error("Connection attempt with empty address")
		return nil, fmt.Errorf("device address is empty")
	}
	opts = opts.withDefaults()

	link, err := factory(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	fields := logrus.Fields{
		"address": opts.Address,
		"adapter": opts.Adapter,
		"timeout": opts.Timeout,
	}
	logger.WithFields(fields).Info("Connecting to BLE device...")

	if err := link.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", opts.Address, err)
	}

	start := time.Now()
	for {
		switch link.State() {
		case StateConnected:
			logger.WithFields(fields).WithField("elapsed", time.Since(start)).Info("Connected to BLE device")
			return link, nil
		case StateClosed:
			cause := link.Err()
			if cause == nil {
				cause = ErrLinkClosed
			}
			abandon(link, logger)
			logger.WithFields(fields).WithError(cause).Error("Link closed while connecting")
			return nil, fmt.Errorf("failed to connect to device with address %q: %w", opts.Address, cause)
		}

		if time.Since(start) >= opts.Timeout {
			abandon(link, logger)
			logger.WithFields(fields).Error("Connection timed out")
			return nil, &ConnectionTimeoutError{Address: opts.Address, Timeout: opts.Timeout}
		}

		select {
		case <-ctx.Done():
			abandon(link, logger)
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}

// WithConnection opens a link, executes fn with it and disconnects afterwards.
// The link is released on every exit path of fn (including a panic), as long as it is still connected.
// Optional progress can be provided for connection phase updates.
func WithConnection[R any](ctx context.Context, factory Factory, opts Options, logger *logrus.Logger, progress ProgressCallback, fn func(Link) (R, error)) (R, error) {
	var zero R
	if logger == nil {
		logger = logrus.New()
	}
	if progress == nil {
		progress = func(string) {}
	}

	progress(PhaseConnecting)

	link, err := Open(ctx, factory, opts, logger)
	if err != nil {
		progress(PhaseFailed)
		return zero, err
	}

	progress(PhaseConnected)

	defer release(link, logger)

	return fn(link)
}

// release disconnects a link that is still connected
func release(link Link, logger *logrus.Logger) {
	if state := link.State(); state != StateConnected {
		logger.WithField("state", state).Debug("Link no longer connected, skipping disconnect")
		return
	}
	if err := link.Disconnect(); err != nil {
		logger.WithError(err).Error("failed to disconnect device")
		return
	}
	logger.Debug("Disconnected from BLE device")
}

// abandon cancels a connection attempt that never completed
func abandon(link Link, logger *logrus.Logger) {
	if err := link.Disconnect(); err != nil {
		logger.WithError(err).Debug("failed to cancel pending connection")
	}
}
