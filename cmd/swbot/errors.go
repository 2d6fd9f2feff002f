package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/link/goble"
	"github.com/srg/swbot/internal/switchbot"
	"github.com/srg/swbot/pkg/config"
)

// FormatUserError turns an error into a one-line message a user can act on.
// Typed errors get a hint; everything else is printed as is.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var (
		timeoutErr   *connection.ConnectionTimeoutError
		unknownErr   *switchbot.UnknownCommandError
		transportErr *switchbot.TransportError
		configErr    *config.ValidationError
	)

	switch {
	case errors.As(err, &timeoutErr):
		return fmt.Sprintf("device %s did not connect within %s (is it in range and not connected elsewhere?)",
			timeoutErr.Address, timeoutErr.Timeout)
	case errors.As(err, &unknownErr):
		return fmt.Sprintf("unknown command %q, valid commands: %s", unknownErr.Name, strings.Join(switchbot.Names(), ", "))
	case errors.As(err, &transportErr):
		return fmt.Sprintf("device %s rejected %s to handle 0x%02X: %v",
			transportErr.Address, transportErr.Op, transportErr.Handle, transportErr.Err)
	case errors.As(err, &configErr):
		return fmt.Sprintf("invalid configuration: %s", strings.Join(configErr.Errors, "; "))
	case errors.Is(err, goble.ErrUnsupportedPlatform):
		return fmt.Sprintf("%v (use --transport bluez or run on Linux)", err)
	default:
		return err.Error()
	}
}
