package switchbot

import (
	"errors"
	"fmt"
	"strings"
)

// Command errors
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrTransport      = errors.New("transport error")
)

// UnknownCommandError reports a command name missing from the command table
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q (valid commands: %s)", e.Name, strings.Join(Names(), ", "))
}

// Is lets errors.Is match ErrUnknownCommand
func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// TransportError carries a link failure that happened during a write.
// The link error is kept as is and is available through errors.Unwrap.
type TransportError struct {
	Op      string
	Address string
	Handle  uint16
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s to handle 0x%02X on %s failed: %v", e.Op, e.Handle, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
