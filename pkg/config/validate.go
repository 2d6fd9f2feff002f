package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/srg/swbot/internal/connection"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// listing every problem found.
func Validate(cfg *Config) error {
	ve := &ValidationError{}

	switch cfg.Transport {
	case "hci", "bluez":
	default:
		ve.Add("transport: %q is not one of hci, bluez", cfg.Transport)
	}
	validateAddressType(ve, "address_type", cfg.AddressType)
	validateAdapter(ve, "adapter", cfg.Adapter)
	if cfg.Timeout <= 0 {
		ve.Add("timeout: must be positive, got %s", cfg.Timeout)
	}
	if cfg.PollInterval <= 0 {
		ve.Add("poll_interval: must be positive, got %s", cfg.PollInterval)
	}

	for name, dev := range cfg.Devices {
		if hw, err := net.ParseMAC(dev.Address); err != nil || len(hw) != 6 {
			ve.Add("devices.%s.address: %q is not a MAC address", name, dev.Address)
		}
		validateAddressType(ve, "devices."+name+".address_type", dev.AddressType)
		validateAdapter(ve, "devices."+name+".adapter", dev.Adapter)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateAddressType(ve *ValidationError, field, value string) {
	switch value {
	case "", "random", "public":
	default:
		ve.Add("%s: %q is not one of random, public", field, value)
	}
}

func validateAdapter(ve *ValidationError, field, value string) {
	if _, err := connection.AdapterID(value); err != nil {
		ve.Add("%s: %q is not an adapter name (hciN)", field, value)
	}
}
