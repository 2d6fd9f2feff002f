package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values
const (
	EnvAdapter      = "SWBOT_ADAPTER"
	EnvTimeout      = "SWBOT_TIMEOUT"
	EnvTransport    = "SWBOT_TRANSPORT"
	EnvAddressType  = "SWBOT_ADDRESS_TYPE"
	EnvLogLevel     = "SWBOT_LOG_LEVEL"
	EnvConfigPath   = "SWBOT_CONFIG"
	defaultFileName = "config.yaml"
)

// DeviceConfig describes a named device
type DeviceConfig struct {
	Address     string `yaml:"address"`
	Adapter     string `yaml:"adapter,omitempty"`
	AddressType string `yaml:"address_type,omitempty"`
}

// Config holds application configuration
type Config struct {
	LogLevel     logrus.Level            `yaml:"log_level"`
	Adapter      string                  `yaml:"adapter"`
	Transport    string                  `yaml:"transport" default:"hci"`
	AddressType  string                  `yaml:"address_type" default:"random"`
	Timeout      time.Duration           `yaml:"timeout" default:"5s"`
	PollInterval time.Duration           `yaml:"poll_interval" default:"100ms"`
	Devices      map[string]DeviceConfig `yaml:"devices"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.LogLevel = logrus.PanicLevel // silent unless asked
	cfg.Devices = map[string]DeviceConfig{}
	return cfg
}

// DefaultPath returns the config file location: $SWBOT_CONFIG, or swbot/config.yaml under the user config dir
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultFileName
	}
	return filepath.Join(dir, "swbot", defaultFileName)
}

// Load reads the config at path and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read layers a YAML config file and then SWBOT_* environment overrides on top of the defaults.
// A missing file is not an error. The result is not validated, so callers that apply further
// overrides (such as command line flags) validate once they are done.
func Read(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if cfg.Devices == nil {
			cfg.Devices = map[string]DeviceConfig{}
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps SWBOT_* env vars to config fields
func ApplyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvAdapter); v != "" {
		cfg.Adapter = v
	}
	if v := os.Getenv(EnvTransport); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv(EnvAddressType); v != "" {
		cfg.AddressType = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	return nil
}

// Target is a fully resolved device to talk to
type Target struct {
	Name        string
	Address     string
	Adapter     string
	AddressType string
}

// Resolve turns a device alias or a raw address into a Target.
// Device entries override the global adapter and address type.
func (c *Config) Resolve(device string) Target {
	t := Target{
		Name:        device,
		Address:     device,
		Adapter:     c.Adapter,
		AddressType: c.AddressType,
	}
	dev, ok := c.Devices[device]
	if !ok {
		return t
	}
	t.Address = dev.Address
	if dev.Adapter != "" {
		t.Adapter = dev.Adapter
	}
	if dev.AddressType != "" {
		t.AddressType = dev.AddressType
	}
	return t
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
