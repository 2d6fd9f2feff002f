package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/linkfactory"
	"github.com/srg/swbot/internal/switchbot"
	"github.com/srg/swbot/pkg/config"
)

// settings is what a command needs to talk to one device:
// config file and SWBOT_* values overridden by explicitly set flags
type settings struct {
	target       config.Target
	addressType  connection.AddressType
	timeout      time.Duration
	pollInterval time.Duration
	factory      connection.Factory
	logger       *logrus.Logger
}

func loadSettings(cmd *cobra.Command, device string) (*settings, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("adapter") {
		cfg.Adapter, _ = flags.GetString("adapter")
	}
	if flags.Changed("address-type") {
		cfg.AddressType, _ = flags.GetString("address-type")
	}
	if flags.Changed("transport") {
		cfg.Transport, _ = flags.GetString("transport")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger, err := configureLogger(cmd, "verbose", cfg)
	if err != nil {
		return nil, err
	}

	target := cfg.Resolve(device)
	addressType, err := connection.ParseAddressType(target.AddressType)
	if err != nil {
		return nil, err
	}
	factory, err := linkfactory.New(cfg.Transport)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"config":    path,
		"device":    target.Name,
		"address":   target.Address,
		"transport": cfg.Transport,
	}).Debug("Resolved settings")

	return &settings{
		target:       target,
		addressType:  addressType,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		factory:      factory,
		logger:       logger,
	}, nil
}

// driver builds a switchbot driver for the resolved target
func (s *settings) driver(progress connection.ProgressCallback) *switchbot.Driver {
	return switchbot.NewDriver(s.target.Address,
		switchbot.WithAdapter(s.target.Adapter),
		switchbot.WithAddressType(s.addressType),
		switchbot.WithTimeout(s.timeout),
		switchbot.WithPollInterval(s.pollInterval),
		switchbot.WithFactory(s.factory),
		switchbot.WithLogger(s.logger),
		switchbot.WithProgress(progress),
	)
}
