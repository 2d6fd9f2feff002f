//go:build test

package testutils

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/swbot/internal/link/goble"
	"github.com/stretchr/testify/suite"
)

// MockBLEPeripheralSuite provides a reusable test suite with a mocked go-ble peripheral.
// It swaps goble.DeviceFactory for the duration of each test, so everything that
// dials through the HCI transport talks to the mock instead of a controller.
//
// Basic usage (peripheral accepts connections and writes):
//
//	type DriverSuite struct {
//	    testutils.MockBLEPeripheralSuite
//	}
//
//	func TestDriverSuite(t *testing.T) {
//	    suite.Run(t, new(DriverSuite))
//	}
//
// Custom behavior, configured before the parent SetupTest runs:
//
//	func (s *DriverSuite) SetupTest() {
//	    s.WithPeripheral().WithoutConnection()
//	    s.MockBLEPeripheralSuite.SetupTest()
//	}
type MockBLEPeripheralSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	OriginalDeviceFactory func(adapter string) (goble.Transport, error)

	PeripheralBuilder *PeripheralBuilder
	Adapters          []string // adapters requested from the device factory, in order
}

// SetupSuite runs once before all tests in the suite
func (s *MockBLEPeripheralSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.OriginalDeviceFactory = goble.DeviceFactory

	s.T().Cleanup(func() {
		if s.OriginalDeviceFactory != nil {
			goble.DeviceFactory = s.OriginalDeviceFactory
		}
	})
}

// SetupTest installs the mocked device factory before each test
func (s *MockBLEPeripheralSuite) SetupTest() {
	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = NewPeripheralBuilder()
	}
	s.Adapters = nil

	builder := s.PeripheralBuilder
	goble.DeviceFactory = func(adapter string) (goble.Transport, error) {
		s.Adapters = append(s.Adapters, adapter)
		return builder.Build(), nil
	}
}

// TearDownTest restores the device factory and resets the peripheral
func (s *MockBLEPeripheralSuite) TearDownTest() {
	if s.OriginalDeviceFactory != nil {
		goble.DeviceFactory = s.OriginalDeviceFactory
	}
	s.PeripheralBuilder = nil
}

// WithPeripheral returns the peripheral builder for configuration in SetupTest
func (s *MockBLEPeripheralSuite) WithPeripheral() *PeripheralBuilder {
	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = NewPeripheralBuilder()
	}
	return s.PeripheralBuilder
}

// Dials returns how many links dialed the mocked peripheral
func (s *MockBLEPeripheralSuite) Dials() int {
	return len(s.PeripheralBuilder.Transports())
}
