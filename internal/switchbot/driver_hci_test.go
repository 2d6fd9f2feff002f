//go:build test

package switchbot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/linkfactory"
	"github.com/srg/swbot/internal/switchbot"
	"github.com/srg/swbot/internal/testutils"
	"github.com/stretchr/testify/suite"
)

// hciSuite runs the driver against a mocked go-ble peripheral through the HCI link factory
type hciSuite struct {
	testutils.MockBLEPeripheralSuite
}

func (s *hciSuite) driver(address string, opts ...switchbot.Option) *switchbot.Driver {
	opts = append([]switchbot.Option{
		switchbot.WithFactory(linkfactory.HCI),
		switchbot.WithLogger(s.Logger),
	}, opts...)
	return switchbot.NewDriver(address, opts...)
}

type DriverHCISuite struct {
	hciSuite
}

func (s *DriverHCISuite) TestPressWritesBotHandle() {
	// GOAL: Verify a press reaches the peripheral as one write request to handle 0x16
	//
	// TEST SCENARIO: Run "press" → mock transport dialed on hci0 → write 57 01 00 → connection canceled → adapter stopped

	result, err := s.driver(botAddress, switchbot.WithAdapter("hci0")).Run(context.Background(), "press")
	s.Require().NoError(err)
	s.Equal("press", result.Command)

	s.Equal([]testutils.Write{{Handle: 0x16, Payload: []byte{0x57, 0x01, 0x00}}}, s.PeripheralBuilder.Writes())
	s.Equal([]string{"hci0"}, s.Adapters)

	s.Require().Len(s.PeripheralBuilder.Clients(), 1)
	client := s.PeripheralBuilder.Clients()[0]
	client.AssertCalled(s.T(), "CancelConnection")
	s.PeripheralBuilder.Transports()[0].AssertCalled(s.T(), "Stop")
}

func (s *DriverHCISuite) TestCurtainOpen() {
	_, err := s.driver(curtainAddress).Run(context.Background(), "open")
	s.Require().NoError(err)

	s.Equal([]testutils.Write{{Handle: 0x0D, Payload: []byte{0x57, 0x0F, 0x45, 0x01, 0x05, 0xFF, 0x00}}}, s.PeripheralBuilder.Writes())
}

func (s *DriverHCISuite) TestUnknownCommandNeverDials() {
	_, err := s.driver(botAddress).Run(context.Background(), "toggle")

	s.Require().ErrorIs(err, switchbot.ErrUnknownCommand)
	s.Equal(0, s.Dials(), "unknown command MUST NOT touch the adapter")
}

func TestDriverHCISuite(t *testing.T) {
	suite.Run(t, new(DriverHCISuite))
}

// DriverHCITimeoutSuite runs against a peripheral that never accepts the connection
type DriverHCITimeoutSuite struct {
	hciSuite
}

func (s *DriverHCITimeoutSuite) SetupTest() {
	s.WithPeripheral().WithoutConnection()
	s.hciSuite.SetupTest()
}

func (s *DriverHCITimeoutSuite) TestTimeout() {
	start := time.Now()
	_, err := s.driver(botAddress, switchbot.WithTimeout(10*time.Millisecond)).Run(context.Background(), "on")

	s.Require().ErrorIs(err, connection.ErrConnectionTimeout)
	s.Less(time.Since(start), 250*time.Millisecond, "timeout MUST fire within about one poll interval")
	s.Empty(s.PeripheralBuilder.Writes(), "no write MUST happen without a connection")
	s.PeripheralBuilder.Transports()[0].AssertCalled(s.T(), "Stop")
}

func TestDriverHCITimeoutSuite(t *testing.T) {
	suite.Run(t, new(DriverHCITimeoutSuite))
}

// DriverHCIWriteErrorSuite runs against a peripheral that rejects writes
type DriverHCIWriteErrorSuite struct {
	hciSuite
}

var errWriteRejected = errors.New("att: write not permitted")

func (s *DriverHCIWriteErrorSuite) SetupTest() {
	s.WithPeripheral().WithWriteError(errWriteRejected)
	s.hciSuite.SetupTest()
}

func (s *DriverHCIWriteErrorSuite) TestTransportError() {
	_, err := s.driver(curtainAddress).Run(context.Background(), "close")

	s.Require().ErrorIs(err, switchbot.ErrTransport)
	s.ErrorIs(err, errWriteRejected)
	s.Len(s.PeripheralBuilder.Writes(), 1, "failed write MUST NOT be retried")
	s.PeripheralBuilder.Clients()[0].AssertCalled(s.T(), "CancelConnection")
}

func TestDriverHCIWriteErrorSuite(t *testing.T) {
	suite.Run(t, new(DriverHCIWriteErrorSuite))
}
