//go:build test

// Package mocks provides testify mocks for the go-ble transport.
package mocks

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/srg/swbot/internal/link/goble"
	"github.com/stretchr/testify/mock"
)

// MockTransport mocks goble.Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Dial(ctx context.Context, addr ble.Addr) (goble.Client, error) {
	args := m.Called(ctx, addr)
	client, _ := args.Get(0).(goble.Client)
	return client, args.Error(1)
}

func (m *MockTransport) Stop() error {
	return m.Called().Error(0)
}

// MockClient mocks goble.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error {
	return m.Called(c, value, noRsp).Error(0)
}

func (m *MockClient) CancelConnection() error {
	return m.Called().Error(0)
}

func (m *MockClient) Disconnected() <-chan struct{} {
	ch, _ := m.Called().Get(0).(chan struct{})
	return ch
}
