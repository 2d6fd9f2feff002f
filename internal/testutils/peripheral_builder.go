//go:build test

package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/srg/swbot/internal/testutils/mocks"
	"github.com/stretchr/testify/mock"
)

// PeripheralBuilder scripts how a mocked go-ble peripheral behaves when dialed and written to.
// Every Build call returns a fresh transport; writes from all of them are recorded on the builder.
type PeripheralBuilder struct {
	dialDelay    time.Duration
	neverConnect bool
	dialErr      error
	writeErr     error
	dropOnWrite  bool

	mu         sync.Mutex
	writes     []Write
	transports []*mocks.MockTransport
	clients    []*mocks.MockClient
}

// NewPeripheralBuilder creates a builder for a peripheral that accepts connections and writes
func NewPeripheralBuilder() *PeripheralBuilder {
	return &PeripheralBuilder{}
}

// WithDialDelay delays the dial result by d
func (b *PeripheralBuilder) WithDialDelay(d time.Duration) *PeripheralBuilder {
	b.dialDelay = d
	return b
}

// WithoutConnection makes every dial block until it is canceled
func (b *PeripheralBuilder) WithoutConnection() *PeripheralBuilder {
	b.neverConnect = true
	return b
}

// WithDialError makes every dial fail with err
func (b *PeripheralBuilder) WithDialError(err error) *PeripheralBuilder {
	b.dialErr = err
	return b
}

// WithWriteError makes every write fail with err
func (b *PeripheralBuilder) WithWriteError(err error) *PeripheralBuilder {
	b.writeErr = err
	return b
}

// WithDropOnWrite makes the peripheral drop the connection when written to
func (b *PeripheralBuilder) WithDropOnWrite() *PeripheralBuilder {
	b.dropOnWrite = true
	return b
}

// Build creates a mocked transport with the configured behavior
func (b *PeripheralBuilder) Build() *mocks.MockTransport {
	transport := &mocks.MockTransport{}
	client := &mocks.MockClient{}

	disconnected := make(chan struct{})
	var once sync.Once
	drop := func() { once.Do(func() { close(disconnected) }) }

	client.On("Disconnected").Return(disconnected)
	client.On("CancelConnection").Run(func(mock.Arguments) { drop() }).Return(nil)
	client.On("WriteCharacteristic", mock.Anything, mock.Anything, false).Run(func(args mock.Arguments) {
		char := args.Get(0).(*ble.Characteristic)
		value := args.Get(1).([]byte)
		b.record(Write{Handle: char.ValueHandle, Payload: append([]byte(nil), value...)})
		if b.dropOnWrite {
			drop()
		}
	}).Return(b.writeErr)

	dial := transport.On("Dial", mock.Anything, mock.Anything)
	switch {
	case b.neverConnect:
		dial.Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).Return(nil, context.Canceled)
	case b.dialErr != nil:
		dial.Run(b.delay).Return(nil, b.dialErr)
	default:
		dial.Run(b.delay).Return(client, nil)
	}
	transport.On("Stop").Return(nil)

	b.mu.Lock()
	b.transports = append(b.transports, transport)
	b.clients = append(b.clients, client)
	b.mu.Unlock()

	return transport
}

func (b *PeripheralBuilder) delay(args mock.Arguments) {
	if b.dialDelay <= 0 {
		return
	}
	select {
	case <-time.After(b.dialDelay):
	case <-args.Get(0).(context.Context).Done():
	}
}

func (b *PeripheralBuilder) record(w Write) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, w)
}

// Writes returns every write received by transports built so far
func (b *PeripheralBuilder) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write(nil), b.writes...)
}

// Transports returns the transports built so far
func (b *PeripheralBuilder) Transports() []*mocks.MockTransport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*mocks.MockTransport(nil), b.transports...)
}

// Clients returns the clients built so far
func (b *PeripheralBuilder) Clients() []*mocks.MockClient {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*mocks.MockClient(nil), b.clients...)
}
