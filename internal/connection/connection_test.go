//go:build test

package connection_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "C1:2B:3C:4D:5E:6F"

func TestOpen_ConnectsAfterPolling(t *testing.T) {
	// GOAL: Verify Open polls the link state until it reports connected
	//
	// TEST SCENARIO: Link connects on the third poll → Open returns it → exactly one link created

	helper := testutils.NewTestHelper(t)
	factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
		return &testutils.FakeLink{ConnectAfter: 2}
	}}

	opts := connection.Options{Address: testAddress, Timeout: time.Second, PollInterval: time.Millisecond}
	link, err := connection.Open(context.Background(), factory.Factory(), opts, helper.Logger)

	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, connection.StateConnected, link.State())
	assert.Equal(t, 1, factory.Created(), "Open MUST create exactly one link")
	assert.Equal(t, 2, factory.Last().Polls(), "link MUST be polled until connected")
	assert.Equal(t, 0, factory.Last().DisconnectCalls(), "connected link MUST NOT be disconnected by Open")
	assert.Contains(t, helper.Logs(), "Connected to BLE device")
}

func TestOpen_AppliesDefaults(t *testing.T) {
	factory := &testutils.FakeFactory{}

	_, err := connection.Open(context.Background(), factory.Factory(), connection.Options{Address: testAddress}, nil)
	require.NoError(t, err)

	opts := factory.LastOptions()
	assert.Equal(t, connection.DefaultTimeout, opts.Timeout)
	assert.Equal(t, connection.DefaultPollInterval, opts.PollInterval)
	assert.Equal(t, connection.AddressRandom, opts.AddressType)
}

func TestOpen_Timeout(t *testing.T) {
	// GOAL: Verify a link that never connects fails with a timeout within one poll interval
	//
	// TEST SCENARIO: 10ms timeout, default 100ms polling, link stays connecting → ConnectionTimeoutError
	// after roughly one poll → pending attempt abandoned

	helper := testutils.NewTestHelper(t)
	factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
		return &testutils.FakeLink{ConnectAfter: -1}
	}}

	start := time.Now()
	link, err := connection.Open(context.Background(), factory.Factory(),
		connection.Options{Address: testAddress, Timeout: 10 * time.Millisecond}, helper.Logger)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, link)
	assert.ErrorIs(t, err, connection.ErrConnectionTimeout)

	var timeoutErr *connection.ConnectionTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, testAddress, timeoutErr.Address)
	assert.Equal(t, 10*time.Millisecond, timeoutErr.Timeout)

	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond, "timeout MUST NOT fire early")
	assert.Less(t, elapsed, 250*time.Millisecond, "timeout MUST fire within about one poll interval")
	assert.Empty(t, factory.Last().Writes(), "timed out link MUST NOT be written to")
	assert.Equal(t, 1, factory.Last().DisconnectCalls(), "pending attempt MUST be abandoned")
}

func TestOpen_DialError(t *testing.T) {
	dialErr := errors.New("le connection refused")
	factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
		return &testutils.FakeLink{DialErr: dialErr}
	}}

	_, err := connection.Open(context.Background(), factory.Factory(),
		connection.Options{Address: testAddress, Timeout: time.Second, PollInterval: time.Millisecond}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, dialErr, "dial failure MUST be wrapped, not replaced")
	assert.NotErrorIs(t, err, connection.ErrConnectionTimeout)
	assert.Equal(t, 1, factory.Last().DisconnectCalls(), "closed link MUST still be released")
}

func TestOpen_ConnectError(t *testing.T) {
	connectErr := errors.New("adapter down")
	factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
		return &testutils.FakeLink{ConnectErr: connectErr}
	}}

	_, err := connection.Open(context.Background(), factory.Factory(), connection.Options{Address: testAddress}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, connectErr)
	assert.Contains(t, err.Error(), testAddress)
}

func TestOpen_FactoryError(t *testing.T) {
	factoryErr := errors.New("no such adapter")
	factory := &testutils.FakeFactory{Err: factoryErr}

	_, err := connection.Open(context.Background(), factory.Factory(), connection.Options{Address: testAddress}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, factoryErr)
	assert.Contains(t, err.Error(), "failed to create link")
}

func TestOpen_EmptyAddress(t *testing.T) {
	factory := &testutils.FakeFactory{}

	_, err := connection.Open(context.Background(), factory.Factory(), connection.Options{Address: "  "}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "address is empty")
	assert.Equal(t, 0, factory.Created(), "no link MUST be created for an empty address")
}

func TestOpen_ContextCanceled(t *testing.T) {
	factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
		return &testutils.FakeLink{ConnectAfter: -1}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := connection.Open(ctx, factory.Factory(),
		connection.Options{Address: testAddress, Timeout: 10 * time.Second, PollInterval: 5 * time.Millisecond}, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, factory.Last().DisconnectCalls(), "canceled attempt MUST be abandoned")
}

func TestWithConnection_ReleasesLink(t *testing.T) {
	// GOAL: Verify the link is released on every exit path of the scoped function
	//
	// TEST SCENARIO: fn succeeds / fn fails / fn panics → Disconnect called once in each case

	opts := connection.Options{Address: testAddress, PollInterval: time.Millisecond}

	t.Run("success", func(t *testing.T) {
		factory := &testutils.FakeFactory{}
		result, err := connection.WithConnection(context.Background(), factory.Factory(), opts, nil, nil,
			func(link connection.Link) (string, error) {
				return "done", link.WriteHandle(0x16, []byte{0x57, 0x01, 0x00})
			})

		require.NoError(t, err)
		assert.Equal(t, "done", result)
		assert.Equal(t, []testutils.Write{{Handle: 0x16, Payload: []byte{0x57, 0x01, 0x00}}}, factory.Last().Writes())
		assert.Equal(t, 1, factory.Last().DisconnectCalls(), "link MUST be released after success")
	})

	t.Run("error", func(t *testing.T) {
		factory := &testutils.FakeFactory{}
		fnErr := errors.New("boom")
		_, err := connection.WithConnection(context.Background(), factory.Factory(), opts, nil, nil,
			func(connection.Link) (int, error) { return 0, fnErr })

		require.ErrorIs(t, err, fnErr)
		assert.Equal(t, 1, factory.Last().DisconnectCalls(), "link MUST be released after an error")
	})

	t.Run("panic", func(t *testing.T) {
		factory := &testutils.FakeFactory{}
		assert.Panics(t, func() {
			_, _ = connection.WithConnection(context.Background(), factory.Factory(), opts, nil, nil,
				func(connection.Link) (int, error) { panic("write exploded") })
		})
		assert.Equal(t, 1, factory.Last().DisconnectCalls(), "link MUST be released after a panic")
	})
}

func TestWithConnection_ClosedLinkSkipsDisconnect(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
		return &testutils.FakeLink{DropOnWrite: true}
	}}

	_, err := connection.WithConnection(context.Background(), factory.Factory(),
		connection.Options{Address: testAddress, PollInterval: time.Millisecond}, helper.Logger, nil,
		func(link connection.Link) (struct{}, error) {
			return struct{}{}, link.WriteHandle(0x0D, []byte{0x57})
		})

	require.NoError(t, err)
	assert.Equal(t, 0, factory.Last().DisconnectCalls(), "link closed by the peer MUST NOT be disconnected again")
	assert.Contains(t, helper.Logs(), "skipping disconnect")
}

func TestWithConnection_DisconnectErrorIsLogged(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
		return &testutils.FakeLink{DisconnectErr: errors.New("hci reset")}
	}}

	result, err := connection.WithConnection(context.Background(), factory.Factory(),
		connection.Options{Address: testAddress, PollInterval: time.Millisecond}, helper.Logger, nil,
		func(connection.Link) (int, error) { return 7, nil })

	require.NoError(t, err, "disconnect failure MUST NOT replace the result")
	assert.Equal(t, 7, result)
	assert.Contains(t, helper.Logs(), "failed to disconnect device")
}

func TestWithConnection_Progress(t *testing.T) {
	var phases []string
	progress := func(phase string) { phases = append(phases, phase) }

	t.Run("connected", func(t *testing.T) {
		phases = nil
		factory := &testutils.FakeFactory{}
		_, err := connection.WithConnection(context.Background(), factory.Factory(),
			connection.Options{Address: testAddress, PollInterval: time.Millisecond}, nil, progress,
			func(connection.Link) (int, error) { return 0, nil })

		require.NoError(t, err)
		assert.Equal(t, []string{connection.PhaseConnecting, connection.PhaseConnected}, phases)
	})

	t.Run("failed", func(t *testing.T) {
		phases = nil
		called := false
		factory := &testutils.FakeFactory{NewLink: func() *testutils.FakeLink {
			return &testutils.FakeLink{ConnectAfter: -1}
		}}
		_, err := connection.WithConnection(context.Background(), factory.Factory(),
			connection.Options{Address: testAddress, Timeout: 5 * time.Millisecond, PollInterval: time.Millisecond}, nil, progress,
			func(connection.Link) (int, error) { called = true; return 0, nil })

		require.ErrorIs(t, err, connection.ErrConnectionTimeout)
		assert.False(t, called, "fn MUST NOT run without a connection")
		assert.Equal(t, []string{connection.PhaseConnecting, connection.PhaseFailed}, phases)
	})
}
