package groutine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_NameAndDone(t *testing.T) {
	names := make(chan string, 1)

	done := Go(context.Background(), "ble-dial", func(ctx context.Context) {
		names <- GetName(ctx)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "done channel MUST be closed when fn returns")
	}
	assert.Equal(t, "ble-dial", <-names)
}

func TestGo_NilParentContext(t *testing.T) {
	//nolint:staticcheck // nil parent is part of the contract
	done := Go(nil, "worker", func(ctx context.Context) {
		assert.NotNil(t, ctx)
	})
	<-done
}

func TestGo_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())

	done := Go(parent, "waiter", func(ctx context.Context) {
		<-ctx.Done()
	})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "goroutine MUST observe parent cancellation")
	}
}

func TestGetName_WithoutName(t *testing.T) {
	assert.Equal(t, "", GetName(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.Equal(t, "", GetName(nil))
}
