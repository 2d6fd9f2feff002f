package linkfactory

import (
	"testing"

	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/link/bluez"
	"github.com/srg/swbot/internal/link/goble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	opts := connection.Options{Address: "C1:2B:3C:4D:5E:6F"}

	tests := []struct {
		transport string
		expected  interface{}
	}{
		{transport: "", expected: &goble.Link{}},
		{transport: "hci", expected: &goble.Link{}},
		{transport: "bluez", expected: &bluez.Link{}},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			factory, err := New(tt.transport)
			require.NoError(t, err)

			link, err := factory(opts, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, link)
			assert.Equal(t, connection.StateIdle, link.State(), "factories MUST return unconnected links")
		})
	}
}

func TestNew_UnknownTransport(t *testing.T) {
	_, err := New("serial")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hci or bluez")
}

func TestBlueZ_InvalidAddress(t *testing.T) {
	_, err := BlueZ(connection.Options{Address: "kitchen"}, nil)
	assert.Error(t, err)
}
