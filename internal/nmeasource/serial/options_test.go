package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.bug.st/serial"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	t.Parallel()
	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 19200, opts.BaudRate)
	assert.Equal(t, 8, opts.DataBits)
	assert.Equal(t, 1, opts.StopBits)
	assert.Equal(t, "N", opts.Parity)
}

func TestNormalizeRejectsBadDataBits(t *testing.T) {
	t.Parallel()
	_, err := PortOptions{DataBits: 4}.Normalize()
	assert.Error(t, err)
}

func TestNormalizeRejectsBadStopBits(t *testing.T) {
	t.Parallel()
	_, err := PortOptions{StopBits: 3}.Normalize()
	assert.Error(t, err)
}

func TestNormalizeAcceptsParityAliases(t *testing.T) {
	t.Parallel()
	opts, err := PortOptions{Parity: "even"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "E", opts.Parity)
}

func TestNormalizeRejectsUnknownParity(t *testing.T) {
	t.Parallel()
	_, err := PortOptions{Parity: "X"}.Normalize()
	assert.Error(t, err)
}

func TestSerialModeTranslatesOptions(t *testing.T) {
	t.Parallel()
	mode, err := PortOptions{BaudRate: 4800, DataBits: 7, StopBits: 2, Parity: "O"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, 4800, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.OddParity, mode.Parity)
}
