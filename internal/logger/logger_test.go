package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	log, err := New("development", "warn")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zap.InfoLevel))
	require.True(t, log.Core().Enabled(zap.WarnLevel))

	log, err = New("production", "")
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	log, err := New("development", "loud")
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zap.DebugLevel))
}
