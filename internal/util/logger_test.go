package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerConfig(t *testing.T) {
	config, err := newLoggerConfig("production", "")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, config.Level.Level())
	assert.Equal(t, "json", config.Encoding)
	assert.Equal(t, serviceName, config.InitialFields["service"])

	config, err = newLoggerConfig("development", "")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, config.Level.Level())

	config, err = newLoggerConfig("production", "WARN")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, config.Level.Level())

	_, err = newLoggerConfig("production", "loud")
	assert.Error(t, err)
}

func TestInitLoggerReplacesGlobal(t *testing.T) {
	defer SetLogger(nil)

	require.NoError(t, InitLogger("production", "error"))
	assert.False(t, GetLogger().Core().Enabled(zapcore.WarnLevel))
	assert.True(t, GetLogger().Core().Enabled(zapcore.ErrorLevel))
	assert.Same(t, GetLogger(), zap.L())

	assert.Error(t, InitLogger("production", "loud"))
}
