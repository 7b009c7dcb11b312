package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestNewDefaultsOutputToStdout(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	defer func() { _ = logger.Sync() }()
	assert.NotNil(t, logger.Logger)
}

func TestComponentNamesChild(t *testing.T) {
	logger := NewDefault()
	child := logger.Component("engine")
	require.NotNil(t, child)
	assert.NotSame(t, logger.Logger, child)
}

func TestDevelopmentBuilds(t *testing.T) {
	logger := NewDevelopment()
	assert.NotNil(t, logger.Logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
