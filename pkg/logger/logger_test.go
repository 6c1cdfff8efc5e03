package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsLoggerForValidLevel(t *testing.T) {
	l, err := New(Config{Level: "debug", JSON: true})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewFallsBackToInfoOnInvalidLevel(t *testing.T) {
	l, err := New(Config{Level: "not-a-level", JSON: false})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.JSON)
}
