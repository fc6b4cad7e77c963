package logger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Development(t *testing.T) {
	log, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, log)

	// Should not panic
	log.Info("test message")
}

func TestNew_Production(t *testing.T) {
	log, err := New(false)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.NotNil(t, Must(true))
	})
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestForRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := ForRun(zap.New(core), "run-1", "crash_recovery")

	log.Info("run finished")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "crash_recovery", fields["tactic"])
}
