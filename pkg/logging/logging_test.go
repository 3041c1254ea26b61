package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		debug bool
	}{
		{"debug", "debug", true},
		{"info", "info", false},
		{"garbage falls back to info", "loud", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log.json")
			l, err := NewLogger(Config{Level: tt.level, OutputPath: path})
			require.NoError(t, err)
			assert.Equal(t, tt.debug, l.Core().Enabled(zap.DebugLevel))
		})
	}
}

func TestNewLoggerConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l, err := NewLogger(Config{Level: "warn", Format: "console", OutputPath: path, Development: true})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}

func TestLogDataIntegrity(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l := zap.New(core)

	LogDataIntegrity(l, "part:w1", "unknown_profile", zap.String("profileId", "GONE"))
	LogDataIntegrity(nil, "part:w2", "ignored")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	ctx := entry.ContextMap()
	assert.Equal(t, "part:w1", ctx["entity"])
	assert.Equal(t, "unknown_profile", ctx["issue"])
	assert.Equal(t, "GONE", ctx["profileId"])
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := WithFields(zap.New(core), map[string]interface{}{"model": "ABC123"})
	l.Info("loaded")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ABC123", logs.All()[0].ContextMap()["model"])
}
