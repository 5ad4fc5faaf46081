package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"sessionId": "s-1"})

	log.Warn("router failed", map[string]interface{}{
		"error":    errors.New("throttled"),
		"attempts": 3,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "s-1", ctx["sessionId"])
	assert.Equal(t, "throttled", ctx["error"])
	assert.EqualValues(t, 3, ctx["attempts"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestZapAdapter_WithError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewZapAdapter(zap.New(core)).WithError(errors.New("boom")).Error("store failed", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])
}

func TestNewWithOutput(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
	}{
		{name: "debug level", level: "debug", wantDebug: true},
		{name: "info level", level: "info", wantDebug: false},
		{name: "unknown level defaults to info", level: "verbose", wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.log")
			z := NewWithOutput(tt.level, "json", path)
			z.Debug("debug line")
			z.Info("info line")
			_ = z.Sync()

			out, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(out), `"timestamp"`)
			assert.Contains(t, string(out), "info line")
			assert.Equal(t, tt.wantDebug, strings.Contains(string(out), "debug line"))
		})
	}
}
