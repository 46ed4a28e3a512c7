package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitText(t *testing.T) {
	t.Cleanup(func() { Init(Options{}) })

	var out bytes.Buffer
	Init(Options{Enabled: true, Level: slog.LevelWarn, Output: &out})
	Info("hidden")
	Warn("shown", "location", "classes.dex")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg=shown")
	assert.Contains(t, out.String(), "location=classes.dex")
}

func TestInitJSON(t *testing.T) {
	t.Cleanup(func() { Init(Options{}) })

	var out bytes.Buffer
	Init(Options{Enabled: true, Level: slog.LevelDebug, JSON: true, Output: &out})
	Debug("verifying", "entry", "classes2.dex")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "verifying", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "classes2.dex", rec["entry"])
}

func TestDisabledDiscards(t *testing.T) {
	var out bytes.Buffer
	Init(Options{Enabled: false, Output: &out})
	Error("nothing")
	assert.Zero(t, out.Len())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
