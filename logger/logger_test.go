package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("trade opened", "entry", 100.0)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "trade opened", rec["msg"])
	assert.Equal(t, "ivtrader", rec["service"])
	assert.Equal(t, 100.0, rec["entry"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, slog.LevelDebug, "text")
	require.NoError(t, err)
	l.Debug("trailing", "sl", 107.0)
	assert.Contains(t, buf.String(), "msg=trailing")
	assert.Contains(t, buf.String(), "sl=107")

	_, err = New(&buf, slog.LevelInfo, "xml")
	assert.Error(t, err)
}

func TestInitRejectsBadLevel(t *testing.T) {
	var buf bytes.Buffer
	_, err := Init(&buf, "loud", "text")
	assert.Error(t, err)
}
