package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithBaseAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", ServiceName: "sitebooks", Environment: "test", Output: &buf})

	log.Debug("bill created", "bill_no", "B-7")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "bill created", rec["msg"])
	assert.Equal(t, "sitebooks", rec["service"])
	assert.Equal(t, "test", rec["environment"])
	assert.Equal(t, "B-7", rec["bill_no"])
	assert.Contains(t, rec["time"], "Z")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
