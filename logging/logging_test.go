package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/orrery/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("loud"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("dropped")
	log.Warn("view changed", "to", "ship")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "view changed", record["msg"])
	assert.Equal(t, "ship", record["to"])
	assert.Equal(t, "WARN", record["level"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: "debug", Output: &buf})
	log.Debug("autopilot wrapped", "frame", 1700)
	assert.Contains(t, buf.String(), "msg=\"autopilot wrapped\" frame=1700")
}

func TestNoop(t *testing.T) {
	log := logging.Noop()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
