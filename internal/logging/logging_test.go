package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerd/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn", Format: "JSON"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "account", "1234")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "1234", entry["account"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello k=v")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
