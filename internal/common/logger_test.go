package common

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "pool", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "abc", line["pool"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerMixinTagsComponent(t *testing.T) {
	m := NewLoggerMixin("journal")
	assert.NotNil(t, m.GetLogger())

	var buf bytes.Buffer
	m.SetLogger(NewLogger(&buf, "info", "json"))
	m.SetLogger(nil)
	m.GetLogger().Info("recorded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "journal", line["component"])
	assert.Equal(t, "recorded", line["msg"])
}
