package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"c2papreview/internal/config"
)

func TestWriterLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel).With("component", "test")

	l.Info("检查开始", "token", 7, "path", "a.png")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "检查开始", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, float64(7), entry["token"])
	assert.Equal(t, "a.png", entry["path"])
}

func TestWriterLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("shown")
	assert.NotZero(t, buf.Len())
}

func TestNewWithoutWritersIsNop(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Log.Writer = nil

	l := New(cfg)
	require.NotNil(t, l)
	l.Info("nothing happens")
}
