package server

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogging(t *testing.T) {
	t.Helper()
	logger, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = logger
		zerolog.SetGlobalLevel(level)
	})
}

func TestConfigureLoggingJSON(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer

	configureLogging(&Config{LogLevel: "warn", LogFormat: LogFormatJSON}, &buf)
	log.Info().Msg("filtered")
	log.Warn().Str("room", "ABCD").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), "exactly one JSON line expected: %s", buf.String())
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "ABCD", entry["room"])
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestConfigureLoggingConsole(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer

	configureLogging(&Config{LogLevel: "debug", LogFormat: LogFormatConsole}, &buf)
	log.Debug().Msg("hello console")

	assert.Contains(t, buf.String(), "hello console")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
}

func TestConfigureLoggingInvalidLevel(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer

	configureLogging(&Config{LogLevel: "nonsense"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
