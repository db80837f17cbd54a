package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatConsole, ParseFormat("console"))
	assert.Equal(t, FormatConsole, ParseFormat("unknown"))
	assert.Equal(t, "json", FormatJSON.String())
}

func TestConvertConfig(t *testing.T) {
	cfg := ConvertConfig(config.LogConfig{LogLevel: "warn", LogFormat: "json", LogFile: "logs/app.log"})

	assert.Equal(t, zerolog.WarnLevel, cfg.Level)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.EnableConsole)
	assert.True(t, cfg.EnableFile)
	assert.Equal(t, 100, cfg.MaxSizeMB)
	assert.Equal(t, 3, cfg.MaxBackups)
}

func TestBuilder_JSONConsoleWithSessionID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerBuilder().
		WithFormat(FormatJSON).
		WithLevel(zerolog.InfoLevel).
		WithConsoleOutput(&buf).
		WithSessionID("session-1").
		Build()
	require.NoError(t, err)

	logger.GetZerolog().Debug().Msg("hidden")
	logger.GetZerolog().Info().Str("component", "Test").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "session-1", entry["session_id"])
	assert.Equal(t, "Test", entry["component"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestBuilder_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "unitwatch.log")

	logger, err := NewLoggerBuilder().
		WithConsole(false).
		WithFormat(FormatJSON).
		WithFile(logFile, 1, 1).
		Build()
	require.NoError(t, err)

	logger.GetZerolog().Info().Msg("to file")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Equal(t, logFile, logger.GetConfig().FilePath)
}

func TestBuilder_ConsoleFormatNoColor(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerBuilder().
		WithFormat(FormatConsole).
		WithNoColor(true).
		WithConsoleOutput(&buf).
		Build()
	require.NoError(t, err)

	logger.GetZerolog().Info().Msg("plain")
	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsole(false).Build()
	assert.ErrorContains(t, err, "no output writers configured")

	_, err = NewLoggerBuilder().WithFile("", 1, 1).Build()
	assert.ErrorContains(t, err, "file path required")
}

func TestNewWithSessionID(t *testing.T) {
	logger, err := NewWithSessionID(config.NewDefaultLogConfig(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", logger.GetConfig().SessionID)
	assert.NoError(t, logger.Close())
}
