package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/dupcat/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, logging.ParseLevel(input))
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dupcat.log")
	logger, closer := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
	})

	logger.Info().Msg("filtered")
	logger.Warn().Str("path", "a.jpg").Msg("skipping file")
	require.NoError(t, closer.Close())

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(written), "filtered")
	assert.Contains(t, string(written), `"message":"skipping file"`)
	assert.Contains(t, string(written), `"path":"a.jpg"`)
}

func TestNopWritesNothing(t *testing.T) {
	logger := logging.Nop()
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestDiscardOutput(t *testing.T) {
	logger, closer := logging.NewLoggerFromConfig(&logging.Config{Output: "discard", Format: "console"})
	logger.Info().Msg("nowhere")
	assert.NoError(t, closer.Close())
}
