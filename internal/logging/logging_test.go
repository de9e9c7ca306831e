package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := Setup(&buf, "info", FormatJSON)
	require.NoError(t, err)

	logger.Info("poll started", "source_id", "1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "poll started", entry["msg"])
	assert.Equal(t, "1", entry["source_id"])
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := Setup(&buf, "", FormatText)
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetupRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := Setup(&bytes.Buffer{}, "loud", FormatText)
	assert.ErrorContains(t, err, "parse log level")

	_, err = Setup(&bytes.Buffer{}, "info", "xml")
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, Default(nil))
	assert.False(t, Default(nil).Enabled(t.Context(), slog.LevelError))
	assert.Equal(t, slog.DiscardHandler, Discard().Handler())

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, logger, Default(logger))
}
