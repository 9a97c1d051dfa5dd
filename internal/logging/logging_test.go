package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: file-only logging
	path := filepath.Join(t.TempDir(), "stelae.log")
	logger, cleanup, err := Setup(Config{
		Level:    "info",
		FilePath: path,
	})
	require.NoError(t, err)

	// When: logging one record
	logger.Info("rebuild complete", slog.Int("documents", 42))
	cleanup()

	// Then: the file holds one JSON object with the structured fields
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "rebuild complete", record["msg"])
	assert.Equal(t, float64(42), record["documents"])
	assert.Equal(t, "INFO", record["level"])
}

func TestSetup_LevelFiltersRecords(t *testing.T) {
	// Given: warn-level logging
	path := filepath.Join(t.TempDir(), "stelae.log")
	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)

	// When: logging below and at the threshold
	logger.Info("dropped")
	logger.Warn("kept")
	cleanup()

	// Then: only the warning survives
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestSetup_NoFileUsesStderrOnly(t *testing.T) {
	logger, cleanup, err := Setup(DefaultConfig())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, logger)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("unknown"))
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	// Given: a writer with a 1 MB cap
	path := filepath.Join(t.TempDir(), "stelae.log")
	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	// When: writing past the cap
	chunk := make([]byte, 512*1024)
	for i := range chunk {
		chunk[i] = 'x'
	}
	for i := 0; i < 3; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: the overflow moved to the .1 file and the live file shrank
	rotated, err := os.Stat(path + ".1")
	require.NoError(t, err)
	assert.Greater(t, rotated.Size(), int64(0))

	live, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, live.Size(), int64(1024*1024))
}

func TestRotatingWriter_DropsOldestBeyondMaxFiles(t *testing.T) {
	// Given: a tiny writer keeping at most two rotated files
	path := filepath.Join(t.TempDir(), "stelae.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()

	chunk := make([]byte, 600*1024)
	for i := 0; i < 8; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: only .1 and .2 remain
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".2")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriter_ReopensExistingFile(t *testing.T) {
	// Given: an existing log file with content
	path := filepath.Join(t.TempDir(), "stelae.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o644))

	// When: a new writer appends
	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	_, err = w.Write([]byte("later\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Then: both lines are present
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "earlier\nlater\n", string(data))
}
