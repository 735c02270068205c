package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesPlainTextToBuffers(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo)
	log.Debug("hidden")
	log.Info("saved", "count", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "saved")
	assert.Contains(t, out, "count=3")
	assert.NotContains(t, out, "\x1b[", "no colour for non-terminals")
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "todo.log")

	for _, msg := range []string{"first", "second"} {
		log, closeFn, err := OpenFile(path, slog.LevelDebug)
		require.NoError(t, err)
		log.Info(msg)
		require.NoError(t, closeFn())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}

func TestOpenFileEmptyPathDiscards(t *testing.T) {
	log, closeFn, err := OpenFile("", slog.LevelDebug)
	require.NoError(t, err)
	log.Error("nowhere")
	assert.NoError(t, closeFn())
}
