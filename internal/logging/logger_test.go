package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailsort/internal/model"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mailsort.log")

	l, err := New(model.LogConfig{Path: path, Level: "info"})
	require.NoError(t, err)

	l.Named("backend").Info("request completed")
	l.Debug("hidden")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "backend", entry["logger"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, err := New(model.LogConfig{Path: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	assert.Error(t, err)
}

func TestNew_NoPathIsNop(t *testing.T) {
	l, err := New(model.LogConfig{Level: "debug"})
	require.NoError(t, err)
	l.Info("discarded")
}
