package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"", logrus.InfoLevel},
		{"nonsense", logrus.InfoLevel},
	}

	for _, tt := range tests {
		logger := New(tt.level, &bytes.Buffer{})
		assert.Equal(t, tt.expected, logger.GetLevel(), "level %q", tt.level)
	}
}

func TestWithComponent_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)

	WithComponent(logger, "sync").WithField("rides", 3).Info("sync complete")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sync", entry["component"])
	assert.Equal(t, "sync complete", entry["msg"])
	assert.EqualValues(t, 3, entry["rides"])
}

func TestWithComponent_NilLogger(t *testing.T) {
	entry := WithComponent(nil, "query")
	assert.NotNil(t, entry)
	entry.Info("dropped")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "velowatt.log")

	logger, closer, err := OpenFile("debug", path)
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
