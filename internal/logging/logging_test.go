package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseLevel(t *testing.T) {
	tests := []struct {
		s    string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.s))
		})
	}
}

func Test_newLogger(t *testing.T) {
	t.Run("text output respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, Config{Level: "warn"})
		logger.Info("hidden")
		logger.Warn("shown", "channel", "somebody")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown channel=somebody")
	})
	t.Run("json records are written to the log file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "overlay.log")
		logger := newLogger(&buf, Config{Level: "info", FilePath: path})
		logger.Info("hello", "n", 1)

		data, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, buf.String(), "msg=hello")
	})
}
