package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	multi "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log output goes and how verbose it is
type Config struct {
	Level    string `env:"LOG_LEVEL" default:"info"`
	FilePath string `env:"LOG_FILE"`
}

// New returns a logger that writes human-readable text to stdout and, if a file path
// is configured, JSON records to a size-rotated log file
func New(config Config) *slog.Logger {
	return newLogger(os.Stdout, config)
}

func newLogger(stdout io.Writer, config Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(config.Level),
	}
	textHandler := slog.NewTextHandler(stdout, opts)
	if config.FilePath == "" {
		return slog.New(textHandler)
	}

	logFile := &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    64,
		MaxBackups: 8,
		MaxAge:     30,
		Compress:   true,
	}
	return slog.New(
		multi.Fanout(
			textHandler,
			slog.NewJSONHandler(logFile, opts),
		),
	)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything, for use in tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
