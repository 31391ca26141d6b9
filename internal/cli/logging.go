package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// initLogging opens the JSON log file. The terminal belongs to the UI, so
// nothing is logged to stdout. An empty path picks the XDG cache dir.
func initLogging(path, level string) (*slog.Logger, io.Closer, error) {
	lvl, ok := logLevelMap[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		lvl = slog.LevelWarn
	}
	if path == "" {
		path = filepath.Join(cacheDir(), "tada.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl}))
	logger.Debug("logging initialized", "level", lvl.String(), "log_file", path)
	return logger, f, nil
}

// cacheDir returns the XDG cache directory for tada
func cacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tada")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tada")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Caches", "tada")
	}
	return filepath.Join(home, ".cache", "tada")
}
