package log

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	logFile *os.File
	writer  *bufio.Writer
)

// NewLogger builds the session logger: structured text to stdout and a
// buffered per-session file under saveDirectory. Call FlushAndClose on
// shutdown paths so the tail of the file survives.
func NewLogger(debug bool, saveDirectory, suffix string) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if saveDirectory == "" {
		saveDirectory = "logs"
	}
	if err := os.MkdirAll(saveDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("error creating log directory %s: %w", saveDirectory, err)
	}

	name := "grimleaf-log-" + time.Now().Format("2006-01-02-15_04_05")
	if suffix != "" {
		name += "-" + suffix
	}
	path := filepath.Join(saveDirectory, name+".txt")

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating log file %s: %w", path, err)
	}
	logFile = f
	writer = bufio.NewWriter(f)

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, writer), &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// FlushLog forces buffered log lines to disk. Safe to call from panic
// recovery handlers.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if writer != nil {
		_ = writer.Flush()
	}
}

// FlushAndClose flushes and closes the session log file. Logging after
// this still reaches stdout; the file writer is gone.
func FlushAndClose() {
	mu.Lock()
	defer mu.Unlock()
	if writer != nil {
		_ = writer.Flush()
		writer = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
