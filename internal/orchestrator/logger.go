package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger writes timestamped engine traces to a file. A logger without
// a file discards everything, so a nil or zero value is always usable.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewDebugLogger creates a logger writing to the specified path.
// If the path is empty, returns a no-op logger.
// Creates parent directories if they don't exist.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{file: f}
	logger.Log("=== troupe session started at %s ===", time.Now().Format(time.RFC3339))
	return logger, nil
}

// DebugLogPath returns the debug log location inside a state directory.
func DebugLogPath(stateDir string) string {
	return filepath.Join(stateDir, "logs", "orchestrator-debug.log")
}

// NewDebugLoggerForStateDir creates a debug logger under stateDir/logs.
// Returns a no-op logger if the file cannot be opened.
func NewDebugLoggerForStateDir(stateDir string) *DebugLogger {
	logger, err := NewDebugLogger(DebugLogPath(stateDir))
	if err != nil {
		return &DebugLogger{}
	}
	return logger
}

// NopLogger returns a logger that discards everything.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a timestamped message to the debug log.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.file, "[%s] %s\n", time.Now().Format("15:04:05.000"), msg)
	_ = l.file.Sync()
}

// Close closes the log file.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
