package internal

import (
	"log"
	"os"
	"path/filepath"
)

// Logger writes leveled lines to the log file in the cache directory.
// A nil or disabled Logger discards everything.
type Logger struct {
	logger *log.Logger
	file   *os.File
	prefix string
}

// OpenLogger opens path for appending; it returns a disabled logger when
// enabled is false or the file cannot be opened
func OpenLogger(path, prefix string, enabled bool) *Logger {
	if !enabled {
		return &Logger{}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &Logger{}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &Logger{}
	}

	return &Logger{
		logger: log.New(file, "", log.LstdFlags|log.Lmicroseconds),
		file:   file,
		prefix: prefix,
	}
}

// Close closes the underlying log file
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) logf(level, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf("[%s] [%s] "+format, append([]any{l.prefix, level}, args...)...)
}

// Infof logs an info message
func (l *Logger) Infof(format string, args ...any) {
	l.logf("INFO", format, args...)
}

// Errorf logs an error message
func (l *Logger) Errorf(format string, args ...any) {
	l.logf("ERROR", format, args...)
}

// Debugf logs a debug message
func (l *Logger) Debugf(format string, args ...any) {
	l.logf("DEBUG", format, args...)
}
