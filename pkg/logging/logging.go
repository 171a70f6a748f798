// Package logging writes structured JSON-line events to a log file.
// The TUI owns the terminal, so nothing in the application may log to
// stdout or stderr once the program is running.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Event is a single structured log record.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Component string         `json:"component"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// Logger writes events to a single append-only file. A nil *Logger is a
// valid no-op logger, so components never need to guard their log calls.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	minLevel Level
}

// Open creates (or appends to) the log file at path, creating parent
// directories as needed.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{file: f, minLevel: LevelInfo}, nil
}

// SetMinLevel changes the lowest severity that gets written.
func (l *Logger) SetMinLevel(level Level) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

func (l *Logger) write(level Level, component, message string, details map[string]any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || levelRank[level] < levelRank[l.minLevel] {
		return
	}
	ev := Event{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Details:   details,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	l.file.Write(append(data, '\n'))
}

// Debug logs a debug-level event.
func (l *Logger) Debug(component, message string, details map[string]any) {
	l.write(LevelDebug, component, message, details)
}

// Info logs an info-level event.
func (l *Logger) Info(component, message string, details map[string]any) {
	l.write(LevelInfo, component, message, details)
}

// Warn logs a warning.
func (l *Logger) Warn(component, message string, details map[string]any) {
	l.write(LevelWarn, component, message, details)
}

// Error logs an error-level event.
func (l *Logger) Error(component, message string, details map[string]any) {
	l.write(LevelError, component, message, details)
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
