package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Logger provides logging functionality for a sync run
type Logger struct {
	*log.Logger
	file *os.File
}

// NewLogger creates a new logger instance
func NewLogger(logDir string) (*Logger, error) {
	// Create log directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create log file with timestamp
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("sync_%s.log", timestamp))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	// Create logger
	logger := log.New(file, "", log.LstdFlags)
	return &Logger{
		Logger: logger,
		file:   file,
	}, nil
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LogStage records an orchestrator stage transition
func (l *Logger) LogStage(stage, detail string) {
	if detail != "" {
		l.Printf("Stage: %s (%s)\n", stage, detail)
	} else {
		l.Printf("Stage: %s\n", stage)
	}
}

// LogAPICall records a single remote call and its outcome
func (l *Logger) LogAPICall(method, path string, status int, err error) {
	if err != nil {
		l.Printf("API %s %s failed: %v\n", method, path, err)
	} else {
		l.Printf("API %s %s -> %d\n", method, path, status)
	}
}

// Warnf records a non-fatal warning
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Printf("WARNING: "+format+"\n", args...)
}
