package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// OpenFile opens path for appending and returns a logger that writes JSON
// records with source locations to it. The caller closes the returned file.
func OpenFile(path string, debug bool) (*slog.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return New(WithDebug(debug), WithJSON(true), WithSource(true), WithWriter(f)), f, nil
}

// Console builds the logger a server command writes to the terminal: pretty
// output, or JSON when jsonLogs is set. When logFile is not empty every record
// is also written to that file through OpenFile. closeFn releases the file
// and is never nil.
func Console(debug, jsonLogs bool, logFile string) (l *slog.Logger, closeFn func() error, err error) {
	console := New(WithDebug(debug), WithJSON(jsonLogs), WithPretty(!jsonLogs))
	if logFile == "" {
		return console, func() error { return nil }, nil
	}

	fileLogger, f, err := OpenFile(logFile, debug)
	if err != nil {
		return nil, nil, err
	}
	return Multi(console, fileLogger), f.Close, nil
}
