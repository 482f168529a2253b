// ABOUTME: Debug log sink for the CLI and TUI that writes to a file
// ABOUTME: Keeps slog output off the terminal so it never corrupts the display

package debuglog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Open returns a debug-level logger appending to path, and a function that
// closes the file. An empty path yields a logger that discards everything.
func Open(path string) (*slog.Logger, func() error, error) {
	if path == "" {
		return Discard(), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return Discard(), func() error { return nil }, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return Discard(), func() error { return nil }, err
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), f.Close, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
