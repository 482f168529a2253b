// ABOUTME: Tests for the debug log file sink
// ABOUTME: Verifies records land in the file and an empty path discards

package debuglog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")

	logger, closeFn, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("Query cache fetch", "key", "tutorials")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "Query cache fetch") || !strings.Contains(string(data), "key=tutorials") {
		t.Errorf("expected record in log file, got %q", data)
	}
}

func TestOpen_EmptyPathDiscards(t *testing.T) {
	logger, closeFn, err := Open("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	logger.Error("dropped")
}
