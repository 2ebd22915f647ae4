package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/radio-control/sdrfe/internal/adapter"
)

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit file: %v", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := NewLogger(tempDir, Rotation{})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	expectedPath := filepath.Join(tempDir, FileName)
	if logger.GetFilePath() != expectedPath {
		t.Errorf("Expected file path %s, got %s", expectedPath, logger.GetFilePath())
	}
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("Audit log file was not created: %v", err)
	}
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "audit")

	logger, err := NewLogger(dir, Rotation{})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestNewLoggerRejectsFileAsDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLogger(file, Rotation{}); err == nil {
		t.Fatal("expected error when log dir is a regular file")
	}
}

func TestLogAction(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), Rotation{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = logger.Close() }()

	ctx := WithActor(context.Background(), "operator")
	logger.LogAction(ctx, "radio", "setTone", map[string]interface{}{"hz": 1000.0}, nil, 2*time.Millisecond)
	logger.LogAction(context.Background(), "codec", "setVolume", map[string]interface{}{"level": 12},
		adapter.InvalidArgument("codec.SetVolume", "level 12 outside [0, 9]"), 0)

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.Actor != "operator" || first.Target != "radio" || first.Action != "setTone" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if first.Code != CodeSuccess || first.Error != "" {
		t.Errorf("first entry code = %q error = %q", first.Code, first.Error)
	}
	if first.LatencyMs != 2 {
		t.Errorf("LatencyMs = %v, want 2", first.LatencyMs)
	}
	if first.Params["hz"] != 1000.0 {
		t.Errorf("params = %v", first.Params)
	}

	second := entries[1]
	if second.Actor != "local" {
		t.Errorf("Actor = %q, want local", second.Actor)
	}
	if second.Code != "INVALID_ARGUMENT" || second.Error == "" {
		t.Errorf("second entry code = %q error = %q", second.Code, second.Error)
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, CodeSuccess},
		{"invalid", adapter.ErrInvalidArgument, "INVALID_ARGUMENT"},
		{"timeout", context.DeadlineExceeded, "HARDWARE_TIMEOUT"},
		{"busy", adapter.ErrBusy, "BUSY"},
		{"unknown", errors.New("boom"), "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeFor(tt.err); got != tt.want {
				t.Errorf("CodeFor(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, Rotation{MaxBackups: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = logger.Close() }()

	logger.LogAction(context.Background(), "radio", "reset", nil, nil, 0)
	if err := logger.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	logger.LogAction(context.Background(), "radio", "setTune", nil, nil, 0)

	matches, err := filepath.Glob(filepath.Join(dir, "audit-*.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one backup, found %v", matches)
	}

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != 1 || entries[0].Action != "setTune" {
		t.Errorf("active file entries = %+v", entries)
	}
}

func TestCloseDropsLaterEntries(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), Rotation{})
	if err != nil {
		t.Fatal(err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}

	logger.LogAction(context.Background(), "radio", "reset", nil, nil, 0)
	if err := logger.Rotate(); err == nil {
		t.Error("Rotate() after Close should fail")
	}
	if entries := readEntries(t, logger.GetFilePath()); len(entries) != 0 {
		t.Errorf("entries after close: %+v", entries)
	}
}
