package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestBuildWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	l, err := Build(Options{JSON: true, OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	l.Debug("hidden")
	l.Info("matching completed")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected debug entry to be filtered, got %d lines", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["step"] != "matching completed" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestBuildDebugLevel(t *testing.T) {
	l, err := Build(Options{Debug: true, OutputPaths: []string{filepath.Join(t.TempDir(), "log")}})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}
