package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()

	Info("listening on %s", ":9008")
	Debug("hidden at info level")
	Infow("request", "method", "POST", "status", 200)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "listening on :9008") {
		t.Errorf("log missing info line: %q", got)
	}
	if strings.Contains(got, "hidden at info level") {
		t.Errorf("debug line written at info level: %q", got)
	}
	if !strings.Contains(got, "status=200") {
		t.Errorf("log missing structured field: %q", got)
	}
}

func TestInitWithOptionsDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	if err := InitWithOptions(Options{Path: path, Level: "debug"}); err != nil {
		t.Fatalf("InitWithOptions() error = %v", err)
	}
	defer Close()

	Debug("strategy %d failed", 1)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "strategy 1 failed") {
		t.Errorf("debug line missing: %q", string(data))
	}
}

func TestInitWithOptionsInvalidLevel(t *testing.T) {
	err := InitWithOptions(Options{Path: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
	Close()
}

func TestInitInvalidPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "dir", "x.log")); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestCloseDisablesLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Close()

	// Must not panic without a logger
	Info("nothing")
	Warn("nothing")
	Error("nothing")
	Debugw("nothing", "k", "v")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected nothing logged after Close, got %q", data)
	}
}
