package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcbuild.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = path
	cfg.Level = "debug"

	if err := Initialize(cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer InitializeDefault()

	Debug("selection changed")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "selection changed") {
		t.Errorf("log entry missing: %s", out)
	}
	if !strings.Contains(out, `"service":"pcbuild"`) {
		t.Errorf("service field missing: %s", out)
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "verbose"
	if err := Initialize(cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer InitializeDefault()

	if Logger.Core().Enabled(-1) {
		t.Error("debug should be disabled when level falls back to info")
	}
}
