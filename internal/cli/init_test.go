package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	t.Setenv("PORT", "99999")

	_, _, err := Bootstrap("test")
	if err == nil {
		t.Fatal("Bootstrap() should fail for an out-of-range port")
	}
	if !strings.Contains(err.Error(), "invalid port 99999") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBootstrapAppliesLogSettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, logger, err := Bootstrap("test")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
	if logger.Component() != "test" {
		t.Errorf("Component() = %q, want test", logger.Component())
	}
}

func TestInitSQLite(t *testing.T) {
	repo, err := InitSQLite(filepath.Join(t.TempDir(), "nested", "cli.db"))
	if err != nil {
		t.Fatalf("InitSQLite() error = %v", err)
	}
	defer repo.Close()
}
