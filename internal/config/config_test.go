package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORKLOG_STORAGE_PATH", filepath.Join(dir, "worklog.db"))

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPPort != 8080 || cfg.Server.MetricsPort != 9090 {
		t.Fatalf("unexpected default ports: %+v", cfg.Server)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected default logging: %+v", cfg.Logging)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  http_port: 9000
logging:
  level: debug
  format: text
storage:
  path: ` + filepath.Join(dir, "db", "worklog.db") + `
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPPort != 9000 {
		t.Fatalf("file value should override default: %d", cfg.Server.HTTPPort)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}

	// validate() creates the storage directory
	if _, err := os.Stat(filepath.Join(dir, "db")); err != nil {
		t.Fatalf("storage directory should exist: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORKLOG_STORAGE_PATH", filepath.Join(dir, "worklog.db"))
	t.Setenv("WORKLOG_SERVER_HTTP_PORT", "8888")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPPort != 8888 {
		t.Fatalf("env value should override default: %d", cfg.Server.HTTPPort)
	}
}

func TestValidatePortCollision(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORKLOG_STORAGE_PATH", filepath.Join(dir, "worklog.db"))
	t.Setenv("WORKLOG_SERVER_METRICS_PORT", "8080")

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error when metrics port collides with HTTP port")
	}
}

func TestValidateBadPort(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORKLOG_STORAGE_PATH", filepath.Join(dir, "worklog.db"))
	t.Setenv("WORKLOG_SERVER_HTTP_PORT", "70000")

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
