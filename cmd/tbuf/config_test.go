package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server_address: "0.0.0.0:9000"
serve_root: /srv/models
rate_limit: 25
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfigFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerAddress != "0.0.0.0:9000" {
		t.Errorf("server address: got %q", cfg.ServerAddress)
	}
	if cfg.ServeRoot != "/srv/models" {
		t.Errorf("serve root: got %q", cfg.ServeRoot)
	}
	if cfg.RateLimit != 25 {
		t.Errorf("rate limit: got %d", cfg.RateLimit)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
}

func TestLoadConfigFromMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigFromMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rate_limit: [not an int"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadConfigFrom(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
