package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8765" {
		t.Fatalf("default addr = %q", cfg.Addr)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("default shutdown timeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Setenv("KANJILAB_ADDR", ":9000")
	t.Setenv("KANJILAB_AUTO_ADMIN", "true")
	t.Setenv("KANJILAB_SHUTDOWN_TIMEOUT", "12s")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || !cfg.AutoAdmin {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 12*time.Second {
		t.Fatalf("shutdown timeout = %v, want 12s", cfg.ShutdownTimeout)
	}
}

func TestLoadBotFromEnv(t *testing.T) {
	t.Setenv("KANJILAB_SERVER_URL", "ws://example:1234/ws")
	t.Setenv("KANJILAB_ADMIN_PASSWORD", "hunter2")

	cfg, err := LoadBot()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "ws://example:1234/ws" || cfg.AdminPassword != "hunter2" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Name != "questionbot" {
		t.Fatalf("default name = %q", cfg.Name)
	}
}
