package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "be-dispatch" {
		t.Errorf("Service.Name = %q, want be-dispatch", cfg.Service.Name)
	}
	if cfg.Server.Port != 8087 {
		t.Errorf("Server.Port = %d, want 8087", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d, want localhost:5432", cfg.Database.Host, cfg.Database.Port)
	}
	if !cfg.NATS.Enabled {
		t.Error("NATS should be enabled by default")
	}
	if cfg.StatusesTTL != time.Minute {
		t.Errorf("StatusesTTL = %v, want 1m", cfg.StatusesTTL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DISPATCH_SERVER_PORT", "9099")
	t.Setenv("DISPATCH_DATABASE_HOST", "db.internal")
	t.Setenv("DISPATCH_NATS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9099 {
		t.Errorf("Server.Port = %d, want 9099", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.NATS.Enabled {
		t.Error("NATS.Enabled should honor the env override")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("DISPATCH_SERVER_PORT", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a negative port")
	}
}
