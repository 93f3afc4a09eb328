package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))

	cfg, err := Load(logger, "no-such-config-file")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Server.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Expected default token TTL 24h, got %s", cfg.Server.Auth.TokenTTL)
	}
	if cfg.Transport.ReadTimeout != 60*time.Second {
		t.Errorf("Expected default read timeout 60s, got %s", cfg.Transport.ReadTimeout)
	}
	if cfg.Database.DSN == "" {
		t.Error("Expected a default database DSN")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	t.Setenv("BRIDGEON_SERVER_ADDRESS", ":9999")

	cfg, err := Load(logger, "no-such-config-file")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("Env override not applied, got %s", cfg.Server.Address)
	}
}
