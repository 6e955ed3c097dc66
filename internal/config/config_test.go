package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadParsesAllSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 10m
postgres:
  url: postgres://u:p@localhost/db
gemini:
  apiKey: test-key
questions:
  cacheTtl: 5m
battle:
  countdownTicks: 3
  timeLimit: 20s
challenge:
  ttl: 2m
matchmaking:
  minPlayers: 4
  maxPlayers: 6
  topic: science
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Gemini.APIKey != "test-key" || cfg.Battle.CountdownTicks != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Matchmaking.MinPlayers != 4 || cfg.Matchmaking.Topic != "science" {
		t.Fatalf("unexpected matchmaking config %+v", cfg.Matchmaking)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("empty string should fall back, got %v", d)
	}
	if d := TTLDuration("90s", time.Minute); d != 90*time.Second {
		t.Fatalf("expected parsed duration, got %v", d)
	}
	if d := TTLDuration("garbage", time.Minute); d != time.Minute {
		t.Fatalf("unparseable string should fall back, got %v", d)
	}
}
