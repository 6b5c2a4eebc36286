package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `environment: test
sources:
  primary:
    name: YAHOO_FINANCE
    url: https://example.com/chart/SPY
    confidence: 85
  backups:
    - name: ALPHA_VANTAGE
      url: https://example.com/query
      confidence: 75
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Collector.Interval != 5*time.Minute {
		t.Fatalf("default interval, got %v", cfg.Collector.Interval)
	}
	if cfg.Compute.Workers != 4 || cfg.Compute.QueueSize != 64 {
		t.Fatalf("default compute, got %+v", cfg.Compute)
	}
	if cfg.WebSocket.Path != "/ws/spy" {
		t.Fatalf("default ws path, got %q", cfg.WebSocket.Path)
	}
	if cfg.Cache.LatestTTL != time.Minute {
		t.Fatalf("default latest ttl, got %v", cfg.Cache.LatestTTL)
	}
	if cfg.Sources.Primary.UnitShares != 50000 {
		t.Fatalf("default unit shares, got %d", cfg.Sources.Primary.UnitShares)
	}
	if cfg.Sources.Backups[0].UnitShares != 50000 {
		t.Fatalf("default backup unit shares, got %d", cfg.Sources.Backups[0].UnitShares)
	}
}

func TestLoadRejectsMissingPrimary(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\n")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	yaml := minimalYAML + `kafka:
  enabled: true
  topic: spy-flow-results
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatalf("expected kafka brokers error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_API_KEY", "secret")
	t.Setenv("COLLECT_INTERVAL", "90s")
	t.Setenv("PORT", "9999")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Sources.Backups[0].APIKey != "secret" {
		t.Fatalf("api key override missing")
	}
	if cfg.Collector.Interval != 90*time.Second {
		t.Fatalf("interval override missing, got %v", cfg.Collector.Interval)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("port override missing, got %d", cfg.Server.Port)
	}
}
