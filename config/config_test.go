package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.ListenAddr != ":8000" {
		t.Errorf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.SuggestionTTL != 5*time.Minute {
		t.Errorf("unexpected suggestion TTL: %s", cfg.SuggestionTTL)
	}
	if cfg.HealthInterval != 30*time.Second {
		t.Errorf("unexpected health interval: %s", cfg.HealthInterval)
	}
	if len(cfg.ShellAssets) == 0 {
		t.Error("expected a default shell asset list")
	}
	if cfg.ShellAssets[0] != "/" {
		t.Errorf("index page must lead the warm set, got %s", cfg.ShellAssets[0])
	}
}

func TestLoadConfigMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `shell_assets:
  - "/"
  - "/static/app.css"
static_suggestions:
  - { text: "Ver ofertas", icon: "percentage", category: "promociones" }
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg := LoadConfig()
	if len(cfg.ShellAssets) != 2 || cfg.ShellAssets[1] != "/static/app.css" {
		t.Fatalf("yaml asset list not applied: %v", cfg.ShellAssets)
	}
	if len(cfg.Suggestions) != 1 || cfg.Suggestions[0].Text != "Ver ofertas" {
		t.Fatalf("yaml suggestions not applied: %+v", cfg.Suggestions)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HEALTH_POLL_SECONDS", "5")
	t.Setenv("BACKEND_URL", "http://bot.internal:9000")

	cfg := LoadConfig()
	if cfg.HealthInterval != 5*time.Second {
		t.Errorf("env health interval not applied: %s", cfg.HealthInterval)
	}
	if cfg.BackendURL != "http://bot.internal:9000" {
		t.Errorf("env backend url not applied: %s", cfg.BackendURL)
	}
}
