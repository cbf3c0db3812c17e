package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPEAK2FILL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("server.addr = %q, want %q", cfg.Server.Addr, ":8000")
	}
	if cfg.Language.Default != "en" {
		t.Errorf("language.default = %q, want %q", cfg.Language.Default, "en")
	}
	if len(cfg.Language.ConfirmationKeywords) != 0 {
		t.Errorf("confirmation_keywords should default empty, got %v", cfg.Language.ConfirmationKeywords)
	}
	if cfg.Sarvam.BaseURL != "https://api.sarvam.ai" {
		t.Errorf("sarvam.base_url = %q", cfg.Sarvam.BaseURL)
	}
	if cfg.Sarvam.Timeout != 15*time.Second {
		t.Errorf("sarvam.timeout = %v, want 15s", cfg.Sarvam.Timeout)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash-lite" {
		t.Errorf("gemini.model = %q", cfg.Gemini.Model)
	}
	if !cfg.Gemini.Warmup {
		t.Error("gemini.warmup should default true")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`
[server]
addr = ":9090"
read_timeout = "5s"

[database]
path = "/tmp/custom.db"

[language]
default = "ml"
confirmation_keywords = ["done", "finito"]

[sarvam]
base_url = "http://localhost:9100"
timeout = "2s"

[gemini]
warmup = false
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPEAK2FILL_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %q, want %q", cfg.Server.Addr, ":9090")
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	// File didn't set write_timeout; the default stays
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("server.write_timeout = %v, want 60s", cfg.Server.WriteTimeout)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Language.Default != "ml" {
		t.Errorf("language.default = %q, want %q", cfg.Language.Default, "ml")
	}
	if len(cfg.Language.ConfirmationKeywords) != 2 {
		t.Errorf("confirmation_keywords = %v, want 2 entries", cfg.Language.ConfirmationKeywords)
	}
	if cfg.Sarvam.Timeout != 2*time.Second {
		t.Errorf("sarvam.timeout = %v, want 2s", cfg.Sarvam.Timeout)
	}
	if cfg.Gemini.Warmup {
		t.Error("gemini.warmup should be false")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SPEAK2FILL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("SPEAK2FILL_SERVER_ADDR", ":7777")
	t.Setenv("SPEAK2FILL_LANGUAGE_DEFAULT", "ml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("server.addr = %q, want %q", cfg.Server.Addr, ":7777")
	}
	if cfg.Language.Default != "ml" {
		t.Errorf("language.default = %q, want %q", cfg.Language.Default, "ml")
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("TEST_API_KEY_VAR", "from-env")

	if got := ResolveAPIKey("literal", "TEST_API_KEY_VAR"); got != "literal" {
		t.Errorf("literal key: got %q", got)
	}
	if got := ResolveAPIKey("", "TEST_API_KEY_VAR"); got != "from-env" {
		t.Errorf("env key: got %q", got)
	}
	if got := ResolveAPIKey("", ""); got != "" {
		t.Errorf("no key: got %q", got)
	}
	if got := ResolveAPIKey("", "UNSET_VAR_FOR_TEST"); got != "" {
		t.Errorf("unset env: got %q", got)
	}
}
