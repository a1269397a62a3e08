package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/emiliovps/ventia/internal/config"
)

func TestDuration_DecodesFromYAML(t *testing.T) {
	t.Parallel()
	yaml := `
catalog:
  lookup_timeout: 750ms
auth:
  token_ttl: 2h
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if got := cfg.Catalog.LookupTimeout.Std(); got != 750*time.Millisecond {
		t.Errorf("catalog.lookup_timeout = %v; want 750ms", got)
	}
	if got := cfg.Auth.TokenTTL.Std(); got != 2*time.Hour {
		t.Errorf("auth.token_ttl = %v; want 2h", got)
	}
}

func TestDuration_InvalidString_ReturnsError(t *testing.T) {
	t.Parallel()
	yaml := `
catalog:
  lookup_timeout: pronto
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "pronto") {
		t.Errorf("error should name the bad value, got: %v", err)
	}
}

func TestDuration_String(t *testing.T) {
	t.Parallel()
	d := config.Duration(90 * time.Second)
	if got := d.String(); got != "1m30s" {
		t.Errorf("String() = %q; want %q", got, "1m30s")
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	valid := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	for _, l := range valid {
		if !l.IsValid() {
			t.Errorf("LogLevel(%q).IsValid() = false; want true", l)
		}
	}
	if config.LogLevel("bananas").IsValid() {
		t.Error(`LogLevel("bananas").IsValid() = true; want false`)
	}
}

func TestLoadFromReader_UnknownField_ReturnsError(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  not_a_field: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: debug
database:
  postgres_dsn: "postgres://localhost/ventia"
catalog:
  seed_file: "seed/products.yaml"
  lookup_timeout: 2s
  lookup_limit: 8
  listing_limit: 200
providers:
  stt:
    name: whisper
    base_url: "http://localhost:8080"
  tts:
    name: piper
    base_url: "http://localhost:5000"
auth:
  token_secret: "s3cret"
  token_ttl: 1h
  bootstrap:
    email: "admin@bodega.pe"
    name: "Admin"
    password: "changeme"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server.log_level = %q", cfg.Server.LogLevel)
	}
	if cfg.Catalog.SeedFile != "seed/products.yaml" {
		t.Errorf("catalog.seed_file = %q", cfg.Catalog.SeedFile)
	}
	if cfg.Providers.STT.Name != "whisper" {
		t.Errorf("providers.stt.name = %q", cfg.Providers.STT.Name)
	}
	if cfg.Providers.TTS.BaseURL != "http://localhost:5000" {
		t.Errorf("providers.tts.base_url = %q", cfg.Providers.TTS.BaseURL)
	}
	if cfg.Auth.Bootstrap == nil || cfg.Auth.Bootstrap.Email != "admin@bodega.pe" {
		t.Errorf("auth.bootstrap = %+v", cfg.Auth.Bootstrap)
	}
}
