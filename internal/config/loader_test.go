package config_test

import (
	"strings"
	"testing"

	"github.com/emiliovps/ventia/internal/config"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: "/etc/ventia/cert.pem"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS with missing key_file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}

func TestValidate_NegativeCatalogLimits(t *testing.T) {
	t.Parallel()
	yaml := `
catalog:
  lookup_limit: -1
  listing_limit: -5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative catalog limits, got nil")
	}
	if !strings.Contains(err.Error(), "lookup_limit") {
		t.Errorf("error should mention lookup_limit, got: %v", err)
	}
	if !strings.Contains(err.Error(), "listing_limit") {
		t.Errorf("error should mention listing_limit, got: %v", err)
	}
}

func TestValidate_BootstrapRequiresSecret(t *testing.T) {
	t.Parallel()
	yaml := `
auth:
  bootstrap:
    email: "admin@bodega.pe"
    password: "changeme"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for bootstrap without token_secret, got nil")
	}
	if !strings.Contains(err.Error(), "token_secret") {
		t.Errorf("error should mention token_secret, got: %v", err)
	}
}

func TestValidate_BootstrapRequiresCredentials(t *testing.T) {
	t.Parallel()
	yaml := `
auth:
  token_secret: "s3cret"
  bootstrap:
    email: "admin@bodega.pe"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for bootstrap without password, got nil")
	}
	if !strings.Contains(err.Error(), "email and password") {
		t.Errorf("error should mention email and password, got: %v", err)
	}
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	t.Parallel()
	// An empty config is valid: everything has a safe fallback (in-memory
	// stores, no auth, no providers). Warnings are logged, not errors.
	cfg, err := config.LoadFromReader(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
}

func TestValidate_UnknownProviderNameIsNotAnError(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  stt:
    name: deepgram
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err != nil {
		t.Fatalf("unknown provider names should only warn, got error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/ventia.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
