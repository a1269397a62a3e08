package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt": {"whisper", "vosk", "mock"},
	"tts": {"piper", "mock"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Catalog
	if cfg.Catalog.LookupTimeout < 0 {
		errs = append(errs, fmt.Errorf("catalog.lookup_timeout must not be negative, got %s", cfg.Catalog.LookupTimeout))
	}
	if cfg.Catalog.LookupLimit < 0 {
		errs = append(errs, fmt.Errorf("catalog.lookup_limit must not be negative, got %d", cfg.Catalog.LookupLimit))
	}
	if cfg.Catalog.ListingLimit < 0 {
		errs = append(errs, fmt.Errorf("catalog.listing_limit must not be negative, got %d", cfg.Catalog.ListingLimit))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("stt", cfg.Providers.STTFallback.Name)
	validateProviderName("tts", cfg.Providers.TTSFallback.Name)

	// Auth
	if cfg.Auth.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must not be negative, got %s", cfg.Auth.TokenTTL))
	}
	if b := cfg.Auth.Bootstrap; b != nil {
		if cfg.Auth.TokenSecret == "" {
			errs = append(errs, errors.New("auth.bootstrap requires auth.token_secret"))
		}
		if b.Email == "" || b.Password == "" {
			errs = append(errs, errors.New("auth.bootstrap requires both email and password"))
		}
	}

	// Availability warnings
	if cfg.Database.PostgresDSN == "" {
		slog.Warn("database.postgres_dsn is empty; catalog, sales and users will live in memory only")
	}
	if cfg.Auth.TokenSecret == "" {
		slog.Warn("auth.token_secret is empty; the API will run without authentication")
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; audio transcription endpoints will be unavailable")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
